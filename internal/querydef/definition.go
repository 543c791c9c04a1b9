// Package querydef reads declarative query definitions from YAML and
// compiles them into the abstract query model.
//
// Operands are written as strings:
//
//	key                 path of the query target
//	nested.inner        embedded path
//	TestOtherDomain:code path of an explicitly named target
//	upper(stringValue)  function application
//	current_date        argument-less function
//	count(*)            row count
package querydef

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is a query definition file.
type Definition struct {
	// Name identifies the query.
	Name string `yaml:"name"`

	// Description explains what the query returns.
	Description string `yaml:"description,omitempty"`

	// Target is the catalog entity queried.
	Target string `yaml:"target"`

	// Alias overrides the entity's default alias.
	Alias string `yaml:"alias,omitempty"`

	// Joins are additional entities joined to the target.
	Joins []Join `yaml:"joins,omitempty"`

	// Select lists the projected operands. Empty selects every property
	// of the target; ["count(*)"] counts rows.
	Select []string `yaml:"select,omitempty"`

	// Shape projects the properties of a catalog entity instead of Select.
	Shape string `yaml:"shape,omitempty"`

	Filter *Filter `yaml:"filter,omitempty"`
	Sort   []Sort  `yaml:"sort,omitempty"`

	GroupBy []string `yaml:"group_by,omitempty"`
	Having  *Filter  `yaml:"having,omitempty"`

	Limit  int `yaml:"limit,omitempty"`
	Offset int `yaml:"offset,omitempty"`

	// Timeout is a Go duration string ("2s") set as the query timeout.
	Timeout string `yaml:"timeout,omitempty"`

	// Parameters are passed through to the query configuration.
	Parameters map[string]any `yaml:"parameters,omitempty"`
}

// Join declares a joined entity.
type Join struct {
	Kind   string  `yaml:"kind,omitempty"` // inner (default) or left
	Target string  `yaml:"target"`
	Alias  string  `yaml:"alias,omitempty"`
	On     *Filter `yaml:"on"`
}

// Sort orders by one operand.
type Sort struct {
	Path      string `yaml:"path"`
	Direction string `yaml:"direction,omitempty"` // asc (default) or desc
}

// Filter is one filter node. Exactly one of And, Or, Not, Exists,
// NotExists or Op must be set.
type Filter struct {
	And       []Filter  `yaml:"and,omitempty"`
	Or        []Filter  `yaml:"or,omitempty"`
	Not       *Filter   `yaml:"not,omitempty"`
	Exists    *SubQuery `yaml:"exists,omitempty"`
	NotExists *SubQuery `yaml:"not_exists,omitempty"`

	// Path is the left operand of Op.
	Path string `yaml:"path,omitempty"`

	// Op is one of eq, ne, gt, gte, lt, lte, in, not_in, between, is_null,
	// not_null, matches, contains, starts_with, ends_with.
	Op string `yaml:"op,omitempty"`

	// Right operand: a literal Value, another operand Ref, or a sub-query
	// Query (in / not_in only).
	Value any       `yaml:"value,omitempty"`
	Ref   string    `yaml:"ref,omitempty"`
	Query *SubQuery `yaml:"query,omitempty"`

	// Range bounds of between.
	From any `yaml:"from,omitempty"`
	To   any `yaml:"to,omitempty"`

	IgnoreCase bool `yaml:"ignore_case,omitempty"`
}

// SubQuery is a nested query.
type SubQuery struct {
	Target string  `yaml:"target"`
	Alias  string  `yaml:"alias,omitempty"`
	Select string  `yaml:"select"`
	Filter *Filter `yaml:"filter,omitempty"`
}

// Load reads and parses a definition file.
// Unknown fields are rejected so typos surface as errors.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query definition: %w", err)
	}
	return Parse(data)
}

// Parse parses a definition from YAML.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateDefinition(&def); err != nil {
		return nil, fmt.Errorf("invalid query definition: %w", err)
	}
	return &def, nil
}

// validateDefinition checks required fields. Operand and filter contents
// are checked by Compile.
func validateDefinition(d *Definition) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.Target == "" {
		return fmt.Errorf("target is required")
	}
	if d.Shape != "" && len(d.Select) > 0 {
		return fmt.Errorf("select and shape are mutually exclusive")
	}
	if d.Having != nil && len(d.GroupBy) == 0 {
		return fmt.Errorf("having requires group_by")
	}
	if d.Limit < 0 || d.Offset < 0 {
		return fmt.Errorf("limit and offset must not be negative")
	}
	for i, j := range d.Joins {
		if j.Target == "" {
			return fmt.Errorf("joins[%d]: target is required", i)
		}
		if j.On == nil {
			return fmt.Errorf("joins[%d]: on is required", i)
		}
		if j.Kind != "" && j.Kind != "inner" && j.Kind != "left" {
			return fmt.Errorf("joins[%d]: unknown kind %q", i, j.Kind)
		}
	}
	for i, s := range d.Sort {
		if s.Path == "" {
			return fmt.Errorf("sort[%d]: path is required", i)
		}
		if s.Direction != "" && s.Direction != "asc" && s.Direction != "desc" {
			return fmt.Errorf("sort[%d]: unknown direction %q", i, s.Direction)
		}
	}
	return nil
}
