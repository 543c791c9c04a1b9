// Package catalog maps entity names to their relational metadata: table,
// default alias and declared properties.
//
// A Catalog is built once and injected into resolution contexts. Entities
// are usually declared in CUE files:
//
//	entity: Test: {
//		table: "test_data"
//		alias: "t"
//		properties: {
//			key:         {type: "int", column: "code"}
//			stringValue: {type: "string"}
//		}
//	}
package catalog

import (
	"fmt"
	"strings"

	"github.com/stoewer/go-strcase"

	"github.com/roach88/qbridge/internal/queryir"
)

// Property is a declared property of an entity.
type Property struct {
	Path   string // dotted property path, e.g. "nested.nestedStringValue"
	Column string // SQL column; empty means the snake_case default
	Type   queryir.Type
}

// Entity describes how a query target maps onto a table.
type Entity struct {
	Name       string
	Table      string
	Alias      string
	Properties []Property // declaration order
}

// NewEntity creates an entity with default table and alias names.
func NewEntity(name string, props ...Property) *Entity {
	return &Entity{
		Name:       name,
		Table:      strcase.SnakeCase(name),
		Alias:      strcase.SnakeCase(name),
		Properties: props,
	}
}

// Property looks up a declared property by path.
func (e *Entity) Property(path string) (Property, bool) {
	for _, p := range e.Properties {
		if p.Path == path {
			return p, true
		}
	}
	return Property{}, false
}

// Column returns the SQL column of a property path. Undeclared paths map
// to the snake_case form of their segments joined with "_".
func (e *Entity) Column(path string) string {
	if p, ok := e.Property(path); ok && p.Column != "" {
		return p.Column
	}
	return DefaultColumn(path)
}

// Paths lists the declared property paths in declaration order.
func (e *Entity) Paths() []string {
	out := make([]string, len(e.Properties))
	for i, p := range e.Properties {
		out[i] = p.Path
	}
	return out
}

// DefaultColumn derives a column name from a dotted property path.
func DefaultColumn(path string) string {
	segments := strings.Split(path, ".")
	for i, s := range segments {
		segments[i] = strcase.SnakeCase(s)
	}
	return strings.Join(segments, "_")
}

func (e *Entity) validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("entity name is required")
	}
	if strings.TrimSpace(e.Table) == "" {
		return fmt.Errorf("entity %s: table is required", e.Name)
	}
	seen := make(map[string]bool, len(e.Properties))
	for _, p := range e.Properties {
		if p.Path == "" {
			return fmt.Errorf("entity %s: property path is required", e.Name)
		}
		if seen[p.Path] {
			return fmt.Errorf("entity %s: duplicate property %q", e.Name, p.Path)
		}
		seen[p.Path] = true
	}
	return nil
}

// Catalog is an immutable set of entities keyed by name.
type Catalog struct {
	entities []*Entity
	byName   map[string]*Entity
}

// New creates a catalog. Entity names must be unique.
func New(entities ...*Entity) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if e == nil {
			continue
		}
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %q", e.Name)
		}
		c.byName[e.Name] = e
		c.entities = append(c.entities, e)
	}
	return c, nil
}

// Entity looks up an entity by name.
func (c *Catalog) Entity(name string) (*Entity, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.byName[name]
	return e, ok
}

// Entities returns all entities in declaration order.
func (c *Catalog) Entities() []*Entity {
	if c == nil {
		return nil
	}
	return append([]*Entity(nil), c.entities...)
}
