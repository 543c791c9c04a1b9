package queryir

import (
	"fmt"
	"maps"
	"time"
)

// ParamTimeout is the query parameter holding the execution timeout as a
// time.Duration.
const ParamTimeout = "query.timeout"

// Configuration holds everything attached to a query except its projection.
//
// Filters and Sorts accumulate in order. Limit and Offset are ignored when
// zero. Parameters carry execution hints to the datastore.
type Configuration struct {
	Target      *Target
	Filters     []Filter
	Sorts       []Sort
	Aggregation *Aggregation
	Limit       int
	Offset      int
	Parameters  map[string]any
}

// Filter combines the accumulated filters: nil when there are none, the
// single filter, or an AND of all of them in order.
func (c *Configuration) Filter() Filter {
	switch len(c.Filters) {
	case 0:
		return nil
	case 1:
		return c.Filters[0]
	default:
		return And(c.Filters...)
	}
}

// Sort composes the accumulated sorts, or nil when there are none.
func (c *Configuration) Sort() Sort {
	switch len(c.Sorts) {
	case 0:
		return nil
	case 1:
		return c.Sorts[0]
	default:
		return Compose(c.Sorts...)
	}
}

// Parameter returns a named parameter.
func (c *Configuration) Parameter(name string) (any, bool) {
	v, ok := c.Parameters[name]
	return v, ok
}

// Timeout returns the ParamTimeout parameter, if set to a positive duration.
func (c *Configuration) Timeout() (time.Duration, bool) {
	v, ok := c.Parameters[ParamTimeout]
	if !ok {
		return 0, false
	}
	d, ok := v.(time.Duration)
	return d, ok && d > 0
}

// Clone returns a copy that shares no slices or maps with c.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return &Configuration{}
	}
	cp := *c
	cp.Filters = append([]Filter(nil), c.Filters...)
	cp.Sorts = append([]Sort(nil), c.Sorts...)
	if c.Parameters != nil {
		cp.Parameters = maps.Clone(c.Parameters)
	}
	return &cp
}

func (c *Configuration) Validate() error {
	if c == nil {
		return newValidationError(c, "missing query configuration")
	}
	if c.Target == nil {
		return newValidationError(c, "missing query target")
	}
	if c.Limit < 0 {
		return newValidationError(c, fmt.Sprintf("negative limit %d", c.Limit))
	}
	if c.Offset < 0 {
		return newValidationError(c, fmt.Sprintf("negative offset %d", c.Offset))
	}
	return c.Target.Validate()
}

func (c *Configuration) String() string {
	if c == nil {
		return "<nil configuration>"
	}
	s := "from " + c.Target.String()
	if f := c.Filter(); f != nil {
		s += " where " + f.String()
	}
	if srt := c.Sort(); srt != nil {
		s += " order by " + srt.String()
	}
	if c.Aggregation != nil {
		s += " " + c.Aggregation.String()
	}
	if c.Limit > 0 {
		s += fmt.Sprintf(" limit %d", c.Limit)
	}
	if c.Offset > 0 {
		s += fmt.Sprintf(" offset %d", c.Offset)
	}
	return s
}
