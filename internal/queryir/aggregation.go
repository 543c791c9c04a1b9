package queryir

import "strings"

// Aggregation groups rows by Paths and optionally filters the groups.
type Aggregation struct {
	Paths  []TypedExpression
	Having Filter
}

// GroupBy creates an aggregation over the given paths.
func GroupBy(paths ...TypedExpression) *Aggregation {
	return &Aggregation{Paths: paths}
}

// WithHaving returns a copy of the aggregation filtering groups by f.
func (a *Aggregation) WithHaving(f Filter) *Aggregation {
	cp := *a
	cp.Having = f
	return &cp
}

func (a *Aggregation) Validate() error {
	if a == nil || len(a.Paths) == 0 {
		return newValidationError(a, "empty aggregation paths")
	}
	for _, p := range a.Paths {
		if isNil(p) {
			return newValidationError(a, "nil aggregation path")
		}
	}
	return nil
}

func (a *Aggregation) String() string {
	if a == nil {
		return "<nil aggregation>"
	}
	parts := make([]string, len(a.Paths))
	for i, p := range a.Paths {
		parts[i] = str(p)
	}
	s := "group by " + strings.Join(parts, ", ")
	if !isNil(a.Having) {
		s += " having " + a.Having.String()
	}
	return s
}
