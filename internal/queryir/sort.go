package queryir

import "strings"

// Sort is an ordering of query rows: a single PathSort or a CompositeSort.
type Sort interface {
	Expression
	sortNode() // Marker method - seals interface to this package
}

// Direction is the sort direction of a PathSort.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// PathSort orders by a single expression.
type PathSort struct {
	Path      TypedExpression
	Direction Direction
}

func (*PathSort) sortNode() {}

// CompositeSort orders by each of its sorts in turn.
type CompositeSort struct {
	Sorts []Sort
}

func (*CompositeSort) sortNode() {}

func Asc(path TypedExpression) *PathSort  { return &PathSort{Path: path, Direction: Ascending} }
func Desc(path TypedExpression) *PathSort { return &PathSort{Path: path, Direction: Descending} }

// Compose creates a composite of the given sorts. Nested composites are kept
// as given; FlattenSort linearizes them.
func Compose(sorts ...Sort) *CompositeSort {
	return &CompositeSort{Sorts: sorts}
}

// FlattenSort linearizes any nesting of composite sorts into leaf sorts,
// left to right and outer to inner. Duplicates are kept.
func FlattenSort(s Sort) []*PathSort {
	var out []*PathSort
	var walk func(Sort)
	walk = func(s Sort) {
		switch v := s.(type) {
		case *PathSort:
			if v != nil {
				out = append(out, v)
			}
		case *CompositeSort:
			if v != nil {
				for _, child := range v.Sorts {
					walk(child)
				}
			}
		}
	}
	walk(s)
	return out
}

func (s *PathSort) Validate() error {
	if isNil(s.Path) {
		return newValidationError(s, "missing sort path")
	}
	return nil
}

func (s *CompositeSort) Validate() error {
	if len(s.Sorts) == 0 {
		return newValidationError(s, "empty sort composition")
	}
	for _, child := range s.Sorts {
		if isNil(child) {
			return newValidationError(s, "nil sort in composition")
		}
		if nested, ok := child.(*CompositeSort); ok {
			if err := nested.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *PathSort) String() string { return str(s.Path) + " " + s.Direction.String() }

func (s *CompositeSort) String() string {
	parts := make([]string, len(s.Sorts))
	for i, child := range s.Sorts {
		parts[i] = str(child)
	}
	return strings.Join(parts, ", ")
}
