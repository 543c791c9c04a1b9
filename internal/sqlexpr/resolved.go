package sqlexpr

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/qbridge/internal/catalog"
	"github.com/roach88/qbridge/internal/queryir"
)

// Kind identifies the result type requested from the resolution engine.
type Kind int

const (
	KindExpression Kind = iota
	KindPredicate
	KindOrder
	KindAggregation
	KindProjection
	KindEntity
)

func (k Kind) String() string {
	switch k {
	case KindExpression:
		return "expression"
	case KindPredicate:
		return "predicate"
	case KindOrder:
		return "order"
	case KindAggregation:
		return "aggregation"
	case KindProjection:
		return "projection"
	case KindEntity:
		return "entity"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrInvalid is wrapped by every Validate failure of a resolved value.
var ErrInvalid = errors.New("invalid resolved expression")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Resolved is the result of resolving an abstract expression.
type Resolved interface {
	Kind() Kind
	Validate() error
}

// Expr is a resolved value expression.
type Expr struct {
	SQL  sq.Sqlizer
	Type queryir.Type

	// Column is the qualified column reference ("alias.column") when the
	// expression is a plain column.
	Column string

	// Literal marks bound constants. Value holds the driver parameter, or
	// the parameter list when Collection is set.
	Literal    bool
	Value      any
	Collection bool

	// SubQuery marks a parenthesized nested SELECT, usable as a scalar
	// operand or with IN and EXISTS.
	SubQuery bool
}

func (Expr) Kind() Kind { return KindExpression }

func (e Expr) Validate() error {
	if e.SQL == nil {
		return invalid("expression has no SQL")
	}
	return nil
}

// IsNull reports whether e is the NULL literal.
func (e Expr) IsNull() bool { return e.Literal && !e.Collection && e.Value == nil }

// Text renders the expression.
func (e Expr) Text() (string, []any, error) {
	if e.SQL == nil {
		return "", nil, invalid("expression has no SQL")
	}
	return e.SQL.ToSql()
}

// Predicate is a resolved boolean condition.
type Predicate struct {
	SQL sq.Sqlizer
}

func (Predicate) Kind() Kind { return KindPredicate }

func (p Predicate) Validate() error {
	if p.SQL == nil {
		return invalid("predicate has no SQL")
	}
	return nil
}

// ToSql implements squirrel.Sqlizer so predicates compose directly.
func (p Predicate) ToSql() (string, []any, error) {
	if p.SQL == nil {
		return "", nil, invalid("predicate has no SQL")
	}
	return p.SQL.ToSql()
}

// OrderSpecifier orders by one expression.
type OrderSpecifier struct {
	Expr       Expr
	Descending bool
}

// Clause renders the specifier as an ORDER BY item.
func (o OrderSpecifier) Clause() (string, []any, error) {
	sql, args, err := o.Expr.Text()
	if err != nil {
		return "", nil, err
	}
	if o.Descending {
		return sql + " DESC", args, nil
	}
	return sql + " ASC", args, nil
}

// Order is a resolved, flattened ordering.
type Order struct {
	Specifiers []OrderSpecifier
}

func (Order) Kind() Kind { return KindOrder }

func (o Order) Validate() error {
	if len(o.Specifiers) == 0 {
		return invalid("order has no specifiers")
	}
	for i, s := range o.Specifiers {
		if err := s.Expr.Validate(); err != nil {
			return fmt.Errorf("order specifier %d: %w", i, err)
		}
	}
	return nil
}

// Aggregation is a resolved GROUP BY with optional HAVING.
type Aggregation struct {
	GroupBy []Expr
	Having  *Predicate
}

func (Aggregation) Kind() Kind { return KindAggregation }

func (a Aggregation) Validate() error {
	if len(a.GroupBy) == 0 {
		return invalid("aggregation has no group-by expressions")
	}
	for i, g := range a.GroupBy {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("group-by %d: %w", i, err)
		}
	}
	if a.Having != nil {
		return a.Having.Validate()
	}
	return nil
}

// Projection is a resolved selection list. Labels name the result columns
// positionally.
type Projection struct {
	Selection []Expr
	Labels    []string
}

func (Projection) Kind() Kind { return KindProjection }

func (p Projection) Validate() error {
	if len(p.Selection) == 0 {
		return invalid("empty projection selection")
	}
	if len(p.Labels) != len(p.Selection) {
		return invalid("projection has %d labels for %d expressions", len(p.Labels), len(p.Selection))
	}
	for i, e := range p.Selection {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("selection %d: %w", i, err)
		}
	}
	return nil
}

// Append returns a projection with e added under label.
func (p Projection) Append(e Expr, label string) Projection {
	return Projection{
		Selection: append(append([]Expr(nil), p.Selection...), e),
		Labels:    append(append([]string(nil), p.Labels...), label),
	}
}

// Entity is a resolved query target: a catalog entity bound to an alias.
type Entity struct {
	Name  string
	Table string
	Alias string
	Meta  *catalog.Entity
}

func (Entity) Kind() Kind { return KindEntity }

func (e Entity) Validate() error {
	if e.Table == "" {
		return invalid("entity %s has no table", e.Name)
	}
	if e.Alias == "" {
		return invalid("entity %s has no alias", e.Name)
	}
	return nil
}

// From renders the entity as a FROM/JOIN item.
func (e Entity) From() string {
	return e.Table + " " + e.Alias
}

// Qualify returns the qualified column for a property path.
func (e Entity) Qualify(path string) string {
	column := catalog.DefaultColumn(path)
	if e.Meta != nil {
		column = e.Meta.Column(path)
	}
	return e.Alias + "." + column
}
