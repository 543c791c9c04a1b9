package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/qbridge/internal/ir"
)

// Filter is a boolean predicate over query rows.
//
// The built-in filters are listed below. Custom filters embed FilterBase
// and are resolved by resolvers registered for their concrete type.
//
// Filter types:
//   - NullFilter, NotNullFilter: unary null checks
//   - EqualFilter, NotEqualFilter, GreaterFilter, LessFilter: comparisons
//   - InFilter, NotInFilter: membership against a collection or sub-query
//   - BetweenFilter: inclusive range
//   - StringMatchFilter: LIKE with a wildcard mode
//   - AndFilter, OrFilter, NotFilter: composition
//   - ExistsFilter, NotExistsFilter: sub-query existence
type Filter interface {
	Expression
	filterNode() // Marker method - only FilterBase provides it
}

// FilterBase marks a type as a Filter. Embed it in custom filters.
type FilterBase struct{}

func (FilterBase) filterNode() {}

// NullFilter matches rows where Left is null.
type NullFilter struct {
	FilterBase
	Left TypedExpression
}

// NotNullFilter matches rows where Left is not null.
type NotNullFilter struct {
	FilterBase
	Left TypedExpression
}

// EqualFilter matches rows where Left equals Right.
type EqualFilter struct {
	FilterBase
	Left  TypedExpression
	Right Expression
}

// NotEqualFilter matches rows where Left differs from Right.
type NotEqualFilter struct {
	FilterBase
	Left  TypedExpression
	Right Expression
}

// GreaterFilter matches rows where Left > Right, or >= when IncludeEquals.
type GreaterFilter struct {
	FilterBase
	Left          TypedExpression
	Right         Expression
	IncludeEquals bool
}

// LessFilter matches rows where Left < Right, or <= when IncludeEquals.
type LessFilter struct {
	FilterBase
	Left          TypedExpression
	Right         Expression
	IncludeEquals bool
}

// InFilter matches rows where Left is a member of Right. Right must be a
// collection constant or a sub-query.
type InFilter struct {
	FilterBase
	Left  TypedExpression
	Right Expression
}

// NotInFilter matches rows where Left is not a member of Right.
type NotInFilter struct {
	FilterBase
	Left  TypedExpression
	Right Expression
}

// BetweenFilter matches rows where From <= Left <= To.
type BetweenFilter struct {
	FilterBase
	Left TypedExpression
	From ir.Value
	To   ir.Value
}

// MatchMode is the wildcard placement of a string match.
type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchContains
	MatchStartsWith
	MatchEndsWith
)

func (m MatchMode) String() string {
	switch m {
	case MatchContains:
		return "contains"
	case MatchStartsWith:
		return "starts_with"
	case MatchEndsWith:
		return "ends_with"
	default:
		return "matches"
	}
}

// StringMatchFilter matches rows where Left is LIKE the pattern built from
// Value and Mode. An empty Value is a valid match target.
type StringMatchFilter struct {
	FilterBase
	Left       TypedExpression
	Value      string
	Mode       MatchMode
	IgnoreCase bool
}

// AndFilter matches rows satisfying every child, in declaration order.
type AndFilter struct {
	FilterBase
	Filters []Filter
}

// OrFilter matches rows satisfying any child, in declaration order.
type OrFilter struct {
	FilterBase
	Filters []Filter
}

// NotFilter negates its single child.
type NotFilter struct {
	FilterBase
	Filter Filter
}

// ExistsFilter matches when the sub-query yields at least one row.
type ExistsFilter struct {
	FilterBase
	Query *SubQuery
}

// NotExistsFilter matches when the sub-query yields no rows.
type NotExistsFilter struct {
	FilterBase
	Query *SubQuery
}

// Builder helpers.

func IsNull(left TypedExpression) *NullFilter       { return &NullFilter{Left: left} }
func IsNotNull(left TypedExpression) *NotNullFilter { return &NotNullFilter{Left: left} }

func Eq(left TypedExpression, right Expression) *EqualFilter {
	return &EqualFilter{Left: left, Right: right}
}

func Ne(left TypedExpression, right Expression) *NotEqualFilter {
	return &NotEqualFilter{Left: left, Right: right}
}

func Gt(left TypedExpression, right Expression) *GreaterFilter {
	return &GreaterFilter{Left: left, Right: right}
}

func Gte(left TypedExpression, right Expression) *GreaterFilter {
	return &GreaterFilter{Left: left, Right: right, IncludeEquals: true}
}

func Lt(left TypedExpression, right Expression) *LessFilter {
	return &LessFilter{Left: left, Right: right}
}

func Lte(left TypedExpression, right Expression) *LessFilter {
	return &LessFilter{Left: left, Right: right, IncludeEquals: true}
}

func In(left TypedExpression, right Expression) *InFilter {
	return &InFilter{Left: left, Right: right}
}

func NotIn(left TypedExpression, right Expression) *NotInFilter {
	return &NotInFilter{Left: left, Right: right}
}

func Between(left TypedExpression, from, to ir.Value) *BetweenFilter {
	return &BetweenFilter{Left: left, From: from, To: to}
}

func Contains(left TypedExpression, value string, ignoreCase bool) *StringMatchFilter {
	return &StringMatchFilter{Left: left, Value: value, Mode: MatchContains, IgnoreCase: ignoreCase}
}

func StartsWith(left TypedExpression, value string, ignoreCase bool) *StringMatchFilter {
	return &StringMatchFilter{Left: left, Value: value, Mode: MatchStartsWith, IgnoreCase: ignoreCase}
}

func EndsWith(left TypedExpression, value string, ignoreCase bool) *StringMatchFilter {
	return &StringMatchFilter{Left: left, Value: value, Mode: MatchEndsWith, IgnoreCase: ignoreCase}
}

func Matches(left TypedExpression, value string, ignoreCase bool) *StringMatchFilter {
	return &StringMatchFilter{Left: left, Value: value, Mode: MatchExact, IgnoreCase: ignoreCase}
}

func And(filters ...Filter) *AndFilter { return &AndFilter{Filters: filters} }
func Or(filters ...Filter) *OrFilter   { return &OrFilter{Filters: filters} }
func Not(filter Filter) *NotFilter     { return &NotFilter{Filter: filter} }

func Exists(q *SubQuery) *ExistsFilter       { return &ExistsFilter{Query: q} }
func NotExists(q *SubQuery) *NotExistsFilter { return &NotExistsFilter{Query: q} }

// Validation. The right operand of a comparison is checked during
// resolution so the error can name the whole filter.

func (f *NullFilter) Validate() error    { return validateLeft(f, f.Left) }
func (f *NotNullFilter) Validate() error { return validateLeft(f, f.Left) }
func (f *EqualFilter) Validate() error   { return validateLeft(f, f.Left) }
func (f *NotEqualFilter) Validate() error {
	return validateLeft(f, f.Left)
}
func (f *GreaterFilter) Validate() error { return validateLeft(f, f.Left) }
func (f *LessFilter) Validate() error    { return validateLeft(f, f.Left) }
func (f *InFilter) Validate() error      { return validateLeft(f, f.Left) }
func (f *NotInFilter) Validate() error   { return validateLeft(f, f.Left) }

func (f *BetweenFilter) Validate() error {
	if err := validateLeft(f, f.Left); err != nil {
		return err
	}
	if ir.IsNull(f.From) {
		return newValidationError(f, "missing range start value")
	}
	if ir.IsNull(f.To) {
		return newValidationError(f, "missing range end value")
	}
	return nil
}

func (f *StringMatchFilter) Validate() error { return validateLeft(f, f.Left) }

func (f *AndFilter) Validate() error { return validateComposition(f, f.Filters) }
func (f *OrFilter) Validate() error  { return validateComposition(f, f.Filters) }

func (f *NotFilter) Validate() error {
	if isNil(f.Filter) {
		return newValidationError(f, "missing negated filter")
	}
	return nil
}

func (f *ExistsFilter) Validate() error    { return validateSubQuery(f, f.Query) }
func (f *NotExistsFilter) Validate() error { return validateSubQuery(f, f.Query) }

func validateLeft(f Filter, left TypedExpression) error {
	if isNil(left) {
		return newValidationError(f, "missing left operand")
	}
	return nil
}

func validateComposition(f Filter, children []Filter) error {
	if len(children) == 0 {
		return newValidationError(f, "empty filter composition")
	}
	for i, c := range children {
		if isNil(c) {
			return newValidationError(f, fmt.Sprintf("nil filter at position %d", i))
		}
	}
	return nil
}

func validateSubQuery(f Filter, q *SubQuery) error {
	if q == nil {
		return newValidationError(f, "missing sub-query")
	}
	return nil
}

// String forms.

func (f *NullFilter) String() string    { return str(f.Left) + " IS NULL" }
func (f *NotNullFilter) String() string { return str(f.Left) + " IS NOT NULL" }
func (f *EqualFilter) String() string   { return binary(f.Left, "=", f.Right) }
func (f *NotEqualFilter) String() string {
	return binary(f.Left, "<>", f.Right)
}

func (f *GreaterFilter) String() string {
	if f.IncludeEquals {
		return binary(f.Left, ">=", f.Right)
	}
	return binary(f.Left, ">", f.Right)
}

func (f *LessFilter) String() string {
	if f.IncludeEquals {
		return binary(f.Left, "<=", f.Right)
	}
	return binary(f.Left, "<", f.Right)
}

func (f *InFilter) String() string    { return binary(f.Left, "IN", f.Right) }
func (f *NotInFilter) String() string { return binary(f.Left, "NOT IN", f.Right) }

func (f *BetweenFilter) String() string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", str(f.Left), valueStr(f.From), valueStr(f.To))
}

func (f *StringMatchFilter) String() string {
	op := f.Mode.String()
	if f.IgnoreCase {
		op += "_ignore_case"
	}
	return fmt.Sprintf("%s %s %q", str(f.Left), op, f.Value)
}

func (f *AndFilter) String() string { return composite(f.Filters, " AND ") }
func (f *OrFilter) String() string  { return composite(f.Filters, " OR ") }
func (f *NotFilter) String() string { return "NOT (" + str(f.Filter) + ")" }

func (f *ExistsFilter) String() string { return "EXISTS " + subStr(f.Query) }
func (f *NotExistsFilter) String() string {
	return "NOT EXISTS " + subStr(f.Query)
}

func binary(left Expression, op string, right Expression) string {
	return str(left) + " " + op + " " + str(right)
}

func composite(filters []Filter, sep string) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = str(f)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func valueStr(v ir.Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}

func subStr(q *SubQuery) string {
	if q == nil {
		return "<nil>"
	}
	return q.String()
}
