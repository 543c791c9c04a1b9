package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/qbridge/internal/ir"
)

// Type is the declared static type of an expression.
type Type int

const (
	TypeAny Type = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
	TypeTime
)

var typeNames = map[Type]string{
	TypeAny:    "any",
	TypeString: "string",
	TypeInt:    "int",
	TypeFloat:  "float",
	TypeBool:   "bool",
	TypeTime:   "time",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType parses a type name as used in catalog and definition files.
// The empty string is TypeAny.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "any":
		return TypeAny, nil
	case "string", "text":
		return TypeString, nil
	case "int", "integer", "long":
		return TypeInt, nil
	case "float", "double", "decimal", "number":
		return TypeFloat, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "time", "date", "datetime", "timestamp":
		return TypeTime, nil
	default:
		return TypeAny, fmt.Errorf("unknown type %q", name)
	}
}

// TypeOf returns the natural type of a literal value.
func TypeOf(v ir.Value) Type {
	switch val := v.(type) {
	case ir.String:
		return TypeString
	case ir.Int:
		return TypeInt
	case ir.Float:
		return TypeFloat
	case ir.Bool:
		return TypeBool
	case ir.Time:
		return TypeTime
	case ir.List:
		if len(val) > 0 {
			return TypeOf(val[0])
		}
		return TypeAny
	default:
		return TypeAny
	}
}

// Expression is any node of the abstract query model.
//
// Validate checks structural completeness only and never needs a
// resolution context. String returns a descriptive form used in errors.
type Expression interface {
	Validate() error
	String() string
}

// TypedExpression is an expression with a declared value type.
type TypedExpression interface {
	Expression
	Type() Type
}

// JoinKind is the kind of a declared target join.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
)

func (k JoinKind) String() string {
	if k == JoinLeft {
		return "LEFT JOIN"
	}
	return "INNER JOIN"
}

// Target names the data source of a query: an entity of the catalog.
//
// Alias overrides the entity's default alias. Joins declare additional
// entries of the join graph, in order.
type Target struct {
	Name  string
	Alias string
	Joins []Join
}

// Join declares a relational join of the query target to another entity.
type Join struct {
	Target *Target
	Kind   JoinKind
	On     Filter
}

// NewTarget creates a Target for the named entity.
func NewTarget(name string) *Target {
	return &Target{Name: name}
}

// As returns a copy of the target using the given alias.
func (t *Target) As(alias string) *Target {
	cp := *t
	cp.Alias = alias
	return &cp
}

// InnerJoin returns a copy of the target with an inner join appended.
func (t *Target) InnerJoin(other *Target, on Filter) *Target {
	return t.withJoin(Join{Target: other, Kind: JoinInner, On: on})
}

// LeftJoin returns a copy of the target with a left join appended.
func (t *Target) LeftJoin(other *Target, on Filter) *Target {
	return t.withJoin(Join{Target: other, Kind: JoinLeft, On: on})
}

func (t *Target) withJoin(j Join) *Target {
	cp := *t
	cp.Joins = append(append([]Join(nil), t.Joins...), j)
	return &cp
}

func (t *Target) Validate() error {
	if t == nil || strings.TrimSpace(t.Name) == "" {
		return newValidationError(t, "missing target name")
	}
	for i, j := range t.Joins {
		if j.Target == nil {
			return newValidationError(t, fmt.Sprintf("join %d has no target", i))
		}
		if err := j.Target.Validate(); err != nil {
			return err
		}
		if j.On == nil {
			return newValidationError(t, fmt.Sprintf("join %d (%s) has no condition", i, j.Target.Name))
		}
	}
	return nil
}

func (t *Target) String() string {
	if t == nil {
		return "<nil target>"
	}
	if t.Alias != "" {
		return t.Name + " " + t.Alias
	}
	return t.Name
}

// Path is a property of a target, addressed by a (possibly dotted) name.
//
// Parent is nil, another *Path (an embedded ancestor) or a *Target (an
// explicitly declared parent target). A path without a declared parent
// target is rooted at the current query's FROM target.
type Path struct {
	Name      string
	ValueType Type
	Parent    Expression
}

// NewPath creates a root-relative path.
func NewPath(name string, t Type) *Path {
	return &Path{Name: name, ValueType: t}
}

// Of returns a copy of the path whose parent is the given target or path.
func (p *Path) Of(parent Expression) *Path {
	cp := *p
	cp.Parent = parent
	return &cp
}

// Child creates a nested path with p as its embedded ancestor.
func (p *Path) Child(name string, t Type) *Path {
	return &Path{Name: name, ValueType: t, Parent: p}
}

func (p *Path) Type() Type { return p.ValueType }

// FullName is the dotted name of the path relative to its root.
// Targets are roots and contribute nothing; embedded path ancestors are
// prepended with "." separators.
func (p *Path) FullName() string {
	if parent, ok := p.Parent.(*Path); ok && parent != nil {
		return parent.FullName() + "." + p.Name
	}
	return p.Name
}

// Ancestors lists the parent chain, nearest first.
func (p *Path) Ancestors() []Expression {
	var out []Expression
	for cur := p.Parent; cur != nil; {
		out = append(out, cur)
		parent, ok := cur.(*Path)
		if !ok || parent == nil {
			break
		}
		cur = parent.Parent
	}
	return out
}

// ParentTarget returns the first target declared along the ancestor chain,
// or nil when the path is relative to the query root.
func (p *Path) ParentTarget() *Target {
	for _, a := range p.Ancestors() {
		if t, ok := a.(*Target); ok && t != nil {
			return t
		}
	}
	return nil
}

func (p *Path) Validate() error {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return newValidationError(p, "missing path name")
	}
	for _, a := range p.Ancestors() {
		if t, ok := a.(*Target); ok {
			if err := t.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Path) String() string {
	if p == nil {
		return "<nil path>"
	}
	if t := p.ParentTarget(); t != nil {
		return t.Name + ":" + p.FullName()
	}
	return p.FullName()
}

// Constant is a literal operand.
type Constant struct {
	Value     ir.Value
	ValueType Type
}

// Const creates a constant typed after its value.
func Const(v ir.Value) *Constant {
	return &Constant{Value: v, ValueType: TypeOf(v)}
}

// Values creates a collection constant for membership filters.
func Values(vals ...ir.Value) *Constant {
	return Const(ir.NewList(vals...))
}

func (c *Constant) Type() Type { return c.ValueType }

// IsCollection reports whether the constant holds a list.
func (c *Constant) IsCollection() bool {
	_, ok := c.Value.(ir.List)
	return ok
}

func (c *Constant) Validate() error {
	if c == nil {
		return newValidationError(c, "missing constant")
	}
	if c.Value == nil {
		return newValidationError(c, "missing constant value")
	}
	return nil
}

func (c *Constant) String() string {
	if c == nil || c.Value == nil {
		return "<nil constant>"
	}
	return c.Value.String()
}

// FunctionKind identifies a query function.
type FunctionKind string

const (
	FuncCount            FunctionKind = "count"
	FuncSum              FunctionKind = "sum"
	FuncAvg              FunctionKind = "avg"
	FuncMin              FunctionKind = "min"
	FuncMax              FunctionKind = "max"
	FuncUpper            FunctionKind = "upper"
	FuncLower            FunctionKind = "lower"
	FuncCurrentDate      FunctionKind = "current_date"
	FuncCurrentTimestamp FunctionKind = "current_timestamp"
	FuncYear             FunctionKind = "year"
	FuncMonth            FunctionKind = "month"
	FuncDay              FunctionKind = "day"
	FuncHour             FunctionKind = "hour"
)

// Function applies a function to its arguments.
// Kinds outside the predefined set are legal; they resolve only through
// custom resolvers.
type Function struct {
	Kind      FunctionKind
	Args      []TypedExpression
	ValueType Type
}

func Count(arg TypedExpression) *Function { return fn(FuncCount, TypeInt, arg) }
func Sum(arg TypedExpression) *Function   { return fn(FuncSum, typeOf(arg), arg) }
func Avg(arg TypedExpression) *Function   { return fn(FuncAvg, TypeFloat, arg) }
func Min(arg TypedExpression) *Function   { return fn(FuncMin, typeOf(arg), arg) }
func Max(arg TypedExpression) *Function   { return fn(FuncMax, typeOf(arg), arg) }
func Upper(arg TypedExpression) *Function { return fn(FuncUpper, TypeString, arg) }
func Lower(arg TypedExpression) *Function { return fn(FuncLower, TypeString, arg) }
func Year(arg TypedExpression) *Function  { return fn(FuncYear, TypeInt, arg) }
func Month(arg TypedExpression) *Function { return fn(FuncMonth, TypeInt, arg) }
func Day(arg TypedExpression) *Function   { return fn(FuncDay, TypeInt, arg) }
func Hour(arg TypedExpression) *Function  { return fn(FuncHour, TypeInt, arg) }

// CountRows counts every row of a group, COUNT(*). Unlike CountAll it is an
// operand, so it can appear in a HAVING filter.
func CountRows() *Function { return &Function{Kind: FuncCount, ValueType: TypeInt} }

func CurrentDate() *Function      { return &Function{Kind: FuncCurrentDate, ValueType: TypeTime} }
func CurrentTimestamp() *Function { return &Function{Kind: FuncCurrentTimestamp, ValueType: TypeTime} }

func fn(kind FunctionKind, t Type, arg TypedExpression) *Function {
	return &Function{Kind: kind, Args: []TypedExpression{arg}, ValueType: t}
}

func typeOf(e TypedExpression) Type {
	if e == nil {
		return TypeAny
	}
	return e.Type()
}

func (f *Function) Type() Type { return f.ValueType }

func (f *Function) Validate() error {
	if f == nil || f.Kind == "" {
		return newValidationError(f, "missing function kind")
	}
	return nil
}

func (f *Function) String() string {
	if f == nil {
		return "<nil function>"
	}
	if f.Kind == FuncCount && len(f.Args) == 0 {
		return "count(*)"
	}
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = str(a)
	}
	return string(f.Kind) + "(" + strings.Join(args, ", ") + ")"
}

// SubQuery is a nested query usable as an EXISTS operand or as the
// collection operand of IN / NOT IN.
type SubQuery struct {
	Config    *Configuration
	Selection Projection
}

// NewSubQuery creates a sub-query over target selecting the given projection.
func NewSubQuery(target *Target, selection Projection) *SubQuery {
	return &SubQuery{Config: &Configuration{Target: target}, Selection: selection}
}

// Where returns a copy of the sub-query with filters appended.
func (s *SubQuery) Where(filters ...Filter) *SubQuery {
	cp := *s
	cfg := s.Config.Clone()
	cfg.Filters = append(cfg.Filters, filters...)
	cp.Config = cfg
	return &cp
}

// Type is the type of a single-expression selection, TypeAny otherwise.
func (s *SubQuery) Type() Type {
	if p, ok := s.Selection.(*ExpressionProjection); ok && p.Expr != nil {
		return p.Expr.Type()
	}
	return TypeAny
}

func (s *SubQuery) Validate() error {
	if s == nil || s.Config == nil {
		return newValidationError(s, "missing sub-query configuration")
	}
	if err := s.Config.Validate(); err != nil {
		return err
	}
	if s.Selection == nil {
		return newValidationError(s, "missing sub-query selection")
	}
	return s.Selection.Validate()
}

func (s *SubQuery) String() string {
	if s == nil || s.Config == nil {
		return "<nil subquery>"
	}
	var b strings.Builder
	b.WriteString("subquery(")
	b.WriteString(str(s.Selection))
	b.WriteString(" from ")
	b.WriteString(s.Config.Target.String())
	if f := s.Config.Filter(); f != nil {
		b.WriteString(" where ")
		b.WriteString(f.String())
	}
	b.WriteString(")")
	return b.String()
}

// str renders a possibly nil expression.
func str(e Expression) string {
	if isNil(e) {
		return "<nil>"
	}
	return e.String()
}
