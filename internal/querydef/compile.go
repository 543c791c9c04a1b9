package querydef

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/qbridge/internal/catalog"
	"github.com/roach88/qbridge/internal/ir"
	"github.com/roach88/qbridge/internal/queryir"
)

// Query is a compiled definition.
type Query struct {
	Name       string
	Config     *queryir.Configuration
	Projection queryir.Projection
}

// countAll counts rows. Selected alone it is a row count projection;
// anywhere else it is a COUNT(*) operand.
const countAll = "count(*)"

var unary = map[queryir.FunctionKind]func(queryir.TypedExpression) *queryir.Function{
	queryir.FuncCount: queryir.Count,
	queryir.FuncSum:   queryir.Sum,
	queryir.FuncAvg:   queryir.Avg,
	queryir.FuncMin:   queryir.Min,
	queryir.FuncMax:   queryir.Max,
	queryir.FuncUpper: queryir.Upper,
	queryir.FuncLower: queryir.Lower,
	queryir.FuncYear:  queryir.Year,
	queryir.FuncMonth: queryir.Month,
	queryir.FuncDay:   queryir.Day,
	queryir.FuncHour:  queryir.Hour,
}

var nullary = map[queryir.FunctionKind]func() *queryir.Function{
	queryir.FuncCurrentDate:      queryir.CurrentDate,
	queryir.FuncCurrentTimestamp: queryir.CurrentTimestamp,
}

// compiler turns definition operands into typed expressions, looking up
// property types in the catalog.
type compiler struct {
	cat *catalog.Catalog
}

// Compile builds the configuration and projection of def. Entity and
// property names are checked against cat so errors point at the
// definition rather than at resolution.
func Compile(def *Definition, cat *catalog.Catalog) (*Query, error) {
	c := &compiler{cat: cat}

	target, err := c.target(def.Target, def.Alias)
	if err != nil {
		return nil, err
	}
	for i, j := range def.Joins {
		joined, err := c.target(j.Target, j.Alias)
		if err != nil {
			return nil, fmt.Errorf("joins[%d]: %w", i, err)
		}
		on, err := c.filter(j.On, target)
		if err != nil {
			return nil, fmt.Errorf("joins[%d].on: %w", i, err)
		}
		if j.Kind == "left" {
			target = target.LeftJoin(joined, on)
		} else {
			target = target.InnerJoin(joined, on)
		}
	}

	cfg := &queryir.Configuration{
		Target: target,
		Limit:  def.Limit,
		Offset: def.Offset,
	}

	if def.Filter != nil {
		f, err := c.filter(def.Filter, target)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		cfg.Filters = append(cfg.Filters, f)
	}

	for i, s := range def.Sort {
		e, err := c.operand(s.Path, target)
		if err != nil {
			return nil, fmt.Errorf("sort[%d]: %w", i, err)
		}
		if s.Direction == "desc" {
			cfg.Sorts = append(cfg.Sorts, queryir.Desc(e))
		} else {
			cfg.Sorts = append(cfg.Sorts, queryir.Asc(e))
		}
	}

	if len(def.GroupBy) > 0 {
		paths := make([]queryir.TypedExpression, len(def.GroupBy))
		for i, g := range def.GroupBy {
			if paths[i], err = c.operand(g, target); err != nil {
				return nil, fmt.Errorf("group_by[%d]: %w", i, err)
			}
		}
		cfg.Aggregation = queryir.GroupBy(paths...)
		if def.Having != nil {
			h, err := c.filter(def.Having, target)
			if err != nil {
				return nil, fmt.Errorf("having: %w", err)
			}
			cfg.Aggregation = cfg.Aggregation.WithHaving(h)
		}
	}

	if err := applyParameters(cfg, def); err != nil {
		return nil, err
	}

	projection, err := c.projection(def, target)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Query{Name: def.Name, Config: cfg, Projection: projection}, nil
}

func applyParameters(cfg *queryir.Configuration, def *Definition) error {
	if len(def.Parameters) == 0 && def.Timeout == "" {
		return nil
	}
	cfg.Parameters = make(map[string]any, len(def.Parameters)+1)
	for k, v := range def.Parameters {
		cfg.Parameters[k] = v
	}
	if def.Timeout != "" {
		d, err := time.ParseDuration(def.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Parameters[queryir.ParamTimeout] = d
	}
	return nil
}

func (c *compiler) target(name, alias string) (*queryir.Target, error) {
	if _, ok := c.cat.Entity(name); !ok {
		return nil, fmt.Errorf("unknown entity %q", name)
	}
	t := queryir.NewTarget(name)
	if alias != "" {
		t = t.As(alias)
	}
	return t, nil
}

func (c *compiler) projection(def *Definition, target *queryir.Target) (queryir.Projection, error) {
	if def.Shape != "" {
		if _, ok := c.cat.Entity(def.Shape); !ok {
			return nil, fmt.Errorf("unknown shape %q", def.Shape)
		}
		return queryir.SelectShape(def.Shape), nil
	}

	switch {
	case len(def.Select) == 0:
		return queryir.SelectTarget(target), nil
	case len(def.Select) == 1 && def.Select[0] == countAll:
		return queryir.CountAll(), nil
	}

	exprs := make([]queryir.TypedExpression, len(def.Select))
	for i, s := range def.Select {
		e, err := c.operand(s, target)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	if len(exprs) == 1 {
		return queryir.SelectExpr(exprs[0]), nil
	}
	return queryir.SelectProperties(exprs...), nil
}

// operand parses an operand string. Paths without an explicit target are
// typed against scope.
func (c *compiler) operand(s string, scope *queryir.Target) (queryir.TypedExpression, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty operand")
	}

	if strings.EqualFold(s, countAll) {
		return queryir.CountRows(), nil
	}
	if fn, ok := nullary[queryir.FunctionKind(strings.ToLower(s))]; ok {
		return fn(), nil
	}

	if open := strings.IndexByte(s, '('); open > 0 && strings.HasSuffix(s, ")") {
		kind := queryir.FunctionKind(strings.ToLower(s[:open]))
		build, ok := unary[kind]
		if !ok {
			return nil, fmt.Errorf("unknown function %q", s[:open])
		}
		arg, err := c.operand(s[open+1:len(s)-1], scope)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		return build(arg), nil
	}

	return c.path(s, scope)
}

func (c *compiler) path(s string, scope *queryir.Target) (*queryir.Path, error) {
	owner := scope
	name := s
	explicit := false
	if entity, rest, ok := strings.Cut(s, ":"); ok {
		owner = queryir.NewTarget(entity)
		name = rest
		explicit = true
	}

	entity, ok := c.cat.Entity(owner.Name)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q in %q", owner.Name, s)
	}
	prop, ok := entity.Property(name)
	if !ok {
		return nil, fmt.Errorf("unknown property %q of %s", name, entity.Name)
	}

	p := queryir.NewPath(name, prop.Type)
	if explicit {
		return p.Of(owner), nil
	}
	return p, nil
}

func (c *compiler) filter(f *Filter, scope *queryir.Target) (queryir.Filter, error) {
	set := 0
	for _, present := range []bool{f.And != nil, f.Or != nil, f.Not != nil, f.Exists != nil, f.NotExists != nil, f.Op != ""} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of and, or, not, exists, not_exists, op must be set")
	}

	switch {
	case f.And != nil:
		children, err := c.filters(f.And, scope)
		if err != nil {
			return nil, err
		}
		return queryir.And(children...), nil
	case f.Or != nil:
		children, err := c.filters(f.Or, scope)
		if err != nil {
			return nil, err
		}
		return queryir.Or(children...), nil
	case f.Not != nil:
		child, err := c.filter(f.Not, scope)
		if err != nil {
			return nil, err
		}
		return queryir.Not(child), nil
	case f.Exists != nil:
		sub, err := c.subQuery(f.Exists)
		if err != nil {
			return nil, err
		}
		return queryir.Exists(sub), nil
	case f.NotExists != nil:
		sub, err := c.subQuery(f.NotExists)
		if err != nil {
			return nil, err
		}
		return queryir.NotExists(sub), nil
	}
	return c.operation(f, scope)
}

func (c *compiler) filters(fs []Filter, scope *queryir.Target) ([]queryir.Filter, error) {
	out := make([]queryir.Filter, len(fs))
	for i := range fs {
		f, err := c.filter(&fs[i], scope)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

func (c *compiler) subQuery(s *SubQuery) (*queryir.SubQuery, error) {
	target, err := c.target(s.Target, s.Alias)
	if err != nil {
		return nil, err
	}
	sel, err := c.operand(s.Select, target)
	if err != nil {
		return nil, err
	}
	sub := queryir.NewSubQuery(target, queryir.SelectExpr(sel))
	if s.Filter != nil {
		f, err := c.filter(s.Filter, target)
		if err != nil {
			return nil, err
		}
		sub = sub.Where(f)
	}
	return sub, nil
}

func (c *compiler) operation(f *Filter, scope *queryir.Target) (queryir.Filter, error) {
	if f.Path == "" {
		return nil, fmt.Errorf("%s: path is required", f.Op)
	}
	left, err := c.operand(f.Path, scope)
	if err != nil {
		return nil, err
	}

	switch f.Op {
	case "is_null":
		return queryir.IsNull(left), nil
	case "not_null":
		return queryir.IsNotNull(left), nil
	case "matches", "contains", "starts_with", "ends_with":
		s, ok := f.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%s: value must be a string", f.Op)
		}
		return stringMatch(f.Op, left, s, f.IgnoreCase), nil
	case "between":
		from, err := literal(f.From, left.Type())
		if err != nil {
			return nil, fmt.Errorf("between: from: %w", err)
		}
		to, err := literal(f.To, left.Type())
		if err != nil {
			return nil, fmt.Errorf("between: to: %w", err)
		}
		return queryir.Between(left, from, to), nil
	}

	right, err := c.right(f, left, scope)
	if err != nil {
		return nil, err
	}
	switch f.Op {
	case "eq":
		return queryir.Eq(left, right), nil
	case "ne":
		return queryir.Ne(left, right), nil
	case "gt":
		return queryir.Gt(left, right), nil
	case "gte":
		return queryir.Gte(left, right), nil
	case "lt":
		return queryir.Lt(left, right), nil
	case "lte":
		return queryir.Lte(left, right), nil
	case "in":
		return queryir.In(left, right), nil
	case "not_in":
		return queryir.NotIn(left, right), nil
	default:
		return nil, fmt.Errorf("unknown operator %q", f.Op)
	}
}

// right builds the right operand from exactly one of Query, Ref or Value.
func (c *compiler) right(f *Filter, left queryir.TypedExpression, scope *queryir.Target) (queryir.Expression, error) {
	switch {
	case f.Query != nil:
		if f.Op != "in" && f.Op != "not_in" {
			return nil, fmt.Errorf("%s: query is only allowed with in and not_in", f.Op)
		}
		return c.subQuery(f.Query)
	case f.Ref != "":
		return c.operand(f.Ref, scope)
	case f.Value == nil:
		return nil, fmt.Errorf("%s: one of value, ref or query is required", f.Op)
	}

	v, err := literal(f.Value, left.Type())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Op, err)
	}
	if _, isList := v.(ir.List); isList != (f.Op == "in" || f.Op == "not_in") {
		return nil, fmt.Errorf("%s: a list value is required by in and not_in only", f.Op)
	}
	return &queryir.Constant{Value: v, ValueType: left.Type()}, nil
}

func stringMatch(op string, left queryir.TypedExpression, value string, ignoreCase bool) queryir.Filter {
	switch op {
	case "contains":
		return queryir.Contains(left, value, ignoreCase)
	case "starts_with":
		return queryir.StartsWith(left, value, ignoreCase)
	case "ends_with":
		return queryir.EndsWith(left, value, ignoreCase)
	default:
		return queryir.Matches(left, value, ignoreCase)
	}
}

// Layouts accepted for time literals.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"}

// literal converts a decoded YAML value, coercing it towards t: strings
// become times for time-typed operands, integers become floats for
// float-typed ones.
func literal(v any, t queryir.Type) (ir.Value, error) {
	if list, ok := v.([]any); ok {
		out := make(ir.List, len(list))
		for i, elem := range list {
			converted, err := literal(elem, t)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = converted
		}
		return out, nil
	}

	val, err := ir.FromAny(v)
	if err != nil {
		return nil, err
	}
	switch t {
	case queryir.TypeTime:
		if s, ok := val.(ir.String); ok {
			for _, layout := range timeLayouts {
				if tm, err := time.Parse(layout, string(s)); err == nil {
					return ir.Time(tm.UTC()), nil
				}
			}
			return nil, fmt.Errorf("invalid time literal %s", s)
		}
	case queryir.TypeFloat:
		if n, ok := val.(ir.Int); ok {
			return ir.Float(n), nil
		}
	}
	return val, nil
}
