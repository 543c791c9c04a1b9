package resolvers

import (
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

// resolveFilter maps the built-in filter family onto predicates. Filter
// types it does not know resolve to empty.
func resolveFilter(f queryir.Filter, ctx *resolve.Context) (sqlexpr.Predicate, bool, error) {
	var (
		pred sqlexpr.Predicate
		err  error
	)

	switch v := f.(type) {
	case *queryir.NullFilter:
		pred, err = unary(ctx, v.Left, sqlexpr.IsNull)
	case *queryir.NotNullFilter:
		pred, err = unary(ctx, v.Left, sqlexpr.IsNotNull)
	case *queryir.EqualFilter:
		pred, err = comparison(ctx, f, sqlexpr.OpEq, v.Left, v.Right)
	case *queryir.NotEqualFilter:
		pred, err = comparison(ctx, f, sqlexpr.OpNe, v.Left, v.Right)
	case *queryir.GreaterFilter:
		op := sqlexpr.OpGt
		if v.IncludeEquals {
			op = sqlexpr.OpGte
		}
		pred, err = comparison(ctx, f, op, v.Left, v.Right)
	case *queryir.LessFilter:
		op := sqlexpr.OpLt
		if v.IncludeEquals {
			op = sqlexpr.OpLte
		}
		pred, err = comparison(ctx, f, op, v.Left, v.Right)
	case *queryir.InFilter:
		pred, err = membership(ctx, f, v.Left, v.Right, sqlexpr.In)
	case *queryir.NotInFilter:
		pred, err = membership(ctx, f, v.Left, v.Right, sqlexpr.NotIn)
	case *queryir.BetweenFilter:
		pred, err = between(ctx, v)
	case *queryir.StringMatchFilter:
		pred, err = unary(ctx, v.Left, func(left sqlexpr.Expr) sqlexpr.Predicate {
			return sqlexpr.Like(left, sqlexpr.Pattern(v.Mode, v.Value), v.IgnoreCase)
		})
	case *queryir.AndFilter:
		pred, err = composition(ctx, v.Filters, sqlexpr.And)
	case *queryir.OrFilter:
		pred, err = composition(ctx, v.Filters, sqlexpr.Or)
	case *queryir.NotFilter:
		var child sqlexpr.Predicate
		child, err = resolve.Must[sqlexpr.Predicate](ctx, v.Filter)
		pred = sqlexpr.Not(child)
	default:
		return sqlexpr.Predicate{}, false, nil
	}

	if err != nil {
		return sqlexpr.Predicate{}, false, err
	}
	return pred, true, nil
}

func unary(ctx *resolve.Context, left queryir.TypedExpression, build func(sqlexpr.Expr) sqlexpr.Predicate) (sqlexpr.Predicate, error) {
	l, err := resolve.Must[sqlexpr.Expr](ctx, left)
	if err != nil {
		return sqlexpr.Predicate{}, err
	}
	return build(l), nil
}

func operands(ctx *resolve.Context, f queryir.Filter, left queryir.TypedExpression, right queryir.Expression) (sqlexpr.Expr, sqlexpr.Expr, error) {
	if queryir.Absent(right) {
		return sqlexpr.Expr{}, sqlexpr.Expr{}, resolve.NewMissingOperandError("right", f.String())
	}
	l, err := resolve.Must[sqlexpr.Expr](ctx, left)
	if err != nil {
		return sqlexpr.Expr{}, sqlexpr.Expr{}, err
	}
	r, err := resolve.Must[sqlexpr.Expr](ctx, right)
	if err != nil {
		return sqlexpr.Expr{}, sqlexpr.Expr{}, err
	}
	return l, r, nil
}

func comparison(ctx *resolve.Context, f queryir.Filter, op sqlexpr.Op, left queryir.TypedExpression, right queryir.Expression) (sqlexpr.Predicate, error) {
	l, r, err := operands(ctx, f, left, right)
	if err != nil {
		return sqlexpr.Predicate{}, err
	}
	if r.Collection {
		return sqlexpr.Predicate{}, resolve.NewOperandError("collection operand used with a scalar comparison", f.String())
	}
	if op.Ordering() && r.IsNull() {
		return sqlexpr.Predicate{}, resolve.NewOperandError("null operand used with an ordering comparison", f.String())
	}
	return sqlexpr.Compare(op, l, r), nil
}

func membership(ctx *resolve.Context, f queryir.Filter, left queryir.TypedExpression, right queryir.Expression, build func(l, r sqlexpr.Expr) sqlexpr.Predicate) (sqlexpr.Predicate, error) {
	l, r, err := operands(ctx, f, left, right)
	if err != nil {
		return sqlexpr.Predicate{}, err
	}
	if !r.Collection && !r.SubQuery {
		return sqlexpr.Predicate{}, resolve.NewOperandError("right operand of a membership filter must be a collection or a sub-query", f.String())
	}
	return build(l, r), nil
}

// between wraps the range bounds as constants of the left operand's type.
func between(ctx *resolve.Context, f *queryir.BetweenFilter) (sqlexpr.Predicate, error) {
	l, err := resolve.Must[sqlexpr.Expr](ctx, f.Left)
	if err != nil {
		return sqlexpr.Predicate{}, err
	}
	t := f.Left.Type()
	from, err := resolve.Must[sqlexpr.Expr](ctx, &queryir.Constant{Value: f.From, ValueType: t})
	if err != nil {
		return sqlexpr.Predicate{}, err
	}
	to, err := resolve.Must[sqlexpr.Expr](ctx, &queryir.Constant{Value: f.To, ValueType: t})
	if err != nil {
		return sqlexpr.Predicate{}, err
	}
	return sqlexpr.Between(l, from, to), nil
}

func composition(ctx *resolve.Context, filters []queryir.Filter, join func(...sqlexpr.Predicate) sqlexpr.Predicate) (sqlexpr.Predicate, error) {
	preds := make([]sqlexpr.Predicate, 0, len(filters))
	for _, child := range filters {
		p, err := resolve.Must[sqlexpr.Predicate](ctx, child)
		if err != nil {
			return sqlexpr.Predicate{}, err
		}
		preds = append(preds, p)
	}
	return join(preds...), nil
}

func resolveExists(f *queryir.ExistsFilter, ctx *resolve.Context) (sqlexpr.Predicate, bool, error) {
	sub, err := resolve.Must[sqlexpr.Expr](ctx, f.Query)
	if err != nil {
		return sqlexpr.Predicate{}, false, err
	}
	return sqlexpr.Exists(sub), true, nil
}

func resolveNotExists(f *queryir.NotExistsFilter, ctx *resolve.Context) (sqlexpr.Predicate, bool, error) {
	sub, err := resolve.Must[sqlexpr.Expr](ctx, f.Query)
	if err != nil {
		return sqlexpr.Predicate{}, false, err
	}
	return sqlexpr.NotExists(sub), true, nil
}
