package resolvers

import (
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

func resolveSort(s queryir.Sort, ctx *resolve.Context) (sqlexpr.Order, bool, error) {
	leaves := queryir.FlattenSort(s)
	if len(leaves) == 0 {
		return sqlexpr.Order{}, false, nil
	}
	specs := make([]sqlexpr.OrderSpecifier, 0, len(leaves))
	for _, leaf := range leaves {
		if err := leaf.Validate(); err != nil {
			return sqlexpr.Order{}, false, resolve.NewInvalidExpressionError(leaf.String(), err)
		}
		e, err := resolve.Must[sqlexpr.Expr](ctx, leaf.Path)
		if err != nil {
			return sqlexpr.Order{}, false, err
		}
		specs = append(specs, sqlexpr.OrderSpecifier{Expr: e, Descending: leaf.Direction == queryir.Descending})
	}
	return sqlexpr.Order{Specifiers: specs}, true, nil
}

func resolveAggregation(a *queryir.Aggregation, ctx *resolve.Context) (sqlexpr.Aggregation, bool, error) {
	groupBy := make([]sqlexpr.Expr, 0, len(a.Paths))
	for _, p := range a.Paths {
		e, err := resolve.Must[sqlexpr.Expr](ctx, p)
		if err != nil {
			return sqlexpr.Aggregation{}, false, err
		}
		groupBy = append(groupBy, e)
	}

	agg := sqlexpr.Aggregation{GroupBy: groupBy}
	if !queryir.Absent(a.Having) {
		having, err := resolve.Must[sqlexpr.Predicate](ctx, a.Having)
		if err != nil {
			return sqlexpr.Aggregation{}, false, err
		}
		agg.Having = &having
	}
	return agg, true, nil
}
