package resolvers

import (
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

// Select is an assembled query ready for serialization.
type Select struct {
	Builder    sq.SelectBuilder
	Projection sqlexpr.Projection
	Context    *resolve.Context
}

// ToSql renders the query.
func (s *Select) ToSql() (string, []any, error) {
	return s.Builder.ToSql()
}

// BuildSelect assembles a SELECT for cfg in a new child context of parent:
// FROM target, declared joins, projection, then Configure.
//
// When parent is itself a query context the result is a sub-query, and
// default aliases are renamed so they do not collide with any alias of the
// enclosing queries.
func BuildSelect(cfg *queryir.Configuration, projection queryir.Projection, parent *resolve.Context) (*Select, error) {
	if err := cfg.Validate(); err != nil {
		return nil, resolve.NewInvalidExpressionError(cfg.String(), err)
	}
	if queryir.Absent(projection) {
		return nil, resolve.NewInvalidExpressionError(cfg.String(), fmt.Errorf("missing projection"))
	}

	ctx := parent.Child()
	nested := parent.HasMetadata()

	from, err := joinEntity(ctx, cfg.Target, nested)
	if err != nil {
		return nil, err
	}
	if err := ctx.AddJoin(resolve.Join{Source: cfg.Target.Name, Target: from, Kind: resolve.JoinFrom}); err != nil {
		return nil, err
	}
	builder := sq.Select().From(from.From())

	for _, j := range cfg.Target.Joins {
		entity, err := joinEntity(ctx, j.Target, true)
		if err != nil {
			return nil, err
		}
		kind := resolve.JoinInner
		if j.Kind == queryir.JoinLeft {
			kind = resolve.JoinLeft
		}
		// Registered before ON is resolved so the condition can reference it.
		if err := ctx.AddJoin(resolve.Join{Source: j.Target.Name, Target: entity, Kind: kind}); err != nil {
			return nil, err
		}
		on, err := resolve.Must[sqlexpr.Predicate](ctx, j.On)
		if err != nil {
			return nil, err
		}
		onSQL, onArgs, err := on.ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to render join condition: %w", err)
		}
		clause := entity.From() + " ON " + onSQL
		if kind == resolve.JoinLeft {
			builder = builder.LeftJoin(clause, onArgs...)
		} else {
			builder = builder.InnerJoin(clause, onArgs...)
		}
	}

	proj, err := resolve.Must[sqlexpr.Projection](ctx, projection)
	if err != nil {
		return nil, err
	}
	for _, e := range proj.Selection {
		builder = builder.Column(e.SQL)
	}

	builder, err = Configure(builder, cfg, ctx)
	if err != nil {
		return nil, err
	}
	return &Select{Builder: builder, Projection: proj, Context: ctx}, nil
}

// joinEntity resolves a target and, when unique is set and the target has
// no explicit alias, renames its alias away from every alias in the chain.
func joinEntity(ctx *resolve.Context, t *queryir.Target, unique bool) (sqlexpr.Entity, error) {
	entity, err := resolve.Must[sqlexpr.Entity](ctx, t)
	if err != nil {
		return sqlexpr.Entity{}, err
	}
	if unique && t.Alias == "" {
		entity.Alias = ctx.UniqueAlias(entity.Alias)
	}
	return entity, nil
}

// Configure attaches WHERE, ORDER BY, GROUP BY/HAVING and LIMIT/OFFSET
// from cfg to builder, resolving everything in ctx.
func Configure(builder sq.SelectBuilder, cfg *queryir.Configuration, ctx *resolve.Context) (sq.SelectBuilder, error) {
	if f := cfg.Filter(); f != nil {
		pred, err := resolve.Must[sqlexpr.Predicate](ctx, f)
		if err != nil {
			return builder, err
		}
		builder = builder.Where(pred)
	}

	if s := cfg.Sort(); s != nil {
		order, err := resolve.Must[sqlexpr.Order](ctx, s)
		if err != nil {
			return builder, err
		}
		for _, spec := range order.Specifiers {
			clause, args, err := spec.Clause()
			if err != nil {
				return builder, err
			}
			builder = builder.OrderByClause(clause, args...)
		}
	}

	if cfg.Aggregation != nil {
		agg, err := resolve.Must[sqlexpr.Aggregation](ctx, cfg.Aggregation)
		if err != nil {
			return builder, err
		}
		for _, g := range agg.GroupBy {
			text, args, err := g.Text()
			if err != nil {
				return builder, err
			}
			if len(args) > 0 {
				return builder, resolve.NewOperandError("group-by expressions cannot bind parameters", cfg.Aggregation.String())
			}
			builder = builder.GroupBy(text)
		}
		if agg.Having != nil {
			builder = builder.Having(*agg.Having)
		}
	}

	if cfg.Limit > 0 {
		builder = builder.Limit(uint64(cfg.Limit))
	}
	if cfg.Offset > 0 {
		if cfg.Limit <= 0 {
			// SQLite only accepts OFFSET after a LIMIT.
			builder = builder.Limit(math.MaxInt64)
		}
		builder = builder.Offset(uint64(cfg.Offset))
	}
	return builder, nil
}

func resolveSubQuery(s *queryir.SubQuery, ctx *resolve.Context) (sqlexpr.Expr, bool, error) {
	sel, err := BuildSelect(s.Config, s.Selection, ctx)
	if err != nil {
		return sqlexpr.Expr{}, false, err
	}
	return sqlexpr.Select(sel.Builder, s.Type()), true, nil
}
