package datastore

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/resolvers"
)

// ErrNonUnique is returned by FindOne when more than one row matches.
var ErrNonUnique = errors.New("query returned more than one row")

// Query is a fluent query builder. Mutators return the same builder.
// A Query is not safe for concurrent use.
type Query struct {
	ds        *Datastore
	cfg       *queryir.Configuration
	registry  *resolve.Registry
	transform func(Row) (Row, error)
}

// Query starts a query over target with a copy of the current resolvers.
func (d *Datastore) Query(target *queryir.Target) *Query {
	return &Query{
		ds:       d,
		cfg:      &queryir.Configuration{Target: target},
		registry: d.snapshot(),
	}
}

// QueryConfig starts a query from a copy of cfg, such as one compiled from
// a query definition file.
func (d *Datastore) QueryConfig(cfg *queryir.Configuration) *Query {
	return &Query{
		ds:       d,
		cfg:      cfg.Clone(),
		registry: d.snapshot(),
	}
}

// Target replaces the query target.
func (q *Query) Target(t *queryir.Target) *Query {
	q.cfg.Target = t
	return q
}

// Filter adds filters; all filters are combined with AND in order.
func (q *Query) Filter(filters ...queryir.Filter) *Query {
	q.cfg.Filters = append(q.cfg.Filters, filters...)
	return q
}

// Sort adds sorts, applied in order.
func (q *Query) Sort(sorts ...queryir.Sort) *Query {
	q.cfg.Sorts = append(q.cfg.Sorts, sorts...)
	return q
}

// Aggregate sets the aggregation.
func (q *Query) Aggregate(a *queryir.Aggregation) *Query {
	q.cfg.Aggregation = a
	return q
}

// Parameter sets a named parameter, such as queryir.ParamTimeout.
func (q *Query) Parameter(name string, value any) *Query {
	if q.cfg.Parameters == nil {
		q.cfg.Parameters = make(map[string]any)
	}
	q.cfg.Parameters[name] = value
	return q
}

// WithResolver registers resolvers on this query only.
func (q *Query) WithResolver(rs ...resolve.Resolver) *Query {
	q.registry.Register(rs...)
	return q
}

// Limit sets the maximum number of rows. Zero means no limit.
func (q *Query) Limit(n int) *Query {
	q.cfg.Limit = n
	return q
}

// Offset sets the number of rows to skip.
func (q *Query) Offset(n int) *Query {
	q.cfg.Offset = n
	return q
}

// Restrict sets limit and offset together.
func (q *Query) Restrict(limit, offset int) *Query {
	q.cfg.Limit = limit
	q.cfg.Offset = offset
	return q
}

// Transform sets a function applied to every row returned by List,
// FindOne and ListAs.
func (q *Query) Transform(fn func(Row) (Row, error)) *Query {
	q.transform = fn
	return q
}

// Configuration returns a copy of the accumulated configuration.
func (q *Query) Configuration() *queryir.Configuration {
	return q.cfg.Clone()
}

func (q *Query) build(cfg *queryir.Configuration, projection queryir.Projection) (*resolvers.Select, error) {
	ctx := resolve.NewContext(q.registry, q.ds.catalog)
	return resolvers.BuildSelect(cfg, projection, ctx)
}

// Render resolves the query and returns its SQL without running it.
func (q *Query) Render(projection queryir.Projection) (string, []any, error) {
	sel, err := q.build(q.cfg, projection)
	if err != nil {
		return "", nil, err
	}
	return sel.ToSql()
}

// List runs the query and returns every row.
func (q *Query) List(ctx context.Context, projection queryir.Projection) ([]Row, error) {
	return q.list(ctx, "list", q.cfg, projection)
}

func (q *Query) list(ctx context.Context, op string, cfg *queryir.Configuration, projection queryir.Projection) ([]Row, error) {
	sel, err := q.build(cfg, projection)
	if err != nil {
		return nil, err
	}
	statement, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to render query: %w", err)
	}

	timeout, _ := cfg.Timeout()
	labels := sel.Projection.Labels
	rows, err := execute(ctx, q.ds, op, statement, timeout, func(ctx context.Context) ([]Row, error) {
		r, err := q.ds.store.Query(ctx, statement, args...)
		if err != nil {
			return nil, err
		}
		return scanRows(r, labels)
	})
	if err != nil {
		return nil, err
	}
	return q.apply(rows)
}

func (q *Query) apply(rows []Row) ([]Row, error) {
	if q.transform == nil {
		return rows, nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		t, err := q.transform(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// FindOne returns the single matching row. ok is false when nothing
// matches; more than one match is ErrNonUnique.
func (q *Query) FindOne(ctx context.Context, projection queryir.Projection) (Row, bool, error) {
	cfg := q.cfg.Clone()
	cfg.Limit = 2
	rows, err := q.list(ctx, "find_one", cfg, projection)
	if err != nil {
		return Row{}, false, err
	}
	switch len(rows) {
	case 0:
		return Row{}, false, nil
	case 1:
		return rows[0], true, nil
	default:
		return Row{}, false, ErrNonUnique
	}
}

// Count returns the number of rows the query would return, ignoring
// sorts, limit and offset. Aggregated queries count groups.
func (q *Query) Count(ctx context.Context) (int64, error) {
	cfg := q.cfg.Clone()
	cfg.Sorts = nil
	cfg.Limit = 0
	cfg.Offset = 0

	var builder sq.SelectBuilder
	if cfg.Aggregation != nil {
		sel, err := q.build(cfg, queryir.SelectProperties(cfg.Aggregation.Paths...))
		if err != nil {
			return 0, err
		}
		builder = sq.Select("COUNT(*)").FromSelect(sel.Builder, "grouped")
	} else {
		sel, err := q.build(cfg, queryir.CountAll())
		if err != nil {
			return 0, err
		}
		builder = sel.Builder
	}

	statement, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to render count: %w", err)
	}
	timeout, _ := cfg.Timeout()
	return execute(ctx, q.ds, "count", statement, timeout, func(ctx context.Context) (int64, error) {
		var n int64
		err := q.ds.store.DB().QueryRowContext(ctx, statement, args...).Scan(&n)
		return n, err
	})
}

// ListAs runs q and maps every row with fn.
func ListAs[T any](ctx context.Context, q *Query, projection queryir.Projection, fn func(Row) (T, error)) ([]T, error) {
	rows, err := q.List(ctx, projection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for i, r := range rows {
		v, err := fn(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
