package datastore

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/qbridge/internal/ir"
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

// ErrEmptyClause is returned when executing a clause with no assignments.
var ErrEmptyClause = errors.New("clause has no assignments")

type assignment struct {
	path  *queryir.Path
	value queryir.TypedExpression
}

// assignments is an insertion-ordered path -> value map.
type assignments []assignment

func (a *assignments) set(path *queryir.Path, value queryir.TypedExpression) {
	name := path.FullName()
	for i := range *a {
		if (*a)[i].path.FullName() == name {
			(*a)[i].value = value
			return
		}
	}
	*a = append(*a, assignment{path: path, value: value})
}

// operand converts a caller value into an expression typed like path.
// Nil and ir.Null become a NULL constant.
func operand(path *queryir.Path, value any) (queryir.TypedExpression, error) {
	if e, ok := value.(queryir.TypedExpression); ok {
		return e, nil
	}
	v, err := ir.FromAny(value)
	if err != nil {
		return nil, fmt.Errorf("value of %s: %w", path, err)
	}
	return &queryir.Constant{Value: v, ValueType: path.Type()}, nil
}

// resolveAssignments maps every assignment to (column, value SQL).
func resolveAssignments(ctx *resolve.Context, entity sqlexpr.Entity, as assignments) ([]string, []sq.Sqlizer, error) {
	cols := make([]string, 0, len(as))
	vals := make([]sq.Sqlizer, 0, len(as))
	for _, a := range as {
		e, err := resolve.Must[sqlexpr.Expr](ctx, a.value)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, entity.Meta.Column(a.path.FullName()))
		vals = append(vals, e.SQL)
	}
	return cols, vals, nil
}

func resolveWhere(ctx *resolve.Context, filters []queryir.Filter) (*sqlexpr.Predicate, error) {
	cfg := queryir.Configuration{Filters: filters}
	f := cfg.Filter()
	if f == nil {
		return nil, nil
	}
	pred, err := resolve.Must[sqlexpr.Predicate](ctx, f)
	if err != nil {
		return nil, err
	}
	return &pred, nil
}

// UpdateClause is a fluent UPDATE. Assignments keep their first-set order.
type UpdateClause struct {
	ds      *Datastore
	target  *queryir.Target
	values  assignments
	filters []queryir.Filter
	err     error
}

// Update starts an UPDATE of target's table.
func (d *Datastore) Update(target *queryir.Target) *UpdateClause {
	return &UpdateClause{ds: d, target: target}
}

// Set assigns value to path. value is a queryir.TypedExpression or a Go
// value; nil sets NULL.
func (u *UpdateClause) Set(path *queryir.Path, value any) *UpdateClause {
	e, err := operand(path, value)
	if err != nil {
		u.err = errors.Join(u.err, err)
		return u
	}
	u.values.set(path, e)
	return u
}

// SetNull assigns NULL to path.
func (u *UpdateClause) SetNull(path *queryir.Path) *UpdateClause {
	return u.Set(path, nil)
}

// Where adds filters restricting the updated rows.
func (u *UpdateClause) Where(filters ...queryir.Filter) *UpdateClause {
	u.filters = append(u.filters, filters...)
	return u
}

// IsEmpty reports whether no assignment has been made.
func (u *UpdateClause) IsEmpty() bool { return len(u.values) == 0 }

// Render resolves the clause into SQL.
func (u *UpdateClause) Render() (string, []any, error) {
	if u.err != nil {
		return "", nil, u.err
	}
	if u.IsEmpty() {
		return "", nil, ErrEmptyClause
	}
	ctx, entity, err := fromContext(u.ds.snapshot(), u.ds.catalog, u.target)
	if err != nil {
		return "", nil, err
	}
	cols, vals, err := resolveAssignments(ctx, entity, u.values)
	if err != nil {
		return "", nil, err
	}

	b := sq.Update(entity.Table + " AS " + entity.Alias)
	for i, col := range cols {
		b = b.Set(col, vals[i])
	}
	where, err := resolveWhere(ctx, u.filters)
	if err != nil {
		return "", nil, err
	}
	if where != nil {
		b = b.Where(*where)
	}
	return b.ToSql()
}

// Execute runs the update and returns the number of affected rows.
func (u *UpdateClause) Execute(ctx context.Context) (int64, error) {
	statement, args, err := u.Render()
	if err != nil {
		return 0, err
	}
	return u.ds.exec(ctx, "update", statement, args)
}

// DeleteClause is a fluent DELETE.
type DeleteClause struct {
	ds      *Datastore
	target  *queryir.Target
	filters []queryir.Filter
}

// Delete starts a DELETE from target's table. Without filters every row
// is deleted.
func (d *Datastore) Delete(target *queryir.Target) *DeleteClause {
	return &DeleteClause{ds: d, target: target}
}

// Where adds filters restricting the deleted rows.
func (c *DeleteClause) Where(filters ...queryir.Filter) *DeleteClause {
	c.filters = append(c.filters, filters...)
	return c
}

// Render resolves the clause into SQL.
func (c *DeleteClause) Render() (string, []any, error) {
	ctx, entity, err := fromContext(c.ds.snapshot(), c.ds.catalog, c.target)
	if err != nil {
		return "", nil, err
	}
	b := sq.Delete(entity.Table + " AS " + entity.Alias)
	where, err := resolveWhere(ctx, c.filters)
	if err != nil {
		return "", nil, err
	}
	if where != nil {
		b = b.Where(*where)
	}
	return b.ToSql()
}

// Execute runs the delete and returns the number of affected rows.
func (c *DeleteClause) Execute(ctx context.Context) (int64, error) {
	statement, args, err := c.Render()
	if err != nil {
		return 0, err
	}
	return c.ds.exec(ctx, "delete", statement, args)
}

// InsertClause is a fluent single-row INSERT.
type InsertClause struct {
	ds     *Datastore
	target *queryir.Target
	values assignments
	err    error
}

// Insert starts an INSERT into target's table.
func (d *Datastore) Insert(target *queryir.Target) *InsertClause {
	return &InsertClause{ds: d, target: target}
}

// Set assigns value to path; see UpdateClause.Set.
func (c *InsertClause) Set(path *queryir.Path, value any) *InsertClause {
	e, err := operand(path, value)
	if err != nil {
		c.err = errors.Join(c.err, err)
		return c
	}
	c.values.set(path, e)
	return c
}

// Render resolves the clause into SQL.
func (c *InsertClause) Render() (string, []any, error) {
	if c.err != nil {
		return "", nil, c.err
	}
	if len(c.values) == 0 {
		return "", nil, ErrEmptyClause
	}
	ctx, entity, err := fromContext(c.ds.snapshot(), c.ds.catalog, c.target)
	if err != nil {
		return "", nil, err
	}
	cols, vals, err := resolveAssignments(ctx, entity, c.values)
	if err != nil {
		return "", nil, err
	}
	row := make([]any, len(vals))
	for i, v := range vals {
		row[i] = v
	}
	return sq.Insert(entity.Table).Columns(cols...).Values(row...).ToSql()
}

// Execute runs the insert and returns the number of affected rows.
func (c *InsertClause) Execute(ctx context.Context) (int64, error) {
	statement, args, err := c.Render()
	if err != nil {
		return 0, err
	}
	return c.ds.exec(ctx, "insert", statement, args)
}

func (d *Datastore) exec(ctx context.Context, op, statement string, args []any) (int64, error) {
	return execute(ctx, d, op, statement, 0, func(ctx context.Context) (int64, error) {
		return d.store.Exec(ctx, statement, args...)
	})
}
