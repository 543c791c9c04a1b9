package resolvers

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qbridge/internal/ir"
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

func resolveFilterSQL(t *testing.T, ctx *resolve.Context, f queryir.Filter) (string, []any) {
	t.Helper()
	pred, err := resolve.Must[sqlexpr.Predicate](ctx, f)
	require.NoError(t, err)
	return renderSQL(t, pred)
}

func TestFilter_Operators(t *testing.T) {
	ctx := queryContext(t, baseContext(t), testTarget)
	one := queryir.Const(ir.Int(1))

	tests := []struct {
		name     string
		filter   queryir.Filter
		wantSQL  string
		wantArgs []any
	}{
		{"null", queryir.IsNull(stringPath), "t.string_value IS NULL", nil},
		{"not null", queryir.IsNotNull(stringPath), "t.string_value IS NOT NULL", nil},
		{"eq", queryir.Eq(keyPath, one), "t.code = ?", []any{int64(1)}},
		{"ne", queryir.Ne(keyPath, one), "t.code <> ?", []any{int64(1)}},
		{"gt", queryir.Gt(keyPath, one), "t.code > ?", []any{int64(1)}},
		{"goe", queryir.Gte(keyPath, one), "t.code >= ?", []any{int64(1)}},
		{"lt", queryir.Lt(keyPath, one), "t.code < ?", []any{int64(1)}},
		{"loe", queryir.Lte(keyPath, one), "t.code <= ?", []any{int64(1)}},
		{"eq null constant", queryir.Eq(keyPath, queryir.Const(ir.Null{})), "t.code IS NULL", nil},
		{"eq path", queryir.Eq(keyPath, stringPath), "t.code = t.string_value", nil},
		{
			"in",
			queryir.In(keyPath, queryir.Values(ir.Int(1), ir.Int(2), ir.Int(3))),
			"t.code IN (?,?,?)",
			[]any{int64(1), int64(2), int64(3)},
		},
		{
			"not in",
			queryir.NotIn(keyPath, queryir.Values(ir.Int(1))),
			"t.code NOT IN (?)",
			[]any{int64(1)},
		},
		{
			"between",
			queryir.Between(keyPath, ir.Int(1), ir.Int(5)),
			"t.code BETWEEN ? AND ?",
			[]any{int64(1), int64(5)},
		},
		{"contains", queryir.Contains(stringPath, "v", false), "t.string_value LIKE ?", []any{"%v%"}},
		{"starts with", queryir.StartsWith(stringPath, "v", false), "t.string_value LIKE ?", []any{"v%"}},
		{"ends with", queryir.EndsWith(stringPath, "v", false), "t.string_value LIKE ?", []any{"%v"}},
		{"exact", queryir.Matches(stringPath, "v", false), "t.string_value LIKE ?", []any{"v"}},
		{"empty value", queryir.Contains(stringPath, "", false), "t.string_value LIKE ?", []any{"%%"}},
		{
			"contains ignore case",
			queryir.Contains(stringPath, "VaL", true),
			"LOWER(t.string_value) LIKE ?",
			[]any{"%val%"},
		},
		{
			"nested path",
			queryir.Eq(nestedPath, queryir.Const(ir.String("n"))),
			"t.nested_nested_string_value = ?",
			[]any{"n"},
		},
		{
			"or",
			queryir.Or(queryir.IsNull(keyPath), queryir.Eq(keyPath, one)),
			"(t.code IS NULL OR t.code = ?)",
			[]any{int64(1)},
		},
		{"not", queryir.Not(queryir.Eq(keyPath, one)), "NOT (t.code = ?)", []any{int64(1)}},
		{
			"function operand",
			queryir.Eq(queryir.Upper(stringPath), queryir.Const(ir.String("A"))),
			"UPPER(t.string_value) = ?",
			[]any{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := resolveFilterSQL(t, ctx, tt.filter)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilter_AndPreservesOrder(t *testing.T) {
	ctx := queryContext(t, baseContext(t), testTarget)
	one := queryir.Const(ir.Int(1))

	for n := 1; n <= 4; n++ {
		children := make([]queryir.Filter, n)
		for i := range children {
			children[i] = queryir.Gt(keyPath, queryir.Const(ir.Int(int64(i))))
		}

		pred, err := resolve.Must[sqlexpr.Predicate](ctx, queryir.And(children...))
		require.NoError(t, err)
		conj, ok := pred.SQL.(sq.And)
		require.True(t, ok)
		assert.Len(t, conj, n)

		_, args := renderSQL(t, pred)
		want := make([]any, n)
		for i := range want {
			want[i] = int64(i)
		}
		assert.Equal(t, want, args)
	}

	// key > 1 AND stringValue IS NOT NULL keeps declaration order
	sql, args := resolveFilterSQL(t, ctx, queryir.And(queryir.Gt(keyPath, one), queryir.IsNotNull(stringPath)))
	assert.Equal(t, "(t.code > ? AND t.string_value IS NOT NULL)", sql)
	assert.Equal(t, []any{int64(1)}, args)

	sql, _ = resolveFilterSQL(t, ctx, queryir.And(queryir.IsNotNull(stringPath), queryir.Gt(keyPath, one)))
	assert.Equal(t, "(t.string_value IS NOT NULL AND t.code > ?)", sql)
}

func TestFilter_EmptyCompositionFailsValidation(t *testing.T) {
	ctx := queryContext(t, baseContext(t), testTarget)

	for _, f := range []queryir.Filter{queryir.And(), queryir.Or()} {
		_, err := ctx.ResolveOrFail(f, sqlexpr.KindPredicate)
		require.Error(t, err)
		assert.True(t, resolve.IsInvalidExpression(err))
	}
}

func TestFilter_MissingRightOperand(t *testing.T) {
	ctx := queryContext(t, baseContext(t), testTarget)

	_, err := ctx.ResolveOrFail(queryir.Eq(keyPath, nil), sqlexpr.KindPredicate)
	require.Error(t, err)
	assert.True(t, resolve.IsInvalidExpression(err))
	assert.Contains(t, err.Error(), "missing right operand in filter [key = <nil>]")

	_, err = ctx.ResolveOrFail(queryir.And(queryir.IsNull(keyPath), queryir.Ne(keyPath, nil)), sqlexpr.KindPredicate)
	assert.True(t, resolve.IsInvalidExpression(err))
}

func TestFilter_MembershipNeedsCollection(t *testing.T) {
	ctx := queryContext(t, baseContext(t), testTarget)

	_, err := ctx.ResolveOrFail(queryir.In(keyPath, queryir.Const(ir.Int(1))), sqlexpr.KindPredicate)
	require.Error(t, err)
	assert.True(t, resolve.IsInvalidExpression(err))
	assert.Contains(t, err.Error(), "collection or a sub-query")

	_, err = ctx.ResolveOrFail(queryir.Eq(keyPath, queryir.Values(ir.Int(1))), sqlexpr.KindPredicate)
	assert.True(t, resolve.IsInvalidExpression(err))
}

func TestFilter_OrderingRejectsNull(t *testing.T) {
	ctx := queryContext(t, baseContext(t), testTarget)
	null := queryir.Const(ir.Null{})

	for _, f := range []queryir.Filter{
		queryir.Gt(keyPath, null),
		queryir.Gte(keyPath, null),
		queryir.Lt(keyPath, null),
		queryir.Lte(queryir.Count(keyPath), null),
	} {
		_, err := ctx.ResolveOrFail(f, sqlexpr.KindPredicate)
		require.Error(t, err)
		assert.True(t, resolve.IsInvalidExpression(err))
		assert.Contains(t, err.Error(), "null operand used with an ordering comparison")
		assert.Contains(t, err.Error(), f.String())
	}

	sql, _ := resolveFilterSQL(t, ctx, queryir.Eq(keyPath, null))
	assert.Equal(t, "t.code IS NULL", sql)
}

func TestFilter_ScalarSubQuery(t *testing.T) {
	ctx := queryContext(t, baseContext(t), testTarget)
	highest := queryir.NewSubQuery(otherTarget, queryir.SelectExpr(queryir.Max(codePath)))

	sql, _ := resolveFilterSQL(t, ctx, queryir.Eq(keyPath, highest))
	assert.Equal(t, "t.code = (SELECT MAX(o.code) FROM test_other o)", sql)
}

func TestFilter_BetweenUsesLeftType(t *testing.T) {
	var seen []queryir.Type
	spy := resolve.For("spy", resolve.PriorityCustom, func(c *queryir.Constant, ctx *resolve.Context) (sqlexpr.Expr, bool, error) {
		seen = append(seen, c.Type())
		return sqlexpr.Expr{}, false, nil
	})
	ctx := queryContext(t, baseContext(t, spy), testTarget)

	_, err := ctx.ResolveOrFail(queryir.Between(datePath, ir.String("2024-01-01"), ir.String("2024-12-31")), sqlexpr.KindPredicate)
	require.NoError(t, err)
	assert.Equal(t, []queryir.Type{queryir.TypeTime, queryir.TypeTime}, seen)
}

type customFilter struct {
	queryir.FilterBase
	Path *queryir.Path
}

func (f *customFilter) Validate() error { return f.Path.Validate() }
func (f *customFilter) String() string  { return "custom(" + f.Path.String() + ")" }

func TestFilter_CustomResolver(t *testing.T) {
	custom := resolve.For("custom", resolve.PriorityCustom, func(f *customFilter, ctx *resolve.Context) (sqlexpr.Predicate, bool, error) {
		e, err := resolve.Must[sqlexpr.Expr](ctx, f.Path)
		if err != nil {
			return sqlexpr.Predicate{}, false, err
		}
		return sqlexpr.IsNotNull(e), true, nil
	})

	plain := queryContext(t, baseContext(t), testTarget)
	_, err := plain.ResolveOrFail(&customFilter{Path: stringPath}, sqlexpr.KindPredicate)
	require.Error(t, err)
	assert.True(t, resolve.IsUnresolvable(err))

	ctx := queryContext(t, baseContext(t, custom), testTarget)
	sql, _ := resolveFilterSQL(t, ctx, queryir.And(queryir.Gt(keyPath, queryir.Const(ir.Int(1))), &customFilter{Path: stringPath}))
	assert.Equal(t, "(t.code > ? AND t.string_value IS NOT NULL)", sql)
}

func TestFilter_Exists(t *testing.T) {
	base := baseContext(t)
	ctx := queryContext(t, base, testTarget)
	before := ctx.Registry().Len()
	baseBefore := base.Registry().Len()

	sub := queryir.NewSubQuery(otherTarget, queryir.SelectExpr(codePath)).
		Where(queryir.Eq(codePath, testKeyPath), queryir.Gt(seqPath, queryir.Const(ir.Int(2))))

	sql, args := resolveFilterSQL(t, ctx, queryir.Exists(sub))
	assert.Equal(t, "EXISTS (SELECT o.code FROM test_other o WHERE (o.code = t.code AND o.seq > ?))", sql)
	assert.Equal(t, []any{int64(2)}, args)

	sql, _ = resolveFilterSQL(t, ctx, queryir.NotExists(sub))
	assert.Equal(t, "NOT EXISTS (SELECT o.code FROM test_other o WHERE (o.code = t.code AND o.seq > ?))", sql)

	assert.Equal(t, before, ctx.Registry().Len())
	assert.Equal(t, baseBefore, base.Registry().Len())

	md, err := ctx.Metadata()
	require.NoError(t, err)
	assert.Len(t, md.Joins, 1)
}

func TestFilter_InSubQuery(t *testing.T) {
	ctx := queryContext(t, baseContext(t), testTarget)

	sub := queryir.NewSubQuery(testTarget, queryir.SelectExpr(keyPath)).
		Where(queryir.IsNotNull(stringPath))

	sql, _ := resolveFilterSQL(t, ctx, queryir.In(keyPath, sub))
	assert.Equal(t, "t.code IN (SELECT t1.code FROM test_data t1 WHERE t1.string_value IS NOT NULL)", sql)
}
