package sqlexpr

import (
	"errors"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qbridge/internal/catalog"
	"github.com/roach88/qbridge/internal/ir"
	"github.com/roach88/qbridge/internal/queryir"
)

func TestKinds(t *testing.T) {
	assert.Equal(t, KindExpression, Expr{}.Kind())
	assert.Equal(t, KindPredicate, Predicate{}.Kind())
	assert.Equal(t, KindOrder, Order{}.Kind())
	assert.Equal(t, KindAggregation, Aggregation{}.Kind())
	assert.Equal(t, KindProjection, Projection{}.Kind())
	assert.Equal(t, KindEntity, Entity{}.Kind())
	assert.Equal(t, "predicate", KindPredicate.String())
}

func TestValidate(t *testing.T) {
	col := Column("t.code", queryir.TypeInt)

	tests := []struct {
		name    string
		r       Resolved
		wantErr bool
	}{
		{"expr", col, false},
		{"empty expr", Expr{}, true},
		{"predicate", IsNull(col), false},
		{"empty predicate", Predicate{}, true},
		{"order", Order{Specifiers: []OrderSpecifier{{Expr: col}}}, false},
		{"empty order", Order{}, true},
		{"aggregation", Aggregation{GroupBy: []Expr{col}}, false},
		{"empty aggregation", Aggregation{}, true},
		{"invalid having", Aggregation{GroupBy: []Expr{col}, Having: &Predicate{}}, true},
		{"projection", Projection{Selection: []Expr{col}, Labels: []string{"key"}}, false},
		{"empty projection", Projection{}, true},
		{"label mismatch", Projection{Selection: []Expr{col}}, true},
		{"entity", Entity{Name: "Test", Table: "test_data", Alias: "t"}, false},
		{"entity without alias", Entity{Name: "Test", Table: "test_data"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalid))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLiteral(t *testing.T) {
	e, err := Literal(ir.String("abc"), queryir.TypeString)
	require.NoError(t, err)
	assert.True(t, e.Literal)
	assert.False(t, e.Collection)
	assert.Equal(t, "abc", e.Value)

	sql, args, err := e.Text()
	require.NoError(t, err)
	assert.Equal(t, "?", sql)
	assert.Equal(t, []any{"abc"}, args)

	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	e, err = Literal(ir.Time(ts), queryir.TypeTime)
	require.NoError(t, err)
	assert.Equal(t, ts, e.Value)

	e, err = Literal(ir.Null{}, queryir.TypeAny)
	require.NoError(t, err)
	sql, args, err = e.Text()
	require.NoError(t, err)
	assert.Equal(t, "NULL", sql)
	assert.Empty(t, args)

	e, err = Literal(ir.NewList(ir.Int(1), ir.Int(2)), queryir.TypeInt)
	require.NoError(t, err)
	assert.True(t, e.Collection)
	assert.Equal(t, []any{int64(1), int64(2)}, e.Value)

	_, err = Literal(ir.NewList(ir.NewList()), queryir.TypeAny)
	assert.Error(t, err)
}

func TestOrderSpecifier_Clause(t *testing.T) {
	col := Column("t.code", queryir.TypeInt)

	sql, _, err := OrderSpecifier{Expr: col}.Clause()
	require.NoError(t, err)
	assert.Equal(t, "t.code ASC", sql)

	sql, _, err = OrderSpecifier{Expr: col, Descending: true}.Clause()
	require.NoError(t, err)
	assert.Equal(t, "t.code DESC", sql)
}

func TestEntity_Qualify(t *testing.T) {
	meta := catalog.NewEntity("Test", catalog.Property{Path: "key", Column: "code"})
	e := Entity{Name: "Test", Table: "test_data", Alias: "t", Meta: meta}

	assert.Equal(t, "test_data t", e.From())
	assert.Equal(t, "t.code", e.Qualify("key"))
	assert.Equal(t, "t.nested_nested_string_value", e.Qualify("nested.nestedStringValue"))

	bare := Entity{Name: "X", Table: "x", Alias: "x"}
	assert.Equal(t, "x.string_value", bare.Qualify("stringValue"))
}

func TestProjection_Append(t *testing.T) {
	p := Projection{}
	p2 := p.Append(Column("t.code", queryir.TypeInt), "key")

	assert.Empty(t, p.Selection)
	assert.Equal(t, []string{"key"}, p2.Labels)
	assert.NoError(t, p2.Validate())
}

func TestPredicate_ComposesIntoSelect(t *testing.T) {
	p := Compare(OpGt, Column("t.code", queryir.TypeInt), lit(t, ir.Int(1)))
	sql, args, err := sq.Select("t.code").From("test_data t").Where(p).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT t.code FROM test_data t WHERE t.code > ?", sql)
	assert.Equal(t, []any{int64(1)}, args)
}
