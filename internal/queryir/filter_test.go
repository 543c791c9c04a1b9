package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/qbridge/internal/ir"
)

var (
	keyPath    = NewPath("key", TypeInt)
	stringPath = NewPath("stringValue", TypeString)
)

type customFilter struct {
	FilterBase
	Path *Path
}

func (f *customFilter) Validate() error { return nil }
func (f *customFilter) String() string  { return "custom(" + f.Path.String() + ")" }

func TestFilter_CustomTypesImplementFilter(t *testing.T) {
	var f Filter = &customFilter{Path: keyPath}
	assert.Equal(t, "custom(key)", f.String())
}

func TestFilter_String(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"gt", Gt(keyPath, Const(ir.Int(1))), "key > 1"},
		{"gte", Gte(keyPath, Const(ir.Int(1))), "key >= 1"},
		{"lte", Lte(keyPath, Const(ir.Int(1))), "key <= 1"},
		{"ne", Ne(stringPath, Const(ir.String("x"))), `stringValue <> "x"`},
		{"not null", IsNotNull(stringPath), "stringValue IS NOT NULL"},
		{"in", In(keyPath, Values(ir.Int(1), ir.Int(2))), "key IN [1, 2]"},
		{"between", Between(keyPath, ir.Int(1), ir.Int(3)), "key BETWEEN 1 AND 3"},
		{"contains", Contains(stringPath, "v", true), `stringValue contains_ignore_case "v"`},
		{
			"and",
			And(Gt(keyPath, Const(ir.Int(1))), IsNotNull(stringPath)),
			"(key > 1 AND stringValue IS NOT NULL)",
		},
		{"not", Not(IsNull(keyPath)), "NOT (key IS NULL)"},
		{"missing right", Eq(keyPath, nil), "key = <nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.String())
		})
	}
}

func TestFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr string
	}{
		{"valid eq", Eq(keyPath, Const(ir.Int(1))), ""},
		{"missing left", Eq(nil, Const(ir.Int(1))), "missing left operand"},
		{"typed nil left", IsNull((*Path)(nil)), "missing left operand"},
		{"empty and", And(), "empty filter composition"},
		{"empty or", Or(), "empty filter composition"},
		{"nil child", And(IsNull(keyPath), nil), "nil filter at position 1"},
		{"not without child", Not(nil), "missing negated filter"},
		{"between missing to", Between(keyPath, ir.Int(1), nil), "missing range end value"},
		{"between null from", Between(keyPath, ir.Null{}, ir.Int(2)), "missing range start value"},
		{"exists without query", Exists(nil), "missing sub-query"},
		{"empty match value", Matches(stringPath, "", false), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfiguration_Filter(t *testing.T) {
	cfg := &Configuration{Target: NewTarget("Test")}
	assert.Nil(t, cfg.Filter())

	first := Gt(keyPath, Const(ir.Int(1)))
	cfg.Filters = append(cfg.Filters, first)
	assert.Same(t, first, cfg.Filter())

	second := IsNotNull(stringPath)
	cfg.Filters = append(cfg.Filters, second)
	and, ok := cfg.Filter().(*AndFilter)
	assert.True(t, ok)
	assert.Equal(t, []Filter{first, second}, and.Filters)
}

func TestConfiguration_Clone(t *testing.T) {
	cfg := &Configuration{
		Target:     NewTarget("Test"),
		Filters:    []Filter{IsNull(keyPath)},
		Parameters: map[string]any{"a": 1},
	}
	cp := cfg.Clone()
	cp.Filters = append(cp.Filters, IsNull(stringPath))
	cp.Parameters["b"] = 2

	assert.Len(t, cfg.Filters, 1)
	assert.NotContains(t, cfg.Parameters, "b")
}

func TestConfiguration_Validate(t *testing.T) {
	assert.ErrorContains(t, (&Configuration{}).Validate(), "missing query target")
	assert.ErrorContains(t, (&Configuration{Target: NewTarget("T"), Limit: -1}).Validate(), "negative limit")
	assert.NoError(t, (&Configuration{Target: NewTarget("T"), Limit: 5}).Validate())
}
