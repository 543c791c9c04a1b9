package ir

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = Bool(true)
	var _ Value = Time(time.Unix(0, 0))
	var _ Value = List{String("a"), Int(1)}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null{}, "null"},
		{"string", String("abc"), `"abc"`},
		{"int", Int(-7), "-7"},
		{"float", Float(2.5), "2.5"},
		{"bool", Bool(false), "false"},
		{"time", Time(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)), "2024-03-01T10:00:00Z"},
		{"list", NewList(Int(1), String("x")), `[1, "x"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(String("")))
	assert.False(t, IsNull(Int(0)))
}

func TestFromAny(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"string", "hello", String("hello")},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"int32", int32(-3), Int(-3)},
		{"uint8", uint8(9), Int(9)},
		{"float64", 1.25, Float(1.25)},
		{"json int", json.Number("12"), Int(12)},
		{"json float", json.Number("1.5"), Float(1.5)},
		{"time to utc", ts, Time(ts.UTC())},
		{"passthrough", String("v"), String("v")},
		{"list", []any{1, "a", nil}, List{Int(1), String("a"), Null{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAnyNormalizesNFC(t *testing.T) {
	// "é" as e + combining acute accent
	decomposed := "e\u0301"
	got, err := FromAny(decomposed)
	require.NoError(t, err)
	assert.Equal(t, String("\u00e9"), got)
}

func TestFromAnyErrors(t *testing.T) {
	_, err := FromAny(uint64(1 << 63))
	assert.ErrorContains(t, err, "out of int64 range")

	_, err = FromAny(map[string]any{"a": 1})
	assert.ErrorContains(t, err, "unsupported value type")

	_, err = FromAny([]any{1, struct{}{}})
	assert.ErrorContains(t, err, "list[1]")
}

func TestFromSQL(t *testing.T) {
	v, err := FromSQL([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, String("raw"), v)

	v, err = FromSQL(int64(5))
	require.NoError(t, err)
	assert.Equal(t, Int(5), v)

	v, err = FromSQL(nil)
	require.NoError(t, err)
	assert.Equal(t, Null{}, v)
}

func TestToParam(t *testing.T) {
	p, err := ToParam(String("s"))
	require.NoError(t, err)
	assert.Equal(t, "s", p)

	p, err = ToParam(Int(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), p)

	p, err = ToParam(Null{})
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = ToParam(List{Int(1)})
	assert.Error(t, err)
}

func TestToParams(t *testing.T) {
	params, err := ToParams(List{Int(1), String("b"), Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "b", true}, params)

	_, err = ToParams(List{List{Int(1)}})
	assert.ErrorContains(t, err, "list[0]")
}

func TestNative(t *testing.T) {
	assert.Nil(t, Native(Null{}))
	assert.Equal(t, "a", Native(String("a")))
	assert.Equal(t, []any{int64(1), 2.5}, Native(List{Int(1), Float(2.5)}))
}
