package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Value is a sealed interface representing literal values that can cross
// into the target expression system.
// Only Null, String, Int, Float, Bool, Time and List implement this.
type Value interface {
	irValue() // Sealed - only these types implement it
	String() string
}

// Null represents an absent value.
type Null struct{}

func (Null) irValue() {}

func (Null) String() string { return "null" }

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a text literal.
type String string

func (String) irValue() {}

func (s String) String() string { return strconv.Quote(string(s)) }

// Int is an integer literal. Always int64.
type Int int64

func (Int) irValue() {}

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a floating point literal.
type Float float64

func (Float) irValue() {}

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Bool is a boolean literal.
type Bool bool

func (Bool) irValue() {}

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Time is a date/time literal. Stored in UTC.
type Time time.Time

func (Time) irValue() {}

func (t Time) String() string { return time.Time(t).UTC().Format(time.RFC3339Nano) }

// List is an ordered collection of values, used as the right operand of
// membership predicates.
type List []Value

func (List) irValue() {}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// NewList creates a List from values.
func NewList(vals ...Value) List {
	return List(vals)
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// FromAny converts a decoded Go value (from YAML, JSON or caller code) into
// a Value. Strings are NFC normalized so that equal text compares equal
// regardless of how it was typed.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(norm.NFC.String(val)), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return Float(f), nil
	case time.Time:
		return Time(val.UTC()), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			converted, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = converted
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// FromSQL converts a value scanned from a database/sql driver into a Value.
// go-sqlite3 yields int64, float64, bool, []byte, string, time.Time or nil.
func FromSQL(v any) (Value, error) {
	switch val := v.(type) {
	case []byte:
		return String(string(val)), nil
	case string:
		return String(val), nil
	default:
		return FromAny(v)
	}
}

// ToParam converts a Value to a Go native type usable as a SQL parameter.
// Lists cannot be bound as a single parameter; use ToParams.
func ToParam(v Value) (any, error) {
	switch val := v.(type) {
	case nil, Null:
		return nil, nil
	case String:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Float:
		return float64(val), nil
	case Bool:
		return bool(val), nil
	case Time:
		return time.Time(val), nil
	case List:
		return nil, fmt.Errorf("list cannot be used as a single SQL parameter")
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}

// ToParams converts every element of a list to SQL parameters.
func ToParams(list List) ([]any, error) {
	params := make([]any, len(list))
	for i, v := range list {
		p, err := ToParam(v)
		if err != nil {
			return nil, fmt.Errorf("list[%d]: %w", i, err)
		}
		params[i] = p
	}
	return params, nil
}

// Native returns the Go representation of v, recursing into lists.
// Used for JSON output of result rows.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Time:
		return time.Time(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	default:
		return nil
	}
}
