package sqlexpr

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/qbridge/internal/ir"
	"github.com/roach88/qbridge/internal/queryir"
)

// Literal turns a leaf value into a bound parameter expression.
// Lists become collection expressions for IN / NOT IN; Null becomes the
// SQL NULL keyword.
func Literal(v ir.Value, t queryir.Type) (Expr, error) {
	if ir.IsNull(v) {
		return Expr{SQL: sq.Expr("NULL"), Type: t, Literal: true}, nil
	}

	if list, ok := v.(ir.List); ok {
		params, err := ir.ToParams(list)
		if err != nil {
			return Expr{}, err
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
		return Expr{
			SQL:        sq.Expr("("+placeholders+")", params...),
			Type:       t,
			Literal:    true,
			Value:      params,
			Collection: true,
		}, nil
	}

	param, err := ir.ToParam(v)
	if err != nil {
		return Expr{}, err
	}
	return Expr{SQL: sq.Expr("?", param), Type: t, Literal: true, Value: param}, nil
}

// Column references a qualified column.
func Column(qualified string, t queryir.Type) Expr {
	return Expr{SQL: sq.Expr(qualified), Type: t, Column: qualified}
}

// Raw wraps a SQL fragment without bound arguments, such as COUNT(*).
func Raw(sql string, t queryir.Type) Expr {
	return Expr{SQL: sq.Expr(sql), Type: t}
}

// Call applies a SQL function to its argument: name(arg).
func Call(name string, arg Expr, t queryir.Type) Expr {
	return Expr{SQL: sq.ConcatExpr(name+"(", arg.SQL, ")"), Type: t}
}

// Wrap surrounds an expression with fixed SQL text: prefix arg suffix.
func Wrap(prefix string, arg Expr, suffix string, t queryir.Type) Expr {
	return Expr{SQL: sq.ConcatExpr(prefix, arg.SQL, suffix), Type: t}
}

// Select wraps a nested SELECT as a parenthesized sub-query expression, so it
// can stand wherever a scalar operand can.
func Select(b sq.SelectBuilder, t queryir.Type) Expr {
	return Expr{SQL: sq.ConcatExpr("(", b, ")"), Type: t, SubQuery: true}
}

// Pattern builds the LIKE pattern of a string match. The value is never
// escaped; wildcards already present keep their meaning.
func Pattern(mode queryir.MatchMode, value string) string {
	switch mode {
	case queryir.MatchContains:
		return "%" + value + "%"
	case queryir.MatchStartsWith:
		return value + "%"
	case queryir.MatchEndsWith:
		return "%" + value
	default:
		return value
	}
}
