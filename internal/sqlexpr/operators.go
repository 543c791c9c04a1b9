package sqlexpr

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Op is a binary comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
)

var opText = map[Op]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

func (o Op) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Ordering reports whether o compares by order rather than equality.
func (o Op) Ordering() bool { return o != OpEq && o != OpNe }

// simple reports whether a comparison can use squirrel's typed operators.
func simple(left, right Expr) bool {
	return left.Column != "" && right.Literal && !right.Collection
}

// IsNull builds "left IS NULL".
func IsNull(left Expr) Predicate {
	if left.Column != "" {
		return Predicate{SQL: sq.Eq{left.Column: nil}}
	}
	return Predicate{SQL: sq.ConcatExpr(left.SQL, " IS NULL")}
}

// IsNotNull builds "left IS NOT NULL".
func IsNotNull(left Expr) Predicate {
	if left.Column != "" {
		return Predicate{SQL: sq.NotEq{left.Column: nil}}
	}
	return Predicate{SQL: sq.ConcatExpr(left.SQL, " IS NOT NULL")}
}

// Compare builds a binary comparison.
func Compare(op Op, left, right Expr) Predicate {
	if simple(left, right) {
		col, v := left.Column, right.Value
		switch op {
		case OpEq:
			return Predicate{SQL: sq.Eq{col: v}}
		case OpNe:
			return Predicate{SQL: sq.NotEq{col: v}}
		case OpGt:
			return Predicate{SQL: sq.Gt{col: v}}
		case OpGte:
			return Predicate{SQL: sq.GtOrEq{col: v}}
		case OpLt:
			return Predicate{SQL: sq.Lt{col: v}}
		case OpLte:
			return Predicate{SQL: sq.LtOrEq{col: v}}
		}
	}
	return Predicate{SQL: sq.ConcatExpr(left.SQL, " "+op.String()+" ", right.SQL)}
}

// In builds "left IN (...)" over a collection literal or a sub-query.
func In(left, right Expr) Predicate {
	if left.Column != "" && right.Collection {
		return Predicate{SQL: sq.Eq{left.Column: right.Value}}
	}
	return Predicate{SQL: sq.ConcatExpr(left.SQL, " IN ", right.SQL)}
}

// NotIn builds "left NOT IN (...)".
func NotIn(left, right Expr) Predicate {
	if left.Column != "" && right.Collection {
		return Predicate{SQL: sq.NotEq{left.Column: right.Value}}
	}
	return Predicate{SQL: sq.ConcatExpr(left.SQL, " NOT IN ", right.SQL)}
}

// Between builds "left BETWEEN from AND to".
func Between(left, from, to Expr) Predicate {
	return Predicate{SQL: sq.ConcatExpr(left.SQL, " BETWEEN ", from.SQL, " AND ", to.SQL)}
}

var lower = cases.Lower(language.Und)

// Like builds "left LIKE pattern". Ignoring case lowers both sides.
func Like(left Expr, pattern string, ignoreCase bool) Predicate {
	if ignoreCase {
		pattern = lower.String(pattern)
		if left.Column != "" {
			return Predicate{SQL: sq.Like{"LOWER(" + left.Column + ")": pattern}}
		}
		return Predicate{SQL: sq.ConcatExpr("LOWER(", left.SQL, ") LIKE ", sq.Expr("?", pattern))}
	}
	if left.Column != "" {
		return Predicate{SQL: sq.Like{left.Column: pattern}}
	}
	return Predicate{SQL: sq.ConcatExpr(left.SQL, " LIKE ", sq.Expr("?", pattern))}
}

// And joins predicates with AND in order.
func And(preds ...Predicate) Predicate {
	conj := make(sq.And, len(preds))
	for i, p := range preds {
		conj[i] = p.SQL
	}
	return Predicate{SQL: conj}
}

// Or joins predicates with OR in order.
func Or(preds ...Predicate) Predicate {
	disj := make(sq.Or, len(preds))
	for i, p := range preds {
		disj[i] = p.SQL
	}
	return Predicate{SQL: disj}
}

// Not negates an already resolved predicate.
func Not(p Predicate) Predicate {
	return Predicate{SQL: sq.ConcatExpr("NOT (", p.SQL, ")")}
}

// Exists builds "EXISTS (subquery)".
func Exists(sub Expr) Predicate {
	return Predicate{SQL: sq.ConcatExpr("EXISTS ", sub.SQL)}
}

// NotExists builds "NOT EXISTS (subquery)".
func NotExists(sub Expr) Predicate {
	return Predicate{SQL: sq.ConcatExpr("NOT EXISTS ", sub.SQL)}
}
