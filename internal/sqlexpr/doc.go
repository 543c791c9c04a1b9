// Package sqlexpr holds resolved expressions: immutable wrappers around
// squirrel values produced by the resolution engine.
//
// Every resolved value reports its Kind and validates its own structure.
// Operator constructors prefer squirrel's typed operators (Eq, Gt, Like and
// friends) when the left side is a plain column and the right side a bound
// literal, and fall back to ConcatExpr composition otherwise.
//
// Literal is the only place where raw values become SQL parameters.
package sqlexpr
