package resolve

import (
	"errors"
	"fmt"
)

// Error represents a failure to resolve an abstract expression.
//
// Resolution errors include:
//   - Invalid expression: structural validation failed or an operand is missing
//   - Unresolvable: no resolver produced the requested kind
//   - Context type: the context lacks the join metadata an operation needs
//   - Join lookup: no join matches a declared parent target, or no FROM entry
//   - Type mismatch: a resolver produced a kind other than the one requested
//
// Resolution errors are never retried.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Expression is the descriptive form of the offending expression.
	Expression string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes resolution errors.
type ErrorCode string

const (
	// ErrCodeInvalidExpression indicates a structurally incomplete expression.
	ErrCodeInvalidExpression ErrorCode = "INVALID_EXPRESSION"

	// ErrCodeUnresolvable indicates no resolver could handle the expression.
	ErrCodeUnresolvable ErrorCode = "UNRESOLVABLE"

	// ErrCodeContextType indicates the context lacks query metadata.
	ErrCodeContextType ErrorCode = "CONTEXT_TYPE"

	// ErrCodeJoinLookup indicates no join-graph entry could root a path.
	ErrCodeJoinLookup ErrorCode = "JOIN_LOOKUP"

	// ErrCodeTypeMismatch indicates a resolver returned the wrong kind.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Expression != "" {
		msg += fmt.Sprintf(" [%s]", e.Expression)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsInvalidExpression returns true if err is a structural failure.
func IsInvalidExpression(err error) bool { return hasCode(err, ErrCodeInvalidExpression) }

// IsUnresolvable returns true if no resolver could handle the expression.
func IsUnresolvable(err error) bool { return hasCode(err, ErrCodeUnresolvable) }

// IsContextType returns true if the context lacked query metadata.
func IsContextType(err error) bool { return hasCode(err, ErrCodeContextType) }

// IsJoinLookup returns true if a path could not be rooted in the join graph.
func IsJoinLookup(err error) bool { return hasCode(err, ErrCodeJoinLookup) }

// IsTypeMismatch returns true if a resolver produced the wrong kind.
func IsTypeMismatch(err error) bool { return hasCode(err, ErrCodeTypeMismatch) }

// NewInvalidExpressionError wraps a structural validation failure.
func NewInvalidExpressionError(expr string, cause error) *Error {
	return &Error{
		Code:       ErrCodeInvalidExpression,
		Message:    "invalid expression",
		Expression: expr,
		Err:        cause,
	}
}

// NewMissingOperandError reports a missing mandatory operand of a filter.
func NewMissingOperandError(operand, filter string) *Error {
	return &Error{
		Code:       ErrCodeInvalidExpression,
		Message:    fmt.Sprintf("missing %s operand in filter", operand),
		Expression: filter,
	}
}

// NewUnresolvableError reports an expression no resolver could handle.
func NewUnresolvableError(expr, kind string) *Error {
	return &Error{
		Code:       ErrCodeUnresolvable,
		Message:    fmt.Sprintf("cannot resolve expression as %s", kind),
		Expression: expr,
		Details:    map[string]string{"kind": kind},
	}
}

// NewContextTypeError reports a context without the required metadata.
func NewContextTypeError(expected, actual string) *Error {
	return &Error{
		Code:    ErrCodeContextType,
		Message: fmt.Sprintf("expected %s, got %s", expected, actual),
		Details: map[string]string{"expected": expected, "actual": actual},
	}
}

// NewJoinLookupError reports a declared parent target absent from every
// context of the chain.
func NewJoinLookupError(path, target string) *Error {
	return &Error{
		Code:       ErrCodeJoinLookup,
		Message:    fmt.Sprintf("none of the query joins corresponds to the target [%s] declared as parent of path", target),
		Expression: path,
		Details:    map[string]string{"path": path, "target": target},
	}
}

// NewMissingFromError reports a path resolved in a context with no joins.
func NewMissingFromError(path string) *Error {
	return &Error{
		Code:       ErrCodeJoinLookup,
		Message:    "missing FROM clause: cannot resolve path",
		Expression: path,
		Details:    map[string]string{"path": path},
	}
}

// NewTypeMismatchError reports a resolver returning the wrong kind.
func NewTypeMismatchError(resolver, expected, actual string) *Error {
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("resolver %s produced %s, expected %s", resolver, actual, expected),
		Details: map[string]string{"resolver": resolver, "expected": expected, "actual": actual},
	}
}

// NewMissingArgumentError reports a function applied to no arguments.
func NewMissingArgumentError(kind, expr string) *Error {
	return &Error{
		Code:       ErrCodeInvalidExpression,
		Message:    fmt.Sprintf("missing function argument [%s]", kind),
		Expression: expr,
	}
}

// NewOperandError reports an operand that resolved to an unusable shape,
// such as a scalar on the right of IN.
func NewOperandError(msg, filter string) *Error {
	return &Error{
		Code:       ErrCodeInvalidExpression,
		Message:    msg,
		Expression: filter,
	}
}
