package queryir

import (
	"fmt"
	"reflect"
)

// ValidationError reports a structurally incomplete expression.
type ValidationError struct {
	Expression string // descriptive form of the offending node
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid expression [%s]: %s", e.Expression, e.Message)
}

func newValidationError(e Expression, msg string) *ValidationError {
	return &ValidationError{Expression: str(e), Message: msg}
}

// Absent reports whether an operand is missing: a nil interface or a typed
// nil pointer.
func Absent(e Expression) bool { return isNil(e) }

// isNil reports whether an interface holds nil or a typed nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// ValidateTree checks e and every expression nested in it, returning all
// structural problems found. A nil result means the tree is complete.
//
// Unlike Expression.Validate, which stops at the first problem of a single
// node, ValidateTree keeps going so callers such as the CLI can report
// every issue of a definition at once.
func ValidateTree(e Expression) []error {
	v := &validator{}
	v.visit(e)
	return v.errs
}

// validator accumulates errors during traversal.
type validator struct {
	errs []error
}

func (v *validator) check(e Expression) bool {
	if isNil(e) {
		v.errs = append(v.errs, &ValidationError{Expression: "<nil>", Message: "missing expression"})
		return false
	}
	if err := e.Validate(); err != nil {
		v.errs = append(v.errs, err)
		return false
	}
	return true
}

// visit validates a node and recurses into its children. Children are only
// visited when the node itself is valid, so one missing operand produces a
// single error.
func (v *validator) visit(e Expression) {
	if !v.check(e) {
		return
	}

	switch node := e.(type) {
	case *Target:
		for _, j := range node.Joins {
			v.visit(j.Target)
			v.visit(j.On)
		}
	case *Path, *Constant, *CountAllProjection, *ShapeProjection:
		// leaves
	case *Function:
		for _, a := range node.Args {
			v.visit(a)
		}
	case *SubQuery:
		v.visit(node.Config)
		v.visit(node.Selection)
	case *Configuration:
		for _, f := range node.Filters {
			v.visit(f)
		}
		for _, s := range node.Sorts {
			v.visit(s)
		}
		if node.Aggregation != nil {
			v.visit(node.Aggregation)
		}
	case *NullFilter:
		v.visit(node.Left)
	case *NotNullFilter:
		v.visit(node.Left)
	case *EqualFilter:
		v.visitOperands(node.Left, node.Right)
	case *NotEqualFilter:
		v.visitOperands(node.Left, node.Right)
	case *GreaterFilter:
		v.visitOperands(node.Left, node.Right)
	case *LessFilter:
		v.visitOperands(node.Left, node.Right)
	case *InFilter:
		v.visitOperands(node.Left, node.Right)
	case *NotInFilter:
		v.visitOperands(node.Left, node.Right)
	case *BetweenFilter:
		v.visit(node.Left)
	case *StringMatchFilter:
		v.visit(node.Left)
	case *AndFilter:
		for _, f := range node.Filters {
			v.visit(f)
		}
	case *OrFilter:
		for _, f := range node.Filters {
			v.visit(f)
		}
	case *NotFilter:
		v.visit(node.Filter)
	case *ExistsFilter:
		v.visit(node.Query)
	case *NotExistsFilter:
		v.visit(node.Query)
	case *PathSort:
		v.visit(node.Path)
	case *CompositeSort:
		for _, s := range node.Sorts {
			v.visit(s)
		}
	case *Aggregation:
		for _, p := range node.Paths {
			v.visit(p)
		}
		if !isNil(node.Having) {
			v.visit(node.Having)
		}
	case *TargetProjection:
		v.visit(node.Target)
	case *ExpressionProjection:
		v.visit(node.Expr)
	case *ConstantProjection:
		v.visit(node.Constant)
	case *PropertySetProjection:
		for _, p := range node.Properties {
			v.visit(p)
		}
	default:
		// Custom filters validate themselves; their children are opaque here.
	}
}

func (v *validator) visitOperands(left TypedExpression, right Expression) {
	v.visit(left)
	if isNil(right) {
		v.errs = append(v.errs, &ValidationError{Expression: str(left), Message: "missing right operand"})
		return
	}
	v.visit(right)
}
