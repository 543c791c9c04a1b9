package queryir

import (
	"strings"
)

// Projection is what a query selects.
//
// Projection types:
//   - TargetProjection: every property of a target
//   - ExpressionProjection: a single typed expression
//   - ConstantProjection: a literal
//   - PropertySetProjection: an explicit list of expressions
//   - ShapeProjection: a named property subset of a catalog entity
//   - CountAllProjection: COUNT(*)
type Projection interface {
	Expression
	projectionNode() // Marker method - seals interface to this package
}

type TargetProjection struct {
	Target *Target
}

type ExpressionProjection struct {
	Expr TypedExpression
}

type ConstantProjection struct {
	Constant *Constant
}

type PropertySetProjection struct {
	Properties []TypedExpression
}

// ShapeProjection selects properties of the catalog entity named by Shape.
// An empty Selection means every property of the shape.
type ShapeProjection struct {
	Shape     string
	Selection []string
}

type CountAllProjection struct{}

func (*TargetProjection) projectionNode()      {}
func (*ExpressionProjection) projectionNode()  {}
func (*ConstantProjection) projectionNode()    {}
func (*PropertySetProjection) projectionNode() {}
func (*ShapeProjection) projectionNode()       {}
func (*CountAllProjection) projectionNode()    {}

func SelectTarget(t *Target) *TargetProjection { return &TargetProjection{Target: t} }

func SelectExpr(e TypedExpression) *ExpressionProjection {
	return &ExpressionProjection{Expr: e}
}

func SelectConstant(c *Constant) *ConstantProjection { return &ConstantProjection{Constant: c} }

func SelectProperties(props ...TypedExpression) *PropertySetProjection {
	return &PropertySetProjection{Properties: props}
}

func SelectShape(shape string, selection ...string) *ShapeProjection {
	return &ShapeProjection{Shape: shape, Selection: selection}
}

func CountAll() *CountAllProjection { return &CountAllProjection{} }

func (p *TargetProjection) Validate() error {
	if p.Target == nil {
		return newValidationError(p, "missing projection target")
	}
	return p.Target.Validate()
}

func (p *ExpressionProjection) Validate() error {
	if isNil(p.Expr) {
		return newValidationError(p, "missing projection expression")
	}
	return nil
}

func (p *ConstantProjection) Validate() error {
	if p.Constant == nil {
		return newValidationError(p, "missing projection constant")
	}
	return p.Constant.Validate()
}

func (p *PropertySetProjection) Validate() error {
	if len(p.Properties) == 0 {
		return newValidationError(p, "empty projection selection")
	}
	for _, e := range p.Properties {
		if isNil(e) {
			return newValidationError(p, "nil projection property")
		}
	}
	return nil
}

func (p *ShapeProjection) Validate() error {
	if strings.TrimSpace(p.Shape) == "" {
		return newValidationError(p, "missing projection shape")
	}
	return nil
}

func (p *CountAllProjection) Validate() error { return nil }

func (p *TargetProjection) String() string     { return "select " + p.Target.String() }
func (p *ExpressionProjection) String() string { return "select " + str(p.Expr) }
func (p *ConstantProjection) String() string   { return "select " + str(p.Constant) }

func (p *PropertySetProjection) String() string {
	parts := make([]string, len(p.Properties))
	for i, e := range p.Properties {
		parts[i] = str(e)
	}
	return "select " + strings.Join(parts, ", ")
}

func (p *ShapeProjection) String() string {
	if len(p.Selection) == 0 {
		return "select " + p.Shape + ".*"
	}
	return "select " + p.Shape + "(" + strings.Join(p.Selection, ", ") + ")"
}

func (p *CountAllProjection) String() string { return "select count(*)" }
