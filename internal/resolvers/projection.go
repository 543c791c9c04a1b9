package resolvers

import (
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

// CountLabel labels the COUNT(*) column of a count-all projection.
const CountLabel = "count"

func resolveProjection(p queryir.Projection, ctx *resolve.Context) (sqlexpr.Projection, bool, error) {
	var out sqlexpr.Projection

	add := func(e queryir.TypedExpression, label string) error {
		r, err := resolve.Must[sqlexpr.Expr](ctx, e)
		if err != nil {
			return err
		}
		out = out.Append(r, label)
		return nil
	}

	switch v := p.(type) {
	case *queryir.TargetProjection:
		root, err := lookupJoin(ctx, v.Target, v.String())
		if err != nil {
			return out, false, err
		}
		if root.Meta != nil {
			for _, prop := range root.Meta.Properties {
				path := queryir.NewPath(prop.Path, prop.Type).Of(v.Target)
				if err := add(path, prop.Path); err != nil {
					return out, false, err
				}
			}
		}
	case *queryir.ExpressionProjection:
		if err := add(v.Expr, label(v.Expr)); err != nil {
			return out, false, err
		}
	case *queryir.ConstantProjection:
		if err := add(v.Constant, v.Constant.String()); err != nil {
			return out, false, err
		}
	case *queryir.PropertySetProjection:
		for _, e := range v.Properties {
			if err := add(e, label(e)); err != nil {
				return out, false, err
			}
		}
	case *queryir.ShapeProjection:
		shape, ok := ctx.Catalog().Entity(v.Shape)
		if !ok {
			return out, false, nil
		}
		selection := v.Selection
		if len(selection) == 0 {
			selection = shape.Paths()
		}
		for _, name := range selection {
			t := queryir.TypeAny
			if prop, ok := shape.Property(name); ok {
				t = prop.Type
			}
			if err := add(queryir.NewPath(name, t), name); err != nil {
				return out, false, err
			}
		}
	case *queryir.CountAllProjection:
		out = out.Append(sqlexpr.Raw("COUNT(*)", queryir.TypeInt), CountLabel)
	default:
		return out, false, nil
	}

	if len(out.Selection) == 0 {
		return out, false, resolve.NewInvalidExpressionError(p.String(), sqlexpr.ErrInvalid)
	}
	return out, true, nil
}

// label names a result column after the expression that produced it.
func label(e queryir.TypedExpression) string {
	if p, ok := e.(*queryir.Path); ok {
		return p.FullName()
	}
	return e.String()
}
