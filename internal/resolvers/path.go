package resolvers

import (
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

// resolveTarget binds a target to its catalog entity. Unknown names
// resolve to empty.
func resolveTarget(t *queryir.Target, ctx *resolve.Context) (sqlexpr.Entity, bool, error) {
	meta, ok := ctx.Catalog().Entity(t.Name)
	if !ok {
		return sqlexpr.Entity{}, false, nil
	}
	alias := t.Alias
	if alias == "" {
		alias = meta.Alias
	}
	return sqlexpr.Entity{Name: meta.Name, Table: meta.Table, Alias: alias, Meta: meta}, true, nil
}

// resolvePath qualifies a path with the alias of its root join.
func resolvePath(p *queryir.Path, ctx *resolve.Context) (sqlexpr.Expr, bool, error) {
	root, err := pathRoot(p, ctx)
	if err != nil {
		return sqlexpr.Expr{}, false, err
	}
	return sqlexpr.Column(root.Qualify(p.FullName()), p.Type()), true, nil
}

// pathRoot finds the join-graph entry a path hangs from.
//
// A declared parent target is searched in every context of the chain,
// nearest first, so a sub-query can refer to an outer query's target.
// Otherwise the path belongs to the first join of the current context.
func pathRoot(p *queryir.Path, ctx *resolve.Context) (sqlexpr.Entity, error) {
	md, err := ctx.Metadata()
	if err != nil {
		return sqlexpr.Entity{}, err
	}

	if target := p.ParentTarget(); target != nil {
		return lookupJoin(ctx, target, p.String())
	}

	if len(md.Joins) == 0 {
		return sqlexpr.Entity{}, resolve.NewMissingFromError(p.String())
	}
	return md.Joins[0].Target, nil
}

// lookupJoin walks the context chain for a join whose entity matches the
// target. An explicit target alias must match as well.
func lookupJoin(ctx *resolve.Context, target *queryir.Target, path string) (sqlexpr.Entity, error) {
	entity, err := resolve.Must[sqlexpr.Entity](ctx, target)
	if err != nil {
		return sqlexpr.Entity{}, err
	}
	for c := range ctx.Chain() {
		md, err := c.Metadata()
		if err != nil {
			continue
		}
		for _, j := range md.Joins {
			if j.Target.Name != entity.Name {
				continue
			}
			if target.Alias != "" && j.Target.Alias != target.Alias {
				continue
			}
			return j.Target, nil
		}
	}
	return sqlexpr.Entity{}, resolve.NewJoinLookupError(path, target.Name)
}

// resolveConstant is the single place where literal values become SQL
// parameters.
func resolveConstant(c *queryir.Constant, ctx *resolve.Context) (sqlexpr.Expr, bool, error) {
	e, err := sqlexpr.Literal(c.Value, c.Type())
	if err != nil {
		return sqlexpr.Expr{}, false, resolve.NewInvalidExpressionError(c.String(), err)
	}
	return e, true, nil
}
