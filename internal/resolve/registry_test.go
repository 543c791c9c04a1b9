package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

func namedResolver(name string, priority int) Resolver {
	return For(name, priority, func(p *queryir.Path, ctx *Context) (sqlexpr.Expr, bool, error) {
		return sqlexpr.Raw(name, p.Type()), true, nil
	})
}

func names(r *Registry) []string {
	var out []string
	for _, res := range r.Resolvers() {
		out = append(out, res.Name())
	}
	return out
}

func TestRegistry_PriorityOrder(t *testing.T) {
	r := NewRegistry(
		namedResolver("low", 0),
		namedResolver("high", 10),
		namedResolver("mid", 5),
	)
	assert.Equal(t, []string{"high", "mid", "low"}, names(r))
}

func TestRegistry_EqualPrioritiesKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry(
		namedResolver("a", 1),
		namedResolver("b", 1),
		namedResolver("top", 2),
	)
	r.Register(namedResolver("c", 1))

	assert.Equal(t, []string{"top", "a", "b", "c"}, names(r))
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	r := NewRegistry(namedResolver("a", 0))
	cp := r.Clone()
	cp.Register(namedResolver("b", 0))

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, cp.Len())
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Resolvers())
	assert.Equal(t, 0, r.Clone().Len())
}

func TestFor_AcceptsInterfaces(t *testing.T) {
	anyFilter := For("filters", 0, func(f queryir.Filter, ctx *Context) (sqlexpr.Predicate, bool, error) {
		return sqlexpr.Predicate{}, false, nil
	})

	key := queryir.NewPath("key", queryir.TypeInt)
	assert.True(t, anyFilter.Accepts(queryir.IsNull(key)))
	assert.True(t, anyFilter.Accepts(queryir.And(queryir.IsNull(key))))
	assert.False(t, anyFilter.Accepts(key))
	assert.Equal(t, sqlexpr.KindPredicate, anyFilter.Produces())
}
