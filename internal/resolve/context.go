package resolve

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/roach88/qbridge/internal/catalog"
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

// JoinKind is the role of a join-graph entry.
type JoinKind int

const (
	JoinFrom JoinKind = iota
	JoinInner
	JoinLeft
)

func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "INNER JOIN"
	case JoinLeft:
		return "LEFT JOIN"
	default:
		return "FROM"
	}
}

// Join is an entry of a query's join graph.
type Join struct {
	Source string // entity name of the abstract target
	Target sqlexpr.Entity
	Kind   JoinKind
	On     *sqlexpr.Predicate
}

// Metadata is the join graph of a query, FROM entry first.
type Metadata struct {
	Joins []Join
}

// Context is the environment of one query or sub-query build: its join
// graph, its resolver set and the enclosing context.
//
// A context is used by a single goroutine. Child contexts copy the
// resolver set, so registering on a child never affects its parent.
type Context struct {
	parent   *Context
	registry *Registry
	catalog  *catalog.Catalog
	metadata *Metadata
}

// NewContext creates a base context without query metadata. The registry
// is copied.
func NewContext(reg *Registry, cat *catalog.Catalog) *Context {
	return &Context{registry: reg.Clone(), catalog: cat}
}

// Child creates a query context nested in c, holding the given joins.
func (c *Context) Child(joins ...Join) *Context {
	return &Context{
		parent:   c,
		registry: c.registry.Clone(),
		catalog:  c.catalog,
		metadata: &Metadata{Joins: append([]Join(nil), joins...)},
	}
}

// Parent returns the enclosing context, or nil.
func (c *Context) Parent() *Context { return c.parent }

// Chain iterates from c to the outermost context.
func (c *Context) Chain() iter.Seq[*Context] {
	return func(yield func(*Context) bool) {
		for cur := c; cur != nil; cur = cur.parent {
			if !yield(cur) {
				return
			}
		}
	}
}

// Depth is the number of contexts in the chain, c included.
func (c *Context) Depth() int {
	n := 0
	for range c.Chain() {
		n++
	}
	return n
}

// Metadata returns the join graph of a query context.
func (c *Context) Metadata() (*Metadata, error) {
	if c.metadata == nil {
		return nil, NewContextTypeError("query context with join metadata", "base context")
	}
	return c.metadata, nil
}

// HasMetadata reports whether c is a query context.
func (c *Context) HasMetadata() bool { return c.metadata != nil }

// AddJoin appends a join-graph entry while the query is assembled.
func (c *Context) AddJoin(j Join) error {
	md, err := c.Metadata()
	if err != nil {
		return err
	}
	md.Joins = append(md.Joins, j)
	return nil
}

// UniqueAlias returns base, or base with a numeric suffix, such that no
// join anywhere in the chain uses it.
func (c *Context) UniqueAlias(base string) string {
	taken := make(map[string]bool)
	for ctx := range c.Chain() {
		if ctx.metadata == nil {
			continue
		}
		for _, j := range ctx.metadata.Joins {
			taken[j.Target.Alias] = true
		}
	}
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		alias := fmt.Sprintf("%s%d", base, i)
		if !taken[alias] {
			return alias
		}
	}
}

// Register adds resolvers to this context only.
func (c *Context) Register(rs ...Resolver) { c.registry.Register(rs...) }

// Registry returns the context's resolver set.
func (c *Context) Registry() *Registry { return c.registry }

// Catalog returns the entity catalog.
func (c *Context) Catalog() *catalog.Catalog { return c.catalog }

// Resolve resolves e into the requested kind.
//
// The expression is validated first. Matching resolvers are tried in
// priority order and the first non-empty result wins; it must be of the
// requested kind and valid. ok is false when no resolver applies.
func (c *Context) Resolve(e queryir.Expression, kind sqlexpr.Kind) (sqlexpr.Resolved, bool, error) {
	if e == nil {
		return nil, false, NewInvalidExpressionError("<nil>", fmt.Errorf("missing expression"))
	}
	if err := e.Validate(); err != nil {
		return nil, false, NewInvalidExpressionError(e.String(), err)
	}

	for _, r := range c.registry.candidates(e, kind) {
		res, ok, err := r.Resolve(e, c)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		if res == nil || res.Kind() != kind {
			actual := "nil"
			if res != nil {
				actual = res.Kind().String()
			}
			return nil, false, NewTypeMismatchError(r.Name(), kind.String(), actual)
		}
		if err := res.Validate(); err != nil {
			return nil, false, NewInvalidExpressionError(e.String(), err)
		}
		slog.Debug("expression resolved",
			"expression", e.String(),
			"kind", kind.String(),
			"resolver", r.Name(),
			"depth", c.Depth(),
		)
		return res, true, nil
	}
	return nil, false, nil
}

// ResolveOrFail is Resolve with an UNRESOLVABLE error instead of ok=false.
func (c *Context) ResolveOrFail(e queryir.Expression, kind sqlexpr.Kind) (sqlexpr.Resolved, error) {
	res, ok, err := c.Resolve(e, kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewUnresolvableError(e.String(), kind.String())
	}
	return res, nil
}

// As resolves e into the concrete resolved type T.
func As[T sqlexpr.Resolved](c *Context, e queryir.Expression) (T, bool, error) {
	var zero T
	res, ok, err := c.Resolve(e, zero.Kind())
	if err != nil || !ok {
		return zero, ok, err
	}
	typed, ok := res.(T)
	if !ok {
		return zero, false, NewTypeMismatchError("dispatch", fmt.Sprintf("%T", zero), fmt.Sprintf("%T", res))
	}
	return typed, true, nil
}

// Must resolves e into T, failing when no resolver applies.
func Must[T sqlexpr.Resolved](c *Context, e queryir.Expression) (T, error) {
	v, ok, err := As[T](c, e)
	if err != nil {
		return v, err
	}
	if !ok {
		var zero T
		return zero, NewUnresolvableError(e.String(), zero.Kind().String())
	}
	return v, nil
}
