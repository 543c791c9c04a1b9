package resolve

import (
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

// Priorities. Higher values are tried first.
const (
	PriorityBuiltin = 0
	PriorityCustom  = 100
)

// Resolver transforms one kind of abstract expression into a resolved one.
//
// Resolvers are stateless. Resolve returns ok=false when the expression is
// not something this resolver handles, letting the next resolver try.
type Resolver interface {
	Name() string
	Priority() int
	Produces() sqlexpr.Kind
	Accepts(e queryir.Expression) bool
	Resolve(e queryir.Expression, ctx *Context) (sqlexpr.Resolved, bool, error)
}

// Func is the function form of a resolver for expressions of type E.
type Func[E queryir.Expression, R sqlexpr.Resolved] func(e E, ctx *Context) (R, bool, error)

// For adapts a function into a Resolver accepting every expression
// assignable to E, concrete type or interface. R must be a concrete
// resolved type.
func For[E queryir.Expression, R sqlexpr.Resolved](name string, priority int, fn Func[E, R]) Resolver {
	var zero R
	return &funcResolver[E, R]{name: name, priority: priority, kind: zero.Kind(), fn: fn}
}

type funcResolver[E queryir.Expression, R sqlexpr.Resolved] struct {
	name     string
	priority int
	kind     sqlexpr.Kind
	fn       Func[E, R]
}

func (r *funcResolver[E, R]) Name() string           { return r.name }
func (r *funcResolver[E, R]) Priority() int          { return r.priority }
func (r *funcResolver[E, R]) Produces() sqlexpr.Kind { return r.kind }

func (r *funcResolver[E, R]) Accepts(e queryir.Expression) bool {
	_, ok := e.(E)
	return ok
}

func (r *funcResolver[E, R]) Resolve(e queryir.Expression, ctx *Context) (sqlexpr.Resolved, bool, error) {
	typed, ok := e.(E)
	if !ok {
		return nil, false, nil
	}
	res, ok, err := r.fn(typed, ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	return res, true, nil
}

// Registry is a priority-ordered resolver list. Equal priorities keep
// registration order.
//
// A Registry is not safe for concurrent use; contexts copy it.
type Registry struct {
	resolvers []Resolver
}

// NewRegistry creates a registry holding the given resolvers.
func NewRegistry(rs ...Resolver) *Registry {
	r := &Registry{}
	r.Register(rs...)
	return r
}

// Register inserts resolvers, keeping descending priority order.
func (r *Registry) Register(rs ...Resolver) {
	for _, res := range rs {
		if res == nil {
			continue
		}
		i := len(r.resolvers)
		for i > 0 && r.resolvers[i-1].Priority() < res.Priority() {
			i--
		}
		r.resolvers = append(r.resolvers, nil)
		copy(r.resolvers[i+1:], r.resolvers[i:])
		r.resolvers[i] = res
	}
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return &Registry{}
	}
	return &Registry{resolvers: append([]Resolver(nil), r.resolvers...)}
}

// Len returns the number of registered resolvers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.resolvers)
}

// Resolvers returns the resolvers in dispatch order.
func (r *Registry) Resolvers() []Resolver {
	if r == nil {
		return nil
	}
	return append([]Resolver(nil), r.resolvers...)
}

// candidates lists resolvers accepting e and declaring kind, in order.
func (r *Registry) candidates(e queryir.Expression, kind sqlexpr.Kind) []Resolver {
	var out []Resolver
	for _, res := range r.resolvers {
		if res.Produces() == kind && res.Accepts(e) {
			out = append(out, res)
		}
	}
	return out
}
