package resolvers

import (
	"github.com/roach88/qbridge/internal/resolve"
)

// Built-in resolver names.
const (
	NameTarget      = "target"
	NamePath        = "path"
	NameConstant    = "constant"
	NameFunction    = "function"
	NameSubQuery    = "subquery"
	NameFilter      = "filter"
	NameExists      = "exists"
	NameNotExists   = "not-exists"
	NameSort        = "sort"
	NameAggregation = "aggregation"
	NameProjection  = "projection"
)

// Defaults returns the built-in resolvers, all at resolve.PriorityBuiltin.
func Defaults() []resolve.Resolver {
	p := resolve.PriorityBuiltin
	return []resolve.Resolver{
		resolve.For(NameTarget, p, resolveTarget),
		resolve.For(NamePath, p, resolvePath),
		resolve.For(NameConstant, p, resolveConstant),
		resolve.For(NameFunction, p, resolveFunction),
		resolve.For(NameSubQuery, p, resolveSubQuery),
		resolve.For(NameFilter, p, resolveFilter),
		resolve.For(NameExists, p, resolveExists),
		resolve.For(NameNotExists, p, resolveNotExists),
		resolve.For(NameSort, p, resolveSort),
		resolve.For(NameAggregation, p, resolveAggregation),
		resolve.For(NameProjection, p, resolveProjection),
	}
}

// NewRegistry returns a registry holding Defaults plus extra resolvers.
func NewRegistry(extra ...resolve.Resolver) *resolve.Registry {
	reg := resolve.NewRegistry(Defaults()...)
	reg.Register(extra...)
	return reg
}
