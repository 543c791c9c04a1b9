// Package resolvers provides the built-in resolver set and the query
// assembly built on it.
//
// Defaults returns one resolver per abstract expression family:
//
//	*queryir.Target         → sqlexpr.Entity      (catalog lookup)
//	*queryir.Path           → sqlexpr.Expr        (join-graph rooted column)
//	*queryir.Constant       → sqlexpr.Expr        (bound literal)
//	*queryir.Function       → sqlexpr.Expr        (SQLite function forms)
//	*queryir.SubQuery       → sqlexpr.Expr        (nested SELECT)
//	queryir.Filter          → sqlexpr.Predicate   (filter visitor)
//	*queryir.ExistsFilter   → sqlexpr.Predicate
//	*queryir.NotExistsFilter→ sqlexpr.Predicate
//	queryir.Sort            → sqlexpr.Order
//	*queryir.Aggregation    → sqlexpr.Aggregation
//	queryir.Projection      → sqlexpr.Projection
//
// Resolvers that do not recognize an expression (an unknown function kind,
// a custom filter type) return an empty result so that resolvers registered
// with a higher priority, or later in the list, can handle it.
package resolvers
