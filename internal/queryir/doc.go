// Package queryir provides the vendor-neutral query model that the
// resolution engine translates into SQL builder expressions.
//
// ARCHITECTURE:
//
//	[query definition / fluent builder] → [queryir] → [resolvers] → [squirrel] → SQL
//
// The model is a set of immutable value nodes:
//   - Target, Path, Constant, Function, SubQuery - operand expressions
//   - Filter family - boolean predicates (leaf comparisons, AND/OR/NOT, EXISTS)
//   - Sort family - ordering (leaf or composite)
//   - Aggregation - group-by paths with an optional having filter
//   - Projection family - what a query selects
//   - Configuration - everything attached to a query except its projection
//
// SEALED INTERFACES:
//
// Filter, Sort and Projection are sealed with marker methods so the
// resolvers can switch exhaustively over node kinds. Filter is the one
// deliberate exception: custom filters may embed FilterBase, and resolvers
// registered for them compete with the built-in ones by priority.
//
// VALIDATION:
//
// Every node implements Validate, which checks only its own structure
// (non-nil operands, non-empty compositions). Validation never needs a
// resolution context. ValidateTree walks a whole tree and reports every
// problem at once.
package queryir
