// Package datastore executes abstract queries against a SQLite store.
//
// A Datastore owns the shared resolver set and the entity catalog. Each
// Query copies the resolver set when it is created, so resolvers added to
// one query never leak into another. Statements run through a retry loop
// that only retries transient lock contention; resolution failures and SQL
// errors are returned as they are.
//
// Every executed statement gets an operation ID (UUIDv7), a span on the
// configured tracer and an slog record.
package datastore
