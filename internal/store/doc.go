// Package store is the SQLite session that executes rendered queries.
//
// It owns nothing about query structure: callers hand it SQL text and
// bound arguments. Schema management is limited to an optional bootstrap
// script applied on open.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - case_sensitive_like=ON: LIKE compares exactly; callers lower both sides
//     for case-insensitive matches
//
// Lock contention that outlasts the busy timeout surfaces as SQLITE_BUSY or
// SQLITE_LOCKED; IsTransient classifies those so callers can retry.
package store
