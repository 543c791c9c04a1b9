// Package ir provides the literal value types that cross from the abstract
// query model into generated SQL.
//
// This package contains value definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Values are immutable once constructed
//   - Text decoded from definition files is NFC normalized
//   - Time values are held in UTC
//   - Lists are only valid as membership operands, never as a single parameter
package ir
