// Package models defines the records the storage layer persists.
//
// These are collaborator-side records, not engine types: the service layer
// converts them into ledger.Transaction values before every computation and
// never hands a ledger type to storage.
//
// # Models
//
//   - Group: a named roster of members sharing one currency
//   - Expense: one expense event in a group (two-party, equal or unequal split)
//   - Payment: money actually handed from one member to another
//
// # Design Principles
//
//  1. Members are opaque strings; display names are the ids for now
//  2. Amounts are decimals and are stored as decimal strings
//  3. Use ID strings instead of pointers for relationships
//  4. Records are replaced whole on edit; the engine recomputes from scratch
package models
