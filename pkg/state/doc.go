// Package state defines the persistence contract behind table-controls
// features and the built-in persistence targets.
//
// Responsibilities:
//   - Store only loads/saves a single Snapshot for a single Ref.
//   - Ref.Identifier() and Ref.Key() provide the namespaced keys
//     (`prefix:feature` and `prefix:field`) that let several tables share one
//     target without overwriting each other.
//   - Feature modules own encoding of their state into a Snapshot; stores
//     never look inside it.
//
// Targets:
//
//	MemoryStore  -> ephemeral state, one per table instance
//	QueryStore   -> URL query parameters, one entry per snapshot field
//	Sessions     -> session storage, one MemoryStore per session id
//	sqlitestore  -> local storage on a SQLite file (sub-package)
//
// A malformed stored snapshot is never fatal: callers decode what they can
// and fall back to their defaults.
package state
