// Package store keeps atoms: the investor profiles, asset snapshots and
// decisions recorded by the client facade for later audit.
//
// The store is a flat keyed record cache. Atoms are written once under a
// globally unique id and read back by that id; there is no querying.
//
// Two implementations satisfy Store:
//   - MemoryStore: process-local map, the default
//   - SQLiteStore: durable single-file database for atoms that must survive
//     restarts
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Atom payloads are stored as canonical JSON (see model.MarshalCanonical), so
// the same atom always produces the same bytes.
package store
