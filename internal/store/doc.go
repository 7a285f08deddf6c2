// Package store provides SQLite-backed storage for executing compiled
// queries.
//
// Tables are created from type descriptors: one table per element type,
// one column per scalar member, in declaration order. Rows are inserted in
// input order, so rowid order is input order and querysql's rowid
// tiebreaker reproduces the in-memory provider's stable ordering.
//
// # Column Affinity
//
//   - int, int64 and other integer kinds: INTEGER
//   - float kinds: REAL
//   - string: TEXT
//   - bool: BOOLEAN (read back as bool by the driver)
//   - time.Time: TIMESTAMP (read back as time.Time by the driver)
//   - anything else: BLOB
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
