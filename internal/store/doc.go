// Package store provides SQLite-backed durable storage for the command journal.
//
// The journal is append-only: every command the engine accepted becomes one
// entry, and replaying the entries in seq order through a fresh engine and
// registry rebuilds the same state.
//
// # Patterns
//
// Idempotent appends:
//   - UNIQUE(id) with ON CONFLICT(id) DO NOTHING
//   - Appending the same entry ID twice returns the original seq
//
// Deterministic reads:
//   - All multi-row queries use ORDER BY seq ASC
//   - seq is assigned by SQLite and never reused
//
// Canonical payloads:
//   - Operation and batch payloads are stored as canonical JSON (see ir.MarshalCanonical)
//   - The same command always produces the same payload text
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
