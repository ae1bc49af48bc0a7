// Package registry keeps an enumerable index of scheduled operations on top of
// a timelock Scheduler.
//
// The Scheduler decides whether a request is valid. The Registry only records
// what the Scheduler accepted, so it can answer the questions the Scheduler
// cannot: how many operations are pending, what is at position i, and what
// was submitted under identity id.
//
// ORDERING:
//
// Every mutating call delegates first and edits the index only after the
// Scheduler returned nil. A Scheduler error is returned unchanged and the
// index is untouched.
//
// Cancel takes a bare identity. Singles and batches share the Scheduler's
// identity namespace, so Cancel removes the identity from whichever index
// holds it.
//
// Execution is not tracked. An executed operation stays listed until it is
// cancelled, which the Scheduler will refuse; in practice it stays listed
// for the life of the Registry.
//
// Positions are dense and insertion-ordered among present entries but are
// not stable across removals: removing entry k moves the last entry into
// slot k.
//
// Thread-safety: all methods are safe for concurrent use. A mutation holds
// the write lock across delegation and index update, so readers never see one
// without the other.
package registry
