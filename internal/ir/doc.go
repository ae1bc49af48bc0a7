// Package ir provides the canonical record types shared by every timelockidx
// package: addresses, identities, operations and operation batches.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// record shapes the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Identities are computed exactly once, here, and only ever called by the
//     scheduling engine. Nothing else re-derives them.
//   - Records are values; callers that store them must Clone.
//   - All JSON uses snake_case keys and canonical encoding (see canonical.go).
//   - Delays have whole-second granularity (the engine works in unix seconds).
package ir
