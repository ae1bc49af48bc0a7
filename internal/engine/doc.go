// Package engine implements the reference timelock scheduling engine.
//
// The engine is the collaborator the operation registry wraps. It owns every
// rule about WHEN and BY WHOM an operation may move through its lifecycle:
//
//	unset --Schedule--> waiting --(delay elapses)--> ready --Execute--> done
//	          ^                \                      /
//	          |                 `-------Cancel-------'
//	          `------------------------(back to unset)
//
// RULES:
//
// Role gating:
// Schedule needs the proposer role, Cancel the canceller role, Execute the
// executor role and UpdateDelay the admin role. Granting a role to the zero
// address opens it to every caller.
//
// Delay:
// A submission's delay must be at least the current minimum delay. The ready
// timestamp is now + delay in unix seconds.
//
// Identity:
// HashOperation and HashOperationBatch are the single source of identity.
// Identities of singles and batches share one namespace: the engine tracks
// one timestamp per identity regardless of shape.
//
// Predecessors:
// Execute refuses to run an operation whose predecessor is neither the zero
// identity nor done.
//
// The engine never knows about enumeration. Listing pending operations is the
// registry's job.
//
// Thread-safety: all methods are safe for concurrent use. CallExecutor
// implementations must not call back into the engine (the engine holds its
// lock while forwarding calls).
package engine
