// Package harness runs YAML scenarios against a journaled registry node.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	min_delay: 0
//	operations:
//	  A: { target: "0x...aaaa", data: "0x1234", salt: "0x01", delay: 100 }
//	batches:
//	  B:
//	    calls: ["0x...aaaa:0:0x01", "0x...bbbb:0:0x02"]
//	    salt: "0x02"
//	    delay: 100
//	flow:
//	  - action: schedule
//	    label: A
//	  - action: advance
//	    seconds: 100
//	  - action: cancel
//	    label: A
//	    expect_error: UNKNOWN_OPERATION
//	assertions:
//	  - type: count
//	    count: 1
//	  - type: order
//	    labels: [A]
//
// Operations and batches are named by labels so snapshots never contain
// hashes. A predecessor may name another label or a 0x identity.
//
// # Callers
//
// Each step runs as one of the fixed accounts "proposer" (the default, which
// holds the proposer, executor and canceller roles), "admin" or "stranger"
// (no roles).
//
// # Assertion Types
//
//   - count / batch_count: the index holds exactly N entries
//   - order / batch_order: the index lists exactly these labels in position order
//   - absent: the label is in neither index
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory journal, a manual clock starting at
// testutil.Epoch and sequential entry IDs, so identical scenarios produce
// identical journals and snapshots. After the flow the journal is replayed
// twice with node.Verify and any divergence fails the scenario.
package harness
