package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/timelockidx/internal/ir"
	"github.com/roach88/timelockidx/internal/registry"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// LabelFunc names an identity for error messages and order comparison.
type LabelFunc func(ir.Identity) string

func assertCount(typ string, want, got int) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%d entries", want),
		Actual:   fmt.Sprintf("%d entries", got),
	}
}

// assertOrder checks the index lists exactly the expected labels, in order.
func assertOrder(typ string, want []string, ids []ir.Identity, label LabelFunc) error {
	got := make([]string, len(ids))
	for i, id := range ids {
		got[i] = label(id)
	}
	if want == nil {
		want = []string{}
	}
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
	}
}

// assertAbsent checks that neither index holds the labelled entry.
func assertAbsent(want string, snap registry.Snapshot, label LabelFunc) error {
	for _, ids := range [][]ir.Identity{snap.OperationIDs, snap.BatchIDs} {
		for i, id := range ids {
			if label(id) == want {
				return &AssertionError{
					Type:     AssertAbsent,
					Expected: fmt.Sprintf("%s not indexed", want),
					Actual:   fmt.Sprintf("%s indexed at position %d", want, i),
				}
			}
		}
	}
	return nil
}

// EvaluateAssertions checks every assertion against reg and returns the
// failure messages. An empty result means all assertions passed.
func EvaluateAssertions(reg *registry.Registry, assertions []Assertion, label LabelFunc) []string {
	snap := reg.Snapshot()
	var errs []string

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCount:
			err = assertCount(a.Type, a.Count, len(snap.Operations))
		case AssertBatchCount:
			err = assertCount(a.Type, a.Count, len(snap.Batches))
		case AssertOrder:
			err = assertOrder(a.Type, a.Labels, snap.OperationIDs, label)
		case AssertBatchOrder:
			err = assertOrder(a.Type, a.Labels, snap.BatchIDs, label)
		case AssertAbsent:
			err = assertAbsent(a.Label, snap, label)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}
