package node

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/timelockidx/internal/ir"
	"github.com/roach88/timelockidx/internal/registry"
	"github.com/roach88/timelockidx/internal/store"
)

// VerifyResult summarizes a determinism check.
type VerifyResult struct {
	Entries    int
	Operations int
	Batches    int
	Match      bool
	Diff       string
}

// state is everything replay rebuilds, in a comparable form.
type state struct {
	Snapshot   registry.Snapshot
	Timestamps map[ir.Identity]int64
	MinDelay   int64
}

// Verify replays the journal in st twice into independent nodes and compares
// the resulting index and engine state. A mismatch is reported in the result;
// an error means the journal could not be replayed at all.
func Verify(ctx context.Context, st *store.Store, opts ...Option) (VerifyResult, error) {
	entries, err := st.ReadEntries(ctx)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify: %w", err)
	}

	first, err := replayState(ctx, st, entries, opts...)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify: first replay: %w", err)
	}
	second, err := replayState(ctx, st, entries, opts...)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify: second replay: %w", err)
	}

	diff := cmp.Diff(first, second)
	return VerifyResult{
		Entries:    len(entries),
		Operations: len(first.Snapshot.Operations),
		Batches:    len(first.Snapshot.Batches),
		Match:      diff == "",
		Diff:       diff,
	}, nil
}

func replayState(ctx context.Context, st *store.Store, entries []store.Entry, opts ...Option) (state, error) {
	n := build(st, opts...)
	if err := n.replay(ctx, entries); err != nil {
		return state{}, err
	}

	ts := make(map[ir.Identity]int64)
	for _, e := range entries {
		if e.Kind.HasIdentity() {
			ts[e.Identity] = n.engine.Timestamp(e.Identity)
		}
	}
	return state{
		Snapshot:   n.registry.Snapshot(),
		Timestamps: ts,
		MinDelay:   int64(n.engine.MinDelay().Seconds()),
	}, nil
}
