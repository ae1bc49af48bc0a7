package store

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timelockidx/internal/ir"
)

func TestAppendEntryAssignsSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e1, err := NewScheduleEntry("e-1", testCaller, createTestOperation(1), 100)
	require.NoError(t, err)
	e2 := NewCancelEntry("e-2", testCaller, e1.Identity, 150)

	seq1, inserted, err := s.AppendEntry(ctx, e1)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(1), seq1)

	seq2, inserted, err := s.AppendEntry(ctx, e2)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(2), seq2)
}

func TestAppendEntryIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e, err := NewScheduleEntry("e-1", testCaller, createTestOperation(1), 100)
	require.NoError(t, err)

	seq1, inserted, err := s.AppendEntry(ctx, e)
	require.NoError(t, err)
	require.True(t, inserted)

	// Same ID, different content: ignored
	e.At = 999
	seq2, inserted, err := s.AppendEntry(ctx, e)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, seq1, seq2)

	got, err := s.ReadEntry(ctx, "e-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.At)

	n, err := s.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAppendEntryRejectsInvalid(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry Entry
	}{
		{"bad kind", Entry{ID: "x", Kind: "launch", JournalVersion: ir.JournalVersion, Payload: "{}"}},
		{"empty id", Entry{Kind: KindCancel, JournalVersion: ir.JournalVersion, Payload: "{}"}},
		{"empty version", Entry{ID: "x", Kind: KindCancel, Payload: "{}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.AppendEntry(ctx, tt.entry)
			assert.Error(t, err)
		})
	}

	n, err := s.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestNewEntriesCarryIdentity(t *testing.T) {
	op := createTestOperation(1)
	b := createTestBatch(2)

	sched, err := NewScheduleEntry("a", testCaller, op, 1)
	require.NoError(t, err)
	assert.Equal(t, ir.HashOperation(op), sched.Identity)
	assert.Equal(t, KindSchedule, sched.Kind)
	assert.Equal(t, ir.JournalVersion, sched.JournalVersion)

	exec, err := NewExecuteEntry("b", testCaller, op, 1)
	require.NoError(t, err)
	assert.Equal(t, sched.Identity, exec.Identity)
	assert.Equal(t, sched.Payload, exec.Payload)

	batch, err := NewScheduleBatchEntry("c", testCaller, b, 1)
	require.NoError(t, err)
	assert.Equal(t, ir.HashOperationBatch(b), batch.Identity)

	delay, err := NewUpdateDelayEntry("d", testCaller, 60, 1)
	require.NoError(t, err)
	assert.Equal(t, `{"delay":60}`, delay.Payload)
	assert.Equal(t, common.Hash{}, delay.Identity)

	_, err = NewUpdateDelayEntry("e", testCaller, -1, 1)
	assert.Error(t, err)

	grant, err := NewRoleEntry(KindGrantRole, "f", testCaller, "executor", common.HexToAddress("0xD0"), 1)
	require.NoError(t, err)
	assert.Equal(t, `{"account":"0x00000000000000000000000000000000000000d0","role":"executor"}`, grant.Payload)
	assert.Equal(t, common.Hash{}, grant.Identity)
	assert.False(t, grant.Kind.HasIdentity())
	assert.True(t, sched.Kind.HasIdentity())

	_, err = NewRoleEntry(KindCancel, "g", testCaller, "executor", testCaller, 1)
	assert.Error(t, err)
	_, err = NewRoleEntry(KindRevokeRole, "h", testCaller, "", testCaller, 1)
	assert.Error(t, err)
}

func TestScheduleEntryPayloadIsCanonical(t *testing.T) {
	e, err := NewScheduleEntry("a", testCaller, createTestOperation(1), 1)
	require.NoError(t, err)

	assert.Equal(t,
		`{"data":"0x1234","delay":100,`+
			`"predecessor":"0x0000000000000000000000000000000000000000000000000000000000000000",`+
			`"salt":"0x0000000000000000000000000000000000000000000000000000000000000001",`+
			`"target":"0x000000000000000000000000000000000000aaaa","value":"7"}`,
		e.Payload)
}
