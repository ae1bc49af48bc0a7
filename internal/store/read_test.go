package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendAll(t *testing.T, s *Store, entries ...Entry) {
	t.Helper()
	for _, e := range entries {
		_, _, err := s.AppendEntry(context.Background(), e)
		require.NoError(t, err)
	}
}

func TestReadEntriesOrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	op := createTestOperation(1)
	sched, err := NewScheduleEntry("z-last-id", testCaller, op, 100)
	require.NoError(t, err)
	batch, err := NewScheduleBatchEntry("a-first-id", testCaller, createTestBatch(2), 101)
	require.NoError(t, err)
	cancel := NewCancelEntry("m-mid-id", testCaller, sched.Identity, 102)

	appendAll(t, s, sched, batch, cancel)

	entries, err := s.ReadEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Append order, not ID order
	assert.Equal(t, []string{"z-last-id", "a-first-id", "m-mid-id"},
		[]string{entries[0].ID, entries[1].ID, entries[2].ID})
	assert.Equal(t, []int64{1, 2, 3}, []int64{entries[0].Seq, entries[1].Seq, entries[2].Seq})

	sched.Seq = 1
	assert.Empty(t, cmp.Diff(sched, entries[0]))
}

func TestReadEntriesEmpty(t *testing.T) {
	s := createTestStore(t)

	entries, err := s.ReadEntries(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestReadEntriesByIdentity(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := NewScheduleEntry("e-1", testCaller, createTestOperation(1), 100)
	require.NoError(t, err)
	other, err := NewScheduleEntry("e-2", testCaller, createTestOperation(2), 100)
	require.NoError(t, err)
	cancel := NewCancelEntry("e-3", testCaller, first.Identity, 120)

	appendAll(t, s, first, other, cancel)

	entries, err := s.ReadEntriesByIdentity(ctx, first.Identity)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KindSchedule, entries[0].Kind)
	assert.Equal(t, KindCancel, entries[1].Kind)
}

func TestReadEntryNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadEntry(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEntryPayloadRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	op := createTestOperation(1)
	b := createTestBatch(2)
	opEntry, err := NewScheduleEntry("op", testCaller, op, 1)
	require.NoError(t, err)
	batchEntry, err := NewExecuteBatchEntry("batch", testCaller, b, 2)
	require.NoError(t, err)
	delayEntry, err := NewUpdateDelayEntry("delay", testCaller, 30, 3)
	require.NoError(t, err)
	revokeEntry, err := NewRoleEntry(KindRevokeRole, "revoke", testCaller, "canceller", testCaller, 4)
	require.NoError(t, err)
	appendAll(t, s, opEntry, batchEntry, delayEntry, revokeEntry)

	got, err := s.ReadEntry(ctx, "op")
	require.NoError(t, err)
	gotOp, err := got.Operation()
	require.NoError(t, err)
	assert.True(t, op.Equal(gotOp))
	assert.Equal(t, testCaller, got.Caller)

	got, err = s.ReadEntry(ctx, "batch")
	require.NoError(t, err)
	gotBatch, err := got.Batch()
	require.NoError(t, err)
	assert.True(t, b.Equal(gotBatch))

	got, err = s.ReadEntry(ctx, "delay")
	require.NoError(t, err)
	secs, err := got.DelaySeconds()
	require.NoError(t, err)
	assert.Equal(t, int64(30), secs)

	got, err = s.ReadEntry(ctx, "revoke")
	require.NoError(t, err)
	role, account, err := got.RoleChange()
	require.NoError(t, err)
	assert.Equal(t, "canceller", role)
	assert.Equal(t, testCaller, account)
}

func TestEntryDecodersCheckKind(t *testing.T) {
	cancel := NewCancelEntry("c", testCaller, createTestOperation(1).Salt, 1)

	_, err := cancel.Operation()
	assert.Error(t, err)
	_, err = cancel.Batch()
	assert.Error(t, err)
	_, err = cancel.DelaySeconds()
	assert.Error(t, err)
	_, _, err = cancel.RoleChange()
	assert.Error(t, err)
}

func TestUnmarshalDelayRejectsMissing(t *testing.T) {
	_, err := unmarshalDelay(`{}`)
	assert.Error(t, err)
	_, err = unmarshalDelay(`{"delay":-5}`)
	assert.Error(t, err)
	_, err = unmarshalDelay(`not json`)
	assert.Error(t, err)
}
