package registry

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timelockidx/internal/ir"
)

func cloneString(s string) string { return s }

func hid(n int64) ir.Identity {
	return common.BigToHash(big.NewInt(n))
}

// checkConsistent asserts the position map and the entries slice agree.
func checkConsistent[T any](t *testing.T, x *Index[T]) {
	t.Helper()
	require.Len(t, x.pos, len(x.entries))
	for i, r := range x.entries {
		assert.Equal(t, i, x.pos[r.id], "position of %s", r.id.Hex())
	}
}

func TestIndexInsertAppends(t *testing.T) {
	x := NewIndex(cloneString)

	assert.True(t, x.Insert(hid(1), "a"))
	assert.True(t, x.Insert(hid(2), "b"))
	assert.True(t, x.Insert(hid(3), "c"))

	assert.Equal(t, 3, x.Len())
	assert.Equal(t, []string{"a", "b", "c"}, x.Values())
	assert.Equal(t, []ir.Identity{hid(1), hid(2), hid(3)}, x.IDs())
	checkConsistent(t, x)
}

func TestIndexInsertDuplicateIsNoop(t *testing.T) {
	x := NewIndex(cloneString)

	require.True(t, x.Insert(hid(1), "a"))
	assert.False(t, x.Insert(hid(1), "other"))

	assert.Equal(t, 1, x.Len())
	v, ok := x.Get(hid(1))
	require.True(t, ok)
	assert.Equal(t, "a", v)
	checkConsistent(t, x)
}

func TestIndexRemoveSwapsLastIntoSlot(t *testing.T) {
	x := NewIndex(cloneString)
	for i, s := range []string{"a", "b", "c", "d"} {
		x.Insert(hid(int64(i+1)), s)
	}

	assert.True(t, x.Remove(hid(2)))

	assert.Equal(t, []string{"a", "d", "c"}, x.Values())
	assert.False(t, x.Contains(hid(2)))
	checkConsistent(t, x)
}

func TestIndexRemoveLast(t *testing.T) {
	x := NewIndex(cloneString)
	x.Insert(hid(1), "a")
	x.Insert(hid(2), "b")

	assert.True(t, x.Remove(hid(2)))
	assert.Equal(t, []string{"a"}, x.Values())
	checkConsistent(t, x)

	assert.True(t, x.Remove(hid(1)))
	assert.Equal(t, 0, x.Len())
	checkConsistent(t, x)
}

func TestIndexRemoveMissing(t *testing.T) {
	x := NewIndex(cloneString)
	x.Insert(hid(1), "a")

	assert.False(t, x.Remove(hid(9)))
	assert.Equal(t, 1, x.Len())
}

func TestIndexAtBounds(t *testing.T) {
	x := NewIndex(cloneString)
	x.Insert(hid(1), "a")

	id, v, ok := x.At(0)
	require.True(t, ok)
	assert.Equal(t, hid(1), id)
	assert.Equal(t, "a", v)

	_, _, ok = x.At(1)
	assert.False(t, ok)
	_, _, ok = x.At(-1)
	assert.False(t, ok)
}

func TestIndexValuesNonNilWhenEmpty(t *testing.T) {
	x := NewIndex(cloneString)
	assert.NotNil(t, x.Values())
	assert.Empty(t, x.Values())
}

func TestIndexClonesInAndOut(t *testing.T) {
	x := NewIndex(ir.Operation.Clone)
	op := ir.Operation{Data: []byte{1, 2, 3}}
	x.Insert(hid(1), op)

	// Caller mutation after insert does not reach the index
	op.Data[0] = 9
	got, _ := x.Get(hid(1))
	assert.Equal(t, []byte{1, 2, 3}, got.Data)

	// Mutating a returned copy does not reach the index
	got.Data[1] = 9
	again, _ := x.Get(hid(1))
	assert.Equal(t, []byte{1, 2, 3}, again.Data)
}
