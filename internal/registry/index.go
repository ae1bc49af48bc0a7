package registry

import "github.com/roach88/timelockidx/internal/ir"

// Index is an insertion-ordered set of identities paired with the record
// stored under each.
//
// entries and pos are only edited together, by Insert and Remove, so the
// key set of pos always equals the set of identities in entries.
type Index[T any] struct {
	entries []record[T]
	pos     map[ir.Identity]int
	clone   func(T) T
}

type record[T any] struct {
	id  ir.Identity
	val T
}

// NewIndex creates an empty Index. clone must return a copy of a record that
// shares no memory with its argument; it is applied on the way in and on the
// way out.
func NewIndex[T any](clone func(T) T) *Index[T] {
	return &Index[T]{
		pos:   make(map[ir.Identity]int),
		clone: clone,
	}
}

// Insert appends id with its record. It returns false, leaving the index
// unchanged, if id is already present.
func (x *Index[T]) Insert(id ir.Identity, val T) bool {
	if _, ok := x.pos[id]; ok {
		return false
	}
	x.pos[id] = len(x.entries)
	x.entries = append(x.entries, record[T]{id: id, val: x.clone(val)})
	return true
}

// Remove deletes id by moving the last entry into its slot.
// It returns false if id was not present.
func (x *Index[T]) Remove(id ir.Identity) bool {
	i, ok := x.pos[id]
	if !ok {
		return false
	}
	last := len(x.entries) - 1
	if i != last {
		moved := x.entries[last]
		x.entries[i] = moved
		x.pos[moved.id] = i
	}
	var zero record[T]
	x.entries[last] = zero
	x.entries = x.entries[:last]
	delete(x.pos, id)
	return true
}

// Contains reports whether id is present.
func (x *Index[T]) Contains(id ir.Identity) bool {
	_, ok := x.pos[id]
	return ok
}

// Len returns the number of entries.
func (x *Index[T]) Len() int {
	return len(x.entries)
}

// At returns the identity and record at position i.
func (x *Index[T]) At(i int) (ir.Identity, T, bool) {
	if i < 0 || i >= len(x.entries) {
		var zero T
		return ir.Identity{}, zero, false
	}
	r := x.entries[i]
	return r.id, x.clone(r.val), true
}

// Get returns the record stored under id.
func (x *Index[T]) Get(id ir.Identity) (T, bool) {
	i, ok := x.pos[id]
	if !ok {
		var zero T
		return zero, false
	}
	return x.clone(x.entries[i].val), true
}

// Values returns copies of every record in positional order.
// The result is non-nil even when the index is empty.
func (x *Index[T]) Values() []T {
	out := make([]T, len(x.entries))
	for i, r := range x.entries {
		out[i] = x.clone(r.val)
	}
	return out
}

// IDs returns every identity in positional order.
func (x *Index[T]) IDs() []ir.Identity {
	out := make([]ir.Identity, len(x.entries))
	for i, r := range x.entries {
		out[i] = r.id
	}
	return out
}
