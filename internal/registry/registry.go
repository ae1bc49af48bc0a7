package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/timelockidx/internal/ir"
)

// Scheduler is the timelock engine a Registry wraps.
// *engine.Engine satisfies it.
type Scheduler interface {
	Schedule(ctx context.Context, caller ir.Address, op ir.Operation) error
	ScheduleBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) error
	Cancel(ctx context.Context, caller ir.Address, id ir.Identity) error
	Execute(ctx context.Context, caller ir.Address, op ir.Operation) error
	ExecuteBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) error
	HashOperation(op ir.Operation) ir.Identity
	HashOperationBatch(b ir.OperationBatch) ir.Identity
}

// Registry indexes the operations and batches a Scheduler accepted.
type Registry struct {
	mu      sync.RWMutex
	sched   Scheduler
	singles *Index[ir.Operation]
	batches *Index[ir.OperationBatch]
	shapes  []shapeIndex
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates an empty Registry over sched.
func New(sched Scheduler, opts ...Option) *Registry {
	r := &Registry{
		sched:   sched,
		singles: NewIndex(ir.Operation.Clone),
		batches: NewIndex(ir.OperationBatch.Clone),
		logger:  slog.Default(),
	}
	r.shapes = []shapeIndex{
		{shape: ShapeSingle, index: r.singles},
		{shape: ShapeBatch, index: r.batches},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schedule submits op to the Scheduler and, on success, indexes it under the
// identity the Scheduler derives for it.
func (r *Registry) Schedule(ctx context.Context, caller ir.Address, op ir.Operation) (ir.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.sched.Schedule(ctx, caller, op); err != nil {
		return ir.Identity{}, err
	}
	id := r.sched.HashOperation(op)
	if !r.singles.Insert(id, op) {
		r.logger.Warn("scheduler accepted an identity already indexed", "id", id.Hex(), "shape", ShapeSingle.String())
	}
	return id, nil
}

// ScheduleBatch submits b to the Scheduler and, on success, indexes it.
func (r *Registry) ScheduleBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) (ir.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.sched.ScheduleBatch(ctx, caller, b); err != nil {
		return ir.Identity{}, err
	}
	id := r.sched.HashOperationBatch(b)
	if !r.batches.Insert(id, b) {
		r.logger.Warn("scheduler accepted an identity already indexed", "id", id.Hex(), "shape", ShapeBatch.String())
	}
	return id, nil
}

// Cancel cancels id in the Scheduler and, on success, removes it from every
// index that holds it. An identity held by neither index is not an error.
func (r *Registry) Cancel(ctx context.Context, caller ir.Address, id ir.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.sched.Cancel(ctx, caller, id); err != nil {
		return err
	}
	held := r.holdersLocked(id)
	for _, s := range r.shapes {
		if held.Has(s.shape) {
			s.index.Remove(id)
		}
	}
	return nil
}

// Execute runs op through the Scheduler. The index is not touched: an
// executed operation stays listed. Only the read lock is held, so reads
// proceed while the Scheduler forwards calls.
func (r *Registry) Execute(ctx context.Context, caller ir.Address, op ir.Operation) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sched.Execute(ctx, caller, op)
}

// ExecuteBatch runs b through the Scheduler under the read lock. The index is
// not touched.
func (r *Registry) ExecuteBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sched.ExecuteBatch(ctx, caller, b)
}

// Operations returns every indexed operation in positional order.
func (r *Registry) Operations() []ir.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.singles.Values()
}

// OperationCount returns the number of indexed operations.
func (r *Registry) OperationCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.singles.Len()
}

// OperationAt returns the operation at position i.
func (r *Registry) OperationAt(i int) (ir.Operation, error) {
	_, op, err := r.OperationAtWithID(i)
	return op, err
}

// OperationAtWithID returns the operation at position i together with the
// identity it is indexed under.
func (r *Registry) OperationAtWithID(i int) (ir.Identity, ir.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, op, ok := r.singles.At(i)
	if !ok {
		return ir.Identity{}, ir.Operation{}, indexNotFound(ShapeSingle, i)
	}
	return id, op, nil
}

// Operation returns the operation indexed under id.
func (r *Registry) Operation(id ir.Identity) (ir.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.singles.Get(id)
	if !ok {
		return ir.Operation{}, identityNotFound(ShapeSingle, id)
	}
	return op, nil
}

// Batches returns every indexed batch in positional order.
func (r *Registry) Batches() []ir.OperationBatch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.batches.Values()
}

// BatchCount returns the number of indexed batches.
func (r *Registry) BatchCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.batches.Len()
}

// BatchAt returns the batch at position i.
func (r *Registry) BatchAt(i int) (ir.OperationBatch, error) {
	_, b, err := r.BatchAtWithID(i)
	return b, err
}

// BatchAtWithID returns the batch at position i and its indexed identity.
func (r *Registry) BatchAtWithID(i int) (ir.Identity, ir.OperationBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, b, ok := r.batches.At(i)
	if !ok {
		return ir.Identity{}, ir.OperationBatch{}, indexNotFound(ShapeBatch, i)
	}
	return id, b, nil
}

// Batch returns the batch indexed under id.
func (r *Registry) Batch(id ir.Identity) (ir.OperationBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.batches.Get(id)
	if !ok {
		return ir.OperationBatch{}, identityNotFound(ShapeBatch, id)
	}
	return b, nil
}

// Holders reports which indexes currently hold id.
func (r *Registry) Holders(id ir.Identity) Shape {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.holdersLocked(id)
}

func (r *Registry) holdersLocked(id ir.Identity) Shape {
	held := ShapeNone
	for _, s := range r.shapes {
		if s.index.Contains(id) {
			held |= s.shape
		}
	}
	return held
}

// Snapshot is a consistent copy of both indexes.
type Snapshot struct {
	Operations   []ir.Operation
	OperationIDs []ir.Identity
	Batches      []ir.OperationBatch
	BatchIDs     []ir.Identity
}

// Snapshot copies both indexes under one read lock.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Operations:   r.singles.Values(),
		OperationIDs: r.singles.IDs(),
		Batches:      r.batches.Values(),
		BatchIDs:     r.batches.IDs(),
	}
}
