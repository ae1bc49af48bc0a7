package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/timelockidx/internal/ir"
)

// doneTimestamp marks an executed identity. Any larger value is a ready time.
const doneTimestamp int64 = 1

// State is the lifecycle position of an identity.
type State int

const (
	StateUnset State = iota
	StateWaiting
	StateReady
	StateDone
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateWaiting:
		return "waiting"
	case StateReady:
		return "ready"
	case StateDone:
		return "done"
	default:
		return "invalid"
	}
}

// Engine is a role-gated timelock scheduler.
//
// It keeps one timestamp per identity:
//   - 0: unset (never scheduled, or cancelled)
//   - 1: done
//   - otherwise: the unix second at which the operation becomes ready
type Engine struct {
	mu         sync.Mutex
	timestamps map[ir.Identity]int64
	minDelay   int64
	roles      roleTable
	clock      Clock
	calls      CallExecutor
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMinDelay sets the initial minimum delay. Sub-second parts are dropped.
func WithMinDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.minDelay = ir.DelaySeconds(d)
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithCallExecutor sets where executed calls are forwarded.
// Default: DiscardExecutor.
func WithCallExecutor(x CallExecutor) Option {
	return func(e *Engine) {
		e.calls = x
	}
}

// WithLogger sets the logger for state changes. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRoles sets the initial role members.
func WithRoles(r Roles) Option {
	return func(e *Engine) {
		e.roles = newRoleTable(r)
	}
}

// New creates an Engine. With no options every role is empty, so nothing can
// be scheduled until roles are configured.
func New(opts ...Option) *Engine {
	e := &Engine{
		timestamps: make(map[ir.Identity]int64),
		roles:      newRoleTable(Roles{}),
		clock:      SystemClock{},
		calls:      DiscardExecutor{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HashOperation returns the identity of op.
func (e *Engine) HashOperation(op ir.Operation) ir.Identity {
	return ir.HashOperation(op)
}

// HashOperationBatch returns the identity of b.
func (e *Engine) HashOperationBatch(b ir.OperationBatch) ir.Identity {
	return ir.HashOperationBatch(b)
}

// Schedule records op as waiting until now + op.Delay.
func (e *Engine) Schedule(ctx context.Context, caller ir.Address, op ir.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.roles.has(RoleProposer, caller) {
		return NewUnauthorizedError(caller, RoleProposer)
	}
	if err := ir.CheckValue(op.Value); err != nil {
		return NewInvalidValueError(err)
	}
	id := ir.HashOperation(op)
	if err := e.scheduleLocked(id, op.Delay); err != nil {
		return err
	}
	e.logger.Info("call scheduled",
		"id", id.Hex(),
		"target", op.Target.Hex(),
		"delay", ir.DelaySeconds(op.Delay),
	)
	return nil
}

// ScheduleBatch records b as waiting until now + b.Delay.
func (e *Engine) ScheduleBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.roles.has(RoleProposer, caller) {
		return NewUnauthorizedError(caller, RoleProposer)
	}
	if !b.Aligned() {
		return NewInvalidBatchLengthError(len(b.Targets), len(b.Values), len(b.Payloads))
	}
	if err := b.CheckValues(); err != nil {
		return NewInvalidValueError(err)
	}
	id := ir.HashOperationBatch(b)
	if err := e.scheduleLocked(id, b.Delay); err != nil {
		return err
	}
	e.logger.Info("batch scheduled",
		"id", id.Hex(),
		"calls", len(b.Targets),
		"delay", ir.DelaySeconds(b.Delay),
	)
	return nil
}

func (e *Engine) scheduleLocked(id ir.Identity, delay time.Duration) error {
	if st := e.stateLocked(id); st != StateUnset {
		return NewStateError(ErrCodeOperationExists, id, st)
	}
	secs := ir.DelaySeconds(delay)
	if secs < 0 || secs < e.minDelay {
		return NewInsufficientDelayError(secs, e.minDelay)
	}
	e.timestamps[id] = e.clock.Now().Unix() + secs
	return nil
}

// Cancel clears a pending identity. Singles and batches share the namespace,
// so id may name either shape.
func (e *Engine) Cancel(ctx context.Context, caller ir.Address, id ir.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.roles.has(RoleCanceller, caller) {
		return NewUnauthorizedError(caller, RoleCanceller)
	}
	st := e.stateLocked(id)
	if st != StateWaiting && st != StateReady {
		return NewStateError(ErrCodeUnknownOperation, id, st)
	}
	delete(e.timestamps, id)
	e.logger.Info("operation cancelled", "id", id.Hex())
	return nil
}

// Execute forwards op's call and marks it done.
// The operation must be ready and its predecessor (if any) done.
func (e *Engine) Execute(ctx context.Context, caller ir.Address, op ir.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.roles.has(RoleExecutor, caller) {
		return NewUnauthorizedError(caller, RoleExecutor)
	}
	if err := ir.CheckValue(op.Value); err != nil {
		return NewInvalidValueError(err)
	}
	id := ir.HashOperation(op)
	if err := e.executeLocked(ctx, id, op.Predecessor, []ir.Call{op.Call()}); err != nil {
		return err
	}
	e.logger.Info("call executed", "id", id.Hex(), "target", op.Target.Hex())
	return nil
}

// ExecuteBatch forwards every call of b in order and marks it done.
// If any call fails the batch stays ready.
func (e *Engine) ExecuteBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.roles.has(RoleExecutor, caller) {
		return NewUnauthorizedError(caller, RoleExecutor)
	}
	if !b.Aligned() {
		return NewInvalidBatchLengthError(len(b.Targets), len(b.Values), len(b.Payloads))
	}
	if err := b.CheckValues(); err != nil {
		return NewInvalidValueError(err)
	}
	id := ir.HashOperationBatch(b)
	if err := e.executeLocked(ctx, id, b.Predecessor, b.Calls()); err != nil {
		return err
	}
	e.logger.Info("batch executed", "id", id.Hex(), "calls", len(b.Targets))
	return nil
}

func (e *Engine) executeLocked(ctx context.Context, id, predecessor ir.Identity, calls []ir.Call) error {
	if st := e.stateLocked(id); st != StateReady {
		return NewStateError(ErrCodeNotReady, id, st)
	}
	if predecessor != ir.ZeroIdentity && e.stateLocked(predecessor) != StateDone {
		return NewMissingDependencyError(id, predecessor)
	}
	for i, c := range calls {
		if err := e.calls.Call(ctx, c.Target, c.Value, c.Data); err != nil {
			return NewCallFailedError(id, i, err)
		}
	}
	e.timestamps[id] = doneTimestamp
	return nil
}

// UpdateDelay changes the minimum delay for future submissions.
func (e *Engine) UpdateDelay(ctx context.Context, caller ir.Address, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.roles.has(RoleAdmin, caller) {
		return NewUnauthorizedError(caller, RoleAdmin)
	}
	old := e.minDelay
	e.minDelay = ir.DelaySeconds(d)
	e.logger.Info("min delay changed", "old", old, "new", e.minDelay)
	return nil
}

// GrantRole adds account to role. Only admins may grant.
// Granting a role the account already holds is a no-op.
func (e *Engine) GrantRole(ctx context.Context, caller ir.Address, role Role, account ir.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.roles.has(RoleAdmin, caller) {
		return NewUnauthorizedError(caller, RoleAdmin)
	}
	if !validRole(role) {
		return &Error{Code: ErrCodeUnauthorized, Message: "unknown role " + string(role), Caller: caller}
	}
	if e.roles.grant(role, account) {
		e.logger.Info("role granted", "role", string(role), "account", account.Hex())
	}
	return nil
}

// RevokeRole removes account from role. Only admins may revoke.
func (e *Engine) RevokeRole(ctx context.Context, caller ir.Address, role Role, account ir.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.roles.has(RoleAdmin, caller) {
		return NewUnauthorizedError(caller, RoleAdmin)
	}
	if !validRole(role) {
		return &Error{Code: ErrCodeUnauthorized, Message: "unknown role " + string(role), Caller: caller}
	}
	if e.roles.revoke(role, account) {
		e.logger.Info("role revoked", "role", string(role), "account", account.Hex())
	}
	return nil
}

// HasRole reports whether account may act as role.
func (e *Engine) HasRole(role Role, account ir.Address) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roles.has(role, account)
}

// MinDelay returns the current minimum delay.
func (e *Engine) MinDelay() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Duration(e.minDelay) * time.Second
}

// Timestamp returns the raw timestamp of id (0 unset, 1 done, else ready time).
func (e *Engine) Timestamp(id ir.Identity) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timestamps[id]
}

// State returns the lifecycle state of id at the clock's current time.
func (e *Engine) State(id ir.Identity) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked(id)
}

// IsPending reports whether id is waiting or ready.
func (e *Engine) IsPending(id ir.Identity) bool {
	st := e.State(id)
	return st == StateWaiting || st == StateReady
}

// IsReady reports whether id can be executed now.
func (e *Engine) IsReady(id ir.Identity) bool {
	return e.State(id) == StateReady
}

// IsDone reports whether id has been executed.
func (e *Engine) IsDone(id ir.Identity) bool {
	return e.State(id) == StateDone
}

func (e *Engine) stateLocked(id ir.Identity) State {
	ts := e.timestamps[id]
	switch {
	case ts == 0:
		return StateUnset
	case ts == doneTimestamp:
		return StateDone
	case ts > e.clock.Now().Unix():
		return StateWaiting
	default:
		return StateReady
	}
}
