package node

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/timelockidx/internal/engine"
	"github.com/roach88/timelockidx/internal/ir"
	"github.com/roach88/timelockidx/internal/registry"
	"github.com/roach88/timelockidx/internal/store"
)

// Node is a Registry whose accepted commands survive restarts.
//
// Thread-safety: commands are serialized by an internal mutex so journal
// order always matches application order. Reads go straight to the Registry.
type Node struct {
	mu       sync.Mutex
	store    *store.Store
	engine   *engine.Engine
	registry *registry.Registry
	clock    *replayClock
	calls    *gatedExecutor
	ids      IDGenerator
	logger   *slog.Logger
}

type settings struct {
	minDelay time.Duration
	roles    engine.Roles
	clock    engine.Clock
	calls    engine.CallExecutor
	ids      IDGenerator
	logger   *slog.Logger
}

// Option configures a Node.
type Option func(*settings)

// WithMinDelay sets the engine's initial minimum delay. Journaled
// update_delay entries override it during replay.
func WithMinDelay(d time.Duration) Option {
	return func(s *settings) { s.minDelay = d }
}

// WithRoles sets the engine's role members.
func WithRoles(r engine.Roles) Option {
	return func(s *settings) { s.roles = r }
}

// WithClock replaces the system clock.
func WithClock(c engine.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithCallExecutor sets where live executions forward their calls.
func WithCallExecutor(x engine.CallExecutor) Option {
	return func(s *settings) { s.calls = x }
}

// WithIDGenerator sets the journal entry ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *settings) { s.ids = g }
}

// WithLogger sets the logger for the node and the components it builds.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// Open builds a Node over st and replays the journal into it.
// The caller keeps ownership of st.
func Open(ctx context.Context, st *store.Store, opts ...Option) (*Node, error) {
	n := build(st, opts...)

	entries, err := st.ReadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("open node: %w", err)
	}
	if err := n.replay(ctx, entries); err != nil {
		return nil, fmt.Errorf("open node: %w", err)
	}

	n.logger.Info("journal replayed",
		"entries", len(entries),
		"operations", n.registry.OperationCount(),
		"batches", n.registry.BatchCount(),
	)
	return n, nil
}

func build(st *store.Store, opts ...Option) *Node {
	s := settings{
		clock:  engine.SystemClock{},
		calls:  engine.DiscardExecutor{},
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	clock := &replayClock{live: s.clock}
	calls := &gatedExecutor{live: s.calls}
	eng := engine.New(
		engine.WithMinDelay(s.minDelay),
		engine.WithRoles(s.roles),
		engine.WithClock(clock),
		engine.WithCallExecutor(calls),
		engine.WithLogger(s.logger),
	)

	return &Node{
		store:    st,
		engine:   eng,
		registry: registry.New(eng, registry.WithLogger(s.logger)),
		clock:    clock,
		calls:    calls,
		ids:      s.ids,
		logger:   s.logger,
	}
}

func (n *Node) replay(ctx context.Context, entries []store.Entry) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls.replaying.Store(true)
	defer n.calls.replaying.Store(false)
	defer n.clock.release()

	for _, e := range entries {
		if e.JournalVersion != ir.JournalVersion {
			return fmt.Errorf("replay entry %d: journal version %q, want %q", e.Seq, e.JournalVersion, ir.JournalVersion)
		}
		n.clock.pin(e.At)
		if err := n.apply(ctx, e); err != nil {
			return fmt.Errorf("replay entry %d (%s %s): %w", e.Seq, e.Kind, e.ID, err)
		}
		n.logger.Debug("entry replayed", "seq", e.Seq, "kind", string(e.Kind))
	}
	return nil
}

// apply runs one journaled command through the registry or engine.
func (n *Node) apply(ctx context.Context, e store.Entry) error {
	switch e.Kind {
	case store.KindSchedule:
		op, err := e.Operation()
		if err != nil {
			return err
		}
		_, err = n.registry.Schedule(ctx, e.Caller, op)
		return err
	case store.KindScheduleBatch:
		b, err := e.Batch()
		if err != nil {
			return err
		}
		_, err = n.registry.ScheduleBatch(ctx, e.Caller, b)
		return err
	case store.KindCancel:
		return n.registry.Cancel(ctx, e.Caller, e.Identity)
	case store.KindExecute:
		op, err := e.Operation()
		if err != nil {
			return err
		}
		return n.registry.Execute(ctx, e.Caller, op)
	case store.KindExecuteBatch:
		b, err := e.Batch()
		if err != nil {
			return err
		}
		return n.registry.ExecuteBatch(ctx, e.Caller, b)
	case store.KindUpdateDelay:
		secs, err := e.DelaySeconds()
		if err != nil {
			return err
		}
		d, err := ir.DelayFromSeconds(secs)
		if err != nil {
			return err
		}
		return n.engine.UpdateDelay(ctx, e.Caller, d)
	case store.KindGrantRole:
		role, account, err := e.RoleChange()
		if err != nil {
			return err
		}
		return n.engine.GrantRole(ctx, e.Caller, engine.Role(role), account)
	case store.KindRevokeRole:
		role, account, err := e.RoleChange()
		if err != nil {
			return err
		}
		return n.engine.RevokeRole(ctx, e.Caller, engine.Role(role), account)
	default:
		return fmt.Errorf("unknown entry kind %q", e.Kind)
	}
}

// record runs cmd with the clock pinned to one reading, then journals the
// entry built from that reading. Nothing is journaled if cmd fails.
func (n *Node) record(ctx context.Context, cmd func() error, entry func(id string, at int64) (store.Entry, error)) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	at := n.clock.live.Now().Unix()
	n.clock.pin(at)
	err := cmd()
	n.clock.release()
	if err != nil {
		return err
	}

	e, err := entry(n.ids.Generate(), at)
	if err != nil {
		return fmt.Errorf("journal command: %w", err)
	}
	seq, inserted, err := n.store.AppendEntry(ctx, e)
	if err == nil && !inserted {
		err = fmt.Errorf("entry id %s already journaled at seq %d", e.ID, seq)
	}
	if err != nil {
		n.logger.Error("command applied but not journaled", "kind", string(e.Kind), "identity", e.Identity.Hex(), "error", err)
		return fmt.Errorf("journal %s: %w", e.Kind, err)
	}
	n.logger.Debug("entry journaled", "seq", seq, "kind", string(e.Kind), "identity", e.Identity.Hex())
	return nil
}

// Schedule schedules op and journals it.
func (n *Node) Schedule(ctx context.Context, caller ir.Address, op ir.Operation) (ir.Identity, error) {
	var id ir.Identity
	err := n.record(ctx,
		func() (err error) {
			id, err = n.registry.Schedule(ctx, caller, op)
			return err
		},
		func(eid string, at int64) (store.Entry, error) {
			return store.NewScheduleEntry(eid, caller, op, at)
		},
	)
	return id, err
}

// ScheduleBatch schedules b and journals it.
func (n *Node) ScheduleBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) (ir.Identity, error) {
	var id ir.Identity
	err := n.record(ctx,
		func() (err error) {
			id, err = n.registry.ScheduleBatch(ctx, caller, b)
			return err
		},
		func(eid string, at int64) (store.Entry, error) {
			return store.NewScheduleBatchEntry(eid, caller, b, at)
		},
	)
	return id, err
}

// Cancel cancels id and journals it.
func (n *Node) Cancel(ctx context.Context, caller ir.Address, id ir.Identity) error {
	return n.record(ctx,
		func() error { return n.registry.Cancel(ctx, caller, id) },
		func(eid string, at int64) (store.Entry, error) {
			return store.NewCancelEntry(eid, caller, id, at), nil
		},
	)
}

// Execute executes op and journals it.
func (n *Node) Execute(ctx context.Context, caller ir.Address, op ir.Operation) error {
	return n.record(ctx,
		func() error { return n.registry.Execute(ctx, caller, op) },
		func(eid string, at int64) (store.Entry, error) {
			return store.NewExecuteEntry(eid, caller, op, at)
		},
	)
}

// ExecuteBatch executes b and journals it.
func (n *Node) ExecuteBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) error {
	return n.record(ctx,
		func() error { return n.registry.ExecuteBatch(ctx, caller, b) },
		func(eid string, at int64) (store.Entry, error) {
			return store.NewExecuteBatchEntry(eid, caller, b, at)
		},
	)
}

// UpdateDelay changes the engine's minimum delay and journals it.
func (n *Node) UpdateDelay(ctx context.Context, caller ir.Address, d time.Duration) error {
	return n.record(ctx,
		func() error { return n.engine.UpdateDelay(ctx, caller, d) },
		func(eid string, at int64) (store.Entry, error) {
			return store.NewUpdateDelayEntry(eid, caller, ir.DelaySeconds(d), at)
		},
	)
}

// GrantRole adds account to role in the engine and journals it.
func (n *Node) GrantRole(ctx context.Context, caller ir.Address, role engine.Role, account ir.Address) error {
	return n.record(ctx,
		func() error { return n.engine.GrantRole(ctx, caller, role, account) },
		func(eid string, at int64) (store.Entry, error) {
			return store.NewRoleEntry(store.KindGrantRole, eid, caller, string(role), account, at)
		},
	)
}

// RevokeRole removes account from role in the engine and journals it.
func (n *Node) RevokeRole(ctx context.Context, caller ir.Address, role engine.Role, account ir.Address) error {
	return n.record(ctx,
		func() error { return n.engine.RevokeRole(ctx, caller, role, account) },
		func(eid string, at int64) (store.Entry, error) {
			return store.NewRoleEntry(store.KindRevokeRole, eid, caller, string(role), account, at)
		},
	)
}

// Registry returns the node's registry for reads.
// Mutating it directly bypasses the journal.
func (n *Node) Registry() *registry.Registry {
	return n.registry
}

// Engine returns the node's engine for state queries.
// Mutating it directly bypasses the journal; use the Node's methods instead.
func (n *Node) Engine() *engine.Engine {
	return n.engine
}
