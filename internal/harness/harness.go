package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/timelockidx/internal/engine"
	"github.com/roach88/timelockidx/internal/ir"
	"github.com/roach88/timelockidx/internal/node"
	"github.com/roach88/timelockidx/internal/registry"
	"github.com/roach88/timelockidx/internal/store"
	"github.com/roach88/timelockidx/internal/testutil"
)

// Scenario callers.
const (
	CallerProposer = "proposer"
	CallerAdmin    = "admin"
	CallerStranger = "stranger"
)

var accounts = map[string]ir.Address{
	CallerProposer: common.HexToAddress("0x00000000000000000000000000000000000000b0"),
	CallerAdmin:    common.HexToAddress("0x00000000000000000000000000000000000000a0"),
	CallerStranger: common.HexToAddress("0x00000000000000000000000000000000000000ff"),
}

func roles() engine.Roles {
	p := accounts[CallerProposer]
	return engine.Roles{
		Admin:      []ir.Address{accounts[CallerAdmin]},
		Proposers:  []ir.Address{p},
		Executors:  []ir.Address{p},
		Cancellers: []ir.Address{p},
	}
}

// Harness executes one scenario against a fresh node.
type Harness struct {
	scenario *Scenario
	store    *store.Store
	node     *node.Node
	clock    *testutil.ManualClock
	logger   *slog.Logger

	ops     map[string]ir.Operation
	batches map[string]ir.OperationBatch
	labels  map[ir.Identity]string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal. Execution flow:
// 1. Resolve labelled operations and batches
// 2. Execute flow steps, checking expect_error and snapshotting the index
// 3. Evaluate assertions against the final index
// 4. Replay the journal twice and require identical state
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		scenario: scenario,
		store:    st,
		clock:    testutil.NewManualClock(time.Time{}),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ops:      make(map[string]ir.Operation),
		batches:  make(map[string]ir.OperationBatch),
		labels:   make(map[ir.Identity]string),
	}
	if err := h.resolve(); err != nil {
		return nil, fmt.Errorf("failed to resolve requests: %w", err)
	}

	h.node, err = node.Open(ctx, st, h.nodeOptions(
		node.WithClock(h.clock),
		node.WithIDGenerator(testutil.NewSequentialIDGenerator("")),
	)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open node: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		h.executeStep(ctx, i, step, result)
	}

	for _, msg := range EvaluateAssertions(h.node.Registry(), scenario.Assertions, h.labelOf) {
		result.AddError(msg)
	}

	verify, err := node.Verify(ctx, st, h.nodeOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to replay journal: %w", err)
	}
	result.Entries = verify.Entries
	if !verify.Match {
		result.AddError("journal replay is not deterministic:\n" + verify.Diff)
	}
	return result, nil
}

func (h *Harness) nodeOptions(extra ...node.Option) []node.Option {
	return append([]node.Option{
		node.WithMinDelay(time.Duration(h.scenario.MinDelay) * time.Second),
		node.WithRoles(roles()),
		node.WithLogger(h.logger),
	}, extra...)
}

// resolve builds every labelled request. Predecessors may name labels defined
// anywhere in the scenario, so identities are resolved iteratively.
func (h *Harness) resolve() error {
	pending := len(h.scenario.Operations) + len(h.scenario.Batches)
	for pending > 0 {
		progress := false
		for label, def := range h.scenario.Operations {
			if _, done := h.ops[label]; done {
				continue
			}
			pred, ok, err := h.predecessor(def.Predecessor)
			if err != nil {
				return fmt.Errorf("operation %s: %w", label, err)
			}
			if !ok {
				continue
			}
			op, err := def.build(pred)
			if err != nil {
				return fmt.Errorf("operation %s: %w", label, err)
			}
			h.ops[label] = op
			h.labels[ir.HashOperation(op)] = label
			pending--
			progress = true
		}
		for label, def := range h.scenario.Batches {
			if _, done := h.batches[label]; done {
				continue
			}
			pred, ok, err := h.predecessor(def.Predecessor)
			if err != nil {
				return fmt.Errorf("batch %s: %w", label, err)
			}
			if !ok {
				continue
			}
			b, err := def.build(pred)
			if err != nil {
				return fmt.Errorf("batch %s: %w", label, err)
			}
			h.batches[label] = b
			h.labels[ir.HashOperationBatch(b)] = label
			pending--
			progress = true
		}
		if !progress {
			return fmt.Errorf("predecessor labels form a cycle")
		}
	}
	return nil
}

// predecessor resolves ref to an identity. ok is false while ref names a
// label that has not been built yet.
func (h *Harness) predecessor(ref string) (ir.Identity, bool, error) {
	if ref == "" {
		return ir.ZeroIdentity, true, nil
	}
	if _, isOp := h.scenario.Operations[ref]; isOp {
		op, built := h.ops[ref]
		return ir.HashOperation(op), built, nil
	}
	if _, isBatch := h.scenario.Batches[ref]; isBatch {
		b, built := h.batches[ref]
		return ir.HashOperationBatch(b), built, nil
	}
	id, err := ir.ParseWord(ref)
	if err != nil {
		return ir.Identity{}, false, fmt.Errorf("predecessor %q: %w", ref, err)
	}
	return id, true, nil
}

func (d OperationDef) build(pred ir.Identity) (ir.Operation, error) {
	call, err := ir.ParseCall(d.Target + ":" + d.Value + ":" + d.Data)
	if err != nil {
		return ir.Operation{}, err
	}
	salt, err := ir.ParseWord(d.Salt)
	if err != nil {
		return ir.Operation{}, fmt.Errorf("salt: %w", err)
	}
	delay, err := ir.DelayFromSeconds(d.Delay)
	if err != nil {
		return ir.Operation{}, err
	}
	return ir.Operation{
		Target:      call.Target,
		Value:       call.Value,
		Data:        call.Data,
		Predecessor: pred,
		Salt:        salt,
		Delay:       delay,
	}, nil
}

func (d BatchDef) build(pred ir.Identity) (ir.OperationBatch, error) {
	delay, err := ir.DelayFromSeconds(d.Delay)
	if err != nil {
		return ir.OperationBatch{}, err
	}
	b := ir.OperationBatch{
		Targets:     make([]ir.Address, 0, len(d.Calls)),
		Values:      make([]*big.Int, 0, len(d.Calls)),
		Payloads:    make([][]byte, 0, len(d.Calls)),
		Predecessor: pred,
		Delay:       delay,
	}
	for i, raw := range d.Calls {
		c, err := ir.ParseCall(raw)
		if err != nil {
			return ir.OperationBatch{}, fmt.Errorf("calls[%d]: %w", i, err)
		}
		b.Targets = append(b.Targets, c.Target)
		b.Values = append(b.Values, c.Value)
		b.Payloads = append(b.Payloads, c.Data)
	}
	salt, err := ir.ParseWord(d.Salt)
	if err != nil {
		return ir.OperationBatch{}, fmt.Errorf("salt: %w", err)
	}
	b.Salt = salt
	return b, nil
}

// executeStep runs one step, checks its outcome and snapshots the index.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	caller := accounts[CallerProposer]
	if step.Caller != "" {
		caller = accounts[step.Caller]
	}

	var err error
	switch step.Action {
	case ActionSchedule:
		_, err = h.node.Schedule(ctx, caller, h.ops[step.Label])
	case ActionScheduleBatch:
		_, err = h.node.ScheduleBatch(ctx, caller, h.batches[step.Label])
	case ActionExecute:
		err = h.node.Execute(ctx, caller, h.ops[step.Label])
	case ActionExecuteBatch:
		err = h.node.ExecuteBatch(ctx, caller, h.batches[step.Label])
	case ActionCancel:
		var id ir.Identity
		id, err = h.cancelTarget(step)
		if err == nil {
			err = h.node.Cancel(ctx, caller, id)
		}
	case ActionAdvance:
		h.clock.Advance(time.Duration(step.Seconds) * time.Second)
	}

	code := errorCode(err)
	if code != step.ExpectError {
		want := step.ExpectError
		if want == "" {
			want = "success"
		}
		got := "success"
		if err != nil {
			got = err.Error()
		}
		result.AddError(fmt.Sprintf("flow[%d] %s %s: expected %s, got %s", i, step.Action, step.Label, want, got))
	}

	reg := h.node.Registry()
	result.Steps = append(result.Steps, StepSnapshot{
		Step:       i,
		Action:     step.Action,
		Label:      step.Label,
		Error:      code,
		Count:      reg.OperationCount(),
		Order:      h.operationLabels(reg),
		BatchCount: reg.BatchCount(),
		BatchOrder: h.batchLabels(reg),
	})
}

func (h *Harness) cancelTarget(step Step) (ir.Identity, error) {
	if step.ID != "" {
		return ir.ParseWord(step.ID)
	}
	if op, ok := h.ops[step.Label]; ok {
		return ir.HashOperation(op), nil
	}
	return ir.HashOperationBatch(h.batches[step.Label]), nil
}

func (h *Harness) labelOf(id ir.Identity) string {
	if l, ok := h.labels[id]; ok {
		return l
	}
	return id.Hex()
}

func (h *Harness) operationLabels(reg *registry.Registry) []string {
	snap := reg.Snapshot()
	out := make([]string, len(snap.OperationIDs))
	for i, id := range snap.OperationIDs {
		out[i] = h.labelOf(id)
	}
	return out
}

func (h *Harness) batchLabels(reg *registry.Registry) []string {
	snap := reg.Snapshot()
	out := make([]string, len(snap.BatchIDs))
	for i, id := range snap.BatchIDs {
		out[i] = h.labelOf(id)
	}
	return out
}

// errorCode returns the engine or registry code carried by err, "" for nil,
// and "ERROR" for anything else.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if c := engine.CodeOf(err); c != "" {
		return string(c)
	}
	var le *registry.LookupError
	if errors.As(err, &le) {
		return string(le.Code)
	}
	return "ERROR"
}
