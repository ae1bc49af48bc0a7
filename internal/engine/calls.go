package engine

import (
	"context"
	"math/big"

	"github.com/roach88/timelockidx/internal/ir"
)

// CallExecutor forwards the calls of an executed operation to their targets.
//
// Implementations must not call back into the Engine.
type CallExecutor interface {
	Call(ctx context.Context, target ir.Address, value *big.Int, data []byte) error
}

// CallExecutorFunc adapts a function to the CallExecutor interface.
type CallExecutorFunc func(ctx context.Context, target ir.Address, value *big.Int, data []byte) error

// Call calls f.
func (f CallExecutorFunc) Call(ctx context.Context, target ir.Address, value *big.Int, data []byte) error {
	return f(ctx, target, value, data)
}

// DiscardExecutor accepts every call and does nothing. It is the default.
type DiscardExecutor struct{}

// Call returns nil unless ctx is already done.
func (DiscardExecutor) Call(ctx context.Context, _ ir.Address, _ *big.Int, _ []byte) error {
	return ctx.Err()
}
