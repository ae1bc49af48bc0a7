package node

import (
	"context"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/roach88/timelockidx/internal/engine"
	"github.com/roach88/timelockidx/internal/ir"
)

// replayClock reads a pinned time while replaying and the live clock otherwise.
type replayClock struct {
	live   engine.Clock
	pinned atomic.Int64
	active atomic.Bool
}

func (c *replayClock) Now() time.Time {
	if c.active.Load() {
		return time.Unix(c.pinned.Load(), 0)
	}
	return c.live.Now()
}

func (c *replayClock) pin(unix int64) {
	c.pinned.Store(unix)
	c.active.Store(true)
}

func (c *replayClock) release() {
	c.active.Store(false)
}

// gatedExecutor drops forwarded calls while replaying. Their effects already
// happened when the entries were first applied.
type gatedExecutor struct {
	live      engine.CallExecutor
	replaying atomic.Bool
}

func (g *gatedExecutor) Call(ctx context.Context, target ir.Address, value *big.Int, data []byte) error {
	if g.replaying.Load() {
		return nil
	}
	return g.live.Call(ctx, target, value, data)
}
