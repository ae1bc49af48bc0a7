package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StartsAtEpoch(t *testing.T) {
	clock := NewManualClock(time.Time{})
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, int64(1735689600), clock.Now().Unix())
}

func TestManualClock_CustomStart(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := NewManualClock(start)
	assert.Equal(t, start, clock.Now())
}

func TestManualClock_Advance(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))

	assert.Equal(t, int64(1010), clock.Advance(10*time.Second).Unix())
	assert.Equal(t, int64(1010), clock.Now().Unix())

	// Negative advances are ignored
	assert.Equal(t, int64(1010), clock.Advance(-5*time.Second).Unix())
}

func TestManualClock_Set(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	clock.Set(time.Unix(50, 0))
	assert.Equal(t, int64(50), clock.Now().Unix())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(numGoroutines), clock.Now().Unix())
}
