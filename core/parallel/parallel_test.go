package parallel_test

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/bikedemand/core/parallel"
)

func TestWorkers(t *testing.T) {
	assert.Equal(t, 4, parallel.Workers(4, 100))
	assert.Equal(t, 3, parallel.Workers(8, 3))
	assert.Equal(t, 1, parallel.Workers(0, 1))
	assert.Equal(t, min(runtime.NumCPU(), 1000), parallel.Workers(-1, 1000))
	assert.Equal(t, runtime.NumCPU(), parallel.Workers(-1, 0))
}

func TestParallelizeCoversEveryIndex(t *testing.T) {
	const n = 1037
	seen := make([]int32, n)
	parallel.Parallelize(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})
	for i, c := range seen {
		require.Equalf(t, int32(1), c, "index %d visited %d times", i, c)
	}
}

func TestParallelizeWithThresholdRunsInline(t *testing.T) {
	var calls int
	parallel.ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)
}

func TestForEachWritesSlots(t *testing.T) {
	out := make([]int, 50)
	err := parallel.ForEach(context.Background(), len(out), 4, func(_ context.Context, i int) error {
		out[i] = i * i
		return nil
	})
	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestForEachBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	err := parallel.ForEach(context.Background(), 40, 3, func(_ context.Context, _ int) error {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		runtime.Gosched()
		atomic.AddInt32(&inFlight, -1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestForEachReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := parallel.ForEach(context.Background(), 20, 2, func(_ context.Context, i int) error {
		if i == 5 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestForEachHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := parallel.ForEach(ctx, 10, 2, func(_ context.Context, _ int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&calls))
}
