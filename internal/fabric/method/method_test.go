package method_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INemesisI/weave/internal/fabric"
	"github.com/INemesisI/weave/internal/fabric/method"
)

// S5 — RPC sync over an immediate sink: two concurrent callers each see
// their own correctly doubled result, and the handler runs exactly once
// per call.
func TestMethodCallSyncDoublesRequest(t *testing.T) {
	var calls int
	var mu sync.Mutex
	m := method.New("double", 0, func(req uint32, resp *uint32) error {
		mu.Lock()
		calls++
		mu.Unlock()
		*resp = req * 2
		return nil
	})

	var wg sync.WaitGroup
	results := make([]uint32, 2)
	inputs := []uint32{3, 4}
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := m.Call(inputs[i])
			require.NoError(t, err)
			results[i] = resp
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint32(6), results[0])
	assert.Equal(t, uint32(8), results[1])
	assert.Equal(t, 2, calls)
}

// A synchronous call that returns the handler's negative code implies
// the handler ran and returned that code (spec §8 property 8).
func TestMethodCallSyncPropagatesHandlerError(t *testing.T) {
	wantErr := errors.New("boom")
	m := method.New[uint32, uint32]("failer", 0, func(req uint32, resp *uint32) error {
		return wantErr
	})

	_, err := m.Call(1)
	assert.ErrorIs(t, err, wantErr)
}

// Over a Queued method, a separate drain goroutine must dispatch calls —
// the caller's own goroutine never runs the handler.
func TestMethodCallOverQueuedSinkRequiresDrainLoop(t *testing.T) {
	m := method.New("double", 4, func(req uint32, resp *uint32) error {
		*resp = req * 2
		return nil
	})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fabric.RunDrainLoop(m.Sink().Queue(), 10*time.Millisecond, stop)
	}()
	defer func() {
		close(stop)
		wg.Wait()
	}()

	resp, err := m.Call(21)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), resp)
}

func TestMethodCallAsyncWaitTimesOutThenCompletes(t *testing.T) {
	release := make(chan struct{})
	m := method.New("slow", 1, func(req uint32, resp *uint32) error {
		<-release
		*resp = req + 1
		return nil
	})

	stop := make(chan struct{})
	go fabric.RunDrainLoop(m.Sink().Queue(), 5*time.Millisecond, stop)
	defer close(stop)

	ctx, err := m.CallAsync(41, fabric.Indefinite)
	require.NoError(t, err)

	err = ctx.Wait(10 * time.Millisecond)
	assert.ErrorIs(t, err, fabric.ErrTimeout)

	close(release)
	err = ctx.Wait(fabric.Indefinite)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), ctx.Response)
}
