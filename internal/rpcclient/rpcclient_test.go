package rpcclient

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INemesisI/weave/internal/fabric/method"
)

func TestCallSucceedsThroughClosedBreaker(t *testing.T) {
	m := method.New("double", 0, func(req int, resp *int) error {
		*resp = req * 2
		return nil
	})
	client := New("double", m, time.Second)

	resp, err := client.Call(21)
	require.NoError(t, err)
	assert.Equal(t, 42, resp)
}

func TestCallTripsBreakerAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("boom")
	m := method.New("always-fails", 0, func(req int, resp *int) error {
		return boom
	})
	client := New("always-fails", m, time.Minute)

	for i := 0; i < 6; i++ {
		_, err := client.Call(1)
		require.Error(t, err)
	}

	// The breaker should now be open: Call fails fast without invoking
	// the underlying method at all.
	_, err := client.Call(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
