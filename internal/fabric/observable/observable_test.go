package observable_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INemesisI/weave/internal/fabric"
	"github.com/INemesisI/weave/internal/fabric/observable"
)

var errRejectZero = errors.New("value must be non-zero")

func nonZero(_ uint32, candidate uint32) error {
	if candidate == 0 {
		return errRejectZero
	}
	return nil
}

// S4 — observable with validator.
func TestObservableSetValidatorRejectsLeavesValueUnchanged(t *testing.T) {
	obs := observable.New("level", uint32(10), nonZero, nil)

	_, err := obs.Set(0, fabric.Indefinite)
	assert.ErrorIs(t, err, errRejectZero)
	assert.Equal(t, uint32(10), obs.Get())

	n, err := obs.Set(5, fabric.Indefinite)
	require.NoError(t, err)
	assert.Equal(t, 0, n) // no external observers connected yet
	assert.Equal(t, uint32(5), obs.Get())
}

// An external observer connected to Source() is notified on Set,
// receiving the Observable itself as the payload.
func TestObservableNotifiesExternalObserver(t *testing.T) {
	obs := observable.New("level", uint32(0), nil, nil)
	reg := fabric.NewRegistry(1)

	var got uint32
	var wg sync.WaitGroup
	wg.Add(1)
	sink := fabric.NewImmediateSink("watcher", func(payload any, _ any) {
		o := payload.(*observable.Observable[uint32])
		got = o.Get()
		wg.Done()
	}, nil)

	_, err := reg.Connect(obs.Source(), sink)
	require.NoError(t, err)

	n, err := obs.Set(42, fabric.Indefinite)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	wg.Wait()
	assert.Equal(t, uint32(42), got)
}

// Claim grants exclusive in-place access; Finish releases without
// notifying, Publish releases and notifies.
func TestObservableClaimFinishPublish(t *testing.T) {
	obs := observable.New("counters", uint32(1), nil, nil)
	reg := fabric.NewRegistry(1)

	var notifications int
	sink := fabric.NewImmediateSink("watcher", func(any, any) { notifications++ }, nil)
	_, err := reg.Connect(obs.Source(), sink)
	require.NoError(t, err)

	v, err := obs.Claim(fabric.Indefinite)
	require.NoError(t, err)
	*v = 2
	obs.Finish()
	assert.Equal(t, uint32(2), obs.Get())
	assert.Equal(t, 0, notifications)

	v, err = obs.Claim(fabric.Indefinite)
	require.NoError(t, err)
	*v = 3
	n, err := obs.Publish(fabric.Indefinite)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, notifications)
	assert.Equal(t, uint32(3), obs.Get())
}

// A claimed Observable blocks a concurrent Claim until Finish/Publish
// releases it — exercising the mutex-as-channel timeout semantics.
func TestObservableClaimBlocksConcurrentClaim(t *testing.T) {
	obs := observable.New("x", 0, nil, nil)

	_, err := obs.Claim(fabric.Indefinite)
	require.NoError(t, err)

	_, err = obs.Claim(0)
	assert.ErrorIs(t, err, fabric.ErrTimeout)

	obs.Finish()
	_, err = obs.Claim(0)
	assert.NoError(t, err)
}

func TestObservableOwnerSinkInvokedOnSet(t *testing.T) {
	var ownerRan bool
	owner := fabric.NewImmediateSink("owner", func(any, any) { ownerRan = true }, nil)
	obs := observable.New("x", 0, nil, owner)

	_, err := obs.Set(9, fabric.Indefinite)
	require.NoError(t, err)
	assert.True(t, ownerRan)
}
