package agent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestDispatcherRunsOp(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDispatcher(2)
	ran := false
	err := d.Do(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestDispatcherPropagatesOpError(t *testing.T) {
	d := NewDispatcher(1)
	sentinel := errors.New("boom")
	err := d.Do(context.Background(), func(ctx context.Context) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
}

func TestDispatcherBoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	const slots = 3
	d := NewDispatcher(slots)

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	gate := make(chan struct{})

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Do(context.Background(), func(ctx context.Context) error {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				<-gate
				inFlight.Add(-1)
				return nil
			})
		}()
	}

	close(gate)
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int64(slots))
}

func TestDispatcherRespectsCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDispatcher(1)

	// Occupy the only slot.
	hold := make(chan struct{})
	released := make(chan struct{})
	go func() {
		_ = d.Do(context.Background(), func(ctx context.Context) error {
			<-hold
			return nil
		})
		close(released)
	}()

	// Second caller is cancelled while waiting for the slot.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Do(ctx, func(ctx context.Context) error {
		t.Fatal("op must not run after cancellation")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	close(hold)
	<-released
}

func TestNewDispatcherClampsSlots(t *testing.T) {
	d := NewDispatcher(0)
	// A zero/negative bound still yields a working single-slot dispatcher.
	err := d.Do(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
}
