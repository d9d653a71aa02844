package agent

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Dispatcher bounds the number of in-flight blocking remote calls
// across all requests. Each call is awaited before the turn proceeds,
// so steps within one turn stay strictly sequential; the bound only
// limits cross-request concurrency against the remote service.
type Dispatcher struct {
	sem *semaphore.Weighted
}

// NewDispatcher creates a dispatcher with the given number of slots.
// Slots below 1 are treated as 1.
func NewDispatcher(slots int64) *Dispatcher {
	if slots < 1 {
		slots = 1
	}
	return &Dispatcher{sem: semaphore.NewWeighted(slots)}
}

// Do runs op after acquiring a slot, releasing it when op returns.
// Waiting for a slot respects context cancellation.
func (d *Dispatcher) Do(ctx context.Context, op func(context.Context) error) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer d.sem.Release(1)
	return op(ctx)
}
