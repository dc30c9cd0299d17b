package geocode

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterCallDelay is the minimum spacing between two oracle calls.
const DefaultInterCallDelay = time.Second

// Gate serializes calls to the oracle and spaces them at least interval apart.
// Only one call is in flight at a time; other callers queue until it finishes.
type Gate struct {
	limiter *rate.Limiter
	slot    chan struct{}
}

// NewGate creates a gate. A non-positive interval disables spacing but still
// serializes calls.
func NewGate(interval time.Duration) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		limiter: rate.NewLimiter(limit, 1),
		slot:    make(chan struct{}, 1),
	}
}

// Do waits for the gate and runs fn while holding it.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.slot }()

	if err := g.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return fn(ctx)
}
