package mail

import (
	"context"
	"time"

	"github.com/noah-isme/outreach-mail/internal/resilience"
)

// Guarded decorates a Transport with a per-call timeout and a circuit
// breaker. While the breaker is open calls fail fast with
// resilience.ErrOpenCircuit.
type Guarded struct {
	Next    Transport
	Breaker *resilience.Breaker
	Timeout time.Duration
}

// Send implements Transport.
func (g Guarded) Send(ctx context.Context, msg Message) error {
	call := func(ctx context.Context) error {
		if g.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.Timeout)
			defer cancel()
		}
		return g.Next.Send(ctx, msg)
	}
	if g.Breaker == nil {
		return call(ctx)
	}
	return g.Breaker.Do(ctx, call)
}

// Healthy reports whether the guarded transport is currently accepting calls.
func (g Guarded) Healthy() bool {
	return g.Breaker == nil || g.Breaker.State() != resilience.Open
}
