package payment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerGateway stops calling the provider after consecutive failures and fails fast
// until the open period elapses.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[*Session]
}

type BreakerSettings struct {
	// ConsecutiveFailures that open the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial request.
	OpenTimeout time.Duration
}

func NewBreakerGateway(next Gateway, s BreakerSettings, logger zerolog.Logger) *BreakerGateway {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[*Session](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		// a caller that gave up is not a provider failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrNoLineItems)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &BreakerGateway{next: next, cb: cb}
}

func (g *BreakerGateway) CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	return g.cb.Execute(func() (*Session, error) {
		return g.next.CreateCheckoutSession(ctx, req)
	})
}

// State reports the breaker state, e.g. "closed" or "open".
func (g *BreakerGateway) State() string {
	return g.cb.State().String()
}
