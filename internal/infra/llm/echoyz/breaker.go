package echoyz

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yanqian/echo-chat/internal/domain/summarizer"
)

// BreakerOptions tunes the circuit breaker placed in front of the transport.
type BreakerOptions struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// BreakerTransport trips after consecutive transport failures so a dead endpoint fails fast.
// HTTP statuses are not failures here; the request loop already classifies them.
type BreakerTransport struct {
	next    summarizer.Transport
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerTransport wraps next with a gobreaker circuit breaker.
func NewBreakerTransport(next summarizer.Transport, opts BreakerOptions, logger *slog.Logger) *BreakerTransport {
	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	logger = logger.With("component", "echoyz.breaker")
	settings := gobreaker.Settings{
		Name:        "echoyz-generate",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerTransport{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Post forwards to the wrapped transport unless the breaker is open.
func (b *BreakerTransport) Post(ctx context.Context, payload summarizer.Payload) (summarizer.Reply, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Post(ctx, payload)
	})
	if err != nil {
		return summarizer.Reply{}, err
	}
	return out.(summarizer.Reply), nil
}

// State exposes the breaker state for health reporting.
func (b *BreakerTransport) State() string {
	return b.breaker.State().String()
}

var _ summarizer.Transport = (*BreakerTransport)(nil)
