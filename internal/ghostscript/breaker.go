package ghostscript

import (
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/pscheid92/pdfpress/internal/metrics"
)

// newBreaker creates the circuit breaker guarding Ghostscript invocations:
// - WithFailureRateThreshold: 60% failure rate, min 5 requests, 30s rolling window
// - WithDelay: 60s before transitioning from open to half-open
// - WithSuccessThreshold: 1 successful invocation in half-open to close
//
// While the breaker is open, merges skip the subprocess entirely and serve
// the uncompressed output instead of waiting on a known-bad binary.
func newBreaker() circuitbreaker.CircuitBreaker[any] {
	return circuitbreaker.Builder[any]().
		WithFailureRateThreshold(60, 5, 30*time.Second).
		WithDelay(60 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "ghostscript",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)

			metrics.CircuitBreakerStateChanges.WithLabelValues("ghostscript", e.NewState.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues("ghostscript").Set(stateToFloat(e.NewState))
		}).
		Build()
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}
