package ai

import (
	"careerai/internal/config"
	"careerai/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards calls that return T. A nil breaker passes calls
// straight through, which is what a disabled configuration produces.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// newCircuitBreaker returns nil when the breaker is disabled.
func newCircuitBreaker[T any](name string, cfg config.CircuitBreakerConfig, readyToTrip func(gobreaker.Counts) bool, logger *errors.Logger) *CircuitBreaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}
	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// NewGenerateBreaker trips on the configured failure ratio.
func NewGenerateBreaker[T any](cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker[T] {
	return newCircuitBreaker[T]("AI-generate", cfg, func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
	}, logger)
}

// NewModelBreaker is more lenient: model lookups only feed health checks.
func NewModelBreaker[T any](cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker[T] {
	return newCircuitBreaker[T]("AI-model", cfg, func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 5 && failureRatio >= 0.8
	}, logger)
}

// Execute executes the provided function with circuit breaker protection
func (b *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (b *CircuitBreaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (b *CircuitBreaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
