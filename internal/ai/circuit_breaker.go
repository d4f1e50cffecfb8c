package ai

import (
	"fmt"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker wraps generation calls for one operation. A nil
// *CircuitBreaker runs calls directly.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*Completion]
}

// NewCircuitBreaker returns nil when cfg is absent or disabled.
func NewCircuitBreaker(op types.Operation, cfg *config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s", op),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation", op,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[*Completion](settings)}
}

// Execute runs fn under the breaker.
func (b *CircuitBreaker) Execute(fn func() (*Completion, error)) (*Completion, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (b *CircuitBreaker) Stats() map[string]any {
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

// IsHealthy reports whether the breaker is closed. A disabled breaker is healthy.
func (b *CircuitBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
