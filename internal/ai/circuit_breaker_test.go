package ai

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/sony/gobreaker/v2"
)

func TestIndependentCircuitBreakers(t *testing.T) {
	analyzeCB := NewCircuitBreaker(types.OperationAnalyze, &config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}, nil)
	boostCB := NewCircuitBreaker(types.OperationBoost, &config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          45 * time.Second,
		MinRequests:      2,
		FailureThreshold: 0.7,
	}, nil)

	tests := []struct {
		name string
		cb   *CircuitBreaker
		want string
	}{
		{name: "analyze", cb: analyzeCB, want: "AI-analyze"},
		{name: "boost", cb: boostCB, want: "AI-boost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := tt.cb.Stats()

			name, ok := stats["name"].(string)
			if !ok {
				t.Fatal("Circuit breaker name not found")
			}
			if name != tt.want {
				t.Errorf("Expected circuit breaker name '%s', got '%s'", tt.want, name)
			}
			if state := stats["state"]; state != "closed" {
				t.Errorf("Expected initial state 'closed', got '%v'", state)
			}
			if enabled, _ := stats["enabled"].(bool); !enabled {
				t.Error("Circuit breaker should be enabled")
			}
			if !tt.cb.IsHealthy() {
				t.Error("Circuit breaker should be healthy initially")
			}
		})
	}

	if analyzeCB == boostCB {
		t.Error("Operations should not share a circuit breaker")
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	for name, cfg := range map[string]*config.CircuitBreakerConfig{
		"nil":      nil,
		"disabled": {Enabled: false, MaxRequests: 3},
	} {
		t.Run(name, func(t *testing.T) {
			cb := NewCircuitBreaker(types.OperationCustom, cfg, nil)
			if cb != nil {
				t.Fatal("Circuit breaker should be nil when disabled")
			}

			calls := 0
			_, err := cb.Execute(func() (*Completion, error) {
				calls++
				return &Completion{Text: "ok"}, nil
			})
			if err != nil || calls != 1 {
				t.Errorf("nil breaker should run the call directly, calls=%d err=%v", calls, err)
			}
			if !cb.IsHealthy() {
				t.Error("A disabled breaker is always healthy")
			}
			if enabled := cb.Stats()["enabled"]; enabled != false {
				t.Errorf("Expected enabled=false, got %v", enabled)
			}
		})
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker(types.OperationAnalyze, &config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}, nil)

	failing := func() (*Completion, error) { return nil, stderrors.New("boom") }
	for range 2 {
		_, _ = cb.Execute(failing)
	}

	if cb.IsHealthy() {
		t.Fatal("Circuit breaker should be open after repeated failures")
	}

	calls := 0
	_, err := cb.Execute(func() (*Completion, error) {
		calls++
		return &Completion{}, nil
	})
	if !stderrors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected ErrOpenState, got %v", err)
	}
	if calls != 0 {
		t.Error("An open breaker must not call the provider")
	}
}
