package invoker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerRegistry manages per-model circuit breakers so a misbehaving
// provider trips its own circuit without affecting tasks bound to other
// models.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerRegistry creates an empty breaker registry.
func NewBreakerRegistry() *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get returns the circuit breaker for the given model, creating it on first
// use.
func (r *BreakerRegistry) Get(model string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[model]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        model,
		MaxRequests: 3,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %q: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation is not a provider failure.
			if err == nil {
				return true
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return false
		},
	})

	r.breakers[model] = cb
	return cb
}

// WithBreaker wraps a capability so every invocation runs through the
// registry's per-model circuit breaker. When a model's circuit is open the
// call fails fast; the failure surfaces as ordinary task-result data.
func WithBreaker(cap Capability, reg *BreakerRegistry) Capability {
	return func(ctx context.Context, model, prompt string, payload map[string]any) (string, error) {
		cb := reg.Get(model)
		result, err := cb.Execute(func() (interface{}, error) {
			return cap(ctx, model, prompt, payload)
		})
		if err != nil {
			return "", err
		}
		return result.(string), nil
	}
}
