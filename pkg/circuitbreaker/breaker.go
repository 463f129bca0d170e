package circuitbreaker

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/metrics"
	"go.uber.org/zap"
)

// Config describes a breaker guarding one upstream
type Config struct {
	Name             string
	HalfOpenRequests uint32        // probes let through while half-open
	Window           time.Duration // closed-state failure counts reset after this
	Cooldown         time.Duration // how long the breaker stays open
	MinRequests      uint32
	FailureRatio     float64

	// IsOutage reports whether err counts against the upstream. Errors it
	// rejects pass through without moving the breaker. Nil counts every error.
	IsOutage func(err error) bool
}

// DefaultConfig trips after 5 requests with at least 60% outages
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		HalfOpenRequests: 3,
		Window:           60 * time.Second,
		Cooldown:         30 * time.Second,
		MinRequests:      5,
		FailureRatio:     0.6,
	}
}

// NewCircuitBreaker builds a gobreaker from cfg and publishes its state
func NewCircuitBreaker(cfg Config) *gobreaker.CircuitBreaker {
	isOutage := cfg.IsOutage

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return isOutage != nil && !isOutage(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			fields := []zap.Field{
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			}
			if to == gobreaker.StateOpen {
				logger.Warn("Circuit breaker opened, serving cached and fallback content", fields...)
				return
			}
			logger.Info("Circuit breaker state changed", fields...)
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(stateValue(cb.State()))
	return cb
}

// Execute runs fn through cb, keeping fn's result type
func Execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, FormatError(cb.Name(), err)
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker %q returned %T", cb.Name(), result)
	}
	return typed, nil
}

// IsOpen reports whether err was produced by a breaker refusing the call
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// GetState returns the breaker state name: closed, half-open or open
func GetState(cb *gobreaker.CircuitBreaker) string {
	return cb.State().String()
}

// FormatError names the breaker in refusals and leaves other errors untouched
func FormatError(breakerName string, err error) error {
	if IsOpen(err) {
		return fmt.Errorf("content service circuit %q refused the call: %w", breakerName, err)
	}
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
