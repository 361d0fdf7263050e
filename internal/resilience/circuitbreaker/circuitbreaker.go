// Package circuitbreaker guards digest upstream hosts with sony/gobreaker so a
// host that keeps failing is skipped instead of retried on every request.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds the settings of one breaker.
type Config struct {
	Name string

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts periodically. Zero never clears.
	Interval time.Duration
	// Timeout is the open period before the breaker turns half-open.
	Timeout time.Duration

	// The breaker trips once MinRequests have been seen and the failure
	// ratio reaches FailureThreshold.
	FailureThreshold float64
	MinRequests      uint32

	// IsFailure decides which errors count against the host. Nil counts
	// every error.
	IsFailure func(error) bool

	// OnStateChange is called after every transition. It may be nil.
	OnStateChange func(name string, from, to gobreaker.State)

	Logger *slog.Logger
}

// UpstreamConfig returns the settings used for a digest upstream host. It
// only trips after a sustained failure ratio, and ignores errors that say
// nothing about the host's health.
func UpstreamConfig(host string) Config {
	return Config{
		Name:             "upstream:" + host,
		MaxRequests:      2,
		Interval:         2 * time.Minute,
		Timeout:          5 * time.Minute,
		FailureThreshold: 0.8,
		MinRequests:      10,
		IsFailure:        HostFailure,
	}
}

// HostFailure reports whether err reflects on the upstream host. Caller
// cancellation does not, and neither does an error that classifies itself
// as non-retryable (for example a 404 for a wrong path).
func HostFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// CircuitBreaker is a named gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a breaker from cfg.
func New(cfg Config) *CircuitBreaker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}
	if cfg.IsFailure != nil {
		settings.IsSuccessful = func(err error) bool { return !cfg.IsFailure(err) }
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Do runs fn through cb. While the breaker is open, or half-open with its
// trial budget spent, fn is not called and the error satisfies IsRejected.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	out, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	// out is nil when the breaker rejects the call.
	v, _ := out.(T)
	return v, err
}

// IsRejected reports whether err came from the breaker refusing a call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// State returns the current state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen reports whether calls are currently refused outright.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}

// Group holds one breaker per key, created on first use.
type Group struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	configFn func(key string) Config
}

// NewGroup creates a Group whose breakers are configured by configFn.
func NewGroup(configFn func(key string) Config) *Group {
	return &Group{
		breakers: make(map[string]*CircuitBreaker),
		configFn: configFn,
	}
}

// Get returns the breaker for key.
func (g *Group) Get(key string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	cb, ok := g.breakers[key]
	if !ok {
		cb = New(g.configFn(key))
		g.breakers[key] = cb
	}
	return cb
}

// States returns the state name of every breaker, keyed by key.
func (g *Group) States() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]string, len(g.breakers))
	for key, cb := range g.breakers {
		out[key] = cb.State().String()
	}
	return out
}
