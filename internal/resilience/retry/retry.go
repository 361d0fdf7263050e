// Package retry provides retry logic with exponential backoff.
// It helps handle transient upstream failures by automatically retrying failed operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"syscall"
	"time"
)

// Config holds the configuration for retry logic.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one
	MaxAttempts int

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay caps any single wait, including server Retry-After hints.
	// Zero disables the ceiling.
	MaxDelay time.Duration

	// Multiplier is the multiplier for exponential backoff
	Multiplier float64

	// JitterFraction is the fraction of delay to add as random jitter (0.0 to 1.0)
	JitterFraction float64

	// OnRetry, when set, is called before each wait with the failed attempt
	// number and replaces the default warning log.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// UpstreamFetchConfig returns the configuration used for digest upstreams:
// maxRetries retries after the first attempt, a 1s initial delay growing
// by 1.5 per retry, and no jitter so waits stay predictable.
func UpstreamFetchConfig(maxRetries int) Config {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return Config{
		MaxAttempts:    maxRetries + 1,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     1.5,
		JitterFraction: 0,
	}
}

// Classifier is implemented by errors that know whether they are retryable.
type Classifier interface {
	Retryable() bool
}

// RetryAfterHinter is implemented by errors that carry a server-provided
// delay. A hinted wait replaces the backoff delay for that retry and does
// not grow it.
type RetryAfterHinter interface {
	RetryAfterHint() (time.Duration, bool)
}

// WithBackoff executes the given function with retry logic and exponential backoff.
// It returns nil if the function succeeds. A non-retryable error is returned
// as is after the attempt that produced it. When every attempt fails the
// last error is returned wrapped.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()

		if lastErr == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry",
					slog.Int("attempt", attempt))
			}
			return nil
		}

		if !IsRetryable(lastErr) {
			slog.Debug("non-retryable error, aborting",
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			return lastErr
		}

		// Don't wait after last attempt
		if attempt == cfg.MaxAttempts {
			break
		}

		wait, grow := nextWait(lastErr, delay, cfg)

		// A caller hook owns the retry log line.
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr, wait)
		} else {
			slog.Warn("operation failed, retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", cfg.MaxAttempts),
				slog.Duration("delay", wait),
				slog.Any("error", lastErr))
		}

		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}

		if grow {
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

// nextWait picks the wait before the next attempt and whether the backoff
// delay should grow afterwards.
func nextWait(err error, delay time.Duration, cfg Config) (time.Duration, bool) {
	var hinter RetryAfterHinter
	if errors.As(err, &hinter) {
		if hint, ok := hinter.RetryAfterHint(); ok {
			if cfg.MaxDelay > 0 && hint > cfg.MaxDelay {
				hint = cfg.MaxDelay
			}
			return hint, false
		}
	}
	wait := addJitter(delay, cfg.JitterFraction)
	if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
		wait = cfg.MaxDelay
	}
	return wait, true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRetryable determines if an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		var classifier Classifier
		if errors.As(err, &classifier) {
			// A per-attempt timeout surfaces as DeadlineExceeded inside a
			// classified transport error and stays retryable.
			return classifier.Retryable()
		}
		return false
	}

	var classifier Classifier
	if errors.As(err, &classifier) {
		return classifier.Retryable()
	}

	// Network errors (timeout)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Syscall errors
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	return false
}

// addJitter adds random jitter to a duration to prevent thundering herd.
func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- Using math/rand is acceptable for jitter calculation.
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}
