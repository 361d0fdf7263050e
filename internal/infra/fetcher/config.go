package fetcher

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultUserAgent is sent when neither the configuration nor the caller
// provides a User-Agent. Several upstreams reject requests without a
// browser-like agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds the configuration for upstream fetch operations.
//
// Retry settings:
//   - MaxRetries: retries after the first attempt (total attempts = MaxRetries + 1)
//   - InitialBackoff, BackoffMultiplier, MaxBackoff: exponential backoff between attempts
//
// Limits:
//   - Timeout: per-attempt deadline
//   - MaxBodySize: prevents memory exhaustion from oversized responses
//   - MaxRedirects: prevents redirect loops
//
// Protection of upstreams:
//   - RateLimit, RateBurst: per-host token bucket (0 disables)
//   - CircuitBreakerEnabled: per-host circuit breaker
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	// Default: 3
	MaxRetries int

	// Timeout is the maximum duration for a single attempt.
	// Default: 10s
	Timeout time.Duration

	// InitialBackoff is the wait before the first retry.
	// Default: 1s
	InitialBackoff time.Duration

	// MaxBackoff caps any single wait, including Retry-After hints.
	// Default: 30s
	MaxBackoff time.Duration

	// BackoffMultiplier grows the wait after each retry that had no Retry-After hint.
	// Default: 1.5
	BackoffMultiplier float64

	// MaxBodySize is the maximum HTTP response body size in bytes.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Default: 5
	MaxRedirects int

	// UserAgent is the default User-Agent header. Callers may override it per request.
	UserAgent string

	// RateLimit is the number of requests per second allowed per host. 0 disables limiting.
	// Default: 0
	RateLimit float64

	// RateBurst is the token bucket size used when RateLimit is set.
	// Default: 2
	RateBurst int

	// CircuitBreakerEnabled wraps each host in its own circuit breaker.
	// Default: true
	CircuitBreakerEnabled bool

	// DenyPrivateIPs rejects source hosts that resolve to loopback, private
	// or link-local addresses. Useful when the catalog is user supplied.
	// Default: false
	DenyPrivateIPs bool
}

// DefaultConfig returns the default configuration for upstream fetching.
func DefaultConfig() Config {
	return Config{
		MaxRetries:            3,
		Timeout:               10 * time.Second,
		InitialBackoff:        1 * time.Second,
		MaxBackoff:            30 * time.Second,
		BackoffMultiplier:     1.5,
		MaxBodySize:           10 * 1024 * 1024, // 10MB
		MaxRedirects:          5,
		UserAgent:             DefaultUserAgent,
		RateLimit:             0,
		RateBurst:             2,
		CircuitBreakerEnabled: true,
	}
}

// Validate checks if the configuration values are valid.
//
// Validation rules:
//   - MaxRetries: 0-10
//   - Timeout: > 0
//   - InitialBackoff: > 0, MaxBackoff >= InitialBackoff
//   - BackoffMultiplier: >= 1
//   - MaxBodySize: 1KB-100MB
//   - MaxRedirects: 0-10
//   - RateLimit: >= 0, RateBurst >= 1 when limiting is enabled
func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max retries must be between 0 and 10, got %d", c.MaxRetries)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial backoff must be positive, got %v", c.InitialBackoff)
	}

	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max backoff (%v) must not be less than initial backoff (%v)", c.MaxBackoff, c.InitialBackoff)
	}

	if c.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff multiplier must be at least 1, got %v", c.BackoffMultiplier)
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative, got %v", c.RateLimit)
	}

	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate burst must be at least 1 when rate limiting is enabled, got %d", c.RateBurst)
	}

	return nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// Unset variables keep their default value; malformed values are an error.
// After loading, the configuration is validated.
//
// Environment variables:
//   - MAX_RETRIES: integer (default: 3)
//   - FETCH_TIMEOUT: duration string, e.g., "10s" (default: 10s)
//   - FETCH_INITIAL_BACKOFF: duration string (default: 1s)
//   - FETCH_MAX_BACKOFF: duration string (default: 30s)
//   - FETCH_BACKOFF_MULTIPLIER: float (default: 1.5)
//   - FETCH_MAX_BODY_SIZE: integer in bytes (default: 10485760)
//   - FETCH_MAX_REDIRECTS: integer (default: 5)
//   - FETCH_USER_AGENT: string (default: browser-like agent)
//   - FETCH_RATE_LIMIT: requests per second per host, float (default: 0, disabled)
//   - FETCH_RATE_BURST: integer (default: 2)
//   - FETCH_CIRCUIT_BREAKER_ENABLED: "true" or "false" (default: true)
//   - FETCH_DENY_PRIVATE_IPS: "true" or "false" (default: false)
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if val := os.Getenv("MAX_RETRIES"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid MAX_RETRIES: %v", err)
		}
		cfg.MaxRetries = parsed
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"FETCH_TIMEOUT", &cfg.Timeout},
		{"FETCH_INITIAL_BACKOFF", &cfg.InitialBackoff},
		{"FETCH_MAX_BACKOFF", &cfg.MaxBackoff},
	}
	for _, d := range durations {
		val := os.Getenv(d.key)
		if val == "" {
			continue
		}
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %v (expected format: '10s', '1m')", d.key, err)
		}
		*d.target = parsed
	}

	if val := os.Getenv("FETCH_BACKOFF_MULTIPLIER"); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_BACKOFF_MULTIPLIER: %v", err)
		}
		cfg.BackoffMultiplier = parsed
	}

	if val := os.Getenv("FETCH_MAX_BODY_SIZE"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_MAX_BODY_SIZE: %v", err)
		}
		cfg.MaxBodySize = parsed
	}

	if val := os.Getenv("FETCH_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_MAX_REDIRECTS: %v", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val := os.Getenv("FETCH_USER_AGENT"); val != "" {
		cfg.UserAgent = val
	}

	if val := os.Getenv("FETCH_RATE_LIMIT"); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_RATE_LIMIT: %v", err)
		}
		cfg.RateLimit = parsed
	}

	if val := os.Getenv("FETCH_RATE_BURST"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_RATE_BURST: %v", err)
		}
		cfg.RateBurst = parsed
	}

	if val := os.Getenv("FETCH_CIRCUIT_BREAKER_ENABLED"); val != "" {
		cfg.CircuitBreakerEnabled = val == "true"
	}

	if val := os.Getenv("FETCH_DENY_PRIVATE_IPS"); val != "" {
		cfg.DenyPrivateIPs = val == "true"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
