package fetcher_test

import (
	"strings"
	"testing"
	"time"

	"daily-digest/internal/infra/fetcher"
)

// ───────────────────────────────────────────────────────────────
// Configuration Unit Tests
// ───────────────────────────────────────────────────────────────

func TestDefaultConfig(t *testing.T) {
	cfg := fetcher.DefaultConfig()

	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.MaxRetries)
	}

	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected Timeout=10s, got %v", cfg.Timeout)
	}

	if cfg.InitialBackoff != time.Second {
		t.Errorf("expected InitialBackoff=1s, got %v", cfg.InitialBackoff)
	}

	if cfg.MaxBackoff != 30*time.Second {
		t.Errorf("expected MaxBackoff=30s, got %v", cfg.MaxBackoff)
	}

	if cfg.BackoffMultiplier != 1.5 {
		t.Errorf("expected BackoffMultiplier=1.5, got %v", cfg.BackoffMultiplier)
	}

	if cfg.MaxBodySize != 10*1024*1024 {
		t.Errorf("expected MaxBodySize=10MB, got %d", cfg.MaxBodySize)
	}

	if cfg.MaxRedirects != 5 {
		t.Errorf("expected MaxRedirects=5, got %d", cfg.MaxRedirects)
	}

	if !strings.HasPrefix(cfg.UserAgent, "Mozilla/5.0") {
		t.Errorf("expected browser-like User-Agent, got %q", cfg.UserAgent)
	}

	if cfg.RateLimit != 0 {
		t.Errorf("expected rate limiting disabled by default, got %v", cfg.RateLimit)
	}

	if !cfg.CircuitBreakerEnabled {
		t.Error("expected CircuitBreakerEnabled=true by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fetcher.Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*fetcher.Config) {},
		},
		{
			name:   "zero retries allowed",
			mutate: func(c *fetcher.Config) { c.MaxRetries = 0 },
		},
		{
			name:    "negative retries",
			mutate:  func(c *fetcher.Config) { c.MaxRetries = -1 },
			wantErr: "max retries must be between 0 and 10, got -1",
		},
		{
			name:    "too many retries",
			mutate:  func(c *fetcher.Config) { c.MaxRetries = 11 },
			wantErr: "max retries must be between 0 and 10, got 11",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *fetcher.Config) { c.Timeout = 0 },
			wantErr: "timeout must be positive, got 0s",
		},
		{
			name:    "zero initial backoff",
			mutate:  func(c *fetcher.Config) { c.InitialBackoff = 0 },
			wantErr: "initial backoff must be positive, got 0s",
		},
		{
			name: "max backoff below initial",
			mutate: func(c *fetcher.Config) {
				c.InitialBackoff = 2 * time.Second
				c.MaxBackoff = time.Second
			},
			wantErr: "max backoff (1s) must not be less than initial backoff (2s)",
		},
		{
			name:    "shrinking multiplier",
			mutate:  func(c *fetcher.Config) { c.BackoffMultiplier = 0.5 },
			wantErr: "backoff multiplier must be at least 1, got 0.5",
		},
		{
			name:    "body size too small",
			mutate:  func(c *fetcher.Config) { c.MaxBodySize = 100 },
			wantErr: "max body size must be between 1024 and 104857600 bytes, got 100",
		},
		{
			name:    "too many redirects",
			mutate:  func(c *fetcher.Config) { c.MaxRedirects = 11 },
			wantErr: "max redirects must be between 0 and 10, got 11",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *fetcher.Config) { c.RateLimit = -1 },
			wantErr: "rate limit must be non-negative, got -1",
		},
		{
			name: "rate limit without burst",
			mutate: func(c *fetcher.Config) {
				c.RateLimit = 5
				c.RateBurst = 0
			},
			wantErr: "rate burst must be at least 1 when rate limiting is enabled, got 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fetcher.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("unexpected error message: got %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	def := fetcher.DefaultConfig()
	if cfg.MaxRetries != def.MaxRetries || cfg.Timeout != def.Timeout {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("FETCH_INITIAL_BACKOFF", "200ms")
	t.Setenv("FETCH_MAX_BACKOFF", "5s")
	t.Setenv("FETCH_BACKOFF_MULTIPLIER", "2")
	t.Setenv("FETCH_MAX_BODY_SIZE", "2048")
	t.Setenv("FETCH_MAX_REDIRECTS", "2")
	t.Setenv("FETCH_USER_AGENT", "digest-test/1.0")
	t.Setenv("FETCH_RATE_LIMIT", "2.5")
	t.Setenv("FETCH_RATE_BURST", "4")
	t.Setenv("FETCH_CIRCUIT_BREAKER_ENABLED", "false")
	t.Setenv("FETCH_DENY_PRIVATE_IPS", "true")

	cfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.MaxRetries != 5 {
		t.Errorf("expected MaxRetries=5, got %d", cfg.MaxRetries)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("expected Timeout=3s, got %v", cfg.Timeout)
	}
	if cfg.InitialBackoff != 200*time.Millisecond {
		t.Errorf("expected InitialBackoff=200ms, got %v", cfg.InitialBackoff)
	}
	if cfg.MaxBackoff != 5*time.Second {
		t.Errorf("expected MaxBackoff=5s, got %v", cfg.MaxBackoff)
	}
	if cfg.BackoffMultiplier != 2 {
		t.Errorf("expected BackoffMultiplier=2, got %v", cfg.BackoffMultiplier)
	}
	if cfg.MaxBodySize != 2048 {
		t.Errorf("expected MaxBodySize=2048, got %d", cfg.MaxBodySize)
	}
	if cfg.MaxRedirects != 2 {
		t.Errorf("expected MaxRedirects=2, got %d", cfg.MaxRedirects)
	}
	if cfg.UserAgent != "digest-test/1.0" {
		t.Errorf("expected custom User-Agent, got %q", cfg.UserAgent)
	}
	if cfg.RateLimit != 2.5 || cfg.RateBurst != 4 {
		t.Errorf("expected rate 2.5/4, got %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
	if !cfg.DenyPrivateIPs {
		t.Error("expected private addresses denied")
	}
	if cfg.CircuitBreakerEnabled {
		t.Error("expected circuit breaker disabled")
	}
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "retries not a number", key: "MAX_RETRIES", value: "three"},
		{name: "bad timeout", key: "FETCH_TIMEOUT", value: "10"},
		{name: "bad multiplier", key: "FETCH_BACKOFF_MULTIPLIER", value: "fast"},
		{name: "bad body size", key: "FETCH_MAX_BODY_SIZE", value: "10MB"},
		{name: "bad rate", key: "FETCH_RATE_LIMIT", value: "many"},
		{name: "out of range retries", key: "MAX_RETRIES", value: "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := fetcher.LoadConfigFromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
