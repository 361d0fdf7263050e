// Package config holds the fail-open environment loaders, validators and
// fallback metrics shared by every component configuration.
//
// A loader never fails: an unset variable yields the default silently, a
// malformed or invalid one yields the default plus a warning. Callers feed
// each Result to a Tracker, which logs the warning and updates the
// component's ConfigMetrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of loading one environment variable.
type Result[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

// LoadEnvString returns the variable, or defaultValue when it is unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnv parses envKey with parse and checks it with validate (may be nil).
// Any failure falls back to defaultValue.
func LoadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return Result[T]{Value: defaultValue}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Result[T]{
			Value:           defaultValue,
			Warning:         fmt.Sprintf("invalid %s=%q: %v, falling back to default %v", envKey, raw, err, defaultValue),
			FallbackApplied: true,
		}
	}
	return Result[T]{Value: v}
}

// LoadEnvWithFallback loads a validated string.
func LoadEnvWithFallback(envKey, defaultValue string, validate func(string) error) Result[string] {
	return LoadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvDuration loads a Go duration string such as "30s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validate func(time.Duration) error) Result[time.Duration] {
	return LoadEnv(envKey, defaultValue, time.ParseDuration, validate)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validate func(int) error) Result[int] {
	return LoadEnv(envKey, defaultValue, func(s string) (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return n, nil
	}, validate)
}

// LoadEnvBool loads a boolean in any form strconv.ParseBool accepts.
func LoadEnvBool(envKey string, defaultValue bool) Result[bool] {
	return LoadEnv(envKey, defaultValue, func(s string) (bool, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("expected true or false")
		}
		return b, nil
	}, nil)
}
