package fetcher

import "errors"

var (
	// ErrTooManyRedirects is returned when an upstream redirects more than MaxRedirects times.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge is returned when a response body exceeds MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrCircuitOpen is returned when the circuit breaker for a host rejects the attempt.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrPrivateAddress is returned when DenyPrivateIPs is set and a source
	// host resolves to a loopback, private or link-local address.
	ErrPrivateAddress = errors.New("private address not allowed")
)
