// Package fetch orchestrates digest retrieval: it walks a content type's
// sources in priority order, fetches and decodes each upstream response,
// records the outcome on the source manager, and serves rendered digests
// through the result cache.
package fetch

import "errors"

// Sentinel errors for fetch use case operations.
var (
	// ErrFetchDeadlineExceeded indicates that the overall fetch budget ran out
	// before any source succeeded.
	ErrFetchDeadlineExceeded = errors.New("fetch deadline exceeded")
)
