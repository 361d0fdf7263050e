// Package resilience groups the fault tolerance helpers used when talking to
// digest upstreams.
//
// The subpackages provide:
//   - retry: bounded retries with exponential backoff and Retry-After hints
//   - circuitbreaker: per-host circuit breakers built on sony/gobreaker
//
// Usage:
//
//	breakers := circuitbreaker.NewGroup(circuitbreaker.UpstreamConfig)
//	err := retry.WithBackoff(ctx, retry.UpstreamFetchConfig(3), func() error {
//	    _, err := circuitbreaker.Do(breakers.Get(host), func() (*entity.RawResponse, error) {
//	        return doRequest(ctx)
//	    })
//	    return err
//	})
package resilience
