package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"daily-digest/internal/domain/entity"
	"daily-digest/internal/observability/metrics"
	"daily-digest/internal/resilience/circuitbreaker"
	"daily-digest/internal/resilience/retry"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Request describes one upstream fetch.
type Request struct {
	URL string
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Timeout applies to each attempt. Zero uses the executor default.
	Timeout time.Duration
	// Headers override the default request headers.
	Headers map[string]string
	// Query is appended to any query already present in URL.
	Query map[string]string
}

// Executor performs GET requests against digest upstreams with bounded
// retries, per-attempt timeouts and per-host protection.
//
// Thread safety: Executor is safe for concurrent use.
type Executor struct {
	client   *http.Client
	config   Config
	breakers *circuitbreaker.Group
	logger   *slog.Logger
	resolver *net.Resolver

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Option customizes an Executor.
type Option func(*Executor)

// WithHTTPClient replaces the HTTP client. The redirect policy of the
// given client is left untouched.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) {
		e.client = client
	}
}

// WithLogger sets the logger used for retry and failure messages.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithResolver sets the resolver used when DenyPrivateIPs is enabled.
func WithResolver(resolver *net.Resolver) Option {
	return func(e *Executor) {
		e.resolver = resolver
	}
}

// NewExecutor creates an Executor from the given configuration.
func NewExecutor(cfg Config, opts ...Option) *Executor {
	e := &Executor{
		config:   cfg,
		logger:   slog.Default(),
		resolver: net.DefaultResolver,
		limiters: make(map[string]*rate.Limiter),
	}
	if cfg.CircuitBreakerEnabled {
		e.breakers = circuitbreaker.NewGroup(func(host string) circuitbreaker.Config {
			c := circuitbreaker.UpstreamConfig(host)
			c.Logger = e.logger
			c.OnStateChange = func(_ string, _, to gobreaker.State) {
				metrics.SetBreakerState(host, int(to))
			}
			return c
		})
	}

	e.client = &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > e.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			return nil
		},
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewRequest returns a Request for rawURL carrying the configured retry
// count and timeout.
func (e *Executor) NewRequest(rawURL string) Request {
	return Request{
		URL:        rawURL,
		MaxRetries: e.config.MaxRetries,
		Timeout:    e.config.Timeout,
	}
}

// BreakerStates reports the state of every per-host circuit breaker.
func (e *Executor) BreakerStates() map[string]string {
	if e.breakers == nil {
		return map[string]string{}
	}
	return e.breakers.States()
}

// Fetch performs req and returns the fully read response.
//
// Any 2xx status is a success. 429, 500, 502, 503 and 504 as well as
// transport failures and timeouts are retried up to req.MaxRetries times;
// a numeric Retry-After header replaces the wait for that retry. Any other
// status fails immediately. When the caller's context ends the fetch stops
// and the context error is returned as is.
func (e *Executor) Fetch(ctx context.Context, req Request) (*entity.RawResponse, error) {
	target, err := buildURL(req.URL, req.Query)
	if err != nil {
		return nil, err
	}
	host := target.Host
	targetURL := target.String()

	if e.config.DenyPrivateIPs {
		if err := checkHost(ctx, e.resolver, target.Hostname()); err != nil {
			metrics.RecordUpstreamAttempt(host, "blocked")
			return nil, err
		}
	}

	rcfg := retry.UpstreamFetchConfig(req.MaxRetries)
	rcfg.InitialDelay = e.config.InitialBackoff
	rcfg.MaxDelay = e.config.MaxBackoff
	rcfg.Multiplier = e.config.BackoffMultiplier
	rcfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		metrics.RecordUpstreamRetry(host)
		e.logger.Warn("upstream attempt failed",
			slog.String("url", targetURL),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Any("error", err))
	}

	start := time.Now()
	var resp *entity.RawResponse
	err = retry.WithBackoff(ctx, rcfg, func() error {
		r, err := e.attempt(ctx, targetURL, host, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})

	size := 0
	if resp != nil {
		size = len(resp.Body)
	}
	metrics.RecordUpstreamFetch(host, time.Since(start), size)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return resp, nil
}

func (e *Executor) attempt(ctx context.Context, targetURL, host string, req Request) (*entity.RawResponse, error) {
	if err := e.wait(ctx, host); err != nil {
		return nil, err
	}

	if e.breakers == nil {
		return e.do(ctx, targetURL, host, req)
	}

	resp, err := circuitbreaker.Do(e.breakers.Get(host), func() (*entity.RawResponse, error) {
		return e.do(ctx, targetURL, host, req)
	})
	if circuitbreaker.IsRejected(err) {
		metrics.RecordUpstreamAttempt(host, "circuit_open")
		return nil, fmt.Errorf("%w for %s: %v", ErrCircuitOpen, host, err)
	}
	return resp, err
}

// wait blocks on the per-host rate limiter when limiting is enabled.
func (e *Executor) wait(ctx context.Context, host string) error {
	if e.config.RateLimit <= 0 {
		return nil
	}
	e.mu.Lock()
	lim, ok := e.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(e.config.RateLimit), e.config.RateBurst)
		e.limiters[host] = lim
	}
	e.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("rate limiter for %s: %w", host, err)
	}
	return nil
}

func (e *Executor) do(ctx context.Context, targetURL, host string, req Request) (*entity.RawResponse, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.config.Timeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", targetURL, err)
	}
	httpReq.Header.Set("User-Agent", e.userAgent())
	httpReq.Header.Set("Accept", "*/*")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, e.transportError(ctx, attemptCtx, targetURL, host, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.config.MaxBodySize+1))
	if err != nil {
		return nil, e.transportError(ctx, attemptCtx, targetURL, host, err)
	}
	if int64(len(body)) > e.config.MaxBodySize {
		metrics.RecordUpstreamAttempt(host, "http_error")
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, targetURL, e.config.MaxBodySize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordUpstreamAttempt(host, "http_error")
		statusErr := &entity.HTTPStatusError{URL: targetURL, StatusCode: resp.StatusCode}
		if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			statusErr.RetryAfter = d
			statusErr.HasRetryAfter = true
		}
		return nil, statusErr
	}

	metrics.RecordUpstreamAttempt(host, "success")
	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &entity.RawResponse{
		URL:        finalURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// transportError classifies a failed round trip. Cancellation of the
// caller's context is returned unclassified so it is never retried.
func (e *Executor) transportError(ctx, attemptCtx context.Context, targetURL, host string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, ErrTooManyRedirects) {
		metrics.RecordUpstreamAttempt(host, "http_error")
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return urlErr.Err
		}
		return err
	}

	timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timedOut = true
	}
	if timedOut {
		metrics.RecordUpstreamAttempt(host, "timeout")
	} else {
		metrics.RecordUpstreamAttempt(host, "transport_error")
	}
	return &entity.TransportError{URL: targetURL, Timeout: timedOut, Err: err}
}

func (e *Executor) userAgent() string {
	if e.config.UserAgent != "" {
		return e.config.UserAgent
	}
	return DefaultUserAgent
}

// buildURL validates rawURL and appends query to its existing query string.
func buildURL(rawURL string, query map[string]string) (*url.URL, error) {
	u, err := entity.ParseSourceURL(rawURL)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		values := u.Query()
		for k, v := range query {
			values.Set(k, v)
		}
		u.RawQuery = values.Encode()
	}
	return u, nil
}

// parseRetryAfter accepts the delay-seconds form of Retry-After only.
func parseRetryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
