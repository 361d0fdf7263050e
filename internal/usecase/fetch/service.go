package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"daily-digest/internal/config"
	"daily-digest/internal/domain/entity"
	"daily-digest/internal/infra/cache"
	"daily-digest/internal/infra/fetcher"
	"daily-digest/internal/observability/metrics"
	"daily-digest/internal/observability/tracing"
)

// Upstream performs HTTP retrieval with retries.
type Upstream interface {
	Fetch(ctx context.Context, req fetcher.Request) (*entity.RawResponse, error)
}

// Decoder turns raw responses into bundles.
type Decoder interface {
	Parse(kind entity.ParserKind, resp *entity.RawResponse) (*entity.ContentBundle, error)
}

// SourceSelector exposes the source manager operations the orchestrator needs.
type SourceSelector interface {
	Candidates(contentType string) []entity.Source
	RecordResult(ctx context.Context, contentType, url string, success bool)
}

// Config controls the fetch chain.
type Config struct {
	// MaxRetries and Timeout are passed to every upstream request.
	MaxRetries int
	Timeout    time.Duration

	// AutoFailover continues with the remaining sources after a failure.
	AutoFailover bool

	// Deadline bounds a whole chain. 0 means none.
	Deadline time.Duration

	// DefaultFormat is the global format preference used for negotiation.
	DefaultFormat string

	// CacheTTL is passed to the cache on store. 0 selects the cache default.
	CacheTTL time.Duration
}

// FetchOptions adjusts a single FetchData call.
type FetchOptions struct {
	// Params are appended to each source's query string.
	Params map[string]string

	// SourceIndex pins the 1-based position among the enabled sources in
	// priority order. 0 selects the best source with failover.
	SourceIndex int
}

// Service is the digest orchestrator.
type Service struct {
	sources  SourceSelector
	upstream Upstream
	decoder  Decoder
	cache    *cache.Cache
	catalog  *config.Catalog
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	group singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for Digest.FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the orchestrator.
func NewService(
	sources SourceSelector,
	upstream Upstream,
	decoder Decoder,
	resultCache *cache.Cache,
	catalog *config.Catalog,
	cfg Config,
	opts ...Option,
) *Service {
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = entity.FormatImage
	}
	s := &Service{
		sources:  sources,
		upstream: upstream,
		decoder:  decoder,
		cache:    resultCache,
		catalog:  catalog,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the content catalog the service serves.
func (s *Service) Catalog() *config.Catalog {
	return s.catalog
}

// FetchData retrieves a bundle for contentType.
//
// With a pinned SourceIndex exactly that source is tried and its error is
// returned as is. Otherwise sources are tried one at a time in priority
// order, moving on after a failure only when AutoFailover is set. Each
// attempt is recorded on the source manager, except attempts cut short by
// cancellation of ctx or by the chain deadline. When every candidate fails
// the error is a *entity.NoAvailableSourceError carrying the last failure.
func (s *Service) FetchData(ctx context.Context, contentType string, opts FetchOptions) (*entity.ContentBundle, error) {
	ctx, span := tracing.StartSpan(ctx, "digest.fetch_data",
		attribute.String("digest.content_type", contentType),
		attribute.Int("digest.source_index", opts.SourceIndex))

	bundle, err := s.fetchData(ctx, contentType, opts)
	tracing.EndSpan(span, err)
	return bundle, err
}

func (s *Service) fetchData(parent context.Context, contentType string, opts FetchOptions) (*entity.ContentBundle, error) {
	ctx := parent
	if s.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.cfg.Deadline)
		defer cancel()
	}

	if opts.SourceIndex != 0 {
		return s.fetchPinned(ctx, parent, contentType, opts)
	}

	tried := make(map[string]bool)
	var lastErr error
	for {
		// Candidates are re-read after each failure so sources disabled in
		// the meantime are skipped.
		src, ok := nextCandidate(s.sources.Candidates(contentType), tried)
		if !ok {
			break
		}
		if len(tried) > 0 {
			if !s.cfg.AutoFailover {
				s.logger.Debug("failover disabled, not trying other sources",
					slog.String("content_type", contentType))
				break
			}
			metrics.RecordFailover(contentType)
			s.logger.Info("trying alternate source",
				slog.String("content_type", contentType),
				slog.String("url", src.URL),
				slog.Int("priority", src.Priority))
		}
		tried[src.URL] = true

		bundle, err := s.attempt(ctx, contentType, src, opts.Params)
		if err == nil {
			s.sources.RecordResult(ctx, contentType, src.URL, true)
			metrics.RecordDigestFetch(contentType, "success")
			return bundle, nil
		}

		if stopErr := s.interrupted(ctx, parent, contentType, err); stopErr != nil {
			return nil, stopErr
		}

		s.sources.RecordResult(ctx, contentType, src.URL, false)
		s.logger.Warn("source failed",
			slog.String("content_type", contentType),
			slog.String("url", src.URL),
			slog.Any("error", err))
		lastErr = err
	}

	metrics.RecordDigestFetch(contentType, "exhausted")
	if lastErr == nil {
		s.logger.Error("no enabled source", slog.String("content_type", contentType))
	}
	return nil, &entity.NoAvailableSourceError{ContentType: contentType, Cause: lastErr}
}

func (s *Service) fetchPinned(ctx, parent context.Context, contentType string, opts FetchOptions) (*entity.ContentBundle, error) {
	candidates := s.sources.Candidates(contentType)
	if opts.SourceIndex < 1 || opts.SourceIndex > len(candidates) {
		metrics.RecordDigestFetch(contentType, "invalid")
		return nil, &entity.ConfigurationError{
			Field:   "source_index",
			Message: fmt.Sprintf("source index %d out of range [1, %d] for %q", opts.SourceIndex, len(candidates), contentType),
			Err:     entity.ErrSourceIndexOutOfRange,
		}
	}

	src := candidates[opts.SourceIndex-1]
	bundle, err := s.attempt(ctx, contentType, src, opts.Params)
	if err == nil {
		s.sources.RecordResult(ctx, contentType, src.URL, true)
		metrics.RecordDigestFetch(contentType, "success")
		return bundle, nil
	}

	if stopErr := s.interrupted(ctx, parent, contentType, err); stopErr != nil {
		return nil, stopErr
	}

	s.sources.RecordResult(ctx, contentType, src.URL, false)
	metrics.RecordDigestFetch(contentType, "pinned_failure")
	s.logger.Warn("pinned source failed",
		slog.String("content_type", contentType),
		slog.String("url", src.URL),
		slog.Int("source_index", opts.SourceIndex),
		slog.Any("error", err))
	return nil, err
}

// interrupted reports the error to return when the chain context ended
// during an attempt, or nil when the attempt failed on its own.
func (s *Service) interrupted(ctx, parent context.Context, contentType string, attemptErr error) error {
	if ctx.Err() == nil {
		return nil
	}
	if err := parent.Err(); err != nil {
		metrics.RecordDigestFetch(contentType, "canceled")
		return err
	}
	metrics.RecordDigestFetch(contentType, "exhausted")
	s.logger.Warn("fetch deadline exceeded",
		slog.String("content_type", contentType),
		slog.Duration("deadline", s.cfg.Deadline),
		slog.Any("error", attemptErr))
	return &entity.NoAvailableSourceError{
		ContentType: contentType,
		Cause:       fmt.Errorf("%w after %v: %w", ErrFetchDeadlineExceeded, s.cfg.Deadline, attemptErr),
	}
}

// attempt fetches and decodes a single source.
func (s *Service) attempt(ctx context.Context, contentType string, src entity.Source, params map[string]string) (*entity.ContentBundle, error) {
	ctx, span := tracing.StartSpan(ctx, "digest.source_attempt",
		attribute.String("digest.content_type", contentType),
		attribute.String("digest.source_url", src.URL),
		attribute.String("digest.parser", src.Parser.String()))

	resp, err := s.upstream.Fetch(ctx, fetcher.Request{
		URL:        src.URL,
		MaxRetries: s.cfg.MaxRetries,
		Timeout:    s.cfg.Timeout,
		Query:      params,
	})
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}

	bundle, err := s.decoder.Parse(src.Parser, resp)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

func nextCandidate(candidates []entity.Source, tried map[string]bool) (entity.Source, bool) {
	for _, c := range candidates {
		if !tried[c.URL] {
			return c, true
		}
	}
	return entity.Source{}, false
}

// IsCanceled reports whether err comes from the caller's context rather than
// from the sources.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) ||
		(errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrFetchDeadlineExceeded))
}

// IsUpstreamFailure reports whether err is a failure of a source rather than
// of the request, as returned by a pinned fetch.
func IsUpstreamFailure(err error) bool {
	var (
		statusErr    *entity.HTTPStatusError
		transportErr *entity.TransportError
		parseErr     *entity.ParseError
	)
	return errors.As(err, &statusErr) ||
		errors.As(err, &transportErr) ||
		errors.As(err, &parseErr) ||
		errors.Is(err, fetcher.ErrCircuitOpen) ||
		errors.Is(err, fetcher.ErrBodyTooLarge) ||
		errors.Is(err, fetcher.ErrTooManyRedirects) ||
		errors.Is(err, fetcher.ErrPrivateAddress)
}
