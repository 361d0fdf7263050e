package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"daily-digest/internal/config"
	"daily-digest/internal/domain/entity"
	"daily-digest/internal/infra/cache"
	"daily-digest/internal/observability/tracing"
)

// formatParam is the query parameter understood by upstreams that can render
// the same digest as an image or as JSON.
const formatParam = "format"

// DigestRequest describes a consumer request.
type DigestRequest struct {
	// ContentType is a catalog name or alias.
	ContentType string
	// Format is "image" or "text". Empty selects the content type default.
	Format string
	// SourceIndex pins a source, see FetchOptions.
	SourceIndex int
	// Refresh skips the cache lookup. The result is still stored.
	Refresh bool
}

// Digest is a post-processed bundle ready for presentation.
type Digest struct {
	ContentType string                `json:"type"`
	Format      string                `json:"format"`
	SourceIndex int                   `json:"source_index,omitempty"`
	Bundle      *entity.ContentBundle `json:"bundle"`
	Cached      bool                  `json:"cached"`
	FetchedAt   time.Time             `json:"fetched_at"`
}

// Get returns the digest for req, from the cache when possible.
//
// Concurrent misses for the same cache slot share one fetch. A caller whose
// ctx ends returns ctx.Err() without affecting the others.
func (s *Service) Get(ctx context.Context, req DigestRequest) (*Digest, error) {
	ct, ok := s.catalog.Resolve(req.ContentType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownContentType, req.ContentType)
	}

	format := req.Format
	if format == "" {
		format = ct.DefaultFormat
	}
	if !ct.SupportsFormat(format) {
		return nil, fmt.Errorf("%w: %q is not offered by %q", entity.ErrUnsupportedFormat, format, ct.Name)
	}

	if !req.Refresh {
		if payload, hit := s.cache.Get(ct.Name, format, req.SourceIndex); hit {
			if d, ok := payload.(*Digest); ok {
				out := *d
				out.Cached = true
				return &out, nil
			}
		}
	}

	// The shared load is detached from the first caller's cancellation and
	// bounded by the chain deadline and per-attempt timeouts instead.
	key := cache.Key(ct.Name, format, req.SourceIndex)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.load(context.WithoutCancel(ctx), ct, format, req.SourceIndex)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("coalesced digest request", slog.String("key", key))
		}
		out := *res.Val.(*Digest)
		return &out, nil
	}
}

// load fetches, post-processes and caches one digest.
func (s *Service) load(ctx context.Context, ct *config.ContentType, format string, sourceIndex int) (*Digest, error) {
	ctx, span := tracing.StartSpan(ctx, "digest.get",
		attribute.String("digest.content_type", ct.Name),
		attribute.String("digest.format", format))

	bundle, err := s.negotiate(ctx, ct, format, sourceIndex)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	d := &Digest{
		ContentType: ct.Name,
		Format:      format,
		SourceIndex: sourceIndex,
		Bundle:      postProcess(bundle, ct.MaxItems),
		FetchedAt:   s.now(),
	}
	s.cache.Set(ct.Name, format, d, s.cfg.CacheTTL, sourceIndex)
	return d, nil
}

// negotiate picks the upstream format parameter for content types that take
// one. When the global preference is text an image request first tries the
// JSON rendering and falls back to the image one if that yields nothing.
// Pinned requests never fall back.
func (s *Service) negotiate(ctx context.Context, ct *config.ContentType, format string, sourceIndex int) (*entity.ContentBundle, error) {
	opts := FetchOptions{SourceIndex: sourceIndex}
	if !ct.FormatParam {
		return s.FetchData(ctx, ct.Name, opts)
	}

	if format == entity.FormatText {
		opts.Params = map[string]string{formatParam: "json"}
		return s.FetchData(ctx, ct.Name, opts)
	}

	if s.cfg.DefaultFormat == entity.FormatText && sourceIndex == 0 {
		opts.Params = map[string]string{formatParam: "json"}
		bundle, err := s.FetchData(ctx, ct.Name, opts)
		if err == nil && (bundle.Len() > 0 || bundle.HasBinary()) {
			return bundle, nil
		}
		if err != nil && IsCanceled(err) {
			return nil, err
		}
		s.logger.Info("json rendering unavailable, falling back to image",
			slog.String("content_type", ct.Name),
			slog.Any("error", err))
	}

	opts.Params = map[string]string{formatParam: entity.FormatImage}
	return s.FetchData(ctx, ct.Name, opts)
}

// postProcess caps the item list and fills missing positions and links.
// The input bundle is not modified.
func postProcess(bundle *entity.ContentBundle, maxItems int) *entity.ContentBundle {
	out := bundle.Clone()
	if maxItems > 0 && len(out.Items) > maxItems {
		out.Items = out.Items[:maxItems]
	}
	for i := range out.Items {
		if out.Items[i].Index <= 0 {
			out.Items[i].Index = i + 1
		}
		if out.Items[i].URL == "" {
			out.Items[i].URL = "#"
		}
	}
	return out
}

// Warm refreshes the cached digest of contentType in its default format.
func (s *Service) Warm(ctx context.Context, contentType string) error {
	_, err := s.Get(ctx, DigestRequest{ContentType: contentType, Refresh: true})
	return err
}
