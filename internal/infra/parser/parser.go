// Package parser decodes raw upstream responses into content bundles.
// Each entity.ParserKind maps to exactly one decoder in a Registry.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"daily-digest/internal/domain/entity"
	"daily-digest/internal/observability/metrics"
)

// timeLayout is used for bundle update times generated locally.
const timeLayout = "2006-01-02 15:04:05"

// Parser decodes one upstream response.
type Parser interface {
	Parse(resp *entity.RawResponse) (*entity.ContentBundle, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(resp *entity.RawResponse) (*entity.ContentBundle, error)

// Parse calls f(resp).
func (f ParserFunc) Parse(resp *entity.RawResponse) (*entity.ContentBundle, error) {
	return f(resp)
}

// Registry maps parser kinds to decoders.
//
// Thread safety: Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	parsers map[entity.ParserKind]Parser
	logger  *slog.Logger
}

// Option customizes a Registry.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock sets the clock used for generated update times and dated titles.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewRegistry returns a Registry with a decoder for every parser kind.
func NewRegistry(opts ...Option) *Registry {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	d := &decoders{now: o.now}
	r := &Registry{
		parsers: map[entity.ParserKind]Parser{
			entity.ParserDefault:      ParserFunc(d.plainList),
			entity.ParserEnvelope:     ParserFunc(d.envelope),
			entity.ParserHotList:      ParserFunc(d.hotList),
			entity.ParserRSS:          ParserFunc(d.rss),
			entity.ParserBinaryImage:  ParserFunc(d.binaryImage),
			entity.ParserHistoryToday: ParserFunc(d.historyToday),
			entity.ParserNegotiated:   ParserFunc(d.negotiated),
		},
		logger: o.logger,
	}
	return r
}

// Register replaces the decoder for kind. Only known kinds can be registered.
func (r *Registry) Register(kind entity.ParserKind, p Parser) error {
	if !kind.Valid() {
		return unknownParser(kind)
	}
	if p == nil {
		return fmt.Errorf("register %s: nil parser", kind)
	}
	r.mu.Lock()
	r.parsers[kind] = p
	r.mu.Unlock()
	return nil
}

// Lookup returns the decoder for kind.
func (r *Registry) Lookup(kind entity.ParserKind) (Parser, error) {
	r.mu.RLock()
	p, ok := r.parsers[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, unknownParser(kind)
	}
	return p, nil
}

// Kinds returns the registered parser kinds in name order.
func (r *Registry) Kinds() []entity.ParserKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]entity.ParserKind, 0, len(r.parsers))
	for k := range r.parsers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Parse decodes resp with the decoder registered for kind.
//
// Every decoding failure, panics included, is returned as *entity.ParseError.
// A bundle without items and without a binary payload is an error wrapping
// entity.ErrEmptyContent.
func (r *Registry) Parse(kind entity.ParserKind, resp *entity.RawResponse) (bundle *entity.ContentBundle, err error) {
	p, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, &entity.ParseError{Parser: kind, Message: "nil response"}
	}

	defer func() {
		if rec := recover(); rec != nil {
			bundle = nil
			err = &entity.ParseError{Parser: kind, Message: fmt.Sprintf("panic while decoding: %v", rec)}
		}
		if err != nil {
			metrics.RecordParseFailure(kind.String())
			r.logger.Warn("parse failed",
				slog.String("parser", kind.String()),
				slog.String("url", resp.URL),
				slog.Any("error", err))
		}
	}()

	bundle, err = p.Parse(resp)
	if err != nil {
		var parseErr *entity.ParseError
		if errors.As(err, &parseErr) {
			return nil, err
		}
		return nil, &entity.ParseError{Parser: kind, Message: "decode failed", Err: err}
	}
	if bundle == nil || (len(bundle.Items) == 0 && !bundle.HasBinary()) {
		return nil, &entity.ParseError{Parser: kind, Message: "no usable items", Err: entity.ErrEmptyContent}
	}
	return bundle, nil
}

func unknownParser(kind entity.ParserKind) error {
	return &entity.ConfigurationError{
		Field:   "parser",
		Message: fmt.Sprintf("no parser registered for %q", string(kind)),
		Err:     entity.ErrUnknownParser,
	}
}

// decoders holds the built-in decoders and the state they share.
type decoders struct {
	now func() time.Time
}

func (d *decoders) stamp() string {
	return d.now().Format(timeLayout)
}
