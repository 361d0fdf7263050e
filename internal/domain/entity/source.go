package entity

import (
	"fmt"
	"strings"
	"time"
)

// ParserKind identifies the decoder used for a source's responses.
// The set is closed: unknown names are rejected when the catalog is loaded.
type ParserKind string

const (
	// ParserDefault decodes a JSON list of {title, url} objects.
	ParserDefault ParserKind = "default"
	// ParserEnvelope decodes a vendor envelope with a success flag and a data array.
	ParserEnvelope ParserKind = "envelope"
	// ParserHotList decodes a JSON list whose items carry a hotness label.
	ParserHotList ParserKind = "hot_list"
	// ParserRSS decodes RSS and Atom feeds.
	ParserRSS ParserKind = "rss"
	// ParserBinaryImage accepts a raw image response.
	ParserBinaryImage ParserKind = "binary_image"
	// ParserHistoryToday decodes "on this day" lists with a year per item.
	ParserHistoryToday ParserKind = "history_today"
	// ParserNegotiated branches on Content-Type between JSON and image decoding.
	ParserNegotiated ParserKind = "negotiated"
)

// parserAliases maps legacy vendor-named identifiers onto their kinds.
var parserAliases = map[string]ParserKind{
	"vvhan":  ParserEnvelope,
	"oioweb": ParserHotList,
}

// ParserKinds returns every known parser kind in a stable order.
func ParserKinds() []ParserKind {
	return []ParserKind{
		ParserDefault,
		ParserEnvelope,
		ParserHotList,
		ParserRSS,
		ParserBinaryImage,
		ParserHistoryToday,
		ParserNegotiated,
	}
}

// Valid reports whether k is one of the known parser kinds.
func (k ParserKind) Valid() bool {
	for _, known := range ParserKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (k ParserKind) String() string {
	return string(k)
}

// ParseParserKind converts a configured parser name into a ParserKind.
// An empty name selects ParserDefault. Legacy aliases are accepted.
func ParseParserKind(name string) (ParserKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return ParserDefault, nil
	}
	if kind, ok := parserAliases[normalized]; ok {
		return kind, nil
	}
	kind := ParserKind(normalized)
	if !kind.Valid() {
		return "", &ConfigurationError{
			Field:   "parser",
			Message: fmt.Sprintf("unknown parser %q", name),
			Err:     ErrUnknownParser,
		}
	}
	return kind, nil
}

// Source is one upstream endpoint able to produce content for a content type.
// Priority is ascending: lower values are preferred.
type Source struct {
	URL          string
	Priority     int
	Parser       ParserKind
	Enabled      bool
	LastSuccess  time.Time
	FailureCount int
}

// NewSource creates an enabled source with the given URL, priority and parser.
func NewSource(rawURL string, priority int, parser ParserKind) Source {
	return Source{
		URL:      rawURL,
		Priority: priority,
		Parser:   parser,
		Enabled:  true,
	}
}

// Validate checks the fields that must hold before a source is registered.
func (s *Source) Validate() error {
	if err := ValidateURL(s.URL); err != nil {
		return err
	}
	if !s.Parser.Valid() {
		return &ConfigurationError{
			Field:   "parser",
			Message: fmt.Sprintf("unknown parser %q", s.Parser),
			Err:     ErrUnknownParser,
		}
	}
	return nil
}

// Snapshot returns the persisted representation of the source.
func (s Source) Snapshot() SourceSnapshot {
	snap := SourceSnapshot{
		URL:          s.URL,
		Enabled:      s.Enabled,
		FailureCount: s.FailureCount,
		Priority:     s.Priority,
		Parser:       string(s.Parser),
	}
	if !s.LastSuccess.IsZero() {
		snap.LastSuccess = float64(s.LastSuccess.UnixNano()) / float64(time.Second)
	}
	return snap
}

// SourceSnapshot is the persisted health record of a source.
// Only Enabled is honored when the overlay is loaded back.
type SourceSnapshot struct {
	URL          string  `json:"url"`
	Enabled      bool    `json:"enabled"`
	LastSuccess  float64 `json:"last_success"`
	FailureCount int     `json:"failure_count"`
	Priority     int     `json:"priority"`
	Parser       string  `json:"parser"`
}
