// Package pathutil normalizes request paths for use as metric labels.
package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// pathPatterns defines the list of patterns for dynamic routes.
// Patterns are evaluated in order from most specific to least specific.
// Content type segments accept aliases in any script, so every segment is
// collapsed regardless of its characters.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/digests/[^/]+$`), Template: "/digests/:type"},

	{Pattern: regexp.MustCompile(`^/sources/[^/]+/(enable|disable|reset)$`), Template: "/sources/:type/$1"},
	{Pattern: regexp.MustCompile(`^/sources/[^/]+$`), Template: "/sources/:type"},

	// /cache/entries and /cache/sweep are static routes.
	{Pattern: regexp.MustCompile(`^/cache/(entries|sweep)$`), Template: "/cache/$1"},
	{Pattern: regexp.MustCompile(`^/cache/[^/]+$`), Template: "/cache/:type"},

	// Swagger UI assets.
	{Pattern: regexp.MustCompile(`^/swagger/.+$`), Template: "/swagger/*"},
}

// NormalizePath normalizes dynamic URL paths to prevent metrics label cardinality explosion.
// It converts paths with content types (e.g., /digests/60s) to template format
// (e.g., /digests/:type). Static paths remain unchanged.
//
// Examples:
//
//	NormalizePath("/digests/60s")            // "/digests/:type"
//	NormalizePath("/sources/zhihu/disable")  // "/sources/:type/disable"
//	NormalizePath("/cache/entries")          // "/cache/entries" (unchanged)
//	NormalizePath("/cache/moyu")             // "/cache/:type"
//	NormalizePath("/health")                 // "/health" (unchanged)
//
// Query parameters and trailing slashes are handled:
//
//	NormalizePath("/digests/60s?format=text") // "/digests/:type"
//	NormalizePath("/digests/60s/")            // "/digests/:type"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if m := p.Pattern.FindStringSubmatchIndex(path); m != nil {
			return string(p.Pattern.ExpandString(nil, p.Template, path, m))
		}
	}

	// Unknown paths pass through unchanged.
	return path
}

// GetExpectedCardinality returns the expected number of unique path labels
// after normalization.
//
//   - Static endpoints: /digests, /sources, /cache, /health, /live, /ready, /metrics
//   - Template endpoints: one per pattern, three for source actions
func GetExpectedCardinality() int {
	staticCount := 7
	actionTemplates := 2 // the action pattern expands to three labels
	return len(pathPatterns) + actionTemplates + staticCount
}
