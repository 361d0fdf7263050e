package entity

import (
	"fmt"
	"net/url"
)

// MaxURLLength bounds source URLs accepted from the catalog or the API.
const MaxURLLength = 2048

func urlError(format string, args ...any) error {
	return &ValidationError{Field: "url", Message: fmt.Sprintf(format, args...)}
}

// ParseSourceURL parses an upstream endpoint. It must be absolute http(s)
// with a host and no embedded credentials; upstream auth goes in headers.
// No network lookups happen here.
func ParseSourceURL(raw string) (*url.URL, error) {
	switch {
	case raw == "":
		return nil, urlError("url is required")
	case len(raw) > MaxURLLength:
		return nil, urlError("url must not exceed %d characters", MaxURLLength)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, urlError("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, urlError("unsupported scheme %q, want http or https", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, urlError("url has no host")
	}
	if u.User != nil {
		return nil, urlError("url must not embed credentials")
	}
	return u, nil
}

// ValidateURL reports whether raw is an acceptable source URL.
func ValidateURL(raw string) error {
	_, err := ParseSourceURL(raw)
	return err
}
