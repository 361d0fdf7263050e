package entity

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// ContentItem is one normalized entry of a digest.
type ContentItem struct {
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Index       int    `json:"index"`
	Hot         string `json:"hot,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// ContentBundle is the canonical result of decoding an upstream response.
// Items are kept in display order. When BinaryPayload is set the upstream
// already returned a ready-to-display image and Items may be empty.
type ContentBundle struct {
	Title         string        `json:"title"`
	Items         []ContentItem `json:"items"`
	UpdateTime    string        `json:"update_time"`
	Source        string        `json:"source"`
	BinaryPayload []byte        `json:"-"`
}

// HasBinary reports whether the bundle carries a non-empty binary payload.
func (b *ContentBundle) HasBinary() bool {
	return b != nil && len(b.BinaryPayload) > 0
}

// Len returns the number of items in the bundle.
func (b *ContentBundle) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Items)
}

// Clone returns a copy of the bundle whose item slice can be modified
// without affecting the original.
func (b *ContentBundle) Clone() *ContentBundle {
	if b == nil {
		return nil
	}
	out := *b
	out.Items = append([]ContentItem(nil), b.Items...)
	return &out
}

// RawResponse is an upstream HTTP response fully read into memory.
type RawResponse struct {
	// URL is the final request URL after redirects.
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the media type of the response without parameters,
// lower-cased. It returns an empty string when the header is missing.
func (r *RawResponse) ContentType() string {
	if r == nil || r.Header == nil {
		return ""
	}
	raw := r.Header.Get("Content-Type")
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(raw, ";", 2)[0]))
	}
	return mediaType
}

// Host returns the host part of the final response URL.
func (r *RawResponse) Host() string {
	if r == nil {
		return ""
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return u.Host
}
