package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Duration
		wantOK bool
	}{
		{in: "", want: 0, wantOK: false},
		{in: "0", want: 0, wantOK: true},
		{in: "5", want: 5 * time.Second, wantOK: true},
		{in: " 12 ", want: 12 * time.Second, wantOK: true},
		{in: "-1", want: 0, wantOK: false},
		{in: "Wed, 21 Oct 2015 07:28:00 GMT", want: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseRetryAfter(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildURL(t *testing.T) {
	u, err := buildURL("https://api.example.com/v2/60s?encoding=text", map[string]string{"format": "json"})
	require.NoError(t, err)

	assert.Equal(t, "api.example.com", u.Host)
	assert.Equal(t, "text", u.Query().Get("encoding"))
	assert.Equal(t, "json", u.Query().Get("format"))

	u, err = buildURL("https://api.example.com/v2/60s", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v2/60s", u.String())

	_, err = buildURL("", nil)
	assert.Error(t, err)
}
