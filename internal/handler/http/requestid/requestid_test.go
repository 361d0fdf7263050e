package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Equal(t, "abc-123", FromContext(WithRequestID(context.Background(), "abc-123")))
	assert.Empty(t, FromContext(context.Background()))
	assert.Empty(t, FromContext(context.WithValue(context.Background(), RequestIDKey, 12345)))
}

// serve runs the middleware once and returns the ID the handler saw.
func serve(t *testing.T, inbound string) (seen string, rec *httptest.ResponseRecorder) {
	t.Helper()
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/digests/60s", nil)
	if inbound != "" {
		req.Header.Set(RequestIDHeader, inbound)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return seen, rec
}

func TestMiddleware_KeepsInboundID(t *testing.T) {
	for _, id := range []string{
		"existing-request-id-456",
		"0b9f1c4e.trace_7",
		uuid.NewString(),
		strings.Repeat("a", maxInboundLength),
	} {
		seen, rec := serve(t, id)
		assert.Equal(t, id, seen)
		assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
	}
}

func TestMiddleware_ReplacesUnacceptableID(t *testing.T) {
	tests := map[string]string{
		"missing":        "",
		"too long":       strings.Repeat("a", maxInboundLength+1),
		"spaces":         "id with spaces",
		"log forging":    `x","level":"ERROR`,
		"non ascii":      "请求-1",
		"header control": "id\tid",
	}
	for name, inbound := range tests {
		t.Run(name, func(t *testing.T) {
			seen, rec := serve(t, inbound)

			require.NotEqual(t, inbound, seen)
			_, err := uuid.Parse(seen)
			assert.NoError(t, err, "generated ID should be a UUID")
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
		})
	}
}

func TestMiddleware_UniquePerRequest(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 10; i++ {
		seen, _ := serve(t, "")
		ids[seen] = true
	}
	assert.Len(t, ids, 10)
}
