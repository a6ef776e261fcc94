package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/search":
			assert.Equal(t, "PC 38:1", r.URL.Query().Get("term"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"entity_id":"SLM:1"}]`))
		case "/missing":
			http.NotFound(w, r)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient("test", srv.URL+"/", HTTPOptions{Timeout: time.Second})
	ctx := context.Background()

	var out []struct {
		EntityID string `json:"entity_id"`
	}
	require.NoError(t, c.GetJSON(ctx, "/api/search", url.Values{"term": {"PC 38:1"}}, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "SLM:1", out[0].EntityID)

	_, err := c.Get(ctx, "/missing", nil)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, IgnoreNotFound(err))

	_, err = c.Get(ctx, "/other", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Error(t, IgnoreNotFound(err))
}

func TestHTTPClientHonoursCancellation(t *testing.T) {
	c := NewHTTPClient("test", "http://127.0.0.1:1", HTTPOptions{RatePerSecond: 0.001})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, "/", nil)
	assert.Error(t, err)
}
