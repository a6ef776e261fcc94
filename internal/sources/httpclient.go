package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"lipidlibrarian/internal/metrics"
)

const maxErrorBody = 512

// HTTPClient is the shared REST transport of the web connectors: base URL
// resolution, a token bucket limiter and per-source request metrics.
type HTTPClient struct {
	Source  string
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
}

type HTTPOptions struct {
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// NewHTTPClient builds a client for source. A zero rate disables limiting.
func NewHTTPClient(source, baseURL string, opts HTTPOptions) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	return &HTTPClient{
		Source:  source,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: opts.Timeout},
		Limiter: rate.NewLimiter(limit, opts.Burst),
	}
}

// Get fetches path (relative to BaseURL) with the query parameters and
// returns the body. 404 yields ErrNotFound; other non-200 statuses are errors.
func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	waitStart := time.Now()
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(err, "%s: rate limit", c.Source)
	}
	metrics.RateLimitWaitTime.WithLabelValues(c.Source).Observe(time.Since(waitStart).Seconds())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: build request", c.Source)
	}

	start := time.Now()
	resp, err := c.Client.Do(req)
	metrics.HTTPClientRequestDuration.WithLabelValues(c.Source).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.HTTPClientRequestsTotal.WithLabelValues(c.Source, "error").Inc()
		return nil, errors.Wrapf(err, "%s: request %s", c.Source, path)
	}
	defer resp.Body.Close()
	metrics.HTTPClientRequestsTotal.WithLabelValues(c.Source, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: read body", c.Source)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrapf(ErrNotFound, "%s: %s", c.Source, path)
	case resp.StatusCode != http.StatusOK:
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, errors.Newf("%s: status %d: %s", c.Source, resp.StatusCode, string(body))
	}
	return body, nil
}

// GetJSON fetches path and decodes the JSON body into v.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, query url.Values, v any) error {
	body, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(err, "%s: decode %s", c.Source, path)
	}
	return nil
}

// IgnoreNotFound maps ErrNotFound to nil.
func IgnoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
