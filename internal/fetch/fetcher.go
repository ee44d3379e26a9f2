// Package fetch is the gateway to the two upstream read APIs: the Hacker
// News Firebase API (index + per-item records) and the HN Algolia search API
// (pre-joined poll hits and comment trees).
//
// Both response shapes are normalized into model.Item / model.Comment here,
// so callers never branch on where an item came from. Upstream failures are
// absorbed at this boundary: callers get empty or absent results, and a
// warning event is emitted.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/hnfeed/internal/config"
	"github.com/abelbrown/hnfeed/internal/otel"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 8 << 20

// Options configures a Client.
type Options struct {
	BaseURL           string // Firebase API, e.g. https://hacker-news.firebaseio.com/v0
	SearchURL         string // Algolia API, e.g. https://hn.algolia.com/api/v1
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 or less disables limiting
	Burst             int
	MaxConcurrent     int // parallel item-detail fetches per page
	PageSize          int
	UserAgent         string
}

// OptionsFromConfig maps the application config onto gateway options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:           cfg.API.BaseURL,
		SearchURL:         cfg.API.SearchURL,
		Timeout:           cfg.API.Timeout.D(),
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		MaxConcurrent:     cfg.API.MaxConcurrentFetches,
		PageSize:          cfg.Feed.PageSize,
		UserAgent:         cfg.API.UserAgent,
	}
}

// Client retrieves and normalizes items from the upstream APIs.
// Safe for concurrent use.
type Client struct {
	client    *http.Client
	limiter   *rate.Limiter
	logger    *otel.Logger
	baseURL   string
	searchURL string
	userAgent string
	pageSize  int
	parallel  int
}

// NewClient creates a Client. A nil logger discards events.
func NewClient(opts Options, l *otel.Logger) *Client {
	if l == nil {
		l = otel.NewNullLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = opts.PageSize
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "hnfeed/0.3"
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		client:    &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
		logger:    l,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		searchURL: strings.TrimRight(opts.SearchURL, "/"),
		userAgent: opts.UserAgent,
		pageSize:  opts.PageSize,
		parallel:  opts.MaxConcurrent,
	}
}

// PageSize returns the maximum number of items LoadItems returns.
func (c *Client) PageSize() int {
	return c.pageSize
}

// getJSON performs a GET and decodes the body into out. It reports whether
// the body was JSON null. Failures wrap ErrTransport or ErrParse; context
// errors are returned unwrapped so callers can tell cancellation apart.
func (c *Client) getJSON(ctx context.Context, url string, out any) (isNull bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("%w: rate limiter: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("%w: HTTP %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "null" {
		return true, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return false, nil
}

// warn records an absorbed upstream failure.
func (c *Client) warn(op, url string, err error) {
	c.logger.Emit(otel.Event{
		Level: otel.LevelWarn,
		Kind:  otel.KindFetchError,
		Comp:  "fetch",
		URL:   url,
		Msg:   op,
		Err:   err.Error(),
		Extra: map[string]any{"failure": failureKind(err)},
	})
}
