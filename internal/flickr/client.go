// Package flickr is a minimal Flickr REST client: one GET per call, bounded
// timeouts, and a single error type for every failure.
package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/pleiades/flickr-portlet/internal/core/observability"
)

const maxBodyBytes = 4 << 20

// Caller issues one query and returns the raw JSON body.
type Caller interface {
	Call(ctx context.Context, q Query) (json.RawMessage, error)
}

type Option func(*Client)

// WithRateLimit caps outbound calls per second. rps <= 0 disables the cap.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

type Client struct {
	logger    *slog.Logger
	http      *http.Client
	endpoint  *url.URL
	apiKey    string
	userAgent string
	limiter   *rate.Limiter
	now       func() time.Time
}

var _ Caller = (*Client)(nil)

func New(logger *slog.Logger, hc *http.Client, endpoint, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse flickr endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("flickr endpoint %q: unsupported scheme", endpoint)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	c := &Client{
		logger:    logger,
		http:      hc,
		endpoint:  u,
		apiKey:    apiKey,
		userAgent: "pleiades-flickr-portlet",
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Call performs q. It returns the body on HTTP 200 with a JSON body that is
// not a Flickr failure; every other outcome is an *UpstreamError.
func (c *Client) Call(ctx context.Context, q Query) (json.RawMessage, error) {
	start := c.now()
	body, err := c.do(ctx, q)
	dur := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		var ue *UpstreamError
		if errors.As(err, &ue) {
			c.logger.WarnContext(ctx, "flickr call failed",
				"method", q.Method, "status", ue.StatusCode,
				"duration", dur.String(), "err", ue.Err)
		}
	} else {
		c.logger.DebugContext(ctx, "flickr call",
			"query", q.String(), "bytes", len(body), "duration", dur.String())
	}
	observability.ObserveUpstreamLatency(q.Method, outcome, dur.Seconds())
	return body, err
}

func (c *Client) do(ctx context.Context, q Query) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &UpstreamError{StatusCode: http.StatusServiceUnavailable, Method: q.Method, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	u := *c.endpoint
	u.RawQuery = q.Values(c.apiKey).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &UpstreamError{StatusCode: http.StatusInternalServerError, Method: q.Method, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, networkError(q.Method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		code := resp.StatusCode
		if code < http.StatusBadRequest {
			// Only error codes are passed through.
			code = http.StatusBadGateway
		}
		return nil, &UpstreamError{StatusCode: code, Method: q.Method, Err: fmt.Errorf("upstream answered %d: body: %q", resp.StatusCode, b)}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, networkError(q.Method, fmt.Errorf("read body: %w", err))
	}
	if !json.Valid(b) {
		return nil, &UpstreamError{StatusCode: http.StatusBadGateway, Method: q.Method, Err: errors.New("response is not JSON")}
	}
	if err := checkStat(b); err != nil {
		return nil, &UpstreamError{StatusCode: http.StatusBadGateway, Method: q.Method, Err: err}
	}
	return json.RawMessage(b), nil
}
