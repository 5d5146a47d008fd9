// Package fetch retrieves career pages and platform API responses over
// HTTP, with per-domain rate limiting applied on every call.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/saint-net/open-jobs-searcher/internal/model"
	"github.com/saint-net/open-jobs-searcher/internal/ratelimit"
)

// userAgent identifies the scanner to career sites.
const userAgent = "open-jobs-searcher/1.0 (+https://github.com/saint-net/open-jobs-searcher)"

// maxBodySize caps response bodies. Career pages past this are broken or
// hostile, not long.
const maxBodySize = 10 << 20

// Client fetches pages and API bodies. Every request goes through the
// domain limiter, so concurrent site scans cannot stampede one host.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.DomainLimiter
	logger     *slog.Logger
}

// NewClient creates a fetching client over httpClient and limiter.
func NewClient(httpClient *http.Client, limiter *ratelimit.DomainLimiter, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}
}

// Fetch retrieves one page. Redirects are followed; the page's FinalURL is
// where the response actually came from, which is what link resolution and
// platform detection must use.
func (c *Client) Fetch(ctx context.Context, url string) (model.Page, error) {
	body, finalURL, err := c.get(ctx, url, "text/html,application/xhtml+xml")
	if err != nil {
		return model.Page{}, err
	}
	return model.Page{HTML: string(body), FinalURL: finalURL}, nil
}

// FetchAPI retrieves a platform API response body.
func (c *Client) FetchAPI(ctx context.Context, url string) ([]byte, error) {
	body, _, err := c.get(ctx, url, "application/json")
	return body, err
}

func (c *Client) get(ctx context.Context, url, accept string) ([]byte, string, error) {
	release, err := c.limiter.Acquire(ctx, url)
	if err != nil {
		return nil, "", err
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", classifyTransportError(url, err)
	}
	defer resp.Body.Close()

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
	c.limiter.OnResponse(url, resp.StatusCode, retryAfter)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter,
			Err:        fmt.Errorf("GET %s", url),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("read body of %s: %w", url, err)
	}

	return body, resp.Request.URL.String(), nil
}

// classifyTransportError maps connection-level failures onto ErrUnreachable
// so callers can tell a dead host from a broken page.
func classifyTransportError(url string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%s: %w: %w", url, model.ErrUnreachable, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%s: %w: %w", url, model.ErrUnreachable, err)
	}
	return fmt.Errorf("fetch %s: %w", url, err)
}

// parseRetryAfter handles the delta-seconds form of Retry-After. The HTTP
// date form is rare on the boards this hits and not worth parsing.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
