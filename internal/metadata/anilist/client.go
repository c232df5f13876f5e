// Package anilist is a client for the AniList GraphQL catalog.
package anilist

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/ratelimit"
)

const (
	// DefaultEndpoint is the public AniList GraphQL API.
	DefaultEndpoint = "https://graphql.anilist.co"

	// DefaultTimeout bounds one search, including any rate limiter wait.
	DefaultTimeout = 10 * time.Second

	// AniList allows 90 requests per minute per client.
	defaultRequestsPerMinute = 90

	limiterKey = "anilist"

	maxResponseBytes = 4 << 20
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Endpoint          string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client searches the AniList catalog. It performs at most one HTTP request per
// search and never retries. Identical concurrent searches share one request.
type Client struct {
	http     *http.Client
	endpoint string
	timeout  time.Duration
	limiter  *ratelimit.KeyedRateLimiter
	group    singleflight.Group
	logger   *slog.Logger
}

// New creates a client.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = defaultRequestsPerMinute
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		http:     &http.Client{Timeout: opts.Timeout},
		endpoint: opts.Endpoint,
		timeout:  opts.Timeout,
		limiter:  ratelimit.PerMinute(opts.RequestsPerMinute),
		logger:   logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Search returns up to one page of manga matching query, in relevance order.
// Every failure satisfies errors.Is(err, ErrUnavailable).
func (c *Client) Search(ctx context.Context, query string) ([]domain.Media, error) {
	// The shared call must not die with whichever caller started it.
	ch := c.group.DoChan(query, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.search(callCtx, query)
	})

	select {
	case <-ctx.Done():
		return nil, wrapError("search", query, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		media, _ := res.Val.([]domain.Media)
		return slices.Clone(media), nil
	}
}

func (c *Client) search(ctx context.Context, query string) ([]domain.Media, error) {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, wrapError("search", query, fmt.Errorf("rate limit wait: %w", err))
	}

	body, err := c.post(ctx, graphQLRequest{
		Query:     searchQuery,
		Variables: map[string]any{"search": query},
	})
	if err != nil {
		return nil, wrapError("search", query, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("search", query, fmt.Errorf("%w: %v", ErrBadResponse, err))
	}
	if len(resp.Errors) > 0 {
		return nil, wrapError("search", query, resp.Errors)
	}
	if resp.Data == nil {
		return nil, wrapError("search", query, fmt.Errorf("%w: missing data", ErrBadResponse))
	}

	results := make([]domain.Media, 0, len(resp.Data.Page.Media))
	for i := range resp.Data.Page.Media {
		results = append(results, toMedia(&resp.Data.Page.Media[i]))
	}

	c.logger.Debug("anilist search", "query", query, "results", len(results))
	return results, nil
}

// post sends one GraphQL request and returns the body of a 2xx response.
func (c *Client) post(ctx context.Context, payload graphQLRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.MarshalWrite(&buf, payload); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "iMangarr/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
}

func toMedia(raw *rawMedia) domain.Media {
	return domain.Media{
		ID: domain.MangaID(raw.ID),
		Title: domain.Title{
			Romaji:  deref(raw.Title.Romaji),
			English: deref(raw.Title.English),
			Native:  deref(raw.Title.Native),
		},
		CoverURL:    deref(raw.CoverImage.ExtraLarge),
		Status:      domain.ParseMediaStatus(deref(raw.Status)),
		Chapters:    raw.Chapters,
		Volumes:     raw.Volumes,
		Description: descriptionToMarkdown(deref(raw.Description)),
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
