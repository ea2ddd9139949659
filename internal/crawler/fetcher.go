package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/anteater/internal/robots"
	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies the crawler to university web servers.
const DefaultUserAgent = "anteater/1.0 (+https://github.com/nao1215/anteater)"

// MaxCrawlDelay caps the Crawl-delay a robots file can impose.
const MaxCrawlDelay = 30 * time.Second

// RuleSource resolves robots rules; *robots.Resolver implements it.
type RuleSource interface {
	RulesFor(ctx context.Context, origin string) *robots.Rule
}

// HTTPFetcher implements pipeline.Fetcher over net/http.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	delay       time.Duration
	rules       RuleSource
	logger      *slog.Logger

	mu       sync.Mutex
	limiters map[string]*hostLimiter
}

// hostLimiter is the token bucket of one origin.
type hostLimiter struct {
	*rate.Limiter
	interval time.Duration
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many body bytes are read.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithCrawlDelay sets the minimum interval between requests to one host.
func WithCrawlDelay(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.delay = d
	}
}

// WithRobots makes the fetcher honor each origin's Crawl-delay.
func WithRobots(rules RuleSource) FetcherOption {
	return func(f *HTTPFetcher) {
		f.rules = rules
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher creates an HTTPFetcher. Without WithHTTPClient a client with
// a 30 second timeout is used.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		userAgent:   DefaultUserAgent,
		maxBodySize: model.MaxBodySize,
		limiters:    make(map[string]*hostLimiter),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: 30 * time.Second}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch GETs rawURL after waiting for the host's rate limiter. Any HTTP
// status yields a Response; only transport errors return an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*model.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	if err := f.limiter(ctx, u).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	out := &model.Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		if final := resp.Request.URL.String(); final != rawURL {
			out.FinalURL = final
		}
	}

	f.logger.Debug("fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(body),
	)
	return out, nil
}

// Delay returns the interval in force for the origin of u, or zero if the
// host has not been fetched yet.
func (f *HTTPFetcher) Delay(u *url.URL) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limiters[robots.Origin(u)]; ok {
		return l.interval
	}
	return 0
}

// limiter returns the token bucket of u's origin, creating it on first use.
func (f *HTTPFetcher) limiter(ctx context.Context, u *url.URL) *hostLimiter {
	origin := robots.Origin(u)

	f.mu.Lock()
	l, ok := f.limiters[origin]
	f.mu.Unlock()
	if ok {
		return l
	}

	delay := f.delay
	if f.rules != nil {
		if cd := min(f.rules.RulesFor(ctx, origin).CrawlDelay, MaxCrawlDelay); cd > delay {
			delay = cd
		}
	}

	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.limiters[origin]; ok {
		return existing
	}
	l = &hostLimiter{Limiter: rate.NewLimiter(limit, 1), interval: delay}
	f.limiters[origin] = l
	if delay > 0 {
		f.logger.Debug("host rate limit", "origin", origin, "interval", delay)
	}
	return l
}
