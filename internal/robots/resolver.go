package robots

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Resolver caches one Rule per origin. It is safe for concurrent use.
type Resolver struct {
	source Source
	agent  string
	logger *slog.Logger

	// inScope decides whether a host is worth a robots lookup.
	// Out-of-scope hosts get the empty rule without touching the source.
	inScope func(host string) bool

	mu    sync.RWMutex
	cache map[string]*Rule
	group singleflight.Group
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for source failures.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithUserAgent sets the agent whose groups are honored.
func WithUserAgent(agent string) ResolverOption {
	return func(r *Resolver) {
		r.agent = agent
	}
}

// WithScope restricts lookups to hosts for which inScope returns true.
func WithScope(inScope func(host string) bool) ResolverOption {
	return func(r *Resolver) {
		r.inScope = inScope
	}
}

// NewResolver creates a Resolver reading robots data from source.
// A nil source resolves every origin to the empty rule.
func NewResolver(source Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		source: source,
		cache:  make(map[string]*Rule),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Origin returns the scheme://host key of u, lowercased.
func Origin(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// RulesFor returns the rule for origin, resolving it on first use.
// Concurrent first lookups of one origin share a single fetch. Source
// failures are logged once and cached as the empty rule.
func (r *Resolver) RulesFor(ctx context.Context, origin string) *Rule {
	origin = strings.ToLower(origin)

	r.mu.RLock()
	rule, ok := r.cache[origin]
	r.mu.RUnlock()
	if ok {
		return rule
	}

	v, _, _ := r.group.Do(origin, func() (any, error) {
		r.mu.RLock()
		cached, ok := r.cache[origin]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		resolved := r.resolve(ctx, origin)
		if ctx.Err() != nil {
			// Not cached: a cancelled lookup says nothing about the origin.
			return resolved, nil
		}

		r.mu.Lock()
		r.cache[origin] = resolved
		r.mu.Unlock()
		return resolved, nil
	})
	return v.(*Rule) //nolint:forcetypeassert // the group only stores *Rule
}

// Allowed reports whether u may be fetched under its origin's rule.
func (r *Resolver) Allowed(ctx context.Context, u *url.URL) bool {
	return r.RulesFor(ctx, Origin(u)).Allowed(u)
}

// CrawlDelay returns the Crawl-delay of an already resolved origin.
func (r *Resolver) CrawlDelay(origin string) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rule, ok := r.cache[strings.ToLower(origin)]; ok {
		return rule.CrawlDelay
	}
	return 0
}

// Sitemaps returns the sitemap URL declared by each resolved origin.
func (r *Resolver) Sitemaps() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string)
	for origin, rule := range r.cache {
		if rule.Sitemap != "" {
			out[origin] = rule.Sitemap
		}
	}
	return out
}

// Len returns the number of cached origins.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Resolver) resolve(ctx context.Context, origin string) *Rule {
	if r.source == nil {
		return &Rule{}
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		r.logger.Warn("skipping robots lookup",
			"origin", origin,
			"error", fmt.Errorf("%w: %q", ErrInvalidOrigin, origin),
		)
		return &Rule{}
	}
	if r.inScope != nil && !r.inScope(u.Hostname()) {
		return &Rule{}
	}

	data, err := r.source.Fetch(ctx, origin)
	if err != nil {
		r.logger.Warn("robots unavailable, allowing all",
			"origin", origin,
			"error", err,
		)
		return &Rule{}
	}
	if data == nil {
		r.logger.Debug("no robots file", "origin", origin)
		return &Rule{}
	}

	rule := Parse(string(data), r.agent)
	r.logger.Debug("robots resolved",
		"origin", origin,
		"allow", len(rule.Allow),
		"disallow", len(rule.Disallow),
		"crawl_delay", rule.CrawlDelay,
	)
	return rule
}
