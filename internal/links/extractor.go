package links

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// DefaultTrapThreshold is the extraction count at which a URL is treated as
// a crawler trap.
const DefaultTrapThreshold = 3

// Politeness answers whether a URL may be fetched. *robots.Resolver
// implements it.
type Politeness interface {
	Allowed(ctx context.Context, u *url.URL) bool
}

// Extractor turns the hrefs of a page into crawl candidates.
// It is safe for concurrent use when its collaborators are.
type Extractor struct {
	normalizer *Normalizer
	politeness Politeness
	counter    *VisitCounter
	threshold  int
	logger     *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithPoliteness sets the robots check. Without one every URL is allowed.
func WithPoliteness(p Politeness) ExtractorOption {
	return func(e *Extractor) {
		e.politeness = p
	}
}

// WithVisitCounter shares a counter between extractors.
func WithVisitCounter(c *VisitCounter) ExtractorOption {
	return func(e *Extractor) {
		e.counter = c
	}
}

// WithTrapThreshold sets the count at which a URL stops being returned.
// Non-positive values are ignored.
func WithTrapThreshold(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.threshold = n
		}
	}
}

// WithStripQuery drops query strings during normalization.
func WithStripQuery(strip bool) ExtractorOption {
	return func(e *Extractor) {
		e.normalizer = NewNormalizer(strip)
	}
}

// WithExtractorLogger sets the logger.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		normalizer: NewNormalizer(false),
		threshold:  DefaultTrapThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.counter == nil {
		e.counter = NewVisitCounter()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Counter returns the visit counter.
func (e *Extractor) Counter() *VisitCounter {
	return e.counter
}

// ExtractLinks resolves hrefs against base and returns the normalized URLs
// that pass the robots check and have been extracted fewer than the trap
// threshold times. Each URL is considered once per call. A malformed base
// yields no links; a malformed href is logged and skipped.
func (e *Extractor) ExtractLinks(ctx context.Context, base string, hrefs []string) []string {
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		e.logger.Warn("malformed base URL", "url", base, "error", err)
		return []string{}
	}

	seen := make(map[string]struct{}, len(hrefs))
	out := make([]string, 0, len(hrefs))

	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if skippedHref(href) {
			continue
		}

		normalized, err := e.normalizer.Normalize(baseURL, href)
		if err != nil {
			e.logger.Debug("skipping href", "base", base, "href", href, "error", err)
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}

		u, err := url.Parse(normalized)
		if err != nil {
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}

		if e.politeness != nil && !e.politeness.Allowed(ctx, u) {
			e.logger.Debug("disallowed by robots", "url", normalized)
			continue
		}

		if n := e.counter.Increment(normalized); n >= e.threshold {
			if n == e.threshold {
				e.logger.Info("trap detected, excluding URL", "url", normalized, "count", n)
			}
			continue
		}

		out = append(out, normalized)
	}

	return out
}
