package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/anteater/internal/links"
	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/anteater/internal/pipeline"
)

// Spider crawls breadth-first from a set of seeds. Each wave takes the
// oldest pending URLs from the frontier and processes them concurrently
// through the batch processor; accepted links are queued for later waves.
type Spider struct {
	batch      *pipeline.BatchProcessor
	frontier   *Frontier
	normalizer *links.Normalizer
	logger     *slog.Logger

	// maxDepth limits hops from a seed. Negative means unlimited.
	maxDepth int

	// maxPages limits the number of fetches. 0 means unlimited.
	maxPages int

	// waveSize is the number of URLs taken from the frontier per wave.
	waveSize int

	// ignorePatterns are URL path globs never queued.
	ignorePatterns []string

	// followPatterns, when set, are the only URL path globs queued.
	followPatterns []string

	// seedRobots, when set, filters seeds through robots.txt. Links are
	// checked by the extractor instead.
	seedRobots links.Politeness

	onPage func(*pipeline.PageState)

	mu        sync.Mutex
	processed int
	accepted  int
	waves     int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum number of hops from a seed.
// 0 = only the seeds. A negative value removes the limit.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to fetch.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		if maxPages >= 0 {
			s.maxPages = maxPages
		}
	}
}

// WithWaveSize sets how many URLs are processed per wave.
func WithWaveSize(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.waveSize = n
		}
	}
}

// WithFrontier replaces the default frontier.
func WithFrontier(f *Frontier) SpiderOption {
	return func(s *Spider) {
		s.frontier = f
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/wiki/*", "*.php", "/calendar*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only URLs matching at least one pattern are queued. Seeds are
// always crawled.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithSeedRobots drops seeds that robots.txt disallows.
func WithSeedRobots(p links.Politeness) SpiderOption {
	return func(s *Spider) {
		s.seedRobots = p
	}
}

// WithOnPage registers a callback invoked for every processed page. It may
// be called from several goroutines at once.
func WithOnPage(fn func(*pipeline.PageState)) SpiderOption {
	return func(s *Spider) {
		s.onPage = fn
	}
}

// WithSpiderLogger sets the logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that processes pages through batch.
func NewSpider(batch *pipeline.BatchProcessor, opts ...SpiderOption) *Spider {
	s := &Spider{
		batch:      batch,
		normalizer: links.NewNormalizer(false),
		maxDepth:   -1,
		waveSize:   batch.Concurrency() * 4,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.frontier == nil {
		s.frontier = NewFrontier(DefaultFrontierCapacity)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Crawl runs until the frontier is empty, the page budget is spent or ctx
// is cancelled. Cancellation returns the statistics so far and ctx.Err().
func (s *Spider) Crawl(ctx context.Context, seeds []string) (SpiderStats, error) {
	queued := 0
	for _, seed := range seeds {
		normalized, err := s.normalizer.NormalizeString(strings.TrimSpace(seed))
		if err != nil {
			s.logger.Warn("skipping seed", "url", seed, "error", err)
			continue
		}
		if !s.seedAllowed(ctx, normalized) {
			s.logger.Warn("skipping seed disallowed by robots", "url", normalized)
			continue
		}
		if s.frontier.Push(normalized, 0) {
			queued++
		}
	}
	if queued == 0 && s.frontier.Len() == 0 {
		return s.Stats(), ErrNoSeeds
	}

	for s.frontier.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return s.Stats(), err
		}

		n := s.waveSize
		if s.maxPages > 0 {
			remaining := s.maxPages - s.Stats().PagesVisited
			if remaining <= 0 {
				s.logger.Info("page budget spent", "max_pages", s.maxPages)
				break
			}
			n = min(n, remaining)
		}

		tasks := s.frontier.Next(n)
		start := time.Now()
		if err := s.batch.ProcessBatchWithCallback(ctx, tasks, func(state *pipeline.PageState, _ int) {
			s.handle(state)
		}); err != nil {
			return s.Stats(), fmt.Errorf("wave interrupted: %w", err)
		}

		s.mu.Lock()
		s.waves++
		s.mu.Unlock()

		s.logger.Debug("wave complete",
			"size", len(tasks),
			"pending", s.frontier.Len(),
			"elapsed", time.Since(start),
		)
	}

	return s.Stats(), nil
}

func (s *Spider) seedAllowed(ctx context.Context, raw string) bool {
	if s.seedRobots == nil {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return s.seedRobots.Allowed(ctx, u)
}

// handle counts one processed page and queues its links. Pages cut short
// by cancellation are dropped.
func (s *Spider) handle(state *pipeline.PageState) {
	if state.Cancelled {
		return
	}

	s.mu.Lock()
	s.processed++
	if state.Outcome == model.OutcomeAccepted {
		s.accepted++
	}
	s.mu.Unlock()

	if s.maxDepth < 0 || state.Depth < s.maxDepth {
		for _, link := range state.Links {
			if s.shouldCrawl(link) {
				s.frontier.Push(link, state.Depth+1)
			}
		}
	}

	if s.onPage != nil {
		s.onPage(state)
	}
}

// Stats returns current crawl statistics.
func (s *Spider) Stats() SpiderStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SpiderStats{
		PagesVisited:  s.processed,
		PagesAccepted: s.accepted,
		URLsQueued:    s.frontier.Discovered(),
		Pending:       s.frontier.Len(),
		Waves:         s.waves,
	}
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesVisited is the number of URLs fetched, whatever the outcome.
	PagesVisited int

	// PagesAccepted is the number of pages that passed every pipeline step.
	PagesAccepted int

	// URLsQueued is the number of unique URLs encountered.
	URLsQueued int

	// Pending is the number of URLs left in the frontier.
	Pending int

	// Waves is the number of completed waves.
	Waves int
}

// shouldCrawl checks if a URL should be crawled based on ignore/follow patterns.
//
// Logic:
//  1. If URL matches any ignorePattern, skip it (return false)
//  2. If followPatterns is set and URL matches none, skip it (return false)
//  3. Otherwise, crawl it (return true)
func (s *Spider) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) == 0 {
		return true
	}
	for _, pattern := range s.followPatterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
//
// Examples:
//   - "/events/*" matches "/events/2024", "/events"
//   - "*.php" matches "/people/index.php"
//   - "/~eppstein/pix/*" matches "/~eppstein/pix/a/b.html"
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(strings.ToLower(path), strings.ToLower(pattern[1:])) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	// Patterns without a slash also match the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}
