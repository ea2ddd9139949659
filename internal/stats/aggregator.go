package stats

import (
	"cmp"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/anteater/internal/links"
	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/anteater/internal/simhash"
	"github.com/nao1215/anteater/internal/tokenize"
)

// Aggregator holds the statistics of one crawl. It is safe for concurrent use.
type Aggregator struct {
	startedAt time.Time

	pagesParsed atomic.Int64

	pagesMu sync.Mutex
	unique  map[string]struct{}
	longest model.LongestPage

	freqMu sync.Mutex
	freqs  tokenize.Table

	subMu      sync.Mutex
	subdomains map[string]int

	rejMu      sync.Mutex
	rejections model.Rejections

	fingerprints *simhash.Store

	// stopwords are excluded from TopWords at report time.
	stopwords tokenize.Stopwords

	// inScope filters hosts counted as subdomains. Nil counts every host.
	inScope func(host string) bool
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithStopwords excludes stopwords from the reported top words.
func WithStopwords(sw tokenize.Stopwords) Option {
	return func(a *Aggregator) {
		a.stopwords = sw
	}
}

// WithScope only counts subdomains for hosts accepted by inScope.
func WithScope(inScope func(host string) bool) Option {
	return func(a *Aggregator) {
		a.inScope = inScope
	}
}

// WithFingerprintStore replaces the default fingerprint store.
func WithFingerprintStore(store *simhash.Store) Option {
	return func(a *Aggregator) {
		a.fingerprints = store
	}
}

// WithStartTime overrides the crawl start time.
func WithStartTime(t time.Time) Option {
	return func(a *Aggregator) {
		a.startedAt = t
	}
}

// NewAggregator creates an empty Aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		startedAt:  time.Now(),
		unique:     make(map[string]struct{}),
		freqs:      make(tokenize.Table),
		subdomains: make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fingerprints == nil {
		a.fingerprints = simhash.NewStore()
	}
	return a
}

// RecordParsed counts one page that reached the parser.
func (a *Aggregator) RecordParsed() {
	a.pagesParsed.Add(1)
}

// RecordPage adds url, fragment removed, to the unique page set and updates
// the longest page. It returns true when the URL was not seen before.
func (a *Aggregator) RecordPage(rawURL string, tokenCount int) bool {
	key := links.Defragment(rawURL)

	a.pagesMu.Lock()
	defer a.pagesMu.Unlock()

	if tokenCount > a.longest.TokenCount {
		a.longest = model.LongestPage{URL: key, TokenCount: tokenCount}
	}
	if _, ok := a.unique[key]; ok {
		return false
	}
	a.unique[key] = struct{}{}
	return true
}

// MergeFrequencies adds table into the global frequencies.
func (a *Aggregator) MergeFrequencies(table tokenize.Table) {
	a.freqMu.Lock()
	defer a.freqMu.Unlock()
	a.freqs.Merge(table)
}

// RecordSubdomain increments the page count of the URL's host. Unparseable
// URLs and hosts outside the scope are ignored.
func (a *Aggregator) RecordSubdomain(rawURL string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return
	}
	if a.inScope != nil && !a.inScope(host) {
		return
	}

	a.subMu.Lock()
	defer a.subMu.Unlock()
	a.subdomains[host]++
}

// CheckFingerprint reports whether fp is a near-duplicate of a stored
// fingerprint. A fingerprint that is not a duplicate is stored.
func (a *Aggregator) CheckFingerprint(fp simhash.Fingerprint) (duplicate bool) {
	dup, _ := a.fingerprints.CheckAndAdd(fp)
	return dup
}

// RecordRejection counts one page excluded from aggregation.
func (a *Aggregator) RecordRejection(o model.Outcome) {
	a.rejMu.Lock()
	defer a.rejMu.Unlock()
	a.rejections.Add(o, 1)
}

// PagesParsed returns the number of pages that reached the parser.
func (a *Aggregator) PagesParsed() int {
	return int(a.pagesParsed.Load())
}

// UniqueCount returns the number of unique pages.
func (a *Aggregator) UniqueCount() int {
	a.pagesMu.Lock()
	defer a.pagesMu.Unlock()
	return len(a.unique)
}

// LongestPage returns the longest page seen so far.
func (a *Aggregator) LongestPage() model.LongestPage {
	a.pagesMu.Lock()
	defer a.pagesMu.Unlock()
	return a.longest
}

// Frequencies returns a copy of the global frequency table.
func (a *Aggregator) Frequencies() tokenize.Table {
	a.freqMu.Lock()
	defer a.freqMu.Unlock()
	return a.freqs.Clone()
}

// Subdomains returns page counts per host, sorted by host.
func (a *Aggregator) Subdomains() []model.SubdomainCount {
	a.subMu.Lock()
	out := make([]model.SubdomainCount, 0, len(a.subdomains))
	for host, n := range a.subdomains {
		out = append(out, model.SubdomainCount{Host: host, Count: n})
	}
	a.subMu.Unlock()

	slices.SortFunc(out, func(x, y model.SubdomainCount) int {
		return cmp.Compare(x.Host, y.Host)
	})
	return out
}

// Rejections returns the rejection counters.
func (a *Aggregator) Rejections() model.Rejections {
	a.rejMu.Lock()
	defer a.rejMu.Unlock()
	return a.rejections
}

// Fingerprints returns the number of stored fingerprints.
func (a *Aggregator) Fingerprints() int {
	return a.fingerprints.Len()
}

// Report builds a report with the n most frequent words. A non-positive n
// includes every word. Each structure is read under its own lock, so the
// report is consistent per structure but not across them.
func (a *Aggregator) Report(n int) *model.CrawlReport {
	return &model.CrawlReport{
		StartedAt:   a.startedAt,
		FinishedAt:  time.Now(),
		PagesParsed: a.PagesParsed(),
		UniquePages: a.UniqueCount(),
		TopWords:    tokenize.TopN(a.Frequencies(), n, a.stopwords),
		LongestPage: a.LongestPage(),
		Subdomains:  a.Subdomains(),
		Rejections:  a.Rejections(),
	}
}
