package model

import (
	"time"

	"github.com/nao1215/anteater/internal/tokenize"
)

// CrawlReport holds the aggregate statistics of a crawl.
type CrawlReport struct {
	// ID is the database ID, zero until the report is saved.
	ID int64 `json:"id,omitempty"`

	// Seeds are the URLs the crawl started from.
	Seeds []string `json:"seeds,omitempty"`

	// StartedAt is when the crawl started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the report was produced.
	FinishedAt time.Time `json:"finished_at"`

	// PagesParsed counts every page that reached the parser, including
	// low-quality and duplicate pages.
	PagesParsed int `json:"pages_parsed"`

	// UniquePages counts distinct accepted page URLs, fragments removed.
	UniquePages int `json:"unique_pages"`

	// TopWords are the most frequent non-stopword tokens in ranking order.
	TopWords []tokenize.Entry `json:"top_words"`

	// LongestPage is the accepted page with the most tokens.
	LongestPage LongestPage `json:"longest_page"`

	// Subdomains are accepted page counts per host, sorted by host.
	Subdomains []SubdomainCount `json:"subdomains"`

	// Rejections counts pages that were not aggregated, by reason.
	Rejections Rejections `json:"rejections"`

	// Traps counts URLs excluded by the visit counter.
	Traps int `json:"traps"`

	// Sitemaps maps origins to the sitemap declared in their robots file.
	Sitemaps map[string]string `json:"sitemaps,omitempty"`

	// Cancelled is true when the crawl stopped before the frontier emptied.
	Cancelled bool `json:"cancelled"`
}

// LongestPage identifies the longest page seen.
type LongestPage struct {
	// URL of the page.
	URL string `json:"url"`

	// TokenCount is the number of tokens before stopword filtering.
	TokenCount int `json:"token_count"`
}

// SubdomainCount is the number of unique pages found on one host.
type SubdomainCount struct {
	Host  string `json:"host"`
	Count int    `json:"count"`
}

// Rejections counts pages excluded from aggregation.
type Rejections struct {
	FetchFailures int `json:"fetch_failures"`
	ParseFailures int `json:"parse_failures"`
	LowQuality    int `json:"low_quality"`
	Duplicates    int `json:"duplicates"`
}

// Total returns the number of rejected pages.
func (r Rejections) Total() int {
	return r.FetchFailures + r.ParseFailures + r.LowQuality + r.Duplicates
}

// Get returns the counter for one outcome. OutcomeAccepted is always zero.
func (r Rejections) Get(o Outcome) int {
	switch o {
	case OutcomeFetchFailure:
		return r.FetchFailures
	case OutcomeParseFailure:
		return r.ParseFailures
	case OutcomeLowQuality:
		return r.LowQuality
	case OutcomeDuplicate:
		return r.Duplicates
	default:
		return 0
	}
}

// Add increments the counter for one outcome. OutcomeAccepted is ignored.
func (r *Rejections) Add(o Outcome, n int) {
	switch o {
	case OutcomeFetchFailure:
		r.FetchFailures += n
	case OutcomeParseFailure:
		r.ParseFailures += n
	case OutcomeLowQuality:
		r.LowQuality += n
	case OutcomeDuplicate:
		r.Duplicates += n
	case OutcomeAccepted:
	}
}

// Duration returns how long the crawl ran.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SubdomainTotal returns the sum of all subdomain counts.
func (r *CrawlReport) SubdomainTotal() int {
	total := 0
	for _, s := range r.Subdomains {
		total += s.Count
	}
	return total
}
