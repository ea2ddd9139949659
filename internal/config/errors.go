package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while still printing a readable message.
var (
	// ErrNoSeeds is returned when no seed URL is configured.
	ErrNoSeeds = errors.New("no seed URL specified: pass URLs as arguments or set seeds in the config file")

	// ErrNoDomains is returned when the allowed domain list is empty.
	ErrNoDomains = errors.New("no allowed domains: the crawl would have no scope")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidMaxPages is returned when the page budget is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative (0 means unlimited)")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMinTokens is returned when the minimum token count is negative.
	ErrInvalidMinTokens = errors.New("invalid min tokens: must be non-negative")

	// ErrInvalidSimilarity is returned when the similarity threshold is
	// outside (0, 1].
	ErrInvalidSimilarity = errors.New("invalid similarity threshold: must be in (0, 1]")

	// ErrInvalidTrapThreshold is returned when the trap threshold is below 1.
	ErrInvalidTrapThreshold = errors.New("invalid trap threshold: must be at least 1")

	// ErrInvalidTopWords is returned when the report word count is negative.
	ErrInvalidTopWords = errors.New("invalid top words: must be non-negative")
)
