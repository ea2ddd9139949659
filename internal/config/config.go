package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/anteater/internal/links"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "anteater"

	// DefaultWorkers is the number of pages fetched and processed at once.
	// Requests to one host are still serialized by the per-host rate limit.
	DefaultWorkers = 8

	// DefaultMaxPages bounds the number of fetches in one crawl.
	DefaultMaxPages = 10000

	// DefaultMaxDepth is the maximum number of hops from a seed.
	DefaultMaxDepth = 50

	// DefaultCrawlDelay is the minimum interval between two requests to the
	// same host. A robots Crawl-delay larger than this wins.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultTimeout applies to each HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies anteater in HTTP requests.
	DefaultUserAgent = "anteater/1.0 (+https://github.com/nao1215/anteater)"

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultMinTokens is the smallest page worth fingerprinting.
	DefaultMinTokens = 100

	// DefaultSimilarityThreshold is the bit-agreement ratio at or above
	// which two pages are near-duplicates.
	DefaultSimilarityThreshold = 0.95

	// DefaultTrapThreshold is the extraction count at which a URL is
	// excluded as a trap.
	DefaultTrapThreshold = 3

	// DefaultTopWords is the number of words in a report.
	DefaultTopWords = 50

	// DefaultFormat is the report format.
	DefaultFormat = "text"
)

// DefaultSeeds are the front pages of the default allowed domains.
var DefaultSeeds = []string{
	"https://www.ics.uci.edu",
	"https://www.cs.uci.edu",
	"https://www.informatics.uci.edu",
	"https://www.stat.uci.edu",
}

// Config holds all configuration options for anteater.
// This struct is populated from defaults, the config file and CLI flags, in
// that order, and passed through the application rather than kept global.
type Config struct {
	// Seeds are the URLs the crawl starts from.
	Seeds []string

	// AllowedDomains limits the crawl to these domains and their subdomains.
	AllowedDomains []string

	// DeniedExtensions are added to the built-in extension denylist.
	DeniedExtensions []string

	// IgnorePatterns are URL path globs never queued.
	IgnorePatterns []string

	// FollowPatterns, when set, are the only URL path globs queued.
	FollowPatterns []string

	// Workers is the number of concurrent page workers.
	Workers int

	// MaxPages is the maximum number of fetches. 0 means unlimited.
	MaxPages int

	// MaxDepth is the maximum number of hops from a seed. Negative means
	// unlimited.
	MaxDepth int

	// CrawlDelay is the minimum interval between requests to one host.
	CrawlDelay time.Duration

	// Timeout is the timeout of each HTTP request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests and matched
	// against robots groups.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// MinTokens is the minimum token count of an accepted page.
	MinTokens int

	// SimilarityThreshold is the near-duplicate cutoff in (0, 1].
	SimilarityThreshold float64

	// TrapThreshold is the extraction count that excludes a URL.
	TrapThreshold int

	// StripQuery removes query strings from extracted links.
	StripQuery bool

	// StopwordsFile replaces the built-in stopword list when set.
	StopwordsFile string

	// RobotsDir, when set, is checked for <host>.txt robots files before
	// fetching /robots.txt over HTTP.
	RobotsDir string

	// TopWords is the number of words in the report.
	TopWords int

	// Format is the report format: text, markdown or json.
	Format string

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to XDG data directory (~/.local/share/anteater on Linux).
	DBDir string

	// SaveToDB indicates whether page records and the final report are
	// saved to the database.
	SaveToDB bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// JSONLog switches log output to JSON lines.
	JSONLog bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the file is searched as described in FindConfigFile.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Seeds:               slices.Clone(DefaultSeeds),
		AllowedDomains:      slices.Clone(links.DefaultAllowedDomains),
		Workers:             DefaultWorkers,
		MaxPages:            DefaultMaxPages,
		MaxDepth:            DefaultMaxDepth,
		CrawlDelay:          DefaultCrawlDelay,
		Timeout:             DefaultTimeout,
		UserAgent:           DefaultUserAgent,
		MaxBodySize:         DefaultMaxBodySize,
		MinTokens:           DefaultMinTokens,
		SimilarityThreshold: DefaultSimilarityThreshold,
		TrapThreshold:       DefaultTrapThreshold,
		TopWords:            DefaultTopWords,
		Format:              DefaultFormat,
		DBDir:               XDGDataDir(),
		SaveToDB:            true,
	}
}

// XDGDataDir returns the XDG data directory for anteater.
// On Linux: ~/.local/share/anteater
// On macOS: ~/Library/Application Support/anteater
// On Windows: %LOCALAPPDATA%\anteater
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for anteater.
// On Linux: ~/.config/anteater
// On macOS: ~/Library/Application Support/anteater
// On Windows: %APPDATA%\anteater
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	if len(c.AllowedDomains) == 0 {
		return ErrNoDomains
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MinTokens < 0 {
		return ErrInvalidMinTokens
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return ErrInvalidSimilarity
	}
	if c.TrapThreshold < 1 {
		return ErrInvalidTrapThreshold
	}
	if c.TopWords < 0 {
		return ErrInvalidTopWords
	}
	return nil
}
