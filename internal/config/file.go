package config

import "time"

// File represents the structure of the .anteater configuration file.
// Unset fields leave the corresponding Config value untouched.
type File struct {
	Seeds            []string `yaml:"seeds,omitempty"`
	AllowedDomains   []string `yaml:"allowedDomains,omitempty"`
	DeniedExtensions []string `yaml:"deniedExtensions,omitempty"`

	// IgnorePatterns are URL path globs to skip during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL path globs to follow. If specified, only
	// URLs matching these patterns are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`

	Crawl   CrawlSection   `yaml:"crawl,omitempty"`
	Content ContentSection `yaml:"content,omitempty"`
	Report  ReportSection  `yaml:"report,omitempty"`
}

// CrawlSection holds fetch and politeness settings.
type CrawlSection struct {
	Workers     int           `yaml:"workers,omitempty"`
	MaxPages    *int          `yaml:"maxPages,omitempty"`
	MaxDepth    *int          `yaml:"maxDepth,omitempty"`
	CrawlDelay  time.Duration `yaml:"crawlDelay,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	UserAgent   string        `yaml:"userAgent,omitempty"`
	MaxBodySize int64         `yaml:"maxBodySize,omitempty"`
	RobotsDir   string        `yaml:"robotsDir,omitempty"`
}

// ContentSection holds page quality and link settings.
type ContentSection struct {
	MinTokens           *int    `yaml:"minTokens,omitempty"`
	SimilarityThreshold float64 `yaml:"similarityThreshold,omitempty"`
	TrapThreshold       int     `yaml:"trapThreshold,omitempty"`
	StripQuery          *bool   `yaml:"stripQuery,omitempty"`
	Stopwords           string  `yaml:"stopwords,omitempty"`
}

// ReportSection holds report output settings.
type ReportSection struct {
	TopWords *int   `yaml:"topWords,omitempty"`
	Format   string `yaml:"format,omitempty"`
	Output   string `yaml:"output,omitempty"`
	DBDir    string `yaml:"dbDir,omitempty"`
	SaveToDB *bool  `yaml:"saveToDB,omitempty"`
}

// Apply copies every set value of the file into cfg.
func (f *File) Apply(cfg *Config) {
	if len(f.Seeds) > 0 {
		cfg.Seeds = f.Seeds
	}
	if len(f.AllowedDomains) > 0 {
		cfg.AllowedDomains = f.AllowedDomains
	}
	if len(f.DeniedExtensions) > 0 {
		cfg.DeniedExtensions = f.DeniedExtensions
	}
	if len(f.IgnorePatterns) > 0 {
		cfg.IgnorePatterns = f.IgnorePatterns
	}
	if len(f.FollowPatterns) > 0 {
		cfg.FollowPatterns = f.FollowPatterns
	}

	c := f.Crawl
	if c.Workers != 0 {
		cfg.Workers = c.Workers
	}
	if c.MaxPages != nil {
		cfg.MaxPages = *c.MaxPages
	}
	if c.MaxDepth != nil {
		cfg.MaxDepth = *c.MaxDepth
	}
	if c.CrawlDelay != 0 {
		cfg.CrawlDelay = c.CrawlDelay
	}
	if c.Timeout != 0 {
		cfg.Timeout = c.Timeout
	}
	if c.UserAgent != "" {
		cfg.UserAgent = c.UserAgent
	}
	if c.MaxBodySize != 0 {
		cfg.MaxBodySize = c.MaxBodySize
	}
	if c.RobotsDir != "" {
		cfg.RobotsDir = c.RobotsDir
	}

	ct := f.Content
	if ct.MinTokens != nil {
		cfg.MinTokens = *ct.MinTokens
	}
	if ct.SimilarityThreshold != 0 {
		cfg.SimilarityThreshold = ct.SimilarityThreshold
	}
	if ct.TrapThreshold != 0 {
		cfg.TrapThreshold = ct.TrapThreshold
	}
	if ct.StripQuery != nil {
		cfg.StripQuery = *ct.StripQuery
	}
	if ct.Stopwords != "" {
		cfg.StopwordsFile = ct.Stopwords
	}

	r := f.Report
	if r.TopWords != nil {
		cfg.TopWords = *r.TopWords
	}
	if r.Format != "" {
		cfg.Format = r.Format
	}
	if r.Output != "" {
		cfg.ReportFile = r.Output
	}
	if r.DBDir != "" {
		cfg.DBDir = r.DBDir
	}
	if r.SaveToDB != nil {
		cfg.SaveToDB = *r.SaveToDB
	}
}
