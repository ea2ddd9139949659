package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/anteater/internal/config"
	"github.com/nao1215/anteater/internal/crawler"
	"github.com/nao1215/anteater/internal/database"
	"github.com/nao1215/anteater/internal/links"
	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/anteater/internal/pipeline"
	"github.com/nao1215/anteater/internal/report"
	"github.com/nao1215/anteater/internal/robots"
	"github.com/nao1215/anteater/internal/simhash"
	"github.com/nao1215/anteater/internal/stats"
	"github.com/nao1215/anteater/internal/tokenize"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl university web sites and report word statistics",
		Long: `Crawl fetches pages breadth-first from the seed URLs, staying inside the
allowed domains, and reports:
- the number of pages parsed and unique pages accepted
- the longest page by token count
- the most frequent words, stopwords excluded
- the number of accepted pages per subdomain
- how many pages were rejected as near-duplicates or low quality

robots.txt Disallow rules and Crawl-delay are honored for every host.
Press Ctrl+C to stop early; the report then covers the pages seen so far.

Examples:
  # Crawl the default university seeds
  anteater crawl

  # Crawl one site with a small page budget
  anteater crawl --max-pages 200 https://www.stat.uci.edu

  # Write a Markdown report to a file
  anteater crawl --format markdown -o reports/crawl.md

  # Use a custom configuration file
  anteater crawl -c myconfig.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of pages fetched concurrently")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch (0 = unlimited)")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from a seed (negative = unlimited)")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Minimum interval between requests to one host")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header, also matched against robots.txt groups")
	cmd.Flags().StringSlice("domain", nil,
		"Allowed domain, repeatable (replaces the configured domains)")
	cmd.Flags().String("robots-dir", "",
		"Directory of <host>.txt robots files checked before fetching /robots.txt")

	// Content flags
	cmd.Flags().Int("min-tokens", config.DefaultMinTokens,
		"Minimum tokens for a page to be counted")
	cmd.Flags().Float64("similarity", config.DefaultSimilarityThreshold,
		"Similarity at or above which a page is a near-duplicate")
	cmd.Flags().Bool("strip-query", false,
		"Drop query strings from extracted links")
	cmd.Flags().String("stopwords", "",
		"Stopword file, one word per line (default: built-in English list)")

	// Report flags
	cmd.Flags().IntP("top", "n", config.DefaultTopWords,
		"Number of most frequent words in the report (0 = all)")
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Report format: text, markdown or json")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("db-dir", "",
		"Directory of the crawl history database (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not record pages and the report in the crawl history")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyCrawlFlags(cmd, cfg, args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cmd, cfg, format, logger)
}

// applyCrawlFlags copies explicitly set flags over the configuration.
// Positional arguments replace the seeds.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config, args []string) error {
	flags := cmd.Flags()
	var err error

	if len(args) > 0 {
		cfg.Seeds = args
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return err
		}
	}
	if flags.Changed("depth") {
		if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
			return err
		}
	}
	if flags.Changed("delay") {
		if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return err
		}
	}
	if flags.Changed("domain") {
		if cfg.AllowedDomains, err = flags.GetStringSlice("domain"); err != nil {
			return err
		}
	}
	if flags.Changed("robots-dir") {
		if cfg.RobotsDir, err = flags.GetString("robots-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("min-tokens") {
		if cfg.MinTokens, err = flags.GetInt("min-tokens"); err != nil {
			return err
		}
	}
	if flags.Changed("similarity") {
		if cfg.SimilarityThreshold, err = flags.GetFloat64("similarity"); err != nil {
			return err
		}
	}
	if flags.Changed("strip-query") {
		if cfg.StripQuery, err = flags.GetBool("strip-query"); err != nil {
			return err
		}
	}
	if flags.Changed("stopwords") {
		if cfg.StopwordsFile, err = flags.GetString("stopwords"); err != nil {
			return err
		}
	}
	if flags.Changed("top") {
		if cfg.TopWords, err = flags.GetInt("top"); err != nil {
			return err
		}
	}
	if flags.Changed("format") {
		if cfg.Format, err = flags.GetString("format"); err != nil {
			return err
		}
	}
	if flags.Changed("output") {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return err
	}
	if noDB {
		cfg.SaveToDB = false
	}
	return nil
}

// crawlStack holds the wired collaborators of one crawl.
type crawlStack struct {
	validator *links.Validator
	resolver  *robots.Resolver
	extractor *links.Extractor
	stats     *stats.Aggregator
	batch     *pipeline.BatchProcessor
}

// newCrawlStack wires the page pipeline described by cfg.
func newCrawlStack(cfg *config.Config, logger *slog.Logger) (*crawlStack, error) {
	stopwords := tokenize.DefaultStopwords()
	if cfg.StopwordsFile != "" {
		var err error
		stopwords, err = tokenize.LoadStopwordsFile(cfg.StopwordsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load stopwords: %w", err)
		}
	}

	validator := links.NewValidator(
		links.WithAllowedDomains(cfg.AllowedDomains...),
		links.WithDeniedExtensions(cfg.DeniedExtensions...),
		links.WithValidatorLogger(logger),
	)

	client := &http.Client{Timeout: cfg.Timeout}

	var sources robots.ChainSource
	if cfg.RobotsDir != "" {
		sources = append(sources, robots.NewDirSource(cfg.RobotsDir))
	}
	sources = append(sources, crawler.NewHTTPSource(client, cfg.UserAgent))

	resolver := robots.NewResolver(sources,
		robots.WithUserAgent(cfg.UserAgent),
		robots.WithScope(validator.InScope),
		robots.WithLogger(logger),
	)

	extractor := links.NewExtractor(
		links.WithPoliteness(resolver),
		links.WithTrapThreshold(cfg.TrapThreshold),
		links.WithStripQuery(cfg.StripQuery),
		links.WithExtractorLogger(logger),
	)

	agg := stats.NewAggregator(
		stats.WithStopwords(stopwords),
		stats.WithScope(validator.InScope),
		stats.WithFingerprintStore(simhash.NewStore(simhash.WithThreshold(cfg.SimilarityThreshold))),
	)

	pagePipeline := pipeline.NewPagePipeline(pipeline.Components{
		Parser:    crawler.NewHTMLParser(),
		Tokenizer: tokenize.New(),
		Stats:     agg,
		Extractor: extractor,
		Validator: validator,
		MinTokens: cfg.MinTokens,
	}, pipeline.WithLogger(logger))

	fetcher := crawler.NewHTTPFetcher(
		crawler.WithHTTPClient(client),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithCrawlDelay(cfg.CrawlDelay),
		crawler.WithRobots(resolver),
		crawler.WithFetcherLogger(logger),
	)

	processor := pipeline.NewProcessor(fetcher, pagePipeline, agg, pipeline.WithProcessorLogger(logger))
	batch := pipeline.NewBatchProcessor(processor,
		pipeline.WithConcurrency(cfg.Workers),
		pipeline.WithBatchLogger(logger),
	)

	return &crawlStack{
		validator: validator,
		resolver:  resolver,
		extractor: extractor,
		stats:     agg,
		batch:     batch,
	}, nil
}

// runCrawl crawls, stores and prints the report. A cancelled context ends
// the crawl early but still produces a report.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, format report.Format, logger *slog.Logger) error {
	stack, err := newCrawlStack(cfg, logger)
	if err != nil {
		return err
	}

	seeds := stack.validator.Filter(cfg.Seeds)
	if len(seeds) == 0 {
		return fmt.Errorf("%w: none of %v is inside the allowed domains %v",
			crawler.ErrNoSeeds, cfg.Seeds, cfg.AllowedDomains)
	}

	var db *database.CrawlDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	spider := crawler.NewSpider(stack.batch,
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithFollowPatterns(cfg.FollowPatterns),
		crawler.WithSeedRobots(stack.resolver),
		crawler.WithOnPage(pageRecorder(ctx, db, logger)),
		crawler.WithSpiderLogger(logger),
	)

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Crawling %d seed(s) with %d workers...\n", len(seeds), cfg.Workers)
	startTime := time.Now()

	spiderStats, crawlErr := spider.Crawl(ctx, seeds)
	cancelled := ctx.Err() != nil
	if crawlErr != nil && !cancelled {
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}
	if cancelled {
		fmt.Fprintln(stderr, "Crawl interrupted, reporting pages seen so far.")
	}
	fmt.Fprintf(stderr, "Crawl finished in %s: %d pages fetched, %d accepted\n\n",
		time.Since(startTime).Round(time.Millisecond), spiderStats.PagesVisited, spiderStats.PagesAccepted)

	crawlReport := stack.stats.Report(cfg.TopWords)
	crawlReport.Seeds = seeds
	crawlReport.Traps = len(stack.extractor.Counter().Traps(cfg.TrapThreshold))
	crawlReport.Sitemaps = stack.resolver.Sitemaps()
	crawlReport.Cancelled = cancelled || spiderStats.Pending > 0

	if db != nil {
		if _, err := db.SaveCrawlReport(context.WithoutCancel(ctx), crawlReport); err != nil {
			logger.Error("failed to save crawl report", "error", err)
		} else {
			logger.Info("crawl report saved", "id", crawlReport.ID)
		}
	}

	return outputReport(cmd, cfg, format, crawlReport)
}

// pageRecorder returns the spider callback storing page records. It is a
// no-op without a database. Pages interrupted by cancellation are skipped.
func pageRecorder(ctx context.Context, db *database.CrawlDB, logger *slog.Logger) func(*pipeline.PageState) {
	if db == nil {
		return nil
	}
	storeCtx := context.WithoutCancel(ctx)
	return func(state *pipeline.PageState) {
		if state.Cancelled {
			return
		}
		if err := db.InsertPageRecord(storeCtx, state.Record()); err != nil {
			logger.Warn("failed to store page record", "url", state.URL, "error", err)
		}
	}
}

// outputReport writes the report to stdout, or to cfg.ReportFile with a
// text summary on stdout. A report file without extension gets the one of
// the format.
func outputReport(cmd *cobra.Command, cfg *config.Config, format report.Format, crawlReport *model.CrawlReport) error {
	stdout := cmd.OutOrStdout()
	if cfg.ReportFile == "" {
		writer, err := newReportWriter(format, stdout, cfg.Verbose)
		if err != nil {
			return err
		}
		_, err = writer.Write(crawlReport)
		return err
	}

	path := cfg.ReportFile
	if filepath.Ext(path) == "" {
		path += format.Extension()
	}
	file, err := createReportFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fileWriter, err := newReportWriter(format, file, cfg.Verbose)
	if err != nil {
		return err
	}
	writers := []report.Writer{fileWriter}
	if format != report.FormatText {
		writers = append(writers, report.NewSimpleWriter(stdout))
	}
	if _, err := report.NewMultiWriter(writers...).Write(crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to %s\n", path)
	return nil
}

// newReportWriter returns the writer for format. Text reports include the
// rejection breakdown when verbose.
func newReportWriter(format report.Format, output io.Writer, verbose bool) (report.Writer, error) {
	if format == report.FormatText {
		return report.NewSimpleWriter(output, report.WithVerbose(verbose)), nil
	}
	return report.New(format, output, getVersion())
}

// createReportFile creates path and its parent directories.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return file, nil
}
