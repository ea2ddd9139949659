package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/anteater/internal/config"
	"github.com/nao1215/anteater/internal/database"
	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/anteater/internal/report"
	"github.com/nao1215/anteater/internal/simhash"
	"github.com/spf13/cobra"
)

// historyTimeLayout formats timestamps in history listings.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [id|latest]",
		Short: "Show crawl history or re-render a stored crawl report",
		Long: `Report reads the crawl history recorded by 'anteater crawl'.

Without arguments it lists the stored crawl reports, newest first, and the
number of recorded pages per outcome. With a report ID, or "latest", it
renders that report again in any format.

Examples:
  # List crawl history
  anteater report

  # Show the most recent report as Markdown
  anteater report latest --format markdown

  # Show report 3 as JSON
  anteater report 3 -f json

  # Show what was recorded for one page
  anteater report --page https://www.ics.uci.edu/about/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReportCmd,
	}

	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Report format: text, markdown or json")
	cmd.Flags().String("db-dir", "",
		"Directory of the crawl history database (default: XDG data directory)")
	cmd.Flags().String("page", "",
		"Show the stored record of one page URL")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, args []string) error {
	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	pageURL, err := cmd.Flags().GetString("page")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database
	var reportID int64
	if len(args) == 1 && args[0] != "latest" {
		reportID, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil || reportID <= 0 {
			return fmt.Errorf("invalid report ID %q (use a number from 'anteater report' or \"latest\")", args[0])
		}
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dbDir = cfg.DBDir
	}

	out := cmd.OutOrStdout()
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if errors.Is(err, database.ErrNotFound) {
		fmt.Fprintln(out, "No crawl history found.")
		fmt.Fprintln(out, "\nUse 'anteater crawl' to run a crawl.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	switch {
	case pageURL != "":
		return showPageRecord(ctx, out, db, pageURL)
	case len(args) == 0:
		return listCrawlHistory(ctx, out, db)
	}

	var crawlReport *model.CrawlReport
	if reportID == 0 {
		crawlReport, err = db.GetLatestCrawlReport(ctx)
	} else {
		crawlReport, err = db.GetCrawlReportByID(ctx, reportID)
	}
	if err != nil {
		return fmt.Errorf("failed to load crawl report: %w", err)
	}
	if crawlReport == nil {
		return fmt.Errorf("crawl report %s not found", args[0])
	}

	writer, err := newReportWriter(format, out, getVerboseFlag(cmd))
	if err != nil {
		return err
	}
	_, err = writer.Write(crawlReport)
	return err
}

// listCrawlHistory prints stored reports and page counts per outcome.
func listCrawlHistory(ctx context.Context, out io.Writer, db *database.CrawlDB) error {
	reports, err := db.ListCrawlReports(ctx)
	if err != nil {
		return fmt.Errorf("failed to list crawl reports: %w", err)
	}

	if len(reports) == 0 {
		fmt.Fprintln(out, "No crawl reports found in the database.")
		fmt.Fprintln(out, "\nUse 'anteater crawl' to run a crawl.")
		return nil
	}

	fmt.Fprintf(out, "Crawl history (%d crawls):\n\n", len(reports))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %-8s  %s\n", "ID", "Started", "Duration", "Parsed", "Unique")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))
	for _, meta := range reports {
		status := ""
		if meta.Cancelled {
			status = " (stopped early)"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-10s  %-8d  %d%s\n",
			meta.ID,
			meta.StartedAt.Local().Format(historyTimeLayout),
			meta.FinishedAt.Sub(meta.StartedAt).Round(time.Second),
			meta.PagesParsed,
			meta.UniquePages,
			status,
		)
	}

	counts, err := db.CountPagesByOutcome(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pages: %w", err)
	}
	if len(counts) > 0 {
		fmt.Fprintln(out, "\nRecorded pages:")
		parsed := 0
		for _, o := range model.Outcomes {
			n := counts[o]
			if o.Counted() {
				parsed += n
			}
			if n > 0 {
				fmt.Fprintf(out, "  %-16s %d\n", o.String(), n)
			}
		}
		fmt.Fprintf(out, "  %-16s %d\n", "parsed", parsed)
	}

	fmt.Fprintln(out, "\nUse 'anteater report <id>' to show a stored report.")
	return nil
}

// showPageRecord prints the stored record of rawURL.
func showPageRecord(ctx context.Context, out io.Writer, db *database.CrawlDB, rawURL string) error {
	rec, err := db.GetPageRecord(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("failed to load page record: %w", err)
	}
	if rec == nil {
		fmt.Fprintf(out, "No record found for %s\n", rawURL)
		return nil
	}

	fmt.Fprintf(out, "URL:         %s\n", rec.URL)
	if rec.FinalURL != "" {
		fmt.Fprintf(out, "Final URL:   %s\n", rec.FinalURL)
	}
	fmt.Fprintf(out, "Outcome:     %s\n", rec.Outcome.Description())
	fmt.Fprintf(out, "Status:      %d\n", rec.StatusCode)
	if rec.Title != "" {
		fmt.Fprintf(out, "Title:       %s\n", rec.Title)
	}
	fmt.Fprintf(out, "Tokens:      %d\n", rec.TokenCount)
	fmt.Fprintf(out, "Links:       %d\n", rec.Links)
	fmt.Fprintf(out, "Depth:       %d\n", rec.Depth)
	if rec.Fingerprint != "" {
		fmt.Fprintf(out, "Fingerprint: %s\n", rec.Fingerprint)
	}
	if rec.Outcome == model.OutcomeDuplicate && rec.Fingerprint != "" {
		closest, similarity, err := closestPage(ctx, db, rec)
		if err != nil {
			return err
		}
		if closest != "" {
			fmt.Fprintf(out, "Closest:     %s (similarity %.3f)\n", closest, similarity)
		}
	}
	if rec.Checksum != "" {
		fmt.Fprintf(out, "Checksum:    %s\n", rec.Checksum)
	}
	if rec.Error != "" {
		fmt.Fprintf(out, "Error:       %s\n", rec.Error)
	}
	if !rec.CrawledAt.IsZero() {
		fmt.Fprintf(out, "Crawled at:  %s\n", rec.CrawledAt.Local().Format(historyTimeLayout))
	}
	return nil
}

// closestPage finds the accepted page whose fingerprint is most similar to
// the one of rec. Ties go to the smaller URL.
func closestPage(ctx context.Context, db *database.CrawlDB, rec *model.PageRecord) (string, float64, error) {
	fp, err := simhash.Parse(rec.Fingerprint)
	if err != nil {
		return "", 0, fmt.Errorf("stored record of %s: %w", rec.URL, err)
	}
	accepted, err := db.AcceptedFingerprints(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to load fingerprints: %w", err)
	}

	var (
		best    string
		bestSim = -1.0
	)
	for url, raw := range accepted {
		if url == rec.URL {
			continue
		}
		other, err := simhash.Parse(raw)
		if err != nil {
			continue
		}
		sim := simhash.Similarity(fp, other)
		if sim > bestSim || (sim == bestSim && url < best) {
			best, bestSim = url, sim
		}
	}
	if best == "" {
		return "", 0, nil
	}
	return best, bestSim, nil
}
