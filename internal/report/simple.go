package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/anteater/internal/tokenize"
)

// SimpleWriter outputs plain text reports: summary lines, one `host, count`
// line per subdomain and one `token -> count` line per word in ranking
// order.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose adds seeds, sitemaps and the rejection breakdown.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in plain text.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeSubdomains(&sb, report)
	w.writeWords(&sb, report)
	w.writeSitemaps(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      ANTEATER CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if report.ID > 0 {
		fmt.Fprintf(sb, "Report ID:      %d\n", report.ID)
	}
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Finished:       %s\n", report.FinishedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Second))

	if report.Cancelled {
		sb.WriteString("Status:         CANCELLED (partial results)\n")
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	if w.verbose {
		for _, seed := range report.Seeds {
			fmt.Fprintf(sb, "Seed:           %s\n", seed)
		}
	}
	sb.WriteString("\n")
}

// writeSummary writes the aggregate counters.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	section(sb, "SUMMARY")

	fmt.Fprintf(sb, "Pages parsed: %d\n", report.PagesParsed)
	fmt.Fprintf(sb, "Unique pages: %d\n", report.UniquePages)
	if report.LongestPage.URL != "" {
		fmt.Fprintf(sb, "Longest page: %s (%d tokens)\n", report.LongestPage.URL, report.LongestPage.TokenCount)
	} else {
		sb.WriteString("Longest page: none\n")
	}
	fmt.Fprintf(sb, "Duplicates: %d\n", report.Rejections.Duplicates)

	if w.verbose {
		fmt.Fprintf(sb, "Low quality: %d\n", report.Rejections.LowQuality)
		fmt.Fprintf(sb, "Parse failures: %d\n", report.Rejections.ParseFailures)
		fmt.Fprintf(sb, "Fetch failures: %d\n", report.Rejections.FetchFailures)
		fmt.Fprintf(sb, "Traps: %d\n", report.Traps)
	}
	sb.WriteString("\n")
}

// writeSubdomains writes one `host, count` line per subdomain.
func (w *SimpleWriter) writeSubdomains(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Subdomains) == 0 && !w.showEmpty {
		return
	}

	section(sb, fmt.Sprintf("SUBDOMAINS (%d)", len(report.Subdomains)))
	if len(report.Subdomains) == 0 {
		sb.WriteString("  No subdomains\n")
	}
	for _, s := range report.Subdomains {
		fmt.Fprintf(sb, "%s, %d\n", s.Host, s.Count)
	}
	sb.WriteString("\n")
}

// writeWords writes the top words in ranking order.
func (w *SimpleWriter) writeWords(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.TopWords) == 0 && !w.showEmpty {
		return
	}

	section(sb, fmt.Sprintf("TOP WORDS (%d)", len(report.TopWords)))
	if len(report.TopWords) == 0 {
		sb.WriteString("  No words\n")
	}
	writeEntries(sb, report.TopWords)
	sb.WriteString("\n")
}

// writeSitemaps lists sitemaps declared in robots files.
func (w *SimpleWriter) writeSitemaps(sb *strings.Builder, report *model.CrawlReport) {
	if !w.verbose || len(report.Sitemaps) == 0 {
		return
	}

	section(sb, "SITEMAPS")
	for _, origin := range sortedKeys(report.Sitemaps) {
		fmt.Fprintf(sb, "  [+] %s %s\n", origin, report.Sitemaps[origin])
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by anteater\n")
	sb.WriteString("https://github.com/nao1215/anteater\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// WriteFrequencies writes one `token -> count` line per entry.
func WriteFrequencies(output io.Writer, entries []tokenize.Entry) (int, error) {
	var sb strings.Builder
	writeEntries(&sb, entries)
	return io.WriteString(output, sb.String())
}

func writeEntries(sb *strings.Builder, entries []tokenize.Entry) {
	for _, e := range entries {
		fmt.Fprintf(sb, "%s -> %d\n", e.Token, e.Count)
	}
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
