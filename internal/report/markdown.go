package report

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// maxPieSlices is the number of subdomains drawn before the rest are
// folded into "other".
const maxPieSlices = 8

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeSubdomains(md, report)
	w.writeWords(md, report)
	w.writeSitemaps(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Anteater Crawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Started", report.StartedAt.Format(timeLayout)},
		{"Finished", report.FinishedAt.Format(timeLayout)},
		{"Duration", report.Duration().Round(time.Second).String()},
		{"Status", statusText(report)},
	}
	if report.ID > 0 {
		rows = append([][]string{{"Report ID", strconv.FormatInt(report.ID, 10)}}, rows...)
	}
	for _, seed := range report.Seeds {
		rows = append(rows, []string{"Seed", "`" + seed + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func statusText(report *model.CrawlReport) string {
	if report.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	return "✅ Complete"
}

// writeSummary writes the aggregate counters and the rejection breakdown.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Summary")
	md.PlainText("")

	longest := "-"
	if report.LongestPage.URL != "" {
		longest = "`" + report.LongestPage.URL + "` (" + strconv.Itoa(report.LongestPage.TokenCount) + " tokens)"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Pages parsed", strconv.Itoa(report.PagesParsed)},
			{"Unique pages", strconv.Itoa(report.UniquePages)},
			{"Longest page", longest},
			{"Duplicates", strconv.Itoa(report.Rejections.Duplicates)},
			{"Low quality", strconv.Itoa(report.Rejections.LowQuality)},
			{"Parse failures", strconv.Itoa(report.Rejections.ParseFailures)},
			{"Fetch failures", strconv.Itoa(report.Rejections.FetchFailures)},
			{"Traps", strconv.Itoa(report.Traps)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// writeAlert summarizes how the crawl ended.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.Cancelled:
		md.Warningf("The crawl was cancelled. Statistics cover %d parsed page(s).", report.PagesParsed)
	case report.UniquePages == 0:
		md.Cautionf("No page was accepted out of %d parsed page(s).", report.PagesParsed)
	case report.Traps > 0:
		md.Importantf("%d URL(s) were excluded as crawler traps.", report.Traps)
	default:
		md.Tip("The crawl finished without traps.")
	}
	md.PlainText("")
}

// writeSubdomains writes the subdomain table and its pie chart.
func (w *MarkdownWriter) writeSubdomains(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Subdomains")
	md.PlainText("")

	if len(report.Subdomains) == 0 {
		md.PlainText("No subdomains recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Subdomains))
	for i, s := range report.Subdomains {
		rows[i] = []string{s.Host, strconv.Itoa(s.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Host", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, report.Subdomains)
}

// writePieChart writes a mermaid pie chart of pages per subdomain.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, subdomains []model.SubdomainCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pages per Subdomain"),
		piechart.WithShowData(true),
	)

	for _, s := range pieSlices(subdomains) {
		chart.LabelAndIntValue(s.Host, uint64(s.Count)) //nolint:gosec // counts are never negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// pieSlices returns the largest subdomains, with the remainder summed into
// a final "other" slice.
func pieSlices(subdomains []model.SubdomainCount) []model.SubdomainCount {
	sorted := slices.Clone(subdomains)
	slices.SortFunc(sorted, func(a, b model.SubdomainCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Host, b.Host)
	})
	if len(sorted) <= maxPieSlices {
		return sorted
	}

	other := model.SubdomainCount{Host: "other"}
	for _, s := range sorted[maxPieSlices:] {
		other.Count += s.Count
	}
	return append(sorted[:maxPieSlices], other)
}

// writeWords writes the top words table.
func (w *MarkdownWriter) writeWords(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Top Words")
	md.PlainText("")

	if len(report.TopWords) == 0 {
		md.PlainText("No words recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.TopWords))
	for i, e := range report.TopWords {
		rows[i] = []string{strconv.Itoa(i + 1), e.Token, strconv.Itoa(e.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Word", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSitemaps lists sitemaps declared in robots files.
func (w *MarkdownWriter) writeSitemaps(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Sitemaps) == 0 {
		return
	}

	md.H2("Sitemaps")
	md.PlainText("")

	items := make([]string, 0, len(report.Sitemaps))
	for _, origin := range sortedKeys(report.Sitemaps) {
		items = append(items, origin+": "+report.Sitemaps[origin])
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [anteater](https://github.com/nao1215/anteater)*")
}
