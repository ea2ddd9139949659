// Package report renders crawl reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: summary lines and `token -> count` lines for terminals
//   - MarkdownWriter: tables and a subdomain pie chart for sharing
//   - JSONWriter: structured JSON output for tool integration
//
// Report data lives in the model package; writers only format it. Writers
// implement the Writer interface, allowing them to be used interchangeably
// and composed for multi-format output.
package report
