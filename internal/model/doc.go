// Package model defines the data structures shared by the crawler packages.
//
// This package contains the following main types:
//   - Response: what a fetcher returns for one URL
//   - Content: the text, title and hrefs a parser extracts from a response
//   - PageRecord: the outcome of processing one page, as stored in history
//   - CrawlReport: the aggregate statistics of a finished crawl
//
// Models live in their own package so that the pipeline, crawler, report and
// database packages can share them without import cycles. Every type
// serializes to JSON for reports and database storage.
package model
