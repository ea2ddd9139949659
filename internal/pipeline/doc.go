// Package pipeline runs every fetched page through an ordered list of steps.
//
// A page moves through status check, parsing, tokenizing, the minimum-length
// check, fingerprinting, aggregation and link extraction. Any step may stop
// the page by returning one of the sentinel errors in errors.go; the page then
// contributes nothing further and yields no links, while the crawl carries on.
//
// BatchProcessor fetches and processes many URLs concurrently, bounded by
// errgroup.SetLimit, and is what the crawler drives one wave at a time.
package pipeline
