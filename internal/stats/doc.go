// Package stats aggregates crawl-wide statistics.
//
// An Aggregator is created once per crawl and handed to every worker. It
// tracks pages parsed, the set of unique pages, global token frequencies,
// the longest page, pages per subdomain, seen fingerprints and rejection
// counters. Each structure has its own lock, so a worker merging frequencies
// never waits on one that is recording a subdomain.
package stats
