// Package crawler provides the network-facing collaborators of the crawl
// and the Spider that drives it.
//
// # Components
//
//   - HTTPFetcher: GETs pages with a per-host rate limit honoring robots
//     Crawl-delay, a body size cap and a descriptive User-Agent
//   - HTMLParser: extracts title, visible text lines and hrefs with goquery
//   - HTTPSource: serves /robots.txt to the robots resolver
//   - Frontier: FIFO of pending URLs deduplicated by a bloom filter
//   - Spider: breadth-first waves over the frontier through the pipeline
//
// # Politeness
//
// Every host has its own token bucket. The interval between two requests to
// a host is the larger of the configured delay and the robots Crawl-delay,
// capped at MaxCrawlDelay. Robots Disallow rules are applied by the link
// extractor before a URL ever reaches the frontier.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(crawler.WithCrawlDelay(500 * time.Millisecond))
//	spider := crawler.NewSpider(batch, crawler.WithMaxPages(1000))
//	stats, err := spider.Crawl(ctx, []string{"https://www.ics.uci.edu"})
package crawler
