// Package robots resolves per-origin crawl rules from robots.txt data.
//
// Only the Allow, Disallow and Sitemap directives are interpreted, plus the
// Crawl-delay hint. Rules are cached per origin for the lifetime of a
// Resolver. A missing or unreadable robots file never stops a crawl: the
// origin gets the empty rule, which allows everything.
package robots
