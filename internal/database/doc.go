// Package database provides SQLite-based crawl history for anteater.
//
// The CrawlDB stores:
//   - the latest record of every processed page (status, tokens,
//     fingerprint, checksum, outcome)
//   - finished crawl reports, so past crawls can be listed and re-rendered
//
// The database is a single file opened through modernc.org/sqlite, a CGO-free
// driver. Nothing here is read back by the crawler itself: a crawl always
// starts from its seeds.
package database
