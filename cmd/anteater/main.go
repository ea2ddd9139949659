// Package main provides the entry point for the anteater CLI.
//
// anteater crawls university web sites breadth-first, politely, and reports
// word frequencies, subdomain page counts and near-duplicate statistics.
//
// Usage:
//
//	anteater crawl [seed-url...]
//	anteater report [id]
//	anteater words <file>
//	anteater common <file1> <file2>
//
// See --help for all available options.
package main

// main is the entry point for anteater.
func main() {
	Execute()
}
