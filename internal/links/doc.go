// Package links turns the raw hrefs of a page into the set of URLs worth
// crawling next.
//
// Extraction resolves each href against the page URL, normalizes it, asks the
// robots resolver whether it may be fetched and counts how often it has been
// seen. A URL extracted three times (by default) is treated as a crawler trap
// and never returned again.
//
// Validity is a separate filter: only http and https URLs on the allowed
// university domains whose path does not end in a denied extension are valid.
package links
