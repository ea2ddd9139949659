package model

import (
	"strings"
	"time"
)

// MaxBodySize is the default limit on response bodies read by a fetcher.
// Larger bodies are truncated.
const MaxBodySize = 5 * 1024 * 1024 // 5 MB

// Response is the result of fetching one URL.
type Response struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects. Empty when equal to URL.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Header contains the response headers in canonical form.
	Header map[string][]string `json:"header,omitempty"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type,omitempty"`

	// Body is the raw response body, possibly truncated.
	Body []byte `json:"-"`
}

// OK reports whether the response has status 200, the only status the
// crawler acts on.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == 200
}

// EffectiveURL returns the URL the body was actually served from.
func (r *Response) EffectiveURL() string {
	if r.FinalURL != "" {
		return r.FinalURL
	}
	return r.URL
}

// IsHTML reports whether the content type is HTML or XHTML. A missing
// content type is treated as HTML, since many academic servers omit it.
func (r *Response) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(r.ContentType))
	return ct == "" ||
		strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}

// Content is the text and link data extracted from a response.
type Content struct {
	// Title is the document title, empty if none.
	Title string `json:"title,omitempty"`

	// Lines holds the visible text, one entry per text block.
	Lines []string `json:"lines,omitempty"`

	// Links holds raw href values in document order.
	Links []string `json:"links,omitempty"`
}

// PageRecord describes how one page was processed.
type PageRecord struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects, if different.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP status, zero when the fetch failed outright.
	StatusCode int `json:"status_code"`

	// Title is the page title.
	Title string `json:"title,omitempty"`

	// TokenCount is the number of tokens before stopword filtering.
	TokenCount int `json:"token_count"`

	// Fingerprint is the simhash in hex, empty if not computed.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Checksum is the BLAKE2b-256 digest of the body in hex.
	Checksum string `json:"checksum,omitempty"`

	// Outcome is how processing ended.
	Outcome Outcome `json:"outcome"`

	// Links is the number of links accepted for the frontier.
	Links int `json:"links"`

	// Depth is the number of hops from the nearest seed.
	Depth int `json:"depth"`

	// CrawledAt is when processing finished.
	CrawledAt time.Time `json:"crawled_at"`

	// Error describes the failure, if any.
	Error string `json:"error,omitempty"`
}
