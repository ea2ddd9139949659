package links

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// normalizeFlags lowercases scheme and host, drops default ports, removes
// dot segments and duplicate slashes. The fragment is always dropped.
const normalizeFlags = purell.FlagsSafe |
	purell.FlagRemoveDotSegments |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveFragment

// skippedPrefixes are href schemes that never lead to a crawlable page.
var skippedPrefixes = []string{"javascript:", "mailto:", "tel:", "data:"}

// Normalizer resolves hrefs into canonical absolute URLs.
type Normalizer struct {
	stripQuery bool
}

// NewNormalizer creates a Normalizer. When stripQuery is true the query
// string is removed as well as the fragment.
func NewNormalizer(stripQuery bool) *Normalizer {
	return &Normalizer{stripQuery: stripQuery}
}

// Normalize resolves href against base and canonicalizes the result.
func (n *Normalizer) Normalize(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}
	return n.NormalizeURL(base.ResolveReference(ref)), nil
}

// NormalizeString canonicalizes an absolute URL.
func (n *Normalizer) NormalizeString(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%w: %q is not absolute", ErrMalformedURL, raw)
	}
	return n.NormalizeURL(u), nil
}

// NormalizeURL canonicalizes u. u is not modified. An empty path becomes
// "/" so that a host and its root page share one URL.
func (n *Normalizer) NormalizeURL(u *url.URL) string {
	c := *u
	if c.Path == "" && c.Opaque == "" && c.Host != "" {
		c.Path = "/"
		c.RawPath = ""
	}
	if n.stripQuery {
		c.RawQuery = ""
		c.ForceQuery = false
	}
	return purell.NormalizeURL(&c, normalizeFlags)
}

// Defragment returns raw without its fragment. Unparseable input is
// returned unchanged.
func Defragment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func skippedHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	lower := strings.ToLower(href)
	for _, p := range skippedPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
