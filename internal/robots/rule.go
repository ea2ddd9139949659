package robots

import (
	"bufio"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

// Rule holds the directives that apply to this crawler on one origin.
// The zero value allows everything.
type Rule struct {
	// Allow lists absolute path prefixes that are explicitly permitted.
	Allow []string

	// Disallow lists absolute path prefixes that must not be fetched.
	Disallow []string

	// Sitemap is the last Sitemap URL declared in the file, if any.
	Sitemap string

	// CrawlDelay is the requested delay between fetches, zero if absent.
	CrawlDelay time.Duration
}

// Empty reports whether the rule places no restriction at all.
func (r *Rule) Empty() bool {
	return r == nil || (len(r.Allow) == 0 && len(r.Disallow) == 0)
}

// Allowed reports whether u may be fetched. An Allow prefix wins over any
// Disallow prefix; a path matching neither is allowed. Both sides are
// compared percent-decoded, so "/caf%C3%A9" matches "Disallow: /café" and
// "/~user" matches "Disallow: /%7Euser".
func (r *Rule) Allowed(u *url.URL) bool {
	if r.Empty() || u == nil {
		return true
	}

	candidate := u.EscapedPath()
	if candidate == "" {
		candidate = "/"
	}
	if u.RawQuery != "" {
		candidate += "?" + u.RawQuery
	}
	candidate = unescape(candidate)

	for _, prefix := range r.Allow {
		if strings.HasPrefix(candidate, unescape(prefix)) {
			return true
		}
	}
	for _, prefix := range r.Disallow {
		if strings.HasPrefix(candidate, unescape(prefix)) {
			return false
		}
	}
	return true
}

// unescape decodes percent escapes. Malformed escapes are kept as written.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}

// AllowedURL parses raw and calls Allowed. Unparseable URLs are not allowed.
func (r *Rule) AllowedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return r.Allowed(u)
}

// Parse builds the rule for agent from robots.txt text.
//
// Lines are "Directive: value" with '#' starting a comment. Directive names
// are case-insensitive. Allow and Disallow lines are taken from groups whose
// User-agent is "*" or matches agent, and from lines that precede the first
// group. Empty values are skipped. The last Sitemap line wins.
func Parse(text, agent string) *Rule {
	rule := &Rule{
		Allow:    make([]string, 0),
		Disallow: make([]string, 0),
	}
	token := productToken(agent)

	var (
		inGroup   bool
		applies   bool
		lastAgent bool
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		directive, value, ok := splitLine(scanner.Text())
		if !ok {
			continue
		}

		switch directive {
		case "user-agent":
			if !lastAgent {
				applies = false
			}
			inGroup = true
			lastAgent = true
			if matchesAgent(value, token) {
				applies = true
			}
			continue
		case "sitemap":
			// Sitemap is not bound to a group.
			if value != "" {
				rule.Sitemap = value
			}
		case "allow":
			if value != "" && (!inGroup || applies) {
				rule.Allow = append(rule.Allow, absolutePath(value))
			}
		case "disallow":
			if value != "" && (!inGroup || applies) {
				rule.Disallow = append(rule.Disallow, absolutePath(value))
			}
		}
		lastAgent = false
	}

	rule.CrawlDelay = crawlDelay([]byte(text), token)
	return rule
}

// splitLine strips comments and splits "Directive: value".
func splitLine(line string) (directive, value string, ok bool) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	name, val, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	directive = strings.ToLower(strings.TrimSpace(name))
	if directive == "" {
		return "", "", false
	}
	return directive, strings.TrimSpace(val), true
}

// productToken returns the lowercased name part of a User-Agent string,
// "anteater" for "Anteater/1.0 (+https://example.edu)".
func productToken(agent string) string {
	agent = strings.TrimSpace(agent)
	if i := strings.IndexAny(agent, "/ "); i >= 0 {
		agent = agent[:i]
	}
	return strings.ToLower(agent)
}

func matchesAgent(value, token string) bool {
	value = strings.ToLower(value)
	if value == "*" {
		return true
	}
	return token != "" && value != "" && strings.HasPrefix(token, value)
}

func absolutePath(value string) string {
	if strings.HasPrefix(value, "/") {
		return value
	}
	if u, err := url.Parse(value); err == nil && u.IsAbs() {
		p := u.EscapedPath()
		if p == "" {
			p = "/"
		}
		if u.RawQuery != "" {
			p += "?" + u.RawQuery
		}
		return p
	}
	return "/" + value
}

// crawlDelay reads the Crawl-delay hint for agent. Malformed files yield zero.
func crawlDelay(body []byte, token string) time.Duration {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return 0
	}
	agent := token
	if agent == "" {
		agent = "*"
	}
	group := data.FindGroup(agent)
	if group == nil {
		return 0
	}
	return group.CrawlDelay
}
