package crawler

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/anteater/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
)

// blockElements end the current text line when entered or left.
var blockElements = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "br": {},
	"dd": {}, "div": {}, "dl": {}, "dt": {}, "fieldset": {}, "figcaption": {},
	"figure": {}, "footer": {}, "form": {}, "h1": {}, "h2": {}, "h3": {},
	"h4": {}, "h5": {}, "h6": {}, "header": {}, "hr": {}, "li": {}, "main": {},
	"nav": {}, "ol": {}, "p": {}, "pre": {}, "section": {}, "table": {},
	"td": {}, "th": {}, "tr": {}, "ul": {},
}

// HTMLParser implements pipeline.ContentParser with goquery.
//
// Bodies are decoded to UTF-8 from the charset declared in the Content-Type
// header or the document, and visible text is NFKC-normalized so that
// full-width letters and ligatures tokenize like their ASCII forms.
// Scripts, styles and other non-visible elements are dropped.
type HTMLParser struct{}

// NewHTMLParser creates an HTMLParser.
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Parse extracts the title, text lines and hrefs of resp. Plain text bodies
// are split into lines and have no links.
func (p *HTMLParser) Parse(resp *model.Response) (*model.Content, error) {
	ct := strings.ToLower(resp.ContentType)
	switch {
	case resp.IsHTML():
		return p.parseHTML(resp)
	case strings.HasPrefix(ct, "text/plain"):
		return p.parseText(resp)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContent, resp.ContentType)
	}
}

func (p *HTMLParser) parseHTML(resp *model.Response) (*model.Content, error) {
	doc, err := goquery.NewDocumentFromReader(decode(resp))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, template, svg, iframe").Remove()

	content := &model.Content{
		Title: collapse(doc.Find("title").First().Text()),
		Lines: make([]string, 0),
		Links: make([]string, 0),
	}
	if content.Title != "" {
		content.Lines = append(content.Lines, norm.NFKC.String(content.Title))
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	for _, n := range root.Nodes {
		content.Lines = appendLines(content.Lines, n)
	}

	base := baseHref(doc, resp.EffectiveURL())
	doc.Find("a[href], area[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		content.Links = append(content.Links, href)
	})

	return content, nil
}

func (p *HTMLParser) parseText(resp *model.Response) (*model.Content, error) {
	data, err := io.ReadAll(decode(resp))
	if err != nil {
		return nil, fmt.Errorf("failed to decode text: %w", err)
	}
	content := &model.Content{
		Lines: make([]string, 0),
		Links: make([]string, 0),
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = collapse(line); line != "" {
			content.Lines = append(content.Lines, norm.NFKC.String(line))
		}
	}
	return content, nil
}

// decode wraps the body in a UTF-8 decoder. Unknown charsets fall back to
// the raw bytes.
func decode(resp *model.Response) io.Reader {
	r, err := charset.NewReader(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		return bytes.NewReader(resp.Body)
	}
	return r
}

// appendLines walks n and appends one line per run of inline text.
func appendLines(lines []string, n *html.Node) []string {
	var cur strings.Builder

	flush := func() {
		if line := collapse(cur.String()); line != "" {
			lines = append(lines, norm.NFKC.String(line))
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "title" || n.Data == "head" {
				return
			}
		}

		_, block := blockElements[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}

	walk(n)
	flush()
	return lines
}

// baseHref returns the document's <base href> resolved against pageURL, or
// nil when there is none.
func baseHref(doc *goquery.Document, pageURL string) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return nil
	}
	page, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil
	}
	return page.ResolveReference(ref)
}

// collapse trims s and folds whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
