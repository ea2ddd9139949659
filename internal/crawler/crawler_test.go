package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/anteater/internal/links"
	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/anteater/internal/pipeline"
	"github.com/nao1215/anteater/internal/robots"
	"github.com/nao1215/anteater/internal/stats"
	"github.com/nao1215/anteater/internal/tokenize"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func htmlResponse(body string) *model.Response {
	return &model.Response{
		URL:         "https://www.ics.uci.edu/dept/index.html",
		StatusCode:  http.StatusOK,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(body),
	}
}

// TestHTMLParser tests text and link extraction.
func TestHTMLParser(t *testing.T) {
	t.Parallel()

	parser := NewHTMLParser()

	t.Run("extracts title as first line", func(t *testing.T) {
		t.Parallel()

		content, err := parser.Parse(htmlResponse(`<html><head><title> Test   Page </title></head><body><p>hello</p></body></html>`))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if content.Title != "Test Page" {
			t.Errorf("expected title 'Test Page', got %q", content.Title)
		}
		want := []string{"Test Page", "hello"}
		if !slices.Equal(content.Lines, want) {
			t.Errorf("got lines %q, want %q", content.Lines, want)
		}
	})

	t.Run("splits lines on block elements", func(t *testing.T) {
		t.Parallel()

		body := `<body><p>one <b>two</b></p><div>a<div>b</div>c</div>x<br>y</body>`
		content, err := parser.Parse(htmlResponse(body))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		want := []string{"one two", "a", "b", "c", "x", "y"}
		if !slices.Equal(content.Lines, want) {
			t.Errorf("got lines %q, want %q", content.Lines, want)
		}
	})

	t.Run("drops scripts and styles", func(t *testing.T) {
		t.Parallel()

		body := `<body><script>var secret = 1;</script><style>p{}</style><noscript>enable js</noscript><p>visible</p></body>`
		content, err := parser.Parse(htmlResponse(body))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if !slices.Equal(content.Lines, []string{"visible"}) {
			t.Errorf("got lines %q", content.Lines)
		}
	})

	t.Run("collects hrefs", func(t *testing.T) {
		t.Parallel()

		body := `<body>
			<a href="/people">People</a>
			<a href="  research.html ">Research</a>
			<a href="">empty</a>
			<a>no href</a>
			<map><area href="https://cs.uci.edu/"></map>
		</body>`
		content, err := parser.Parse(htmlResponse(body))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		want := []string{"/people", "research.html", "https://cs.uci.edu/"}
		if !slices.Equal(content.Links, want) {
			t.Errorf("got links %q, want %q", content.Links, want)
		}
	})

	t.Run("resolves hrefs against base element", func(t *testing.T) {
		t.Parallel()

		body := `<html><head><base href="/archive/"></head><body><a href="2019.html">old</a></body></html>`
		content, err := parser.Parse(htmlResponse(body))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		want := []string{"https://www.ics.uci.edu/archive/2019.html"}
		if !slices.Equal(content.Links, want) {
			t.Errorf("got links %q, want %q", content.Links, want)
		}
	})

	t.Run("decodes declared charset", func(t *testing.T) {
		t.Parallel()

		resp := htmlResponse("<p>caf\xe9</p>")
		resp.ContentType = "text/html; charset=iso-8859-1"
		content, err := parser.Parse(resp)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if !slices.Equal(content.Lines, []string{"café"}) {
			t.Errorf("got lines %q", content.Lines)
		}
	})

	t.Run("applies compatibility normalization", func(t *testing.T) {
		t.Parallel()

		content, err := parser.Parse(htmlResponse("<p>ＵＣＩ ﬁle</p>"))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if !slices.Equal(content.Lines, []string{"UCI file"}) {
			t.Errorf("got lines %q", content.Lines)
		}
	})

	t.Run("plain text", func(t *testing.T) {
		t.Parallel()

		resp := htmlResponse("first line\n\n  second   line \n")
		resp.ContentType = "text/plain"
		content, err := parser.Parse(resp)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if !slices.Equal(content.Lines, []string{"first line", "second line"}) {
			t.Errorf("got lines %q", content.Lines)
		}
		if len(content.Links) != 0 {
			t.Errorf("expected no links, got %q", content.Links)
		}
	})

	t.Run("rejects binary content", func(t *testing.T) {
		t.Parallel()

		resp := htmlResponse("%PDF-1.4")
		resp.ContentType = "application/pdf"
		if _, err := parser.Parse(resp); !errors.Is(err, ErrUnsupportedContent) {
			t.Errorf("expected ErrUnsupportedContent, got %v", err)
		}
	})
}

// TestHTTPFetcher tests fetching over a local server.
func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<p>%s</p>", r.Header.Get("User-Agent"))
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 1000))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Run("returns body and headers", func(t *testing.T) {
		t.Parallel()

		f := NewHTTPFetcher(WithUserAgent("test-agent"), WithFetcherLogger(quietLogger()))
		resp, err := f.Fetch(context.Background(), srv.URL+"/page")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if !resp.OK() {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		if string(resp.Body) != "<p>test-agent</p>" {
			t.Errorf("unexpected body %q", resp.Body)
		}
		if resp.ContentType != "text/html" {
			t.Errorf("unexpected content type %q", resp.ContentType)
		}
		if resp.FinalURL != "" {
			t.Errorf("expected no final URL, got %q", resp.FinalURL)
		}
	})

	t.Run("records redirect target", func(t *testing.T) {
		t.Parallel()

		f := NewHTTPFetcher(WithFetcherLogger(quietLogger()))
		resp, err := f.Fetch(context.Background(), srv.URL+"/old")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if resp.FinalURL != srv.URL+"/page" {
			t.Errorf("expected final URL %q, got %q", srv.URL+"/page", resp.FinalURL)
		}
		if resp.EffectiveURL() != resp.FinalURL {
			t.Errorf("EffectiveURL() = %q", resp.EffectiveURL())
		}
	})

	t.Run("non-200 is a response", func(t *testing.T) {
		t.Parallel()

		f := NewHTTPFetcher(WithFetcherLogger(quietLogger()))
		resp, err := f.Fetch(context.Background(), srv.URL+"/missing")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("caps body size", func(t *testing.T) {
		t.Parallel()

		f := NewHTTPFetcher(WithMaxBodySize(10), WithFetcherLogger(quietLogger()))
		resp, err := f.Fetch(context.Background(), srv.URL+"/big")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(resp.Body) != 10 {
			t.Errorf("expected 10 bytes, got %d", len(resp.Body))
		}
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()

		dead := httptest.NewServer(http.NotFoundHandler())
		addr := dead.URL
		dead.Close()

		f := NewHTTPFetcher(WithFetcherLogger(quietLogger()))
		if _, err := f.Fetch(context.Background(), addr+"/"); err == nil {
			t.Error("expected error from closed server")
		}
	})

	t.Run("seeds disallowed by robots are skipped", func(t *testing.T) {
		t.Parallel()

		srv := site(t)
		resolver := robots.NewResolver(
			robots.MapSource{srv.URL: "User-agent: *\nDisallow: /b\n"},
			robots.WithLogger(quietLogger()),
		)
		spider, _ := newSpider(t, srv, WithSeedRobots(resolver), WithMaxDepth(0))

		st, err := spider.Crawl(context.Background(), []string{srv.URL + "/b", srv.URL + "/c"})
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}
		if st.PagesVisited != 1 || st.URLsQueued != 1 {
			t.Errorf("expected only /c to be fetched, got %+v", st)
		}

		spider, _ = newSpider(t, srv, WithSeedRobots(resolver))
		if _, err := spider.Crawl(context.Background(), []string{srv.URL + "/b"}); !errors.Is(err, ErrNoSeeds) {
			t.Errorf("expected ErrNoSeeds, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f := NewHTTPFetcher(WithFetcherLogger(quietLogger()))
		if _, err := f.Fetch(ctx, srv.URL+"/page"); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}

// TestHTTPFetcherDelay tests the per-host interval.
func TestHTTPFetcherDelay(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	origin := robots.Origin(u)

	tests := []struct {
		name   string
		delay  time.Duration
		robots string
		want   time.Duration
	}{
		{"configured delay", 200 * time.Millisecond, "", 200 * time.Millisecond},
		{"robots crawl-delay wins", 100 * time.Millisecond, "User-agent: *\nCrawl-delay: 2\n", 2 * time.Second},
		{"configured delay wins", 5 * time.Second, "User-agent: *\nCrawl-delay: 1\n", 5 * time.Second},
		{"crawl-delay is capped", 0, "User-agent: *\nCrawl-delay: 3600\n", MaxCrawlDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolver := robots.NewResolver(robots.MapSource{origin: tt.robots}, robots.WithLogger(quietLogger()))
			f := NewHTTPFetcher(
				WithCrawlDelay(tt.delay),
				WithRobots(resolver),
				WithFetcherLogger(quietLogger()),
			)

			if got := f.Delay(u); got != 0 {
				t.Errorf("expected no delay before first fetch, got %v", got)
			}
			if _, err := f.Fetch(context.Background(), u.String()); err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if got := f.Delay(u); got != tt.want {
				t.Errorf("Delay() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestHTTPSource tests robots.txt retrieval.
func TestHTTPSource(t *testing.T) {
	t.Parallel()

	var gotAgent string
	var mu sync.Mutex
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAgent = r.Header.Get("User-Agent")
		mu.Unlock()
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
	}))
	t.Cleanup(ok.Close)

	missing := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(missing.Close)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	src := NewHTTPSource(nil, "test-agent")

	t.Run("returns body", func(t *testing.T) {
		t.Parallel()

		data, err := src.Fetch(context.Background(), ok.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if !strings.Contains(string(data), "Disallow: /private") {
			t.Errorf("unexpected body %q", data)
		}
		mu.Lock()
		defer mu.Unlock()
		if gotAgent != "test-agent" {
			t.Errorf("expected user agent test-agent, got %q", gotAgent)
		}
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		t.Parallel()

		data, err := src.Fetch(context.Background(), missing.URL)
		if err != nil || data != nil {
			t.Errorf("expected nil, nil; got %q, %v", data, err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		if _, err := src.Fetch(context.Background(), broken.URL); !errors.Is(err, robots.ErrRobotsUnavailable) {
			t.Errorf("expected ErrRobotsUnavailable, got %v", err)
		}
	})

	t.Run("resolver applies fetched rules", func(t *testing.T) {
		t.Parallel()

		r := robots.NewResolver(src, robots.WithLogger(quietLogger()))
		u, err := url.Parse(ok.URL + "/private/page")
		if err != nil {
			t.Fatal(err)
		}
		if r.Allowed(context.Background(), u) {
			t.Error("expected /private/page to be disallowed")
		}
	})
}

// TestFrontier tests the deduplicating queue.
func TestFrontier(t *testing.T) {
	t.Parallel()

	f := NewFrontier(0)
	if !f.Push("https://ics.uci.edu/a", 0) {
		t.Error("expected first push to succeed")
	}
	if !f.Push("https://ics.uci.edu/b", 1) {
		t.Error("expected second push to succeed")
	}
	if f.Push("https://ics.uci.edu/a", 2) {
		t.Error("expected duplicate push to be rejected")
	}
	if f.Len() != 2 || f.Discovered() != 2 {
		t.Errorf("Len() = %d, Discovered() = %d", f.Len(), f.Discovered())
	}
	if !f.Seen("https://ics.uci.edu/a") {
		t.Error("expected a to be seen")
	}

	if got := f.Next(0); got != nil {
		t.Errorf("Next(0) = %v", got)
	}

	tasks := f.Next(5)
	want := []pipeline.Task{
		{URL: "https://ics.uci.edu/a", Depth: 0},
		{URL: "https://ics.uci.edu/b", Depth: 1},
	}
	if !slices.Equal(tasks, want) {
		t.Errorf("Next() = %v, want %v", tasks, want)
	}
	if f.Len() != 0 || f.Discovered() != 2 {
		t.Errorf("after Next: Len() = %d, Discovered() = %d", f.Len(), f.Discovered())
	}
	if f.Push("https://ics.uci.edu/b", 0) {
		t.Error("a URL is queued at most once")
	}
}

// TestMatchPattern tests glob matching of URL paths.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/events/*", "/events/2024", true},
		{"/events/*", "/events", true},
		{"/events/*", "/events/2024/may", true},
		{"/events/*", "/eventsx", false},
		{"*.php", "/people/index.php", true},
		{"*.php", "/people/INDEX.PHP", true},
		{"*.php", "/people/index.html", false},
		{"/api/v?", "/api/v1", true},
		{"/api/v?", "/api/v10", false},
		{"calendar*", "/dept/calendar-2024", true},
		{"/exact", "/exact", true},
		{"[", "/bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

// TestShouldCrawl tests ignore and follow patterns together.
func TestShouldCrawl(t *testing.T) {
	t.Parallel()

	batch := pipeline.NewBatchProcessor(nil)

	t.Run("no patterns allows everything", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(batch)
		if !s.shouldCrawl("https://ics.uci.edu") {
			t.Error("expected root to be crawled")
		}
		if s.shouldCrawl("://bad") {
			t.Error("expected malformed URL to be skipped")
		}
	})

	t.Run("ignore wins over follow", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(batch,
			WithFollowPatterns([]string{"/research/*"}),
			WithIgnorePatterns([]string{"/research/private/*"}),
		)
		if !s.shouldCrawl("https://ics.uci.edu/research/ai") {
			t.Error("expected followed path to be crawled")
		}
		if s.shouldCrawl("https://ics.uci.edu/research/private/x") {
			t.Error("expected ignored path to be skipped")
		}
		if s.shouldCrawl("https://ics.uci.edu/about") {
			t.Error("expected unfollowed path to be skipped")
		}
	})
}

const (
	wordsA = "alpha bravo charlie delta echo"
	wordsB = "foxtrot golf hotel india juliet"
	wordsC = "research faculty students courses seminar"
)

// htmlPage repeats words in paragraphs and appends empty anchors so that
// the link text adds no tokens.
func htmlPage(words string, hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for range 25 {
		fmt.Fprintf(&b, "<p>%s</p>", words)
	}
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<a href="%s"></a>`, h)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// site serves three distinct pages and a missing one.
func site(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/":  htmlPage(wordsA, "/b", "/c", "/missing", "/paper.pdf", "mailto:someone@uci.edu", "https://example.com/"),
		"/b": htmlPage(wordsB, "/", "/b#section"),
		"/c": htmlPage(wordsC),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newSpider wires the full page pipeline against srv.
func newSpider(t *testing.T, srv *httptest.Server, opts ...SpiderOption) (*Spider, *stats.Aggregator) {
	t.Helper()

	logger := quietLogger()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	agg := stats.NewAggregator()
	p := pipeline.NewPagePipeline(pipeline.Components{
		Parser:    NewHTMLParser(),
		Tokenizer: tokenize.New(),
		Stats:     agg,
		Extractor: links.NewExtractor(links.WithExtractorLogger(logger)),
		Validator: links.NewValidator(
			links.WithAllowedDomains(u.Hostname()),
			links.WithValidatorLogger(logger),
		),
		MinTokens: pipeline.DefaultMinTokens,
	}, pipeline.WithLogger(logger))

	fetcher := NewHTTPFetcher(WithHTTPClient(srv.Client()), WithFetcherLogger(logger))
	processor := pipeline.NewProcessor(fetcher, p, agg, pipeline.WithProcessorLogger(logger))
	batch := pipeline.NewBatchProcessor(processor,
		pipeline.WithConcurrency(2),
		pipeline.WithBatchLogger(logger),
	)

	opts = append([]SpiderOption{WithSpiderLogger(logger)}, opts...)
	return NewSpider(batch, opts...), agg
}

// TestSpiderCrawl tests complete crawls against a local site.
func TestSpiderCrawl(t *testing.T) {
	t.Parallel()

	t.Run("visits every reachable page once", func(t *testing.T) {
		t.Parallel()

		srv := site(t)
		var mu sync.Mutex
		outcomes := make(map[string]model.Outcome)
		spider, agg := newSpider(t, srv, WithOnPage(func(state *pipeline.PageState) {
			mu.Lock()
			defer mu.Unlock()
			outcomes[state.URL] = state.Outcome
		}))

		st, err := spider.Crawl(context.Background(), []string{srv.URL})
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}

		want := map[string]model.Outcome{
			srv.URL + "/":        model.OutcomeAccepted,
			srv.URL + "/b":       model.OutcomeAccepted,
			srv.URL + "/c":       model.OutcomeAccepted,
			srv.URL + "/missing": model.OutcomeFetchFailure,
		}
		if len(outcomes) != len(want) {
			t.Fatalf("got outcomes %v, want %v", outcomes, want)
		}
		for u, o := range want {
			if outcomes[u] != o {
				t.Errorf("%s: got %v, want %v", u, outcomes[u], o)
			}
		}

		if st.PagesVisited != 4 || st.PagesAccepted != 3 || st.URLsQueued != 4 || st.Pending != 0 {
			t.Errorf("unexpected stats %+v", st)
		}
		if agg.UniqueCount() != 3 {
			t.Errorf("expected 3 unique pages, got %d", agg.UniqueCount())
		}
		if agg.PagesParsed() != 3 {
			t.Errorf("expected 3 parsed pages, got %d", agg.PagesParsed())
		}
		if agg.Rejections().FetchFailures != 1 {
			t.Errorf("expected 1 fetch failure, got %+v", agg.Rejections())
		}
		if agg.Frequencies()["research"] != 25 {
			t.Errorf("expected research x25, got %d", agg.Frequencies()["research"])
		}
	})

	t.Run("page budget", func(t *testing.T) {
		t.Parallel()

		srv := site(t)
		spider, _ := newSpider(t, srv, WithMaxPages(1))

		st, err := spider.Crawl(context.Background(), []string{srv.URL})
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}
		if st.PagesVisited != 1 || st.Pending != 3 {
			t.Errorf("unexpected stats %+v", st)
		}
	})

	t.Run("depth limit", func(t *testing.T) {
		t.Parallel()

		srv := site(t)
		spider, _ := newSpider(t, srv, WithMaxDepth(0))

		st, err := spider.Crawl(context.Background(), []string{srv.URL})
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}
		if st.PagesVisited != 1 || st.URLsQueued != 1 {
			t.Errorf("unexpected stats %+v", st)
		}
	})

	t.Run("ignore patterns", func(t *testing.T) {
		t.Parallel()

		srv := site(t)
		spider, _ := newSpider(t, srv, WithIgnorePatterns([]string{"/b", "/missing"}))

		st, err := spider.Crawl(context.Background(), []string{srv.URL})
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}
		if st.PagesVisited != 2 || st.PagesAccepted != 2 {
			t.Errorf("unexpected stats %+v", st)
		}
	})

	t.Run("no usable seeds", func(t *testing.T) {
		t.Parallel()

		srv := site(t)
		spider, _ := newSpider(t, srv)

		if _, err := spider.Crawl(context.Background(), []string{"not a url", ""}); !errors.Is(err, ErrNoSeeds) {
			t.Errorf("expected ErrNoSeeds, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		srv := site(t)
		spider, _ := newSpider(t, srv)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		st, err := spider.Crawl(ctx, []string{srv.URL})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if st.PagesVisited != 0 {
			t.Errorf("expected no pages, got %+v", st)
		}
	})

	t.Run("cancelled while fetching", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			cancel()
			<-r.Context().Done()
		}))
		t.Cleanup(srv.Close)

		var calls atomic.Int32
		spider, agg := newSpider(t, srv, WithOnPage(func(*pipeline.PageState) {
			calls.Add(1)
		}))

		st, err := spider.Crawl(ctx, []string{srv.URL})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if st.PagesVisited != 0 || st.PagesAccepted != 0 {
			t.Errorf("interrupted pages must not be counted, got %+v", st)
		}
		if calls.Load() != 0 {
			t.Errorf("OnPage called %d times for an interrupted page", calls.Load())
		}
		if agg.Rejections().Total() != 0 {
			t.Errorf("unexpected rejections %+v", agg.Rejections())
		}
	})
}
