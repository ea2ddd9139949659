package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

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

// testSite serves three distinct pages, a near-duplicate of /c at /d and a
// missing page.
func testSite(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/":  htmlPage(wordsA, "/b", "/c", "/missing", "/paper.pdf", "https://example.com/"),
		"/b": htmlPage(wordsB, "/"),
		"/c": htmlPage(wordsC, "/d"),
		"/d": htmlPage(wordsC),
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

// writeConfig writes a configuration file confining the crawl to the local
// test server and returns its path.
func writeConfig(t *testing.T, dbDir string) string {
	t.Helper()

	content := fmt.Sprintf(`allowedDomains:
  - 127.0.0.1
crawl:
  workers: 2
  crawlDelay: 1ms
  timeout: 5s
report:
  dbDir: %q
`, dbDir)
	path := filepath.Join(t.TempDir(), "anteater.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeFile writes content to name inside a temporary directory.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
