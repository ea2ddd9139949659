package tokenize

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed stopwords.txt
var defaultStopwords string

// Stopwords is an immutable set of tokens to exclude.
// A nil Stopwords contains nothing.
type Stopwords map[string]struct{}

// Contains reports whether token is a stopword.
func (s Stopwords) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Len returns the number of stopwords.
func (s Stopwords) Len() int {
	return len(s)
}

// LoadStopwords reads a line-delimited word list. Every line is tokenized
// the same way page text is, so "don't" contributes "don" and "t".
// Blank lines and lines starting with '#' are skipped.
func LoadStopwords(r io.Reader) (Stopwords, error) {
	sw := make(Stopwords)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, token := range Tokenize([]string{line}) {
			sw[token] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stopwords: %w", err)
	}
	return sw, nil
}

// LoadStopwordsFile loads a stopword list from path.
func LoadStopwordsFile(path string) (Stopwords, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided stopword path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open stopwords file: %w", err)
	}
	defer f.Close()
	return LoadStopwords(f)
}

// DefaultStopwords returns the embedded English stopword list.
func DefaultStopwords() Stopwords {
	sw, err := LoadStopwords(strings.NewReader(defaultStopwords))
	if err != nil {
		// strings.Reader never fails
		panic(err)
	}
	return sw
}
