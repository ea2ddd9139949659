package tokenize

// Tokenizer splits text into tokens and builds frequency tables.
// The zero value tokenizes without stopword filtering.
type Tokenizer struct {
	// stopwords are dropped before frequencies are counted.
	// Nil disables filtering.
	stopwords Stopwords
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithStopwords enables stopword filtering with the given set.
func WithStopwords(sw Stopwords) Option {
	return func(t *Tokenizer) {
		t.stopwords = sw
	}
}

// New creates a Tokenizer.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize splits lines into tokens. See the package-level Tokenize.
func (t *Tokenizer) Tokenize(lines []string) []string {
	return Tokenize(lines)
}

// Frequencies counts tokens, skipping stopwords when filtering is enabled.
func (t *Tokenizer) Frequencies(tokens []string) Table {
	if t.stopwords == nil {
		return ComputeFrequencies(tokens)
	}
	table := make(Table)
	for _, token := range tokens {
		if t.stopwords.Contains(token) {
			continue
		}
		table[token]++
	}
	return table
}

// Tokenize splits every line on non-alphanumeric bytes and lowercases the
// runs. Token order follows the input and empty runs are dropped.
// It runs in O(total characters).
func Tokenize(lines []string) []string {
	tokens := make([]string, 0)
	buf := make([]byte, 0, 32)

	for _, line := range lines {
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
				buf = append(buf, c)
			case c >= 'A' && c <= 'Z':
				buf = append(buf, c+('a'-'A'))
			default:
				if len(buf) > 0 {
					tokens = append(tokens, string(buf))
					buf = buf[:0]
				}
			}
		}
		// A line break always ends a token.
		if len(buf) > 0 {
			tokens = append(tokens, string(buf))
			buf = buf[:0]
		}
	}

	return tokens
}
