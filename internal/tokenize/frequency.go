package tokenize

import (
	"cmp"
	"slices"
)

// Table maps a token to the number of times it occurred.
type Table map[string]int

// Entry is one ranked row of a Table.
type Entry struct {
	// Token is the normalized token.
	Token string `json:"token"`

	// Count is the number of occurrences.
	Count int `json:"count"`
}

// ComputeFrequencies counts every token in O(n).
func ComputeFrequencies(tokens []string) Table {
	table := make(Table, len(tokens)/2)
	for _, token := range tokens {
		table[token]++
	}
	return table
}

// Merge adds every count of other into t.
func (t Table) Merge(other Table) {
	for token, count := range other {
		t[token] += count
	}
}

// Total returns the sum of all counts.
func (t Table) Total() int {
	total := 0
	for _, count := range t {
		total += count
	}
	return total
}

// Clone returns an independent copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for token, count := range t {
		out[token] = count
	}
	return out
}

// Rank orders the table by descending count, then ascending token.
func Rank(table Table) []Entry {
	entries := make([]Entry, 0, len(table))
	for token, count := range table {
		entries = append(entries, Entry{Token: token, Count: count})
	}
	slices.SortFunc(entries, compareEntries)
	return entries
}

// TopN returns the first n ranked entries whose tokens are not in exclude.
// A non-positive n returns every entry.
func TopN(table Table, n int, exclude Stopwords) []Entry {
	ranked := Rank(table)
	out := make([]Entry, 0, min(max(n, 0), len(ranked)))
	for _, e := range ranked {
		if exclude.Contains(e.Token) {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

// CommonTokens returns how many distinct tokens appear in both tables.
func CommonTokens(a, b Table) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for token := range a {
		if _, ok := b[token]; ok {
			count++
		}
	}
	return count
}

func compareEntries(a, b Entry) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return cmp.Compare(a.Token, b.Token)
}
