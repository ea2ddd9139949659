// Package tokenize turns page text into normalized tokens and frequency tables.
//
// A token is a maximal run of ASCII letters and digits, lowercased. Everything
// else is a separator. Frequency tables are plain maps and merge additively.
//
// Ranking is deterministic: entries are ordered by descending count and ties
// are broken by ascending token. Reports rely on this order.
//
// # Stopwords
//
// Stopword filtering is optional. A Stopwords set is loaded once from a
// line-delimited list and never mutated afterwards, so it can be shared by
// every worker without locking.
package tokenize
