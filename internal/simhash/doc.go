// Package simhash computes 64-bit locality-sensitive fingerprints of pages
// and detects near-duplicates among them.
//
// A fingerprint is built from a weighted token table: every distinct token
// is hashed with a rolling hash (h = h*31 + c, modulo 2^64), and each bit of
// the hash votes +weight or -weight into a signed accumulator. The final bit
// is set when its accumulator is non-negative.
//
// Two fingerprints are compared by the fraction of bits they agree on.
// Pages whose similarity reaches DefaultThreshold are treated as duplicates.
package simhash
