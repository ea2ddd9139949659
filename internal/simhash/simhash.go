package simhash

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/nao1215/anteater/internal/tokenize"
)

// Width is the number of bits in a Fingerprint.
const Width = 64

// DefaultThreshold is the similarity at or above which two pages are
// considered near-duplicates.
const DefaultThreshold = 0.95

// Fingerprint is a 64-bit simhash. It is immutable once computed.
type Fingerprint uint64

// String renders the fingerprint as 16 hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Parse reads a fingerprint rendered by String.
func Parse(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// Compute builds the fingerprint of a weighted token table. Each token's
// weight is its count; non-positive counts are ignored.
// An empty table yields the all-ones fingerprint, so callers are expected to
// reject short pages first.
func Compute(table tokenize.Table) Fingerprint {
	var acc [Width]int64

	for token, weight := range table {
		if weight <= 0 {
			continue
		}
		h := hashToken(token)
		w := int64(weight)
		for i := range Width {
			if h&(1<<uint(i)) != 0 {
				acc[i] += w
			} else {
				acc[i] -= w
			}
		}
	}

	var fp uint64
	for i := range Width {
		if acc[i] >= 0 {
			fp |= 1 << uint(i)
		}
	}
	return Fingerprint(fp)
}

// HammingDistance returns the number of differing bits.
func HammingDistance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// Similarity returns the fraction of matching bits, in [0, 1].
func Similarity(a, b Fingerprint) float64 {
	return 1 - float64(HammingDistance(a, b))/Width
}

// hashToken is a polynomial rolling hash over the token bytes. Overflow
// wraps, which is the modulo 2^64.
func hashToken(token string) uint64 {
	var h uint64
	for i := 0; i < len(token); i++ {
		h = h*31 + uint64(token[i])
	}
	return h
}
