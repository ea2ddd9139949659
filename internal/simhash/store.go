package simhash

import "sync"

// Store is a set of fingerprints of pages already accepted.
// It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	seen      map[Fingerprint]struct{}
	order     []Fingerprint
	threshold float64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithThreshold sets the similarity at or above which a fingerprint is a
// duplicate. Values outside (0, 1] are ignored.
func WithThreshold(threshold float64) StoreOption {
	return func(s *Store) {
		if threshold > 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		seen:      make(map[Fingerprint]struct{}),
		order:     make([]Fingerprint, 0),
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAndAdd compares fp against every stored fingerprint and inserts it
// when none is similar enough. Comparison and insertion happen under one
// lock, so two concurrent near-identical pages cannot both be accepted.
// When fp is a duplicate, match is the stored fingerprint it collided with.
func (s *Store) CheckAndAdd(fp Fingerprint) (dup bool, match Fingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[fp]; ok {
		return true, fp
	}
	for _, other := range s.order {
		if Similarity(fp, other) >= s.threshold {
			return true, other
		}
	}

	s.seen[fp] = struct{}{}
	s.order = append(s.order, fp)
	return false, 0
}

// Len returns the number of stored fingerprints.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Threshold returns the configured duplicate threshold.
func (s *Store) Threshold() float64 {
	return s.threshold
}
