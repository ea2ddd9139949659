package links

import "sync"

// VisitCounter counts how many times each normalized URL has been extracted.
// Counts only grow. It is safe for concurrent use.
type VisitCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewVisitCounter creates an empty VisitCounter.
func NewVisitCounter() *VisitCounter {
	return &VisitCounter{counts: make(map[string]int)}
}

// Increment adds one to the count of url and returns the new count.
func (c *VisitCounter) Increment(url string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[url]++
	return c.counts[url]
}

// Count returns the current count of url.
func (c *VisitCounter) Count(url string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[url]
}

// Len returns the number of distinct URLs counted.
func (c *VisitCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}

// Traps returns the URLs whose count reached threshold.
func (c *VisitCounter) Traps(threshold int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0)
	for u, n := range c.counts {
		if n >= threshold {
			out = append(out, u)
		}
	}
	return out
}
