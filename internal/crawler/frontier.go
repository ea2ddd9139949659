package crawler

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/nao1215/anteater/internal/pipeline"
)

// DefaultFrontierCapacity is the expected number of distinct URLs the
// frontier's bloom filter is sized for.
const DefaultFrontierCapacity = 100000

// frontierFalsePositiveRate is the bloom filter false positive target. A
// false positive drops a URL that was never queued.
const frontierFalsePositiveRate = 0.001

// Frontier is a FIFO of pending crawl tasks. Every URL is queued at most
// once over the lifetime of the frontier.
type Frontier struct {
	mu         sync.Mutex
	seen       *bloom.BloomFilter
	queue      []pipeline.Task
	discovered int
}

// NewFrontier creates a frontier sized for capacity distinct URLs.
func NewFrontier(capacity uint) *Frontier {
	if capacity == 0 {
		capacity = DefaultFrontierCapacity
	}
	return &Frontier{
		seen:  bloom.NewWithEstimates(capacity, frontierFalsePositiveRate),
		queue: make([]pipeline.Task, 0),
	}
}

// Push queues url at depth. It reports false when url was seen before.
func (f *Frontier) Push(url string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen.TestAndAddString(url) {
		return false
	}
	f.queue = append(f.queue, pipeline.Task{URL: url, Depth: depth})
	f.discovered++
	return true
}

// Seen reports whether url was ever pushed.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.TestString(url)
}

// Next removes and returns up to n tasks in insertion order.
func (f *Frontier) Next(n int) []pipeline.Task {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n <= 0 || len(f.queue) == 0 {
		return nil
	}
	if n > len(f.queue) {
		n = len(f.queue)
	}
	tasks := make([]pipeline.Task, n)
	copy(tasks, f.queue[:n])
	f.queue = f.queue[n:]
	return tasks
}

// Len returns the number of pending tasks.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Discovered returns the number of distinct URLs ever queued.
func (f *Frontier) Discovered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.discovered
}
