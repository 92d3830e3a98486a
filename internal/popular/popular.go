// Package popular counts product lookups and reports the most requested ids.
package popular

import (
	"cmp"
	"container/heap"
	"slices"
	"sync"
	"time"
)

// Entry is one product id with its lookup count.
type Entry struct {
	ID    string `json:"id"`
	Count int64  `json:"count"`
}

// Tracker counts lookups per product id. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	counts map[string]int64
	topN   int
	stop   chan struct{}
	once   sync.Once
}

// New creates a tracker whose Top defaults to topN entries. With a
// positive halfLife every counter is halved once per period, so the
// ranking follows recent lookups; Close stops that.
func New(topN int, halfLife time.Duration) *Tracker {
	if topN <= 0 {
		topN = 10
	}
	t := &Tracker{
		counts: make(map[string]int64),
		topN:   topN,
		stop:   make(chan struct{}),
	}
	if halfLife > 0 {
		go t.decayLoop(halfLife)
	}
	return t
}

// Hit records one lookup of id.
func (t *Tracker) Hit(id string) {
	t.mu.Lock()
	t.counts[id]++
	t.mu.Unlock()
}

// Forget drops the counter for id, e.g. once the product is deleted.
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	delete(t.counts, id)
	t.mu.Unlock()
}

// Top returns the n most looked-up ids, highest count first. Equal counts
// are ordered by id. n <= 0 uses the tracker default.
func (t *Tracker) Top(n int) []Entry {
	if n <= 0 {
		n = t.topN
	}
	t.mu.Lock()
	h := &entryHeap{}
	for id, c := range t.counts {
		e := Entry{ID: id, Count: c}
		if h.Len() < n {
			heap.Push(h, e)
		} else if less((*h)[0], e) {
			(*h)[0] = e
			heap.Fix(h, 0)
		}
	}
	t.mu.Unlock()

	out := []Entry(*h)
	slices.SortFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.counts = make(map[string]int64)
	t.mu.Unlock()
}

// Size returns the number of tracked ids.
func (t *Tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.counts)
}

// Close stops decay. It is safe to call more than once.
func (t *Tracker) Close() {
	t.once.Do(func() { close(t.stop) })
}

func (t *Tracker) decayLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.decay()
		}
	}
}

func (t *Tracker) decay() {
	t.mu.Lock()
	for id, c := range t.counts {
		if c /= 2; c == 0 {
			delete(t.counts, id)
		} else {
			t.counts[id] = c
		}
	}
	t.mu.Unlock()
}

// less orders entries from least to most popular.
func less(a, b Entry) bool {
	if a.Count != b.Count {
		return a.Count < b.Count
	}
	return a.ID > b.ID
}

// min-heap for top-N selection
type entryHeap []Entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return less(h[i], h[j]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(Entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
