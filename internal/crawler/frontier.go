package crawler

import "sync"

// Frontier is the BFS work queue: one FIFO per depth plus a visited set
// keyed by canonical URL.
//
// Strict breadth-first order is an invariant: NextWave always drains the
// shallowest non-empty depth, and Push silently drops URLs whose
// canonical form has been seen before, whether still queued or already
// fetched. Safe for concurrent use.
type Frontier struct {
	mu     sync.Mutex
	queues map[int][]string
	seen   map[string]bool
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queues: make(map[int][]string),
		seen:   make(map[string]bool),
	}
}

// Push enqueues a canonical URL at the given depth. It reports whether
// the URL was accepted; a URL already seen at any depth is dropped.
func (f *Frontier) Push(canonical string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen[canonical] {
		return false
	}
	f.seen[canonical] = true
	f.queues[depth] = append(f.queues[depth], canonical)
	return true
}

// Seen reports whether a canonical URL has ever been pushed.
func (f *Frontier) Seen(canonical string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[canonical]
}

// NextWave pops up to max URLs from the shallowest non-empty depth, in
// insertion order. It returns the wave's depth and URLs; ok is false
// when the frontier is empty.
func (f *Frontier) NextWave(max int) (depth int, urls []string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	depth, ok = f.shallowestLocked()
	if !ok || max <= 0 {
		return 0, nil, false
	}

	queue := f.queues[depth]
	n := len(queue)
	if n > max {
		n = max
	}

	urls = queue[:n]
	if n == len(queue) {
		delete(f.queues, depth)
	} else {
		f.queues[depth] = queue[n:]
	}
	return depth, urls, true
}

// Len returns the number of queued, not yet popped URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int
	for _, queue := range f.queues {
		n += len(queue)
	}
	return n
}

// shallowestLocked finds the smallest depth with queued URLs.
// Callers must hold f.mu.
func (f *Frontier) shallowestLocked() (int, bool) {
	var best int
	found := false
	for depth, queue := range f.queues {
		if len(queue) == 0 {
			continue
		}
		if !found || depth < best {
			best = depth
			found = true
		}
	}
	return best, found
}
