package crawler

import "sync"

// DedupIndex maps content fingerprints to the first page that produced
// them. The first occurrence of a fingerprint wins: later pages with the
// same fingerprint are persisted as duplicates but their links are not
// expanded into the frontier. Safe for concurrent use.
type DedupIndex struct {
	mu     sync.Mutex
	byHash map[string]string
}

// NewDedupIndex creates an empty dedup index.
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{byHash: make(map[string]string)}
}

// Register records a fingerprint for a page. It returns the ID of the
// first page registered with this fingerprint and whether pageID is that
// first page. An empty fingerprint (no extractable text) never matches
// anything and is always treated as first.
func (d *DedupIndex) Register(hash, pageID string) (firstID string, first bool) {
	if hash == "" {
		return pageID, true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.byHash[hash]; ok {
		return existing, false
	}
	d.byHash[hash] = pageID
	return pageID, true
}
