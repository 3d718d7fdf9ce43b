package model

import (
	"time"

	"github.com/google/uuid"
)

// CrawlStatus represents the lifecycle state of a crawl run.
//
// Design decision: We use string-based constants rather than iota because
// the status is persisted to the database and read back by external
// observers. A string column stays meaningful in ad-hoc SQL queries and
// never silently changes meaning when a constant is reordered.
type CrawlStatus string

const (
	// StatusPending indicates the crawl has been created but not started.
	StatusPending CrawlStatus = "pending"

	// StatusRunning indicates the crawl loop is actively processing the frontier.
	StatusRunning CrawlStatus = "running"

	// StatusCompleted indicates the crawl finished normally: the frontier
	// drained or the page budget was reached.
	StatusCompleted CrawlStatus = "completed"

	// StatusFailed indicates the crawl aborted due to a persistence or
	// frontier failure. Per-page fetch failures never cause this status.
	StatusFailed CrawlStatus = "failed"

	// StatusStopped indicates a stop request was honored, or the crawl
	// record was deleted externally mid-run.
	StatusStopped CrawlStatus = "stopped"

	// StatusCancelled indicates a cancel request was honored.
	StatusCancelled CrawlStatus = "cancelled"
)

// String returns the status as a string.
func (s CrawlStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status is final. No transitions occur
// out of a terminal status within a run.
func (s CrawlStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStopped, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a transition from s to next is legal.
// The machine is monotonic: pending -> running -> one terminal status.
func (s CrawlStatus) CanTransition(next CrawlStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusCancelled
	case StatusRunning:
		return next.IsTerminal()
	default:
		return false
	}
}

// CrawlLimits is the configuration snapshot stored with a crawl.
// The flags that produced a run are gone once the process exits; the
// snapshot keeps a persisted run interpretable, so "3 pages crawled"
// can be read against the budget it ran under.
type CrawlLimits struct {
	// MaxDepth is the BFS depth ceiling the run was started with.
	MaxDepth int `json:"max_depth"`

	// MaxPages is the page budget the run was started with.
	MaxPages int `json:"max_pages"`

	// Concurrency is the worker pool size of the run.
	Concurrency int `json:"concurrency"`

	// RateLimit is the request rate, in requests per second, of the run.
	RateLimit float64 `json:"rate_limit"`

	// MaxExternalLinks is the distinct external host quota of the run.
	MaxExternalLinks int `json:"max_external_links"`

	// ExternalDepth is the external hop ceiling of the run.
	ExternalDepth int `json:"external_depth"`
}

// Crawl identifies one traversal run and its configuration snapshot.
// The orchestrator owns the Crawl exclusively for the duration of a run;
// counters only increase while the status is running.
type Crawl struct {
	// ID uniquely identifies this crawl run.
	ID string `json:"id"`

	// SeedURL is the starting point of the traversal.
	SeedURL string `json:"seed_url"`

	// Status is the current lifecycle state. See CrawlStatus.
	Status CrawlStatus `json:"status"`

	// Limits is the configuration snapshot taken when the crawl was
	// created. It never changes after creation.
	Limits CrawlLimits `json:"limits"`

	// PagesCrawled is the number of PageRecords produced so far.
	PagesCrawled int `json:"pages_crawled"`

	// LinksFound is the number of LinkRecords produced so far.
	LinksFound int `json:"links_found"`

	// IssuesFound is the number of Issues produced so far.
	IssuesFound int `json:"issues_found"`

	// CreatedAt is when the crawl was created by the dispatcher.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the crawl entered running. Zero until then.
	StartedAt time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the crawl reached a terminal status. Zero until then.
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// NewCrawl creates a pending crawl for the given seed URL.
func NewCrawl(seedURL string) *Crawl {
	return &Crawl{
		ID:        uuid.NewString(),
		SeedURL:   seedURL,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}
