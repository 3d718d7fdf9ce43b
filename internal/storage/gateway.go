package storage

import (
	"context"
	"errors"

	"github.com/nao1215/siteaudit/internal/model"
)

// Outcome classifies the result of a persistence operation.
//
// Design decision: Expected storage conditions are modeled as explicit
// result variants rather than error types the caller has to fish out of a
// wrapped chain. The error return still carries the detail for logging;
// the Outcome alone drives control flow.
type Outcome int

const (
	// Ok means the operation succeeded.
	Ok Outcome = iota

	// Retryable means a transient failure (locked database, I/O error).
	// The caller may retry with backoff.
	Retryable

	// Terminal means the parent crawl record no longer exists.
	// Retrying can never succeed; the crawl should stop gracefully.
	Terminal
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case Retryable:
		return "retryable"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// ErrCrawlDeleted is returned by the Batcher when a flush hits a Terminal
// outcome: the crawl row was deleted externally mid-run.
var ErrCrawlDeleted = errors.New("crawl record no longer exists")

// ErrFlushFailed is returned by the Batcher when retries for a Retryable
// outcome are exhausted.
var ErrFlushFailed = errors.New("batch flush failed after retries")

// Gateway is the storage collaborator boundary. All record writes are
// batch upserts; re-running a crawl with the same record IDs overwrites
// rather than duplicates.
type Gateway interface {
	// CreateCrawl inserts the crawl row.
	CreateCrawl(ctx context.Context, crawl *model.Crawl) (Outcome, error)

	// UpdateCrawl updates the crawl's status, counters, and timestamps.
	UpdateCrawl(ctx context.Context, crawl *model.Crawl) (Outcome, error)

	// UpsertPages writes a batch of page records.
	UpsertPages(ctx context.Context, pages []*model.PageRecord) (Outcome, error)

	// UpsertLinks writes a batch of link records.
	UpsertLinks(ctx context.Context, links []*model.LinkRecord) (Outcome, error)

	// UpsertImages writes a batch of image records.
	UpsertImages(ctx context.Context, images []*model.ImageRecord) (Outcome, error)

	// UpsertIssues writes a batch of issues.
	UpsertIssues(ctx context.Context, issues []*model.Issue) (Outcome, error)
}
