package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/siteaudit/internal/model"
)

// maxFlushRetries bounds retries for Retryable outcomes before the flush
// escalates to a crawl-level failure.
const maxFlushRetries = 3

// flushBackoff is the initial pause between flush retries; it doubles on
// each subsequent attempt.
const flushBackoff = 500 * time.Millisecond

// Batcher accumulates records and flushes them in bulk once the buffer
// reaches the configured threshold, or on demand at the end of a crawl.
//
// The buffer swap on flush is atomic with respect to appenders: records
// added while a flush is writing land in the next batch, never half in
// both. Safe for concurrent use.
type Batcher struct {
	gateway   Gateway
	threshold int
	logger    *slog.Logger

	mu     sync.Mutex
	pages  []*model.PageRecord
	links  []*model.LinkRecord
	images []*model.ImageRecord
	issues []*model.Issue
}

// NewBatcher creates a Batcher flushing through the given gateway.
// threshold is the record count that triggers an automatic flush.
func NewBatcher(gateway Gateway, threshold int, logger *slog.Logger) *Batcher {
	if threshold <= 0 {
		threshold = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Batcher{
		gateway:   gateway,
		threshold: threshold,
		logger:    logger,
	}
}

// AddPage buffers a page record, flushing if the threshold is reached.
func (b *Batcher) AddPage(ctx context.Context, page *model.PageRecord) error {
	b.mu.Lock()
	b.pages = append(b.pages, page)
	full := b.sizeLocked() >= b.threshold
	b.mu.Unlock()

	if full {
		return b.Flush(ctx)
	}
	return nil
}

// AddLink buffers a link record, flushing if the threshold is reached.
func (b *Batcher) AddLink(ctx context.Context, link *model.LinkRecord) error {
	b.mu.Lock()
	b.links = append(b.links, link)
	full := b.sizeLocked() >= b.threshold
	b.mu.Unlock()

	if full {
		return b.Flush(ctx)
	}
	return nil
}

// AddImage buffers an image record, flushing if the threshold is reached.
func (b *Batcher) AddImage(ctx context.Context, image *model.ImageRecord) error {
	b.mu.Lock()
	b.images = append(b.images, image)
	full := b.sizeLocked() >= b.threshold
	b.mu.Unlock()

	if full {
		return b.Flush(ctx)
	}
	return nil
}

// AddIssue buffers an issue, flushing if the threshold is reached.
func (b *Batcher) AddIssue(ctx context.Context, issue *model.Issue) error {
	b.mu.Lock()
	b.issues = append(b.issues, issue)
	full := b.sizeLocked() >= b.threshold
	b.mu.Unlock()

	if full {
		return b.Flush(ctx)
	}
	return nil
}

// Size returns the number of buffered records.
func (b *Batcher) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sizeLocked()
}

// sizeLocked counts buffered records. Callers must hold b.mu.
func (b *Batcher) sizeLocked() int {
	return len(b.pages) + len(b.links) + len(b.images) + len(b.issues)
}

// Flush writes all buffered records through the gateway.
// The buffers are swapped out under the lock first, so concurrent Add
// calls accumulate into fresh buffers while the write is in flight.
// Retryable outcomes are retried with exponential backoff up to
// maxFlushRetries; Terminal surfaces as ErrCrawlDeleted.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	pages, links, images, issues := b.pages, b.links, b.images, b.issues
	b.pages, b.links, b.images, b.issues = nil, nil, nil, nil
	b.mu.Unlock()

	if len(pages) == 0 && len(links) == 0 && len(images) == 0 && len(issues) == 0 {
		return nil
	}

	writes := []struct {
		kind  string
		count int
		write func(context.Context) (Outcome, error)
	}{
		{"pages", len(pages), func(ctx context.Context) (Outcome, error) { return b.gateway.UpsertPages(ctx, pages) }},
		{"links", len(links), func(ctx context.Context) (Outcome, error) { return b.gateway.UpsertLinks(ctx, links) }},
		{"images", len(images), func(ctx context.Context) (Outcome, error) { return b.gateway.UpsertImages(ctx, images) }},
		{"issues", len(issues), func(ctx context.Context) (Outcome, error) { return b.gateway.UpsertIssues(ctx, issues) }},
	}

	for _, w := range writes {
		if w.count == 0 {
			continue
		}
		if err := b.flushWithRetry(ctx, w.kind, w.write); err != nil {
			return err
		}
	}
	return nil
}

// flushWithRetry drives one record-type write through the retry policy.
func (b *Batcher) flushWithRetry(ctx context.Context, kind string, write func(context.Context) (Outcome, error)) error {
	backoff := flushBackoff

	for attempt := 0; ; attempt++ {
		outcome, err := write(ctx)
		switch outcome {
		case Ok:
			return nil
		case Terminal:
			b.logger.Info("parent crawl deleted, stopping persistence", "kind", kind)
			return ErrCrawlDeleted
		case Retryable:
			if attempt >= maxFlushRetries {
				return fmt.Errorf("%w: %s: %v", ErrFlushFailed, kind, err)
			}
			b.logger.Warn("batch flush failed, retrying",
				"kind", kind, "attempt", attempt+1, "error", err)

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}
	}
}
