package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nao1215/siteaudit/internal/model"
)

// fakeGateway records flushed batches and returns scripted outcomes.
type fakeGateway struct {
	mu       sync.Mutex
	pages    []*model.PageRecord
	links    []*model.LinkRecord
	images   []*model.ImageRecord
	issues   []*model.Issue
	flushes  int
	outcomes []Outcome // Consumed per write call; Ok when exhausted.
}

func (g *fakeGateway) next() (Outcome, error) {
	g.flushes++
	if len(g.outcomes) == 0 {
		return Ok, nil
	}
	o := g.outcomes[0]
	g.outcomes = g.outcomes[1:]
	if o == Ok {
		return Ok, nil
	}
	if o == Terminal {
		return Terminal, ErrCrawlDeleted
	}
	return Retryable, errors.New("database is locked")
}

func (g *fakeGateway) CreateCrawl(_ context.Context, _ *model.Crawl) (Outcome, error) {
	return Ok, nil
}

func (g *fakeGateway) UpdateCrawl(_ context.Context, _ *model.Crawl) (Outcome, error) {
	return Ok, nil
}

func (g *fakeGateway) UpsertPages(_ context.Context, pages []*model.PageRecord) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, err := g.next()
	if o == Ok {
		g.pages = append(g.pages, pages...)
	}
	return o, err
}

func (g *fakeGateway) UpsertLinks(_ context.Context, links []*model.LinkRecord) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, err := g.next()
	if o == Ok {
		g.links = append(g.links, links...)
	}
	return o, err
}

func (g *fakeGateway) UpsertImages(_ context.Context, images []*model.ImageRecord) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, err := g.next()
	if o == Ok {
		g.images = append(g.images, images...)
	}
	return o, err
}

func (g *fakeGateway) UpsertIssues(_ context.Context, issues []*model.Issue) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, err := g.next()
	if o == Ok {
		g.issues = append(g.issues, issues...)
	}
	return o, err
}

// TestBatcherFlushOnThreshold tests the automatic threshold flush.
func TestBatcherFlushOnThreshold(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	b := NewBatcher(gw, 3, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := b.AddPage(ctx, model.NewPageRecord("c1", "https://example.com/", 0)); err != nil {
			t.Fatal(err)
		}
	}
	if len(gw.pages) != 0 {
		t.Fatalf("flushed before threshold: %d pages", len(gw.pages))
	}
	if b.Size() != 2 {
		t.Errorf("Size() = %d, want 2", b.Size())
	}

	// Third record crosses the threshold.
	if err := b.AddLink(ctx, model.NewLinkRecord("c1", "p1", "https://example.com/", "https://example.com/a")); err != nil {
		t.Fatal(err)
	}
	if len(gw.pages) != 2 || len(gw.links) != 1 {
		t.Errorf("expected flush of 2 pages and 1 link, got %d/%d", len(gw.pages), len(gw.links))
	}
	if b.Size() != 0 {
		t.Errorf("expected empty buffer after flush, Size() = %d", b.Size())
	}
}

// TestBatcherFlushEmpty tests that flushing an empty buffer is a no-op.
func TestBatcherFlushEmpty(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	b := NewBatcher(gw, 10, nil)

	if err := b.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gw.flushes != 0 {
		t.Errorf("expected no gateway calls, got %d", gw.flushes)
	}
}

// TestBatcherRetryableRecovers tests retry-then-success on transient errors.
func TestBatcherRetryableRecovers(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{outcomes: []Outcome{Retryable, Ok}}
	b := NewBatcher(gw, 10, nil)
	ctx := context.Background()

	if err := b.AddIssue(ctx, model.NewIssue("c1", "thin_content", model.SeverityWarning, "msg")); err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("expected recovery after retry, got %v", err)
	}
	if len(gw.issues) != 1 {
		t.Errorf("expected 1 issue stored, got %d", len(gw.issues))
	}
}

// TestBatcherRetryableExhausted tests escalation after bounded retries.
func TestBatcherRetryableExhausted(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{outcomes: []Outcome{Retryable, Retryable, Retryable, Retryable, Retryable}}
	b := NewBatcher(gw, 10, nil)
	ctx := context.Background()

	if err := b.AddPage(ctx, model.NewPageRecord("c1", "https://example.com/", 0)); err != nil {
		t.Fatal(err)
	}
	err := b.Flush(ctx)
	if !errors.Is(err, ErrFlushFailed) {
		t.Errorf("expected ErrFlushFailed, got %v", err)
	}
}

// TestBatcherTerminal tests that a Terminal outcome surfaces immediately.
func TestBatcherTerminal(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{outcomes: []Outcome{Terminal}}
	b := NewBatcher(gw, 10, nil)
	ctx := context.Background()

	if err := b.AddPage(ctx, model.NewPageRecord("c1", "https://example.com/", 0)); err != nil {
		t.Fatal(err)
	}
	err := b.Flush(ctx)
	if !errors.Is(err, ErrCrawlDeleted) {
		t.Errorf("expected ErrCrawlDeleted, got %v", err)
	}
	// Terminal is final: no retries happen.
	if gw.flushes != 1 {
		t.Errorf("expected exactly 1 write attempt, got %d", gw.flushes)
	}
}

// TestOutcomeString tests outcome names.
func TestOutcomeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		outcome Outcome
		want    string
	}{
		{Ok, "ok"},
		{Retryable, "retryable"},
		{Terminal, "terminal"},
		{Outcome(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
