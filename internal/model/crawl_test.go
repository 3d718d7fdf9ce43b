package model

import "testing"

// TestCrawlStatusCanTransition tests the lifecycle state machine.
func TestCrawlStatusCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from CrawlStatus
		to   CrawlStatus
		want bool
	}{
		{"pending to running", StatusPending, StatusRunning, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"pending to failed", StatusPending, StatusFailed, false},
		{"running to completed", StatusRunning, StatusCompleted, true},
		{"running to failed", StatusRunning, StatusFailed, true},
		{"running to stopped", StatusRunning, StatusStopped, true},
		{"running to cancelled", StatusRunning, StatusCancelled, true},
		{"running to pending", StatusRunning, StatusPending, false},
		{"running to running", StatusRunning, StatusRunning, false},
		{"completed is final", StatusCompleted, StatusRunning, false},
		{"failed is final", StatusFailed, StatusRunning, false},
		{"stopped is final", StatusStopped, StatusCompleted, false},
		{"cancelled is final", StatusCancelled, StatusRunning, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

// TestCrawlStatusIsTerminal tests terminal status detection.
func TestCrawlStatusIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []CrawlStatus{StatusCompleted, StatusFailed, StatusStopped, StatusCancelled}
	for _, s := range terminal {
		s := s
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	for _, s := range []CrawlStatus{StatusPending, StatusRunning} {
		s := s
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

// TestNewCrawl tests crawl construction defaults.
func TestNewCrawl(t *testing.T) {
	t.Parallel()

	c := NewCrawl("https://example.com")

	if c.ID == "" {
		t.Error("expected non-empty crawl ID")
	}
	if c.Status != StatusPending {
		t.Errorf("expected status pending, got %s", c.Status)
	}
	if c.SeedURL != "https://example.com" {
		t.Errorf("unexpected seed URL: %s", c.SeedURL)
	}
	if c.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if !c.StartedAt.IsZero() || !c.CompletedAt.IsZero() {
		t.Error("expected start/completion timestamps to be zero")
	}
}
