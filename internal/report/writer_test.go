package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/siteaudit/internal/model"
)

// createTestReport creates a report with sample audit data for testing.
func createTestReport() *model.AuditReport {
	crawl := model.NewCrawl("https://example.com")
	crawl.Status = model.StatusCompleted
	crawl.StartedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	crawl.CompletedAt = crawl.StartedAt.Add(40 * time.Second)

	home := model.NewPageRecord(crawl.ID, "https://example.com/", 0)
	home.StatusCode = 200
	home.ContentType = "text/html"
	about := model.NewPageRecord(crawl.ID, "https://example.com/about", 1)
	about.StatusCode = 200
	about.ContentType = "text/html"
	about.Duplicate = true

	broken := model.NewLinkRecord(crawl.ID, home.ID, home.URL, "https://example.com/gone")
	broken.SetStatus(404)
	healthy := model.NewLinkRecord(crawl.ID, home.ID, home.URL, about.URL)
	healthy.SetStatus(200)

	issues := []*model.Issue{
		model.NewIssue(crawl.ID, "seed_not_indexable", model.SeverityCritical,
			"The seed page carries a noindex directive."),
		model.NewIssue(crawl.ID, "broken_internal_link", model.SeverityError,
			"Internal link returns 404."),
		model.NewIssue(crawl.ID, "thin_content", model.SeverityWarning,
			"Page has only 42 words (recommended: 300+)."),
		model.NewIssue(crawl.ID, "duplicate_content", model.SeverityInfo,
			"Page content is identical to an earlier page."),
	}
	issues[1].Context = "https://example.com/gone"

	return model.NewAuditReport(crawl,
		[]*model.PageRecord{home, about},
		[]*model.LinkRecord{broken, healthy},
		issues)
}

// TestAuditReportCounts tests the aggregate counters.
func TestAuditReportCounts(t *testing.T) {
	t.Parallel()

	report := createTestReport()

	if report.PagesCrawled != 2 {
		t.Errorf("PagesCrawled = %d, want 2", report.PagesCrawled)
	}
	if report.BrokenLinks != 1 {
		t.Errorf("BrokenLinks = %d, want 1", report.BrokenLinks)
	}
	if report.DuplicatePages != 1 {
		t.Errorf("DuplicatePages = %d, want 1", report.DuplicatePages)
	}
	if report.CriticalCount != 1 || report.ErrorCount != 1 ||
		report.WarningCount != 1 || report.InfoCount != 1 {
		t.Errorf("severity counts = %d/%d/%d/%d, want 1 each",
			report.CriticalCount, report.ErrorCount, report.WarningCount, report.InfoCount)
	}
	if report.TotalIssues() != 4 {
		t.Errorf("TotalIssues = %d, want 4", report.TotalIssues())
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SITE AUDIT REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "https://example.com") {
			t.Error("expected output to contain the audited site")
		}
	})

	t.Run("writes severity summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SEVERITY SUMMARY") {
			t.Error("expected output to contain severity summary")
		}
		if !strings.Contains(output, "CRITICAL: 1") {
			t.Error("expected output to contain critical count")
		}
		if !strings.Contains(output, "TOTAL:    4 issues") {
			t.Error("expected output to contain total count")
		}
	})

	t.Run("writes crawl statistics", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CRAWL STATISTICS") {
			t.Error("expected statistics section")
		}
		if !strings.Contains(output, "Broken Links:     1") {
			t.Error("expected broken link count")
		}
	})

	t.Run("writes issues with locations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Internal link returns 404.") {
			t.Error("expected broken link issue message")
		}
		if !strings.Contains(output, "Location: https://example.com/gone") {
			t.Error("expected issue location")
		}
	})

	t.Run("verbose mode includes recommendations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "Recommendation:") {
			t.Error("expected verbose output to contain recommendations")
		}
	})

	t.Run("shows all severity levels with showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))

		crawl := model.NewCrawl("https://empty.example.com")
		crawl.Status = model.StatusCompleted
		report := model.NewAuditReport(crawl, nil, nil, nil)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, indicator := range []string{"[!!!]", "[!!]", "[!]", "[i]"} {
			indicator := indicator
			if !strings.Contains(output, indicator) {
				t.Errorf("expected severity indicator %s", indicator)
			}
		}
	})

	t.Run("shows partial-result status for stopped crawls", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()
		report.Status = model.StatusStopped

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "STOPPED (partial results)") {
			t.Error("expected stopped status in output")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed model.AuditReport
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if parsed.SeedURL != "https://example.com" {
			t.Errorf("seed URL = %q", parsed.SeedURL)
		}
		if len(parsed.Issues) != 4 {
			t.Errorf("issues = %d, want 4", len(parsed.Issues))
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) > 1 {
			t.Errorf("expected compact output (1 line), got %d lines", len(lines))
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
	})

	t.Run("custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent(">>", "\t"))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, ">>") {
			t.Error("expected custom prefix '>>' in output")
		}
		if !strings.Contains(output, "\t") {
			t.Error("expected tab indentation in output")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Site Audit Report") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "https://example.com") {
			t.Error("expected output to contain the audited site")
		}
	})

	t.Run("writes severity summary with alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Severity Summary") {
			t.Error("expected severity summary header")
		}
		if !strings.Contains(output, "🔴 Critical") {
			t.Error("expected critical severity indicator")
		}
		// The test report has a critical issue, so the strongest alert fires.
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected CAUTION alert for critical issues")
		}
	})

	t.Run("includes pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "pie") {
			t.Error("expected output to contain mermaid pie chart")
		}
	})

	t.Run("writes issues table with recommendations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Issues") {
			t.Error("expected issues header")
		}
		if !strings.Contains(output, "Recommendation") {
			t.Error("expected Recommendation column")
		}
		if !strings.Contains(output, "Internal link returns 404.") {
			t.Error("expected broken link issue in table")
		}
	})

	t.Run("handles report with no issues", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		crawl := model.NewCrawl("https://clean.example.com")
		crawl.Status = model.StatusCompleted
		report := model.NewAuditReport(crawl, nil, nil, nil)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No SEO issues detected") {
			t.Error("expected message about no issues")
		}
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected TIP alert for a clean site")
		}
	})

	t.Run("writes footer with link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "https://github.com/nao1215/siteaudit") {
			t.Error("expected footer with repository link")
		}
	})
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		multi := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		if _, err := multi.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if buf1.Len() == 0 {
			t.Error("expected buf1 to have content")
		}
		if buf2.Len() == 0 {
			t.Error("expected buf2 to have content")
		}
		if strings.Contains(buf1.String(), "{") {
			t.Error("expected buf1 (simple) to not be JSON")
		}
		if !strings.Contains(buf2.String(), "{") {
			t.Error("expected buf2 (JSON) to contain JSON")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		n, err := NewMultiWriter().Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 bytes written for empty writers, got %d", n)
		}
	})
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"ab", 5, "ab"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
