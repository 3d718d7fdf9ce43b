package model

import "time"

// AuditReport aggregates one crawl's persisted records for presentation.
// Report writers consume this instead of raw records so every output
// format shows the same numbers.
type AuditReport struct {
	// SeedURL is the audited site's entry point.
	SeedURL string `json:"seed_url"`

	// Status is the crawl's terminal lifecycle state.
	Status CrawlStatus `json:"status"`

	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generated_at"`

	// StartedAt and CompletedAt bound the crawl run.
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`

	// PagesCrawled is the number of pages fetched, duplicates included.
	PagesCrawled int `json:"pages_crawled"`

	// LinksFound is the number of link records produced.
	LinksFound int `json:"links_found"`

	// BrokenLinks counts links whose liveness check failed.
	BrokenLinks int `json:"broken_links"`

	// DuplicatePages counts pages flagged as content duplicates.
	DuplicatePages int `json:"duplicate_pages"`

	// IndexablePages counts fetched pages without a noindex directive.
	IndexablePages int `json:"indexable_pages"`

	// CriticalCount through InfoCount summarize issues per severity.
	CriticalCount int `json:"critical_count"`
	ErrorCount    int `json:"error_count"`
	WarningCount  int `json:"warning_count"`
	InfoCount     int `json:"info_count"`

	// Issues holds every finding, unordered.
	Issues []*Issue `json:"issues"`
}

// NewAuditReport assembles a report from a crawl and its records.
func NewAuditReport(crawl *Crawl, pages []*PageRecord, links []*LinkRecord, issues []*Issue) *AuditReport {
	r := &AuditReport{
		SeedURL:      crawl.SeedURL,
		Status:       crawl.Status,
		GeneratedAt:  time.Now().UTC(),
		StartedAt:    crawl.StartedAt,
		CompletedAt:  crawl.CompletedAt,
		PagesCrawled: len(pages),
		LinksFound:   len(links),
		Issues:       issues,
	}

	for _, page := range pages {
		if page.Duplicate {
			r.DuplicatePages++
		}
		if page.Indexable && page.StatusCode > 0 && page.StatusCode < 400 {
			r.IndexablePages++
		}
	}
	for _, link := range links {
		if link.IsBroken {
			r.BrokenLinks++
		}
	}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			r.CriticalCount++
		case SeverityError:
			r.ErrorCount++
		case SeverityWarning:
			r.WarningCount++
		default:
			r.InfoCount++
		}
	}
	return r
}

// TotalIssues returns the number of findings in the report.
func (r *AuditReport) TotalIssues() int {
	return len(r.Issues)
}

// HasIssues reports whether any findings exist.
func (r *AuditReport) HasIssues() bool {
	return len(r.Issues) > 0
}

// IssuesBySeverity returns the findings at one severity level, in the
// order they were detected.
func (r *AuditReport) IssuesBySeverity(severity Severity) []*Issue {
	var out []*Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}
