package issue

import (
	"strings"
	"testing"

	"github.com/nao1215/siteaudit/internal/model"
)

// healthyPage returns a page that triggers no rules.
func healthyPage(url string, depth int) *model.PageRecord {
	p := model.NewPageRecord("crawl-1", url, depth)
	p.StatusCode = 200
	p.ContentType = "text/html"
	p.Title = "Unique title for " + url
	p.MetaDescription = "Unique description for " + url
	p.H1 = []string{"Heading"}
	p.WordCount = 500
	p.PageSize = 100 * 1024
	return p
}

// TestPageIssuesHealthyPage tests that a complete page yields no findings.
func TestPageIssuesHealthyPage(t *testing.T) {
	t.Parallel()

	d := NewDetector("crawl-1")
	issues := d.PageIssues(healthyPage("https://example.com/good", 1), nil)
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %d: %+v", len(issues), issues)
	}
}

// TestPageIssuesRules tests each page-scoped rule.
func TestPageIssuesRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mutate       func(*model.PageRecord)
		wantType     string
		wantSeverity model.Severity
	}{
		{
			name:         "missing title",
			mutate:       func(p *model.PageRecord) { p.Title = "" },
			wantType:     TypeMissingTitle,
			wantSeverity: model.SeverityError,
		},
		{
			name:         "missing meta description",
			mutate:       func(p *model.PageRecord) { p.MetaDescription = "" },
			wantType:     TypeMissingMetaDescription,
			wantSeverity: model.SeverityWarning,
		},
		{
			name:         "missing h1",
			mutate:       func(p *model.PageRecord) { p.H1 = nil },
			wantType:     TypeMissingH1,
			wantSeverity: model.SeverityWarning,
		},
		{
			name:         "thin content",
			mutate:       func(p *model.PageRecord) { p.WordCount = 42 },
			wantType:     TypeThinContent,
			wantSeverity: model.SeverityWarning,
		},
		{
			name:         "large page",
			mutate:       func(p *model.PageRecord) { p.PageSize = 4 * 1024 * 1024 },
			wantType:     TypeLargePage,
			wantSeverity: model.SeverityWarning,
		},
		{
			name:         "duplicate content",
			mutate:       func(p *model.PageRecord) { p.Duplicate = true },
			wantType:     TypeDuplicateContent,
			wantSeverity: model.SeverityInfo,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := healthyPage("https://example.com/p", 1)
			tt.mutate(page)

			issues := NewDetector("crawl-1").PageIssues(page, nil)
			if len(issues) != 1 {
				t.Fatalf("expected 1 issue, got %d: %+v", len(issues), issues)
			}
			if issues[0].Type != tt.wantType {
				t.Errorf("type = %s, want %s", issues[0].Type, tt.wantType)
			}
			if issues[0].Severity != tt.wantSeverity {
				t.Errorf("severity = %s, want %s", issues[0].Severity, tt.wantSeverity)
			}
			if issues[0].PageID != page.ID {
				t.Error("issue does not point at the offending page")
			}
			if issues[0].Message == "" {
				t.Error("issue has no message")
			}
		})
	}
}

// TestPageIssuesSeedNoindex tests the critical seed rule.
func TestPageIssuesSeedNoindex(t *testing.T) {
	t.Parallel()

	seed := healthyPage("https://example.com/", 0)
	seed.Indexable = false

	issues := NewDetector("crawl-1").PageIssues(seed, nil)

	var found bool
	for _, issue := range issues {
		issue := issue
		if issue.Type == TypeSeedNotIndexable {
			found = true
			if issue.Severity != model.SeverityCritical {
				t.Errorf("severity = %s, want CRITICAL", issue.Severity)
			}
		}
	}
	if !found {
		t.Error("expected seed_not_indexable issue")
	}

	// The same noindex at depth 2 is not critical.
	inner := healthyPage("https://example.com/inner", 2)
	inner.Indexable = false
	for _, issue := range NewDetector("crawl-1").PageIssues(inner, nil) {
		issue := issue
		if issue.Type == TypeSeedNotIndexable {
			t.Error("seed rule fired on a non-seed page")
		}
	}
}

// TestPageIssuesFetchFailed tests the transport failure finding.
func TestPageIssuesFetchFailed(t *testing.T) {
	t.Parallel()

	page := model.NewPageRecord("crawl-1", "https://example.com/down", 1)
	page.FetchError = "timeout"

	issues := NewDetector("crawl-1").PageIssues(page, nil)
	if len(issues) != 1 || issues[0].Type != TypeFetchFailed {
		t.Fatalf("expected single fetch_failed issue, got %+v", issues)
	}
	if issues[0].Severity != model.SeverityError {
		t.Errorf("severity = %s", issues[0].Severity)
	}
}

// TestPageIssuesMissingAlt tests grouped alt-text findings.
func TestPageIssuesMissingAlt(t *testing.T) {
	t.Parallel()

	page := healthyPage("https://example.com/gallery", 1)
	images := []*model.ImageRecord{
		model.NewImageRecord("crawl-1", page.ID, "https://example.com/a.png", ""),
		model.NewImageRecord("crawl-1", page.ID, "https://example.com/b.png", "described"),
		model.NewImageRecord("crawl-1", page.ID, "https://example.com/c.png", ""),
	}

	issues := NewDetector("crawl-1").PageIssues(page, images)
	if len(issues) != 1 {
		t.Fatalf("expected 1 grouped issue, got %d", len(issues))
	}
	if issues[0].Type != TypeMissingAltText {
		t.Errorf("type = %s", issues[0].Type)
	}
	if !strings.Contains(issues[0].Message, "2 images") {
		t.Errorf("message = %q", issues[0].Message)
	}
}

// TestCrawlIssuesBrokenLinks tests site-wide broken link detection.
func TestCrawlIssuesBrokenLinks(t *testing.T) {
	t.Parallel()

	broken := model.NewLinkRecord("crawl-1", "p1", "https://example.com/", "https://example.com/gone")
	broken.SetStatus(404)

	healthy := model.NewLinkRecord("crawl-1", "p1", "https://example.com/", "https://example.com/ok")
	healthy.SetStatus(200)

	externalBroken := model.NewLinkRecord("crawl-1", "p1", "https://example.com/", "https://other.org/gone")
	externalBroken.External = true
	externalBroken.SetStatus(404)

	unchecked := model.NewLinkRecord("crawl-1", "p1", "https://example.com/", "https://example.com/pending")

	issues := NewDetector("crawl-1").CrawlIssues(nil,
		[]*model.LinkRecord{broken, healthy, externalBroken, unchecked}, nil)

	var count int
	for _, issue := range issues {
		issue := issue
		if issue.Type == TypeBrokenInternalLink {
			count++
			if issue.Context != "https://example.com/gone" {
				t.Errorf("context = %q", issue.Context)
			}
		}
	}
	// Only the internal checked-and-broken link fires the rule.
	if count != 1 {
		t.Errorf("expected 1 broken_internal_link issue, got %d", count)
	}
}

// TestCrawlIssuesDuplicates tests duplicate title/description detection.
func TestCrawlIssuesDuplicates(t *testing.T) {
	t.Parallel()

	a := healthyPage("https://example.com/a", 1)
	b := healthyPage("https://example.com/b", 1)
	c := healthyPage("https://example.com/c", 1)
	a.Title, b.Title = "Shared Title", "Shared Title"
	a.MetaDescription, c.MetaDescription = "Shared description.", "Shared description."

	// Link every page so the orphan rule stays quiet.
	var links []*model.LinkRecord
	for _, p := range []*model.PageRecord{a, b, c} {
		p := p
		links = append(links, model.NewLinkRecord("crawl-1", "p0", "https://example.com/", p.URL))
	}

	issues := NewDetector("crawl-1").CrawlIssues([]*model.PageRecord{a, b, c}, links, nil)

	var titleIssues, descIssues int
	for _, issue := range issues {
		issue := issue
		switch issue.Type {
		case TypeDuplicateTitle:
			titleIssues++
			if !strings.Contains(issue.Message, "2 pages") {
				t.Errorf("title message = %q", issue.Message)
			}
		case TypeDuplicateDescription:
			descIssues++
		}
	}
	if titleIssues != 1 {
		t.Errorf("expected 1 duplicate_title issue, got %d", titleIssues)
	}
	if descIssues != 1 {
		t.Errorf("expected 1 duplicate_meta_description issue, got %d", descIssues)
	}
}

// TestCrawlIssuesOrphanPages tests orphan detection with the seed exempt.
func TestCrawlIssuesOrphanPages(t *testing.T) {
	t.Parallel()

	seed := healthyPage("https://example.com/", 0)
	linked := healthyPage("https://example.com/linked", 1)
	orphan := healthyPage("https://example.com/orphan", 1)

	links := []*model.LinkRecord{
		model.NewLinkRecord("crawl-1", seed.ID, seed.URL, linked.URL),
	}

	issues := NewDetector("crawl-1").CrawlIssues(
		[]*model.PageRecord{seed, linked, orphan}, links, nil)

	var orphans []string
	for _, issue := range issues {
		issue := issue
		if issue.Type == TypeOrphanPage {
			orphans = append(orphans, issue.Context)
		}
	}
	if len(orphans) != 1 || orphans[0] != orphan.URL {
		t.Errorf("orphan issues = %v, want only %s", orphans, orphan.URL)
	}
}

// TestSeverityLookup tests rule table lookups.
func TestSeverityLookup(t *testing.T) {
	t.Parallel()

	if Severity(TypeBrokenInternalLink) != model.SeverityError {
		t.Error("broken_internal_link should be ERROR")
	}
	if Severity(TypeSeedNotIndexable) != model.SeverityCritical {
		t.Error("seed_not_indexable should be CRITICAL")
	}
	if Severity("unknown_rule") != model.SeverityInfo {
		t.Error("unknown types should default to INFO")
	}
	if Recommendation(TypeThinContent) == "" {
		t.Error("expected a recommendation for thin_content")
	}
}
