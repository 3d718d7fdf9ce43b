package issue

import (
	"fmt"
	"strings"

	"github.com/nao1215/siteaudit/internal/model"
)

// Detector evaluates the issue rules for one crawl.
// It is stateless apart from the crawl ID stamped on each finding.
type Detector struct {
	crawlID string
}

// NewDetector creates a detector for the given crawl.
func NewDetector(crawlID string) *Detector {
	return &Detector{crawlID: crawlID}
}

// newIssue builds a finding with the severity from the rule table.
func (d *Detector) newIssue(issueType, message, context string) *model.Issue {
	issue := model.NewIssue(d.crawlID, issueType, Severity(issueType), message)
	issue.Context = context
	return issue
}

// PageIssues evaluates the incremental, page-scoped rules for one fetched
// page and its images. Only successfully fetched HTML pages are checked
// for content rules; fetch failures produce a single fetch_failed finding.
func (d *Detector) PageIssues(page *model.PageRecord, images []*model.ImageRecord) []*model.Issue {
	var issues []*model.Issue

	if page.StatusCode == 0 {
		issue := d.newIssue(TypeFetchFailed,
			fmt.Sprintf("Page could not be fetched: %s.", page.FetchError), page.URL)
		issue.PageID = page.ID
		return append(issues, issue)
	}

	if page.StatusCode >= 400 || !page.IsHTML() {
		return issues
	}

	addPageIssue := func(issueType, message string) {
		issue := d.newIssue(issueType, message, page.URL)
		issue.PageID = page.ID
		issues = append(issues, issue)
	}

	if page.Title == "" {
		addPageIssue(TypeMissingTitle, "Page has no title tag. "+Recommendation(TypeMissingTitle))
	}
	if page.MetaDescription == "" {
		addPageIssue(TypeMissingMetaDescription,
			"Page has no meta description. "+Recommendation(TypeMissingMetaDescription))
	}
	if len(page.H1) == 0 {
		addPageIssue(TypeMissingH1, "Page is missing an H1 heading. "+Recommendation(TypeMissingH1))
	}
	if page.Indexable && page.WordCount < model.ThinContentWordCount {
		addPageIssue(TypeThinContent,
			fmt.Sprintf("Page has only %d words (recommended: %d+). %s",
				page.WordCount, model.ThinContentWordCount, Recommendation(TypeThinContent)))
	}
	if page.PageSize > model.LargePageThreshold {
		addPageIssue(TypeLargePage,
			fmt.Sprintf("Page size is %.2fMB (recommended: < %dMB). %s",
				float64(page.PageSize)/(1024*1024),
				model.LargePageThreshold/(1024*1024),
				Recommendation(TypeLargePage)))
	}
	if page.Duplicate {
		addPageIssue(TypeDuplicateContent,
			"Page content is identical to an earlier page. "+Recommendation(TypeDuplicateContent))
	}
	if !page.Indexable && page.Depth == 0 {
		addPageIssue(TypeSeedNotIndexable, Recommendation(TypeSeedNotIndexable))
	}

	if missing := missingAltSources(images); len(missing) > 0 {
		issue := d.newIssue(TypeMissingAltText,
			fmt.Sprintf("%d image%s missing alt text. %s",
				len(missing), plural(len(missing)), Recommendation(TypeMissingAltText)),
			page.URL)
		issue.PageID = page.ID
		issue.Context = truncateList(missing, 3)
		issues = append(issues, issue)
	}

	return issues
}

// CrawlIssues evaluates the site-wide rules over the accumulated record
// set once the traversal has finished.
func (d *Detector) CrawlIssues(pages []*model.PageRecord, links []*model.LinkRecord, images []*model.ImageRecord) []*model.Issue {
	var issues []*model.Issue

	issues = append(issues, d.brokenInternalLinks(links)...)
	issues = append(issues, d.brokenImages(images)...)
	issues = append(issues, d.duplicateTitles(pages)...)
	issues = append(issues, d.duplicateDescriptions(pages)...)
	issues = append(issues, d.orphanPages(pages, links)...)

	return issues
}

// brokenInternalLinks flags internal links whose liveness check failed.
func (d *Detector) brokenInternalLinks(links []*model.LinkRecord) []*model.Issue {
	var issues []*model.Issue
	for _, link := range links {
		if link.External || !link.IsBroken || link.StatusCode == nil {
			continue
		}
		issue := d.newIssue(TypeBrokenInternalLink,
			fmt.Sprintf("Internal link returns %d. %s", *link.StatusCode, Recommendation(TypeBrokenInternalLink)),
			link.SourceURL)
		issue.Context = link.TargetURL
		issues = append(issues, issue)
	}
	return issues
}

// brokenImages groups broken image references per page to avoid spam.
func (d *Detector) brokenImages(images []*model.ImageRecord) []*model.Issue {
	byPage := make(map[string][]string)
	for _, img := range images {
		if img.IsBroken {
			byPage[img.PageID] = append(byPage[img.PageID], img.Src)
		}
	}

	var issues []*model.Issue
	for pageID, srcs := range byPage {
		issue := d.newIssue(TypeBrokenImage,
			fmt.Sprintf("%d broken image%s on this page. %s",
				len(srcs), plural(len(srcs)), Recommendation(TypeBrokenImage)),
			truncateList(srcs, 3))
		issue.PageID = pageID
		issues = append(issues, issue)
	}
	return issues
}

// duplicateTitles flags titles shared by more than one fetched page.
func (d *Detector) duplicateTitles(pages []*model.PageRecord) []*model.Issue {
	byTitle := make(map[string][]string)
	for _, page := range pages {
		if page.Title == "" || page.Duplicate {
			continue
		}
		byTitle[page.Title] = append(byTitle[page.Title], page.URL)
	}

	var issues []*model.Issue
	for title, urls := range byTitle {
		if len(urls) < 2 {
			continue
		}
		issue := d.newIssue(TypeDuplicateTitle,
			fmt.Sprintf("Title %q is used on %d pages. %s",
				title, len(urls), Recommendation(TypeDuplicateTitle)),
			truncateList(urls, 3))
		issues = append(issues, issue)
	}
	return issues
}

// duplicateDescriptions flags meta descriptions shared by multiple pages.
func (d *Detector) duplicateDescriptions(pages []*model.PageRecord) []*model.Issue {
	byDesc := make(map[string][]string)
	for _, page := range pages {
		if page.MetaDescription == "" || page.Duplicate {
			continue
		}
		byDesc[page.MetaDescription] = append(byDesc[page.MetaDescription], page.URL)
	}

	var issues []*model.Issue
	for desc, urls := range byDesc {
		if len(urls) < 2 {
			continue
		}
		display := desc
		if len(display) > 50 {
			display = display[:50] + "..."
		}
		issue := d.newIssue(TypeDuplicateDescription,
			fmt.Sprintf("Meta description %q is used on %d pages. %s",
				display, len(urls), Recommendation(TypeDuplicateDescription)),
			truncateList(urls, 3))
		issues = append(issues, issue)
	}
	return issues
}

// orphanPages flags internal pages nothing links to. The seed page is
// exempt: nothing is expected to link to the entry point.
func (d *Detector) orphanPages(pages []*model.PageRecord, links []*model.LinkRecord) []*model.Issue {
	linked := make(map[string]bool)
	for _, link := range links {
		if !link.External {
			linked[link.TargetURL] = true
		}
	}

	var issues []*model.Issue
	for _, page := range pages {
		if page.Depth == 0 || page.StatusCode == 0 || page.StatusCode >= 400 {
			continue
		}
		if linked[page.URL] || linked[page.FinalURL] {
			continue
		}
		issue := d.newIssue(TypeOrphanPage,
			"Page has no internal links pointing to it. "+Recommendation(TypeOrphanPage),
			page.URL)
		issue.PageID = page.ID
		issues = append(issues, issue)
	}
	return issues
}

// missingAltSources collects the sources of images without alt text.
func missingAltSources(images []*model.ImageRecord) []string {
	var srcs []string
	for _, img := range images {
		if !img.HasAlt {
			srcs = append(srcs, img.Src)
		}
	}
	return srcs
}

// plural returns "s" for counts other than one.
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// truncateList joins up to max items, marking the rest with an ellipsis.
func truncateList(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + "..."
}
