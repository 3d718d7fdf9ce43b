package issue

import "github.com/nao1215/siteaudit/internal/model"

// Issue type identifiers. These are stable strings persisted with each
// finding; renaming one breaks historical comparisons.
const (
	TypeBrokenInternalLink      = "broken_internal_link"
	TypeBrokenImage             = "broken_image"
	TypeLargePage               = "large_page"
	TypeMissingAltText          = "missing_alt_text"
	TypeThinContent             = "thin_content"
	TypeOrphanPage              = "orphan_page"
	TypeDuplicateTitle          = "duplicate_title"
	TypeDuplicateDescription    = "duplicate_meta_description"
	TypeDuplicateContent        = "duplicate_content"
	TypeMissingTitle            = "missing_title"
	TypeMissingMetaDescription  = "missing_meta_description"
	TypeMissingH1               = "missing_h1"
	TypeSeedNotIndexable        = "seed_not_indexable"
	TypeFetchFailed             = "fetch_failed"
)

// RuleInfo contains metadata about an issue type: its severity and the
// remediation recommendation shown in reports.
type RuleInfo struct {
	Severity       model.Severity
	Recommendation string
}

// ruleInfoMapping maps issue types to their metadata.
// This centralized mapping ensures consistent severity assignment across
// the application.
//
// Design decision: We use a map rather than embedding severity at each
// detection site because:
// 1. It provides a single source of truth for severity levels
// 2. It allows adjusting severities without touching detection logic
// 3. It makes it easy to generate rule documentation
var ruleInfoMapping = map[string]RuleInfo{
	// CRITICAL - can remove pages from search results entirely
	TypeSeedNotIndexable: {
		Severity:       model.SeverityCritical,
		Recommendation: "The seed page carries a noindex directive. Remove it unless the whole site is meant to be invisible to search engines.",
	},

	// ERROR - actively harms the site
	TypeBrokenInternalLink: {
		Severity:       model.SeverityError,
		Recommendation: "Update or remove the broken link.",
	},
	TypeBrokenImage: {
		Severity:       model.SeverityError,
		Recommendation: "Replace or remove broken images.",
	},
	TypeMissingTitle: {
		Severity:       model.SeverityError,
		Recommendation: "Add a unique, descriptive title tag.",
	},
	TypeDuplicateTitle: {
		Severity:       model.SeverityError,
		Recommendation: "Create unique, descriptive titles for each page to improve search rankings.",
	},
	TypeFetchFailed: {
		Severity:       model.SeverityError,
		Recommendation: "Check that the page is reachable and the server responds within the timeout.",
	},

	// WARNING - degrades SEO quality without blocking indexing
	TypeThinContent: {
		Severity:       model.SeverityWarning,
		Recommendation: "Expand the content with valuable information to improve SEO and user engagement.",
	},
	TypeMissingMetaDescription: {
		Severity:       model.SeverityWarning,
		Recommendation: "Write a unique, compelling meta description to improve click-through rates.",
	},
	TypeDuplicateDescription: {
		Severity:       model.SeverityWarning,
		Recommendation: "Write unique, compelling descriptions to improve click-through rates.",
	},
	TypeMissingH1: {
		Severity:       model.SeverityWarning,
		Recommendation: "Add a descriptive H1 that clearly describes the page content.",
	},
	TypeMissingAltText: {
		Severity:       model.SeverityWarning,
		Recommendation: "Add descriptive alt text for screen readers and accessibility compliance.",
	},
	TypeLargePage: {
		Severity:       model.SeverityWarning,
		Recommendation: "Optimize images, minify CSS/JS, and enable compression.",
	},
	TypeOrphanPage: {
		Severity:       model.SeverityWarning,
		Recommendation: "Add internal links from related pages to improve discoverability.",
	},

	// INFO - worth knowing, no direct ranking impact
	TypeDuplicateContent: {
		Severity:       model.SeverityInfo,
		Recommendation: "Consolidate duplicate pages or add canonical tags pointing at the preferred version.",
	},
}

// Severity returns the severity level for an issue type.
// Unknown types default to SeverityInfo.
func Severity(issueType string) model.Severity {
	if info, ok := ruleInfoMapping[issueType]; ok {
		return info.Severity
	}
	return model.SeverityInfo
}

// Recommendation returns the remediation advice for an issue type.
func Recommendation(issueType string) string {
	if info, ok := ruleInfoMapping[issueType]; ok {
		return info.Recommendation
	}
	return ""
}
