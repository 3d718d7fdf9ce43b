package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Severity represents the impact level of an SEO issue.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no ranking impact.
	// Examples: duplicate content notices, redirect chains.
	SeverityInfo Severity = iota

	// SeverityWarning indicates issues that degrade SEO quality but do not
	// block indexing. Examples: thin content, missing meta description.
	SeverityWarning

	// SeverityError indicates issues that actively harm the site.
	// Examples: broken internal links, missing titles.
	SeverityError

	// SeverityCritical indicates issues that can remove pages from search
	// results entirely. Examples: unintended noindex on key pages.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the severity as its name so JSON reports read the
// same as the text report.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the severity name produced by MarshalJSON.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = ParseSeverity(name)
	return nil
}

// ParseSeverity converts a stored severity string back to a Severity.
// Unknown strings map to SeverityInfo.
func ParseSeverity(s string) Severity {
	switch s {
	case "WARNING":
		return SeverityWarning
	case "ERROR":
		return SeverityError
	case "CRITICAL":
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// Issue is one severity-tagged finding derived from crawl data.
// Issues are write-once: re-runs regenerate them wholesale rather than
// mutating existing rows.
type Issue struct {
	// ID uniquely identifies this issue.
	ID string `json:"id"`

	// CrawlID is the owning crawl.
	CrawlID string `json:"crawl_id"`

	// PageID points at the offending page, when the issue is page-scoped.
	PageID string `json:"page_id,omitempty"`

	// Type is the rule identifier, e.g. "broken_internal_link".
	Type string `json:"type"`

	// Severity is the impact level assigned by the rule table.
	Severity Severity `json:"severity"`

	// Message is a human-readable explanation of the finding.
	Message string `json:"message"`

	// Context points at the offending URL, link target, or image source
	// so the finding is explainable without re-crawling.
	Context string `json:"context,omitempty"`
}

// NewIssue creates an issue owned by the given crawl.
func NewIssue(crawlID, issueType string, severity Severity, message string) *Issue {
	return &Issue{
		ID:       uuid.NewString(),
		CrawlID:  crawlID,
		Type:     issueType,
		Severity: severity,
		Message:  message,
	}
}
