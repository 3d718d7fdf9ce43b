package model

import "github.com/google/uuid"

// LinkPosition is a coarse hint about where in the document a link sits.
type LinkPosition string

const (
	// PositionNav marks links inside <nav> or <header> ancestors.
	PositionNav LinkPosition = "nav"

	// PositionContent marks links in the main document body.
	PositionContent LinkPosition = "content"

	// PositionFooter marks links inside <footer> ancestors.
	PositionFooter LinkPosition = "footer"
)

// LinkRecord is one discovered edge in the link graph.
//
// StatusCode is a pointer because "not yet checked" and "check returned 0"
// must stay distinguishable: IsBroken is only meaningful after a liveness
// check stamped the status, and pending records carry a nil status.
type LinkRecord struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`

	// CrawlID is the owning crawl.
	CrawlID string `json:"crawl_id"`

	// SourcePageID is the page the link was found on.
	SourcePageID string `json:"source_page_id"`

	// SourceURL is the canonical URL of the source page.
	SourceURL string `json:"source_url"`

	// TargetURL is the canonical absolute URL the link points to.
	TargetURL string `json:"target_url"`

	// AnchorText is the link's visible text, whitespace-collapsed.
	AnchorText string `json:"anchor_text,omitempty"`

	// External is true when the target host differs from the seed host.
	External bool `json:"external"`

	// NoFollow is true when rel contains nofollow.
	NoFollow bool `json:"nofollow"`

	// Position is the document-position hint for the link.
	Position LinkPosition `json:"position,omitempty"`

	// StatusCode is the HTTP status observed for the target, once checked.
	StatusCode *int `json:"status_code,omitempty"`

	// IsBroken is set only after a liveness check observed status >= 400
	// or an unrecoverable transport failure.
	IsBroken bool `json:"is_broken"`

	// LatencyMS is the liveness check duration in milliseconds, when one ran.
	LatencyMS int64 `json:"latency_ms,omitempty"`

	// DenyReason is the categorical policy reason when the link was
	// recorded but not followed. Empty for followed links.
	DenyReason string `json:"deny_reason,omitempty"`
}

// NewLinkRecord creates a link record for an edge discovered on a page.
func NewLinkRecord(crawlID, sourcePageID, sourceURL, targetURL string) *LinkRecord {
	return &LinkRecord{
		ID:           uuid.NewString(),
		CrawlID:      crawlID,
		SourcePageID: sourcePageID,
		SourceURL:    sourceURL,
		TargetURL:    targetURL,
	}
}

// SetStatus stamps the observed HTTP status and derives the broken flag.
func (l *LinkRecord) SetStatus(code int) {
	l.StatusCode = &code
	l.IsBroken = code >= 400 || code == 0
}

// ImageRecord is one image reference discovered on a page.
type ImageRecord struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`

	// CrawlID is the owning crawl.
	CrawlID string `json:"crawl_id"`

	// PageID is the page the image was found on.
	PageID string `json:"page_id"`

	// Src is the resolved absolute image URL.
	Src string `json:"src"`

	// Alt is the alt attribute text.
	Alt string `json:"alt,omitempty"`

	// HasAlt is false when the alt attribute was absent or empty.
	HasAlt bool `json:"has_alt"`

	// Width and Height come from the width/height attributes when present.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// IsBroken is set when a liveness check failed for the image source.
	IsBroken bool `json:"is_broken"`
}

// NewImageRecord creates an image record for a reference found on a page.
func NewImageRecord(crawlID, pageID, src, alt string) *ImageRecord {
	return &ImageRecord{
		ID:      uuid.NewString(),
		CrawlID: crawlID,
		PageID:  pageID,
		Src:     src,
		Alt:     alt,
		HasAlt:  alt != "",
	}
}
