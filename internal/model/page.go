package model

import "github.com/google/uuid"

// FetchMethod identifies how a page's content was retrieved.
type FetchMethod string

const (
	// FetchMethodHTTP is the plain HTTP fast path.
	FetchMethodHTTP FetchMethod = "http"

	// FetchMethodRender is the headless-browser render path.
	FetchMethodRender FetchMethod = "render"
)

// LargePageThreshold is the page size above which a large_page issue is
// raised. Pages past this size hurt load time on slow connections.
const LargePageThreshold = 3 * 1024 * 1024 // 3 MB

// ThinContentWordCount is the word count below which an indexable HTML
// page is flagged as thin content.
const ThinContentWordCount = 300

// PageRecord is one fetched URL's outcome.
//
// Design decision: The content hash is computed over extraction-normalized
// text rather than raw bytes, so whitespace and markup churn between
// otherwise identical pages does not defeat duplicate detection.
type PageRecord struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`

	// CrawlID is the owning crawl.
	CrawlID string `json:"crawl_id"`

	// URL is the canonical URL that was popped from the frontier.
	URL string `json:"url"`

	// FinalURL is the URL after following redirects. Equals URL when no
	// redirect occurred.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP response status, or 0 when the transport failed.
	StatusCode int `json:"status_code"`

	// FetchMethod records whether the plain or rendered path produced the body.
	FetchMethod FetchMethod `json:"fetch_method"`

	// LatencyMS is the fetch duration in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type,omitempty"`

	// ContentHash is the fingerprint of the normalized extracted text.
	// Empty when extraction produced no text.
	ContentHash string `json:"content_hash,omitempty"`

	// Title is the <title> text.
	Title string `json:"title,omitempty"`

	// MetaDescription is the meta description content.
	MetaDescription string `json:"meta_description,omitempty"`

	// H1 holds the h1 heading texts in document order.
	H1 []string `json:"h1,omitempty"`

	// H2 holds the h2 heading texts in document order.
	H2 []string `json:"h2,omitempty"`

	// TextExcerpt is a bounded prefix of the normalized text.
	TextExcerpt string `json:"text_excerpt,omitempty"`

	// WordCount is the number of words in the normalized text.
	WordCount int `json:"word_count"`

	// Indexable is false when a meta robots noindex directive was found.
	Indexable bool `json:"indexable"`

	// Depth is the BFS distance from the seed URL.
	Depth int `json:"depth"`

	// PageSize is the response body size in bytes.
	PageSize int64 `json:"page_size"`

	// InternalLinks is the count of outbound links to the seed host.
	InternalLinks int `json:"internal_links"`

	// ExternalLinks is the count of outbound links to other hosts.
	ExternalLinks int `json:"external_links"`

	// Duplicate marks pages whose content hash was already registered by
	// an earlier page in the same crawl.
	Duplicate bool `json:"duplicate"`

	// FetchError carries the transport failure classification when
	// StatusCode is 0. Empty on success.
	FetchError string `json:"fetch_error,omitempty"`
}

// NewPageRecord creates a page record owned by the given crawl.
func NewPageRecord(crawlID, url string, depth int) *PageRecord {
	return &PageRecord{
		ID:        uuid.NewString(),
		CrawlID:   crawlID,
		URL:       url,
		FinalURL:  url,
		Depth:     depth,
		Indexable: true,
	}
}

// IsHTML reports whether the content type indicates an HTML document.
func (p *PageRecord) IsHTML() bool {
	return hasMIMEPrefix(p.ContentType, "text/html") ||
		hasMIMEPrefix(p.ContentType, "application/xhtml+xml")
}

// hasMIMEPrefix matches a content type ignoring parameters such as charset.
func hasMIMEPrefix(contentType, want string) bool {
	return len(contentType) >= len(want) && contentType[:len(want)] == want
}
