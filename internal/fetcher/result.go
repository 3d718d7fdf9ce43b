package fetcher

import (
	"time"

	"github.com/nao1215/siteaudit/internal/model"
)

// FailureClass categorizes a transport-level fetch failure.
// HTTP 4xx/5xx responses are not failures at this level; they carry a
// status code and are classified downstream by the issue detector.
type FailureClass string

const (
	// FailTimeout covers deadline-exceeded errors on connect or read.
	FailTimeout FailureClass = "timeout"

	// FailDNS covers name-resolution failures.
	FailDNS FailureClass = "dns"

	// FailConnection covers refused, reset, and other socket errors.
	FailConnection FailureClass = "connection"

	// FailTooManyRedirects covers redirect chains past the hop bound.
	FailTooManyRedirects FailureClass = "too_many_redirects"

	// FailCancelled covers fetches aborted by crawl stop or cancel.
	FailCancelled FailureClass = "cancelled"
)

// Failure describes why a fetch produced no HTTP response.
type Failure struct {
	// Class is the transport failure category.
	Class FailureClass

	// Message is the underlying error text for logging and issues.
	Message string
}

// Result is the outcome of one fetch. Exactly one of the transport fields
// (StatusCode and friends) or Failure is meaningful: when Failure is nil
// the fetch reached the server and StatusCode is valid.
type Result struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL after following redirects.
	FinalURL string

	// StatusCode is the HTTP response status.
	StatusCode int

	// ContentType is the response Content-Type header value.
	ContentType string

	// Body is the decoded response body, possibly truncated at the
	// configured size cap.
	Body string

	// BodySize is the decoded body size in bytes before truncation
	// mattered; it equals len(Body) unless the cap was hit.
	BodySize int64

	// Latency is the wall-clock fetch duration.
	Latency time.Duration

	// Method records which path produced the body.
	Method model.FetchMethod

	// Failure is set when the fetch never produced an HTTP response.
	Failure *Failure
}

// OK reports whether the fetch reached the server.
func (r *Result) OK() bool {
	return r.Failure == nil
}

// IsHTML reports whether the response content type indicates HTML.
func (r *Result) IsHTML() bool {
	return hasMIMEPrefix(r.ContentType, "text/html") ||
		hasMIMEPrefix(r.ContentType, "application/xhtml+xml")
}

func hasMIMEPrefix(contentType, want string) bool {
	return len(contentType) >= len(want) && contentType[:len(want)] == want
}
