package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoSeedURL is returned when no seed URL is specified.
	ErrNoSeedURL = errors.New("no seed URL specified")

	// ErrInvalidSeedURL is returned when the seed URL is not an absolute
	// http or https URL.
	ErrInvalidSeedURL = errors.New("invalid seed URL: must be absolute http or https")

	// ErrInvalidMaxDepth is returned when the max depth is negative.
	// Depth 0 means fetch only the seed page; negative depth is meaningless.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	// A budget of zero would terminate the crawl before the seed page.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	// Zero workers would stall the crawl loop.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidRateLimit is returned when the request rate is not positive.
	// The limiter gates every request; a zero rate would block forever.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be positive")

	// ErrInvalidExternalLinks is returned when the external domain quota
	// is negative. Use 0 to forbid external fetches entirely.
	ErrInvalidExternalLinks = errors.New("invalid max external links: must be non-negative")

	// ErrInvalidExternalDepth is returned when the external depth is negative.
	ErrInvalidExternalDepth = errors.New("invalid external depth: must be non-negative")

	// ErrInvalidRenderMode is returned when js_rendering is not one of
	// off, force, or auto.
	ErrInvalidRenderMode = errors.New(`invalid render mode: must be "off", "force", or "auto"`)

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
