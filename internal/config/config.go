package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// RenderMode controls when the headless-browser fetch path is used.
type RenderMode string

const (
	// RenderOff disables headless rendering entirely.
	RenderOff RenderMode = "off"

	// RenderForce renders every HTML page through the headless browser.
	RenderForce RenderMode = "force"

	// RenderAuto renders only when the plain fetch looks incomplete
	// (short body, JS-framework markers, missing structural tags).
	RenderAuto RenderMode = "auto"
)

// Default configuration values.
// These values are chosen for polite single-site auditing: thorough enough
// to cover a typical small or medium site, bounded enough to never run away.
const (
	// DefaultMaxDepth of 3 reaches most content on conventionally structured
	// sites (home, section, article) without descending into pagination traps.
	DefaultMaxDepth = 3

	// DefaultMaxPages caps a run at 100 pages. This keeps a default audit
	// fast and cheap; large sites can raise it via --max-pages.
	DefaultMaxPages = 100

	// DefaultConcurrency of 5 workers balances throughput against the load
	// placed on the audited site. The rate limiter is the real politeness
	// control; concurrency only bounds in-flight work.
	DefaultConcurrency = 5

	// DefaultRateLimit of 2 requests per second is conservative enough for
	// small shared-hosting sites while keeping a 100 page audit under a minute.
	DefaultRateLimit = 2.0

	// DefaultMaxExternalLinks caps distinct external hosts fetched per run.
	// External pages are fetched only for liveness, not audited in depth.
	DefaultMaxExternalLinks = 10

	// DefaultExternalDepth of 1 means external pages are fetched but their
	// links are not followed further off-site.
	DefaultExternalDepth = 1

	// DefaultTimeout is generous enough for slow origin servers while
	// keeping a stuck request from holding a worker for long.
	DefaultTimeout = 30 * time.Second

	// DefaultRenderTimeout bounds a single headless page load. Rendering is
	// strictly slower than plain fetching, so it gets its own budget.
	DefaultRenderTimeout = 60 * time.Second

	// DefaultUserAgent identifies siteaudit in HTTP requests.
	// A descriptive User-Agent lets operators identify audit traffic in logs.
	DefaultUserAgent = "siteaudit/1.0 (+https://github.com/nao1215/siteaudit)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 10MB covers large HTML pages while preventing memory exhaustion.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultBatchSize is the persistence buffer threshold. Records are
	// flushed to storage once the buffer reaches this many entries.
	DefaultBatchSize = 50

	// AppName is the application name used for XDG directory paths.
	AppName = "siteaudit"
)

// Config holds all settings for one crawl run.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state. It is
// treated as immutable once Validate has been called.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, PolicyConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// SeedURL is the absolute URL the traversal starts from.
	SeedURL string

	// MaxDepth is the maximum BFS distance from the seed.
	// Depth 0 means only the seed page is fetched.
	MaxDepth int

	// MaxPages is the page budget. The crawl never fetches more pages
	// than this, counting duplicates.
	MaxPages int

	// Concurrency is the worker pool size for frontier processing.
	Concurrency int

	// RateLimit is the global request rate in requests per second.
	// It gates every outbound request, including link liveness checks.
	RateLimit float64

	// RespectRobotsTxt enables robots.txt checks in the domain policy.
	RespectRobotsTxt bool

	// FollowExternalLinks allows fetching pages on hosts other than the
	// seed host. When false, external links are recorded but never fetched.
	FollowExternalLinks bool

	// MaxExternalLinks caps the number of distinct external hosts fetched.
	MaxExternalLinks int

	// ExternalDepth limits how many hops past the external crossing point
	// a traversal may continue off-site.
	ExternalDepth int

	// Render selects the headless-rendering mode: off, force, or auto.
	Render RenderMode

	// RenderConcurrency caps concurrent headless page loads. Rendering is
	// far heavier than plain fetching, so this is smaller than Concurrency.
	// Zero derives a cap from Concurrency.
	RenderConcurrency int

	// Timeout is the per-request timeout for plain HTTP fetches.
	Timeout time.Duration

	// RenderTimeout is the per-page timeout for headless rendering.
	RenderTimeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. Zero uses the default.
	MaxBodySize int64

	// BatchSize is the persistence buffer flush threshold.
	// Zero uses the default.
	BatchSize int

	// DBDir is the directory for the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool
}

// NewConfig creates a Config with default values.
// All fields are set to safe, sensible defaults that work for most audits.
// Callers override specific values after creation, then call Validate.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:            DefaultMaxDepth,
		MaxPages:            DefaultMaxPages,
		Concurrency:         DefaultConcurrency,
		RateLimit:           DefaultRateLimit,
		RespectRobotsTxt:    true,
		FollowExternalLinks: false,
		MaxExternalLinks:    DefaultMaxExternalLinks,
		ExternalDepth:       DefaultExternalDepth,
		Render:              RenderAuto,
		Timeout:             DefaultTimeout,
		RenderTimeout:       DefaultRenderTimeout,
		UserAgent:           DefaultUserAgent,
		MaxBodySize:         DefaultMaxBodySize,
		BatchSize:           DefaultBatchSize,
		DBDir:               XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for siteaudit.
// On Linux: ~/.local/share/siteaudit
// On macOS: ~/Library/Application Support/siteaudit
// On Windows: %LOCALAPPDATA%\siteaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for siteaudit.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific sentinel error describing what is invalid.
//
// Design decision: We validate once at crawl start rather than at each
// point of use to fail fast with a clear message. We return the first
// error found because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.SeedURL == "" {
		return ErrNoSeedURL
	}
	u, err := url.Parse(c.SeedURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSeedURL
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.RateLimit <= 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxExternalLinks < 0 {
		return ErrInvalidExternalLinks
	}
	if c.ExternalDepth < 0 {
		return ErrInvalidExternalDepth
	}

	switch c.Render {
	case RenderOff, RenderForce, RenderAuto:
	default:
		return ErrInvalidRenderMode
	}

	if c.Timeout <= 0 || c.RenderTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// EffectiveRenderConcurrency returns the headless-render cap.
// The render path must stay strictly narrower than the worker pool so a
// burst of JS-heavy pages cannot hold every worker on a browser context.
func (c *Config) EffectiveRenderConcurrency() int {
	if c.RenderConcurrency > 0 {
		return c.RenderConcurrency
	}
	n := c.Concurrency / 2
	if n < 1 {
		n = 1
	}
	return n
}

// EffectiveMaxBodySize returns MaxBodySize or the default when unset.
func (c *Config) EffectiveMaxBodySize() int64 {
	if c.MaxBodySize > 0 {
		return c.MaxBodySize
	}
	return DefaultMaxBodySize
}

// EffectiveBatchSize returns BatchSize or the default when unset.
func (c *Config) EffectiveBatchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}
