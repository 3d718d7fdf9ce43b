package policy

import (
	"context"
	"net/url"
	"path"
	"strings"
)

// DenyReason is the categorical reason a URL was not followed.
// Reasons are recorded on the LinkRecord so link-graph analytics can
// distinguish "recorded but not followed" edges from followed ones.
type DenyReason string

const (
	// DenyScheme rejects non-http(s) URLs (mailto:, javascript:, ftp:, ...).
	DenyScheme DenyReason = "scheme"

	// DenySkippedExtension rejects binary and asset URLs by file extension.
	DenySkippedExtension DenyReason = "skipped_extension"

	// DenyRobots rejects URLs disallowed by the host's robots.txt.
	DenyRobots DenyReason = "robots_txt"

	// Categorical blacklist reasons.
	DenySocialMedia    DenyReason = "social_media"
	DenyAnalytics      DenyReason = "analytics"
	DenyAds            DenyReason = "ads"
	DenyCDN            DenyReason = "cdn"
	DenyAuthentication DenyReason = "authentication"
	DenySearchEngine   DenyReason = "search_engine"
	DenyEcommerce      DenyReason = "ecommerce"
	DenyFileSharing    DenyReason = "file_sharing"
	DenyAdultContent   DenyReason = "adult_content"

	// DenyExternalDisabled rejects off-site URLs when external following is off.
	DenyExternalDisabled DenyReason = "external_disabled"

	// DenyExternalQuota rejects off-site URLs once the distinct external
	// host quota is committed.
	DenyExternalQuota DenyReason = "external_quota"

	// DenyExternalDepth rejects off-site URLs too many hops past the
	// point where the traversal crossed off the seed host.
	DenyExternalDepth DenyReason = "external_depth"
)

// Decision is the outcome of a policy check.
type Decision struct {
	// Allowed reports whether the URL may be fetched.
	Allowed bool

	// Reason is the categorical deny reason when Allowed is false.
	Reason DenyReason
}

// allow is the sole allowing decision.
var allow = Decision{Allowed: true}

// deny builds a denying decision with the given reason.
func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// State carries the per-candidate crawl state the external checks need.
// The orchestrator fills it from its quota bookkeeping; the policy itself
// holds no mutable state.
type State struct {
	// ExternalHops is the number of hops since the traversal left the
	// seed host on this path. Zero for URLs reached from an internal page.
	ExternalHops int

	// CommittedExternalHosts is the number of distinct external hosts
	// already fetched (committed against the quota) in this crawl.
	CommittedExternalHosts int

	// HostCommitted reports whether the candidate's host already counts
	// toward the external quota. An already-committed host stays eligible
	// even when the quota is full.
	HostCommitted bool
}

// RobotsChecker evaluates robots.txt rules for a URL.
// *RobotsAgent implements it; tests substitute a fake.
type RobotsChecker interface {
	Allowed(ctx context.Context, u *url.URL) bool
}

// skipExtensions lists path extensions that never lead to auditable pages.
var skipExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".xls": true, ".xlsx": true, ".zip": true, ".rar": true, ".tar": true,
	".gz": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".css": true, ".js": true,
}

// Policy decides whether a URL may be fetched.
// All checks are side-effect free; the only I/O is the robots.txt fetch
// hidden behind the RobotsChecker's cache.
type Policy struct {
	seedHost            string
	respectRobots       bool
	followExternalLinks bool
	maxExternalLinks    int
	externalDepth       int
	robots              RobotsChecker
}

// Options configures a Policy.
type Options struct {
	// SeedHost is the host of the crawl's seed URL.
	SeedHost string

	// RespectRobotsTxt enables the robots.txt check.
	RespectRobotsTxt bool

	// FollowExternalLinks allows fetching off-site URLs at all.
	FollowExternalLinks bool

	// MaxExternalLinks caps distinct external hosts fetched per crawl.
	MaxExternalLinks int

	// ExternalDepth caps hops past the external crossing point.
	ExternalDepth int

	// Robots evaluates robots.txt rules. May be nil when
	// RespectRobotsTxt is false.
	Robots RobotsChecker
}

// New creates a Policy from the given options.
func New(opts Options) *Policy {
	return &Policy{
		seedHost:            normalizeHost(opts.SeedHost),
		respectRobots:       opts.RespectRobotsTxt,
		followExternalLinks: opts.FollowExternalLinks,
		maxExternalLinks:    opts.MaxExternalLinks,
		externalDepth:       opts.ExternalDepth,
		robots:              opts.Robots,
	}
}

// IsExternal reports whether the URL's host differs from the seed host.
// The www prefix is ignored so www.example.com and example.com are one site.
func (p *Policy) IsExternal(u *url.URL) bool {
	return normalizeHost(u.Hostname()) != p.seedHost
}

// Allow checks the URL against every policy rule, in order: scheme, file
// extension, robots.txt, categorical blacklist, external-domain policy.
// The first failing rule determines the deny reason.
func (p *Policy) Allow(ctx context.Context, u *url.URL, state State) Decision {
	if u.Scheme != "http" && u.Scheme != "https" {
		return deny(DenyScheme)
	}

	if skipExtensions[strings.ToLower(path.Ext(u.Path))] {
		return deny(DenySkippedExtension)
	}

	if p.respectRobots && p.robots != nil && !p.robots.Allowed(ctx, u) {
		return deny(DenyRobots)
	}

	if reason := blacklistReason(u.Hostname()); reason != "" {
		return deny(reason)
	}

	if p.IsExternal(u) {
		if !p.followExternalLinks {
			return deny(DenyExternalDisabled)
		}
		if !state.HostCommitted && state.CommittedExternalHosts >= p.maxExternalLinks {
			return deny(DenyExternalQuota)
		}
		if state.ExternalHops > p.externalDepth {
			return deny(DenyExternalDepth)
		}
	}

	return allow
}

// normalizeHost lowercases a host and strips the www prefix.
func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
