package policy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsTTL is how long a fetched robots.txt stays cached per host.
// Sites rarely change their rules mid-crawl; re-fetching per request
// would double the traffic the limiter is trying to keep polite.
const robotsTTL = 30 * time.Minute

// robotsEntry is one cached robots.txt parse result.
type robotsEntry struct {
	group    *robotstxt.Group
	sitemaps []string
	fetched  time.Time
}

// RobotsAgent fetches, caches, and evaluates robots.txt rules per host.
//
// The agent fails open: when robots.txt cannot be fetched or parsed, the
// URL is allowed. A site that cannot serve its robots file should not make
// the whole audit silently skip it.
type RobotsAgent struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*robotsEntry
}

// NewRobotsAgent creates a robots.txt agent using the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewRobotsAgent(client *http.Client, userAgent string, logger *slog.Logger) *RobotsAgent {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsAgent{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
		cache:     make(map[string]*robotsEntry),
	}
}

// Allowed reports whether the agent's user agent may fetch the URL
// according to the host's robots.txt.
func (a *RobotsAgent) Allowed(ctx context.Context, u *url.URL) bool {
	entry := a.entry(ctx, u)
	if entry == nil || entry.group == nil {
		return true
	}
	return entry.group.Test(u.Path)
}

// Sitemaps returns the sitemap URLs advertised by the host's robots.txt.
func (a *RobotsAgent) Sitemaps(ctx context.Context, u *url.URL) []string {
	entry := a.entry(ctx, u)
	if entry == nil {
		return nil
	}
	return entry.sitemaps
}

// entry returns the cached robots entry for the URL's host, fetching and
// parsing robots.txt on a cache miss or after the TTL expires.
func (a *RobotsAgent) entry(ctx context.Context, u *url.URL) *robotsEntry {
	key := u.Scheme + "://" + u.Host

	a.mu.RLock()
	cached, ok := a.cache[key]
	a.mu.RUnlock()
	if ok && time.Since(cached.fetched) < robotsTTL {
		return cached
	}

	entry := a.fetch(ctx, u.Scheme, u.Host)

	a.mu.Lock()
	a.cache[key] = entry
	a.mu.Unlock()

	return entry
}

// fetch retrieves and parses robots.txt for one host.
// Any failure yields a nil-group entry, which Allowed treats as allow-all.
func (a *RobotsAgent) fetch(ctx context.Context, scheme, host string) *robotsEntry {
	entry := &robotsEntry{fetched: time.Now()}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return entry
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Debug("robots.txt fetch failed", "host", host, "error", err)
		return entry
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return entry
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		a.logger.Debug("robots.txt parse failed", "host", host, "error", err)
		return entry
	}

	group := data.FindGroup(a.userAgent)
	if group == nil {
		group = data.FindGroup("*")
	}
	entry.group = group
	entry.sitemaps = data.Sitemaps
	return entry
}
