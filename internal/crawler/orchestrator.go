package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/siteaudit/internal/config"
	"github.com/nao1215/siteaudit/internal/extractor"
	"github.com/nao1215/siteaudit/internal/fetcher"
	"github.com/nao1215/siteaudit/internal/issue"
	"github.com/nao1215/siteaudit/internal/model"
	"github.com/nao1215/siteaudit/internal/policy"
	"github.com/nao1215/siteaudit/internal/storage"
)

// PageFetcher retrieves pages and probes link targets.
// *fetcher.Fetcher implements it; tests substitute a fake.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) *fetcher.Result
	Check(ctx context.Context, url string) (int, time.Duration)
}

// Progress is a point-in-time snapshot of a running crawl.
type Progress struct {
	// Status is the crawl's current lifecycle state.
	Status model.CrawlStatus

	// PagesCrawled, LinksFound, and IssuesFound mirror the crawl counters.
	PagesCrawled int
	LinksFound   int
	IssuesFound  int

	// CurrentDepth is the BFS depth of the wave being processed.
	CurrentDepth int

	// QueuedURLs is the number of URLs waiting in the frontier.
	QueuedURLs int
}

// checkResult caches one liveness probe so repeated references to the
// same target (site-wide footer links, shared logos) cost one request.
type checkResult struct {
	status  int
	latency time.Duration
}

// Options configures an Orchestrator.
type Options struct {
	// Config is the validated crawl configuration.
	Config *config.Config

	// Crawl is the pending crawl record this run will own.
	Crawl *model.Crawl

	// Fetcher retrieves pages and runs liveness checks.
	Fetcher PageFetcher

	// Policy decides which discovered URLs may be fetched.
	Policy *policy.Policy

	// Sitemaps lists robots.txt-advertised sitemaps. May be nil.
	Sitemaps SitemapSource

	// Gateway persists crawl status updates.
	Gateway storage.Gateway

	// Batcher buffers and flushes page, link, image, and issue records.
	Batcher *storage.Batcher

	// Logger receives structured progress output. May be nil.
	Logger *slog.Logger
}

// Orchestrator runs one crawl from pending to a terminal status.
//
// The traversal is strict breadth-first: every URL at depth d is fetched
// before any URL at depth d+1, with up to Concurrency pages of one wave
// in flight at a time. Stop and cancel requests are honored between
// pages; Run always drives the crawl to exactly one terminal status.
type Orchestrator struct {
	cfg      *config.Config
	crawl    *model.Crawl
	fetcher  PageFetcher
	policy   *policy.Policy
	sitemaps SitemapSource
	gateway  storage.Gateway
	batch    *storage.Batcher
	detector *issue.Detector
	logger   *slog.Logger

	frontier *Frontier
	dedup    *DedupIndex

	stopRequested   atomic.Bool
	cancelRequested atomic.Bool

	mu           sync.Mutex
	cancelRun    context.CancelFunc
	currentDepth int
	issuesFound  int
	hops         map[string]int         // canonical URL -> hops past the seed host
	committed    map[string]bool        // external hosts counted against the quota
	statusByURL  map[string]int         // canonical fetched URL -> observed status
	checked      map[string]checkResult // probe cache for links and images
	pages        []*model.PageRecord
	links        []*model.LinkRecord
	images       []*model.ImageRecord
	issues       []*model.Issue
}

// New creates an Orchestrator for one crawl run.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:         opts.Config,
		crawl:       opts.Crawl,
		fetcher:     opts.Fetcher,
		policy:      opts.Policy,
		sitemaps:    opts.Sitemaps,
		gateway:     opts.Gateway,
		batch:       opts.Batcher,
		detector:    issue.NewDetector(opts.Crawl.ID),
		logger:      logger,
		frontier:    NewFrontier(),
		dedup:       NewDedupIndex(),
		hops:        make(map[string]int),
		committed:   make(map[string]bool),
		statusByURL: make(map[string]int),
		checked:     make(map[string]checkResult),
	}
}

// Run executes the crawl to completion. It returns an error only for
// failures the caller must act on (invalid state, persistence failure);
// stop, cancel, and external deletion all resolve to a terminal status
// with a nil error.
func (o *Orchestrator) Run(ctx context.Context) error {
	seed, err := Canonicalize(o.cfg.SeedURL)
	if err != nil {
		return fmt.Errorf("seed URL does not parse: %w", err)
	}
	seedURL, err := url.Parse(seed)
	if err != nil {
		return fmt.Errorf("seed URL does not parse: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.mu.Lock()
	o.cancelRun = cancel
	o.mu.Unlock()

	if err := o.start(runCtx); err != nil {
		if errors.Is(err, storage.ErrCrawlDeleted) {
			o.setStatus(model.StatusStopped)
			return nil
		}
		return err
	}

	o.frontier.Push(seed, 0)
	// Sitemap entries go through the same admission rules as discovered
	// links: a sitemap listing a robots-disallowed or blacklisted URL
	// must not smuggle it into the frontier.
	for _, s := range o.sitemapSeeds(runCtx, seedURL) {
		u, err := url.Parse(s)
		if err != nil || o.policy.IsExternal(u) {
			continue
		}
		if o.policy.Allow(runCtx, u, o.policyState(u, 0)).Allowed {
			o.frontier.Push(s, 0)
		}
	}

	return o.finish(ctx, o.crawlLoop(runCtx))
}

// Stop requests a graceful stop: in-flight pages finish, everything
// gathered so far is flushed, and the crawl ends as stopped.
func (o *Orchestrator) Stop() {
	o.stopRequested.Store(true)
}

// Cancel requests an immediate cancel: in-flight fetches are interrupted
// and the crawl ends as cancelled. Already-buffered records still flush.
func (o *Orchestrator) Cancel() {
	o.cancelRequested.Store(true)
	o.mu.Lock()
	cancel := o.cancelRun
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Report builds the audit report from everything the run gathered.
// It is meaningful once Run has returned.
func (o *Orchestrator) Report() *model.AuditReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return model.NewAuditReport(o.crawl, o.pages, o.links, o.issues)
}

// Progress returns a snapshot of the crawl counters.
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Progress{
		Status:       o.crawl.Status,
		PagesCrawled: len(o.pages),
		LinksFound:   len(o.links),
		IssuesFound:  o.issuesFound,
		CurrentDepth: o.currentDepth,
		QueuedURLs:   o.frontier.Len(),
	}
}

// start transitions the crawl to running and persists the change.
func (o *Orchestrator) start(ctx context.Context) error {
	if !o.crawl.Status.CanTransition(model.StatusRunning) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.crawl.Status, model.StatusRunning)
	}
	o.crawl.Status = model.StatusRunning
	o.crawl.StartedAt = time.Now().UTC()

	outcome, err := o.gateway.UpdateCrawl(ctx, o.crawl)
	if outcome == storage.Terminal {
		return storage.ErrCrawlDeleted
	}
	if err != nil {
		return fmt.Errorf("failed to mark crawl running: %w", err)
	}

	o.logger.Info("crawl started",
		"crawl_id", o.crawl.ID, "seed", o.cfg.SeedURL,
		"max_depth", o.cfg.MaxDepth, "max_pages", o.cfg.MaxPages)
	return nil
}

// crawlLoop drains the frontier wave by wave until a budget, a ceiling,
// or an interruption ends the traversal.
func (o *Orchestrator) crawlLoop(ctx context.Context) error {
	for {
		if err := o.interrupted(ctx); err != nil {
			return err
		}

		remaining := o.cfg.MaxPages - len(o.snapshotPages())
		if remaining <= 0 {
			return nil
		}

		depth, wave, ok := o.frontier.NextWave(remaining)
		if !ok || depth > o.cfg.MaxDepth {
			return nil
		}

		o.mu.Lock()
		o.currentDepth = depth
		o.mu.Unlock()
		o.logger.Debug("processing wave", "depth", depth, "urls", len(wave))

		g, waveCtx := errgroup.WithContext(ctx)
		g.SetLimit(o.cfg.Concurrency)
		for _, pageURL := range wave {
			pageURL := pageURL
			g.Go(func() error {
				if err := o.interrupted(waveCtx); err != nil {
					return err
				}
				return o.processPage(waveCtx, pageURL, depth)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if err := o.persistProgress(ctx); err != nil {
			return err
		}
	}
}

// interrupted reports why the crawl should wind down, if it should.
func (o *Orchestrator) interrupted(ctx context.Context) error {
	if o.cancelRequested.Load() {
		return errCancelRequested
	}
	if o.stopRequested.Load() {
		return errStopRequested
	}
	return ctx.Err()
}

// processPage fetches one frontier URL and produces its records.
func (o *Orchestrator) processPage(ctx context.Context, pageURL string, depth int) error {
	result := o.fetcher.Fetch(ctx, pageURL)

	page := model.NewPageRecord(o.crawl.ID, pageURL, depth)
	page.StatusCode = result.StatusCode
	page.FetchMethod = result.Method
	page.LatencyMS = result.Latency.Milliseconds()
	page.ContentType = result.ContentType
	page.PageSize = result.BodySize
	if final, err := Canonicalize(result.FinalURL); err == nil {
		page.FinalURL = final
	}

	var pageImages []*model.ImageRecord

	switch {
	case result.Failure != nil:
		if result.Failure.Class == fetcher.FailCancelled {
			// An interrupted fetch is not an audit result.
			if err := ctx.Err(); err != nil {
				return err
			}
			return context.Canceled
		}
		page.FetchError = string(result.Failure.Class)
		page.Indexable = false
		o.logger.Warn("fetch failed",
			"url", pageURL, "class", result.Failure.Class, "detail", result.Failure.Message)

	case result.StatusCode < 400 && result.IsHTML():
		var err error
		pageImages, err = o.auditContent(ctx, page, result, depth)
		if err != nil {
			return err
		}
	}

	o.recordPage(page)
	if err := o.batch.AddPage(ctx, page); err != nil {
		return err
	}
	for _, finding := range o.detector.PageIssues(page, pageImages) {
		if err := o.addIssue(ctx, finding); err != nil {
			return err
		}
	}
	return nil
}

// auditContent extracts the page body and processes its links and images.
func (o *Orchestrator) auditContent(ctx context.Context, page *model.PageRecord, result *fetcher.Result, depth int) ([]*model.ImageRecord, error) {
	base, err := url.Parse(result.FinalURL)
	if err != nil {
		return nil, nil
	}

	content, err := extractor.Extract(result.Body, base)
	if err != nil {
		o.logger.Warn("extraction failed", "url", page.URL, "error", err)
		return nil, nil
	}

	page.Title = content.Title
	page.MetaDescription = content.MetaDescription
	page.H1 = content.H1
	page.H2 = content.H2
	page.TextExcerpt = content.Excerpt()
	page.WordCount = content.WordCount
	page.Indexable = content.Indexable
	page.ContentHash = extractor.Fingerprint(content.Text)

	// First occurrence of a fingerprint expands the frontier; later ones
	// are persisted as duplicates but their links are not followed.
	_, first := o.dedup.Register(page.ContentHash, page.ID)
	page.Duplicate = !first

	if err := o.handleLinks(ctx, page, content.Links, depth, !first); err != nil {
		return nil, err
	}
	images, err := o.imageRecords(ctx, page, content.Images)
	return images, err
}

// handleLinks records every discovered link and decides which targets
// join the frontier. Policy denials are recorded with their reason and
// never followed; external-policy denials and nofollow links get an
// immediate liveness probe since no page fetch will ever stamp them.
func (o *Orchestrator) handleLinks(ctx context.Context, page *model.PageRecord, links []extractor.Link, depth int, duplicate bool) error {
	pageHops := o.hopsFor(page.URL)

	for _, link := range links {
		target, err := Canonicalize(link.URL)
		if err != nil {
			continue
		}
		targetURL, err := url.Parse(target)
		if err != nil {
			continue
		}

		record := model.NewLinkRecord(o.crawl.ID, page.ID, page.URL, target)
		record.AnchorText = link.AnchorText
		record.NoFollow = link.NoFollow
		record.Position = link.Position
		record.External = o.policy.IsExternal(targetURL)
		if record.External {
			page.ExternalLinks++
		} else {
			page.InternalLinks++
		}

		hops := 0
		if record.External {
			hops = pageHops + 1
		}

		decision := o.policy.Allow(ctx, targetURL, o.policyState(targetURL, hops))
		switch {
		case !decision.Allowed:
			record.DenyReason = string(decision.Reason)
			if isExternalPolicyReason(decision.Reason) {
				o.checkLink(ctx, record)
			}
		case record.NoFollow:
			o.checkLink(ctx, record)
		case duplicate || depth+1 > o.cfg.MaxDepth:
			// Recorded only. If another path fetches the target, the
			// status is resolved at the end of the crawl.
		default:
			if record.External && !o.tryCommitExternal(targetURL) {
				record.DenyReason = string(policy.DenyExternalQuota)
				o.checkLink(ctx, record)
				break
			}
			if o.frontier.Push(target, depth+1) {
				o.noteEnqueued(target, hops)
			}
		}

		o.mu.Lock()
		o.links = append(o.links, record)
		o.mu.Unlock()

		if err := o.batch.AddLink(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// imageRecords records the page's images and probes each distinct source.
func (o *Orchestrator) imageRecords(ctx context.Context, page *model.PageRecord, images []extractor.Image) ([]*model.ImageRecord, error) {
	records := make([]*model.ImageRecord, 0, len(images))
	for _, img := range images {
		record := model.NewImageRecord(o.crawl.ID, page.ID, img.Src, img.Alt)
		record.Width = img.Width
		record.Height = img.Height

		status, _ := o.checkTarget(ctx, img.Src)
		record.IsBroken = status == 0 || status >= 400

		o.mu.Lock()
		o.images = append(o.images, record)
		o.mu.Unlock()
		records = append(records, record)

		if err := o.batch.AddImage(ctx, record); err != nil {
			return records, err
		}
	}
	return records, nil
}

// checkLink probes a link target and stamps the record.
func (o *Orchestrator) checkLink(ctx context.Context, record *model.LinkRecord) {
	status, latency := o.checkTarget(ctx, record.TargetURL)
	record.SetStatus(status)
	record.LatencyMS = latency.Milliseconds()
}

// checkTarget probes a URL once, caching the result for later references.
func (o *Orchestrator) checkTarget(ctx context.Context, target string) (int, time.Duration) {
	o.mu.Lock()
	if cached, ok := o.checked[target]; ok {
		o.mu.Unlock()
		return cached.status, cached.latency
	}
	o.mu.Unlock()

	status, latency := o.fetcher.Check(ctx, target)

	o.mu.Lock()
	o.checked[target] = checkResult{status: status, latency: latency}
	o.mu.Unlock()
	return status, latency
}

// policyState snapshots the quota bookkeeping for one candidate URL.
func (o *Orchestrator) policyState(u *url.URL, hops int) policy.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return policy.State{
		ExternalHops:           hops,
		CommittedExternalHosts: len(o.committed),
		HostCommitted:          o.committed[externalHostKey(u)],
	}
}

// tryCommitExternal commits a host against the external quota before its
// first URL is enqueued. The quota check and the commitment happen under
// one lock hold: two workers racing on the last free slot cannot both
// read the old count and overshoot the cap. An already-committed host
// stays eligible even when the quota is full.
func (o *Orchestrator) tryCommitExternal(u *url.URL) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	host := externalHostKey(u)
	if o.committed[host] {
		return true
	}
	if len(o.committed) >= o.cfg.MaxExternalLinks {
		return false
	}
	o.committed[host] = true
	return true
}

// noteEnqueued records the external hop count a URL was accepted with.
func (o *Orchestrator) noteEnqueued(canonical string, hops int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hops > 0 {
		o.hops[canonical] = hops
	}
}

// hopsFor returns the external hop count a URL was enqueued with.
func (o *Orchestrator) hopsFor(canonical string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hops[canonical]
}

// recordPage stores the page and indexes its observed status under both
// the frontier URL and the post-redirect URL.
func (o *Orchestrator) recordPage(page *model.PageRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pages = append(o.pages, page)
	o.statusByURL[page.URL] = page.StatusCode
	if page.FinalURL != "" && page.FinalURL != page.URL {
		o.statusByURL[page.FinalURL] = page.StatusCode
	}
}

// snapshotPages returns the pages recorded so far.
func (o *Orchestrator) snapshotPages() []*model.PageRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pages
}

// addIssue counts and buffers one finding.
func (o *Orchestrator) addIssue(ctx context.Context, finding *model.Issue) error {
	o.mu.Lock()
	o.issuesFound++
	o.issues = append(o.issues, finding)
	o.mu.Unlock()
	return o.batch.AddIssue(ctx, finding)
}

// persistProgress writes the running counters after each wave. This also
// notices external deletion between waves: zero rows affected means the
// crawl record is gone.
func (o *Orchestrator) persistProgress(ctx context.Context) error {
	o.mu.Lock()
	o.crawl.PagesCrawled = len(o.pages)
	o.crawl.LinksFound = len(o.links)
	o.crawl.IssuesFound = o.issuesFound
	o.mu.Unlock()

	outcome, err := o.gateway.UpdateCrawl(ctx, o.crawl)
	if outcome == storage.Terminal {
		return storage.ErrCrawlDeleted
	}
	if err != nil {
		// A transient progress-write failure does not end the crawl; the
		// batcher's own retry policy guards the record data.
		o.logger.Warn("progress update failed", "error", err)
	}
	return nil
}

// finish resolves outstanding link statuses, runs the site-wide issue
// rules, flushes everything, and drives the crawl to its terminal status.
func (o *Orchestrator) finish(ctx context.Context, runErr error) error {
	// The final flush must survive the cancellation that ended the run.
	flushCtx := context.WithoutCancel(ctx)

	deleted := errors.Is(runErr, storage.ErrCrawlDeleted)
	status, retErr := terminalStatus(runErr)

	if !deleted {
		o.resolveLinkStatuses(flushCtx)
		err := o.siteIssues(flushCtx)
		if err == nil {
			err = o.batch.Flush(flushCtx)
		}
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrCrawlDeleted):
			status, retErr, deleted = model.StatusStopped, nil, true
		default:
			status, retErr = model.StatusFailed, err
		}
	}

	o.setStatus(status)

	// A deleted crawl record has nothing left to update.
	if !deleted {
		if outcome, err := o.gateway.UpdateCrawl(flushCtx, o.crawl); outcome != storage.Terminal && err != nil {
			o.logger.Warn("final status update failed", "error", err)
		}
	}

	o.mu.Lock()
	pages, links, issues := len(o.pages), len(o.links), o.issuesFound
	o.mu.Unlock()
	o.logger.Info("crawl finished",
		"crawl_id", o.crawl.ID, "status", status,
		"pages", pages, "links", links, "issues", issues)
	return retErr
}

// terminalStatus maps the crawl loop's exit condition to a lifecycle state.
func terminalStatus(runErr error) (model.CrawlStatus, error) {
	switch {
	case runErr == nil:
		return model.StatusCompleted, nil
	case errors.Is(runErr, storage.ErrCrawlDeleted):
		return model.StatusStopped, nil
	case errors.Is(runErr, errStopRequested):
		return model.StatusStopped, nil
	case errors.Is(runErr, errCancelRequested),
		errors.Is(runErr, context.Canceled),
		errors.Is(runErr, context.DeadlineExceeded):
		return model.StatusCancelled, nil
	default:
		return model.StatusFailed, runErr
	}
}

// setStatus moves the crawl to a terminal status and stamps the counters.
func (o *Orchestrator) setStatus(status model.CrawlStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.crawl.Status = status
	o.crawl.CompletedAt = time.Now().UTC()
	o.crawl.PagesCrawled = len(o.pages)
	o.crawl.LinksFound = len(o.links)
	o.crawl.IssuesFound = o.issuesFound
}

// resolveLinkStatuses stamps followed links whose targets were fetched.
// Links whose targets never got fetched (budget or depth ceiling) keep a
// nil status: "unknown" and "broken" must stay distinguishable.
func (o *Orchestrator) resolveLinkStatuses(ctx context.Context) {
	o.mu.Lock()
	var resolved []*model.LinkRecord
	for _, link := range o.links {
		if link.StatusCode != nil || link.DenyReason != "" {
			continue
		}
		if status, ok := o.statusByURL[link.TargetURL]; ok {
			link.SetStatus(status)
			resolved = append(resolved, link)
		}
	}
	o.mu.Unlock()

	for _, link := range resolved {
		if err := o.batch.AddLink(ctx, link); err != nil {
			return
		}
	}
}

// siteIssues runs the site-wide rules over the accumulated records.
func (o *Orchestrator) siteIssues(ctx context.Context) error {
	o.mu.Lock()
	pages, links, images := o.pages, o.links, o.images
	o.mu.Unlock()

	for _, finding := range o.detector.CrawlIssues(pages, links, images) {
		if err := o.addIssue(ctx, finding); err != nil {
			return err
		}
	}
	return nil
}

// isExternalPolicyReason reports whether a denial came from the
// external-domain rules rather than robots or the blacklist. Only these
// targets get liveness probes; robots-disallowed and blacklisted hosts
// are never contacted at all.
func isExternalPolicyReason(reason policy.DenyReason) bool {
	switch reason {
	case policy.DenyExternalDisabled, policy.DenyExternalQuota, policy.DenyExternalDepth:
		return true
	default:
		return false
	}
}

// externalHostKey normalizes a host for quota bookkeeping.
func externalHostKey(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
