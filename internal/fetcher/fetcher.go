package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/nao1215/siteaudit/internal/config"
	"github.com/nao1215/siteaudit/internal/model"
)

// maxRedirects bounds redirect chains. Ten hops matches common browser
// behavior; anything longer is a misconfiguration worth surfacing.
const maxRedirects = 10

// retryBackoff is the pause before the single transport retry.
const retryBackoff = 2 * time.Second

// ErrTooManyRedirects marks a redirect chain past maxRedirects.
var ErrTooManyRedirects = errors.New("stopped after too many redirects")

// Renderer loads a page in a headless browser and returns the rendered
// HTML. It is treated as an opaque, possibly slow, possibly failing
// collaborator; render errors fall back to the plain-fetch body.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Fetcher retrieves URLs via plain HTTP with optional headless rendering.
// All methods are safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	renderer    Renderer
	renderSem   *semaphore.Weighted
	mode        config.RenderMode
	userAgent   string
	maxBodySize int64
	timeout     time.Duration
	logger      *slog.Logger
}

// New creates a Fetcher from the crawl configuration.
// renderer may be nil, which forces RenderOff regardless of the mode.
func New(cfg *config.Config, renderer Renderer, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}

	mode := cfg.Render
	if renderer == nil {
		mode = config.RenderOff
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}

	return &Fetcher{
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		renderer:    renderer,
		renderSem:   semaphore.NewWeighted(int64(cfg.EffectiveRenderConcurrency())),
		mode:        mode,
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.EffectiveMaxBodySize(),
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Fetch retrieves one URL. The plain HTTP path always runs first so the
// status code and headers come from a real HTTP exchange; the rendered
// body replaces the plain body when the render mode calls for it.
// Transport failures are retried once with backoff before being returned
// as a Failure variant. Fetch never returns an error: every outcome,
// including cancellation, is a Result.
func (f *Fetcher) Fetch(ctx context.Context, url string) *Result {
	result := f.fetchHTTP(ctx, url)
	if !result.OK() {
		if result.Failure.Class == FailCancelled || !sleepCtx(ctx, retryBackoff) {
			return result
		}
		f.logger.Debug("retrying fetch after transport failure",
			"url", url, "class", result.Failure.Class)
		result = f.fetchHTTP(ctx, url)
		if !result.OK() {
			return result
		}
	}

	if result.IsHTML() && f.shouldRender(result) {
		f.render(ctx, result)
	}
	return result
}

// Check performs a liveness check: a rate-limited HEAD request, falling
// back to GET for servers that reject HEAD. The body is discarded. It
// returns the observed status code and latency; status 0 means the
// target was unreachable.
func (f *Fetcher) Check(ctx context.Context, url string) (int, time.Duration) {
	start := time.Now()
	if err := f.limiter.Wait(ctx); err != nil {
		return 0, time.Since(start)
	}

	status, err := f.doBodiless(ctx, http.MethodHead, url)
	if err == nil && status != http.StatusMethodNotAllowed && status != http.StatusNotImplemented {
		return status, time.Since(start)
	}

	status, err = f.doBodiless(ctx, http.MethodGet, url)
	if err != nil {
		return 0, time.Since(start)
	}
	return status, time.Since(start)
}

// fetchHTTP runs one plain HTTP fetch attempt.
func (f *Fetcher) fetchHTTP(ctx context.Context, url string) *Result {
	result := &Result{URL: url, FinalURL: url, Method: model.FetchMethodHTTP}

	start := time.Now()
	defer func() {
		result.Latency = time.Since(start)
	}()

	if err := f.limiter.Wait(ctx); err != nil {
		result.Failure = &Failure{Class: FailCancelled, Message: err.Error()}
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Failure = &Failure{Class: FailConnection, Message: err.Error()}
		return result
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		result.Failure = classify(err)
		return result
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	result.StatusCode = resp.StatusCode
	result.FinalURL = resp.Request.URL.String()
	result.ContentType = resp.Header.Get("Content-Type")

	body, err := f.readBody(resp)
	if err != nil {
		// A truncated body is still worth extracting from.
		f.logger.Debug("body read incomplete", "url", url, "error", err)
	}
	result.Body = body
	result.BodySize = int64(len(body))
	return result
}

// doBodiless issues a request and discards the response body.
func (f *Fetcher) doBodiless(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}

// shouldRender decides whether the rendered path should replace the body.
func (f *Fetcher) shouldRender(result *Result) bool {
	switch f.mode {
	case config.RenderForce:
		return true
	case config.RenderAuto:
		return NeedsRender(result.ContentType, result.Body)
	default:
		return false
	}
}

// render loads the page in the headless browser and swaps the body in.
// The semaphore keeps rendering strictly narrower than the worker pool.
// Render failures keep the plain-fetch body; the page is still audited.
func (f *Fetcher) render(ctx context.Context, result *Result) {
	if err := f.renderSem.Acquire(ctx, 1); err != nil {
		return
	}
	defer f.renderSem.Release(1)

	if err := f.limiter.Wait(ctx); err != nil {
		return
	}

	html, err := f.renderer.Render(ctx, result.FinalURL)
	if err != nil {
		f.logger.Warn("headless render failed, keeping plain body",
			"url", result.FinalURL, "error", err)
		return
	}
	if int64(len(html)) > f.maxBodySize {
		html = html[:f.maxBodySize]
	}
	result.Body = html
	result.BodySize = int64(len(html))
	result.Method = model.FetchMethodRender
}

// readBody decodes and reads the response body up to the size cap.
func (f *Fetcher) readBody(resp *http.Response) (string, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", err
		}
		defer func() {
			_ = gz.Close()
		}()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer func() {
			_ = fl.Close()
		}()
		reader = fl
	}

	data, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize))
	return string(data), err
}

// classify maps a transport error to a failure variant.
func classify(err error) *Failure {
	msg := err.Error()

	if errors.Is(err, context.Canceled) {
		return &Failure{Class: FailCancelled, Message: msg}
	}
	if errors.Is(err, ErrTooManyRedirects) || strings.Contains(msg, ErrTooManyRedirects.Error()) {
		return &Failure{Class: FailTooManyRedirects, Message: msg}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Failure{Class: FailDNS, Message: msg}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Class: FailTimeout, Message: msg}
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "Client.Timeout") {
		return &Failure{Class: FailTimeout, Message: msg}
	}

	return &Failure{Class: FailConnection, Message: msg}
}

// sleepCtx sleeps for d unless the context is cancelled first.
// It reports whether the full sleep completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
