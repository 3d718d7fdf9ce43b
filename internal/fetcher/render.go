package fetcher

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromedpRenderer renders pages in a headless Chrome instance.
// Each Render call gets its own browser context; the Fetcher's semaphore
// bounds how many run at once.
type ChromedpRenderer struct {
	timeout   time.Duration
	userAgent string
}

// NewChromedpRenderer creates a renderer with the given per-page timeout.
func NewChromedpRenderer(timeout time.Duration, userAgent string) *ChromedpRenderer {
	return &ChromedpRenderer{timeout: timeout, userAgent: userAgent}
}

// Render loads the URL, waits for the document to settle, and returns the
// rendered outer HTML.
func (r *ChromedpRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(r.userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	runCtx, cancelRun := context.WithTimeout(taskCtx, r.timeout)
	defer cancelRun()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
