// Package fetcher retrieves page content for the crawl engine.
// It prefers a plain HTTP fetch and escalates to a headless-browser render
// when the page looks JavaScript-dependent. Remote failures are returned
// as result variants with a failure classification, never as errors, so
// the crawl loop always proceeds to the next URL. A global token-bucket
// rate limiter gates every outbound request, including liveness checks.
package fetcher
