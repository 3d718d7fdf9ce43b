// Package crawler drives the breadth-first traversal of a site.
// The Orchestrator owns the crawl lifecycle: it pops canonical URLs from
// the frontier in strict depth order, fetches and extracts each page,
// applies the domain policy to discovered links, registers content
// fingerprints for duplicate detection, and streams records through the
// persistence batcher. Stop and cancel requests are honored cooperatively
// between pages; in-flight fetches finish (stop) or are interrupted
// (cancel).
package crawler
