// Package extractor parses fetched HTML into a normalized content record:
// title, SEO meta tags, headings, plain text, outbound links with position
// hints, and image references. Extraction is best-effort: malformed HTML
// degrades to a partial record, never to a page failure.
package extractor
