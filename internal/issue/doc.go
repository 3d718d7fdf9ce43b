// Package issue derives severity-tagged SEO findings from crawl data.
// Rules are declarative: each issue type maps to a severity and a
// recommendation in a single table, and every finding carries a message
// and a pointer to the offending page or link. Page-scoped rules run
// incrementally as pages are fetched; site-wide rules (duplicates,
// orphans, broken links) run once over the accumulated record set.
package issue
