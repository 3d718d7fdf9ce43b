// Package model defines the data structures shared across the siteaudit
// crawl engine: the Crawl lifecycle state machine, fetched page records,
// discovered link and image records, and severity-tagged SEO issues.
package model
