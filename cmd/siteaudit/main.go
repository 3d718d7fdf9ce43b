// Package main provides the entry point for the siteaudit CLI.
//
// siteaudit is an SEO auditing tool for websites. It crawls a site
// breadth-first, checks every page against a set of SEO rules, and
// reports broken links, duplicate content, and metadata problems.
//
// Usage:
//
//	siteaudit audit <url>
//	siteaudit issues <crawl-id>
//
// See --help for all available options.
package main

// main is the entry point for siteaudit.
func main() {
	Execute()
}
