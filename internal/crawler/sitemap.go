package crawler

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"
)

// maxSitemapURLs caps how many URLs a single sitemap contributes. The
// page budget still bounds the crawl; this only keeps a huge sitemap
// from bloating the frontier.
const maxSitemapURLs = 5000

// sitemapURLSet is the <urlset> document of the sitemap protocol.
type sitemapURLSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// sitemapIndex is the <sitemapindex> document pointing at child sitemaps.
type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// SitemapSource lists the sitemap URLs a host advertises.
// *policy.RobotsAgent implements it.
type SitemapSource interface {
	Sitemaps(ctx context.Context, u *url.URL) []string
}

// sitemapSeeds fetches the sitemaps advertised in robots.txt and returns
// the page URLs they list, canonicalized. Sitemap indexes are followed
// one level deep. Errors are logged and skipped; a broken sitemap never
// fails the crawl.
func (o *Orchestrator) sitemapSeeds(ctx context.Context, seed *url.URL) []string {
	if o.sitemaps == nil {
		return nil
	}

	var seeds []string
	for _, sm := range o.sitemaps.Sitemaps(ctx, seed) {
		seeds = append(seeds, o.fetchSitemap(ctx, sm, true)...)
		if len(seeds) >= maxSitemapURLs {
			break
		}
	}
	if len(seeds) > maxSitemapURLs {
		seeds = seeds[:maxSitemapURLs]
	}
	return seeds
}

// fetchSitemap retrieves and parses one sitemap document.
func (o *Orchestrator) fetchSitemap(ctx context.Context, sitemapURL string, followIndex bool) []string {
	result := o.fetcher.Fetch(ctx, sitemapURL)
	if !result.OK() || result.StatusCode >= 400 {
		o.logger.Debug("sitemap fetch failed", "url", sitemapURL)
		return nil
	}

	body := []byte(result.Body)

	// A sitemap index points at child sitemaps instead of pages.
	if strings.Contains(result.Body, "<sitemapindex") {
		if !followIndex {
			return nil
		}
		var index sitemapIndex
		if err := xml.Unmarshal(body, &index); err != nil {
			o.logger.Debug("sitemap index parse failed", "url", sitemapURL, "error", err)
			return nil
		}
		var urls []string
		for _, child := range index.Sitemaps {
			urls = append(urls, o.fetchSitemap(ctx, strings.TrimSpace(child.Loc), false)...)
			if len(urls) >= maxSitemapURLs {
				break
			}
		}
		return urls
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err != nil {
		o.logger.Debug("sitemap parse failed", "url", sitemapURL, "error", err)
		return nil
	}

	urls := make([]string, 0, len(set.URLs))
	for _, entry := range set.URLs {
		canonical, err := Canonicalize(strings.TrimSpace(entry.Loc))
		if err != nil {
			continue
		}
		urls = append(urls, canonical)
	}
	return urls
}
