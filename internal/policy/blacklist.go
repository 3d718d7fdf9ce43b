package policy

import "strings"

// Blacklist categories. Each category maps to the categorical deny reason
// reported when a URL on one of its domains is rejected.
//
// Design decision: We keep the tables as static package-level maps injected
// into the Policy rather than mutable global state. The categories exist
// because "why was this link not followed" matters for observability; a
// single flat set would lose that.

// socialMediaDomains host infinite user-generated content and rate limits.
var socialMediaDomains = map[string]bool{
	"facebook.com":  true,
	"fb.com":        true,
	"twitter.com":   true,
	"x.com":         true,
	"instagram.com": true,
	"linkedin.com":  true,
	"youtube.com":   true,
	"youtu.be":      true,
	"tiktok.com":    true,
	"pinterest.com": true,
	"snapchat.com":  true,
	"reddit.com":    true,
	"tumblr.com":    true,
	"whatsapp.com":  true,
	"telegram.org":  true,
	"discord.com":   true,
	"twitch.tv":     true,
	"vimeo.com":     true,
	"flickr.com":    true,
}

// analyticsDomains serve tracking beacons, never crawlable content.
var analyticsDomains = map[string]bool{
	"google-analytics.com":  true,
	"googletagmanager.com":  true,
	"doubleclick.net":       true,
	"facebook.net":          true,
	"analytics.google.com":  true,
	"connect.facebook.net":  true,
	"pixel.facebook.com":    true,
	"amplitude.com":         true,
	"segment.com":           true,
	"segment.io":            true,
	"hotjar.com":            true,
	"fullstory.com":         true,
	"mixpanel.com":          true,
	"quantcast.com":         true,
	"scorecardresearch.com": true,
	"chartbeat.com":         true,
}

// adNetworkDomains serve ads and redirect chains.
var adNetworkDomains = map[string]bool{
	"googlesyndication.com": true,
	"googleadservices.com":  true,
	"adroll.com":            true,
	"advertising.com":       true,
	"adsense.google.com":    true,
	"ads.google.com":        true,
	"taboola.com":           true,
	"outbrain.com":          true,
	"criteo.com":            true,
	"adform.com":            true,
	"openx.net":             true,
	"rubiconproject.com":    true,
	"pubmatic.com":          true,
}

// cdnDomains serve static assets, not pages worth auditing.
var cdnDomains = map[string]bool{
	"cloudflare.com":        true,
	"cloudfront.net":        true,
	"akamai.net":            true,
	"fastly.net":            true,
	"jsdelivr.net":          true,
	"unpkg.com":             true,
	"cdnjs.cloudflare.com":  true,
	"fonts.googleapis.com":  true,
	"fonts.gstatic.com":     true,
}

// authDomains require credentials to see anything.
var authDomains = map[string]bool{
	"accounts.google.com":       true,
	"login.microsoftonline.com": true,
	"id.apple.com":              true,
	"auth.amazon.com":           true,
}

// searchEngineDomains produce infinite result pages.
var searchEngineDomains = map[string]bool{
	"duckduckgo.com": true,
	"baidu.com":      true,
	"yandex.com":     true,
	"ask.com":        true,
}

// ecommerceDomains host infinite product listings.
var ecommerceDomains = map[string]bool{
	"amazon.com":     true,
	"ebay.com":       true,
	"alibaba.com":    true,
	"aliexpress.com": true,
	"walmart.com":    true,
	"target.com":     true,
	"shopify.com":    true,
}

// fileSharingDomains require authentication and serve large files.
var fileSharingDomains = map[string]bool{
	"drive.google.com": true,
	"dropbox.com":      true,
	"onedrive.live.com": true,
	"box.com":          true,
	"mega.nz":          true,
	"mediafire.com":    true,
	"wetransfer.com":   true,
}

// adultContentDomains are excluded from business crawling.
var adultContentDomains = map[string]bool{
	"pornhub.com":       true,
	"xvideos.com":       true,
	"xnxx.com":          true,
	"redtube.com":       true,
	"youporn.com":       true,
	"xhamster.com":      true,
	"onlyfans.com":      true,
	"chaturbate.com":    true,
	"stripchat.com":     true,
	"livejasmin.com":    true,
	"myfreecams.com":    true,
	"adultfriendfinder.com": true,
}

// blacklistCategory pairs a domain table with its categorical deny reason.
type blacklistCategory struct {
	reason  DenyReason
	domains map[string]bool
}

// blacklistCategories is checked in order; the first match wins.
var blacklistCategories = []blacklistCategory{
	{DenySocialMedia, socialMediaDomains},
	{DenyAnalytics, analyticsDomains},
	{DenyAds, adNetworkDomains},
	{DenyCDN, cdnDomains},
	{DenyAuthentication, authDomains},
	{DenySearchEngine, searchEngineDomains},
	{DenyEcommerce, ecommerceDomains},
	{DenyFileSharing, fileSharingDomains},
	{DenyAdultContent, adultContentDomains},
}

// blacklistReason returns the categorical reason for a blacklisted host,
// or empty when the host is not blacklisted. Subdomains match their parent
// domain, so "m.facebook.com" is rejected alongside "facebook.com".
func blacklistReason(host string) DenyReason {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")

	for _, cat := range blacklistCategories {
		if cat.domains[host] {
			return cat.reason
		}
		for domain := range cat.domains {
			if strings.HasSuffix(host, "."+domain) {
				return cat.reason
			}
		}
	}
	return ""
}
