package crawler

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams lists query parameters that never change page content.
// Stripping them keeps campaign-tagged and untagged URLs from being
// crawled twice.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"fbclid":       true,
	"gclid":        true,
}

// Canonicalize rewrites a URL into the single form used for frontier and
// visited-set membership: lowercase scheme and host, fragment removed,
// default ports removed, tracking parameters stripped, remaining query
// parameters sorted, and the trailing slash removed except on the root
// path. Two URLs that canonicalize identically are the same page to the
// crawler.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if (u.Scheme == "http" && u.Port() == "80") ||
		(u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}

	if u.Path == "" {
		u.Path = "/"
	} else if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	u.RawQuery = canonicalQuery(u.Query())

	return u.String(), nil
}

// canonicalQuery drops tracking parameters and re-encodes the rest in
// sorted key order so parameter order never splits the visited set.
func canonicalQuery(values url.Values) string {
	for param := range values {
		if trackingParams[strings.ToLower(param)] {
			delete(values, param)
		}
	}
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
