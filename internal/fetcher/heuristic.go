package fetcher

import "strings"

// renderBodyThreshold is the body size below which an HTML response is
// assumed to be a JavaScript shell rather than a complete document.
const renderBodyThreshold = 1000

// minStructuralTags is the minimum count of content-bearing tags a
// server-rendered page is expected to contain.
const minStructuralTags = 5

// jsFrameworkMarkers are substrings that indicate a client-rendered app.
var jsFrameworkMarkers = []string{
	"vue", "react", "angular", "ember", "backbone",
	"data-reactroot", "ng-app", "v-app",
}

// structuralTags are the tags counted for the completeness check.
var structuralTags = []string{"<p", "<div", "<section", "<article"}

// NeedsRender reports whether a plain-fetched HTML body looks incomplete
// enough to warrant a headless render: very short bodies, JS-framework
// markers, or too few structural tags.
func NeedsRender(contentType, body string) bool {
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return false
	}

	if len(body) < renderBodyThreshold {
		return true
	}

	lower := strings.ToLower(body)
	for _, marker := range jsFrameworkMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	tags := 0
	for _, tag := range structuralTags {
		tags += strings.Count(lower, tag)
	}
	return tags < minStructuralTags
}
