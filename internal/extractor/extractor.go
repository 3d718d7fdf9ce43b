package extractor

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/siteaudit/internal/model"
)

// MaxExcerptLength bounds the stored text excerpt.
const MaxExcerptLength = 1000

// Link is one outbound link discovered on a page.
type Link struct {
	// URL is the resolved absolute target URL.
	URL string

	// AnchorText is the link's visible text, whitespace-collapsed.
	AnchorText string

	// NoFollow is true when rel contains nofollow.
	NoFollow bool

	// Position is a coarse document-position hint (nav/content/footer).
	Position model.LinkPosition
}

// Image is one image reference discovered on a page.
type Image struct {
	// Src is the resolved absolute image URL.
	Src string

	// Alt is the alt attribute text.
	Alt string

	// Width and Height come from the width/height attributes when present.
	Width  int
	Height int
}

// Content is the normalized extraction result for one HTML document.
type Content struct {
	// Title is the <title> text.
	Title string

	// MetaDescription is the meta description content.
	MetaDescription string

	// Canonical is the href of the rel=canonical link, resolved absolute.
	Canonical string

	// Indexable is false when meta robots contains noindex.
	Indexable bool

	// H1 and H2 hold heading texts in document order.
	H1 []string
	H2 []string

	// Text is the normalized plain-text body: script, style, and template
	// elements stripped, whitespace collapsed to single spaces.
	Text string

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int

	// Links are the outbound anchors with resolved absolute URLs.
	Links []Link

	// Images are the image references with resolved absolute sources.
	Images []Image
}

// Excerpt returns a bounded prefix of the normalized text.
func (c *Content) Excerpt() string {
	if len(c.Text) <= MaxExcerptLength {
		return c.Text
	}
	return c.Text[:MaxExcerptLength]
}

// Extract parses an HTML document into normalized content.
// base resolves relative URLs; it should be the page's final URL after
// redirects. Malformed HTML never fails: goquery parses what it can and
// missing elements simply leave their fields empty.
func Extract(htmlBody string, base *url.URL) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return &Content{Indexable: true}, err
	}

	content := &Content{
		Title:     collapseWhitespace(doc.Find("title").First().Text()),
		Indexable: true,
	}

	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		content.MetaDescription = strings.TrimSpace(desc)
	}
	if robots, ok := doc.Find(`meta[name="robots"]`).First().Attr("content"); ok {
		if strings.Contains(strings.ToLower(robots), "noindex") {
			content.Indexable = false
		}
	}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if abs := resolve(base, canonical); abs != "" {
			content.Canonical = abs
		}
	}

	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		if text := collapseWhitespace(s.Text()); text != "" {
			content.H1 = append(content.H1, text)
		}
	})
	doc.Find("h2").Each(func(_ int, s *goquery.Selection) {
		if text := collapseWhitespace(s.Text()); text != "" {
			content.H2 = append(content.H2, text)
		}
	})

	content.Text = normalizeText(doc)
	if content.Text != "" {
		content.WordCount = len(strings.Fields(content.Text))
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := resolve(base, href)
		if abs == "" {
			return
		}
		rel, _ := s.Attr("rel")
		content.Links = append(content.Links, Link{
			URL:        abs,
			AnchorText: collapseWhitespace(s.Text()),
			NoFollow:   strings.Contains(strings.ToLower(rel), "nofollow"),
			Position:   linkPosition(s),
		})
	})

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		abs := resolve(base, src)
		if abs == "" {
			return
		}
		alt, _ := s.Attr("alt")
		img := Image{Src: abs, Alt: strings.TrimSpace(alt)}
		if w, ok := s.Attr("width"); ok {
			img.Width, _ = strconv.Atoi(w)
		}
		if h, ok := s.Attr("height"); ok {
			img.Height, _ = strconv.Atoi(h)
		}
		content.Images = append(content.Images, img)
	})

	return content, nil
}

// normalizeText produces the plain-text body used for word counting and
// content fingerprinting. Non-content elements are removed first so boiler
// code (scripts, inline styles) never pollutes the fingerprint.
func normalizeText(doc *goquery.Document) string {
	sel := doc.Find("body")
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	clone := sel.Clone()
	clone.Find("script, style, noscript, template, iframe").Remove()
	return collapseWhitespace(clone.Text())
}

// linkPosition walks the anchor's ancestors to classify where in the
// document the link sits. The first nav, header, or footer ancestor wins;
// everything else is content.
func linkPosition(s *goquery.Selection) model.LinkPosition {
	if len(s.Nodes) == 0 {
		return model.PositionContent
	}
	for n := s.Nodes[0].Parent; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		switch n.Data {
		case "nav", "header":
			return model.PositionNav
		case "footer":
			return model.PositionFooter
		}
	}
	return model.PositionContent
}

// resolve makes href absolute against base. Pure-fragment and unparseable
// hrefs return empty and are dropped; mailto and javascript pseudo URLs
// resolve as-is so the policy layer can record their denial.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	abs.Fragment = ""
	if abs.String() == "" {
		return ""
	}
	return abs.String()
}

// collapseWhitespace trims and folds all whitespace runs to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
