package extractor

import (
	"net/url"
	"strings"
	"testing"

	"github.com/nao1215/siteaudit/internal/model"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>  Acme   Widgets </title>
  <meta name="description" content="Widgets for every occasion.">
  <meta name="robots" content="index, follow">
  <link rel="canonical" href="/widgets">
</head>
<body>
  <header>
    <nav><a href="/about">About us</a></nav>
  </header>
  <h1>Acme Widgets</h1>
  <h2>Our catalogue</h2>
  <h2>Why widgets</h2>
  <p>We sell the finest widgets in the land.</p>
  <a href="/catalogue" rel="nofollow">Catalogue</a>
  <a href="https://partner.example.org/deal">Partner deal</a>
  <a href="#top">Back to top</a>
  <img src="/img/widget.png" alt="A widget" width="640" height="480">
  <img src="/img/banner.png">
  <script>console.log("should not appear in text");</script>
  <footer><a href="/privacy">Privacy</a></footer>
</body>
</html>`

func baseURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://example.com/index.html")
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// TestExtract tests the full extraction of a representative page.
func TestExtract(t *testing.T) {
	t.Parallel()

	content, err := Extract(samplePage, baseURL(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if content.Title != "Acme Widgets" {
		t.Errorf("title = %q", content.Title)
	}
	if content.MetaDescription != "Widgets for every occasion." {
		t.Errorf("meta description = %q", content.MetaDescription)
	}
	if content.Canonical != "https://example.com/widgets" {
		t.Errorf("canonical = %q", content.Canonical)
	}
	if !content.Indexable {
		t.Error("expected page to be indexable")
	}
	if len(content.H1) != 1 || content.H1[0] != "Acme Widgets" {
		t.Errorf("h1 = %v", content.H1)
	}
	if len(content.H2) != 2 {
		t.Errorf("expected 2 h2 headings, got %v", content.H2)
	}
	if strings.Contains(content.Text, "should not appear") {
		t.Error("script text leaked into normalized text")
	}
	if content.WordCount == 0 {
		t.Error("expected non-zero word count")
	}

	// The pure-fragment anchor is dropped; the rest resolve absolute.
	if len(content.Links) != 4 {
		t.Fatalf("expected 4 links, got %d: %+v", len(content.Links), content.Links)
	}

	byTarget := make(map[string]Link, len(content.Links))
	for _, l := range content.Links {
		byTarget[l.URL] = l
	}

	about, ok := byTarget["https://example.com/about"]
	if !ok {
		t.Fatal("missing /about link")
	}
	if about.Position != model.PositionNav {
		t.Errorf("about link position = %s, want nav", about.Position)
	}
	if about.AnchorText != "About us" {
		t.Errorf("about anchor text = %q", about.AnchorText)
	}

	catalogue := byTarget["https://example.com/catalogue"]
	if !catalogue.NoFollow {
		t.Error("expected catalogue link to be nofollow")
	}
	if catalogue.Position != model.PositionContent {
		t.Errorf("catalogue position = %s, want content", catalogue.Position)
	}

	privacy := byTarget["https://example.com/privacy"]
	if privacy.Position != model.PositionFooter {
		t.Errorf("privacy position = %s, want footer", privacy.Position)
	}

	if _, ok := byTarget["https://partner.example.org/deal"]; !ok {
		t.Error("missing external partner link")
	}

	if len(content.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(content.Images))
	}
	widget := content.Images[0]
	if widget.Src != "https://example.com/img/widget.png" {
		t.Errorf("image src = %q", widget.Src)
	}
	if widget.Alt != "A widget" || widget.Width != 640 || widget.Height != 480 {
		t.Errorf("image attrs = %+v", widget)
	}
	if content.Images[1].Alt != "" {
		t.Errorf("expected empty alt on second image, got %q", content.Images[1].Alt)
	}
}

// TestExtractNoindex tests meta robots handling.
func TestExtractNoindex(t *testing.T) {
	t.Parallel()

	content, err := Extract(`<html><head><meta name="robots" content="NOINDEX, nofollow"></head><body></body></html>`, baseURL(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Indexable {
		t.Error("expected noindex page to be non-indexable")
	}
}

// TestExtractMalformed tests graceful degradation on broken HTML.
func TestExtractMalformed(t *testing.T) {
	t.Parallel()

	content, err := Extract(`<html><body><p>unclosed <a href="/x">link`, baseURL(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(content.Links) != 1 {
		t.Errorf("expected 1 link from malformed html, got %d", len(content.Links))
	}
	if content.Title != "" {
		t.Errorf("expected empty title, got %q", content.Title)
	}
}

// TestExtractNormalizedTextStable tests that markup churn does not change
// the text used for fingerprinting.
func TestExtractNormalizedTextStable(t *testing.T) {
	t.Parallel()

	a, err := Extract(`<html><body><p>hello   world</p></body></html>`, baseURL(t))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Extract("<html><body>\n\t<div><p>hello world</p></div>\n</body></html>", baseURL(t))
	if err != nil {
		t.Fatal(err)
	}

	if a.Text != b.Text {
		t.Errorf("normalized text differs: %q vs %q", a.Text, b.Text)
	}
	if Fingerprint(a.Text) != Fingerprint(b.Text) {
		t.Error("fingerprints differ for identical normalized text")
	}
}

// TestFingerprint tests fingerprint basics.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	if Fingerprint("") != "" {
		t.Error("expected empty fingerprint for empty text")
	}
	if Fingerprint("a") == Fingerprint("b") {
		t.Error("expected distinct fingerprints for distinct text")
	}
	if len(Fingerprint("a")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(Fingerprint("a")))
	}
}
