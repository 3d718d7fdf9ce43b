package model

import "testing"

// TestLinkRecordSetStatus tests broken-flag derivation from liveness checks.
func TestLinkRecordSetStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		code       int
		wantBroken bool
	}{
		{"200 ok", 200, false},
		{"301 redirect", 301, false},
		{"404 not found", 404, true},
		{"500 server error", 500, true},
		{"transport failure", 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := NewLinkRecord("crawl-1", "page-1", "https://example.com/", "https://example.com/a")
			if l.StatusCode != nil {
				t.Fatal("expected nil status before a liveness check")
			}
			if l.IsBroken {
				t.Fatal("expected IsBroken false before a liveness check")
			}

			l.SetStatus(tt.code)

			if l.StatusCode == nil || *l.StatusCode != tt.code {
				t.Errorf("expected status %d to be stamped", tt.code)
			}
			if l.IsBroken != tt.wantBroken {
				t.Errorf("IsBroken = %v, want %v", l.IsBroken, tt.wantBroken)
			}
		})
	}
}

// TestNewImageRecord tests alt-text presence detection.
func TestNewImageRecord(t *testing.T) {
	t.Parallel()

	withAlt := NewImageRecord("crawl-1", "page-1", "https://example.com/a.png", "logo")
	if !withAlt.HasAlt {
		t.Error("expected HasAlt true when alt text is present")
	}

	withoutAlt := NewImageRecord("crawl-1", "page-1", "https://example.com/b.png", "")
	if withoutAlt.HasAlt {
		t.Error("expected HasAlt false when alt text is empty")
	}
}

// TestPageRecordIsHTML tests content type matching with charset parameters.
func TestPageRecordIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"application/json", false},
		{"image/png", false},
		{"", false},
	}

	for _, tt := range tests {
		tt := tt
		p := NewPageRecord("crawl-1", "https://example.com/", 0)
		p.ContentType = tt.contentType
		if got := p.IsHTML(); got != tt.want {
			t.Errorf("IsHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
