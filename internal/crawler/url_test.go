package crawler

import "testing"

// TestCanonicalize tests URL normalization for frontier membership.
func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "already canonical",
			in:   "https://example.com/about",
			want: "https://example.com/about",
		},
		{
			name: "uppercase scheme and host",
			in:   "HTTPS://Example.COM/About",
			want: "https://example.com/About",
		},
		{
			name: "fragment stripped",
			in:   "https://example.com/page#section-2",
			want: "https://example.com/page",
		},
		{
			name: "default https port stripped",
			in:   "https://example.com:443/page",
			want: "https://example.com/page",
		},
		{
			name: "default http port stripped",
			in:   "http://example.com:80/page",
			want: "http://example.com/page",
		},
		{
			name: "non-default port kept",
			in:   "https://example.com:8443/page",
			want: "https://example.com:8443/page",
		},
		{
			name: "trailing slash stripped",
			in:   "https://example.com/blog/",
			want: "https://example.com/blog",
		},
		{
			name: "root slash kept",
			in:   "https://example.com/",
			want: "https://example.com/",
		},
		{
			name: "empty path becomes root",
			in:   "https://example.com",
			want: "https://example.com/",
		},
		{
			name: "tracking parameters stripped",
			in:   "https://example.com/page?utm_source=x&utm_medium=y&id=7",
			want: "https://example.com/page?id=7",
		},
		{
			name: "click identifiers stripped",
			in:   "https://example.com/page?fbclid=abc&gclid=def",
			want: "https://example.com/page",
		},
		{
			name: "query parameters sorted",
			in:   "https://example.com/search?z=1&a=2",
			want: "https://example.com/search?a=2&z=1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Canonicalize(tt.in)
			if err != nil {
				t.Fatalf("Canonicalize(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestCanonicalizeEquivalence tests that URL variants of the same page
// canonicalize identically.
func TestCanonicalizeEquivalence(t *testing.T) {
	t.Parallel()

	variants := []string{
		"https://example.com/blog?b=2&a=1",
		"https://example.com/blog/?a=1&b=2",
		"https://Example.com:443/blog?a=1&b=2&utm_campaign=spring",
	}

	first, err := Canonicalize(variants[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range variants[1:] {
		v := v
		got, err := Canonicalize(v)
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Errorf("Canonicalize(%q) = %q, want %q", v, got, first)
		}
	}
}
