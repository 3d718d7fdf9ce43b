package model

import "testing"

// TestSeverityString tests human-readable severity output.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityInfo, "INFO"},
		{SeverityWarning, "WARNING"},
		{SeverityError, "ERROR"},
		{SeverityCritical, "CRITICAL"},
		{Severity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := tt.severity.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestParseSeverity tests round-tripping stored severity strings.
func TestParseSeverity(t *testing.T) {
	t.Parallel()

	for _, s := range []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityCritical} {
		s := s
		if got := ParseSeverity(s.String()); got != s {
			t.Errorf("ParseSeverity(%q) = %v, want %v", s.String(), got, s)
		}
	}

	if got := ParseSeverity("bogus"); got != SeverityInfo {
		t.Errorf("ParseSeverity(bogus) = %v, want SeverityInfo", got)
	}
}

// TestSeverityOrdering tests that severities sort by impact.
func TestSeverityOrdering(t *testing.T) {
	t.Parallel()

	if !(SeverityInfo < SeverityWarning && SeverityWarning < SeverityError && SeverityError < SeverityCritical) {
		t.Error("severity constants are not ordered by impact")
	}
}
