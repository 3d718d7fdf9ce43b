package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/siteaudit/internal/issue"
	"github.com/nao1215/siteaudit/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and severity indicators.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeStatistics(&sb, report)
	w.writeIssues(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        SITE AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:          %s\n", report.SeedURL))
	if !report.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Crawl Date:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	}
	sb.WriteString(fmt.Sprintf("Pages Crawled: %d\n", report.PagesCrawled))
	sb.WriteString(fmt.Sprintf("Status:        %s\n", statusText(report.Status)))
	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  CRITICAL: %d\n", report.CriticalCount))
	sb.WriteString(fmt.Sprintf("  ERROR:    %d\n", report.ErrorCount))
	sb.WriteString(fmt.Sprintf("  WARNING:  %d\n", report.WarningCount))
	sb.WriteString(fmt.Sprintf("  INFO:     %d\n", report.InfoCount))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:    %d issues\n", report.TotalIssues()))
	sb.WriteString("\n")
}

// writeStatistics writes the crawl statistics section.
func (w *SimpleWriter) writeStatistics(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL STATISTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Links Found:      %d\n", report.LinksFound))
	sb.WriteString(fmt.Sprintf("  Broken Links:     %d\n", report.BrokenLinks))
	sb.WriteString(fmt.Sprintf("  Indexable Pages:  %d\n", report.IndexablePages))
	sb.WriteString(fmt.Sprintf("  Duplicate Pages:  %d\n", report.DuplicatePages))
	sb.WriteString("\n")
}

// writeIssues writes all findings grouped by severity, critical first.
func (w *SimpleWriter) writeIssues(sb *strings.Builder, report *model.AuditReport) {
	if !report.HasIssues() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ISSUES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityError,
		model.SeverityWarning,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		issues := report.IssuesBySeverity(severity)
		if len(issues) == 0 && !w.showEmpty {
			continue
		}
		w.writeIssuesForSeverity(sb, severity, issues)
	}
}

// writeIssuesForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeIssuesForSeverity(sb *strings.Builder, severity model.Severity, issues []*model.Issue) {
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, severity.String()))

	if len(issues) == 0 {
		sb.WriteString("  No issues\n\n")
		return
	}

	for _, finding := range issues {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Message))
		if finding.Context != "" {
			sb.WriteString(fmt.Sprintf("    Location: %s\n", finding.Context))
		}
		if w.verbose {
			if rec := issue.Recommendation(finding.Type); rec != "" {
				sb.WriteString(fmt.Sprintf("    Recommendation: %s\n", rec))
			}
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityError:
		return "!!"
	case model.SeverityWarning:
		return "!"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by siteaudit\n")
	sb.WriteString("https://github.com/nao1215/siteaudit\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// statusText renders a terminal crawl status for report headers.
func statusText(status model.CrawlStatus) string {
	switch status {
	case model.StatusCompleted:
		return "Complete"
	case model.StatusStopped:
		return "STOPPED (partial results)"
	case model.StatusCancelled:
		return "CANCELLED (partial results)"
	case model.StatusFailed:
		return "FAILED"
	default:
		return strings.ToUpper(status.String())
	}
}
