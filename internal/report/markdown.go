package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/siteaudit/internal/issue"
	"github.com/nao1215/siteaudit/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeStatistics(md, report)
	w.writeIssues(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AuditReport) {
	md.H1("Site Audit Report")
	md.PlainText("")

	crawlDate := "-"
	if !report.StartedAt.IsZero() {
		crawlDate = report.StartedAt.Format("2006-01-02 15:04:05 MST")
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.SeedURL + "`"},
			{"Crawl Date", crawlDate},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the crawl outcome.
func (w *MarkdownWriter) getStatusText(report *model.AuditReport) string {
	switch report.Status {
	case model.StatusCompleted:
		return "✅ Complete"
	case model.StatusStopped:
		return "⚠️ Stopped (partial results)"
	case model.StatusCancelled:
		return "⚠️ Cancelled (partial results)"
	case model.StatusFailed:
		return "❌ Failed"
	default:
		return report.Status.String()
	}
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(report.CriticalCount)},
			{"🟠 Error", strconv.Itoa(report.ErrorCount)},
			{"🟡 Warning", strconv.Itoa(report.WarningCount)},
			{"⚪ Info", strconv.Itoa(report.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(report.TotalIssues()) + "**"},
		},
	})
	md.PlainText("")

	if report.HasIssues() {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.AuditReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Severity Distribution"),
		piechart.WithShowData(true),
	)

	if report.CriticalCount > 0 {
		chart.LabelAndIntValue("Critical", uint64(report.CriticalCount))
	}
	if report.ErrorCount > 0 {
		chart.LabelAndIntValue("Error", uint64(report.ErrorCount))
	}
	if report.WarningCount > 0 {
		chart.LabelAndIntValue("Warning", uint64(report.WarningCount))
	}
	if report.InfoCount > 0 {
		chart.LabelAndIntValue("Info", uint64(report.InfoCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.AuditReport) {
	switch {
	case report.CriticalCount > 0:
		md.Cautionf(
			"Critical SEO issues detected! %d critical issue(s) can remove pages from search results.",
			report.CriticalCount,
		)
	case report.ErrorCount > 0:
		md.Warningf(
			"SEO errors detected. %d issue(s) are actively harming the site.",
			report.ErrorCount,
		)
	case report.WarningCount > 0:
		md.Importantf(
			"SEO warnings found. %d issue(s) may degrade search ranking.",
			report.WarningCount,
		)
	case report.TotalIssues() > 0:
		md.Note("Only informational findings detected.")
	default:
		md.Tip("No SEO issues detected.")
	}
	md.PlainText("")
}

// writeStatistics writes the crawl statistics section.
func (w *MarkdownWriter) writeStatistics(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Crawl Statistics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Links Found", strconv.Itoa(report.LinksFound)},
			{"Broken Links", strconv.Itoa(report.BrokenLinks)},
			{"Indexable Pages", strconv.Itoa(report.IndexablePages)},
			{"Duplicate Pages", strconv.Itoa(report.DuplicatePages)},
		},
	})
	md.PlainText("")
}

// writeIssues writes all findings grouped by severity.
func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Issues")
	md.PlainText("")

	if !report.HasIssues() {
		md.PlainText("No SEO issues detected.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityError, "### 🟠 Error"},
		{model.SeverityWarning, "### 🟡 Warning"},
		{model.SeverityInfo, "### ⚪ Info"},
	}

	for _, sev := range severities {
		issues := report.IssuesBySeverity(sev.level)
		if len(issues) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeIssuesTable(md, issues)
	}
}

// writeIssuesTable writes a table of findings with details.
func (w *MarkdownWriter) writeIssuesTable(md *markdown.Markdown, issues []*model.Issue) {
	headers := []string{"Issue", "Location", "Recommendation"}

	rows := make([][]string, len(issues))
	for i, finding := range issues {
		location := finding.Context
		if location == "" {
			location = "-"
		}
		rec := issue.Recommendation(finding.Type)
		if rec == "" {
			rec = "-"
		}

		rows[i] = []string{
			truncateString(finding.Message, 60),
			truncateString(location, 40),
			truncateString(rec, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [siteaudit](https://github.com/nao1215/siteaudit)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
