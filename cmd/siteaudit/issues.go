package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/siteaudit/internal/config"
	"github.com/nao1215/siteaudit/internal/issue"
	"github.com/nao1215/siteaudit/internal/storage"
)

// NewIssuesCmd creates the issues command.
func NewIssuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues <crawl-id>",
		Short: "List the SEO issues recorded for a past audit",
		Long: `Issues lists the findings persisted for a previous audit run.

The crawl ID is printed when an audit finishes. Findings are listed
from most to least severe.

Examples:
  # List issues from a past audit
  siteaudit issues 3f8a1c2e-...

  # JSON output for scripting
  siteaudit issues --json 3f8a1c2e-...`,
		Args: cobra.ExactArgs(1),
		RunE: runIssuesCmd,
	}

	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output issues as JSON")

	return cmd
}

// runIssuesCmd executes the issues command.
func runIssuesCmd(cmd *cobra.Command, args []string) error {
	crawlID := args[0]

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	store, err := storage.OpenSQLite(dbDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := cmd.Context()
	crawl, err := store.GetCrawl(ctx, crawlID)
	if err != nil {
		return fmt.Errorf("failed to load crawl: %w", err)
	}
	if crawl == nil {
		return fmt.Errorf("crawl not found: %s", crawlID)
	}

	issues, err := store.ListIssues(ctx, crawlID)
	if err != nil {
		return fmt.Errorf("failed to load issues: %w", err)
	}

	out := cmd.OutOrStdout()

	if jsonOut {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(issues)
	}

	fmt.Fprintf(out, "Audit of %s (%s): %d issues\n", crawl.SeedURL, crawl.Status, len(issues))
	fmt.Fprintf(out, "Crawled %d of %d pages (depth limit %d, rate %.1f req/s)\n\n",
		crawl.PagesCrawled, crawl.Limits.MaxPages, crawl.Limits.MaxDepth, crawl.Limits.RateLimit)
	for _, finding := range issues {
		fmt.Fprintf(out, "[%s] %s: %s\n", finding.Severity, finding.Type, finding.Message)
		if finding.Context != "" {
			fmt.Fprintf(out, "  Location: %s\n", finding.Context)
		}
		if rec := issue.Recommendation(finding.Type); rec != "" {
			fmt.Fprintf(out, "  Recommendation: %s\n", rec)
		}
	}

	return nil
}
