// Package main provides the entry point for the siteaudit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for siteaudit.
func NewRootCmd() *cobra.Command {
	v, _, _ := buildMetadata()
	cmd := &cobra.Command{
		Use:   "siteaudit",
		Short: "SEO auditing tool for websites",
		Long: `siteaudit is an SEO auditing tool for websites.
It crawls a site breadth-first and checks every page for broken links,
duplicate content, missing metadata, and other SEO issues.

Crawl results are persisted to a local SQLite database so past audits
can be inspected after the run finishes.`,
		Version:       v,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewIssuesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
