package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Build metadata. Release builds inject these through -ldflags; anything
// left empty falls back to the module build info, so a plain go install
// still reports a usable version.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildMetadata resolves the version, commit, and build date. Values set
// through ldflags win; the rest comes from debug.ReadBuildInfo.
func buildMetadata() (string, string, string) {
	v, rev, when := version, commit, date
	if info, ok := debug.ReadBuildInfo(); ok {
		if v == "" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if rev == "" {
					rev = s.Value
					if len(rev) > 7 {
						rev = rev[:7]
					}
				}
			case "vcs.time":
				if when == "" {
					when = s.Value
				}
			}
		}
	}
	if v == "" {
		v = "(devel)"
	}
	return v, rev, when
}

// versionLine assembles the banner printed by the version subcommand,
// shaped like "siteaudit v1.2.0 (commit 1a2b3c4, built 2026-01-02)".
// Commit and date are omitted when nothing provides them.
func versionLine() string {
	v, rev, when := buildMetadata()

	details := make([]string, 0, 2)
	if rev != "" {
		details = append(details, "commit "+rev)
	}
	if when != "" {
		details = append(details, "built "+when)
	}
	if len(details) == 0 {
		return "siteaudit " + v
	}
	return fmt.Sprintf("siteaudit %s (%s)", v, strings.Join(details, ", "))
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the siteaudit version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionLine())
		},
	}
}
