package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/osint-industries/oi-cli/internal/update"
)

// version is set at build time via ldflags
var version = "dev"

type versionInfo struct {
	Version string              `json:"version"`
	Update  *update.CheckResult `json:"update,omitempty"`
}

func newVersionCmd() *cobra.Command {
	var noCheck bool
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{Version: version}
			if !noCheck {
				// Fails silently; never blocks for long.
				info.Update = update.CheckForUpdate(cmd.Context(), version)
			}

			return printRecord(cmd, info, func(w io.Writer) error {
				_, _ = fmt.Fprintf(w, "oi version %s\n", version)
				if info.Update != nil && info.Update.UpdateAvailable {
					printInfo(cmd, "\nUpdate available: %s -> %s", info.Update.CurrentVersion, info.Update.LatestVersion)
					printInfo(cmd, "Download: %s", info.Update.UpdateURL)
				}
				return nil
			})
		}),
	}
	cmd.Flags().BoolVar(&noCheck, "no-update-check", false, "Skip the GitHub release check")
	return cmd
}
