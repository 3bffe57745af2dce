// Package cli implements the dockyard command tree. Every command except
// `daemon` is a thin client over the control socket; `daemon` is the server
// entry point.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dockyard",
	Short: "Self-hosted PaaS: deploy git repositories as containers",
	Long: `Dockyard turns a git repository into a continuously running container.
Deploy once, push to your branch, and the daemon rebuilds and swaps the
container with zero downtime.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(
		newDaemonCmd(),
		newDeployCmd(),
		newListCmd(),
		newStatusCmd(),
		newRebuildCmd(),
		newHistoryCmd(),
		newLogsCmd(),
		newStartCmd(),
		newStopCmd(),
		newDeleteCmd(),
		newConfigCmd(),
	)
}

// Execute runs the command tree and exits non-zero on error, rendering the
// error with the CLI's marker.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("✗"), err)
		os.Exit(1)
	}
}
