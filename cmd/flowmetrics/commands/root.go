// Package commands contains the flowmetrics CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// NewRootCmd constructs the flowmetrics root command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("FLOWMETRICS_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "flowmetrics",
		Short:         "Flow metrics for Azure DevOps work items",
		Long:          "flowmetrics builds and validates WIQL queries, fetches work items and produces lead time, cycle time and throughput reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default flowmetrics.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "flowmetrics version %s\n", version)
		},
	})

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newSnapshotsCmd())

	return cmd
}
