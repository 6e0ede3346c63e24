// Package cli implements the astrox command line tool.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the astrox command tree.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "astrox",
		Short: "Call the ASTROX aerospace computation service",
		Long: `Command line client for the ASTROX web service.

Requests are posted with the same retry, timeout and logging behaviour as the
go-astrox library. Settings come from an optional YAML file and ASTROX_*
environment variables; flags override both.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		NewPostCommand(),
		NewBenchCommand(),
		NewConfigCommand(),
		NewVersionCommand(version),
	)

	return rootCmd
}
