package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-astrox/httpclient"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for the astrox tool",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "astrox version %s\n", version)
			fmt.Fprintf(out, "Client library %s (User-Agent %s)\n", httpclient.Version, httpclient.DefaultUserAgent)
			fmt.Fprintf(out, "Built with %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
