package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time:
//
//	-ldflags="-X github.com/ipchama/dhcpsentry/cmd.Version=v1.0.0 -X github.com/ipchama/dhcpsentry/cmd.GitCommit=abc1234"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dhcpsentry %s\n  commit:  %s\n  built:   %s\n", Version, GitCommit, BuildDate)
		},
	})
}
