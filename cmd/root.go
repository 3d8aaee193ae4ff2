package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dhcpsentry",
	Short: "Rogue DHCP server detector.",
	Long:  `dhcpsentry broadcasts DHCPDISCOVER messages and reports every server that answers, flagging offers whose server identifier is not the authorised DHCP server.`,

	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
