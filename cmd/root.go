// Package cmd contains the hugbridge command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hugbridge",
	Short: "hugbridge - conversation bridge between a smart home and HuggingChat",
	Long: `hugbridge exposes a conversation-processing HTTP API that relays user
utterances to the HuggingChat web service, keeping the home-automation
platform's conversation ids in sync with the remote conversations.

Running hugbridge without a subcommand starts an interactive chat.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
