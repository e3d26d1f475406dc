package cmd

import (
	"github.com/spf13/cobra"
)

// defaultCmd represents the command that runs when no subcommand is specified
var defaultCmd = &cobra.Command{
	Use:    "default",
	Short:  "Default command when no subcommand is provided",
	Long:   `Downloads the current modpack.`,
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return downloadCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(defaultCmd)
	defaultCmd.Flags().Bool("plain", false, "print progress lines instead of the interactive view")
	rootCmd.Flags().Bool("plain", false, "print progress lines instead of the interactive view")
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return defaultCmd.RunE(cmd, args)
	}
}
