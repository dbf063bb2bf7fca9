package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev" // Overridden at build time

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "adminseed %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
