package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/ikitsuke/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ikitsuke",
	// Skips config loading.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ikitsuke version %s\n", server.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
