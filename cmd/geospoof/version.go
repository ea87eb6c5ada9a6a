package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set via -ldflags at build time
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "geospoof %s\n", version)
	},
}
