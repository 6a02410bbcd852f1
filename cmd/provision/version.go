package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the provision version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("provision %s\n", Version)
	},
}
