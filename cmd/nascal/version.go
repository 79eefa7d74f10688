package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the nascal version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nascal %s\n", version)
	},
}
