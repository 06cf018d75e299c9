// Version command for the plansync CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped by the build (mage build sets it via -ldflags).
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the plansync version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("plansync", version)
	},
}
