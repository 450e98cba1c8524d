package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zweadfx/assist"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of assist",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("assist version %s\n", strings.TrimSpace(assist.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
