package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of officekit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(stdout, "officekit %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
