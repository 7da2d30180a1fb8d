package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the external tools are installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rep := runner().Doctor()
		out := map[string]any{
			"ok":    len(rep.Missing()) == 0,
			"tools": rep.Tools,
		}
		if pkgs := rep.Packages(); len(pkgs) > 0 {
			out["install"] = "sudo apt-get install " + strings.Join(pkgs, " ")
		}
		return printJSON(out)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
