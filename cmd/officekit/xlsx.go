package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/officekit/format"
	"github.com/tsawler/officekit/xlsx"
)

var xlsxCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "Spreadsheet workflows",
}

var recalcCmd = &cobra.Command{
	Use:   "recalc <workbook> [timeout-seconds]",
	Short: "Recalculate a workbook with LibreOffice and report formula errors",
	Long: `Recalc has LibreOffice recompute every formula of the workbook in place,
then scans every cell of every sheet for error values and prints a JSON
report. The optional second argument is a timeout in seconds.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout := cfg.Soffice.Timeout
		if len(args) == 2 {
			secs, err := strconv.Atoi(args[1])
			if err != nil || secs <= 0 {
				return fmt.Errorf("timeout must be a positive number of seconds, got %q", args[1])
			}
			timeout = time.Duration(secs) * time.Second
		}
		return recalc(cmd, args[0], "", timeout)
	},
}

var xlsxRecalcCmd = &cobra.Command{
	Use:   "recalc <workbook>",
	Short: "Recalculate a workbook with LibreOffice and report formula errors",
	Long: `Recalc recomputes the workbook in place, or writes the recalculated copy
to --output. --copy writes it to the workbook's outputs folder instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		toOutputs, _ := cmd.Flags().GetBool("copy")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		if timeout <= 0 {
			timeout = cfg.Soffice.Timeout
		}
		if toOutputs {
			if err := requireFormat(format.XLSX, args[0]); err != nil {
				return err
			}
			dir, err := outputDir(args[0])
			if err != nil {
				return err
			}
			out = filepath.Join(dir, filepath.Base(args[0]))
		}
		return recalc(cmd, args[0], out, timeout)
	},
}

func recalc(cmd *cobra.Command, path, out string, timeout time.Duration) error {
	if err := requireFormat(format.XLSX, path); err != nil {
		return err
	}
	rep, err := xlsx.Recalculate(cmd.Context(), path, xlsx.RecalcConfig{
		Runner:  runner(),
		Timeout: timeout,
		Output:  out,
		Scan:    xlsx.ScanOptions{MaxLocations: cfg.Recalc.MaxLocations},
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	written := path
	if out != "" {
		written = out
	}
	recordOutputs("recalc", []string{path}, written)
	return printJSON(rep)
}

var xlsxScanCmd = &cobra.Command{
	Use:   "scan <workbook>",
	Short: "Report formula errors in cached cell values without recalculating",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFormat(format.XLSX, args[0]); err != nil {
			return err
		}
		rep, err := xlsx.Scan(args[0], xlsx.ScanOptions{MaxLocations: cfg.Recalc.MaxLocations})
		if err != nil {
			return err
		}
		return printJSON(rep)
	},
}

var xlsxMarkdownCmd = &cobra.Command{
	Use:   "markdown <workbook>",
	Short: "Print every sheet as a Markdown table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFormat(format.XLSX, args[0]); err != nil {
			return err
		}
		r, err := xlsx.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		return printText(r.Markdown())
	},
}

func init() {
	xlsxRecalcCmd.Flags().String("output", "", "write the recalculated copy here and leave the input untouched")
	xlsxRecalcCmd.Flags().Bool("copy", false, "write the recalculated copy to the workbook's outputs folder")
	xlsxRecalcCmd.Flags().Duration("timeout", 0, "LibreOffice run timeout (default soffice.timeout)")
	xlsxRecalcCmd.MarkFlagsMutuallyExclusive("copy", "output")
	xlsxRecalcCmd.Flags().Int("max-locations", 0, "locations listed per error code")
	bindConfig(xlsxRecalcCmd, "max-locations", "recalc.max_locations")
	recalcCmd.Flags().Int("max-locations", 0, "locations listed per error code")
	bindConfig(recalcCmd, "max-locations", "recalc.max_locations")
	xlsxScanCmd.Flags().Int("max-locations", 0, "locations listed per error code")
	bindConfig(xlsxScanCmd, "max-locations", "recalc.max_locations")

	xlsxCmd.AddCommand(xlsxRecalcCmd, xlsxScanCmd, xlsxMarkdownCmd)
	rootCmd.AddCommand(xlsxCmd, recalcCmd)
}
