package main

import (
	"github.com/spf13/cobra"

	"github.com/tsawler/officekit/mcpserver"
	"github.com/tsawler/officekit/ocr"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workflows as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpserver.New(mcpserver.Config{
			Runner:        runner(),
			RecalcTimeout: cfg.Soffice.Timeout,
			MaxLocations:  cfg.Recalc.MaxLocations,
			OCRLanguage:   cfg.OCR.Language,
			OCRDPI:        cfg.OCR.DPI,
			OCRPSM:        ocr.PageSegMode(cfg.OCR.PSM),
			TableDetector: cfg.Tables.Detector,
			TableConfig:   cfg.Tables.Thresholds(),
			Version:       version,
			Logger:        logger,
		}).Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
