package main

import (
	"github.com/spf13/cobra"

	"github.com/tsawler/officekit/format"
	"github.com/tsawler/officekit/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <page.html> <out.png|out.pdf>",
	Short: "Render an HTML file to PNG or PDF with headless Chrome",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFormat(format.HTML, args[0]); err != nil {
			return err
		}
		fullPage, _ := cmd.Flags().GetBool("full-page")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		remote, _ := cmd.Flags().GetString("browser-url")
		err := render.File(cmd.Context(), args[0], args[1], render.Config{
			RemoteURL:      remote,
			ViewportWidth:  cfg.Render.ViewportWidth,
			ViewportHeight: cfg.Render.ViewportHeight,
			FullPage:       fullPage,
			Timeout:        timeout,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		recordOutputs("render", args[:1], args[1])
		return printJSON(map[string]any{"file": args[1]})
	},
}

func init() {
	renderCmd.Flags().Int("width", 0, "viewport width in CSS pixels")
	renderCmd.Flags().Int("height", 0, "viewport height in CSS pixels")
	renderCmd.Flags().Bool("full-page", false, "capture the whole page height in screenshots")
	renderCmd.Flags().Duration("timeout", render.DefaultTimeout, "render timeout")
	renderCmd.Flags().String("browser-url", "", "DevTools WebSocket URL of a running Chrome")
	bindConfig(renderCmd, "width", "render.viewport_width")
	bindConfig(renderCmd, "height", "render.viewport_height")

	rootCmd.AddCommand(renderCmd)
}
