package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsawler/officekit/format"
	"github.com/tsawler/officekit/pptx"
)

var pptxCmd = &cobra.Command{
	Use:   "pptx",
	Short: "Presentation workflows",
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory <deck.pptx> <inventory.json>",
	Short: "Write the text inventory of a deck",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inventory(args[0], args[1])
	},
}

var pptxInventoryCmd = &cobra.Command{
	Use:   "inventory <deck.pptx> [inventory.json]",
	Short: "Print or write the text inventory of a deck",
	Long: `Inventory lists every text shape per slide, keyed slide-N and shape-N
from 0, with its position in EMU, placeholder type and paragraphs.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return inventory(args[0], args[1])
		}
		if err := requireFormat(format.PPTX, args[0]); err != nil {
			return err
		}
		inv, err := pptx.InventoryFile(args[0])
		if err != nil {
			return err
		}
		return inv.Write(stdout)
	},
}

func inventory(in, out string) error {
	if err := requireFormat(format.PPTX, in); err != nil {
		return err
	}
	inv, err := pptx.InventoryFile(in)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := inv.WriteFile(out); err != nil {
		return err
	}
	recordOutputs("inventory", []string{in}, out)
	return printJSON(map[string]any{"file": out, "slides": len(inv.Slides), "shapes": inv.ShapeCount()})
}

var replaceCmd = &cobra.Command{
	Use:   "replace <deck.pptx> <replacements.json> <out.pptx>",
	Short: "Rewrite shape text from an edited inventory",
	Long: `Replace rewrites every shape of the inventory: shapes named in the
replacement file get its paragraphs, all others are cleared. A slide or
shape that is not in the inventory is an error.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFormat(format.PPTX, args[0]); err != nil {
			return err
		}
		rep, err := pptx.ReadReplacements(args[1])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(args[2]), 0o755); err != nil {
			return err
		}
		if err := pptx.Replace(args[0], rep, args[2]); err != nil {
			return err
		}
		recordOutputs("replace", args[:2], args[2])
		return printJSON(map[string]any{"file": args[2]})
	},
}

var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail <deck.pptx> <out-dir>",
	Short: "Render slide thumbnail grids",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return thumbnails(cmd, args[0], args[1])
	},
}

var pptxThumbnailCmd = &cobra.Command{
	Use:   "thumbnail <deck.pptx> [out-dir]",
	Short: "Render slide thumbnail grids",
	Long: `Thumbnail renders the deck through LibreOffice and lays the slides out
in grids of --columns per row. Without out-dir the grids go to the deck's
outputs folder.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return thumbnails(cmd, args[0], args[1])
		}
		if err := requireFormat(format.PPTX, args[0]); err != nil {
			return err
		}
		dir, err := outputDir(args[0])
		if err != nil {
			return err
		}
		return thumbnails(cmd, args[0], dir)
	},
}

func thumbnails(cmd *cobra.Command, in, dir string) error {
	if err := requireFormat(format.PPTX, in); err != nil {
		return err
	}
	cols := cfg.Thumbnail.Columns
	if cols <= 0 {
		return fmt.Errorf("columns must be a positive number, got %d", cols)
	}
	files, err := pptx.Thumbnails(cmd.Context(), in, dir, pptx.ThumbnailOptions{
		Runner:  runner(),
		Columns: cols,
		Width:   cfg.Thumbnail.Width,
		Timeout: cfg.Soffice.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	recordOutputs("thumbnail", []string{in}, files...)
	return printJSON(map[string]any{"files": files})
}

var pptxMarkdownCmd = &cobra.Command{
	Use:   "markdown <deck.pptx>",
	Short: "Print slides, tables and notes as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFormat(format.PPTX, args[0]); err != nil {
			return err
		}
		r, err := pptx.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		return printText(r.Markdown())
	},
}

func init() {
	pptxThumbnailCmd.Flags().Int("columns", 0, "slides per row")
	pptxThumbnailCmd.Flags().Int("width", 0, "thumbnail width in pixels")
	bindConfig(pptxThumbnailCmd, "columns", "thumbnail.columns")
	bindConfig(pptxThumbnailCmd, "width", "thumbnail.width")
	thumbnailCmd.Flags().Int("columns", 0, "slides per row")
	thumbnailCmd.Flags().Int("width", 0, "thumbnail width in pixels")
	bindConfig(thumbnailCmd, "columns", "thumbnail.columns")
	bindConfig(thumbnailCmd, "width", "thumbnail.width")

	pptxCmd.AddCommand(pptxInventoryCmd, pptxThumbnailCmd, pptxMarkdownCmd)
	pptxCmd.AddCommand(&cobra.Command{
		Use:   replaceCmd.Use,
		Short: replaceCmd.Short,
		Long:  replaceCmd.Long,
		Args:  replaceCmd.Args,
		RunE:  replaceCmd.RunE,
	})
	rootCmd.AddCommand(pptxCmd, inventoryCmd, replaceCmd, thumbnailCmd)
}
