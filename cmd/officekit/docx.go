package main

import (
	"github.com/spf13/cobra"

	"github.com/tsawler/officekit/docx"
	"github.com/tsawler/officekit/format"
)

var docxCmd = &cobra.Command{
	Use:   "docx",
	Short: "Word document workflows",
}

var docxMarkdownCmd = &cobra.Command{
	Use:   "markdown <file.docx>",
	Short: "Print headings, lists, paragraphs and tables as Markdown",
	Long: `Markdown reads the document directly. With --pandoc the conversion is
done by pandoc instead, keeping tracked changes visible.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFormat(format.DOCX, args[0]); err != nil {
			return err
		}
		if usePandoc, _ := cmd.Flags().GetBool("pandoc"); usePandoc {
			track, _ := cmd.Flags().GetString("track-changes")
			md, err := docx.MarkdownWithPandoc(cmd.Context(), args[0], docx.PandocConfig{
				Runner:       runner(),
				TrackChanges: track,
				Logger:       logger,
			})
			if err != nil {
				return err
			}
			return printText(md)
		}

		r, err := docx.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		return printText(r.Markdown())
	},
}

var docxConvertCmd = &cobra.Command{
	Use:   "convert <file.docx> <out>",
	Short: "Convert with pandoc; the output format follows the extension",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFormat(format.DOCX, args[0]); err != nil {
			return err
		}
		track, _ := cmd.Flags().GetString("track-changes")
		to, _ := cmd.Flags().GetString("to")
		err := docx.ConvertWithPandoc(cmd.Context(), args[0], args[1], docx.PandocConfig{
			Runner:       runner(),
			TrackChanges: track,
			To:           to,
			Logger:       logger,
		})
		if err != nil {
			return err
		}
		recordOutputs("docx convert", args[:1], args[1])
		return printJSON(map[string]any{"file": args[1]})
	},
}

func init() {
	docxMarkdownCmd.Flags().Bool("pandoc", false, "convert with pandoc")
	docxMarkdownCmd.Flags().String("track-changes", "all", "tracked changes with --pandoc: accept, reject or all")
	docxConvertCmd.Flags().String("track-changes", "all", "tracked changes: accept, reject or all")
	docxConvertCmd.Flags().String("to", "", "pandoc output format (default from the extension)")

	docxCmd.AddCommand(docxMarkdownCmd, docxConvertCmd)
	rootCmd.AddCommand(docxCmd)
}
