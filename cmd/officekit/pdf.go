package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/officekit/format"
	"github.com/tsawler/officekit/model"
	"github.com/tsawler/officekit/ocr"
	"github.com/tsawler/officekit/pdf"
	"github.com/tsawler/officekit/tables"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "PDF workflows",
}

// openPDF opens path after checking it is a PDF. A nil detector selects
// the geometric one.
func openPDF(path string, det tables.Detector) (*pdf.Document, error) {
	if err := requireFormat(format.PDF, path); err != nil {
		return nil, err
	}
	return pdf.Open(path, pdf.Config{Runner: runner(), Detector: det, Logger: logger})
}

// pageFlag parses the --pages flag against the document's page count.
// Empty selects every page.
func pageFlag(cmd *cobra.Command, total int) ([]int, error) {
	sel, _ := cmd.Flags().GetString("pages")
	if sel == "" {
		return nil, nil
	}
	return pdf.ParsePages(sel, total)
}

var pdfTextCmd = &cobra.Command{
	Use:   "text <file.pdf>",
	Short: "Extract text with its layout preserved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := openPDF(args[0], nil)
		if err != nil {
			return err
		}
		pages, err := pageFlag(cmd, doc.PageCount())
		if err != nil {
			return err
		}
		text, err := doc.Text(cmd.Context(), pages...)
		if err != nil {
			return err
		}
		return printText(text)
	},
}

var pdfTablesCmd = &cobra.Command{
	Use:   "tables <file.pdf>",
	Short: "Detect tables and export them as JSON, CSV or XLSX",
	Long: `Tables finds tables on the text layer of each selected page. Without
--out the result is printed as JSON. With --out, csv and xlsx write one
file per table (name-1.csv, name-2.csv, ... when there are several).
xlsx without --out writes tables.xlsx to the document's outputs folder.

The detector and its thresholds come from the tables.* config keys;
--detector picks another registered detector.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFormat, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		stitch, _ := cmd.Flags().GetBool("stitch")
		fill, _ := cmd.Flags().GetBool("fill-merged")
		normalize, _ := cmd.Flags().GetBool("normalize")

		switch outFormat {
		case "json", "csv", "xlsx":
		default:
			return fmt.Errorf("unknown format %q (want json, csv or xlsx)", outFormat)
		}

		det, err := cfg.Tables.NewDetector()
		if err != nil {
			return err
		}
		doc, err := openPDF(args[0], det)
		if err != nil {
			return err
		}
		if outFormat == "xlsx" && out == "" {
			dir, err := outputDir(args[0])
			if err != nil {
				return err
			}
			out = filepath.Join(dir, "tables"+format.XLSX.Extension())
		}
		pages, err := pageFlag(cmd, doc.PageCount())
		if err != nil {
			return err
		}
		res, err := doc.Tables(cmd.Context(), pdf.TableOptions{
			Pages:      pages,
			Stitch:     stitch,
			FillMerged: fill,
			Normalize:  normalize,
		})
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			logger.Warn("pdf tables", "page", w.Page, "warning", w.Message)
		}

		if out == "" {
			if outFormat == "csv" {
				var buf bytes.Buffer
				for i, t := range res.Tables {
					if i > 0 {
						buf.WriteByte('\n')
					}
					if err := tables.WriteCSV(&buf, t); err != nil {
						return err
					}
				}
				_, err := stdout.Write(buf.Bytes())
				return err
			}
			return printJSON(res)
		}

		files, err := writeTables(res.Tables, outFormat, out)
		if err != nil {
			return err
		}
		recordOutputs("pdf tables", args, files...)
		return printJSON(map[string]any{"files": files, "tables": len(res.Tables), "detector": det.Name(), "warnings": res.Warnings})
	},
}

// writeTables writes each table to out, numbering the files when there is
// more than one.
func writeTables(ts []*model.Table, kind, out string) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, err
	}
	if kind == "json" {
		f, err := os.Create(out)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		for _, t := range ts {
			if err := tables.WriteJSON(f, t); err != nil {
				return nil, err
			}
		}
		return []string{out}, nil
	}

	ext := filepath.Ext(out)
	base := strings.TrimSuffix(out, ext)
	var files []string
	for i, t := range ts {
		name := out
		if len(ts) > 1 {
			name = fmt.Sprintf("%s-%d%s", base, i+1, ext)
		}
		var err error
		switch kind {
		case "csv":
			err = writeFile(name, func(f *os.File) error { return tables.WriteCSV(f, t) })
		case "xlsx":
			err = tables.WriteXLSX(name, t, tables.XLSXOptions{Sheet: fmt.Sprintf("Page %d", t.Page)})
		}
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		files = append(files, name)
	}
	return files, nil
}

func writeFile(name string, fn func(*os.File) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var pdfOCRCmd = &cobra.Command{
	Use:   "ocr <file.pdf>",
	Short: "Recognize the text of scanned pages with Tesseract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		if err := requireFormat(format.PDF, args[0]); err != nil {
			return err
		}
		psm := ocr.PageSegMode(cfg.OCR.PSM)
		if !psm.Valid() {
			return fmt.Errorf("invalid page segmentation mode %d", cfg.OCR.PSM)
		}
		pc := ocr.Config{
			Runner:   runner(),
			Language: cfg.OCR.Language,
			DPI:      cfg.OCR.DPI,
			PSM:      psm,
			Logger:   logger,
		}
		if sel, _ := cmd.Flags().GetString("pages"); sel != "" {
			n, err := pdf.PageCount(args[0])
			if err != nil {
				return err
			}
			if pc.Pages, err = pdf.ParsePages(sel, n); err != nil {
				return err
			}
		}

		res, err := ocr.NewPipeline(pc).Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			logger.Warn("pdf ocr", "page", w.Page, "warning", w.Message)
		}
		if out == "" {
			return printJSON(res)
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(out, []byte(res.Text()+"\n"), 0o644); err != nil {
			return err
		}
		recordOutputs("pdf ocr", args, out)
		return printJSON(map[string]any{"file": out, "pages": len(res.Pages), "warnings": res.Warnings})
	},
}

var pdfMergeCmd = &cobra.Command{
	Use:   "merge <out.pdf> <in.pdf>...",
	Short: "Concatenate PDF files",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFormat(format.PDF, args[1:]...); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(args[0]), 0o755); err != nil {
			return err
		}
		if err := pdf.Merge(args[0], args[1:]...); err != nil {
			return err
		}
		recordOutputs("pdf merge", args[1:], args[0])
		return printJSON(map[string]any{"file": args[0]})
	},
}

var pdfSplitCmd = &cobra.Command{
	Use:   "split <in.pdf> <out-dir>",
	Short: "Split a PDF into files of --span pages",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		span, _ := cmd.Flags().GetInt("span")
		if err := requireFormat(format.PDF, args[0]); err != nil {
			return err
		}
		if err := pdf.Split(args[0], args[1], span); err != nil {
			return err
		}
		files, err := filepath.Glob(filepath.Join(args[1], "*.pdf"))
		if err != nil {
			return err
		}
		recordOutputs("pdf split", args[:1], files...)
		return printJSON(map[string]any{"files": files})
	},
}

var pdfExtractCmd = &cobra.Command{
	Use:   "extract <in.pdf> <out.pdf>",
	Short: "Copy selected pages into a new PDF",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFormat(format.PDF, args[0]); err != nil {
			return err
		}
		n, err := pdf.PageCount(args[0])
		if err != nil {
			return err
		}
		pages, err := pageFlag(cmd, n)
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			return fmt.Errorf("--pages is required")
		}
		if err := os.MkdirAll(filepath.Dir(args[1]), 0o755); err != nil {
			return err
		}
		if err := pdf.ExtractPages(args[0], args[1], pages); err != nil {
			return err
		}
		recordOutputs("pdf extract", args[:1], args[1])
		return printJSON(map[string]any{"file": args[1], "pages": pages})
	},
}

// validation is the outcome of checking one file.
type validation struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

var pdfValidateCmd = &cobra.Command{
	Use:   "validate <file.pdf>...",
	Short: "Check PDF files for structural errors",
	Long: `Validate runs pdfcpu's relaxed validation over each file and prints
one result per file. Status is "invalid" when any file fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := "ok"
		results := make([]validation, 0, len(args))
		for _, p := range args {
			v := validation{File: p, Valid: true}
			if err := pdf.Validate(p); err != nil {
				v.Valid, v.Error = false, err.Error()
				status = "invalid"
				logger.Debug("pdf validate", "file", p, "error", err)
			}
			results = append(results, v)
		}
		return printJSON(map[string]any{"status": status, "files": results})
	},
}

func init() {
	pdfTextCmd.Flags().String("pages", "", `page selection, e.g. "1-3,5"`)

	pdfTablesCmd.Flags().String("pages", "", `page selection, e.g. "1-3,5"`)
	pdfTablesCmd.Flags().String("format", "json", "output format: json, csv or xlsx")
	pdfTablesCmd.Flags().String("out", "", "output file (default stdout)")
	pdfTablesCmd.Flags().Bool("stitch", false, "join a table that continues across pages")
	pdfTablesCmd.Flags().Bool("fill-merged", false, "carry values into cells left empty by merged headers")
	pdfTablesCmd.Flags().Bool("normalize", false, "trim cells and pad rows to equal width")
	pdfTablesCmd.Flags().String("detector", "", "table detector (default tables.detector)")
	bindConfig(pdfTablesCmd, "detector", "tables.detector")

	pdfOCRCmd.Flags().String("pages", "", `page selection, e.g. "1-3,5"`)
	pdfOCRCmd.Flags().String("lang", "", `Tesseract languages, e.g. "eng+deu"`)
	pdfOCRCmd.Flags().Int("dpi", 0, "render resolution")
	pdfOCRCmd.Flags().Int("psm", 0, "Tesseract page segmentation mode")
	pdfOCRCmd.Flags().String("out", "", "write the recognized text to this file")
	bindConfig(pdfOCRCmd, "lang", "ocr.language")
	bindConfig(pdfOCRCmd, "dpi", "ocr.dpi")
	bindConfig(pdfOCRCmd, "psm", "ocr.psm")

	pdfSplitCmd.Flags().Int("span", 1, "pages per output file")
	pdfExtractCmd.Flags().String("pages", "", `pages to keep, e.g. "1,3,5-7"`)

	pdfCmd.AddCommand(pdfTextCmd, pdfTablesCmd, pdfOCRCmd, pdfMergeCmd, pdfSplitCmd, pdfExtractCmd, pdfValidateCmd)
	rootCmd.AddCommand(pdfCmd)
}
