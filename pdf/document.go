package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tsawler/officekit/model"
	"github.com/tsawler/officekit/office"
	"github.com/tsawler/officekit/tables"
)

// DefaultTimeout bounds each pdftotext or pdftoppm invocation.
const DefaultTimeout = 2 * time.Minute

// Config configures a Document.
type Config struct {
	// Runner executes poppler tools. Defaults to an os/exec runner.
	Runner *office.Runner

	// Detector finds tables in page words. Defaults to the geometric detector.
	Detector tables.Detector

	// Timeout bounds each external tool run. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger for debug/error messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Runner == nil {
		c.Runner = office.NewRunner(office.Config{Logger: c.Logger})
	}
	if c.Detector == nil {
		c.Detector = tables.NewGeometricDetector()
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Document is an opened PDF file.
type Document struct {
	path  string
	pages int
	cfg   Config
}

// Open reads the page count of the PDF at path and returns a Document.
func Open(path string, cfg Config) (*Document, error) {
	cfg.defaults()
	n, err := PageCount(path)
	if err != nil {
		return nil, err
	}
	return &Document{path: path, pages: n, cfg: cfg}, nil
}

// Path returns the file path of the document.
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pages
}

func (d *Document) checkPage(page int) error {
	if page < 1 || page > d.pages {
		return fmt.Errorf("page %d out of range 1-%d", page, d.pages)
	}
	return nil
}

// Words returns the positioned words of a single page.
func (d *Document) Words(ctx context.Context, page int) ([]model.Word, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	pages, err := d.pageWords(ctx, page, page)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return pages[0].Words, nil
}

// pageWords runs pdftotext once over first..last.
func (d *Document) pageWords(ctx context.Context, first, last int) ([]Page, error) {
	args := []string{
		"-bbox-layout",
		"-f", strconv.Itoa(first),
		"-l", strconv.Itoa(last),
		d.path, "-",
	}
	out, err := d.cfg.Runner.Run(ctx, "pdftotext", args, office.Timeout(d.cfg.Timeout))
	if err != nil {
		return nil, err
	}
	return ParseBBox(bytes.NewReader(out), first)
}

// Text returns the layout-preserving text of the given pages, or of the
// whole document when pages is empty. Pages are separated by form feeds.
func (d *Document) Text(ctx context.Context, pages ...int) (string, error) {
	if len(pages) == 0 {
		out, err := d.cfg.Runner.Run(ctx, "pdftotext", []string{"-layout", d.path, "-"}, office.Timeout(d.cfg.Timeout))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}

	var buf bytes.Buffer
	for _, p := range pages {
		if err := d.checkPage(p); err != nil {
			return "", err
		}
		args := []string{"-layout", "-f", strconv.Itoa(p), "-l", strconv.Itoa(p), d.path, "-"}
		out, err := d.cfg.Runner.Run(ctx, "pdftotext", args, office.Timeout(d.cfg.Timeout))
		if err != nil {
			return "", err
		}
		buf.Write(out)
	}
	return buf.String(), nil
}

// Rasterize renders one page to a PNG at dpi in outDir and returns the
// image path (page-N.png).
func (d *Document) Rasterize(ctx context.Context, page, dpi int, outDir string) (string, error) {
	if err := d.checkPage(page); err != nil {
		return "", err
	}
	if dpi <= 0 {
		return "", fmt.Errorf("rasterize: dpi must be positive, got %d", dpi)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	prefix := filepath.Join(outDir, "page-"+strconv.Itoa(page))
	args := []string{
		"-png", "-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(page), "-l", strconv.Itoa(page),
		"-singlefile",
		d.path, prefix,
	}
	if _, err := d.cfg.Runner.Run(ctx, "pdftoppm", args, office.Timeout(d.cfg.Timeout)); err != nil {
		return "", err
	}

	out := prefix + ".png"
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("pdftoppm produced no image for page %d: %w", page, err)
	}
	return out, nil
}

// TableOptions controls Document.Tables.
type TableOptions struct {
	// Pages to scan, 1-indexed. Empty means every page.
	Pages []int

	// Stitch joins the first table of each page into one table.
	Stitch bool

	// FillMerged carries values into cells left empty by merged headers.
	FillMerged bool

	// Normalize pads every row to the widest row and trims cells.
	Normalize bool
}

// TableResult is the outcome of Document.Tables.
type TableResult struct {
	Tables   []*model.Table  `json:"tables"`
	Warnings []model.Warning `json:"warnings,omitempty"`
}

// Tables detects tables on the selected pages. Pages without a text layer
// or without tables produce warnings rather than errors.
func (d *Document) Tables(ctx context.Context, opts TableOptions) (*TableResult, error) {
	pages := opts.Pages
	if len(pages) == 0 {
		pages = pageRange(1, d.pages)
	}
	for _, p := range pages {
		if err := d.checkPage(p); err != nil {
			return nil, err
		}
	}

	res := &TableResult{}
	var perPage [][]*model.Table

	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		words, err := d.Words(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p, err)
		}
		if len(words) == 0 {
			res.Warnings = append(res.Warnings, model.Warning{Page: p, Message: "no text layer; the page may need OCR"})
			perPage = append(perPage, nil)
			continue
		}

		found, err := d.cfg.Detector.Detect(words)
		if err != nil {
			return nil, fmt.Errorf("page %d: %s detector: %w", p, d.cfg.Detector.Name(), err)
		}
		for _, t := range found {
			t.Page = p
			if opts.FillMerged {
				t.Rows = tables.FillMerged(t.Rows)
			}
			if opts.Normalize {
				t.Rows = tables.NormalizeColumns(tables.Clean(t.Rows))
			}
		}
		d.cfg.Logger.Debug("pdf: tables detected", "page", p, "count", len(found))

		perPage = append(perPage, found)
		if !opts.Stitch {
			res.Tables = append(res.Tables, found...)
		}
	}

	if opts.Stitch {
		if t := tables.Stitch(perPage); t != nil {
			res.Tables = []*model.Table{t}
		}
	}
	if len(res.Tables) == 0 {
		res.Warnings = append(res.Warnings, model.Warning{Message: "no tables detected"})
	}
	return res, nil
}
