package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"

	"github.com/tsawler/officekit/model"
	"github.com/tsawler/officekit/office"
	"github.com/tsawler/officekit/pdf"
)

// DefaultDPI is the resolution pages are rendered at for recognition.
const DefaultDPI = 300

// blankInkRatio is the share of dark pixels below which a page counts as blank.
const blankInkRatio = 0.0005

// Config configures a Pipeline.
type Config struct {
	// Runner executes pdftoppm and tesseract.
	Runner *office.Runner

	// Recognizer overrides the recognizer. By default the libtesseract
	// client is used when compiled in, the tesseract CLI otherwise.
	Recognizer Recognizer

	// Language is the "+" separated Tesseract language list. Default "eng".
	Language string

	// DPI is the render resolution. Default DefaultDPI.
	DPI int

	// PSM is the page segmentation mode. Default PSMAuto.
	PSM PageSegMode

	// Pages restricts recognition to these 1-indexed pages.
	Pages []int

	// WorkDir holds rendered page images. A temporary directory that is
	// removed afterwards is used when empty.
	WorkDir string

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
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = DefaultDPI
	}
	if c.PSM == PSMOSDOnly {
		c.PSM = PSMAuto
	}
}

// PageText is the recognized text of one page.
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Result is the outcome of Pipeline.Run.
type Result struct {
	Pages    []PageText      `json:"pages"`
	Warnings []model.Warning `json:"warnings,omitempty"`
}

// Text joins the page texts with blank lines.
func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Pipeline renders PDF pages and recognizes their text.
type Pipeline struct {
	cfg Config
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{cfg: cfg}
}

// recognizer returns the configured recognizer and a release function.
func (p *Pipeline) recognizer() (Recognizer, func(), error) {
	if p.cfg.Recognizer != nil {
		return p.cfg.Recognizer, func() {}, nil
	}

	if Enabled {
		c, err := New()
		if err == nil {
			if err := c.SetLanguage(p.cfg.Language); err != nil {
				c.Close()
				return nil, nil, fmt.Errorf("ocr: language %q: %w", p.cfg.Language, err)
			}
			if err := c.SetPageSegMode(p.cfg.PSM); err != nil {
				c.Close()
				return nil, nil, fmt.Errorf("ocr: page segmentation mode %d: %w", p.cfg.PSM, err)
			}
			return c, func() { c.Close() }, nil
		}
		p.cfg.Logger.Warn("ocr: libtesseract unavailable, using tesseract CLI", "error", err)
	}

	return &Tesseract{
		Runner:   p.cfg.Runner,
		Language: p.cfg.Language,
		PSM:      p.cfg.PSM,
	}, func() {}, nil
}

// Run recognizes every selected page of the PDF at path. Pages that fail
// to render or recognize, or that are blank, produce warnings. Run fails
// only when no page yields text.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	doc, err := pdf.Open(path, pdf.Config{Runner: p.cfg.Runner, Logger: p.cfg.Logger})
	if err != nil {
		return nil, err
	}

	pages := p.cfg.Pages
	if len(pages) == 0 {
		pages, _ = pdf.ParsePages("", doc.PageCount())
	}

	workDir := p.cfg.WorkDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "officekit-ocr-")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(workDir)
	}

	rec, release, err := p.recognizer()
	if err != nil {
		return nil, err
	}
	defer release()

	res := &Result{}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := p.page(ctx, doc, rec, page, workDir)
		switch {
		case errors.Is(err, office.ErrToolNotFound):
			return nil, err
		case err != nil:
			res.Warnings = append(res.Warnings, model.Warning{Page: page, Message: err.Error()})
			continue
		case text == "":
			res.Warnings = append(res.Warnings, model.Warning{Page: page, Message: "no text recognized"})
		}
		res.Pages = append(res.Pages, PageText{Page: page, Text: text})
	}

	if res.Text() == "" {
		if len(res.Warnings) > 0 {
			return res, fmt.Errorf("%w: %s", ErrNoText, model.FormatWarnings(res.Warnings))
		}
		return res, ErrNoText
	}
	return res, nil
}

func (p *Pipeline) page(ctx context.Context, doc *pdf.Document, rec Recognizer, page int, workDir string) (string, error) {
	img, err := doc.Rasterize(ctx, page, p.cfg.DPI, workDir)
	if err != nil {
		return "", err
	}

	blank, err := isBlank(img)
	if err != nil {
		return "", err
	}
	if blank {
		p.cfg.Logger.Debug("ocr: blank page skipped", "page", page)
		return "", fmt.Errorf("blank page")
	}

	text, err := rec.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	p.cfg.Logger.Debug("ocr: page recognized", "page", page, "chars", len(text))
	return text, nil
}

// isBlank reports whether the image at path has almost no dark pixels.
func isBlank(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return false, fmt.Errorf("decoding page image: %w", err)
	}

	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return true, nil
	}

	// Sample every other pixel in both directions.
	dark, sampled := 0, 0
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x += 2 {
			r, g, bl, _ := img.At(x, y).RGBA()
			lum := (299*r + 587*g + 114*bl) / 1000
			if lum < 0x8000 {
				dark++
			}
			sampled++
		}
	}
	return float64(dark)/float64(sampled) < blankInkRatio, nil
}
