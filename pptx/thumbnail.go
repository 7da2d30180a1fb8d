package pptx

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tsawler/officekit/office"
	"github.com/tsawler/officekit/pdf"
)

// Thumbnail grid defaults.
const (
	DefaultColumns        = 5
	DefaultThumbnailWidth = 300
	DefaultThumbnailDPI   = 72
	DefaultConvertTimeout = 2 * time.Minute
)

const (
	gridPadding = 10
	labelHeight = 18
	jpegQuality = 90
)

// ThumbnailOptions configures Thumbnails.
type ThumbnailOptions struct {
	// Runner executes soffice and pdftoppm. Defaults to an os/exec runner.
	Runner *office.Runner

	// ProfileDir is an optional private LibreOffice profile.
	ProfileDir string

	// Columns per grid. A grid holds at most Columns*(Columns+1) slides.
	Columns int

	// Width of each thumbnail in pixels.
	Width int

	// DPI slides are rasterized at before scaling.
	DPI int

	// Timeout bounds the PDF conversion.
	Timeout time.Duration

	Logger *slog.Logger
}

func (o *ThumbnailOptions) defaults() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Runner == nil {
		o.Runner = office.NewRunner(office.Config{Logger: o.Logger})
	}
	if o.Columns <= 0 {
		o.Columns = DefaultColumns
	}
	if o.Width <= 0 {
		o.Width = DefaultThumbnailWidth
	}
	if o.DPI <= 0 {
		o.DPI = DefaultThumbnailDPI
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultConvertTimeout
	}
}

// GridCapacity returns the number of slides one grid holds.
func (o ThumbnailOptions) GridCapacity() int {
	cols := o.Columns
	if cols <= 0 {
		cols = DefaultColumns
	}
	return cols * (cols + 1)
}

// Thumbnails renders the slides of the presentation at in as labelled
// JPEG grids in dir. A single grid is written as thumbnails.jpg, several
// as thumbnails-1.jpg, thumbnails-2.jpg and so on. Labels are the
// 0-based slide indexes used by the inventory.
func Thumbnails(ctx context.Context, in, dir string, opts ThumbnailOptions) ([]string, error) {
	opts.defaults()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating thumbnail directory: %w", err)
	}

	work, err := os.MkdirTemp("", "officekit-thumbs-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(work)

	so := office.NewSoffice(opts.Runner, opts.ProfileDir)
	pdfPath, err := so.Convert(ctx, in, "pdf", work, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("converting %s to PDF: %w", in, err)
	}

	doc, err := pdf.Open(pdfPath, pdf.Config{Runner: opts.Runner, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}

	slides := make([]image.Image, 0, doc.PageCount())
	for page := 1; page <= doc.PageCount(); page++ {
		imgPath, err := doc.Rasterize(ctx, page, opts.DPI, work)
		if err != nil {
			return nil, fmt.Errorf("rasterizing slide %d: %w", page-1, err)
		}
		img, err := loadPNG(imgPath)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", page-1, err)
		}
		slides = append(slides, img)
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("no slides rendered from %s", in)
	}

	perGrid := opts.GridCapacity()
	grids := (len(slides) + perGrid - 1) / perGrid
	var written []string
	for g := 0; g < grids; g++ {
		start := g * perGrid
		end := min(start+perGrid, len(slides))

		name := "thumbnails.jpg"
		if grids > 1 {
			name = "thumbnails-" + strconv.Itoa(g+1) + ".jpg"
		}
		out := filepath.Join(dir, name)
		grid := composeGrid(slides[start:end], start, opts.Columns, opts.Width)
		if err := saveJPEG(out, grid); err != nil {
			return written, err
		}
		opts.Logger.Debug("wrote thumbnail grid", "path", out, "slides", end-start)
		written = append(written, out)
	}
	return written, nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func saveJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// composeGrid lays slides out row-major, each scaled to width and
// labelled with its slide index starting at first.
func composeGrid(slides []image.Image, first, cols, width int) *image.RGBA {
	b := slides[0].Bounds()
	height := width * b.Dy() / max(b.Dx(), 1)
	if height <= 0 {
		height = width * 3 / 4
	}

	cols = min(cols, len(slides))
	rows := (len(slides) + cols - 1) / cols
	cellW := width + gridPadding
	cellH := height + labelHeight + gridPadding

	grid := image.NewRGBA(image.Rect(0, 0, cols*cellW+gridPadding, rows*cellH+gridPadding))
	draw.Draw(grid, grid.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	for i, img := range slides {
		x := gridPadding + (i%cols)*cellW
		y := gridPadding + (i/cols)*cellH

		d := &font.Drawer{
			Dst:  grid,
			Src:  image.NewUniform(color.Black),
			Face: face,
			Dot:  fixed.P(x, y+face.Ascent),
		}
		d.DrawString(strconv.Itoa(first + i))

		dst := image.Rect(x, y+labelHeight, x+width, y+labelHeight+height)
		draw.CatmullRom.Scale(grid, dst, img, img.Bounds(), draw.Over, nil)
		drawBorder(grid, dst, color.Gray{Y: 160})
	}
	return grid
}

func drawBorder(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}
