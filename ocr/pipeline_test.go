package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/officekit/internal/testpdf"
	"github.com/tsawler/officekit/office"
	"github.com/tsawler/officekit/office/officetest"
)

// createTestPNG returns a white image, with a black block when ink is set.
func createTestPNG(width, height int, ink bool) []byte {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	if ink {
		for x := 10; x < 50; x++ {
			for y := 10; y < 30; y++ {
				img.Set(x, y, color.Black)
			}
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// fakeTools renders the pages listed in inked with a black block and every
// other page blank. tesseract answers with text.
func fakeTools(inked map[string]bool, text string) *officetest.Executor {
	return officetest.NewExecutor().
		Handle("pdftoppm", func(_ context.Context, _ string, args []string, _, _ io.Writer) error {
			// -png -r DPI -f N -l N -singlefile in prefix
			page := args[4]
			prefix := args[len(args)-1]
			return os.WriteFile(prefix+".png", createTestPNG(100, 50, inked[page]), 0o644)
		}).
		Handle("tesseract", func(_ context.Context, _ string, _ []string, stdout, _ io.Writer) error {
			_, err := io.WriteString(stdout, text+"\n")
			return err
		})
}

func newTestPipeline(fx *officetest.Executor, cfg Config) *Pipeline {
	runner := fx.Runner()
	cfg.Runner = runner
	cfg.Logger = slog.New(slog.DiscardHandler)
	if cfg.Recognizer == nil {
		cfg.Recognizer = &Tesseract{Runner: runner, Language: cfg.Language, PSM: cfg.PSM}
	}
	return NewPipeline(cfg)
}

func TestPipelineRun(t *testing.T) {
	path := testpdf.Write(t, "scan.pdf", "a", "b")
	fx := fakeTools(map[string]bool{"1": true}, "Hello page")

	res, err := newTestPipeline(fx, Config{Language: "eng+deu", DPI: 200}).Run(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, res.Pages, 1)
	assert.Equal(t, PageText{Page: 1, Text: "Hello page"}, res.Pages[0])
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 2, res.Warnings[0].Page)
	assert.Equal(t, "Hello page", res.Text())

	var tess []string
	for _, c := range fx.Calls() {
		if c[0] == "tesseract" {
			tess = c
		}
		if c[0] == "pdftoppm" {
			assert.Equal(t, "200", c[3])
		}
	}
	require.NotNil(t, tess)
	assert.Equal(t, []string{"stdout", "-l", "eng+deu", "--psm", "3"}, tess[2:])
}

func TestPipelineSelectedPages(t *testing.T) {
	path := testpdf.Write(t, "scan.pdf", "a", "b", "c")
	fx := fakeTools(map[string]bool{"1": true, "2": true, "3": true}, "x")

	res, err := newTestPipeline(fx, Config{Pages: []int{3}}).Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, 3, res.Pages[0].Page)
}

func TestPipelineNothingRecognized(t *testing.T) {
	path := testpdf.Write(t, "blank.pdf", "a")
	fx := fakeTools(nil, "ignored")

	res, err := newTestPipeline(fx, Config{}).Run(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoText))
	require.NotNil(t, res)
	assert.Len(t, res.Warnings, 1)
}

func TestPipelineMissingTesseract(t *testing.T) {
	path := testpdf.Write(t, "scan.pdf", "a")
	fx := fakeTools(map[string]bool{"1": true}, "x")
	fx.Installed = map[string]bool{"pdftoppm": true}

	_, err := newTestPipeline(fx, Config{}).Run(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, office.ErrToolNotFound))
}

func TestTesseractRejectsInvalidPSM(t *testing.T) {
	tess := &Tesseract{Runner: officetest.NewExecutor().Runner(), PSM: 42}
	_, err := tess.Recognize(context.Background(), "page.png")
	assert.Error(t, err)
}

func TestPageSegModeValid(t *testing.T) {
	assert.True(t, PSMAuto.Valid())
	assert.True(t, PSMRawLine.Valid())
	assert.False(t, PageSegMode(14).Valid())
	assert.False(t, PageSegMode(-1).Valid())
}
