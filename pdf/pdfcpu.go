package pdf

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, newConfiguration())
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read %s: %w", path, err)
	}
	return ctx.PageCount, nil
}

// Validate checks the PDF at path for structural errors.
func Validate(path string) error {
	if err := api.ValidateFile(path, newConfiguration()); err != nil {
		return fmt.Errorf("pdfcpu validate %s: %w", path, err)
	}
	return nil
}

// Merge concatenates inputs, in order, into out.
func Merge(out string, inputs ...string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("merge: no input files")
	}
	if err := api.MergeCreateFile(inputs, out, false, newConfiguration()); err != nil {
		return fmt.Errorf("pdfcpu merge: %w", err)
	}
	return nil
}

// Split writes in to outDir as files of span pages each.
func Split(in, outDir string, span int) error {
	if span < 1 {
		return fmt.Errorf("split: span must be at least 1, got %d", span)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := api.SplitFile(in, outDir, span, newConfiguration()); err != nil {
		return fmt.Errorf("pdfcpu split: %w", err)
	}
	return nil
}

// ExtractPages writes the given 1-indexed pages of in to out.
func ExtractPages(in, out string, pages []int) error {
	if len(pages) == 0 {
		return fmt.Errorf("extract: no pages selected")
	}
	sel := make([]string, len(pages))
	for i, p := range pages {
		sel[i] = strconv.Itoa(p)
	}
	if err := api.TrimFile(in, out, sel, newConfiguration()); err != nil {
		return fmt.Errorf("pdfcpu extract pages: %w", err)
	}
	return nil
}
