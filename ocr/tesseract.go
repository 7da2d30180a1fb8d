package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tsawler/officekit/office"
)

// Tesseract recognizes images with the tesseract command-line tool.
type Tesseract struct {
	Runner   *office.Runner
	Language string        // "+" separated, default "eng"
	PSM      PageSegMode   // default PSMAuto
	Timeout  time.Duration // per image, default one minute
}

// Recognize runs tesseract on an image file, reading the text from
// standard output.
func (t *Tesseract) Recognize(ctx context.Context, path string) (string, error) {
	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	psm := t.PSM
	if psm == PSMOSDOnly {
		psm = PSMAuto
	}
	if !psm.Valid() {
		return "", fmt.Errorf("ocr: invalid page segmentation mode %d", psm)
	}
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	args := []string{path, "stdout", "-l", lang, "--psm", strconv.Itoa(int(psm))}
	out, err := t.Runner.Run(ctx, "tesseract", args, office.Timeout(timeout))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
