package ocr

import (
	"context"
	"errors"
)

var (
	// ErrOCRNotEnabled is returned by New when libtesseract support was not
	// compiled in. Rebuild with -tags ocr to enable it.
	ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

	// ErrNoText is returned when no page yielded any text.
	ErrNoText = errors.New("ocr: no text recognized")
)

// Recognizer turns a page image file (PNG, TIFF, JPEG) into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// PageSegMode controls how Tesseract analyzes the page layout.
type PageSegMode int

// Page segmentation modes, numbered as in Tesseract.
const (
	PSMOSDOnly             PageSegMode = 0  // Orientation and script detection only
	PSMAutoOSD             PageSegMode = 1  // Automatic with OSD
	PSMAutoOnly            PageSegMode = 2  // Automatic, no OSD or OCR
	PSMAuto                PageSegMode = 3  // Fully automatic (default)
	PSMSingleColumn        PageSegMode = 4  // Single column of variable sizes
	PSMSingleBlockVertText PageSegMode = 5  // Single uniform block of vertically aligned text
	PSMSingleBlock         PageSegMode = 6  // Single uniform block of text
	PSMSingleLine          PageSegMode = 7  // Single text line
	PSMSingleWord          PageSegMode = 8  // Single word
	PSMCircleWord          PageSegMode = 9  // Single word in a circle
	PSMSingleChar          PageSegMode = 10 // Single character
	PSMSparseText          PageSegMode = 11 // Find as much text as possible
	PSMSparseTextOSD       PageSegMode = 12 // Sparse text with OSD
	PSMRawLine             PageSegMode = 13 // Treat image as single text line
)

// Valid reports whether m is a known mode.
func (m PageSegMode) Valid() bool {
	return m >= PSMOSDOnly && m <= PSMRawLine
}
