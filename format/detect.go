// Package format identifies the document formats officekit works with.
package format

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a supported document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF indicates a PDF document.
	PDF
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// XLSX indicates a Microsoft Excel (.xlsx) workbook.
	XLSX
	// PPTX indicates a Microsoft PowerPoint (.pptx) presentation.
	PPTX
	// HTML indicates an HTML page, the input of the render workflow.
	HTML
)

var names = map[Format]string{
	PDF:  "PDF",
	DOCX: "DOCX",
	XLSX: "XLSX",
	PPTX: "PPTX",
	HTML: "HTML",
}

var extensions = map[string]Format{
	".pdf":  PDF,
	".docx": DOCX,
	".xlsx": XLSX,
	".xlsm": XLSX,
	".pptx": PPTX,
	".html": HTML,
	".htm":  HTML,
}

// String returns the string representation of the format.
func (f Format) String() string {
	if s, ok := names[f]; ok {
		return s
	}
	return "Unknown"
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	if f == Unknown || names[f] == "" {
		return ""
	}
	return "." + strings.ToLower(names[f])
}

// Parse returns the format named s ("pdf", "DOCX", ".xlsx").
func Parse(s string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(key, ".") {
		key = "." + key
	}
	if f, ok := extensions[key]; ok {
		return f, nil
	}
	return Unknown, fmt.Errorf("unknown format %q", s)
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	return extensions[strings.ToLower(filepath.Ext(filename))]
}

// DetectFile identifies the file at path from its content, falling back
// to the extension when the content is inconclusive.
func DetectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Unknown, err
	}
	got, err := DetectFromReader(f, info.Size())
	if err != nil || got == Unknown {
		return Detect(path), nil
	}
	return got, nil
}

// DetectFromMagic checks file magic bytes. ZIP containers are reported
// as Unknown; DetectFromReader tells the Office formats apart.
func DetectFromMagic(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return PDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return Unknown
	case looksLikeHTML(data):
		return HTML
	}
	return Unknown
}

func looksLikeHTML(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	head := strings.ToUpper(string(data[:min(512, len(data))]))
	switch {
	case strings.HasPrefix(head, "<!DOCTYPE HTML"), strings.HasPrefix(head, "<HTML"):
		return true
	case strings.HasPrefix(head, "<?XML"):
		return strings.Contains(head, "<HTML")
	}
	return false
}

// DetectFromReader inspects the content to determine format and can
// distinguish between the ZIP-based formats.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 512)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if bytes.HasPrefix(magic, []byte("PK\x03\x04")) {
		return detectZIPFormat(r, size)
	}
	return DetectFromMagic(magic), nil
}

// Main parts of the Office Open XML packages.
var mainParts = map[string]Format{
	"word/document.xml":    DOCX,
	"xl/workbook.xml":      XLSX,
	"ppt/presentation.xml": PPTX,
}

func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}
	for _, f := range zr.File {
		if got, ok := mainParts[f.Name]; ok {
			return got, nil
		}
	}
	return Unknown, nil
}
