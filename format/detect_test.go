package format

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{PDF, "PDF"},
		{DOCX, "DOCX"},
		{XLSX, "XLSX"},
		{PPTX, "PPTX"},
		{HTML, "HTML"},
		{Unknown, "Unknown"},
		{Format(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormat_Extension(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{PDF, ".pdf"},
		{DOCX, ".docx"},
		{XLSX, ".xlsx"},
		{PPTX, ".pptx"},
		{HTML, ".html"},
		{Unknown, ""},
		{Format(42), ""},
	}

	for _, tt := range tests {
		if got := tt.format.Extension(); got != tt.want {
			t.Errorf("Format(%d).Extension() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"document.pdf", PDF},
		{"document.PDF", PDF},
		{"report.docx", DOCX},
		{"book.xlsx", XLSX},
		{"macro.XLSM", XLSX},
		{"deck.pptx", PPTX},
		{"/path/to/page.htm", HTML},
		{"notes.odt", Unknown},
		{"noext", Unknown},
	}

	for _, tt := range tests {
		if got := Detect(tt.filename); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	for in, want := range map[string]Format{"pdf": PDF, "DOCX": DOCX, ".xlsx": XLSX, " pptx ": PPTX} {
		got, err := Parse(in)
		if err != nil || got != want {
			t.Errorf("Parse(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := Parse("odt"); err == nil {
		t.Error("Parse(odt) should fail")
	}
}

func TestDetectFromMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"pdf", []byte("%PDF-1.7\n"), PDF},
		{"zip", []byte("PK\x03\x04rest"), Unknown},
		{"doctype", []byte("  <!doctype html><html>"), HTML},
		{"html tag", []byte("<HTML><body>"), HTML},
		{"xhtml", []byte(`<?xml version="1.0"?><html xmlns="http://www.w3.org/1999/xhtml">`), HTML},
		{"plain xml", []byte(`<?xml version="1.0"?><root/>`), Unknown},
		{"short", []byte("%P"), Unknown},
	}
	for _, tt := range tests {
		if got := DetectFromMagic(tt.data); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func zipWith(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range names {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte("<x/>"))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectFromReader(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  Format
	}{
		{"docx", []string{"[Content_Types].xml", "word/document.xml"}, DOCX},
		{"xlsx", []string{"[Content_Types].xml", "xl/workbook.xml", "xl/worksheets/sheet1.xml"}, XLSX},
		{"pptx", []string{"[Content_Types].xml", "ppt/presentation.xml"}, PPTX},
		{"other zip", []string{"readme.txt"}, Unknown},
	}
	for _, tt := range tests {
		data := zipWith(t, tt.parts...)
		got, err := DetectFromReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectFile(t *testing.T) {
	dir := t.TempDir()

	// Content wins over a misleading extension.
	misnamed := filepath.Join(dir, "deck.docx")
	os.WriteFile(misnamed, zipWith(t, "ppt/presentation.xml"), 0o644)
	if got, err := DetectFile(misnamed); err != nil || got != PPTX {
		t.Errorf("DetectFile(misnamed) = %v, %v; want PPTX", got, err)
	}

	// Inconclusive content falls back to the extension.
	empty := filepath.Join(dir, "empty.pdf")
	os.WriteFile(empty, nil, 0o644)
	if got, err := DetectFile(empty); err != nil || got != PDF {
		t.Errorf("DetectFile(empty) = %v, %v; want PDF", got, err)
	}

	if _, err := DetectFile(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("DetectFile(missing) should fail")
	}
}
