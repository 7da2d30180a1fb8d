//go:build ocr

package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestClientRecognize(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer client.Close()

	if err := client.SetLanguage("eng"); err != nil {
		t.Skipf("eng traineddata not available: %v", err)
	}

	p := filepath.Join(t.TempDir(), "page.png")
	if err := os.WriteFile(p, createTestPNG(100, 50, true), 0o644); err != nil {
		t.Fatal(err)
	}

	// The image is a plain rectangle; only check that recognition runs.
	if _, err := client.Recognize(context.Background(), p); err != nil {
		t.Errorf("Recognize failed: %v", err)
	}
}

func TestCloseTwice(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	client.client = nil
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client failed: %v", err)
	}
}
