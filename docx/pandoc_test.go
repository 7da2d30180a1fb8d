package docx

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/tsawler/officekit/office"
	"github.com/tsawler/officekit/office/officetest"
)

func fakePandoc() *officetest.Executor {
	return officetest.NewExecutor().Handle("pandoc", func(_ context.Context, _ string, args []string, stdout, _ io.Writer) error {
		if i := slices.Index(args, "-o"); i >= 0 {
			return os.WriteFile(args[i+1], []byte("# converted\n"), 0o644)
		}
		_, err := io.WriteString(stdout, "# converted\n")
		return err
	})
}

func TestConvertWithPandoc(t *testing.T) {
	in := createTestDOCX(t, p("", "Hello"), nil)
	out := filepath.Join(t.TempDir(), "nested", "doc.md")
	fx := fakePandoc()

	if err := ConvertWithPandoc(context.Background(), in, out, PandocConfig{Runner: fx.Runner()}); err != nil {
		t.Fatalf("ConvertWithPandoc failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "# converted\n" {
		t.Fatalf("output = %q, %v", data, err)
	}

	want := []string{"pandoc", "--track-changes=all", in, "-o", out}
	if calls := fx.Calls(); len(calls) != 1 || !slices.Equal(calls[0], want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestMarkdownWithPandoc(t *testing.T) {
	in := createTestDOCX(t, p("", "Hello"), nil)
	fx := fakePandoc()

	md, err := MarkdownWithPandoc(context.Background(), in, PandocConfig{Runner: fx.Runner(), TrackChanges: "accept"})
	if err != nil {
		t.Fatalf("MarkdownWithPandoc failed: %v", err)
	}
	if md != "# converted\n" {
		t.Errorf("markdown = %q", md)
	}
	want := []string{"pandoc", "--track-changes=accept", "-t", "markdown", in}
	if calls := fx.Calls(); !slices.Equal(calls[0], want) {
		t.Errorf("args = %v, want %v", calls[0], want)
	}
}

func TestPandocErrors(t *testing.T) {
	in := createTestDOCX(t, p("", "Hello"), nil)
	ctx := context.Background()

	fx := fakePandoc()
	fx.Installed = map[string]bool{}
	err := ConvertWithPandoc(ctx, in, filepath.Join(t.TempDir(), "x.md"), PandocConfig{Runner: fx.Runner()})
	if !errors.Is(err, office.ErrToolNotFound) {
		t.Errorf("missing pandoc: got %v, want ErrToolNotFound", err)
	}

	if _, err := MarkdownWithPandoc(ctx, in, PandocConfig{Runner: fakePandoc().Runner(), TrackChanges: "maybe"}); err == nil {
		t.Error("invalid track-changes mode accepted")
	}

	if _, err := MarkdownWithPandoc(ctx, filepath.Join(t.TempDir(), "none.docx"), PandocConfig{Runner: fakePandoc().Runner()}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing input: got %v", err)
	}
}
