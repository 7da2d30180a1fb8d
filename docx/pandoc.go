package docx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tsawler/officekit/office"
)

// DefaultPandocTimeout bounds a pandoc run.
const DefaultPandocTimeout = 2 * time.Minute

// PandocConfig configures pandoc conversions.
type PandocConfig struct {
	// Runner executes pandoc. Defaults to an os/exec runner.
	Runner *office.Runner

	// TrackChanges is passed as --track-changes: accept, reject or all.
	// Defaults to all, which keeps insertions and deletions visible.
	TrackChanges string

	// To is the output format. Empty lets pandoc infer it from the
	// output file extension; Markdown uses "markdown" when empty.
	To string

	Timeout time.Duration
	Logger  *slog.Logger
}

func (c *PandocConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Runner == nil {
		c.Runner = office.NewRunner(office.Config{Logger: c.Logger})
	}
	switch c.TrackChanges {
	case "":
		c.TrackChanges = "all"
	case "accept", "reject", "all":
	default:
		return fmt.Errorf("invalid track-changes mode %q (want accept, reject or all)", c.TrackChanges)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultPandocTimeout
	}
	return nil
}

func (c *PandocConfig) args(in string) []string {
	args := []string{"--track-changes=" + c.TrackChanges}
	if c.To != "" {
		args = append(args, "-t", c.To)
	}
	return append(args, in)
}

// ConvertWithPandoc converts the document at in to out with pandoc,
// keeping tracked changes by default.
func ConvertWithPandoc(ctx context.Context, in, out string, cfg PandocConfig) error {
	if err := cfg.defaults(); err != nil {
		return err
	}
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("input document: %w", err)
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	args := append(cfg.args(in), "-o", out)
	if _, err := cfg.Runner.Run(ctx, "pandoc", args, office.Timeout(cfg.Timeout)); err != nil {
		return err
	}
	cfg.Logger.Debug("pandoc conversion complete", "input", in, "output", out)
	return nil
}

// MarkdownWithPandoc converts the document at in to Markdown with pandoc
// and returns it.
func MarkdownWithPandoc(ctx context.Context, in string, cfg PandocConfig) (string, error) {
	if cfg.To == "" {
		cfg.To = "markdown"
	}
	if err := cfg.defaults(); err != nil {
		return "", err
	}
	if _, err := os.Stat(in); err != nil {
		return "", fmt.Errorf("input document: %w", err)
	}
	out, err := cfg.Runner.Run(ctx, "pandoc", cfg.args(in), office.Timeout(cfg.Timeout))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
