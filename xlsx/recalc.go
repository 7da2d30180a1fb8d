package xlsx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tsawler/officekit/office"
)

// DefaultRecalcTimeout bounds the soffice recalculation run.
const DefaultRecalcTimeout = 30 * time.Second

// RecalcConfig configures Recalculate.
type RecalcConfig struct {
	// Runner executes soffice. Defaults to an os/exec runner.
	Runner *office.Runner

	// ProfileDir is the private LibreOffice profile the macro is
	// installed into. Defaults to <user cache dir>/officekit/soffice.
	ProfileDir string

	// Timeout bounds the soffice run. Defaults to DefaultRecalcTimeout.
	Timeout time.Duration

	// Output, when set, receives a recalculated copy and the input is
	// left untouched. Otherwise the workbook is recalculated in place.
	Output string

	// Scan options applied to the recalculated workbook.
	Scan ScanOptions

	// Logger for debug/error messages.
	Logger *slog.Logger
}

func (c *RecalcConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Runner == nil {
		c.Runner = office.NewRunner(office.Config{Logger: c.Logger})
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultRecalcTimeout
	}
	if c.ProfileDir == "" {
		dir, err := DefaultProfileDir()
		if err != nil {
			return err
		}
		c.ProfileDir = dir
	}
	return nil
}

// DefaultProfileDir returns the LibreOffice profile directory used when
// none is configured.
func DefaultProfileDir() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating cache directory: %w", err)
	}
	return filepath.Join(cache, "officekit", "soffice"), nil
}

// Recalculate has LibreOffice recompute every formula in the workbook at
// path and save it, then scans the result for formula errors. The
// recalculation macro is installed into the profile on first use.
//
// A missing soffice yields office.ErrToolNotFound and an overrun
// office.ErrTimeout.
func Recalculate(ctx context.Context, path string, cfg RecalcConfig) (*Report, error) {
	if err := cfg.defaults(); err != nil {
		return nil, err
	}

	// Refuse non-workbooks before starting LibreOffice.
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	r.Close()

	target := path
	if cfg.Output != "" {
		if err := copyFile(path, cfg.Output); err != nil {
			return nil, fmt.Errorf("copying workbook: %w", err)
		}
		target = cfg.Output
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, err
	}

	so := office.NewSoffice(cfg.Runner, cfg.ProfileDir)
	if err := so.EnsureMacro(ctx); err != nil {
		return nil, fmt.Errorf("installing recalculation macro: %w", err)
	}

	start := time.Now()
	if err := so.RunMacro(ctx, office.MacroRecalculate, abs, cfg.Timeout); err != nil {
		return nil, fmt.Errorf("recalculating %s: %w", filepath.Base(target), err)
	}
	cfg.Logger.Debug("xlsx: recalculated", "file", abs, "elapsed", time.Since(start))

	return Scan(target, cfg.Scan)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
