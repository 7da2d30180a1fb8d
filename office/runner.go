// Package office runs the external command-line tools the document
// workflows depend on: LibreOffice (soffice), poppler-utils, pandoc and
// tesseract.
//
// Every invocation goes through a Runner, which resolves the binary,
// applies the caller's timeout and turns the usual failure modes into
// sentinel errors:
//
//	r := office.NewRunner(office.Config{})
//	out, err := r.Run(ctx, "pdftotext", []string{"-layout", "in.pdf", "-"}, office.Timeout(30*time.Second))
//	if errors.Is(err, office.ErrToolNotFound) {
//	    // tell the user which package to install
//	}
package office

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrToolNotFound is returned when none of a tool's binaries are on PATH.
	ErrToolNotFound = errors.New("office: tool not found")

	// ErrTimeout is returned when a command outlives its deadline.
	ErrTimeout = errors.New("office: command timed out")
)

// Executor abstracts process execution. The zero Config uses os/exec;
// tests substitute a fake (see package officetest).
type Executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Config configures a Runner.
type Config struct {
	// Binaries overrides the binary used for a tool, keyed by tool name
	// (e.g. "soffice": "/opt/libreoffice/program/soffice").
	Binaries map[string]string

	// Executor runs processes. Defaults to os/exec.
	Executor Executor

	// Logger for debug/error messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Executor == nil {
		c.Executor = osExecutor{}
	}
}

// Runner resolves and executes external tools.
type Runner struct {
	exec     Executor
	binaries map[string]string
	logger   *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg Config) *Runner {
	cfg.defaults()
	bins := make(map[string]string, len(cfg.Binaries))
	for k, v := range cfg.Binaries {
		if v != "" {
			bins[k] = v
		}
	}
	return &Runner{exec: cfg.Executor, binaries: bins, logger: cfg.Logger}
}

// Logger returns the runner's logger.
func (r *Runner) Logger() *slog.Logger {
	return r.logger
}

// Resolve returns the path of the binary that will run for tool.
// An explicit override wins; otherwise the tool's known binaries are
// tried in order. Unknown tool names are looked up as binaries.
func (r *Runner) Resolve(tool string) (string, error) {
	candidates := []string{tool}
	if bin, ok := r.binaries[tool]; ok {
		candidates = []string{bin}
	} else if t, ok := LookupTool(tool); ok {
		candidates = t.Binaries
	}

	for _, bin := range candidates {
		if p, err := r.exec.LookPath(bin); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s (tried %s)", ErrToolNotFound, tool, strings.Join(candidates, ", "))
}

// RunOption adjusts a single invocation.
type RunOption func(*runOptions)

type runOptions struct {
	timeout time.Duration
	stdout  io.Writer
}

// Timeout bounds the invocation. Zero or negative means no bound beyond ctx.
func Timeout(d time.Duration) RunOption {
	return func(o *runOptions) { o.timeout = d }
}

// Stdout streams standard output to w instead of buffering it.
func Stdout(w io.Writer) RunOption {
	return func(o *runOptions) { o.stdout = w }
}

// Run executes tool with args and returns its standard output.
// Standard error is folded into the returned error on failure.
func (r *Runner) Run(ctx context.Context, tool string, args []string, opts ...RunOption) ([]byte, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	bin, err := r.Resolve(tool)
	if err != nil {
		return nil, err
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	var out io.Writer = &stdout
	if o.stdout != nil {
		out = o.stdout
	}

	start := time.Now()
	r.logger.Debug("office: run", "tool", tool, "bin", bin, "args", args)
	err = r.exec.Run(ctx, bin, args, out, &stderr)
	r.logger.Debug("office: done", "tool", tool, "elapsed", time.Since(start), "error", err)

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, tool, o.timeout)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", tool, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", tool, err)
	}
	return stdout.Bytes(), nil
}
