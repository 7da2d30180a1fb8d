// Package officetest provides a fake process executor for testing code
// that drives external tools through office.Runner.
package officetest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"sync"

	"github.com/tsawler/officekit/office"
)

// HandlerFunc emulates one tool invocation. name is the binary's base name.
type HandlerFunc func(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error

// Executor is an office.Executor that resolves binaries from a fixed set
// and dispatches runs to per-binary handlers.
type Executor struct {
	// Installed binaries. Nil means every binary is installed.
	Installed map[string]bool

	// Handlers keyed by binary base name. Binaries without a handler
	// succeed with no output.
	Handlers map[string]HandlerFunc

	mu    sync.Mutex
	calls [][]string
}

// NewExecutor returns an executor on which every binary is installed.
func NewExecutor() *Executor {
	return &Executor{Handlers: make(map[string]HandlerFunc)}
}

// Handle registers fn for the binary name and returns the executor.
func (e *Executor) Handle(name string, fn HandlerFunc) *Executor {
	if e.Handlers == nil {
		e.Handlers = make(map[string]HandlerFunc)
	}
	e.Handlers[name] = fn
	return e
}

// LookPath implements office.Executor.
func (e *Executor) LookPath(file string) (string, error) {
	if e.Installed != nil && !e.Installed[file] {
		return "", errors.New("executable file not found in $PATH: " + file)
	}
	return "/usr/bin/" + file, nil
}

// Run implements office.Executor.
func (e *Executor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	base := path.Base(name)
	e.mu.Lock()
	e.calls = append(e.calls, append([]string{base}, args...))
	fn := e.Handlers[base]
	e.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx, base, args, stdout, stderr)
}

// Calls returns every recorded invocation as binary name followed by args.
func (e *Executor) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.calls))
	copy(out, e.calls)
	return out
}

// Runner returns an office.Runner backed by e that discards logs.
func (e *Executor) Runner() *office.Runner {
	return office.NewRunner(office.Config{
		Executor: e,
		Logger:   slog.New(slog.DiscardHandler),
	})
}
