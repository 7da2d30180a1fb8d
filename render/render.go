// Package render turns HTML files into PNG screenshots or PDF documents
// with a headless Chrome driven over the DevTools protocol.
package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Defaults for Config.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultTimeout        = 60 * time.Second
)

// Kind is an output type.
type Kind string

const (
	PNG Kind = "png"
	PDF Kind = "pdf"
)

// KindFromPath returns the output kind implied by a file extension.
func KindFromPath(p string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".png":
		return PNG, nil
	case ".pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("render: cannot infer output type from %q (want .png or .pdf)", p)
}

// Config configures a Renderer.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome.
	// Empty launches a local headless Chrome, downloading one if needed.
	RemoteURL string

	// Viewport in CSS pixels.
	ViewportWidth  int
	ViewportHeight int

	// FullPage captures the whole document height in screenshots.
	FullPage bool

	// Timeout bounds each render.
	Timeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = DefaultViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = DefaultViewportHeight
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Renderer holds a connected browser.
type Renderer struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// New launches (or connects to) Chrome.
func New(cfg Config) (*Renderer, error) {
	cfg.defaults()
	log := cfg.Logger

	r := &Renderer{cfg: cfg}
	wsURL := cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("render: launch: %w", err)
		}
		wsURL = u
		r.lnch = l
		log.Debug("render: launched local chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		r.cleanup()
		return nil, fmt.Errorf("render: connect: %w", err)
	}
	r.browser = b
	return r, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.cleanup()
	return err
}

func (r *Renderer) cleanup() {
	if r.lnch != nil {
		r.lnch.Kill()
		r.lnch.Cleanup()
		r.lnch = nil
	}
}

// fileURL returns the file:// URL of a local path.
func fileURL(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// Render loads the HTML file at in and writes it to out as kind.
func (r *Renderer) Render(ctx context.Context, in, out string, kind Kind) error {
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("render: input: %w", err)
	}
	target, err := fileURL(in)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	page, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return fmt.Errorf("render: new page: %w", err)
	}
	defer page.Close()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.cfg.ViewportWidth,
		Height:            r.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("render: viewport: %w", err)
	}
	if err := page.Navigate(target); err != nil {
		return fmt.Errorf("render: navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("render: load: %w", err)
	}

	var data []byte
	switch kind {
	case PNG:
		data, err = page.Screenshot(r.cfg.FullPage, &proto.PageCaptureScreenshot{
			Format: proto.PageCaptureScreenshotFormatPng,
		})
		if err != nil {
			return fmt.Errorf("render: screenshot: %w", err)
		}
	case PDF:
		stream, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
		if err != nil {
			return fmt.Errorf("render: print to pdf: %w", err)
		}
		data, err = io.ReadAll(stream)
		if err != nil {
			return fmt.Errorf("render: reading pdf: %w", err)
		}
	default:
		return fmt.Errorf("render: unsupported output type %q", kind)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("render: output directory: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("render: writing output: %w", err)
	}
	r.cfg.Logger.Debug("render: wrote output", "input", in, "output", out, "kind", kind, "bytes", len(data))
	return nil
}

// File renders one HTML file with a short-lived browser. The output type
// follows the extension of out.
func File(ctx context.Context, in, out string, cfg Config) error {
	kind, err := KindFromPath(out)
	if err != nil {
		return err
	}
	r, err := New(cfg)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Render(ctx, in, out, kind)
}

// BrowserAvailable reports whether a local Chrome or Chromium can be
// launched without downloading one.
func BrowserAvailable() bool {
	_, ok := launcher.LookPath()
	return ok
}
