package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromPath(t *testing.T) {
	k, err := KindFromPath("out/page.PNG")
	require.NoError(t, err)
	assert.Equal(t, PNG, k)

	k, err = KindFromPath("doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, PDF, k)

	_, err = KindFromPath("page.jpg")
	assert.Error(t, err)
}

func TestFileURL(t *testing.T) {
	u, err := fileURL("page with space.html")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file:///"), u)
	assert.Contains(t, u, "page%20with%20space.html")
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.defaults()
	assert.Equal(t, DefaultViewportWidth, c.ViewportWidth)
	assert.Equal(t, DefaultViewportHeight, c.ViewportHeight)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.NotNil(t, c.Logger)
}

func TestFileRejectsUnknownOutput(t *testing.T) {
	err := File(context.Background(), "in.html", "out.gif", Config{})
	assert.ErrorContains(t, err, "cannot infer output type")
}

func TestRender(t *testing.T) {
	if testing.Short() || !BrowserAvailable() {
		t.Skip("no local Chrome or Chromium")
	}

	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(in, []byte(`<!DOCTYPE html><html><body style="background:#c00"><h1>Hello</h1></body></html>`), 0o644))

	r, err := New(Config{ViewportWidth: 400, ViewportHeight: 300})
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	pngOut := filepath.Join(dir, "out", "page.png")
	require.NoError(t, r.Render(ctx, in, pngOut, PNG))
	data, err := os.ReadFile(pngOut)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	pdfOut := filepath.Join(dir, "page.pdf")
	require.NoError(t, r.Render(ctx, in, pdfOut, PDF))
	data, err = os.ReadFile(pdfOut)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	assert.Error(t, r.Render(ctx, filepath.Join(dir, "missing.html"), pdfOut, PDF))
}
