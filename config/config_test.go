package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/officekit/tables"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, c.Soffice.Timeout)
	assert.Equal(t, "eng", c.OCR.Language)
	assert.Equal(t, 300, c.OCR.DPI)
	assert.Equal(t, 3, c.OCR.PSM)
	assert.Equal(t, "outputs", c.Outputs.Root)
	assert.Equal(t, 20, c.Recalc.MaxLocations)
	assert.Equal(t, 5, c.Thumbnail.Columns)
	assert.Equal(t, 300, c.Thumbnail.Width)
	assert.Equal(t, 1280, c.Render.ViewportWidth)
	assert.Equal(t, 720, c.Render.ViewportHeight)
	assert.Equal(t, "geometric", c.Tables.Detector)
	assert.Equal(t, tables.DefaultConfig(), c.Tables.Thresholds())
	assert.Empty(t, c.Binaries())
}

func TestFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "officekit.yaml"), []byte(`
soffice:
  binary: /opt/libreoffice/program/soffice
  timeout: 45s
ocr:
  language: eng+fra
thumbnail:
  columns: 4
`), 0o644))
	t.Setenv("OFFICEKIT_OCR_DPI", "200")
	t.Setenv("OFFICEKIT_POPPLER_PDFTOPPM", "/usr/local/bin/pdftoppm")

	v, err := New("")
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, c.Soffice.Timeout)
	assert.Equal(t, "eng+fra", c.OCR.Language)
	assert.Equal(t, 200, c.OCR.DPI)
	assert.Equal(t, 4, c.Thumbnail.Columns)
	assert.Equal(t, map[string]string{
		"soffice":  "/opt/libreoffice/program/soffice",
		"pdftoppm": "/usr/local/bin/pdftoppm",
	}, c.Binaries())
}

func TestExplicitFileMustExist(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config")
}

func TestValidate(t *testing.T) {
	c := &Config{Outputs: OutputsConfig{Root: "outputs"}, OCR: OCRConfig{PSM: 14}}
	assert.ErrorContains(t, c.Validate(), "ocr.psm")

	c = &Config{}
	assert.ErrorContains(t, c.Validate(), "outputs.root")
}

func TestKeys(t *testing.T) {
	keys := Keys()
	sort.Strings(keys)
	assert.Contains(t, keys, "recalc.max_locations")
	assert.Contains(t, keys, "render.viewport_height")
	assert.Contains(t, keys, "tables.max_line_gap")
	assert.Len(t, keys, 22)
}

func TestTablesDetector(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "officekit.yaml"), []byte(`
tables:
  min_rows: 3
  max_line_gap: 30
`), 0o644))

	v, err := New("")
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)

	th := c.Tables.Thresholds()
	assert.Equal(t, 3, th.MinRows)
	assert.Equal(t, 30.0, th.MaxLineGap)
	assert.Equal(t, 2, th.MinCols)

	d, err := c.Tables.NewDetector()
	require.NoError(t, err)
	assert.Equal(t, "geometric", d.Name())

	c.Tables.Detector = "lattice"
	_, err = c.Tables.NewDetector()
	assert.ErrorContains(t, err, "unknown detector")
}

func TestValidateTables(t *testing.T) {
	v, err := New(writeConfig(t, "tables:\n  min_confidence: 1.5\n"))
	require.NoError(t, err)
	_, err = Load(v)
	assert.ErrorContains(t, err, "tables.min_confidence")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "officekit.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}
