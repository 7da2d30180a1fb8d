package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/officekit/config"
	"github.com/tsawler/officekit/internal/testpdf"
	"github.com/tsawler/officekit/outputs"
	"github.com/tsawler/officekit/skills"
)

// sandbox runs the test in an empty directory with no user config.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	return dir
}

func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := run(context.Background(), args, &out)
	return code, out.String()
}

// resetFlags restores the flags of cmd after the test; commands are
// package globals and keep parsed values between runs.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	t.Cleanup(func() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
}

func TestDocumentedCommandsExist(t *testing.T) {
	assert.Subset(t, commandPaths(), skills.Commands)
}

func TestSkillsLint(t *testing.T) {
	sandbox(t)
	code, out := execute(t, "skills", "lint")
	require.Equal(t, 0, code, out)
	assert.JSONEq(t, `{"status":"ok"}`, out)
}

func TestSkillsList(t *testing.T) {
	sandbox(t)
	code, out := execute(t, "skills", "list")
	require.Equal(t, 0, code, out)

	var list []skills.Skill
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 4)
	assert.Equal(t, "docx", list[0].Name)
}

func TestVersion(t *testing.T) {
	sandbox(t)
	code, out := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "officekit dev\n", out)
}

func TestErrorsAreJSON(t *testing.T) {
	sandbox(t)
	code, out := execute(t, "xlsx", "scan", "missing.xlsx")
	assert.Equal(t, 1, code)

	var res map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Contains(t, res["error"], "missing.xlsx")
}

func TestRecalcRejectsBadTimeout(t *testing.T) {
	sandbox(t)
	code, out := execute(t, "recalc", "book.xlsx", "soon")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "timeout must be a positive number of seconds")
}

func TestXLSXScan(t *testing.T) {
	dir := sandbox(t)
	path := filepath.Join(dir, "book.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"[Content_Types].xml": `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"xl/workbook.xml": `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
			`<sheets><sheet name="Summary" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/worksheets/sheet1.xml": `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>` +
			`<row r="5"><c r="B5" t="e"><f>Gone!A1</f><v>#REF!</v></c></row></sheetData></worksheet>`,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	code, out := execute(t, "xlsx", "scan", path)
	require.Equal(t, 0, code, out)
	assert.JSONEq(t, `{
		"status": "errors_found",
		"total_errors": 1,
		"total_formulas": 1,
		"error_summary": {"#REF!": {"count": 1, "locations": ["Summary!B5"]}}
	}`, out)
}

func TestRecordOutputs(t *testing.T) {
	dir := sandbox(t)
	v, err := config.New("")
	require.NoError(t, err)
	cfg, err = config.Load(v)
	require.NoError(t, err)
	logger = slog.New(slog.DiscardHandler)
	t.Cleanup(func() { cfg = nil })

	doc := filepath.Join("outputs", "sales-deck")
	require.NoError(t, os.MkdirAll(doc, 0o755))
	out := filepath.Join(doc, "inventory.json")
	require.NoError(t, os.WriteFile(out, []byte("{}"), 0o644))

	recordOutputs("inventory", []string{"deck.pptx"}, out, filepath.Join(dir, "elsewhere.json"))

	_, err = os.Stat(filepath.Join("outputs", ".gitignore"))
	require.NoError(t, err)
	m, err := outputs.LoadManifest(doc)
	require.NoError(t, err)
	assert.Equal(t, "inventory", m.Tool)
	assert.Equal(t, []string{"deck.pptx"}, m.Inputs)
	assert.Equal(t, []string{"inventory.json"}, m.Files)
}

func TestWrongFormatIsRejected(t *testing.T) {
	dir := sandbox(t)
	book := filepath.Join(dir, "book.xlsx")
	require.NoError(t, os.WriteFile(book, testpdf.Build("not a workbook"), 0o644))

	code, out := execute(t, "xlsx", "scan", book)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "is not a XLSX file (detected PDF)")

	code, out = execute(t, "pdf", "text", filepath.Join(dir, "missing.pdf"))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "missing.pdf")
}

func TestPDFValidate(t *testing.T) {
	dir := sandbox(t)
	good := testpdf.Write(t, "good.pdf", "hello")
	bad := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("not a pdf"), 0o644))

	code, out := execute(t, "pdf", "validate", good)
	require.Equal(t, 0, code, out)
	assert.JSONEq(t, `{"status":"ok","files":[{"file":"`+good+`","valid":true}]}`, out)

	code, out = execute(t, "pdf", "validate", good, bad)
	require.Equal(t, 0, code, out)
	var res struct {
		Status string       `json:"status"`
		Files  []validation `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "invalid", res.Status)
	require.Len(t, res.Files, 2)
	assert.True(t, res.Files[0].Valid)
	assert.False(t, res.Files[1].Valid)
	assert.NotEmpty(t, res.Files[1].Error)
}

func TestPDFTablesDetectorFlag(t *testing.T) {
	sandbox(t)
	resetFlags(t, pdfTablesCmd)
	path := testpdf.Write(t, "report.pdf", "Item Qty")

	code, out := execute(t, "pdf", "tables", "--detector", "lattice", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, `unknown detector \"lattice\"`)
}

func TestPDFTablesXLSXDefaultsToOutputsFolder(t *testing.T) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		t.Skip("pdftotext not available")
	}
	dir := sandbox(t)
	resetFlags(t, pdfTablesCmd)
	path := testpdf.Write(t, "Annual Report.pdf", "Item Qty")

	code, out := execute(t, "pdf", "tables", "--format", "xlsx", path)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, `"detector": "geometric"`)
	info, err := os.Stat(filepath.Join(dir, "outputs", "annual-report"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestXLSXRecalcFlags(t *testing.T) {
	sandbox(t)
	resetFlags(t, xlsxRecalcCmd)

	for _, cmd := range []*cobra.Command{xlsxRecalcCmd, recalcCmd, xlsxScanCmd} {
		f := cmd.Flags().Lookup("max-locations")
		require.NotNil(t, f, cmd.CommandPath())
		assert.Equal(t, []string{"recalc.max_locations"}, f.Annotations[configKey])
	}

	code, out := execute(t, "xlsx", "recalc", "--copy", "--output", "copy.xlsx", "book.xlsx")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "none of the others can be")
}

func TestThumbnailArgs(t *testing.T) {
	dir := sandbox(t)
	code, out := execute(t, "thumbnail", "deck.pptx", "out", "4")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "accepts 2 arg(s), received 3")

	f := thumbnailCmd.Flags().Lookup("columns")
	require.NotNil(t, f)
	assert.Equal(t, []string{"thumbnail.columns"}, f.Annotations[configKey])

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("plain text"), 0o644))
	code, out = execute(t, "pptx", "thumbnail", notes)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "is not a PPTX file")
	assert.NoDirExists(t, filepath.Join(dir, "outputs"))
}
