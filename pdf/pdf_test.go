package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/officekit/internal/testpdf"
	"github.com/tsawler/officekit/office"
	"github.com/tsawler/officekit/office/officetest"
)

const bboxSample = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title></title></head>
<body>
<doc>
  <page width="612.000000" height="792.000000">
    <flow>
      <block xMin="72.0" yMin="100.0" xMax="330.0" yMax="110.0">
        <line xMin="72.0" yMin="100.0" xMax="330.0" yMax="110.0">
          <word xMin="72.000000" yMin="100.000000" xMax="96.000000" yMax="110.000000">Item</word>
          <word xMin="200.000000" yMin="100.000000" xMax="218.000000" yMax="110.000000">Q&amp;A</word>
        </line>
      </block>
    </flow>
  </page>
  <page width="612.000000" height="792.000000">
  </page>
</doc>
</body>
</html>
`

func TestParseBBox(t *testing.T) {
	pages, err := ParseBBox(strings.NewReader(bboxSample), 4)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, 4, pages[0].Number)
	assert.Equal(t, 5, pages[1].Number)
	assert.Equal(t, 612.0, pages[0].Width)
	assert.Empty(t, pages[1].Words)

	require.Len(t, pages[0].Words, 2)
	w := pages[0].Words[1]
	assert.Equal(t, "Q&A", w.Text)
	assert.Equal(t, 200.0, w.BBox.Left())
	assert.Equal(t, 218.0, w.BBox.Right())
	assert.Equal(t, 100.0, w.BBox.Top())
	assert.Equal(t, 110.0, w.BBox.Bottom())
}

func TestParsePages(t *testing.T) {
	tests := []struct {
		sel     string
		total   int
		want    []int
		wantErr bool
	}{
		{sel: "", total: 3, want: []int{1, 2, 3}},
		{sel: "2", total: 3, want: []int{2}},
		{sel: "3,1-2,2", total: 5, want: []int{1, 2, 3}},
		{sel: "4-", total: 5, want: []int{4, 5}},
		{sel: "-2", total: 5, want: []int{1, 2}},
		{sel: "0", total: 5, wantErr: true},
		{sel: "6", total: 5, wantErr: true},
		{sel: "3-1", total: 5, wantErr: true},
		{sel: "x", total: 5, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			got, err := ParsePages(tt.sel, tt.total)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPdfcpuOperations(t *testing.T) {
	a := testpdf.Write(t, "a.pdf", "one", "two")
	b := testpdf.Write(t, "b.pdf", "three")

	n, err := PageCount(a)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, Validate(a))

	dir := t.TempDir()
	merged := filepath.Join(dir, "merged.pdf")
	require.NoError(t, Merge(merged, a, b))
	n, err = PageCount(merged)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	single := filepath.Join(dir, "second.pdf")
	require.NoError(t, ExtractPages(merged, single, []int{2}))
	n, err = PageCount(single)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	splitDir := filepath.Join(dir, "split")
	require.NoError(t, Split(merged, splitDir, 1))
	parts, err := filepath.Glob(filepath.Join(splitDir, "*.pdf"))
	require.NoError(t, err)
	assert.Len(t, parts, 3)
}

func TestPdfcpuArgumentErrors(t *testing.T) {
	assert.Error(t, Merge("out.pdf"))
	assert.Error(t, Split("in.pdf", t.TempDir(), 0))
	assert.Error(t, ExtractPages("in.pdf", "out.pdf", nil))
	_, err := PageCount(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

// wordXML renders rows of cells as pdftotext bbox words: row r sits at
// y=100+14r and cell c at x=72+120c.
func wordXML(rows [][]string) string {
	var sb strings.Builder
	sb.WriteString(`<page width="612" height="792">`)
	for r, row := range rows {
		y := 100 + 14*r
		for c, cell := range row {
			if cell == "" {
				continue
			}
			x := 72 + 120*c
			fmt.Fprintf(&sb, `<word xMin="%d" yMin="%d" xMax="%d" yMax="%d">%s</word>`,
				x, y, x+6*len(cell), y+10, cell)
		}
	}
	sb.WriteString(`</page>`)
	return sb.String()
}

// fakePoppler serves pdftotext -bbox-layout output from per-page pages.
func fakePoppler(pages map[string]string) *officetest.Executor {
	return officetest.NewExecutor().Handle("pdftotext", func(_ context.Context, _ string, args []string, stdout, _ io.Writer) error {
		if args[0] == "-layout" {
			_, err := io.WriteString(stdout, "plain text\f")
			return err
		}
		// -bbox-layout -f N -l N path -
		page := args[2]
		_, err := io.WriteString(stdout, "<html><body><doc>"+pages[page]+"</doc></body></html>")
		return err
	})
}

func openTest(t *testing.T, fx *officetest.Executor, pages ...string) *Document {
	t.Helper()
	path := testpdf.Write(t, "doc.pdf", pages...)
	doc, err := Open(path, Config{Runner: fx.Runner(), Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	return doc
}

func TestWords(t *testing.T) {
	fx := fakePoppler(map[string]string{"1": wordXML([][]string{{"A", "B"}})})
	doc := openTest(t, fx, "p1")

	words, err := doc.Words(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, "B", words[1].Text)

	calls := fx.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"pdftotext", "-bbox-layout", "-f", "1", "-l", "1", doc.Path(), "-"}, calls[0])

	_, err = doc.Words(context.Background(), 2)
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	fx := fakePoppler(nil)
	doc := openTest(t, fx, "p1", "p2")

	text, err := doc.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain text\f", text)

	text, err = doc.Text(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "plain text\fplain text\f", text)
}

func TestTablesStitched(t *testing.T) {
	header := []string{"Name", "Amount"}
	fx := fakePoppler(map[string]string{
		"1": wordXML([][]string{header, {"a", "1"}}),
		"2": wordXML([][]string{header, {"b", "2"}}),
		"3": "<page></page>",
	})
	doc := openTest(t, fx, "p1", "p2", "p3")

	res, err := doc.Tables(context.Background(), TableOptions{Stitch: true})
	require.NoError(t, err)
	require.Len(t, res.Tables, 1)
	assert.Equal(t, [][]string{header, {"a", "1"}, {"b", "2"}}, res.Tables[0].Rows)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 3, res.Warnings[0].Page)
}

func TestTablesPerPage(t *testing.T) {
	fx := fakePoppler(map[string]string{
		"1": wordXML([][]string{{"Name", "Amount"}, {"a", "1"}}),
		"2": wordXML([][]string{{"X", "Y", "Z"}, {"b", "", "c"}}),
	})
	doc := openTest(t, fx, "p1", "p2")

	res, err := doc.Tables(context.Background(), TableOptions{Pages: []int{2}, FillMerged: true})
	require.NoError(t, err)
	require.Len(t, res.Tables, 1)
	assert.Equal(t, 2, res.Tables[0].Page)
	assert.Equal(t, [][]string{{"X", "Y", "Z"}, {"b", "b", "c"}}, res.Tables[0].Rows)
}

func TestTablesRejectsBadPage(t *testing.T) {
	doc := openTest(t, fakePoppler(nil), "p1")
	_, err := doc.Tables(context.Background(), TableOptions{Pages: []int{9}})
	assert.Error(t, err)
}

func TestRasterize(t *testing.T) {
	fx := officetest.NewExecutor().Handle("pdftoppm", func(_ context.Context, _ string, args []string, _, _ io.Writer) error {
		prefix := args[len(args)-1]
		return os.WriteFile(prefix+".png", []byte("png"), 0o644)
	})
	doc := openTest(t, fx, "p1", "p2")

	out, err := doc.Rasterize(context.Background(), 2, 150, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "page-2.png", filepath.Base(out))

	call := fx.Calls()[0]
	assert.Equal(t, []string{"pdftoppm", "-png", "-r", "150", "-f", "2", "-l", "2", "-singlefile"}, call[:9])
}

func TestMissingPoppler(t *testing.T) {
	fx := officetest.NewExecutor()
	fx.Installed = map[string]bool{}
	doc := openTest(t, fx, "p1")

	_, err := doc.Words(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, office.ErrToolNotFound))
}
