package xlsx

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// sheetFixture is one worksheet of a test workbook.
type sheetFixture struct {
	name  string
	state string // workbook sheet state, e.g. "hidden"
	rows  string // <row> elements
	extra string // XML after sheetData, e.g. mergeCells
}

// createTestXLSX writes a minimal workbook to a temp dir and returns its path.
func createTestXLSX(t *testing.T, sheets []sheetFixture, sharedStrings []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.xlsx")
	writeTestXLSX(t, path, sheets, sharedStrings)
	return path
}

func writeTestXLSX(t *testing.T, path string, sheets []sheetFixture, sharedStrings []string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	writeZipFile(t, zw, "[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
</Types>`)

	writeZipFile(t, zw, "_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`)

	var rels, workbook strings.Builder
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rIdSST" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings" Target="sharedStrings.xml"/>`)
	workbook.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets>`)

	for i, s := range sheets {
		n := strconv.Itoa(i + 1)
		rels.WriteString(`
  <Relationship Id="rId` + n + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet` + n + `.xml"/>`)
		workbook.WriteString(`
  <sheet name="` + s.name + `" sheetId="` + n + `" r:id="rId` + n + `"`)
		if s.state != "" {
			workbook.WriteString(` state="` + s.state + `"`)
		}
		workbook.WriteString(`/>`)

		writeZipFile(t, zw, "xl/worksheets/sheet"+n+".xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<sheetData>`+s.rows+`</sheetData>`+s.extra+`
</worksheet>`)
	}
	rels.WriteString("\n</Relationships>")
	workbook.WriteString("\n</sheets>\n</workbook>")
	writeZipFile(t, zw, "xl/_rels/workbook.xml.rels", rels.String())
	writeZipFile(t, zw, "xl/workbook.xml", workbook.String())

	var ss strings.Builder
	ss.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`)
	for _, s := range sharedStrings {
		ss.WriteString("<si><t>" + s + "</t></si>")
	}
	ss.WriteString("</sst>")
	writeZipFile(t, zw, "xl/sharedStrings.xml", ss.String())

	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
}

func writeZipFile(t *testing.T, zw *zip.Writer, name, content string) {
	t.Helper()
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("Failed to create %s in zip: %v", name, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func basicSheets() []sheetFixture {
	return []sheetFixture{
		{
			name: "Sales",
			rows: `<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
<row r="2"><c r="A2" t="inlineStr"><is><t>North</t></is></c><c r="B2"><v>42</v></c></row>
<row r="3"><c r="A3" t="b"><v>1</v></c><c r="B3"><f>B2*2</f><v>84</v></c></row>
<row r="4"><c r="A4"/><c r="B4"/></row>`,
			extra: `<mergeCells count="1"><mergeCell ref="A4:B4"/></mergeCells>`,
		},
		{
			name:  "Notes",
			state: "hidden",
			rows:  `<row r="2"><c r="C2" t="str"><f>"x"&amp;"y"</f><v>xy</v></c></row>`,
		},
	}
}

func TestOpen(t *testing.T) {
	r, err := Open(createTestXLSX(t, basicSheets(), []string{"Region", "Units"}))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	if r.SheetCount() != 2 {
		t.Fatalf("SheetCount = %d, want 2", r.SheetCount())
	}
	if got := strings.Join(r.SheetNames(), ","); got != "Sales,Notes" {
		t.Errorf("SheetNames = %s", got)
	}

	notes, err := r.SheetByName("Notes")
	if err != nil {
		t.Fatal(err)
	}
	if !notes.Hidden {
		t.Error("Notes should be hidden")
	}
	if c := notes.CellByRef("C2"); c == nil || c.Value != "xy" || !c.HasFormula {
		t.Errorf("C2 = %+v", c)
	}
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	if !errors.Is(err, ErrNotWorkbook) {
		t.Errorf("expected ErrNotWorkbook, got %v", err)
	}
}

func TestOpen_InvalidZip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.xlsx")
	if err := os.WriteFile(p, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(p)
	if !errors.Is(err, ErrNotWorkbook) {
		t.Errorf("expected ErrNotWorkbook, got %v", err)
	}
}

func TestOpen_MissingWorkbook(t *testing.T) {
	p := filepath.Join(t.TempDir(), "doc.xlsx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	writeZipFile(t, zw, "[Content_Types].xml", "<Types/>")
	zw.Close()
	f.Close()

	_, err = Open(p)
	if !errors.Is(err, ErrNotWorkbook) {
		t.Errorf("expected ErrNotWorkbook, got %v", err)
	}
}

func TestCellTypeHandling(t *testing.T) {
	r, err := Open(createTestXLSX(t, basicSheets(), []string{"Region", "Units"}))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	sheet, _ := r.Sheet(0)
	tests := []struct {
		ref     string
		value   string
		typ     CellType
		formula bool
	}{
		{"A1", "Region", CellTypeString, false},
		{"A2", "North", CellTypeString, false},
		{"B2", "42", CellTypeNumber, false},
		{"A3", "TRUE", CellTypeBoolean, false},
		{"B3", "84", CellTypeNumber, true},
	}
	for _, tt := range tests {
		c := sheet.CellByRef(tt.ref)
		if c == nil {
			t.Fatalf("%s missing", tt.ref)
		}
		if c.Value != tt.value || c.Type != tt.typ || c.HasFormula != tt.formula {
			t.Errorf("%s = {%q %v %v}, want {%q %v %v}", tt.ref, c.Value, c.Type, c.HasFormula, tt.value, tt.typ, tt.formula)
		}
	}
	if c := sheet.CellByRef("B3"); c.Formula != "B2*2" {
		t.Errorf("B3 formula = %q", c.Formula)
	}
}

func TestMergedCells(t *testing.T) {
	r, err := Open(createTestXLSX(t, basicSheets(), []string{"Region", "Units"}))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	sheet, _ := r.Sheet(0)
	if len(sheet.MergedRegions) != 1 {
		t.Fatalf("MergedRegions = %d, want 1", len(sheet.MergedRegions))
	}
	root := sheet.CellByRef("A4")
	if root == nil || !root.IsMergeRoot || root.MergeCols != 2 {
		t.Errorf("A4 = %+v", root)
	}
	if c := sheet.CellByRef("B4"); c == nil || !c.IsMerged || c.IsMergeRoot {
		t.Errorf("B4 = %+v", c)
	}
}

func TestWholeColumnMergeDoesNotGrowGrid(t *testing.T) {
	sheets := []sheetFixture{{
		name:  "Tall",
		rows:  `<row r="1"><c r="A1"><v>1</v></c></row><row r="2"><c r="A2"><f>A1+1</f><v>2</v></c></row>`,
		extra: `<mergeCells count="1"><mergeCell ref="A2:A1048576"/></mergeCells>`,
	}}
	r, err := Open(createTestXLSX(t, sheets, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	sheet, _ := r.Sheet(0)
	if len(sheet.Rows) != 2 || sheet.MaxRow != 1 {
		t.Fatalf("grid has %d rows (MaxRow %d), want 2", len(sheet.Rows), sheet.MaxRow)
	}
	if len(sheet.MergedRegions) != 1 || sheet.MergedRegions[0].EndRow != 1048575 {
		t.Errorf("MergedRegions = %v", sheet.MergedRegions)
	}
	root := sheet.CellByRef("A2")
	if root == nil || !root.IsMergeRoot || root.MergeRows != 1048575 {
		t.Errorf("A2 = %+v", root)
	}
	if rep := r.Scan(ScanOptions{}); rep.TotalFormulas != 1 {
		t.Errorf("TotalFormulas = %d, want 1", rep.TotalFormulas)
	}
}

func TestTextAndMarkdown(t *testing.T) {
	r, err := Open(createTestXLSX(t, basicSheets(), []string{"Region", "Units"}))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	text := r.Text()
	if !strings.HasPrefix(text, "Region\tUnits\nNorth\t42\nTRUE\t84") {
		t.Errorf("Text = %q", text)
	}

	md := r.Markdown()
	for _, want := range []string{"## Sales", "| Region | Units |", "| North | 42 |", "## Notes", "| xy |"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q:\n%s", want, md)
		}
	}
}

func TestSheetTable(t *testing.T) {
	r, err := Open(createTestXLSX(t, basicSheets(), []string{"Region", "Units"}))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	notes, _ := r.SheetByName("Notes")
	tbl := notes.Table()
	if len(tbl.Rows) != 1 || tbl.Rows[0][0] != "xy" {
		t.Errorf("Notes table = %v", tbl.Rows)
	}
	if tbl.Page != 2 {
		t.Errorf("Page = %d, want 2", tbl.Page)
	}
}

func TestMissingRowAndCellRefs(t *testing.T) {
	sheets := []sheetFixture{{
		name: "Implicit",
		rows: `<row><c><v>1</v></c><c><v>2</v></c></row><row><c r="C2"><v>3</v></c></row>`,
	}}
	r, err := Open(createTestXLSX(t, sheets, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	sheet, _ := r.Sheet(0)
	for ref, want := range map[string]string{"A1": "1", "B1": "2", "C2": "3"} {
		if c := sheet.CellByRef(ref); c == nil || c.Value != want {
			t.Errorf("%s = %+v, want %s", ref, c, want)
		}
	}
}

func TestReadExcelizeWorkbook(t *testing.T) {
	p := filepath.Join(t.TempDir(), "excelize.xlsx")
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "Item"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Sheet1", "A2", 7); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellFormula("Sheet1", "B2", "A2*2"); err != nil {
		t.Fatal(err)
	}
	if err := f.MergeCell("Sheet1", "A3", "B3"); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(p); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := Open(p)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	sheet, _ := r.Sheet(0)
	if c := sheet.CellByRef("A1"); c == nil || c.Value != "Item" {
		t.Errorf("A1 = %+v", c)
	}
	if c := sheet.CellByRef("B2"); c == nil || !c.HasFormula || c.Formula != "A2*2" {
		t.Errorf("B2 = %+v", c)
	}
	if len(sheet.MergedRegions) != 1 {
		t.Errorf("MergedRegions = %v", sheet.MergedRegions)
	}
	if rep := r.Scan(ScanOptions{}); rep.TotalFormulas != 1 {
		t.Errorf("TotalFormulas = %d, want 1", rep.TotalFormulas)
	}
}
