// Package xlsx reads Office Open XML workbooks, scans them for formula
// errors and drives LibreOffice to recalculate them.
package xlsx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/tsawler/officekit/model"
)

// ErrNotWorkbook is returned when a file is not a readable XLSX workbook.
var ErrNotWorkbook = errors.New("xlsx: not a workbook")

// Reader provides access to XLSX document content.
type Reader struct {
	zipReader     *zip.ReadCloser
	files         map[string]*zip.File
	workbook      *workbookXML
	sharedStrings []string
	sheets        []*Sheet
	sheetRels     map[string]string // RID -> target path
}

// Open opens an XLSX file for reading.
func Open(filename string) (*Reader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotWorkbook, filename, err)
	}

	r := &Reader{
		zipReader: zr,
		files:     make(map[string]*zip.File, len(zr.File)),
		sheetRels: make(map[string]string),
	}
	for _, f := range zr.File {
		r.files[f.Name] = f
	}

	if err := r.load(); err != nil {
		zr.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) load() error {
	for _, name := range []string{"[Content_Types].xml", "xl/workbook.xml"} {
		if r.files[name] == nil {
			return fmt.Errorf("%w: missing required file %s", ErrNotWorkbook, name)
		}
	}

	if err := r.parseRelationships(); err != nil {
		return fmt.Errorf("parsing relationships: %w", err)
	}
	if err := r.parseWorkbook(); err != nil {
		return fmt.Errorf("parsing workbook: %w", err)
	}
	if err := r.parseSharedStrings(); err != nil {
		return fmt.Errorf("parsing shared strings: %w", err)
	}
	if err := r.parseWorksheets(); err != nil {
		return fmt.Errorf("parsing worksheets: %w", err)
	}
	return nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	if r.zipReader != nil {
		err := r.zipReader.Close()
		r.zipReader = nil
		return err
	}
	return nil
}

// getFileContent reads the content of a file from the ZIP archive.
func (r *Reader) getFileContent(name string) ([]byte, error) {
	f := r.files[name]
	if f == nil {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parseRelationships parses the workbook relationships file. It is optional.
func (r *Reader) parseRelationships() error {
	data, err := r.getFileContent("xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil
	}

	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return err
	}
	for _, rel := range rels.Relationship {
		r.sheetRels[rel.ID] = rel.Target
	}
	return nil
}

// parseWorkbook parses the main workbook file.
func (r *Reader) parseWorkbook() error {
	data, err := r.getFileContent("xl/workbook.xml")
	if err != nil {
		return err
	}
	r.workbook = &workbookXML{}
	return xml.Unmarshal(data, r.workbook)
}

// parseSharedStrings parses the shared strings table. It is optional.
func (r *Reader) parseSharedStrings() error {
	data, err := r.getFileContent("xl/sharedStrings.xml")
	if err != nil {
		return nil
	}

	var sst sharedStringsXML
	if err := xml.Unmarshal(data, &sst); err != nil {
		return err
	}

	r.sharedStrings = make([]string, len(sst.SI))
	for i, si := range sst.SI {
		r.sharedStrings[i] = richText(si.T, si.R)
	}
	return nil
}

// richText returns plain text, or the concatenated runs when there is none.
func richText(plain string, runs []rXML) string {
	if plain != "" || len(runs) == 0 {
		return plain
	}
	var sb strings.Builder
	for _, run := range runs {
		sb.WriteString(run.T)
	}
	return sb.String()
}

// sheetPath resolves a workbook relationship target to a zip entry name.
func sheetPath(target string, index int) string {
	if target == "" {
		return fmt.Sprintf("xl/worksheets/sheet%d.xml", index+1)
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("xl", target)
}

// parseWorksheets parses all worksheet files. A sheet that cannot be
// read is an error: skipping it would hide its cells from scans.
func (r *Reader) parseWorksheets() error {
	r.sheets = make([]*Sheet, 0, len(r.workbook.Sheets.Sheet))

	for i, ref := range r.workbook.Sheets.Sheet {
		name := sheetPath(r.sheetRels[ref.RID], i)
		data, err := r.getFileContent(name)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", ref.Name, err)
		}

		sheet, err := r.parseWorksheet(data, ref.Name, i)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", ref.Name, err)
		}
		sheet.Hidden = ref.State == "hidden" || ref.State == "veryHidden"
		r.sheets = append(r.sheets, sheet)
	}

	if len(r.sheets) == 0 {
		return fmt.Errorf("%w: no worksheets found", ErrNotWorkbook)
	}
	return nil
}

// parseWorksheet parses a single worksheet.
func (r *Reader) parseWorksheet(data []byte, name string, index int) (*Sheet, error) {
	var ws worksheetXML
	if err := xml.Unmarshal(data, &ws); err != nil {
		return nil, err
	}

	sheet := &Sheet{Name: name, Index: index}

	if ws.MergeCells != nil {
		for _, mc := range ws.MergeCells.MergeCell {
			startCol, startRow, endCol, endRow, err := ParseRangeRef(mc.Ref)
			if err != nil {
				continue
			}
			sheet.MergedRegions = append(sheet.MergedRegions, MergedRegion{
				StartRow: startRow,
				StartCol: startCol,
				EndRow:   endRow,
				EndCol:   endCol,
			})
		}
	}

	// Rows and cells may omit their r attribute, in which case they
	// follow the previous one.
	type placed struct {
		row, col int
		xml      cellXML
	}
	var cells []placed
	maxRow, maxCol := -1, -1
	nextRow := 0
	for _, row := range ws.SheetData.Rows {
		rowIdx := nextRow
		if row.R > 0 {
			rowIdx = row.R - 1
		}
		nextRow = rowIdx + 1

		nextCol := 0
		for _, c := range row.Cells {
			col := nextCol
			if c.R != "" {
				cc, rr, err := ParseCellRef(c.R)
				if err != nil {
					continue
				}
				col, rowIdx = cc, rr
			}
			nextCol = col + 1
			cells = append(cells, placed{rowIdx, col, c})
			maxRow = max(maxRow, rowIdx)
			maxCol = max(maxCol, col)
		}
	}

	// Merged regions do not grow the grid: a whole-column merge would
	// otherwise allocate a million rows. They are marked only where cells exist.
	sheet.MaxRow = maxRow
	sheet.MaxCol = maxCol
	sheet.Rows = make([][]Cell, maxRow+1)
	for i := range sheet.Rows {
		sheet.Rows[i] = make([]Cell, maxCol+1)
		for j := range sheet.Rows[i] {
			sheet.Rows[i][j] = Cell{Row: i, Col: j, Type: CellTypeEmpty, MergeRows: 1, MergeCols: 1}
		}
	}

	for _, p := range cells {
		r.fillCell(&sheet.Rows[p.row][p.col], p.xml)
	}

	for _, mr := range sheet.MergedRegions {
		for row := mr.StartRow; row <= mr.EndRow && row < len(sheet.Rows); row++ {
			for col := mr.StartCol; col <= mr.EndCol && col < len(sheet.Rows[row]); col++ {
				cell := &sheet.Rows[row][col]
				cell.IsMerged = true
				if row == mr.StartRow && col == mr.StartCol {
					cell.IsMergeRoot = true
					cell.MergeRows = mr.EndRow - mr.StartRow + 1
					cell.MergeCols = mr.EndCol - mr.StartCol + 1
				}
			}
		}
	}

	return sheet, nil
}

func (r *Reader) fillCell(cell *Cell, c cellXML) {
	cell.RawValue = c.V
	if c.F != nil {
		cell.HasFormula = true
		cell.Formula = c.F.Text
	}

	switch c.T {
	case "s":
		cell.Type = CellTypeString
		idx, err := strconv.Atoi(c.V)
		if err == nil && idx >= 0 && idx < len(r.sharedStrings) {
			cell.Value = r.sharedStrings[idx]
		}
	case "b":
		cell.Type = CellTypeBoolean
		if c.V == "1" {
			cell.Value = "TRUE"
		} else {
			cell.Value = "FALSE"
		}
	case "e":
		cell.Type = CellTypeError
		cell.Value = c.V
	case "str":
		cell.Type = CellTypeString
		cell.Value = c.V
	case "inlineStr":
		cell.Type = CellTypeString
		if c.Is != nil {
			cell.Value = richText(c.Is.T, c.Is.R)
		}
	default:
		switch {
		case c.V != "":
			cell.Type = CellTypeNumber
			cell.Value = c.V
		case cell.HasFormula:
			cell.Type = CellTypeFormula
		}
	}
}

// SheetCount returns the number of sheets in the workbook.
func (r *Reader) SheetCount() int {
	return len(r.sheets)
}

// SheetNames returns the names of all sheets.
func (r *Reader) SheetNames() []string {
	names := make([]string, len(r.sheets))
	for i, s := range r.sheets {
		names[i] = s.Name
	}
	return names
}

// Sheets returns all sheets in workbook order.
func (r *Reader) Sheets() []*Sheet {
	return r.sheets
}

// Sheet returns the sheet at the given index (0-indexed).
func (r *Reader) Sheet(index int) (*Sheet, error) {
	if index < 0 || index >= len(r.sheets) {
		return nil, fmt.Errorf("sheet index %d out of range (0-%d)", index, len(r.sheets)-1)
	}
	return r.sheets[index], nil
}

// SheetByName returns the sheet with the given name.
func (r *Reader) SheetByName(name string) (*Sheet, error) {
	for _, s := range r.sheets {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("sheet not found: %s", name)
}

// Text returns the cached values of every sheet, tab separated, with
// sheets separated by blank lines. Merged cells contribute their root
// value once.
func (r *Reader) Text() string {
	var sb strings.Builder
	for i, sheet := range r.sheets {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		for rowIdx, row := range sheet.Rows {
			if rowIdx > 0 {
				sb.WriteString("\n")
			}
			for colIdx, cell := range row {
				if colIdx > 0 {
					sb.WriteString("\t")
				}
				if cell.IsMerged && !cell.IsMergeRoot {
					continue
				}
				sb.WriteString(cell.Value)
			}
		}
	}
	return sb.String()
}

// Table returns the non-empty area of a sheet as a table whose first row
// is the header.
func (s *Sheet) Table() *model.Table {
	minRow, maxRow, minCol, maxCol := s.contentBounds()
	t := &model.Table{Page: s.Index + 1}
	if minRow > maxRow {
		return t
	}
	for row := minRow; row <= maxRow; row++ {
		cells := make([]string, 0, maxCol-minCol+1)
		for col := minCol; col <= maxCol; col++ {
			cell := s.Rows[row][col]
			if cell.IsMerged && !cell.IsMergeRoot {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, cell.Value)
		}
		t.Rows = append(t.Rows, cells)
	}
	t.Confidence = 1
	return t
}

// Markdown returns every sheet as a heading followed by a Markdown table.
func (r *Reader) Markdown() string {
	var sb strings.Builder
	for i, sheet := range r.sheets {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("## ")
		sb.WriteString(sheet.Name)
		sb.WriteString("\n\n")
		if md := sheet.Table().Markdown(); md != "" {
			sb.WriteString(md)
		}
	}
	return strings.TrimSpace(sb.String())
}

// contentBounds finds the bounds of non-empty cells in a sheet.
func (s *Sheet) contentBounds() (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = len(s.Rows), -1
	minCol, maxCol = s.MaxCol+1, -1

	for rowIdx, row := range s.Rows {
		for colIdx, cell := range row {
			if cell.IsEmpty() {
				continue
			}
			minRow = min(minRow, rowIdx)
			maxRow = max(maxRow, rowIdx)
			minCol = min(minCol, colIdx)
			maxCol = max(maxCol, colIdx)
		}
	}
	return minRow, maxRow, minCol, maxCol
}
