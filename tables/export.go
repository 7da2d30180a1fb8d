package tables

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/tsawler/officekit/model"
)

// WriteCSV writes the table as CSV, padding ragged rows.
func WriteCSV(w io.Writer, t *model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(NormalizeColumns(t.Rows)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// HeaderKeys returns the JSON object keys for a header row. Blank and
// repeated names become column_N, N being the 1-based column index.
func HeaderKeys(header []string, width int) []string {
	keys := make([]string, width)
	seen := make(map[string]bool, width)
	for i := range keys {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if name == "" || seen[name] {
			name = "column_" + strconv.Itoa(i+1)
		}
		seen[name] = true
		keys[i] = name
	}
	return keys
}

// WriteJSON writes the body rows as an array of objects keyed by the
// header row.
func WriteJSON(w io.Writer, t *model.Table) error {
	rows := NormalizeColumns(t.Rows)
	if len(rows) == 0 {
		_, err := io.WriteString(w, "[]\n")
		return err
	}

	keys := HeaderKeys(rows[0], len(rows[0]))
	records := make([]orderedRecord, 0, len(rows)-1)
	for _, r := range rows[1:] {
		records = append(records, orderedRecord{keys: keys, values: r})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// orderedRecord marshals as a JSON object whose keys follow the header
// order rather than map order.
type orderedRecord struct {
	keys   []string
	values []string
}

func (r orderedRecord) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range r.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

// XLSXOptions controls WriteXLSX.
type XLSXOptions struct {
	// Sheet name, "Table" when empty
	Sheet string
}

// WriteXLSX writes the table to an .xlsx workbook at path with a bold,
// frozen header row.
func WriteXLSX(path string, t *model.Table, opts XLSXOptions) error {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = "Table"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}

	rows := NormalizeColumns(t.Rows)
	widths := make([]int, 0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		vals := make([]any, len(r))
		for c, v := range r {
			vals[c] = v
			if c >= len(widths) {
				widths = append(widths, 0)
			}
			widths[c] = max(widths[c], len([]rune(v)))
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(max(w, 8), 60)+2)); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
