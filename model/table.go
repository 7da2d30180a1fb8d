package model

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// Table is a detected table. Rows may be ragged until normalized.
type Table struct {
	Page       int        // 1-indexed source page, 0 when unknown
	Rows       [][]string // Cell text, row-major
	BBox       BBox
	Confidence float64 // Detection confidence (0-1)
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the width of the widest row.
func (t *Table) ColCount() int {
	n := 0
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// Header returns the first row, or nil for an empty table.
func (t *Table) Header() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// Body returns every row after the header.
func (t *Table) Body() [][]string {
	if len(t.Rows) < 2 {
		return nil
	}
	return t.Rows[1:]
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := *t
	c.Rows = CopyRows(t.Rows)
	return &c
}

// CopyRows deep-copies a row slice.
func CopyRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Markdown renders the table as a GitHub-flavored Markdown table with the
// first row as header. Ragged rows are padded.
func (t *Table) Markdown() string {
	if len(t.Rows) == 0 {
		return ""
	}
	cols := t.ColCount()

	var sb strings.Builder
	writeRow := func(row []string) {
		sb.WriteString("|")
		for c := 0; c < cols; c++ {
			sb.WriteString(" ")
			if c < len(row) {
				sb.WriteString(escapeMarkdown(row[c]))
			}
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(t.Rows[0])
	sb.WriteString("|")
	for c := 0; c < cols; c++ {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")
	for _, row := range t.Rows[1:] {
		writeRow(row)
	}
	return sb.String()
}

// CSV renders the table as RFC 4180 CSV.
func (t *Table) CSV() string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(t.Rows)
	return buf.String()
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
