package tables

import (
	"slices"
	"strings"

	"github.com/tsawler/officekit/model"
)

// FillMerged returns a copy of rows in which every empty cell takes the
// last non-empty value to its left in the same row. Cells before the
// first non-empty value stay empty. Rows are handled independently.
func FillMerged(rows [][]string) [][]string {
	out := model.CopyRows(rows)
	for _, r := range out {
		last := ""
		for c, cell := range r {
			if cell == "" {
				r[c] = last
				continue
			}
			last = cell
		}
	}
	return out
}

// NormalizeColumns returns a copy of rows with every row padded with
// empty strings to the width of the widest row.
func NormalizeColumns(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		padded := make([]string, width)
		copy(padded, r)
		out[i] = padded
	}
	return out
}

// Clean returns a copy of rows with cell whitespace trimmed and rows
// whose cells are all empty removed.
func Clean(rows [][]string) [][]string {
	var out [][]string
	for _, r := range rows {
		cleaned := make([]string, len(r))
		empty := true
		for c, cell := range r {
			cleaned[c] = strings.TrimSpace(cell)
			if cleaned[c] != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, cleaned)
		}
	}
	return out
}

// Stitch joins a table that continues across pages. pages holds the
// tables detected on each page in page order; only the first table of a
// page takes part. The first such table sets the header. A later page
// whose first row equals the header has that row dropped before its rows
// are appended; otherwise all of its rows are appended. Pages without
// tables are skipped. Stitch returns nil when no page has a table.
func Stitch(pages [][]*model.Table) *model.Table {
	var out *model.Table
	var header []string

	for _, tables := range pages {
		if len(tables) == 0 || tables[0] == nil {
			continue
		}
		t := tables[0]

		if out == nil {
			out = t.Clone()
			header = t.Header()
			continue
		}

		rows := t.Rows
		if len(rows) > 0 && slices.Equal(rows[0], header) {
			rows = rows[1:]
		}
		out.Rows = append(out.Rows, model.CopyRows(rows)...)
		out.BBox = model.BBox{}
		out.Confidence = min(out.Confidence, t.Confidence)
	}
	return out
}
