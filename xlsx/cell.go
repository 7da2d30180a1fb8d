package xlsx

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellType is the type of a cell's cached value.
type CellType int

const (
	CellTypeString CellType = iota
	CellTypeNumber
	CellTypeBoolean
	// CellTypeFormula is a formula cell with no cached value, as written
	// by libraries that cannot evaluate formulas.
	CellTypeFormula
	CellTypeError
	CellTypeEmpty
)

var cellTypeNames = [...]string{"string", "number", "boolean", "formula", "error", "empty"}

func (t CellType) String() string {
	if t < 0 || int(t) >= len(cellTypeNames) {
		return "unknown"
	}
	return cellTypeNames[t]
}

// Cell is one worksheet cell. Row and Col are 0-indexed.
type Cell struct {
	Value      string   // Cached value as displayed
	RawValue   string   // The raw <v> text
	Type       CellType // Type of the cached value
	Row        int
	Col        int
	Formula    string // Formula text, empty for shared-formula dependents
	HasFormula bool

	IsMerged    bool
	IsMergeRoot bool // Top-left cell of a merged region
	MergeRows   int  // 1 when not merged
	MergeCols   int
}

// IsEmpty reports whether the cell has no value.
func (c *Cell) IsEmpty() bool {
	return c.Type == CellTypeEmpty || c.Value == ""
}

// ErrorCode returns the formula error held by the cached value, or "".
// Some writers store errors as plain strings, so text cells count too.
func (c *Cell) ErrorCode() string {
	if c.Type != CellTypeError && c.Type != CellTypeString {
		return ""
	}
	v := strings.TrimSpace(c.Value)
	if slices.Contains(ErrorCodes, v) {
		return v
	}
	return ""
}

// Ref returns the A1-style reference of the cell.
func (c *Cell) Ref() string {
	return CellRef(c.Col, c.Row)
}

// Sheet is a worksheet.
type Sheet struct {
	Name   string
	Index  int
	Hidden bool
	Rows   [][]Cell
	MaxRow int // 0-indexed
	MaxCol int // 0-indexed

	MergedRegions []MergedRegion
}

// MergedRegion is an inclusive, 0-indexed cell range.
type MergedRegion struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// Cell returns the cell at row and col, or nil when out of range.
func (s *Sheet) Cell(row, col int) *Cell {
	if row < 0 || row >= len(s.Rows) {
		return nil
	}
	if col < 0 || col >= len(s.Rows[row]) {
		return nil
	}
	return &s.Rows[row][col]
}

// CellByRef returns the cell at an A1-style reference, or nil.
func (s *Sheet) CellByRef(ref string) *Cell {
	col, row, err := ParseCellRef(ref)
	if err != nil {
		return nil
	}
	return s.Cell(row, col)
}

// Location returns the Sheet!A1 location of c.
func (s *Sheet) Location(c *Cell) string {
	return s.Name + "!" + c.Ref()
}

func (s *Sheet) RowCount() int {
	return len(s.Rows)
}

func (s *Sheet) ColCount() int {
	return s.MaxCol + 1
}

// ParseCellRef converts an A1-style reference, absolute markers allowed,
// to 0-indexed column and row.
func ParseCellRef(ref string) (col, row int, err error) {
	c, r, err := excelize.CellNameToCoordinates(strings.ReplaceAll(ref, "$", ""))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell reference %q: %w", ref, err)
	}
	return c - 1, r - 1, nil
}

// CellRef returns the A1-style reference of a 0-indexed column and row.
func CellRef(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return ""
	}
	return name
}

// ParseRangeRef converts a range such as "A1:D10" to 0-indexed corners.
// A single cell is a one-cell range.
func ParseRangeRef(ref string) (startCol, startRow, endCol, endRow int, err error) {
	from, to, found := strings.Cut(ref, ":")
	if !found {
		to = from
	}
	if startCol, startRow, err = ParseCellRef(from); err != nil {
		return 0, 0, 0, 0, err
	}
	if endCol, endRow, err = ParseCellRef(to); err != nil {
		return 0, 0, 0, 0, err
	}
	if endCol < startCol || endRow < startRow {
		return 0, 0, 0, 0, fmt.Errorf("invalid range %q: end before start", ref)
	}
	return startCol, startRow, endCol, endRow, nil
}
