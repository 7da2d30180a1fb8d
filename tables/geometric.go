package tables

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tsawler/officekit/model"
)

// GeometricDetector finds tables from the whitespace between words: cells
// are runs of words separated by wide gaps, and rows are lines whose gaps
// line up with their neighbours.
type GeometricDetector struct {
	config Config
}

// NewGeometricDetector creates a geometric detector with default configuration.
func NewGeometricDetector() *GeometricDetector {
	return &GeometricDetector{config: DefaultConfig()}
}

// Name returns the detector's identifier ("geometric").
func (d *GeometricDetector) Name() string {
	return "geometric"
}

// Configure sets the detector configuration.
func (d *GeometricDetector) Configure(config Config) error {
	if config.MinRows < 1 || config.MinCols < 1 {
		return fmt.Errorf("tables: MinRows and MinCols must be positive")
	}
	if config.MinConfidence < 0 || config.MinConfidence > 1 {
		return fmt.Errorf("tables: MinConfidence %v outside [0,1]", config.MinConfidence)
	}
	d.config = config
	return nil
}

// segment is a run of words on one line that belongs to a single cell.
type segment struct {
	words []model.Word
	bbox  model.BBox
}

func (s segment) text() string {
	parts := make([]string, len(s.words))
	for i, w := range s.words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// row is a line split into segments.
type row struct {
	line     model.Line
	segments []segment
}

// Detect finds tables among the words of a page, top to bottom.
func (d *GeometricDetector) Detect(words []model.Word) ([]*model.Table, error) {
	if len(words) == 0 {
		return nil, nil
	}

	lines := GroupLines(words, d.config.LineOverlap)
	rows := make([]row, len(lines))
	for i, l := range lines {
		rows[i] = row{line: l, segments: d.splitSegments(l)}
	}

	var found []*model.Table
	for _, block := range d.blocks(rows) {
		if t := d.buildTable(block); t != nil {
			found = append(found, t)
		}
	}
	return found, nil
}

// GroupLines groups words into lines. Two words share a line when their
// vertical overlap is at least overlap times the smaller height. Lines come
// back top to bottom with words left to right.
func GroupLines(words []model.Word, overlap float64) []model.Line {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]model.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Top() != sorted[j].BBox.Top() {
			return sorted[i].BBox.Top() < sorted[j].BBox.Top()
		}
		return sorted[i].BBox.Left() < sorted[j].BBox.Left()
	})

	var lines []model.Line
	current := model.Line{Words: []model.Word{sorted[0]}, BBox: sorted[0].BBox}

	for _, w := range sorted[1:] {
		minH := math.Min(current.BBox.Height, w.BBox.Height)
		if minH > 0 && current.BBox.VerticalOverlap(w.BBox) >= overlap*minH {
			current.Words = append(current.Words, w)
			current.BBox = current.BBox.Union(w.BBox)
			continue
		}
		lines = append(lines, current)
		current = model.Line{Words: []model.Word{w}, BBox: w.BBox}
	}
	lines = append(lines, current)

	for i := range lines {
		ws := lines[i].Words
		sort.SliceStable(ws, func(a, b int) bool { return ws[a].BBox.Left() < ws[b].BBox.Left() })
	}
	return lines
}

// splitSegments cuts a line wherever the gap between words exceeds MinColumnGap.
func (d *GeometricDetector) splitSegments(l model.Line) []segment {
	if len(l.Words) == 0 {
		return nil
	}

	var segs []segment
	cur := segment{words: []model.Word{l.Words[0]}, bbox: l.Words[0].BBox}
	for _, w := range l.Words[1:] {
		if w.BBox.Left()-cur.bbox.Right() > d.config.MinColumnGap {
			segs = append(segs, cur)
			cur = segment{words: []model.Word{w}, bbox: w.BBox}
			continue
		}
		cur.words = append(cur.words, w)
		cur.bbox = cur.bbox.Union(w.BBox)
	}
	return append(segs, cur)
}

// blocks returns runs of consecutive multi-segment rows that are close
// enough vertically to belong to one table.
func (d *GeometricDetector) blocks(rows []row) [][]row {
	var out [][]row
	var cur []row

	flush := func() {
		if len(cur) >= d.config.MinRows {
			out = append(out, cur)
		}
		cur = nil
	}

	for _, r := range rows {
		if len(r.segments) < 2 {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			if r.line.BBox.Top()-prev.line.BBox.Bottom() > d.config.MaxLineGap {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// interval is a closed range on the x axis.
type interval struct {
	lo, hi float64
}

// columnIntervals merges the x extents of every segment in the block.
// Extents that overlap or sit within tol of each other share a column.
func columnIntervals(block []row, tol float64) []interval {
	var ivs []interval
	for _, r := range block {
		for _, s := range r.segments {
			ivs = append(ivs, interval{s.bbox.Left(), s.bbox.Right()})
		}
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].lo < ivs[j].lo })

	var merged []interval
	for _, iv := range ivs {
		if n := len(merged); n > 0 && iv.lo <= merged[n-1].hi+tol {
			if iv.hi > merged[n-1].hi {
				merged[n-1].hi = iv.hi
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// buildTable turns a block into a table, or nil if it fails the
// configured thresholds.
func (d *GeometricDetector) buildTable(block []row) *model.Table {
	cols := columnIntervals(block, d.config.AlignmentTolerance)
	if len(cols) < d.config.MinCols {
		return nil
	}

	t := &model.Table{Rows: make([][]string, len(block))}
	regular := 0
	filled := 0

	for i, r := range block {
		cells := make([]string, len(cols))
		for _, s := range r.segments {
			c := bestColumn(s.bbox, cols)
			if cells[c] == "" {
				filled++
				cells[c] = s.text()
			} else {
				cells[c] += " " + s.text()
			}
		}
		if len(r.segments) == len(cols) {
			regular++
		}
		t.Rows[i] = cells
		t.BBox = t.BBox.Union(r.line.BBox)
	}

	regularity := float64(regular) / float64(len(block))
	occupancy := float64(filled) / float64(len(block)*len(cols))
	t.Confidence = (regularity + occupancy) / 2

	if t.Confidence < d.config.MinConfidence {
		return nil
	}
	return t
}

// bestColumn returns the index of the interval overlapping b the most.
func bestColumn(b model.BBox, cols []interval) int {
	best, bestOverlap := 0, -1.0
	for i, c := range cols {
		ov := math.Min(b.Right(), c.hi) - math.Max(b.Left(), c.lo)
		if ov > bestOverlap {
			best, bestOverlap = i, ov
		}
	}
	return best
}
