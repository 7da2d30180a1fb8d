// Package tables detects tables among the positioned words of a PDF page
// and normalizes the rows it finds.
//
// # Detection
//
// Detection is performed by types implementing [Detector]. The package
// ships the whitespace-driven [GeometricDetector]:
//
//  1. Words are grouped into lines by vertical overlap.
//  2. Each line is split into segments wherever the horizontal gap between
//     two words exceeds MinColumnGap.
//  3. Consecutive multi-segment lines closer than MaxLineGap form a block.
//  4. Column intervals are the union of segment extents across the block.
//  5. Segments are assigned to the column they overlap most.
//
// Confidence (0-1) averages row regularity (rows whose segment count equals
// the column count) and cell occupancy.
//
// # Normalization
//
// The helpers mirror the clean-up steps usually applied to extracted rows:
//
//   - [FillMerged] carries the last non-empty value rightwards within a row
//   - [NormalizeColumns] pads every row to the widest row
//   - [Clean] trims cells and drops empty rows
//   - [Stitch] joins a table that continues across pages
package tables
