package model

import "math"

// Point represents a 2D point.
type Point struct {
	X, Y float64
}

// BBox is an axis-aligned rectangle. Y is the top edge.
type BBox struct {
	X      float64 // Left
	Y      float64 // Top
	Width  float64
	Height float64
}

// NewBBoxFromEdges builds a box from its four edges.
func NewBBoxFromEdges(left, top, right, bottom float64) BBox {
	return BBox{
		X:      math.Min(left, right),
		Y:      math.Min(top, bottom),
		Width:  math.Abs(right - left),
		Height: math.Abs(bottom - top),
	}
}

// Left returns the left edge X coordinate.
func (b BBox) Left() float64 { return b.X }

// Right returns the right edge X coordinate.
func (b BBox) Right() float64 { return b.X + b.Width }

// Top returns the top edge Y coordinate.
func (b BBox) Top() float64 { return b.Y }

// Bottom returns the bottom edge Y coordinate.
func (b BBox) Bottom() float64 { return b.Y + b.Height }

// Center returns the center point.
func (b BBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// IsEmpty reports whether the box has no area.
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Union returns the smallest box containing both boxes. An empty receiver
// yields other unchanged.
func (b BBox) Union(other BBox) BBox {
	if b.IsEmpty() && b.X == 0 && b.Y == 0 {
		return other
	}
	return NewBBoxFromEdges(
		math.Min(b.Left(), other.Left()),
		math.Min(b.Top(), other.Top()),
		math.Max(b.Right(), other.Right()),
		math.Max(b.Bottom(), other.Bottom()),
	)
}

// VerticalOverlap returns the length of the overlap of the two boxes
// projected onto the y axis.
func (b BBox) VerticalOverlap(other BBox) float64 {
	return math.Max(0, math.Min(b.Bottom(), other.Bottom())-math.Max(b.Top(), other.Top()))
}

// HorizontalOverlap returns the length of the overlap of the two boxes
// projected onto the x axis.
func (b BBox) HorizontalOverlap(other BBox) float64 {
	return math.Max(0, math.Min(b.Right(), other.Right())-math.Max(b.Left(), other.Left()))
}
