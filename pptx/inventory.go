package pptx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// SlideInventory lists the text shapes of one slide.
type SlideInventory struct {
	Index  int // 0-indexed slide position
	Path   string
	Shapes []Shape
}

// Inventory is the text inventory of a presentation: every shape that
// holds text, keyed "slide-N" and "shape-N" with 0-based indexes in
// presentation and document order. Slides without text are omitted.
type Inventory struct {
	Slides []SlideInventory
}

// NewInventory builds the inventory of an opened presentation.
func NewInventory(r *Reader) *Inventory {
	inv := &Inventory{}
	for _, s := range r.Slides() {
		si := SlideInventory{Index: s.Index, Path: s.Path}
		for _, sh := range s.Shapes {
			if strings.TrimSpace(sh.Text()) != "" {
				si.Shapes = append(si.Shapes, sh)
			}
		}
		if len(si.Shapes) > 0 {
			inv.Slides = append(inv.Slides, si)
		}
	}
	return inv
}

// InventoryFile opens the presentation at path and returns its inventory.
func InventoryFile(path string) (*Inventory, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return NewInventory(r), nil
}

// SlideKey returns the inventory key of the slide at index.
func SlideKey(index int) string { return "slide-" + strconv.Itoa(index) }

// ShapeKey returns the inventory key of the shape at index.
func ShapeKey(index int) string { return "shape-" + strconv.Itoa(index) }

// ShapeCount returns the number of shapes across all slides.
func (inv *Inventory) ShapeCount() int {
	n := 0
	for _, s := range inv.Slides {
		n += len(s.Shapes)
	}
	return n
}

// MarshalJSON writes slides and shapes as objects in inventory order.
func (inv *Inventory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range inv.Slides {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:{", SlideKey(s.Index))
		for j := range s.Shapes {
			if j > 0 {
				buf.WriteByte(',')
			}
			data, err := json.Marshal(&s.Shapes[j])
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&buf, "%q:", ShapeKey(j))
			buf.Write(data)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Write writes the inventory as indented JSON.
func (inv *Inventory) Write(w io.Writer) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteFile writes the inventory as indented JSON to path.
func (inv *Inventory) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating inventory file: %w", err)
	}
	if err := inv.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing inventory: %w", err)
	}
	return f.Close()
}
