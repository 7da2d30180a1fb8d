package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tsawler/officekit/model"
)

// Paragraph is one paragraph of a text shape.
type Paragraph struct {
	Text      string  `json:"text"`
	Bullet    bool    `json:"bullet,omitempty"`
	Level     int     `json:"level,omitempty"`
	Alignment string  `json:"alignment,omitempty"` // LEFT, CENTER, RIGHT or JUSTIFY
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	FontSize  float64 `json:"font_size,omitempty"` // Points
}

// Shape is a text-bearing shape. Positions are in EMUs on the slide,
// with group transforms applied. Placeholders that inherit their
// position from the layout report zeros.
type Shape struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Placeholder string      `json:"placeholder_type,omitempty"`
	Left        int64       `json:"left"`
	Top         int64       `json:"top"`
	Width       int64       `json:"width"`
	Height      int64       `json:"height"`
	Paragraphs  []Paragraph `json:"paragraphs"`

	// Byte range of the paragraphs inside the slide part.
	parasStart, parasEnd int64
}

// Text joins the paragraph texts with newlines.
func (s *Shape) Text() string {
	parts := make([]string, len(s.Paragraphs))
	for i, p := range s.Paragraphs {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n")
}

// IsTitle reports whether the shape is a title placeholder.
func (s *Shape) IsTitle() bool {
	return s.Placeholder == "title" || s.Placeholder == "ctrTitle"
}

// inheritsBullets reports whether paragraphs get bullets from the master
// unless they opt out.
func (s *Shape) inheritsBullets() bool {
	return s.Placeholder == "body" || s.Placeholder == "obj"
}

var alignments = map[string]string{
	"l":    "LEFT",
	"ctr":  "CENTER",
	"r":    "RIGHT",
	"just": "JUSTIFY",
}

var alignmentCodes = map[string]string{
	"LEFT":    "l",
	"CENTER":  "ctr",
	"RIGHT":   "r",
	"JUSTIFY": "just",
}

// transform maps a group's child coordinates onto its parent's.
type transform struct {
	offX, offY     int64
	chOffX, chOffY int64
	sx, sy         float64
}

func (t transform) apply(x, y, cx, cy int64) (int64, int64, int64, int64) {
	return t.offX + int64(float64(x-t.chOffX)*t.sx),
		t.offY + int64(float64(y-t.chOffY)*t.sy),
		int64(float64(cx) * t.sx),
		int64(float64(cy) * t.sy)
}

func groupTransform(x xfrmXML) transform {
	t := transform{offX: x.Off.X, offY: x.Off.Y, chOffX: x.ChOff.X, chOffY: x.ChOff.Y, sx: 1, sy: 1}
	if x.ChExt.Cx != 0 {
		t.sx = float64(x.Ext.Cx) / float64(x.ChExt.Cx)
	}
	if x.ChExt.Cy != 0 {
		t.sy = float64(x.Ext.Cy) / float64(x.ChExt.Cy)
	}
	return t
}

// slideContent is what parseSlideXML finds in one slide part.
type slideContent struct {
	shapes []Shape
	tables []*model.Table
}

// frame is an open <p:sp> or <p:grpSp> during the walk.
type frame struct {
	group   bool
	xform   transform // groups only
	shape   *Shape    // shapes only
	hasBody bool
}

// parseSlideXML walks a slide (or notes) part and returns its text shapes
// in document order, groups flattened, plus any tables.
func parseSlideXML(data []byte) (*slideContent, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	out := &slideContent{}
	var stack []*frame

	top := func() *frame {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := d.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing slide XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			f := top()
			switch t.Name.Local {
			case "sp":
				stack = append(stack, &frame{shape: &Shape{}})

			case "grpSp":
				stack = append(stack, &frame{group: true, xform: transform{sx: 1, sy: 1}})

			case "cNvPr":
				if f != nil && f.shape != nil && f.shape.Name == "" {
					for _, a := range t.Attr {
						switch a.Name.Local {
						case "id":
							f.shape.ID, _ = strconv.Atoi(a.Value)
						case "name":
							f.shape.Name = a.Value
						}
					}
				}

			case "ph":
				if f != nil && f.shape != nil {
					f.shape.Placeholder = "obj"
					for _, a := range t.Attr {
						if a.Name.Local == "type" {
							f.shape.Placeholder = a.Value
						}
					}
				}

			case "xfrm":
				if f == nil {
					continue
				}
				var x xfrmXML
				if err := d.DecodeElement(&x, &t); err != nil {
					return nil, fmt.Errorf("parsing xfrm: %w", err)
				}
				if f.group {
					f.xform = groupTransform(x)
				} else if f.shape != nil {
					s := f.shape
					s.Left, s.Top, s.Width, s.Height = x.Off.X, x.Off.Y, x.Ext.Cx, x.Ext.Cy
					for i := len(stack) - 2; i >= 0; i-- {
						if stack[i].group {
							s.Left, s.Top, s.Width, s.Height = stack[i].xform.apply(s.Left, s.Top, s.Width, s.Height)
						}
					}
				}

			case "txBody":
				if f == nil || f.shape == nil {
					if err := d.Skip(); err != nil {
						return nil, err
					}
					continue
				}
				if err := parseTextBody(d, f.shape); err != nil {
					return nil, err
				}
				f.hasBody = true

			case "graphicFrame":
				var gf graphicFrameXML
				if err := d.DecodeElement(&gf, &t); err != nil {
					return nil, fmt.Errorf("parsing graphic frame: %w", err)
				}
				if tbl := gf.Graphic.GraphicData.Tbl; tbl != nil {
					out.tables = append(out.tables, convertTable(tbl))
				}

			case "pic", "cxnSp", "AlternateContent":
				if err := d.Skip(); err != nil {
					return nil, err
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "sp", "grpSp":
				f := top()
				stack = stack[:len(stack)-1]
				if f != nil && f.shape != nil && f.hasBody {
					out.shapes = append(out.shapes, *f.shape)
				}
			}
		}
	}
}

// parseTextBody consumes a txBody element whose start tag has just been
// read, filling in the shape's paragraphs and their byte range.
func parseTextBody(d *xml.Decoder, s *Shape) error {
	s.parasStart, s.parasEnd = -1, -1
	for {
		off := d.InputOffset()
		tok, err := d.Token()
		if err != nil {
			return fmt.Errorf("parsing text body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "p" {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			var p pXML
			if err := d.DecodeElement(&p, &t); err != nil {
				return fmt.Errorf("parsing paragraph: %w", err)
			}
			if s.parasStart < 0 {
				s.parasStart = off
			}
			s.parasEnd = d.InputOffset()
			s.Paragraphs = append(s.Paragraphs, convertParagraph(&p, s))

		case xml.EndElement:
			// </p:txBody>
			if s.parasStart < 0 {
				s.parasStart, s.parasEnd = off, off
			}
			return nil
		}
	}
}

func convertParagraph(p *pXML, s *Shape) Paragraph {
	para := Paragraph{Bullet: s.inheritsBullets()}
	if p.PPr != nil {
		para.Level = p.PPr.Lvl
		para.Alignment = alignments[p.PPr.Algn]
		switch {
		case p.PPr.BuNone != nil:
			para.Bullet = false
		case p.PPr.BuChar != nil, p.PPr.BuAutoNum != nil:
			para.Bullet = true
		}
	}

	var text strings.Builder
	allBold, allItalic, runs := true, true, 0
	for _, it := range p.Items {
		switch it.XMLName.Local {
		case "r", "fld":
			text.WriteString(it.T)
			if it.T == "" {
				continue
			}
			runs++
			bold, italic := false, false
			if it.RPr != nil {
				bold, italic = isTrue(it.RPr.B), isTrue(it.RPr.I)
				if para.FontSize == 0 && it.RPr.Sz > 0 {
					para.FontSize = float64(it.RPr.Sz) / 100
				}
			}
			allBold = allBold && bold
			allItalic = allItalic && italic
		case "br":
			text.WriteString("\n")
		}
	}
	para.Text = text.String()
	para.Bold = runs > 0 && allBold
	para.Italic = runs > 0 && allItalic
	if para.Text == "" {
		para.Bullet = false
	}
	return para
}

func convertTable(tbl *tblXML) *model.Table {
	t := &model.Table{Confidence: 1}
	for _, tr := range tbl.Tr {
		row := make([]string, 0, len(tr.Tc))
		for _, tc := range tr.Tc {
			var cell []string
			if tc.TxBody != nil && !isTrue(tc.HMerge) && !isTrue(tc.VMerge) {
				for _, p := range tc.TxBody.P {
					if txt := convertParagraph(&p, &Shape{}).Text; txt != "" {
						cell = append(cell, txt)
					}
				}
			}
			row = append(row, strings.Join(cell, " "))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
