package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownShape is returned when a replacement names a slide or shape
// that is not in the presentation's inventory.
var ErrUnknownShape = errors.New("pptx: replacement names shapes not in the inventory")

// ShapeReplacement holds the new paragraphs of one shape.
type ShapeReplacement struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Replacements maps slide keys to shape keys to new shape text. It has
// the same shape as an inventory, so an edited inventory file can be
// used directly.
type Replacements map[string]map[string]ShapeReplacement

// ParseReplacements decodes replacements JSON.
func ParseReplacements(r io.Reader) (Replacements, error) {
	var rep Replacements
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("parsing replacements: %w", err)
	}
	return rep, nil
}

// ReadReplacements reads replacements JSON from path.
func ReadReplacements(path string) (Replacements, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseReplacements(f)
}

// check returns the replacement keys absent from inv, sorted.
func (rep Replacements) check(inv *Inventory) []string {
	shapes := make(map[string]int)
	for _, s := range inv.Slides {
		shapes[SlideKey(s.Index)] = len(s.Shapes)
	}

	var unknown []string
	for slide, byShape := range rep {
		n, ok := shapes[slide]
		if !ok {
			unknown = append(unknown, slide)
			continue
		}
		for shape := range byShape {
			i, err := strconv.Atoi(strings.TrimPrefix(shape, "shape-"))
			if !strings.HasPrefix(shape, "shape-") || err != nil || i < 0 || i >= n {
				unknown = append(unknown, slide+"/"+shape)
			}
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Replace writes a copy of the presentation at in to out in which the
// text of every inventory shape is replaced: shapes named in rep get the
// given paragraphs, all others are cleared. Parts other than the edited
// slides are copied unchanged.
func Replace(in string, rep Replacements, out string) error {
	r, err := Open(in)
	if err != nil {
		return err
	}
	defer r.Close()

	inv := NewInventory(r)
	if unknown := rep.check(inv); len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownShape, strings.Join(unknown, ", "))
	}

	edits := make(map[string][]byte, len(inv.Slides))
	for _, s := range inv.Slides {
		data, err := r.getFileContent(s.Path)
		if err != nil {
			return err
		}
		edits[s.Path] = rewriteSlide(data, s.Shapes, rep[SlideKey(s.Index)])
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), ".pptx-replace-*")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writePackage(tmp, r.zipReader.File, edits); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), out)
}

func writePackage(w io.Writer, files []*zip.File, edits map[string][]byte) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		data, ok := edits[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("copying %s: %w", f.Name, err)
			}
			continue
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return err
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}

// rewriteSlide splices new paragraphs into the byte ranges of shapes,
// back to front so earlier offsets stay valid.
func rewriteSlide(data []byte, shapes []Shape, rep map[string]ShapeReplacement) []byte {
	out := data
	for i := len(shapes) - 1; i >= 0; i-- {
		s := &shapes[i]
		prefix := drawingPrefix(data, s.parasStart)

		var paras []Paragraph
		if r, ok := rep[ShapeKey(i)]; ok {
			paras = r.Paragraphs
		}
		xmlParas := paragraphsXML(prefix, paras, s.inheritsBullets())

		next := make([]byte, 0, len(out)+len(xmlParas))
		next = append(next, out[:s.parasStart]...)
		next = append(next, xmlParas...)
		next = append(next, out[s.parasEnd:]...)
		out = next
	}
	return out
}

// drawingPrefix returns the namespace prefix of the paragraph element at
// off, or "a" when the body has no paragraphs.
func drawingPrefix(data []byte, off int64) string {
	rest := data[off:]
	if !bytes.HasPrefix(rest, []byte("<")) || bytes.HasPrefix(rest, []byte("</")) {
		return "a"
	}
	end := bytes.IndexAny(rest, " />")
	if end < 0 {
		return "a"
	}
	name := string(rest[1:end])
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return ""
}

// paragraphsXML renders paragraphs as DrawingML. A shape needs at least
// one paragraph, so an empty list yields a single empty one.
func paragraphsXML(prefix string, paras []Paragraph, inherits bool) []byte {
	el := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + ":" + name
	}

	var b bytes.Buffer
	if len(paras) == 0 {
		b.WriteString("<" + el("p") + "/>")
		return b.Bytes()
	}

	for _, p := range paras {
		b.WriteString("<" + el("p") + ">")

		var attrs []string
		if p.Level > 0 {
			attrs = append(attrs, `lvl="`+strconv.Itoa(p.Level)+`"`)
		}
		if code, ok := alignmentCodes[strings.ToUpper(p.Alignment)]; ok {
			attrs = append(attrs, `algn="`+code+`"`)
		}
		var bullet string
		switch {
		case p.Bullet && !inherits:
			attrs = append(attrs, `marL="`+strconv.Itoa(285750*(p.Level+1))+`"`, `indent="-285750"`)
			bullet = "<" + el("buChar") + ` char="&#8226;"/>`
		case !p.Bullet && inherits:
			attrs = append(attrs, `marL="0"`, `indent="0"`)
			bullet = "<" + el("buNone") + "/>"
		}
		if len(attrs) > 0 || bullet != "" {
			b.WriteString("<" + el("pPr"))
			for _, a := range attrs {
				b.WriteString(" " + a)
			}
			if bullet == "" {
				b.WriteString("/>")
			} else {
				b.WriteString(">" + bullet + "</" + el("pPr") + ">")
			}
		}

		rPr := "<" + el("rPr") + ` lang="en-US"`
		if p.FontSize > 0 {
			rPr += ` sz="` + strconv.Itoa(int(p.FontSize*100+0.5)) + `"`
		}
		if p.Bold {
			rPr += ` b="1"`
		}
		if p.Italic {
			rPr += ` i="1"`
		}
		rPr += ` dirty="0"/>`

		for i, line := range strings.Split(p.Text, "\n") {
			if i > 0 {
				b.WriteString("<" + el("br") + "/>")
			}
			if line == "" {
				continue
			}
			b.WriteString("<" + el("r") + ">" + rPr + "<" + el("t") + ">")
			xml.EscapeText(&b, []byte(line))
			b.WriteString("</" + el("t") + "></" + el("r") + ">")
		}
		b.WriteString("</" + el("p") + ">")
	}
	return b.Bytes()
}
