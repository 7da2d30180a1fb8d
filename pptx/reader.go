// Package pptx reads PowerPoint presentations, produces a text inventory
// of their shapes, rewrites shape text from an edited inventory and
// renders slide thumbnail grids.
package pptx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/officekit/model"
)

// ErrNotPresentation is returned when a file is not a readable PPTX file.
var ErrNotPresentation = errors.New("pptx: not a presentation")

// Slide is one slide of a presentation, in presentation order.
type Slide struct {
	Index  int    // 0-indexed position in the presentation
	Path   string // Part name, e.g. ppt/slides/slide3.xml
	Shapes []Shape
	Tables []*model.Table
	Notes  string
}

// Title returns the text of the slide's title placeholder, if any.
func (s *Slide) Title() string {
	for i := range s.Shapes {
		if s.Shapes[i].IsTitle() {
			return strings.TrimSpace(s.Shapes[i].Text())
		}
	}
	return ""
}

// Reader provides access to PPTX document content.
type Reader struct {
	zipReader *zip.ReadCloser
	files     map[string]*zip.File
	width     int64
	height    int64
	slides    []*Slide
}

// Open opens a PPTX file for reading.
func Open(filename string) (*Reader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotPresentation, filename, err)
	}

	r := &Reader{zipReader: zr, files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		r.files[f.Name] = f
	}

	if err := r.load(); err != nil {
		zr.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) load() error {
	for _, name := range []string{"[Content_Types].xml", "ppt/presentation.xml"} {
		if r.files[name] == nil {
			return fmt.Errorf("%w: missing required file %s", ErrNotPresentation, name)
		}
	}

	paths, err := r.slidePaths()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w: no slides found", ErrNotPresentation)
	}

	for i, p := range paths {
		data, err := r.getFileContent(p)
		if err != nil {
			return fmt.Errorf("slide %d: %w", i, err)
		}
		content, err := parseSlideXML(data)
		if err != nil {
			return fmt.Errorf("slide %d (%s): %w", i, p, err)
		}
		slide := &Slide{Index: i, Path: p, Shapes: content.shapes, Tables: content.tables}
		for _, t := range slide.Tables {
			t.Page = i + 1
		}
		slide.Notes = r.notes(p)
		r.slides = append(r.slides, slide)
	}
	return nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	if r.zipReader != nil {
		err := r.zipReader.Close()
		r.zipReader = nil
		return err
	}
	return nil
}

func (r *Reader) getFileContent(name string) ([]byte, error) {
	f := r.files[name]
	if f == nil {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (r *Reader) rels(part string) map[string]relationshipXML {
	relsPath := path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
	data, err := r.getFileContent(relsPath)
	if err != nil {
		return nil
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil
	}
	out := make(map[string]relationshipXML, len(rels.Relationship))
	for _, rel := range rels.Relationship {
		out[rel.ID] = rel
	}
	return out
}

// resolve turns a relationship target into a part name.
func resolve(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(source), target)
}

// slidePaths returns slide part names in presentation order. Without a
// usable slide list, slides are ordered by the number in their file name.
func (r *Reader) slidePaths() ([]string, error) {
	data, err := r.getFileContent("ppt/presentation.xml")
	if err != nil {
		return nil, err
	}
	var pres presentationXML
	if err := xml.Unmarshal(data, &pres); err != nil {
		return nil, fmt.Errorf("parsing presentation: %w", err)
	}
	if pres.SlideSz != nil {
		r.width, r.height = pres.SlideSz.Cx, pres.SlideSz.Cy
	}

	if pres.SlideIdList != nil {
		rels := r.rels("ppt/presentation.xml")
		var paths []string
		for _, id := range pres.SlideIdList.SlideId {
			rel, ok := rels[id.RID]
			if !ok {
				continue
			}
			p := resolve("ppt/presentation.xml", rel.Target)
			if r.files[p] != nil {
				paths = append(paths, p)
			}
		}
		if len(paths) > 0 {
			return paths, nil
		}
	}

	var paths []string
	for name := range r.files {
		if strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml") {
			paths = append(paths, name)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return slideNumber(paths[i]) < slideNumber(paths[j])
	})
	return paths, nil
}

func slideNumber(p string) int {
	base := strings.TrimSuffix(path.Base(p), ".xml")
	n, _ := strconv.Atoi(strings.TrimPrefix(base, "slide"))
	return n
}

// notes returns the speaker notes of the slide part, or "".
func (r *Reader) notes(slidePath string) string {
	for _, rel := range r.rels(slidePath) {
		if !strings.HasSuffix(rel.Type, "/notesSlide") {
			continue
		}
		data, err := r.getFileContent(resolve(slidePath, rel.Target))
		if err != nil {
			return ""
		}
		content, err := parseSlideXML(data)
		if err != nil {
			return ""
		}
		var parts []string
		for _, s := range content.shapes {
			if s.Placeholder != "body" {
				continue
			}
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

// SlideCount returns the number of slides.
func (r *Reader) SlideCount() int {
	return len(r.slides)
}

// Slides returns the slides in presentation order.
func (r *Reader) Slides() []*Slide {
	return r.slides
}

// Slide returns the slide at the given index (0-indexed).
func (r *Reader) Slide(index int) (*Slide, error) {
	if index < 0 || index >= len(r.slides) {
		return nil, fmt.Errorf("slide index %d out of range (0-%d)", index, len(r.slides)-1)
	}
	return r.slides[index], nil
}

// SlideSize returns the slide width and height in EMUs.
func (r *Reader) SlideSize() (width, height int64) {
	return r.width, r.height
}

// Text returns the text of every slide, slides separated by blank lines.
func (r *Reader) Text() string {
	var sb strings.Builder
	for i, s := range r.slides {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		var parts []string
		for j := range s.Shapes {
			if t := strings.TrimSpace(s.Shapes[j].Text()); t != "" {
				parts = append(parts, t)
			}
		}
		sb.WriteString(strings.Join(parts, "\n"))
	}
	return sb.String()
}

// Markdown renders each slide as a section: the title as a heading,
// bulleted paragraphs as list items, tables and notes after the body.
func (r *Reader) Markdown() string {
	var sb strings.Builder
	for i, s := range r.slides {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		title := s.Title()
		if title == "" {
			title = "Slide " + strconv.Itoa(i+1)
		}
		sb.WriteString("## " + strings.ReplaceAll(title, "\n", " ") + "\n\n")

		for j := range s.Shapes {
			sh := &s.Shapes[j]
			if sh.IsTitle() {
				continue
			}
			wrote := false
			for _, p := range sh.Paragraphs {
				if strings.TrimSpace(p.Text) == "" {
					continue
				}
				if p.Bullet {
					sb.WriteString(strings.Repeat("  ", p.Level) + "- ")
				}
				sb.WriteString(strings.ReplaceAll(p.Text, "\n", " ") + "\n")
				wrote = true
			}
			if wrote {
				sb.WriteString("\n")
			}
		}

		for _, t := range s.Tables {
			sb.WriteString(t.Markdown() + "\n")
		}
		if s.Notes != "" {
			sb.WriteString("> Notes: " + strings.ReplaceAll(s.Notes, "\n", " ") + "\n")
		}
	}
	return strings.TrimSpace(sb.String())
}
