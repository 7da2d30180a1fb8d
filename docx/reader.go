// Package docx reads Word (Office Open XML) documents into paragraphs and
// tables, renders them as Markdown, and converts documents with pandoc.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/officekit/model"
)

// ErrNotDocument is returned when a file is not a readable DOCX file.
var ErrNotDocument = errors.New("docx: not a Word document")

// Paragraph is one body paragraph.
type Paragraph struct {
	Text         string
	Style        string // Style name, or ID when the name is unknown
	HeadingLevel int    // 1-9, or 0 for body text
	IsList       bool
	Ordered      bool
	ListLevel    int // 0-based nesting level of list items
}

// IsHeading reports whether the paragraph is a heading.
func (p *Paragraph) IsHeading() bool {
	return p.HeadingLevel > 0
}

// Block is a paragraph or a table, in document order.
type Block struct {
	Paragraph *Paragraph
	Table     *model.Table
}

// Reader provides access to DOCX document content.
type Reader struct {
	zipReader *zip.ReadCloser
	blocks    []Block
}

// Open opens a DOCX file for reading.
func Open(filename string) (*Reader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotDocument, filename, err)
	}

	r := &Reader{zipReader: zr}
	if err := r.load(); err != nil {
		zr.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) load() error {
	for _, name := range []string{"[Content_Types].xml", "word/document.xml"} {
		if r.getFile(name) == nil {
			return fmt.Errorf("%w: missing required file %s", ErrNotDocument, name)
		}
	}

	data, err := r.getFileContent("word/document.xml")
	if err != nil {
		return err
	}
	var doc documentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing document.xml: %w", err)
	}

	// Styles and numbering are optional.
	var styles *stylesXML
	if data, err := r.getFileContent("word/styles.xml"); err == nil {
		styles = &stylesXML{}
		if xml.Unmarshal(data, styles) != nil {
			styles = nil
		}
	}
	var numbering *numberingXML
	if data, err := r.getFileContent("word/numbering.xml"); err == nil {
		numbering = &numberingXML{}
		if xml.Unmarshal(data, numbering) != nil {
			numbering = nil
		}
	}
	ss := newStyleSheet(styles, numbering)

	if doc.Body == nil {
		return nil
	}
	for _, el := range doc.Body.Elements {
		switch {
		case el.Paragraph != nil:
			r.blocks = append(r.blocks, Block{Paragraph: convertParagraph(el.Paragraph, ss)})
		case el.Table != nil:
			r.blocks = append(r.blocks, Block{Table: convertTable(el.Table)})
		}
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

func (r *Reader) getFile(name string) *zip.File {
	for _, f := range r.zipReader.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (r *Reader) getFileContent(name string) ([]byte, error) {
	f := r.getFile(name)
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

func convertParagraph(p *paragraphXML, ss *styleSheet) *Paragraph {
	styleID := p.Properties.Style.Val
	para := &Paragraph{
		Text:         paragraphText(p),
		HeadingLevel: ss.headingLevel(styleID, p.Properties.OutlineLvl.Val),
	}
	if styleID != "" {
		para.Style = ss.styleName(styleID)
	}
	if para.HeadingLevel == 0 {
		para.IsList, para.Ordered, para.ListLevel = ss.listInfo(p.Properties.NumPr)
	}
	return para
}

// paragraphText concatenates the visible text of a paragraph. Deleted
// revisions and field instructions are left out.
func paragraphText(p *paragraphXML) string {
	var sb strings.Builder
	for i := range p.Content {
		writeNodeText(&sb, &p.Content[i])
	}
	return sb.String()
}

func writeNodeText(sb *strings.Builder, n *nodeXML) {
	switch n.XMLName.Local {
	case "t":
		sb.WriteString(n.Text)
		return
	case "tab":
		sb.WriteString("\t")
		return
	case "br", "cr":
		if n.attr("type") == "page" {
			sb.WriteString("\n\n")
		} else {
			sb.WriteString("\n")
		}
		return
	case "noBreakHyphen":
		sb.WriteString("-")
		return
	case "del", "moveFrom", "instrText", "delText", "rPr", "pPr", "Choice":
		return
	}
	for i := range n.Nodes {
		writeNodeText(sb, &n.Nodes[i])
	}
}

// Blocks returns the paragraphs and tables in document order.
func (r *Reader) Blocks() []Block {
	return r.blocks
}

// Paragraphs returns all body paragraphs, including empty ones.
func (r *Reader) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, b := range r.blocks {
		if b.Paragraph != nil {
			out = append(out, b.Paragraph)
		}
	}
	return out
}

// Tables returns the body tables in document order.
func (r *Reader) Tables() []*model.Table {
	var out []*model.Table
	for _, b := range r.blocks {
		if b.Table != nil {
			out = append(out, b.Table)
		}
	}
	return out
}

// Headings returns the heading paragraphs.
func (r *Reader) Headings() []*Paragraph {
	var out []*Paragraph
	for _, p := range r.Paragraphs() {
		if p.IsHeading() {
			out = append(out, p)
		}
	}
	return out
}

// Text returns the document text, one paragraph per line. Tables are
// written one row per line with tab-separated cells.
func (r *Reader) Text() string {
	var lines []string
	for _, b := range r.blocks {
		if b.Paragraph != nil {
			lines = append(lines, b.Paragraph.Text)
			continue
		}
		for _, row := range b.Table.Rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
	}
	return strings.Join(lines, "\n")
}

// Markdown renders headings, list items, paragraphs and tables.
func (r *Reader) Markdown() string {
	var sb strings.Builder
	prevList := false
	for _, b := range r.blocks {
		if b.Table != nil {
			if b.Table.RowCount() == 0 {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(b.Table.Markdown())
			prevList = false
			continue
		}

		p := b.Paragraph
		text := strings.TrimSpace(strings.ReplaceAll(p.Text, "\n", " "))
		if text == "" {
			continue
		}
		switch {
		case p.IsHeading():
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(strings.Repeat("#", p.HeadingLevel) + " " + text + "\n")
			prevList = false
		case p.IsList:
			if sb.Len() > 0 && !prevList {
				sb.WriteString("\n")
			}
			marker := "- "
			if p.Ordered {
				marker = "1. "
			}
			sb.WriteString(strings.Repeat("  ", p.ListLevel) + marker + text + "\n")
			prevList = true
		default:
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(text + "\n")
			prevList = false
		}
	}
	return sb.String()
}
