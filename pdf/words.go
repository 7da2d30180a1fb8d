package pdf

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/officekit/model"
)

// Page holds the words pdftotext found on one page. Coordinates are in
// points with the origin at the top left.
type Page struct {
	Number int
	Width  float64
	Height float64
	Words  []model.Word
}

// ParseBBox parses the XHTML written by "pdftotext -bbox" or
// "pdftotext -bbox-layout". firstPage is the number of the first page in
// the output (the -f argument).
func ParseBBox(r io.Reader, firstPage int) ([]Page, error) {
	z := html.NewTokenizer(r)

	var pages []Page
	var cur *Page
	var word *model.Word
	var text strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("parsing bbox output: %w", err)
			}
			return pages, nil

		case html.StartTagToken:
			tok := z.Token()
			switch tok.Data {
			case "page":
				pages = append(pages, Page{
					Number: firstPage + len(pages),
					Width:  attrFloat(tok, "width"),
					Height: attrFloat(tok, "height"),
				})
				cur = &pages[len(pages)-1]
			case "word":
				w := model.Word{BBox: model.NewBBoxFromEdges(
					attrFloat(tok, "xmin"),
					attrFloat(tok, "ymin"),
					attrFloat(tok, "xmax"),
					attrFloat(tok, "ymax"),
				)}
				word = &w
				text.Reset()
			}

		case html.TextToken:
			if word != nil {
				text.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "word":
				if word != nil && cur != nil {
					word.Text = strings.TrimSpace(text.String())
					if word.Text != "" {
						cur.Words = append(cur.Words, *word)
					}
				}
				word = nil
			case "page":
				cur = nil
			}
		}
	}
}

// attrFloat returns the named attribute as a float, or 0. The tokenizer
// lower-cases attribute names, so xMin arrives as xmin.
func attrFloat(tok html.Token, name string) float64 {
	for _, a := range tok.Attr {
		if a.Key == name {
			f, err := strconv.ParseFloat(a.Val, 64)
			if err != nil {
				return 0
			}
			return f
		}
	}
	return 0
}
