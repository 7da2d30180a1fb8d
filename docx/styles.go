package docx

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// stylesXML represents the structure of word/styles.xml
type stylesXML struct {
	XMLName xml.Name      `xml:"styles"`
	Styles  []styleDefXML `xml:"style"`
}

// styleDefXML represents a style definition.
type styleDefXML struct {
	Type    string            `xml:"type,attr"` // paragraph, character, table, numbering
	StyleID string            `xml:"styleId,attr"`
	Name    valXML            `xml:"name"`
	BasedOn valXML            `xml:"basedOn"`
	PPr     paragraphPropsXML `xml:"pPr"`
}

// numberingXML represents word/numbering.xml
type numberingXML struct {
	XMLName      xml.Name         `xml:"numbering"`
	AbstractNums []abstractNumXML `xml:"abstractNum"`
	Nums         []numXML         `xml:"num"`
}

type abstractNumXML struct {
	AbstractNumID string   `xml:"abstractNumId,attr"`
	Levels        []lvlXML `xml:"lvl"`
}

type lvlXML struct {
	ILvl   string `xml:"ilvl,attr"`
	NumFmt valXML `xml:"numFmt"`
}

type numXML struct {
	NumID         string `xml:"numId,attr"`
	AbstractNumID valXML `xml:"abstractNumId"`
}

// builtInHeadings maps standard Word style IDs to heading levels.
var builtInHeadings = map[string]int{
	"heading1": 1, "heading2": 2, "heading3": 3,
	"heading4": 4, "heading5": 5, "heading6": 6,
	"heading7": 7, "heading8": 8, "heading9": 9,
	"title": 1,
}

// styleSheet answers heading and list questions for a document.
type styleSheet struct {
	styles  map[string]*styleDefXML
	formats map[string]map[int]string // numId -> level -> numFmt
}

func newStyleSheet(styles *stylesXML, numbering *numberingXML) *styleSheet {
	ss := &styleSheet{
		styles:  make(map[string]*styleDefXML),
		formats: make(map[string]map[int]string),
	}
	if styles != nil {
		for i := range styles.Styles {
			s := &styles.Styles[i]
			ss.styles[strings.ToLower(s.StyleID)] = s
		}
	}
	if numbering != nil {
		abstract := make(map[string]map[int]string)
		for _, an := range numbering.AbstractNums {
			levels := make(map[int]string)
			for _, l := range an.Levels {
				n, err := strconv.Atoi(l.ILvl)
				if err == nil {
					levels[n] = l.NumFmt.Val
				}
			}
			abstract[an.AbstractNumID] = levels
		}
		for _, n := range numbering.Nums {
			ss.formats[n.NumID] = abstract[n.AbstractNumID.Val]
		}
	}
	return ss
}

// styleName returns the display name of a style, or the ID.
func (ss *styleSheet) styleName(styleID string) string {
	if s, ok := ss.styles[strings.ToLower(styleID)]; ok && s.Name.Val != "" {
		return s.Name.Val
	}
	return styleID
}

// headingLevel returns the heading level (1-9) of a paragraph with the
// given style and direct outline level, or 0. Outline levels are
// inherited through basedOn chains.
func (ss *styleSheet) headingLevel(styleID, outlineLvl string) int {
	if lvl := parseOutlineLevel(outlineLvl); lvl >= 0 {
		return lvl + 1
	}

	id := strings.ToLower(styleID)
	seen := make(map[string]bool)
	for id != "" && !seen[id] {
		seen[id] = true
		if level, ok := builtInHeadings[id]; ok {
			return level
		}
		s, ok := ss.styles[id]
		if !ok {
			break
		}
		if lvl := parseOutlineLevel(s.PPr.OutlineLvl.Val); lvl >= 0 {
			return lvl + 1
		}
		name := strings.ToLower(strings.ReplaceAll(s.Name.Val, " ", ""))
		if level, ok := builtInHeadings[name]; ok {
			return level
		}
		id = strings.ToLower(s.BasedOn.Val)
	}
	return 0
}

// listInfo reports whether numbering properties make a list item and
// whether the list is ordered.
func (ss *styleSheet) listInfo(np numberingPropsXML) (isList, ordered bool, level int) {
	if np.NumID.Val == "" || np.NumID.Val == "0" {
		return false, false, 0
	}
	level, _ = strconv.Atoi(np.ILvl.Val)
	fmtVal := ss.formats[np.NumID.Val][level]
	return true, fmtVal != "" && fmtVal != "bullet" && fmtVal != "none", level
}

// parseOutlineLevel parses a 0-based outline level; body text (9) and
// invalid values yield -1.
func parseOutlineLevel(s string) int {
	level, err := strconv.Atoi(s)
	if err != nil || level < 0 || level > 8 {
		return -1
	}
	return level
}
