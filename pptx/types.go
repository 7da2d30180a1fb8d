package pptx

import "encoding/xml"

// presentationXML represents the ppt/presentation.xml file structure.
type presentationXML struct {
	XMLName     xml.Name        `xml:"presentation"`
	SlideIdList *slideIdListXML `xml:"sldIdLst"`
	SlideSz     *slideSzXML     `xml:"sldSz"`
}

type slideIdListXML struct {
	SlideId []slideIdXML `xml:"sldId"`
}

type slideIdXML struct {
	ID  string `xml:"id,attr"`
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

type slideSzXML struct {
	Cx int64 `xml:"cx,attr"` // Width in EMUs
	Cy int64 `xml:"cy,attr"` // Height in EMUs
}

type xfrmXML struct {
	Off   pointXML `xml:"off"`
	Ext   sizeXML  `xml:"ext"`
	ChOff pointXML `xml:"chOff"` // Group child offset
	ChExt sizeXML  `xml:"chExt"` // Group child extent
}

type pointXML struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type sizeXML struct {
	Cx int64 `xml:"cx,attr"`
	Cy int64 `xml:"cy,attr"`
}

// pXML represents a paragraph. Runs, fields and breaks are kept in
// document order through the ",any" field.
type pXML struct {
	PPr   *pPrXML      `xml:"pPr"`
	Items []runItemXML `xml:",any"`
}

// runItemXML is an <a:r>, <a:fld>, <a:br> or <a:endParaRPr>.
type runItemXML struct {
	XMLName xml.Name
	RPr     *rPrXML `xml:"rPr"`
	T       string  `xml:"t"`
}

type pPrXML struct {
	Lvl       int           `xml:"lvl,attr"`  // Bullet level (0-8)
	Algn      string        `xml:"algn,attr"` // Alignment: l, ctr, r, just
	BuNone    *struct{}     `xml:"buNone"`
	BuChar    *buCharXML    `xml:"buChar"`
	BuAutoNum *buAutoNumXML `xml:"buAutoNum"`
}

type buCharXML struct {
	Char string `xml:"char,attr"`
}

type buAutoNumXML struct {
	Type string `xml:"type,attr"`
}

type rPrXML struct {
	Sz int    `xml:"sz,attr"` // Font size in hundredths of a point
	B  string `xml:"b,attr"`  // "1" or "true" when bold
	I  string `xml:"i,attr"`  // "1" or "true" when italic
}

// graphicFrameXML represents a graphic frame (tables, charts).
type graphicFrameXML struct {
	Graphic struct {
		GraphicData struct {
			Tbl *tblXML `xml:"tbl"`
		} `xml:"graphicData"`
	} `xml:"graphic"`
}

type tblXML struct {
	Tr []trXML `xml:"tr"`
}

type trXML struct {
	Tc []tcXML `xml:"tc"`
}

type tcXML struct {
	TxBody *struct {
		P []pXML `xml:"p"`
	} `xml:"txBody"`
	HMerge string `xml:"hMerge,attr"`
	VMerge string `xml:"vMerge,attr"`
}

// relationshipsXML represents .rels files.
type relationshipsXML struct {
	XMLName      xml.Name          `xml:"Relationships"`
	Relationship []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

func isTrue(v string) bool {
	return v == "1" || v == "true"
}
