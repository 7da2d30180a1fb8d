package docx

import (
	"strconv"
	"strings"

	"github.com/tsawler/officekit/model"
)

// convertTable flattens a Word table into a string grid. A cell spanning
// several grid columns is followed by empty cells, and cells continuing
// a vertical merge are empty.
func convertTable(tbl *tableXML) *model.Table {
	t := &model.Table{Confidence: 1}
	for _, tr := range tbl.Rows {
		var row []string
		for _, tc := range tr.Cells {
			text := ""
			if vm := tc.Properties.VMerge; vm == nil || vm.Val == "restart" {
				text = cellText(tc)
			}
			row = append(row, text)

			span, _ := strconv.Atoi(tc.Properties.GridSpan.Val)
			for i := 1; i < span; i++ {
				row = append(row, "")
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cellText(tc tableCellXML) string {
	var parts []string
	for i := range tc.Paragraphs {
		if s := strings.TrimSpace(paragraphText(&tc.Paragraphs[i])); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
