// Package pdf extracts words, text, page images and tables from PDF files.
//
// Positioned words and plain text come from poppler's pdftotext, page
// images from pdftoppm; both are run through an [office.Runner]. Page
// counting, validation, merging, splitting and page extraction are done in
// process with pdfcpu.
//
//	doc, err := pdf.Open("report.pdf", pdf.Config{Runner: runner})
//	if err != nil {
//	    return err
//	}
//	res, err := doc.Tables(ctx, pdf.TableOptions{Stitch: true})
package pdf
