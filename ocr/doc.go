// Package ocr recognizes text in scanned PDFs.
//
// Pages are rendered with pdftoppm and passed to a [Recognizer]. Two
// recognizers are available:
//
//   - [Client] binds libtesseract through gosseract. It is compiled in only
//     with the "ocr" build tag (go build -tags ocr); otherwise [New] returns
//     [ErrOCRNotEnabled].
//   - [Tesseract] runs the tesseract command-line tool through an
//     office.Runner and needs no cgo.
//
// [Pipeline] prefers the cgo client and falls back to the command-line tool.
//
// Tesseract must be installed either way. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr
