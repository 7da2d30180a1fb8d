// Package model holds the shared representation of extracted content:
// positioned words as they come out of a PDF page, and tables as plain
// rows of strings.
//
// Coordinates are in PDF points with the origin at the top-left corner of
// the page and y growing downwards, matching what poppler reports.
package model
