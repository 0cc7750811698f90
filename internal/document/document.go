// Package document hides the PDF library behind the two calls the slicer needs:
// a page count and extraction of a half-open page range.
package document

import "io"

// Handle is an opened source document. Pages are numbered from zero.
type Handle interface {
	PageCount() int
	// ExtractPages returns pages [begin, end) in their original order.
	ExtractPages(begin, end int) (PageSet, error)
	Close() error
}

// PageSet is a standalone document holding the extracted pages.
type PageSet interface {
	Len() int
	Write(w io.Writer) error
}
