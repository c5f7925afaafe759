// Package paging converts 1-based page numbers into offsets.
package paging

// DefaultSize is the page size used by history and expense listings.
const DefaultSize = 10

// MaxNumber is the highest page number accepted. It keeps Offset far from
// integer overflow.
const MaxNumber = 1_000_000

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// New normalizes a page request: numbers are clamped to [1, MaxNumber] and a
// non-positive size becomes DefaultSize.
func New(number, size int) Page {
	number = min(max(number, 1), MaxNumber)
	if size < 1 {
		size = DefaultSize
	}
	return Page{Number: number, Size: size}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages returns the page count needed to hold rows.
func (p Page) TotalPages(rows int64) int {
	return int((rows + int64(p.Size) - 1) / int64(p.Size))
}
