// Package loader defines the structured-document loader port. Parsing
// PDF/DOCX/XLSX bytes into logical segments is delegated to an external
// parser service; this package only carries the boundary types and the HTTP
// adapter for that service.
package loader

import "context"

// Segment is one logical unit emitted by the structured parser: a run of
// text with the heading path it sits under and, when the format has pages,
// its page number.
type Segment struct {
	Text     string
	Headings []string
	Page     int
}

// Loader turns raw document bytes into ordered segments.
type Loader interface {
	Load(ctx context.Context, content []byte, filename string) ([]Segment, error)
}
