package interfaces

import "image"

// DocumentHandle is a parsed, in-memory document. Handles own native
// resources and must be closed; the document cache manages their lifetime.
type DocumentHandle interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// RenderPage rasterizes one page (0-based) at the given scale factor
	// (1.0 = base resolution) with an additional rotation delta in degrees.
	RenderPage(pageIndex int, scale float64, rotation int) (image.Image, error)

	// ExtractText returns the raw text of one page (0-based), item-joined,
	// layout not preserved.
	ExtractText(pageIndex int) (string, error)

	// Close releases native resources. Safe to call more than once.
	Close() error
}

// Codec wraps the PDF engines behind the operations the core actually needs:
// parse/render/extract on one side, byte-exact page surgery on the other.
type Codec interface {
	// Parse opens raw bytes as a document. Returns *DocumentParseError for
	// malformed input and *PasswordProtectedError for encrypted input.
	Parse(docID, name string, data []byte) (DocumentHandle, error)

	// CopyPage extracts a single page (0-based) from the source bytes into a
	// standalone document, byte-exact with no re-render, applying the given
	// additive rotation delta on top of whatever the source page carries.
	CopyPage(data []byte, pageIndex int, rotation int) ([]byte, error)

	// Assemble merges standalone single-page documents into one document,
	// in order.
	Assemble(parts [][]byte) ([]byte, error)

	// NewBuilder starts a fresh document for rasterized rebuilds.
	NewBuilder() DocumentBuilder
}

// DocumentBuilder accumulates full-page images into a new document.
type DocumentBuilder interface {
	// AddImagePage appends one page sized to the image, encoded as JPEG at
	// the given quality (1-100).
	AddImagePage(img image.Image, quality int) error

	// Finish serializes the document.
	Finish() ([]byte, error)
}
