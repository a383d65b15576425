// -----------------------------------------------------------------------
// PDF Codec Adapter - wraps the PDF engines behind the narrow surface the
// workspace core needs. go-fitz (MuPDF) parses, renders and extracts text;
// pdfcpu performs byte-exact page copy, rotation and merge; fpdf rebuilds
// rasterized documents.
// -----------------------------------------------------------------------

package codec

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/interfaces"
)

// Service implements interfaces.Codec
type Service struct {
	logger arbor.ILogger
	conf   *model.Configuration
}

// Compile-time assertion
var _ interfaces.Codec = (*Service)(nil)

// NewService creates a new codec service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
		conf:   model.NewDefaultConfiguration(),
	}
}

// Parse opens raw bytes as a document handle. Encrypted documents surface
// *PasswordProtectedError; anything else unreadable surfaces
// *DocumentParseError.
func (s *Service) Parse(docID, name string, data []byte) (interfaces.DocumentHandle, error) {
	if len(data) == 0 {
		return nil, &interfaces.DocumentParseError{
			DocumentID: docID,
			Name:       name,
			Err:        fmt.Errorf("empty document"),
		}
	}

	// Probe with pdfcpu first: it distinguishes encryption from corruption,
	// which MuPDF reports as a generic open failure.
	if _, err := api.ReadContext(bytes.NewReader(data), s.conf); err != nil {
		if isPasswordError(err) {
			s.logger.Debug().Str("doc_id", docID).Str("name", name).Msg("Document is password protected")
			return nil, &interfaces.PasswordProtectedError{DocumentID: docID, Name: name}
		}
		return nil, &interfaces.DocumentParseError{DocumentID: docID, Name: name, Err: err}
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &interfaces.DocumentParseError{DocumentID: docID, Name: name, Err: err}
	}

	s.logger.Debug().
		Str("doc_id", docID).
		Str("name", name).
		Int("pages", doc.NumPage()).
		Int("bytes", len(data)).
		Msg("Parsed document")

	return &handle{doc: doc, logger: s.logger}, nil
}

// CopyPage extracts one page (0-based) into a standalone single-page
// document without re-rendering, then applies the rotation delta on top of
// whatever rotation the source page already carries.
func (s *Service) CopyPage(data []byte, pageIndex int, rotation int) ([]byte, error) {
	var collected bytes.Buffer
	selected := []string{strconv.Itoa(pageIndex + 1)}
	if err := api.Collect(bytes.NewReader(data), &collected, selected, s.conf); err != nil {
		return nil, fmt.Errorf("failed to copy page %d: %w", pageIndex, err)
	}

	rotation = ((rotation % 360) + 360) % 360
	if rotation == 0 {
		return collected.Bytes(), nil
	}

	// pdfcpu rotation is additive to the page's existing /Rotate entry.
	var rotated bytes.Buffer
	if err := api.Rotate(bytes.NewReader(collected.Bytes()), &rotated, rotation, nil, s.conf); err != nil {
		return nil, fmt.Errorf("failed to rotate page %d by %d: %w", pageIndex, rotation, err)
	}
	return rotated.Bytes(), nil
}

// Assemble merges standalone documents into one, preserving order.
func (s *Service) Assemble(parts [][]byte) ([]byte, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("nothing to assemble")
	}
	if len(parts) == 1 {
		out := make([]byte, len(parts[0]))
		copy(out, parts[0])
		return out, nil
	}

	readers := make([]io.ReadSeeker, len(parts))
	for i, part := range parts {
		readers[i] = bytes.NewReader(part)
	}

	var merged bytes.Buffer
	if err := api.MergeRaw(readers, &merged, false, s.conf); err != nil {
		return nil, fmt.Errorf("failed to merge %d parts: %w", len(parts), err)
	}
	return merged.Bytes(), nil
}

// NewBuilder starts a fresh document for rasterized rebuilds.
func (s *Service) NewBuilder() interfaces.DocumentBuilder {
	return newBuilder()
}

// isPasswordError reports whether a pdfcpu read failure is an encryption
// issue rather than corruption. pdfcpu does not export a sentinel for this.
func isPasswordError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}
