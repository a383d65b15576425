package export

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/ternarybob/quire/internal/interfaces"
	"github.com/ternarybob/quire/internal/models"
)

// ZipWriter implements interfaces.ArchiveWriter using the standard zip
// container expected by browser download flows.
type ZipWriter struct{}

var _ interfaces.ArchiveWriter = (*ZipWriter)(nil)

// NewZipWriter creates a new zip archive writer.
func NewZipWriter() *ZipWriter {
	return &ZipWriter{}
}

// Pack writes all files into a single zip blob, preserving order.
func (z *ZipWriter) Pack(files []models.OutputFile) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, f := range files {
		entry, err := w.Create(f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %w", f.Name, err)
		}
		if _, err := entry.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
