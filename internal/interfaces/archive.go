package interfaces

import "github.com/ternarybob/quire/internal/models"

// ArchiveWriter packages multiple export outputs into a single archive blob.
type ArchiveWriter interface {
	Pack(files []models.OutputFile) ([]byte, error)
}
