package export

import (
	"context"
	"fmt"

	"github.com/ternarybob/quire/internal/models"
)

// Compress rasterizes every page of the source document and rebuilds it as
// one full-page JPEG per page, discarding all vector and text content. The
// same primitive backs the lossy "unlock" flow: rendering an opened
// protected document into a fresh unencrypted one. Password-protected
// sources surface *PasswordProtectedError from the parse; this operation
// never prompts for credentials itself.
func (s *Service) Compress(ctx context.Context, doc *models.SourceDocument, quality, scale float64, progress models.ProgressFunc) ([]byte, error) {
	if quality <= 0 || quality > 1 {
		return nil, fmt.Errorf("quality must be in (0,1], got %v", quality)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", scale)
	}

	handle, release, err := s.cache.Acquire(ctx, doc.ID, doc.Name, doc.Content)
	if err != nil {
		return nil, err
	}
	defer release()

	total := handle.PageCount()
	builder := s.codec.NewBuilder()

	for i := 0; i < total; i++ {
		img, err := handle.RenderPage(i, scale, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d of %s: %w", i+1, doc.Name, err)
		}
		if err := builder.AddImagePage(img, int(quality*100)); err != nil {
			return nil, fmt.Errorf("failed to rebuild page %d of %s: %w", i+1, doc.Name, err)
		}
		report(progress, i+1, total)
	}

	data, err := builder.Finish()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize compressed document: %w", err)
	}

	s.logger.Info().
		Str("doc_id", doc.ID).
		Int("pages", total).
		Int("before_bytes", len(doc.Content)).
		Int("after_bytes", len(data)).
		Msg("Compressed document")
	return data, nil
}
