package interfaces

import (
	"context"

	"github.com/ternarybob/quire/internal/models"
)

// SearchIndex caches normalized per-page extracted text and answers
// substring queries over the current workspace.
type SearchIndex interface {
	// IndexPage returns the normalized text of one source page, extracting
	// and caching it on a miss.
	IndexPage(ctx context.Context, doc *models.SourceDocument, pageIndex int) (string, error)

	// Search finds all occurrences of query across the workspace pages in
	// workspace order, grouped by source document. The progress callback, if
	// non-nil, fires once per workspace page processed.
	Search(ctx context.Context, query string, ws models.Workspace, progress models.ProgressFunc) (*models.SearchResults, error)

	// Invalidate drops every cached entry for a document.
	Invalidate(docID string)

	// Clear drops the whole text cache.
	Clear()
}
