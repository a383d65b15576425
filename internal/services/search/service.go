// Package search maintains a lazy per-page text cache and answers
// case-insensitive substring queries over the workspace page sequence.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/interfaces"
	"github.com/ternarybob/quire/internal/models"
)

const snippetRadius = 60

// Service implements interfaces.SearchIndex.
type Service struct {
	mu     sync.Mutex
	texts  map[string]string // "<docID>/<pageIndex>" -> normalized page text
	cache  interfaces.DocumentCache
	logger arbor.ILogger
}

var _ interfaces.SearchIndex = (*Service)(nil)

// NewService creates a new search index backed by the shared document cache.
func NewService(cache interfaces.DocumentCache, logger arbor.ILogger) *Service {
	return &Service{
		texts:  make(map[string]string),
		cache:  cache,
		logger: logger,
	}
}

// IndexPage returns the normalized text of one source page, extracting and
// caching it on first access.
func (s *Service) IndexPage(ctx context.Context, doc *models.SourceDocument, pageIndex int) (string, error) {
	key := cacheKey(doc.ID, pageIndex)

	s.mu.Lock()
	if text, ok := s.texts[key]; ok {
		s.mu.Unlock()
		return text, nil
	}
	s.mu.Unlock()

	handle, release, err := s.cache.Acquire(ctx, doc.ID, doc.Name, doc.Content)
	if err != nil {
		return "", err
	}
	raw, err := handle.ExtractText(pageIndex)
	release()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d of %s: %w", pageIndex+1, doc.Name, err)
	}

	text := normalizeText(raw)
	s.mu.Lock()
	s.texts[key] = text
	s.mu.Unlock()
	return text, nil
}

// Search scans every workspace page in sequence order for case-insensitive
// substring occurrences of query. Pages whose text cannot be extracted are
// skipped, not fatal. An empty or whitespace-only query short-circuits to an
// empty result without touching the cache.
func (s *Service) Search(ctx context.Context, query string, ws models.Workspace, progress models.ProgressFunc) (*models.SearchResults, error) {
	results := &models.SearchResults{Query: query}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return results, nil
	}

	byDoc := make(map[string]*models.DocumentMatches)
	var docOrder []string
	total := len(ws.Pages)

	for i, p := range ws.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, ok := ws.Documents[p.SourceDocumentID]
		if !ok {
			s.reportProgress(progress, i+1, total)
			continue
		}
		text, err := s.IndexPage(ctx, doc, p.SourcePageIndex)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("doc_id", doc.ID).
				Int("page", p.SourcePageIndex).
				Msg("Skipping unsearchable page")
			s.reportProgress(progress, i+1, total)
			continue
		}

		matches := findMatches(text, needle, p.ID, p.DisplayPageNumber())
		if len(matches) > 0 {
			group, ok := byDoc[doc.ID]
			if !ok {
				group = &models.DocumentMatches{DocumentID: doc.ID, DocumentName: doc.Name}
				byDoc[doc.ID] = group
				docOrder = append(docOrder, doc.ID)
			}
			group.Matches = append(group.Matches, matches...)
			results.Total += len(matches)
		}
		s.reportProgress(progress, i+1, total)
	}

	for _, id := range docOrder {
		results.Documents = append(results.Documents, *byDoc[id])
	}
	return results, nil
}

// Invalidate drops every cached entry for a document.
func (s *Service) Invalidate(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := docID + "/"
	for key := range s.texts {
		if strings.HasPrefix(key, prefix) {
			delete(s.texts, key)
		}
	}
}

// Clear drops the whole text cache.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = make(map[string]string)
}

func (s *Service) reportProgress(progress models.ProgressFunc, current, total int) {
	if progress != nil {
		progress(current, total)
	}
}

// findMatches locates every occurrence of needle in the page text. The scan
// cursor advances one byte past each match start, so overlapping occurrences
// are all reported.
func findMatches(text, needle, pageID string, displayPage int) []models.SearchMatch {
	haystack := strings.ToLower(text)
	var matches []models.SearchMatch

	cursor := 0
	for cursor <= len(haystack)-len(needle) {
		rel := strings.Index(haystack[cursor:], needle)
		if rel < 0 {
			break
		}
		at := cursor + rel
		matches = append(matches, models.SearchMatch{
			PageID:            pageID,
			DisplayPageNumber: displayPage,
			Offset:            at,
			Snippet:           snippet(text, at, len(needle)),
		})
		cursor = at + 1
	}
	return matches
}

// snippet returns the match with up to snippetRadius characters of context on
// each side, marking clipped ends with an ellipsis.
func snippet(text string, at, matchLen int) string {
	start := at - snippetRadius
	if start < 0 {
		start = 0
	}
	end := at + matchLen + snippetRadius
	if end > len(text) {
		end = len(text)
	}

	out := text[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}

// normalizeText collapses all runs of whitespace into single spaces so
// offsets and snippets are stable across extraction quirks.
func normalizeText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func cacheKey(docID string, pageIndex int) string {
	return fmt.Sprintf("%s/%d", docID, pageIndex)
}
