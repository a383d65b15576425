// Package workspace owns the live page model: the ordered sequence of page
// references across all ingested documents, their rotation and selection,
// and the undo history layered over every mutation.
package workspace

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/common"
	"github.com/ternarybob/quire/internal/interfaces"
	"github.com/ternarybob/quire/internal/models"
)

// displayColors cycles UI tag colors across ingested documents.
var displayColors = []string{"#4f46e5", "#059669", "#d97706", "#dc2626", "#7c3aed", "#0891b2"}

// Service is the single mutation point for workspace state. Mutations run
// under one mutex so each reads and commits state without interleaving;
// codec calls happen outside the lock.
type Service struct {
	mu         sync.Mutex
	ws         models.Workspace
	history    *History
	activeTool string
	colorIdx   int

	cache   interfaces.DocumentCache
	index   interfaces.SearchIndex
	session interfaces.SessionBridge
	logger  arbor.ILogger

	thumbnailScale float64
}

// NewService creates a workspace service with an empty workspace.
func NewService(cache interfaces.DocumentCache, index interfaces.SearchIndex, session interfaces.SessionBridge, historyDepth int, thumbnailScale float64, logger arbor.ILogger) *Service {
	if thumbnailScale <= 0 {
		thumbnailScale = 0.3
	}
	return &Service{
		ws:             models.NewWorkspace(),
		history:        NewHistory(historyDepth),
		cache:          cache,
		index:          index,
		session:        session,
		logger:         logger,
		thumbnailScale: thumbnailScale,
	}
}

// Current returns a snapshot of the live workspace state.
func (s *Service) Current() models.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws
}

// ActiveTool returns the persisted tool hint.
func (s *Service) ActiveTool() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTool
}

// SetActiveTool records the tool hint and schedules a save. Not undoable.
func (s *Service) SetActiveTool(tool string) {
	s.mu.Lock()
	s.activeTool = tool
	s.mu.Unlock()
	s.scheduleSave()
}

// IngestDocument parses uploaded bytes, registers the document and appends
// one page reference per source page to the end of the sequence.
func (s *Service) IngestDocument(ctx context.Context, name string, data []byte) (*models.SourceDocument, error) {
	docID := common.NewDocumentID()

	handle, release, err := s.cache.Acquire(ctx, docID, name, data)
	if err != nil {
		return nil, err
	}
	pageCount := handle.PageCount()
	release()

	if pageCount == 0 {
		return nil, &interfaces.DocumentParseError{
			DocumentID: docID,
			Name:       name,
			Err:        fmt.Errorf("document has no pages"),
		}
	}

	s.mu.Lock()
	doc := &models.SourceDocument{
		ID:           docID,
		Name:         name,
		ByteSize:     len(data),
		DisplayColor: displayColors[s.colorIdx%len(displayColors)],
		Content:      data,
	}
	s.colorIdx++

	pages := make([]models.Page, pageCount)
	for i := 0; i < pageCount; i++ {
		pages[i] = models.Page{
			ID:               common.NewPageID(),
			SourceDocumentID: docID,
			SourcePageIndex:  i,
		}
	}

	s.history.Record(s.ws)
	s.ws = s.ws.Ingest([]*models.SourceDocument{doc}, pages)
	s.mu.Unlock()

	s.logger.Info().Str("doc_id", docID).Str("name", name).Int("pages", pageCount).Msg("Ingested document")
	s.scheduleSave()
	return doc, nil
}

// Reorder replaces the page sequence with a permutation of the same id set.
// Rejected permutations and identity orders are silent no-ops with no
// history entry.
func (s *Service) Reorder(pageIDs []string) {
	s.mu.Lock()
	if s.ws.IsIdentityOrder(pageIDs) {
		s.mu.Unlock()
		return
	}
	next, ok := s.ws.Reorder(pageIDs)
	if !ok {
		s.mu.Unlock()
		return
	}
	s.history.Record(s.ws)
	s.ws = next
	s.mu.Unlock()
	s.scheduleSave()
}

// RotatePage rotates one page by 90 degrees. Stale ids are a silent no-op
// with no history entry.
func (s *Service) RotatePage(pageID string, clockwise bool) {
	s.mutateIfPage(pageID, func(w models.Workspace) models.Workspace {
		return w.Rotate(pageID, clockwise)
	})
}

// RotateSelected rotates every selected page by the same delta. No-op when
// the selection is empty.
func (s *Service) RotateSelected(clockwise bool) {
	s.mu.Lock()
	if len(s.ws.Selection) == 0 {
		s.mu.Unlock()
		return
	}
	ids := make([]string, 0, len(s.ws.Selection))
	for id := range s.ws.Selection {
		ids = append(ids, id)
	}
	s.history.Record(s.ws)
	s.ws = s.ws.RotateMany(ids, clockwise)
	s.mu.Unlock()
	s.scheduleSave()
}

// RemovePage deletes one page reference. Stale ids are a silent no-op.
func (s *Service) RemovePage(pageID string) {
	s.mutateIfPage(pageID, func(w models.Workspace) models.Workspace {
		return w.Remove(pageID)
	})
}

// RemoveSelected deletes every selected page.
func (s *Service) RemoveSelected() {
	s.mu.Lock()
	if len(s.ws.Selection) == 0 {
		s.mu.Unlock()
		return
	}
	ids := make([]string, 0, len(s.ws.Selection))
	for id := range s.ws.Selection {
		ids = append(ids, id)
	}
	s.history.Record(s.ws)
	s.ws = s.ws.RemoveMany(ids)
	s.mu.Unlock()
	s.scheduleSave()
}

// RemoveDocument cascades: the document, all its pages, its cached handle
// and its search entries go together. Stale ids are a silent no-op.
func (s *Service) RemoveDocument(docID string) {
	s.mu.Lock()
	if _, ok := s.ws.Documents[docID]; !ok {
		s.mu.Unlock()
		return
	}
	s.history.Record(s.ws)
	s.ws = s.ws.RemoveDocument(docID)
	s.mu.Unlock()
	s.cache.Invalidate(docID)
	s.index.Invalidate(docID)
	s.scheduleSave()
}

// DuplicateSelected inserts a fresh-id copy right after each selected page.
func (s *Service) DuplicateSelected() {
	s.mu.Lock()
	if len(s.ws.Selection) == 0 {
		s.mu.Unlock()
		return
	}
	s.history.Record(s.ws)
	s.ws = s.ws.DuplicateSelected(common.NewPageID)
	s.mu.Unlock()
	s.scheduleSave()
}

// ReassignDocumentOrder regroups pages by document in the given order.
func (s *Service) ReassignDocumentOrder(docIDs []string) {
	s.mutate(func(w models.Workspace) models.Workspace {
		return w.ReassignDocumentOrder(docIDs)
	})
}

// ReplaceDocumentContent swaps a document's bytes (e.g. with its compressed
// rebuild) and drops every derived artifact for it. Stale ids are a silent
// no-op.
func (s *Service) ReplaceDocumentContent(docID string, content []byte) {
	s.mu.Lock()
	if _, ok := s.ws.Documents[docID]; !ok {
		s.mu.Unlock()
		return
	}
	s.history.Record(s.ws)
	s.ws = s.ws.ReplaceDocumentContent(docID, content)
	s.mu.Unlock()
	s.cache.Invalidate(docID)
	s.index.Invalidate(docID)
	s.scheduleSave()
}

// SelectToggle updates the selection. Selection changes never push history.
func (s *Service) SelectToggle(pageID string, additive bool) {
	s.mu.Lock()
	s.ws = s.ws.SelectToggle(pageID, additive)
	s.mu.Unlock()
	s.scheduleSave()
}

// SelectAll toggles between all pages selected and none.
func (s *Service) SelectAll() {
	s.mu.Lock()
	s.ws = s.ws.SelectAll()
	s.mu.Unlock()
	s.scheduleSave()
}

// SelectNone clears the selection.
func (s *Service) SelectNone() {
	s.mu.Lock()
	s.ws = s.ws.SelectNone()
	s.mu.Unlock()
	s.scheduleSave()
}

// Undo restores the most recent history snapshot. Returns false when there
// is nothing to undo.
func (s *Service) Undo() bool {
	s.mu.Lock()
	entry, ok := s.history.Undo(s.ws)
	if ok {
		s.ws = entry.Apply(s.ws)
	}
	s.mu.Unlock()
	if ok {
		s.scheduleSave()
	}
	return ok
}

// Redo reapplies the most recently undone snapshot.
func (s *Service) Redo() bool {
	s.mu.Lock()
	entry, ok := s.history.Redo(s.ws)
	if ok {
		s.ws = entry.Apply(s.ws)
	}
	s.mu.Unlock()
	if ok {
		s.scheduleSave()
	}
	return ok
}

// CanUndo reports whether an undo is available.
func (s *Service) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo is available.
func (s *Service) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Reset clears the workspace, the undo history, every cache and the
// persisted session.
func (s *Service) Reset(ctx context.Context) {
	s.mu.Lock()
	s.ws = models.NewWorkspace()
	s.history.Clear()
	s.activeTool = ""
	s.mu.Unlock()

	s.cache.Clear()
	s.index.Clear()
	if err := s.session.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear persisted session")
	}
	s.logger.Info().Msg("Workspace reset")
}

// Restore loads the persisted session, if any. The restore itself is not
// undoable: history is locked for the duration and starts fresh after.
func (s *Service) Restore(ctx context.Context) error {
	snap, err := s.session.Load(ctx)
	if err != nil {
		if err == interfaces.ErrNoSession {
			return nil
		}
		// Treated identically to "no prior session".
		s.logger.Warn().Err(err).Msg("Failed to load persisted session, starting empty")
		return nil
	}

	s.mu.Lock()
	s.history.Lock()
	s.ws = snap.RestoreWorkspace()
	s.activeTool = snap.ActiveTool
	s.history.Unlock()
	s.history.Clear()
	s.mu.Unlock()

	s.logger.Info().
		Int("documents", len(snap.Documents)).
		Int("pages", len(snap.Pages)).
		Msg("Restored session")
	return nil
}

// Thumbnail returns a small PNG preview for one page, rendering and caching
// it on the page record on a miss.
func (s *Service) Thumbnail(ctx context.Context, pageID string) ([]byte, error) {
	s.mu.Lock()
	page, ok := s.ws.PageByID(pageID)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", interfaces.ErrPageNotFound, pageID)
	}
	if page.Thumbnail != nil {
		s.mu.Unlock()
		return page.Thumbnail, nil
	}
	doc, ok := s.ws.Documents[page.SourceDocumentID]
	s.mu.Unlock()
	if !ok {
		return nil, &interfaces.SourceNotFoundError{DocumentID: page.SourceDocumentID}
	}

	handle, release, err := s.cache.Acquire(ctx, doc.ID, doc.Name, doc.Content)
	if err != nil {
		return nil, err
	}
	defer release()

	img, err := handle.RenderPage(page.SourcePageIndex, s.thumbnailScale, page.Rotation)
	if err != nil {
		return nil, fmt.Errorf("failed to render thumbnail: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	thumb := buf.Bytes()

	// Cache on the page record. The page may have been mutated or removed
	// while rendering; stale ids are a silent no-op.
	s.mu.Lock()
	for i := range s.ws.Pages {
		p := &s.ws.Pages[i]
		if p.ID == pageID && p.Rotation == page.Rotation && p.Thumbnail == nil {
			pages := make([]models.Page, len(s.ws.Pages))
			copy(pages, s.ws.Pages)
			pages[i].Thumbnail = thumb
			s.ws.Pages = pages
			break
		}
	}
	s.mu.Unlock()

	return thumb, nil
}

// mutate records history, applies a pure transform and schedules a save.
func (s *Service) mutate(fn func(models.Workspace) models.Workspace) {
	s.mu.Lock()
	s.history.Record(s.ws)
	s.ws = fn(s.ws)
	s.mu.Unlock()
	s.scheduleSave()
}

// mutateIfPage is mutate gated on the page still existing, so stale ids do
// not leave a spurious undo step behind.
func (s *Service) mutateIfPage(pageID string, fn func(models.Workspace) models.Workspace) {
	s.mu.Lock()
	if _, ok := s.ws.PageByID(pageID); !ok {
		s.mu.Unlock()
		return
	}
	s.history.Record(s.ws)
	s.ws = fn(s.ws)
	s.mu.Unlock()
	s.scheduleSave()
}

func (s *Service) scheduleSave() {
	s.mu.Lock()
	snap := models.SnapshotWorkspace(s.ws, s.activeTool)
	s.mu.Unlock()
	s.session.ScheduleSave(snap)
}
