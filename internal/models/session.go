package models

import "time"

// SessionDocument is the persisted form of a SourceDocument. Content is
// stored inline; thumbnails are derived state and deliberately dropped.
type SessionDocument struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ByteSize     int    `json:"byte_size"`
	DisplayColor string `json:"display_color"`
	Content      []byte `json:"content"`
}

// SessionPage is the persisted form of a Page reference.
type SessionPage struct {
	ID               string `json:"id"`
	SourceDocumentID string `json:"source_document_id"`
	SourcePageIndex  int    `json:"source_page_index"`
	Rotation         int    `json:"rotation"`
	Selected         bool   `json:"selected"`
}

// SessionSnapshot is the durable workspace state handled by the persistence
// bridge. Saving is best-effort; a failed or missing snapshot is treated as
// "no prior session".
type SessionSnapshot struct {
	ID         string            `json:"id" badgerhold:"key"`
	Documents  []SessionDocument `json:"documents"`
	Pages      []SessionPage     `json:"pages"`
	ActiveTool string            `json:"active_tool"`
	SavedAt    time.Time         `json:"saved_at"`
}

// SnapshotWorkspace converts live workspace state into its persisted form.
func SnapshotWorkspace(w Workspace, activeTool string) *SessionSnapshot {
	snap := &SessionSnapshot{
		ID:         "current",
		ActiveTool: activeTool,
		SavedAt:    time.Now(),
	}
	seen := make(map[string]bool, len(w.Documents))
	for _, p := range w.Pages {
		if doc, ok := w.Documents[p.SourceDocumentID]; ok && !seen[doc.ID] {
			seen[doc.ID] = true
			snap.Documents = append(snap.Documents, SessionDocument{
				ID:           doc.ID,
				Name:         doc.Name,
				ByteSize:     doc.ByteSize,
				DisplayColor: doc.DisplayColor,
				Content:      doc.Content,
			})
		}
		snap.Pages = append(snap.Pages, SessionPage{
			ID:               p.ID,
			SourceDocumentID: p.SourceDocumentID,
			SourcePageIndex:  p.SourcePageIndex,
			Rotation:         p.Rotation,
			Selected:         w.Selection[p.ID],
		})
	}
	return snap
}

// RestoreWorkspace rebuilds live workspace state from a snapshot.
func (s *SessionSnapshot) RestoreWorkspace() Workspace {
	w := NewWorkspace()
	for _, d := range s.Documents {
		w.Documents[d.ID] = &SourceDocument{
			ID:           d.ID,
			Name:         d.Name,
			ByteSize:     d.ByteSize,
			DisplayColor: d.DisplayColor,
			Content:      d.Content,
		}
	}
	for _, p := range s.Pages {
		if _, ok := w.Documents[p.SourceDocumentID]; !ok {
			continue
		}
		w.Pages = append(w.Pages, Page{
			ID:               p.ID,
			SourceDocumentID: p.SourceDocumentID,
			SourcePageIndex:  p.SourcePageIndex,
			Rotation:         p.Rotation,
		})
		if p.Selected {
			w.Selection[p.ID] = true
		}
	}
	return w
}
