package models

// SourceDocument holds the original bytes of an ingested PDF. Content is
// immutable once ingested and only ever replaced wholesale (e.g. after a
// compress-and-replace operation).
type SourceDocument struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ByteSize     int    `json:"byte_size"`
	DisplayColor string `json:"display_color"`
	Content      []byte `json:"-"`
}

// Page is a reference to a single page of a source document, not a copy of
// page data. Duplicating a page creates a new ID pointing at the same
// source page.
type Page struct {
	ID               string `json:"id"`
	SourceDocumentID string `json:"source_document_id"`
	SourcePageIndex  int    `json:"source_page_index"`
	Rotation         int    `json:"rotation"` // workspace delta in degrees, one of 0/90/180/270
	Thumbnail        []byte `json:"-"`        // cached raster preview, regenerable
}

// DisplayPageNumber is the 1-based label of the source page, used for range
// parsing and output naming, never for lookup.
func (p Page) DisplayPageNumber() int {
	return p.SourcePageIndex + 1
}

// Workspace is the single source of truth for page order, rotation and
// selection. All mutating operations are pure transforms returning the next
// state; page records are treated as immutable values so shallow copies of
// the page slice are sufficient for history snapshots.
type Workspace struct {
	Documents map[string]*SourceDocument
	Pages     []Page
	Selection map[string]bool
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() Workspace {
	return Workspace{
		Documents: make(map[string]*SourceDocument),
		Pages:     nil,
		Selection: make(map[string]bool),
	}
}

func (w Workspace) clonePages() []Page {
	pages := make([]Page, len(w.Pages))
	copy(pages, w.Pages)
	return pages
}

func (w Workspace) cloneSelection() map[string]bool {
	sel := make(map[string]bool, len(w.Selection))
	for id := range w.Selection {
		sel[id] = true
	}
	return sel
}

func (w Workspace) cloneDocuments() map[string]*SourceDocument {
	docs := make(map[string]*SourceDocument, len(w.Documents))
	for id, doc := range w.Documents {
		docs[id] = doc
	}
	return docs
}

// PageByID returns the page with the given id, if present.
func (w Workspace) PageByID(id string) (Page, bool) {
	for _, p := range w.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return Page{}, false
}

// SelectedPages returns the selected pages in workspace order.
func (w Workspace) SelectedPages() []Page {
	var pages []Page
	for _, p := range w.Pages {
		if w.Selection[p.ID] {
			pages = append(pages, p)
		}
	}
	return pages
}

// PageIDs returns the current page id sequence.
func (w Workspace) PageIDs() []string {
	ids := make([]string, len(w.Pages))
	for i, p := range w.Pages {
		ids[i] = p.ID
	}
	return ids
}

// Ingest appends documents and pages. Documents with an already-present id
// are overwritten; existing pages are never reordered.
func (w Workspace) Ingest(docs []*SourceDocument, pages []Page) Workspace {
	next := w
	next.Documents = w.cloneDocuments()
	for _, doc := range docs {
		next.Documents[doc.ID] = doc
	}
	next.Pages = append(w.clonePages(), pages...)
	next.Selection = w.cloneSelection()
	return next
}

// Reorder replaces the page sequence with a permutation of the same id set.
// Returns the unchanged workspace and false if the multiset of ids differs
// from the current one.
func (w Workspace) Reorder(ids []string) (Workspace, bool) {
	if len(ids) != len(w.Pages) {
		return w, false
	}
	byID := make(map[string][]Page, len(w.Pages))
	for _, p := range w.Pages {
		byID[p.ID] = append(byID[p.ID], p)
	}
	pages := make([]Page, 0, len(ids))
	for _, id := range ids {
		queue := byID[id]
		if len(queue) == 0 {
			return w, false
		}
		pages = append(pages, queue[0])
		byID[id] = queue[1:]
	}
	next := w
	next.Pages = pages
	return next, true
}

// IsIdentityOrder reports whether ids equals the current page id sequence.
func (w Workspace) IsIdentityOrder(ids []string) bool {
	if len(ids) != len(w.Pages) {
		return false
	}
	for i, p := range w.Pages {
		if p.ID != ids[i] {
			return false
		}
	}
	return true
}

func normalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}

// Rotate applies a 90 degree delta to a single page. Unknown ids are a
// silent no-op.
func (w Workspace) Rotate(pageID string, clockwise bool) Workspace {
	return w.RotateMany([]string{pageID}, clockwise)
}

// RotateMany applies the same 90 degree delta to each listed page.
func (w Workspace) RotateMany(pageIDs []string, clockwise bool) Workspace {
	if len(pageIDs) == 0 {
		return w
	}
	delta := 90
	if !clockwise {
		delta = -90
	}
	targets := make(map[string]bool, len(pageIDs))
	for _, id := range pageIDs {
		targets[id] = true
	}
	next := w
	next.Pages = w.clonePages()
	for i := range next.Pages {
		if targets[next.Pages[i].ID] {
			next.Pages[i].Rotation = normalizeRotation(next.Pages[i].Rotation + delta)
			next.Pages[i].Thumbnail = nil
		}
	}
	return next
}

// Remove deletes a single page, pruning it from the selection.
func (w Workspace) Remove(pageID string) Workspace {
	return w.RemoveMany([]string{pageID})
}

// RemoveMany deletes the listed pages and prunes the selection.
func (w Workspace) RemoveMany(pageIDs []string) Workspace {
	if len(pageIDs) == 0 {
		return w
	}
	doomed := make(map[string]bool, len(pageIDs))
	for _, id := range pageIDs {
		doomed[id] = true
	}
	next := w
	next.Pages = make([]Page, 0, len(w.Pages))
	for _, p := range w.Pages {
		if !doomed[p.ID] {
			next.Pages = append(next.Pages, p)
		}
	}
	next.Selection = w.cloneSelection()
	for id := range doomed {
		delete(next.Selection, id)
	}
	return next
}

// RemoveDocument cascades: the document and every page referencing it are
// removed, and the selection is pruned. Unknown ids are a silent no-op.
func (w Workspace) RemoveDocument(docID string) Workspace {
	if _, ok := w.Documents[docID]; !ok {
		return w
	}
	next := w
	next.Documents = w.cloneDocuments()
	delete(next.Documents, docID)
	next.Pages = make([]Page, 0, len(w.Pages))
	next.Selection = w.cloneSelection()
	for _, p := range w.Pages {
		if p.SourceDocumentID == docID {
			delete(next.Selection, p.ID)
			continue
		}
		next.Pages = append(next.Pages, p)
	}
	return next
}

// DuplicateSelected inserts a copy immediately after each selected page.
// Copies get fresh ids from newID but share the source reference, rotation
// and thumbnail of their original.
func (w Workspace) DuplicateSelected(newID func() string) Workspace {
	if len(w.Selection) == 0 {
		return w
	}
	next := w
	next.Pages = make([]Page, 0, len(w.Pages)+len(w.Selection))
	for _, p := range w.Pages {
		next.Pages = append(next.Pages, p)
		if w.Selection[p.ID] {
			dup := p
			dup.ID = newID()
			next.Pages = append(next.Pages, dup)
		}
	}
	return next
}

// SelectToggle updates the selection. With additive false the selection
// becomes exactly {pageID}, or empty if it already was exactly {pageID}.
// With additive true the membership of pageID is flipped.
func (w Workspace) SelectToggle(pageID string, additive bool) Workspace {
	if _, ok := w.PageByID(pageID); !ok {
		return w
	}
	next := w
	if additive {
		next.Selection = w.cloneSelection()
		if next.Selection[pageID] {
			delete(next.Selection, pageID)
		} else {
			next.Selection[pageID] = true
		}
		return next
	}
	if len(w.Selection) == 1 && w.Selection[pageID] {
		next.Selection = make(map[string]bool)
		return next
	}
	next.Selection = map[string]bool{pageID: true}
	return next
}

// SelectAll toggles: if every page is already selected the selection is
// cleared instead.
func (w Workspace) SelectAll() Workspace {
	next := w
	if len(w.Selection) == len(w.Pages) && len(w.Pages) > 0 {
		next.Selection = make(map[string]bool)
		return next
	}
	next.Selection = make(map[string]bool, len(w.Pages))
	for _, p := range w.Pages {
		next.Selection[p.ID] = true
	}
	return next
}

// SelectNone clears the selection.
func (w Workspace) SelectNone() Workspace {
	next := w
	next.Selection = make(map[string]bool)
	return next
}

// ReassignDocumentOrder regroups pages so each document's pages appear
// contiguously in the given document order, preserving each document's
// internal page order. Pages of documents not listed keep their relative
// order after the listed ones.
func (w Workspace) ReassignDocumentOrder(docIDs []string) Workspace {
	listed := make(map[string]bool, len(docIDs))
	for _, id := range docIDs {
		listed[id] = true
	}
	next := w
	next.Pages = make([]Page, 0, len(w.Pages))
	for _, docID := range docIDs {
		for _, p := range w.Pages {
			if p.SourceDocumentID == docID {
				next.Pages = append(next.Pages, p)
			}
		}
	}
	for _, p := range w.Pages {
		if !listed[p.SourceDocumentID] {
			next.Pages = append(next.Pages, p)
		}
	}
	return next
}

// ReplaceDocumentContent swaps a document's bytes wholesale, e.g. after
// compression. Unknown ids are a silent no-op.
func (w Workspace) ReplaceDocumentContent(docID string, content []byte) Workspace {
	old, ok := w.Documents[docID]
	if !ok {
		return w
	}
	next := w
	next.Documents = w.cloneDocuments()
	doc := *old
	doc.Content = content
	doc.ByteSize = len(content)
	next.Documents[docID] = &doc
	next.Pages = w.clonePages()
	for i := range next.Pages {
		if next.Pages[i].SourceDocumentID == docID {
			next.Pages[i].Thumbnail = nil
		}
	}
	return next
}
