package models

import "time"

// HistoryEntry is an immutable snapshot of the page sequence and selection,
// captured before a mutating action is applied. Page records are immutable
// values, so a shallow copy of the slice is independent of later mutation.
type HistoryEntry struct {
	Pages     []Page
	Selection map[string]bool
	Timestamp time.Time
}

// Snapshot captures the current pages and selection of a workspace.
func Snapshot(w Workspace) HistoryEntry {
	pages := make([]Page, len(w.Pages))
	copy(pages, w.Pages)
	sel := make(map[string]bool, len(w.Selection))
	for id := range w.Selection {
		sel[id] = true
	}
	return HistoryEntry{
		Pages:     pages,
		Selection: sel,
		Timestamp: time.Now(),
	}
}

// Apply restores the snapshot onto a workspace, leaving documents untouched.
func (e HistoryEntry) Apply(w Workspace) Workspace {
	next := w
	next.Pages = make([]Page, len(e.Pages))
	copy(next.Pages, e.Pages)
	next.Selection = make(map[string]bool, len(e.Selection))
	for id := range e.Selection {
		next.Selection[id] = true
	}
	return next
}
