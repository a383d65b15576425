package workspace

import (
	"github.com/ternarybob/quire/internal/models"
)

// History implements snapshot undo/redo over workspace state: a bounded
// "past" stack, an implicit present, and a "future" stack discarded on any
// new edit. While locked, record/undo/redo are all no-ops; used to suppress
// capture during programmatic bulk operations such as session restore.
type History struct {
	depth  int
	past   []models.HistoryEntry
	future []models.HistoryEntry
	locked bool
}

// NewHistory creates a history with the given undo depth.
func NewHistory(depth int) *History {
	if depth < 1 {
		depth = 1
	}
	return &History{depth: depth}
}

// Record pushes a pre-mutation snapshot onto the past stack, dropping the
// oldest entry past the depth cap, and clears the future stack.
func (h *History) Record(w models.Workspace) {
	if h.locked {
		return
	}
	h.past = append(h.past, models.Snapshot(w))
	if len(h.past) > h.depth {
		h.past = h.past[len(h.past)-h.depth:]
	}
	h.future = nil
}

// Undo pops the most recent past entry, pushing the current state onto the
// future stack. Returns false when there is nothing to undo.
func (h *History) Undo(current models.Workspace) (models.HistoryEntry, bool) {
	if h.locked || len(h.past) == 0 {
		return models.HistoryEntry{}, false
	}
	entry := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, models.Snapshot(current))
	return entry, true
}

// Redo is symmetric to Undo.
func (h *History) Redo(current models.Workspace) (models.HistoryEntry, bool) {
	if h.locked || len(h.future) == 0 {
		return models.HistoryEntry{}, false
	}
	entry := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, models.Snapshot(current))
	return entry, true
}

// Lock suppresses record/undo/redo until Unlock.
func (h *History) Lock() { h.locked = true }

// Unlock re-enables history capture.
func (h *History) Unlock() { h.locked = false }

// CanUndo reports whether an undo is available.
func (h *History) CanUndo() bool { return !h.locked && len(h.past) > 0 }

// CanRedo reports whether a redo is available.
func (h *History) CanRedo() bool { return !h.locked && len(h.future) > 0 }

// Clear drops both stacks.
func (h *History) Clear() {
	h.past = nil
	h.future = nil
}
