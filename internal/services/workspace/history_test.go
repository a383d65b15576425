package workspace

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/quire/internal/models"
)

func workspaceWithPages(ids ...string) models.Workspace {
	w := models.NewWorkspace()
	doc := &models.SourceDocument{ID: "doc_a", Name: "a.pdf"}
	pages := make([]models.Page, len(ids))
	for i, id := range ids {
		pages[i] = models.Page{ID: id, SourceDocumentID: doc.ID, SourcePageIndex: i}
	}
	return w.Ingest([]*models.SourceDocument{doc}, pages)
}

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory(50)
	before := workspaceWithPages("p1", "p2")
	after := before.Remove("p1")

	h.Record(before)
	require.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	entry, ok := h.Undo(after)
	require.True(t, ok)
	restored := entry.Apply(after)
	assert.Equal(t, before.PageIDs(), restored.PageIDs())
	assert.True(t, h.CanRedo())

	entry, ok = h.Redo(restored)
	require.True(t, ok)
	redone := entry.Apply(restored)
	assert.Equal(t, after.PageIDs(), redone.PageIDs())
}

func TestHistoryUndoOnEmptyStack(t *testing.T) {
	h := NewHistory(50)
	_, ok := h.Undo(workspaceWithPages("p1"))
	assert.False(t, ok)
	_, ok = h.Redo(workspaceWithPages("p1"))
	assert.False(t, ok)
}

func TestHistoryDepthCap(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 10; i++ {
		h.Record(workspaceWithPages(fmt.Sprintf("p%d", i)))
	}

	current := workspaceWithPages("final")
	var undone []string
	for {
		entry, ok := h.Undo(current)
		if !ok {
			break
		}
		undone = append(undone, entry.Pages[0].ID)
	}
	// Only the newest three snapshots survive, popped newest first.
	assert.Equal(t, []string{"p9", "p8", "p7"}, undone)
}

func TestHistoryRecordClearsFuture(t *testing.T) {
	h := NewHistory(50)
	h.Record(workspaceWithPages("p1"))

	current := workspaceWithPages("p2")
	_, ok := h.Undo(current)
	require.True(t, ok)
	require.True(t, h.CanRedo())

	h.Record(workspaceWithPages("p3"))
	assert.False(t, h.CanRedo(), "a new edit must drop the redo stack")
}

func TestHistoryLock(t *testing.T) {
	h := NewHistory(50)
	h.Lock()
	h.Record(workspaceWithPages("p1"))
	assert.False(t, h.CanUndo())

	_, ok := h.Undo(workspaceWithPages("p2"))
	assert.False(t, ok)

	h.Unlock()
	h.Record(workspaceWithPages("p1"))
	assert.True(t, h.CanUndo())
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(50)
	h.Record(workspaceWithPages("p1"))
	_, _ = h.Undo(workspaceWithPages("p2"))
	h.Record(workspaceWithPages("p3"))

	h.Clear()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}
