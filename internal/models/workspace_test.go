package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorkspace(pageCount int) Workspace {
	w := NewWorkspace()
	doc := &SourceDocument{ID: "doc_a", Name: "a.pdf", Content: []byte("pdf-a")}
	pages := make([]Page, pageCount)
	for i := range pages {
		pages[i] = Page{
			ID:               fmt.Sprintf("page_%d", i),
			SourceDocumentID: doc.ID,
			SourcePageIndex:  i,
		}
	}
	return w.Ingest([]*SourceDocument{doc}, pages)
}

func TestReorder(t *testing.T) {
	w := testWorkspace(3)

	t.Run("valid permutation", func(t *testing.T) {
		next, ok := w.Reorder([]string{"page_2", "page_0", "page_1"})
		require.True(t, ok)
		assert.Equal(t, []string{"page_2", "page_0", "page_1"}, next.PageIDs())
		// Original untouched
		assert.Equal(t, []string{"page_0", "page_1", "page_2"}, w.PageIDs())
	})

	t.Run("wrong length rejected", func(t *testing.T) {
		next, ok := w.Reorder([]string{"page_0", "page_1"})
		assert.False(t, ok)
		assert.Equal(t, w.PageIDs(), next.PageIDs())
	})

	t.Run("unknown id rejected", func(t *testing.T) {
		_, ok := w.Reorder([]string{"page_0", "page_1", "page_x"})
		assert.False(t, ok)
	})

	t.Run("duplicated id rejected", func(t *testing.T) {
		_, ok := w.Reorder([]string{"page_0", "page_1", "page_1"})
		assert.False(t, ok)
	})

	t.Run("identity detection", func(t *testing.T) {
		assert.True(t, w.IsIdentityOrder([]string{"page_0", "page_1", "page_2"}))
		assert.False(t, w.IsIdentityOrder([]string{"page_1", "page_0", "page_2"}))
		assert.False(t, w.IsIdentityOrder([]string{"page_0"}))
	})
}

func TestRotate(t *testing.T) {
	w := testWorkspace(2)

	next := w.Rotate("page_0", true)
	assert.Equal(t, 90, next.Pages[0].Rotation)
	assert.Equal(t, 0, next.Pages[1].Rotation)

	// Counterclockwise from zero wraps to 270
	next = w.Rotate("page_0", false)
	assert.Equal(t, 270, next.Pages[0].Rotation)

	// Four turns land back on zero
	next = w
	for i := 0; i < 4; i++ {
		next = next.Rotate("page_0", true)
	}
	assert.Equal(t, 0, next.Pages[0].Rotation)

	// Unknown id is a no-op
	next = w.Rotate("page_x", true)
	assert.Equal(t, w.Pages, next.Pages)
}

func TestRotateClearsThumbnail(t *testing.T) {
	w := testWorkspace(1)
	w.Pages[0].Thumbnail = []byte("png")

	next := w.Rotate("page_0", true)
	assert.Nil(t, next.Pages[0].Thumbnail)
}

func TestRotateManyAppliesUniformDelta(t *testing.T) {
	w := testWorkspace(3)
	pages := w.clonePages()
	pages[1].Rotation = 180
	w.Pages = pages

	next := w.RotateMany([]string{"page_0", "page_1"}, true)
	assert.Equal(t, 90, next.Pages[0].Rotation)
	assert.Equal(t, 270, next.Pages[1].Rotation)
	assert.Equal(t, 0, next.Pages[2].Rotation)
}

func TestRemove(t *testing.T) {
	w := testWorkspace(3)
	w = w.SelectToggle("page_1", false)

	next := w.Remove("page_1")
	assert.Equal(t, []string{"page_0", "page_2"}, next.PageIDs())
	assert.Empty(t, next.Selection, "removed page must leave the selection")

	// Unknown id is a no-op
	next = w.Remove("page_x")
	assert.Len(t, next.Pages, 3)
}

func TestRemoveDocumentCascades(t *testing.T) {
	w := testWorkspace(2)
	docB := &SourceDocument{ID: "doc_b", Name: "b.pdf"}
	w = w.Ingest([]*SourceDocument{docB}, []Page{
		{ID: "page_b0", SourceDocumentID: "doc_b", SourcePageIndex: 0},
	})
	w = w.SelectToggle("page_0", false)

	next := w.RemoveDocument("doc_a")
	assert.NotContains(t, next.Documents, "doc_a")
	assert.Equal(t, []string{"page_b0"}, next.PageIDs())
	assert.Empty(t, next.Selection)

	// Unknown id is a no-op
	next = w.RemoveDocument("doc_x")
	assert.Len(t, next.Pages, 3)
}

func TestDuplicateSelectedInsertsAdjacent(t *testing.T) {
	w := testWorkspace(3)
	w = w.SelectToggle("page_1", false)

	n := 0
	next := w.DuplicateSelected(func() string {
		n++
		return fmt.Sprintf("dup_%d", n)
	})

	require.Equal(t, []string{"page_0", "page_1", "dup_1", "page_2"}, next.PageIDs())
	dup, ok := next.PageByID("dup_1")
	require.True(t, ok)
	assert.Equal(t, "doc_a", dup.SourceDocumentID)
	assert.Equal(t, 1, dup.SourcePageIndex)

	// Empty selection is a no-op
	same := testWorkspace(2).DuplicateSelected(func() string { return "x" })
	assert.Len(t, same.Pages, 2)
}

func TestSelectToggle(t *testing.T) {
	w := testWorkspace(3)

	t.Run("exclusive select replaces", func(t *testing.T) {
		next := w.SelectToggle("page_0", false)
		assert.Equal(t, map[string]bool{"page_0": true}, next.Selection)

		next = next.SelectToggle("page_1", false)
		assert.Equal(t, map[string]bool{"page_1": true}, next.Selection)
	})

	t.Run("exclusive reselect clears", func(t *testing.T) {
		next := w.SelectToggle("page_0", false)
		next = next.SelectToggle("page_0", false)
		assert.Empty(t, next.Selection)
	})

	t.Run("additive toggles membership", func(t *testing.T) {
		next := w.SelectToggle("page_0", false)
		next = next.SelectToggle("page_1", true)
		assert.Len(t, next.Selection, 2)

		next = next.SelectToggle("page_0", true)
		assert.Equal(t, map[string]bool{"page_1": true}, next.Selection)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		next := w.SelectToggle("page_x", false)
		assert.Empty(t, next.Selection)
	})
}

func TestSelectAllToggles(t *testing.T) {
	w := testWorkspace(3)

	next := w.SelectAll()
	assert.Len(t, next.Selection, 3)

	next = next.SelectAll()
	assert.Empty(t, next.Selection, "select-all on a full selection clears it")

	next = w.SelectToggle("page_0", false).SelectAll()
	assert.Len(t, next.Selection, 3, "partial selection expands to all")
}

func TestReassignDocumentOrder(t *testing.T) {
	w := testWorkspace(2)
	docB := &SourceDocument{ID: "doc_b", Name: "b.pdf"}
	w = w.Ingest([]*SourceDocument{docB}, []Page{
		{ID: "page_b0", SourceDocumentID: "doc_b", SourcePageIndex: 0},
		{ID: "page_b1", SourceDocumentID: "doc_b", SourcePageIndex: 1},
	})

	next := w.ReassignDocumentOrder([]string{"doc_b", "doc_a"})
	assert.Equal(t, []string{"page_b0", "page_b1", "page_0", "page_1"}, next.PageIDs())

	// Unlisted documents keep their pages after the listed ones
	next = w.ReassignDocumentOrder([]string{"doc_b"})
	assert.Equal(t, []string{"page_b0", "page_b1", "page_0", "page_1"}, next.PageIDs())
}

func TestReplaceDocumentContent(t *testing.T) {
	w := testWorkspace(2)
	pages := w.clonePages()
	pages[0].Thumbnail = []byte("png")
	w.Pages = pages

	next := w.ReplaceDocumentContent("doc_a", []byte("smaller"))
	assert.Equal(t, []byte("smaller"), next.Documents["doc_a"].Content)
	assert.Equal(t, len("smaller"), next.Documents["doc_a"].ByteSize)
	assert.Nil(t, next.Pages[0].Thumbnail, "stale previews must be dropped")

	// Original document record untouched
	assert.Equal(t, []byte("pdf-a"), w.Documents["doc_a"].Content)
}

func TestHistorySnapshotRoundTrip(t *testing.T) {
	w := testWorkspace(2)
	w = w.SelectToggle("page_1", false)

	entry := Snapshot(w)
	mutated := w.Remove("page_0").SelectNone()

	restored := entry.Apply(mutated)
	assert.Equal(t, w.PageIDs(), restored.PageIDs())
	assert.Equal(t, w.Selection, restored.Selection)
	// Documents survive the mutation unrestored; snapshots carry pages and
	// selection only.
	assert.Contains(t, restored.Documents, "doc_a")
}

func TestSessionSnapshotRoundTrip(t *testing.T) {
	w := testWorkspace(2)
	w = w.Rotate("page_1", true)
	w = w.SelectToggle("page_0", false)

	snap := SnapshotWorkspace(w, "rotate")
	require.Len(t, snap.Documents, 1)
	require.Len(t, snap.Pages, 2)
	assert.Equal(t, "rotate", snap.ActiveTool)

	restored := snap.RestoreWorkspace()
	assert.Equal(t, w.PageIDs(), restored.PageIDs())
	assert.Equal(t, 90, restored.Pages[1].Rotation)
	assert.Equal(t, map[string]bool{"page_0": true}, restored.Selection)
	assert.Equal(t, []byte("pdf-a"), restored.Documents["doc_a"].Content)
}
