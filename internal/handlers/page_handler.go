package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/services/workspace"
)

// PageHandler serves the page sequence and every page-level mutation:
// reorder, rotate, delete, duplicate and selection.
type PageHandler struct {
	workspace *workspace.Service
	events    eventPublisher
	logger    arbor.ILogger
}

func NewPageHandler(ws *workspace.Service, events eventPublisher, logger arbor.ILogger) *PageHandler {
	return &PageHandler{
		workspace: ws,
		events:    events,
		logger:    logger,
	}
}

type pageView struct {
	ID                string `json:"id"`
	SourceDocumentID  string `json:"source_document_id"`
	DisplayPageNumber int    `json:"display_page_number"`
	Rotation          int    `json:"rotation"`
	Selected          bool   `json:"selected"`
}

// ListHandler returns the full page sequence with selection state.
func (h *PageHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ws := h.workspace.Current()
	pages := make([]pageView, 0, len(ws.Pages))
	for _, p := range ws.Pages {
		pages = append(pages, pageView{
			ID:                p.ID,
			SourceDocumentID:  p.SourceDocumentID,
			DisplayPageNumber: p.DisplayPageNumber(),
			Rotation:          p.Rotation,
			Selected:          ws.Selection[p.ID],
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"pages":       pages,
		"can_undo":    h.workspace.CanUndo(),
		"can_redo":    h.workspace.CanRedo(),
		"active_tool": h.workspace.ActiveTool(),
	})
}

type reorderRequest struct {
	PageIDs []string `json:"page_ids" validate:"required,min=1"`
}

// ReorderHandler replaces the page sequence with the supplied permutation.
func (h *PageHandler) ReorderHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req reorderRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	h.workspace.Reorder(req.PageIDs)
	h.events.Publish("workspace_changed", map[string]interface{}{"reason": "reorder"})
	WriteSuccess(w, "pages reordered")
}

type rotateRequest struct {
	PageID    string `json:"page_id"`
	Selected  bool   `json:"selected"`
	Clockwise *bool  `json:"clockwise" validate:"required"`
}

// RotateHandler rotates one page or, with selected=true, the whole selection.
func (h *PageHandler) RotateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req rotateRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}
	if !req.Selected && req.PageID == "" {
		WriteError(w, http.StatusBadRequest, "page_id or selected is required")
		return
	}

	if req.Selected {
		h.workspace.RotateSelected(*req.Clockwise)
	} else {
		h.workspace.RotatePage(req.PageID, *req.Clockwise)
	}
	h.events.Publish("workspace_changed", map[string]interface{}{"reason": "rotate"})
	WriteSuccess(w, "pages rotated")
}

type deletePagesRequest struct {
	PageID   string `json:"page_id"`
	Selected bool   `json:"selected"`
}

// DeleteHandler removes one page or the whole selection.
func (h *PageHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req deletePagesRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}
	if !req.Selected && req.PageID == "" {
		WriteError(w, http.StatusBadRequest, "page_id or selected is required")
		return
	}

	if req.Selected {
		h.workspace.RemoveSelected()
	} else {
		h.workspace.RemovePage(req.PageID)
	}
	h.events.Publish("workspace_changed", map[string]interface{}{"reason": "delete"})
	WriteSuccess(w, "pages removed")
}

// DuplicateHandler copies every selected page in place.
func (h *PageHandler) DuplicateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	h.workspace.DuplicateSelected()
	h.events.Publish("workspace_changed", map[string]interface{}{"reason": "duplicate"})
	WriteSuccess(w, "pages duplicated")
}

type selectRequest struct {
	Action   string `json:"action" validate:"required,oneof=toggle all none"`
	PageID   string `json:"page_id"`
	Additive bool   `json:"additive"`
}

// SelectHandler updates the selection. Selection changes are never undoable.
func (h *PageHandler) SelectHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req selectRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	switch req.Action {
	case "toggle":
		if req.PageID == "" {
			WriteError(w, http.StatusBadRequest, "page_id is required for toggle")
			return
		}
		h.workspace.SelectToggle(req.PageID, req.Additive)
	case "all":
		h.workspace.SelectAll()
	case "none":
		h.workspace.SelectNone()
	}
	WriteSuccess(w, "selection updated")
}

// ThumbnailHandler renders a PNG preview for one page.
// GET /api/pages/{id}/thumbnail
func (h *PageHandler) ThumbnailHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/pages/")
	pageID := strings.TrimSuffix(path, "/thumbnail")
	if pageID == "" || pageID == path {
		WriteError(w, http.StatusBadRequest, "page id required")
		return
	}

	thumb, err := h.workspace.Thumbnail(r.Context(), pageID)
	if err != nil {
		h.logger.Warn().Err(err).Str("page_id", pageID).Msg("Failed to render thumbnail")
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(thumb)
}

// UndoHandler reverts the most recent undoable mutation.
func (h *PageHandler) UndoHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	applied := h.workspace.Undo()
	if applied {
		h.events.Publish("workspace_changed", map[string]interface{}{"reason": "undo"})
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"applied":  applied,
		"can_undo": h.workspace.CanUndo(),
		"can_redo": h.workspace.CanRedo(),
	})
}

// RedoHandler reapplies the most recently undone mutation.
func (h *PageHandler) RedoHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	applied := h.workspace.Redo()
	if applied {
		h.events.Publish("workspace_changed", map[string]interface{}{"reason": "redo"})
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"applied":  applied,
		"can_undo": h.workspace.CanUndo(),
		"can_redo": h.workspace.CanRedo(),
	})
}

// HistoryStatusHandler reports undo/redo availability.
func (h *PageHandler) HistoryStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"can_undo": h.workspace.CanUndo(),
		"can_redo": h.workspace.CanRedo(),
	})
}

type toolRequest struct {
	Tool string `json:"tool"`
}

// ToolHandler persists the active tool hint for session restore.
func (h *PageHandler) ToolHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req toolRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}
	h.workspace.SetActiveTool(req.Tool)
	WriteSuccess(w, "tool updated")
}
