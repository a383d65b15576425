package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/interfaces"
	"github.com/ternarybob/quire/internal/services/workspace"
)

// SearchHandler serves substring queries over the workspace text.
type SearchHandler struct {
	workspace *workspace.Service
	index     interfaces.SearchIndex
	events    eventPublisher
	logger    arbor.ILogger
}

func NewSearchHandler(ws *workspace.Service, index interfaces.SearchIndex, events eventPublisher, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{
		workspace: ws,
		index:     index,
		events:    events,
		logger:    logger,
	}
}

// SearchHandler answers GET /api/search?q=... with matches grouped by
// document in workspace order, streaming per-page progress to clients.
func (h *SearchHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	query := r.URL.Query().Get("q")

	ws := h.workspace.Current()
	results, err := h.index.Search(r.Context(), query, ws, func(current, total int) {
		h.events.Publish("search_progress", map[string]interface{}{
			"current": current,
			"total":   total,
		})
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("query", query).Msg("Search failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, results)
}
