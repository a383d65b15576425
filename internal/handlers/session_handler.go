package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/interfaces"
	"github.com/ternarybob/quire/internal/services/workspace"
)

// SessionHandler exposes the persistence bridge: status, explicit flush and
// full workspace reset.
type SessionHandler struct {
	workspace *workspace.Service
	session   interfaces.SessionBridge
	events    eventPublisher
	logger    arbor.ILogger
}

func NewSessionHandler(ws *workspace.Service, session interfaces.SessionBridge, events eventPublisher, logger arbor.ILogger) *SessionHandler {
	return &SessionHandler{
		workspace: ws,
		session:   session,
		events:    events,
		logger:    logger,
	}
}

// StatusHandler reports whether a persisted session exists and when it was
// last saved.
func (h *SessionHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snap, err := h.session.Load(r.Context())
	if err != nil {
		if errors.Is(err, interfaces.ErrNoSession) {
			WriteJSON(w, http.StatusOK, map[string]interface{}{"exists": false})
			return
		}
		h.logger.Warn().Err(err).Msg("Failed to load session status")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"exists":    true,
		"saved_at":  snap.SavedAt,
		"documents": len(snap.Documents),
		"pages":     len(snap.Pages),
	})
}

// FlushHandler writes any pending snapshot immediately.
func (h *SessionHandler) FlushHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	h.session.Flush()
	WriteSuccess(w, "session flushed")
}

// ResetHandler clears the workspace and the persisted session.
func (h *SessionHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	h.workspace.Reset(r.Context())
	h.events.Publish("workspace_changed", map[string]interface{}{"reason": "reset"})
	WriteSuccess(w, "workspace reset")
}
