package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/models"
	"github.com/ternarybob/quire/internal/services/workspace"
)

// DocumentHandler serves upload, listing and document-level operations.
type DocumentHandler struct {
	workspace   *workspace.Service
	events      eventPublisher
	logger      arbor.ILogger
	maxUploadMB int
}

func NewDocumentHandler(ws *workspace.Service, events eventPublisher, maxUploadMB int, logger arbor.ILogger) *DocumentHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 100
	}
	return &DocumentHandler{
		workspace:   ws,
		events:      events,
		logger:      logger,
		maxUploadMB: maxUploadMB,
	}
}

type uploadedDocument struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Pages     int    `json:"pages,omitempty"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// UploadHandler ingests one or more PDF files from a multipart form. Each
// file succeeds or fails independently; a password-protected or corrupt file
// never blocks its batch.
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	maxBytes := int64(h.maxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteError(w, http.StatusBadRequest, "no files provided")
		return
	}

	results := make([]uploadedDocument, 0, len(files))
	for _, fh := range files {
		result := uploadedDocument{Name: fh.Filename}

		f, err := fh.Open()
		if err != nil {
			result.Error = fmt.Sprintf("failed to read upload: %v", err)
			results = append(results, result)
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			result.Error = fmt.Sprintf("failed to read upload: %v", err)
			results = append(results, result)
			continue
		}

		doc, err := h.workspace.IngestDocument(r.Context(), fh.Filename, data)
		if err != nil {
			h.logger.Warn().Err(err).Str("name", fh.Filename).Msg("Failed to ingest document")
			result.Error = err.Error()
			result.Retryable = isPasswordError(err)
			results = append(results, result)
			continue
		}

		ws := h.workspace.Current()
		result.ID = doc.ID
		result.Pages = countDocumentPages(ws, doc.ID)
		results = append(results, result)
	}

	h.events.Publish("workspace_changed", map[string]interface{}{"reason": "upload"})
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": results,
	})
}

// ListHandler returns all ingested documents in workspace order with live
// page counts.
func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ws := h.workspace.Current()
	type docView struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		ByteSize     int    `json:"byte_size"`
		DisplayColor string `json:"display_color"`
		Pages        int    `json:"pages"`
	}

	docs := make([]docView, 0, len(ws.Documents))
	seen := make(map[string]bool, len(ws.Documents))
	for _, p := range ws.Pages {
		if seen[p.SourceDocumentID] {
			continue
		}
		seen[p.SourceDocumentID] = true
		if doc, ok := ws.Documents[p.SourceDocumentID]; ok {
			docs = append(docs, docView{
				ID:           doc.ID,
				Name:         doc.Name,
				ByteSize:     doc.ByteSize,
				DisplayColor: doc.DisplayColor,
				Pages:        countDocumentPages(ws, doc.ID),
			})
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}

type documentOrderRequest struct {
	DocumentIDs []string `json:"document_ids" validate:"required,min=1"`
}

// OrderHandler regroups the page sequence by document in the given order.
func (h *DocumentHandler) OrderHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req documentOrderRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	h.workspace.ReassignDocumentOrder(req.DocumentIDs)
	h.events.Publish("workspace_changed", map[string]interface{}{"reason": "document_order"})
	WriteSuccess(w, "document order updated")
}

// DeleteHandler removes a document and all its pages. DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	docID := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if docID == "" || strings.Contains(docID, "/") {
		WriteError(w, http.StatusBadRequest, "document id required")
		return
	}

	h.workspace.RemoveDocument(docID)
	h.events.Publish("workspace_changed", map[string]interface{}{"reason": "document_removed"})
	WriteSuccess(w, "document removed")
}

func countDocumentPages(ws models.Workspace, docID string) int {
	n := 0
	for _, p := range ws.Pages {
		if p.SourceDocumentID == docID {
			n++
		}
	}
	return n
}
