package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/common"
	"github.com/ternarybob/quire/internal/models"
	"github.com/ternarybob/quire/internal/services/export"
	"github.com/ternarybob/quire/internal/services/workspace"
)

var contentTypes = map[string]string{
	".pdf": "application/pdf",
	".zip": "application/zip",
	".txt": "text/plain; charset=utf-8",
	".csv": "text/csv; charset=utf-8",
	".jpg": "image/jpeg",
	".png": "image/png",
}

// ExportHandler serves merge, split, compress and convert downloads.
type ExportHandler struct {
	workspace *workspace.Service
	export    *export.Service
	events    eventPublisher
	config    *common.ExportConfig
	logger    arbor.ILogger
}

func NewExportHandler(ws *workspace.Service, exp *export.Service, events eventPublisher, config *common.ExportConfig, logger arbor.ILogger) *ExportHandler {
	return &ExportHandler{
		workspace: ws,
		export:    exp,
		events:    events,
		config:    config,
		logger:    logger,
	}
}

type mergeRequest struct {
	BaseName     string `json:"base_name"`
	SelectedOnly bool   `json:"selected_only"`
}

// MergeHandler combines the page sequence into one downloadable document.
func (h *ExportHandler) MergeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req mergeRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	ws := h.workspace.Current()
	pages := exportPages(ws, req.SelectedOnly)
	result, err := h.export.Merge(r.Context(), pages, ws.Documents, baseName(req.BaseName, "merged"))
	if err != nil {
		h.logger.Warn().Err(err).Msg("Merge failed")
		WriteServiceError(w, err)
		return
	}
	h.writeDownload(w, result)
}

type splitRequest struct {
	Mode         string `json:"mode" validate:"required,oneof=extract_all fixed_number by_range"`
	Count        int    `json:"count"`
	Range        string `json:"range"`
	BaseName     string `json:"base_name"`
	SelectedOnly bool   `json:"selected_only"`
}

// SplitHandler splits the page sequence into one or more documents.
func (h *ExportHandler) SplitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req splitRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	ws := h.workspace.Current()
	pages := exportPages(ws, req.SelectedOnly)
	result, err := h.export.Split(r.Context(), pages, ws.Documents,
		models.SplitMode(req.Mode), req.Count, req.Range, baseName(req.BaseName, "document"))
	if err != nil {
		h.logger.Warn().Err(err).Str("mode", req.Mode).Msg("Split failed")
		WriteServiceError(w, err)
		return
	}
	h.writeDownload(w, result)
}

type convertRequest struct {
	Format       string `json:"format" validate:"required,oneof=text csv jpg png"`
	BaseName     string `json:"base_name"`
	SelectedOnly bool   `json:"selected_only"`
}

// ConvertHandler exports the page sequence to a non-PDF format, streaming
// per-page progress to connected clients.
func (h *ExportHandler) ConvertHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req convertRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	ws := h.workspace.Current()
	pages := exportPages(ws, req.SelectedOnly)
	result, err := h.export.Convert(r.Context(), pages, ws.Documents,
		models.ConvertFormat(req.Format), baseName(req.BaseName, "pages"),
		h.progressFunc("convert"))
	if err != nil {
		h.logger.Warn().Err(err).Str("format", req.Format).Msg("Convert failed")
		WriteServiceError(w, err)
		return
	}
	h.writeDownload(w, result)
}

type compressRequest struct {
	DocumentID string  `json:"document_id" validate:"required"`
	Quality    float64 `json:"quality"`
	Scale      float64 `json:"scale"`
	Replace    bool    `json:"replace"`
}

// CompressHandler rasterizes a document into a smaller flattened rebuild.
// With replace=true the workspace document is swapped in place instead of
// returning a download.
func (h *ExportHandler) CompressHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req compressRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}
	if req.Quality <= 0 {
		req.Quality = h.config.CompressQuality
	}
	if req.Scale <= 0 {
		req.Scale = h.config.CompressScale
	}

	ws := h.workspace.Current()
	doc, ok := ws.Documents[req.DocumentID]
	if !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("document %s not found", req.DocumentID))
		return
	}

	data, err := h.export.Compress(r.Context(), doc, req.Quality, req.Scale, h.progressFunc("compress"))
	if err != nil {
		h.logger.Warn().Err(err).Str("doc_id", req.DocumentID).Msg("Compress failed")
		WriteServiceError(w, err)
		return
	}

	if req.Replace {
		h.workspace.ReplaceDocumentContent(req.DocumentID, data)
		h.events.Publish("workspace_changed", map[string]interface{}{"reason": "compress"})
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "success",
			"document_id": req.DocumentID,
			"byte_size":   len(data),
		})
		return
	}

	h.writeDownload(w, &models.ExportResult{
		Bytes:             data,
		SuggestedFilename: baseName(strings.TrimSuffix(doc.Name, ".pdf"), "document") + "_compressed.pdf",
	})
}

func (h *ExportHandler) progressFunc(operation string) models.ProgressFunc {
	return func(current, total int) {
		h.events.Publish("export_progress", map[string]interface{}{
			"operation": operation,
			"current":   current,
			"total":     total,
		})
	}
}

func (h *ExportHandler) writeDownload(w http.ResponseWriter, result *models.ExportResult) {
	contentType := "application/octet-stream"
	if idx := strings.LastIndex(result.SuggestedFilename, "."); idx >= 0 {
		if ct, ok := contentTypes[result.SuggestedFilename[idx:]]; ok {
			contentType = ct
		}
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.SuggestedFilename))
	w.Header().Set("X-Quire-Filename", result.SuggestedFilename)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(result.Bytes)))
	w.Write(result.Bytes)
}

// exportPages returns the pages an export operates on: the selection in
// sequence order when requested and non-empty, otherwise the full sequence.
func exportPages(ws models.Workspace, selectedOnly bool) []models.Page {
	if !selectedOnly || len(ws.Selection) == 0 {
		return ws.Pages
	}
	pages := make([]models.Page, 0, len(ws.Selection))
	for _, p := range ws.Pages {
		if ws.Selection[p.ID] {
			pages = append(pages, p)
		}
	}
	return pages
}

func baseName(requested, fallback string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return fallback
	}
	return requested
}
