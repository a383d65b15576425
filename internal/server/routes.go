package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Documents
	mux.HandleFunc("/api/documents", s.handleDocumentsRoute)          // GET (list), POST (upload)
	mux.HandleFunc("/api/documents/order", s.app.DocumentHandler.OrderHandler)
	mux.HandleFunc("/api/documents/", s.app.DocumentHandler.DeleteHandler) // DELETE /{id}

	// API routes - Pages
	mux.HandleFunc("/api/pages", s.app.PageHandler.ListHandler)
	mux.HandleFunc("/api/pages/order", s.app.PageHandler.ReorderHandler)
	mux.HandleFunc("/api/pages/rotate", s.app.PageHandler.RotateHandler)
	mux.HandleFunc("/api/pages/delete", s.app.PageHandler.DeleteHandler)
	mux.HandleFunc("/api/pages/duplicate", s.app.PageHandler.DuplicateHandler)
	mux.HandleFunc("/api/pages/select", s.app.PageHandler.SelectHandler)
	mux.HandleFunc("/api/pages/", s.handlePageRoutes) // GET /{id}/thumbnail

	// API routes - History
	mux.HandleFunc("/api/history", s.app.PageHandler.HistoryStatusHandler)
	mux.HandleFunc("/api/history/undo", s.app.PageHandler.UndoHandler)
	mux.HandleFunc("/api/history/redo", s.app.PageHandler.RedoHandler)
	mux.HandleFunc("/api/tool", s.app.PageHandler.ToolHandler)

	// API routes - Export
	mux.HandleFunc("/api/export/merge", s.app.ExportHandler.MergeHandler)
	mux.HandleFunc("/api/export/split", s.app.ExportHandler.SplitHandler)
	mux.HandleFunc("/api/export/convert", s.app.ExportHandler.ConvertHandler)
	mux.HandleFunc("/api/export/compress", s.app.ExportHandler.CompressHandler)

	// API routes - Search
	mux.HandleFunc("/api/search", s.app.SearchHandler.SearchHandler)

	// API routes - Session
	mux.HandleFunc("/api/session", s.handleSessionRoute) // GET (status), DELETE (reset)
	mux.HandleFunc("/api/session/flush", s.app.SessionHandler.FlushHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleDocumentsRoute routes /api/documents requests (list and upload)
func (s *Server) handleDocumentsRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET":  s.app.DocumentHandler.ListHandler,
		"POST": s.app.DocumentHandler.UploadHandler,
	})
}

// handlePageRoutes routes /api/pages/{id}/... requests
func (s *Server) handlePageRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" && strings.HasSuffix(r.URL.Path, "/thumbnail") {
		s.app.PageHandler.ThumbnailHandler(w, r)
		return
	}
	http.Error(w, "Not found", http.StatusNotFound)
}

// handleSessionRoute routes /api/session requests (status and reset)
func (s *Server) handleSessionRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET":    s.app.SessionHandler.StatusHandler,
		"DELETE": s.app.SessionHandler.ResetHandler,
	})
}
