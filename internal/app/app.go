package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/common"
	"github.com/ternarybob/quire/internal/handlers"
	"github.com/ternarybob/quire/internal/services/codec"
	"github.com/ternarybob/quire/internal/services/doccache"
	"github.com/ternarybob/quire/internal/services/export"
	"github.com/ternarybob/quire/internal/services/search"
	"github.com/ternarybob/quire/internal/services/session"
	"github.com/ternarybob/quire/internal/services/workspace"
	"github.com/ternarybob/quire/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB *badger.BadgerDB

	// Core services
	CodecService     *codec.Service
	CacheService     *doccache.Service
	SearchService    *search.Service
	SessionService   *session.Service
	WorkspaceService *workspace.Service
	ExportService    *export.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	WSHandler       *handlers.WebSocketHandler
	DocumentHandler *handlers.DocumentHandler
	PageHandler     *handlers.PageHandler
	ExportHandler   *handlers.ExportHandler
	SearchHandler   *handlers.SearchHandler
	SessionHandler  *handlers.SessionHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	db, err := badger.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.DB = db

	sessionStorage := badger.NewSessionStorage(db, logger)

	app.CodecService = codec.NewService(logger)
	app.CacheService = doccache.NewService(app.CodecService, cfg.Cache.Capacity, logger)
	app.SearchService = search.NewService(app.CacheService, logger)
	app.SessionService = session.NewService(sessionStorage, cfg.Session.DebounceMs, logger)
	app.WorkspaceService = workspace.NewService(
		app.CacheService,
		app.SearchService,
		app.SessionService,
		cfg.History.Depth,
		cfg.Export.ThumbnailScale,
		logger,
	)
	app.ExportService = export.NewService(
		app.CodecService,
		app.CacheService,
		export.NewZipWriter(),
		cfg.Export.ImageScale,
		logger,
	)

	app.WSHandler = handlers.NewWebSocketHandler(logger)
	app.APIHandler = handlers.NewAPIHandler(logger)
	app.DocumentHandler = handlers.NewDocumentHandler(app.WorkspaceService, app.WSHandler, cfg.Server.MaxUploadMB, logger)
	app.PageHandler = handlers.NewPageHandler(app.WorkspaceService, app.WSHandler, logger)
	app.ExportHandler = handlers.NewExportHandler(app.WorkspaceService, app.ExportService, app.WSHandler, &cfg.Export, logger)
	app.SearchHandler = handlers.NewSearchHandler(app.WorkspaceService, app.SearchService, app.WSHandler, logger)
	app.SessionHandler = handlers.NewSessionHandler(app.WorkspaceService, app.SessionService, app.WSHandler, logger)

	logger.Info().Msg("Application initialized")
	return app, nil
}

// RestoreSession loads the persisted workspace, if any. Called once at
// startup before the server accepts requests.
func (a *App) RestoreSession(ctx context.Context) error {
	return a.WorkspaceService.Restore(ctx)
}

// Close flushes pending session state and releases all resources.
func (a *App) Close() error {
	a.SessionService.Flush()
	a.CacheService.Clear()

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	a.Logger.Info().Msg("Application closed")
	return nil
}
