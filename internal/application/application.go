package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/podcraft/studio-service/internal/combiner"
	"github.com/podcraft/studio-service/internal/config"
	"github.com/podcraft/studio-service/internal/database"
	"github.com/podcraft/studio-service/internal/handler"
	"github.com/podcraft/studio-service/internal/router"
	"github.com/podcraft/studio-service/internal/service"
	"github.com/podcraft/studio-service/internal/upload"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg *config.Config
	srv *http.Server
	db  *gorm.DB
	hub *service.RoomHub
	log *zap.Logger
}

// NewAPI creates the API application: validates config, runs migrations,
// opens the DB, builds services and the router, and rebuilds the room ->
// session cache from the session ledger.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	studioSvc := service.NewStudioService(db)
	sessionSvc := service.NewSessionService(db)
	recordingSvc := service.NewRecordingService(db)

	hub := service.NewRoomHub(cfg.WSReadBufferSize, cfg.WSWriteBufferSize, logger)
	coordinator := service.NewCoordinator(hub, studioSvc, sessionSvc, recordingSvc, cfg.LateSyncDelay, logger)

	worker := combiner.NewClient(cfg.WorkerURL, logger)
	detector := service.NewDetector(recordingSvc, sessionSvc, worker, logger)

	var presigner *upload.Presigner
	if cfg.S3.Bucket != "" {
		presigner, err = upload.New(context.Background(), cfg)
		if err != nil {
			logger.Warn("object storage unavailable, uploads disabled", zap.Error(err))
			presigner = nil
		}
	} else {
		logger.Warn("AWS_S3_BUCKET_NAME not set, uploads disabled")
	}

	// The in-memory room -> session mapping is a cache over the ledger:
	// repopulate it so a restart does not lose in-progress sessions.
	if mapping, err := sessionSvc.ActiveRoomSessions(context.Background()); err != nil {
		logger.Warn("restore active sessions failed", zap.Error(err))
	} else {
		hub.RestoreSessions(mapping)
	}

	r := router.New(
		cfg.ClientURL,
		handler.NewStudioHandler(studioSvc),
		handler.NewSessionHandler(sessionSvc, studioSvc),
		handler.NewRecordingHandler(recordingSvc, studioSvc, hub),
		handler.NewUploadHandler(presigner, detector, logger),
		handler.NewRoomWSHandler(hub, coordinator, cfg.WSMaxMessageSize, logger),
		handler.NewHealthHandler(),
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, hub: hub, log: logger}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts
// down gracefully.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	log.Printf("HTTP server listening on %s", a.srv.Addr)
	log.Printf("  Health:    http://%s:%s/health", host, a.cfg.HTTPPort)
	log.Printf("  API:       http://%s:%s/api", host, a.cfg.HTTPPort)
	log.Printf("  WebSocket: ws://%s:%s/ws/studio", host, a.cfg.HTTPPort)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	_ = a.log.Sync()
	return nil
}
