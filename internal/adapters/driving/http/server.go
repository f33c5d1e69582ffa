package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	answerService    driving.AnswerService
	documentIngestor driving.DocumentIngestor
	apiIngestor      driving.ApiIngestor
	settingsService  driving.SettingsService

	// Infrastructure
	taskQueue   driven.TaskQueue
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	answerService driving.AnswerService,
	documentIngestor driving.DocumentIngestor,
	apiIngestor driving.ApiIngestor,
	settingsService driving.SettingsService,
	taskQueue driven.TaskQueue,
	db Pinger,
	redisClient Pinger, // can be nil
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		logger:           logger,
		answerService:    answerService,
		documentIngestor: documentIngestor,
		apiIngestor:      apiIngestor,
		settingsService:  settingsService,
		taskQueue:        taskQueue,
		db:               db,
		redisClient:      redisClient,
	}

	logging := NewLoggingMiddleware(logger)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      logging.Handler(RecoveryMiddleware(logger)(s.router)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // answer generation can be slow
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Query endpoint
	s.router.HandleFunc("POST /api/v1/query", s.handleQuery)

	// Ingestion endpoints (synchronous)
	s.router.HandleFunc("POST /api/v1/ingest/pages", s.handleIngestPages)
	s.router.HandleFunc("POST /api/v1/ingest/api", s.handleIngestApi)

	// Ingestion jobs (background, via task queue)
	s.router.HandleFunc("POST /api/v1/ingest/jobs", s.handleCreateIngestJob)
	s.router.HandleFunc("GET /api/v1/ingest/jobs/{id}", s.handleGetIngestJob)
	s.router.HandleFunc("GET /api/v1/ingest/jobs", s.handleQueueStats)

	// Settings endpoints
	s.router.HandleFunc("GET /api/v1/settings", s.handleGetSettings)
	s.router.HandleFunc("GET /api/v1/settings/ai", s.handleGetAISettings)
	s.router.HandleFunc("PUT /api/v1/settings/ai", s.handleUpdateAISettings)
	s.router.HandleFunc("PUT /api/v1/settings/retrieval", s.handleUpdateRetrievalSettings)
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving requests. It blocks until the listener fails
// or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
