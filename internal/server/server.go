// Package server provides the HTTP API for radars and their reports.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/radar/internal/config"
	"github.com/hyperjump/radar/internal/indexer"
	"github.com/hyperjump/radar/internal/keyword"
	"github.com/hyperjump/radar/internal/metrics"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/internal/planner"
	"github.com/hyperjump/radar/internal/radar"
	"github.com/hyperjump/radar/internal/storage"
	"go.uber.org/zap"
)

// Pipeline runs reports for a radar.
type Pipeline interface {
	RunV1(ctx context.Context, radarID string, opts radar.RunOptions) (*radar.RunResult, error)
	RunV2(ctx context.Context, radarID string, opts radar.RunOptions) (*radar.RunResult, error)
}

// Plans creates and refines radar plans and writes share snippets.
type Plans interface {
	Create(ctx context.Context, in planner.CreateInput) (*models.Radar, error)
	Refine(ctx context.Context, radarID, message string, profile *models.RadarProfile) (*planner.RefineResult, error)
	Share(ctx context.Context, req planner.ShareRequest) (string, error)
}

// Server is the HTTP server for the radar API.
type Server struct {
	pipeline Pipeline
	plans    Plans
	storage  storage.Storage
	index    keyword.ReportIndex
	indexer  *indexer.Indexer
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. index may be nil, in which
// case report search and reindexing answer 501.
func NewServer(
	pipeline Pipeline,
	plans Plans,
	storage storage.Storage,
	index keyword.ReportIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pipeline: pipeline,
		plans:    plans,
		storage:  storage,
		index:    index,
		config:   cfg,
		logger:   logger,
	}
	if index != nil {
		s.indexer = indexer.NewIndexer(storage, index, indexer.WithLogger(logger))
	}
	return s
}

// Router builds the chi router with every route mounted.
func (s *Server) Router() http.Handler {
	timeout := s.config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Route("/api/radars", func(r chi.Router) {
		r.Post("/", s.handleCreateRadar)
		r.Get("/", s.handleListRadars)
		r.Route("/{radarId}", func(r chi.Router) {
			r.Get("/", s.handleGetRadar)
			r.Patch("/", s.handleRefineRadar)
			r.Post("/run", s.handleRunV1)
			r.Post("/run/v2", s.handleRunV2)
			r.Get("/reports", s.handleListReports)
			r.Get("/reports/latest", s.handleLatestReport)
			r.Get("/reports/search", s.handleSearchReports)
			r.Post("/reindex", s.handleReindex)
		})
	})
	r.Post("/api/reindex", s.handleReindex)
	r.Post("/api/share", s.handleShare)
	r.Get("/api/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	if s.config.Metrics.Enabled {
		r.Handle("/metrics", metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
