// Package api serves the analyzer over a local HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/extractor"
	"github.com/aqlanhadi/analyzer/extractor/pdftext"
	"github.com/aqlanhadi/analyzer/matching"
	"github.com/aqlanhadi/analyzer/metrics"
	"github.com/rs/zerolog"
)

// Config holds the API server configuration
type Config struct {
	Port string
	// MaxUploadBytes bounds the in-memory part of multipart uploads.
	MaxUploadBytes int64
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port:           ":8080",
		MaxUploadBytes: 32 << 20,
	}
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	mux       *http.ServeMux
	store     *analyzer.Store
	extractor extractor.TextExtractor
	metrics   *metrics.Recorder
	log       zerolog.Logger
	now       func() time.Time
}

type Option func(*Server)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithMetrics records request counts and exposes GET /metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Server) { s.metrics = m }
}

// WithExtractor sets the extractor used by the /extract dry run.
func WithExtractor(e extractor.TextExtractor) Option {
	return func(s *Server) { s.extractor = e }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new API server backed by store.
func New(cfg Config, store *analyzer.Store, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		store:  store,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.extractor == nil {
		s.extractor = pdftext.New(pdftext.WithLogger(s.log))
	}
	if s.config.MaxUploadBytes <= 0 {
		s.config.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up the API endpoints
func (s *Server) registerRoutes() {
	s.handle("GET /health", s.handleHealth)
	s.handle("POST /extract", s.handleExtract)
	s.handle("POST /process", s.handleProcess)
	s.handle("GET /progress", s.handleProgress)

	s.handle("GET /projects", s.handleListProjects)
	s.handle("POST /projects", s.handleCreateProject)
	s.handle("PUT /projects/active", s.handleSetActiveProject)
	s.handle("DELETE /projects/{id}", s.handleDeleteProject)

	s.handle("GET /statements", s.handleStatements)
	s.handle("GET /documents", s.handleDocuments)
	s.handle("GET /transactions", s.handleTransactions)
	s.handle("PATCH /transactions/{id}/category", s.handleUpdateCategory)

	s.handle("GET /filters", s.handleGetFilters)
	s.handle("PUT /filters", s.handleSetFilters)
	s.handle("DELETE /filters", s.handleResetFilters)

	s.handle("GET /dashboard", s.handleDashboard)
	s.handle("GET /categories", s.handleCategories)
	s.handle("GET /merchants", s.handleMerchants)
	s.handle("GET /trends", s.handleTrends)

	s.handle("GET /rules", s.handleListRules)
	s.handle("POST /rules", s.handleAddRule)
	s.handle("PUT /rules/{id}", s.handleUpdateRule)
	s.handle("DELETE /rules/{id}", s.handleDeleteRule)

	s.handle("GET /overrides", s.handleListOverrides)
	s.handle("POST /overrides", s.handleAddOverride)
	s.handle("DELETE /overrides", s.handleRemoveOverride)

	s.handle("GET /export/transactions.csv", s.handleExportTransactionsCSV)
	s.handle("GET /export/transactions.xlsx", s.handleExportTransactionsXLSX)
	s.handle("GET /export/categories.csv", s.handleExportCategoriesCSV)
	s.handle("GET /export/transfers.csv", s.handleExportTransfersCSV)

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	if s.metrics != nil {
		h = s.metrics.Instrument(pattern, h)
	}
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("took", time.Since(start)).
			Msg("request served")
	})
}

// Handler returns the http.Handler for the server
// This allows the server to be used with custom http.Server configurations
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Port,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.config.Port).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store and rule errors to status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analyzer.ErrProjectNotFound),
		errors.Is(err, analyzer.ErrTransactionNotFound),
		errors.Is(err, analyzer.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, analyzer.ErrAlreadyProcessing), errors.Is(err, analyzer.ErrRuleExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, matching.ErrInvalidPattern), errors.Is(err, matching.ErrUnknownMatchType):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
