package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/IshaanNene/ShelfStat/internal/observability"
	"github.com/IshaanNene/ShelfStat/internal/pipeline"
	"github.com/IshaanNene/ShelfStat/internal/types"
)

// Server exposes the analyzer over HTTP and hosts the bot webhook.
type Server struct {
	mux       *http.ServeMux
	addr      string
	analyzer  *pipeline.Analyzer
	maxUpload int64
	version   string
	started   time.Time
	logger    *slog.Logger
}

// NewServer creates a server with the health and analyze routes registered.
func NewServer(addr string, analyzer *pipeline.Analyzer, maxUpload int64, version string, logger *slog.Logger) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		addr:      addr,
		analyzer:  analyzer,
		maxUpload: maxUpload,
		version:   version,
		started:   time.Now(),
		logger:    logger.With("component", "api_server"),
	}

	s.registerRoutes()
	return s
}

// MountWebhook routes POST path to the bot webhook.
func (s *Server) MountWebhook(path string, h http.Handler) {
	s.mux.Handle("POST "+path, h)
	s.logger.Debug("webhook mounted", "path", path)
}

// MountMetrics routes GET path to the metrics handler.
func (s *Server) MountMetrics(path string, m *observability.Metrics) {
	s.mux.Handle("GET "+path, m)
	s.logger.Debug("metrics mounted", "path", path)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

// handleAnalyze accepts a multipart form with a "file" part holding the saved
// page and a "query" field.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.jsonResponse(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	query := strings.TrimSpace(r.FormValue("query"))
	if query == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": types.ErrEmptyQuery.Error()})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "missing file"})
		return
	}
	defer file.Close()

	res, err := s.analyzer.Analyze(file, query)
	if err != nil {
		s.logger.Warn("analyze request failed", "file", header.Filename, "error", err)
		status := http.StatusInternalServerError
		var inErr *types.InputError
		if errors.As(err, &inErr) {
			status = http.StatusUnprocessableEntity
		}
		s.jsonResponse(w, status, map[string]string{"error": err.Error()})
		return
	}

	s.jsonResponse(w, http.StatusOK, newAnalyzeResponse(res, r.FormValue("include_products") == "true"))
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}
