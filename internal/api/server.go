package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chadmayfield/wxlogd/internal/ingest"
	"github.com/chadmayfield/wxlogd/internal/mirror"
	"github.com/chadmayfield/wxlogd/internal/store"
	"github.com/chadmayfield/wxlogd/internal/weather"
)

// Config lists the server's collaborators. Mirror may be nil.
type Config struct {
	Store      store.Store
	Fetcher    *weather.Fetcher
	Ingest     *ingest.Service
	Mirror     *mirror.Mirror
	CORSOrigin string
	Logger     *slog.Logger
}

// Server is the HTTP server for ingestion and queries.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
}

// NewServer creates a new server with all routes registered.
func NewServer(cfg Config) *Server {
	h := &Handlers{
		Store:     cfg.Store,
		Fetcher:   cfg.Fetcher,
		Ingest:    cfg.Ingest,
		Mirror:    cfg.Mirror,
		Metrics:   NewMetrics(),
		Logger:    cfg.Logger,
		StartTime: time.Now(),
	}

	// Apply middleware (outermost runs first).
	var handler http.Handler = h.Metrics.Middleware(h.routes())
	handler = ContentType(handler)
	handler = SecurityHeaders(handler)
	handler = CORS(cfg.CORSOrigin)(handler)
	handler = Logger(cfg.Logger)(handler)
	handler = RequestID(handler)
	handler = Recovery(handler)

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{httpServer: srv, handlers: h}
}

func (h *Handlers) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Station-facing routes.
	mux.HandleFunc("POST /weather-data", h.PostWeatherData)
	mux.HandleFunc("GET /get_data", h.GetData)

	// Dashboard routes.
	mux.HandleFunc("GET /api/v1/current", h.GetCurrent)
	mux.HandleFunc("GET /api/v1/summary", h.GetSummary)
	mux.HandleFunc("GET /api/v1/monthly", h.GetMonthly)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics.Handler())
	}
	return mux
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server. Blocks until context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer.Addr = addr
	slog.Info("api server starting", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("api server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// SetVersion sets the version string for the health endpoint.
func (s *Server) SetVersion(v string) { s.handlers.Version = v }

// SetStorageInfo sets storage driver and path for the health endpoint.
func (s *Server) SetStorageInfo(driver, path string) {
	s.handlers.StorageDriver = driver
	s.handlers.StoragePath = path
}
