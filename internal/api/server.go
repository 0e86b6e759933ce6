// Package api serves interface rates over HTTP, a websocket stream and a
// Prometheus endpoint.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhyred/routerdash/internal/engine"
)

// DefaultStreamInterval is the push period of /api/stream.
const DefaultStreamInterval = 2 * time.Second

// Poller is the part of engine.Poller the server needs.
type Poller interface {
	Poll(ctx context.Context) (*engine.Snapshot, error)
	Last() *engine.Snapshot
	Info() engine.PollerInfo
}

// Config configures the API server.
type Config struct {
	Addr      string
	Estimator *engine.Estimator
	// Poller is optional. Without it only manual sample ingest feeds the
	// estimator and the bandwidth endpoints answer 503.
	Poller         Poller
	StreamInterval time.Duration
	Clock          clock.Clock
	Logger         *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	httpServer     *http.Server
	router         *mux.Router
	est            *engine.Estimator
	poller         Poller
	streamInterval time.Duration
	clock          clock.Clock
	logger         *slog.Logger
	upgrader       websocket.Upgrader
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = DefaultStreamInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		router:         mux.NewRouter().UseEncodedPath(),
		est:            cfg.Estimator,
		poller:         cfg.Poller,
		streamInterval: cfg.StreamInterval,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	// Routes accept OPTIONS so preflights reach the CORS middleware.
	s.router.Use(corsMiddleware)
	s.router.Use(s.logMiddleware)

	s.router.HandleFunc("/api/bandwidth", s.bandwidthHandler).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/interfaces", s.interfacesHandler).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/interfaces/{id}/history", s.historyHandler).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/interfaces/{id}/samples", s.sampleHandler).Methods("POST", "OPTIONS")
	s.router.HandleFunc("/api/stream", s.streamHandler).Methods("GET")
	s.router.HandleFunc("/api/diagnostics", s.diagnosticsHandler).Methods("GET", "OPTIONS")

	// Prometheus metrics with isolated registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(newCollector(s))
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
