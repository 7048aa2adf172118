// Package httpapi exposes sync triggers and retrieval over HTTP so an
// external scheduler or chat backend can drive the core.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// ErrMissingService is returned when a required port is nil.
var ErrMissingService = errors.New("httpapi: corpus, sync and retrieval services are required")

// DefaultRequestTimeout bounds a single request, including a sync tick.
const DefaultRequestTimeout = 5 * time.Minute

// Ports aggregates the driving ports the API calls.
type Ports struct {
	Corpus    driving.CorpusService
	Sync      driving.SyncOrchestrator
	Retrieval driving.RetrievalService

	// Profile is optional; profile routes return 404 without it.
	Profile driving.ProfileService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Corpus == nil || p.Sync == nil || p.Retrieval == nil {
		return ErrMissingService
	}
	return nil
}

// Server serves the HTTP API.
type Server struct {
	ports          *Ports
	allowedOrigins []string
	timeout        time.Duration
	locks          *keyedMutex
	router         chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS allow list.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer builds the router and wires all routes.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if ports == nil {
		return nil, ErrMissingService
	}
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		ports:          ports,
		allowedOrigins: []string{"*"},
		timeout:        DefaultRequestTimeout,
		locks:          newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Route("/corpora", func(c chi.Router) {
			c.Get("/", s.handleListCorpora)
			c.Post("/", s.handleCreateCorpus)
			c.Get("/{corpusID}", s.handleGetCorpus)
			c.Get("/{corpusID}/documents", s.handleListDocuments)
			c.Post("/{corpusID}/sync", s.handleSync)
			c.Post("/{corpusID}/retrieve", s.handleRetrieve)
		})
		api.Get("/jobs/{jobID}", s.handleGetJob)
		api.Post("/profiles", s.handleCreateProfile)
		api.Get("/profiles/{profileID}", s.handleGetProfile)
	})

	return r
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Shutting down HTTP API")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond),
			middleware.GetReqID(r.Context()))
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, errCorpusBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
