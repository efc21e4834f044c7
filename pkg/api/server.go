package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// ErrMissingAPIKey is returned when the server is started without a key
var ErrMissingAPIKey = errors.New("api key is required")

// Router builds the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	metrics := s.metrics
	if metrics == nil {
		metrics = NewMetrics()
		s.metrics = metrics
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{WarningHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Stateless conversion
		r.Post("/decode", metrics.InstrumentHandler("POST", "/api/v1/decode", s.handleDecode))
		r.Post("/encode", metrics.InstrumentHandler("POST", "/api/v1/encode", s.handleEncode))

		// Library
		r.Post("/demos", metrics.InstrumentHandler("POST", "/api/v1/demos", s.handleImport))
		r.Get("/demos", metrics.InstrumentHandler("GET", "/api/v1/demos", s.handleList))
		r.Get("/demos/{id}", metrics.InstrumentHandler("GET", "/api/v1/demos/{id}", s.handleGetEntry))
		r.Get("/demos/{id}/raw", metrics.InstrumentHandler("GET", "/api/v1/demos/{id}/raw", s.handleGetRaw))
		r.Get("/demos/{id}/document", metrics.InstrumentHandler("GET", "/api/v1/demos/{id}/document", s.handleGetDocument))
		r.Delete("/demos/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/demos/{id}", s.handleDelete))
	})

	return r
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, lib Library, config ServerConfig, log *zap.Logger) error {
	if config.APIKey == "" {
		return ErrMissingAPIKey
	}
	if log == nil {
		log = zap.NewNop()
	}

	server := NewServer(lib, config, NewMetrics(), log)
	server.refreshLibraryGauge()

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting lmptool API server", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down lmptool API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
