// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package server exposes the schema conversion functions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dacolabs/usdl/internal/metrics"
	"github.com/dacolabs/usdl/internal/usdl"
)

// HeaderConversionID names the response header carrying the per-request id.
const HeaderConversionID = "X-Conversion-ID"

const shutdownTimeout = 30 * time.Second

// Options configure the HTTP service.
type Options struct {
	Logger zerolog.Logger
	// Metrics may be nil, which disables request and conversion metrics.
	Metrics *metrics.Collector
	// Gatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer     prometheus.Gatherer
	MaxBodyBytes int64
	// Render holds the render options used when a request leaves them out.
	Render usdl.RenderOptions
}

// Server is the HTTP conversion service.
type Server struct {
	opts   Options
	router chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(conversionID)
	r.Use(NewLoggingMiddleware(opts.Logger))
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(NewMetricsMiddleware(opts.Metrics))
	}

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/parse/{format}", s.parse)
		r.Post("/render/{format}", s.render)
		r.Post("/convert", s.convert)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeStatusError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeStatusError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info().Str("addr", addr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.opts.Logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
