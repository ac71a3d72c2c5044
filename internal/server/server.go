// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

// Package server exposes the knowledge store over a local HTTP JSON
// API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/substrate-dev/substrate/internal/embed"
	"github.com/substrate-dev/substrate/internal/index"
	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wraps a chi router over the store, indexes, and embedding
// provider.
type Server struct {
	router   chi.Router
	cfg      Config
	store    *substrate.Substrate
	indexes  *index.Manager
	embedder embed.Provider
	logger   *slog.Logger
}

// New creates a Server with chi router, health endpoint, and CORS.
func New(cfg Config, store *substrate.Substrate, indexes *index.Manager, embedder embed.Provider, logger *slog.Logger) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, suberr.New(suberr.CodeServerStartFailure, "listen address is required")
	}
	if store == nil || indexes == nil || embedder == nil {
		return nil, suberr.New(suberr.CodeServerStartFailure, "store, indexes, and embedder are required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware(cfg.CORSOrigins))

	s := &Server{
		router:   r,
		cfg:      cfg,
		store:    store,
		indexes:  indexes,
		embedder: embedder,
		logger:   logger,
	}
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/atoms", func(r chi.Router) {
		r.Post("/", s.handleIngest)
		r.Get("/", s.handleList)
		r.Get("/{hash}", s.handleGet)
		r.Get("/{hash}/neighbors", s.handleNeighbors)
		r.Get("/{hash}/links", s.handleLinks)
		r.Get("/{hash}/traverse", s.handleTraverse)
		r.Get("/{hash}/similar", s.handleSimilar)
	})

	s.router.Route("/graph", func(r chi.Router) {
		r.Get("/domain", s.handleByDomain)
		r.Get("/type", s.handleByType)
		r.Get("/tag", s.handleByTag)
	})

	s.router.Post("/links", s.handleLink)
	s.router.Get("/path", s.handleShortestPath)
	s.router.Get("/search", s.handleSearch)
	s.router.Post("/search/semantic", s.handleSemanticSearch)
	s.router.Get("/recent", s.handleRecent)
	s.router.Get("/stats", s.handleStats)
	s.router.Get("/verify", s.handleVerify)
	s.router.Post("/rebuild", s.handleRebuild)
	s.router.Post("/embed/{hash}", s.handleEmbed)
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until the context is
// cancelled, then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return suberr.Errorf(suberr.CodeServerStartFailure, "listening on %s: %w", s.cfg.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("http server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return suberr.Errorf(suberr.CodeServerShutdownFailure, "shutting down: %w", err)
	}

	return <-errCh
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
