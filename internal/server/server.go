// Package server exposes the translation pipeline over HTTP: statements
// in, the three renderings out. The catalog and syntax are fixed at
// startup; every request is an independent translation.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markb/raql/internal/catalog"
	"github.com/markb/raql/internal/log"
	"github.com/markb/raql/internal/syntax"
)

type Server struct {
	router *chi.Mux
	st     *syntax.SymbolTable
	cat    catalog.Catalog

	httpServer *http.Server
}

// Config holds server configuration.
type Config struct {
	Syntax  *syntax.SymbolTable
	Catalog catalog.Catalog
}

func New(cfg Config) *Server {
	st := cfg.Syntax
	if st == nil {
		st = syntax.Default()
	}
	s := &Server{
		router: chi.NewRouter(),
		st:     st,
		cat:    cfg.Catalog,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// CORS for browser-based clients rendering formulas and trees.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	s.router.Use(log.RequestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.SetHeader("Content-Type", "application/json"))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/catalog", s.handleCatalog)
	s.router.Post("/translate", s.handleTranslate)
}

// Router returns the underlying router, for tests and embedding.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
