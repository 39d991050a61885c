// Package server exposes the assistant over HTTP: a JSON API for asking and
// planning queries, memory inspection endpoints and a WebSocket chat.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zhaddad/aeromind/internal/agent"
	"github.com/zhaddad/aeromind/internal/airportdata"
	"github.com/zhaddad/aeromind/internal/longterm"
	"github.com/zhaddad/aeromind/internal/vectordb"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server serves the assistant API.
type Server struct {
	cfg        Config
	agent      *agent.Agent
	store      vectordb.KnowledgeStore
	longterm   *longterm.Store
	data       *airportdata.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates a server over the agent and its stores.
func New(cfg Config, a *agent.Agent, store vectordb.KnowledgeStore, lt *longterm.Store, data *airportdata.Store) *Server {
	s := &Server{
		cfg:      cfg,
		agent:    a,
		store:    store,
		longterm: lt,
		data:     data,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", s.handleAsk)
		r.Post("/plan", s.handlePlan)
		r.Get("/knowledge/search", s.handleKnowledgeSearch)
		r.Get("/memory/{userID}", s.handleMemory)
		r.Get("/stands/{standID}", s.handleStandInfo)
	})

	r.Get("/ws/chat", s.handleWebSocket)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("aeromind server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
