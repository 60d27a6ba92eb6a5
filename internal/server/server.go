// Package server exposes the derived graph to the rendering frontend over
// HTTP and WebSocket. This is the interface boundary to the rendering and
// physics collaborators: the 3D force-graph library runs in the browser,
// consumes snapshots, pushes position write-backs, and applies the tuning
// profile the controller picked.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/vaultgraph/vaultgraph/internal/layout"
	"github.com/vaultgraph/vaultgraph/internal/view"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server serves graph snapshots and accepts configuration updates.
type Server struct {
	cfg        Config
	controller *view.Controller
	hub        *hub
	log        *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server around a view controller. Snapshots published by the
// controller are pushed to every connected WebSocket client.
func New(cfg Config, controller *view.Controller, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:        cfg,
		controller: controller,
		hub:        newHub(logger),
		log:        logger.Named("server"),
	}
	s.router = s.buildRouter()
	controller.SetOnUpdate(func(snap view.Snapshot) {
		s.hub.broadcast(wsMessage{Type: "graph", Graph: &snap})
	})
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
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
		r.Get("/graph", s.handleGetGraph)
		r.Get("/config", s.handleGetConfig)
		r.Post("/config", s.handlePostConfig)
		r.Post("/highlight", s.handleHighlight)
		r.Post("/positions", s.handlePositions)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Settings())
}

func (s *Server) handlePostConfig(w http.ResponseWriter, r *http.Request) {
	var partial view.Partial
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeError(w, http.StatusBadRequest, "invalid config payload")
		return
	}
	snap, err := s.controller.ApplyConfig(r.Context(), partial)
	if err != nil {
		if errors.Is(err, view.ErrUpdateInFlight) {
			// The trigger was coalesced away; the client will get the next
			// snapshot over the socket.
			writeJSON(w, http.StatusAccepted, s.controller.Snapshot())
			return
		}
		s.log.Warn("config update produced no graph", zap.Error(err))
		writeJSON(w, http.StatusOK, s.controller.Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid highlight payload")
		return
	}
	writeJSON(w, http.StatusOK, s.controller.SetHighlight(req.IDs))
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	var req map[string]layout.Position
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid positions payload")
		return
	}
	s.controller.SetPositions(req)
	if err := s.controller.PersistPositions(r.Context()); err != nil {
		s.log.Warn("persisting positions failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// Start begins listening on the configured port and blocks.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.log.Info("listening", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
