// Package api provides the HTTP surface of the Fern entitlement engine.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Server is the entitlement HTTP API server.
type Server struct {
	mux         *http.ServeMux
	server      *http.Server
	logger      *slog.Logger
	entitlement *EntitlementHandler
	billing     *BillingHandler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new entitlement API server.
func NewServer(cfg ServerConfig, entitlement *EntitlementHandler, billing *BillingHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:         mux,
		logger:      logger,
		entitlement: entitlement,
		billing:     billing,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Entitlement API v1
	s.mux.HandleFunc("POST /api/v1/decisions", s.entitlement.Decide)
	s.mux.HandleFunc("GET /api/v1/users/{userID}/trial", s.entitlement.TrialStatus)
	s.mux.HandleFunc("GET /api/v1/users/{userID}/usage", s.entitlement.Usage)
	s.mux.HandleFunc("GET /api/v1/users/{userID}/snapshot", s.entitlement.Snapshot)
	s.mux.HandleFunc("POST /api/v1/users/{userID}/prompts/poll", s.entitlement.PollPrompt)

	// Billing
	s.mux.HandleFunc("GET /api/v1/users/{userID}/subscription", s.billing.GetSubscription)
	s.mux.HandleFunc("POST /api/v1/billing/webhook", s.billing.Webhook)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting entitlement API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down entitlement API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
