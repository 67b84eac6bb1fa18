package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/minecraftremote/game/config"
	"github.com/wricardo/mcp-training/minecraftremote/game/service"
	"github.com/wricardo/mcp-training/minecraftremote/transport/mcp"
	"github.com/wricardo/mcp-training/minecraftremote/transport/websocket"
)

// ScenarioLister lists the scenarios available to the simulated backend
type ScenarioLister interface {
	ListScenarios() ([]*config.ScenarioInfo, error)
}

// Options configure optional parts of the API server
type Options struct {
	// PublicURL is the externally visible origin advertised to SSE clients
	PublicURL string

	// Scenarios is nil when the backend is not simulated
	Scenarios ScenarioLister

	Version string
	Logger  *zap.Logger
}

// Server represents the HTTP API server
type Server struct {
	service   service.BotService
	hub       *websocket.Hub
	tools     *mcp.Server
	sse       *server.SSEServer
	scenarios ScenarioLister
	router    *mux.Router
	logger    *zap.Logger
	version   string
	started   time.Time
}

// NewServer creates a new API server
func NewServer(botService service.BotService, hub *websocket.Hub, tools *mcp.Server, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		service:   botService,
		hub:       hub,
		tools:     tools,
		sse:       tools.NewSSEServer(opts.PublicURL),
		scenarios: opts.Scenarios,
		router:    mux.NewRouter(),
		logger:    logger.Named("api"),
		version:   opts.Version,
		started:   time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()
	get(api, "/health", s.handleHealth)
	get(api, "/status", s.handleStatus)
	get(api, "/scenarios", s.handleListScenarios)

	// Observers
	s.router.HandleFunc("/ws", s.hub.ServeWS)

	// MCP transports
	s.router.Handle("/sse", s.sse.SSEHandler()).Methods("GET")
	s.router.Handle("/messages", s.sse.MessageHandler()).Methods("POST")
	s.router.HandleFunc("/mcp", s.tools.HandleMessage)
}

// get registers a GET route plus a catch-all for the same path answering 405.
// mux loses the method mismatch once the POST-only MCP routes are registered.
func get(r *mux.Router, path string, h http.HandlerFunc) {
	r.HandleFunc(path, h).Methods(http.MethodGet)
	r.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Allow", http.MethodGet)
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown closes open SSE streams
func (s *Server) Shutdown(ctx context.Context) error {
	return s.sse.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"bot":       status,
		"observers": s.hub.ClientCount(),
	})
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	if s.scenarios == nil {
		respondError(w, http.StatusNotFound, "scenarios are only available with the sim backend")
		return
	}

	scenarios, err := s.scenarios.ListScenarios()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if scenarios == nil {
		scenarios = []*config.ScenarioInfo{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(scenarios),
		"scenarios": scenarios,
	})
}
