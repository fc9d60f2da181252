package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
	"github.com/wricardo/gridpath/game/service"
	"github.com/wricardo/gridpath/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GridService
	hub     *websocket.Hub
	router  *mux.Router

	// Paced search streams outlive their requests and stop with Close
	streamCtx   context.Context
	stopStreams context.CancelFunc
}

// NewServer creates a new API server
func NewServer(gridService service.GridService, hub *websocket.Hub) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		service:     gridService,
		hub:         hub,
		router:      mux.NewRouter(),
		streamCtx:   ctx,
		stopStreams: cancel,
	}

	s.setupRoutes()
	return s
}

// Close stops every paced search stream started by the server
func (s *Server) Close() {
	s.stopStreams()
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Grid editing
	api.HandleFunc("/sessions/{id}/grid", s.handleGetGrid).Methods("GET")
	api.HandleFunc("/sessions/{id}/cells", s.handleEditCell).Methods("POST")
	api.HandleFunc("/sessions/{id}/clear", s.handleClearGrid).Methods("POST")
	api.HandleFunc("/sessions/{id}/obstacles/random", s.handleRandomObstacles).Methods("POST")

	// Search
	api.HandleFunc("/sessions/{id}/solve", s.handleSolve).Methods("POST")
	api.HandleFunc("/sessions/{id}/search", s.handleStartSearch).Methods("POST")
	api.HandleFunc("/sessions/{id}/search/cancel", s.handleCancelSearch).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service and domain errors to status codes
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrConfigNotFound):
		status = http.StatusNotFound
	case errors.Is(err, grid.ErrCellOccupied), errors.Is(err, service.ErrSessionAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, grid.ErrOutOfBounds),
		errors.Is(err, service.ErrInvalidAction),
		errors.Is(err, service.ErrInvalidConfig),
		errors.Is(err, search.ErrInvalidGrid),
		errors.Is(err, search.ErrEndpointBlocked):
		status = http.StatusBadRequest
	}
	respondError(w, status, err.Error())
}

// decodeOptional decodes a JSON body when one is present
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Grid Handlers

func (s *Server) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	snapshot, err := s.service.GetGrid(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleEditCell(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.EditCell(r.Context(), sessionID, req)
	if err != nil {
		log.Printf("[EDIT] session=%s %s (%d,%d) REJECTED: %v", sessionID, req.Action, req.Row, req.Col, err)
		respondServiceError(w, err)
		return
	}

	log.Printf("[EDIT] session=%s %s (%d,%d) -> %s cancelled_run=%t",
		sessionID, req.Action, req.Row, req.Col, result.CellType, result.RunCancelled)
	s.broadcastGrid(result.SessionID, result.Grid)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleClearGrid(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.ClearGrid(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastGrid(result.SessionID, result.Grid)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRandomObstacles(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.RandomObstaclesRequest
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.AddRandomObstacles(r.Context(), sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[EDIT] session=%s random_obstacles placed=%d", sessionID, result.Placed)
	s.broadcastGrid(result.SessionID, result.Grid)
	respondJSON(w, http.StatusOK, result)
}

// Search Handlers

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var opts service.SolveOptions
	if err := decodeOptional(r, &opts); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if v := r.URL.Query().Get("events"); v != "" {
		opts.IncludeEvents, _ = strconv.ParseBool(v)
	}

	result, err := s.service.Solve(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[SEARCH] session=%s run=%s outcome=%s expanded=%d path=%d cost=%g",
		sessionID, result.RunID, result.Outcome, result.Stats.Expanded, len(result.Path), result.PathCost)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStartSearch(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "Streaming requires the websocket hub; use /solve instead")
		return
	}

	handle, err := s.service.StartSearch(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	watchers := s.hub.ClientCount(handle.SessionID)
	log.Printf("[SEARCH] session=%s run=%s streaming to %d watchers", handle.SessionID, handle.Run.ID(), watchers)

	s.hub.BroadcastGrid(handle.SessionID, handle.Grid)
	go websocket.StreamSearch(s.streamCtx, s.hub, handle.SessionID, handle.Run, handle.StepDelay)

	respondJSON(w, http.StatusAccepted, map[string]any{
		"session_id":    handle.SessionID,
		"run_id":        handle.Run.ID(),
		"step_delay_ms": handle.StepDelay.Milliseconds(),
		"websocket":     "/ws?session=" + handle.SessionID,
		"watchers":      watchers,
	})
}

func (s *Server) handleCancelSearch(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	cancelled, err := s.service.CancelSearch(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, config)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var config grid.Config
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if config.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := r.URL.Query().Get("id")
	if configID == "" {
		configID = config.Name
	}

	if err := s.service.SaveConfig(r.Context(), configID, &config); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket hub not configured", http.StatusServiceUnavailable)
		return
	}

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, session.ID)
}

func (s *Server) broadcastGrid(sessionID string, snapshot *grid.Snapshot) {
	if s.hub != nil {
		s.hub.BroadcastGrid(sessionID, snapshot)
	}
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
