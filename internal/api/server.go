// Package api provides the HTTP API for observing a running simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/ss-sim/internal/agents"
	"github.com/talgya/ss-sim/internal/engine"
	"github.com/talgya/ss-sim/internal/health"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	Port     int
	AdminKey string   // Bearer token for POST endpoints. Empty = POST disabled.
	Origins  []string // Extra CORS origins on top of the local dev servers.

	httpServer *http.Server
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	treatLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/players", s.handlePlayers)
	mux.HandleFunc("/api/v1/player/", s.handlePlayerRoutes(treatLimiter))
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(mux, s.Origins)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler, extra []string) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range extra {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the HTTP server started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	tick := s.Sim.CurrentTick()
	st := s.Sim.StatsSnapshot()

	status := map[string]any{
		"name":       "ss-sim",
		"tick":       tick,
		"sim_time":   engine.SimTime(tick),
		"population": st.Population,
		"infected":   st.Infected(),
		"zombies":    st.Count(health.Zombie),
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.StatsSnapshot()

	bands := make(map[string]int, health.NumStates)
	for _, hs := range health.AllStates() {
		bands[hs.String()] = st.Count(hs)
	}
	writeJSON(w, map[string]any{
		"population":     st.Population,
		"bands":          bands,
		"infected":       st.Infected(),
		"cat_resistant":  st.CatResistant,
		"treatments":     st.Treatments,
		"dropped_inputs": st.Dropped,
	})
}

type playerSummary struct {
	ID            agents.AgentID   `json:"id"`
	Name          string           `json:"name"`
	Q             int              `json:"q"`
	R             int              `json:"r"`
	Health        uint32           `json:"health"`
	State         string           `json:"state"`
	CatResistance bool             `json:"cat_resistance"`
	Indicator     health.Indicator `json:"indicator"`
}

func summarize(a agents.Agent) playerSummary {
	return playerSummary{
		ID:            a.ID,
		Name:          a.Name,
		Q:             a.Position.Q,
		R:             a.Position.R,
		Health:        a.Player.Health,
		State:         a.State().String(),
		CatResistance: a.Player.CatResistance,
		Indicator:     health.IndicatorFor(a.Player.Health),
	}
}

// handlePlayers lists players, optionally filtered with ?state=<band>.
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	var filter *health.HealthState
	if name := r.URL.Query().Get("state"); name != "" {
		hs, ok := health.ParseState(name)
		if !ok {
			http.Error(w, "unknown state", http.StatusBadRequest)
			return
		}
		filter = &hs
	}

	all := s.Sim.AgentsSnapshot()
	out := make([]playerSummary, 0, len(all))
	for _, a := range all {
		if filter != nil && a.State() != *filter {
			continue
		}
		out = append(out, summarize(a))
	}
	writeJSON(w, out)
}

// handlePlayerRoutes dispatches GET /api/v1/player/:id and POST /api/v1/player/:id/treat.
func (s *Server) handlePlayerRoutes(treatLimiter *RateLimiter) http.HandlerFunc {
	treat := RateLimitMiddleware(treatLimiter, s.adminOnly(s.handleTreat))

	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/player/")
		if strings.HasSuffix(path, "/treat") {
			treat(w, r)
			return
		}
		s.handlePlayerDetail(w, r)
	}
}

func parsePlayerID(path string) (agents.AgentID, error) {
	path = strings.TrimPrefix(path, "/api/v1/player/")
	path = strings.TrimSuffix(path, "/treat")
	id, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		return 0, err
	}
	return agents.AgentID(id), nil
}

func (s *Server) handlePlayerDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlayerID(r.URL.Path)
	if err != nil {
		http.Error(w, "invalid player id", http.StatusBadRequest)
		return
	}

	a, ok := s.Sim.AgentSnapshot(id)
	if !ok {
		http.Error(w, "player not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"player":     summarize(a),
		"tick":       a.Player.Tick,
		"treatments": a.Treatments,
		"born_tick":  a.BornTick,
		"recent":     agents.RecentTransitions(&a, 10),
		"worst":      agents.WorstTransitions(&a, 3),
	})
}

func (s *Server) handleTreat(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlayerID(r.URL.Path)
	if err != nil {
		http.Error(w, "invalid player id", http.StatusBadRequest)
		return
	}

	if err := s.Sim.Treat(id); err != nil {
		switch {
		case errors.Is(err, engine.ErrUnknownAgent):
			http.Error(w, "player not found", http.StatusNotFound)
		case errors.Is(err, engine.ErrQueueFull):
			http.Error(w, "treatment queue full", http.StatusTooManyRequests)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	slog.Info("treatment queued", "player", id)
	writeJSONStatus(w, http.StatusAccepted, map[string]any{"queued": true, "player": id})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, s.Sim.RecentEvents(limit))
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not attached", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 {
		http.Error(w, "speed must be non-negative", http.StatusBadRequest)
		return
	}

	s.Eng.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)
	writeJSON(w, map[string]any{"speed": req.Speed})
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
