package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/talgya/ss-sim/internal/agents"
	"github.com/talgya/ss-sim/internal/engine"
	"github.com/talgya/ss-sim/internal/world"
)

const testKey = "secret"

// newTestServer builds a server over three agents at health 2, 50 and 95.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := world.NewMap(1)
	m.Set(&world.Hex{Coord: world.HexCoord{}, Terrain: world.TerrainTown})

	sp := agents.NewSpawner(7)
	var pop []*agents.Agent
	for _, h := range []uint32{2, 50, 95} {
		a := sp.Spawn(world.HexCoord{}, 0)
		a.Player.Health = h
		pop = append(pop, a)
	}
	return &Server{
		Sim:      engine.NewSimulation(m, pop, nil, 2),
		Eng:      engine.NewEngine(),
		AdminKey: testKey,
	}
}

func do(t *testing.T, h http.Handler, method, path, body, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/status", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["population"] != float64(3) {
		t.Errorf("expected population 3, got %v", body["population"])
	}
	if body["infected"] != float64(2) {
		t.Errorf("expected 2 infected, got %v", body["infected"])
	}
	if body["sim_time"] != "Day 1, 0:00" {
		t.Errorf("unexpected sim_time %v", body["sim_time"])
	}
}

func TestPlayersFilter(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	tests := []struct {
		query string
		code  int
		count int
	}{
		{"", http.StatusOK, 3},
		{"?state=InfectedAsym", http.StatusOK, 1},
		{"?state=Zombie", http.StatusOK, 0},
		{"?state=bogus", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodGet, "/api/v1/players"+tt.query, "", "")
		if rec.Code != tt.code {
			t.Errorf("%q: expected %d, got %d", tt.query, tt.code, rec.Code)
			continue
		}
		if tt.code != http.StatusOK {
			continue
		}
		var out []playerSummary
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%q: decode: %v", tt.query, err)
		}
		if len(out) != tt.count {
			t.Errorf("%q: expected %d players, got %d", tt.query, tt.count, len(out))
		}
	}
}

func TestPlayerDetail(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/player/3", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Player struct {
			Health    uint32 `json:"health"`
			State     string `json:"state"`
			Indicator struct {
				Color     string `json:"color"`
				BlinkRate uint32 `json:"blink_rate"`
			} `json:"indicator"`
		} `json:"player"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Player.Health != 95 || body.Player.State != "InfectedSymLate" {
		t.Errorf("unexpected player %+v", body.Player)
	}
	if body.Player.Indicator.Color != "red" || body.Player.Indicator.BlinkRate != 100 {
		t.Errorf("unexpected indicator %+v", body.Player.Indicator)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/player/99", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown player: expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/player/abc", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestTreatAuth(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/v1/player/2/treat", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/player/2/treat", "", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: expected 401, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/player/2/treat", "", testKey); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: expected 405, got %d", rec.Code)
	}

	s.AdminKey = ""
	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/player/2/treat", "", "anything"); rec.Code != http.StatusForbidden {
		t.Errorf("disabled: expected 403, got %d", rec.Code)
	}
}

func TestTreatAppliesNextTick(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/player/2/treat", "", testKey)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	s.Sim.TickMinute(1)
	a, _ := s.Sim.AgentSnapshot(2)
	if a.Treatments != 1 {
		t.Errorf("expected 1 treatment, got %d", a.Treatments)
	}
	// Asym 50 is relieved by 35 to 15 before the exposure step, which then
	// decays one point in the Healthy band.
	if a.Player.Health != 14 {
		t.Errorf("expected health 14, got %d", a.Player.Health)
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/player/42/treat", "", testKey); rec.Code != http.StatusNotFound {
		t.Errorf("unknown player: expected 404, got %d", rec.Code)
	}
}

func TestTreatQueueFull(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	// Queue capacity is 2.
	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodPost, "/api/v1/player/1/treat", "", testKey); rec.Code != http.StatusAccepted {
			t.Fatalf("treat %d: expected 202, got %d", i, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/player/1/treat", "", testKey); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 on full queue, got %d", rec.Code)
	}
}

func TestSpeed(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed": 4}`, testKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if s.Eng.Speed() != 4 {
		t.Errorf("expected speed 4, got %v", s.Eng.Speed())
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed": -1}`, testKey); rec.Code != http.StatusBadRequest {
		t.Errorf("negative speed: expected 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/speed", `nope`, testKey); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: expected 400, got %d", rec.Code)
	}
}

func TestEventsLimit(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	s.Sim.TickMinute(1)

	if rec := do(t, h, http.MethodGet, "/api/v1/events?limit=x", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/api/v1/events?limit=1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var evs []engine.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &evs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(evs) > 1 {
		t.Errorf("expected at most 1 event, got %d", len(evs))
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)
	s.Origins = []string{"https://dash.example.com"}
	h := s.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight: expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Errorf("expected origin echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow-origin %q", got)
	}
}
