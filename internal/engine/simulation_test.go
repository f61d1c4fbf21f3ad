package engine

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/talgya/ss-sim/internal/agents"
	"github.com/talgya/ss-sim/internal/exposure"
	"github.com/talgya/ss-sim/internal/health"
	"github.com/talgya/ss-sim/internal/logging"
	"github.com/talgya/ss-sim/internal/world"
)

func newTestSim(t *testing.T, src exposure.Source, healths ...uint32) *Simulation {
	t.Helper()
	m := world.NewMap(1)
	m.Set(&world.Hex{Coord: world.HexCoord{}, Terrain: world.TerrainPlains})

	sp := agents.NewSpawner(1)
	var pop []*agents.Agent
	for _, h := range healths {
		a := sp.Spawn(world.HexCoord{}, 0)
		a.Player.Health = h
		pop = append(pop, a)
	}
	return NewSimulation(m, pop, src, 4)
}

func TestSimulationNoExposure(t *testing.T) {
	sim := newTestSim(t, nil, 2, 12, 50, 100)

	sim.TickMinute(1)

	got := sim.AgentsSnapshot()
	want := []uint32{4, 11, 51, 100}
	for i, a := range got {
		if a.Player.Health != want[i] {
			t.Errorf("agent %d: expected health %d, got %d", a.ID, want[i], a.Player.Health)
		}
		if a.Player.Tick != 1 {
			t.Errorf("agent %d: expected player tick 1, got %d", a.ID, a.Player.Tick)
		}
	}
	if sim.CurrentTick() != 1 {
		t.Errorf("expected last tick 1, got %d", sim.CurrentTick())
	}

	st := sim.StatsSnapshot()
	if st.Population != 4 {
		t.Errorf("expected population 4, got %d", st.Population)
	}
	if st.Count(health.InfectedAsym) != 1 || st.Count(health.Zombie) != 1 {
		t.Errorf("unexpected band counts: %v", st.ByState)
	}
	if st.Infected() != 2 {
		t.Errorf("expected 2 infected, got %d", st.Infected())
	}
	if st.CatResistant != 2 {
		t.Errorf("expected 2 cat resistant, got %d", st.CatResistant)
	}
}

func TestSimulationScriptedInfection(t *testing.T) {
	script := &exposure.Script{Steps: []health.ExposureEvent{{Human: 2, Cat: 2}}}
	sim := newTestSim(t, script, 15)

	sim.TickMinute(1) // 15 - 1 + 22 = 36
	sim.TickMinute(2) // no exposure past script end: 36 - 1 = 35

	a, ok := sim.AgentSnapshot(1)
	if !ok {
		t.Fatal("agent 1 missing")
	}
	if a.Player.Health != 35 {
		t.Errorf("expected health 35, got %d", a.Player.Health)
	}
	if len(a.History) != 0 {
		t.Errorf("expected no band change, got %+v", a.History)
	}
}

func TestSimulationRecordsTransitions(t *testing.T) {
	sim := newTestSim(t, nil, 99)
	sim.TickMinute(1)

	events := sim.RecentEvents(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != "zombie" || events[0].AgentID != 1 || events[0].Tick != 1 {
		t.Errorf("unexpected event: %+v", events[0])
	}

	a, _ := sim.AgentSnapshot(1)
	if len(a.History) != 1 || a.History[0].From != health.InfectedSymLate || a.History[0].To != health.Zombie {
		t.Errorf("unexpected history: %+v", a.History)
	}

	pending := sim.DrainPending()
	if len(pending) != 1 {
		t.Errorf("expected 1 pending event, got %d", len(pending))
	}
	if len(sim.DrainPending()) != 0 {
		t.Error("expected pending events to be drained")
	}
}

func TestSimulationTreat(t *testing.T) {
	sim := newTestSim(t, nil, 75)

	if err := sim.Treat(1); err != nil {
		t.Fatalf("Treat failed: %v", err)
	}
	sim.TickMinute(1)

	a, _ := sim.AgentSnapshot(1)
	// Treatment was queued before this tick's exposure: 75 → 10, then Healthy 10 stays.
	if a.Player.Health != 10 {
		t.Errorf("expected health 10, got %d", a.Player.Health)
	}
	if a.Treatments != 1 {
		t.Errorf("expected 1 treatment, got %d", a.Treatments)
	}
	// Cured before an infected exposure tick, so the latch never fired.
	if a.Player.CatResistance {
		t.Error("expected no cat resistance")
	}
	if sim.StatsSnapshot().Treatments != 1 {
		t.Errorf("expected stats to count the treatment")
	}

	if err := sim.Treat(42); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("expected ErrUnknownAgent, got %v", err)
	}

	for i := 0; i < 4; i++ {
		sim.Treat(1)
	}
	if err := sim.Treat(1); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestSimulationAutoTreatment(t *testing.T) {
	sim := newTestSim(t, nil, 92, 45)
	sim.TreatBands[health.InfectedSymLate] = true

	sim.TickMinute(1)

	got := sim.AgentsSnapshot()
	// 92: treated → 0, then Immune stays 0. 45 is not in the policy: → 46.
	if got[0].Player.Health != 0 {
		t.Errorf("expected late infection cured to 0, got %d", got[0].Player.Health)
	}
	if got[1].Player.Health != 46 {
		t.Errorf("expected untreated asym to reach 46, got %d", got[1].Player.Health)
	}
}

func TestSimulationDroppedExposure(t *testing.T) {
	sim := newTestSim(t, nil, 20)
	for i := 0; i < 4; i++ {
		sim.Treat(1)
	}
	sim.TickMinute(1)

	st := sim.StatsSnapshot()
	if st.Dropped != 1 {
		t.Errorf("expected 1 dropped input, got %d", st.Dropped)
	}
	events := sim.RecentEvents(-1)
	found := false
	for _, e := range events {
		if e.Category == "dropped" {
			found = true
		}
	}
	if !found {
		t.Error("expected a dropped event")
	}
}

func TestSimulationEventCap(t *testing.T) {
	sim := newTestSim(t, nil)
	for i := 0; i < MaxEvents+10; i++ {
		sim.recordLocked(Event{Tick: uint64(i)})
	}
	events := sim.RecentEvents(-1)
	if len(events) != MaxEvents {
		t.Fatalf("expected %d events, got %d", MaxEvents, len(events))
	}
	if events[0].Tick != 10 {
		t.Errorf("expected oldest tick 10, got %d", events[0].Tick)
	}
	if last := sim.RecentEvents(2); len(last) != 2 || last[1].Tick != uint64(MaxEvents+9) {
		t.Errorf("unexpected tail: %+v", last)
	}
}

func TestSimulationAutoTreatmentUsesCheckedBand(t *testing.T) {
	tests := []struct {
		name       string
		health     uint32
		band       health.HealthState
		want       uint32
		treatments uint32
	}{
		// Would tick into InfectedSymLate, but the Sym cure applies first.
		{"sym at band edge", 89, health.InfectedSym, 10, 1},
		// Would tick into Zombie, but the SymLate cure applies first.
		{"late at band edge", 99, health.InfectedSymLate, 0, 1},
		// Treatment leaves a zombie alone and is not counted.
		{"zombie", 100, health.Zombie, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSim(t, nil, tt.health)
			sim.TreatBands[tt.band] = true

			sim.TickMinute(1)

			a, _ := sim.AgentSnapshot(1)
			if a.Player.Health != tt.want {
				t.Errorf("expected health %d, got %d", tt.want, a.Player.Health)
			}
			if a.Treatments != tt.treatments {
				t.Errorf("expected %d treatments, got %d", tt.treatments, a.Treatments)
			}
			if st := sim.StatsSnapshot(); st.Treatments != int(tt.treatments) {
				t.Errorf("expected stats to count %d treatments, got %d", tt.treatments, st.Treatments)
			}
		})
	}
}

func TestSimulationPendingCapped(t *testing.T) {
	script := &exposure.Script{Steps: []health.ExposureEvent{{Human: 10}}, Loop: true}
	sim := newTestSim(t, script, 38)
	sim.TreatBands[health.InfectedAsym] = true

	// Every tick flips the agent between Healthy and InfectedAsym; nothing drains.
	for tick := uint64(1); tick <= 3*MaxEvents; tick++ {
		sim.TickMinute(tick)
	}

	if n := len(sim.RecentEvents(-1)); n != MaxEvents {
		t.Errorf("expected %d recent events, got %d", MaxEvents, n)
	}
	pending := sim.DrainPending()
	if len(pending) != MaxEvents {
		t.Fatalf("expected pending capped at %d, got %d", MaxEvents, len(pending))
	}
	if last := pending[len(pending)-1]; last.Tick != 3*MaxEvents {
		t.Errorf("expected newest pending event kept, got tick %d", last.Tick)
	}
}

func TestSimulationTraceLogsBandChanges(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.NewLogger("trace", &buf))
	t.Cleanup(func() { slog.SetDefault(prev) })

	sim := newTestSim(t, nil, 99)
	sim.TickMinute(1)

	out := buf.String()
	for _, want := range []string{`"level":"TRACE"`, `"msg":"band change"`, `"to":"Zombie"`} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %s: %s", want, out)
		}
	}
}
