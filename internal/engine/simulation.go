// Simulation ties the world, agents and exposure source together and runs
// every agent's health model once per tick.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/ss-sim/internal/agents"
	"github.com/talgya/ss-sim/internal/exposure"
	"github.com/talgya/ss-sim/internal/health"
	"github.com/talgya/ss-sim/internal/logging"
	"github.com/talgya/ss-sim/internal/world"
)

// MaxEvents is how many recent events the simulation keeps in memory.
const MaxEvents = 1000

// Errors returned by Treat.
var (
	ErrUnknownAgent = errors.New("unknown agent")
	ErrQueueFull    = errors.New("input queue full")
)

// Simulation holds the complete world state. All exported methods are safe
// for concurrent use; the HTTP API reads while the engine ticks.
type Simulation struct {
	mu sync.RWMutex

	WorldMap   *world.Map
	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent
	Source     exposure.Source

	// TreatBands lists the bands that are treated automatically every tick.
	TreatBands map[health.HealthState]bool

	Events   []Event // Recent events, oldest first
	LastTick uint64  // Most recent tick processed

	queues        map[agents.AgentID]*Queue
	queueCapacity int
	pending       []Event // Events not yet persisted

	Stats SimStats
}

// Event is a notable occurrence in the world.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	AgentID     uint64 `json:"agent_id" db:"agent_id"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "exposure", "treatment", "zombie", "dropped"
}

// SimStats tracks aggregate health statistics.
type SimStats struct {
	Population   int                   `json:"population"`
	ByState      [health.NumStates]int `json:"by_state"`
	CatResistant int                   `json:"cat_resistant"`
	Treatments   int                   `json:"treatments"`
	Dropped      int                   `json:"dropped_inputs"`
}

// Count returns the number of agents in a band.
func (st SimStats) Count(s health.HealthState) int {
	if s >= health.NumStates {
		return 0
	}
	return st.ByState[s]
}

// Infected returns the number of agents in any infected band.
func (st SimStats) Infected() int {
	n := 0
	for _, s := range health.AllStates() {
		if s.IsInfected() {
			n += st.ByState[s]
		}
	}
	return n
}

// NewSimulation creates a Simulation. A nil source means no exposure.
func NewSimulation(m *world.Map, ag []*agents.Agent, src exposure.Source, queueCapacity int) *Simulation {
	if src == nil {
		src = exposure.None{}
	}
	if queueCapacity <= 0 {
		queueCapacity = DefaultQueueCapacity
	}

	sim := &Simulation{
		WorldMap:      m,
		AgentIndex:    make(map[agents.AgentID]*agents.Agent, len(ag)),
		Source:        src,
		TreatBands:    make(map[health.HealthState]bool),
		queues:        make(map[agents.AgentID]*Queue, len(ag)),
		queueCapacity: queueCapacity,
	}
	for _, a := range ag {
		sim.addLocked(a)
	}
	sim.updateStats()
	return sim
}

func (s *Simulation) addLocked(a *agents.Agent) {
	s.Agents = append(s.Agents, a)
	s.AgentIndex[a.ID] = a
	s.queues[a.ID] = NewQueue(s.queueCapacity)
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// Treat queues a treatment for the agent, applied on the next tick.
func (s *Simulation) Treat(id agents.AgentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[id]
	if !ok {
		return fmt.Errorf("treat %d: %w", id, ErrUnknownAgent)
	}
	if !q.Push(TreatmentInput()) {
		return fmt.Errorf("treat %d: %w", id, ErrQueueFull)
	}
	return nil
}

// TickMinute runs every tick: queue this tick's inputs for each agent and
// apply them through GameUpdate.
func (s *Simulation) TickMinute(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	for _, a := range s.Agents {
		q := s.queues[a.ID]

		// Queued ahead of the exposure so the band that was checked is the
		// band that gets treated.
		if s.TreatBands[a.State()] {
			q.Push(TreatmentInput())
		}
		if !q.Push(ExposureInput(s.Source.Exposure(a, tick))) {
			s.recordLocked(Event{
				Tick:        tick,
				AgentID:     uint64(a.ID),
				Description: fmt.Sprintf("%s: exposure dropped, queue full", a.Name),
				Category:    "dropped",
			})
			s.Stats.Dropped++
		}

		s.applyLocked(a, q, tick)
	}
	s.updateStats()
}

func (s *Simulation) applyLocked(a *agents.Agent, q *Queue, tick uint64) {
	prev := a.State()
	note := func(cause string) {
		cur := a.State()
		if cur == prev {
			return
		}
		agents.AddTransition(a, agents.Transition{Tick: tick, From: prev, To: cur, Cause: cause})
		slog.Log(context.Background(), logging.LevelTrace, "band change",
			"tick", tick, "agent", a.ID, "from", prev.String(), "to", cur.String(), "cause", cause, "health", a.Player.Health)

		category := cause
		if cur == health.Zombie {
			category = "zombie"
		}
		s.recordLocked(Event{
			Tick:        tick,
			AgentID:     uint64(a.ID),
			Description: fmt.Sprintf("%s: %s → %s", a.Name, prev, cur),
			Category:    category,
		})
		prev = cur
	}

	GameUpdate(&a.Player, q.Pop, GameHooks{
		OnExposure: func(health.ExposureEvent) { note("exposure") },
		OnTreatment: func(before uint32) {
			if a.Player.Health == before {
				// Immune, SuperHealthy and Zombie are left alone.
				return
			}
			a.Treatments++
			s.Stats.Treatments++
			note("treatment")
		},
	})
}

func (s *Simulation) recordLocked(e Event) {
	s.Events = append(s.Events, e)
	if len(s.Events) > MaxEvents {
		s.Events = s.Events[len(s.Events)-MaxEvents:]
	}
	s.pending = append(s.pending, e)
	if len(s.pending) > MaxEvents {
		s.pending = s.pending[len(s.pending)-MaxEvents:]
	}
}

// DrainPending returns events recorded since the last call, for persistence.
// At most MaxEvents are held; older undrained events are discarded.
func (s *Simulation) DrainPending() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// TickReport logs a summary of the population's health.
func (s *Simulation) TickReport(tick uint64) {
	st := s.StatsSnapshot()

	attrs := []any{
		"tick", humanize.Comma(int64(tick)),
		"time", SimTime(tick),
		"population", humanize.Comma(int64(st.Population)),
		"infected", st.Infected(),
		"cat_resistant", st.CatResistant,
		"treatments", humanize.Comma(int64(st.Treatments)),
	}
	for _, hs := range health.AllStates() {
		attrs = append(attrs, hs.String(), st.ByState[hs])
	}
	slog.Info("health report", attrs...)
}

// StatsSnapshot returns a copy of the current statistics.
func (s *Simulation) StatsSnapshot() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// AgentsSnapshot returns copies of every agent.
func (s *Simulation) AgentsSnapshot() []agents.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]agents.Agent, 0, len(s.Agents))
	for _, a := range s.Agents {
		out = append(out, copyAgent(a))
	}
	return out
}

// AgentSnapshot returns a copy of one agent.
func (s *Simulation) AgentSnapshot(id agents.AgentID) (agents.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.AgentIndex[id]
	if !ok {
		return agents.Agent{}, false
	}
	return copyAgent(a), true
}

// RecentEvents returns up to limit of the newest events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit >= 0 && len(s.Events) > limit {
		start = len(s.Events) - limit
	}
	out := make([]Event, len(s.Events)-start)
	copy(out, s.Events[start:])
	return out
}

func copyAgent(a *agents.Agent) agents.Agent {
	c := *a
	c.History = append([]agents.Transition(nil), a.History...)
	return c
}

func (s *Simulation) updateStats() {
	var st SimStats
	st.Treatments = s.Stats.Treatments
	st.Dropped = s.Stats.Dropped

	for _, a := range s.Agents {
		st.Population++
		st.ByState[a.State()]++
		if a.Player.CatResistance {
			st.CatResistant++
		}
	}
	s.Stats = st
}
