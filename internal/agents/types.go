// Package agents provides the actors of the simulation: a named position on
// the map wrapping one health.Player, plus a seeded spawner.
package agents

import (
	"github.com/talgya/ss-sim/internal/health"
	"github.com/talgya/ss-sim/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Agent is one simulated person. The Player is owned by value; nothing else
// aliases it.
type Agent struct {
	ID       AgentID        `json:"id"`
	Name     string         `json:"name"`
	Position world.HexCoord `json:"position"`

	Player health.Player `json:"player"`

	// Treatments counts treatments actually applied.
	Treatments uint32 `json:"treatments"`

	// Band changes, oldest first (capped at MaxHistory).
	History []Transition `json:"history,omitempty"`

	BornTick uint64 `json:"born_tick"`
}

// State returns the agent's current health band.
func (a *Agent) State() health.HealthState {
	return health.Classify(a.Player.Health)
}
