// Package exposure supplies the per-tick ExposureEvent for each agent.
// Sources are deterministic: the same agent, tick and configuration always
// yield the same event.
package exposure

import (
	"github.com/talgya/ss-sim/internal/agents"
	"github.com/talgya/ss-sim/internal/health"
)

// Source produces an agent's exposure for one tick.
type Source interface {
	Exposure(a *agents.Agent, tick uint64) health.ExposureEvent
}

// None is a Source that never exposes anyone.
type None struct{}

// Exposure always returns the zero event.
func (None) Exposure(*agents.Agent, uint64) health.ExposureEvent {
	return health.ExposureEvent{}
}
