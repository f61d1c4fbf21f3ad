package agents

import (
	"sort"

	"github.com/talgya/ss-sim/internal/health"
)

const MaxHistory = 50

// Transition records a change of health band.
type Transition struct {
	Tick  uint64             `json:"tick"`
	From  health.HealthState `json:"from"`
	To    health.HealthState `json:"to"`
	Cause string             `json:"cause"` // "exposure" or "treatment"
}

// Worsened reports whether the player moved to a higher band.
func (t Transition) Worsened() bool {
	return t.To > t.From
}

// AddTransition appends to the agent's history, dropping the oldest entry
// when full.
func AddTransition(a *Agent, tr Transition) {
	if len(a.History) >= MaxHistory {
		copy(a.History, a.History[1:])
		a.History = a.History[:len(a.History)-1]
	}
	a.History = append(a.History, tr)
}

// RecentTransitions returns the most recent N transitions, newest first.
func RecentTransitions(a *Agent, count int) []Transition {
	if len(a.History) == 0 {
		return nil
	}
	if count > len(a.History) {
		count = len(a.History)
	}

	out := make([]Transition, 0, count)
	for i := len(a.History) - 1; i >= len(a.History)-count; i-- {
		out = append(out, a.History[i])
	}
	return out
}

// WorstTransitions returns the N transitions that reached the highest bands.
func WorstTransitions(a *Agent, count int) []Transition {
	if len(a.History) == 0 {
		return nil
	}

	sorted := make([]Transition, len(a.History))
	copy(sorted, a.History)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].To > sorted[j].To
	})

	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}
