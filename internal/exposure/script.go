package exposure

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/ss-sim/internal/agents"
	"github.com/talgya/ss-sim/internal/health"
)

// Script replays hand-written exposures. Steps apply to every agent unless a
// per-agent list is given; ticks past the end of a list see no exposure.
type Script struct {
	Name     string                            `yaml:"name"`
	Steps    []health.ExposureEvent            `yaml:"steps"`
	PerAgent map[uint64][]health.ExposureEvent `yaml:"agents"`
	Loop     bool                              `yaml:"loop"`
}

// LoadScript reads a YAML scenario file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML scenario.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	return &s, nil
}

// Exposure returns the step for the given tick. Tick 1 is the first step.
func (s *Script) Exposure(a *agents.Agent, tick uint64) health.ExposureEvent {
	steps := s.Steps
	if own, ok := s.PerAgent[uint64(a.ID)]; ok {
		steps = own
	}
	if len(steps) == 0 || tick == 0 {
		return health.ExposureEvent{}
	}

	i := tick - 1
	if s.Loop {
		i %= uint64(len(steps))
	}
	if i >= uint64(len(steps)) {
		return health.ExposureEvent{}
	}
	return steps[i]
}
