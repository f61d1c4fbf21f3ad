package exposure

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/ss-sim/internal/agents"
	"github.com/talgya/ss-sim/internal/health"
	"github.com/talgya/ss-sim/internal/world"
)

// FieldConfig tunes a Field.
type FieldConfig struct {
	Seed      int64
	Intensity float64 // Peak contacts per tick on a saturated hex
	TimeScale float64 // How fast the field drifts per tick
}

// DefaultFieldConfig returns a gentle field: a few contacts per tick at most.
func DefaultFieldConfig() FieldConfig {
	return FieldConfig{
		Seed:      0,
		Intensity: 3,
		TimeScale: 0.05,
	}
}

// Field derives exposure from the contact fields of the agent's hex,
// modulated by simplex noise drifting over time.
type Field struct {
	m     *world.Map
	cfg   FieldConfig
	human opensimplex.Noise
	cat   opensimplex.Noise
}

// NewField creates a field source over the given map.
func NewField(m *world.Map, cfg FieldConfig) *Field {
	return &Field{
		m:     m,
		cfg:   cfg,
		human: opensimplex.NewNormalized(cfg.Seed + 10),
		cat:   opensimplex.NewNormalized(cfg.Seed + 11),
	}
}

// Exposure samples both noise layers at the agent's position and tick.
func (f *Field) Exposure(a *agents.Agent, tick uint64) health.ExposureEvent {
	hex := f.m.Get(a.Position)
	if hex == nil || !hex.Habitable() {
		return health.ExposureEvent{}
	}

	x, y := a.Position.Cartesian()
	z := float64(tick) * f.cfg.TimeScale

	return health.ExposureEvent{
		Human: contacts(f.human.Eval3(x*0.3, y*0.3, z), hex.Crowding, f.cfg.Intensity),
		Cat:   contacts(f.cat.Eval3(x*0.3, y*0.3, z), hex.CatDensity, f.cfg.Intensity),
	}
}

// contacts turns a noise sample and a field density into a whole number of
// contacts. Values below half a contact round to zero; huge values saturate.
func contacts(noise, density, intensity float64) uint32 {
	v := noise * density * intensity
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(math.Round(v))
}
