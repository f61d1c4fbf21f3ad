// Agent spawning: places the initial population on habitable hexes.
package agents

import (
	"math/rand"

	"github.com/talgya/ss-sim/internal/health"
	"github.com/talgya/ss-sim/internal/world"
)

// Spawner creates agents for the simulation. The same seed always produces
// the same names and positions.
type Spawner struct {
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// SetNextID sets the next agent ID to be issued (used when restoring from DB).
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// SpawnPopulation creates count agents spread over the map's habitable hexes.
// Towns receive three times the weight of other land.
func (s *Spawner) SpawnPopulation(m *world.Map, count int, tick uint64) []*Agent {
	coords := m.HabitableCoords()
	if len(coords) == 0 || count <= 0 {
		return nil
	}

	weighted := make([]world.HexCoord, 0, len(coords))
	for _, c := range coords {
		weighted = append(weighted, c)
		if m.Get(c).Terrain == world.TerrainTown {
			weighted = append(weighted, c, c)
		}
	}

	out := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		pos := weighted[s.rng.Intn(len(weighted))]
		out = append(out, s.Spawn(pos, tick))
	}
	return out
}

// Spawn creates a single fresh agent at the given position.
func (s *Spawner) Spawn(position world.HexCoord, tick uint64) *Agent {
	id := s.nextID
	s.nextID++

	return &Agent{
		ID:       id,
		Name:     s.generateName(),
		Position: position,
		Player:   health.NewPlayer(),
		BornTick: tick,
	}
}

func (s *Spawner) generateName() string {
	firsts := maleNames
	if s.rng.Float32() < 0.5 {
		firsts = femaleNames
	}
	first := firsts[s.rng.Intn(len(firsts))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return first + " " + last
}
