// World generation using layered simplex noise.
// Elevation decides land and sea; two further layers seed the crowding and
// cat density contact fields, and towns raise crowding around them.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Radius   int     // Hex grid radius
	Seed     int64   // Random seed (0 = random)
	SeaLevel float64 // Elevation threshold for ocean (0.0–1.0)
	Towns    int     // Number of towns to place
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:   12,
		Seed:     0,
		SeaLevel: 0.25,
		Towns:    4,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:   5,
		Seed:     42,
		SeaLevel: 0.20,
		Towns:    2,
	}
}

// Generate creates a complete world map with terrain and contact fields.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	crowdNoise := opensimplex.NewNormalized(seed + 1)
	catNoise := opensimplex.NewNormalized(seed + 2)

	m := NewMap(cfg.Radius)

	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}

			x, y := coord.Cartesian()

			elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
			crowd := octaveNoise(crowdNoise, x, y, 2, 0.10, 0.5)
			cats := octaveNoise(catNoise, x, y, 3, 0.12, 0.5)

			// Continental shaping: reduce elevation near edges to create ocean border.
			radius := float64(max(cfg.Radius, 1))
			distFromCenter := math.Sqrt(x*x+y*y) / radius
			edgeFalloff := 1.0 - math.Pow(distFromCenter, 3.5)
			if edgeFalloff < 0 {
				edgeFalloff = 0
			}
			elev *= edgeFalloff

			terrain := deriveTerrain(elev, cats, cfg)

			hex := &Hex{
				Coord:     coord,
				Terrain:   terrain,
				Elevation: elev,
			}
			if terrain != TerrainOcean {
				hex.Crowding = clamp01(crowd * 0.4)
				hex.CatDensity = clamp01(cats * catFactor(terrain))
			}

			m.Set(hex)
		}
	}

	// Post-pass: towns concentrate people.
	PlaceTowns(m, cfg.Towns)

	return m
}

// deriveTerrain determines terrain type from elevation and the cat layer,
// which doubles as a wildness measure.
func deriveTerrain(elev, wild float64, cfg GenConfig) Terrain {
	if elev < cfg.SeaLevel {
		return TerrainOcean
	}
	if elev < cfg.SeaLevel+0.08 {
		return TerrainMarsh
	}
	if wild > 0.6 {
		return TerrainForest
	}
	return TerrainPlains
}

// catFactor scales stray density by terrain.
func catFactor(t Terrain) float64 {
	switch t {
	case TerrainForest:
		return 1.0
	case TerrainTown:
		return 0.8
	case TerrainMarsh:
		return 0.2
	default:
		return 0.5
	}
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, hex := range m.Hexes {
		counts[hex.Terrain]++
	}
	return counts
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainPlains:
		return "Plains"
	case TerrainForest:
		return "Forest"
	case TerrainMarsh:
		return "Marsh"
	case TerrainTown:
		return "Town"
	case TerrainOcean:
		return "Ocean"
	default:
		return "Unknown"
	}
}
