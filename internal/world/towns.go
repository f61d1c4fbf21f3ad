package world

import "sort"

// townSpacing is the minimum hex distance between two towns.
const townSpacing = 3

// PlaceTowns converts the best-scoring land hexes into towns and spreads
// crowding to their neighbours. Returns the chosen coordinates, best first.
func PlaceTowns(m *Map, count int) []HexCoord {
	if count <= 0 {
		return nil
	}

	type scored struct {
		coord HexCoord
		score float64
	}
	var candidates []scored

	for coord, hex := range m.Hexes {
		if hex.Terrain != TerrainPlains {
			continue
		}
		candidates = append(candidates, scored{coord, townScore(m, coord, hex)})
	}

	// Sort by score descending; ties broken by coordinate so the result is stable.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].coord.R != candidates[j].coord.R {
			return candidates[i].coord.R < candidates[j].coord.R
		}
		return candidates[i].coord.Q < candidates[j].coord.Q
	})

	var towns []HexCoord
	for _, c := range candidates {
		if len(towns) >= count {
			break
		}
		if tooClose(c.coord, towns, townSpacing) {
			continue
		}
		towns = append(towns, c.coord)
	}

	for _, coord := range towns {
		hex := m.Get(coord)
		hex.Terrain = TerrainTown
		hex.Crowding = clamp01(0.6 + hex.Crowding)
		hex.CatDensity = clamp01(hex.CatDensity * catFactor(TerrainTown))

		for _, nc := range coord.Neighbors() {
			nh := m.Get(nc)
			if nh == nil || !nh.Habitable() || nh.Terrain == TerrainTown {
				continue
			}
			nh.Crowding = clamp01(nh.Crowding + 0.3)
		}
	}

	return towns
}

// townScore favours crowded lowland plains with plenty of land around.
func townScore(m *Map, coord HexCoord, hex *Hex) float64 {
	score := hex.Crowding + (1.0 - hex.Elevation)
	for _, nc := range coord.Neighbors() {
		if nh := m.Get(nc); nh != nil && nh.Habitable() {
			score += 0.1
		}
	}
	return score
}

func tooClose(coord HexCoord, placed []HexCoord, minDist int) bool {
	for _, p := range placed {
		if Distance(coord, p) < minDist {
			return true
		}
	}
	return false
}
