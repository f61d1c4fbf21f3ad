// Package world provides the hex grid the players live on and the two contact
// fields, crowding and cat density, that exposure sources sample.
// Uses axial coordinates (q, r) for the hex grid.
package world

import "math"

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Cartesian returns the hex centre in continuous space, used for noise sampling.
func (h HexCoord) Cartesian() (x, y float64) {
	x = float64(h.Q) + float64(h.R)*0.5
	y = float64(h.R) * math.Sqrt(3.0) / 2.0
	return x, y
}

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainPlains Terrain = iota // Open farmland, sparse contact
	TerrainForest                // Few people, many strays
	TerrainMarsh                 // Wet lowland, cats avoid it
	TerrainTown                  // Dense housing, high crowding
	TerrainOcean                 // Uninhabitable
)

// Hex represents a single tile on the world map.
type Hex struct {
	Coord   HexCoord `json:"coord"`
	Terrain Terrain  `json:"terrain"`

	Elevation float64 `json:"elevation"` // 0.0 (sea level) to 1.0 (peak)

	// Contact fields, 0.0 (none) to 1.0 (saturated).
	Crowding   float64 `json:"crowding"`
	CatDensity float64 `json:"cat_density"`
}

// Habitable reports whether players may be placed on the hex.
func (h *Hex) Habitable() bool {
	return h.Terrain != TerrainOcean
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
