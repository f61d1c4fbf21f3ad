// Package health implements the per-tick health model of a single player:
// band classification, natural progression, exposure and treatment.
// Every operation is total and allocation-free; callers own the Player.
package health

// HealthState is a band of the health axis. It is never stored, only derived
// from a raw health value with Classify.
type HealthState uint8

const (
	Immune          HealthState = iota // 0–1
	SuperHealthy                       // 2–9
	Healthy                            // 10–39
	InfectedAsym                       // 40–69
	InfectedSym                        // 70–89
	InfectedSymLate                    // 90–99
	Zombie                             // 100+
)

// NumStates is the number of health bands.
const NumStates = 7

// lowerLimits holds the inclusive start of each band, indexed by HealthState.
var lowerLimits = [NumStates]uint32{0, 2, 10, 40, 70, 90, 100}

// Classify maps a raw health value to its band.
func Classify(health uint32) HealthState {
	switch {
	case health < lowerLimits[SuperHealthy]:
		return Immune
	case health < lowerLimits[Healthy]:
		return SuperHealthy
	case health < lowerLimits[InfectedAsym]:
		return Healthy
	case health < lowerLimits[InfectedSym]:
		return InfectedAsym
	case health < lowerLimits[InfectedSymLate]:
		return InfectedSym
	case health < lowerLimits[Zombie]:
		return InfectedSymLate
	default:
		return Zombie
	}
}

// LowerLimit returns the smallest health value in the band.
func (s HealthState) LowerLimit() uint32 {
	if s >= NumStates {
		return lowerLimits[Zombie]
	}
	return lowerLimits[s]
}

// ProgressRate is the per-tick drift applied by natural progression.
func (s HealthState) ProgressRate() uint32 {
	switch s {
	case Immune:
		return 0
	case SuperHealthy:
		return 2
	default:
		return 1
	}
}

// IsInfected reports whether the band carries the infection. Zombie counts.
func (s HealthState) IsInfected() bool {
	return s != Immune && s != SuperHealthy && s != Healthy
}

// String returns a human-readable band name.
func (s HealthState) String() string {
	switch s {
	case Immune:
		return "Immune"
	case SuperHealthy:
		return "SuperHealthy"
	case Healthy:
		return "Healthy"
	case InfectedAsym:
		return "InfectedAsym"
	case InfectedSym:
		return "InfectedSym"
	case InfectedSymLate:
		return "InfectedSymLate"
	case Zombie:
		return "Zombie"
	default:
		return "Unknown"
	}
}

// AllStates lists every band from lowest to highest.
func AllStates() [NumStates]HealthState {
	return [NumStates]HealthState{Immune, SuperHealthy, Healthy, InfectedAsym, InfectedSym, InfectedSymLate, Zombie}
}

// ParseState is the inverse of String. The second result is false for
// unknown names.
func ParseState(name string) (HealthState, bool) {
	for _, s := range AllStates() {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
