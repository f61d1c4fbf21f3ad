package engine

import "github.com/talgya/ss-sim/internal/health"

// InputKind tags what an Input carries.
type InputKind uint8

const (
	InputNil InputKind = iota // End of queue
	InputExposure
	InputTreatment
)

// String returns the kind name used in logs and event categories.
func (k InputKind) String() string {
	switch k {
	case InputExposure:
		return "exposure"
	case InputTreatment:
		return "treatment"
	default:
		return "nil"
	}
}

// Input is one queued stimulus for a player. Exposure is only meaningful
// when Kind is InputExposure.
type Input struct {
	Kind     InputKind
	Exposure health.ExposureEvent
}

// ExposureInput wraps an exposure event.
func ExposureInput(e health.ExposureEvent) Input {
	return Input{Kind: InputExposure, Exposure: e}
}

// TreatmentInput returns a treatment request.
func TreatmentInput() Input {
	return Input{Kind: InputTreatment}
}

// Valid reports whether the input carries anything.
func (in Input) Valid() bool {
	return in.Kind != InputNil
}
