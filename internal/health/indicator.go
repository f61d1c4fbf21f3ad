package health

// LightColor is the colour shown on a player's status light.
type LightColor uint8

const (
	LightNone LightColor = iota
	LightGreen
	LightRed
)

// String returns the colour name.
func (c LightColor) String() string {
	switch c {
	case LightGreen:
		return "green"
	case LightRed:
		return "red"
	default:
		return "none"
	}
}

// MarshalText encodes the colour by name.
func (c LightColor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Blink rates for the status light. Zero means a steady light.
const (
	BlinkNone     uint32 = 0
	BlinkVariable uint32 = 1   // Per health point while symptomatic
	BlinkMax      uint32 = 100 // Late-stage cap
)

// Indicator is what a player's status light displays.
type Indicator struct {
	Color     LightColor `json:"color"`
	BlinkRate uint32     `json:"blink_rate"`
}

// IndicatorFor returns the status light for a raw health value.
// Only symptomatic infection is visible; asymptomatic carriers look healthy.
func IndicatorFor(health uint32) Indicator {
	switch Classify(health) {
	case Immune:
		return Indicator{Color: LightGreen, BlinkRate: BlinkNone}
	case Zombie:
		return Indicator{Color: LightRed, BlinkRate: BlinkNone}
	case InfectedSymLate:
		return Indicator{Color: LightRed, BlinkRate: BlinkMax}
	case InfectedSym:
		return Indicator{Color: LightRed, BlinkRate: health * BlinkVariable}
	default:
		return Indicator{Color: LightNone, BlinkRate: BlinkNone}
	}
}
