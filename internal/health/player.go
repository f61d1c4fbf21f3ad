package health

// Infection pressure added per unit of contact.
const (
	HumanInfectionRate uint32 = 3
	CatInfectionRate   uint32 = 8
)

// AsymTreatmentRelief is the flat reduction applied when an asymptomatic
// player is treated.
const AsymTreatmentRelief uint32 = 35

// Player is the mutable health record of one actor.
type Player struct {
	Tick          uint32 `json:"tick"`   // Owned by the driver; the update rules never touch it
	Health        uint32 `json:"health"` // Sole input to Classify
	CatResistance bool   `json:"cat_resistance"`
}

// NewPlayer returns a fresh player sitting on the SuperHealthy floor.
func NewPlayer() Player {
	return Player{
		Tick:          0,
		Health:        SuperHealthy.LowerLimit(),
		CatResistance: false,
	}
}

// State returns the player's current band.
func (p *Player) State() HealthState {
	return Classify(p.Health)
}

// ExposureEvent is the infectious contact a player saw during one tick.
// The zero value means no exposure.
type ExposureEvent struct {
	Human uint32 `json:"human" yaml:"human"`
	Cat   uint32 `json:"cat" yaml:"cat"`
}

// ExposureUpdate advances the player by one tick of natural progression and
// applies the given exposure. All sub-rules read the pre-update band.
func (p *Player) ExposureUpdate(exposure ExposureEvent) {
	state := Classify(p.Health)

	switch state {
	case Zombie, Immune:
		// Frozen.
	default:
		// timeDecrease is only non-zero when health-1 > 10, so this cannot wrap.
		p.Health = p.Health + p.timeIncrease() + p.exposureIncrease(exposure) - p.timeDecrease()
	}

	// Resistance is a one-way latch.
	if !p.CatResistance && state.IsInfected() {
		p.CatResistance = true
	}

	if state == Zombie {
		p.Health = Zombie.LowerLimit()
	}
}

// TreatmentUpdate applies one round of medical treatment.
func (p *Player) TreatmentUpdate() {
	switch Classify(p.Health) {
	case InfectedSymLate:
		p.Health = Immune.LowerLimit()
	case InfectedSym:
		p.Health = Healthy.LowerLimit()
	case InfectedAsym:
		// Lands in Healthy or SuperHealthy depending on the starting value.
		p.Health -= AsymTreatmentRelief
	case Healthy:
		p.Health = SuperHealthy.LowerLimit()
	}
}

// timeIncrease is natural disease progression for the current band.
func (p *Player) timeIncrease() uint32 {
	state := Classify(p.Health)
	switch {
	case state == SuperHealthy:
		// Wraps to zero on the tick that would reach the Healthy floor.
		rate := state.ProgressRate()
		sum := p.Health + rate
		boundary := Healthy.LowerLimit()
		remainder := sum % boundary
		quotient := sum / boundary
		return rate - remainder*quotient
	case state.IsInfected():
		return state.ProgressRate()
	}
	return 0
}

// timeDecrease is natural recovery, which only Healthy players get.
func (p *Player) timeDecrease() uint32 {
	state := Classify(p.Health)
	if state != Healthy {
		return 0
	}
	sum := p.Health - state.ProgressRate()
	if sum > Healthy.LowerLimit() {
		return state.ProgressRate()
	}
	return 0
}

// exposureIncrease is the infection pressure from this tick's contacts.
func (p *Player) exposureIncrease(exposure ExposureEvent) uint32 {
	state := Classify(p.Health)
	if state == Immune || state.IsInfected() {
		return 0
	}

	increase := exposure.Human * HumanInfectionRate
	if !p.CatResistance {
		increase += exposure.Cat * CatInfectionRate
	}
	return increase
}
