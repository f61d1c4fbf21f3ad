package engine

import "github.com/talgya/ss-sim/internal/health"

// GameHooks are optional callbacks run after an input has been applied.
// OnTreatment receives the health value from before the treatment.
type GameHooks struct {
	OnExposure  func(e health.ExposureEvent)
	OnTreatment func(before uint32)
}

// GameUpdate runs one tick for a player: it advances the tick counter and
// then applies inputs from next until next returns an invalid Input.
// Only the first treatment of a tick takes effect; later ones are dropped.
func GameUpdate(p *health.Player, next func() Input, hooks GameHooks) {
	p.Tick++

	treated := false
	for {
		in := next()
		if !in.Valid() {
			return
		}

		switch in.Kind {
		case InputExposure:
			p.ExposureUpdate(in.Exposure)
			if hooks.OnExposure != nil {
				hooks.OnExposure(in.Exposure)
			}
		case InputTreatment:
			if treated {
				continue
			}
			before := p.Health
			p.TreatmentUpdate()
			treated = true
			if hooks.OnTreatment != nil {
				hooks.OnTreatment(before)
			}
		}
	}
}

// GameReset returns a player to the starting state.
func GameReset(p *health.Player) {
	*p = health.NewPlayer()
}
