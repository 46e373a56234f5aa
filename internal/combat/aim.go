package combat

import "github.com/OCAP2/gunplay/pkg/core"

// aim is step five. Progress climbs at 1/aimingTime per second while aim is
// held and the actor is free, and falls at the same rate otherwise.
func (e *Engine) aim(dt float64, in Intents) {
	def := e.current().Def
	rate := 1.0
	if def.AimingTime > 0 {
		rate = dt / def.AimingTime
	}

	if in.AimHeld && !e.reloading && !e.switching && !e.running {
		e.aimProgress = min(1, e.aimProgress+rate)
		if e.aimProgress > 1-core.TimerEpsilon {
			e.aimProgress = 1
		}
		e.aiming = true
	} else {
		e.aimProgress = core.Decay(e.aimProgress, rate)
		e.aiming = false
	}
	e.anim(def.Presentation.Animations.Aim, e.aiming)
}
