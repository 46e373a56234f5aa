package combat

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/pkg/core"
)

// burstOverride reports an unfinished burst, which keeps firing without a
// trigger intent.
func (e *Engine) burstOverride() bool {
	return e.burst < e.current().Def.RoundsPerBurst
}

func (e *Engine) triggered(def *core.WeaponDefinition, in Intents) bool {
	switch def.FiringType {
	case core.FiringSemi:
		if in.FireEdge {
			return true
		}
	case core.FiringAuto:
		if in.FireHeld {
			return true
		}
	}
	return e.burstOverride()
}

// triggerIntent is the intent that fires def, without burst continuation.
func triggerIntent(def *core.WeaponDefinition, in Intents) bool {
	if def.FiringType == core.FiringAuto {
		return in.FireHeld
	}
	return in.FireEdge
}

func (e *Engine) canFire() bool {
	s := e.current()
	return s.Enabled() &&
		!e.reloading && !e.switching && !e.running &&
		e.runningRecovery <= 0 && e.interruption <= 0 &&
		s.CooledDown() && s.Loaded()
}

// spreadFor picks the spread magnitude: aiming beats moving beats base.
func (e *Engine) spreadFor(def *core.WeaponDefinition, in Intents) float64 {
	switch {
	case e.aimProgress >= 1:
		return def.AimingSpread
	case e.walking && in.FireHeld:
		return def.MovementSpread
	default:
		return def.Spread
	}
}

func (e *Engine) sampleSpread(s float64) core.Vec3 {
	if s == 0 || e.deps.Rand == nil {
		return core.Vec3{}
	}
	axis := func() float64 { return (e.deps.Rand.Float64()*2 - 1) * s }
	return core.Vec3{X: axis(), Y: axis(), Z: axis()}
}

// fire is step two: one round of OutputPerRound sub-shots, then flash,
// audio, cartridge, burst, cooldown and ammo bookkeeping.
func (e *Engine) fire(in Intents) {
	if !e.canFire() {
		return
	}
	s := e.current()
	def := s.Def
	if !e.triggered(def, in) {
		return
	}

	e.rounds++
	aim := e.deps.Rig.Aim()
	muzzle := aim
	if t, ok := e.deps.Rig.Anchor(def.Presentation.Anchors.Projectile); ok {
		muzzle = t
	}
	spread := e.spreadFor(def, in)

	for i := 0; i < def.Outputs(); i++ {
		offset := e.sampleSpread(spread)
		shot := effects.Shot{
			Shooter:   e.id,
			Weapon:    def,
			Round:     e.rounds,
			Origin:    aim.Position,
			Muzzle:    muzzle,
			Direction: aim.Forward.Add(offset),
			Spread:    offset,
		}
		var out effects.Outcome
		if def.OutputType == core.OutputProjectile {
			out = e.deps.Effects.LaunchProjectile(shot)
		} else {
			out = e.deps.Effects.ResolveRay(shot)
		}
		e.deps.Observer.OnShot(core.ShotEvent{
			ActorID:   e.id,
			Tick:      e.ticks,
			Weapon:    def.Name,
			Output:    def.OutputType,
			Round:     e.rounds,
			Origin:    shot.Origin,
			Direction: shot.Direction,
			Spread:    offset,
		}, out)
	}
	e.m.add(e.m.shots, int64(def.Outputs()), attribute.String("weapon", def.Name))

	p := def.Presentation
	if p.BarrelFlash != "" {
		if t, ok := e.deps.Rig.Anchor(p.Anchors.BarrelFlash); ok {
			e.deps.Presenter.SpawnVisual(p.BarrelFlash, t, effects.FlashLifetime)
		}
	}
	e.audio(p.Sounds.Barrel)
	e.anim(p.Animations.Fire, true)
	if p.Cartridge.Prefab != "" {
		if t, ok := e.deps.Rig.Anchor(p.Anchors.Cartridge); ok {
			e.deps.Presenter.SpawnVisual(p.Cartridge.Prefab, t, effects.CartridgeLifetime)
		}
	}

	e.burst--
	if e.burst <= 0 {
		e.burst = def.RoundsPerBurst
	}
	s.ArmCooldown()
	s.Consume()
}
