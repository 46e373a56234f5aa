// Package grenade implements grenade throwing and the timed bodies that
// grenades and rockets become once in flight.
package grenade

import (
	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Aimer reports where a throw leaves from and which way it goes.
type Aimer interface {
	Aim() core.Transform
}

// AudioPlayer plays a one-shot clip on the thrower's actor.
type AudioPlayer interface {
	PlayAudio(clip string)
}

// Dependencies for a Thrower. Audio and OnThrow may be nil.
type Dependencies struct {
	Owner    core.EntityID
	Def      core.GrenadeDefinition
	Infinite bool
	Policy   Policy
	Aim      Aimer
	Spawner  effects.ProjectileSpawner
	Audio    AudioPlayer
	OnThrow  func(core.GrenadeThrowEvent)
}

// Thrower is the per-actor grenade state: whether grenades are unlocked,
// how many remain and the time until the next throw.
type Thrower struct {
	deps Dependencies

	canThrow bool
	total    int
	cooldown float64
	thrown   int
}

// NewThrower creates a thrower. CanThrow and the initial total come from
// the definition; in infinite mode the total is ignored.
func NewThrower(deps Dependencies) *Thrower {
	if deps.Policy == nil {
		deps.Policy = Fixed{Delay: deps.Def.Cooldown}
	}
	t := &Thrower{
		deps:     deps,
		canThrow: deps.Def.CanThrow,
		cooldown: deps.Policy.Initial(),
	}
	if t.canThrow && !deps.Infinite {
		t.total = deps.Def.StartAmount
	}
	return t
}

func (t *Thrower) CanThrow() bool    { return t.canThrow }
func (t *Thrower) Infinite() bool    { return t.deps.Infinite }
func (t *Thrower) Cooldown() float64 { return t.cooldown }
func (t *Thrower) Thrown() int       { return t.thrown }

// Total returns the grenades left, or -1 in infinite mode.
func (t *Thrower) Total() int {
	if t.deps.Infinite {
		return -1
	}
	return t.total
}

// Tick advances the cooldown and throws when it has run out and the policy
// allows it. It reports whether a grenade left the actor.
func (t *Thrower) Tick(dt float64, intent bool) bool {
	if !t.canThrow {
		return false
	}
	if t.cooldown > 0 {
		t.cooldown = core.Decay(t.cooldown, dt)
		if t.cooldown > 0 {
			return false
		}
	}
	if t.deps.Policy.RequiresIntent() && !intent {
		return false
	}
	if !t.deps.Infinite {
		if t.total <= 0 {
			return false
		}
		t.total--
	}
	t.throw()
	t.cooldown = t.deps.Policy.Next()
	return true
}

func (t *Thrower) throw() {
	def := t.deps.Def
	aim := core.Transform{Forward: core.Forward}
	if t.deps.Aim != nil {
		aim = t.deps.Aim.Aim()
	}
	velocity := aim.Forward.Normalize().Scale(def.ThrowForce)

	if t.deps.Audio != nil && def.ThrowAudio != "" {
		t.deps.Audio.PlayAudio(def.ThrowAudio)
	}
	if t.deps.Spawner != nil {
		t.deps.Spawner.SpawnBody(effects.BodyLaunch{
			Owner:    t.deps.Owner,
			Prefab:   def.Prefab,
			Position: aim.Position,
			Velocity: velocity,
			Spec:     def.Body,
		})
	}
	t.thrown++
	if t.deps.OnThrow != nil {
		t.deps.OnThrow(core.GrenadeThrowEvent{
			ActorID:   t.deps.Owner,
			Origin:    aim.Position,
			Velocity:  velocity,
			Remaining: t.Total(),
		})
	}
}

// Enable unlocks throwing. In finite mode it also adds the start amount.
func (t *Thrower) Enable() {
	t.canThrow = true
	if !t.deps.Infinite {
		t.total += t.deps.Def.StartAmount
	}
}

// Collectable reports whether a grenade pickup would do anything: always
// in finite mode, and in infinite mode only while throwing is still locked.
func (t *Thrower) Collectable() bool {
	return !t.deps.Infinite || !t.canThrow
}
