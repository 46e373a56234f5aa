package grenade

import (
	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Exploder resolves a detonation into area damage.
type Exploder interface {
	Explode(source core.EntityID, weapon string, center core.Vec3, spec core.Explosion) effects.Outcome
}

// Body is a grenade or rocket in flight. It detonates once: when the fuse
// runs out, or on first contact if DetonateOnCollision is set.
type Body struct {
	ID       string
	Owner    core.EntityID
	Weapon   string
	Prefab   string
	Spec     core.BodySpec
	Position core.Vec3
	Velocity core.Vec3

	fuse      float64
	detonated bool
}

// NewBody creates a body from a launch with its fuse armed.
func NewBody(id string, l effects.BodyLaunch) *Body {
	return &Body{
		ID:       id,
		Owner:    l.Owner,
		Weapon:   l.Weapon,
		Prefab:   l.Prefab,
		Spec:     l.Spec,
		Position: l.Position,
		Velocity: l.Velocity,
		fuse:     l.Spec.DetonationTime,
	}
}

func (b *Body) Detonated() bool { return b.detonated }
func (b *Body) Fuse() float64   { return b.fuse }

// Tick burns the fuse and reports whether it ran out. A body without a
// fuse only detonates on collision.
func (b *Body) Tick(dt float64) bool {
	if b.detonated || b.Spec.DetonationTime <= 0 {
		return false
	}
	b.fuse = core.Decay(b.fuse, dt)
	return b.fuse <= 0
}

// Collide reports whether contact should detonate the body. Otherwise the
// collide clip plays, if any.
func (b *Body) Collide(audio AudioPlayer) bool {
	if b.detonated {
		return false
	}
	if b.Spec.DetonateOnCollision {
		return true
	}
	if audio != nil && b.Spec.CollideAudio != "" {
		audio.PlayAudio(b.Spec.CollideAudio)
	}
	return false
}

// Detonate explodes the body at its position. Later calls do nothing.
func (b *Body) Detonate(x Exploder) (effects.Outcome, bool) {
	if b.detonated {
		return effects.Outcome{}, false
	}
	b.detonated = true
	return x.Explode(b.Owner, b.Weapon, b.Position, b.Spec.Explosion), true
}
