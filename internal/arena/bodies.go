package arena

import (
	"fmt"

	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/internal/grenade"
	"github.com/OCAP2/gunplay/pkg/core"
)

// SpawnBody puts a grenade or rocket into the world. It flies from the
// next Step on.
func (a *Arena) SpawnBody(l effects.BodyLaunch) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextBody++
	a.bodies = append(a.bodies, grenade.NewBody(fmt.Sprintf("body-%d", a.nextBody), l))
}

// SpawnVisual keeps a visual alive for its lifetime.
func (a *Arena) SpawnVisual(prefab string, _ core.Transform, lifetime float64) {
	if lifetime <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.visuals = append(a.visuals, visual{prefab: prefab, remaining: lifetime})
}

// ApplyExplosionForce pushes a rigid entity away from the center, harder
// the closer it is.
func (a *Arena) ApplyExplosionForce(colliderID string, force float64, center core.Vec3, radius float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entities[core.EntityID(colliderID)]
	if !ok || !e.Rigid || radius <= 0 {
		return
	}
	mid := e.Position.Add(core.Vec3{Y: e.Height / 2})
	dir := mid.Sub(center)
	d := dir.Len()
	if d >= radius {
		return
	}
	dir = dir.Normalize()
	if dir.IsZero() {
		dir = core.Vec3{Y: 1}
	}
	e.velocity = e.velocity.Add(dir.Scale(force * (1 - d/radius)))
}

// Step moves bodies and rigid entities, ages visuals, and detonates every
// body whose fuse ran out or that hit something while set to detonate on
// collision. It must not run concurrently with actor ticks.
func (a *Arena) Step(dt float64) {
	a.mu.Lock()
	a.ageVisualsLocked(dt)
	a.moveRigidLocked(dt)
	var due []*grenade.Body
	live := a.bodies[:0]
	for _, b := range a.bodies {
		if a.flyLocked(b, dt) || b.Tick(dt) {
			due = append(due, b)
			continue
		}
		live = append(live, b)
	}
	a.bodies = live
	a.mu.Unlock()

	// detonations take the lock again through the resolver
	for _, b := range due {
		a.detonate(b)
	}
}

func (a *Arena) ageVisualsLocked(dt float64) {
	live := a.visuals[:0]
	for _, v := range a.visuals {
		v.remaining = core.Decay(v.remaining, dt)
		if v.remaining > 0 {
			live = append(live, v)
		}
	}
	a.visuals = live
}

func (a *Arena) moveRigidLocked(dt float64) {
	for _, id := range a.order {
		e := a.entities[id]
		if !e.Rigid || e.velocity.IsZero() {
			continue
		}
		e.velocity.Y -= a.cfg.Gravity * dt
		e.Position = e.Position.Add(e.velocity.Scale(dt))
		if e.Position.Y <= 0 {
			e.Position.Y = 0
			e.velocity = core.Vec3{}
		}
	}
}

// flyLocked moves a body one step and reports whether a contact should
// detonate it. Other contacts bounce it.
func (a *Arena) flyLocked(b *grenade.Body, dt float64) bool {
	if b.Spec.UseGravity {
		b.Velocity.Y -= a.cfg.Gravity * dt
	}
	step := b.Velocity.Scale(dt)
	dist := step.Len()
	if dist == 0 {
		return false
	}
	dir := step.Scale(1 / dist)

	hit, ok := a.rayCastLocked(b.Position, dir, dist, 0, b.Owner)
	ground := b.Position.Y+step.Y <= 0
	if !ok && !ground {
		b.Position = b.Position.Add(step)
		return false
	}

	var normal core.Vec3
	switch {
	case ok:
		b.Position = hit.Point
		normal = dir.Scale(-1)
	default:
		t := 0.0
		if step.Y != 0 {
			t = b.Position.Y / -step.Y
		}
		b.Position = b.Position.Add(step.Scale(t))
		b.Position.Y = 0
		normal = core.Vec3{Y: 1}
	}
	if b.Collide(nil) {
		return true
	}
	// reflect about the contact normal and lose energy
	v := b.Velocity
	b.Velocity = v.Sub(normal.Scale(2 * v.Dot(normal))).Scale(Restitution)
	return false
}

func (a *Arena) detonate(b *grenade.Body) {
	out, ok := b.Detonate(a.resolver)
	if !ok || out.Explosion == nil {
		return
	}
	tick := a.currentTick()
	at := a.at(tick)
	ev := *out.Explosion
	ev.Tick, ev.Time = tick, at
	for i := range out.Hits {
		out.Hits[i].Tick, out.Hits[i].Time = tick, at
	}
	a.log.Debug("body detonated", "body", b.ID, "owner", b.Owner, "damaged", len(ev.Damages))
	if a.cfg.Observer != nil {
		a.cfg.Observer.OnExplosion(ev, out.Hits)
	}
}
