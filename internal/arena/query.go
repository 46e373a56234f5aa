package arena

import (
	"math"

	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/pkg/core"
)

func (e *entity) collider() effects.Collider {
	return effects.Collider{
		ID:         string(e.ID),
		Owner:      e.ID,
		Position:   e.Position,
		Layer:      e.Layer,
		Trigger:    e.Trigger,
		Damageable: e.Damageable,
		Rigid:      e.Rigid,
	}
}

func (e *entity) contains(p core.Vec3) bool {
	dx, dz := p.X-e.Position.X, p.Z-e.Position.Z
	return dx*dx+dz*dz <= e.Radius*e.Radius &&
		p.Y >= e.Position.Y && p.Y <= e.Position.Y+e.Height
}

// rayCylinder returns the distance along a unit ray to the entity's side,
// or to its top or bottom cap.
func (e *entity) rayCylinder(o, d core.Vec3, maxRange float64) (float64, bool) {
	best := math.Inf(1)
	bottom, top := e.Position.Y, e.Position.Y+e.Height

	ox, oz := o.X-e.Position.X, o.Z-e.Position.Z
	a := d.X*d.X + d.Z*d.Z
	if a > 1e-12 {
		b := 2 * (ox*d.X + oz*d.Z)
		c := ox*ox + oz*oz - e.Radius*e.Radius
		disc := b*b - 4*a*c
		if disc >= 0 {
			sq := math.Sqrt(disc)
			for _, t := range []float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
				if t < 0 || t > maxRange {
					continue
				}
				if y := o.Y + d.Y*t; y >= bottom && y <= top && t < best {
					best = t
				}
			}
		}
	}
	if math.Abs(d.Y) > 1e-12 {
		for _, capY := range []float64{bottom, top} {
			t := (capY - o.Y) / d.Y
			if t < 0 || t > maxRange || t >= best {
				continue
			}
			px, pz := ox+d.X*t, oz+d.Z*t
			if px*px+pz*pz <= e.Radius*e.Radius {
				best = t
			}
		}
	}
	return best, !math.IsInf(best, 1)
}

func layerMatch(layer, mask uint32) bool {
	return mask == 0 || layer&mask != 0
}

// RayCast returns the nearest wall or living entity along the ray.
// Colliders the ray starts inside are ignored.
func (a *Arena) RayCast(origin, dir core.Vec3, maxRange float64, mask uint32) (effects.Hit, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rayCastLocked(origin, dir, maxRange, mask, "")
}

func (a *Arena) rayCastLocked(origin, dir core.Vec3, maxRange float64, mask uint32, ignore core.EntityID) (effects.Hit, bool) {
	var best effects.Hit
	found := false
	limit := maxRange

	for _, id := range a.order {
		e := a.entities[id]
		if e.dead || id == ignore || !layerMatch(e.Layer, mask) || e.contains(origin) {
			continue
		}
		t, ok := e.rayCylinder(origin, dir, limit)
		if !ok {
			continue
		}
		limit = t
		best = effects.Hit{Collider: e.collider(), Point: origin.Add(dir.Scale(t)), Distance: t}
		found = true
	}

	for _, w := range a.walls {
		h, ok := w.RayCast(origin, dir, limit)
		if !ok {
			continue
		}
		limit = h.Distance
		best = effects.Hit{
			Collider: effects.Collider{ID: "wall:" + w.Name, Position: h.Point},
			Point:    h.Point,
			Distance: h.Distance,
		}
		found = true
	}
	return best, found
}

// OverlapSphere returns every living entity whose cylinder reaches into
// the sphere. A collider's Position is the point of its axis nearest to
// the center.
func (a *Arena) OverlapSphere(center core.Vec3, radius float64) []effects.Collider {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []effects.Collider
	for _, id := range a.order {
		e := a.entities[id]
		if e.dead {
			continue
		}
		axis := core.Vec3{
			X: e.Position.X,
			Y: min(max(center.Y, e.Position.Y), e.Position.Y+e.Height),
			Z: e.Position.Z,
		}
		if center.Dist(axis)-e.Radius > radius {
			continue
		}
		c := e.collider()
		c.Position = axis
		out = append(out, c)
	}
	return out
}
