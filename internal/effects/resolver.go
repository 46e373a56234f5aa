package effects

import (
	"log/slog"

	"github.com/OCAP2/gunplay/pkg/core"
)

// Dependencies for a Resolver. Visuals and Spawner may be nil.
type Dependencies struct {
	World   SpatialQuery
	Damage  DamageSink
	Spawner ProjectileSpawner
	Visuals Visuals
	Logger  *slog.Logger
}

// Resolver applies shots and explosions to the world.
type Resolver struct {
	deps Dependencies
}

// NewResolver creates a resolver.
func NewResolver(deps Dependencies) *Resolver {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Resolver{deps: deps}
}

func (r *Resolver) visual(prefab string, at core.Transform, lifetime float64) {
	if prefab == "" || r.deps.Visuals == nil {
		return
	}
	r.deps.Visuals.SpawnVisual(prefab, at, lifetime)
}

// ResolveRay casts a hitscan round. A trigger collider without a damageable
// yields an invalid hit and no damage; static geometry yields a valid hit
// with no damage.
func (r *Resolver) ResolveRay(shot Shot) Outcome {
	def := shot.Weapon
	dir := shot.Direction.Normalize()
	if dir.IsZero() {
		return Outcome{}
	}

	hit, ok := r.deps.World.RayCast(shot.Origin, dir, def.Ray.Range, def.Ray.Mask)
	if !ok {
		return Outcome{}
	}

	r.visual(def.Ray.Impact, core.Transform{Position: hit.Point, Forward: dir.Scale(-1)}, ImpactLifetime)

	ev := core.HitEvent{
		ShooterID: shot.Shooter,
		TargetID:  hit.Collider.Owner,
		Weapon:    def.Name,
		Point:     hit.Point,
		Distance:  hit.Distance,
		Valid:     true,
	}
	switch {
	case hit.Collider.Trigger && !hit.Collider.Damageable:
		ev.Valid = false
	case hit.Collider.Damageable && hit.Collider.Owner != "":
		ev.Damage = def.Ray.Damage
		r.deps.Damage.InflictDamage(hit.Collider.Owner, shot.Shooter, def.Ray.Damage, false)
	}
	return Outcome{Hits: []core.HitEvent{ev}}
}

// LaunchProjectile spawns a body at the muzzle moving along the shot
// direction scaled by the launch force.
func (r *Resolver) LaunchProjectile(shot Shot) Outcome {
	def := shot.Weapon
	launch := BodyLaunch{
		Owner:    shot.Shooter,
		Weapon:   def.Name,
		Prefab:   def.Projectile.Prefab,
		Position: shot.Muzzle.Position,
		Velocity: shot.Direction.Scale(def.Projectile.LaunchForce),
		Spec:     def.Projectile.Body,
	}
	if r.deps.Spawner == nil {
		r.deps.Logger.Warn("no projectile spawner, dropping body", "weapon", def.Name)
	} else {
		r.deps.Spawner.SpawnBody(launch)
	}
	return Outcome{Projectile: &core.ProjectileEvent{
		ActorID:  shot.Shooter,
		Weapon:   def.Name,
		Prefab:   launch.Prefab,
		Origin:   launch.Position,
		Velocity: launch.Velocity,
	}}
}

// Explode damages every entity with a damageable collider inside the
// radius exactly once, scaled by the falloff curve at the distance of its
// nearest collider. Rigid colliders get the explosion force when the world
// supports it.
func (r *Resolver) Explode(source core.EntityID, weapon string, center core.Vec3, spec core.Explosion) Outcome {
	ev := &core.ExplosionEvent{
		SourceID: source,
		Weapon:   weapon,
		Center:   center,
		Radius:   spec.Radius,
	}
	r.visual(spec.Effect, core.Transform{Position: center, Forward: core.Forward}, spec.Lifetime)
	if spec.Radius <= 0 {
		return Outcome{Explosion: ev}
	}

	colliders := r.deps.World.OverlapSphere(center, spec.Radius)

	nearest := make(map[core.EntityID]float64)
	var order []core.EntityID
	for _, c := range colliders {
		if !c.Damageable || c.Owner == "" {
			continue
		}
		d := center.Dist(c.Position)
		prev, seen := nearest[c.Owner]
		if !seen {
			order = append(order, c.Owner)
		}
		if !seen || d < prev {
			nearest[c.Owner] = d
		}
	}

	var hits []core.HitEvent
	for _, owner := range order {
		d := nearest[owner]
		amount := spec.Damage * spec.Falloff.Evaluate(d/spec.Radius)
		r.deps.Damage.InflictDamage(owner, source, amount, true)
		ev.Damages = append(ev.Damages, core.Damage{TargetID: owner, Amount: amount, Distance: d})
		hits = append(hits, core.HitEvent{
			ShooterID: source,
			TargetID:  owner,
			Weapon:    weapon,
			Point:     center,
			Distance:  d,
			Damage:    amount,
			Area:      true,
			Valid:     true,
		})
	}

	if fr, ok := r.deps.World.(ForceReceiver); ok && spec.Force != 0 {
		for _, c := range colliders {
			if c.Rigid {
				fr.ApplyExplosionForce(c.ID, spec.Force, center, spec.Radius)
			}
		}
	}

	return Outcome{Hits: hits, Explosion: ev}
}
