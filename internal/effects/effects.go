// Package effects turns fired rounds and detonations into world queries,
// damage and visuals.
package effects

import (
	"github.com/OCAP2/gunplay/pkg/core"
)

// Visual lifetimes in seconds.
const (
	ImpactLifetime    = 0.5
	FlashLifetime     = 0.5
	CartridgeLifetime = 2.0
)

// Collider is one shape returned by a spatial query.
type Collider struct {
	ID         string
	Owner      core.EntityID // empty for static geometry
	Position   core.Vec3
	Layer      uint32
	Trigger    bool
	Damageable bool
	Rigid      bool // has a body that accepts forces
}

// Hit is the nearest collider along a ray.
type Hit struct {
	Collider Collider
	Point    core.Vec3
	Distance float64
}

// SpatialQuery is the physics black box.
type SpatialQuery interface {
	// RayCast returns the nearest hit within maxRange along a unit dir.
	// A zero mask matches every layer.
	RayCast(origin, dir core.Vec3, maxRange float64, mask uint32) (Hit, bool)
	OverlapSphere(center core.Vec3, radius float64) []Collider
}

// ForceReceiver is implemented by worlds whose bodies react to explosions.
type ForceReceiver interface {
	ApplyExplosionForce(colliderID string, force float64, center core.Vec3, radius float64)
}

// DamageSink applies damage to the health owning a collider.
type DamageSink interface {
	InflictDamage(target, source core.EntityID, amount float64, area bool)
}

// ProjectileSpawner creates a simulated body: a rocket or a grenade.
type ProjectileSpawner interface {
	SpawnBody(b BodyLaunch)
}

// Visuals spawns short-lived presentation objects.
type Visuals interface {
	SpawnVisual(prefab string, at core.Transform, lifetime float64)
}

// BodyLaunch describes a body to put into the world.
type BodyLaunch struct {
	Owner    core.EntityID
	Weapon   string // empty for thrown grenades
	Prefab   string
	Position core.Vec3
	Velocity core.Vec3
	Spec     core.BodySpec
}

// Shot is one sub-shot handed over by the combat engine.
type Shot struct {
	Shooter   core.EntityID
	Weapon    *core.WeaponDefinition
	Round     uint
	Origin    core.Vec3      // aim origin, where rays start
	Muzzle    core.Transform // projectile anchor
	Direction core.Vec3      // aim forward plus spread, not normalized
	Spread    core.Vec3
}

// Outcome reports what a shot or detonation did. Time and Tick of the
// contained events are left for the caller to stamp.
type Outcome struct {
	Hits       []core.HitEvent
	Projectile *core.ProjectileEvent
	Explosion  *core.ExplosionEvent
}
