package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gunplay/pkg/core"
)

type fakeWorld struct {
	hit       Hit
	hasHit    bool
	overlap   []Collider
	rayDir    core.Vec3
	rayRange  float64
	forces    []string
	forceSeen float64
}

func (w *fakeWorld) RayCast(origin, dir core.Vec3, maxRange float64, mask uint32) (Hit, bool) {
	w.rayDir = dir
	w.rayRange = maxRange
	return w.hit, w.hasHit
}

func (w *fakeWorld) OverlapSphere(center core.Vec3, radius float64) []Collider {
	return w.overlap
}

type forceWorld struct{ *fakeWorld }

func (w forceWorld) ApplyExplosionForce(id string, force float64, center core.Vec3, radius float64) {
	w.forces = append(w.forces, id)
	w.forceSeen = force
}

type damageCall struct {
	target, source core.EntityID
	amount         float64
	area           bool
}

type fakeSink struct{ calls []damageCall }

func (s *fakeSink) InflictDamage(target, source core.EntityID, amount float64, area bool) {
	s.calls = append(s.calls, damageCall{target, source, amount, area})
}

type fakeSpawner struct{ bodies []BodyLaunch }

func (s *fakeSpawner) SpawnBody(b BodyLaunch) { s.bodies = append(s.bodies, b) }

type fakeVisuals struct{ spawned []string }

func (v *fakeVisuals) SpawnVisual(prefab string, at core.Transform, lifetime float64) {
	v.spawned = append(v.spawned, prefab)
}

func rayWeapon() *core.WeaponDefinition {
	return &core.WeaponDefinition{
		Name: "Rifle",
		Ray:  core.RayMode{Range: 100, Damage: 25, Impact: "Impact"},
	}
}

func TestResolveRay_DamageableHit(t *testing.T) {
	world := &fakeWorld{hasHit: true, hit: Hit{
		Collider: Collider{ID: "c1", Owner: "bot", Damageable: true},
		Point:    core.Vec3{Z: 10},
		Distance: 10,
	}}
	sink := &fakeSink{}
	vis := &fakeVisuals{}
	r := NewResolver(Dependencies{World: world, Damage: sink, Visuals: vis})

	out := r.ResolveRay(Shot{Shooter: "player", Weapon: rayWeapon(), Direction: core.Vec3{Z: 2}})

	require.Len(t, out.Hits, 1)
	assert.True(t, out.Hits[0].Valid)
	assert.Equal(t, 25.0, out.Hits[0].Damage)
	assert.Equal(t, core.EntityID("bot"), out.Hits[0].TargetID)
	assert.Equal(t, []damageCall{{"bot", "player", 25, false}}, sink.calls)
	assert.Equal(t, []string{"Impact"}, vis.spawned)
	assert.InDelta(t, 1.0, world.rayDir.Len(), 1e-12, "ray direction is normalized")
	assert.Equal(t, 100.0, world.rayRange)
}

func TestResolveRay_TriggerWithoutDamageableIsInvalid(t *testing.T) {
	world := &fakeWorld{hasHit: true, hit: Hit{Collider: Collider{ID: "zone", Trigger: true}}}
	sink := &fakeSink{}
	vis := &fakeVisuals{}
	r := NewResolver(Dependencies{World: world, Damage: sink, Visuals: vis})

	out := r.ResolveRay(Shot{Shooter: "p", Weapon: rayWeapon(), Direction: core.Forward})

	require.Len(t, out.Hits, 1)
	assert.False(t, out.Hits[0].Valid)
	assert.Empty(t, sink.calls)
	assert.Equal(t, []string{"Impact"}, vis.spawned, "impact visual is spawned for any hit")
}

func TestResolveRay_StaticGeometry(t *testing.T) {
	world := &fakeWorld{hasHit: true, hit: Hit{Collider: Collider{ID: "wall"}}}
	sink := &fakeSink{}
	r := NewResolver(Dependencies{World: world, Damage: sink})

	out := r.ResolveRay(Shot{Shooter: "p", Weapon: rayWeapon(), Direction: core.Forward})

	require.Len(t, out.Hits, 1)
	assert.True(t, out.Hits[0].Valid)
	assert.Zero(t, out.Hits[0].Damage)
	assert.Empty(t, sink.calls)
}

func TestResolveRay_Miss(t *testing.T) {
	r := NewResolver(Dependencies{World: &fakeWorld{}, Damage: &fakeSink{}})
	out := r.ResolveRay(Shot{Weapon: rayWeapon(), Direction: core.Forward})
	assert.Empty(t, out.Hits)
}

func TestLaunchProjectile(t *testing.T) {
	spawner := &fakeSpawner{}
	r := NewResolver(Dependencies{World: &fakeWorld{}, Damage: &fakeSink{}, Spawner: spawner})
	def := &core.WeaponDefinition{
		Name:       "Launcher",
		Projectile: core.ProjectileMode{Prefab: "Rocket", LaunchForce: 50, Body: core.DefaultGrenadeBody},
	}

	out := r.LaunchProjectile(Shot{
		Shooter:   "p",
		Weapon:    def,
		Muzzle:    core.Transform{Position: core.Vec3{Y: 1.5}},
		Direction: core.Vec3{X: 0.1, Z: 1},
	})

	require.Len(t, spawner.bodies, 1)
	b := spawner.bodies[0]
	assert.Equal(t, core.Vec3{Y: 1.5}, b.Position)
	assert.Equal(t, core.Vec3{X: 5, Z: 50}, b.Velocity)
	assert.Equal(t, "Rocket", b.Prefab)
	require.NotNil(t, out.Projectile)
	assert.Equal(t, "Launcher", out.Projectile.Weapon)
}

func TestExplode_DamagesEachOwnerOnce(t *testing.T) {
	world := &fakeWorld{overlap: []Collider{
		{ID: "a-leg", Owner: "a", Damageable: true, Position: core.Vec3{X: 4}},
		{ID: "a-head", Owner: "a", Damageable: true, Position: core.Vec3{X: 2}},
		{ID: "b", Owner: "b", Damageable: true, Position: core.Vec3{X: 5}},
		{ID: "crate", Rigid: true, Position: core.Vec3{X: 1}},
		{ID: "ghost", Owner: "c", Position: core.Vec3{X: 1}},
	}}
	sink := &fakeSink{}
	r := NewResolver(Dependencies{World: forceWorld{world}, Damage: sink})

	out := r.Explode("thrower", "", core.Vec3{}, core.Explosion{
		Damage: 60, Radius: 5, Force: 200, Falloff: core.LinearFalloff,
	})

	require.Len(t, sink.calls, 2)
	assert.Equal(t, core.EntityID("a"), sink.calls[0].target)
	assert.InDelta(t, 60*(1-2.0/5), sink.calls[0].amount, 1e-9, "nearest collider of the owner counts")
	assert.True(t, sink.calls[0].area)
	assert.Equal(t, core.EntityID("b"), sink.calls[1].target)
	assert.InDelta(t, 0, sink.calls[1].amount, 1e-9)

	require.NotNil(t, out.Explosion)
	assert.Len(t, out.Explosion.Damages, 2)
	assert.Len(t, out.Hits, 2)
	assert.Equal(t, []string{"crate"}, world.forces)
	assert.Equal(t, 200.0, world.forceSeen)
}

func TestExplode_ZeroRadius(t *testing.T) {
	sink := &fakeSink{}
	r := NewResolver(Dependencies{World: &fakeWorld{overlap: []Collider{{Owner: "a", Damageable: true}}}, Damage: sink})
	out := r.Explode("x", "", core.Vec3{}, core.Explosion{Damage: 10})
	assert.Empty(t, sink.calls)
	assert.NotNil(t, out.Explosion)
}
