package arena

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/internal/geo"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Compile-time interface checks
var (
	_ effects.SpatialQuery      = (*Arena)(nil)
	_ effects.DamageSink        = (*Arena)(nil)
	_ effects.ProjectileSpawner = (*Arena)(nil)
	_ effects.ForceReceiver     = (*Arena)(nil)
	_ effects.Visuals           = (*Arena)(nil)
	_ Observer                  = (*Forwarder)(nil)
)

type recorder struct {
	mu         sync.Mutex
	explosions []core.ExplosionEvent
	kills      []core.KillEvent
}

func (r *recorder) OnExplosion(ev core.ExplosionEvent, _ []core.HitEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.explosions = append(r.explosions, ev)
}

func (r *recorder) OnKill(ev core.KillEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kills = append(r.kills, ev)
}

func newTestArena(t *testing.T) (*Arena, *recorder) {
	t.Helper()
	rec := &recorder{}
	a := New(Config{Observer: rec})
	require.NoError(t, a.Add(Entity{ID: "p1", Damageable: true}))
	require.NoError(t, a.Add(Entity{ID: "e1", Position: core.Vec3{Z: 10}, Layer: 2, Damageable: true}))
	return a, rec
}

func addWall(t *testing.T, a *Arena, z string) {
	t.Helper()
	w, err := geo.NewWall("wall", "LINESTRING(-5 "+z+",5 "+z+")", 0, 3)
	require.NoError(t, err)
	a.AddWall(w)
}

var eye = core.Vec3{Y: 1.6}

func TestAdd_Duplicate(t *testing.T) {
	a, _ := newTestArena(t)
	assert.ErrorIs(t, a.Add(Entity{ID: "p1"}), ErrDuplicateEntity)
	assert.Error(t, a.Add(Entity{}))
}

func TestRayCast_NearestEntity(t *testing.T) {
	a, _ := newTestArena(t)

	hit, ok := a.RayCast(eye, core.Forward, 50, 0)
	require.True(t, ok, "the shooter's own body is skipped")
	assert.Equal(t, core.EntityID("e1"), hit.Collider.Owner)
	assert.InDelta(t, 9.6, hit.Distance, 1e-9)

	_, ok = a.RayCast(eye, core.Forward, 9, 0)
	assert.False(t, ok, "out of range")

	_, ok = a.RayCast(eye, core.Forward, 50, 4)
	assert.False(t, ok, "layer not in mask")

	_, ok = a.RayCast(eye, core.Forward, 50, 2)
	assert.True(t, ok)
}

func TestRayCast_FromAbove(t *testing.T) {
	a, _ := newTestArena(t)
	hit, ok := a.RayCast(core.Vec3{Y: 5, Z: 10}, core.Vec3{Y: -1}, 10, 0)
	require.True(t, ok)
	assert.InDelta(t, 5-DefaultHeight, hit.Distance, 1e-9, "hits the top cap")
}

func TestRayCast_WallBlocks(t *testing.T) {
	a, _ := newTestArena(t)
	addWall(t, a, "5")

	hit, ok := a.RayCast(eye, core.Forward, 50, 0)
	require.True(t, ok)
	assert.Empty(t, hit.Collider.Owner)
	assert.InDelta(t, 5, hit.Distance, 1e-9)
}

func TestResolveRay_DamageAndKill(t *testing.T) {
	a, rec := newTestArena(t)
	killed := false
	require.NoError(t, a.Add(Entity{ID: "e2", Position: core.Vec3{X: 10}, Damageable: true, Health: 100, OnKill: func() { killed = true }}))

	def := &core.WeaponDefinition{Name: "Rifle", Ray: core.RayMode{Range: 50, Damage: 40}}
	shot := effects.Shot{Shooter: "p1", Weapon: def, Origin: eye, Direction: core.Vec3{X: 1}}

	for i := 0; i < 2; i++ {
		out := a.Effects().ResolveRay(shot)
		require.Len(t, out.Hits, 1)
		assert.Equal(t, 40.0, out.Hits[0].Damage)
	}
	hp, alive := a.Health("e2")
	assert.InDelta(t, 20, hp, 1e-9)
	assert.True(t, alive)

	a.BeginTick(7)
	a.Effects().ResolveRay(shot)
	hp, alive = a.Health("e2")
	assert.Zero(t, hp)
	assert.False(t, alive)
	assert.True(t, killed)
	require.Len(t, rec.kills, 1)
	assert.Equal(t, core.KillEvent{Tick: 7, VictimID: "e2", KillerID: "p1"}, rec.kills[0])

	out := a.Effects().ResolveRay(shot)
	assert.Empty(t, out.Hits, "dead entities stop colliding")
	assert.Len(t, rec.kills, 1)
	assert.Equal(t, []core.EntityID{"p1", "e1"}, a.Alive())
}

func TestOverlapSphere(t *testing.T) {
	a, _ := newTestArena(t)
	cs := a.OverlapSphere(core.Vec3{Y: 1, Z: 8}, 5)
	require.Len(t, cs, 1)
	assert.Equal(t, core.EntityID("e1"), cs[0].Owner)
	assert.Equal(t, core.Vec3{Y: 1, Z: 10}, cs[0].Position)

	assert.Len(t, a.OverlapSphere(core.Vec3{Y: 1, Z: 5}, 5), 2)
}

func TestStep_FuseDetonates(t *testing.T) {
	a, rec := newTestArena(t)
	a.SpawnBody(effects.BodyLaunch{
		Owner:    "p1",
		Position: core.Vec3{Y: 1, Z: 8},
		Spec: core.BodySpec{
			DetonationTime: 1,
			Explosion:      core.Explosion{Damage: 60, Radius: 5, Falloff: core.LinearFalloff},
		},
	})
	require.Equal(t, 1, a.Bodies())

	for i := 0; i < 9; i++ {
		a.Step(0.1)
	}
	assert.Equal(t, 1, a.Bodies())
	assert.Empty(t, rec.explosions)

	a.Step(0.1)
	assert.Zero(t, a.Bodies())
	require.Len(t, rec.explosions, 1)
	require.Len(t, rec.explosions[0].Damages, 1)
	assert.Equal(t, core.EntityID("e1"), rec.explosions[0].Damages[0].TargetID)

	hp, _ := a.Health("e1")
	assert.InDelta(t, 64, hp, 1e-9, "60 damage at 2/5 of the radius")
}

func TestStep_RocketDetonatesOnWall(t *testing.T) {
	a, rec := newTestArena(t)
	addWall(t, a, "5")
	require.NoError(t, a.Add(Entity{ID: "e2", Position: core.Vec3{Z: 6.5}, Damageable: true}))

	a.SpawnBody(effects.BodyLaunch{
		Owner:    "p1",
		Weapon:   "Launcher",
		Position: core.Vec3{Y: 1.5, Z: 0.8},
		Velocity: core.Vec3{Z: 20},
		Spec: core.BodySpec{
			DetonateOnCollision: true,
			Explosion:           core.Explosion{Damage: 100, Radius: 3, Falloff: core.LinearFalloff},
		},
	})
	a.Step(0.1)
	a.Step(0.1)
	assert.Equal(t, 1, a.Bodies())

	a.Step(0.1)
	assert.Zero(t, a.Bodies())
	require.Len(t, rec.explosions, 1)
	ev := rec.explosions[0]
	assert.Equal(t, "Launcher", ev.Weapon)
	assert.InDelta(t, 5, ev.Center.Z, 1e-9)

	hp, _ := a.Health("e2")
	assert.InDelta(t, 50, hp, 1e-9)
	hp, _ = a.Health("e1")
	assert.Equal(t, DefaultHealth, hp, "outside the radius")
}

func TestStep_GrenadeBouncesOnGround(t *testing.T) {
	a, rec := newTestArena(t)
	a.SpawnBody(effects.BodyLaunch{
		Owner:    "p1",
		Position: core.Vec3{Y: 1, X: 3},
		Velocity: core.Vec3{X: 2},
		Spec:     core.DefaultGrenadeBody,
	})
	for i := 0; i < 30; i++ {
		a.Step(0.1)
		require.Len(t, a.bodies, 1)
		assert.GreaterOrEqual(t, a.bodies[0].Position.Y, 0.0)
	}
	assert.Empty(t, rec.explosions, "the fuse is four seconds")
}

func TestApplyExplosionForce(t *testing.T) {
	a, _ := newTestArena(t)
	require.NoError(t, a.Add(Entity{ID: "crate", Position: core.Vec3{X: 2}, Rigid: true}))

	a.ApplyExplosionForce("crate", 10, core.Vec3{Y: 0.9}, 5)
	a.ApplyExplosionForce("e1", 10, core.Vec3{Y: 0.9}, 5)
	a.Step(0.1)

	pos, _ := a.Position("crate")
	assert.InDelta(t, 2.6, pos.X, 1e-9)
	assert.Zero(t, pos.Y)
	pos, _ = a.Position("e1")
	assert.Equal(t, core.Vec3{Z: 10}, pos, "not rigid")
}

func TestVisualLifetimes(t *testing.T) {
	a, _ := newTestArena(t)
	a.SpawnVisual("Flash", core.Transform{}, effects.FlashLifetime)
	a.SpawnVisual("Casing", core.Transform{}, effects.CartridgeLifetime)
	a.SpawnVisual("Nothing", core.Transform{}, 0)
	assert.Equal(t, 2, a.Visuals())

	a.Step(0.5)
	assert.Equal(t, 1, a.Visuals())
	a.Step(1.5)
	assert.Zero(t, a.Visuals())
}
