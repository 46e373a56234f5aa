package scenario

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gunplay/internal/actor"
	"github.com/OCAP2/gunplay/internal/config"
	"github.com/OCAP2/gunplay/internal/dispatcher"
	"github.com/OCAP2/gunplay/internal/session"
	"github.com/OCAP2/gunplay/internal/weapon"
	"github.com/OCAP2/gunplay/pkg/core"
)

// recorder stands in for the dispatcher and keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []dispatcher.Event
}

func (r *recorder) Dispatch(e dispatcher.Event) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if e.Command == core.CmdNewSession {
		return uint(7), nil
	}
	return nil, nil
}

func (r *recorder) of(cmd string) []dispatcher.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dispatcher.Event
	for _, e := range r.events {
		if e.Command == cmd {
			out = append(out, e)
		}
	}
	return out
}

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testDeps(rec *recorder) Deps {
	return Deps{
		Dispatcher: rec,
		Session:    session.NewContext(),
		Combat:     config.CombatConfig{SwitchOnExhausted: true, TickRate: 60},
		Grenade: config.GrenadeConfig{
			StartAmount:      3,
			PlayerCooldown:   1,
			EnemyCooldownMin: 2,
			EnemyCooldownMax: 10,
		},
	}
}

func loadDuel(t *testing.T) (*Scenario, *weapon.Catalog) {
	t.Helper()
	sc, err := Load("testdata/duel.yaml")
	require.NoError(t, err)
	cat, err := weapon.LoadCatalog(sc.CatalogPath())
	require.NoError(t, err)
	return sc, cat
}

func newRunner(t *testing.T, yaml string) (*Runner, *recorder) {
	t.Helper()
	sc, err := Parse([]byte(yaml))
	require.NoError(t, err)
	cat, err := weapon.LoadCatalog("testdata/catalog.yaml")
	require.NoError(t, err)
	rec := &recorder{}
	r, err := NewRunner(sc, cat, testDeps(rec))
	require.NoError(t, err)
	return r, rec
}

func TestNewRunner_Validation(t *testing.T) {
	sc, cat := loadDuel(t)
	rec := &recorder{}

	_, err := NewRunner(sc, cat, Deps{Session: session.NewContext()})
	assert.Error(t, err)
	_, err = NewRunner(sc, cat, Deps{Dispatcher: rec})
	assert.Error(t, err)
	_, err = NewRunner(sc, nil, testDeps(rec))
	assert.Error(t, err)

	sc.Actors[0].Weapons = []string{"Railgun"}
	_, err = NewRunner(sc, cat, testDeps(rec))
	assert.ErrorIs(t, err, weapon.ErrNotFound)
}

func TestNewRunner_ValidatesScenario(t *testing.T) {
	sc, cat := loadDuel(t)
	sc.Pickups = append(sc.Pickups, PickupSpec{Tick: 1, Actor: "ghost", Pickup: actor.Pickup{Kind: core.PickupAmmo, Ammo: "556"}})

	_, err := NewRunner(sc, cat, testDeps(&recorder{}))
	assert.ErrorContains(t, err, `actor "ghost" does not exist`)
}

func TestStep_PickupForUnknownActor(t *testing.T) {
	sc, cat := loadDuel(t)
	r, err := NewRunner(sc, cat, testDeps(&recorder{}))
	require.NoError(t, err)
	_, err = r.Start(start)
	require.NoError(t, err)

	r.pickups[1] = append(r.pickups[1], PickupSpec{Tick: 1, Actor: "ghost", Pickup: actor.Pickup{Kind: core.PickupAmmo, Ammo: "556"}})
	require.NotPanics(t, func() { err = r.Step() })
	assert.ErrorContains(t, err, "pickup for ghost: unknown actor")

	p1, ok := r.Actor("p1")
	require.True(t, ok)
	assert.True(t, p1.Alive(), "the rest of the tick still ran")
}

func TestNewRunner_TickRate(t *testing.T) {
	sc, cat := loadDuel(t)
	r, err := NewRunner(sc, cat, testDeps(&recorder{}))
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.TickRate())
	assert.Equal(t, uint(50), r.TotalTicks())

	sc.TickRate = 0
	r, err = NewRunner(sc, cat, testDeps(&recorder{}))
	require.NoError(t, err)
	assert.Equal(t, 60.0, r.TickRate(), "falls back to the configured rate")
	assert.Equal(t, uint(300), r.TotalTicks())
}

func TestNewRunner_Arsenal(t *testing.T) {
	sc, cat := loadDuel(t)
	r, err := NewRunner(sc, cat, testDeps(&recorder{}))
	require.NoError(t, err)

	p1, ok := r.Actor("p1")
	require.True(t, ok)
	assert.Equal(t, []string{"Rifle"}, p1.Catalog().Names())
	assert.True(t, p1.CanThrow(), "grenades unlocked")
	assert.Equal(t, 2, p1.Grenades())

	e1, ok := r.Actor("e1")
	require.True(t, ok)
	assert.False(t, e1.CanThrow())
	assert.False(t, cat.Grenade.CanThrow, "the shared catalog is untouched")

	_, ok = r.Actor("nobody")
	assert.False(t, ok)
}

func TestStart_RegistersSessionAndActors(t *testing.T) {
	sc, cat := loadDuel(t)
	rec := &recorder{}
	deps := testDeps(rec)
	r, err := NewRunner(sc, cat, deps)
	require.NoError(t, err)

	s, err := r.Start(start)
	require.NoError(t, err)
	assert.Equal(t, uint(7), s.ID)
	assert.Equal(t, "duel", s.Name)
	assert.Equal(t, 10.0, s.TickRate)
	assert.Same(t, s, deps.Session.GetSession())

	actors := rec.of(core.CmdNewActor)
	require.Len(t, actors, 2)
	a := actors[0].Payload.(*core.Actor)
	assert.Equal(t, core.EntityID("p1"), a.EntityID)
	assert.Equal(t, "blue", a.Team)
	assert.Equal(t, 100.0, a.Health)
	assert.Equal(t, []string{"Rifle"}, a.Weapons)
	assert.Equal(t, start, a.JoinTime)
}

func TestRun_PlayerKillsEnemy(t *testing.T) {
	sc, cat := loadDuel(t)
	rec := &recorder{}
	deps := testDeps(rec)
	r, err := NewRunner(sc, cat, deps)
	require.NoError(t, err)
	_, err = r.Start(start)
	require.NoError(t, err)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Decided)
	assert.Less(t, res.Ticks, r.TotalTicks())
	assert.Equal(t, []core.EntityID{"p1"}, res.Survivors)
	assert.Equal(t, res.Ticks, deps.Session.Tick())

	kills := rec.of(core.CmdKill)
	require.Len(t, kills, 1)
	kill := kills[0].Payload.(*core.KillEvent)
	assert.Equal(t, core.EntityID("e1"), kill.VictimID)
	assert.Equal(t, core.EntityID("p1"), kill.KillerID)
	assert.Equal(t, deps.Session.TimeAt(kill.Tick), kill.Time)

	assert.NotEmpty(t, rec.of(core.CmdShot))
	assert.Len(t, rec.of(core.CmdHit), 2, "two 50 damage hits")

	pickups := rec.of(core.CmdPickup)
	require.Len(t, pickups, 1)
	assert.True(t, pickups[0].Payload.(*core.PickupEvent).Accepted)

	actors, alive := r.Population()
	assert.Equal(t, 2, actors)
	assert.Equal(t, 1, alive)
}

func TestRun_EnemyAttacksTargetInRange(t *testing.T) {
	r, rec := newRunner(t, `
tickRate: 10
duration: 3
actors:
  - id: p1
    weapons: [Rifle]
  - id: e1
    kind: enemy
    position: {x: 0, y: 0, z: 10}
    weapons: [Rifle]
    target: p1
`)
	_, err := r.Start(start)
	require.NoError(t, err)
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Decided)
	assert.Equal(t, uint(30), res.Ticks)
	assert.Equal(t, []core.EntityID{"e1"}, res.Survivors)

	for _, e := range rec.of(core.CmdShot) {
		assert.Equal(t, core.EntityID("e1"), e.Payload.(*core.ShotEvent).ActorID)
	}
}

func TestRun_TargetOutOfRange(t *testing.T) {
	r, rec := newRunner(t, `
tickRate: 10
duration: 1
actors:
  - id: p1
    weapons: [Rifle]
  - id: e1
    kind: enemy
    position: {x: 0, y: 0, z: 10}
    weapons: [Rifle]
    target: p1
    attackRange: 5
`)
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rec.of(core.CmdShot))
	assert.Equal(t, []core.EntityID{"p1", "e1"}, r.Survivors())
}

func TestRun_WallBlocksShots(t *testing.T) {
	r, rec := newRunner(t, `
tickRate: 10
duration: 1
actors:
  - id: p1
    weapons: [Rifle]
    script:
      - {duration: 1, fire: true}
  - id: e1
    kind: enemy
    position: {x: 0, y: 0, z: 10}
    weapons: [Rifle]
walls:
  - name: cover
    wkt: "LINESTRING(-5 5, 5 5)"
    height: 3
`)
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.of(core.CmdShot))
	hits := rec.of(core.CmdHit)
	require.NotEmpty(t, hits)
	for _, e := range hits {
		assert.Empty(t, e.Payload.(*core.HitEvent).TargetID, "only the wall is hit")
	}
	hp, alive := r.Arena().Health("e1")
	assert.Equal(t, 100.0, hp)
	assert.True(t, alive)
}

func TestRun_Cancelled(t *testing.T) {
	sc, cat := loadDuel(t)
	r, err := NewRunner(sc, cat, testDeps(&recorder{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Ticks)
}

func TestRunner_AutoRigsAnchors(t *testing.T) {
	r, _ := newRunner(t, `
duration: 1
actors:
  - id: p1
    anchors:
      rifle_muzzle: {x: 0, y: 1.4, z: 1}
`)
	p1, _ := r.Actor("p1")
	rig := p1.Rig()

	muzzle, ok := rig.Anchor("rifle_muzzle")
	require.True(t, ok)
	assert.InDelta(t, 1.4, muzzle.Position.Y, 1e-9, "explicit offsets win")

	tube, ok := rig.Anchor("launcher_tube")
	require.True(t, ok)
	assert.InDelta(t, 1.7, tube.Position.Y, 1e-9, "launchers fire from the tube")

	_, ok = rig.Anchor("rifle_ejector")
	assert.True(t, ok)
}

func TestRun_Realtime(t *testing.T) {
	sc, err := Parse([]byte(`
tickRate: 100
duration: 0.05
actors:
  - id: p1
`))
	require.NoError(t, err)
	cat, err := weapon.LoadCatalog("testdata/catalog.yaml")
	require.NoError(t, err)
	deps := testDeps(&recorder{})
	deps.Realtime = true
	r, err := NewRunner(sc, cat, deps)
	require.NoError(t, err)

	began := time.Now()
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(5), res.Ticks)
	assert.GreaterOrEqual(t, time.Since(began), 40*time.Millisecond)
}
