package combat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gunplay/internal/ammo"
	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/internal/weapon"
	"github.com/OCAP2/gunplay/pkg/core"
)

type testRig struct {
	anchors map[string]core.Transform
	aim     core.Transform
}

func (r *testRig) Anchor(name string) (core.Transform, bool) {
	t, ok := r.anchors[name]
	return t, ok
}

func (r *testRig) Aim() core.Transform { return r.aim }

type testPresenter struct {
	anims   map[string]bool
	audio   []string
	stopped []string
	visuals []string
}

func (p *testPresenter) SetAnimationBool(name string, v bool) { p.anims[name] = v }
func (p *testPresenter) PlayAudio(clip string)                { p.audio = append(p.audio, clip) }
func (p *testPresenter) StopAudio(clip string)                { p.stopped = append(p.stopped, clip) }
func (p *testPresenter) SpawnVisual(prefab string, at core.Transform, lifetime float64) {
	p.visuals = append(p.visuals, prefab)
}

type testEffects struct {
	rays        []effects.Shot
	projectiles []effects.Shot
}

func (f *testEffects) ResolveRay(s effects.Shot) effects.Outcome {
	f.rays = append(f.rays, s)
	return effects.Outcome{}
}

func (f *testEffects) LaunchProjectile(s effects.Shot) effects.Outcome {
	f.projectiles = append(f.projectiles, s)
	return effects.Outcome{}
}

type testObserver struct {
	shots    []core.ShotEvent
	reloads  []core.ReloadEvent
	switches []core.SwitchEvent
}

func (o *testObserver) OnShot(ev core.ShotEvent, _ effects.Outcome) { o.shots = append(o.shots, ev) }
func (o *testObserver) OnReload(ev core.ReloadEvent)                { o.reloads = append(o.reloads, ev) }
func (o *testObserver) OnSwitch(ev core.SwitchEvent)                { o.switches = append(o.switches, ev) }

func (o *testObserver) switchPhases() []core.SwitchPhase {
	var out []core.SwitchPhase
	for _, s := range o.switches {
		out = append(out, s.Phase)
	}
	return out
}

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

type grenadeCounter struct {
	ticks   int
	intents int
}

func (g *grenadeCounter) Tick(dt float64, intent bool) bool {
	g.ticks++
	if intent {
		g.intents++
	}
	return intent
}

type fixture struct {
	engine    *Engine
	ledger    *ammo.Ledger
	rig       *testRig
	presenter *testPresenter
	effects   *testEffects
	observer  *testObserver
	grenades  *grenadeCounter
}

// rifle is an auto ray weapon: 30 rounds, 10 rounds/s, 90 pooled.
func rifle() core.WeaponDefinition {
	return core.WeaponDefinition{
		Name:                "Rifle",
		Ammo:                core.Ammo{Name: "556", StartAmount: 90},
		Capacity:            30,
		AmmoLossPerRound:    1,
		AmmoAddedPerReload:  10,
		FireRate:            10,
		RoundsPerBurst:      1,
		OutputPerRound:      1,
		FiringType:          core.FiringAuto,
		OutputType:          core.OutputRay,
		ReloadingType:       core.ReloadFull,
		ReloadingTime:       2,
		SwitchingTime:       0.5,
		AimingTime:          0.5,
		RunningRecoveryTime: 0.3,
		Spread:              0.1,
		MovementSpread:      0.3,
		AimingSpread:        0.01,
		Ray:                 core.RayMode{Range: 100, Damage: 20},
		Presentation: core.Presentation{
			BarrelFlash: "Flash",
			Cartridge:   core.Cartridge{Prefab: "Casing"},
			Sounds:      core.Sounds{Barrel: "bang", Reload: "rack", SwitchIn: "draw", SwitchOut: "holster"},
			Animations:  core.AnimationVars{Fire: "Fire", Reload: "Reload", Switch: "Switch", Aim: "Aim", Run: "Run", Walk: "Walk"},
			Anchors:     core.Anchors{BarrelFlash: "muzzle", Projectile: "muzzle", Cartridge: "ejector"},
		},
		EnableOnStart: true,
		LoadedAtStart: true,
	}
}

func shotgun() core.WeaponDefinition {
	d := rifle()
	d.Name = "Shotgun"
	d.Ammo = core.Ammo{Name: "shell", StartAmount: 16}
	d.Capacity = 6
	d.AmmoAddedPerReload = 1
	d.FireRate = 1
	d.OutputPerRound = 8
	d.FiringType = core.FiringSemi
	d.ReloadingType = core.ReloadPartialRepeat
	d.ReloadingTime = 0.5
	d.PartialReloadInterruptionTime = 0.4
	d.LoadedAtStart = false
	return d
}

func launcher() core.WeaponDefinition {
	d := rifle()
	d.Name = "Launcher"
	d.Ammo = core.Ammo{Name: "rocket", StartAmount: 3}
	d.Capacity = 1
	d.FireRate = 0.5
	d.FiringType = core.FiringSemi
	d.OutputType = core.OutputProjectile
	d.Projectile = core.ProjectileMode{Prefab: "Rocket", LaunchForce: 60, Body: core.DefaultGrenadeBody}
	d.Presentation.Anchors.Projectile = "tube"
	return d
}

func newFixture(t *testing.T, infinite bool, opts Options, defs ...core.WeaponDefinition) *fixture {
	t.Helper()
	f := &fixture{
		ledger: ammo.NewLedger(infinite),
		rig: &testRig{
			anchors: map[string]core.Transform{
				"muzzle":  {Position: core.Vec3{Y: 1.5, Z: 0.6}, Forward: core.Forward},
				"ejector": {Position: core.Vec3{X: 0.1, Y: 1.5}},
				"tube":    {Position: core.Vec3{Y: 1.7, Z: 0.8}, Forward: core.Forward},
			},
			aim: core.Transform{Position: core.Vec3{Y: 1.6}, Forward: core.Forward},
		},
		presenter: &testPresenter{anims: map[string]bool{}},
		effects:   &testEffects{},
		observer:  &testObserver{},
		grenades:  &grenadeCounter{},
	}
	e, err := New("p1", Deps{
		Catalog:   &weapon.Catalog{Weapons: defs},
		Ledger:    f.ledger,
		Rig:       f.rig,
		Presenter: f.presenter,
		Effects:   f.effects,
		Observer:  f.observer,
		Grenades:  f.grenades,
		Rand:      constRand(1),
	}, opts)
	require.NoError(t, err)
	require.NoError(t, e.Init())
	f.engine = e
	return f
}

// run ticks n times with the same intents and fails on any engine error.
func (f *fixture) run(t *testing.T, n int, dt float64, in Intents) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, f.engine.Tick(dt, in))
	}
}

func (f *fixture) capacity(i int) int { return f.engine.Slots()[i].Capacity }
