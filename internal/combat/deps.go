package combat

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/gunplay/internal/ammo"
	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/internal/weapon"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Intents are the boolean inputs sampled for one tick.
type Intents struct {
	FireEdge   bool // fire pressed this tick
	FireHeld   bool
	ReloadEdge bool
	SwitchEdge bool
	AimHeld    bool
	RunHeld    bool
	Moving     bool
	ThrowHeld  bool
}

// Rig exposes the actor's model: named anchors and the aim transform.
type Rig interface {
	Anchor(name string) (core.Transform, bool)
	Aim() core.Transform
}

// Presenter receives fire-and-forget presentation calls.
type Presenter interface {
	SetAnimationBool(name string, value bool)
	PlayAudio(clip string)
	StopAudio(clip string)
	SpawnVisual(prefab string, at core.Transform, lifetime float64)
}

// Effects resolves sub-shots.
type Effects interface {
	ResolveRay(shot effects.Shot) effects.Outcome
	LaunchProjectile(shot effects.Shot) effects.Outcome
}

// Observer is told about every state transition worth recording. Tick is
// set on events; Time is left for the observer.
type Observer interface {
	OnShot(ev core.ShotEvent, out effects.Outcome)
	OnReload(ev core.ReloadEvent)
	OnSwitch(ev core.SwitchEvent)
}

// GrenadeTicker is the grenade step of a tick.
type GrenadeTicker interface {
	Tick(dt float64, intent bool) bool
}

// Rand samples spread.
type Rand interface {
	Float64() float64
}

// Deps are the collaborators injected at construction. Catalog, Ledger and
// Effects are required; nil Presenter and Observer are no-ops.
type Deps struct {
	Catalog   *weapon.Catalog
	Ledger    *ammo.Ledger
	Rig       Rig
	Presenter Presenter
	Effects   Effects
	Observer  Observer
	Grenades  GrenadeTicker
	Rand      Rand
	Logger    *slog.Logger
}

// Options select the actor-kind variants of the shared engine.
type Options struct {
	// TentativeDisable disables the slot being switched away from and
	// restores it when no other slot is enabled.
	TentativeDisable bool
	// SwitchOnExhausted requests a switch when the active slot cannot fire
	// and its finite ammo pool is empty.
	SwitchOnExhausted bool
}

// ConfigurationError is a fatal definition/rig mismatch. The engine that
// hits one stays faulted.
type ConfigurationError struct {
	Weapon string
	Anchor string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("weapon %q: anchor %q: %s", e.Weapon, e.Anchor, e.Reason)
}

type nopPresenter struct{}

func (nopPresenter) SetAnimationBool(string, bool)               {}
func (nopPresenter) PlayAudio(string)                            {}
func (nopPresenter) StopAudio(string)                            {}
func (nopPresenter) SpawnVisual(string, core.Transform, float64) {}

type nopObserver struct{}

func (nopObserver) OnShot(core.ShotEvent, effects.Outcome) {}
func (nopObserver) OnReload(core.ReloadEvent)              {}
func (nopObserver) OnSwitch(core.SwitchEvent)              {}

type noRig struct{}

func (noRig) Anchor(string) (core.Transform, bool) { return core.Transform{}, false }
func (noRig) Aim() core.Transform                  { return core.Transform{Forward: core.Forward} }
