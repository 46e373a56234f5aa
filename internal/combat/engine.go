// Package combat implements the per-actor combat state machine: firing,
// reloading, weapon switching, aiming and the grenade step, advanced by
// explicit timers on every tick.
package combat

import (
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/OCAP2/gunplay/internal/weapon"
	"github.com/OCAP2/gunplay/pkg/core"
)

var (
	// ErrNotInitialized is returned by Tick before Init.
	ErrNotInitialized = errors.New("combat engine not initialized")
	// ErrNoWeapons is returned by New for an empty catalog.
	ErrNoWeapons = errors.New("catalog has no weapons")
)

type switchPhase int

const (
	switchIdle switchPhase = iota
	switchOut
	switchIn
)

// Engine is the combat state machine of one actor. It is not safe for
// concurrent use; the owning actor serializes calls.
type Engine struct {
	id   core.EntityID
	deps Deps
	opts Options
	log  *slog.Logger
	m    *metrics

	slots  []*weapon.Slot
	active int
	burst  int

	reloading    bool
	reloadTimer  float64
	interruption float64

	switching    bool
	phase        switchPhase
	switchTimer  float64
	switchFrom   int
	switchTarget int
	forced       bool
	requested    bool

	running         bool
	walking         bool
	runningRecovery float64

	aiming      bool
	aimProgress float64

	clock        float64
	ticks        uint
	rounds       uint
	lastSwitchAt float64

	initialized bool
	fault       error
}

// New creates an engine for the actor id. Slots follow catalog order.
func New(id core.EntityID, deps Deps, opts Options) (*Engine, error) {
	switch {
	case deps.Catalog == nil:
		return nil, errors.New("combat: catalog is required")
	case deps.Ledger == nil:
		return nil, errors.New("combat: ledger is required")
	case deps.Effects == nil:
		return nil, errors.New("combat: effects resolver is required")
	case len(deps.Catalog.Weapons) == 0:
		return nil, ErrNoWeapons
	}
	if deps.Presenter == nil {
		deps.Presenter = nopPresenter{}
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Rig == nil {
		deps.Rig = noRig{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		id:           id,
		deps:         deps,
		opts:         opts,
		log:          deps.Logger.With("actor", string(id)),
		m:            m,
		switchTarget: -1,
	}
	for i := range deps.Catalog.Weapons {
		e.slots = append(e.slots, weapon.NewSlot(&deps.Catalog.Weapons[i]))
	}
	return e, nil
}

// Init seeds the ledger once per ammo type, enables the start weapons and
// loads the first of them. Without any start weapon the first slot stays
// selected and a switch is pending.
func (e *Engine) Init() error {
	if e.initialized {
		return nil
	}
	selected := -1
	for i, s := range e.slots {
		e.deps.Ledger.Seed(s.AmmoType(), s.Def.Ammo.StartAmount)
		if !s.Def.EnableOnStart {
			continue
		}
		ammo := 0
		if s.Def.LoadedAtStart {
			ammo = s.Def.Capacity
		}
		s.Enable(ammo)
		if selected < 0 {
			selected = i
		}
	}
	if selected < 0 {
		selected = 0
		e.forced = true
	}
	e.active = selected
	e.initialized = true

	if err := e.loadSelected(); err != nil {
		return e.setFault(err)
	}
	e.log.Debug("combat engine initialized", "weapon", e.slots[e.active].Name())
	return nil
}

// Tick advances the machine by dt seconds: cooldowns and running, fire,
// reload, switch, aim, grenade. A faulted engine returns its fault.
func (e *Engine) Tick(dt float64, in Intents) error {
	if e.fault != nil {
		return e.fault
	}
	if !e.initialized {
		return ErrNotInitialized
	}
	if dt < 0 {
		dt = 0
	}
	e.ticks++
	e.clock += dt

	e.anim(e.vars().Fire, false)

	e.decay(dt, in)
	e.fire(in)
	e.reload(dt, in)
	if err := e.switchStep(dt, in); err != nil {
		return e.setFault(err)
	}
	e.aim(dt, in)

	if e.deps.Grenades != nil && e.deps.Grenades.Tick(dt, in.ThrowHeld) {
		e.m.add(e.m.grenades, 1, attribute.String("actor", string(e.id)))
	}
	return nil
}

func (e *Engine) setFault(err error) error {
	if e.fault == nil {
		e.fault = err
		e.log.Error("combat engine faulted", "error", err)
	}
	return e.fault
}

// Fault returns the stored fatal error, if any.
func (e *Engine) Fault() error { return e.fault }

func (e *Engine) current() *weapon.Slot { return e.slots[e.active] }

func (e *Engine) vars() core.AnimationVars { return e.current().Def.Presentation.Animations }

func (e *Engine) anim(name string, v bool) {
	if name != "" {
		e.deps.Presenter.SetAnimationBool(name, v)
	}
}

func (e *Engine) audio(clip string) {
	if clip != "" {
		e.deps.Presenter.PlayAudio(clip)
	}
}

// decay is step one: slot cooldowns, running state and its recovery timer.
// Running aborts an in-flight reload.
func (e *Engine) decay(dt float64, in Intents) {
	for _, s := range e.slots {
		s.DecayCooldown(dt)
	}
	e.runningRecovery = core.Decay(e.runningRecovery, dt)

	e.running = in.RunHeld
	e.walking = in.Moving && !in.RunHeld
	v := e.vars()
	e.anim(v.Run, e.running)
	e.anim(v.Walk, e.walking)

	if e.running {
		e.runningRecovery = e.current().Def.RunningRecoveryTime
		if e.reloading {
			e.abortReload(core.ReloadAborted)
		}
	}
}

// loadSelected checks the active weapon's anchors against the rig and
// resets the burst. Named anchors must exist; unnamed ones are only an
// error when the weapon needs them.
func (e *Engine) loadSelected() error {
	s := e.current()
	def := s.Def
	p := def.Presentation

	checks := []struct {
		name     string
		role     string
		required bool
	}{
		{p.Anchors.BarrelFlash, "barrelFlash", p.BarrelFlash != ""},
		{p.Anchors.Projectile, "projectile", def.OutputType == core.OutputProjectile},
		{p.Anchors.Cartridge, "cartridge", p.Cartridge.Prefab != ""},
	}
	for _, c := range checks {
		if c.name == "" {
			if c.required {
				return &ConfigurationError{Weapon: def.Name, Anchor: c.role, Reason: "not configured"}
			}
			continue
		}
		if _, ok := e.deps.Rig.Anchor(c.name); !ok {
			return &ConfigurationError{Weapon: def.Name, Anchor: c.name, Reason: "missing from rig"}
		}
	}
	e.burst = def.RoundsPerBurst
	return nil
}

// slotIndex finds a slot by weapon name.
func (e *Engine) slotIndex(name string) (int, error) {
	for i, s := range e.slots {
		if s.Name() == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", weapon.ErrNotFound, name)
}

// EnableWeapon enables or disables the named weapon. Enabling a disabled
// slot loads ammoInWeapon rounds, clamped, and arms one round interval of
// cooldown. Enabling the selected slot while it is inactive, or disabling
// the active weapon, forces a switch. It reports whether the slot changed.
func (e *Engine) EnableWeapon(name string, enabled bool, ammoInWeapon int) (bool, error) {
	i, err := e.slotIndex(name)
	if err != nil {
		return false, err
	}
	s := e.slots[i]
	if enabled {
		if !s.Enable(ammoInWeapon) {
			return false, nil
		}
		if i == e.active {
			e.forced = true
		}
		return true, nil
	}
	if !s.Disable() {
		return false, nil
	}
	if i == e.active {
		e.forced = true
	}
	return true, nil
}

// IncreaseAmmo adds n rounds of ammoType to the shared pool.
func (e *Engine) IncreaseAmmo(ammoType string, n int) {
	e.deps.Ledger.Increase(ammoType, n)
}

// RequestSwitch asks for a switch on the next tick, as a switch edge would.
func (e *Engine) RequestSwitch() {
	e.requested = true
}

// Select makes slot i active immediately, skipping the switch phases. It
// is ignored while switching or for a disabled or unknown slot, and reports
// whether the selection happened.
func (e *Engine) Select(i int) (bool, error) {
	if e.fault != nil {
		return false, e.fault
	}
	if e.switching || i < 0 || i >= len(e.slots) || !e.slots[i].Enabled() {
		return false, nil
	}
	if e.reloading {
		e.abortReload(core.ReloadAborted)
	}
	from := e.current().Name()
	e.active = i
	e.forced = false
	e.lastSwitchAt = e.clock
	if err := e.loadSelected(); err != nil {
		return false, e.setFault(err)
	}
	e.deps.Observer.OnSwitch(core.SwitchEvent{
		Tick:    e.ticks,
		ActorID: e.id,
		From:    from,
		To:      e.current().Name(),
		Phase:   core.SwitchImmediate,
	})
	return true, nil
}

// Interrupt cancels any reload or switch in progress, as on death.
func (e *Engine) Interrupt() {
	if e.reloading {
		e.abortReload(core.ReloadAborted)
	}
	if e.switching {
		if e.switchTarget >= 0 {
			e.anim(e.slots[e.switchTarget].Def.Presentation.Animations.Switch, false)
		}
		e.switching = false
		e.phase = switchIdle
		e.switchTimer = 0
		e.switchTarget = -1
	}
	e.aiming = false
	e.aimProgress = 0
	e.anim(e.vars().Aim, false)
}

// Slots returns a snapshot of every slot in catalog order.
func (e *Engine) Slots() []SlotState {
	out := make([]SlotState, len(e.slots))
	for i, s := range e.slots {
		out[i] = SlotState{
			Name:     s.Name(),
			AmmoType: s.AmmoType(),
			Enabled:  s.Enabled(),
			Capacity: s.Capacity(),
			Cooldown: s.Cooldown(),
		}
	}
	return out
}

// SlotState is a read-only copy of a weapon slot.
type SlotState struct {
	Name     string
	AmmoType string
	Enabled  bool
	Capacity int
	Cooldown float64
}

// State is a read-only copy of the engine's combat state.
type State struct {
	Active             int
	Weapon             string
	Capacity           int
	Ledger             int
	BurstRemaining     int
	Reloading          bool
	Switching          bool
	Running            bool
	Walking            bool
	Aiming             bool
	AimProgress        float64
	ReloadInterruption float64
	RunningRecovery    float64
	LastSwitchAt       float64
	ForcedSwitch       bool
	Clock              float64
	Ticks              uint
	Rounds             uint
	Faulted            bool
}

// State returns a snapshot of the combat state.
func (e *Engine) State() State {
	s := e.current()
	return State{
		Active:             e.active,
		Weapon:             s.Name(),
		Capacity:           s.Capacity(),
		Ledger:             e.deps.Ledger.Available(s.AmmoType()),
		BurstRemaining:     e.burst,
		Reloading:          e.reloading,
		Switching:          e.switching,
		Running:            e.running,
		Walking:            e.walking,
		Aiming:             e.aiming,
		AimProgress:        e.aimProgress,
		ReloadInterruption: e.interruption,
		RunningRecovery:    e.runningRecovery,
		LastSwitchAt:       e.lastSwitchAt,
		ForcedSwitch:       e.forced,
		Clock:              e.clock,
		Ticks:              e.ticks,
		Rounds:             e.rounds,
		Faulted:            e.fault != nil,
	}
}

// ID returns the actor id the engine belongs to.
func (e *Engine) ID() core.EntityID { return e.id }
