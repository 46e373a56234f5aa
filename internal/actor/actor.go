// Package actor binds a combat engine and a grenade thrower to one entity
// and adapts player input and enemy decisions into engine intents.
package actor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/OCAP2/gunplay/internal/ammo"
	"github.com/OCAP2/gunplay/internal/combat"
	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/internal/grenade"
	"github.com/OCAP2/gunplay/internal/weapon"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Rig is the actor model the engine reads anchors from, and that enemies
// turn towards their target.
type Rig interface {
	combat.Rig
	LookAt(target core.Vec3)
}

// Observer extends the engine observer with the events an actor adds on
// top: throws and pickups.
type Observer interface {
	combat.Observer
	OnGrenadeThrow(ev core.GrenadeThrowEvent)
	OnPickup(ev core.PickupEvent)
}

// Deps are what an actor is built from. Catalog, Ledger, Rig and Effects
// are required.
type Deps struct {
	ID   core.EntityID
	Kind core.ActorKind

	Catalog *weapon.Catalog
	Ledger  *ammo.Ledger
	Rig     Rig
	Effects combat.Effects
	Spawner effects.ProjectileSpawner

	Presenter combat.Presenter
	Observer  Observer
	Rand      combat.Rand

	// GrenadePolicy defaults to a fixed cooldown from the grenade
	// definition.
	GrenadePolicy    grenade.Policy
	InfiniteGrenades bool

	Options combat.Options
	Logger  *slog.Logger
}

// Actor owns the combat state of one entity. Its methods are safe for
// concurrent use.
type Actor struct {
	mu sync.Mutex

	id       core.EntityID
	kind     core.ActorKind
	engine   *combat.Engine
	grenades *grenade.Thrower
	catalog  *weapon.Catalog
	rig      Rig
	observer Observer
	syncers  []tickSyncer
	log      *slog.Logger

	killed atomic.Bool
	dead   bool
}

// New builds and initializes an actor. A configuration error from the
// start weapon is returned as is.
func New(deps Deps) (*Actor, error) {
	switch {
	case deps.ID == "":
		return nil, errors.New("actor: id is required")
	case deps.Rig == nil:
		return nil, errors.New("actor: rig is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Kind == "" {
		deps.Kind = core.ActorPlayer
	}

	a := &Actor{
		id:       deps.ID,
		kind:     deps.Kind,
		catalog:  deps.Catalog,
		rig:      deps.Rig,
		observer: deps.Observer,
		log:      deps.Logger.With("actor", string(deps.ID), "kind", string(deps.Kind)),
	}

	for _, v := range []any{deps.Presenter, deps.Observer} {
		if ts, ok := v.(tickSyncer); ok {
			a.syncers = append(a.syncers, ts)
		}
	}

	def := core.DefaultGrenade
	if deps.Catalog != nil && deps.Catalog.Grenade != nil {
		def = *deps.Catalog.Grenade
	}
	a.grenades = grenade.NewThrower(grenade.Dependencies{
		Owner:    deps.ID,
		Def:      def,
		Infinite: deps.InfiniteGrenades,
		Policy:   deps.GrenadePolicy,
		Aim:      deps.Rig,
		Spawner:  deps.Spawner,
		Audio:    deps.Presenter,
		OnThrow:  deps.Observer.OnGrenadeThrow,
	})

	engine, err := combat.New(deps.ID, combat.Deps{
		Catalog:   deps.Catalog,
		Ledger:    deps.Ledger,
		Rig:       deps.Rig,
		Presenter: deps.Presenter,
		Effects:   deps.Effects,
		Observer:  deps.Observer,
		Grenades:  a.grenades,
		Rand:      deps.Rand,
		Logger:    deps.Logger,
	}, deps.Options)
	if err != nil {
		return nil, fmt.Errorf("actor %s: %w", deps.ID, err)
	}
	if err := engine.Init(); err != nil {
		return nil, fmt.Errorf("actor %s: %w", deps.ID, err)
	}
	a.engine = engine
	return a, nil
}

func (a *Actor) ID() core.EntityID        { return a.id }
func (a *Actor) Kind() core.ActorKind     { return a.kind }
func (a *Actor) Rig() Rig                 { return a.rig }
func (a *Actor) Catalog() *weapon.Catalog { return a.catalog }

// Alive reports whether the actor has not been killed.
func (a *Actor) Alive() bool { return !a.killed.Load() }

// Kill marks the actor dead. It may be called from any goroutine,
// including one ticking another actor; the engine is interrupted at the
// start of the actor's next tick.
func (a *Actor) Kill() {
	a.killed.Store(true)
}

// Tick advances the engine by dt with the given intents. A dead actor
// does nothing.
func (a *Actor) Tick(dt float64, in combat.Intents) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tickLocked(dt, in)
}

func (a *Actor) tickLocked(dt float64, in combat.Intents) error {
	if a.killed.Load() {
		if !a.dead {
			a.dead = true
			a.engine.Interrupt()
			a.log.Debug("actor down, combat interrupted")
		}
		return nil
	}
	next := a.engine.State().Ticks + 1
	for _, ts := range a.syncers {
		ts.Sync(next)
	}
	return a.engine.Tick(dt, in)
}

// tickSyncer is told the number of the tick about to run, for hooks that
// are called without one.
type tickSyncer interface {
	Sync(tick uint)
}

// State returns a snapshot of the engine state.
func (a *Actor) State() combat.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.State()
}

// Slots returns a snapshot of the weapon slots.
func (a *Actor) Slots() []combat.SlotState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Slots()
}

// Grenades returns the remaining grenade count, -1 when infinite.
func (a *Actor) Grenades() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.grenades.Total()
}

// CanThrow reports whether grenades are unlocked.
func (a *Actor) CanThrow() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.grenades.CanThrow()
}

// Fault returns the engine fault, if any.
func (a *Actor) Fault() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Fault()
}
