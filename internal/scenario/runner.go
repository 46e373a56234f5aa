package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/OCAP2/gunplay/internal/actor"
	"github.com/OCAP2/gunplay/internal/ammo"
	"github.com/OCAP2/gunplay/internal/arena"
	"github.com/OCAP2/gunplay/internal/combat"
	"github.com/OCAP2/gunplay/internal/config"
	"github.com/OCAP2/gunplay/internal/dispatcher"
	"github.com/OCAP2/gunplay/internal/geo"
	"github.com/OCAP2/gunplay/internal/grenade"
	"github.com/OCAP2/gunplay/internal/session"
	"github.com/OCAP2/gunplay/internal/weapon"
	"github.com/OCAP2/gunplay/pkg/core"
)

// DefaultTickRate is used when neither the scenario nor the config sets one.
const DefaultTickRate = 60.0

// aimHeight is where enemies aim on their target's body.
const aimHeight = 1.2

// Dispatcher receives the session, actor and combat events of a run.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Deps are what a runner is built from. Dispatcher and Session are
// required.
type Deps struct {
	Dispatcher Dispatcher
	Session    *session.Context
	Combat     config.CombatConfig
	Grenade    config.GrenadeConfig
	// Realtime paces Run to one step per tick interval of wall time.
	Realtime bool
	Logger   *slog.Logger
}

// Result is how a run ended.
type Result struct {
	Ticks     uint
	Survivors []core.EntityID
	// Decided is set when the run stopped early with one team left.
	Decided bool
}

type member struct {
	spec   ActorSpec
	actor  *actor.Actor
	rig    *actor.Model
	player *actor.Player
	enemy  *actor.Enemy
}

// Runner plays a scenario one fixed step at a time.
type Runner struct {
	sc      *Scenario
	deps    Deps
	log     *slog.Logger
	arena   *arena.Arena
	members []*member
	pickups map[uint][]PickupSpec

	rate  float64
	total uint
	tick  uint
}

// NewRunner builds the arena and every actor of sc, arming each with
// its share of cat.
func NewRunner(sc *Scenario, cat *weapon.Catalog, deps Deps) (*Runner, error) {
	switch {
	case deps.Dispatcher == nil:
		return nil, errors.New("scenario: dispatcher is required")
	case deps.Session == nil:
		return nil, errors.New("scenario: session context is required")
	case cat == nil:
		return nil, errors.New("scenario: catalog is required")
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := &Runner{
		sc:      sc,
		deps:    deps,
		log:     deps.Logger.With("component", "scenario", "scenario", sc.Name),
		pickups: make(map[uint][]PickupSpec),
		rate:    sc.TickRate,
	}
	if r.rate <= 0 {
		r.rate = deps.Combat.TickRate
	}
	if r.rate <= 0 {
		r.rate = DefaultTickRate
	}
	r.total = uint(math.Round(sc.Duration * r.rate))

	r.arena = arena.New(arena.Config{
		Gravity:  sc.Gravity,
		Observer: arena.NewForwarder(deps.Dispatcher, deps.Logger),
		Clock:    deps.Session,
		Logger:   deps.Logger,
	})
	for _, w := range sc.Walls {
		wall, err := geo.NewWall(w.Name, w.WKT, w.Base, w.Height)
		if err != nil {
			return nil, fmt.Errorf("wall %s: %w", w.Name, err)
		}
		r.arena.AddWall(wall)
	}
	for _, p := range sc.Props {
		if err := r.arena.Add(arena.Entity{
			ID:         p.ID,
			Position:   p.Position,
			Radius:     p.Radius,
			Height:     p.Height,
			Health:     p.Health,
			Damageable: p.Damageable,
			Rigid:      p.Rigid,
			Trigger:    p.Trigger,
		}); err != nil {
			return nil, err
		}
	}

	positions := make(map[core.EntityID]core.Vec3)
	for _, a := range sc.Actors {
		positions[a.ID] = a.Position
	}
	for _, p := range sc.Props {
		positions[p.ID] = p.Position
	}

	for i, spec := range sc.Actors {
		m, err := r.newMember(spec, cat, rand.New(rand.NewSource(sc.Seed+int64(i))))
		if err != nil {
			return nil, err
		}
		if spec.LookAt != "" {
			m.rig.LookAt(positions[spec.LookAt].Add(core.Vec3{Y: m.rig.EyeHeight}))
		}
		r.members = append(r.members, m)
	}

	for _, p := range sc.Pickups {
		r.pickups[p.Tick] = append(r.pickups[p.Tick], p)
	}
	return r, nil
}

func (r *Runner) newMember(spec ActorSpec, cat *weapon.Catalog, rng *rand.Rand) (*member, error) {
	arsenal, err := r.arsenal(spec, cat)
	if err != nil {
		return nil, fmt.Errorf("actor %s: %w", spec.ID, err)
	}

	rig := actor.NewModel(spec.Position)
	if !spec.Facing.IsZero() {
		rig.Forward = spec.Facing
	}
	rigAnchors(rig, arsenal, spec.Anchors)

	fwd := actor.NewForwarder(spec.ID, r.deps.Dispatcher, r.deps.Session, r.deps.Logger)
	deps := actor.Deps{
		ID:               spec.ID,
		Kind:             spec.Kind,
		Catalog:          arsenal,
		Ledger:           ammo.NewLedger(r.deps.Combat.InfiniteAmmo),
		Rig:              rig,
		Effects:          r.arena.Effects(),
		Spawner:          r.arena,
		Presenter:        fwd,
		Observer:         fwd,
		Rand:             rng,
		InfiniteGrenades: r.deps.Combat.InfiniteGrenade,
		Logger:           r.deps.Logger,
	}
	if spec.Kind == core.ActorEnemy {
		deps.GrenadePolicy = grenade.Uniform{
			Min:  r.deps.Grenade.EnemyCooldownMin,
			Max:  r.deps.Grenade.EnemyCooldownMax,
			Rand: rng,
		}
		deps.Options = combat.Options{
			TentativeDisable:  true,
			SwitchOnExhausted: r.deps.Combat.SwitchOnExhausted,
		}
	} else {
		delay := arsenal.Grenade.Cooldown
		if delay <= 0 {
			delay = r.deps.Grenade.PlayerCooldown
		}
		deps.GrenadePolicy = grenade.Fixed{Delay: delay}
	}

	a, err := actor.New(deps)
	if err != nil {
		return nil, err
	}

	health := spec.Health
	if health <= 0 {
		health = arena.DefaultHealth
	}
	if err := r.arena.Add(arena.Entity{
		ID:         spec.ID,
		Position:   spec.Position,
		Health:     health,
		Damageable: true,
		OnKill:     a.Kill,
	}); err != nil {
		return nil, err
	}

	m := &member{spec: spec, actor: a, rig: rig}
	if spec.Kind == core.ActorEnemy {
		m.enemy = actor.NewEnemy(a, spec.Enemy)
	} else {
		m.player = actor.NewPlayer(a, actor.NewScript(spec.Script, spec.Loop))
	}
	return m, nil
}

// arsenal narrows the catalog to the actor's weapons and gives it its own
// grenade definition, unlocked when the actor starts with grenades.
func (r *Runner) arsenal(spec ActorSpec, cat *weapon.Catalog) (*weapon.Catalog, error) {
	sub, err := cat.Subset(spec.Weapons)
	if err != nil {
		return nil, err
	}
	def := core.DefaultGrenade
	if r.deps.Grenade.StartAmount > 0 {
		def.StartAmount = r.deps.Grenade.StartAmount
	}
	if cat.Grenade != nil {
		def = *cat.Grenade
	}
	def.CanThrow = def.CanThrow || spec.Grenades

	own := *sub
	own.Grenade = &def
	return &own, nil
}

// rigAnchors gives every anchor the arsenal names a stock offset: flashes
// at the muzzle, projectiles from the tube of launchers and the muzzle of
// everything else, cartridges at the ejector. Explicit offsets win.
func rigAnchors(m *actor.Model, cat *weapon.Catalog, explicit map[string]core.Vec3) {
	stock := actor.NewModel(core.Vec3{}).Anchors
	set := func(name, from string) {
		if name == "" {
			return
		}
		if _, ok := m.Anchors[name]; !ok {
			m.Anchors[name] = stock[from]
		}
	}
	for name, off := range explicit {
		m.Anchors[name] = off
	}
	for _, w := range cat.Weapons {
		an := w.Presentation.Anchors
		set(an.BarrelFlash, "muzzle")
		if w.OutputType == core.OutputProjectile {
			set(an.Projectile, "tube")
		} else {
			set(an.Projectile, "muzzle")
		}
		set(an.Cartridge, "ejector")
	}
}

// Arena returns the world the run plays in.
func (r *Runner) Arena() *arena.Arena { return r.arena }

// Actor returns the actor with the given id.
func (r *Runner) Actor(id core.EntityID) (*actor.Actor, bool) {
	for _, m := range r.members {
		if m.spec.ID == id {
			return m.actor, true
		}
	}
	return nil, false
}

// TickRate is the number of steps per simulated second.
func (r *Runner) TickRate() float64 { return r.rate }

// TotalTicks is the number of steps a full run takes.
func (r *Runner) TotalTicks() uint { return r.total }

// Tick returns the last step played.
func (r *Runner) Tick() uint { return r.tick }

// Start opens the session and registers every actor. The returned session
// carries the id assigned by the journal, if any.
func (r *Runner) Start(startTime time.Time) (*core.Session, error) {
	s := &core.Session{
		Name:         r.sc.Name,
		Scenario:     r.sc.Path,
		Catalog:      r.sc.CatalogPath(),
		StartTime:    startTime,
		TickRate:     r.rate,
		InfiniteAmmo: r.deps.Combat.InfiniteAmmo,
		Settings: map[string]any{
			"duration":        r.sc.Duration,
			"seed":            r.sc.Seed,
			"infiniteGrenade": r.deps.Combat.InfiniteGrenade,
		},
	}
	out, err := r.deps.Dispatcher.Dispatch(dispatcher.Event{Command: core.CmdNewSession, Payload: s, Timestamp: startTime})
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if id, ok := out.(uint); ok {
		s.ID = id
	}
	r.deps.Session.SetSession(s)

	for _, m := range r.members {
		health, _ := r.arena.Health(m.spec.ID)
		a := &core.Actor{
			EntityID: m.spec.ID,
			Kind:     m.spec.Kind,
			Name:     m.spec.Name,
			Team:     m.spec.Team,
			Health:   health,
			Spawn:    m.spec.Position,
			Weapons:  m.actor.Catalog().Names(),
			JoinTime: startTime,
		}
		if _, err := r.deps.Dispatcher.Dispatch(dispatcher.Event{Command: core.CmdNewActor, Payload: a, Timestamp: startTime}); err != nil {
			return nil, fmt.Errorf("failed to register actor %s: %w", m.spec.ID, err)
		}
	}
	r.log.Info("session started", "session", s.ID, "actors", len(r.members), "ticks", r.total, "tickRate", r.rate)
	return s, nil
}

// Step plays one tick: every actor ticks on its own goroutine, then due
// pickups are handed out and the arena moves its bodies. Actor errors are
// joined.
func (r *Runner) Step() error {
	r.tick++
	r.deps.Session.SetTick(r.tick)
	r.arena.BeginTick(r.tick)
	dt := 1 / r.rate

	errs := make([]error, len(r.members))
	var wg sync.WaitGroup
	for i, m := range r.members {
		i, m := i, m
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.stepMember(m, dt)
		}()
	}
	wg.Wait()

	for _, p := range r.pickups[r.tick] {
		a, ok := r.Actor(p.Actor)
		if !ok {
			errs = append(errs, fmt.Errorf("pickup for %s: unknown actor", p.Actor))
			continue
		}
		if _, err := a.Collect(p.Pickup); err != nil {
			errs = append(errs, fmt.Errorf("pickup for %s: %w", p.Actor, err))
		}
	}

	r.arena.Step(dt)
	return errors.Join(errs...)
}

func (r *Runner) stepMember(m *member, dt float64) error {
	if m.player != nil {
		return m.player.Update(dt)
	}
	target, ok := r.target(m)
	if !ok {
		return m.enemy.Idle(dt)
	}
	_, err := m.enemy.TryAttack(dt, target)
	return err
}

// target returns the aim point of an enemy's target while it is alive and
// within range.
func (r *Runner) target(m *member) (core.Vec3, bool) {
	if m.spec.Target == "" {
		return core.Vec3{}, false
	}
	if _, alive := r.arena.Health(m.spec.Target); !alive {
		return core.Vec3{}, false
	}
	pos, ok := r.arena.Position(m.spec.Target)
	if !ok {
		return core.Vec3{}, false
	}
	flat := pos.Sub(m.spec.Position)
	flat.Y = 0
	if flat.Len() > m.spec.AttackRange {
		return core.Vec3{}, false
	}
	return pos.Add(core.Vec3{Y: aimHeight}), true
}

// Run steps until the scenario's duration is up, ctx is done, or, when
// asked to, one team is left standing. An actor error stops the run.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var pace <-chan time.Time
	if r.deps.Realtime {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / r.rate))
		defer ticker.Stop()
		pace = ticker.C
	}
	for r.tick < r.total {
		if pace != nil {
			select {
			case <-ctx.Done():
			case <-pace:
			}
		}
		if err := ctx.Err(); err != nil {
			return r.result(false), err
		}
		if err := r.Step(); err != nil {
			return r.result(false), fmt.Errorf("tick %d: %w", r.tick, err)
		}
		if r.sc.StopWhenDecided && r.decided() {
			r.log.Info("one team left", "tick", r.tick)
			return r.result(true), nil
		}
	}
	return r.result(false), nil
}

func (r *Runner) result(decided bool) Result {
	return Result{Ticks: r.tick, Survivors: r.Survivors(), Decided: decided}
}

// Survivors returns the actors still alive, in scenario order.
func (r *Runner) Survivors() []core.EntityID {
	var out []core.EntityID
	for _, m := range r.members {
		if m.actor.Alive() {
			out = append(out, m.spec.ID)
		}
	}
	return out
}

// Population reports how many actors the run has and how many are alive.
func (r *Runner) Population() (actors, alive int) {
	return len(r.members), len(r.Survivors())
}

func team(s ActorSpec) string {
	if s.Team != "" {
		return s.Team
	}
	return "actor:" + string(s.ID)
}

// decided reports whether at most one team has living actors, in a run
// that started with more than one.
func (r *Runner) decided() bool {
	all := make(map[string]bool)
	alive := make(map[string]bool)
	for _, m := range r.members {
		t := team(m.spec)
		all[t] = true
		if m.actor.Alive() {
			alive[t] = true
		}
	}
	return len(all) > 1 && len(alive) <= 1
}
