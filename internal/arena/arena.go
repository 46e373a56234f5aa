// Package arena is the world the combat engines shoot into: actor bodies
// with health, props, walls and the grenades and rockets in flight.
package arena

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/internal/geo"
	"github.com/OCAP2/gunplay/internal/grenade"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Default body and world parameters.
const (
	DefaultRadius  = 0.4
	DefaultHeight  = 1.8
	DefaultHealth  = 100.0
	DefaultGravity = 9.81
	// Restitution scales a body's velocity when it bounces.
	Restitution = 0.4
)

// ErrDuplicateEntity is returned when an id is registered twice.
var ErrDuplicateEntity = errors.New("entity already registered")

// Observer is told about detonations and deaths.
type Observer interface {
	OnExplosion(ev core.ExplosionEvent, hits []core.HitEvent)
	OnKill(ev core.KillEvent)
}

// Clock maps a tick to its wall time in the session.
type Clock interface {
	TimeAt(tick uint) time.Time
}

// Config tunes the world.
type Config struct {
	Gravity  float64
	Observer Observer
	Clock    Clock
	Logger   *slog.Logger
}

// Entity describes a collider to add: an actor body or a prop. Every
// collider is an upright cylinder standing on Position.
type Entity struct {
	ID         core.EntityID
	Position   core.Vec3
	Radius     float64
	Height     float64
	Layer      uint32
	Health     float64
	Trigger    bool
	Damageable bool
	Rigid      bool
	// OnKill runs once when health reaches zero.
	OnKill func()
}

type entity struct {
	Entity
	velocity core.Vec3
	dead     bool
	killer   core.EntityID
}

type visual struct {
	prefab    string
	remaining float64
}

// Arena implements the spatial query, damage sink, projectile spawner,
// force receiver and visuals the effect resolver needs. It is safe for
// concurrent use by actors ticking in parallel.
type Arena struct {
	cfg      Config
	log      *slog.Logger
	resolver *effects.Resolver

	mu       sync.RWMutex
	entities map[core.EntityID]*entity
	order    []core.EntityID
	walls    []geo.Wall
	bodies   []*grenade.Body
	visuals  []visual
	nextBody int
	tick     atomic.Uint64
}

// New creates an empty arena.
func New(cfg Config) *Arena {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Gravity == 0 {
		cfg.Gravity = DefaultGravity
	}
	a := &Arena{
		cfg:      cfg,
		log:      cfg.Logger.With("component", "arena"),
		entities: make(map[core.EntityID]*entity),
	}
	a.resolver = effects.NewResolver(effects.Dependencies{
		World:   a,
		Damage:  a,
		Spawner: a,
		Visuals: a,
		Logger:  cfg.Logger,
	})
	return a
}

// Effects returns the resolver bound to this arena.
func (a *Arena) Effects() *effects.Resolver { return a.resolver }

// Add registers a collider. Zero radius, height and health take the
// defaults; health only matters for damageable entities.
func (a *Arena) Add(e Entity) error {
	if e.ID == "" {
		return errors.New("arena: entity id is required")
	}
	if e.Radius <= 0 {
		e.Radius = DefaultRadius
	}
	if e.Height <= 0 {
		e.Height = DefaultHeight
	}
	if e.Health <= 0 {
		e.Health = DefaultHealth
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.entities[e.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntity, e.ID)
	}
	a.entities[e.ID] = &entity{Entity: e}
	a.order = append(a.order, e.ID)
	return nil
}

// AddWall adds static geometry.
func (a *Arena) AddWall(w geo.Wall) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.walls = append(a.walls, w)
}

// Health returns the entity's health and whether it is still alive.
func (a *Arena) Health(id core.EntityID) (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.entities[id]
	if !ok {
		return 0, false
	}
	return e.Health, !e.dead
}

// Position returns where the entity stands.
func (a *Arena) Position(id core.EntityID) (core.Vec3, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.entities[id]
	if !ok {
		return core.Vec3{}, false
	}
	return e.Position, true
}

// Alive returns the ids of damageable entities still standing, in
// registration order.
func (a *Arena) Alive() []core.EntityID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []core.EntityID
	for _, id := range a.order {
		e := a.entities[id]
		if e.Damageable && !e.dead {
			out = append(out, id)
		}
	}
	return out
}

// Bodies returns the number of bodies in flight.
func (a *Arena) Bodies() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.bodies)
}

// Visuals returns the number of visuals still on screen.
func (a *Arena) Visuals() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.visuals)
}

// BeginTick sets the tick stamped on events raised until the next call.
func (a *Arena) BeginTick(tick uint) { a.tick.Store(uint64(tick)) }

func (a *Arena) currentTick() uint { return uint(a.tick.Load()) }

func (a *Arena) at(tick uint) time.Time {
	if a.cfg.Clock == nil {
		return time.Time{}
	}
	return a.cfg.Clock.TimeAt(tick)
}
