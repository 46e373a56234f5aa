// Package memory implements the storage.Backend interface by holding a
// session in memory and exporting it to JSON when it ends.
package memory

import (
	"errors"
	"sync"

	"github.com/OCAP2/gunplay/internal/config"
	"github.com/OCAP2/gunplay/pkg/core"
)

// ErrNoSession is returned when a session is ended before it was started.
var ErrNoSession = errors.New("no session started")

// ActorRecord groups an actor with everything it did
type ActorRecord struct {
	Actor    core.Actor
	Shots    []core.ShotEvent
	Reloads  []core.ReloadEvent
	Switches []core.SwitchEvent
	Grenades []core.GrenadeThrowEvent
	Pickups  []core.PickupEvent
}

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session
	summary core.SessionSummary

	actors map[core.EntityID]*ActorRecord
	order  []core.EntityID

	hitEvents        []core.HitEvent
	projectileEvents []core.ProjectileEvent
	explosionEvents  []core.ExplosionEvent
	killEvents       []core.KillEvent

	idCounter      uint
	sessionCounter uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:    cfg,
		actors: make(map[core.EntityID]*ActorRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session. A session without an ID
// gets the next one.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessionCounter++
	if s.ID == 0 {
		s.ID = b.sessionCounter
	}
	b.session = s
	b.summary = core.SessionSummary{}

	// Reset all collections
	b.actors = make(map[core.EntityID]*ActorRecord)
	b.order = nil
	b.hitEvents = nil
	b.projectileEvents = nil
	b.explosionEvents = nil
	b.killEvents = nil
	b.idCounter = 0
	b.lastExportPath = ""

	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession(summary core.SessionSummary) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.summary = summary
	return b.exportJSON()
}

// ExportedFilePath returns the file written by the last EndSession.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// AddActor registers a new actor. Registering an entity twice replaces
// the actor but keeps its history.
func (b *Backend) AddActor(a *core.Actor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rec, ok := b.actors[a.EntityID]; ok {
		a.ID = rec.Actor.ID
		rec.Actor = *a
		return nil
	}
	b.idCounter++
	a.ID = b.idCounter
	b.actors[a.EntityID] = &ActorRecord{Actor: *a}
	b.order = append(b.order, a.EntityID)
	return nil
}

// GetActor looks up an actor by entity id
func (b *Backend) GetActor(id core.EntityID) (*core.Actor, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if record, ok := b.actors[id]; ok {
		a := record.Actor
		return &a, true
	}
	return nil, false
}

// withActor runs fn on the actor's record. Events of unknown actors are
// silently dropped.
func (b *Backend) withActor(id core.EntityID, fn func(*ActorRecord)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if record, ok := b.actors[id]; ok {
		fn(record)
	}
	return nil
}

// RecordShotEvent records a sub-shot
func (b *Backend) RecordShotEvent(e *core.ShotEvent) error {
	return b.withActor(e.ActorID, func(r *ActorRecord) { r.Shots = append(r.Shots, *e) })
}

// RecordReloadEvent records a reload transition
func (b *Backend) RecordReloadEvent(e *core.ReloadEvent) error {
	return b.withActor(e.ActorID, func(r *ActorRecord) { r.Reloads = append(r.Reloads, *e) })
}

// RecordSwitchEvent records a weapon switch transition
func (b *Backend) RecordSwitchEvent(e *core.SwitchEvent) error {
	return b.withActor(e.ActorID, func(r *ActorRecord) { r.Switches = append(r.Switches, *e) })
}

// RecordGrenadeEvent records a grenade throw
func (b *Backend) RecordGrenadeEvent(e *core.GrenadeThrowEvent) error {
	return b.withActor(e.ActorID, func(r *ActorRecord) { r.Grenades = append(r.Grenades, *e) })
}

// RecordPickupEvent records a pickup
func (b *Backend) RecordPickupEvent(e *core.PickupEvent) error {
	return b.withActor(e.ActorID, func(r *ActorRecord) { r.Pickups = append(r.Pickups, *e) })
}

// RecordHitEvent records a hit event
func (b *Backend) RecordHitEvent(e *core.HitEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hitEvents = append(b.hitEvents, *e)
	return nil
}

// RecordProjectileEvent records a launched projectile
func (b *Backend) RecordProjectileEvent(e *core.ProjectileEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.projectileEvents = append(b.projectileEvents, *e)
	return nil
}

// RecordExplosionEvent records an explosion
func (b *Backend) RecordExplosionEvent(e *core.ExplosionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.explosionEvents = append(b.explosionEvents, *e)
	return nil
}

// RecordKillEvent records a kill event
func (b *Backend) RecordKillEvent(e *core.KillEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.killEvents = append(b.killEvents, *e)
	return nil
}
