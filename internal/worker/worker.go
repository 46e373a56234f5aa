package worker

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/OCAP2/gunplay/internal/cache"
	"github.com/OCAP2/gunplay/internal/logging"
	"github.com/OCAP2/gunplay/internal/model"
	"github.com/OCAP2/gunplay/internal/session"
	"github.com/OCAP2/gunplay/internal/storage"
	"github.com/OCAP2/gunplay/pkg/core"
)

// ErrTooEarlyForActorAssociation is returned when an actor's event arrives
// before the actor is registered
var ErrTooEarlyForActorAssociation = errors.New("too early for actor association")

// ErrAlreadyDead is returned for a second kill of the same actor
var ErrAlreadyDead = errors.New("actor already dead")

// ErrBadPayload is returned when an event carries the wrong payload type
var ErrBadPayload = errors.New("unexpected event payload")

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	ActorCache     *cache.ActorCache
	LogManager     *logging.SlogManager
	SessionContext *session.Context
}

// counters holds the running totals that make up the session summary
type counters struct {
	Shots      cache.Counter
	Hits       cache.Counter
	Reloads    cache.Counter
	Switches   cache.Counter
	Grenades   cache.Counter
	Explosions cache.Counter
	Pickups    cache.Counter
	Kills      cache.Counter
}

// Manager turns dispatched combat events into journal writes
type Manager struct {
	deps     Dependencies
	backend  storage.Backend
	counters *counters

	fxMu sync.Mutex
	fx   map[core.FXKind]int
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.ActorCache == nil {
		deps.ActorCache = cache.NewActorCache()
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.SessionContext == nil {
		deps.SessionContext = session.NewContext()
	}
	return &Manager{
		deps:     deps,
		backend:  backend,
		counters: &counters{},
		fx:       make(map[core.FXKind]int),
	}
}

// SetBackend replaces the journal backend.
func (m *Manager) SetBackend(b storage.Backend) {
	m.backend = b
}

func (m *Manager) hasBackend() bool {
	return m.backend != nil
}

func (m *Manager) reset() {
	c := m.counters
	for _, sc := range []*cache.Counter{&c.Shots, &c.Hits, &c.Reloads, &c.Switches, &c.Grenades, &c.Explosions, &c.Pickups, &c.Kills} {
		sc.Set(0)
	}
	m.fxMu.Lock()
	m.fx = make(map[core.FXKind]int)
	m.fxMu.Unlock()
}

// Summary returns the totals counted so far. Ticks and survivors come
// from the runner.
func (m *Manager) Summary(ticks uint, survivors []core.EntityID) core.SessionSummary {
	c := m.counters
	return core.SessionSummary{
		Ticks:      ticks,
		Shots:      c.Shots.Value(),
		Hits:       c.Hits.Value(),
		Reloads:    c.Reloads.Value(),
		Switches:   c.Switches.Value(),
		Grenades:   c.Grenades.Value(),
		Explosions: c.Explosions.Value(),
		Kills:      c.Kills.Value(),
		Survivors:  survivors,
	}
}

// Alive lists the actors of the session that have not been killed.
func (m *Manager) Alive() []core.EntityID {
	return m.deps.ActorCache.Alive()
}

// Pickups returns the number of accepted pickups.
func (m *Manager) Pickups() int {
	return m.counters.Pickups.Value()
}

// FXCount returns how many presentation calls of a kind were forwarded.
func (m *Manager) FXCount(kind core.FXKind) int {
	m.fxMu.Lock()
	defer m.fxMu.Unlock()
	return m.fx[kind]
}

// BufferLenProvider reports per-command dispatcher backlog.
type BufferLenProvider interface {
	BufferLen(command string) int
}

func clamp16(n int) uint16 {
	if n > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(n)
}

// BufferLengths samples the dispatcher queues of the journaled commands.
func BufferLengths(p BufferLenProvider) model.BufferLengths {
	return model.BufferLengths{
		Shots:      clamp16(p.BufferLen(core.CmdShot)),
		Hits:       clamp16(p.BufferLen(core.CmdHit)),
		Reloads:    clamp16(p.BufferLen(core.CmdReload)),
		Switches:   clamp16(p.BufferLen(core.CmdSwitch)),
		Explosions: clamp16(p.BufferLen(core.CmdExplosion)),
		Kills:      clamp16(p.BufferLen(core.CmdKill)),
	}
}

// QueueLengths returns the backend's write backlog, if it reports one.
func (m *Manager) QueueLengths() model.WriteQueueLengths {
	if r, ok := m.backend.(storage.QueueReporter); ok {
		return r.QueueLengths()
	}
	return model.WriteQueueLengths{}
}

// RecordPerformance forwards a monitor sample to backends that keep them.
func (m *Manager) RecordPerformance(p *model.GunplayPerformance) error {
	if r, ok := m.backend.(storage.PerformanceRecorder); ok {
		return r.RecordPerformance(p)
	}
	return nil
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}
