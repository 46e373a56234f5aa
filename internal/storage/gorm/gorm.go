// Package gormstorage implements the storage.Backend interface using GORM
// with internal queues and a background DB writer goroutine.
package gormstorage

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/OCAP2/gunplay/internal/database"
	"github.com/OCAP2/gunplay/internal/logging"
	"github.com/OCAP2/gunplay/internal/model"
	"github.com/OCAP2/gunplay/internal/model/convert"
	"github.com/OCAP2/gunplay/internal/queue"
	"github.com/OCAP2/gunplay/pkg/core"
)

// DefaultFlushInterval is how often the writer drains the queues.
const DefaultFlushInterval = 2 * time.Second

// ErrNoSession is returned when events are flushed before a session started.
var ErrNoSession = errors.New("no session started")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	LogManager    *logging.SlogManager
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Actors       *queue.Queue[model.Actor]
	Shots        *queue.Queue[model.ShotEvent]
	Hits         *queue.Queue[model.HitEvent]
	Projectiles  *queue.Queue[model.ProjectileEvent]
	Reloads      *queue.Queue[model.ReloadEvent]
	Switches     *queue.Queue[model.SwitchEvent]
	Grenades     *queue.Queue[model.GrenadeEvent]
	Explosions   *queue.Queue[model.ExplosionEvent]
	Pickups      *queue.Queue[model.PickupEvent]
	Kills        *queue.Queue[model.KillEvent]
	Performances *queue.Queue[model.GunplayPerformance]
}

func newQueues() *queues {
	return &queues{
		Actors:       queue.New[model.Actor](),
		Shots:        queue.New[model.ShotEvent](),
		Hits:         queue.New[model.HitEvent](),
		Projectiles:  queue.New[model.ProjectileEvent](),
		Reloads:      queue.New[model.ReloadEvent](),
		Switches:     queue.New[model.SwitchEvent](),
		Grenades:     queue.New[model.GrenadeEvent](),
		Explosions:   queue.New[model.ExplosionEvent](),
		Pickups:      queue.New[model.PickupEvent](),
		Kills:        queue.New[model.KillEvent](),
		Performances: queue.New[model.GunplayPerformance](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64
	session   core.Session

	writeMu   sync.Mutex
	lastWrite atomic.Int64
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(),
	}
}

// DB returns the connection the backend writes to.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
// If no DB was injected via Dependencies, it creates its own postgres connection.
func (b *Backend) Init() error {
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		db, err := database.GetPostgresDB()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	go b.writerLoop()
	return nil
}

// setupDB migrates tables.
func (b *Backend) setupDB() error {
	db := b.deps.DB
	log := b.deps.LogManager

	if db.Name() == "postgres" {
		if err := db.Exec(`CREATE Extension IF NOT EXISTS postgis;`).Error; err != nil {
			return fmt.Errorf("failed to create PostGIS Extension: %w", err)
		}
		log.WriteLog("setupDB", "PostGIS Extension created", "INFO")
	}

	log.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.WriteLog("setupDB", "Database setup complete", "INFO")
	return nil
}

// Close stops the DB writer goroutine and writes what is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() {
		close(b.stopChan)
		<-b.done
	})
	if b.sessionID.Load() == 0 {
		return nil
	}
	return b.Flush()
}

// StartSession inserts the session row and assigns its ID.
func (b *Backend) StartSession(s *core.Session) error {
	if b.deps.DB == nil {
		return nil
	}

	gormSession := convert.CoreToSession(*s)
	gormSession.ID = 0
	if err := b.deps.DB.Create(&gormSession).Error; err != nil {
		return fmt.Errorf("failed to insert new session: %w", err)
	}

	// Assign DB-generated ID back to the core type
	s.ID = gormSession.ID
	b.session = *s

	// Store session ID for the DB writer goroutine
	b.sessionID.Store(uint64(gormSession.ID))
	return nil
}

// SetSessionID sets the current session ID for the DB writer (used by CLI tools).
func (b *Backend) SetSessionID(id uint) {
	b.sessionID.Store(uint64(id))
}

// EndSession writes what is queued and stores the summary and simulated
// end time on the session row.
func (b *Backend) EndSession(summary core.SessionSummary) error {
	if b.deps.DB == nil {
		return nil
	}
	if err := b.Flush(); err != nil {
		return err
	}

	end := b.session.StartTime
	if b.session.TickRate > 0 {
		end = end.Add(time.Duration(float64(summary.Ticks) / b.session.TickRate * float64(time.Second)))
	}
	err := b.deps.DB.Model(&model.Session{}).
		Where("id = ?", b.sessionID.Load()).
		Updates(map[string]any{
			"end_time": sql.NullTime{Time: end, Valid: true},
			"summary":  convert.SummaryToJSON(summary),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// AddActor converts a core actor to GORM and pushes to the write queue.
func (b *Backend) AddActor(a *core.Actor) error {
	b.queues.Actors.Push(convert.CoreToActor(*a))
	return nil
}

// RecordShotEvent converts and queues a shot event.
func (b *Backend) RecordShotEvent(e *core.ShotEvent) error {
	b.queues.Shots.Push(convert.CoreToShotEvent(*e))
	return nil
}

// RecordHitEvent converts and queues a hit event.
func (b *Backend) RecordHitEvent(e *core.HitEvent) error {
	b.queues.Hits.Push(convert.CoreToHitEvent(*e))
	return nil
}

// RecordProjectileEvent converts and queues a projectile event.
func (b *Backend) RecordProjectileEvent(e *core.ProjectileEvent) error {
	b.queues.Projectiles.Push(convert.CoreToProjectileEvent(*e))
	return nil
}

// RecordReloadEvent converts and queues a reload event.
func (b *Backend) RecordReloadEvent(e *core.ReloadEvent) error {
	b.queues.Reloads.Push(convert.CoreToReloadEvent(*e))
	return nil
}

// RecordSwitchEvent converts and queues a switch event.
func (b *Backend) RecordSwitchEvent(e *core.SwitchEvent) error {
	b.queues.Switches.Push(convert.CoreToSwitchEvent(*e))
	return nil
}

// RecordGrenadeEvent converts and queues a grenade throw.
func (b *Backend) RecordGrenadeEvent(e *core.GrenadeThrowEvent) error {
	b.queues.Grenades.Push(convert.CoreToGrenadeEvent(*e))
	return nil
}

// RecordExplosionEvent converts and queues an explosion.
func (b *Backend) RecordExplosionEvent(e *core.ExplosionEvent) error {
	b.queues.Explosions.Push(convert.CoreToExplosionEvent(*e))
	return nil
}

// RecordPickupEvent converts and queues a pickup.
func (b *Backend) RecordPickupEvent(e *core.PickupEvent) error {
	b.queues.Pickups.Push(convert.CoreToPickupEvent(*e))
	return nil
}

// RecordKillEvent converts and queues a kill event.
func (b *Backend) RecordKillEvent(e *core.KillEvent) error {
	b.queues.Kills.Push(convert.CoreToKillEvent(*e))
	return nil
}

// RecordPerformance queues a monitor sample.
func (b *Backend) RecordPerformance(p *model.GunplayPerformance) error {
	b.queues.Performances.Push(*p)
	return nil
}

func clamp16(n int) uint16 {
	if n > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(n)
}

// QueueLengths reports the current write backlog.
func (b *Backend) QueueLengths() model.WriteQueueLengths {
	q := b.queues
	return model.WriteQueueLengths{
		Actors:      clamp16(q.Actors.Len()),
		Shots:       clamp16(q.Shots.Len()),
		Hits:        clamp16(q.Hits.Len()),
		Projectiles: clamp16(q.Projectiles.Len()),
		Reloads:     clamp16(q.Reloads.Len()),
		Switches:    clamp16(q.Switches.Len()),
		Grenades:    clamp16(q.Grenades.Len()),
		Explosions:  clamp16(q.Explosions.Len()),
		Pickups:     clamp16(q.Pickups.Len()),
		Kills:       clamp16(q.Kills.Len()),
	}
}

// GetLastDBWriteDuration returns how long the last flush took.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

// writeQueue writes all items from a queue to the database in a transaction,
// stamping the session id first. Failed batches go back on the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log func(string, string, string), sessionID uint, field func(*T) *uint) error {
	if q.Empty() {
		return nil
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	for i := range items {
		*field(&items[i]) = sessionID
	}
	if err := tx.Create(&items).Error; err != nil {
		log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, err), "ERROR")
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := tx.Commit().Error; err != nil {
		q.Push(items...)
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return nil
}

// Flush drains every queue into the database once.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}
	id := uint(b.sessionID.Load())
	if id == 0 {
		return ErrNoSession
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	start := time.Now()
	defer func() { b.lastWrite.Store(int64(time.Since(start))) }()

	db, q, log := b.deps.DB, b.queues, b.deps.LogManager.WriteLog
	return errors.Join(
		// Entities first so events never reference a missing actor row
		writeQueue(db, q.Actors, "actors", log, id, func(m *model.Actor) *uint { return &m.SessionID }),

		writeQueue(db, q.Shots, "shot events", log, id, func(m *model.ShotEvent) *uint { return &m.SessionID }),
		writeQueue(db, q.Hits, "hit events", log, id, func(m *model.HitEvent) *uint { return &m.SessionID }),
		writeQueue(db, q.Projectiles, "projectile events", log, id, func(m *model.ProjectileEvent) *uint { return &m.SessionID }),
		writeQueue(db, q.Reloads, "reload events", log, id, func(m *model.ReloadEvent) *uint { return &m.SessionID }),
		writeQueue(db, q.Switches, "switch events", log, id, func(m *model.SwitchEvent) *uint { return &m.SessionID }),
		writeQueue(db, q.Grenades, "grenade events", log, id, func(m *model.GrenadeEvent) *uint { return &m.SessionID }),
		writeQueue(db, q.Explosions, "explosion events", log, id, func(m *model.ExplosionEvent) *uint { return &m.SessionID }),
		writeQueue(db, q.Pickups, "pickup events", log, id, func(m *model.PickupEvent) *uint { return &m.SessionID }),
		writeQueue(db, q.Kills, "kill events", log, id, func(m *model.KillEvent) *uint { return &m.SessionID }),
		writeQueue(db, q.Performances, "performance samples", log, id, func(m *model.GunplayPerformance) *uint { return &m.SessionID }),
	)
}

// writerLoop periodically drains queues into the DB until Close.
func (b *Backend) writerLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if b.sessionID.Load() == 0 {
				continue
			}
			// errors are logged by writeQueue and the batch is retried next cycle
			_ = b.Flush()
		}
	}
}
