package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&Actor{},
	&ShotEvent{},
	&HitEvent{},
	&ProjectileEvent{},
	&ReloadEvent{},
	&SwitchEvent{},
	&GrenadeEvent{},
	&ExplosionEvent{},
	&PickupEvent{},
	&KillEvent{},
	&GunplayPerformance{},
}

// Hypertables maps the tables TimescaleDB partitions by time to the
// columns their compressed chunks are segmented by. Only tables without a
// primary key qualify.
var Hypertables = map[string][]string{
	"gunplay_performances": {"session_id"},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// GunplayPerformance is the model for journal performance metrics
type GunplayPerformance struct {
	Time                time.Time         `json:"time" gorm:"index:idx_time"`
	SessionID           uint              `json:"sessionId" gorm:"index:idx_gunplayperformance_session_id"`
	Session             Session           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick                uint              `json:"tick"`
	Actors              uint16            `json:"actors"`
	Alive               uint16            `json:"alive"`
	BufferLengths       BufferLengths     `json:"bufferLengths" gorm:"embedded;embeddedPrefix:buffer_"`
	WriteQueueLengths   WriteQueueLengths `json:"writeQueueLengths" gorm:"embedded;embeddedPrefix:writequeue_"`
	LastWriteDurationMs float32           `json:"lastWriteDurationMs"`
}

func (*GunplayPerformance) TableName() string {
	return "gunplay_performances"
}

// BufferLengths is the model for the dispatcher buffer lengths
type BufferLengths struct {
	Shots      uint16 `json:"shots"`
	Hits       uint16 `json:"hits"`
	Reloads    uint16 `json:"reloads"`
	Switches   uint16 `json:"switches"`
	Explosions uint16 `json:"explosions"`
	Kills      uint16 `json:"kills"`
}

// WriteQueueLengths is the model for the write queue lengths
type WriteQueueLengths struct {
	Actors      uint16 `json:"actors"`
	Shots       uint16 `json:"shots"`
	Hits        uint16 `json:"hits"`
	Projectiles uint16 `json:"projectiles"`
	Reloads     uint16 `json:"reloads"`
	Switches    uint16 `json:"switches"`
	Grenades    uint16 `json:"grenades"`
	Explosions  uint16 `json:"explosions"`
	Pickups     uint16 `json:"pickups"`
	Kills       uint16 `json:"kills"`
}

////////////////////////
// SESSION MODELS
////////////////////////

// Session is the main model for one scenario run
type Session struct {
	gorm.Model
	Name         string         `json:"name" gorm:"size:200"`
	Scenario     string         `json:"scenario" gorm:"size:255"`
	Catalog      string         `json:"catalog" gorm:"size:255"`
	StartTime    time.Time      `json:"sessionStart" gorm:"index:idx_session_start"`
	EndTime      sql.NullTime   `json:"sessionEnd" gorm:"default:NULL"`
	TickRate     float64        `json:"tickRate" gorm:"default:60"`
	InfiniteAmmo bool           `json:"infiniteAmmo" gorm:"default:false"`
	Settings     datatypes.JSON `json:"settings" gorm:"type:jsonb;default:'{}'"`
	Summary      datatypes.JSON `json:"summary" gorm:"type:jsonb;default:'{}'"`

	Actors     []Actor
	ShotEvents []ShotEvent
	HitEvents  []HitEvent
	KillEvents []KillEvent
}

func (*Session) TableName() string {
	return "sessions"
}

// Actor is a combat participant of a session
//
// Command: :NEW:ACTOR:
type Actor struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID uint           `json:"sessionId" gorm:"index:idx_actor_session_id"`
	Session   Session        `gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	EntityID  string         `json:"entityId" gorm:"size:64;index:idx_actor_entity_id"` // Arena entity id, unique within a session
	Kind      string         `json:"kind" gorm:"size:16;default:player"`                // player or enemy
	Name      string         `json:"name" gorm:"size:64"`
	Team      string         `json:"team" gorm:"size:64"`
	Health    float64        `json:"health"`
	Spawn     geom.Point     `json:"spawn"`                               // Ground X/Z with height as Z ordinate
	Weapons   datatypes.JSON `json:"weapons" gorm:"type:jsonb;default:'[]'"` // Weapon names in slot order
	JoinTime  time.Time      `json:"joinTime" gorm:"NOT NULL"`
}

func (*Actor) TableName() string {
	return "actors"
}

////////////////////////
// COMBAT EVENTS
////////////////////////

// ShotEvent is one sub-shot leaving a weapon
//
// Command: :SHOT:
type ShotEvent struct {
	ID            uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	Time          time.Time  `json:"time" gorm:"index"`
	SessionID     uint       `json:"sessionId" gorm:"index:idx_shotevent_session_id"`
	Session       Session    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick          uint       `json:"tick" gorm:"index:idx_shotevent_tick"`
	ActorEntityID string     `json:"actorId" gorm:"size:64;index:idx_shotevent_actor"`
	Weapon        string     `json:"weapon" gorm:"size:64"`
	Output        string     `json:"output" gorm:"size:16"` // ray or projectile
	Round         uint       `json:"round"`                 // Sub-shots of one round share it
	Origin        geom.Point `json:"origin"`
	DirectionX    float64    `json:"directionX"`
	DirectionY    float64    `json:"directionY"`
	DirectionZ    float64    `json:"directionZ"`
	Spread        string     `json:"spread" gorm:"size:96"` // Spread offset "x,y,z"
}

func (*ShotEvent) TableName() string {
	return "shot_events"
}

// HitEvent is a ray or an explosion reaching a collider
//
// Command: :HIT:
type HitEvent struct {
	ID              uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time            time.Time      `json:"time" gorm:"index"`
	SessionID       uint           `json:"sessionId" gorm:"index:idx_hitevent_session_id"`
	Session         Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick            uint           `json:"tick" gorm:"index:idx_hitevent_tick"`
	ShooterEntityID string         `json:"shooterId" gorm:"size:64;index:idx_hitevent_shooter"`
	TargetEntityID  sql.NullString `json:"targetId" gorm:"size:64;default:NULL"` // NULL for static geometry
	Weapon          string         `json:"weapon" gorm:"size:64"`
	Point           geom.Point     `json:"point"`
	Distance        float32        `json:"distance"`
	Damage          float32        `json:"damage"`
	Area            bool           `json:"area" gorm:"default:false"`
	Valid           bool           `json:"valid" gorm:"default:true"`
}

func (*HitEvent) TableName() string {
	return "hit_events"
}

// ProjectileEvent is a body launched by a projectile weapon
//
// Command: :PROJECTILE:
type ProjectileEvent struct {
	ID            uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	Time          time.Time  `json:"time" gorm:"index"`
	SessionID     uint       `json:"sessionId" gorm:"index:idx_projectile_session_id"`
	Session       Session    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick          uint       `json:"tick"`
	ActorEntityID string     `json:"actorId" gorm:"size:64;index:idx_projectile_actor"`
	Weapon        string     `json:"weapon" gorm:"size:64"`
	Prefab        string     `json:"prefab" gorm:"size:64"`
	Origin        geom.Point `json:"origin"`
	Velocity      string     `json:"velocity" gorm:"size:96"` // Initial velocity vector "vx,vy,vz"
}

func (*ProjectileEvent) TableName() string {
	return "projectile_events"
}

// ReloadEvent is a reload transition
//
// Command: :RELOAD:
type ReloadEvent struct {
	ID            uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time          time.Time `json:"time" gorm:"index"`
	SessionID     uint      `json:"sessionId" gorm:"index:idx_reloadevent_session_id"`
	Session       Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick          uint      `json:"tick"`
	ActorEntityID string    `json:"actorId" gorm:"size:64;index:idx_reloadevent_actor"`
	Weapon        string    `json:"weapon" gorm:"size:64"`
	Mode          string    `json:"mode" gorm:"size:16"`  // full, partial, partialRepeat
	Phase         string    `json:"phase" gorm:"size:16"` // started, step, completed, aborted
	Transferred   int       `json:"transferred"`
	Capacity      int       `json:"capacity"`
	Ledger        int       `json:"ledger"`
}

func (*ReloadEvent) TableName() string {
	return "reload_events"
}

// SwitchEvent is a weapon switch transition
//
// Command: :SWITCH:
type SwitchEvent struct {
	ID            uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time          time.Time `json:"time" gorm:"index"`
	SessionID     uint      `json:"sessionId" gorm:"index:idx_switchevent_session_id"`
	Session       Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick          uint      `json:"tick"`
	ActorEntityID string    `json:"actorId" gorm:"size:64;index:idx_switchevent_actor"`
	FromWeapon    string    `json:"from" gorm:"size:64"`
	ToWeapon      string    `json:"to" gorm:"size:64"`
	Phase         string    `json:"phase" gorm:"size:16"`
	Forced        bool      `json:"forced" gorm:"default:false"`
}

func (*SwitchEvent) TableName() string {
	return "switch_events"
}

// GrenadeEvent is a thrown grenade
//
// Command: :GRENADE:
type GrenadeEvent struct {
	ID            uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	Time          time.Time  `json:"time" gorm:"index"`
	SessionID     uint       `json:"sessionId" gorm:"index:idx_grenadeevent_session_id"`
	Session       Session    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick          uint       `json:"tick"`
	ActorEntityID string     `json:"actorId" gorm:"size:64;index:idx_grenadeevent_actor"`
	Origin        geom.Point `json:"origin"`
	Velocity      string     `json:"velocity" gorm:"size:96"`
	Remaining     int        `json:"remaining"` // -1 when infinite
}

func (*GrenadeEvent) TableName() string {
	return "grenade_events"
}

// ExplosionEvent is a body detonating
//
// Command: :EXPLOSION:
type ExplosionEvent struct {
	ID             uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time           time.Time      `json:"time" gorm:"index"`
	SessionID      uint           `json:"sessionId" gorm:"index:idx_explosionevent_session_id"`
	Session        Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick           uint           `json:"tick"`
	SourceEntityID string         `json:"sourceId" gorm:"size:64;index:idx_explosionevent_source"`
	Weapon         string         `json:"weapon" gorm:"size:64"` // Empty for grenades
	Center         geom.Point     `json:"center"`
	Radius         float32        `json:"radius"`
	Damages        datatypes.JSON `json:"damages" gorm:"type:jsonb;default:'[]'"`
}

func (*ExplosionEvent) TableName() string {
	return "explosion_events"
}

// PickupEvent is an actor touching a collectable
//
// Command: :PICKUP:
type PickupEvent struct {
	ID            uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time          time.Time `json:"time" gorm:"index"`
	SessionID     uint      `json:"sessionId" gorm:"index:idx_pickupevent_session_id"`
	Session       Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick          uint      `json:"tick"`
	ActorEntityID string    `json:"actorId" gorm:"size:64"`
	Kind          string    `json:"kind" gorm:"size:16"`
	Item          string    `json:"item" gorm:"size:64"`
	Amount        int       `json:"amount"`
	Accepted      bool      `json:"accepted"`
}

func (*PickupEvent) TableName() string {
	return "pickup_events"
}

// KillEvent is an entity's health reaching zero
//
// Command: :KILL:
type KillEvent struct {
	ID   uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time time.Time `json:"time" gorm:"index"`

	SessionID      uint    `json:"sessionId" gorm:"index:idx_killevent_session_id"`
	Session        Session `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick           uint    `json:"tick" gorm:"index:idx_killevent_tick;"`
	VictimEntityID string  `json:"victimId" gorm:"size:64;index:idx_killevent_victim"`
	KillerEntityID string  `json:"killerId" gorm:"size:64;index:idx_killevent_killer"`
	Weapon         string  `json:"weapon" gorm:"size:64"`
	Area           bool    `json:"area" gorm:"default:false"`
}

func (*KillEvent) TableName() string {
	return "kill_events"
}
