// pkg/core/events.go
package core

import (
	"time"
)

// ShotEvent represents one sub-shot leaving a weapon.
// A round with OutputPerRound > 1 produces several ShotEvents with the same Round.
type ShotEvent struct {
	ActorID   EntityID
	Time      time.Time
	Tick      uint
	Weapon    string
	Output    OutputType
	Round     uint // per-actor round counter
	Origin    Vec3
	Direction Vec3
	Spread    Vec3
}

// HitEvent represents a ray shot or an explosion hitting a collider.
type HitEvent struct {
	Time      time.Time
	Tick      uint
	ShooterID EntityID
	TargetID  EntityID // empty when the collider has no owner
	Weapon    string
	Point     Vec3
	Distance  float64
	Damage    float64
	Area      bool
	Valid     bool // false for triggers without a damageable
}

// ProjectileEvent represents a body launched by a projectile weapon.
type ProjectileEvent struct {
	Time     time.Time
	Tick     uint
	ActorID  EntityID
	Weapon   string
	Prefab   string
	Origin   Vec3
	Velocity Vec3
}

// ReloadPhase tells which part of a reload a ReloadEvent reports.
type ReloadPhase string

const (
	ReloadStarted   ReloadPhase = "started"
	ReloadStep      ReloadPhase = "step" // one partialRepeat iteration
	ReloadCompleted ReloadPhase = "completed"
	ReloadAborted   ReloadPhase = "aborted"
)

// ReloadEvent represents a reload transition.
type ReloadEvent struct {
	Time        time.Time
	Tick        uint
	ActorID     EntityID
	Weapon      string
	Mode        ReloadingType
	Phase       ReloadPhase
	Transferred int // rounds moved from the ledger by this transition
	Capacity    int // slot capacity after the transition
	Ledger      int // ledger balance after the transition
}

// SwitchPhase tells which part of a switch a SwitchEvent reports.
type SwitchPhase string

const (
	SwitchStarted   SwitchPhase = "started"
	SwitchLoaded    SwitchPhase = "loaded"
	SwitchCompleted SwitchPhase = "completed"
	SwitchImmediate SwitchPhase = "immediate"
)

// SwitchEvent represents a weapon switch transition.
type SwitchEvent struct {
	Time    time.Time
	Tick    uint
	ActorID EntityID
	From    string
	To      string
	Phase   SwitchPhase
	Forced  bool
}

// GrenadeThrowEvent represents a thrown grenade.
type GrenadeThrowEvent struct {
	Time      time.Time
	Tick      uint
	ActorID   EntityID
	Origin    Vec3
	Velocity  Vec3
	Remaining int // -1 when infinite
}

// Damage is one entry of an explosion's damage list.
type Damage struct {
	TargetID EntityID `json:"targetId"`
	Amount   float64  `json:"amount"`
	Distance float64  `json:"distance"`
}

// ExplosionEvent represents a body detonating.
type ExplosionEvent struct {
	Time     time.Time
	Tick     uint
	SourceID EntityID // actor that threw or fired the body
	Weapon   string   // empty for grenades
	Center   Vec3
	Radius   float64
	Damages  []Damage
}

// PickupKind separates the three collectable kinds.
type PickupKind string

const (
	PickupWeapon  PickupKind = "weapon"
	PickupAmmo    PickupKind = "ammo"
	PickupGrenade PickupKind = "grenade"
)

// PickupEvent represents an actor touching a collectable.
type PickupEvent struct {
	Time     time.Time
	Tick     uint
	ActorID  EntityID
	Kind     PickupKind
	Item     string // weapon name or ammo type
	Amount   int
	Accepted bool
}

// KillEvent represents an entity's health reaching zero.
type KillEvent struct {
	Time     time.Time
	Tick     uint
	VictimID EntityID
	KillerID EntityID
	Weapon   string
	Area     bool
}

// FXKind tells which presentation hook an FXEvent came from.
type FXKind string

const (
	FXAnimation FXKind = "animation"
	FXAudio     FXKind = "audio"
	FXVisual    FXKind = "visual"
)

// FXEvent represents a forwarded presentation call. Animation events are
// only sent when the value changes.
type FXEvent struct {
	Tick    uint
	ActorID EntityID
	Kind    FXKind
	Name    string
	Value   bool
	At      Transform
}
