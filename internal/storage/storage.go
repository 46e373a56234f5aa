// Package storage defines the journal backends a session is recorded to.
package storage

import (
	"github.com/OCAP2/gunplay/internal/model"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession(summary core.SessionSummary) error

	// Actor registration (may assign ID to the passed pointer)
	AddActor(a *core.Actor) error

	// Event recording
	RecordShotEvent(e *core.ShotEvent) error
	RecordHitEvent(e *core.HitEvent) error
	RecordProjectileEvent(e *core.ProjectileEvent) error
	RecordReloadEvent(e *core.ReloadEvent) error
	RecordSwitchEvent(e *core.SwitchEvent) error
	RecordGrenadeEvent(e *core.GrenadeThrowEvent) error
	RecordExplosionEvent(e *core.ExplosionEvent) error
	RecordPickupEvent(e *core.PickupEvent) error
	RecordKillEvent(e *core.KillEvent) error
}

// Exportable is an optional interface for backends that leave a file
// behind once the session ends.
type Exportable interface {
	ExportedFilePath() string
}

// QueueReporter is an optional interface for backends that batch writes.
// The monitor samples it.
type QueueReporter interface {
	QueueLengths() model.WriteQueueLengths
}

// PerformanceRecorder is an optional interface for backends that keep
// the monitor's samples next to the session.
type PerformanceRecorder interface {
	RecordPerformance(p *model.GunplayPerformance) error
}
