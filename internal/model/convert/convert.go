package convert

import (
	"encoding/json"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/OCAP2/gunplay/internal/geo"
	"github.com/OCAP2/gunplay/internal/model"
	"github.com/OCAP2/gunplay/pkg/core"
)

// pointToVec converts a stored point, yielding the origin for empty points.
func pointToVec(p geom.Point) core.Vec3 {
	v, _ := geo.VecFromPoint(p)
	return v
}

// vecFromString parses a stored vector, yielding zero for malformed rows.
func vecFromString(s string) core.Vec3 {
	v, err := geo.Vec3FromString(s)
	if err != nil {
		return core.Vec3{}
	}
	return v
}

// SessionToCore converts a GORM Session to a core.Session.
func SessionToCore(s model.Session) core.Session {
	var settings map[string]any
	if len(s.Settings) > 0 {
		_ = json.Unmarshal(s.Settings, &settings)
	}
	return core.Session{
		ID:           s.ID,
		Name:         s.Name,
		Scenario:     s.Scenario,
		Catalog:      s.Catalog,
		StartTime:    s.StartTime,
		TickRate:     s.TickRate,
		InfiniteAmmo: s.InfiniteAmmo,
		Settings:     settings,
	}
}

// SummaryFromJSON decodes the summary column. An empty column yields a
// zero summary.
func SummaryFromJSON(s model.Session) (core.SessionSummary, error) {
	var sum core.SessionSummary
	if len(s.Summary) == 0 {
		return sum, nil
	}
	err := json.Unmarshal(s.Summary, &sum)
	return sum, err
}

// ActorToCore converts a GORM Actor to a core.Actor.
func ActorToCore(a model.Actor) core.Actor {
	var weapons []string
	if len(a.Weapons) > 0 {
		_ = json.Unmarshal(a.Weapons, &weapons)
	}
	return core.Actor{
		ID:       a.ID,
		EntityID: core.EntityID(a.EntityID),
		Kind:     core.ActorKind(a.Kind),
		Name:     a.Name,
		Team:     a.Team,
		Health:   a.Health,
		Spawn:    pointToVec(a.Spawn),
		Weapons:  weapons,
		JoinTime: a.JoinTime,
	}
}

// ShotEventToCore converts a GORM ShotEvent to a core.ShotEvent.
func ShotEventToCore(e model.ShotEvent) core.ShotEvent {
	return core.ShotEvent{
		ActorID:   core.EntityID(e.ActorEntityID),
		Time:      e.Time,
		Tick:      e.Tick,
		Weapon:    e.Weapon,
		Output:    core.OutputType(e.Output),
		Round:     e.Round,
		Origin:    pointToVec(e.Origin),
		Direction: core.Vec3{X: e.DirectionX, Y: e.DirectionY, Z: e.DirectionZ},
		Spread:    vecFromString(e.Spread),
	}
}

// HitEventToCore converts a GORM HitEvent to a core.HitEvent.
func HitEventToCore(e model.HitEvent) core.HitEvent {
	var target core.EntityID
	if e.TargetEntityID.Valid {
		target = core.EntityID(e.TargetEntityID.String)
	}
	return core.HitEvent{
		Time:      e.Time,
		Tick:      e.Tick,
		ShooterID: core.EntityID(e.ShooterEntityID),
		TargetID:  target,
		Weapon:    e.Weapon,
		Point:     pointToVec(e.Point),
		Distance:  float64(e.Distance),
		Damage:    float64(e.Damage),
		Area:      e.Area,
		Valid:     e.Valid,
	}
}

// ProjectileEventToCore converts a GORM ProjectileEvent to a core.ProjectileEvent.
func ProjectileEventToCore(e model.ProjectileEvent) core.ProjectileEvent {
	return core.ProjectileEvent{
		Time:     e.Time,
		Tick:     e.Tick,
		ActorID:  core.EntityID(e.ActorEntityID),
		Weapon:   e.Weapon,
		Prefab:   e.Prefab,
		Origin:   pointToVec(e.Origin),
		Velocity: vecFromString(e.Velocity),
	}
}

// ReloadEventToCore converts a GORM ReloadEvent to a core.ReloadEvent.
func ReloadEventToCore(e model.ReloadEvent) core.ReloadEvent {
	return core.ReloadEvent{
		Time:        e.Time,
		Tick:        e.Tick,
		ActorID:     core.EntityID(e.ActorEntityID),
		Weapon:      e.Weapon,
		Mode:        core.ReloadingType(e.Mode),
		Phase:       core.ReloadPhase(e.Phase),
		Transferred: e.Transferred,
		Capacity:    e.Capacity,
		Ledger:      e.Ledger,
	}
}

// SwitchEventToCore converts a GORM SwitchEvent to a core.SwitchEvent.
func SwitchEventToCore(e model.SwitchEvent) core.SwitchEvent {
	return core.SwitchEvent{
		Time:    e.Time,
		Tick:    e.Tick,
		ActorID: core.EntityID(e.ActorEntityID),
		From:    e.FromWeapon,
		To:      e.ToWeapon,
		Phase:   core.SwitchPhase(e.Phase),
		Forced:  e.Forced,
	}
}

// GrenadeEventToCore converts a GORM GrenadeEvent to a core.GrenadeThrowEvent.
func GrenadeEventToCore(e model.GrenadeEvent) core.GrenadeThrowEvent {
	return core.GrenadeThrowEvent{
		Time:      e.Time,
		Tick:      e.Tick,
		ActorID:   core.EntityID(e.ActorEntityID),
		Origin:    pointToVec(e.Origin),
		Velocity:  vecFromString(e.Velocity),
		Remaining: e.Remaining,
	}
}

// ExplosionEventToCore converts a GORM ExplosionEvent to a core.ExplosionEvent.
func ExplosionEventToCore(e model.ExplosionEvent) core.ExplosionEvent {
	var damages []core.Damage
	if len(e.Damages) > 0 {
		_ = json.Unmarshal(e.Damages, &damages)
	}
	return core.ExplosionEvent{
		Time:     e.Time,
		Tick:     e.Tick,
		SourceID: core.EntityID(e.SourceEntityID),
		Weapon:   e.Weapon,
		Center:   pointToVec(e.Center),
		Radius:   float64(e.Radius),
		Damages:  damages,
	}
}

// PickupEventToCore converts a GORM PickupEvent to a core.PickupEvent.
func PickupEventToCore(e model.PickupEvent) core.PickupEvent {
	return core.PickupEvent{
		Time:     e.Time,
		Tick:     e.Tick,
		ActorID:  core.EntityID(e.ActorEntityID),
		Kind:     core.PickupKind(e.Kind),
		Item:     e.Item,
		Amount:   e.Amount,
		Accepted: e.Accepted,
	}
}

// KillEventToCore converts a GORM KillEvent to a core.KillEvent.
func KillEventToCore(e model.KillEvent) core.KillEvent {
	return core.KillEvent{
		Time:     e.Time,
		Tick:     e.Tick,
		VictimID: core.EntityID(e.VictimEntityID),
		KillerID: core.EntityID(e.KillerEntityID),
		Weapon:   e.Weapon,
		Area:     e.Area,
	}
}
