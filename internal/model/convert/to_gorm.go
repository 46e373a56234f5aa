// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/OCAP2/gunplay/internal/geo"
	"github.com/OCAP2/gunplay/internal/model"
	"github.com/OCAP2/gunplay/pkg/core"
)

// toJSON marshals v, falling back to the given literal when v is empty or
// cannot be encoded.
func toJSON(v any, empty string) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON(empty)
	}
	return datatypes.JSON(data)
}

// CoreToSession converts a core.Session to a GORM model.Session.
func CoreToSession(s core.Session) model.Session {
	m := model.Session{
		Name:         s.Name,
		Scenario:     s.Scenario,
		Catalog:      s.Catalog,
		StartTime:    s.StartTime,
		TickRate:     s.TickRate,
		InfiniteAmmo: s.InfiniteAmmo,
		Settings:     toJSON(s.Settings, "{}"),
		Summary:      datatypes.JSON("{}"),
	}
	m.ID = s.ID
	return m
}

// SummaryToJSON encodes a session summary for the sessions table.
func SummaryToJSON(s core.SessionSummary) datatypes.JSON {
	return toJSON(s, "{}")
}

// CoreToActor converts a core.Actor to a GORM model.Actor.
func CoreToActor(a core.Actor) model.Actor {
	return model.Actor{
		ID:       a.ID,
		EntityID: string(a.EntityID),
		Kind:     string(a.Kind),
		Name:     a.Name,
		Team:     a.Team,
		Health:   a.Health,
		Spawn:    geo.PointFromVec(a.Spawn),
		Weapons:  toJSON(a.Weapons, "[]"),
		JoinTime: a.JoinTime,
	}
}

// CoreToShotEvent converts a core.ShotEvent to a GORM model.ShotEvent.
func CoreToShotEvent(e core.ShotEvent) model.ShotEvent {
	return model.ShotEvent{
		Time:          e.Time,
		Tick:          e.Tick,
		ActorEntityID: string(e.ActorID),
		Weapon:        e.Weapon,
		Output:        string(e.Output),
		Round:         e.Round,
		Origin:        geo.PointFromVec(e.Origin),
		DirectionX:    e.Direction.X,
		DirectionY:    e.Direction.Y,
		DirectionZ:    e.Direction.Z,
		Spread:        geo.Vec3String(e.Spread),
	}
}

// CoreToHitEvent converts a core.HitEvent to a GORM model.HitEvent.
// Hits on static geometry store a NULL target.
func CoreToHitEvent(e core.HitEvent) model.HitEvent {
	return model.HitEvent{
		Time:            e.Time,
		Tick:            e.Tick,
		ShooterEntityID: string(e.ShooterID),
		TargetEntityID:  sql.NullString{String: string(e.TargetID), Valid: e.TargetID != ""},
		Weapon:          e.Weapon,
		Point:           geo.PointFromVec(e.Point),
		Distance:        float32(e.Distance),
		Damage:          float32(e.Damage),
		Area:            e.Area,
		Valid:           e.Valid,
	}
}

// CoreToProjectileEvent converts a core.ProjectileEvent to a GORM model.ProjectileEvent.
func CoreToProjectileEvent(e core.ProjectileEvent) model.ProjectileEvent {
	return model.ProjectileEvent{
		Time:          e.Time,
		Tick:          e.Tick,
		ActorEntityID: string(e.ActorID),
		Weapon:        e.Weapon,
		Prefab:        e.Prefab,
		Origin:        geo.PointFromVec(e.Origin),
		Velocity:      geo.Vec3String(e.Velocity),
	}
}

// CoreToReloadEvent converts a core.ReloadEvent to a GORM model.ReloadEvent.
func CoreToReloadEvent(e core.ReloadEvent) model.ReloadEvent {
	return model.ReloadEvent{
		Time:          e.Time,
		Tick:          e.Tick,
		ActorEntityID: string(e.ActorID),
		Weapon:        e.Weapon,
		Mode:          string(e.Mode),
		Phase:         string(e.Phase),
		Transferred:   e.Transferred,
		Capacity:      e.Capacity,
		Ledger:        e.Ledger,
	}
}

// CoreToSwitchEvent converts a core.SwitchEvent to a GORM model.SwitchEvent.
func CoreToSwitchEvent(e core.SwitchEvent) model.SwitchEvent {
	return model.SwitchEvent{
		Time:          e.Time,
		Tick:          e.Tick,
		ActorEntityID: string(e.ActorID),
		FromWeapon:    e.From,
		ToWeapon:      e.To,
		Phase:         string(e.Phase),
		Forced:        e.Forced,
	}
}

// CoreToGrenadeEvent converts a core.GrenadeThrowEvent to a GORM model.GrenadeEvent.
func CoreToGrenadeEvent(e core.GrenadeThrowEvent) model.GrenadeEvent {
	return model.GrenadeEvent{
		Time:          e.Time,
		Tick:          e.Tick,
		ActorEntityID: string(e.ActorID),
		Origin:        geo.PointFromVec(e.Origin),
		Velocity:      geo.Vec3String(e.Velocity),
		Remaining:     e.Remaining,
	}
}

// CoreToExplosionEvent converts a core.ExplosionEvent to a GORM model.ExplosionEvent.
func CoreToExplosionEvent(e core.ExplosionEvent) model.ExplosionEvent {
	return model.ExplosionEvent{
		Time:           e.Time,
		Tick:           e.Tick,
		SourceEntityID: string(e.SourceID),
		Weapon:         e.Weapon,
		Center:         geo.PointFromVec(e.Center),
		Radius:         float32(e.Radius),
		Damages:        toJSON(e.Damages, "[]"),
	}
}

// CoreToPickupEvent converts a core.PickupEvent to a GORM model.PickupEvent.
func CoreToPickupEvent(e core.PickupEvent) model.PickupEvent {
	return model.PickupEvent{
		Time:          e.Time,
		Tick:          e.Tick,
		ActorEntityID: string(e.ActorID),
		Kind:          string(e.Kind),
		Item:          e.Item,
		Amount:        e.Amount,
		Accepted:      e.Accepted,
	}
}

// CoreToKillEvent converts a core.KillEvent to a GORM model.KillEvent.
func CoreToKillEvent(e core.KillEvent) model.KillEvent {
	return model.KillEvent{
		Time:           e.Time,
		Tick:           e.Tick,
		VictimEntityID: string(e.VictimID),
		KillerEntityID: string(e.KillerID),
		Weapon:         e.Weapon,
		Area:           e.Area,
	}
}
