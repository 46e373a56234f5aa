// pkg/core/session.go
package core

import "time"

// Session represents one recorded scenario run
type Session struct {
	ID           uint
	Name         string
	Scenario     string
	Catalog      string
	StartTime    time.Time
	TickRate     float64
	InfiniteAmmo bool
	Settings     map[string]any
}

// Actor represents a combat participant registered with a session
type Actor struct {
	ID       uint
	EntityID EntityID
	Kind     ActorKind
	Name     string
	Team     string
	Health   float64
	Spawn    Vec3
	Weapons  []string
	JoinTime time.Time
}

// SessionSummary is the aggregate printed and exported at the end of a run
type SessionSummary struct {
	Ticks      uint
	Shots      int
	Hits       int
	Reloads    int
	Switches   int
	Grenades   int
	Explosions int
	Kills      int
	Survivors  []EntityID
}
