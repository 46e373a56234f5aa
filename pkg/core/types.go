// pkg/core/types.go
package core

import "math"

// Vec3 is a point or direction in the local arena frame (metres, Y up).
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Forward is the default facing of an actor with no explicit orientation.
var Forward = Vec3{Z: 1}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Len returns the euclidean length.
func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Dist returns the distance between two points.
func (v Vec3) Dist(o Vec3) float64 { return v.Sub(o).Len() }

// Normalize returns a unit vector, or the zero vector unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool { return v == Vec3{} }

// Transform is a resolved presentation anchor: where a flash, projectile or
// cartridge spawns and which way it faces.
type Transform struct {
	Position Vec3 `json:"position" yaml:"position"`
	Forward  Vec3 `json:"forward" yaml:"forward"`
}

// EntityID identifies anything that owns colliders and health in the arena.
type EntityID string

// ActorKind separates the two adapters sharing the combat engine.
type ActorKind string

const (
	ActorPlayer ActorKind = "player"
	ActorEnemy  ActorKind = "enemy"
)
