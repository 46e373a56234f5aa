package actor

import (
	"github.com/OCAP2/gunplay/pkg/core"
)

// Model is a rigid actor model standing at Position and facing Forward.
// Anchor offsets are local: X right, Y up, Z forward.
type Model struct {
	Position  core.Vec3
	Forward   core.Vec3
	EyeHeight float64
	Anchors   map[string]core.Vec3
}

// NewModel creates a model facing +Z with the stock anchor layout used by
// scenario actors.
func NewModel(pos core.Vec3) *Model {
	return &Model{
		Position:  pos,
		Forward:   core.Forward,
		EyeHeight: 1.6,
		Anchors: map[string]core.Vec3{
			"muzzle":  {X: 0.2, Y: 1.5, Z: 0.7},
			"ejector": {X: 0.25, Y: 1.5, Z: 0.3},
			"tube":    {X: 0.2, Y: 1.7, Z: 0.9},
		},
	}
}

// facing returns the horizontal unit forward and right vectors.
func (m *Model) facing() (fwd, right core.Vec3) {
	fwd = core.Vec3{X: m.Forward.X, Z: m.Forward.Z}.Normalize()
	if fwd.IsZero() {
		fwd = core.Forward
	}
	return fwd, core.Vec3{X: fwd.Z, Z: -fwd.X}
}

// Anchor resolves a named anchor to world space.
func (m *Model) Anchor(name string) (core.Transform, bool) {
	off, ok := m.Anchors[name]
	if !ok {
		return core.Transform{}, false
	}
	fwd, right := m.facing()
	pos := m.Position.
		Add(right.Scale(off.X)).
		Add(core.Vec3{Y: off.Y}).
		Add(fwd.Scale(off.Z))
	return core.Transform{Position: pos, Forward: m.aimDir()}, true
}

// Aim returns the eye position and the full forward direction.
func (m *Model) Aim() core.Transform {
	return core.Transform{
		Position: m.Position.Add(core.Vec3{Y: m.EyeHeight}),
		Forward:  m.aimDir(),
	}
}

func (m *Model) aimDir() core.Vec3 {
	d := m.Forward.Normalize()
	if d.IsZero() {
		return core.Forward
	}
	return d
}

// LookAt turns the model so the eye points at target.
func (m *Model) LookAt(target core.Vec3) {
	d := target.Sub(m.Aim().Position)
	if d.IsZero() {
		return
	}
	m.Forward = d.Normalize()
}
