package weapon

import "github.com/OCAP2/gunplay/pkg/core"

// Slot is the mutable runtime state of one weapon an actor carries.
// Capacity stays within [0, Def.Capacity] and Cooldown never goes negative;
// every mutation goes through a clamping method.
type Slot struct {
	Def *core.WeaponDefinition

	enabled  bool
	capacity int
	cooldown float64
}

// NewSlot creates a disabled, empty slot for def.
func NewSlot(def *core.WeaponDefinition) *Slot {
	return &Slot{Def: def}
}

func (s *Slot) Enabled() bool      { return s.enabled }
func (s *Slot) Capacity() int      { return s.capacity }
func (s *Slot) Cooldown() float64  { return s.cooldown }
func (s *Slot) AmmoType() string   { return s.Def.Ammo.Name }
func (s *Slot) Name() string       { return s.Def.Name }
func (s *Slot) Full() bool         { return s.capacity >= s.Def.Capacity }
func (s *Slot) Shortfall() int     { return s.Def.Capacity - s.capacity }
func (s *Slot) Empty() bool        { return s.capacity == 0 }
func (s *Slot) Loaded() bool       { return s.capacity >= s.Def.AmmoLossPerRound }
func (s *Slot) CooledDown() bool   { return s.cooldown <= 0 }
func (s *Slot) SetEnabled(on bool) { s.enabled = on }

// Enable turns the slot on with ammo rounds loaded and one round interval
// of cooldown. It reports false and changes nothing if already enabled.
func (s *Slot) Enable(ammo int) bool {
	if s.enabled {
		return false
	}
	s.enabled = true
	s.cooldown = s.Def.RoundInterval()
	s.SetCapacity(ammo)
	return true
}

// Disable turns the slot off. It reports false if it was already off.
func (s *Slot) Disable() bool {
	if !s.enabled {
		return false
	}
	s.enabled = false
	return true
}

// SetCapacity stores n clamped into [0, Def.Capacity].
func (s *Slot) SetCapacity(n int) {
	s.capacity = max(0, min(n, s.Def.Capacity))
}

// Fill adds up to n rounds and returns how many fit.
func (s *Slot) Fill(n int) int {
	added := max(0, min(n, s.Shortfall()))
	s.capacity += added
	return added
}

// Consume removes one round's ammo loss. It reports false when the slot
// holds less than that.
func (s *Slot) Consume() bool {
	if !s.Loaded() {
		return false
	}
	s.capacity -= s.Def.AmmoLossPerRound
	return true
}

// ArmCooldown starts the interval until the next round.
func (s *Slot) ArmCooldown() {
	s.cooldown = s.Def.RoundInterval()
}

// DecayCooldown advances the cooldown by dt.
func (s *Slot) DecayCooldown(dt float64) {
	s.cooldown = core.Decay(s.cooldown, dt)
}
