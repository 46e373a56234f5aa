package arena

import (
	"github.com/OCAP2/gunplay/pkg/core"
)

// InflictDamage lowers the target's health. The hit that takes it to zero
// kills it: the entity stops colliding, its OnKill runs and the observer
// gets a kill event. Damage to dead, unknown or undamageable entities is
// ignored.
func (a *Arena) InflictDamage(target, source core.EntityID, amount float64, area bool) {
	a.mu.Lock()
	e, ok := a.entities[target]
	if !ok || e.dead || !e.Damageable || amount <= 0 {
		a.mu.Unlock()
		return
	}
	e.Health -= amount
	killed := e.Health <= 0
	if killed {
		e.Health = 0
		e.dead = true
		e.killer = source
	}
	onKill := e.OnKill
	a.mu.Unlock()

	if !killed {
		return
	}
	a.log.Debug("entity killed", "victim", target, "killer", source, "area", area)
	if onKill != nil {
		onKill()
	}
	if a.cfg.Observer != nil {
		tick := a.currentTick()
		a.cfg.Observer.OnKill(core.KillEvent{
			Time:     a.at(tick),
			Tick:     tick,
			VictimID: target,
			KillerID: source,
			Area:     area,
		})
	}
}
