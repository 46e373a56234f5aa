package actor

import (
	"fmt"

	"github.com/OCAP2/gunplay/pkg/core"
)

// Pickup is a collectable the actor touched.
type Pickup struct {
	Kind core.PickupKind `yaml:"kind"`
	// Weapon names the weapon of a weapon pickup.
	Weapon string `yaml:"weapon"`
	// Ammo is the ammo type of an ammo pickup.
	Ammo string `yaml:"ammo"`
	// AmmoInWeapon is loaded into a newly enabled weapon.
	AmmoInWeapon int `yaml:"ammoInWeapon"`
	// AddToAmmoTotal goes to the ledger.
	AddToAmmoTotal int `yaml:"addToAmmoTotal"`
}

// Collect applies a pickup and reports whether it was taken. A weapon the
// actor already has is left on the ground, and so is a grenade pickup that
// would do nothing.
func (a *Actor) Collect(p Pickup) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.killed.Load() {
		return false, nil
	}

	ev := core.PickupEvent{
		ActorID: a.id,
		Kind:    p.Kind,
		Tick:    a.engine.State().Ticks,
	}

	switch p.Kind {
	case core.PickupWeapon:
		ev.Item = p.Weapon
		ev.Amount = p.AddToAmmoTotal
		def, _, err := a.catalog.Find(p.Weapon)
		if err != nil {
			return false, err
		}
		changed, err := a.engine.EnableWeapon(p.Weapon, true, p.AmmoInWeapon)
		if err != nil {
			return false, err
		}
		if changed {
			a.engine.IncreaseAmmo(def.Ammo.Name, p.AddToAmmoTotal)
			if a.kind == core.ActorEnemy {
				a.engine.RequestSwitch()
			}
		}
		ev.Accepted = changed
	case core.PickupAmmo:
		ev.Item = p.Ammo
		ev.Amount = p.AddToAmmoTotal
		a.engine.IncreaseAmmo(p.Ammo, p.AddToAmmoTotal)
		ev.Accepted = true
	case core.PickupGrenade:
		ev.Item = "grenade"
		if a.grenades.Collectable() {
			a.grenades.Enable()
			ev.Accepted = true
		}
	default:
		return false, fmt.Errorf("unknown pickup kind %q", p.Kind)
	}

	a.observer.OnPickup(ev)
	a.log.Debug("pickup", "kind", p.Kind, "item", ev.Item, "accepted", ev.Accepted)
	return ev.Accepted, nil
}
