package actor

import (
	"math"

	"github.com/OCAP2/gunplay/internal/combat"
	"github.com/OCAP2/gunplay/pkg/core"
)

// EnemyConfig tunes the AI side of an enemy actor.
type EnemyConfig struct {
	// DelayAfterWeaponSwap is how long after a swap to the next weapon
	// attacks don't count.
	DelayAfterWeaponSwap float64 `yaml:"delayAfterWeaponSwap" json:"delayAfterWeaponSwap"`
	// SwapToNextWeapon cycles to the next enabled weapon after every
	// attack.
	SwapToNextWeapon bool `yaml:"swapToNextWeapon" json:"swapToNextWeapon"`
}

// Enemy drives an actor from AI decisions.
type Enemy struct {
	*Actor
	cfg EnemyConfig

	// lastSwapAt is the engine clock of the last swap made by
	// SwapToNextWeapon. Switches the engine makes on its own don't count.
	lastSwapAt float64

	// OnAttack is called after every attack that counted.
	OnAttack func(target core.Vec3)
}

// NewEnemy wraps an enemy-kind actor.
func NewEnemy(a *Actor, cfg EnemyConfig) *Enemy {
	return &Enemy{Actor: a, cfg: cfg, lastSwapAt: math.Inf(-1)}
}

// Idle ticks without any intent, so timers and the grenade cooldown keep
// running.
func (e *Enemy) Idle(dt float64) error {
	return e.Tick(dt, combat.Intents{})
}

// TryAttack turns towards target, ticks with the trigger held and reports
// whether the attack counted. Attacks inside the post-swap delay don't.
func (e *Enemy) TryAttack(dt float64, target core.Vec3) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.killed.Load() {
		return false, e.tickLocked(dt, combat.Intents{})
	}

	e.rig.LookAt(target)
	if err := e.tickLocked(dt, combat.Intents{FireEdge: true, FireHeld: true}); err != nil {
		return false, err
	}

	st := e.engine.State()
	if e.lastSwapAt+e.cfg.DelayAfterWeaponSwap >= st.Clock {
		return false, nil
	}

	if e.OnAttack != nil {
		e.OnAttack(target)
	}
	if e.cfg.SwapToNextWeapon {
		swapped, err := e.swapNext(st.Active)
		if err != nil {
			return true, err
		}
		if swapped {
			e.lastSwapAt = st.Clock
		}
	}
	return true, nil
}

func (e *Enemy) swapNext(active int) (bool, error) {
	slots := e.engine.Slots()
	n := len(slots)
	for step := 1; step < n; step++ {
		i := (active + step) % n
		if !slots[i].Enabled {
			continue
		}
		return e.engine.Select(i)
	}
	return false, nil
}
