package combat

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/OCAP2/gunplay/pkg/core"
)

// nextEnabled searches forward from the active slot, wrapping around, for
// another enabled slot.
func (e *Engine) nextEnabled() (int, bool) {
	n := len(e.slots)
	for step := 1; step < n; step++ {
		i := (e.active + step) % n
		if e.slots[i].Enabled() {
			return i, true
		}
	}
	return e.active, false
}

func (e *Engine) switchEvent(phase core.SwitchPhase) core.SwitchEvent {
	return core.SwitchEvent{
		Tick:    e.ticks,
		ActorID: e.id,
		From:    e.slots[e.switchFrom].Name(),
		To:      e.slots[e.switchTarget].Name(),
		Phase:   phase,
		Forced:  e.forced,
	}
}

// switchStep is step four. A switch runs out (old weapon lowered), load,
// in (new weapon raised), each phase lasting the new weapon's switching
// time and animated with the new weapon's switch variable. Only Interrupt
// cancels it.
func (e *Engine) switchStep(dt float64, in Intents) error {
	requested := e.requested
	e.requested = false

	if e.switching {
		return e.advanceSwitch(dt)
	}
	if !in.SwitchEdge && !requested && !e.forced {
		return nil
	}

	old := e.current()
	wasEnabled := old.Enabled()
	if e.opts.TentativeDisable {
		old.SetEnabled(false)
	}
	target, ok := e.nextEnabled()
	if !ok {
		old.SetEnabled(wasEnabled)
		return nil
	}

	if e.reloading {
		e.abortReload(core.ReloadAborted)
	}
	e.switching = true
	e.phase = switchOut
	e.switchFrom = e.active
	e.switchTarget = target
	e.switchTimer = e.slots[target].Def.SwitchingTime
	e.lastSwitchAt = e.clock

	e.audio(old.Def.Presentation.Sounds.SwitchOut)
	e.anim(e.slots[target].Def.Presentation.Animations.Switch, true)
	e.m.add(e.m.switches, 1, attribute.String("to", e.slots[target].Name()))
	e.deps.Observer.OnSwitch(e.switchEvent(core.SwitchStarted))
	e.log.Debug("weapon switch started", "from", old.Name(), "to", e.slots[target].Name())
	return nil
}

func (e *Engine) advanceSwitch(dt float64) error {
	e.switchTimer = core.Decay(e.switchTimer, dt)
	for e.switching && e.switchTimer <= 0 {
		switch e.phase {
		case switchOut:
			next := e.slots[e.switchTarget]
			e.audio(next.Def.Presentation.Sounds.SwitchIn)
			e.anim(next.Def.Presentation.Animations.Switch, false)
			e.active = e.switchTarget
			if err := e.loadSelected(); err != nil {
				return err
			}
			e.phase = switchIn
			e.switchTimer = next.Def.SwitchingTime
			e.deps.Observer.OnSwitch(e.switchEvent(core.SwitchLoaded))
		case switchIn:
			e.switching = false
			e.phase = switchIdle
			e.forced = false
			e.deps.Observer.OnSwitch(e.switchEvent(core.SwitchCompleted))
			e.switchTarget = -1
		default:
			e.switching = false
		}
	}
	return nil
}
