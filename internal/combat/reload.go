package combat

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/OCAP2/gunplay/pkg/core"
)

func (e *Engine) reloadEvent(phase core.ReloadPhase, transferred int) core.ReloadEvent {
	s := e.current()
	return core.ReloadEvent{
		Tick:        e.ticks,
		ActorID:     e.id,
		Weapon:      s.Name(),
		Mode:        s.Def.ReloadingType,
		Phase:       phase,
		Transferred: transferred,
		Capacity:    s.Capacity(),
		Ledger:      e.deps.Ledger.Available(s.AmmoType()),
	}
}

// reload is step three. The interruption timer decays first; a
// partialRepeat reload is cut short by the trigger intent once at least
// one round is loaded.
func (e *Engine) reload(dt float64, in Intents) {
	e.interruption = core.Decay(e.interruption, dt)
	s := e.current()
	def := s.Def

	if e.reloading {
		if def.ReloadingType == core.ReloadPartialRepeat && triggerIntent(def, in) && s.Capacity() > 0 {
			e.abortReload(core.ReloadAborted)
			e.interruption = def.PartialReloadInterruptionTime
			return
		}
		e.reloadTimer = core.Decay(e.reloadTimer, dt)
		for e.reloading && e.reloadTimer <= 0 {
			e.reloadIteration()
		}
		return
	}

	if !s.Enabled() || e.switching || e.running {
		return
	}
	wants := !s.Loaded() || (in.ReloadEdge && !s.Full())
	if !wants {
		return
	}
	if !e.deps.Ledger.CanSupply(s.AmmoType()) {
		if e.opts.SwitchOnExhausted && !s.Loaded() {
			e.requested = true
		}
		return
	}
	e.startReload()
}

func (e *Engine) startReload() {
	def := e.current().Def
	e.reloading = true
	e.reloadTimer = def.ReloadingTime
	e.anim(def.Presentation.Animations.Reload, true)
	e.audio(def.Presentation.Sounds.Reload)
	e.deps.Observer.OnReload(e.reloadEvent(core.ReloadStarted, 0))
}

// transfer moves rounds from the ledger into the active slot: the whole
// shortfall for full reloads or when one load would overfill, otherwise
// one load. Infinite pools fill the slot without being touched.
func (e *Engine) transfer() int {
	s := e.current()
	def := s.Def
	if e.deps.Ledger.Infinite(s.AmmoType()) {
		return s.Fill(s.Shortfall())
	}
	want := def.AmmoAddedPerReload
	if def.ReloadingType == core.ReloadFull || want > s.Shortfall() {
		want = s.Shortfall()
	}
	n, err := e.deps.Ledger.Withdraw(s.AmmoType(), want)
	if err != nil {
		e.log.Warn("reload withdraw failed", "weapon", def.Name, "error", err)
		return 0
	}
	return s.Fill(n)
}

// reloadIteration runs when the reload timer expires. PartialRepeat keeps
// going until the slot is full or the pool is dry.
func (e *Engine) reloadIteration() {
	s := e.current()
	def := s.Def
	moved := e.transfer()

	if def.ReloadingType == core.ReloadPartialRepeat && moved > 0 && !s.Full() && e.deps.Ledger.CanSupply(s.AmmoType()) {
		e.reloadTimer = def.ReloadingTime
		e.deps.Observer.OnReload(e.reloadEvent(core.ReloadStep, moved))
		return
	}

	e.anim(def.Presentation.Animations.Reload, false)
	e.burst = def.RoundsPerBurst
	if def.ReloadingType != core.ReloadFull {
		e.interruption = def.PartialReloadInterruptionTime
	}
	e.reloading = false
	e.reloadTimer = 0
	e.m.add(e.m.reloads, 1, attribute.String("weapon", def.Name), attribute.String("phase", string(core.ReloadCompleted)))
	e.deps.Observer.OnReload(e.reloadEvent(core.ReloadCompleted, moved))
	e.log.Debug("reload completed", "weapon", def.Name, "capacity", s.Capacity())
}

// abortReload stops a reload in flight. Rounds already transferred stay.
func (e *Engine) abortReload(phase core.ReloadPhase) {
	def := e.current().Def
	e.reloading = false
	e.reloadTimer = 0
	e.burst = def.RoundsPerBurst
	e.anim(def.Presentation.Animations.Reload, false)
	if def.Presentation.Sounds.Reload != "" {
		e.deps.Presenter.StopAudio(def.Presentation.Sounds.Reload)
	}
	e.m.add(e.m.reloads, 1, attribute.String("weapon", def.Name), attribute.String("phase", string(phase)))
	e.deps.Observer.OnReload(e.reloadEvent(phase, 0))
}
