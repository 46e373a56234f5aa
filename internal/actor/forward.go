package actor

import (
	"log/slog"
	"time"

	"github.com/OCAP2/gunplay/internal/dispatcher"
	"github.com/OCAP2/gunplay/internal/effects"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Dispatcher receives forwarded events.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Clock maps a tick to its wall time in the session.
type Clock interface {
	TimeAt(tick uint) time.Time
}

// Forwarder is both the observer and the presenter of one actor. It turns
// every combat event and presentation call into a dispatcher event.
// Dispatch errors are logged and dropped.
type Forwarder struct {
	id    core.EntityID
	d     Dispatcher
	clock Clock
	log   *slog.Logger

	tick  uint
	anims map[string]bool
}

// NewForwarder creates a forwarder for actor id.
func NewForwarder(id core.EntityID, d Dispatcher, clock Clock, log *slog.Logger) *Forwarder {
	if log == nil {
		log = slog.Default()
	}
	return &Forwarder{
		id:    id,
		d:     d,
		clock: clock,
		log:   log,
		anims: make(map[string]bool),
	}
}

func (f *Forwarder) send(cmd string, tick uint, payload any) {
	f.tick = tick
	ev := dispatcher.Event{Command: cmd, Payload: payload, Tick: tick}
	if f.clock != nil {
		ev.Timestamp = f.clock.TimeAt(tick)
	}
	if _, err := f.d.Dispatch(ev); err != nil {
		f.log.Warn("failed to forward event", "command", cmd, "error", err)
	}
}

func (f *Forwarder) at(tick uint) time.Time {
	if f.clock == nil {
		return time.Time{}
	}
	return f.clock.TimeAt(tick)
}

// OnShot forwards the shot, then its hits and launched projectile.
func (f *Forwarder) OnShot(ev core.ShotEvent, out effects.Outcome) {
	ev.Time = f.at(ev.Tick)
	f.send(core.CmdShot, ev.Tick, &ev)
	for _, h := range out.Hits {
		h := h
		h.Tick = ev.Tick
		h.Time = ev.Time
		f.send(core.CmdHit, ev.Tick, &h)
	}
	if p := out.Projectile; p != nil {
		p.Tick = ev.Tick
		p.Time = ev.Time
		f.send(core.CmdProjectile, ev.Tick, p)
	}
}

func (f *Forwarder) OnReload(ev core.ReloadEvent) {
	ev.Time = f.at(ev.Tick)
	f.send(core.CmdReload, ev.Tick, &ev)
}

func (f *Forwarder) OnSwitch(ev core.SwitchEvent) {
	ev.Time = f.at(ev.Tick)
	f.send(core.CmdSwitch, ev.Tick, &ev)
}

// OnGrenadeThrow stamps the throw with the last tick seen, since the
// thrower does not count ticks.
func (f *Forwarder) OnGrenadeThrow(ev core.GrenadeThrowEvent) {
	if ev.Tick == 0 {
		ev.Tick = f.tick
	}
	ev.Time = f.at(ev.Tick)
	f.send(core.CmdGrenade, ev.Tick, &ev)
}

func (f *Forwarder) OnPickup(ev core.PickupEvent) {
	ev.Time = f.at(ev.Tick)
	f.send(core.CmdPickup, ev.Tick, &ev)
}

// SetAnimationBool forwards animation changes only.
func (f *Forwarder) SetAnimationBool(name string, value bool) {
	if prev, ok := f.anims[name]; ok && prev == value {
		return
	}
	f.anims[name] = value
	f.send(core.CmdFX, f.tick, &core.FXEvent{Tick: f.tick, ActorID: f.id, Kind: core.FXAnimation, Name: name, Value: value})
}

func (f *Forwarder) PlayAudio(clip string) {
	f.send(core.CmdFX, f.tick, &core.FXEvent{Tick: f.tick, ActorID: f.id, Kind: core.FXAudio, Name: clip, Value: true})
}

func (f *Forwarder) StopAudio(clip string) {
	f.send(core.CmdFX, f.tick, &core.FXEvent{Tick: f.tick, ActorID: f.id, Kind: core.FXAudio, Name: clip})
}

func (f *Forwarder) SpawnVisual(prefab string, at core.Transform, _ float64) {
	f.send(core.CmdFX, f.tick, &core.FXEvent{Tick: f.tick, ActorID: f.id, Kind: core.FXVisual, Name: prefab, Value: true, At: at})
}

// Sync sets the tick used for presentation calls, which carry none.
func (f *Forwarder) Sync(tick uint) { f.tick = tick }

type nopObserver struct{}

func (nopObserver) OnShot(core.ShotEvent, effects.Outcome) {}
func (nopObserver) OnReload(core.ReloadEvent)              {}
func (nopObserver) OnSwitch(core.SwitchEvent)              {}
func (nopObserver) OnGrenadeThrow(core.GrenadeThrowEvent)  {}
func (nopObserver) OnPickup(core.PickupEvent)              {}
