package arena

import (
	"log/slog"
	"time"

	"github.com/OCAP2/gunplay/internal/dispatcher"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Dispatcher receives forwarded events.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Forwarder sends explosions, their area hits and kills to a dispatcher.
type Forwarder struct {
	d   Dispatcher
	log *slog.Logger
}

// NewForwarder creates an Observer that dispatches.
func NewForwarder(d Dispatcher, log *slog.Logger) *Forwarder {
	if log == nil {
		log = slog.Default()
	}
	return &Forwarder{d: d, log: log}
}

func (f *Forwarder) send(cmd string, tick uint, at time.Time, payload any) {
	if _, err := f.d.Dispatch(dispatcher.Event{Command: cmd, Payload: payload, Tick: tick, Timestamp: at}); err != nil {
		f.log.Warn("failed to forward event", "command", cmd, "error", err)
	}
}

func (f *Forwarder) OnExplosion(ev core.ExplosionEvent, hits []core.HitEvent) {
	f.send(core.CmdExplosion, ev.Tick, ev.Time, &ev)
	for i := range hits {
		f.send(core.CmdHit, ev.Tick, ev.Time, &hits[i])
	}
}

func (f *Forwarder) OnKill(ev core.KillEvent) {
	f.send(core.CmdKill, ev.Tick, ev.Time, &ev)
}
