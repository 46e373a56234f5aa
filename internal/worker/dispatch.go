package worker

import (
	"fmt"

	"github.com/OCAP2/gunplay/internal/dispatcher"
	"github.com/OCAP2/gunplay/pkg/core"
)

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Session and actor registration - sync (actors must be cached before their events arrive)
	d.Register(core.CmdNewSession, m.handleNewSession, dispatcher.Logged())
	d.Register(core.CmdNewActor, m.handleNewActor, dispatcher.Logged())
	d.Register(core.CmdEndSession, m.handleEndSession, dispatcher.Logged())

	// High-volume combat events - buffered
	d.Register(core.CmdShot, m.handleShot, dispatcher.Buffered(10000), dispatcher.Logged())
	d.Register(core.CmdHit, m.handleHit, dispatcher.Buffered(10000), dispatcher.Logged())
	d.Register(core.CmdProjectile, m.handleProjectile, dispatcher.Buffered(5000), dispatcher.Logged())

	// State transitions - buffered
	d.Register(core.CmdReload, m.handleReload, dispatcher.Buffered(2000), dispatcher.Logged())
	d.Register(core.CmdSwitch, m.handleSwitch, dispatcher.Buffered(2000), dispatcher.Logged())
	d.Register(core.CmdGrenade, m.handleGrenade, dispatcher.Buffered(1000), dispatcher.Logged())
	d.Register(core.CmdPickup, m.handlePickup, dispatcher.Buffered(1000), dispatcher.Logged())

	// Arena events - buffered, never dropped
	d.Register(core.CmdExplosion, m.handleExplosion, dispatcher.Buffered(1000), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(core.CmdKill, m.handleKill, dispatcher.Buffered(1000), dispatcher.Blocking(), dispatcher.Logged())

	// Presentation calls are counted, not journaled
	d.Register(core.CmdFX, m.handleFX, dispatcher.Buffered(10000))
}

// payload extracts the typed payload of an event.
func payload[T any](e dispatcher.Event) (*T, error) {
	p, ok := e.Payload.(*T)
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s carried %T", ErrBadPayload, e.Command, e.Payload)
	}
	return p, nil
}

// knownActor rejects events from actors that never joined the session.
func (m *Manager) knownActor(id core.EntityID) error {
	if _, ok := m.deps.ActorCache.GetActor(id); !ok {
		return fmt.Errorf("%w: %s", ErrTooEarlyForActorAssociation, id)
	}
	return nil
}

func (m *Manager) handleNewSession(e dispatcher.Event) (any, error) {
	s, err := payload[core.Session](e)
	if err != nil {
		return nil, err
	}

	m.deps.ActorCache.Reset()
	m.reset()

	if m.hasBackend() {
		if err := m.backend.StartSession(s); err != nil {
			return nil, fmt.Errorf("failed to start session: %w", err)
		}
	}
	m.deps.SessionContext.SetSession(s)
	m.deps.LogManager.WriteLog("handleNewSession", fmt.Sprintf("Session %q started with id %d", s.Name, s.ID), "INFO")
	return s.ID, nil
}

func (m *Manager) handleNewActor(e dispatcher.Event) (any, error) {
	a, err := payload[core.Actor](e)
	if err != nil {
		return nil, err
	}
	if a.EntityID == "" {
		return nil, fmt.Errorf("failed to add actor: empty entity id")
	}
	if a.JoinTime.IsZero() {
		a.JoinTime = e.Timestamp
	}

	if m.hasBackend() {
		if err := m.backend.AddActor(a); err != nil {
			return nil, fmt.Errorf("failed to add actor %s: %w", a.EntityID, err)
		}
	}
	// Always cache for event association
	m.deps.ActorCache.AddActor(*a)
	return nil, nil
}

// handleEndSession closes the journal for the session. Buffered handlers
// are drained first by closing the dispatcher; sync handlers keep working.
func (m *Manager) handleEndSession(e dispatcher.Event) (any, error) {
	summary, err := payload[core.SessionSummary](e)
	if err != nil {
		return nil, err
	}
	if !m.hasBackend() {
		return nil, nil
	}
	if err := m.backend.EndSession(*summary); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleShot(e dispatcher.Event) (any, error) {
	ev, err := payload[core.ShotEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.knownActor(ev.ActorID); err != nil {
		return nil, err
	}
	m.counters.Shots.Inc()
	if m.hasBackend() {
		return nil, m.backend.RecordShotEvent(ev)
	}
	return nil, nil
}

func (m *Manager) handleHit(e dispatcher.Event) (any, error) {
	ev, err := payload[core.HitEvent](e)
	if err != nil {
		return nil, err
	}
	if ev.Valid {
		m.counters.Hits.Inc()
	}
	if m.hasBackend() {
		return nil, m.backend.RecordHitEvent(ev)
	}
	return nil, nil
}

func (m *Manager) handleProjectile(e dispatcher.Event) (any, error) {
	ev, err := payload[core.ProjectileEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.knownActor(ev.ActorID); err != nil {
		return nil, err
	}
	if m.hasBackend() {
		return nil, m.backend.RecordProjectileEvent(ev)
	}
	return nil, nil
}

func (m *Manager) handleReload(e dispatcher.Event) (any, error) {
	ev, err := payload[core.ReloadEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.knownActor(ev.ActorID); err != nil {
		return nil, err
	}
	if ev.Phase == core.ReloadCompleted {
		m.counters.Reloads.Inc()
	}
	if m.hasBackend() {
		return nil, m.backend.RecordReloadEvent(ev)
	}
	return nil, nil
}

func (m *Manager) handleSwitch(e dispatcher.Event) (any, error) {
	ev, err := payload[core.SwitchEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.knownActor(ev.ActorID); err != nil {
		return nil, err
	}
	if ev.Phase == core.SwitchCompleted || ev.Phase == core.SwitchImmediate {
		m.counters.Switches.Inc()
	}
	if m.hasBackend() {
		return nil, m.backend.RecordSwitchEvent(ev)
	}
	return nil, nil
}

func (m *Manager) handleGrenade(e dispatcher.Event) (any, error) {
	ev, err := payload[core.GrenadeThrowEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.knownActor(ev.ActorID); err != nil {
		return nil, err
	}
	m.counters.Grenades.Inc()
	if m.hasBackend() {
		return nil, m.backend.RecordGrenadeEvent(ev)
	}
	return nil, nil
}

func (m *Manager) handlePickup(e dispatcher.Event) (any, error) {
	ev, err := payload[core.PickupEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.knownActor(ev.ActorID); err != nil {
		return nil, err
	}
	if ev.Accepted {
		m.counters.Pickups.Inc()
	}
	if m.hasBackend() {
		return nil, m.backend.RecordPickupEvent(ev)
	}
	return nil, nil
}

func (m *Manager) handleExplosion(e dispatcher.Event) (any, error) {
	ev, err := payload[core.ExplosionEvent](e)
	if err != nil {
		return nil, err
	}
	m.counters.Explosions.Inc()
	if m.hasBackend() {
		return nil, m.backend.RecordExplosionEvent(ev)
	}
	return nil, nil
}

func (m *Manager) handleKill(e dispatcher.Event) (any, error) {
	ev, err := payload[core.KillEvent](e)
	if err != nil {
		return nil, err
	}
	if _, first := m.deps.ActorCache.MarkDead(ev.VictimID, ev.Tick); !first {
		if _, known := m.deps.ActorCache.GetActor(ev.VictimID); known {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyDead, ev.VictimID)
		}
	}
	m.counters.Kills.Inc()
	if m.hasBackend() {
		return nil, m.backend.RecordKillEvent(ev)
	}
	return nil, nil
}

func (m *Manager) handleFX(e dispatcher.Event) (any, error) {
	ev, err := payload[core.FXEvent](e)
	if err != nil {
		return nil, err
	}
	m.fxMu.Lock()
	m.fx[ev.Kind]++
	m.fxMu.Unlock()
	return nil, nil
}
