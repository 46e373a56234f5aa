// Package cache keeps the session roster the event handlers consult
// without asking the journal backend.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/OCAP2/gunplay/pkg/core"
)

type entry struct {
	actor     core.Actor
	dead      bool
	deathTick uint
}

// ActorCache holds the actors that joined the current session, in join
// order, and which of them have been killed.
type ActorCache struct {
	mu    sync.RWMutex
	byID  map[core.EntityID]*entry
	order []core.EntityID
}

func NewActorCache() *ActorCache {
	return &ActorCache{byID: make(map[core.EntityID]*entry)}
}

// Reset forgets the roster, at the start of a session.
func (c *ActorCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[core.EntityID]*entry)
	c.order = nil
}

// AddActor registers a, alive. Adding an actor again replaces its record
// and revives it, keeping its place in the join order.
func (c *ActorCache) AddActor(a core.Actor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[a.EntityID]; !ok {
		c.order = append(c.order, a.EntityID)
	}
	c.byID[a.EntityID] = &entry{actor: a}
}

func (c *ActorCache) GetActor(id core.EntityID) (core.Actor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.byID[id]; ok {
		return e.actor, true
	}
	return core.Actor{}, false
}

// MarkDead records the death of a cached actor. known is false for ids
// that never joined, props for instance; first is false when the actor
// was already dead.
func (c *ActorCache) MarkDead(id core.EntityID, tick uint) (known, first bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byID[id]
	if !ok {
		return false, false
	}
	if e.dead {
		return true, false
	}
	e.dead, e.deathTick = true, tick
	return true, true
}

// DeathTick reports when a cached actor died.
func (c *ActorCache) DeathTick(id core.EntityID) (uint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.byID[id]; ok && e.dead {
		return e.deathTick, true
	}
	return 0, false
}

// Alive lists the living actors in join order.
func (c *ActorCache) Alive() []core.EntityID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.EntityID, 0, len(c.order))
	for _, id := range c.order {
		if !c.byID[id].dead {
			out = append(out, id)
		}
	}
	return out
}

func (c *ActorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Counter is a running total safe for concurrent handlers.
type Counter struct {
	v atomic.Int64
}

func (c *Counter) Value() int { return int(c.v.Load()) }

func (c *Counter) Set(v int) { c.v.Store(int64(v)) }

func (c *Counter) Inc() { c.v.Add(1) }
