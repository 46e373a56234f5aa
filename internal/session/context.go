// Package session holds the state of the scenario run in progress.
package session

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/gunplay/pkg/core"
)

// Context holds the current session and the tick being simulated
type Context struct {
	mu      sync.RWMutex
	Session *core.Session
	tick    atomic.Uint64
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Session: &core.Session{Name: "No session loaded", TickRate: 60},
	}
}

// GetSession returns the current session
func (c *Context) GetSession() *core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Session
}

// SetSession replaces the current session and rewinds the tick
func (c *Context) SetSession(s *core.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Session = s
	c.tick.Store(0)
}

func (c *Context) SetTick(tick uint) { c.tick.Store(uint64(tick)) }
func (c *Context) Tick() uint        { return uint(c.tick.Load()) }

// TimeAt returns the simulated wall time of a tick: the session start
// plus tick/tickRate seconds.
func (c *Context) TimeAt(tick uint) time.Time {
	s := c.GetSession()
	if s.TickRate <= 0 {
		return s.StartTime
	}
	return s.StartTime.Add(time.Duration(float64(tick) / s.TickRate * float64(time.Second)))
}

// LogAttrs returns the session name and current tick, for the logging
// context handler.
func (c *Context) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("session", c.GetSession().Name),
		slog.Uint64("tick", c.tick.Load()),
	}
}
