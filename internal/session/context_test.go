package session

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/OCAP2/gunplay/pkg/core"
)

func TestContext_Defaults(t *testing.T) {
	ctx := NewContext()

	s := ctx.GetSession()
	assert.Equal(t, "No session loaded", s.Name)
	assert.Zero(t, ctx.Tick())
}

func TestContext_SetSessionRewindsTick(t *testing.T) {
	ctx := NewContext()
	ctx.SetTick(12)

	ctx.SetSession(&core.Session{Name: "duel", TickRate: 20})
	assert.Equal(t, "duel", ctx.GetSession().Name)
	assert.Zero(t, ctx.Tick())
}

func TestContext_TimeAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := NewContext()
	ctx.SetSession(&core.Session{StartTime: start, TickRate: 20})

	assert.Equal(t, start, ctx.TimeAt(0))
	assert.Equal(t, start.Add(50*time.Millisecond), ctx.TimeAt(1))
	assert.Equal(t, start.Add(2*time.Second), ctx.TimeAt(40))

	ctx.SetSession(&core.Session{StartTime: start})
	assert.Equal(t, start, ctx.TimeAt(40), "no tick rate")
}

func TestContext_LogAttrs(t *testing.T) {
	ctx := NewContext()
	ctx.SetSession(&core.Session{Name: "duel", TickRate: 20})
	ctx.SetTick(7)

	attrs := ctx.LogAttrs()
	assert.Len(t, attrs, 2)
	assert.Equal(t, "session", attrs[0].Key)
	assert.Equal(t, "duel", attrs[0].Value.String())
	assert.Equal(t, "tick", attrs[1].Key)
	assert.Equal(t, slog.KindUint64, attrs[1].Value.Kind())
	assert.Equal(t, uint64(7), attrs[1].Value.Uint64())
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			ctx.SetTick(uint(i))
			ctx.SetSession(&core.Session{Name: "s", TickRate: 60})
		}(i)
		go func() {
			defer wg.Done()
			_ = ctx.TimeAt(ctx.Tick())
			_ = ctx.LogAttrs()
		}()
	}
	wg.Wait()
	assert.Equal(t, "s", ctx.GetSession().Name)
}
