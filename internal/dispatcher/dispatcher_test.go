package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) log(level, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %s %v", level, msg, kv))
}

func (l *testLogger) Debug(msg string, kv ...any) { l.log("DEBUG", msg, kv) }
func (l *testLogger) Info(msg string, kv ...any)  { l.log("INFO", msg, kv) }
func (l *testLogger) Error(msg string, kv ...any) { l.log("ERROR", msg, kv) }

func (l *testLogger) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if strings.Contains(m, s) {
			return true
		}
	}
	return false
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	t.Helper()
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)
	return d, logger
}

func TestDispatch_Sync(t *testing.T) {
	d, _ := newTestDispatcher(t)
	var got Event
	d.Register(":SHOT:", func(e Event) (any, error) {
		got = e
		return "ok", nil
	})

	res, err := d.Dispatch(Event{Command: ":SHOT:", Tick: 7, Payload: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, uint(7), got.Tick)
	assert.Equal(t, "p1", got.Payload)
	assert.False(t, got.Timestamp.IsZero(), "stamped with the wall time")

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = d.Dispatch(Event{Command: ":SHOT:", Timestamp: at})
	require.NoError(t, err)
	assert.Equal(t, at, got.Timestamp, "given times are kept")
}

func TestDispatch_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.Dispatch(Event{Command: ":NOPE:"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.False(t, d.HasHandler(":NOPE:"))
}

func TestDispatch_BufferedKeepsOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)
	var mu sync.Mutex
	var ticks []uint
	d.Register(":HIT:", func(e Event) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		ticks = append(ticks, e.Tick)
		return nil, nil
	}, Buffered(100))

	for i := uint(1); i <= 50; i++ {
		res, err := d.Dispatch(Event{Command: ":HIT:", Tick: i})
		require.NoError(t, err)
		assert.Equal(t, Queued, res)
	}
	d.Close()

	require.Len(t, ticks, 50)
	for i, tick := range ticks {
		assert.Equal(t, uint(i+1), tick)
	}
	stats := d.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, Stats{Command: ":HIT:", Buffered: true, Processed: 50}, stats[0])
}

func TestDispatch_DropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)
	block := make(chan struct{})
	d.Register(":FULL:", func(Event) (any, error) {
		<-block
		return nil, nil
	}, Buffered(2))

	// one in the handler at most, two queued
	for i := 0; i < 3; i++ {
		_, _ = d.Dispatch(Event{Command: ":FULL:"})
	}
	_, err := d.Dispatch(Event{Command: ":FULL:"})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.GreaterOrEqual(t, d.Dropped(), int64(1))

	close(block)
	d.Close()
}

func TestDispatch_Blocking(t *testing.T) {
	d, _ := newTestDispatcher(t)
	block := make(chan struct{})
	d.Register(":BLOCKING:", func(Event) (any, error) {
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	_, _ = d.Dispatch(Event{Command: ":BLOCKING:"})
	_, _ = d.Dispatch(Event{Command: ":BLOCKING:"})

	done := make(chan struct{})
	go func() {
		_, _ = d.Dispatch(Event{Command: ":BLOCKING:"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("dispatch should wait for room")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
	d.Close()
	assert.Zero(t, d.Dropped())
}

func TestLogged(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register(":OK:", func(Event) (any, error) { return nil, nil }, Logged())
	d.Register(":BAD:", func(Event) (any, error) { return nil, errors.New("no such actor") }, Logged())

	_, err := d.Dispatch(Event{Command: ":OK:", Tick: 3})
	require.NoError(t, err)
	_, err = d.Dispatch(Event{Command: ":BAD:"})
	require.Error(t, err)

	assert.True(t, logger.contains("DEBUG: handling event"))
	assert.True(t, logger.contains("DEBUG: event complete"))
	assert.True(t, logger.contains("ERROR: event failed"))
	assert.True(t, logger.contains("no such actor"))
}

func TestBuffered_HandlerErrorIsLogged(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register(":BAD:", func(Event) (any, error) { return nil, errors.New("journal down") }, Buffered(4), Logged())

	res, err := d.Dispatch(Event{Command: ":BAD:", Tick: 9})
	require.NoError(t, err, "the caller only learns it was queued")
	assert.Equal(t, Queued, res)
	d.Close()

	assert.True(t, logger.contains("ERROR: buffered handler failed"))
	assert.True(t, logger.contains("journal down"))
}

func TestClose(t *testing.T) {
	d, _ := newTestDispatcher(t)
	var handled atomic.Int32
	d.Register(":SLOW:", func(Event) (any, error) {
		time.Sleep(5 * time.Millisecond)
		handled.Add(1)
		return nil, nil
	}, Buffered(10))
	d.Register(":SYNC:", func(Event) (any, error) { return "sync", nil })

	for i := 0; i < 5; i++ {
		_, err := d.Dispatch(Event{Command: ":SLOW:"})
		require.NoError(t, err)
	}
	d.Close()
	d.Close()
	assert.Equal(t, int32(5), handled.Load(), "queued events are drained")

	_, err := d.Dispatch(Event{Command: ":SLOW:"})
	assert.ErrorIs(t, err, ErrClosed)
	res, err := d.Dispatch(Event{Command: ":SYNC:"})
	require.NoError(t, err)
	assert.Equal(t, "sync", res)
}

func TestBufferLen(t *testing.T) {
	d, _ := newTestDispatcher(t)
	block := make(chan struct{})
	started := make(chan struct{}, 3)
	d.Register(":SLOW:", func(Event) (any, error) {
		started <- struct{}{}
		<-block
		return nil, nil
	}, Buffered(10))
	d.Register(":SYNC:", func(Event) (any, error) { return nil, nil })

	for i := 0; i < 3; i++ {
		_, err := d.Dispatch(Event{Command: ":SLOW:"})
		require.NoError(t, err)
	}
	<-started

	assert.Equal(t, 2, d.BufferLen(":SLOW:"))
	assert.Zero(t, d.BufferLen(":SYNC:"))
	assert.Zero(t, d.BufferLen(":NOPE:"))

	stats := d.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, ":SLOW:", stats[0].Command)
	assert.Equal(t, 2, stats[0].Pending)
	assert.False(t, stats[1].Buffered)

	close(block)
	d.Close()
}
