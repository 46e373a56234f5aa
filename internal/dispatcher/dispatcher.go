package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrClosed is returned for buffered commands after Close.
	ErrClosed = errors.New("dispatcher closed")
	// ErrUnknownCommand is returned for commands nobody registered.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrQueueFull is returned when a non-blocking queue drops an event.
	ErrQueueFull = errors.New("queue full")
)

const instrumentationName = "github.com/OCAP2/gunplay/internal/dispatcher"

// Queued is the result of a buffered dispatch; the handler's own result
// is lost.
const Queued = "queued"

// Event is one combat record on its way to the journal.
type Event struct {
	Command   string
	Payload   any
	Tick      uint
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*route)

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(r *route) { r.size = size }
}

// Blocking makes a buffered handler wait for room instead of dropping.
func Blocking() Option {
	return func(r *route) { r.blocking = true }
}

// Logged adds debug logging around the handler.
func Logged() Option {
	return func(r *route) { r.logged = true }
}

// route is everything registered for one command.
type route struct {
	command  string
	attr     metric.MeasurementOption
	handle   HandlerFunc
	size     int
	blocking bool
	logged   bool
	queue    chan Event

	processed atomic.Int64
	dropped   atomic.Int64
}

// Stats counts what happened to one command's events.
type Stats struct {
	Command   string
	Buffered  bool
	Pending   int
	Processed int64
	Dropped   int64
}

// Dispatcher routes events to registered handlers. Buffered handlers run
// on one goroutine each, in dispatch order.
type Dispatcher struct {
	routes map[string]*route
	logger Logger

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter

	// mu guards closed against enqueues racing Close, and routes against
	// the metric callback
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a Dispatcher. Metrics go to the global OTel meter.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		routes: make(map[string]*route),
		logger: logger,
	}

	m := otel.Meter(instrumentationName)
	var err error
	if d.queueSize, err = m.Int64ObservableGauge("gunplay.dispatcher.queue.size",
		metric.WithDescription("Events waiting in a buffered handler's queue")); err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	if _, err = m.RegisterCallback(d.observeQueues, d.queueSize); err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}
	if d.processed, err = m.Int64Counter("gunplay.dispatcher.events.processed",
		metric.WithDescription("Buffered events handled")); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if d.dropped, err = m.Int64Counter("gunplay.dispatcher.events.dropped",
		metric.WithDescription("Events dropped on a full queue")); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return d, nil
}

func (d *Dispatcher) observeQueues(_ context.Context, o metric.Observer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.routes {
		if r.queue != nil {
			o.ObserveInt64(d.queueSize, int64(len(r.queue)), r.attr)
		}
	}
	return nil
}

// Register adds a handler for command. All handlers are registered before
// the first Dispatch.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	r := &route{
		command: command,
		attr:    metric.WithAttributes(attribute.String("command", command)),
		handle:  h,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logged {
		r.handle = d.withLogging(command, r.handle)
	}
	if r.size > 0 {
		r.queue = make(chan Event, r.size)
		d.wg.Add(1)
		go d.drain(r)
	}
	d.mu.Lock()
	d.routes[command] = r
	d.mu.Unlock()
}

// Dispatch hands e to its handler, stamping it with the wall time when it
// has none. Buffered commands return Queued at once.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	r, ok := d.routes[e.Command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if r.queue == nil {
		return r.handle(e)
	}
	return d.enqueue(r, e)
}

func (d *Dispatcher) enqueue(r *route, e Event) (any, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}
	if r.blocking {
		r.queue <- e
		return Queued, nil
	}
	select {
	case r.queue <- e:
		return Queued, nil
	default:
		r.dropped.Add(1)
		d.dropped.Add(context.Background(), 1, r.attr)
		return nil, fmt.Errorf("%w: %s", ErrQueueFull, r.command)
	}
}

func (d *Dispatcher) drain(r *route) {
	defer d.wg.Done()
	for e := range r.queue {
		if _, err := r.handle(e); err != nil {
			d.logger.Error("buffered handler failed", "command", r.command, "tick", e.Tick, "error", err)
		}
		r.processed.Add(1)
		d.processed.Add(context.Background(), 1, r.attr)
	}
}

// HasHandler reports whether command is registered.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.routes[command]
	return ok
}

// BufferLen returns the number of events waiting in a buffered handler's
// queue, or 0 for sync commands.
func (d *Dispatcher) BufferLen(command string) int {
	if r, ok := d.routes[command]; ok && r.queue != nil {
		return len(r.queue)
	}
	return 0
}

// Dropped returns how many events all non-blocking queues turned away.
func (d *Dispatcher) Dropped() int64 {
	var n int64
	for _, r := range d.routes {
		n += r.dropped.Load()
	}
	return n
}

// Stats returns per-command counts, sorted by command.
func (d *Dispatcher) Stats() []Stats {
	out := make([]Stats, 0, len(d.routes))
	for _, r := range d.routes {
		out = append(out, Stats{
			Command:   r.command,
			Buffered:  r.queue != nil,
			Pending:   d.BufferLen(r.command),
			Processed: r.processed.Load(),
			Dropped:   r.dropped.Load(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// Close stops accepting buffered events and waits until every queued one
// has been handled. Sync handlers keep working.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, r := range d.routes {
		if r.queue != nil {
			close(r.queue)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "tick", e.Tick)
		result, err := h(e)
		if err != nil {
			d.logger.Error("event failed", "command", command, "tick", e.Tick, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		}
		return result, err
	}
}
