package logging

import (
	"context"
	"errors"
	"log/slog"
)

// ContextProvider returns the attributes of whatever is running right now,
// typically the session name and the current tick.
type ContextProvider func() []slog.Attr

// SessionHandler puts the provider's attributes in front of every record,
// so lines from different ticks line up when grepped. They are read at
// Handle time, not when the logger is built.
type SessionHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewSessionHandler(inner slog.Handler, provider ContextProvider) *SessionHandler {
	return &SessionHandler{inner: inner, provider: provider}
}

func (h *SessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *SessionHandler) Handle(ctx context.Context, r slog.Record) error {
	var attrs []slog.Attr
	if h.provider != nil {
		attrs = h.provider()
	}
	if len(attrs) == 0 {
		return h.inner.Handle(ctx, r)
	}
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	out.AddAttrs(attrs...)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(a)
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *SessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SessionHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *SessionHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SessionHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}

// Fanout hands each record to every sink that wants its level. A failing
// sink does not starve the others; their errors come back joined.
type Fanout struct {
	sinks []slog.Handler
}

// NewFanout skips nil sinks.
func NewFanout(sinks ...slog.Handler) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (f *Fanout) each(fn func(slog.Handler) slog.Handler) *Fanout {
	out := &Fanout{sinks: make([]slog.Handler, len(f.sinks))}
	for i, s := range f.sinks {
		out.sinks[i] = fn(s)
	}
	return out
}
