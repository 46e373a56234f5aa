package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// bridgeScope names the instrumentation scope of bridged records.
const bridgeScope = "github.com/OCAP2/gunplay"

// console is where records go without a log file. Stdout carries command
// output, so it is stderr.
var console io.Writer = os.Stderr

// Options configure SlogManager.Setup.
type Options struct {
	Level string
	// Format is "text" or "json"; anything else is text.
	Format string
	// Provider also receives every record through the OTel bridge.
	Provider *sdklog.LoggerProvider
}

// SlogManager owns the process logger: a text or JSON sink plus the
// optional OTel bridge, with the session context in front of every line.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider
	context     ContextProvider
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetContextProvider makes every record logged after the next Setup carry
// the attributes returned by p.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.context = p
}

// Setup replaces the logger. Records go to w, or to the console when w is
// nil.
func (m *SlogManager) Setup(w io.Writer, opts Options) {
	if w == nil {
		w = console
	}
	m.logProvider = opts.Provider

	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	var sink slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		sink = slog.NewJSONHandler(w, handlerOpts)
	} else {
		sink = slog.NewTextHandler(w, handlerOpts)
	}
	var bridge slog.Handler
	if opts.Provider != nil {
		bridge = otelslog.NewHandler(bridgeScope, otelslog.WithLoggerProvider(opts.Provider))
	}

	var handler slog.Handler = NewFanout(sink, bridge)
	if m.context != nil {
		handler = NewSessionHandler(handler, m.context)
	}
	m.logger = slog.New(handler)
	m.logger.Debug("logging initialized", "level", opts.Level, "format", opts.Format)
}

// Logger returns slog.Default until Setup has run.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Component returns the logger tagged with the subsystem it is handed to.
func (m *SlogManager) Component(name string) *slog.Logger {
	return m.Logger().With("component", name)
}

// Flush pushes buffered OTel records out.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// WriteLog logs data at level with the calling function's name. Nothing is
// written before Setup.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), parseLevel(level), data, "function", functionName)
}
