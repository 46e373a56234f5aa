package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/OCAP2/gunplay/internal/cache"
	"github.com/OCAP2/gunplay/internal/config"
	"github.com/OCAP2/gunplay/internal/database"
	"github.com/OCAP2/gunplay/internal/dispatcher"
	"github.com/OCAP2/gunplay/internal/influx"
	"github.com/OCAP2/gunplay/internal/logging"
	"github.com/OCAP2/gunplay/internal/model"
	"github.com/OCAP2/gunplay/internal/monitor"
	intOtel "github.com/OCAP2/gunplay/internal/otel"
	"github.com/OCAP2/gunplay/internal/scenario"
	"github.com/OCAP2/gunplay/internal/session"
	"github.com/OCAP2/gunplay/internal/storage"
	"github.com/OCAP2/gunplay/internal/worker"
	"github.com/OCAP2/gunplay/pkg/core"
)

const appName = "gunplay"

// app is everything one run needs: logging, telemetry, the dispatcher and
// the journal behind it.
type app struct {
	start   time.Time
	logsDir string

	slog    *logging.SlogManager
	log     *slog.Logger
	zlog    zerolog.Logger
	logFile *os.File
	otel    *intOtel.Provider

	session    *session.Context
	dispatcher *dispatcher.Dispatcher
	backend    storage.Backend
	worker     *worker.Manager
	influx     *influx.Manager
	db         *database.Manager
}

func newApp(start time.Time) (*app, error) {
	a := &app{
		start:   start,
		logsDir: config.GetString("logsDir"),
		slog:    logging.NewSlogManager(),
		session: session.NewContext(),
	}
	a.log = a.slog.Logger()
	if err := a.setupLogging(); err != nil {
		a.close()
		return nil, err
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(a.zlog))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	a.dispatcher = d

	if err := a.setupStorage(); err != nil {
		a.close()
		return nil, err
	}
	a.worker = worker.NewManager(worker.Dependencies{
		ActorCache:     cache.NewActorCache(),
		LogManager:     a.slog,
		SessionContext: a.session,
	}, a.backend)
	a.worker.RegisterHandlers(d)

	a.setupInflux()
	return a, nil
}

// setupLogging opens the log file, when a logs dir is set, and points
// slog, the OTel bridge and zerolog at it.
func (a *app) setupLogging() error {
	var w io.Writer
	if a.logsDir != "" {
		if err := os.MkdirAll(a.logsDir, 0755); err != nil {
			return fmt.Errorf("error creating logs dir: %w", err)
		}
		f, err := os.OpenFile(logging.LogFilePath(a.logsDir, appName, a.start), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		a.logFile = f
		w = f
	}

	otelCfg := intOtel.FromSettings(config.GetOTelConfig(), w)
	otelCfg.Version = Version
	provider, err := intOtel.New(otelCfg)
	if err != nil {
		return fmt.Errorf("failed to set up OpenTelemetry: %w", err)
	}
	a.otel = provider

	level := config.GetString("logLevel")
	a.slog.SetContextProvider(a.session.LogAttrs)
	a.slog.Setup(w, logging.Options{
		Level:    level,
		Format:   config.GetString("logFormat"),
		Provider: provider.LoggerProvider(),
	})
	a.log = a.slog.Logger()

	zw := w
	if zw == nil {
		zw = os.Stderr
	}
	a.zlog = logging.NewZerolog(zw, level)
	return nil
}

func (a *app) setupStorage() error {
	cfg := config.GetStorageConfig()
	backend, err := a.createStorageBackend(cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s storage backend: %w", cfg.Type, err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize %s storage backend: %w", cfg.Type, err)
	}
	a.backend = backend
	a.log.Info("storage backend initialized", "type", cfg.Type)
	return nil
}

// setupInflux connects to InfluxDB when enabled. A failed connection is
// logged and the run goes on without it.
func (a *app) setupInflux() {
	if !config.GetBool("influx.enabled") {
		return
	}
	dir := a.logsDir
	if dir == "" {
		dir = "."
	}
	backup := filepath.Join(dir, fmt.Sprintf("%s_influx_%s.lp.gz", appName, a.start.Format("20060102_150405")))
	m := influx.NewManager(a.zlog, backup)
	if err := m.Connect(); err != nil {
		a.log.Warn("InfluxDB unavailable", "error", err)
		return
	}
	a.influx = m
}

// newMonitor builds the performance monitor for a run. On a TimescaleDB
// journal it also turns the performance table into a hypertable.
func (a *app) newMonitor(r *scenario.Runner) *monitor.Service {
	deps := monitor.Dependencies{
		LogManager:     a.slog,
		SessionContext: a.session,
		WorkerManager:  a.worker,
		Buffers:        a.dispatcher,
		Influx:         a.influx,
		Population:     r.Population,
		StatusDir:      a.logsDir,
		Interval:       config.GetDuration("monitor.interval"),
	}
	if a.db != nil {
		deps.DB = a.db.DB
	}
	svc := monitor.NewService(deps)
	if deps.DB != nil && deps.DB.Name() == "postgres" && config.GetBool("db.timescale") {
		if err := svc.ValidateHypertables(model.Hypertables); err != nil {
			a.log.Warn("failed to set up hypertables", "error", err)
		}
	}
	return svc
}

// play runs the scenario at path to its end and records it. The journal
// is closed out even when the run is cut short.
func (a *app) play(ctx context.Context, path string, out io.Writer) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(sc.CatalogPath())
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	grenades, err := config.GetGrenadeConfig()
	if err != nil {
		return err
	}

	r, err := scenario.NewRunner(sc, cat, scenario.Deps{
		Dispatcher: a.dispatcher,
		Session:    a.session,
		Combat:     config.GetCombatConfig(),
		Grenade:    grenades,
		Realtime:   config.GetBool("realtime"),
		Logger:     a.slog.Component("scenario"),
	})
	if err != nil {
		return err
	}

	mon := a.newMonitor(r)
	s, err := r.Start(a.start)
	if err != nil {
		return err
	}
	if config.GetBool("monitor.enabled") {
		if err := mon.Start(); err != nil {
			a.log.Warn("failed to start monitor", "error", err)
		}
	}

	res, runErr := r.Run(ctx)
	if runErr != nil {
		a.log.Error("run stopped", "tick", res.Ticks, "error", runErr)
	}

	mon.Stop()
	if _, err := mon.Sample(context.Background()); err != nil {
		a.log.Warn("failed to take the final sample", "error", err)
	}

	// drain the buffered handlers so the counts are final
	a.dispatcher.Close()
	for _, st := range a.dispatcher.Stats() {
		if st.Dropped > 0 {
			a.log.Warn("events dropped", "command", st.Command, "dropped", st.Dropped, "processed", st.Processed)
		}
	}
	if alive := a.worker.Alive(); len(alive) != len(res.Survivors) {
		a.log.Warn("journaled kills disagree with the arena", "journal", alive, "arena", res.Survivors)
	}
	summary := a.worker.Summary(res.Ticks, res.Survivors)
	at := a.session.TimeAt(res.Ticks)
	if _, err := a.dispatcher.Dispatch(dispatcher.Event{Command: core.CmdEndSession, Payload: &summary, Tick: res.Ticks, Timestamp: at}); err != nil {
		return errors.Join(runErr, fmt.Errorf("failed to end session: %w", err))
	}
	if a.influx != nil {
		if err := a.influx.WritePoint(context.Background(), influx.BucketCombat, influx.SummaryPoint(s.Name, summary, at)); err != nil {
			a.log.Warn("failed to write summary point", "error", err)
		}
	}

	printSummary(out, s, res, summary, a.worker.Pickups(), a.dispatcher.Dropped())
	if e, ok := a.backend.(storage.Exportable); ok && e.ExportedFilePath() != "" {
		fmt.Fprintf(out, "journal: %s\n", e.ExportedFilePath())
	}
	return runErr
}

func printSummary(out io.Writer, s *core.Session, res scenario.Result, sum core.SessionSummary, pickups int, dropped int64) {
	secs := 0.0
	if s.TickRate > 0 {
		secs = float64(res.Ticks) / s.TickRate
	}
	fmt.Fprintf(out, "session %d %q: %d ticks (%.2fs)", s.ID, s.Name, res.Ticks, secs)
	if res.Decided {
		fmt.Fprint(out, ", decided early")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "shots %d, hits %d, reloads %d, switches %d, grenades %d, explosions %d, pickups %d, kills %d\n",
		sum.Shots, sum.Hits, sum.Reloads, sum.Switches, sum.Grenades, sum.Explosions, pickups, sum.Kills)
	fmt.Fprintf(out, "survivors: %v\n", sum.Survivors)
	if dropped > 0 {
		fmt.Fprintf(out, "dropped %d events on full queues\n", dropped)
	}
}

// close shuts everything down in reverse order of setup. It is safe to
// call on a partially built app.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.log.Error("failed to close storage backend", "error", err)
		}
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.log.Warn("failed to close InfluxDB", "error", err)
		}
	}
	if a.slog != nil {
		_ = a.slog.Flush(ctx)
	}
	if a.otel != nil {
		_ = a.otel.Shutdown(ctx)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
