package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/OCAP2/gunplay/internal/influx"
	"github.com/OCAP2/gunplay/internal/logging"
	"github.com/OCAP2/gunplay/internal/model"
	"github.com/OCAP2/gunplay/internal/session"
	"github.com/OCAP2/gunplay/internal/worker"
)

// DefaultInterval is the sampling period when none is configured.
const DefaultInterval = time.Second

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	DB             *gorm.DB
	LogManager     *logging.SlogManager
	SessionContext *session.Context
	WorkerManager  *worker.Manager
	Buffers        worker.BufferLenProvider
	Influx         *influx.Manager
	// Population reports registered actors and how many are alive.
	Population func() (actors, alive int)
	StatusDir  string
	Interval   time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current program status
func (s *Service) GetProgramStatus(
	rawBuffers bool,
	writeQueues bool,
	lastWrite bool,
) (output []string, perfModel model.GunplayPerformance) {
	current := s.deps.SessionContext.GetSession()
	tick := s.deps.SessionContext.Tick()

	var buffersObj model.BufferLengths
	if s.deps.Buffers != nil {
		buffersObj = worker.BufferLengths(s.deps.Buffers)
	}
	writeQueuesObj := s.deps.WorkerManager.QueueLengths()

	perf := model.GunplayPerformance{
		Time:                s.deps.SessionContext.TimeAt(tick),
		SessionID:           current.ID,
		Tick:                tick,
		BufferLengths:       buffersObj,
		WriteQueueLengths:   writeQueuesObj,
		LastWriteDurationMs: float32(s.deps.WorkerManager.GetLastDBWriteDuration().Milliseconds()),
	}
	if s.deps.Population != nil {
		actors, alive := s.deps.Population()
		perf.Actors, perf.Alive = uint16(actors), uint16(alive)
	}

	if rawBuffers {
		output = append(output, marshal(buffersObj))
	}
	if writeQueues {
		output = append(output, marshal(writeQueuesObj))
	}
	if lastWrite {
		output = append(output, marshal(perf.LastWriteDurationMs))
	}

	return output, perf
}

func marshal(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "%s"}`, err)
	}
	return string(b)
}

// Sample takes one measurement and hands it to the journal and InfluxDB.
// The status lines are returned for the status file.
func (s *Service) Sample(ctx context.Context) ([]string, error) {
	statusStr, perfModel := s.GetProgramStatus(true, true, true)

	var errs []error
	if err := s.deps.WorkerManager.RecordPerformance(&perfModel); err != nil {
		errs = append(errs, fmt.Errorf("error recording perf model: %w", err))
	}
	if s.deps.Influx != nil {
		name := s.deps.SessionContext.GetSession().Name
		if err := s.deps.Influx.WritePoint(ctx, influx.BucketPerformance, influx.PerformancePoint(name, perfModel)); err != nil {
			errs = append(errs, fmt.Errorf("error writing perf point: %w", err))
		}
	}
	return statusStr, errors.Join(errs...)
}

// ValidateHypertables validates and creates TimescaleDB hypertables
func (s *Service) ValidateHypertables(tables map[string][]string) error {
	functionName := "validateHypertables"

	for table := range tables {
		hypertable := any(nil)
		s.deps.DB.Raw(`SELECT x.* FROM timescaledb_information.hypertables x WHERE hypertable_name = ?`, table).Scan(&hypertable)
		if hypertable != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Table %s is already configured`, table), "INFO")
			continue
		}

		queryCreateHypertable := fmt.Sprintf(`
				SELECT create_hypertable('%s', 'time', chunk_time_interval => interval '1 day', if_not_exists => true);
			`, table)
		err := s.deps.DB.Exec(queryCreateHypertable).Error
		if err != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Failed to create hypertable for %s. Err: %s`, table, err), "ERROR")
			return err
		}
		s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Created hypertable for %s`, table), "INFO")

		queryCompressHypertable := fmt.Sprintf(`
				ALTER TABLE %s SET (
					timescaledb.compress,
					timescaledb.compress_segmentby = ?);
			`, table)
		err = s.deps.DB.Exec(
			queryCompressHypertable,
			strings.Join(tables[table], ","),
		).Error
		if err != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Failed to enable compression for %s. Err: %s`, table, err), "ERROR")
			return err
		}
		s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Enabled hypertable compression for %s`, table), "INFO")
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	var statusFile *os.File
	if s.deps.StatusDir != "" {
		if err := os.MkdirAll(s.deps.StatusDir, 0755); err != nil {
			return fmt.Errorf("error creating status dir: %w", err)
		}
		f, err := os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
		if err != nil {
			return fmt.Errorf("error creating status file: %w", err)
		}
		statusFile = f
	}

	go func() {
		defer close(s.done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()
		if statusFile != nil {
			defer statusFile.Close()
		}

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				if s.deps.SessionContext.GetSession().ID == 0 {
					continue
				}

				statusStr, err := s.Sample(context.Background())
				if err != nil {
					logger.Error("Error sampling performance", "error", err)
				}

				if statusFile != nil {
					_ = statusFile.Truncate(0)
					_, _ = statusFile.Seek(0, 0)
					for _, line := range statusStr {
						_, _ = statusFile.WriteString(line + "\n")
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the goroutine to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
