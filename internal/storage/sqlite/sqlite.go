// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend; the SQLite-specific parts are the in-memory
// connection and the dumps.
package sqlitestorage

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/OCAP2/gunplay/internal/database"
	"github.com/OCAP2/gunplay/internal/logging"
	gormstorage "github.com/OCAP2/gunplay/internal/storage/gorm"
	"github.com/OCAP2/gunplay/pkg/core"
)

var dsnCounter atomic.Uint64

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DSN          string // defaults to a private in-memory database
	DumpPath     string // Path for VACUUM INTO dumps
	DumpInterval time.Duration
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
	dumped   atomic.Bool
	looping  atomic.Bool
}

// New creates a new SQLite storage backend.
func New(cfg Config, logManager *logging.SlogManager) (*Backend, error) {
	if logManager == nil {
		logManager = logging.NewSlogManager()
	}
	if cfg.DSN == "" {
		cfg.DSN = fmt.Sprintf("file:gunplay-%d?mode=memory&cache=shared", dsnCounter.Add(1))
	}
	db, err := database.GetSqliteDB(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: logManager,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
		loopDone: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.looping.Store(true)
		go b.dumpLoop()
	}
	return nil
}

// EndSession writes the summary and dumps the database.
func (b *Backend) EndSession(summary core.SessionSummary) error {
	if err := b.Backend.EndSession(summary); err != nil {
		return err
	}
	return b.Dump()
}

// Close stops the dump goroutine, flushes the embedded GORM backend and
// writes a last dump.
func (b *Backend) Close() error {
	var err error
	b.stopOnce.Do(func() {
		close(b.stopChan)
		if b.looping.Load() {
			<-b.loopDone
		}
		err = b.Backend.Close()
		if dumpErr := b.Dump(); err == nil {
			err = dumpErr
		}
		if sqlDB, dbErr := b.db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
	})
	return err
}

// Dump snapshots the database to DumpPath. Without a path it does nothing.
func (b *Backend) Dump() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		return err
	}
	b.dumped.Store(true)
	return nil
}

// ExportedFilePath returns the dump file once one was written.
func (b *Backend) ExportedFilePath() string {
	if !b.dumped.Load() {
		return ""
	}
	return b.cfg.DumpPath
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so writers keep going.
func (b *Backend) dumpLoop() {
	defer close(b.loopDone)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Dump(); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			} else {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
			}
		}
	}
}
