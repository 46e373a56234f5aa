package main

import (
	"fmt"
	"path/filepath"

	"github.com/OCAP2/gunplay/internal/config"
	"github.com/OCAP2/gunplay/internal/database"
	"github.com/OCAP2/gunplay/internal/storage"
	gormstorage "github.com/OCAP2/gunplay/internal/storage/gorm"
	"github.com/OCAP2/gunplay/internal/storage/memory"
	sqlitestorage "github.com/OCAP2/gunplay/internal/storage/sqlite"
)

func (a *app) createStorageBackend(cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Type {
	case "postgres":
		// Connect falls back to in-memory sqlite when postgres is down
		a.db = database.NewManager(a.zlog)
		if err := a.db.Connect(); err != nil {
			return nil, err
		}
		if a.db.ShouldSaveLocal {
			a.db.SqliteFilePath = a.dumpPath(cfg.SQLite.OutputDir)
			a.log.Warn("postgres unavailable, journaling to sqlite", "dump", a.db.SqliteFilePath)
			return sqlitestorage.New(sqlitestorage.Config{
				DSN:          database.MemoryDSN,
				DumpPath:     a.db.SqliteFilePath,
				DumpInterval: cfg.SQLite.DumpInterval,
			}, a.slog)
		}
		return gormstorage.New(gormstorage.Dependencies{
			DB:         a.db.DB,
			LogManager: a.slog,
		}), nil

	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpPath:     a.dumpPath(cfg.SQLite.OutputDir),
			DumpInterval: cfg.SQLite.DumpInterval,
		}, a.slog)

	case "memory", "":
		return memory.New(cfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func (a *app) dumpPath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.db", appName, a.start.Format("20060102_150405")))
}
