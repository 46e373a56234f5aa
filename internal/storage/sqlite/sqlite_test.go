package sqlitestorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gunplay/internal/database"
	"github.com/OCAP2/gunplay/internal/model"
	"github.com/OCAP2/gunplay/internal/storage"
	gormstorage "github.com/OCAP2/gunplay/internal/storage/gorm"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Compile-time interface checks
var (
	_ storage.Backend       = (*Backend)(nil)
	_ storage.Exportable    = (*Backend)(nil)
	_ storage.QueueReporter = (*Backend)(nil)
)

var start = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestNew_PrivateDatabases(t *testing.T) {
	a, err := New(Config{}, nil)
	require.NoError(t, err)
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.cfg.DSN, b.cfg.DSN)
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
}

func TestEndSession_DumpsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "range.db")
	b, err := New(Config{DumpPath: path}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	assert.Empty(t, b.ExportedFilePath())

	s := &core.Session{Name: "dump", StartTime: start, TickRate: 60}
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.AddActor(&core.Actor{EntityID: "p1", Kind: core.ActorPlayer, JoinTime: start}))
	require.NoError(t, b.RecordShotEvent(&core.ShotEvent{ActorID: "p1", Weapon: "Rifle", Tick: 1}))
	require.NoError(t, b.EndSession(core.SessionSummary{Ticks: 60, Shots: 1}))
	assert.Equal(t, path, b.ExportedFilePath())

	disk, err := database.GetSqliteDB(path)
	require.NoError(t, err)
	defer func() {
		if sqlDB, err := disk.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	var shots []model.ShotEvent
	require.NoError(t, disk.Find(&shots).Error)
	require.Len(t, shots, 1)
	assert.Equal(t, "Rifle", shots[0].Weapon)

	sessions, err := gormstorage.Sessions(disk)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "dump", sessions[0].Name)
}

func TestClose_WritesFinalDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.db")
	b, err := New(Config{DumpPath: path, DumpInterval: time.Hour}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.StartSession(&core.Session{Name: "close", StartTime: start, TickRate: 60}))
	require.NoError(t, b.RecordKillEvent(&core.KillEvent{VictimID: "e1", KillerID: "p1"}))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.FileExists(t, path)
	assert.Equal(t, path, b.ExportedFilePath())
}

func TestDump_WithoutPath(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	assert.NoError(t, b.Dump())
	assert.Empty(t, b.ExportedFilePath())
}
