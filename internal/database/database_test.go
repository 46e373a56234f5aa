package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gunplay/internal/model"
)

func TestPostgresDSN(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("db.host", "db.local")
	viper.Set("db.port", "5433")
	viper.Set("db.username", "gp")
	viper.Set("db.password", "secret")
	viper.Set("db.database", "journal")

	assert.Equal(t, "host=db.local port=5433 user=gp password=secret dbname=journal sslmode=disable", PostgresDSN())
}

func TestSetup_RequiresConnection(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.Error(t, m.Setup())
	assert.NoError(t, m.Close())
}

func TestSqliteSetupAndDump(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.ConnectSqlite("file:setupdump?mode=memory&cache=shared"))
	t.Cleanup(func() { _ = m.Close() })
	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)

	require.NoError(t, m.Setup())
	for _, tbl := range model.DatabaseModels {
		assert.True(t, m.DB.Migrator().HasTable(tbl), "%T", tbl)
	}

	require.NoError(t, m.DB.Create(&model.Session{Name: "range"}).Error)

	dir := t.TempDir()
	m.SqliteFilePath = filepath.Join(dir, "nested", "range.db")
	require.NoError(t, m.DumpMemoryToDisk())
	// a second dump replaces the first
	require.NoError(t, m.DumpMemoryToDisk())

	disk, err := GetSqliteDB(m.SqliteFilePath)
	require.NoError(t, err)
	var s model.Session
	require.NoError(t, disk.First(&s).Error)
	assert.Equal(t, "range", s.Name)
	sqlDB, err := disk.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	paths, err := GetBackupDBPaths(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Equal(t, []string{m.SqliteFilePath}, paths)
}

func TestDumpMemoryDBToDisk_Errors(t *testing.T) {
	assert.Error(t, DumpMemoryDBToDisk(nil, "x.db"))

	db, err := GetSqliteDB("file:dumperrors?mode=memory&cache=shared")
	require.NoError(t, err)
	assert.Error(t, DumpMemoryDBToDisk(db, ""))
	assert.Error(t, DumpMemoryDBToDisk(db, "it's.db"))
}

func TestGetBackupDBPaths_SkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.db"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c.db"), 0755))

	paths, err := GetBackupDBPaths(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.db")}, paths)

	_, err = GetBackupDBPaths(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
