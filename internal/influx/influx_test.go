package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gunplay/internal/model"
	"github.com/OCAP2/gunplay/pkg/core"
)

var at = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestNewManager(t *testing.T) {
	m := NewManager(zerolog.Nop(), "/tmp/backup.lp.gz")
	assert.False(t, m.IsValid)
	assert.Equal(t, DefaultBucketNames, m.BucketNames)
	assert.Equal(t, "/tmp/backup.lp.gz", m.BackupPath)
	assert.NotNil(t, m.Writers)
}

func TestConnect_Disabled(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.enabled", false)

	m := NewManager(zerolog.Nop(), "")
	assert.Error(t, m.Connect())
	assert.Nil(t, m.Client)
}

func TestWritePoint_Errors(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	err := m.WritePoint(context.Background(), BucketPerformance, PerformancePoint("range", model.GunplayPerformance{Time: at}))
	assert.Error(t, err, "no backup writer")

	m.IsValid = true
	err = m.WritePoint(context.Background(), "unknown", PerformancePoint("range", model.GunplayPerformance{Time: at}))
	assert.ErrorContains(t, err, "not registered")
}

func TestWritePoint_Backup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "influx.lp.gz")
	m := NewManager(zerolog.Nop(), path)
	require.NoError(t, m.OpenBackup())
	require.NoError(t, m.OpenBackup(), "opening twice keeps the writer")

	perf := model.GunplayPerformance{Time: at, Tick: 120, Actors: 2, Alive: 1}
	require.NoError(t, m.WritePoint(context.Background(), BucketPerformance, PerformancePoint("range", perf)))
	summary := core.SessionSummary{Ticks: 600, Kills: 1, Survivors: []core.EntityID{"p1"}}
	require.NoError(t, m.WritePoint(context.Background(), BucketCombat, SummaryPoint("range", summary, at)))
	require.NoError(t, m.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)

	lines := string(data)
	assert.Contains(t, lines, "performance,session=range ")
	assert.Contains(t, lines, "actors=2i")
	assert.Contains(t, lines, "alive=1i")
	assert.Contains(t, lines, "summary,session=range ")
	assert.Contains(t, lines, "kills=1i")
	assert.Contains(t, lines, "survivors=1i")
	assert.Equal(t, 2, strings.Count(lines, "\n"))
}

func TestClose_Idle(t *testing.T) {
	assert.NoError(t, NewManager(zerolog.Nop(), "").Close())
}
