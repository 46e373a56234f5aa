package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gunplay/internal/config"
	"github.com/OCAP2/gunplay/pkg/core"
)

func recordSample(t *testing.T, b *Backend) {
	t.Helper()
	require.NoError(t, b.AddActor(&core.Actor{
		EntityID: "p1",
		Kind:     core.ActorPlayer,
		Name:     "Alpha",
		Health:   100,
		Spawn:    core.Vec3{X: 1, Z: 2},
		Weapons:  []string{"Rifle"},
	}))
	require.NoError(t, b.AddActor(&core.Actor{EntityID: "e1", Kind: core.ActorEnemy, Name: "Bravo"}))

	require.NoError(t, b.RecordShotEvent(&core.ShotEvent{ActorID: "p1", Tick: 6, Weapon: "Rifle", Round: 1, Direction: core.Vec3{Z: 1}}))
	require.NoError(t, b.RecordReloadEvent(&core.ReloadEvent{ActorID: "p1", Tick: 30, Weapon: "Rifle", Mode: core.ReloadFull, Phase: core.ReloadStarted, Capacity: 0, Ledger: 60}))
	require.NoError(t, b.RecordSwitchEvent(&core.SwitchEvent{ActorID: "p1", Tick: 90, From: "Rifle", To: "Pistol", Phase: core.SwitchStarted}))
	require.NoError(t, b.RecordPickupEvent(&core.PickupEvent{ActorID: "p1", Tick: 3, Kind: core.PickupAmmo, Item: "556", Amount: 30, Accepted: true}))
	require.NoError(t, b.RecordGrenadeEvent(&core.GrenadeThrowEvent{ActorID: "e1", Tick: 50, Remaining: 2}))

	require.NoError(t, b.RecordKillEvent(&core.KillEvent{Tick: 7, VictimID: "e1", KillerID: "p1", Weapon: "Rifle"}))
	require.NoError(t, b.RecordHitEvent(&core.HitEvent{Tick: 6, ShooterID: "p1", TargetID: "e1", Weapon: "Rifle", Distance: 9.6, Damage: 40, Valid: true}))
	require.NoError(t, b.RecordExplosionEvent(&core.ExplosionEvent{Tick: 120, SourceID: "e1", Radius: 5, Damages: []core.Damage{{TargetID: "p1", Amount: 36, Distance: 2}}}))
	require.NoError(t, b.RecordProjectileEvent(&core.ProjectileEvent{Tick: 2, ActorID: "p1", Weapon: "Launcher", Prefab: "Rocket"}))
}

func TestBuildExport(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{})
	recordSample(t, b)
	b.summary = core.SessionSummary{Ticks: 100, Shots: 1, Hits: 1, Kills: 1, Survivors: []core.EntityID{"p1"}}

	export := b.buildExport()
	assert.Equal(t, FormatVersion, export.Version)
	assert.Equal(t, "Range Day", export.Name)
	assert.Equal(t, uint(120), export.EndTick, "latest event is after the last summarized tick")
	assert.Equal(t, []string{"p1"}, export.Summary.Survivors)

	require.Len(t, export.Actors, 2)
	p1 := export.Actors[0]
	assert.Equal(t, "p1", p1.EntityID)
	assert.Equal(t, []float64{1, 0, 2}, p1.Spawn)
	assert.Equal(t, []any{uint(6), "Rifle", uint(1), []float64{0, 0, 0}, []float64{0, 0, 1}}, p1.Shots[0])
	assert.Equal(t, []any{uint(30), "Rifle", "full", "started", 0, 0, 60}, p1.Reloads[0])
	assert.Equal(t, []any{uint(90), "Rifle", "Pistol", "started", 0}, p1.Switches[0])
	assert.Equal(t, []any{uint(3), "ammo", "556", 30, 1}, p1.Pickups[0])
	assert.Empty(t, p1.Grenades)
	assert.Equal(t, []string{}, export.Actors[1].Weapons)
	assert.Len(t, export.Actors[1].Grenades, 1)

	require.Len(t, export.Events, 4)
	var kinds []string
	for _, e := range export.Events {
		kinds = append(kinds, e[1].(string))
	}
	assert.Equal(t, []string{"projectile", "hit", "killed", "explosion"}, kinds, "ordered by tick")
	assert.Equal(t, []any{uint(7), "killed", "e1", []any{"p1", "Rifle"}, 0}, export.Events[2])
	assert.Equal(t, []any{"p1", 36.0, 2.0}, export.Events[3][6].([][]any)[0])
}

func TestEndSession_WritesGzip(t *testing.T) {
	dir := t.TempDir()
	b := startedBackend(t, config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	recordSample(t, b)

	require.NoError(t, b.EndSession(core.SessionSummary{Ticks: 200, Kills: 1}))
	path := b.ExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "Range_Day_20260314_120000.json.gz"), path)

	export, err := ReadExport(path)
	require.NoError(t, err)
	assert.Equal(t, "Range Day", export.Name)
	assert.Equal(t, uint(200), export.EndTick)
	assert.Equal(t, 1, export.Summary.Kills)
	assert.Len(t, export.Actors, 2)
	assert.Len(t, export.Events, 4)
	assert.True(t, export.StartTime.Equal(start))
}

func TestEndSession_WritesPlainJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	b := startedBackend(t, config.MemoryConfig{OutputDir: dir})

	require.NoError(t, b.EndSession(core.SessionSummary{}))
	path := b.ExportedFilePath()
	assert.Equal(t, ".json", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":"1"`)
	assert.Contains(t, string(data), `"actors":[]`)
	assert.Contains(t, string(data), `"events":[]`)
}

func TestReadExport_Errors(t *testing.T) {
	_, err := ReadExport(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json.gz")
	require.NoError(t, os.WriteFile(bad, []byte("not gzip"), 0644))
	_, err = ReadExport(bad)
	assert.Error(t, err)
}
