package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"GunplayPerformance", &GunplayPerformance{}, "gunplay_performances"},
		{"Session", &Session{}, "sessions"},
		{"Actor", &Actor{}, "actors"},
		{"ShotEvent", &ShotEvent{}, "shot_events"},
		{"HitEvent", &HitEvent{}, "hit_events"},
		{"ProjectileEvent", &ProjectileEvent{}, "projectile_events"},
		{"ReloadEvent", &ReloadEvent{}, "reload_events"},
		{"SwitchEvent", &SwitchEvent{}, "switch_events"},
		{"GrenadeEvent", &GrenadeEvent{}, "grenade_events"},
		{"ExplosionEvent", &ExplosionEvent{}, "explosion_events"},
		{"PickupEvent", &PickupEvent{}, "pickup_events"},
		{"KillEvent", &KillEvent{}, "kill_events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModelsHaveTableNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range DatabaseModels {
		tn, ok := m.(interface{ TableName() string })
		if assert.True(t, ok, "%T has no TableName", m) {
			assert.False(t, seen[tn.TableName()], "duplicate table %s", tn.TableName())
			seen[tn.TableName()] = true
		}
	}
	assert.Len(t, seen, 12)
}

func TestHypertablesAreModelTables(t *testing.T) {
	tables := map[string]bool{}
	for _, m := range DatabaseModels {
		tables[m.(interface{ TableName() string }).TableName()] = true
	}
	for table, segments := range Hypertables {
		assert.True(t, tables[table], "%s is not a model table", table)
		assert.NotEmpty(t, segments)
	}
}
