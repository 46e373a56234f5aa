package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OCAP2/gunplay/internal/config"
	"github.com/OCAP2/gunplay/internal/storage"
	gormstorage "github.com/OCAP2/gunplay/internal/storage/gorm"
	"github.com/OCAP2/gunplay/internal/storage/memory"
	sqlitestorage "github.com/OCAP2/gunplay/internal/storage/sqlite"
)

func TestOptionalInterfaces(t *testing.T) {
	backends := map[string]storage.Backend{
		"memory": memory.New(config.MemoryConfig{}),
		"gorm":   gormstorage.New(gormstorage.Dependencies{}),
		"sqlite": &sqlitestorage.Backend{},
	}

	tests := []struct {
		name       string
		exportable bool
		queues     bool
		perf       bool
	}{
		{"memory", true, false, false},
		{"gorm", false, true, true},
		{"sqlite", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := backends[tt.name]
			_, ok := b.(storage.Exportable)
			assert.Equal(t, tt.exportable, ok)
			_, ok = b.(storage.QueueReporter)
			assert.Equal(t, tt.queues, ok)
			_, ok = b.(storage.PerformanceRecorder)
			assert.Equal(t, tt.perf, ok)
		})
	}
}
