package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gunplay/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("gunplay"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSink(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "gunplay"})
	assert.ErrorContains(t, err, "no log writer or endpoint")
}

func TestNew_FileExportsCounters(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromSettings(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "gunplay",
		BatchTimeout: time.Second,
	}, &buf)
	cfg.Version = "0.1.0"
	p, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())
	assert.True(t, p.Enabled())

	shots, err := p.Meter("gunplay-test").Int64Counter("gunplay.test.shots")
	require.NoError(t, err)
	shots.Add(context.Background(), 3)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "gunplay.test.shots")
	assert.Contains(t, buf.String(), "0.1.0", "the resource carries the version")
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestFromSettings(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromSettings(config.OTelConfig{
		Enabled:        true,
		ServiceName:    "svc",
		BatchTimeout:   2 * time.Second,
		MetricInterval: time.Minute,
		Endpoint:       "localhost:4318",
		Insecure:       true,
	}, &buf)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "svc", cfg.ServiceName)
	assert.Equal(t, 2*time.Second, cfg.BatchTimeout)
	assert.Equal(t, time.Minute, cfg.MetricInterval)
	assert.Equal(t, "localhost:4318", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Same(t, &buf, cfg.LogWriter)
}
