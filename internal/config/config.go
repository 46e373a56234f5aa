package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config dir.
const FileName = "gunplay.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the in-memory sqlite journal
type SQLiteConfig struct {
	OutputDir    string        `json:"outputDir" mapstructure:"outputDir"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the journal backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"` // memory, sqlite, postgres
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry log and metric export settings
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout   time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	MetricInterval time.Duration `json:"metricInterval" mapstructure:"metricInterval"`
	Endpoint       string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `json:"insecure" mapstructure:"insecure"`
}

// CombatConfig holds the session-wide combat switches
type CombatConfig struct {
	InfiniteAmmo      bool    `json:"infiniteAmmo" mapstructure:"infiniteAmmo"`
	InfiniteGrenade   bool    `json:"infiniteGrenade" mapstructure:"infiniteGrenade"`
	SwitchOnExhausted bool    `json:"switchOnExhausted" mapstructure:"switchOnExhausted"`
	TickRate          float64 `json:"tickRate" mapstructure:"tickRate"`
}

// GrenadeConfig holds the grenade thrower defaults
type GrenadeConfig struct {
	StartAmount      int     `json:"startAmount" mapstructure:"startAmount"`
	PlayerCooldown   float64 `json:"playerCooldown" mapstructure:"playerCooldown"`
	EnemyCooldownMin float64 `json:"enemyCooldownMin" mapstructure:"enemyCooldownMin"`
	EnemyCooldownMax float64 `json:"enemyCooldownMax" mapstructure:"enemyCooldownMax"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "text")
	viper.SetDefault("logsDir", "./gunplaylogs")

	viper.SetDefault("combat.infiniteAmmo", false)
	viper.SetDefault("combat.infiniteGrenade", false)
	viper.SetDefault("combat.switchOnExhausted", true)
	viper.SetDefault("combat.tickRate", 60.0)

	viper.SetDefault("grenade.startAmount", 3)
	viper.SetDefault("grenade.playerCooldown", 1.0)
	viper.SetDefault("grenade.enemyCooldownMin", 2.0)
	viper.SetDefault("grenade.enemyCooldownMax", 10.0)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./sessions")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.outputDir", "./sessions")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "gunplay")
	viper.SetDefault("db.timescale", false)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "gunplay-metrics")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "gunplay")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "10s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "1s")

	viper.SetDefault("realtime", false)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. A missing file
// leaves the defaults in place.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetStorageConfig returns the storage configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			OutputDir:    viper.GetString("storage.sqlite.outputDir"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

// GetCombatConfig returns the combat configuration.
func GetCombatConfig() CombatConfig {
	return CombatConfig{
		InfiniteAmmo:      viper.GetBool("combat.infiniteAmmo"),
		InfiniteGrenade:   viper.GetBool("combat.infiniteGrenade"),
		SwitchOnExhausted: viper.GetBool("combat.switchOnExhausted"),
		TickRate:          viper.GetFloat64("combat.tickRate"),
	}
}

// GetGrenadeConfig returns the grenade configuration. A reversed enemy
// cooldown range is an error.
func GetGrenadeConfig() (GrenadeConfig, error) {
	cfg := GrenadeConfig{
		StartAmount:      viper.GetInt("grenade.startAmount"),
		PlayerCooldown:   viper.GetFloat64("grenade.playerCooldown"),
		EnemyCooldownMin: viper.GetFloat64("grenade.enemyCooldownMin"),
		EnemyCooldownMax: viper.GetFloat64("grenade.enemyCooldownMax"),
	}
	if cfg.EnemyCooldownMin > cfg.EnemyCooldownMax {
		return cfg, fmt.Errorf("grenade.enemyCooldownMin %v exceeds grenade.enemyCooldownMax %v",
			cfg.EnemyCooldownMin, cfg.EnemyCooldownMax)
	}
	return cfg, nil
}
