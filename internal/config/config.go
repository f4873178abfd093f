// Package config loads the core's static configuration: node store
// capacity and depth limits, walk and recursion bounds, logger
// level/format, the metrics listener address, and the replay-log path. It follows a
// viper-plus-mapstructure convention, validated with
// go-playground/validator/v10 rather than a hand-rolled
// Validate function.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the top-level configuration for one corefib orchestrator
// process. Configuration sources, highest precedence first: environment
// variables prefixed COREFIB_, a YAML config file, then these defaults.
// An environment variable only overrides a key the config file sets (see
// Load); no CLI flags are bound into this configuration.
type Config struct {
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Walk      WalkConfig      `mapstructure:"walk" yaml:"walk"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Replay    ReplayConfig    `mapstructure:"replay" yaml:"replay"`
	Audit     AuditConfig     `mapstructure:"audit" yaml:"audit"`
	API       APIConfig       `mapstructure:"api" yaml:"api"`
}

// StoreConfig bounds the node store's arena. MaxNodes becomes
// store.Config.Capacity (0 means unlimited); InitialCapacity is
// validated but nothing else reads it.
type StoreConfig struct {
	InitialCapacity int `mapstructure:"initial_capacity" validate:"gte=0" yaml:"initial_capacity"`
	MaxNodes        int `mapstructure:"max_nodes" validate:"gte=0" yaml:"max_nodes"`
}

// WalkConfig bounds the forward walk and recursive resolution depth.
// MaxDependentLevels is validated but not passed to the core: dependent
// walks run without a level bound.
type WalkConfig struct {
	MaxWalkDepth       int `mapstructure:"max_walk_depth" validate:"required,gt=0,lte=64" yaml:"max_walk_depth"`
	MaxDependentLevels int `mapstructure:"max_dependent_levels" validate:"gte=0" yaml:"max_dependent_levels"`
	MaxPrefixLen       int `mapstructure:"max_prefix_len" validate:"required,gt=0,lte=128" yaml:"max_prefix_len"`
	MaxRecursionDepth  int `mapstructure:"max_recursion_depth" validate:"required,gt=0,lte=16" yaml:"max_recursion_depth"`
}

// LoggingConfig controls internal/logger's level and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
}

// MetricsConfig controls the Prometheus listener corefibd starts.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true" yaml:"addr"`
}

// TelemetryConfig controls OTel tracing and pyroscope profiling.
type TelemetryConfig struct {
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// TracingConfig points the OTLP trace exporter at a collector.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`
}

// ProfilingConfig points pyroscope continuous profiling at a server.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// ReplayConfig points internal/replay at its badger directory.
type ReplayConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true" yaml:"path"`
}

// AuditConfig points internal/audit at its Postgres DSN.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true" yaml:"dsn"`
}

// APIConfig controls internal/api's HTTP listener.
type APIConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Addr         string   `mapstructure:"addr" validate:"required_if=Enabled true" yaml:"addr"`
	AllowOrigins []string `mapstructure:"allow_origins" yaml:"allow_origins"`
}

// Default returns a usable configuration for a single-process core with
// every optional subsystem disabled.
func Default() *Config {
	return &Config{
		Store: StoreConfig{InitialCapacity: 1024, MaxNodes: 0},
		Walk: WalkConfig{
			MaxWalkDepth:       10,
			MaxDependentLevels: 0,
			MaxPrefixLen:       128,
			MaxRecursionDepth:  5,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: false, Addr: ":9090"},
		Telemetry: TelemetryConfig{
			Tracing:   TracingConfig{Enabled: false, Endpoint: "localhost:4317", Insecure: true, SampleRate: 1.0},
			Profiling: ProfilingConfig{Enabled: false, Endpoint: "http://localhost:4040", ProfileTypes: []string{"cpu", "inuse_space"}},
		},
		Replay:  ReplayConfig{Enabled: false, Path: "./corefib-replay"},
		Audit:   AuditConfig{Enabled: false},
		API:     APIConfig{Enabled: false, Addr: ":8080"},
	}
}

// Load reads configPath (if non-empty) plus COREFIB_-prefixed
// environment variables into a Config seeded from Default, then
// validates it with go-playground/validator/v10. Environment variables
// apply only to keys that the config file sets; with an empty
// configPath they are not read and Default is returned as is.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COREFIB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	}

	cfg := Default()
	if configPath != "" {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
