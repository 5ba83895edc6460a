package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for a supernova session.
// Values are populated from .supernova.toml, SUPERNOVA_* env vars, and CLI flags.
type Config struct {
	ContentDir     string `mapstructure:"content_dir"`
	SaveDB         string `mapstructure:"save_db"`
	TelemetryPath  string `mapstructure:"telemetry_path"`
	Seed           int64  `mapstructure:"seed"`
	ActionsPerLoop int    `mapstructure:"actions_per_loop"`
	NoColor        bool   `mapstructure:"no_color"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("content_dir", "content")
	viper.SetDefault("save_db", "supernova.db")
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("seed", 0)
	viper.SetDefault("actions_per_loop", 0)
	viper.SetDefault("no_color", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.ActionsPerLoop < 0 {
		return Config{}, fmt.Errorf("config: actions_per_loop must be >= 0, got %d", cfg.ActionsPerLoop)
	}
	return cfg, nil
}
