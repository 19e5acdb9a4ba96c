package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config is the CLI configuration, read from metascan.yaml and METASCAN_*
// environment variables.
type Config struct {
	Scan     ScanConfig     `mapstructure:"scan"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Log      LogConfig      `mapstructure:"log"`
}

// ScanConfig controls the scan engine.
type ScanConfig struct {
	Parallel bool `mapstructure:"parallel"`
	Workers  int  `mapstructure:"workers"`
}

// SnapshotConfig sets the default snapshot file.
type SnapshotConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig sets the stderr log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// loadConfig reads the configuration. With an empty file it looks for an
// optional metascan.yaml in the working directory; an explicit file must
// exist.
func loadConfig(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("scan.parallel", true)
	v.SetDefault("scan.workers", 0)
	v.SetDefault("snapshot.path", "metascan.xml")
	v.SetDefault("log.level", "warn")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("metascan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("METASCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must be non-negative, got: %d", cfg.Scan.Workers)
	}
	if cfg.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path must not be empty")
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: must be debug, info, warn or error", s)
	}
	return level, nil
}

// newLogger returns a text logger on w at the given level.
func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	l, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}
