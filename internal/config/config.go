/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"restara/pkg/spec"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration of the daemon.
type Config struct {
	SocketPath  string `mapstructure:"socket-path"`
	AssetDir    string `mapstructure:"asset-dir"`
	CatalogFile string `mapstructure:"catalog-file"` // empty = built-in catalog

	SampleRate int `mapstructure:"sample-rate"`
	BufferMS   int `mapstructure:"buffer-ms"`

	Debounce      time.Duration `mapstructure:"debounce"`
	TickInterval  time.Duration `mapstructure:"tick-interval"`
	AlertDuration time.Duration `mapstructure:"alert-duration"`

	LogLevel string `mapstructure:"log-level"`
	LogFile  string `mapstructure:"log-file"`
}

// DefaultPath is ~/.config/restara/config.yml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "restara", "config.yml")
}

func defaultAssetDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sounds"
	}
	return filepath.Join(home, ".local", "share", "restara", "sounds")
}

// Load reads configuration from defaults, an optional YAML file and
// RESTARA_* environment variables, in increasing priority. A .env file in
// the working directory feeds the environment without overriding it. A
// missing file is not an error.
func Load(configPath string) (Config, error) {
	var cfg Config

	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RESTARA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("socket-path", spec.SocketFile)
	v.SetDefault("asset-dir", defaultAssetDir())
	v.SetDefault("catalog-file", "")
	v.SetDefault("sample-rate", spec.SampleRate)
	v.SetDefault("buffer-ms", spec.BufferMS)
	v.SetDefault("debounce", spec.Debounce)
	v.SetDefault("tick-interval", spec.TickInterval)
	v.SetDefault("alert-duration", spec.AlertDuration)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", "")

	if configPath == "" {
		configPath = DefaultPath()
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config %s: %w", configPath, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = spec.SampleRate
	}
	if cfg.BufferMS <= 0 {
		cfg.BufferMS = spec.BufferMS
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = spec.TickInterval
	}
	return cfg, nil
}
