// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

// Package config loads the razerd TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/we-are-mono/razerd/validation"
)

// DefaultSocketPath is the IPC socket used when nothing else is configured.
const DefaultSocketPath = "/tmp/razercontrol-socket"

// Environment overrides.
const (
	EnvSocketPath = "RAZERD_SOCKET_PATH"
	EnvLogLevel   = "RAZERD_LOG_LEVEL"
	EnvConfigPath = "RAZERD_CONFIG"
)

// AC event sources.
const (
	ACEventsUPower = "upower"
	ACEventsUEvent = "uevent"
)

// Daemon holds process-level settings.
type Daemon struct {
	SocketPath string `toml:"socket_path"`
	LockFile   string `toml:"lock_file"`
	LogLevel   string `toml:"log_level"`
	LogFormat  string `toml:"log_format"`
	LogFile    string `toml:"log_file"`
}

// Power holds AC adapter and battery settings.
type Power struct {
	ACDevice            string `toml:"ac_device"`
	BatteryDevice       string `toml:"battery_device"`
	ACEvents            string `toml:"ac_events"`
	HandlerScript       string `toml:"handler_script"`
	HandlerDelaySeconds int    `toml:"handler_delay_seconds"`
}

// Thermal holds the fan control loop settings.
type Thermal struct {
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
}

// Effects holds keyboard effect settings.
type Effects struct {
	SaveFile            string `toml:"save_file"`
	LaptopsFile         string `toml:"laptops_file"`
	AnimationIntervalMS int    `toml:"animation_interval_ms"`
}

// Config is the full razerd configuration.
type Config struct {
	Daemon  Daemon  `toml:"daemon"`
	Power   Power   `toml:"power"`
	Thermal Thermal `toml:"thermal"`
	Effects Effects `toml:"effects"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Daemon: Daemon{
			SocketPath: DefaultSocketPath,
			LockFile:   filepath.Join(os.TempDir(), "razerd.lock"),
			LogLevel:   "info",
			LogFormat:  "json",
			LogFile:    "~/.local/state/razerd/razerd.log",
		},
		Power: Power{
			ACDevice:            "line_power_AC0",
			BatteryDevice:       "battery_BAT0",
			ACEvents:            ACEventsUPower,
			HandlerScript:       "~/power_state_handler.sh",
			HandlerDelaySeconds: 2,
		},
		Thermal: Thermal{
			Enabled:         true,
			IntervalSeconds: 10,
		},
		Effects: Effects{
			SaveFile:            "~/.local/share/razercontrol/effects.json",
			AnimationIntervalMS: 100,
		},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/razerd/config.toml, falling back to ~/.config.
func DefaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "razerd", "config.toml"), nil
	}
	return expandPath("~/.config/razerd/config.toml")
}

// Load parses the file at path, or the default location when path is empty.
// A missing file yields the defaults. The returned config has its paths
// expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return nil, "", false, fmt.Errorf("parse config %s line %d, column %d: %w", resolvedPath, row, col, err)
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvSocketPath)); v != "" {
		c.Daemon.SocketPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Daemon.LogLevel = strings.ToLower(v)
	}
}

func (c *Config) normalize() error {
	var err error
	for _, p := range []*string{
		&c.Daemon.SocketPath,
		&c.Daemon.LockFile,
		&c.Daemon.LogFile,
		&c.Power.HandlerScript,
		&c.Effects.SaveFile,
		&c.Effects.LaptopsFile,
	} {
		if *p, err = expandPath(strings.TrimSpace(*p)); err != nil {
			return err
		}
	}
	c.Daemon.LogLevel = strings.ToLower(strings.TrimSpace(c.Daemon.LogLevel))
	c.Daemon.LogFormat = strings.ToLower(strings.TrimSpace(c.Daemon.LogFormat))
	c.Power.ACEvents = strings.ToLower(strings.TrimSpace(c.Power.ACEvents))
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	ec := validation.NewCollector().WithContext("[daemon]")
	ec.Check(validation.Required("socket_path", c.Daemon.SocketPath))
	ec.Check(validation.OneOf("log_level", c.Daemon.LogLevel, "debug", "info", "warn", "error"))
	ec.Check(validation.OneOf("log_format", c.Daemon.LogFormat, "json", "text"))

	ec.WithContext("[power]")
	ec.Check(validation.OneOf("ac_events", c.Power.ACEvents, ACEventsUPower, ACEventsUEvent))
	ec.Check(validation.Required("ac_device", c.Power.ACDevice))
	ec.Check(validation.NonNegative("handler_delay_seconds", c.Power.HandlerDelaySeconds))

	ec.WithContext("[thermal]")
	ec.Check(validation.Positive("interval_seconds", c.Thermal.IntervalSeconds))

	ec.WithContext("[effects]")
	ec.Check(validation.Required("save_file", c.Effects.SaveFile))
	ec.Check(validation.Positive("animation_interval_ms", c.Effects.AnimationIntervalMS))
	return ec.Error()
}

// ThermalInterval returns the fan loop period.
func (c *Config) ThermalInterval() time.Duration {
	return time.Duration(c.Thermal.IntervalSeconds) * time.Second
}

// HandlerDelay returns the settle delay before the power handler script runs.
func (c *Config) HandlerDelay() time.Duration {
	return time.Duration(c.Power.HandlerDelaySeconds) * time.Second
}

// AnimationInterval returns the keyboard animator period.
func (c *Config) AnimationInterval() time.Duration {
	return time.Duration(c.Effects.AnimationIntervalMS) * time.Millisecond
}

// WriteSample writes the default configuration to path, refusing to overwrite.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config %s already exists", expanded)
	}
	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode sample config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, data, 0o644)
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
