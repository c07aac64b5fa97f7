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

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/we-are-mono/razerd/config"
	"github.com/we-are-mono/razerd/daemon"
	"github.com/we-are-mono/razerd/daemon/logger"
	"github.com/we-are-mono/razerd/device"
	"github.com/we-are-mono/razerd/system"
)

func newDaemonCmd() *cobra.Command {
	var configPath string
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run razerd as a daemon",
		Long:  `Starts the razerd daemon, which owns the laptop and listens for commands on a Unix socket.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runDaemon(configPath); err != nil {
				fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
				exitWithError()
			}
		},
	}
	daemonCmd.Flags().StringVar(&configPath, "config", "", "Path to config.toml")
	return daemonCmd
}

func runDaemon(configPath string) error {
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		return err
	}

	lock, err := acquireLock(cfg.Daemon.LockFile)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	backend, err := initializeLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	logger.Info("Logging initialized",
		logger.Field{Key: "backend", Value: backend},
		logger.Field{Key: "level", Value: cfg.Daemon.LogLevel})
	logger.Info("Configuration loaded",
		logger.Field{Key: "path", Value: resolved},
		logger.Field{Key: "exists", Value: exists})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	deps := buildDeps(cfg, sigCh, func(code int) {
		logger.Info("Exiting", logger.Field{Key: "code", Value: code})
		_ = logger.Close()
		_ = lock.Unlock()
		os.Exit(code)
	})

	d, err := daemon.New(cfg, deps)
	if err != nil {
		if errors.Is(err, device.ErrNoDevice) {
			logger.Error("No supported Razer laptop found")
		} else {
			logger.Error("Failed to start daemon", logger.Err(err))
		}
		return err
	}

	if err := d.Run(); err != nil {
		logger.Error("Daemon failed", logger.Err(err))
		return err
	}
	return nil
}

// acquireLock takes the single-instance lock without blocking.
func acquireLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("razerd is already running (lock %s held)", path)
	}
	return lock, nil
}

func buildDeps(cfg *config.Config, sigCh <-chan os.Signal, exit func(int)) daemon.Deps {
	fs := system.NewDefaultFilesystemClient()
	runner := system.NewDefaultCommandRunner()
	return daemon.Deps{
		HID:         device.NewHIDBackend(),
		Store:       device.NewStateStore("device"),
		ACSource:    daemon.NewACSource(cfg.Power.ACDevice, daemon.SystemBus, fs),
		Temperature: system.NewDefaultCPUTemperatureSource(),
		Power:       system.NewPowerHandler(cfg.Power.HandlerScript, cfg.HandlerDelay(), fs, runner),
		SessionBus:  daemon.SessionBus,
		SystemBus:   daemon.SystemBus,
		Signals:     sigCh,
		Exit:        exit,
	}
}

// initializeLogger prefers journald and falls back to a rotated file. A
// terminal on stderr gets a text copy of every entry.
func initializeLogger(cfg *config.Config) (string, error) {
	logCfg := logger.Config{
		Level:     cfg.Daemon.LogLevel,
		Format:    cfg.Daemon.LogFormat,
		FilePath:  cfg.Daemon.LogFile,
		Component: "razerd",
	}

	var backends []logger.Backend
	name := "file"

	if _, err := exec.LookPath("systemd-cat"); err == nil {
		journald, err := logger.NewJournaldBackend("razerd", logCfg.Format)
		if err == nil {
			backends = append(backends, journald)
			name = "journald"
		}
	}

	if name == "file" {
		fileBackend, err := logger.NewFileBackend(logCfg.FilePath, logCfg.Format)
		if err != nil {
			return "", err
		}
		backends = append(backends, fileBackend)
	}

	if logger.IsTerminal(os.Stderr) {
		backends = append(backends, logger.NewStderrBackend("text"))
		name += "+stderr"
	}

	logger.Init(logCfg, backends)
	return name, nil
}
