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

package system

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/we-are-mono/razerd/daemon/logger"
)

// PowerSupplyRoot is where the kernel exposes power supplies.
const PowerSupplyRoot = "/sys/class/power_supply"

// handlerTimeout bounds a single run of the power handler script.
const handlerTimeout = time.Minute

// SysfsName maps a UPower device name such as "line_power_AC0" to its
// sysfs entry "AC0". Names without a UPower prefix are returned unchanged.
func SysfsName(upowerName string) string {
	for _, prefix := range []string{"line_power_", "battery_"} {
		if rest, ok := strings.CutPrefix(upowerName, prefix); ok {
			return rest
		}
	}
	return upowerName
}

// ReadACOnline reads the online flag of an AC adapter from sysfs.
func ReadACOnline(fs FilesystemClient, device string) (bool, error) {
	path := filepath.Join(PowerSupplyRoot, SysfsName(device), "online")
	data, err := fs.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read AC state: %w", err)
	}
	switch strings.TrimSpace(string(data)) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("unexpected AC state %q in %s", strings.TrimSpace(string(data)), path)
}

// PowerHandler runs the user's script after an AC adapter change.
// The script is invoked as `bash <script> plugged|unplugged`.
type PowerHandler struct {
	script string
	delay  time.Duration
	fs     FilesystemClient
	runner CommandRunner
	spawn  func(fn func())
	log    logger.Logger
}

// NewPowerHandler creates a PowerHandler. delay is the settle time before the script runs.
func NewPowerHandler(script string, delay time.Duration, fs FilesystemClient, runner CommandRunner) *PowerHandler {
	return &PowerHandler{
		script: script,
		delay:  delay,
		fs:     fs,
		runner: runner,
		spawn:  func(fn func()) { go fn() },
		log:    logger.Component("power-handler"),
	}
}

// SetSpawner replaces the goroutine launcher used by Trigger, so the owner
// can run the script under its own panic handling.
func (h *PowerHandler) SetSpawner(spawn func(fn func())) {
	if spawn != nil {
		h.spawn = spawn
	}
}

// Trigger runs the script in the background and returns immediately.
func (h *PowerHandler) Trigger(plugged bool) {
	if h == nil || h.script == "" {
		return
	}
	h.spawn(func() {
		time.Sleep(h.delay)
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		if err := h.Run(ctx, plugged); err != nil {
			h.log.Warn("Power handler failed", logger.Err(err))
		}
	})
}

// Run executes the script synchronously. A missing script is not an error.
func (h *PowerHandler) Run(ctx context.Context, plugged bool) error {
	if !h.fs.Exists(h.script) {
		h.log.Debug("No power handler script", logger.Field{Key: "script", Value: h.script})
		return nil
	}

	arg := "unplugged"
	if plugged {
		arg = "plugged"
	}

	res, err := h.runner.Run(ctx, "bash", h.script, arg)
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", h.script, err)
	}
	if !res.Success() {
		return fmt.Errorf("%s %s exited with code %d: %s", h.script, arg, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}

	h.log.Info("Power handler completed",
		logger.Field{Key: "script", Value: h.script},
		logger.Field{Key: "state", Value: arg})
	return nil
}
