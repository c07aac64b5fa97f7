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

package daemon

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/we-are-mono/razerd/config"
	"github.com/we-are-mono/razerd/daemon/logger"
	"github.com/we-are-mono/razerd/device"
	"github.com/we-are-mono/razerd/effects"
	"github.com/we-are-mono/razerd/state"
	"github.com/we-are-mono/razerd/system"
	"github.com/we-are-mono/razerd/types"
)

// Deps are the daemon's connections to the outside world.
type Deps struct {
	HID         device.HIDBackend
	Store       device.SettingsStore
	ACSource    device.ACSource
	Temperature system.TemperatureSource
	Power       *system.PowerHandler
	SessionBus  Dialer
	SystemBus   Dialer
	Signals     <-chan os.Signal
	// Exit terminates the process after shutdown; os.Exit when nil.
	Exit func(code int)
}

// Daemon is a bootstrapped razerd instance.
type Daemon struct {
	cfg       *config.Config
	deps      Deps
	guard     *Guard
	server    *Server
	socket    *SocketGuard
	lifecycle *Lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
	log       logger.Logger
}

// New discovers the laptop, restores the lighting and binds the IPC socket.
// It fails with device.ErrNoDevice when no supported laptop is attached.
func New(cfg *config.Config, deps Deps) (*Daemon, error) {
	log := logger.Component("daemon")

	descriptors, err := device.LoadDescriptors(cfg.Effects.LaptopsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load laptop list: %w", err)
	}
	laptop, err := device.Discover(deps.HID, descriptors)
	if err != nil {
		return nil, fmt.Errorf("device discovery: %w", err)
	}
	log.Info("Found laptop", logger.Field{Key: "name", Value: laptop.Name})

	if deps.ACSource == nil {
		laptop.Close()
		return nil, fmt.Errorf("no AC state source configured")
	}
	dev := device.NewManager(laptop, deps.Store, deps.ACSource)
	online, err := deps.ACSource()
	if err != nil {
		laptop.Close()
		return nil, fmt.Errorf("failed to read AC state: %w", err)
	}
	if err := dev.SetACState(online); err != nil {
		log.Warn("Failed to apply power profile", logger.Err(err))
	}
	if err := dev.RestoreStandardEffect(); err != nil {
		log.Warn("Failed to restore standard effect", logger.Err(err))
	}

	fx := effects.NewManager()
	if !restoreEffects(fx, cfg.Effects.SaveFile, log) {
		green, _ := effects.New(effects.NameStatic, types.Params{0, 255, 0})
		fx.PushEffect(green, types.FullMask())
		log.Info("Using default effect")
	}

	listener, err := Listen(cfg.Daemon.SocketPath)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return newDaemon(cfg, deps, NewGuard(dev, fx), listener), nil
}

func newDaemon(cfg *config.Config, deps Deps, guard *Guard, listener net.Listener) *Daemon {
	socket := NewSocketGuard(cfg.Daemon.SocketPath)
	lc := NewLifecycle(guard, socket, cfg.Effects.SaveFile)
	if deps.Exit != nil {
		lc.exit = deps.Exit
	}
	if deps.Power != nil {
		deps.Power.SetSpawner(lc.Spawn)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		deps:      deps,
		guard:     guard,
		server:    NewServer(listener, guard),
		socket:    socket,
		lifecycle: lc,
		log:       logger.Component("daemon"),
	}
}

// restoreEffects loads the saved effect stack. It reports false when the save
// is missing, empty or unreadable. A saved empty stack is a valid restore: the
// firmware effect applied before it must stay visible.
func restoreEffects(fx *effects.Manager, path string, log logger.Logger) bool {
	data, ok, err := state.ReadEffectsSave(path)
	if err != nil {
		log.Warn("Failed to read saved effects", logger.Err(err))
		return false
	}
	if !ok {
		return false
	}
	if err := fx.LoadFromSave(data); err != nil {
		log.Warn("Ignoring saved effects", logger.Err(err))
		return false
	}
	log.Info("Restored effects", logger.Field{Key: "layers", Value: fx.Len()})
	return true
}

// Guard returns the shared state guard.
func (d *Daemon) Guard() *Guard {
	return d.guard
}

// Run starts the background tasks and serves IPC until the daemon is stopped.
func (d *Daemon) Run() error {
	defer d.lifecycle.Recover()
	defer d.socket.Release()

	ctx := d.ctx
	defer d.cancel()

	lc := d.lifecycle
	lc.Go(ctx, "animator", newAnimator(d.guard, d.cfg.AnimationInterval()).Run)

	if d.deps.SessionBus != nil {
		lc.Go(ctx, "session-router", NewSessionRouter(d.guard, d.deps.SessionBus).Run)
	}

	switch d.cfg.Power.ACEvents {
	case config.ACEventsUEvent:
		lc.Go(ctx, "uevent-monitor", NewUEventACMonitor(d.guard, d.deps.Power, d.cfg.Power.ACDevice).Run)
		if d.deps.SystemBus != nil {
			lc.Go(ctx, "system-router", NewSystemRouter(d.guard, d.deps.SystemBus, nil, "", d.cfg.Power.BatteryDevice).Run)
		}
	default:
		if d.deps.SystemBus != nil {
			lc.Go(ctx, "system-router", NewSystemRouter(d.guard, d.deps.SystemBus, d.deps.Power,
				d.cfg.Power.ACDevice, d.cfg.Power.BatteryDevice).Run)
		}
	}

	if d.cfg.Thermal.Enabled && d.deps.Temperature != nil {
		lc.Go(ctx, "thermal", newThermalLoop(d.guard, d.deps.Temperature, d.cfg.ThermalInterval()).Run)
	}

	if d.deps.Signals != nil {
		lc.Go(ctx, "shutdown", func(context.Context) error {
			lc.WaitForShutdown(d.deps.Signals)
			return nil
		})
	}

	return d.server.Serve()
}

// Stop ends IPC serving and the background tasks.
func (d *Daemon) Stop() {
	d.cancel()
	d.server.Stop()
}
