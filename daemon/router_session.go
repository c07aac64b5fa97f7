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
	"github.com/godbus/dbus/v5"
	"github.com/we-are-mono/razerd/daemon/logger"
	"github.com/we-are-mono/razerd/device"
)

// Mutter power save modes.
const (
	displayOn  = 0
	displayOff = 3
)

// sessionHandler turns the keyboard off and on with the desktop session:
// display power saving, idle timeouts and the screensaver.
type sessionHandler struct {
	guard   *Guard
	monitor device.IdleMonitor
	log     logger.Logger
}

// NewSessionRouter creates the session bus router.
func NewSessionRouter(guard *Guard, dial Dialer) *Router {
	return NewRouter("session-router", dial, &sessionHandler{
		guard: guard,
		log:   logger.Component("session-router"),
	})
}

func (h *sessionHandler) MatchRules() []string {
	return []string{
		signalRule(propsIface, "PropertiesChanged", displayConfigPath, displayConfigIface),
		signalRule(mutterIdleIface, "WatchFired", mutterIdlePath, ""),
		signalRule(screenSaverIface, "ActiveChanged", "", ""),
	}
}

func (h *sessionHandler) Connected(conn BusConn) {
	if h.monitor == nil {
		h.monitor = mutterIdleMonitor{conn: conn}
	}
}

func (h *sessionHandler) HandleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case propsSignal:
		if sig.Path != displayConfigPath {
			return
		}
		v, ok := changedProperty(sig, displayConfigIface, "PowerSaveMode")
		if !ok {
			return
		}
		mode, ok := v.(int32)
		if !ok {
			return
		}
		switch mode {
		case displayOff:
			setLight(h.guard, h.log, false, "display power save")
		case displayOn:
			setLight(h.guard, h.log, true, "display power save")
		}

	case mutterIdleIface + ".WatchFired":
		if len(sig.Body) < 1 {
			return
		}
		id, ok := sig.Body[0].(uint32)
		if !ok {
			return
		}
		var kind device.WatchKind
		if err := h.guard.WithDevice(func(dev DeviceController) {
			kind = dev.ConsumeWatch(id)
			switch kind {
			case device.WatchIdle:
				logLightErr(h.log, dev.LightOff(), "idle")
			case device.WatchActive:
				logLightErr(h.log, dev.RestoreLight(), "user active")
			}
		}); err != nil {
			h.log.Error("Watch skipped", logger.Err(err))
			return
		}
		h.log.Debug("Watch fired",
			logger.Field{Key: "id", Value: id},
			logger.Field{Key: "kind", Value: kind.String()})

	case screenSaverIface + ".ActiveChanged":
		if len(sig.Body) < 1 {
			return
		}
		active, ok := sig.Body[0].(bool)
		if !ok {
			return
		}
		setLight(h.guard, h.log, !active, "screensaver")
	}
}

// AfterPoll re-arms the watches. The active watch is re-armed only after a
// signal arrived; the idle watch after every poll. Both are no-ops while a
// live watch of that kind exists.
func (h *sessionHandler) AfterPoll(received bool) {
	if h.monitor == nil {
		return
	}
	if err := h.guard.WithDevice(func(dev DeviceController) {
		if received {
			if err := dev.AddActiveWatch(h.monitor); err != nil {
				h.log.Debug("Failed to arm active watch", logger.Err(err))
			}
		}
		if err := dev.AddIdleWatch(h.monitor); err != nil {
			h.log.Debug("Failed to arm idle watch", logger.Err(err))
		}
	}); err != nil {
		h.log.Error("Watch re-arm skipped", logger.Err(err))
	}
}

// setLight restores (on) or blanks the keyboard under the device lock.
func setLight(guard *Guard, log logger.Logger, on bool, reason string) {
	if err := guard.WithDevice(func(dev DeviceController) {
		if on {
			logLightErr(log, dev.RestoreLight(), reason)
		} else {
			logLightErr(log, dev.LightOff(), reason)
		}
	}); err != nil {
		log.Error("Light change skipped",
			logger.Field{Key: "reason", Value: reason},
			logger.Err(err))
	}
}

func logLightErr(log logger.Logger, err error, reason string) {
	if err != nil {
		log.Warn("Failed to change keyboard light",
			logger.Field{Key: "reason", Value: reason},
			logger.Err(err))
	}
}
