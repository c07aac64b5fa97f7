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
	"github.com/we-are-mono/razerd/system"
)

// systemHandler follows suspend/resume and the power supply.
type systemHandler struct {
	guard       *Guard
	power       *system.PowerHandler
	acPath      dbus.ObjectPath
	batteryPath dbus.ObjectPath
	log         logger.Logger
}

// NewSystemRouter creates the system bus router. acDevice and batteryDevice
// are UPower device names such as line_power_AC0 and battery_BAT0; an empty
// name leaves that device unwatched.
func NewSystemRouter(guard *Guard, dial Dialer, power *system.PowerHandler, acDevice, batteryDevice string) *Router {
	h := &systemHandler{
		guard: guard,
		power: power,
		log:   logger.Component("system-router"),
	}
	if acDevice != "" {
		h.acPath = UPowerDevicePath(acDevice)
	}
	if batteryDevice != "" {
		h.batteryPath = UPowerDevicePath(batteryDevice)
	}
	return NewRouter("system-router", dial, h)
}

func (h *systemHandler) MatchRules() []string {
	rules := []string{signalRule(login1Iface, "PrepareForSleep", login1Path, "")}
	for _, path := range []dbus.ObjectPath{h.acPath, h.batteryPath} {
		if path != "" {
			rules = append(rules, signalRule(propsIface, "PropertiesChanged", path, upowerDeviceIface))
		}
	}
	return rules
}

func (h *systemHandler) Connected(BusConn) {}

func (h *systemHandler) AfterPoll(bool) {}

func (h *systemHandler) HandleSignal(sig *dbus.Signal) {
	switch {
	case sig.Name == login1Iface+".PrepareForSleep":
		if len(sig.Body) < 1 {
			return
		}
		sleeping, ok := sig.Body[0].(bool)
		if !ok {
			return
		}
		h.prepareForSleep(sleeping)

	case sig.Name == propsSignal && h.acPath != "" && sig.Path == h.acPath:
		v, ok := changedProperty(sig, upowerDeviceIface, "Online")
		if !ok {
			return
		}
		if online, ok := v.(bool); ok {
			setACState(h.guard, h.power, h.log, online)
		}

	case sig.Name == propsSignal && h.batteryPath != "" && sig.Path == h.batteryPath:
		v, ok := changedProperty(sig, upowerDeviceIface, "Percentage")
		if !ok {
			return
		}
		if pct, ok := v.(float64); ok {
			h.log.Info("Battery level", logger.Field{Key: "percentage", Value: pct})
		}
	}
}

// prepareForSleep blanks the keyboard before sleep and restores it on resume.
// The AC adapter may have changed while asleep, so its state is re-read first.
func (h *systemHandler) prepareForSleep(sleeping bool) {
	if err := h.guard.WithDevice(func(dev DeviceController) {
		if err := dev.RefreshACState(); err != nil {
			h.log.Warn("Failed to refresh AC state", logger.Err(err))
		}
		if sleeping {
			logLightErr(h.log, dev.LightOff(), "sleep")
		} else {
			logLightErr(h.log, dev.RestoreLight(), "resume")
		}
	}); err != nil {
		h.log.Error("Sleep transition skipped", logger.Err(err))
	}
}

// setACState switches the power profile and fires the user's power handler
// without waiting for it.
func setACState(guard *Guard, power *system.PowerHandler, log logger.Logger, online bool) {
	if err := guard.WithDevice(func(dev DeviceController) {
		if err := dev.SetACState(online); err != nil {
			log.Warn("Failed to apply power profile", logger.Err(err))
		}
	}); err != nil {
		log.Error("AC change skipped", logger.Err(err))
		return
	}
	power.Trigger(online)
}
