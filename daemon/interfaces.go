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

// Package daemon runs the razerd coordination engine: the guarded device and
// effect singletons, the bus event routers, the thermal loop, the keyboard
// animator and the IPC server.
package daemon

import (
	"github.com/we-are-mono/razerd/device"
	"github.com/we-are-mono/razerd/effects"
	"github.com/we-are-mono/razerd/types"
)

// DeviceController is the laptop state owned by the device lock.
// *device.Manager implements it.
type DeviceController interface {
	HasDevice() bool
	Name() string

	ACState() bool
	RefreshACState() error
	SetACState(online bool) error

	SetPowerMode(ac bool, pwr, cpu, gpu uint8) bool
	GetPowerMode(ac bool) uint8
	GetCPUBoost(ac bool) uint8
	GetGPUBoost(ac bool) uint8
	SetFanRPM(ac bool, rpm int) bool
	GetFanRPM(ac bool) int
	SetLogoLEDState(ac bool, state uint8) bool
	GetLogoLEDState(ac bool) uint8
	SetBrightness(ac bool, val uint8) bool
	GetBrightness(ac bool) uint8
	SetIdle(ac bool, seconds uint32) bool
	GetIdle(ac bool) uint32
	SetSync(sync bool) bool
	GetSync() bool

	LightOff() error
	RestoreLight() error

	SetStandardEffect(effect device.StandardEffect, params types.Params) bool
	RestoreStandardEffect() error
	SetKeyColors(colors types.ColorMap) error

	SetBHO(on bool, threshold uint8) bool
	GetBHO() (on bool, threshold uint8, ok bool)

	AddIdleWatch(mon device.IdleMonitor) error
	AddActiveWatch(mon device.IdleMonitor) error
	ConsumeWatch(id uint32) device.WatchKind

	Close() error
}

// EffectCompositor is the software effect stack owned by the effects lock.
// *effects.Manager implements it.
type EffectCompositor interface {
	PushEffect(e effects.Effect, mask types.KeyMask)
	PopEffect(kbd effects.Keyboard) error
	Update(kbd effects.Keyboard) error
	GetMap(layer int) types.ColorMap
	Len() int
	Save() ([]byte, error)
	LoadFromSave(data []byte) error
}

var (
	_ DeviceController = (*device.Manager)(nil)
	_ EffectCompositor = (*effects.Manager)(nil)
)
