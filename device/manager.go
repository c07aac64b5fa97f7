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

// Package device controls a Razer laptop: power profiles per AC state,
// keyboard lighting, idle watches and the battery health optimizer.
package device

import (
	"errors"
	"fmt"

	"github.com/we-are-mono/razerd/daemon/logger"
	"github.com/we-are-mono/razerd/state"
	"github.com/we-are-mono/razerd/types"
)

// Power modes.
const (
	PowerBalanced = 0
	PowerGaming   = 1
	PowerCreator  = 2
	PowerCustom   = 4
)

// UnknownDeviceName is reported when no laptop is attached.
const UnknownDeviceName = "Unknown Device"

// Profile is the hardware setting set applied for one AC state.
type Profile struct {
	PowerMode   uint8  `json:"power_mode"`
	CPUBoost    uint8  `json:"cpu_boost"`
	GPUBoost    uint8  `json:"gpu_boost"`
	FanRPM      int    `json:"fan_rpm"`
	Brightness  uint8  `json:"brightness"`
	LogoState   uint8  `json:"logo_state"`
	IdleSeconds uint32 `json:"idle_seconds"`
}

// StandardEffectSetting is the last firmware effect a client selected.
type StandardEffectSetting struct {
	Effect StandardEffect `json:"effect"`
	Params types.Params   `json:"params"`
}

// Settings is the persisted device state. Profiles is indexed by types.ACIndex.
type Settings struct {
	Profiles       [2]Profile             `json:"profiles"`
	Sync           bool                   `json:"sync"`
	StandardEffect *StandardEffectSetting `json:"standard_effect,omitempty"`
}

// DefaultSettings returns the settings used before anything was saved.
func DefaultSettings() Settings {
	battery := Profile{PowerMode: PowerBalanced, Brightness: 128, LogoState: LogoOff, IdleSeconds: 300}
	mains := Profile{PowerMode: PowerBalanced, Brightness: 255, LogoState: LogoOn, IdleSeconds: 600}
	return Settings{Profiles: [2]Profile{battery, mains}}
}

// SettingsStore persists Settings.
type SettingsStore interface {
	Load() (Settings, error)
	Save(Settings) error
}

// stateStore keeps settings in the state directory.
type stateStore struct {
	namespace string
}

// NewStateStore stores settings as <state dir>/<namespace>.json.
func NewStateStore(namespace string) SettingsStore {
	return stateStore{namespace: namespace}
}

func (s stateStore) Load() (Settings, error) {
	settings := DefaultSettings()
	if err := state.LoadConfig(s.namespace, &settings); err != nil {
		return DefaultSettings(), err
	}
	return settings, nil
}

func (s stateStore) Save(settings Settings) error {
	return state.SaveConfig(s.namespace, settings)
}

// ACSource reports whether the AC adapter is online.
type ACSource func() (bool, error)

// Manager owns the laptop and its settings. It is not safe for concurrent
// use; the daemon serializes access through its device lock.
type Manager struct {
	laptop   *Laptop
	settings Settings
	store    SettingsStore
	acSource ACSource
	ac       bool
	lightOff bool

	idleWatchID   uint32
	idleStale     bool
	activeWatchID uint32

	log logger.Logger
}

// NewManager creates a manager for laptop, which may be nil. Saved settings
// are loaded from store; a missing or unreadable store yields defaults.
func NewManager(laptop *Laptop, store SettingsStore, acSource ACSource) *Manager {
	m := &Manager{
		laptop:   laptop,
		settings: DefaultSettings(),
		store:    store,
		acSource: acSource,
		log:      logger.Component("device"),
	}
	if store != nil {
		settings, err := store.Load()
		if err != nil {
			m.log.Info("Using default device settings", logger.Field{Key: "reason", Value: err.Error()})
		}
		m.settings = settings
	}
	return m
}

// HasDevice reports whether a laptop is attached.
func (m *Manager) HasDevice() bool {
	return m.laptop != nil
}

// Name returns the laptop model name.
func (m *Manager) Name() string {
	if m.laptop == nil {
		return UnknownDeviceName
	}
	return m.laptop.Name
}

// ACState returns the cached AC state.
func (m *Manager) ACState() bool {
	return m.ac
}

// RefreshACState re-reads the AC state and applies the matching profile if it changed.
func (m *Manager) RefreshACState() error {
	if m.acSource == nil {
		return errors.New("no AC state source")
	}
	online, err := m.acSource()
	if err != nil {
		return err
	}
	if online != m.ac {
		return m.SetACState(online)
	}
	return nil
}

// SetACState switches the active profile and applies it to the hardware.
func (m *Manager) SetACState(online bool) error {
	if online != m.ac {
		m.idleStale = true
	}
	m.ac = online
	m.log.Info("AC state changed", logger.Field{Key: "online", Value: online})
	return m.applyProfile()
}

func (m *Manager) profile(ac bool) *Profile {
	return &m.settings.Profiles[types.ACIndex(ac)]
}

func (m *Manager) applyProfile() error {
	if m.laptop == nil {
		return ErrNoDevice
	}
	p := m.profile(m.ac)
	var errs []error
	errs = append(errs, m.applyPower(p))
	if !m.lightOff {
		errs = append(errs, m.laptop.setBrightness(p.Brightness))
	}
	errs = append(errs, m.laptop.setLogoState(p.LogoState))
	return errors.Join(errs...)
}

func (m *Manager) applyPower(p *Profile) error {
	if err := m.laptop.setPowerMode(p.PowerMode, p.FanRPM != 0); err != nil {
		return err
	}
	if p.PowerMode == PowerCustom {
		if err := m.laptop.setBoost(p.CPUBoost, p.GPUBoost); err != nil {
			return err
		}
	}
	if p.FanRPM != 0 {
		return m.laptop.setFanRPM(p.FanRPM)
	}
	return nil
}

// update stores a profile change for ac (and the other profile when synced),
// applies it when ac is the current state and persists the settings.
func (m *Manager) update(ac bool, change func(p *Profile), apply func(p *Profile) error) bool {
	if m.laptop == nil {
		return false
	}
	change(m.profile(ac))
	if m.settings.Sync {
		change(m.profile(!ac))
	}
	if ac == m.ac || m.settings.Sync {
		if err := apply(m.profile(m.ac)); err != nil {
			m.log.Warn("Failed to apply device setting", logger.Err(err))
			return false
		}
	}
	m.persist()
	return true
}

func (m *Manager) persist() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.settings); err != nil {
		m.log.Warn("Failed to save device settings", logger.Err(err))
	}
}

// SetPowerMode sets the power mode and, for the custom mode, CPU and GPU boost.
func (m *Manager) SetPowerMode(ac bool, pwr, cpu, gpu uint8) bool {
	switch pwr {
	case PowerBalanced, PowerGaming, PowerCreator, PowerCustom:
	default:
		return false
	}
	if cpu > 3 || gpu > 2 {
		return false
	}
	return m.update(ac, func(p *Profile) {
		p.PowerMode, p.CPUBoost, p.GPUBoost = pwr, cpu, gpu
	}, m.applyPower)
}

// GetPowerMode returns the power mode of a profile.
func (m *Manager) GetPowerMode(ac bool) uint8 { return m.profile(ac).PowerMode }

// GetCPUBoost returns the CPU boost of a profile.
func (m *Manager) GetCPUBoost(ac bool) uint8 { return m.profile(ac).CPUBoost }

// GetGPUBoost returns the GPU boost of a profile.
func (m *Manager) GetGPUBoost(ac bool) uint8 { return m.profile(ac).GPUBoost }

// SetFanRPM sets a manual fan speed; 0 returns the fans to automatic control.
func (m *Manager) SetFanRPM(ac bool, rpm int) bool {
	if rpm < 0 || m.laptop == nil {
		return false
	}
	if rpm > 0 && !m.laptop.ManualFan() {
		return false
	}
	return m.update(ac, func(p *Profile) { p.FanRPM = rpm }, m.applyPower)
}

// GetFanRPM returns the manual fan speed of a profile, 0 for automatic.
func (m *Manager) GetFanRPM(ac bool) int { return m.profile(ac).FanRPM }

// SetLogoLEDState sets the logo to off, on or breathing.
func (m *Manager) SetLogoLEDState(ac bool, state uint8) bool {
	if state > LogoBreathing {
		return false
	}
	return m.update(ac, func(p *Profile) { p.LogoState = state }, func(p *Profile) error {
		return m.laptop.setLogoState(p.LogoState)
	})
}

// GetLogoLEDState returns the logo state of a profile.
func (m *Manager) GetLogoLEDState(ac bool) uint8 { return m.profile(ac).LogoState }

// SetBrightness sets the keyboard brightness. While the lights are off the
// value is stored and applied on restore.
func (m *Manager) SetBrightness(ac bool, val uint8) bool {
	return m.update(ac, func(p *Profile) { p.Brightness = val }, func(p *Profile) error {
		if m.lightOff {
			return nil
		}
		return m.laptop.setBrightness(p.Brightness)
	})
}

// GetBrightness returns the keyboard brightness of a profile.
func (m *Manager) GetBrightness(ac bool) uint8 { return m.profile(ac).Brightness }

// SetIdle sets the idle timeout in seconds; 0 disables the idle watch.
func (m *Manager) SetIdle(ac bool, seconds uint32) bool {
	return m.update(ac, func(p *Profile) { p.IdleSeconds = seconds }, func(*Profile) error {
		m.idleStale = true
		return nil
	})
}

// GetIdle returns the idle timeout of a profile.
func (m *Manager) GetIdle(ac bool) uint32 { return m.profile(ac).IdleSeconds }

// SetSync makes later profile changes apply to both AC states.
func (m *Manager) SetSync(sync bool) bool {
	if m.laptop == nil {
		return false
	}
	m.settings.Sync = sync
	m.persist()
	return true
}

// GetSync reports whether profile sync is on.
func (m *Manager) GetSync() bool { return m.settings.Sync }

// LightOff blanks the keyboard. Repeated calls do nothing.
func (m *Manager) LightOff() error {
	if m.laptop == nil {
		return ErrNoDevice
	}
	if m.lightOff {
		return nil
	}
	if err := m.laptop.setBrightness(0); err != nil {
		return err
	}
	m.lightOff = true
	return nil
}

// RestoreLight brings back the profile brightness. Repeated calls do nothing.
func (m *Manager) RestoreLight() error {
	if m.laptop == nil {
		return ErrNoDevice
	}
	if !m.lightOff {
		return nil
	}
	if err := m.laptop.setBrightness(m.profile(m.ac).Brightness); err != nil {
		return err
	}
	m.lightOff = false
	return nil
}

// LightIsOff reports whether the keyboard is blanked.
func (m *Manager) LightIsOff() bool {
	return m.lightOff
}

// SetStandardEffect switches the keyboard to a firmware effect and remembers it.
func (m *Manager) SetStandardEffect(effect StandardEffect, params types.Params) bool {
	if m.laptop == nil {
		return false
	}
	if err := m.laptop.setMatrixEffect(effect, params); err != nil {
		m.log.Warn("Failed to set standard effect",
			logger.Field{Key: "effect", Value: effect.String()},
			logger.Err(err))
		return false
	}
	m.settings.StandardEffect = &StandardEffectSetting{Effect: effect, Params: append(types.Params(nil), params...)}
	m.persist()
	return true
}

// RestoreStandardEffect re-applies the last firmware effect, if any.
func (m *Manager) RestoreStandardEffect() error {
	if m.laptop == nil {
		return ErrNoDevice
	}
	saved := m.settings.StandardEffect
	if saved == nil {
		return nil
	}
	return m.laptop.setMatrixEffect(saved.Effect, saved.Params)
}

// SetKeyColors uploads a software frame to the keyboard.
func (m *Manager) SetKeyColors(colors types.ColorMap) error {
	if m.laptop == nil {
		return ErrNoDevice
	}
	return m.laptop.setCustomFrame(colors)
}

// SetBHO configures the battery health optimizer. threshold is a charge percentage.
func (m *Manager) SetBHO(on bool, threshold uint8) bool {
	if m.laptop == nil || threshold > 100 {
		return false
	}
	if err := m.laptop.setBHO(on, threshold); err != nil {
		m.log.Warn("Failed to set battery health optimizer", logger.Err(err))
		return false
	}
	return true
}

// GetBHO reads the battery health optimizer. ok is false when the laptop
// does not report it.
func (m *Manager) GetBHO() (on bool, threshold uint8, ok bool) {
	if m.laptop == nil {
		return false, 0, false
	}
	on, threshold, err := m.laptop.getBHO()
	if err != nil {
		m.log.Debug("Battery health optimizer unavailable", logger.Err(err))
		return false, 0, false
	}
	return on, threshold, true
}

// Close releases the laptop.
func (m *Manager) Close() error {
	if m.laptop == nil {
		return nil
	}
	if err := m.laptop.Close(); err != nil {
		return fmt.Errorf("close device: %w", err)
	}
	return nil
}
