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

package device

import (
	"fmt"

	"github.com/we-are-mono/razerd/types"
)

// Fan zones.
const (
	zoneCPU = 0x01
	zoneGPU = 0x02
)

// Logo LED states.
const (
	LogoOff       = 0
	LogoOn        = 1
	LogoBreathing = 2
)

// Laptop is an opened, supported laptop.
type Laptop struct {
	Descriptor
	drv Driver
}

// NewLaptop wraps an opened driver.
func NewLaptop(desc Descriptor, drv Driver) *Laptop {
	return &Laptop{Descriptor: desc, drv: drv}
}

// Close releases the device.
func (l *Laptop) Close() error {
	return l.drv.Close()
}

func (l *Laptop) send(class, id uint8, args ...byte) (*Report, error) {
	return l.drv.Send(NewReport(class, id, args...))
}

// setPowerMode selects the performance mode. manualFan hands fan control to setFanRPM.
func (l *Laptop) setPowerMode(mode uint8, manualFan bool) error {
	fan := byte(0)
	if manualFan {
		fan = 1
	}
	for _, zone := range []byte{zoneCPU, zoneGPU} {
		if _, err := l.send(classPower, cmdPowerMode, 0x00, zone, mode, fan); err != nil {
			return fmt.Errorf("set power mode: %w", err)
		}
	}
	return nil
}

// setBoost sets CPU and GPU boost, used by the custom power mode.
func (l *Laptop) setBoost(cpu, gpu uint8) error {
	if !l.Has(FeatureBoost) {
		return nil
	}
	if _, err := l.send(classPower, cmdBoost, 0x00, 0x01, cpu); err != nil {
		return fmt.Errorf("set cpu boost: %w", err)
	}
	if _, err := l.send(classPower, cmdBoost, 0x00, 0x02, gpu); err != nil {
		return fmt.Errorf("set gpu boost: %w", err)
	}
	return nil
}

// setFanRPM writes a manual speed to both zones. The device takes rpm/100.
func (l *Laptop) setFanRPM(rpm int) error {
	value := byte(l.ClampFan(rpm) / 100)
	for _, zone := range []byte{zoneCPU, zoneGPU} {
		if _, err := l.send(classPower, cmdFanRPM, 0x00, zone, value); err != nil {
			return fmt.Errorf("set fan rpm: %w", err)
		}
	}
	return nil
}

func (l *Laptop) setBrightness(v uint8) error {
	if _, err := l.send(classBrightness, cmdSetBrightness, ledStorageVarying, v); err != nil {
		return fmt.Errorf("set brightness: %w", err)
	}
	return nil
}

func (l *Laptop) setLogoState(state uint8) error {
	if !l.Has(FeatureLogo) {
		return nil
	}
	on := byte(0)
	if state != LogoOff {
		on = 1
	}
	if _, err := l.send(classMatrix, cmdLogoState, ledStorageVarying, ledLogo, on); err != nil {
		return fmt.Errorf("set logo state: %w", err)
	}
	if state == LogoOff {
		return nil
	}
	effect := byte(0x00)
	if state == LogoBreathing {
		effect = 0x02
	}
	if _, err := l.send(classMatrix, cmdLogoEffect, ledStorageVarying, ledLogo, effect); err != nil {
		return fmt.Errorf("set logo effect: %w", err)
	}
	return nil
}

func (l *Laptop) setMatrixEffect(effect StandardEffect, params types.Params) error {
	args := append([]byte{byte(effect)}, params...)
	if _, err := l.send(classMatrix, cmdMatrixEffect, args...); err != nil {
		return fmt.Errorf("set %s effect: %w", effect, err)
	}
	return nil
}

// setCustomFrame uploads one frame row by row and switches to custom mode.
func (l *Laptop) setCustomFrame(colors types.ColorMap) error {
	for row := 0; row < types.MatrixRows; row++ {
		args := []byte{0xFF, byte(row), 0x00, types.MatrixCols - 1}
		for _, c := range colors.Row(row) {
			args = append(args, c.R, c.G, c.B)
		}
		if _, err := l.send(classMatrix, cmdMatrixFrame, args...); err != nil {
			return fmt.Errorf("upload row %d: %w", row, err)
		}
	}
	return l.setMatrixEffect(EffectCustom, types.Params{0x00})
}

func (l *Laptop) setBHO(on bool, threshold uint8) error {
	if !l.Has(FeatureBHO) {
		return ErrNotSupported
	}
	v := threshold & 0x7F
	if on {
		v |= 0x80
	}
	if _, err := l.send(classBattery, cmdSetBHO, v); err != nil {
		return fmt.Errorf("set battery health optimizer: %w", err)
	}
	return nil
}

func (l *Laptop) getBHO() (bool, uint8, error) {
	if !l.Has(FeatureBHO) {
		return false, 0, ErrNotSupported
	}
	resp, err := l.send(classBattery, cmdGetBHO, 0x00)
	if err != nil {
		return false, 0, fmt.Errorf("get battery health optimizer: %w", err)
	}
	return resp.Args[0]&0x80 != 0, resp.Args[0] & 0x7F, nil
}
