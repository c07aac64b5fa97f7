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

import "fmt"

// StandardEffect is an effect rendered by the keyboard firmware.
type StandardEffect uint8

// Firmware effect ids.
const (
	EffectOff       StandardEffect = 0x00
	EffectWave      StandardEffect = 0x01
	EffectReactive  StandardEffect = 0x02
	EffectBreathing StandardEffect = 0x03
	EffectSpectrum  StandardEffect = 0x04
	EffectCustom    StandardEffect = 0x05
	EffectStatic    StandardEffect = 0x06
	EffectStarlight StandardEffect = 0x19
)

var standardEffectNames = map[string]StandardEffect{
	"off":       EffectOff,
	"wave":      EffectWave,
	"reactive":  EffectReactive,
	"breathing": EffectBreathing,
	"spectrum":  EffectSpectrum,
	"static":    EffectStatic,
	"starlight": EffectStarlight,
}

// ParseStandardEffect maps a client name to a firmware effect. Custom is not
// selectable by name; it is driven by the software compositor.
func ParseStandardEffect(name string) (StandardEffect, bool) {
	e, ok := standardEffectNames[name]
	return e, ok
}

func (e StandardEffect) String() string {
	for name, v := range standardEffectNames {
		if v == e {
			return name
		}
	}
	if e == EffectCustom {
		return "custom"
	}
	return fmt.Sprintf("effect(%#02x)", uint8(e))
}
