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

// Package types defines the keyboard and color types shared by the razerd packages.
package types

import (
	"encoding/json"
	"fmt"
)

// KeyCount is the number of addressable keys on the laptop keyboard matrix.
const KeyCount = 90

// MatrixRows and MatrixCols describe the keyboard matrix layout.
const (
	MatrixRows = 6
	MatrixCols = 15
)

// RGB is a single 24-bit color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the color as #rrggbb.
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Lerp returns the color t of the way from c to other, t in [0,1].
func (c RGB) Lerp(other RGB, t float64) RGB {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return RGB{R: mix(c.R, other.R), G: mix(c.G, other.G), B: mix(c.B, other.B)}
}

// Scale multiplies every channel by f, f in [0,1].
func (c RGB) Scale(f float64) RGB {
	return RGB{}.Lerp(c, f)
}

// KeyMask selects which keys a layer paints. true means the layer owns the key.
type KeyMask [KeyCount]bool

// FullMask returns a mask covering every key.
func FullMask() KeyMask {
	var m KeyMask
	for i := range m {
		m[i] = true
	}
	return m
}

// Count returns how many keys the mask selects.
func (m KeyMask) Count() int {
	n := 0
	for _, on := range m {
		if on {
			n++
		}
	}
	return n
}

// ColorMap holds one color per key, in matrix order (row major).
type ColorMap [KeyCount]RGB

// Fill returns a map with every key set to c.
func Fill(c RGB) ColorMap {
	var m ColorMap
	for i := range m {
		m[i] = c
	}
	return m
}

// Row returns the colors of matrix row r.
func (m *ColorMap) Row(r int) []RGB {
	return m[r*MatrixCols : (r+1)*MatrixCols]
}

// ACIndex maps an AC state to a profile slot: 0 on battery, 1 on mains.
func ACIndex(ac bool) int {
	if ac {
		return 1
	}
	return 0
}

// Params is an effect argument list. Each value is one byte and it encodes as
// a JSON array of numbers rather than base64.
type Params []uint8

// MarshalJSON encodes the params as a number array.
func (p Params) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(p))
	for i, v := range p {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON decodes a number array, rejecting values outside 0..255.
func (p *Params) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make(Params, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("param %d out of range: %d", i, v)
		}
		out[i] = uint8(v)
	}
	*p = out
	return nil
}

// Color returns the RGB triple starting at offset i.
func (p Params) Color(i int) RGB {
	return RGB{R: p[i], G: p[i+1], B: p[i+2]}
}
