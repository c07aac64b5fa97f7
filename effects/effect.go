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

// Package effects implements the software keyboard effects and the layer
// compositor that renders them onto the key matrix.
package effects

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/we-are-mono/razerd/types"
)

var (
	// ErrUnknownEffect is returned for a name with no registered constructor.
	ErrUnknownEffect = errors.New("unknown effect")
	// ErrInvalidParams is returned when an effect rejects its argument list.
	ErrInvalidParams = errors.New("invalid effect parameters")
)

// Effect names.
const (
	NameStatic          = "static"
	NameStaticGradient  = "static_gradient"
	NameWaveGradient    = "wave_gradient"
	NameBreathingSingle = "breathing_single"
)

// Effect is one software effect. Update advances the effect by one frame
// and returns the colors of that frame.
type Effect interface {
	Name() string
	Params() types.Params
	Update() types.ColorMap
}

type constructor func(params types.Params) (Effect, error)

var registry = map[string]constructor{
	NameStatic:          newStatic,
	NameStaticGradient:  newStaticGradient,
	NameWaveGradient:    newWaveGradient,
	NameBreathingSingle: newBreathingSingle,
}

// New builds the effect registered under name.
func New(name string, params types.Params) (Effect, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
	}
	return ctor(params)
}

// Names lists the registered effect names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkLen(name string, params types.Params, want int) error {
	if len(params) != want {
		return fmt.Errorf("%w: %s takes %d values, got %d", ErrInvalidParams, name, want, len(params))
	}
	return nil
}

func cloneParams(p types.Params) types.Params {
	return append(types.Params(nil), p...)
}

// Static paints every key with one color. Params: r, g, b.
type Static struct {
	params types.Params
	color  types.RGB
}

func newStatic(params types.Params) (Effect, error) {
	if err := checkLen(NameStatic, params, 3); err != nil {
		return nil, err
	}
	return &Static{params: cloneParams(params), color: params.Color(0)}, nil
}

func (e *Static) Name() string           { return NameStatic }
func (e *Static) Params() types.Params   { return cloneParams(e.params) }
func (e *Static) Update() types.ColorMap { return types.Fill(e.color) }

// StaticGradient fades from one color on the left edge to another on the
// right edge. Params: r1, g1, b1, r2, g2, b2.
type StaticGradient struct {
	params types.Params
	frame  types.ColorMap
}

func newStaticGradient(params types.Params) (Effect, error) {
	if err := checkLen(NameStaticGradient, params, 6); err != nil {
		return nil, err
	}
	return &StaticGradient{
		params: cloneParams(params),
		frame:  gradient(params.Color(0), params.Color(3), 0),
	}, nil
}

func (e *StaticGradient) Name() string           { return NameStaticGradient }
func (e *StaticGradient) Params() types.Params   { return cloneParams(e.params) }
func (e *StaticGradient) Update() types.ColorMap { return e.frame }

// WaveGradient scrolls a two-color gradient across the keyboard, one column
// step per frame. Params: r1, g1, b1, r2, g2, b2.
type WaveGradient struct {
	params   types.Params
	from, to types.RGB
	shift    int
}

func newWaveGradient(params types.Params) (Effect, error) {
	if err := checkLen(NameWaveGradient, params, 6); err != nil {
		return nil, err
	}
	return &WaveGradient{params: cloneParams(params), from: params.Color(0), to: params.Color(3)}, nil
}

func (e *WaveGradient) Name() string         { return NameWaveGradient }
func (e *WaveGradient) Params() types.Params { return cloneParams(e.params) }

func (e *WaveGradient) Update() types.ColorMap {
	frame := gradient(e.from, e.to, e.shift)
	e.shift = (e.shift + 1) % (2 * types.MatrixCols)
	return frame
}

// gradient renders a left-to-right fade that mirrors back so a shifted copy
// wraps without a seam.
func gradient(from, to types.RGB, shift int) types.ColorMap {
	var m types.ColorMap
	period := 2 * types.MatrixCols
	for col := 0; col < types.MatrixCols; col++ {
		pos := (col + shift) % period
		if pos >= types.MatrixCols {
			pos = period - 1 - pos
		}
		c := from.Lerp(to, float64(pos)/float64(types.MatrixCols-1))
		for row := 0; row < types.MatrixRows; row++ {
			m[row*types.MatrixCols+col] = c
		}
	}
	return m
}

// BreathingSingle fades one color in and out. Params: r, g, b, period where
// period is the length of one full breath in animation frames.
type BreathingSingle struct {
	params types.Params
	color  types.RGB
	period int
	step   int
}

func newBreathingSingle(params types.Params) (Effect, error) {
	if err := checkLen(NameBreathingSingle, params, 4); err != nil {
		return nil, err
	}
	if params[3] < 2 {
		return nil, fmt.Errorf("%w: breathing period must be at least 2 frames", ErrInvalidParams)
	}
	return &BreathingSingle{params: cloneParams(params), color: params.Color(0), period: int(params[3])}, nil
}

func (e *BreathingSingle) Name() string         { return NameBreathingSingle }
func (e *BreathingSingle) Params() types.Params { return cloneParams(e.params) }

func (e *BreathingSingle) Update() types.ColorMap {
	// raised cosine: dark at step 0, full at half period
	level := (1 - math.Cos(2*math.Pi*float64(e.step)/float64(e.period))) / 2
	e.step = (e.step + 1) % e.period
	return types.Fill(e.color.Scale(level))
}
