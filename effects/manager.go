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

package effects

import (
	"encoding/json"
	"fmt"

	"github.com/we-are-mono/razerd/types"
)

// Keyboard receives composed frames.
type Keyboard interface {
	SetKeyColors(colors types.ColorMap) error
}

// Layer is one effect and the keys it paints.
type Layer struct {
	Effect Effect
	Mask   types.KeyMask
	frame  types.ColorMap
}

// LayerInfo describes a layer without exposing the live effect.
type LayerInfo struct {
	Name   string        `json:"name"`
	Params types.Params  `json:"params"`
	Mask   types.KeyMask `json:"mask"`
}

// Manager is the ordered layer stack. Later layers win per key.
// It is not safe for concurrent use; callers serialize access.
type Manager struct {
	layers []*Layer
	last   types.ColorMap
}

// NewManager creates an empty compositor.
func NewManager() *Manager {
	return &Manager{}
}

// PushEffect adds a layer on top of the stack.
func (m *Manager) PushEffect(e Effect, mask types.KeyMask) {
	m.layers = append(m.layers, &Layer{Effect: e, Mask: mask})
}

// PopEffect removes the top layer. When layers remain the stack is
// re-rendered once so keys owned by the removed layer are repainted.
func (m *Manager) PopEffect(kbd Keyboard) error {
	if len(m.layers) == 0 {
		return nil
	}
	m.layers[len(m.layers)-1] = nil
	m.layers = m.layers[:len(m.layers)-1]
	if len(m.layers) == 0 || kbd == nil {
		return nil
	}
	return m.Update(kbd)
}

// Len returns the stack depth.
func (m *Manager) Len() int {
	return len(m.layers)
}

// Layers returns a snapshot of the stack, bottom first.
func (m *Manager) Layers() []LayerInfo {
	out := make([]LayerInfo, len(m.layers))
	for i, l := range m.layers {
		out[i] = LayerInfo{Name: l.Effect.Name(), Params: l.Effect.Params(), Mask: l.Mask}
	}
	return out
}

// Update advances every layer by one frame, composes them and sends the
// result to kbd. An empty stack leaves the keyboard untouched.
func (m *Manager) Update(kbd Keyboard) error {
	if len(m.layers) == 0 {
		return nil
	}
	var out types.ColorMap
	for _, l := range m.layers {
		l.frame = l.Effect.Update()
		for i, on := range l.Mask {
			if on {
				out[i] = l.frame[i]
			}
		}
	}
	m.last = out
	if kbd == nil {
		return nil
	}
	if err := kbd.SetKeyColors(out); err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}
	return nil
}

// GetMap returns the last frame rendered by the layer at index layer, or
// the composed frame when layer is negative. Unknown layers read as black.
func (m *Manager) GetMap(layer int) types.ColorMap {
	if layer < 0 {
		return m.last
	}
	if layer >= len(m.layers) {
		return types.ColorMap{}
	}
	return m.layers[layer].frame
}

// Save serializes the stack as a JSON array of {name, params, mask}.
func (m *Manager) Save() ([]byte, error) {
	data, err := json.Marshal(m.Layers())
	if err != nil {
		return nil, fmt.Errorf("failed to encode effects: %w", err)
	}
	return data, nil
}

// LoadFromSave replaces the stack with a saved one. Nothing changes unless
// every saved layer decodes.
func (m *Manager) LoadFromSave(data []byte) error {
	var saved []LayerInfo
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("failed to decode effects: %w", err)
	}

	layers := make([]*Layer, 0, len(saved))
	for i, s := range saved {
		e, err := New(s.Name, s.Params)
		if err != nil {
			return fmt.Errorf("saved layer %d: %w", i, err)
		}
		layers = append(layers, &Layer{Effect: e, Mask: s.Mask})
	}
	m.layers = layers
	return nil
}
