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
	_ "embed"
	"errors"
	"fmt"

	"github.com/we-are-mono/razerd/state"
	"github.com/we-are-mono/razerd/validation"
)

//go:embed laptops.json
var defaultLaptops []byte

// ErrNoDevice is returned when no supported laptop is attached.
var ErrNoDevice = errors.New("no supported Razer laptop found")

// Feature flags of a laptop model.
const (
	FeatureBoost = "boost"
	FeatureLogo  = "logo"
	FeatureBHO   = "bho"
)

// MaxFanRPM is the highest manual fan speed any model accepts.
const MaxFanRPM = 5500

// Descriptor describes one supported laptop model.
type Descriptor struct {
	Name     string   `json:"name"`
	PID      string   `json:"pid"`
	Features []string `json:"features"`
	Fan      [2]int   `json:"fan"`
}

// ProductID parses the hex product id.
func (d Descriptor) ProductID() (uint16, error) {
	v, err := validation.ProductID(d.PID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", d.Name, err)
	}
	return v, nil
}

// Validate reports every problem with the descriptor.
func (d Descriptor) Validate() error {
	ec := validation.NewCollector().WithContext("laptop " + d.Name)
	ec.Check(validation.Required("name", d.Name))
	_, err := validation.ProductID(d.PID)
	ec.Check(err)
	for _, f := range d.Features {
		ec.Check(validation.OneOf("feature", f, FeatureBoost, FeatureLogo, FeatureBHO))
	}
	ec.Check(validation.FanRange(d.Fan[0], d.Fan[1], MaxFanRPM))
	return ec.Error()
}

// Has reports whether the model supports a feature.
func (d Descriptor) Has(feature string) bool {
	for _, f := range d.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// ManualFan reports whether the model accepts a manual fan speed.
func (d Descriptor) ManualFan() bool {
	return d.Fan[1] > 0
}

// ClampFan limits a manual fan speed to the model's range, and never above
// MaxFanRPM.
func (d Descriptor) ClampFan(rpm int) int {
	lo, hi := d.Fan[0], d.Fan[1]
	if hi == 0 || hi > MaxFanRPM {
		hi = MaxFanRPM
	}
	if rpm < lo {
		return lo
	}
	if rpm > hi {
		return hi
	}
	return rpm
}

// LoadDescriptors reads the supported-laptop list from path, or the built-in
// list when path is empty.
func LoadDescriptors(path string) ([]Descriptor, error) {
	var list []Descriptor
	if path == "" {
		if err := state.UnmarshalJSON(defaultLaptops, &list); err != nil {
			return nil, fmt.Errorf("built-in laptop list: %w", err)
		}
		return list, nil
	}
	if err := state.LoadFile(path, &list); err != nil {
		return nil, err
	}
	ec := validation.NewCollector()
	seen := make(map[uint16]string, len(list))
	for _, d := range list {
		if err := d.Validate(); err != nil {
			ec.Check(err)
			continue
		}
		pid, _ := d.ProductID()
		if other, ok := seen[pid]; ok {
			ec.Check(fmt.Errorf("laptop %s: product id %s already used by %s", d.Name, d.PID, other))
		}
		seen[pid] = d.Name
	}
	if err := ec.Error(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Discover finds the first attached laptop in descriptors and opens it.
func Discover(backend HIDBackend, descriptors []Descriptor) (*Laptop, error) {
	byPID := make(map[uint16]Descriptor, len(descriptors))
	for _, d := range descriptors {
		pid, err := d.ProductID()
		if err != nil {
			return nil, err
		}
		byPID[pid] = d
	}

	infos, err := backend.Enumerate(RazerVendorID)
	if err != nil {
		return nil, err
	}

	// Prefer interface 0, which carries the control endpoint.
	var match *HIDInfo
	for i := range infos {
		if _, ok := byPID[infos[i].ProductID]; !ok {
			continue
		}
		if match == nil || (infos[i].Interface == 0 && match.Interface != 0) {
			match = &infos[i]
		}
	}
	if match == nil {
		return nil, ErrNoDevice
	}

	drv, err := backend.Open(match.Path)
	if err != nil {
		return nil, err
	}
	return NewLaptop(byPID[match.ProductID], drv), nil
}
