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

// Package validation holds the checks shared by the configuration file and
// the laptop catalog.
package validation

import (
	"fmt"
	"strconv"
	"strings"
)

// Required fails when value is blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must be set", field)
	}
	return nil
}

// OneOf fails unless value is one of allowed.
func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s %q is not one of %s", field, value, strings.Join(allowed, ", "))
}

// Positive fails unless v > 0.
func Positive(field string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}

// NonNegative fails when v < 0.
func NonNegative(field string, v int) error {
	if v < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}

// ProductID parses a USB product id such as "0x028a".
func ProductID(value string) (uint16, error) {
	hex := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "0x")
	if hex == "" {
		return 0, fmt.Errorf("product id must be set")
	}
	v, err := strconv.ParseUint(hex, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q: %w", value, err)
	}
	return uint16(v), nil
}

// FanRange checks a [min, max] RPM pair. A zero max means the model has no
// manual fan control.
func FanRange(lo, hi, ceiling int) error {
	if hi == 0 && lo == 0 {
		return nil
	}
	if lo < 0 || hi <= 0 {
		return fmt.Errorf("fan range [%d, %d] must be positive", lo, hi)
	}
	if lo > hi {
		return fmt.Errorf("fan range [%d, %d] is inverted", lo, hi)
	}
	if hi > ceiling {
		return fmt.Errorf("fan maximum %d exceeds %d rpm", hi, ceiling)
	}
	return nil
}
