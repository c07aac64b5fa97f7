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
	"errors"

	"github.com/we-are-mono/razerd/device"
	"github.com/we-are-mono/razerd/system"
)

// NewACSource reads the AC adapter from UPower over dial, falling back to
// sysfs when the bus or UPower is unavailable.
func NewACSource(acDevice string, dial Dialer, fs system.FilesystemClient) device.ACSource {
	return func() (bool, error) {
		var busErr error
		if dial != nil {
			online, err := upowerOnline(dial, acDevice)
			if err == nil {
				return online, nil
			}
			busErr = err
		}
		online, err := system.ReadACOnline(fs, acDevice)
		if err != nil {
			return false, errors.Join(busErr, err)
		}
		return online, nil
	}
}

func upowerOnline(dial Dialer, acDevice string) (bool, error) {
	conn, err := dial()
	if err != nil {
		return false, err
	}
	defer conn.Close()
	return UPowerOnline(conn, acDevice)
}
