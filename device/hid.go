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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sstallion/go-hid"
)

// RazerVendorID is the USB vendor id of Razer devices.
const RazerVendorID = 0x1532

// Timing of the request/response exchange.
const (
	responseDelay = 1 * time.Millisecond
	busyRetries   = 5
	busyDelay     = 10 * time.Millisecond
)

// Driver exchanges control reports with one device.
type Driver interface {
	// Send writes a request and returns the device's response.
	Send(req *Report) (*Report, error)
	Close() error
}

// HIDInfo describes one enumerated HID interface.
type HIDInfo struct {
	Path      string
	VendorID  uint16
	ProductID uint16
	Interface int
	Product   string
}

// HIDBackend enumerates and opens HID devices.
type HIDBackend interface {
	Enumerate(vendorID uint16) ([]HIDInfo, error)
	Open(path string) (Driver, error)
}

// hidapiBackend is the HIDBackend backed by hidapi.
type hidapiBackend struct {
	initOnce sync.Once
	initErr  error
}

// NewHIDBackend returns the hidapi backend.
func NewHIDBackend() HIDBackend {
	return &hidapiBackend{}
}

func (b *hidapiBackend) init() error {
	b.initOnce.Do(func() {
		b.initErr = hid.Init()
	})
	return b.initErr
}

func (b *hidapiBackend) Enumerate(vendorID uint16) ([]HIDInfo, error) {
	if err := b.init(); err != nil {
		return nil, fmt.Errorf("failed to initialize hidapi: %w", err)
	}
	var infos []HIDInfo
	err := hid.Enumerate(vendorID, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
		infos = append(infos, HIDInfo{
			Path:      info.Path,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Interface: info.InterfaceNbr,
			Product:   info.ProductStr,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate HID devices: %w", err)
	}
	return infos, nil
}

func (b *hidapiBackend) Open(path string) (Driver, error) {
	if err := b.init(); err != nil {
		return nil, fmt.Errorf("failed to initialize hidapi: %w", err)
	}
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &HIDDriver{dev: dev}, nil
}

// HIDDriver sends reports as HID feature reports.
type HIDDriver struct {
	mu  sync.Mutex
	dev *hid.Device
}

// Send writes req and reads the response, retrying while the device is busy.
func (d *HIDDriver) Send(req *Report) (*Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload := req.Marshal()
	// byte 0 is the HID report id
	var buf [ReportLen + 1]byte
	copy(buf[1:], payload[:])

	for attempt := 0; ; attempt++ {
		if _, err := d.dev.SendFeatureReport(buf[:]); err != nil {
			return nil, fmt.Errorf("failed to send report: %w", err)
		}
		time.Sleep(responseDelay)

		var in [ReportLen + 1]byte
		if _, err := d.dev.GetFeatureReport(in[:]); err != nil {
			return nil, fmt.Errorf("failed to read report: %w", err)
		}
		resp, err := UnmarshalReport(in[1:])
		if err != nil {
			return nil, err
		}
		err = checkResponse(req, resp)
		if errors.Is(err, errBusy) && attempt < busyRetries {
			time.Sleep(busyDelay)
			continue
		}
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
}

// Close releases the device handle.
func (d *HIDDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev.Close()
}
