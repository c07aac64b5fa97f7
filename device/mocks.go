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
	"sync"
)

// MockDriver is a mock implementation of Driver for testing. It answers every
// request with a success response that echoes the request.
type MockDriver struct {
	mu sync.Mutex

	// State
	Sent   []*Report
	BHO    byte
	Closed bool

	// Error injection, keyed by class<<8|id
	Errors map[uint16]error
	// SendError fails every request
	SendError error
}

// NewMockDriver creates a new MockDriver.
func NewMockDriver() *MockDriver {
	return &MockDriver{Errors: make(map[uint16]error)}
}

func (d *MockDriver) Send(req *Report) (*Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cp := *req
	d.Sent = append(d.Sent, &cp)

	if d.SendError != nil {
		return nil, d.SendError
	}
	if err := d.Errors[uint16(req.Class)<<8|uint16(req.ID)]; err != nil {
		return nil, err
	}

	resp := cp
	resp.Status = StatusSuccess
	if req.Class == classBattery && req.ID == cmdGetBHO {
		resp.Args[0] = d.BHO
	}
	if req.Class == classBattery && req.ID == cmdSetBHO {
		d.BHO = req.Args[0]
	}
	return &resp, nil
}

func (d *MockDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
	return nil
}

// FailCommand makes requests for class/id fail with err.
func (d *MockDriver) FailCommand(class, id uint8, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Errors[uint16(class)<<8|uint16(id)] = err
}

// Count returns how many requests for class/id were sent.
func (d *MockDriver) Count(class, id uint8) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.Sent {
		if r.Class == class && r.ID == id {
			n++
		}
	}
	return n
}

// Last returns the last request for class/id, or nil.
func (d *MockDriver) Last(class, id uint8) *Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.Sent) - 1; i >= 0; i-- {
		if d.Sent[i].Class == class && d.Sent[i].ID == id {
			return d.Sent[i]
		}
	}
	return nil
}

// Reset forgets recorded requests.
func (d *MockDriver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Sent = nil
}

// BrightnessWrites returns how many brightness commands were sent.
func (d *MockDriver) BrightnessWrites() int { return d.Count(classBrightness, cmdSetBrightness) }

// LastBrightness returns the last brightness written, or -1.
func (d *MockDriver) LastBrightness() int {
	r := d.Last(classBrightness, cmdSetBrightness)
	if r == nil {
		return -1
	}
	return int(r.Args[1])
}

// FanWrites returns how many fan speed commands were sent.
func (d *MockDriver) FanWrites() int { return d.Count(classPower, cmdFanRPM) }

// LastFanRPM returns the last manual fan speed written, or -1.
func (d *MockDriver) LastFanRPM() int {
	r := d.Last(classPower, cmdFanRPM)
	if r == nil {
		return -1
	}
	return int(r.Args[2]) * 100
}

// PowerModeWrites returns how many power mode commands were sent.
func (d *MockDriver) PowerModeWrites() int { return d.Count(classPower, cmdPowerMode) }

// FrameWrites returns how many custom frame rows were uploaded.
func (d *MockDriver) FrameWrites() int { return d.Count(classMatrix, cmdMatrixFrame) }

// LastMatrixEffect returns the last firmware effect selected, or false.
func (d *MockDriver) LastMatrixEffect() (StandardEffect, bool) {
	r := d.Last(classMatrix, cmdMatrixEffect)
	if r == nil {
		return 0, false
	}
	return StandardEffect(r.Args[0]), true
}

// MockHIDBackend is a mock implementation of HIDBackend for testing.
type MockHIDBackend struct {
	Devices   []HIDInfo
	Drivers   map[string]*MockDriver
	EnumError error
	Opened    []string
}

// NewMockHIDBackend creates a new MockHIDBackend.
func NewMockHIDBackend(devices ...HIDInfo) *MockHIDBackend {
	return &MockHIDBackend{Devices: devices, Drivers: make(map[string]*MockDriver)}
}

func (b *MockHIDBackend) Enumerate(vendorID uint16) ([]HIDInfo, error) {
	if b.EnumError != nil {
		return nil, b.EnumError
	}
	var out []HIDInfo
	for _, d := range b.Devices {
		if d.VendorID == vendorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (b *MockHIDBackend) Open(path string) (Driver, error) {
	for _, d := range b.Devices {
		if d.Path == path {
			b.Opened = append(b.Opened, path)
			drv, ok := b.Drivers[path]
			if !ok {
				drv = NewMockDriver()
				b.Drivers[path] = drv
			}
			return drv, nil
		}
	}
	return nil, errors.New("no such device: " + path)
}

// MockIdleMonitor is a mock implementation of IdleMonitor for testing.
type MockIdleMonitor struct {
	mu sync.Mutex

	nextID uint32

	// Registered watches: id -> idle interval in ms, 0 for user-active watches
	Watches map[uint32]uint64

	// Call counters for verification
	AddIdleCalls   int
	AddActiveCalls int
	RemoveCalls    int

	// Error injection
	AddError error
}

// NewMockIdleMonitor creates a new MockIdleMonitor.
func NewMockIdleMonitor() *MockIdleMonitor {
	return &MockIdleMonitor{Watches: make(map[uint32]uint64)}
}

func (m *MockIdleMonitor) AddIdleWatch(intervalMS uint64) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddIdleCalls++
	if m.AddError != nil {
		return 0, m.AddError
	}
	m.nextID++
	m.Watches[m.nextID] = intervalMS
	return m.nextID, nil
}

func (m *MockIdleMonitor) AddUserActiveWatch() (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddActiveCalls++
	if m.AddError != nil {
		return 0, m.AddError
	}
	m.nextID++
	m.Watches[m.nextID] = 0
	return m.nextID, nil
}

func (m *MockIdleMonitor) RemoveWatch(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalls++
	delete(m.Watches, id)
	return nil
}

// Counts returns the add-idle, add-active and remove call counts.
func (m *MockIdleMonitor) Counts() (addIdle, addActive, remove int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AddIdleCalls, m.AddActiveCalls, m.RemoveCalls
}

// MemoryStore is an in-memory SettingsStore.
type MemoryStore struct {
	mu       sync.Mutex
	Settings *Settings
	Saves    int
}

func (s *MemoryStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Settings == nil {
		return DefaultSettings(), errors.New("no saved settings")
	}
	return *s.Settings, nil
}

func (s *MemoryStore) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Settings = &settings
	s.Saves++
	return nil
}
