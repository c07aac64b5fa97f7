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
	"encoding/json"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"
	"github.com/we-are-mono/razerd/device"
	"github.com/we-are-mono/razerd/effects"
	"github.com/we-are-mono/razerd/types"
)

var testLaptop = device.Descriptor{
	Name:     "Blade 15 (2022)",
	PID:      "0x028a",
	Features: []string{device.FeatureBoost, device.FeatureLogo, device.FeatureBHO},
	Fan:      [2]int{2000, 5500},
}

// newTestDevice returns a device manager on battery backed by a mock driver
func newTestDevice(t *testing.T) (*device.Manager, *device.MockDriver) {
	t.Helper()
	drv := device.NewMockDriver()
	dev := device.NewManager(device.NewLaptop(testLaptop, drv), &device.MemoryStore{},
		func() (bool, error) { return false, nil })
	return dev, drv
}

// newTestGuard returns a guard holding a mock laptop and a static green layer
func newTestGuard(t *testing.T) (*Guard, *device.Manager, *device.MockDriver, *effects.Manager) {
	t.Helper()
	dev, drv := newTestDevice(t)
	fx := effects.NewManager()
	green, err := effects.New(effects.NameStatic, types.Params{0, 255, 0})
	require.NoError(t, err)
	fx.PushEffect(green, types.FullMask())
	return NewGuard(dev, fx), dev, drv, fx
}

// startServer serves guard on a temporary socket until the test ends
func startServer(t *testing.T, guard *Guard, setup ...func(s *Server)) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "razerd.sock")
	listener, err := Listen(path)
	require.NoError(t, err)

	s := NewServer(listener, guard)
	for _, fn := range setup {
		fn(s)
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve() }()
	t.Cleanup(func() {
		s.Stop()
		<-done
	})
	return s, path
}

// roundTripRaw sends raw bytes as a request and returns the reply, if any
func roundTripRaw(t *testing.T, path string, data []byte) (Response, bool) {
	t.Helper()
	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(data)
	require.NoError(t, err)

	raw, err := io.ReadAll(conn)
	require.NoError(t, err)
	if len(raw) == 0 {
		return Response{}, false
	}
	var resp Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp, true
}

func roundTrip(t *testing.T, path string, req Request) (Response, bool) {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return roundTripRaw(t, path, data)
}

// fakeBus is a BusConn that records subscriptions and answers method calls
type fakeBus struct {
	mu         sync.Mutex
	rules      []string
	calls      []string
	replies    map[string][]interface{}
	callErr    error
	matchErr   error
	ch         chan<- *dbus.Signal
	closed     bool
	subscribed chan struct{}
}

func newFakeBus() *fakeBus {
	return &fakeBus{replies: make(map[string][]interface{}), subscribed: make(chan struct{})}
}

func (b *fakeBus) AddMatch(rule string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.matchErr != nil {
		return b.matchErr
	}
	b.rules = append(b.rules, rule)
	return nil
}

func (b *fakeBus) Signal(ch chan<- *dbus.Signal) {
	b.mu.Lock()
	b.ch = ch
	b.mu.Unlock()
	close(b.subscribed)
}

func (b *fakeBus) Call(dest string, path dbus.ObjectPath, method string, args ...interface{}) *dbus.Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, method)
	if b.callErr != nil {
		return &dbus.Call{Err: b.callErr}
	}
	return &dbus.Call{Body: b.replies[method]}
}

func (b *fakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBus) send(sig *dbus.Signal) {
	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()
	ch <- sig
}

func (b *fakeBus) Rules() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.rules...)
}

func (b *fakeBus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func watchFired(id uint32) *dbus.Signal {
	return &dbus.Signal{Path: mutterIdlePath, Name: mutterIdleIface + ".WatchFired", Body: []interface{}{id}}
}

func propsChanged(path dbus.ObjectPath, iface, prop string, value interface{}) *dbus.Signal {
	return &dbus.Signal{
		Path: path,
		Name: propsSignal,
		Body: []interface{}{iface, map[string]dbus.Variant{prop: dbus.MakeVariant(value)}, []string{}},
	}
}
