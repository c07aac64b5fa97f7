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

package client

import (
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/we-are-mono/razerd/daemon"
	"github.com/we-are-mono/razerd/device"
	"github.com/we-are-mono/razerd/effects"
	"github.com/we-are-mono/razerd/types"
)

// startDaemon serves a mock laptop on a temporary socket
func startDaemon(t *testing.T) string {
	t.Helper()
	drv := device.NewMockDriver()
	dev := device.NewManager(device.NewLaptop(device.Descriptor{
		Name:     "Blade 14 (2021)",
		PID:      "0x0270",
		Features: []string{device.FeatureBoost},
		Fan:      [2]int{3500, 5000},
	}, drv), &device.MemoryStore{}, func() (bool, error) { return true, nil })
	fx := effects.NewManager()
	white, err := effects.New(effects.NameStatic, types.Params{255, 255, 255})
	require.NoError(t, err)
	fx.PushEffect(white, types.FullMask())

	path := filepath.Join(t.TempDir(), "razerd.sock")
	listener, err := daemon.Listen(path)
	require.NoError(t, err)
	server := daemon.NewServer(listener, daemon.NewGuard(dev, fx))
	done := make(chan error, 1)
	go func() { done <- server.Serve() }()
	t.Cleanup(func() {
		server.Stop()
		<-done
	})
	return path
}

// TestGetSocketPath tests socket path resolution
func TestGetSocketPath(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected string
	}{
		{
			name:     "default path when env not set",
			envValue: "",
			expected: "/tmp/razercontrol-socket",
		},
		{
			name:     "custom path from env",
			envValue: "/tmp/custom-razerd.sock",
			expected: "/tmp/custom-razerd.sock",
		},
		{
			name:     "absolute path with spaces",
			envValue: "/tmp/path with spaces/razerd.sock",
			expected: "/tmp/path with spaces/razerd.sock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RAZERD_SOCKET_PATH", tt.envValue)
			assert.Equal(t, tt.expected, GetSocketPath())
		})
	}
}

func TestSendRoundTrip(t *testing.T) {
	t.Setenv("RAZERD_SOCKET_PATH", startDaemon(t))

	resp, ok, err := Send(daemon.Request{Command: daemon.CmdGetDeviceName})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, daemon.CmdGetDeviceName, resp.Command)
	assert.Equal(t, "Blade 14 (2021)", resp.Name)

	resp, ok, err = Send(daemon.Request{Command: daemon.CmdSetBrightness, AC: true, Val: 128})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, resp.Result)

	resp, ok, err = Send(daemon.Request{Command: daemon.CmdGetBrightness, AC: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint8(128), resp.Val)
}

func TestSendKeyboardMap(t *testing.T) {
	path := startDaemon(t)

	resp, ok, err := SendTo(path, daemon.Request{Command: daemon.CmdGetKeyboardRGB, Layer: 7})
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, resp.Map)
	assert.Equal(t, 7, resp.Layer)
}

func TestSendNoReply(t *testing.T) {
	path := startDaemon(t)

	_, ok, err := SendTo(path, daemon.Request{Command: "Reboot"})
	require.NoError(t, err)
	assert.False(t, ok, "unknown commands are closed without a reply")
}

func TestSendConnectionFailure(t *testing.T) {
	_, ok, err := SendTo(filepath.Join(t.TempDir(), "missing.sock"), daemon.Request{Command: daemon.CmdGetSync})
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "is it running")
}

func TestSendInvalidJSONResponse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.sock")
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 512)
		_, _ = conn.Read(buf)
		_, _ = conn.Write([]byte("not json\n"))
	}()

	_, ok, err := SendTo(path, daemon.Request{Command: daemon.CmdGetSync})
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestSendConcurrentRequests(t *testing.T) {
	path := startDaemon(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, ok, err := SendTo(path, daemon.Request{Command: daemon.CmdGetPwrLevel, AC: true})
			if err != nil {
				errs <- err
				return
			}
			if !ok || resp.Command != daemon.CmdGetPwrLevel {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
