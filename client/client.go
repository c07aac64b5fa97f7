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

// Package client talks to a running razerd over its IPC socket.
package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/we-are-mono/razerd/config"
	"github.com/we-are-mono/razerd/daemon"
)

// Timeout bounds a whole request/response exchange.
var Timeout = 5 * time.Second

// GetSocketPath returns the socket path, preferring RAZERD_SOCKET_PATH.
func GetSocketPath() string {
	if path := os.Getenv(config.EnvSocketPath); path != "" {
		return path
	}
	return config.DefaultSocketPath
}

// Send performs one exchange. The daemon closes without replying to requests
// it cannot serve; that case returns ok=false and a nil error.
func Send(req daemon.Request) (resp daemon.Response, ok bool, err error) {
	return SendTo(GetSocketPath(), req)
}

// SendTo is Send against an explicit socket path.
func SendTo(path string, req daemon.Request) (daemon.Response, bool, error) {
	var resp daemon.Response

	conn, err := net.DialTimeout("unix", path, Timeout)
	if err != nil {
		return resp, false, fmt.Errorf("failed to connect to daemon (is it running?): %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(Timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return resp, false, fmt.Errorf("failed to marshal request: %w", err)
	}

	if _, err = conn.Write(data); err != nil {
		return resp, false, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return resp, false, fmt.Errorf("failed to read response: %w", err)
	}
	if len(respData) == 0 {
		return resp, false, nil
	}

	if err := json.Unmarshal(respData, &resp); err != nil {
		return resp, false, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp, true, nil
}
