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

package logger

import (
	"bytes"
	"fmt"
	"os/exec"
	"sync"
)

// JournaldBackend writes log entries to systemd journal
type JournaldBackend struct {
	identifier string
	format     string // "json" or "text"
	mu         sync.Mutex
}

// NewJournaldBackend creates a new journald backend
// Returns an error if systemd journal is not available
func NewJournaldBackend(identifier, format string) (*JournaldBackend, error) {
	// Check if systemd-cat is available
	if _, err := exec.LookPath("systemd-cat"); err != nil {
		return nil, fmt.Errorf("systemd-cat not found: %w", err)
	}

	return &JournaldBackend{
		identifier: identifier,
		format:     format,
	}, nil
}

// Write writes a log entry to systemd journal
func (b *JournaldBackend) Write(entry *Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	line, err := entry.Format(b.format)
	if err != nil {
		return err
	}

	// Determine systemd priority based on log level
	priority := "6" // info
	switch entry.Level {
	case "debug":
		priority = "7"
	case "info":
		priority = "6"
	case "warn":
		priority = "4"
	case "error":
		priority = "3"
	}

	// Write to journal using systemd-cat
	cmd := exec.Command("systemd-cat", "-t", b.identifier, "-p", priority)
	cmd.Stdin = bytes.NewReader(line)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to write to journal: %w", err)
	}

	return nil
}

// Close closes the journald backend
func (b *JournaldBackend) Close() error {
	// Nothing to close for journald
	return nil
}
