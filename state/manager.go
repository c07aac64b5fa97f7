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

// Package state persists razerd runtime state (device profiles, saved effects) as JSON.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EnvStateDir overrides the state directory.
const EnvStateDir = "RAZERD_STATE_DIR"

// GetStateDir returns the state directory path.
// Checks RAZERD_STATE_DIR, falls back to ~/.local/share/razercontrol
func GetStateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "razercontrol")
	}
	return filepath.Join(home, ".local", "share", "razercontrol")
}

// LoadConfig loads the state document for a namespace from the state directory.
// The config parameter should be a pointer to the struct to unmarshal into
func LoadConfig(namespace string, config interface{}) error {
	return LoadFile(filepath.Join(GetStateDir(), namespace+".json"), config)
}

// SaveConfig saves the state document for a namespace to the state directory
func SaveConfig(namespace string, config interface{}) error {
	return SaveFile(filepath.Join(GetStateDir(), namespace+".json"), config)
}

// LoadFile reads and decodes a JSON document
func LoadFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		// Provide more helpful error message for JSON syntax errors
		if syntaxErr, ok := err.(*json.SyntaxError); ok {
			line, col := getLineCol(data, syntaxErr.Offset)
			return fmt.Errorf("failed to parse %s at line %d, column %d: %w", path, line, col, err)
		}
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

// getLineCol calculates the line and column number for a byte offset in JSON data
func getLineCol(data []byte, offset int64) (line, col int) {
	line = 1
	col = 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}

// SaveFile encodes v as indented JSON and writes it to path.
// The previous version is kept as path.bak and the write is atomic.
func SaveFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	return WriteAtomic(path, data)
}

// WriteAtomic writes data to path through a temp file and rename,
// creating the parent directory if needed.
func WriteAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	// Write atomically (temp file + rename)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, 0600)
}

// UnmarshalJSON unmarshals JSON data with enhanced error reporting
func UnmarshalJSON(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		// Provide more helpful error message for JSON syntax errors
		if syntaxErr, ok := err.(*json.SyntaxError); ok {
			line, col := getLineCol(data, syntaxErr.Offset)
			return fmt.Errorf("JSON syntax error at line %d, column %d: %w", line, col, err)
		}
		return err
	}
	return nil
}
