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

package state

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useStateDir points the state directory at a fresh temp dir
func useStateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvStateDir, dir)
	return dir
}

type profileDoc struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// TestSaveAndLoadConfig tests a namespace round-trip through the state dir
func TestSaveAndLoadConfig(t *testing.T) {
	dir := useStateDir(t)

	require.NoError(t, SaveConfig("profiles", profileDoc{Name: "balanced", Value: 3}))

	_, err := os.Stat(filepath.Join(dir, "profiles.json"))
	require.NoError(t, err)

	var loaded profileDoc
	require.NoError(t, LoadConfig("profiles", &loaded))
	assert.Equal(t, profileDoc{Name: "balanced", Value: 3}, loaded)
}

// TestLoadConfigFileNotFound tests loading a namespace that was never saved
func TestLoadConfigFileNotFound(t *testing.T) {
	useStateDir(t)

	var doc profileDoc
	err := LoadConfig("missing", &doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "failed to read")
}

// TestLoadFileSyntaxError tests line/column reporting for broken JSON
func TestLoadFileSyntaxError(t *testing.T) {
	dir := useStateDir(t)

	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{\n  \"name\": \n}"), 0600))

	var doc profileDoc
	err := LoadFile(path, &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

// TestSaveFileAtomicWithBackup tests that rewrites keep one backup and no temp files
func TestSaveFileAtomicWithBackup(t *testing.T) {
	dir := useStateDir(t)
	path := filepath.Join(dir, "nested", "doc.json")

	require.NoError(t, SaveFile(path, profileDoc{Name: "first"}))
	require.NoError(t, SaveFile(path, profileDoc{Name: "second"}))

	var current, backup profileDoc
	require.NoError(t, LoadFile(path, &current))
	require.NoError(t, LoadFile(path+".bak", &backup))
	assert.Equal(t, "second", current.Name)
	assert.Equal(t, "first", backup.Name)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp")
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

// TestGetStateDir tests env override and the home fallback
func TestGetStateDir(t *testing.T) {
	t.Setenv(EnvStateDir, "")
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/.local/share/razercontrol", GetStateDir())

	t.Setenv(EnvStateDir, "/tmp/razerd-state")
	assert.Equal(t, "/tmp/razerd-state", GetStateDir())
}

// TestGetLineCol tests line and column calculation for JSON error reporting
func TestGetLineCol(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		offset   int64
		wantLine int
		wantCol  int
	}{
		{"first character", "hello", 0, 1, 1},
		{"middle of first line", "hello world", 6, 1, 7},
		{"after newline", "line 1\nline 2", 7, 2, 1},
		{"offset past end", "ab", 10, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, col := getLineCol([]byte(tt.data), tt.offset)
			assert.Equal(t, tt.wantLine, line, "line number mismatch")
			assert.Equal(t, tt.wantCol, col, "column number mismatch")
		})
	}
}

// TestUnmarshalJSON tests enhanced JSON unmarshaling with error reporting
func TestUnmarshalJSON(t *testing.T) {
	var doc profileDoc
	assert.NoError(t, UnmarshalJSON([]byte(`{"name":"a","value":1}`), &doc))

	err := UnmarshalJSON([]byte(`{"name": "a", "value": }`), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON syntax error")

	assert.Error(t, UnmarshalJSON([]byte(`{"value":"x"}`), &doc))
}

// TestEffectsSave tests reading and writing the raw effects document
func TestEffectsSave(t *testing.T) {
	dir := useStateDir(t)
	path := filepath.Join(dir, "razercontrol", "effects.json")

	data, ok, err := ReadEffectsSave(path)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)

	require.NoError(t, WriteEffectsSave(path, []byte(`[{"name":"static"}]`)))

	data, ok, err = ReadEffectsSave(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"name":"static"}]`, string(data))

	require.NoError(t, os.WriteFile(path, nil, 0600))
	_, ok, err = ReadEffectsSave(path)
	require.NoError(t, err)
	assert.False(t, ok, "empty file is treated as no save")
}
