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

package system

import (
	"context"
	"fmt"
	"sync"
)

// MockFilesystemClient is a mock implementation of FilesystemClient for testing.
type MockFilesystemClient struct {
	mu sync.Mutex

	// State
	Files map[string][]byte

	// Call counters for verification
	ReadFileCalls int
	ExistsCalls   int

	// Error injection for testing error paths
	ReadFileError error
}

// NewMockFilesystemClient creates a new MockFilesystemClient.
func NewMockFilesystemClient() *MockFilesystemClient {
	return &MockFilesystemClient{
		Files: make(map[string][]byte),
	}
}

func (m *MockFilesystemClient) ReadFile(filename string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadFileCalls++

	if m.ReadFileError != nil {
		return nil, m.ReadFileError
	}

	data, ok := m.Files[filename]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", filename)
	}
	return data, nil
}

func (m *MockFilesystemClient) Exists(filename string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExistsCalls++

	_, ok := m.Files[filename]
	return ok
}

// SetFile stores file content.
func (m *MockFilesystemClient) SetFile(filename string, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[filename] = []byte(data)
}

// MockCommandRunner is a mock implementation of CommandRunner for testing.
type MockCommandRunner struct {
	mu sync.Mutex

	// State
	Results map[string]*CommandResult

	// Call tracking
	Commands [][]string
	RunCalls int

	// Error injection
	RunError error

	// ran is signalled after every Run, when set
	ran chan struct{}
}

// NewMockCommandRunner creates a new MockCommandRunner.
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		Results:  make(map[string]*CommandResult),
		Commands: make([][]string, 0),
	}
}

func (m *MockCommandRunner) Run(ctx context.Context, name string, args ...string) (*CommandResult, error) {
	m.mu.Lock()
	m.RunCalls++
	m.Commands = append(m.Commands, append([]string{name}, args...))
	ran := m.ran
	err := m.RunError
	result, ok := m.Results[commandKey(name, args)]
	m.mu.Unlock()

	if ran != nil {
		defer func() { ran <- struct{}{} }()
	}

	if err != nil {
		return nil, err
	}
	if !ok {
		return &CommandResult{}, nil
	}
	return result, nil
}

// SetOutput sets the stdout of a specific command line.
func (m *MockCommandRunner) SetOutput(name string, args []string, stdout string) {
	m.SetResult(name, args, &CommandResult{Stdout: []byte(stdout)})
}

// SetResult sets the full result of a specific command line.
func (m *MockCommandRunner) SetResult(name string, args []string, result *CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results[commandKey(name, args)] = result
}

// Notify returns a channel that receives once per Run call.
func (m *MockCommandRunner) Notify() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ran == nil {
		m.ran = make(chan struct{}, 16)
	}
	return m.ran
}

// Calls returns a copy of the recorded command lines.
func (m *MockCommandRunner) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.Commands))
	copy(out, m.Commands)
	return out
}
