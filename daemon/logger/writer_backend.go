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
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// WriterBackend writes log entries to an io.Writer such as stderr
type WriterBackend struct {
	w      io.Writer
	format string // "json" or "text"
	mu     sync.Mutex
}

// NewWriterBackend creates a new writer backend
func NewWriterBackend(w io.Writer, format string) *WriterBackend {
	return &WriterBackend{
		w:      w,
		format: format,
	}
}

// NewStderrBackend writes text to an interactive terminal and the requested format otherwise
func NewStderrBackend(format string) *WriterBackend {
	if IsTerminal(os.Stderr) {
		format = "text"
	}
	return NewWriterBackend(os.Stderr, format)
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Write writes a log entry to the writer
func (b *WriterBackend) Write(entry *Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	line, err := entry.Format(b.format)
	if err != nil {
		return err
	}

	if _, err := b.w.Write(line); err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}

	return nil
}

// Close is a no-op, the writer is owned by the caller
func (b *WriterBackend) Close() error {
	return nil
}
