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

// Package logger provides structured logging for the razerd daemon.
package logger

import (
	"fmt"
	"os"
	"sync"
)

// Logger is the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger // Create child logger with preset fields
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// Backend is the interface for log output backends
type Backend interface {
	Write(entry *Entry) error
	Close() error
}

// Config holds logger configuration
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // text, json
	FilePath  string
	Component string // name used until a child overrides it
}

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

// ParseLevel maps a level name to a LogLevel, defaulting to info.
func ParseLevel(level string) LogLevel {
	for i, name := range levelNames {
		if name == level {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "info"
	}
	return levelNames[l]
}

// Err is the conventional field for an error value.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// standardLogger is immutable once built; With returns a copy.
type standardLogger struct {
	level     LogLevel
	backends  []Backend
	component string
	fields    map[string]interface{}
}

// New creates a new logger with the given configuration and backends
func New(config Config, backends []Backend) Logger {
	return &standardLogger{
		level:     ParseLevel(config.Level),
		backends:  backends,
		component: config.Component,
	}
}

func (l *standardLogger) Debug(msg string, fields ...Field) { l.emit(LevelDebug, msg, fields) }
func (l *standardLogger) Info(msg string, fields ...Field)  { l.emit(LevelInfo, msg, fields) }
func (l *standardLogger) Warn(msg string, fields ...Field)  { l.emit(LevelWarn, msg, fields) }
func (l *standardLogger) Error(msg string, fields ...Field) { l.emit(LevelError, msg, fields) }

// With returns a child carrying extra fields. A string "component" field
// renames the child rather than being recorded.
func (l *standardLogger) With(fields ...Field) Logger {
	child := *l
	var rest []Field
	for _, f := range fields {
		if name, ok := f.Value.(string); ok && f.Key == "component" {
			child.component = name
			continue
		}
		rest = append(rest, f)
	}
	child.fields = merge(l.fields, rest)
	return &child
}

func (l *standardLogger) emit(level LogLevel, msg string, fields []Field) {
	if level < l.level {
		return
	}
	entry := NewEntry(level.String(), l.component, msg, merge(l.fields, fields))
	for _, backend := range l.backends {
		if err := backend.Write(entry); err != nil {
			fmt.Fprintf(os.Stderr, "razerd: log backend: %v\n", err)
		}
	}
}

func merge(base map[string]interface{}, extra []Field) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for _, f := range extra {
		out[f.Key] = f.Value
	}
	return out
}

// Global logger instance
var (
	std        Logger
	stdMu      sync.RWMutex
	stdBackend []Backend
)

// Init initializes the global logger
func Init(config Config, backends []Backend) {
	stdMu.Lock()
	defer stdMu.Unlock()
	std = New(config, backends)
	stdBackend = backends
}

// Close flushes and closes the backends of the global logger
func Close() error {
	stdMu.Lock()
	defer stdMu.Unlock()
	var firstErr error
	for _, b := range stdBackend {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	std = nil
	stdBackend = nil
	return firstErr
}

func global() Logger {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

// With returns a child of the global logger with preset fields.
// Before Init it returns a logger that discards everything.
func With(fields ...Field) Logger {
	if l := global(); l != nil {
		return l.With(fields...)
	}
	return nopLogger{}
}

// Component is shorthand for With(Field{Key: "component", Value: name})
func Component(name string) Logger {
	return With(Field{Key: "component", Value: name})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (n nopLogger) With(...Field) Logger { return n }

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	if l := global(); l != nil {
		l.Debug(msg, fields...)
	}
}

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) {
	if l := global(); l != nil {
		l.Info(msg, fields...)
	}
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	if l := global(); l != nil {
		l.Warn(msg, fields...)
	}
}

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) {
	if l := global(); l != nil {
		l.Error(msg, fields...)
	}
}
