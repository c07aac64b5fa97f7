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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"syscall"

	"github.com/we-are-mono/razerd/daemon/logger"
	"github.com/we-are-mono/razerd/state"
)

// SocketGuard removes the IPC socket path exactly once, whichever way the
// process exits.
type SocketGuard struct {
	path string
	once sync.Once
}

// NewSocketGuard takes ownership of path.
func NewSocketGuard(path string) *SocketGuard {
	return &SocketGuard{path: path}
}

// Path returns the guarded socket path.
func (g *SocketGuard) Path() string {
	return g.path
}

// Release removes the socket if present. Later calls do nothing.
func (g *SocketGuard) Release() {
	g.once.Do(func() {
		if err := os.Remove(g.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove socket",
				logger.Field{Key: "socket", Value: g.path},
				logger.Err(err))
		}
	})
}

// Lifecycle spawns the background tasks and performs the shutdown sequence.
type Lifecycle struct {
	guard    *Guard
	socket   *SocketGuard
	saveFile string

	// exit terminates the process; replaced in tests.
	exit func(code int)

	wg  sync.WaitGroup
	log logger.Logger
}

// NewLifecycle creates a lifecycle that persists the effect stack to saveFile.
func NewLifecycle(guard *Guard, socket *SocketGuard, saveFile string) *Lifecycle {
	return &Lifecycle{
		guard:    guard,
		socket:   socket,
		saveFile: saveFile,
		exit:     os.Exit,
		log:      logger.Component("lifecycle"),
	}
}

// Go runs fn as a named background task. A returned error ends that task
// only. A panic releases the socket and is re-raised.
func (l *Lifecycle) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.Recover()
		l.log.Debug("Task started", logger.Field{Key: "task", Value: name})
		if err := fn(ctx); err != nil {
			l.log.Error("Task stopped",
				logger.Field{Key: "task", Value: name},
				logger.Err(err))
			return
		}
		l.log.Debug("Task finished", logger.Field{Key: "task", Value: name})
	}()
}

// Spawn runs a fire-and-forget goroutine under Recover. Wait does not
// track it.
func (l *Lifecycle) Spawn(fn func()) {
	go l.guarded(fn)
}

func (l *Lifecycle) guarded(fn func()) {
	defer l.Recover()
	fn()
}

// Recover releases the socket on a panic and re-panics. Deferred by every task.
func (l *Lifecycle) Recover() {
	if r := recover(); r != nil {
		l.socket.Release()
		panic(r)
	}
}

// Wait blocks until all tasks spawned with Go have returned.
func (l *Lifecycle) Wait() {
	l.wg.Wait()
}

// WaitForShutdown blocks until SIGINT or SIGTERM arrives on sigCh, persists
// the effect stack, releases the socket and exits with status 0.
func (l *Lifecycle) WaitForShutdown(sigCh <-chan os.Signal) {
	for sig := range sigCh {
		if sig == syscall.SIGINT || sig == syscall.SIGTERM {
			l.log.Info("Shutting down", logger.Field{Key: "signal", Value: sig.String()})
			break
		}
	}
	if err := l.persist(); err != nil {
		l.log.Error("Failed to save effects", logger.Err(err))
	}
	l.socket.Release()
	l.exit(0)
}

func (l *Lifecycle) persist() error {
	var data []byte
	var saveErr error
	if err := l.guard.WithEffects(func(fx EffectCompositor) { data, saveErr = fx.Save() }); err != nil {
		return err
	}
	if saveErr != nil {
		return fmt.Errorf("serialize effects: %w", saveErr)
	}
	if err := state.WriteEffectsSave(l.saveFile, data); err != nil {
		return err
	}
	l.log.Info("Effects saved", logger.Field{Key: "path", Value: l.saveFile})
	return nil
}
