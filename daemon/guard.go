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
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrLockPoisoned is returned for every acquisition of a lock whose holder panicked.
var ErrLockPoisoned = errors.New("lock poisoned by an earlier panic")

// PanicError reports a panic recovered inside a guarded callback.
type PanicError struct {
	Lock  string
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic while holding %s lock: %v", e.Lock, e.Value)
}

// Guard owns the device controller and the effect compositor, each behind
// its own lock. When both are needed the device lock is always taken first;
// WithBoth is the only way to hold both, and callbacks never see the guard
// from inside the effects lock.
type Guard struct {
	devMu       sync.Mutex
	dev         DeviceController
	devPoisoned bool

	fxMu       sync.Mutex
	fx         EffectCompositor
	fxPoisoned bool
}

// NewGuard takes ownership of dev and fx.
func NewGuard(dev DeviceController, fx EffectCompositor) *Guard {
	return &Guard{dev: dev, fx: fx}
}

// WithDevice runs fn with the device lock held.
func (g *Guard) WithDevice(fn func(dev DeviceController)) error {
	return locked(&g.devMu, &g.devPoisoned, "device", func() { fn(g.dev) })
}

// WithEffects runs fn with the effects lock held.
func (g *Guard) WithEffects(fn func(fx EffectCompositor)) error {
	return locked(&g.fxMu, &g.fxPoisoned, "effects", func() { fn(g.fx) })
}

// WithBoth runs fn with the device lock and then the effects lock held.
// A panic in fn poisons both.
func (g *Guard) WithBoth(fn func(dev DeviceController, fx EffectCompositor)) error {
	var inner error
	err := locked(&g.devMu, &g.devPoisoned, "device", func() {
		inner = locked(&g.fxMu, &g.fxPoisoned, "effects", func() { fn(g.dev, g.fx) })
		var pe *PanicError
		if errors.As(inner, &pe) {
			g.devPoisoned = true
		}
	})
	if err != nil {
		return err
	}
	return inner
}

// Poisoned reports which locks are poisoned.
func (g *Guard) Poisoned() (device, effects bool) {
	g.devMu.Lock()
	device = g.devPoisoned
	g.devMu.Unlock()
	g.fxMu.Lock()
	effects = g.fxPoisoned
	g.fxMu.Unlock()
	return device, effects
}

func locked(mu *sync.Mutex, poisoned *bool, name string, fn func()) (err error) {
	mu.Lock()
	defer mu.Unlock()
	if *poisoned {
		return fmt.Errorf("%s: %w", name, ErrLockPoisoned)
	}
	defer func() {
		if r := recover(); r != nil {
			*poisoned = true
			err = &PanicError{Lock: name, Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}
