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
	"time"

	"github.com/we-are-mono/razerd/daemon/logger"
)

// DefaultAnimationInterval is the keyboard frame period.
const DefaultAnimationInterval = 100 * time.Millisecond

// animator renders the effect stack onto the keyboard.
type animator struct {
	guard    *Guard
	interval time.Duration
	log      logger.Logger
}

func newAnimator(guard *Guard, interval time.Duration) *animator {
	if interval <= 0 {
		interval = DefaultAnimationInterval
	}
	return &animator{guard: guard, interval: interval, log: logger.Component("animator")}
}

func (a *animator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	var lastErr string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		var frameErr error
		if err := a.guard.WithBoth(func(dev DeviceController, fx EffectCompositor) {
			if dev.HasDevice() {
				frameErr = fx.Update(dev)
			}
		}); err != nil {
			frameErr = err
		}

		// Only log when the failure changes, not every frame.
		msg := ""
		if frameErr != nil {
			msg = frameErr.Error()
		}
		if msg != lastErr && msg != "" {
			a.log.Warn("Failed to render keyboard frame", logger.Field{Key: "error", Value: msg})
		}
		lastErr = msg
	}
}
