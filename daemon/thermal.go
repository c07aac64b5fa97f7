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
	"github.com/we-are-mono/razerd/system"
)

// Fan speeds in RPM. FanAuto hands control back to the firmware.
const (
	FanAuto    = 0
	FanLow     = 2000
	FanMedium  = 3500
	FanHigh    = 4500
	FanMaximum = 5500
)

// DefaultThermalInterval is the temperature poll period.
const DefaultThermalInterval = 10 * time.Second

// FanSpeedFor maps a CPU temperature in °C to a fan speed.
func FanSpeedFor(celsius float64) int {
	switch {
	case celsius < 50:
		return FanAuto
	case celsius < 65:
		return FanLow
	case celsius < 75:
		return FanMedium
	case celsius < 85:
		return FanHigh
	default:
		return FanMaximum
	}
}

// FanLabel names a fan speed for logs.
func FanLabel(rpm int) string {
	switch rpm {
	case FanAuto:
		return "auto"
	case FanLow:
		return "low"
	case FanMedium:
		return "medium"
	case FanHigh:
		return "high"
	case FanMaximum:
		return "maximum"
	default:
		return "custom"
	}
}

// thermalLoop drives the fans from the CPU temperature. It only writes when
// the band changes from the last speed it wrote successfully.
type thermalLoop struct {
	guard    *Guard
	source   system.TemperatureSource
	interval time.Duration
	lastRPM  int
	log      logger.Logger
}

func newThermalLoop(guard *Guard, source system.TemperatureSource, interval time.Duration) *thermalLoop {
	if interval <= 0 {
		interval = DefaultThermalInterval
	}
	return &thermalLoop{
		guard:    guard,
		source:   source,
		interval: interval,
		lastRPM:  -1,
		log:      logger.Component("thermal"),
	}
}

func (t *thermalLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		t.step(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// step runs one poll cycle.
func (t *thermalLoop) step(ctx context.Context) {
	celsius, err := t.source.CPUTemperature(ctx)
	if err != nil {
		t.log.Warn("Failed to read CPU temperature", logger.Err(err))
		return
	}

	rpm := FanSpeedFor(celsius)
	if rpm == t.lastRPM {
		return
	}

	var written bool
	if err := t.guard.WithDevice(func(dev DeviceController) {
		if !dev.HasDevice() {
			return
		}
		written = dev.SetFanRPM(dev.ACState(), rpm)
	}); err != nil {
		t.log.Error("Fan update skipped", logger.Err(err))
		return
	}
	if !written {
		return
	}

	t.log.Info("Fan speed changed",
		logger.Field{Key: "temperature", Value: celsius},
		logger.Field{Key: "rpm", Value: rpm},
		logger.Field{Key: "level", Value: FanLabel(rpm)})
	t.lastRPM = rpm
}
