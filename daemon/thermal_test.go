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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/we-are-mono/razerd/device"
	"github.com/we-are-mono/razerd/effects"
)

// tempSequence replays temperature readings
type tempSequence struct {
	readings []float64
	errs     map[int]error
	i        int
}

func (s *tempSequence) CPUTemperature(ctx context.Context) (float64, error) {
	i := s.i
	s.i++
	if err := s.errs[i]; err != nil {
		return 0, err
	}
	return s.readings[i], nil
}

// fanRecorder records fan speeds requested from the device
type fanRecorder struct {
	DeviceController
	writes []int
	fail   bool
}

func (f *fanRecorder) SetFanRPM(ac bool, rpm int) bool {
	if f.fail {
		return false
	}
	f.writes = append(f.writes, rpm)
	return f.DeviceController.SetFanRPM(ac, rpm)
}

func newThermalFixture(t *testing.T, readings ...float64) (*thermalLoop, *fanRecorder, *tempSequence) {
	t.Helper()
	dev, _ := newTestDevice(t)
	rec := &fanRecorder{DeviceController: dev}
	src := &tempSequence{readings: readings, errs: map[int]error{}}
	return newThermalLoop(NewGuard(rec, effects.NewManager()), src, 0), rec, src
}

func runSteps(loop *thermalLoop, n int) {
	for i := 0; i < n; i++ {
		loop.step(context.Background())
	}
}

// TestFanSpeedFor tests the temperature bands
func TestFanSpeedFor(t *testing.T) {
	tests := []struct {
		celsius float64
		want    int
		label   string
	}{
		{-5, FanAuto, "auto"},
		{49.9, FanAuto, "auto"},
		{50, FanLow, "low"},
		{64.9, FanLow, "low"},
		{65, FanMedium, "medium"},
		{74.9, FanMedium, "medium"},
		{75, FanHigh, "high"},
		{84.9, FanHigh, "high"},
		{85, FanMaximum, "maximum"},
		{90.0, FanMaximum, "maximum"},
		{120, FanMaximum, "maximum"},
	}
	for _, tt := range tests {
		got := FanSpeedFor(tt.celsius)
		assert.Equal(t, tt.want, got, "temperature %.1f", tt.celsius)
		assert.Equal(t, tt.label, FanLabel(got))
	}
	assert.Equal(t, "custom", FanLabel(1234))
}

// TestThermalHysteresis tests that readings within one band write once
func TestThermalHysteresis(t *testing.T) {
	loop, rec, _ := newThermalFixture(t, 55, 56.5, 60, 64.9, 50)
	runSteps(loop, 5)
	assert.Equal(t, []int{FanLow}, rec.writes)
	assert.Equal(t, FanLow, loop.lastRPM)
}

// TestThermalBandChanges tests writes on every band change
func TestThermalBandChanges(t *testing.T) {
	loop, rec, _ := newThermalFixture(t, 40, 55, 70, 80, 95, 95, 40)
	runSteps(loop, 7)
	assert.Equal(t, []int{FanAuto, FanLow, FanMedium, FanHigh, FanMaximum, FanAuto}, rec.writes)
}

// TestThermalSourceError tests that a failed reading changes nothing
func TestThermalSourceError(t *testing.T) {
	loop, rec, src := newThermalFixture(t, 0, 70)
	src.errs[0] = errors.New("no sensors")

	loop.step(context.Background())
	assert.Empty(t, rec.writes)
	assert.Equal(t, -1, loop.lastRPM)

	loop.step(context.Background())
	assert.Equal(t, []int{FanMedium}, rec.writes)
}

// TestThermalFailedWriteRetried tests that lastRPM only follows successful writes
func TestThermalFailedWriteRetried(t *testing.T) {
	loop, rec, _ := newThermalFixture(t, 70, 70)
	rec.fail = true
	loop.step(context.Background())
	assert.Equal(t, -1, loop.lastRPM)

	rec.fail = false
	loop.step(context.Background())
	assert.Equal(t, []int{FanMedium}, rec.writes)
	assert.Equal(t, FanMedium, loop.lastRPM)
}

// TestThermalUsesCurrentACProfile tests the AC state is read every cycle
func TestThermalUsesCurrentACProfile(t *testing.T) {
	loop, rec, _ := newThermalFixture(t, 70, 80)
	dev := rec.DeviceController.(*device.Manager)

	loop.step(context.Background())
	assert.Equal(t, FanMedium, dev.GetFanRPM(false))

	require.NoError(t, dev.SetACState(true))
	loop.step(context.Background())
	assert.Equal(t, FanHigh, dev.GetFanRPM(true))
	assert.Equal(t, FanMedium, dev.GetFanRPM(false))
}

// TestThermalNoDevice tests that the loop skips without a laptop
func TestThermalNoDevice(t *testing.T) {
	src := &tempSequence{readings: []float64{70}}
	loop := newThermalLoop(NewGuard(device.NewManager(nil, nil, nil), effects.NewManager()), src, 0)
	loop.step(context.Background())
	assert.Equal(t, -1, loop.lastRPM)
	assert.Equal(t, DefaultThermalInterval, loop.interval)
}

// TestThermalPoisonedLock tests that a poisoned device lock is skipped
func TestThermalPoisonedLock(t *testing.T) {
	loop, rec, _ := newThermalFixture(t, 70)
	_ = loop.guard.WithDevice(func(DeviceController) { panic("boom") })
	loop.step(context.Background())
	assert.Empty(t, rec.writes)
	assert.Equal(t, -1, loop.lastRPM)
}
