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
	"bufio"
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/sensors"
)

// Plausible CPU temperature range in Celsius. Readings outside are discarded.
const (
	minPlausibleCelsius = 20.0
	maxPlausibleCelsius = 120.0
)

// ErrNoTemperature is returned when no CPU sensor produced a usable reading.
var ErrNoTemperature = errors.New("no CPU temperature available")

// TemperatureSource reports the current CPU temperature in Celsius.
type TemperatureSource interface {
	CPUTemperature(ctx context.Context) (float64, error)
}

// SensorReader lists hardware temperature sensors.
type SensorReader func(ctx context.Context) ([]sensors.TemperatureStat, error)

// CPUTemperatureSource reads hwmon sensors through gopsutil and falls back
// to parsing lm-sensors output when no CPU sensor is exposed.
type CPUTemperatureSource struct {
	read   SensorReader
	runner CommandRunner
}

// NewCPUTemperatureSource creates a CPUTemperatureSource. A nil reader disables
// the gopsutil path and a nil runner disables the lm-sensors fallback.
func NewCPUTemperatureSource(read SensorReader, runner CommandRunner) *CPUTemperatureSource {
	return &CPUTemperatureSource{read: read, runner: runner}
}

// NewDefaultCPUTemperatureSource uses gopsutil and the real `sensors` binary.
func NewDefaultCPUTemperatureSource() *CPUTemperatureSource {
	return NewCPUTemperatureSource(sensors.TemperaturesWithContext, NewDefaultCommandRunner())
}

// CPUTemperature returns the first plausible CPU reading.
func (s *CPUTemperatureSource) CPUTemperature(ctx context.Context) (float64, error) {
	if s.read != nil {
		// gopsutil may return partial results together with a warning error
		stats, _ := s.read(ctx)
		if temp, ok := pickCPUSensor(stats); ok {
			return temp, nil
		}
	}

	if s.runner == nil {
		return 0, ErrNoTemperature
	}

	if res, err := s.runner.Run(ctx, "sensors", "-A", "-u"); err == nil && res.Success() {
		if temp, ok := parseRawSensors(res.Stdout); ok {
			return temp, nil
		}
	}

	res, err := s.runner.Run(ctx, "sensors")
	if err != nil {
		return 0, errors.Join(ErrNoTemperature, err)
	}
	if res.Success() {
		if temp, ok := parseSensors(res.Stdout); ok {
			return temp, nil
		}
	}
	return 0, ErrNoTemperature
}

// pickCPUSensor prefers package/die sensors over individual cores.
func pickCPUSensor(stats []sensors.TemperatureStat) (float64, bool) {
	best, bestRank := 0.0, 0
	for _, st := range stats {
		rank := cpuSensorRank(strings.ToLower(st.SensorKey))
		if rank == 0 || !plausible(st.Temperature) {
			continue
		}
		if rank > bestRank {
			best, bestRank = st.Temperature, rank
		}
	}
	return best, bestRank > 0
}

func cpuSensorRank(key string) int {
	switch {
	case strings.Contains(key, "package"), strings.Contains(key, "tctl"), strings.Contains(key, "tdie"):
		return 3
	case strings.HasPrefix(key, "coretemp"), strings.HasPrefix(key, "k10temp"), strings.HasPrefix(key, "zenpower"):
		return 2
	case strings.Contains(key, "cpu"), strings.Contains(key, "core"):
		return 1
	}
	return 0
}

// parseRawSensors handles `sensors -A -u` output, where a feature label such
// as "Package id 0:" is followed by indented lines like "  temp1_input: 45.000".
func parseRawSensors(out []byte) (float64, bool) {
	label := ""
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		raw := sc.Text()
		line := strings.ToLower(raw)
		if raw != "" && raw[0] != ' ' && raw[0] != '\t' {
			label = line
		}
		if !strings.Contains(line, "temp") || !strings.Contains(line, "_input:") {
			continue
		}
		if !mentionsCPU(line) && !mentionsCPU(label) {
			continue
		}
		_, value, _ := strings.Cut(line, ":")
		temp, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			continue
		}
		if temp > 1000 {
			temp /= 1000
		}
		if plausible(temp) {
			return temp, true
		}
	}
	return 0, false
}

// parseSensors handles default `sensors` lines such as "Package id 0:  +52.0°C  (high = ...)".
func parseSensors(out []byte) (float64, bool) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "°C") || !mentionsCPU(strings.ToLower(line)) {
			continue
		}
		for _, field := range strings.Fields(line) {
			if !strings.Contains(field, "°C") {
				continue
			}
			field = strings.TrimPrefix(strings.TrimSuffix(field, "°C"), "+")
			temp, err := strconv.ParseFloat(field, 64)
			if err == nil && plausible(temp) {
				return temp, true
			}
			break
		}
	}
	return 0, false
}

func mentionsCPU(lower string) bool {
	for _, word := range []string{"core", "package", "cpu", "tctl"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func plausible(celsius float64) bool {
	return celsius > minPlausibleCelsius && celsius < maxPlausibleCelsius
}
