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

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequired(t *testing.T) {
	assert.NoError(t, Required("ac_device", "line_power_AC0"))
	assert.EqualError(t, Required("ac_device", "   "), "ac_device must be set")
}

func TestOneOf(t *testing.T) {
	assert.NoError(t, OneOf("log_format", "text", "json", "text"))
	assert.EqualError(t, OneOf("log_format", "xml", "json", "text"),
		`log_format "xml" is not one of json, text`)
}

func TestIntegerBounds(t *testing.T) {
	assert.NoError(t, Positive("interval_seconds", 1))
	assert.Error(t, Positive("interval_seconds", 0))
	assert.NoError(t, NonNegative("handler_delay_seconds", 0))
	assert.Error(t, NonNegative("handler_delay_seconds", -1))
}

func TestProductID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{in: "0x028a", want: 0x028a},
		{in: "0X0270", want: 0x0270},
		{in: "253", want: 0x0253},
		{in: "", wantErr: true},
		{in: "0x", wantErr: true},
		{in: "zz", wantErr: true},
		{in: "0x10000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ProductID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFanRange(t *testing.T) {
	tests := []struct {
		name    string
		lo, hi  int
		wantErr string
	}{
		{name: "typical", lo: 2000, hi: 5500},
		{name: "no manual control", lo: 0, hi: 0},
		{name: "inverted", lo: 5000, hi: 2000, wantErr: "inverted"},
		{name: "above ceiling", lo: 2000, hi: 6000, wantErr: "exceeds"},
		{name: "negative", lo: -1, hi: 3000, wantErr: "positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FanRange(tt.lo, tt.hi, 5500)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
