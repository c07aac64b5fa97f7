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

package device

import (
	"errors"
	"fmt"
)

// ReportLen is the size of a Razer feature report, without the HID report id.
const ReportLen = 90

// argsLen is the argument area of a report.
const argsLen = 80

// Laptop feature reports use this transaction id.
const transactionID = 0x1F

// Report status codes.
const (
	StatusNew          = 0x00
	StatusBusy         = 0x01
	StatusSuccess      = 0x02
	StatusFailure      = 0x03
	StatusTimeout      = 0x04
	StatusNotSupported = 0x05
)

var (
	// ErrNotSupported is returned when the device rejects a command class.
	ErrNotSupported = errors.New("command not supported by device")
	// ErrBadResponse is returned for a response that does not match its request.
	ErrBadResponse = errors.New("bad response from device")
)

// Report is one Razer control report.
type Report struct {
	Status        uint8
	TransactionID uint8
	Remaining     uint16
	Protocol      uint8
	DataSize      uint8
	Class         uint8
	ID            uint8
	Args          [argsLen]byte
}

// NewReport builds a request report for a command.
func NewReport(class, id uint8, args ...byte) *Report {
	r := &Report{
		TransactionID: transactionID,
		DataSize:      uint8(len(args)),
		Class:         class,
		ID:            id,
	}
	copy(r.Args[:], args)
	return r
}

// Marshal encodes the report including its checksum.
func (r *Report) Marshal() [ReportLen]byte {
	var b [ReportLen]byte
	b[0] = r.Status
	b[1] = r.TransactionID
	b[2] = byte(r.Remaining >> 8)
	b[3] = byte(r.Remaining)
	b[4] = r.Protocol
	b[5] = r.DataSize
	b[6] = r.Class
	b[7] = r.ID
	copy(b[8:8+argsLen], r.Args[:])
	b[88] = checksum(b[:])
	return b
}

// UnmarshalReport decodes and verifies a report.
func UnmarshalReport(b []byte) (*Report, error) {
	if len(b) < ReportLen {
		return nil, fmt.Errorf("%w: short report of %d bytes", ErrBadResponse, len(b))
	}
	if got, want := b[88], checksum(b); got != want {
		return nil, fmt.Errorf("%w: checksum %#02x, want %#02x", ErrBadResponse, got, want)
	}
	r := &Report{
		Status:        b[0],
		TransactionID: b[1],
		Remaining:     uint16(b[2])<<8 | uint16(b[3]),
		Protocol:      b[4],
		DataSize:      b[5],
		Class:         b[6],
		ID:            b[7],
	}
	copy(r.Args[:], b[8:8+argsLen])
	return r, nil
}

// checksum XORs bytes 2 through 87.
func checksum(b []byte) byte {
	var crc byte
	for i := 2; i < 88; i++ {
		crc ^= b[i]
	}
	return crc
}

// checkResponse matches a response to its request and maps the status byte.
func checkResponse(req, resp *Report) error {
	if resp.Class != req.Class || resp.ID != req.ID {
		return fmt.Errorf("%w: got command %#02x/%#02x for %#02x/%#02x",
			ErrBadResponse, resp.Class, resp.ID, req.Class, req.ID)
	}
	switch resp.Status {
	case StatusSuccess:
		return nil
	case StatusNotSupported:
		return fmt.Errorf("%w: %#02x/%#02x", ErrNotSupported, req.Class, req.ID)
	case StatusBusy:
		return errBusy
	default:
		return fmt.Errorf("command %#02x/%#02x failed with status %#02x", req.Class, req.ID, resp.Status)
	}
}

var errBusy = errors.New("device busy")

// Command classes and ids.
const (
	classMatrix     = 0x03
	classBattery    = 0x07
	classPower      = 0x0D
	classBrightness = 0x0E

	cmdLogoState      = 0x00
	cmdLogoEffect     = 0x02
	cmdMatrixEffect   = 0x0A
	cmdMatrixFrame    = 0x0B
	cmdSetBHO         = 0x12
	cmdGetBHO         = 0x92
	cmdFanRPM         = 0x01
	cmdPowerMode      = 0x02
	cmdBoost          = 0x07
	cmdSetBrightness  = 0x04
	ledStorageVarying = 0x01
	ledLogo           = 0x04
)
