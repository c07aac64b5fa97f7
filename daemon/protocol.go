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

import "github.com/we-are-mono/razerd/types"

// Command names a request. Responses echo the command of their request.
type Command string

const (
	CmdSetPowerMode              Command = "SetPowerMode"
	CmdSetFanSpeed               Command = "SetFanSpeed"
	CmdSetLogoLedState           Command = "SetLogoLedState"
	CmdSetBrightness             Command = "SetBrightness"
	CmdSetIdle                   Command = "SetIdle"
	CmdSetSync                   Command = "SetSync"
	CmdGetBrightness             Command = "GetBrightness"
	CmdGetLogoLedState           Command = "GetLogoLedState"
	CmdGetSync                   Command = "GetSync"
	CmdGetFanSpeed               Command = "GetFanSpeed"
	CmdGetPwrLevel               Command = "GetPwrLevel"
	CmdGetCPUBoost               Command = "GetCPUBoost"
	CmdGetGPUBoost               Command = "GetGPUBoost"
	CmdGetDeviceName             Command = "GetDeviceName"
	CmdGetKeyboardRGB            Command = "GetKeyboardRGB"
	CmdSetEffect                 Command = "SetEffect"
	CmdSetStandardEffect         Command = "SetStandardEffect"
	CmdSetBatteryHealthOptimizer Command = "SetBatteryHealthOptimizer"
	CmdGetBatteryHealthOptimizer Command = "GetBatteryHealthOptimizer"
)

// Request is one client command. Only the fields of the command are set.
type Request struct {
	Command   Command      `json:"command"`
	AC        bool         `json:"ac,omitempty"`
	Pwr       uint8        `json:"pwr,omitempty"`
	CPU       uint8        `json:"cpu,omitempty"`
	GPU       uint8        `json:"gpu,omitempty"`
	RPM       int          `json:"rpm,omitempty"`
	LogoState uint8        `json:"logo_state,omitempty"`
	Val       uint8        `json:"val,omitempty"`
	Idle      uint32       `json:"idle,omitempty"`
	Sync      bool         `json:"sync,omitempty"`
	Layer     int          `json:"layer,omitempty"`
	Name      string       `json:"name,omitempty"`
	Params    types.Params `json:"params,omitempty"`
	IsOn      bool         `json:"is_on,omitempty"`
	Threshold uint8        `json:"threshold,omitempty"`
}

// Response answers a Request. Setters report Result; getters fill their value.
type Response struct {
	Command   Command         `json:"command"`
	Result    bool            `json:"result,omitempty"`
	Pwr       uint8           `json:"pwr,omitempty"`
	CPU       uint8           `json:"cpu,omitempty"`
	GPU       uint8           `json:"gpu,omitempty"`
	RPM       int             `json:"rpm,omitempty"`
	LogoState uint8           `json:"logo_state,omitempty"`
	Val       uint8           `json:"val,omitempty"`
	Sync      bool            `json:"sync,omitempty"`
	Name      string          `json:"name,omitempty"`
	Layer     int             `json:"layer,omitempty"`
	Map       *types.ColorMap `json:"map,omitempty"`
	IsOn      bool            `json:"is_on,omitempty"`
	Threshold uint8           `json:"threshold,omitempty"`
}
