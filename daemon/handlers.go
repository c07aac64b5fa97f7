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
	"github.com/we-are-mono/razerd/daemon/logger"
	"github.com/we-are-mono/razerd/device"
	"github.com/we-are-mono/razerd/effects"
	"github.com/we-are-mono/razerd/types"
)

func (s *Server) commandTable() map[Command]handlerFunc {
	return map[Command]handlerFunc{
		CmdSetPowerMode: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Result: dev.SetPowerMode(req.AC, req.Pwr, req.CPU, req.GPU)}
		}),
		CmdSetFanSpeed: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Result: dev.SetFanRPM(req.AC, req.RPM)}
		}),
		CmdSetLogoLedState: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Result: dev.SetLogoLEDState(req.AC, req.LogoState)}
		}),
		CmdSetBrightness: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Result: dev.SetBrightness(req.AC, req.Val)}
		}),
		CmdSetIdle: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Result: dev.SetIdle(req.AC, req.Idle)}
		}),
		CmdSetSync: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Result: dev.SetSync(req.Sync)}
		}),
		CmdGetBrightness: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Val: dev.GetBrightness(req.AC)}
		}),
		CmdGetLogoLedState: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{LogoState: dev.GetLogoLEDState(req.AC)}
		}),
		CmdGetSync: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Sync: dev.GetSync()}
		}),
		CmdGetFanSpeed: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{RPM: dev.GetFanRPM(req.AC)}
		}),
		CmdGetPwrLevel: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Pwr: dev.GetPowerMode(req.AC)}
		}),
		CmdGetCPUBoost: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{CPU: dev.GetCPUBoost(req.AC)}
		}),
		CmdGetGPUBoost: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{GPU: dev.GetGPUBoost(req.AC)}
		}),
		CmdGetDeviceName: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Name: dev.Name()}
		}),
		CmdSetBatteryHealthOptimizer: s.deviceCmd(func(dev DeviceController, req Request) Response {
			return Response{Result: dev.SetBHO(req.IsOn, req.Threshold)}
		}),
		CmdGetBatteryHealthOptimizer: s.handleGetBHO,
		CmdGetKeyboardRGB:            s.handleGetKeyboardRGB,
		CmdSetEffect:                 s.handleSetEffect,
		CmdSetStandardEffect:         s.handleSetStandardEffect,
	}
}

// deviceCmd wraps a handler that only needs the device lock.
func (s *Server) deviceCmd(fn func(dev DeviceController, req Request) Response) handlerFunc {
	return func(req Request) (Response, bool) {
		var resp Response
		if err := s.guard.WithDevice(func(dev DeviceController) { resp = fn(dev, req) }); err != nil {
			s.lockFailed(req, err)
			return Response{}, false
		}
		return resp, true
	}
}

func (s *Server) lockFailed(req Request, err error) {
	s.log.Error("Command skipped",
		logger.Field{Key: "command", Value: string(req.Command)},
		logger.Err(err))
}

// handleGetBHO has no reply when the laptop does not report the optimizer.
func (s *Server) handleGetBHO(req Request) (Response, bool) {
	var (
		on, ok    bool
		threshold uint8
	)
	if err := s.guard.WithDevice(func(dev DeviceController) { on, threshold, ok = dev.GetBHO() }); err != nil {
		s.lockFailed(req, err)
		return Response{}, false
	}
	if !ok {
		return Response{}, false
	}
	return Response{IsOn: on, Threshold: threshold}, true
}

// handleGetKeyboardRGB returns a layer's current frame, or the composed
// frame for a negative layer.
func (s *Server) handleGetKeyboardRGB(req Request) (Response, bool) {
	var colors types.ColorMap
	if err := s.guard.WithEffects(func(fx EffectCompositor) { colors = fx.GetMap(req.Layer) }); err != nil {
		s.lockFailed(req, err)
		return Response{}, false
	}
	return Response{Layer: req.Layer, Map: &colors}, true
}

// handleSetEffect replaces the client layer with a software effect. An
// unknown effect leaves the stack untouched.
func (s *Server) handleSetEffect(req Request) (Response, bool) {
	effect, err := effects.New(req.Name, req.Params)
	if err != nil {
		s.log.Warn("Rejected effect",
			logger.Field{Key: "name", Value: req.Name},
			logger.Err(err))
		return Response{Result: false}, true
	}

	var result bool
	err = s.guard.WithBoth(func(dev DeviceController, fx EffectCompositor) {
		if !dev.HasDevice() {
			return
		}
		if err := fx.PopEffect(dev); err != nil {
			s.log.Warn("Failed to render after pop", logger.Err(err))
		}
		fx.PushEffect(effect, types.FullMask())
		if err := fx.Update(dev); err != nil {
			s.log.Warn("Failed to render effect", logger.Err(err))
		}
		result = true
	})
	if err != nil {
		s.lockFailed(req, err)
		return Response{}, false
	}
	return Response{Result: result}, true
}

// handleSetStandardEffect drops the client layer and hands the keyboard to a
// firmware effect.
func (s *Server) handleSetStandardEffect(req Request) (Response, bool) {
	effect, ok := device.ParseStandardEffect(req.Name)
	if !ok {
		s.log.Warn("Rejected standard effect", logger.Field{Key: "name", Value: req.Name})
		return Response{Result: false}, true
	}

	var result bool
	err := s.guard.WithBoth(func(dev DeviceController, fx EffectCompositor) {
		if !dev.HasDevice() {
			return
		}
		if err := fx.PopEffect(dev); err != nil {
			s.log.Warn("Failed to render after pop", logger.Err(err))
		}
		result = dev.SetStandardEffect(effect, req.Params)
	})
	if err != nil {
		s.lockFailed(req, err)
		return Response{}, false
	}
	return Response{Result: result}, true
}
