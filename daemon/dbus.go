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
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	propsIface  = "org.freedesktop.DBus.Properties"
	propsSignal = propsIface + ".PropertiesChanged"

	mutterIdleDest  = "org.gnome.Mutter.IdleMonitor"
	mutterIdlePath  = dbus.ObjectPath("/org/gnome/Mutter/IdleMonitor/Core")
	mutterIdleIface = "org.gnome.Mutter.IdleMonitor"

	displayConfigPath  = dbus.ObjectPath("/org/gnome/Mutter/DisplayConfig")
	displayConfigIface = "org.gnome.Mutter.DisplayConfig"

	screenSaverIface = "org.freedesktop.ScreenSaver"

	login1Path  = dbus.ObjectPath("/org/freedesktop/login1")
	login1Iface = "org.freedesktop.login1.Manager"

	upowerDest        = "org.freedesktop.UPower"
	upowerDevicesPath = "/org/freedesktop/UPower/devices/"
	upowerDeviceIface = "org.freedesktop.UPower.Device"
)

// BusConn is the part of a bus connection the routers use.
type BusConn interface {
	AddMatch(rule string) error
	Signal(ch chan<- *dbus.Signal)
	Call(dest string, path dbus.ObjectPath, method string, args ...interface{}) *dbus.Call
	Close() error
}

// Dialer opens a bus connection.
type Dialer func() (BusConn, error)

type dbusConn struct {
	*dbus.Conn
}

func (c dbusConn) AddMatch(rule string) error {
	return c.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err
}

func (c dbusConn) Call(dest string, path dbus.ObjectPath, method string, args ...interface{}) *dbus.Call {
	return c.Object(dest, path).Call(method, 0, args...)
}

// SessionBus dials a private session bus connection.
func SessionBus() (BusConn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}
	return dbusConn{conn}, nil
}

// SystemBus dials a private system bus connection.
func SystemBus() (BusConn, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", err)
	}
	return dbusConn{conn}, nil
}

// signalRule builds an AddMatch rule for a signal.
func signalRule(iface, member string, path dbus.ObjectPath, arg0 string) string {
	rule := "type='signal',interface='" + iface + "',member='" + member + "'"
	if path != "" {
		rule += ",path='" + string(path) + "'"
	}
	if arg0 != "" {
		rule += ",arg0='" + arg0 + "'"
	}
	return rule
}

// changedProperty extracts one property from a PropertiesChanged signal of iface.
func changedProperty(sig *dbus.Signal, iface, prop string) (interface{}, bool) {
	// Body: [interface_name string, changed_props map[string]Variant, invalidated []string]
	if sig.Name != propsSignal || len(sig.Body) < 2 {
		return nil, false
	}
	if name, ok := sig.Body[0].(string); !ok || name != iface {
		return nil, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, false
	}
	v, ok := changed[prop]
	if !ok {
		return nil, false
	}
	return v.Value(), true
}

// mutterIdleMonitor registers watches with GNOME's idle monitor.
type mutterIdleMonitor struct {
	conn BusConn
}

func (m mutterIdleMonitor) AddIdleWatch(intervalMS uint64) (uint32, error) {
	var id uint32
	err := m.conn.Call(mutterIdleDest, mutterIdlePath, mutterIdleIface+".AddIdleWatch", intervalMS).Store(&id)
	return id, err
}

func (m mutterIdleMonitor) AddUserActiveWatch() (uint32, error) {
	var id uint32
	err := m.conn.Call(mutterIdleDest, mutterIdlePath, mutterIdleIface+".AddUserActiveWatch").Store(&id)
	return id, err
}

func (m mutterIdleMonitor) RemoveWatch(id uint32) error {
	return m.conn.Call(mutterIdleDest, mutterIdlePath, mutterIdleIface+".RemoveWatch", id).Err
}

// UPowerDevicePath returns the object path of a UPower device such as line_power_AC0.
func UPowerDevicePath(name string) dbus.ObjectPath {
	return dbus.ObjectPath(upowerDevicesPath + name)
}

// UPowerOnline reads the Online property of a UPower line-power device.
func UPowerOnline(conn BusConn, name string) (bool, error) {
	var v dbus.Variant
	if err := conn.Call(upowerDest, UPowerDevicePath(name), propsIface+".Get", upowerDeviceIface, "Online").Store(&v); err != nil {
		return false, fmt.Errorf("read %s Online: %w", name, err)
	}
	online, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("read %s Online: unexpected type %s", name, v.Signature())
	}
	return online, nil
}
