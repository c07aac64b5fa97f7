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
	"fmt"

	"github.com/we-are-mono/razerd/daemon/logger"
)

// IdleMonitor registers idle and user-active watches with the desktop.
type IdleMonitor interface {
	// AddIdleWatch fires each time the session has been idle for intervalMS.
	AddIdleWatch(intervalMS uint64) (uint32, error)
	// AddUserActiveWatch fires once, on the next user activity.
	AddUserActiveWatch() (uint32, error)
	RemoveWatch(id uint32) error
}

// WatchKind classifies a fired watch.
type WatchKind int

const (
	WatchUnknown WatchKind = iota
	WatchIdle
	WatchActive
)

func (k WatchKind) String() string {
	switch k {
	case WatchIdle:
		return "idle"
	case WatchActive:
		return "active"
	default:
		return "unknown"
	}
}

// AddIdleWatch arms the idle watch for the current profile's timeout. It is a
// no-op while an up-to-date watch is registered; after an idle timeout or AC
// change the old watch is replaced.
func (m *Manager) AddIdleWatch(mon IdleMonitor) error {
	if m.idleWatchID != 0 && !m.idleStale {
		return nil
	}
	if m.idleWatchID != 0 {
		if err := mon.RemoveWatch(m.idleWatchID); err != nil {
			m.log.Debug("Failed to remove idle watch",
				logger.Field{Key: "id", Value: m.idleWatchID},
				logger.Err(err))
		}
		m.idleWatchID = 0
	}
	m.idleStale = false

	seconds := m.profile(m.ac).IdleSeconds
	if seconds == 0 {
		return nil
	}
	id, err := mon.AddIdleWatch(uint64(seconds) * 1000)
	if err != nil {
		return fmt.Errorf("add idle watch: %w", err)
	}
	m.idleWatchID = id
	m.log.Debug("Idle watch armed",
		logger.Field{Key: "id", Value: id},
		logger.Field{Key: "seconds", Value: seconds})
	return nil
}

// AddActiveWatch arms the one-shot user-active watch unless one is pending.
func (m *Manager) AddActiveWatch(mon IdleMonitor) error {
	if m.activeWatchID != 0 {
		return nil
	}
	id, err := mon.AddUserActiveWatch()
	if err != nil {
		return fmt.Errorf("add user active watch: %w", err)
	}
	m.activeWatchID = id
	return nil
}

// ConsumeWatch classifies a fired watch id. The active watch is one-shot, so
// its id is forgotten and the next AddActiveWatch registers a new one.
func (m *Manager) ConsumeWatch(id uint32) WatchKind {
	switch {
	case id == 0:
		return WatchUnknown
	case id == m.idleWatchID:
		return WatchIdle
	case id == m.activeWatchID:
		m.activeWatchID = 0
		return WatchActive
	}
	return WatchUnknown
}

// WatchIDs returns the registered idle and active watch ids, 0 when unset.
func (m *Manager) WatchIDs() (idle, active uint32) {
	return m.idleWatchID, m.activeWatchID
}
