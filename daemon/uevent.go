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
	"fmt"
	"regexp"

	"github.com/pilebones/go-udev/netlink"
	"github.com/we-are-mono/razerd/daemon/logger"
	"github.com/we-are-mono/razerd/system"
)

// UEventACMonitor follows the AC adapter through power_supply uevents, for
// systems without UPower.
type UEventACMonitor struct {
	guard  *Guard
	power  *system.PowerHandler
	supply string
	log    logger.Logger
}

// NewUEventACMonitor watches the power supply named acDevice, given either as
// a sysfs name (AC0) or a UPower name (line_power_AC0).
func NewUEventACMonitor(guard *Guard, power *system.PowerHandler, acDevice string) *UEventACMonitor {
	return &UEventACMonitor{
		guard:  guard,
		power:  power,
		supply: system.SysfsName(acDevice),
		log:    logger.Component("uevent-monitor"),
	}
}

// Run listens for uevents until ctx is done.
func (m *UEventACMonitor) Run(ctx context.Context) error {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("connect to netlink: %w", err)
	}
	defer conn.Close()

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, m.matcher())
	m.log.Info("Monitoring power supply uevents", logger.Field{Key: "supply", Value: m.supply})

	for {
		select {
		case <-ctx.Done():
			close(quit)
			return nil
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.log.Warn("Uevent monitor error", logger.Err(err))
		}
	}
}

// matcher selects change events of the AC power supply.
func (m *UEventACMonitor) matcher() netlink.Matcher {
	action := "change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":         "power_supply",
			"POWER_SUPPLY_NAME": "^" + regexp.QuoteMeta(m.supply) + "$",
		},
	})
	return rules
}

func (m *UEventACMonitor) handleEvent(uevent netlink.UEvent) {
	online, ok := uevent.Env["POWER_SUPPLY_ONLINE"]
	if !ok {
		return
	}
	plugged := online == "1"
	m.log.Debug("Power supply changed",
		logger.Field{Key: "supply", Value: uevent.Env["POWER_SUPPLY_NAME"]},
		logger.Field{Key: "online", Value: plugged})
	setACState(m.guard, m.power, m.log, plugged)
}
