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
	"fmt"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/we-are-mono/razerd/daemon/logger"
)

// RouterState is the phase of a Router task.
type RouterState int32

const (
	RouterConnecting RouterState = iota
	RouterSubscribed
	RouterProcessing
	RouterStopped
)

func (s RouterState) String() string {
	switch s {
	case RouterConnecting:
		return "connecting"
	case RouterSubscribed:
		return "subscribed"
	case RouterProcessing:
		return "processing"
	default:
		return "stopped"
	}
}

// Router defaults.
const (
	DefaultConnectAttempts = 3
	DefaultRetryDelay      = time.Second
	DefaultPollInterval    = time.Second
)

// SignalHandler reacts to the signals a Router receives.
type SignalHandler interface {
	// MatchRules lists the AddMatch rules to subscribe.
	MatchRules() []string
	// Connected is called once the connection is up, before subscribing.
	Connected(conn BusConn)
	// HandleSignal processes one signal.
	HandleSignal(sig *dbus.Signal)
	// AfterPoll runs after every poll; received reports whether it delivered a signal.
	AfterPoll(received bool)
}

// Router subscribes to bus signals and feeds them to a handler. A connection
// failure is retried a few times at start and then ends this task only.
type Router struct {
	name    string
	dial    Dialer
	handler SignalHandler
	state   atomic.Int32

	ConnectAttempts int
	RetryDelay      time.Duration
	PollInterval    time.Duration

	log logger.Logger
}

// NewRouter creates a router named name.
func NewRouter(name string, dial Dialer, handler SignalHandler) *Router {
	return &Router{
		name:            name,
		dial:            dial,
		handler:         handler,
		ConnectAttempts: DefaultConnectAttempts,
		RetryDelay:      DefaultRetryDelay,
		PollInterval:    DefaultPollInterval,
		log:             logger.Component(name),
	}
}

// State returns the router's current phase.
func (r *Router) State() RouterState {
	return RouterState(r.state.Load())
}

func (r *Router) setState(s RouterState) {
	r.state.Store(int32(s))
	r.log.Debug("Router state", logger.Field{Key: "state", Value: s.String()})
}

// Run connects, subscribes and processes signals until ctx is done or the
// connection is lost.
func (r *Router) Run(ctx context.Context) error {
	defer r.setState(RouterStopped)

	r.setState(RouterConnecting)
	conn, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	r.handler.Connected(conn)

	for _, rule := range r.handler.MatchRules() {
		if err := conn.AddMatch(rule); err != nil {
			return fmt.Errorf("%s: subscribe %q: %w", r.name, rule, err)
		}
	}
	ch := make(chan *dbus.Signal, 16)
	conn.Signal(ch)
	r.setState(RouterSubscribed)
	r.log.Info("Subscribed to bus signals", logger.Field{Key: "rules", Value: len(r.handler.MatchRules())})

	r.setState(RouterProcessing)
	for {
		received := false
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return fmt.Errorf("%s: bus connection closed", r.name)
			}
			received = true
			r.handler.HandleSignal(sig)
		case <-time.After(r.PollInterval):
		}
		r.handler.AfterPoll(received)
	}
}

func (r *Router) connect(ctx context.Context) (BusConn, error) {
	var lastErr error
	for attempt := 1; attempt <= r.ConnectAttempts; attempt++ {
		conn, err := r.dial()
		if err == nil {
			return conn, nil
		}
		lastErr = err
		r.log.Warn("Bus connection failed",
			logger.Field{Key: "attempt", Value: attempt},
			logger.Err(err))
		if attempt == r.ConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.RetryDelay):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no connection attempts")
	}
	return nil, fmt.Errorf("%s: connect after %d attempts: %w", r.name, r.ConnectAttempts, lastErr)
}
