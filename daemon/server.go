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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"
	"time"

	"github.com/we-are-mono/razerd/daemon/logger"
	"golang.org/x/sys/unix"
)

const (
	// requestBufferSize bounds a request; it is read with a single Read.
	requestBufferSize = 4096
	readTimeout       = 5 * time.Second
)

// handlerFunc handles one command. ok=false closes the connection without a reply.
type handlerFunc func(req Request) (resp Response, ok bool)

// Server is the IPC dispatcher. Connections are served one at a time, each
// to completion, so client commands never interleave.
type Server struct {
	listener net.Listener
	guard    *Guard
	handlers map[Command]handlerFunc
	done     chan struct{}
	stopOnce sync.Once
	log      logger.Logger
}

// Listen binds the Unix socket at path, replacing a stale one, and opens it to all users.
func Listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket: %w", err)
	}
	if err := os.Chmod(path, 0666); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}
	return listener, nil
}

// NewServer creates a server answering on listener with state from guard.
func NewServer(listener net.Listener, guard *Guard) *Server {
	s := &Server{
		listener: listener,
		guard:    guard,
		done:     make(chan struct{}),
		log:      logger.Component("ipc"),
	}
	s.handlers = s.commandTable()
	return s
}

// Serve accepts and handles connections until Stop is called.
func (s *Server) Serve() error {
	s.log.Info("Daemon listening", logger.Field{Key: "socket", Value: s.listener.Addr().String()})
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("Failed to accept connection", logger.Err(err))
			continue
		}
		s.handleConnection(conn)
	}
}

// Stop closes the listener; Serve returns after the current connection.
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		err = s.listener.Close()
	})
	return err
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	s.logPeer(conn)

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		s.log.Debug("Failed to set read deadline", logger.Err(err))
	}

	buf := make([]byte, requestBufferSize)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		s.log.Debug("Closing connection without request")
		return
	}

	var req Request
	if err := json.Unmarshal(buf[:n], &req); err != nil {
		s.log.Warn("Invalid request", logger.Err(err))
		return
	}

	resp, ok := s.handleRequest(req)
	if !ok {
		return
	}
	resp.Command = req.Command
	s.sendResponse(conn, resp)
}

func (s *Server) handleRequest(req Request) (Response, bool) {
	handler, exists := s.handlers[req.Command]
	if !exists {
		s.log.Warn("Unknown command", logger.Field{Key: "command", Value: string(req.Command)})
		return Response{}, false
	}
	s.log.Debug("Handling command", logger.Field{Key: "command", Value: string(req.Command)})
	return handler(req)
}

func (s *Server) sendResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("Failed to marshal response", logger.Err(err))
		return
	}

	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.log.Error("Failed to write response", logger.Err(err))
	}
}

// logPeer records the uid and pid of the connecting process.
func (s *Server) logPeer(conn net.Conn) {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return
	}
	var cred *unix.Ucred
	var credErr error
	if err := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil || credErr != nil {
		return
	}
	s.log.Debug("Client connected",
		logger.Field{Key: "pid", Value: cred.Pid},
		logger.Field{Key: "uid", Value: cred.Uid})
}
