// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"
)

// Server serves a Handler on a Unix socket and/or a TCP address.
type Server struct {
	socketPath    string
	listenAddress string
	handler       http.Handler
	servers       []*http.Server
	listeners     []net.Listener
	logger        *slog.Logger
}

// Config holds configuration for creating a new Server.
type Config struct {
	// SocketPath is an optional Unix socket path.
	SocketPath string

	// ListenAddress is an optional TCP address (e.g., "127.0.0.1:8080").
	ListenAddress string

	Fetcher Fetcher
	Logger  *slog.Logger
}

// New creates a Server. At least one of SocketPath and ListenAddress
// must be set.
func New(config Config) (*Server, error) {
	if config.SocketPath == "" && config.ListenAddress == "" {
		return nil, errors.New("server: a socket path or listen address is required")
	}
	if config.Fetcher == nil {
		return nil, errors.New("server: fetcher is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath:    config.SocketPath,
		listenAddress: config.ListenAddress,
		handler:       NewHandler(config.Fetcher, logger).Routes(),
		logger:        logger,
	}, nil
}

// Start begins listening. It returns once every listener is bound.
func (s *Server) Start() error {
	if s.socketPath != "" {
		if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing socket: %w", err)
		}
		listener, err := net.Listen("unix", s.socketPath)
		if err != nil {
			return fmt.Errorf("failed to listen on socket: %w", err)
		}
		if err := os.Chmod(s.socketPath, 0660); err != nil {
			listener.Close()
			return fmt.Errorf("failed to chmod socket: %w", err)
		}
		s.serve(listener)
		s.logger.Info("server started", "socket", s.socketPath)
	}

	if s.listenAddress != "" {
		listener, err := net.Listen("tcp", s.listenAddress)
		if err != nil {
			s.closeListeners()
			return fmt.Errorf("failed to listen on TCP %s: %w", s.listenAddress, err)
		}
		s.serve(listener)
		s.logger.Info("server started", "address", listener.Addr().String())
	}

	notifySystemd("READY=1")
	return nil
}

// serve runs a dedicated http.Server on listener, since Serve takes
// ownership of the listener.
func (s *Server) serve(listener net.Listener) {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		// A fetch walks every channel sequentially.
		WriteTimeout: 5 * time.Minute,
	}
	s.servers = append(s.servers, httpServer)
	s.listeners = append(s.listeners, listener)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "network", listener.Addr().Network(), "error", err)
		}
	}()
}

func (s *Server) closeListeners() {
	for _, listener := range s.listeners {
		listener.Close()
	}
}

// Addresses returns the bound listener addresses. A TCP listen address
// with port 0 reports the port actually chosen.
func (s *Server) Addresses() []net.Addr {
	addresses := make([]net.Addr, 0, len(s.listeners))
	for _, listener := range s.listeners {
		addresses = append(addresses, listener.Addr())
	}
	return addresses
}

// notifySystemd sends a notification to systemd's sd_notify socket.
// Does nothing if NOTIFY_SOCKET is not set.
func notifySystemd(state string) {
	socketPath := os.Getenv("NOTIFY_SOCKET")
	if socketPath == "" {
		return
	}

	conn, err := net.Dial("unixgram", socketPath)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.Write([]byte(state))
}

// Shutdown gracefully stops every listener, waiting for in-flight
// fetches until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	notifySystemd("STOPPING=1")
	var errs []error
	for _, httpServer := range s.servers {
		if err := httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.socketPath != "" {
		os.Remove(s.socketPath)
	}
	return errors.Join(errs...)
}
