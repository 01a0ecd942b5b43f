// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/backscroll/app"
	"github.com/bureau-foundation/backscroll/lib/config"
	"github.com/bureau-foundation/backscroll/lib/process"
	"github.com/bureau-foundation/backscroll/lib/version"
	"github.com/bureau-foundation/backscroll/server"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var credentialFile string
	var debug bool
	var showVersion bool

	flags := pflag.NewFlagSet("backscroll-service", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to config file (default $"+config.EnvVar+")")
	flags.StringVar(&credentialFile, "credential-file", "", "path to credentials file (key=value format)")
	flags.BoolVar(&debug, "debug", false, "log at debug level")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVersion {
		fmt.Printf("backscroll-service %s\n", version.Info())
		return nil
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger.Info("starting backscroll-service",
		"version", version.Info(),
		"environment", cfg.Environment,
	)
	logger.Info("loaded configuration",
		"homeserver", cfg.Matrix.HomeserverURL,
		"user_id", cfg.Matrix.UserID,
		"channels", len(cfg.Matrix.Channels),
		"history_limit", cfg.Matrix.HistoryLimit,
		"state", cfg.Paths.State,
		"key_source", cfg.Vault.KeySource,
		"compression", cfg.Vault.Compression,
	)
	if credentialFile != "" {
		logger.Info("using credential file", "path", credentialFile)
	}

	application, err := app.Open(app.Options{
		Config:         cfg,
		CredentialFile: credentialFile,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer application.Close()

	// An unreachable homeserver is not fatal: the network may come up
	// before the first request, and each request reports its own error.
	checkCtx, cancelCheck := context.WithTimeout(context.Background(), app.DefaultRequestTimeout)
	if err := application.CheckHomeserver(checkCtx); err != nil {
		logger.Warn("homeserver not reachable at startup", "homeserver", cfg.Matrix.HomeserverURL, "error", err)
	}
	cancelCheck()

	// The socket path wins when both are configured.
	serverConfig := server.Config{
		Fetcher: application.Pipeline,
		Logger:  logger.With("component", "server"),
	}
	if cfg.Server.SocketPath != "" {
		serverConfig.SocketPath = cfg.Server.SocketPath
	} else {
		serverConfig.ListenAddress = cfg.Server.ListenAddress
	}
	httpServer, err := server.New(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
