// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/HopRoute/pkg/logging"
	"github.com/AleutianAI/HopRoute/services/hoproute"
	"github.com/AleutianAI/HopRoute/services/hoproute/config"
	"github.com/AleutianAI/HopRoute/services/hoproute/telemetry"
	"github.com/AleutianAI/HopRoute/services/hoproute/topology"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	port     int
	topology string
	watch    bool
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	sopts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HopRoute HTTP API",
		Long: `Starts the session API. When a topology file is configured it seeds
the pinned "default" session, and with --watch the session reloads
whenever the file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = sopts.port
			}
			if sopts.topology != "" {
				cfg.Topology.Path = sopts.topology
			}
			if cmd.Flags().Changed("watch") {
				cfg.Topology.Watch = sopts.watch
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&sopts.port, "port", 8090, "Port to listen on (overrides the config file)")
	cmd.Flags().StringVar(&sopts.topology, "topology", "", "Topology file that seeds the default session")
	cmd.Flags().BoolVar(&sopts.watch, "watch", false, "Reload the default session when the topology file changes")
	return cmd
}

// runServe runs the server until ctx is cancelled or a component fails.
//
// Description:
//
//	Wires logging, telemetry, the session service, the optional topology
//	watcher, and the HTTP server, then runs them in one errgroup so the
//	first failure or a signal stops everything.
func runServe(ctx context.Context, cfg config.Config) error {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "hoproute",
		JSON:    cfg.Logging.JSON,
	})
	defer logger.Close()

	cfg.Telemetry.ServiceVersion = version
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := hoproute.NewService(hoproute.ServiceConfig{
		MaxSessions:      cfg.Service.MaxSessions,
		SessionTTL:       cfg.Service.SessionTTL,
		MaxNodesPerGraph: cfg.Service.MaxNodesPerGraph,
	}, hoproute.WithLogger(logger.Slog()))

	svc.EnsureDefaultSession()
	if cfg.Topology.Path != "" {
		doc, err := topology.Load(cfg.Topology.Path)
		if err != nil {
			return err
		}
		svc.ReloadDefault(ctx, doc)
	}

	metricsHandler := telemetry.MetricsHandler()
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	engine := hoproute.NewEngine(hoproute.NewHandlers(svc, logger.Slog()), hoproute.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Debug:          cfg.Server.Debug,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		MetricsHandler: metricsHandler,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Topology.Watch {
		watcher, err := topology.NewWatcher(cfg.Topology.Path, svc.ReloadDefault, &topology.WatcherOptions{
			DebounceWindow: cfg.Topology.Debounce,
			Logger:         logger.Slog(),
		})
		if err != nil {
			return err
		}
		if err := watcher.Start(gctx); err != nil {
			return err
		}
		logger.Info("Watching topology", "path", cfg.Topology.Path)
		g.Go(func() error {
			<-gctx.Done()
			watcher.Stop()
			return nil
		})
	}

	g.Go(func() error {
		return svc.Run(gctx)
	})

	g.Go(func() error {
		listener, err := net.Listen("tcp", server.Addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", server.Addr, err)
		}
		logger.Info("Starting HopRoute server", "address", listener.Addr().String(), "version", version)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HopRoute server")
		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
