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
	"fmt"

	"github.com/AleutianAI/HopRoute/pkg/logging"
	"github.com/AleutianAI/HopRoute/pkg/ux"
	"github.com/AleutianAI/HopRoute/services/hoproute/config"
	"github.com/AleutianAI/HopRoute/services/hoproute/graph"
	"github.com/AleutianAI/HopRoute/services/hoproute/topology"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	output     string
}

// newRootCmd builds the command tree. Each call returns an independent
// tree so tests can run commands without shared flag state.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "hoproute",
		Short: "Find shortest hop paths in undirected graphs",
		Long: `HopRoute edits undirected, unweighted graphs and finds shortest
paths between nodes with breadth-first search, recording every step.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to hoproute.yaml (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn",
		"Log level for CLI commands: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.output, "output", "auto",
		"Output style: auto, rich, plain")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newPathCmd(opts),
		newRenderCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// --- Version ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the HopRoute version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hoproute %s\n", version)
		},
	}
}

// --- Config ---

func newConfigCmd(opts *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the HopRoute configuration file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration (existing files are kept)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = "hoproute.yaml"
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			ux.NewPrinter(cmd.OutOrStdout(), ux.ParseMode(opts.output)).Success("configuration at " + path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			p := ux.NewPrinter(cmd.OutOrStdout(), ux.ParseMode(opts.output))
			p.Success("configuration is valid")
			p.KeyValue("port", fmt.Sprint(cfg.Server.Port))
			p.KeyValue("max sessions", fmt.Sprint(cfg.Service.MaxSessions))
			if cfg.Topology.Path != "" {
				p.KeyValue("topology", cfg.Topology.Path)
			}
			return nil
		},
	})

	return configCmd
}

// --- Shared helpers ---

// newCLILogger builds the stderr logger for one-shot commands.
func newCLILogger(cmd *cobra.Command, opts *globalOptions) (*logging.Logger, error) {
	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:   level,
		Service: "hoproute",
		Output:  cmd.ErrOrStderr(),
	}), nil
}

// loadGraph reads a topology file and builds a graph from it. Entries the
// graph rejects are reported as warnings on p.
func loadGraph(path string, logger *logging.Logger, p *ux.Printer) (*graph.Graph, *topology.Document, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("a topology file is required (-f)")
	}

	doc, err := topology.Load(path)
	if err != nil {
		return nil, nil, err
	}

	g, report := topology.Build(doc, graph.WithLogger(logger.Slog()))
	for _, skipped := range report.Skipped {
		p.Warning(fmt.Sprintf("skipped %s %s: %s", skipped.Op, skipped.Target, skipped.Result))
	}
	logger.Debug("topology loaded",
		"path", path,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"skipped", len(report.Skipped))

	return g, doc, nil
}
