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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/HopRoute/pkg/ux"
	"github.com/AleutianAI/HopRoute/services/hoproute/graph"
	"github.com/AleutianAI/HopRoute/services/hoproute/routing"
	"github.com/AleutianAI/HopRoute/services/hoproute/topology"
	"github.com/spf13/cobra"
)

type renderOptions struct {
	file   string
	format string
	path   string
}

func newRenderCmd(opts *globalOptions) *cobra.Command {
	ropts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a topology as DOT, text, JSON, YAML, or HCL",
		Long: `Loads a topology file and writes it in another form. With --path A,C
the DOT output highlights a shortest path from A to C.`,
		Example: `  hoproute render -f topology.yaml --format dot --path A,C | dot -Tpng > g.png
  hoproute render -f topology.yaml --format hcl > topology.hcl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, ropts)
		},
	}

	cmd.Flags().StringVarP(&ropts.file, "file", "f", "", "Topology file (.yaml, .yml, .json, .hcl)")
	cmd.Flags().StringVar(&ropts.format, "format", "text", "Output format: text, dot, json, yaml, hcl")
	cmd.Flags().StringVar(&ropts.path, "path", "", "SOURCE,DESTINATION to highlight in DOT output")
	return cmd
}

func runRender(cmd *cobra.Command, opts *globalOptions, ropts *renderOptions) error {
	logger, err := newCLILogger(cmd, opts)
	if err != nil {
		return err
	}
	defer logger.Close()

	g, doc, err := loadGraph(ropts.file, logger, ux.NewPrinter(cmd.ErrOrStderr(), ux.ParseMode(opts.output)))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(ropts.format) {
	case "text":
		_, err = io.WriteString(out, g.String())
		return err

	case "dot":
		highlight, err := highlightPath(g, ropts.path)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, g.ToDOT(highlight))
		return err

	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(g.Snapshot())

	default:
		format, err := topology.ParseFormat(ropts.format)
		if err != nil {
			return err
		}
		data, err := topology.Encode(topology.FromGraph(g, doc.Name), format)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
}

// highlightPath parses "A,C" and returns a shortest path between them, or
// nil when pair is empty.
func highlightPath(g *graph.Graph, pair string) ([]string, error) {
	if pair == "" {
		return nil, nil
	}

	source, destination, ok := strings.Cut(pair, ",")
	if !ok {
		return nil, fmt.Errorf("--path must be SOURCE,DESTINATION, got %q", pair)
	}

	result := routing.Search(g, source, destination)
	if !result.Outcome.HasPath() {
		return nil, fmt.Errorf("no path to highlight from %q to %q (%s)", result.Source, result.Destination, result.Outcome)
	}
	return result.Path, nil
}
