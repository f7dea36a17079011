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
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/HopRoute/pkg/ux"
	"github.com/AleutianAI/HopRoute/services/hoproute/routing"
	"github.com/spf13/cobra"
)

// errNoPath is returned by "path --strict" when the search finds nothing.
var errNoPath = errors.New("no path")

type pathOptions struct {
	file   string
	json   bool
	strict bool
}

func newPathCmd(opts *globalOptions) *cobra.Command {
	popts := &pathOptions{}

	cmd := &cobra.Command{
		Use:   "path SOURCE DESTINATION",
		Short: "Find a shortest path and print the search trace",
		Long: `Loads a topology file, runs a breadth-first search from SOURCE to
DESTINATION, and prints the search log, the visit order, and the path.`,
		Example: `  hoproute path -f topology.yaml A C
  hoproute path -f topology.hcl --json A C | jq .path`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPath(cmd, opts, popts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&popts.file, "file", "f", "", "Topology file (.yaml, .yml, .json, .hcl)")
	cmd.Flags().BoolVar(&popts.json, "json", false, "Print the full search result as JSON")
	cmd.Flags().BoolVar(&popts.strict, "strict", false, "Exit non-zero when no path exists")
	return cmd
}

func runPath(cmd *cobra.Command, opts *globalOptions, popts *pathOptions, source, destination string) error {
	logger, err := newCLILogger(cmd, opts)
	if err != nil {
		return err
	}
	defer logger.Close()

	mode := ux.ParseMode(opts.output)
	g, _, err := loadGraph(popts.file, logger, ux.NewPrinter(cmd.ErrOrStderr(), mode))
	if err != nil {
		return err
	}

	router := routing.NewRouter(g, routing.WithLogger(logger.Slog()))
	router.FindPath(cmd.Context(), source, destination)
	result := router.Result()

	if popts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(ux.NewPrinter(cmd.OutOrStdout(), mode), result)
	}

	if popts.strict && !result.Outcome.HasPath() {
		return fmt.Errorf("%w from %q to %q (%s)", errNoPath, result.Source, result.Destination, result.Outcome)
	}
	return nil
}

// printResult renders a search: the log, the visit order, and the outcome.
func printResult(p *ux.Printer, result routing.Result) {
	lines := make([]string, len(result.Steps))
	for i, step := range result.Steps {
		lines[i] = styleStep(p, step)
	}

	p.Title(fmt.Sprintf("Search %s to %s", result.Source, result.Destination))
	p.Box("Log", lines)

	if len(result.VisitOrder) > 0 {
		p.KeyValue("Visit order", strings.Join(result.VisitOrder, ", "))
	}

	switch result.Outcome {
	case routing.OutcomeFound, routing.OutcomeSameNode:
		p.KeyValue("Hops", fmt.Sprint(result.Hops))
		p.Chain(result.Path)
	case routing.OutcomeUnreachable:
		p.Warning("no path")
	default:
		p.Error("invalid source or destination")
	}
}

// styleStep colors a log line by the kind of step it records.
func styleStep(p *ux.Printer, step routing.Step) string {
	msg := step.Message()
	switch step.Kind {
	case routing.StepReached, routing.StepPath, routing.StepSameNode:
		return p.Style(ux.Styles.Success, msg)
	case routing.StepNoPath:
		return p.Style(ux.Styles.Warning, msg)
	case routing.StepInvalidInput:
		return p.Style(ux.Styles.Error, msg)
	case routing.StepQueue:
		return p.Style(ux.Styles.Muted, msg)
	default:
		return msg
	}
}
