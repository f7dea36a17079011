// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"io"
	"log/slog"
	"strings"
)

// DefaultMaxNodes is the default maximum number of nodes a graph can hold.
const DefaultMaxNodes = 1_000_000

// Position is a 2D display coordinate attached to a node.
//
// Positions are consumed only by renderers; search never reads them.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Edge is an undirected connection between two nodes.
//
// From is the endpoint that was encountered first during enumeration;
// it carries no direction.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// GraphOptions configures Graph behavior and limits.
type GraphOptions struct {
	// MaxNodes is the maximum number of nodes the graph can hold.
	// Zero or negative disables the limit.
	// Default: 1,000,000
	MaxNodes int

	// Logger receives Debug diagnostics for no-op mutations.
	// Default: a logger that discards everything.
	Logger *slog.Logger
}

// DefaultGraphOptions returns sensible defaults for graph configuration.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		MaxNodes: DefaultMaxNodes,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// GraphOption is a functional option for configuring Graph.
type GraphOption func(*GraphOptions)

// WithMaxNodes sets the maximum number of nodes the graph can hold.
func WithMaxNodes(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxNodes = n
	}
}

// WithLogger sets the logger used for mutation diagnostics.
//
// A nil logger is ignored.
func WithLogger(logger *slog.Logger) GraphOption {
	return func(o *GraphOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// NormalizeID trims surrounding whitespace from a node identifier.
//
// Every graph operation normalizes its identifiers this way, so " A " and
// "A" name the same node.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// Stats summarizes the size of a graph.
type Stats struct {
	NodeCount     int `json:"node_count"`
	EdgeCount     int `json:"edge_count"`
	PositionCount int `json:"position_count"`
	MaxNodes      int `json:"max_nodes"`
}
