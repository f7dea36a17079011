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
	"bytes"
	"fmt"
	"strings"
)

// NodeView is the serializable form of a single node.
type NodeView struct {
	ID        string    `json:"id" yaml:"id"`
	Neighbors []string  `json:"neighbors" yaml:"neighbors"`
	Position  *Position `json:"position,omitempty" yaml:"position,omitempty"`
}

// Snapshot is a point-in-time, serializable copy of a graph.
//
// Nodes are in insertion order. Edges are listed once each, in the
// order returned by Graph.Edges.
type Snapshot struct {
	Nodes []NodeView `json:"nodes" yaml:"nodes"`
	Edges []Edge     `json:"edges" yaml:"edges"`
	Stats Stats      `json:"stats" yaml:"stats"`
}

// Snapshot copies the graph into a value that shares no memory with it.
func (g *Graph) Snapshot() Snapshot {
	nodes := make([]NodeView, 0, len(g.order))
	for _, id := range g.order {
		view := NodeView{ID: id, Neighbors: g.Neighbors(id)}
		if pos, ok := g.positions[id]; ok {
			p := pos
			view.Position = &p
		}
		nodes = append(nodes, view)
	}

	return Snapshot{
		Nodes: nodes,
		Edges: g.Edges(),
		Stats: g.Stats(),
	}
}

// ToDOT outputs the graph in Graphviz DOT format.
//
// Description:
//
//	Emits an undirected graph. Nodes with a position get a pinned pos
//	attribute. Nodes and edges along highlight, typically a path returned
//	by the router, are drawn bold in red.
//
// Inputs:
//
//	highlight - Ordered node IDs to emphasize. May be nil.
func (g *Graph) ToDOT(highlight []string) string {
	onPath := make(map[string]bool, len(highlight))
	pathEdges := make(map[Edge]bool, len(highlight))
	for i, id := range highlight {
		onPath[id] = true
		if i > 0 {
			prev := highlight[i-1]
			pathEdges[Edge{From: prev, To: id}] = true
			pathEdges[Edge{From: id, To: prev}] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("graph topology {\n")
	buf.WriteString("  node [shape=circle];\n\n")

	for _, id := range g.order {
		attrs := "label=" + dotQuote(id)
		if pos, ok := g.positions[id]; ok {
			attrs += fmt.Sprintf(", pos=\"%d,%d!\"", pos.X, pos.Y)
		}
		if onPath[id] {
			attrs += ", color=red, style=bold"
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", dotQuote(id), attrs)
	}

	buf.WriteString("\n")

	for _, e := range g.Edges() {
		if pathEdges[e] {
			fmt.Fprintf(&buf, "  %s -- %s [color=red, penwidth=2];\n", dotQuote(e.From), dotQuote(e.To))
			continue
		}
		fmt.Fprintf(&buf, "  %s -- %s;\n", dotQuote(e.From), dotQuote(e.To))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// dotEscaper escapes the two characters DOT treats specially inside a
// double-quoted ID. Everything else, tabs and non-ASCII included, is literal.
var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// dotQuote renders id as a DOT double-quoted string.
func dotQuote(id string) string {
	return `"` + dotEscaper.Replace(id) + `"`
}
