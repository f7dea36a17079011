// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package topology

import (
	"github.com/AleutianAI/HopRoute/services/hoproute/graph"
)

// SkippedMutation is a document entry that Apply could not apply.
type SkippedMutation struct {
	Op     string `json:"op"`
	Target string `json:"target"`
	Result string `json:"result"`
}

// ApplyReport summarizes what Apply changed.
type ApplyReport struct {
	NodesAdded   int               `json:"nodes_added"`
	EdgesAdded   int               `json:"edges_added"`
	PositionsSet int               `json:"positions_set"`
	Skipped      []SkippedMutation `json:"skipped"`
}

// Apply replays doc into g.
//
// Description:
//
//	Adds every node in document order, sets positions, then adds every
//	edge in document order. Entries the graph rejects (duplicates,
//	self-loops, edges to undeclared nodes) are skipped and listed in the
//	report. Existing graph content is kept, so Apply merges.
//
// Thread Safety:
//
//	Not safe for concurrent use. Hold the graph's lock.
func Apply(g *graph.Graph, doc *Document) ApplyReport {
	report := ApplyReport{Skipped: make([]SkippedMutation, 0)}

	skip := func(op, target string, r graph.MutationResult) {
		report.Skipped = append(report.Skipped, SkippedMutation{Op: op, Target: target, Result: r.String()})
	}

	for _, n := range doc.Nodes {
		if r := g.AddNode(n.ID); r.Applied() {
			report.NodesAdded++
		} else {
			skip("add_node", n.ID, r)
		}

		if n.X == nil || n.Y == nil {
			continue
		}
		if r := g.SetPosition(n.ID, *n.X, *n.Y); r.Applied() {
			report.PositionsSet++
		} else {
			skip("set_position", n.ID, r)
		}
	}

	for _, e := range doc.Edges {
		if r := g.AddEdge(e.From, e.To); r.Applied() {
			report.EdgesAdded++
		} else {
			skip("add_edge", e.From+"-"+e.To, r)
		}
	}

	return report
}

// Build creates a new graph from doc.
func Build(doc *Document, opts ...graph.GraphOption) (*graph.Graph, ApplyReport) {
	g := graph.NewGraph(opts...)
	return g, Apply(g, doc)
}

// FromGraph exports g as a document.
//
// Applying the result to an empty graph reproduces g, including node and
// neighbor iteration order.
func FromGraph(g *graph.Graph, name string) *Document {
	doc := &Document{
		Name:  name,
		Nodes: make([]NodeSpec, 0, g.NodeCount()),
		Edges: make([]EdgeSpec, 0, g.EdgeCount()),
	}

	for _, id := range g.Nodes() {
		spec := NodeSpec{ID: id}
		if pos, ok := g.Position(id); ok {
			x, y := pos.X, pos.Y
			spec.X, spec.Y = &x, &y
		}
		doc.Nodes = append(doc.Nodes, spec)
	}

	for _, e := range exportEdgeOrder(g) {
		doc.Edges = append(doc.Edges, EdgeSpec{From: e.From, To: e.To})
	}

	return doc
}

// exportEdgeOrder lists edges in an order that rebuilds every neighbor
// list exactly.
//
// Graph.Edges groups edges by their first endpoint, which loses the
// interleaving of insertions across nodes. Rebuilding needs an order in
// which, for every node, its edges appear in that node's neighbor order.
// Such an order always exists, since removals keep relative order, and
// this finds it by repeatedly emitting any edge that is at the head of
// both endpoints' remaining lists.
func exportEdgeOrder(g *graph.Graph) []graph.Edge {
	nodes := g.Nodes()
	remaining := make(map[string][]string, len(nodes))
	for _, id := range nodes {
		remaining[id] = g.Neighbors(id)
	}

	edges := make([]graph.Edge, 0, g.EdgeCount())
	for progress := true; progress; {
		progress = false
		for _, a := range nodes {
			for len(remaining[a]) > 0 {
				b := remaining[a][0]
				if len(remaining[b]) == 0 || remaining[b][0] != a {
					break
				}
				edges = append(edges, graph.Edge{From: a, To: b})
				remaining[a] = remaining[a][1:]
				remaining[b] = remaining[b][1:]
				progress = true
			}
		}
	}

	return edges
}
