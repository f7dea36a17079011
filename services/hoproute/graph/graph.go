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
	"fmt"
	"slices"
	"strings"
)

// Graph is an undirected, unweighted graph that supports live edits.
//
// Thread Safety:
//
//	Graph is NOT safe for concurrent use. All mutations and every search
//	over the graph must be serialized by the owner.
//
// Lifecycle:
//
//  1. Create with NewGraph()
//  2. Edit with AddNode/RemoveNode/AddEdge/RemoveEdge at any time
//  3. Query with HasNode, Neighbors, Nodes, Edges, or hand it to a router
type Graph struct {
	// order holds node IDs in insertion order.
	order []string

	// adjacency maps node ID to its neighbors in edge insertion order.
	// The key set is exactly the node set.
	adjacency map[string][]string

	// positions holds optional display coordinates.
	positions map[string]Position

	// edgeCount is the number of undirected edges.
	edgeCount int

	options GraphOptions
}

// NewGraph creates a new empty graph.
//
// Example:
//
//	g := NewGraph()
//	g.AddNode("A")
//	g.AddNode("B")
//	g.AddEdge("A", "B")
//
//	// Bounded graph with diagnostics
//	g := NewGraph(WithMaxNodes(500), WithLogger(logger))
func NewGraph(opts ...GraphOption) *Graph {
	options := DefaultGraphOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Graph{
		order:     make([]string, 0),
		adjacency: make(map[string][]string),
		positions: make(map[string]Position),
		options:   options,
	}
}

// AddNode inserts a node with no neighbors.
//
// Description:
//
//	Trims the identifier and inserts it. Calling AddNode twice with the
//	same identifier leaves the graph as a single call would.
//
// Outputs:
//
//	MutationApplied - The node was inserted.
//	MutationInvalidID - The identifier is empty after trimming.
//	MutationDuplicateNode - The node already exists.
//	MutationCapacityExceeded - The graph is at MaxNodes.
func (g *Graph) AddNode(id string) MutationResult {
	id = NormalizeID(id)
	if id == "" {
		return g.reject("add_node", MutationInvalidID, "node", id)
	}
	if _, exists := g.adjacency[id]; exists {
		return g.reject("add_node", MutationDuplicateNode, "node", id)
	}
	if g.options.MaxNodes > 0 && len(g.order) >= g.options.MaxNodes {
		return g.reject("add_node", MutationCapacityExceeded, "node", id)
	}

	g.order = append(g.order, id)
	g.adjacency[id] = make([]string, 0)
	return MutationApplied
}

// RemoveNode deletes a node, every edge touching it, and its position.
//
// Outputs:
//
//	MutationApplied - The node was removed.
//	MutationNodeNotFound - The node does not exist.
func (g *Graph) RemoveNode(id string) MutationResult {
	id = NormalizeID(id)
	neighbors, exists := g.adjacency[id]
	if !exists {
		return g.reject("remove_node", MutationNodeNotFound, "node", id)
	}

	// Only the node's own neighbors can list it, by symmetry.
	for _, n := range neighbors {
		g.adjacency[n] = removeValue(g.adjacency[n], id)
	}
	g.edgeCount -= len(neighbors)

	delete(g.adjacency, id)
	delete(g.positions, id)
	g.order = removeValue(g.order, id)
	return MutationApplied
}

// AddEdge connects two existing, distinct nodes.
//
// Description:
//
//	Appends b to a's neighbors and a to b's neighbors. An existing edge
//	is left alone, so repeated calls are idempotent.
//
// Outputs:
//
//	MutationApplied - The edge was inserted.
//	MutationInvalidID - An endpoint is empty after trimming.
//	MutationSelfLoop - Both endpoints are the same node.
//	MutationNodeNotFound - An endpoint does not exist.
//	MutationDuplicateEdge - The edge already exists.
func (g *Graph) AddEdge(a, b string) MutationResult {
	a, b = NormalizeID(a), NormalizeID(b)
	if a == "" || b == "" {
		return g.reject("add_edge", MutationInvalidID, "from", a, "to", b)
	}
	if a == b {
		return g.reject("add_edge", MutationSelfLoop, "from", a, "to", b)
	}
	aNeighbors, aOK := g.adjacency[a]
	_, bOK := g.adjacency[b]
	if !aOK || !bOK {
		return g.reject("add_edge", MutationNodeNotFound, "from", a, "to", b)
	}
	if slices.Contains(aNeighbors, b) {
		return g.reject("add_edge", MutationDuplicateEdge, "from", a, "to", b)
	}

	g.adjacency[a] = append(aNeighbors, b)
	g.adjacency[b] = append(g.adjacency[b], a)
	g.edgeCount++
	return MutationApplied
}

// RemoveEdge disconnects two nodes.
//
// Outputs:
//
//	MutationApplied - The edge was removed.
//	MutationNodeNotFound - An endpoint does not exist.
//	MutationEdgeNotFound - Both nodes exist but were not connected.
func (g *Graph) RemoveEdge(a, b string) MutationResult {
	a, b = NormalizeID(a), NormalizeID(b)
	aNeighbors, aOK := g.adjacency[a]
	_, bOK := g.adjacency[b]
	if !aOK || !bOK {
		return g.reject("remove_edge", MutationNodeNotFound, "from", a, "to", b)
	}
	if !slices.Contains(aNeighbors, b) {
		return g.reject("remove_edge", MutationEdgeNotFound, "from", a, "to", b)
	}

	g.adjacency[a] = removeValue(aNeighbors, b)
	g.adjacency[b] = removeValue(g.adjacency[b], a)
	g.edgeCount--
	return MutationApplied
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.adjacency[NormalizeID(id)]
	return ok
}

// Neighbors returns a copy of the node's neighbors in edge insertion order.
//
// Returns an empty, non-nil slice if the node does not exist.
func (g *Graph) Neighbors(id string) []string {
	neighbors := g.adjacency[NormalizeID(id)]
	out := make([]string, len(neighbors))
	copy(out, neighbors)
	return out
}

// Degree returns the number of neighbors, or 0 if the node does not exist.
func (g *Graph) Degree(id string) int {
	return len(g.adjacency[NormalizeID(id)])
}

// Nodes returns a snapshot of all node IDs in insertion order.
//
// The slice is a copy; later mutations do not affect it.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of undirected edges in the graph.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// IsConnected reports whether a and b share an edge.
//
// Returns false if a does not exist.
func (g *Graph) IsConnected(a, b string) bool {
	neighbors, ok := g.adjacency[NormalizeID(a)]
	if !ok {
		return false
	}
	return slices.Contains(neighbors, NormalizeID(b))
}

// Edges returns every undirected edge exactly once.
//
// Description:
//
//	Walks nodes in insertion order and each node's neighbors in edge
//	order. A pair is emitted the first time it is met and suppressed
//	when met again from the other side.
func (g *Graph) Edges() []Edge {
	type pair struct{ from, to string }

	edges := make([]Edge, 0, g.edgeCount)
	seen := make(map[pair]struct{}, g.edgeCount)
	for _, from := range g.order {
		for _, to := range g.adjacency[from] {
			if _, dup := seen[pair{to, from}]; dup {
				continue
			}
			seen[pair{from, to}] = struct{}{}
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// SetPosition attaches a display coordinate to an existing node.
//
// Outputs:
//
//	MutationApplied - The position was stored (replacing any previous one).
//	MutationNodeNotFound - The node does not exist.
func (g *Graph) SetPosition(id string, x, y int) MutationResult {
	id = NormalizeID(id)
	if _, ok := g.adjacency[id]; !ok {
		return g.reject("set_position", MutationNodeNotFound, "node", id)
	}
	g.positions[id] = Position{X: x, Y: y}
	return MutationApplied
}

// Position returns the node's display coordinate.
//
// The bool is false when no position is set or the node does not exist.
func (g *Graph) Position(id string) (Position, bool) {
	pos, ok := g.positions[NormalizeID(id)]
	return pos, ok
}

// Stats returns size information about the graph.
func (g *Graph) Stats() Stats {
	return Stats{
		NodeCount:     len(g.order),
		EdgeCount:     g.edgeCount,
		PositionCount: len(g.positions),
		MaxNodes:      g.options.MaxNodes,
	}
}

// Validate checks every structural invariant.
//
// Description:
//
//	Verifies the node order and adjacency agree, there are no self-loops
//	or duplicate neighbors, adjacency is symmetric, positions reference
//	existing nodes, and the edge counter matches. Mutations maintain all
//	of these; Validate exists for tests and for auditing loaded state.
//
// Outputs:
//
//	error - Wraps ErrInvariantViolated with the first problem found.
func (g *Graph) Validate() error {
	if len(g.order) != len(g.adjacency) {
		return fmt.Errorf("%w: %d ordered nodes, %d adjacency entries",
			ErrInvariantViolated, len(g.order), len(g.adjacency))
	}

	degreeSum := 0
	for _, id := range g.order {
		neighbors, ok := g.adjacency[id]
		if !ok {
			return fmt.Errorf("%w: node %q has no adjacency entry", ErrInvariantViolated, id)
		}
		seen := make(map[string]struct{}, len(neighbors))
		for _, n := range neighbors {
			if n == id {
				return fmt.Errorf("%w: self-loop on %q", ErrInvariantViolated, id)
			}
			if _, dup := seen[n]; dup {
				return fmt.Errorf("%w: %q lists %q twice", ErrInvariantViolated, id, n)
			}
			seen[n] = struct{}{}
			if !slices.Contains(g.adjacency[n], id) {
				return fmt.Errorf("%w: edge %q-%q is not symmetric", ErrInvariantViolated, id, n)
			}
		}
		degreeSum += len(neighbors)
	}

	for id := range g.positions {
		if _, ok := g.adjacency[id]; !ok {
			return fmt.Errorf("%w: position for absent node %q", ErrInvariantViolated, id)
		}
	}

	if degreeSum != 2*g.edgeCount {
		return fmt.Errorf("%w: edge count %d, degree sum %d",
			ErrInvariantViolated, g.edgeCount, degreeSum)
	}
	return nil
}

// String renders one line per node: "A -> [B, D]".
func (g *Graph) String() string {
	var sb strings.Builder
	for _, id := range g.order {
		fmt.Fprintf(&sb, "%s -> [%s]\n", id, strings.Join(g.adjacency[id], ", "))
	}
	return sb.String()
}

// reject logs a no-op mutation and returns its result.
func (g *Graph) reject(op string, result MutationResult, attrs ...any) MutationResult {
	args := append([]any{"op", op, "result", result.String()}, attrs...)
	g.options.Logger.Debug("graph mutation ignored", args...)
	return result
}

// removeValue deletes the first occurrence of v, preserving order.
func removeValue(s []string, v string) []string {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}
