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

import "errors"

// Sentinel errors for graph mutations.
//
// The graph itself never returns these; they are produced by
// MutationResult.Err for callers that want to branch with errors.Is.
var (
	// ErrInvalidNodeID is returned for an empty or whitespace-only identifier.
	ErrInvalidNodeID = errors.New("invalid node identifier")

	// ErrDuplicateNode is returned when adding a node that already exists.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrNodeNotFound is returned when an operation references an absent node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrSelfLoop is returned when an edge would connect a node to itself.
	ErrSelfLoop = errors.New("self-loop edges are not allowed")

	// ErrDuplicateEdge is returned when adding an edge that already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrEdgeNotFound is returned when removing an edge that does not exist.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrMaxNodesExceeded is returned when the graph is at node capacity.
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")

	// ErrInvariantViolated is returned by Validate when adjacency is corrupt.
	ErrInvariantViolated = errors.New("graph invariant violated")
)

// MutationResult reports the outcome of a graph mutation.
//
// MutationApplied means the graph changed. Every other value names the
// reason the call was a no-op; the graph is untouched in that case.
type MutationResult int

const (
	// MutationApplied indicates the mutation changed the graph.
	MutationApplied MutationResult = iota

	// MutationInvalidID indicates an empty or whitespace-only identifier.
	MutationInvalidID

	// MutationDuplicateNode indicates the node already exists.
	MutationDuplicateNode

	// MutationNodeNotFound indicates a referenced node is absent.
	MutationNodeNotFound

	// MutationSelfLoop indicates both edge endpoints are the same node.
	MutationSelfLoop

	// MutationDuplicateEdge indicates the edge already exists.
	MutationDuplicateEdge

	// MutationEdgeNotFound indicates the edge to remove did not exist.
	MutationEdgeNotFound

	// MutationCapacityExceeded indicates the graph is at its node limit.
	MutationCapacityExceeded
)

var mutationResultNames = map[MutationResult]string{
	MutationApplied:          "applied",
	MutationInvalidID:        "invalid_id",
	MutationDuplicateNode:    "duplicate_node",
	MutationNodeNotFound:     "node_not_found",
	MutationSelfLoop:         "self_loop",
	MutationDuplicateEdge:    "duplicate_edge",
	MutationEdgeNotFound:     "edge_not_found",
	MutationCapacityExceeded: "capacity_exceeded",
}

var mutationResultErrs = map[MutationResult]error{
	MutationInvalidID:        ErrInvalidNodeID,
	MutationDuplicateNode:    ErrDuplicateNode,
	MutationNodeNotFound:     ErrNodeNotFound,
	MutationSelfLoop:         ErrSelfLoop,
	MutationDuplicateEdge:    ErrDuplicateEdge,
	MutationEdgeNotFound:     ErrEdgeNotFound,
	MutationCapacityExceeded: ErrMaxNodesExceeded,
}

// String returns the snake_case name of the result.
func (r MutationResult) String() string {
	if name, ok := mutationResultNames[r]; ok {
		return name
	}
	return "unknown"
}

// Applied returns true if the mutation changed the graph.
func (r MutationResult) Applied() bool {
	return r == MutationApplied
}

// Err returns the sentinel error for a no-op result, or nil if applied.
func (r MutationResult) Err() error {
	if r == MutationApplied {
		return nil
	}
	if err, ok := mutationResultErrs[r]; ok {
		return err
	}
	return errors.New("unknown mutation result")
}
