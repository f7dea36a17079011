// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides an editable, undirected, unweighted graph with
// optional display coordinates.
//
// The graph is the data layer consumed by the routing package. It knows
// nothing about search algorithms; it only keeps adjacency consistent while
// the topology is edited live.
//
// # Invariants
//
// Every mutation preserves the following, unconditionally:
//   - Every node has an adjacency entry and every adjacency entry is a node.
//   - No node is its own neighbor.
//   - Adjacency is symmetric: b in Neighbors(a) iff a in Neighbors(b).
//   - Removing a node removes it from every neighbor list and from positions.
//
// # Soft Failure
//
// Mutations never panic and never return errors. Each returns a
// MutationResult naming either MutationApplied or the reason the call was
// a no-op. Callers that prefer typed errors can use MutationResult.Err.
//
// # Ordering
//
// Nodes iterate in insertion order. Each node's neighbors iterate in the
// order the edges were added. Removals keep the relative order of what
// remains. Search results among equally short paths therefore depend only
// on the order in which the topology was built.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. Callers must serialize every
// mutation and every search over a single mutual-exclusion scope; see the
// hoproute service Session type for the reference arrangement.
package graph
