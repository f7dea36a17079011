// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routing finds shortest hop-count paths over a graph.Graph with
// breadth-first search and records an ordered, replayable trace of every
// decision the search made.
//
// # Search
//
// Router.FindPath checks its inputs in a fixed order: an absent source or
// destination ends the run with an invalid-input entry, equal endpoints
// return the single-node path without traversal, and anything else runs a
// full BFS. The destination is matched when it is dequeued, never when it
// is discovered, so the returned path always has the minimum number of
// hops.
//
// # Tie-Break
//
// Among equally short paths the router returns the one implied by the
// graph's neighbor order, which is edge insertion order. Building the same
// topology in the same order always yields the same path.
//
// # Trace
//
// Every run produces three views of the same events:
//   - Steps: structured entries (kind plus nodes) for programmatic replay.
//   - Log: the steps rendered as human-readable lines.
//   - VisitOrder: the dequeued nodes only, in dequeue order.
//
// The router keeps only the most recent run. A nil path means no path;
// Result.Outcome tells the cases apart.
//
// # Thread Safety
//
// Router is NOT safe for concurrent use, and a search must not overlap a
// mutation of the bound graph. Hold one lock across both.
package routing
