// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StepKind identifies a single decision in a search trace.
type StepKind int

const (
	// StepInvalidInput records that the source or destination is absent.
	// Nodes: [source, destination].
	StepInvalidInput StepKind = iota

	// StepSameNode records that source equals destination.
	// Nodes: [source].
	StepSameNode

	// StepStart records the beginning of a traversal.
	// Nodes: [source].
	StepStart

	// StepVisit records a dequeue.
	// Nodes: [current].
	StepVisit

	// StepQueue records the batch of neighbors discovered by one expansion.
	// Nodes: the newly discovered neighbors in neighbor order.
	StepQueue

	// StepReached records that the destination was dequeued.
	// Nodes: [destination].
	StepReached

	// StepPath records the reconstructed path.
	// Nodes: the path from source to destination.
	StepPath

	// StepNoPath records that the frontier emptied without a match.
	// Nodes: [source, destination].
	StepNoPath
)

var stepKindNames = map[StepKind]string{
	StepInvalidInput: "invalid_input",
	StepSameNode:     "same_node",
	StepStart:        "start",
	StepVisit:        "visit",
	StepQueue:        "queue",
	StepReached:      "reached",
	StepPath:         "path",
	StepNoPath:       "no_path",
}

// String returns the snake_case name of the kind.
func (k StepKind) String() string {
	if name, ok := stepKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the kind by name.
func (k StepKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Step is one structured entry of a search trace.
type Step struct {
	Kind  StepKind `json:"kind"`
	Nodes []string `json:"nodes"`
}

// Message renders the step as a log line.
func (s Step) Message() string {
	switch s.Kind {
	case StepInvalidInput:
		return "Invalid source or destination node."
	case StepSameNode:
		return "Source and destination are the same."
	case StepStart:
		return "Starting BFS from: " + s.node(0)
	case StepVisit:
		return "Visiting: " + s.node(0)
	case StepQueue:
		return "Queueing: " + strings.Join(s.Nodes, ", ")
	case StepReached:
		return "Destination reached: " + s.node(0)
	case StepPath:
		return FormatPath(s.Nodes)
	case StepNoPath:
		return fmt.Sprintf("No path found from %s to %s", s.node(0), s.node(1))
	default:
		return fmt.Sprintf("Unknown step %d", int(s.Kind))
	}
}

func (s Step) node(i int) string {
	if i < len(s.Nodes) {
		return s.Nodes[i]
	}
	return ""
}

// FormatPath renders a path as "Shortest path: [A, B, C]".
func FormatPath(path []string) string {
	return "Shortest path: [" + strings.Join(path, ", ") + "]"
}
