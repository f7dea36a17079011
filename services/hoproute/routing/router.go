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
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/AleutianAI/HopRoute/services/hoproute/graph"
)

// Outcome classifies how a search ended.
type Outcome int

const (
	// OutcomeNone means no search has run yet.
	OutcomeNone Outcome = iota

	// OutcomeFound means a path was found by traversal.
	OutcomeFound

	// OutcomeSameNode means source equals destination; no traversal ran.
	OutcomeSameNode

	// OutcomeInvalidInput means the source or destination is absent.
	OutcomeInvalidInput

	// OutcomeUnreachable means the traversal exhausted the frontier.
	OutcomeUnreachable
)

var outcomeNames = map[Outcome]string{
	OutcomeNone:         "none",
	OutcomeFound:        "found",
	OutcomeSameNode:     "same_node",
	OutcomeInvalidInput: "invalid_input",
	OutcomeUnreachable:  "unreachable",
}

// String returns the snake_case name of the outcome.
func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the outcome by name.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// HasPath returns true if the outcome carries a path.
func (o Outcome) HasPath() bool {
	return o == OutcomeFound || o == OutcomeSameNode
}

// Result is the complete record of one search.
type Result struct {
	// Source and Destination are the trimmed identifiers searched for.
	Source      string `json:"source"`
	Destination string `json:"destination"`

	// Path is the node sequence from source to destination, or nil.
	Path []string `json:"path"`

	// Hops is len(Path)-1, or -1 when there is no path.
	Hops int `json:"hops"`

	Outcome Outcome `json:"outcome"`

	// VisitOrder holds exactly the dequeued nodes in dequeue order.
	VisitOrder []string `json:"visit_order"`

	Steps []Step   `json:"steps"`
	Log   []string `json:"log"`

	Duration time.Duration `json:"duration_ns"`
}

// clone returns a deep copy so callers cannot alias router state.
func (r Result) clone() Result {
	out := r
	out.Path = slices.Clone(r.Path)
	out.VisitOrder = slices.Clone(r.VisitOrder)
	out.Log = slices.Clone(r.Log)
	out.Steps = make([]Step, len(r.Steps))
	for i, s := range r.Steps {
		out.Steps[i] = Step{Kind: s.Kind, Nodes: slices.Clone(s.Nodes)}
	}
	return out
}

// RouterOptions configures Router behavior.
type RouterOptions struct {
	// Logger receives a Debug record per completed search.
	// Default: a logger that discards everything.
	Logger *slog.Logger
}

// RouterOption is a functional option for configuring Router.
type RouterOption func(*RouterOptions)

// WithLogger sets the logger used for search diagnostics.
//
// A nil logger is ignored.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(o *RouterOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// Router runs BFS over a bound graph and keeps the last run's trace.
//
// Thread Safety:
//
//	Router is NOT safe for concurrent use. The caller must hold the same
//	lock that guards mutations of the bound graph for the full duration
//	of FindPath.
type Router struct {
	graph   *graph.Graph
	options RouterOptions
	last    Result
}

// NewRouter creates a router bound to g.
//
// The router reads g on every call and never mutates it. Edits made to g
// between calls are visible to the next search.
//
// Example:
//
//	r := NewRouter(g)
//	path := r.FindPath(ctx, "A", "C")
//	for _, line := range r.Log() {
//	    fmt.Println(line)
//	}
func NewRouter(g *graph.Graph, opts ...RouterOption) *Router {
	options := RouterOptions{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Router{
		graph:   g,
		options: options,
		last:    Result{Hops: -1, Steps: []Step{}, Log: []string{}, VisitOrder: []string{}},
	}
}

// FindPath returns one shortest path from source to destination.
//
// Description:
//
//	Identifiers are trimmed before use. The previous run's trace is
//	replaced. The search always runs to completion; ctx only carries the
//	tracing span and metric attributes.
//
// Inputs:
//
//	ctx - Context for telemetry. Must not be nil.
//	source - Node to start from.
//	destination - Node to reach.
//
// Outputs:
//
//	[]string - The path from source to destination, or nil if there is
//	           none. Use Result().Outcome or Log() to learn why.
func (r *Router) FindPath(ctx context.Context, source, destination string) []string {
	ctx, span := startSearchSpan(ctx, source, destination)
	defer span.End()

	r.last = Search(r.graph, source, destination)

	setSearchSpanResult(span, r.last)
	recordSearchMetrics(ctx, r.last)
	r.options.Logger.Debug("search complete",
		slog.String("source", r.last.Source),
		slog.String("destination", r.last.Destination),
		slog.String("outcome", r.last.Outcome.String()),
		slog.Int("hops", r.last.Hops),
		slog.Int("visited", len(r.last.VisitOrder)),
		slog.Duration("duration", r.last.Duration),
	)

	return slices.Clone(r.last.Path)
}

// Log returns the last run's trace as human-readable lines.
func (r *Router) Log() []string {
	return slices.Clone(r.last.Log)
}

// VisitOrder returns the nodes the last run dequeued, in dequeue order.
func (r *Router) VisitOrder() []string {
	return slices.Clone(r.last.VisitOrder)
}

// Steps returns the last run's structured trace.
func (r *Router) Steps() []Step {
	return r.last.clone().Steps
}

// Result returns a copy of the last run's full record.
func (r *Router) Result() Result {
	return r.last.clone()
}

// Search runs one BFS over g without any router state.
//
// Description:
//
//	Checks inputs in order (absent endpoint, then equal endpoints), then
//	expands the frontier one node at a time. Each dequeue is appended to
//	the visit order and compared with the destination. Undiscovered
//	neighbors are marked, given a predecessor, and enqueued in neighbor
//	order; each non-empty batch is recorded as one queue step.
//
// Inputs:
//
//	g - Graph to search. A nil graph is treated as empty.
//	source, destination - Endpoints; trimmed before use.
//
// Outputs:
//
//	Result - Never has a nil Steps, Log, or VisitOrder.
//
// Limitations:
//
//	O(V + E) time and O(V) space. No cancellation; the caller bounds the
//	graph size.
func Search(g *graph.Graph, source, destination string) Result {
	t := newSearchTrace(graph.NormalizeID(source), graph.NormalizeID(destination))
	src, dst := t.result.Source, t.result.Destination

	if g == nil || !g.HasNode(src) || !g.HasNode(dst) {
		t.record(StepInvalidInput, src, dst)
		return t.finish(OutcomeInvalidInput, nil)
	}

	if src == dst {
		t.record(StepSameNode, src)
		t.result.VisitOrder = append(t.result.VisitOrder, src)
		return t.finish(OutcomeSameNode, []string{src})
	}

	t.record(StepStart, src)

	frontier := []string{src}
	discovered := map[string]struct{}{src: {}}
	predecessor := make(map[string]string)

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		t.record(StepVisit, current)
		t.result.VisitOrder = append(t.result.VisitOrder, current)

		if current == dst {
			path := reconstructPath(predecessor, src, dst)
			t.record(StepReached, dst)
			t.record(StepPath, path...)
			return t.finish(OutcomeFound, path)
		}

		var queued []string
		for _, n := range g.Neighbors(current) {
			if _, seen := discovered[n]; seen {
				continue
			}
			discovered[n] = struct{}{}
			predecessor[n] = current
			frontier = append(frontier, n)
			queued = append(queued, n)
		}
		if len(queued) > 0 {
			t.record(StepQueue, queued...)
		}
	}

	t.record(StepNoPath, src, dst)
	return t.finish(OutcomeUnreachable, nil)
}

// reconstructPath follows predecessor links back from dst, then reverses.
func reconstructPath(predecessor map[string]string, src, dst string) []string {
	path := []string{dst}
	for at := dst; at != src; {
		at = predecessor[at]
		path = append(path, at)
	}
	slices.Reverse(path)
	return path
}

// searchTrace accumulates one run's steps and log lines in lockstep.
type searchTrace struct {
	start  time.Time
	result Result
}

func newSearchTrace(src, dst string) *searchTrace {
	return &searchTrace{start: time.Now(), result: Result{
		Source:      src,
		Destination: dst,
		Hops:        -1,
		VisitOrder:  make([]string, 0),
		Steps:       make([]Step, 0),
		Log:         make([]string, 0),
	}}
}

func (t *searchTrace) record(kind StepKind, nodes ...string) {
	step := Step{Kind: kind, Nodes: slices.Clone(nodes)}
	t.result.Steps = append(t.result.Steps, step)
	t.result.Log = append(t.result.Log, step.Message())
}

func (t *searchTrace) finish(outcome Outcome, path []string) Result {
	t.result.Outcome = outcome
	t.result.Path = path
	t.result.Duration = time.Since(t.start)
	if path != nil {
		t.result.Hops = len(path) - 1
	}
	return t.result
}
