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
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/HopRoute/services/hoproute/graph"
)

const diamondYAML = `
name: diamond
nodes:
  - id: A
    x: 0
    y: 0
  - id: B
  - id: C
  - id: D
edges:
  - {from: A, to: B}
  - {from: B, to: C}
  - {from: A, to: D}
  - {from: D, to: C}
`

const diamondHCL = `
name = "diamond"

node "A" {
  x = 0
  y = 0
}
node "B" {}
node "C" {}
node "D" {}

edge {
  from = "A"
  to   = "B"
}
edge {
  from = "B"
  to   = "C"
}
edge {
  from = "A"
  to   = "D"
}
edge {
  from = "D"
  to   = "C"
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// Formats
// =============================================================================

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"yaml", FormatYAML, false},
		{"YML", FormatYAML, false},
		{"json", FormatYAML, false},
		{" hcl ", FormatHCL, false},
		{"toml", "", true},
	}

	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("/etc/topo.hcl")
	require.NoError(t, err)
	assert.Equal(t, FormatHCL, f)

	_, err = FormatFromPath("/etc/topo")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// =============================================================================
// Parsing
// =============================================================================

func TestParse_YAMLAndHCLAgree(t *testing.T) {
	fromYAML, err := Parse([]byte(diamondYAML), "diamond.yaml", FormatYAML)
	require.NoError(t, err)
	fromHCL, err := Parse([]byte(diamondHCL), "diamond.hcl", FormatHCL)
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromHCL)
	assert.Equal(t, "diamond", fromHCL.Name)
	require.Len(t, fromHCL.Nodes, 4)
	require.NotNil(t, fromHCL.Nodes[0].X)
	assert.Equal(t, 0, *fromHCL.Nodes[0].X)
	assert.Nil(t, fromHCL.Nodes[1].X)
	assert.Len(t, fromHCL.Edges, 4)
}

func TestParse_EmptyYAML(t *testing.T) {
	doc, err := Parse([]byte("  \n"), "empty.yaml", FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, doc.Nodes)
}

func TestParse_RejectsUnknownYAMLFields(t *testing.T) {
	_, err := Parse([]byte("nodes:\n  - id: A\n    weight: 3\n"), "bad.yaml", FormatYAML)
	assert.Error(t, err)
}

func TestParse_RejectsMalformedHCL(t *testing.T) {
	_, err := Parse([]byte(`node "A" {`), "bad.hcl", FormatHCL)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = Parse([]byte("edge {\n  from = \"A\"\n}\n"), "missing.hcl", FormatHCL)
	assert.Error(t, err, "edge.to is required")
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing node id", "nodes:\n  - x: 1\n    y: 1\n"},
		{"x without y", "nodes:\n  - id: A\n    x: 1\n"},
		{"edge missing endpoint", "edges:\n  - from: A\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), "doc.yaml", FormatYAML)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	doc, err := Load(writeFile(t, dir, "topo.hcl", diamondHCL))
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 4)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "topo.toml", ""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// =============================================================================
// Apply
// =============================================================================

func TestApply(t *testing.T) {
	doc, err := Parse([]byte(diamondYAML), "diamond.yaml", FormatYAML)
	require.NoError(t, err)

	g, report := Build(doc)

	assert.Equal(t, 4, report.NodesAdded)
	assert.Equal(t, 4, report.EdgesAdded)
	assert.Equal(t, 1, report.PositionsSet)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, []string{"B", "D"}, g.Neighbors("A"))
	pos, ok := g.Position("A")
	require.True(t, ok)
	assert.Equal(t, graph.Position{X: 0, Y: 0}, pos)
}

func TestApply_SkipsRejectedEntries(t *testing.T) {
	doc := &Document{
		Nodes: []NodeSpec{{ID: "A"}, {ID: "A"}, {ID: "B"}},
		Edges: []EdgeSpec{
			{From: "A", To: "A"},
			{From: "A", To: "Z"},
			{From: "A", To: "B"},
			{From: "B", To: "A"},
		},
	}

	g, report := Build(doc)

	assert.Equal(t, 2, report.NodesAdded)
	assert.Equal(t, 1, report.EdgesAdded)
	assert.Equal(t, []SkippedMutation{
		{Op: "add_node", Target: "A", Result: "duplicate_node"},
		{Op: "add_edge", Target: "A-A", Result: "self_loop"},
		{Op: "add_edge", Target: "A-Z", Result: "node_not_found"},
		{Op: "add_edge", Target: "B-A", Result: "duplicate_edge"},
	}, report.Skipped)
	require.NoError(t, g.Validate())
}

func TestApply_RespectsCapacity(t *testing.T) {
	doc := &Document{Nodes: []NodeSpec{{ID: "A"}, {ID: "B"}, {ID: "C"}}}

	g, report := Build(doc, graph.WithMaxNodes(2))

	assert.Equal(t, 2, g.NodeCount())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "capacity_exceeded", report.Skipped[0].Result)
}

// =============================================================================
// Export
// =============================================================================

func TestFromGraph_RoundTripPreservesOrder(t *testing.T) {
	g := graph.NewGraph()
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		g.AddNode(id)
	}
	// Interleave insertions so grouping by first endpoint would reorder.
	g.AddEdge("C", "D")
	g.AddEdge("A", "D")
	g.AddEdge("B", "C")
	g.AddEdge("A", "B")
	g.AddEdge("E", "A")
	g.AddEdge("D", "B")
	g.RemoveEdge("A", "D")
	g.SetPosition("E", 4, 5)

	doc := FromGraph(g, "round-trip")
	rebuilt, report := Build(doc)

	assert.Empty(t, report.Skipped)
	assert.Equal(t, g.String(), rebuilt.String())
	pos, ok := rebuilt.Position("E")
	require.True(t, ok)
	assert.Equal(t, graph.Position{X: 4, Y: 5}, pos)
}

func TestEncode_RoundTrip(t *testing.T) {
	g, _ := Build(&Document{
		Nodes: []NodeSpec{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Edges: []EdgeSpec{{From: "A", To: "B"}, {From: "B", To: "C"}},
	})
	g.SetPosition("A", 1, 2)
	doc := FromGraph(g, "enc")

	for _, format := range []Format{FormatYAML, FormatHCL} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(doc, format)
			require.NoError(t, err)

			decoded, err := Parse(data, "enc."+string(format), format)
			require.NoError(t, err)
			assert.Equal(t, doc, decoded)
		})
	}

	_, err := Encode(doc, Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// =============================================================================
// Watcher
// =============================================================================

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "topo.yaml", "nodes:\n  - id: A\n")

	var mu sync.Mutex
	var got []*Document
	w, err := NewWatcher(path, func(_ context.Context, doc *Document) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, doc)
	}, &WatcherOptions{DebounceWindow: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()
	assert.True(t, w.IsWatching())

	writeFile(t, dir, "topo.yaml", "nodes:\n  - id: A\n  - id: B\n")
	writeFile(t, dir, "unrelated.yaml", "nodes: []\n")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && len(got[len(got)-1].Nodes) == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_SkipsInvalidDocuments(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "topo.yaml", "nodes: []\n")

	calls := 0
	w, err := NewWatcher(path, func(context.Context, *Document) { calls++ }, nil)
	require.NoError(t, err)

	writeFile(t, dir, "topo.yaml", "nodes:\n  - id: A\n    x: 1\n")
	assert.ErrorIs(t, w.Reload(context.Background()), ErrInvalidDocument)
	assert.Equal(t, 0, calls)

	writeFile(t, dir, "topo.yaml", "nodes:\n  - id: A\n")
	require.NoError(t, w.Reload(context.Background()))
	assert.Equal(t, 1, calls)

	w.Stop()
	assert.False(t, w.IsWatching())
}

func TestNewWatcher_RejectsUnknownFormat(t *testing.T) {
	_, err := NewWatcher("/tmp/topo.ini", nil, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
