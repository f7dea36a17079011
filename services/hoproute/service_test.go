// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hoproute

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AleutianAI/HopRoute/services/hoproute/routing"
	"github.com/AleutianAI/HopRoute/services/hoproute/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// diamondDoc is A-B, B-C, A-D, D-C.
func diamondDoc() *topology.Document {
	return &topology.Document{
		Name: "diamond",
		Nodes: []topology.NodeSpec{
			{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"},
		},
		Edges: []topology.EdgeSpec{
			{From: "A", To: "B"},
			{From: "B", To: "C"},
			{From: "A", To: "D"},
			{From: "D", To: "C"},
		},
	}
}

func newDiamondSession(t *testing.T, svc *Service) string {
	t.Helper()
	info, report, err := svc.CreateSession("diamond", diamondDoc())
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Empty(t, report.Skipped)
	return info.ID
}

// =============================================================================
// Session lifecycle
// =============================================================================

func TestCreateSession(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	info, report, err := svc.CreateSession("empty", nil)
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "empty", info.Name)
	assert.Zero(t, info.Stats.NodeCount)
	assert.Equal(t, 100_000, info.Stats.MaxNodes)

	id := newDiamondSession(t, svc)
	got, err := svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stats.NodeCount)
	assert.Equal(t, 4, got.Stats.EdgeCount)
	assert.Equal(t, 2, svc.SessionCount())
}

func TestCreateSession_InvalidDocument(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	doc := &topology.Document{Edges: []topology.EdgeSpec{{From: "A"}}}
	_, _, err := svc.CreateSession("bad", doc)

	assert.ErrorIs(t, err, topology.ErrInvalidDocument)
	assert.Zero(t, svc.SessionCount(), "no session is created for a bad document")
}

func TestCreateSession_EvictsLeastRecentlyUsed(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultServiceConfig()
	cfg.MaxSessions = 2
	svc := NewService(cfg, WithClock(clock.Now))

	a, _, err := svc.CreateSession("a", nil)
	require.NoError(t, err)
	clock.Advance(time.Second)
	b, _, err := svc.CreateSession("b", nil)
	require.NoError(t, err)
	clock.Advance(time.Second)

	// Touch a so b becomes the least recently used.
	_, err = svc.Session(a.ID)
	require.NoError(t, err)
	clock.Advance(time.Second)

	c, _, err := svc.CreateSession("c", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, svc.SessionCount())
	_, err = svc.Session(b.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Session(a.ID)
	assert.NoError(t, err)
	_, err = svc.Session(c.ID)
	assert.NoError(t, err)
}

func TestCreateSession_PinnedSessionIsNeverEvicted(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.MaxSessions = 1
	svc := NewService(cfg)

	svc.EnsureDefaultSession()
	_, _, err := svc.CreateSession("extra", nil)

	assert.ErrorIs(t, err, ErrTooManySessions)
	_, err = svc.Session(DefaultSessionID)
	assert.NoError(t, err)
}

func TestEnsureDefaultSession_Idempotent(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	first := svc.EnsureDefaultSession()
	_, err := svc.AddNode(DefaultSessionID, "A")
	require.NoError(t, err)
	second := svc.EnsureDefaultSession()

	assert.Equal(t, DefaultSessionID, first.ID)
	assert.True(t, second.Pinned)
	assert.Equal(t, 1, second.Stats.NodeCount, "existing default session is kept")
	assert.Equal(t, 1, svc.SessionCount())
}

func TestListSessions_OrderedByCreation(t *testing.T) {
	clock := newFakeClock()
	svc := NewService(DefaultServiceConfig(), WithClock(clock.Now))

	var ids []string
	for i := range 3 {
		info, _, err := svc.CreateSession(fmt.Sprintf("s%d", i), nil)
		require.NoError(t, err)
		ids = append(ids, info.ID)
		clock.Advance(time.Minute)
	}

	list := svc.ListSessions()
	require.Len(t, list, 3)
	for i, info := range list {
		assert.Equal(t, ids[i], info.ID)
	}
}

func TestDeleteSession(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	id := newDiamondSession(t, svc)
	svc.EnsureDefaultSession()

	require.NoError(t, svc.DeleteSession(id))
	assert.ErrorIs(t, svc.DeleteSession(id), ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(DefaultSessionID), ErrDefaultSessionPinned)

	_, err := svc.AddNode(id, "X")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionTTL(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultServiceConfig()
	cfg.SessionTTL = time.Minute
	svc := NewService(cfg, WithClock(clock.Now))

	stale := newDiamondSession(t, svc)
	svc.EnsureDefaultSession()
	clock.Advance(30 * time.Second)
	fresh := newDiamondSession(t, svc)

	clock.Advance(45 * time.Second)

	_, err := svc.Session(stale)
	assert.ErrorIs(t, err, ErrSessionExpired)
	_, err = svc.Session(stale)
	assert.ErrorIs(t, err, ErrSessionNotFound, "expired sessions are removed")

	_, err = svc.Session(fresh)
	assert.NoError(t, err, "access within the TTL")

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, svc.Sweep())
	assert.Equal(t, 1, svc.SessionCount(), "the pinned default session never expires")
}

func TestRun(t *testing.T) {
	t.Run("returns immediately without a TTL", func(t *testing.T) {
		cfg := DefaultServiceConfig()
		cfg.SessionTTL = 0
		svc := NewService(cfg)
		assert.NoError(t, svc.Run(context.Background()))
	})

	t.Run("stops on cancel", func(t *testing.T) {
		svc := NewService(DefaultServiceConfig())
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- svc.Run(ctx) }()
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not stop")
		}
	})
}

// =============================================================================
// Graph operations
// =============================================================================

func TestMutations_ReportSoftFailures(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	info, _, err := svc.CreateSession("", nil)
	require.NoError(t, err)
	id := info.ID

	tests := []struct {
		name    string
		run     func() (MutationResponse, error)
		applied bool
		result  string
	}{
		{"add A", func() (MutationResponse, error) { return svc.AddNode(id, "A") }, true, "applied"},
		{"add B", func() (MutationResponse, error) { return svc.AddNode(id, " B ") }, true, "applied"},
		{"add A again", func() (MutationResponse, error) { return svc.AddNode(id, "A") }, false, "duplicate_node"},
		{"add blank", func() (MutationResponse, error) { return svc.AddNode(id, "  ") }, false, "invalid_id"},
		{"edge A-B", func() (MutationResponse, error) { return svc.AddEdge(id, "A", "B") }, true, "applied"},
		{"edge B-A", func() (MutationResponse, error) { return svc.AddEdge(id, "B", "A") }, false, "duplicate_edge"},
		{"self loop", func() (MutationResponse, error) { return svc.AddEdge(id, "A", "A") }, false, "self_loop"},
		{"edge to Z", func() (MutationResponse, error) { return svc.AddEdge(id, "A", "Z") }, false, "node_not_found"},
		{"position A", func() (MutationResponse, error) { return svc.SetPosition(id, "A", 3, 4) }, true, "applied"},
		{"position Z", func() (MutationResponse, error) { return svc.SetPosition(id, "Z", 3, 4) }, false, "node_not_found"},
		{"remove A-B", func() (MutationResponse, error) { return svc.RemoveEdge(id, "B", "A") }, true, "applied"},
		{"remove A-B again", func() (MutationResponse, error) { return svc.RemoveEdge(id, "A", "B") }, false, "edge_not_found"},
		{"remove B", func() (MutationResponse, error) { return svc.RemoveNode(id, "B") }, true, "applied"},
		{"remove B again", func() (MutationResponse, error) { return svc.RemoveNode(id, "B") }, false, "node_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.run()
			require.NoError(t, err)
			assert.Equal(t, tt.applied, resp.Applied)
			assert.Equal(t, tt.result, resp.Result)
		})
	}

	snap, err := svc.Snapshot(id)
	require.NoError(t, err)
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "A", snap.Nodes[0].ID)
	assert.Zero(t, snap.Stats.EdgeCount)
}

func TestMutations_RespectMaxNodes(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.MaxNodesPerGraph = 1
	svc := NewService(cfg)
	info, _, err := svc.CreateSession("", nil)
	require.NoError(t, err)

	_, err = svc.AddNode(info.ID, "A")
	require.NoError(t, err)
	resp, err := svc.AddNode(info.ID, "B")
	require.NoError(t, err)

	assert.False(t, resp.Applied)
	assert.Equal(t, "capacity_exceeded", resp.Result)
}

func TestPositionAndNeighbors(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	id := newDiamondSession(t, svc)

	_, err := svc.Position(id, "A")
	assert.ErrorIs(t, err, ErrPositionNotSet)
	_, err = svc.Position(id, "Q")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = svc.SetPosition(id, "A", -2, 7)
	require.NoError(t, err)
	pos, err := svc.Position(id, " A ")
	require.NoError(t, err)
	assert.Equal(t, PositionResponse{Node: "A", X: -2, Y: 7}, pos)

	n, err := svc.Neighbors(id, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D"}, n.Neighbors)
	assert.Equal(t, 2, n.Degree)

	n, err = svc.Neighbors(id, "Q")
	require.NoError(t, err)
	assert.Empty(t, n.Neighbors)
	assert.NotNil(t, n.Neighbors)
}

func TestFindPath(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	id := newDiamondSession(t, svc)

	last, err := svc.LastResult(id)
	require.NoError(t, err)
	assert.Equal(t, routing.OutcomeNone, last.Outcome)
	assert.Empty(t, last.Log)

	res, err := svc.FindPath(context.Background(), id, "A", "C")
	require.NoError(t, err)
	assert.Equal(t, routing.OutcomeFound, res.Outcome)
	assert.Equal(t, []string{"A", "B", "C"}, res.Path)
	assert.Equal(t, []string{"A", "B", "D", "C"}, res.VisitOrder)
	assert.Equal(t, "Shortest path: [A, B, C]", res.Log[len(res.Log)-1])

	last, err = svc.LastResult(id)
	require.NoError(t, err)
	assert.Equal(t, res.Path, last.Path)
	assert.Equal(t, res.Log, last.Log)

	dot, err := svc.DOT(id)
	require.NoError(t, err)
	assert.Contains(t, dot, `"A" -- "B" [color=red, penwidth=2];`)

	res, err = svc.FindPath(context.Background(), id, "A", "nowhere")
	require.NoError(t, err, "unknown endpoints are an outcome, not an error")
	assert.Equal(t, routing.OutcomeInvalidInput, res.Outcome)
	assert.Equal(t, []string{"Invalid source or destination node."}, res.Log)

	_, err = svc.FindPath(context.Background(), "missing", "A", "C")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestApplyTopology(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	id := newDiamondSession(t, svc)

	_, err := svc.FindPath(context.Background(), id, "A", "C")
	require.NoError(t, err)

	extra := &topology.Document{
		Nodes: []topology.NodeSpec{{ID: "E"}, {ID: "A"}},
		Edges: []topology.EdgeSpec{{From: "C", To: "E"}},
	}

	t.Run("merge", func(t *testing.T) {
		resp, err := svc.ApplyTopology(id, extra, false)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Report.NodesAdded)
		assert.Equal(t, 1, resp.Report.EdgesAdded)
		require.Len(t, resp.Report.Skipped, 1)
		assert.Equal(t, "duplicate_node", resp.Report.Skipped[0].Result)
		assert.Equal(t, 5, resp.Stats.NodeCount)

		last, err := svc.LastResult(id)
		require.NoError(t, err)
		assert.Equal(t, routing.OutcomeFound, last.Outcome, "merging keeps the last search")
	})

	t.Run("replace", func(t *testing.T) {
		resp, err := svc.ApplyTopology(id, extra, true)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Stats.NodeCount)
		assert.Zero(t, resp.Stats.EdgeCount, "C is not declared, so C-E is skipped")

		last, err := svc.LastResult(id)
		require.NoError(t, err)
		assert.Equal(t, routing.OutcomeNone, last.Outcome, "replacing discards the last search")
	})

	t.Run("errors", func(t *testing.T) {
		_, err := svc.ApplyTopology(id, nil, false)
		assert.ErrorIs(t, err, ErrNilDocument)

		_, err = svc.ApplyTopology(id, &topology.Document{Nodes: []topology.NodeSpec{{}}}, false)
		assert.ErrorIs(t, err, topology.ErrInvalidDocument)
	})
}

func TestReloadDefault(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	svc.ReloadDefault(context.Background(), diamondDoc())
	info, err := svc.Session(DefaultSessionID)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Stats.NodeCount)

	smaller := &topology.Document{Nodes: []topology.NodeSpec{{ID: "solo"}}}
	svc.ReloadDefault(context.Background(), smaller)
	info, err = svc.Session(DefaultSessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Stats.NodeCount, "reload replaces the graph")

	// An invalid document leaves the graph as it was.
	svc.ReloadDefault(context.Background(), &topology.Document{Edges: []topology.EdgeSpec{{}}})
	info, err = svc.Session(DefaultSessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Stats.NodeCount)
}

func TestConcurrentSearchAndEdit(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	id := newDiamondSession(t, svc)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				res, err := svc.FindPath(context.Background(), id, "A", "C")
				assert.NoError(t, err)
				// The lock covers the whole search, so a path is always
				// consistent with a single graph state.
				if res.Outcome == routing.OutcomeFound {
					assert.Equal(t, "A", res.Path[0])
					assert.Equal(t, "C", res.Path[len(res.Path)-1])
				}
			}
		}()
		go func(i int) {
			defer wg.Done()
			node := fmt.Sprintf("N%d", i)
			for range 50 {
				_, _ = svc.AddNode(id, node)
				_, _ = svc.AddEdge(id, "A", node)
				_, _ = svc.AddEdge(id, node, "C")
				_, _ = svc.RemoveNode(id, node)
			}
		}(i)
	}
	wg.Wait()

	snap, err := svc.Snapshot(id)
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 4)
}
