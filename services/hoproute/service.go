// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package hoproute provides the HopRoute HTTP service.
//
// The service owns many independent graph sessions. Each session holds one
// Graph and one Router behind a single mutex, so a search never observes a
// graph that is being edited. Sessions are exposed over a gin API:
//   - Creating, listing, and deleting sessions
//   - Editing nodes, edges, and positions
//   - Loading YAML or HCL topology documents
//   - Running shortest-path searches and reading back their trace
package hoproute

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/HopRoute/services/hoproute/graph"
	"github.com/AleutianAI/HopRoute/services/hoproute/routing"
	"github.com/AleutianAI/HopRoute/services/hoproute/topology"
	"github.com/google/uuid"
)

// DefaultSessionID is the ID of the pinned session seeded from the
// configured topology file.
const DefaultSessionID = "default"

// ServiceConfig configures the HopRoute service.
type ServiceConfig struct {
	// MaxSessions is the maximum number of live sessions. Creating one more
	// evicts the least recently used unpinned session.
	// Default: 256
	MaxSessions int

	// SessionTTL removes unpinned sessions idle for longer than this.
	// Default: 1h. Zero disables expiry.
	SessionTTL time.Duration

	// MaxNodesPerGraph bounds every session graph.
	// Default: 100,000. Zero disables the limit.
	MaxNodesPerGraph int
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxSessions:      256,
		SessionTTL:       time.Hour,
		MaxNodesPerGraph: 100_000,
	}
}

// ServiceOption is a functional option for configuring Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now. Used by tests to drive expiry.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// session is one graph with its router.
type session struct {
	id        string
	name      string
	createdAt time.Time
	pinned    bool

	// lastAccess is unix nanoseconds, read without holding mu.
	lastAccess atomic.Int64

	// mu guards graph and router, including for the full length of a search.
	mu     sync.Mutex
	graph  *graph.Graph
	router *routing.Router
	opts   []graph.GraphOption
	logger *slog.Logger
}

func (s *session) touch(now time.Time) {
	s.lastAccess.Store(now.UnixNano())
}

func (s *session) lastAccessTime() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

// reset replaces the graph and router with empty ones. Caller must hold mu.
func (s *session) reset() {
	s.graph = graph.NewGraph(s.opts...)
	s.router = routing.NewRouter(s.graph, routing.WithLogger(s.logger))
}

// info builds a SessionInfo. Caller must hold mu.
func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:         s.id,
		Name:       s.name,
		CreatedAt:  s.createdAt,
		LastAccess: s.lastAccessTime(),
		Pinned:     s.pinned,
		Stats:      s.graph.Stats(),
	}
}

// Service is the HopRoute session service.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Operations on different sessions
//	run in parallel; operations on one session are serialized.
type Service struct {
	config   ServiceConfig
	logger   *slog.Logger
	now      func() time.Time
	sessions map[string]*session
	mu       sync.RWMutex
}

// NewService creates a service with no sessions.
func NewService(config ServiceConfig, opts ...ServiceOption) *Service {
	svc := &Service{
		config:   config,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// =============================================================================
// Session lifecycle
// =============================================================================

// CreateSession creates a new session and optionally seeds it.
//
// Description:
//
//	Allocates a uuid-keyed session with an empty graph. When the service is
//	at capacity the least recently used unpinned session is evicted first.
//	If doc is non-nil it is validated and applied to the new graph.
//
// Inputs:
//
//	name - Optional label.
//	doc - Optional topology to seed the graph with.
//
// Outputs:
//
//	SessionInfo - The new session.
//	*topology.ApplyReport - The seed report, or nil when doc is nil.
//	error - topology.ErrInvalidDocument, or ErrTooManySessions.
func (s *Service) CreateSession(name string, doc *topology.Document) (SessionInfo, *topology.ApplyReport, error) {
	if doc != nil {
		if err := doc.Validate(); err != nil {
			return SessionInfo{}, nil, err
		}
	}

	sess, err := s.insert(uuid.NewString(), name, false)
	if err != nil {
		return SessionInfo{}, nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	var report *topology.ApplyReport
	if doc != nil {
		r := topology.Apply(sess.graph, doc)
		report = &r
		topologyLoadsTotal.WithLabelValues("api").Inc()
	}

	s.logger.Info("session created",
		slog.String("session_id", sess.id),
		slog.String("name", name),
		slog.Int("nodes", sess.graph.NodeCount()))

	return sess.info(), report, nil
}

// EnsureDefaultSession returns the pinned default session, creating it
// if needed. The default session never expires and is never evicted.
func (s *Service) EnsureDefaultSession() SessionInfo {
	s.mu.RLock()
	sess, ok := s.sessions[DefaultSessionID]
	s.mu.RUnlock()

	if !ok {
		// Pinned inserts skip the capacity check and cannot fail.
		sess, _ = s.insert(DefaultSessionID, "default", true)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.info()
}

// insert adds a session, evicting as needed. An existing pinned session
// with the same ID is returned as is.
func (s *Service) insert(id, name string, pinned bool) (*session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}

	if !pinned {
		for s.config.MaxSessions > 0 && len(s.sessions) >= s.config.MaxSessions {
			if !s.evictOldestLocked() {
				return nil, fmt.Errorf("%w: limit is %d", ErrTooManySessions, s.config.MaxSessions)
			}
		}
	}

	logger := s.logger.With(slog.String("session_id", id))
	sess := &session{
		id:        id,
		name:      name,
		createdAt: now,
		pinned:    pinned,
		logger:    logger,
		opts: []graph.GraphOption{
			graph.WithMaxNodes(s.config.MaxNodesPerGraph),
			graph.WithLogger(logger),
		},
	}
	sess.touch(now)
	sess.reset()

	s.sessions[id] = sess
	sessionsActive.Set(float64(len(s.sessions)))
	return sess, nil
}

// evictOldestLocked removes the least recently used unpinned session.
// Caller must hold the write lock.
func (s *Service) evictOldestLocked() bool {
	var oldest *session
	for _, sess := range s.sessions {
		if sess.pinned {
			continue
		}
		if oldest == nil || sess.lastAccess.Load() < oldest.lastAccess.Load() {
			oldest = sess
		}
	}
	if oldest == nil {
		return false
	}

	delete(s.sessions, oldest.id)
	sessionsRemoved.WithLabelValues("capacity").Inc()
	s.logger.Info("session evicted", slog.String("session_id", oldest.id))
	return true
}

// Session returns information about one session.
func (s *Service) Session(id string) (SessionInfo, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.info(), nil
}

// ListSessions returns all live sessions ordered by creation time.
//
// Listing does not count as access and does not extend TTLs.
func (s *Service) ListSessions() []SessionInfo {
	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	slices.SortFunc(sessions, func(a, b *session) int {
		if c := a.createdAt.Compare(b.createdAt); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	infos := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		infos = append(infos, sess.info())
		sess.mu.Unlock()
	}
	return infos
}

// DeleteSession removes a session.
//
// Outputs:
//
//	error - ErrSessionNotFound, or ErrDefaultSessionPinned.
func (s *Service) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if sess.pinned {
		return ErrDefaultSessionPinned
	}

	delete(s.sessions, id)
	sessionsActive.Set(float64(len(s.sessions)))
	sessionsRemoved.WithLabelValues("deleted").Inc()
	s.logger.Info("session deleted", slog.String("session_id", id))
	return nil
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// lookup finds a live session and marks it accessed. An expired session
// is removed and reported as ErrSessionExpired.
func (s *Service) lookup(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	now := s.now()
	if s.expired(sess, now) {
		s.remove(sess, "ttl")
		return nil, fmt.Errorf("%w: %s", ErrSessionExpired, id)
	}

	sess.touch(now)
	return sess, nil
}

func (s *Service) expired(sess *session, now time.Time) bool {
	if sess.pinned || s.config.SessionTTL <= 0 {
		return false
	}
	return now.Sub(sess.lastAccessTime()) > s.config.SessionTTL
}

// remove deletes sess if it is still the session stored under its ID.
func (s *Service) remove(sess *session, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.sessions[sess.id]; !ok || current != sess {
		return false
	}
	delete(s.sessions, sess.id)
	sessionsActive.Set(float64(len(s.sessions)))
	sessionsRemoved.WithLabelValues(reason).Inc()
	s.logger.Info("session removed", slog.String("session_id", sess.id), slog.String("reason", reason))
	return true
}

// Sweep removes every expired session and returns how many were removed.
func (s *Service) Sweep() int {
	now := s.now()

	s.mu.RLock()
	var stale []*session
	for _, sess := range s.sessions {
		if s.expired(sess, now) {
			stale = append(stale, sess)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, sess := range stale {
		if s.remove(sess, "ttl") {
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions periodically until ctx is cancelled.
//
// The interval is half the TTL, at least one second. Run returns nil
// immediately when expiry is disabled.
func (s *Service) Run(ctx context.Context) error {
	if s.config.SessionTTL <= 0 {
		return nil
	}

	interval := max(s.config.SessionTTL/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("expired sessions swept", slog.Int("count", n))
			}
		}
	}
}

// =============================================================================
// Graph operations
// =============================================================================

// mutate runs fn on the session graph under the session lock.
func (s *Service) mutate(id, op string, fn func(g *graph.Graph) graph.MutationResult) (MutationResponse, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return MutationResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	result := fn(sess.graph)
	mutationsTotal.WithLabelValues(op, result.String()).Inc()

	return MutationResponse{
		Applied: result.Applied(),
		Result:  result.String(),
		Stats:   sess.graph.Stats(),
	}, nil
}

// AddNode adds a node to the session graph.
func (s *Service) AddNode(id, node string) (MutationResponse, error) {
	return s.mutate(id, "add_node", func(g *graph.Graph) graph.MutationResult {
		return g.AddNode(node)
	})
}

// RemoveNode removes a node and its edges from the session graph.
func (s *Service) RemoveNode(id, node string) (MutationResponse, error) {
	return s.mutate(id, "remove_node", func(g *graph.Graph) graph.MutationResult {
		return g.RemoveNode(node)
	})
}

// AddEdge adds an undirected edge to the session graph.
func (s *Service) AddEdge(id, from, to string) (MutationResponse, error) {
	return s.mutate(id, "add_edge", func(g *graph.Graph) graph.MutationResult {
		return g.AddEdge(from, to)
	})
}

// RemoveEdge removes an undirected edge from the session graph.
func (s *Service) RemoveEdge(id, from, to string) (MutationResponse, error) {
	return s.mutate(id, "remove_edge", func(g *graph.Graph) graph.MutationResult {
		return g.RemoveEdge(from, to)
	})
}

// SetPosition records display coordinates for a node.
func (s *Service) SetPosition(id, node string, x, y int) (MutationResponse, error) {
	return s.mutate(id, "set_position", func(g *graph.Graph) graph.MutationResult {
		return g.SetPosition(node, x, y)
	})
}

// Position returns a node's coordinates.
//
// Outputs:
//
//	error - ErrNodeNotFound when the node is absent, ErrPositionNotSet when
//	        it has no coordinates.
func (s *Service) Position(id, node string) (PositionResponse, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return PositionResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	node = graph.NormalizeID(node)
	if !sess.graph.HasNode(node) {
		return PositionResponse{}, fmt.Errorf("%w: %q", ErrNodeNotFound, node)
	}
	pos, ok := sess.graph.Position(node)
	if !ok {
		return PositionResponse{}, fmt.Errorf("%w: %q", ErrPositionNotSet, node)
	}
	return PositionResponse{Node: node, X: pos.X, Y: pos.Y}, nil
}

// Neighbors returns a node's neighbors in iteration order.
//
// An absent node has no neighbors; that is not an error.
func (s *Service) Neighbors(id, node string) (NeighborsResponse, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return NeighborsResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	neighbors := sess.graph.Neighbors(node)
	return NeighborsResponse{
		Node:      graph.NormalizeID(node),
		Neighbors: neighbors,
		Degree:    len(neighbors),
	}, nil
}

// Snapshot returns a serializable copy of the session graph.
func (s *Service) Snapshot(id string) (graph.Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return graph.Snapshot{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.graph.Snapshot(), nil
}

// DOT renders the session graph in Graphviz format, highlighting the last
// path found, if any.
func (s *Service) DOT(id string) (string, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.graph.ToDOT(sess.router.Result().Path), nil
}

// FindPath runs a shortest-path search on the session graph.
//
// Description:
//
//	Holds the session lock for the entire search, so the search sees one
//	consistent graph. The result replaces the session's last run.
//
// Outputs:
//
//	routing.Result - The full record of the search, including its log.
//	error - ErrSessionNotFound or ErrSessionExpired only. Unknown
//	        endpoints are reported in the result's Outcome.
func (s *Service) FindPath(ctx context.Context, id, source, destination string) (routing.Result, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return routing.Result{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.router.FindPath(ctx, source, destination)
	result := sess.router.Result()
	pathRequestsTotal.WithLabelValues(result.Outcome.String()).Inc()
	return result, nil
}

// LastResult returns the session's most recent search.
//
// Before any search the result has Outcome "none" and an empty log.
func (s *Service) LastResult(id string) (routing.Result, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return routing.Result{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.router.Result(), nil
}

// ApplyTopology applies a document to the session graph.
//
// Description:
//
//	Validates doc, then applies it. With replace, the graph and the last
//	search are discarded first; otherwise doc is merged into the current
//	graph.
//
// Outputs:
//
//	TopologyResponse - The apply report and resulting graph size.
//	error - ErrNilDocument, topology.ErrInvalidDocument, or a lookup error.
func (s *Service) ApplyTopology(id string, doc *topology.Document, replace bool) (TopologyResponse, error) {
	return s.applyTopology(id, doc, replace, "api")
}

func (s *Service) applyTopology(id string, doc *topology.Document, replace bool, source string) (TopologyResponse, error) {
	if doc == nil {
		return TopologyResponse{}, ErrNilDocument
	}
	if err := doc.Validate(); err != nil {
		return TopologyResponse{}, err
	}

	sess, err := s.lookup(id)
	if err != nil {
		return TopologyResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if replace {
		sess.reset()
	}
	report := topology.Apply(sess.graph, doc)
	topologyLoadsTotal.WithLabelValues(source).Inc()

	s.logger.Info("topology applied",
		slog.String("session_id", id),
		slog.String("source", source),
		slog.Bool("replace", replace),
		slog.Int("nodes_added", report.NodesAdded),
		slog.Int("edges_added", report.EdgesAdded),
		slog.Int("skipped", len(report.Skipped)))

	return TopologyResponse{Report: report, Stats: sess.graph.Stats()}, nil
}

// ReloadDefault replaces the default session's graph with doc.
//
// It matches topology.ReloadHandler so a file watcher can drive it.
func (s *Service) ReloadDefault(_ context.Context, doc *topology.Document) {
	s.EnsureDefaultSession()
	if _, err := s.applyTopology(DefaultSessionID, doc, true, "file"); err != nil {
		s.logger.Warn("topology reload rejected", slog.String("error", err.Error()))
	}
}
