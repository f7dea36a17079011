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
	"time"

	"github.com/AleutianAI/HopRoute/services/hoproute/graph"
	"github.com/AleutianAI/HopRoute/services/hoproute/topology"
)

// =============================================================================
// Requests
// =============================================================================

// CreateSessionRequest is the body of POST /v1/hoproute/sessions.
type CreateSessionRequest struct {
	// Name is an optional human label.
	Name string `json:"name" binding:"max=128"`

	// Topology optionally seeds the new session.
	Topology *topology.Document `json:"topology,omitempty"`
}

// NodeRequest is the body of POST /sessions/:id/nodes.
type NodeRequest struct {
	ID string `json:"id" binding:"required"`
}

// EdgeRequest is the body of POST and DELETE /sessions/:id/edges.
type EdgeRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// PositionRequest is the body of PUT /sessions/:id/nodes/:node/position.
type PositionRequest struct {
	X *int `json:"x" binding:"required"`
	Y *int `json:"y" binding:"required"`
}

// TopologyRequest is the body of POST /sessions/:id/topology.
//
// Exactly one of Document or Source should be set. Source is raw text in
// Format ("yaml" or "hcl"; JSON parses as YAML).
type TopologyRequest struct {
	Document *topology.Document `json:"document,omitempty"`
	Source   string             `json:"source,omitempty"`
	Format   string             `json:"format,omitempty" binding:"omitempty,oneof=yaml yml json hcl"`

	// Replace clears the session graph before applying. Otherwise the
	// document is merged into the existing graph.
	Replace bool `json:"replace"`
}

// PathRequest is the body of POST /sessions/:id/path.
//
// Fields are not required: blank or unknown endpoints are a normal search
// outcome ("invalid_input"), not a request error.
type PathRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// =============================================================================
// Responses
// =============================================================================

// SessionInfo describes one session.
type SessionInfo struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CreatedAt  time.Time   `json:"created_at"`
	LastAccess time.Time   `json:"last_access"`
	Pinned     bool        `json:"pinned"`
	Stats      graph.Stats `json:"stats"`
}

// CreateSessionResponse is returned by POST /sessions.
type CreateSessionResponse struct {
	Session SessionInfo           `json:"session"`
	Report  *topology.ApplyReport `json:"report,omitempty"`
}

// SessionListResponse is returned by GET /sessions.
type SessionListResponse struct {
	Sessions []SessionInfo `json:"sessions"`
	Count    int           `json:"count"`
}

// MutationResponse is returned by every graph mutation.
//
// Mutations never fail on graph content: a rejected mutation is a 200
// with Applied=false and Result naming the reason.
type MutationResponse struct {
	Applied bool        `json:"applied"`
	Result  string      `json:"result"`
	Stats   graph.Stats `json:"stats"`
}

// NeighborsResponse is returned by GET /sessions/:id/nodes/:node/neighbors.
type NeighborsResponse struct {
	Node      string   `json:"node"`
	Neighbors []string `json:"neighbors"`
	Degree    int      `json:"degree"`
}

// PositionResponse is returned by GET /sessions/:id/nodes/:node/position.
type PositionResponse struct {
	Node string `json:"node"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// TopologyResponse is returned by POST /sessions/:id/topology.
type TopologyResponse struct {
	Report topology.ApplyReport `json:"report"`
	Stats  graph.Stats          `json:"stats"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
