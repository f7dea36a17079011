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
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/AleutianAI/HopRoute/services/hoproute/telemetry"
	"github.com/AleutianAI/HopRoute/services/hoproute/topology"
	"github.com/gin-gonic/gin"
)

// ServiceVersion is the HopRoute service version.
const ServiceVersion = "0.1.0"

// Handlers contains the HTTP handlers for HopRoute.
type Handlers struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandlers creates handlers for the given service. A nil logger
// discards output.
func NewHandlers(svc *Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handlers{svc: svc, logger: logger}
}

// requestLogger returns a logger tagged with the request ID, handler name,
// and trace IDs when the request is traced.
func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	logger := h.logger.With("request_id", getOrCreateRequestID(c), "handler", handler)
	return telemetry.LoggerWithTrace(c.Request.Context(), logger)
}

// writeError maps service errors to HTTP status codes and error codes.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	switch {
	case errors.Is(err, ErrSessionNotFound):
		status, code = http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, ErrSessionExpired):
		status, code = http.StatusGone, "SESSION_EXPIRED"
	case errors.Is(err, ErrTooManySessions):
		status, code = http.StatusServiceUnavailable, "TOO_MANY_SESSIONS"
	case errors.Is(err, ErrDefaultSessionPinned):
		status, code = http.StatusConflict, "SESSION_PINNED"
	case errors.Is(err, ErrNodeNotFound):
		status, code = http.StatusNotFound, "NODE_NOT_FOUND"
	case errors.Is(err, ErrPositionNotSet):
		status, code = http.StatusNotFound, "POSITION_NOT_SET"
	case errors.Is(err, ErrNilDocument),
		errors.Is(err, topology.ErrInvalidDocument),
		errors.Is(err, topology.ErrUnsupportedFormat):
		status, code = http.StatusBadRequest, "INVALID_TOPOLOGY"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	} else {
		logger.Warn("Request rejected", "error", err, "code", code)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: "Invalid request body",
		Code:  "INVALID_REQUEST",
	})
}

// HandleHealth handles GET /health.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		Version:  ServiceVersion,
		Sessions: h.svc.SessionCount(),
	})
}

// =============================================================================
// Sessions
// =============================================================================

// HandleCreateSession handles POST /v1/hoproute/sessions.
//
// Description:
//
//	Creates an empty session, optionally seeded with an inline topology.
//	An empty body is accepted.
//
// Response:
//
//	201 Created: CreateSessionResponse
//	400 Bad Request: Invalid body or topology
//	503 Service Unavailable: Session cap reached
func (h *Handlers) HandleCreateSession(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCreateSession")

	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, logger, err)
			return
		}
	}

	info, report, err := h.svc.CreateSession(req.Name, req.Topology)
	if err != nil {
		writeError(c, logger, err)
		return
	}

	logger.Info("Session created", "session_id", info.ID, "nodes", info.Stats.NodeCount)
	c.JSON(http.StatusCreated, CreateSessionResponse{Session: info, Report: report})
}

// HandleListSessions handles GET /v1/hoproute/sessions.
func (h *Handlers) HandleListSessions(c *gin.Context) {
	sessions := h.svc.ListSessions()
	c.JSON(http.StatusOK, SessionListResponse{Sessions: sessions, Count: len(sessions)})
}

// HandleGetSession handles GET /v1/hoproute/sessions/:id.
func (h *Handlers) HandleGetSession(c *gin.Context) {
	logger := h.requestLogger(c, "HandleGetSession")

	info, err := h.svc.Session(c.Param("id"))
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// HandleDeleteSession handles DELETE /v1/hoproute/sessions/:id.
//
// Response:
//
//	204 No Content
//	404 Not Found: Unknown session
//	409 Conflict: The default session
func (h *Handlers) HandleDeleteSession(c *gin.Context) {
	logger := h.requestLogger(c, "HandleDeleteSession")

	if err := h.svc.DeleteSession(c.Param("id")); err != nil {
		writeError(c, logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// =============================================================================
// Graph editing
// =============================================================================

// respondMutation writes a mutation result. Rejected mutations are still
// 200: the graph is unchanged and Result says why.
func respondMutation(c *gin.Context, logger *slog.Logger, resp MutationResponse, err error) {
	if err != nil {
		writeError(c, logger, err)
		return
	}
	if !resp.Applied {
		logger.Debug("Mutation ignored", "result", resp.Result)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleAddNode handles POST /v1/hoproute/sessions/:id/nodes.
//
// Request Body:
//
//	NodeRequest
//
// Response:
//
//	200 OK: MutationResponse
func (h *Handlers) HandleAddNode(c *gin.Context) {
	logger := h.requestLogger(c, "HandleAddNode")

	var req NodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}

	resp, err := h.svc.AddNode(c.Param("id"), req.ID)
	respondMutation(c, logger, resp, err)
}

// HandleRemoveNode handles DELETE /v1/hoproute/sessions/:id/nodes/:node.
func (h *Handlers) HandleRemoveNode(c *gin.Context) {
	logger := h.requestLogger(c, "HandleRemoveNode")
	resp, err := h.svc.RemoveNode(c.Param("id"), c.Param("node"))
	respondMutation(c, logger, resp, err)
}

// HandleAddEdge handles POST /v1/hoproute/sessions/:id/edges.
//
// Request Body:
//
//	EdgeRequest
func (h *Handlers) HandleAddEdge(c *gin.Context) {
	logger := h.requestLogger(c, "HandleAddEdge")

	var req EdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}

	resp, err := h.svc.AddEdge(c.Param("id"), req.From, req.To)
	respondMutation(c, logger, resp, err)
}

// HandleRemoveEdge handles DELETE /v1/hoproute/sessions/:id/edges.
//
// Request Body:
//
//	EdgeRequest
func (h *Handlers) HandleRemoveEdge(c *gin.Context) {
	logger := h.requestLogger(c, "HandleRemoveEdge")

	var req EdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}

	resp, err := h.svc.RemoveEdge(c.Param("id"), req.From, req.To)
	respondMutation(c, logger, resp, err)
}

// HandleSetPosition handles PUT /v1/hoproute/sessions/:id/nodes/:node/position.
//
// Request Body:
//
//	PositionRequest
func (h *Handlers) HandleSetPosition(c *gin.Context) {
	logger := h.requestLogger(c, "HandleSetPosition")

	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}

	resp, err := h.svc.SetPosition(c.Param("id"), c.Param("node"), *req.X, *req.Y)
	respondMutation(c, logger, resp, err)
}

// =============================================================================
// Graph queries
// =============================================================================

// HandleGetPosition handles GET /v1/hoproute/sessions/:id/nodes/:node/position.
//
// Response:
//
//	200 OK: PositionResponse
//	404 Not Found: Unknown session, unknown node, or no position set
func (h *Handlers) HandleGetPosition(c *gin.Context) {
	logger := h.requestLogger(c, "HandleGetPosition")

	resp, err := h.svc.Position(c.Param("id"), c.Param("node"))
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleNeighbors handles GET /v1/hoproute/sessions/:id/nodes/:node/neighbors.
//
// An unknown node returns an empty list.
func (h *Handlers) HandleNeighbors(c *gin.Context) {
	logger := h.requestLogger(c, "HandleNeighbors")

	resp, err := h.svc.Neighbors(c.Param("id"), c.Param("node"))
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGraph handles GET /v1/hoproute/sessions/:id/graph.
//
// Response:
//
//	200 OK: graph.Snapshot
func (h *Handlers) HandleGraph(c *gin.Context) {
	logger := h.requestLogger(c, "HandleGraph")

	snap, err := h.svc.Snapshot(c.Param("id"))
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// HandleGraphDOT handles GET /v1/hoproute/sessions/:id/graph.dot.
//
// The last path found in the session is highlighted.
func (h *Handlers) HandleGraphDOT(c *gin.Context) {
	logger := h.requestLogger(c, "HandleGraphDOT")

	dot, err := h.svc.DOT(c.Param("id"))
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(dot))
}

// HandleLoadTopology handles POST /v1/hoproute/sessions/:id/topology.
//
// Description:
//
//	Applies an inline JSON document, or parses Source as YAML or HCL.
//	Entries the graph rejects are skipped and listed in the report.
//
// Response:
//
//	200 OK: TopologyResponse
//	400 Bad Request: Malformed or invalid document
func (h *Handlers) HandleLoadTopology(c *gin.Context) {
	logger := h.requestLogger(c, "HandleLoadTopology")

	var req TopologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}

	doc := req.Document
	if doc == nil && req.Source != "" {
		format := topology.FormatYAML
		if req.Format != "" {
			parsed, err := topology.ParseFormat(req.Format)
			if err != nil {
				writeError(c, logger, err)
				return
			}
			format = parsed
		}

		parsed, err := topology.Parse([]byte(req.Source), "request", format)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		doc = parsed
	}

	resp, err := h.svc.ApplyTopology(c.Param("id"), doc, req.Replace)
	if err != nil {
		writeError(c, logger, err)
		return
	}

	logger.Info("Topology loaded",
		"nodes_added", resp.Report.NodesAdded,
		"edges_added", resp.Report.EdgesAdded,
		"skipped", len(resp.Report.Skipped))
	c.JSON(http.StatusOK, resp)
}

// =============================================================================
// Routing
// =============================================================================

// HandleFindPath handles POST /v1/hoproute/sessions/:id/path.
//
// Description:
//
//	Runs a shortest-path search. Every search is a 200, including blank
//	or unknown endpoints and unreachable destinations; the result's
//	outcome and log say what happened.
//
// Request Body:
//
//	PathRequest
//
// Response:
//
//	200 OK: routing.Result
func (h *Handlers) HandleFindPath(c *gin.Context) {
	logger := h.requestLogger(c, "HandleFindPath")

	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}

	result, err := h.svc.FindPath(c.Request.Context(), c.Param("id"), req.Source, req.Destination)
	if err != nil {
		writeError(c, logger, err)
		return
	}

	logger.Info("Path search complete",
		"source", result.Source,
		"destination", result.Destination,
		"outcome", result.Outcome.String(),
		"hops", result.Hops)
	c.JSON(http.StatusOK, result)
}

// HandleLastPath handles GET /v1/hoproute/sessions/:id/path/last.
//
// Returns the session's most recent search with its log and visit order.
func (h *Handlers) HandleLastPath(c *gin.Context) {
	logger := h.requestLogger(c, "HandleLastPath")

	result, err := h.svc.LastResult(c.Param("id"))
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
