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
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RegisterRoutes registers all HopRoute routes with the router.
//
// Description:
//
//	Registers all /v1/hoproute/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Session Endpoints:
//
//	POST   /v1/hoproute/sessions - Create a session
//	GET    /v1/hoproute/sessions - List sessions
//	GET    /v1/hoproute/sessions/:id - Get a session
//	DELETE /v1/hoproute/sessions/:id - Delete a session
//
// Graph Endpoints:
//
//	POST   /v1/hoproute/sessions/:id/nodes - Add a node
//	DELETE /v1/hoproute/sessions/:id/nodes/:node - Remove a node
//	PUT    /v1/hoproute/sessions/:id/nodes/:node/position - Set a position
//	GET    /v1/hoproute/sessions/:id/nodes/:node/position - Get a position
//	GET    /v1/hoproute/sessions/:id/nodes/:node/neighbors - List neighbors
//	POST   /v1/hoproute/sessions/:id/edges - Add an edge
//	DELETE /v1/hoproute/sessions/:id/edges - Remove an edge
//	GET    /v1/hoproute/sessions/:id/graph - Snapshot as JSON
//	GET    /v1/hoproute/sessions/:id/graph.dot - Graphviz rendering
//	POST   /v1/hoproute/sessions/:id/topology - Load a topology document
//
// Routing Endpoints:
//
//	POST   /v1/hoproute/sessions/:id/path - Find a shortest path
//	GET    /v1/hoproute/sessions/:id/path/last - Last search with its log
//
// Example:
//
//	service := hoproute.NewService(hoproute.DefaultServiceConfig())
//	handlers := hoproute.NewHandlers(service, logger)
//
//	v1 := router.Group("/v1")
//	hoproute.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	sessions := rg.Group("/hoproute/sessions")
	{
		sessions.POST("", handlers.HandleCreateSession)
		sessions.GET("", handlers.HandleListSessions)
		sessions.GET("/:id", handlers.HandleGetSession)
		sessions.DELETE("/:id", handlers.HandleDeleteSession)

		// Graph editing
		sessions.POST("/:id/nodes", handlers.HandleAddNode)
		sessions.DELETE("/:id/nodes/:node", handlers.HandleRemoveNode)
		sessions.PUT("/:id/nodes/:node/position", handlers.HandleSetPosition)
		sessions.GET("/:id/nodes/:node/position", handlers.HandleGetPosition)
		sessions.GET("/:id/nodes/:node/neighbors", handlers.HandleNeighbors)
		sessions.POST("/:id/edges", handlers.HandleAddEdge)
		sessions.DELETE("/:id/edges", handlers.HandleRemoveEdge)

		// Whole-graph views and loading
		sessions.GET("/:id/graph", handlers.HandleGraph)
		sessions.GET("/:id/graph.dot", handlers.HandleGraphDOT)
		sessions.POST("/:id/topology", handlers.HandleLoadTopology)

		// Routing
		sessions.POST("/:id/path", handlers.HandleFindPath)
		sessions.GET("/:id/path/last", handlers.HandleLastPath)
	}
}

// EngineConfig configures NewEngine.
type EngineConfig struct {
	// ServiceName names the otelgin spans.
	ServiceName string

	// Debug enables gin's request logger.
	Debug bool

	// RateLimit and RateBurst bound /v1 traffic. Zero RateLimit disables it.
	RateLimit float64
	RateBurst int

	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler
}

// NewEngine builds the complete gin engine: recovery, tracing, request IDs,
// /health, /metrics, and the rate-limited /v1 API.
func NewEngine(handlers *Handlers, cfg EngineConfig) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	if cfg.Debug {
		engine.Use(gin.Logger())
	}
	if cfg.ServiceName != "" {
		engine.Use(otelgin.Middleware(cfg.ServiceName))
	}
	engine.Use(RequestID())

	engine.GET("/health", handlers.HandleHealth)
	if cfg.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	v1 := engine.Group("/v1")
	v1.Use(RateLimit(cfg.RateLimit, cfg.RateBurst))
	RegisterRoutes(v1, handlers)

	return engine
}
