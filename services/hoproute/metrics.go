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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hoproute_sessions_active",
		Help: "Number of live graph sessions",
	})

	sessionsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoproute_sessions_removed_total",
		Help: "Sessions removed by reason (deleted, ttl, capacity)",
	}, []string{"reason"})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoproute_mutations_total",
		Help: "Graph mutations by operation and result",
	}, []string{"op", "result"})

	pathRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoproute_path_requests_total",
		Help: "Path searches by outcome",
	}, []string{"outcome"})

	topologyLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoproute_topology_loads_total",
		Help: "Topology documents applied, by source (api, file)",
	}, []string{"source"})
)
