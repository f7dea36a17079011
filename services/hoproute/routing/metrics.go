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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for routing operations.
var (
	tracer = otel.Tracer("hoproute.routing")
	meter  = otel.Meter("hoproute.routing")
)

// Metrics for search operations.
var (
	searchLatency metric.Float64Histogram
	searchTotal   metric.Int64Counter
	nodesVisited  metric.Int64Histogram
	pathHops      metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		searchLatency, err = meter.Float64Histogram(
			"routing_search_duration_seconds",
			metric.WithDescription("Duration of BFS searches"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchTotal, err = meter.Int64Counter(
			"routing_search_total",
			metric.WithDescription("Total number of BFS searches by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesVisited, err = meter.Int64Histogram(
			"routing_nodes_visited",
			metric.WithDescription("Number of nodes dequeued per search"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pathHops, err = meter.Int64Histogram(
			"routing_path_hops",
			metric.WithDescription("Hop count of returned paths"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordSearchMetrics records metrics for a completed search.
func recordSearchMetrics(ctx context.Context, res Result) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", res.Outcome.String()))

	searchLatency.Record(ctx, res.Duration.Seconds(), attrs)
	searchTotal.Add(ctx, 1, attrs)
	nodesVisited.Record(ctx, int64(len(res.VisitOrder)), attrs)

	if res.Outcome.HasPath() {
		pathHops.Record(ctx, int64(res.Hops))
	}
}

// startSearchSpan creates a span for a search.
func startSearchSpan(ctx context.Context, source, destination string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Router.FindPath",
		trace.WithAttributes(
			attribute.String("routing.source", source),
			attribute.String("routing.destination", destination),
		),
	)
}

// setSearchSpanResult sets the result attributes on a search span.
func setSearchSpanResult(span trace.Span, res Result) {
	span.SetAttributes(
		attribute.String("routing.outcome", res.Outcome.String()),
		attribute.Int("routing.hops", res.Hops),
		attribute.Int("routing.visited", len(res.VisitOrder)),
	)
	if res.Outcome == OutcomeInvalidInput {
		span.SetStatus(codes.Error, "invalid source or destination")
	}
}
