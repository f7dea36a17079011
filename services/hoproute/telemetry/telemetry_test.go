// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")

	cfg := DefaultConfig()

	assert.Equal(t, "hoproute", cfg.ServiceName)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
}

func TestDefaultConfig_EnvOverride(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
	t.Setenv("HOPROUTE_ENV", "staging")

	cfg := DefaultConfig()

	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, "staging", cfg.Environment)
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_NoopExporters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_StdoutTraces(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_PrometheusMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "prometheus"

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.NotNil(t, MetricsHandler())
}

func TestInit_UnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "zipkin"

	_, err := Init(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnknownExporter)

	cfg.TraceExporter = "none"
	cfg.MetricExporter = "statsd"
	_, err = Init(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnknownExporter)
	assert.ErrorContains(t, err, `metric exporter "statsd"`)
}

func TestInit_UnknownMetricExporterInstallsNothing(t *testing.T) {
	before := otel.GetTracerProvider()

	cfg := DefaultConfig()
	cfg.TraceExporter = ExporterStdout
	cfg.MetricExporter = "statsd"

	_, err := Init(context.Background(), cfg)
	require.ErrorIs(t, err, ErrUnknownExporter)
	assert.Same(t, before, otel.GetTracerProvider())
}

func TestInit_StdoutMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = ExporterNone
	cfg.MetricExporter = ExporterStdout

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestShutdownChain(t *testing.T) {
	var order []string
	errFirst := errors.New("first failed")
	errLast := errors.New("last failed")

	chain := shutdownChain{
		func(context.Context) error { order = append(order, "traces"); return errFirst },
		func(context.Context) error { order = append(order, "metrics"); return nil },
		func(context.Context) error { order = append(order, "extra"); return errLast },
	}

	err := chain.run(context.Background())
	assert.Equal(t, []string{"extra", "metrics", "traces"}, order)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errLast)

	assert.NoError(t, shutdownChain(nil).run(context.Background()))
}

func TestLoggerWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// No span: logger is returned unchanged.
	assert.Same(t, logger, LoggerWithTrace(context.Background(), logger))

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	LoggerWithTrace(ctx, logger).Info("hello")
	assert.Contains(t, buf.String(), "trace_id="+span.SpanContext().TraceID().String())
	assert.Contains(t, buf.String(), "span_id=")
}
