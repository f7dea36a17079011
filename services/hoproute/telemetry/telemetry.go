// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry installs the OpenTelemetry providers behind HopRoute's
// spans and instruments.
//
// Two packages emit telemetry without knowing about this one. routing
// opens a "Router.FindPath" span per search and records the
// routing_search_* instruments, and the HTTP engine adds an otelgin span
// per request. Both use the otel globals, so until Init runs they are
// no-ops. Tests and the one-shot CLI commands rely on that. The serve
// command calls Init once at startup.
//
// The Prometheus metric exporter registers on the default registry, the
// same one that holds the service's hoproute_* promauto collectors, so a
// single /metrics endpoint serves both.
//
// # Environment Variables
//
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: prometheus)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//   - HOPROUTE_ENV: deployment.environment resource attribute (default: development)
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Exporter names accepted in Config.TraceExporter and Config.MetricExporter.
const (
	ExporterNone       = "none"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterPrometheus = "prometheus"
)

var (
	// ErrNilContext is returned when Init is called with a nil context.
	ErrNilContext = errors.New("telemetry: nil context")

	// ErrUnknownExporter is returned for an unrecognized exporter name.
	ErrUnknownExporter = errors.New("telemetry: unknown exporter")
)

// Config selects where HopRoute's spans and metrics go.
type Config struct {
	// ServiceName is the service.name resource attribute and the otelgin
	// server name.
	ServiceName string `json:"service_name" yaml:"service_name"`

	// ServiceVersion is the service.version resource attribute. The serve
	// command overwrites it with the binary version.
	ServiceVersion string `json:"service_version" yaml:"service_version"`

	// Environment is the deployment.environment resource attribute.
	Environment string `json:"environment" yaml:"environment"`

	// TraceExporter receives search and request spans: otlp, stdout, or none.
	TraceExporter string `json:"trace_exporter" yaml:"trace_exporter" validate:"oneof=otlp stdout none"`

	// MetricExporter receives the routing_search_* instruments:
	// prometheus, stdout, or none.
	MetricExporter string `json:"metric_exporter" yaml:"metric_exporter" validate:"oneof=prometheus stdout none"`

	// OTLPEndpoint is the gRPC collector address used by the otlp exporter.
	OTLPEndpoint string `json:"otlp_endpoint" yaml:"otlp_endpoint"`

	// OTLPInsecure sends OTLP without TLS, as a local collector expects.
	OTLPInsecure bool `json:"otlp_insecure" yaml:"otlp_insecure"`
}

// DefaultConfig returns the local-run configuration: no span export and
// metrics on /metrics. Environment variables listed in the package
// documentation override each field.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "hoproute",
		ServiceVersion: "dev",
		Environment:    getEnvOr("HOPROUTE_ENV", "development"),
		TraceExporter:  getEnvOr("OTEL_TRACES_EXPORTER", ExporterNone),
		MetricExporter: getEnvOr("OTEL_METRICS_EXPORTER", ExporterPrometheus),
		OTLPEndpoint:   getEnvOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:   true,
	}
}

// =============================================================================
// Exporter tables
// =============================================================================

// spanExporters builds a span exporter per TraceExporter name.
var spanExporters = map[string]func(context.Context, Config) (sdktrace.SpanExporter, error){
	ExporterOTLP: func(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	},
	ExporterStdout: func(context.Context, Config) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	},
}

// metricReaders builds a metric reader per MetricExporter name.
var metricReaders = map[string]func() (metric.Reader, error){
	ExporterPrometheus: func() (metric.Reader, error) {
		exporter, err := promexporter.New()
		if err != nil {
			return nil, err
		}
		setMetricsHandler(promhttp.Handler())
		return exporter, nil
	},
	ExporterStdout: func() (metric.Reader, error) {
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		return metric.NewPeriodicReader(exporter), nil
	},
}

// checkExporter reports whether name is "none" or a key of table.
func checkExporter[F any](kind, name string, table map[string]F) error {
	if _, ok := table[name]; ok || name == ExporterNone {
		return nil
	}
	return fmt.Errorf("%w: %s exporter %q", ErrUnknownExporter, kind, name)
}

// =============================================================================
// Init
// =============================================================================

// Init installs the global tracer and meter providers for cfg.
//
// Description:
//
//	Both exporter names are checked before anything is installed, so an
//	unknown name leaves the otel globals untouched. A "none" exporter
//	keeps the corresponding no-op global.
//
// Inputs:
//
//	ctx - Used to dial the OTLP collector. Must not be nil.
//	cfg - Exporter selection and resource attributes.
//
// Outputs:
//
//	shutdown - Flushes pending spans and metrics. The serve command calls
//	           it with a bounded context on exit.
//	error - ErrNilContext, ErrUnknownExporter, or an exporter failure.
//
// Thread Safety: Call once, before the HTTP server starts.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := checkExporter("trace", cfg.TraceExporter, spanExporters); err != nil {
		return nil, err
	}
	if err := checkExporter("metric", cfg.MetricExporter, metricReaders); err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes("",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)

	var chain shutdownChain

	if build, ok := spanExporters[cfg.TraceExporter]; ok {
		exporter, err := build(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating %s span exporter: %w", cfg.TraceExporter, err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)
		chain = append(chain, tp.Shutdown)
	}

	if build, ok := metricReaders[cfg.MetricExporter]; ok {
		reader, err := build()
		if err != nil {
			_ = chain.run(ctx)
			return nil, fmt.Errorf("creating %s metric reader: %w", cfg.MetricExporter, err)
		}
		mp := metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(reader))
		otel.SetMeterProvider(mp)
		chain = append(chain, mp.Shutdown)
	}

	return chain.run, nil
}

// shutdownChain stops providers in reverse installation order.
type shutdownChain []func(context.Context) error

func (c shutdownChain) run(ctx context.Context) error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// /metrics and logging
// =============================================================================

var (
	metricsHandler   http.Handler
	metricsHandlerMu sync.RWMutex
)

func setMetricsHandler(h http.Handler) {
	metricsHandlerMu.Lock()
	defer metricsHandlerMu.Unlock()
	metricsHandler = h
}

// MetricsHandler returns the handler for /metrics once Init has installed
// the Prometheus exporter, and nil otherwise. The serve command falls back
// to promhttp.Handler for the promauto collectors alone.
//
// Thread Safety: Safe for concurrent use.
func MetricsHandler() http.Handler {
	metricsHandlerMu.RLock()
	defer metricsHandlerMu.RUnlock()
	return metricsHandler
}

// LoggerWithTrace adds trace_id and span_id to logger when ctx carries a
// valid span, so handler logs can be joined with request spans.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
