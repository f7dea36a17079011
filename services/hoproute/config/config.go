// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads HopRoute's YAML configuration.
package config

import (
	"time"

	"github.com/AleutianAI/HopRoute/services/hoproute/telemetry"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Service   ServiceConfig    `yaml:"service"`
	Topology  TopologyConfig   `yaml:"topology"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Port is the TCP port to listen on.
	Port int `yaml:"port" validate:"min=1,max=65535"`

	// Debug puts gin in debug mode.
	Debug bool `yaml:"debug"`

	// RateLimit is the sustained request rate per second. Zero disables it.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`

	// RateBurst is the token bucket size.
	RateBurst int `yaml:"rate_burst" validate:"gte=0"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// LoggingConfig controls pkg/logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`

	// Dir enables a daily JSON log file when non-empty. Supports ~.
	Dir string `yaml:"dir"`
}

// ServiceConfig controls the session service.
type ServiceConfig struct {
	// MaxSessions caps live sessions. The oldest is evicted beyond it.
	MaxSessions int `yaml:"max_sessions" validate:"min=1"`

	// SessionTTL expires sessions idle for longer. Zero disables expiry.
	SessionTTL time.Duration `yaml:"session_ttl" validate:"gte=0"`

	// MaxNodesPerGraph bounds every session graph. Zero means unlimited.
	MaxNodesPerGraph int `yaml:"max_nodes_per_graph" validate:"gte=0"`
}

// TopologyConfig seeds a default session from a document file.
type TopologyConfig struct {
	// Path is a .yaml, .yml, .json, or .hcl topology file. Optional.
	Path string `yaml:"path"`

	// Watch reloads the default session when Path changes.
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period before a reload.
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8090,
			RateLimit:       50,
			RateBurst:       100,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: telemetry.DefaultConfig(),
		Service: ServiceConfig{
			MaxSessions:      256,
			SessionTTL:       time.Hour,
			MaxNodesPerGraph: 100_000,
		},
		Topology: TopologyConfig{
			Debounce: 250 * time.Millisecond,
		},
	}
}
