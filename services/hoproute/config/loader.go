// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

var configValidate = validator.New()

// Load reads the config at path, applies env overrides, and validates.
//
// A missing file is not an error: defaults are used. An empty path also
// means defaults. Fields absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return Config{}, fmt.Errorf("failed to read the config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse the config file %s: %w", path, err)
			}
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from HOPROUTE_* environment variables.
//
//   - HOPROUTE_PORT: server.port
//   - HOPROUTE_LOG_LEVEL: logging.level
//   - HOPROUTE_TOPOLOGY: topology.path
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("HOPROUTE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: HOPROUTE_PORT=%q is not a number", ErrInvalidConfig, v)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("HOPROUTE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("HOPROUTE_TOPOLOGY"); v != "" {
		cfg.Topology.Path = v
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Topology.Watch && c.Topology.Path == "" {
		return fmt.Errorf("%w: topology.watch requires topology.path", ErrInvalidConfig)
	}
	return nil
}

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is left untouched.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
