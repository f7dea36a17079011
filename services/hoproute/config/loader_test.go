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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HOPROUTE_PORT", "HOPROUTE_LOG_LEVEL", "HOPROUTE_TOPOLOGY"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Service.SessionTTL)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Service, cfg.Service)
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "hoproute.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9999
service:
  session_ttl: 90s
topology:
  path: /tmp/topo.hcl
  watch: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Service.SessionTTL)
	assert.Equal(t, 256, cfg.Service.MaxSessions, "unset fields keep defaults")
	assert.True(t, cfg.Topology.Watch)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOPROUTE_PORT", "7000")
	t.Setenv("HOPROUTE_LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Run("bad port env", func(t *testing.T) {
		t.Setenv("HOPROUTE_PORT", "eighty")
		_, err := Load("")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("out of range", func(t *testing.T) {
		path := filepath.Join(dir, "range.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 70000\n"), 0o644))
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("watch without path", func(t *testing.T) {
		path := filepath.Join(dir, "watch.yaml")
		require.NoError(t, os.WriteFile(path, []byte("topology:\n  watch: true\n"), 0o644))
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("HOPROUTE_LOG_LEVEL", "loud")
		_, err := Load("")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestWriteDefault(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "hoproute.yaml")

	require.NoError(t, WriteDefault(path))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)

	// Existing files are not overwritten.
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 1234\n"), 0o644))
	require.NoError(t, WriteDefault(path))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Server.Port)
}
