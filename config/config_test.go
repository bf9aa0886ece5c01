// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, float32(0.5), cfg.SSAO.Radius)
	assert.Equal(t, uint32(6), cfg.SSAO.TemporalFrames)
	assert.Equal(t, 2, cfg.Blur.PingPong)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[graph]
parallel = true
workers = 8
strict_ranges = true

[ssao]
radius = 0.75

[log]
level = "debug"

[demo]
width = 1280
height = 720
`))
	require.NoError(t, err)
	assert.True(t, cfg.Graph.Parallel)
	assert.Equal(t, 8, cfg.Graph.Workers)
	assert.True(t, cfg.Graph.StrictRanges)
	assert.Equal(t, float32(0.75), cfg.SSAO.Radius)
	assert.Equal(t, float32(1), cfg.SSAO.ScaleFactor, "unset keys keep defaults")
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, uint32(1280), cfg.Demo.Width)
	assert.Equal(t, 3, cfg.Demo.Frames)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"unknown key", "[graph]\nthreads = 4\n"},
		{"syntax", "[graph\n"},
		{"zero workers in parallel mode", "[graph]\nparallel = true\nworkers = 0\n"},
		{"odd temporal frames", "[ssao]\ntemporal_frames = 5\n"},
		{"negative radius", "[ssao]\nradius = -1.0\n"},
		{"no ping pong targets", "[blur]\nping_pong = 0\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			assert.Error(t, err)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Blur.PingPong = 0
	cfg.Demo.Width = 0
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "blur.ping_pong")
	assert.Contains(t, err.Error(), "demo size")
}

func TestLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Backend.Name = "noop"
	cfg.Graph.Workers = 2
	data, err := cfg.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "framegraph.toml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
