// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads framegraph settings from TOML.
//
// Missing keys keep their defaults, and unknown keys are rejected so typos
// surface early.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config is the root of the configuration file.
type Config struct {
	Graph   Graph   `toml:"graph"`
	Backend Backend `toml:"backend"`
	SSAO    SSAO    `toml:"ssao"`
	Blur    Blur    `toml:"blur"`
	Log     Log     `toml:"log"`
	Demo    Demo    `toml:"demo"`
}

// Graph configures the frame orchestrator.
type Graph struct {
	// Parallel records Execute on a worker pool.
	Parallel bool `toml:"parallel"`
	// Workers is the worker pool size in parallel mode.
	Workers int `toml:"workers"`
	// StrictRanges rejects barriers over subresources in mixed states
	// instead of splitting them per subresource.
	StrictRanges bool `toml:"strict_ranges"`
}

// Backend selects the GPU backend.
type Backend struct {
	// Name is a registered backend name; empty picks the highest priority
	// available backend.
	Name            string `toml:"name"`
	SubmitTimeoutMS int    `toml:"submit_timeout_ms"`
}

type SSAO struct {
	Radius         float32 `toml:"radius"`
	ScaleFactor    float32 `toml:"scale_factor"`
	TemporalFrames uint32  `toml:"temporal_frames"`
}

type Blur struct {
	PingPong int `toml:"ping_pong"`
}

type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

type Demo struct {
	Frames int    `toml:"frames"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Graph:   Graph{Workers: 4},
		Backend: Backend{SubmitTimeoutMS: 5000},
		SSAO:    SSAO{Radius: 0.5, ScaleFactor: 1, TemporalFrames: 6},
		Blur:    Blur{PingPong: 2},
		Log:     Log{Level: "info"},
		Demo:    Demo{Frames: 3, Width: 800, Height: 600},
	}
}

// Load reads and validates the file at path on top of the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes cfg as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Graph.Parallel && c.Graph.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: graph.workers must be at least 1 in parallel mode", ErrInvalid))
	}
	if c.Backend.SubmitTimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("%w: backend.submit_timeout_ms is negative", ErrInvalid))
	}
	if c.SSAO.Radius <= 0 {
		errs = append(errs, fmt.Errorf("%w: ssao.radius must be positive", ErrInvalid))
	}
	if c.SSAO.ScaleFactor <= 0 {
		errs = append(errs, fmt.Errorf("%w: ssao.scale_factor must be positive", ErrInvalid))
	}
	if c.SSAO.TemporalFrames < 2 || c.SSAO.TemporalFrames%2 != 0 {
		errs = append(errs, fmt.Errorf("%w: ssao.temporal_frames must be an even number of at least 2", ErrInvalid))
	}
	if c.Blur.PingPong < 1 {
		errs = append(errs, fmt.Errorf("%w: blur.ping_pong must be at least 1", ErrInvalid))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Demo.Width == 0 || c.Demo.Height == 0 {
		errs = append(errs, fmt.Errorf("%w: demo size %dx%d", ErrInvalid, c.Demo.Width, c.Demo.Height))
	}
	return errors.Join(errs...)
}

// LogLevel returns the configured slog level.
func (c Config) LogLevel() slog.Level {
	l, err := ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParseLevel parses a level name as used in [log] level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log.level %q", ErrInvalid, s)
	}
	return l, nil
}
