// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command fgdemo runs a small frame graph for a few frames and logs the
// frame reports.
//
// The graph is a cleared scene texture blurred horizontally and then
// vertically with ping-pong targets, an SSAO chain over a linear depth
// texture, and a debug draw overlay on top of the blurred scene.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
	"github.com/gogpu/framegraph/backend/halgpu"
	"github.com/gogpu/framegraph/config"
	"github.com/gogpu/framegraph/debugdraw"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/nodes"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "TOML configuration file")
		frames  = flag.Int("frames", 0, "frames to run (overrides demo.frames)")
		name    = flag.String("backend", "", "backend name (overrides backend.name)")
	)
	flag.Parse()

	if err := run(*cfgPath, *frames, *name); err != nil {
		fmt.Fprintln(os.Stderr, "fgdemo:", err)
		os.Exit(1)
	}
}

func run(cfgPath string, frames int, name string) error {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
	}
	if frames > 0 {
		cfg.Demo.Frames = frames
	}
	if name != "" {
		cfg.Backend.Name = name
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	framegraph.SetLogger(log)

	b, err := backend.Open(cfg.Backend.Name, backend.Options{
		Logger:        log,
		SubmitTimeout: time.Duration(cfg.Backend.SubmitTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("open backend (available: %v): %w", backend.Available(), err)
	}
	defer b.Close()
	if hb, ok := b.(*halgpu.Backend); ok {
		log.Info("adapter", "name", hb.Info().Name, "backend", b.Name())
	}

	g := graph.New(b.Device(), b.Queue(), graph.FromConfig(cfg.Graph), graph.WithLogger(log))
	defer g.Close()
	reg := debugdraw.NewRegistry()
	if err := build(g, cfg, reg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	for i := 0; i < cfg.Demo.Frames; i++ {
		r, err := g.RunFrame(ctx)
		if err != nil {
			return err
		}
		log.Info("frame",
			"index", r.Frame,
			"executed", len(r.Executed),
			"skipped", len(r.Skipped),
			"lists", r.Lists,
			"barriers", r.Barriers,
			"debug objects", reg.Len(),
		)
		if err := r.Err(); err != nil {
			log.Warn("frame had node failures", "index", r.Frame, "err", err)
		}
	}
	return nil
}

func build(g *graph.Graph, cfg config.Config, reg *debugdraw.Registry) error {
	w, h := cfg.Demo.Width, cfg.Demo.Height
	cam := nodes.NewCameraSource("camera", nodes.DefaultCamera(float32(w)/float32(h)))
	scene := nodes.NewTextureSource("scene", gxapi.TextureDesc{Label: "scene", Width: w, Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm}, gputypes.Color{R: 0.1, G: 0.2, B: 0.4, A: 1})
	depth := nodes.NewTextureSource("depth", gxapi.TextureDesc{Label: "linear depth", Width: w, Height: h,
		Format: gputypes.TextureFormatR32Float}, gputypes.Color{R: 1})
	blurH := nodes.NewBlur("blur.h", nodes.Horizontal, 1)
	blurV := nodes.NewBlur("blur.v", nodes.Vertical, cfg.Blur.PingPong)
	ssao := nodes.NewSSAO("ssao", nodes.SSAOOptionsFrom(cfg.SSAO))
	dd := nodes.NewDebugDraw("debug", reg)

	for _, n := range []graph.Node{cam, scene, depth, blurH, blurV, ssao, dd} {
		if err := g.AddNode(n); err != nil {
			return err
		}
	}
	edges := []error{
		graph.Connect(g, scene, &scene.Output, blurH, &blurH.Input),
		graph.Connect(g, blurH, &blurH.Output, blurV, &blurV.Input),
		graph.Connect(g, depth, &depth.Output, ssao, &ssao.Depth),
		graph.Connect(g, cam, &cam.Output, ssao, &ssao.Camera),
		graph.Connect(g, blurV, &blurV.Output, dd, &dd.Target),
		graph.Connect(g, cam, &cam.Output, dd, &dd.Camera),
	}
	for _, err := range edges {
		if err != nil {
			return err
		}
	}

	reg.Add(debugdraw.Box(f32.Vec3{-1, -1, -1}, f32.Vec3{1, 1, 1}), f32.Vec4{1, 0, 0, 1}, 0)
	reg.Add(debugdraw.Cross(f32.Vec3{0, 0, 0}, 0.5), f32.Vec4{0, 1, 0, 1}, uint32(max(cfg.Demo.Frames/2, 1)))
	return g.Compile()
}
