// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package framegraph is the rendering backend of a real-time 3D engine.
//
// # Overview
//
// The module has two halves. The command-list layer records GPU work in the
// Direct3D12 style: copy, compute and graphics lists with explicit resource
// state transitions and root-signature binding. The render graph sequences
// that work per frame through nodes with typed ports and a
// Initialize/Reset/Setup/Execute lifecycle.
//
// # Packages
//
//   - gxapi: resource states, barriers, descriptors, handles, errors and
//     the backend Device interface
//   - state: per-list state tracking and the frame-global state registry
//   - cmdlist: the command list recorder
//   - binder: binders, pipeline states, lazy creation and the binder cache
//   - graph: ports, contexts and the frame orchestrator
//   - nodes: texture source, blur, SSAO, debug draw and camera
//   - debugdraw: the registry of debug objects drawn by the debug draw node
//   - backend: the backend registry; backend/halgpu implements a Device and
//     Queue over the wgpu HAL
//   - cache: the sharded LRU behind the binder cache
//   - config: TOML configuration
//
// # Quick Start
//
//	b, err := backend.Open("", backend.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//	g := graph.New(b.Device(), b.Queue(), graph.WithLogger(logger))
//	defer g.Close()
//
//	src := nodes.NewTextureSource("scene", desc, clearColor)
//	blur := nodes.NewBlur("blur", nodes.Horizontal, 2)
//	g.AddNode(src)
//	g.AddNode(blur)
//	graph.Connect(g, src, &src.Output, blur, &blur.Input)
//
//	for {
//	    report, err := g.RunFrame(ctx)
//	    ...
//	}
//
// # Logging
//
// framegraph logs through log/slog and is silent by default. See SetLogger.
package framegraph
