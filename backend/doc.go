// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend selects the GPU backend a render graph runs on.
//
// # Backend Registration
//
// Backend packages register a factory from init with a priority. The wgpu
// HAL backend registers itself on import:
//
//	import _ "github.com/gogpu/framegraph/backend/halgpu"
//
// # Backend Selection
//
// Open with a name opens that backend. With an empty name the registered
// backends are tried by descending priority and the first that opens wins:
//
//	b, err := backend.Open(cfg.Backend.Name, backend.Options{Logger: log})
//	if err != nil {
//		return err
//	}
//	defer b.Close()
//
//	g := graph.New(b.Device(), b.Queue())
package backend
