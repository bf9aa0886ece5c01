// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halgpu runs render graphs on a wgpu HAL device.
//
// Importing the package registers two backends: "hal", which opens the
// first hardware HAL backend linked into the binary, and "noop", a
// headless device that accepts every call. Hardware backends are linked
// by importing their packages:
//
//	import (
//		_ "github.com/gogpu/framegraph/backend/halgpu"
//		_ "github.com/gogpu/wgpu/hal/vulkan"
//	)
//
// Binders become one bind group layout at group 0. Root parameter i is
// @binding(i) and static samplers follow the parameters, so a binder with
// two parameters and one static sampler matches:
//
//	@group(0) @binding(0) var<uniform> params: Params;
//	@group(0) @binding(1) var src: texture_2d<f32>;
//	@group(0) @binding(2) var samp: sampler;
//
// Root constants are uploaded into a uniform buffer per draw.
//
// Command lists are replayed at Submit into a single command buffer.
// Render passes open at the first draw after SetRenderTargets. Clears run
// as their own passes and always cover the whole view.
package halgpu
