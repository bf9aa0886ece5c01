// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gxapi holds the vocabulary shared by the command list layer, the
// render graph and the backends: resource states, barriers, descriptors,
// handle types, the error taxonomy and the Device interface.
//
// Formats, usages and fixed-function enums come from
// github.com/gogpu/gputypes so descriptors map onto the wgpu HAL without
// translation tables.
package gxapi
