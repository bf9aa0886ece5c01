// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package main

// Links the Vulkan HAL so the "hal" backend finds an adapter.
import _ "github.com/gogpu/wgpu/hal/vulkan"
