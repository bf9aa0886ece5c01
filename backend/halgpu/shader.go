// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph/gxapi"
)

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// CreateShader implements gxapi.Device. The module carries both the WGSL
// text and the SPIR-V naga produced for it, so every HAL backend finds the
// form it consumes.
func (d *Device) CreateShader(desc gxapi.ShaderDesc) (gxapi.ShaderObject, error) {
	words, err := compileWGSL(desc.Source)
	if err != nil {
		return nil, &gxapi.ShaderCompilationError{Label: desc.Label, Stage: desc.Stage, Err: err}
	}
	raw, err := d.raw.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{WGSL: desc.Source, SPIRV: words},
	})
	if err != nil {
		return nil, &gxapi.ShaderCompilationError{Label: desc.Label, Stage: desc.Stage, Err: err}
	}
	s := &shaderModule{named: named{name: desc.Label}, stage: desc.Stage, entry: desc.EntryPoint, raw: raw}
	d.track(s)
	d.log.Debug("shader compiled", "label", desc.Label, "words", len(words))
	return s, nil
}
