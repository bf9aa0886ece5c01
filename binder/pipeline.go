// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package binder

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/gxapi"
)

// ErrNilBinder is returned when a pipeline is created without a binder.
var ErrNilBinder = errors.New("binder: nil binder")

// PipelineState is a compiled pipeline bound to the Binder it was
// created against. It is immutable.
type PipelineState struct {
	binder   *Binder
	obj      gxapi.PipelineObject
	compute  bool
	topology gputypes.PrimitiveTopology
	label    string
}

// ValidateGraphics checks shader stages and formats of desc.
func ValidateGraphics(desc gxapi.GraphicsPipelineDesc) error {
	if !desc.VS.HasObject() {
		return &gxapi.ShaderCompilationError{Label: desc.Label, Stage: gputypes.ShaderStageVertex,
			Err: errors.New("missing vertex shader")}
	}
	if desc.VS.Stage != gputypes.ShaderStageVertex {
		return &gxapi.ShaderCompilationError{Label: desc.VS.EntryPoint, Stage: desc.VS.Stage,
			Err: errors.New("shader bound to the vertex stage was compiled for another stage")}
	}
	if desc.PS.HasObject() && desc.PS.Stage != gputypes.ShaderStageFragment {
		return &gxapi.ShaderCompilationError{Label: desc.PS.EntryPoint, Stage: desc.PS.Stage,
			Err: errors.New("shader bound to the pixel stage was compiled for another stage")}
	}

	if len(desc.RenderTargets) > gxapi.MaxRenderTargets {
		return &gxapi.UnsupportedFormatError{Where: "render targets",
			Reason: fmt.Sprintf("%d targets exceed the limit of %d", len(desc.RenderTargets), gxapi.MaxRenderTargets)}
	}
	for i, f := range desc.RenderTargets {
		where := fmt.Sprintf("render target %d", i)
		if f == gputypes.TextureFormatUndefined {
			return &gxapi.UnsupportedFormatError{Where: where, Format: f, Reason: "undefined format"}
		}
		if gxapi.IsDepthFormat(f) {
			return &gxapi.UnsupportedFormatError{Where: where, Format: f, Reason: "depth format used as color target"}
		}
	}
	ds := desc.DepthStencilFormat
	if desc.DepthStencil.DepthEnable && ds == gputypes.TextureFormatUndefined {
		return &gxapi.UnsupportedFormatError{Where: "depth stencil", Format: ds, Reason: "depth test enabled without a depth format"}
	}
	if ds != gputypes.TextureFormatUndefined && !gxapi.IsDepthFormat(ds) {
		return &gxapi.UnsupportedFormatError{Where: "depth stencil", Format: ds, Reason: "not a depth format"}
	}
	if len(desc.RenderTargets) == 0 && ds == gputypes.TextureFormatUndefined {
		return &gxapi.UnsupportedFormatError{Where: "outputs", Reason: "pipeline writes no render target and no depth"}
	}

	type semantic struct {
		name  string
		index uint32
	}
	seen := make(map[semantic]bool, len(desc.InputLayout))
	for i, el := range desc.InputLayout {
		where := fmt.Sprintf("input element %d (%s%d)", i, el.Semantic, el.Index)
		if el.Format == 0 {
			return &gxapi.UnsupportedFormatError{Where: where, Reason: "undefined vertex format"}
		}
		k := semantic{el.Semantic, el.Index}
		if seen[k] {
			return &gxapi.UnsupportedFormatError{Where: where, Reason: "duplicate semantic"}
		}
		seen[k] = true
	}
	return nil
}

// NewPipelineState validates desc and compiles a graphics pipeline for b.
func NewPipelineState(dev gxapi.Device, b *Binder, desc gxapi.GraphicsPipelineDesc) (*PipelineState, error) {
	if !b.HasObject() {
		return nil, ErrNilBinder
	}
	if err := ValidateGraphics(desc); err != nil {
		return nil, err
	}
	obj, err := dev.CreateGraphicsPipeline(b.root, desc)
	if err != nil {
		return nil, fmt.Errorf("binder: create pipeline %q: %w", desc.Label, err)
	}
	return &PipelineState{binder: b, obj: obj, topology: desc.Topology, label: desc.Label}, nil
}

// NewComputePipelineState compiles a compute pipeline for b.
func NewComputePipelineState(dev gxapi.Device, b *Binder, desc gxapi.ComputePipelineDesc) (*PipelineState, error) {
	if !b.HasObject() {
		return nil, ErrNilBinder
	}
	if !desc.CS.HasObject() || desc.CS.Stage != gputypes.ShaderStageCompute {
		return nil, &gxapi.ShaderCompilationError{Label: desc.Label, Stage: desc.CS.Stage,
			Err: errors.New("compute pipeline needs a compute shader")}
	}
	obj, err := dev.CreateComputePipeline(b.root, desc)
	if err != nil {
		return nil, fmt.Errorf("binder: create compute pipeline %q: %w", desc.Label, err)
	}
	return &PipelineState{binder: b, obj: obj, compute: true, label: desc.Label}, nil
}

// Binder returns the binder the pipeline was created against.
func (p *PipelineState) Binder() *Binder { return p.binder }

// Object returns the backend pipeline.
func (p *PipelineState) Object() gxapi.PipelineObject { return p.obj }

// IsCompute reports whether this is a compute pipeline.
func (p *PipelineState) IsCompute() bool { return p.compute }

// Topology returns the primitive topology of a graphics pipeline.
func (p *PipelineState) Topology() gputypes.PrimitiveTopology { return p.topology }

// Label returns the label the pipeline was created with.
func (p *PipelineState) Label() string { return p.label }

// HasObject reports whether the pipeline has a backend object.
func (p *PipelineState) HasObject() bool { return p != nil && p.obj != nil }

// SetName labels the backend pipeline.
func (p *PipelineState) SetName(name string) {
	if p.HasObject() {
		p.obj.SetName(name)
		p.label = name
	}
}
