// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph/gxapi"
)

// layoutEntries maps a binder description onto bind group layout entries.
// Parameter i takes binding i; static sampler j takes binding
// len(Parameters)+j.
func layoutEntries(desc gxapi.BinderDesc) ([]gputypes.BindGroupLayoutEntry, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(desc.Parameters)+len(desc.StaticSamplers))
	for i, pd := range desc.Parameters {
		e := gputypes.BindGroupLayoutEntry{Binding: uint32(i), Visibility: visibility(pd.Visibility)}
		switch pd.Parameter.Type {
		case gxapi.BindConstant:
			e.Buffer = &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: constantSize(pd.Constants),
			}
		case gxapi.BindConstantBuffer:
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
		case gxapi.BindTexture:
			e.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
		case gxapi.BindSampler:
			e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
		case gxapi.BindUnorderedAccess:
			typ := gputypes.BufferBindingTypeStorage
			if pd.Access == gxapi.AccessReadOnly {
				typ = gputypes.BufferBindingTypeReadOnlyStorage
			}
			e.Buffer = &gputypes.BufferBindingLayout{Type: typ}
		default:
			return nil, &gxapi.UnsupportedLayoutError{Parameter: pd.Parameter, Reason: "no bind group entry for type"}
		}
		entries = append(entries, e)
	}
	for j, s := range desc.StaticSamplers {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(len(desc.Parameters) + j),
			Visibility: visibility(s.Visibility),
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		})
	}
	return entries, nil
}

// visibility defaults an unset stage mask to every stage.
func visibility(s gputypes.ShaderStage) gputypes.ShaderStages {
	if s == 0 {
		return gputypes.ShaderStageVertex | gputypes.ShaderStageFragment | gputypes.ShaderStageCompute
	}
	return s
}

func samplerDescriptor(label string, s gxapi.StaticSamplerDesc) *hal.SamplerDescriptor {
	return &hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: s.AddressU,
		AddressModeV: s.AddressV,
		AddressModeW: s.AddressW,
		MagFilter:    s.MagFilter,
		MinFilter:    s.MinFilter,
		MipmapFilter: s.MipFilter,
		LodMaxClamp:  32,
		Anisotropy:   max(s.MaxAnisotropy, 1),
	}
}

// dynamicSampler backs sampler parameters, which no command binds.
var dynamicSampler = gxapi.StaticSamplerDesc{
	MinFilter: gputypes.FilterModeLinear,
	MagFilter: gputypes.FilterModeLinear,
	MipFilter: gputypes.FilterModeLinear,
	AddressU:  gputypes.AddressModeClampToEdge,
	AddressV:  gputypes.AddressModeClampToEdge,
	AddressW:  gputypes.AddressModeClampToEdge,
}

// CreateRootSignature implements gxapi.Device.
func (d *Device) CreateRootSignature(desc gxapi.BinderDesc) (gxapi.RootSignatureObject, error) {
	entries, err := layoutEntries(desc)
	if err != nil {
		return nil, err
	}
	r := &rootSignature{desc: desc, samplers: make(map[uint32]hal.Sampler)}
	fail := func(err error) (gxapi.RootSignatureObject, error) {
		d.destroy(r)
		return nil, fmt.Errorf("halgpu: create root signature: %w", err)
	}

	if r.bgl, err = d.raw.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Label: "binder", Entries: entries}); err != nil {
		return fail(err)
	}
	r.layout, err = d.raw.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "binder",
		BindGroupLayouts: []hal.BindGroupLayout{r.bgl},
	})
	if err != nil {
		return fail(err)
	}
	for i, pd := range desc.Parameters {
		if pd.Parameter.Type != gxapi.BindSampler {
			continue
		}
		s, err := d.raw.CreateSampler(samplerDescriptor(pd.Parameter.String(), dynamicSampler))
		if err != nil {
			return fail(err)
		}
		r.samplers[uint32(i)] = s
	}
	for j, sd := range desc.StaticSamplers {
		s, err := d.raw.CreateSampler(samplerDescriptor(sd.Parameter().String(), sd))
		if err != nil {
			return fail(err)
		}
		r.samplers[uint32(len(desc.Parameters)+j)] = s
	}
	d.track(r)
	return r, nil
}

func (d *Device) asRoot(obj gxapi.RootSignatureObject) (*rootSignature, error) {
	r, ok := obj.(*rootSignature)
	if !ok || r == nil {
		return nil, fmt.Errorf("halgpu: root signature %T was not created by this backend", obj)
	}
	return r, nil
}

func asShader(s gxapi.Shader, stage gputypes.ShaderStage) (*shaderModule, error) {
	m, ok := s.Obj.(*shaderModule)
	if !ok || m == nil {
		return nil, &gxapi.ShaderCompilationError{Stage: stage, Err: gxapi.ErrNoObject}
	}
	return m, nil
}

func entryPoint(s gxapi.Shader, m *shaderModule) string {
	if s.EntryPoint != "" {
		return s.EntryPoint
	}
	return m.entry
}

// vertexBuffers groups the input layout by slot. Strides are the end of
// the furthest attribute in each slot.
func vertexBuffers(layout []gxapi.InputElement) []gputypes.VertexBufferLayout {
	var slots []gputypes.VertexBufferLayout
	for loc, el := range layout {
		for uint32(len(slots)) <= el.Slot {
			slots = append(slots, gputypes.VertexBufferLayout{StepMode: gputypes.VertexStepModeVertex})
		}
		vb := &slots[el.Slot]
		vb.Attributes = append(vb.Attributes, gputypes.VertexAttribute{
			Format:         el.Format,
			Offset:         uint64(el.Offset),
			ShaderLocation: uint32(loc),
		})
		vb.ArrayStride = max(vb.ArrayStride, uint64(el.Offset)+el.Format.Size())
	}
	return slots
}

// CreateGraphicsPipeline implements gxapi.Device. WebGPU has no wireframe
// fill, so FillWireframe renders solid.
func (d *Device) CreateGraphicsPipeline(root gxapi.RootSignatureObject, desc gxapi.GraphicsPipelineDesc) (gxapi.PipelineObject, error) {
	r, err := d.asRoot(root)
	if err != nil {
		return nil, err
	}
	vs, err := asShader(desc.VS, gputypes.ShaderStageVertex)
	if err != nil {
		return nil, err
	}
	ps, err := asShader(desc.PS, gputypes.ShaderStageFragment)
	if err != nil {
		return nil, err
	}
	if desc.Rasterizer.FillMode == gxapi.FillWireframe {
		d.log.Debug("wireframe fill renders solid", "pipeline", desc.Label)
	}

	targets := make([]gputypes.ColorTargetState, len(desc.RenderTargets))
	for i, f := range desc.RenderTargets {
		targets[i] = gputypes.ColorTargetState{Format: f, Blend: desc.Blend, WriteMask: gputypes.ColorWriteMaskAll}
	}
	var ds *hal.DepthStencilState
	if desc.DepthStencilFormat != gputypes.TextureFormatUndefined {
		cmp := gputypes.CompareFunctionAlways
		if desc.DepthStencil.DepthEnable {
			cmp = desc.DepthStencil.DepthFunc
		}
		ds = &hal.DepthStencilState{
			Format:            desc.DepthStencilFormat,
			DepthWriteEnabled: desc.DepthStencil.DepthEnable && desc.DepthStencil.DepthWrite,
			DepthCompare:      cmp,
			StencilFront:      hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
			StencilBack:       hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
			DepthBias:         desc.Rasterizer.DepthBias,
		}
		if desc.DepthStencil.StencilEnable {
			ds.StencilReadMask = 0xff
			ds.StencilWriteMask = 0xff
		}
	}

	raw, err := d.raw.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: r.layout,
		Vertex: hal.VertexState{
			Module:     vs.raw,
			EntryPoint: entryPoint(desc.VS, vs),
			Buffers:    vertexBuffers(desc.InputLayout),
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  desc.Topology,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  desc.Rasterizer.CullMode,
		},
		DepthStencil: ds,
		Multisample: gputypes.MultisampleState{
			Count: max(desc.SampleCount, 1),
			Mask:  ^uint64(0),
		},
		Fragment: &hal.FragmentState{
			Module:     ps.raw,
			EntryPoint: entryPoint(desc.PS, ps),
			Targets:    targets,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create pipeline %q: %w", desc.Label, err)
	}
	p := &pipeline{named: named{name: desc.Label}, root: r, render: raw}
	d.track(p)
	return p, nil
}

// CreateComputePipeline implements gxapi.Device.
func (d *Device) CreateComputePipeline(root gxapi.RootSignatureObject, desc gxapi.ComputePipelineDesc) (gxapi.PipelineObject, error) {
	r, err := d.asRoot(root)
	if err != nil {
		return nil, err
	}
	cs, err := asShader(desc.CS, gputypes.ShaderStageCompute)
	if err != nil {
		return nil, err
	}
	raw, err := d.raw.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   desc.Label,
		Layout:  r.layout,
		Compute: hal.ComputeState{Module: cs.raw, EntryPoint: entryPoint(desc.CS, cs)},
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create compute pipeline %q: %w", desc.Label, err)
	}
	p := &pipeline{named: named{name: desc.Label}, root: r, compute: raw}
	d.track(p)
	return p, nil
}
