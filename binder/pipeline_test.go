// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package binder_test

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/internal/gxtest"
)

func shader(t *testing.T, dev *gxtest.Device, stage gputypes.ShaderStage) gxapi.Shader {
	t.Helper()
	obj, err := dev.CreateShader(gxapi.ShaderDesc{Label: "s", Stage: stage, Source: "fn main() {}"})
	if err != nil {
		t.Fatal(err)
	}
	return gxapi.Shader{Obj: obj, Stage: stage, EntryPoint: "main"}
}

func basePSO(t *testing.T, dev *gxtest.Device) gxapi.GraphicsPipelineDesc {
	return gxapi.GraphicsPipelineDesc{
		Label: "pso",
		VS:    shader(t, dev, gputypes.ShaderStageVertex),
		PS:    shader(t, dev, gputypes.ShaderStageFragment),
		InputLayout: []gxapi.InputElement{
			{Semantic: "POSITION", Format: gputypes.VertexFormatFloat32x3},
			{Semantic: "TEX_COORD", Format: gputypes.VertexFormatFloat32x2, Offset: 12},
		},
		Topology:      gputypes.PrimitiveTopologyTriangleList,
		RenderTargets: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
	}
}

func TestNewPipelineState(t *testing.T) {
	dev := gxtest.NewDevice()
	b, err := binder.New(dev, gxapi.BinderDesc{Parameters: []gxapi.BindParameterDesc{constant(0, 4)}})
	if err != nil {
		t.Fatal(err)
	}
	pso, err := binder.NewPipelineState(dev, b, basePSO(t, dev))
	if err != nil {
		t.Fatal(err)
	}
	if pso.Binder() != b || pso.IsCompute() || !pso.HasObject() {
		t.Errorf("pso = %+v", pso)
	}
	if pso.Topology() != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("topology = %v", pso.Topology())
	}
}

func TestNewPipelineStateValidation(t *testing.T) {
	dev := gxtest.NewDevice()
	b, err := binder.New(dev, gxapi.BinderDesc{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(*gxapi.GraphicsPipelineDesc)
		want   error
	}{
		{"missing vertex shader", func(d *gxapi.GraphicsPipelineDesc) { d.VS = gxapi.Shader{} }, gxapi.ErrShaderCompilation},
		{"vertex slot holds pixel shader", func(d *gxapi.GraphicsPipelineDesc) { d.VS = d.PS }, gxapi.ErrShaderCompilation},
		{"pixel slot holds vertex shader", func(d *gxapi.GraphicsPipelineDesc) { d.PS = d.VS }, gxapi.ErrShaderCompilation},
		{"undefined target", func(d *gxapi.GraphicsPipelineDesc) {
			d.RenderTargets = []gputypes.TextureFormat{gputypes.TextureFormatUndefined}
		}, gxapi.ErrUnsupportedFormat},
		{"depth as color", func(d *gxapi.GraphicsPipelineDesc) {
			d.RenderTargets = []gputypes.TextureFormat{gputypes.TextureFormatDepth24PlusStencil8}
		}, gxapi.ErrUnsupportedFormat},
		{"too many targets", func(d *gxapi.GraphicsPipelineDesc) {
			d.RenderTargets = make([]gputypes.TextureFormat, 9)
			for i := range d.RenderTargets {
				d.RenderTargets[i] = gputypes.TextureFormatRGBA8Unorm
			}
		}, gxapi.ErrUnsupportedFormat},
		{"depth test without depth format", func(d *gxapi.GraphicsPipelineDesc) {
			d.DepthStencil.DepthEnable = true
		}, gxapi.ErrUnsupportedFormat},
		{"color format as depth", func(d *gxapi.GraphicsPipelineDesc) {
			d.DepthStencilFormat = gputypes.TextureFormatRGBA8Unorm
		}, gxapi.ErrUnsupportedFormat},
		{"undefined vertex format", func(d *gxapi.GraphicsPipelineDesc) {
			d.InputLayout[1].Format = 0
		}, gxapi.ErrUnsupportedFormat},
		{"duplicate semantic", func(d *gxapi.GraphicsPipelineDesc) {
			d.InputLayout[1].Semantic = "POSITION"
		}, gxapi.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := basePSO(t, dev)
			tt.mutate(&desc)
			before := dev.Counts().Pipelines
			_, err := binder.NewPipelineState(dev, b, desc)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if dev.Counts().Pipelines != before {
				t.Error("invalid pipeline reached the backend")
			}
		})
	}
}

func TestNewPipelineStateBackendFailure(t *testing.T) {
	dev := gxtest.NewDevice()
	b, err := binder.New(dev, gxapi.BinderDesc{})
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("out of memory")
	dev.FailPipeline = boom
	if _, err := binder.NewPipelineState(dev, b, basePSO(t, dev)); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped backend error", err)
	}
}

func TestNewComputePipelineState(t *testing.T) {
	dev := gxtest.NewDevice()
	b, err := binder.New(dev, gxapi.BinderDesc{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := binder.NewComputePipelineState(dev, b, gxapi.ComputePipelineDesc{
		CS: shader(t, dev, gputypes.ShaderStageVertex),
	}); !errors.Is(err, gxapi.ErrShaderCompilation) {
		t.Fatalf("err = %v, want ErrShaderCompilation", err)
	}
	pso, err := binder.NewComputePipelineState(dev, b, gxapi.ComputePipelineDesc{
		CS: shader(t, dev, gputypes.ShaderStageCompute),
	})
	if err != nil || !pso.IsCompute() {
		t.Fatalf("compute pso = %v, %v", pso, err)
	}
	if _, err := binder.NewComputePipelineState(dev, nil, gxapi.ComputePipelineDesc{}); !errors.Is(err, binder.ErrNilBinder) {
		t.Fatalf("nil binder err = %v", err)
	}
}
