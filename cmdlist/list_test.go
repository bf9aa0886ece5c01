// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cmdlist_test

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/cmdlist"
	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/internal/gxtest"
	"github.com/gogpu/framegraph/state"
)

// expectViolation runs fn and checks it panics with a ContractError
// wrapping want.
func expectViolation(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("no panic, want %v", want)
		}
		ce, ok := r.(*gxapi.ContractError)
		if !ok {
			t.Fatalf("panic value %T (%v), want *gxapi.ContractError", r, r)
		}
		if !errors.Is(ce, want) {
			t.Fatalf("panic %v, want %v", ce, want)
		}
	}()
	fn()
}

type fixture struct {
	dev  *gxtest.Device
	b    *binder.Binder
	pso  *binder.PipelineState
	tex  gxapi.Texture
	rtv  gxapi.RenderTargetView
	srv  gxapi.ShaderResourceView
	vb   gxapi.VertexBuffer
	ib   gxapi.IndexBuffer
	cons gxapi.BindParameter
	t0   gxapi.BindParameter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		dev:  gxtest.NewDevice(),
		cons: gxapi.BindParameter{Type: gxapi.BindConstant, Register: 0},
		t0:   gxapi.BindParameter{Type: gxapi.BindTexture, Register: 0},
	}
	var err error
	f.b, err = binder.New(f.dev, gxapi.BinderDesc{Parameters: []gxapi.BindParameterDesc{
		{Parameter: f.cons, Constants: 4, Visibility: gputypes.ShaderStageFragment},
		{Parameter: f.t0, Visibility: gputypes.ShaderStageFragment},
	}})
	if err != nil {
		t.Fatal(err)
	}
	f.pso = newPSO(t, f.dev, f.b)

	texObj, err := f.dev.CreateTexture2D(gxapi.TextureDesc{Label: "color", Width: 64, Height: 64,
		Format: gputypes.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatal(err)
	}
	f.tex = gxapi.Texture{Res: texObj}
	rtv, _ := f.dev.CreateRenderTargetView(texObj, gxapi.ViewDesc{})
	srv, _ := f.dev.CreateShaderResourceView(texObj, gxapi.ViewDesc{})
	f.rtv = gxapi.RenderTargetView{View: rtv, Tex: f.tex}
	f.srv = gxapi.ShaderResourceView{View: srv, Tex: f.tex}

	vbObj, _ := f.dev.CreateBuffer(gxapi.BufferDesc{Label: "vb", Size: 80})
	ibObj, _ := f.dev.CreateBuffer(gxapi.BufferDesc{Label: "ib", Size: 12})
	f.vb = gxapi.VertexBuffer{Res: vbObj, Stride: 20, Count: 4}
	f.ib = gxapi.IndexBuffer{Res: ibObj, Format: gputypes.IndexFormatUint16, Count: 6}
	return f
}

func newPSO(t *testing.T, dev *gxtest.Device, b *binder.Binder) *binder.PipelineState {
	t.Helper()
	vs, _ := dev.CreateShader(gxapi.ShaderDesc{Label: "vs", Stage: gputypes.ShaderStageVertex, Source: "vs"})
	ps, _ := dev.CreateShader(gxapi.ShaderDesc{Label: "ps", Stage: gputypes.ShaderStageFragment, Source: "ps"})
	pso, err := binder.NewPipelineState(dev, b, gxapi.GraphicsPipelineDesc{
		Label:         "quad",
		VS:            gxapi.Shader{Obj: vs, Stage: gputypes.ShaderStageVertex, EntryPoint: "vs_main"},
		PS:            gxapi.Shader{Obj: ps, Stage: gputypes.ShaderStageFragment, EntryPoint: "fs_main"},
		InputLayout:   []gxapi.InputElement{{Semantic: "POSITION", Format: gputypes.VertexFormatFloat32x3}},
		Topology:      gputypes.PrimitiveTopologyTriangleList,
		RenderTargets: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
	})
	if err != nil {
		t.Fatal(err)
	}
	return pso
}

func TestCloseAndReset(t *testing.T) {
	f := newFixture(t)
	l := cmdlist.New(cmdlist.Graphics, nil)
	l.ClearRenderTarget(f.rtv, gputypes.Color{A: 1})

	if err := l.Reset(nil); !errors.Is(err, gxapi.ErrNotClosed) {
		t.Fatalf("Reset while recording = %v, want ErrNotClosed", err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); !errors.Is(err, gxapi.ErrNotRecording) {
		t.Fatalf("second Close = %v, want ErrNotRecording", err)
	}
	expectViolation(t, gxapi.ErrNotRecording, func() {
		l.ClearRenderTarget(f.rtv, gputypes.Color{})
	})

	if err := l.Reset(f.pso); err != nil {
		t.Fatal(err)
	}
	if l.State() != cmdlist.Recording {
		t.Fatalf("state after Reset = %s", l.State())
	}
	cmds := l.Commands()
	if len(cmds) != 1 {
		t.Fatalf("commands after Reset = %d, want the initial pipeline only", len(cmds))
	}
	if c, ok := cmds[0].(*cmdlist.SetPipelineCmd); !ok || c.PSO != f.pso {
		t.Fatalf("first command = %#v", cmds[0])
	}
	l.ClearRenderTarget(f.rtv, gputypes.Color{})
}

func TestResetClearsTracker(t *testing.T) {
	f := newFixture(t)
	l := cmdlist.New(cmdlist.Graphics, nil)
	if err := l.SetResourceState(f.tex.Res, gxapi.AllSubresources, gxapi.StateRenderTarget); err != nil {
		t.Fatal(err)
	}
	if _, known := l.Tracker().State(f.tex.Res, 0); !known {
		t.Fatal("state not tracked")
	}
	l.ResetState()
	if _, known := l.Tracker().State(f.tex.Res, 0); known {
		t.Fatal("ResetState kept tracked state")
	}
	if l.Len() != 0 {
		t.Fatalf("unknown initial state recorded %d commands", l.Len())
	}
}

func TestResourceBarrierBatches(t *testing.T) {
	f := newFixture(t)
	l := cmdlist.New(cmdlist.Copy, nil)
	l.ResourceBarrier()
	if l.Len() != 0 {
		t.Fatal("empty barrier call recorded a command")
	}
	l.ResourceBarrier(
		gxapi.Transition(f.tex.Res, gxapi.AllSubresourceIndex, gxapi.StateCommon, gxapi.StateCopyDest),
		gxapi.Transition(f.vb.Res, 0, gxapi.StateCommon, gxapi.StateCopySource),
		gxapi.UAV(f.ib.Res),
	)
	if l.Len() != 1 {
		t.Fatalf("commands = %d, want one batch", l.Len())
	}
	bc := l.Commands()[0].(*cmdlist.BarrierCmd)
	if len(bc.Barriers) != 3 || bc.Barriers[2].Type != gxapi.BarrierUAV {
		t.Fatalf("batch = %v", bc.Barriers)
	}
}

func TestSetResourceStateUsesBase(t *testing.T) {
	f := newFixture(t)
	reg := state.NewRegistry()
	l := cmdlist.New(cmdlist.Graphics, state.NewTracker(state.WithBase(reg.Lookup)))

	if err := l.SetResourceState(f.tex.Res, gxapi.AllSubresources, gxapi.StateRenderTarget); err != nil {
		t.Fatal(err)
	}
	if err := l.SetResourceState(f.tex.Res, gxapi.AllSubresources, gxapi.StateRenderTarget); err != nil {
		t.Fatal(err)
	}
	if l.Len() != 1 {
		t.Fatalf("commands = %d, want one transition and no redundant barrier", l.Len())
	}
	b := l.Commands()[0].(*cmdlist.BarrierCmd).Barriers[0]
	if b.StateBefore != gxapi.StateCommon || b.StateAfter != gxapi.StateRenderTarget {
		t.Fatalf("barrier = %s", b)
	}
	if err := l.SetResourceState(f.tex.Res, gxapi.AllSubresources, gxapi.StateRenderTarget|gxapi.StateCopyDest); !errors.Is(err, gxapi.ErrInvalidState) {
		t.Fatalf("invalid target err = %v", err)
	}
}

func TestCapabilityLayering(t *testing.T) {
	f := newFixture(t)
	copyList := cmdlist.New(cmdlist.Copy, nil)
	computeList := cmdlist.New(cmdlist.Compute, nil)

	copyList.CopyBuffer(f.vb.Res, 0, f.ib.Res, 0, 12)
	expectViolation(t, gxapi.ErrCapability, func() { copyList.SetComputeBinder(f.b) })
	expectViolation(t, gxapi.ErrCapability, func() { computeList.SetGraphicsBinder(f.b) })
	expectViolation(t, gxapi.ErrCapability, func() { computeList.SetPipelineState(f.pso) })
	expectViolation(t, gxapi.ErrCapability, func() { computeList.ClearRenderTarget(f.rtv, gputypes.Color{}) })

	var gl cmdlist.GraphicsList = cmdlist.New(cmdlist.Graphics, nil)
	var cl cmdlist.ComputeList = gl
	var _ cmdlist.CopyList = cl
}

func TestCopyValidation(t *testing.T) {
	f := newFixture(t)
	l := cmdlist.New(cmdlist.Copy, nil)
	expectViolation(t, gxapi.ErrSubresourceRange, func() { l.CopyBuffer(f.ib.Res, 0, f.vb.Res, 0, 64) })
	expectViolation(t, gxapi.ErrSubresourceRange, func() {
		l.CopyTexture(f.tex.Res, 1, gxapi.Origin{}, f.tex.Res, 0, nil)
	})
	expectViolation(t, gxapi.ErrNoObject, func() { l.CopyResource(nil, f.tex.Res) })

	box := &gxapi.Box{Right: 8, Bottom: 8, Back: 1}
	l.CopyTextureRegion(
		gxapi.TextureCopyLocation{Buffer: f.vb.Res, Footprint: gxapi.Footprint{Width: 8, Height: 8, Depth: 1, RowPitch: 256}},
		gxapi.Origin{},
		gxapi.TextureCopyLocation{Texture: f.tex.Res},
		box,
	)
	box.Right = 1
	c := l.Commands()[0].(*cmdlist.CopyTextureCmd)
	if c.SrcBox.Right != 8 {
		t.Error("recorded box aliases the caller's box")
	}
}

func TestDrawRequiresMatchingPipeline(t *testing.T) {
	f := newFixture(t)
	other, err := binder.New(f.dev, gxapi.BinderDesc{Parameters: []gxapi.BindParameterDesc{
		{Parameter: f.t0},
	}})
	if err != nil {
		t.Fatal(err)
	}

	l := cmdlist.New(cmdlist.Graphics, nil)
	expectViolation(t, gxapi.ErrNoPipeline, func() { l.DrawIndexed(6) })

	// Pipeline bound after a binder of another layout.
	l.SetGraphicsBinder(other)
	expectViolation(t, gxapi.ErrRootSignatureMismatch, func() { l.SetPipelineState(f.pso) })

	// Binder rebound after the pipeline: reported at draw time.
	l2 := cmdlist.New(cmdlist.Graphics, nil)
	l2.SetPipelineState(f.pso)
	l2.SetGraphicsBinder(other)
	expectViolation(t, gxapi.ErrRootSignatureMismatch, func() { l2.DrawInstanced(3, 1, 0, 0) })

	l3 := cmdlist.New(cmdlist.Graphics, nil)
	l3.SetGraphicsBinder(f.b)
	l3.SetPipelineState(f.pso)
	l3.SetVertexBuffers(0, f.vb)
	l3.SetIndexBuffer(f.ib)
	l3.DrawIndexed(6)
	last := l3.Commands()[l3.Len()-1].(*cmdlist.DrawIndexedInstancedCmd)
	if last.IndexCount != 6 || last.InstanceCount != 1 || last.StartIndex != 0 {
		t.Fatalf("draw = %+v", last)
	}
}

func TestBindByParameter(t *testing.T) {
	f := newFixture(t)
	l := cmdlist.New(cmdlist.Graphics, nil)
	expectViolation(t, gxapi.ErrNoPipeline, func() { l.BindGraphicsTexture(f.t0, f.srv) })

	l.SetGraphicsBinder(f.b)
	l.BindGraphicsFloats(f.cons, []float32{1, 0.5}, 2)
	l.BindGraphicsTexture(f.t0, f.srv)

	c := l.Commands()[1].(*cmdlist.SetRootConstantsCmd)
	if c.Slot != 0 || c.Offset != 2 || c.Values[0] != 0x3f800000 || c.Values[1] != 0x3f000000 {
		t.Fatalf("constants = %+v", c)
	}
	tbl := l.Commands()[2].(*cmdlist.SetRootDescriptorTableCmd)
	if tbl.Slot != 1 || len(tbl.Views) != 1 || tbl.Compute {
		t.Fatalf("table = %+v", tbl)
	}

	expectViolation(t, gxapi.ErrUnknownParameter, func() {
		l.BindGraphicsTexture(gxapi.BindParameter{Type: gxapi.BindTexture, Register: 3}, f.srv)
	})
	expectViolation(t, gxapi.ErrUnknownParameter, func() { l.SetGraphicsRootConstants(0, make([]uint32, 5), 0) })
	expectViolation(t, gxapi.ErrUnknownParameter, func() { l.SetGraphicsRootConstant(1, 7, 0) })
	expectViolation(t, gxapi.ErrUnknownParameter, func() { l.SetGraphicsRootDescriptorTable(2, f.srv) })
}

func TestExecuteBundle(t *testing.T) {
	f := newFixture(t)
	bundle := cmdlist.New(cmdlist.Bundle, nil)
	bundle.SetGraphicsBinder(f.b)
	bundle.SetPipelineState(f.pso)
	bundle.DrawInstanced(3, 1, 0, 0)
	expectViolation(t, gxapi.ErrCapability, func() { bundle.ClearRenderTarget(f.rtv, gputypes.Color{}) })
	expectViolation(t, gxapi.ErrCapability, func() { bundle.ResourceBarrier(gxapi.UAV(f.tex.Res)) })

	l := cmdlist.New(cmdlist.Graphics, nil)
	expectViolation(t, gxapi.ErrNotClosed, func() { l.ExecuteBundle(bundle) })
	expectViolation(t, gxapi.ErrCapability, func() { l.ExecuteBundle(cmdlist.New(cmdlist.Graphics, nil)) })

	if err := bundle.Close(); err != nil {
		t.Fatal(err)
	}
	l.ExecuteBundle(bundle)
	if c, ok := l.Commands()[0].(*cmdlist.ExecuteBundleCmd); !ok || c.Bundle != bundle {
		t.Fatalf("commands = %#v", l.Commands())
	}
}

func TestClearDepthStencilFlags(t *testing.T) {
	f := newFixture(t)
	depthObj, err := f.dev.CreateTexture2D(gxapi.TextureDesc{Width: 8, Height: 8, Format: gputypes.TextureFormatDepth24PlusStencil8})
	if err != nil {
		t.Fatal(err)
	}
	view, _ := f.dev.CreateDepthStencilView(depthObj, gxapi.ViewDesc{})
	dsv := gxapi.DepthStencilView{View: view, Tex: gxapi.Texture{Res: depthObj}}

	l := cmdlist.New(cmdlist.Graphics, nil)
	l.ClearDepthStencil(dsv, 1, 0, 0)
	if l.Len() != 0 {
		t.Fatal("clear without flags recorded a command")
	}
	l.ClearDepthStencil(dsv, 1, 3, gxapi.ClearDepth|gxapi.ClearStencil, gxapi.Rect{Right: 4, Bottom: 4})
	c := l.Commands()[0].(*cmdlist.ClearDepthStencilCmd)
	if c.Stencil != 3 || c.Flags != gxapi.ClearDepth|gxapi.ClearStencil || len(c.Rects) != 1 {
		t.Fatalf("clear = %+v", c)
	}
}

// drawQuad records through the interface the way graph nodes do.
func drawQuad(gl cmdlist.GraphicsList, f *fixture) {
	gl.SetGraphicsBinder(f.b)
	gl.SetPipelineState(f.pso)
	gl.SetVertexBuffers(0, f.vb)
	gl.SetIndexBuffer(f.ib)
	gl.DrawIndexed(f.ib.Count)
}

func TestDrawIndexedThroughInterface(t *testing.T) {
	f := newFixture(t)
	l := cmdlist.New(cmdlist.Graphics, nil)
	drawQuad(l, f)
	c, ok := l.Commands()[l.Len()-1].(*cmdlist.DrawIndexedInstancedCmd)
	if !ok || c.IndexCount != 6 || c.InstanceCount != 1 || c.BaseVertex != 0 {
		t.Fatalf("last command = %#v", l.Commands()[l.Len()-1])
	}

	bundle := cmdlist.New(cmdlist.Bundle, nil)
	drawQuad(bundle, f)
	if err := bundle.Close(); err != nil {
		t.Fatal(err)
	}
	expectViolation(t, gxapi.ErrCapability, func() { drawQuad(cmdlist.New(cmdlist.Compute, nil), f) })
}
