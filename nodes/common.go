// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package nodes provides the render graph nodes of the demo pipeline: a
// texture source, a ping-pong blur, screen space ambient occlusion, debug
// draw and a camera.
//
// Every node creates its durable objects (binder, pipelines, buffers,
// targets) lazily in Setup, the first time they are needed, and reuses them
// afterwards. Per-frame views are released at the next Setup.
package nodes

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/cmdlist"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
)

var (
	//go:embed shaders/blur.wgsl
	blurWGSL string

	//go:embed shaders/ssao.wgsl
	ssaoWGSL string

	//go:embed shaders/debugdraw.wgsl
	debugDrawWGSL string
)

// quadVertices is a full-screen quad, position xyz then uv.
var quadVertices = []float32{
	-1, -1, 0, 0, 1,
	+1, -1, 0, 1, 1,
	+1, +1, 0, 1, 0,
	-1, +1, 0, 0, 0,
}

var quadIndices = []uint16{0, 1, 2, 0, 2, 3}

// quadLayout is the input layout of quadVertices.
var quadLayout = []gxapi.InputElement{
	{Semantic: "POSITION", Format: gputypes.VertexFormatFloat32x3, Offset: 0},
	{Semantic: "TEXCOORD", Format: gputypes.VertexFormatFloat32x2, Offset: 12},
}

const quadStride = 5 * 4

// quad is the full-screen quad geometry shared by the post-processing
// passes of one node.
type quad struct {
	vb gxapi.VertexBuffer
	ib gxapi.IndexBuffer
}

func newQuad(ctx *graph.SetupContext) (quad, error) {
	vb, err := ctx.CreateVertexBuffer("quad vertices", quadVertices, quadStride)
	if err != nil {
		return quad{}, err
	}
	ib, err := ctx.CreateIndexBuffer16("quad indices", quadIndices)
	if err != nil {
		ctx.Release(vb.Res)
		return quad{}, err
	}
	return quad{vb: vb, ib: ib}, nil
}

// draw transitions the quad buffers and draws it with the bound pipeline.
func (q quad) draw(gl cmdlist.GraphicsList) error {
	if err := gl.SetResourceState(q.vb.Res, gxapi.AllSubresources, gxapi.StateVertexAndConstantBuffer); err != nil {
		return err
	}
	if err := gl.SetResourceState(q.ib.Res, gxapi.AllSubresources, gxapi.StateIndexBuffer); err != nil {
		return err
	}
	gl.SetVertexBuffers(0, q.vb)
	gl.SetIndexBuffer(q.ib)
	gl.DrawIndexed(q.ib.Count)
	return nil
}

// target is a durable render target with the views post-processing needs.
type target struct {
	tex gxapi.Texture
	rtv gxapi.RenderTargetView
	srv gxapi.ShaderResourceView
}

func newTarget(ctx *graph.SetupContext, label string, w, h uint32, format gputypes.TextureFormat) (target, error) {
	tex, err := ctx.CreateTexture2D(gxapi.TextureDesc{Label: label, Width: w, Height: h, Format: format})
	if err != nil {
		return target{}, err
	}
	rtv, err := ctx.CreateRtv(tex, gxapi.ViewDesc{})
	if err != nil {
		ctx.Release(tex.Res)
		return target{}, err
	}
	srv, err := ctx.CreateSrv(tex, gxapi.ViewDesc{})
	if err != nil {
		ctx.Release(rtv.View)
		ctx.Release(tex.Res)
		return target{}, err
	}
	return target{tex: tex, rtv: rtv, srv: srv}, nil
}

func (t target) release(ctx *graph.SetupContext) {
	ctx.Release(t.srv.View)
	ctx.Release(t.rtv.View)
	ctx.Release(t.tex.Res)
}

func (t target) size() (uint32, uint32) {
	d := t.tex.Desc()
	return d.Width, d.Height
}

// sameSize reports whether every target matches w×h.
func sameSize(ts []target, w, h uint32) bool {
	for _, t := range ts {
		if tw, th := t.size(); tw != w || th != h {
			return false
		}
	}
	return true
}

// viewSet holds per-frame views until the next Setup.
type viewSet struct {
	views []gxapi.Named
}

func (s *viewSet) add(v gxapi.Named) { s.views = append(s.views, v) }

func (s *viewSet) release(ctx *graph.SetupContext) {
	for _, v := range s.views {
		ctx.Release(v)
	}
	clear(s.views)
	s.views = s.views[:0]
}

// fullscreen sets the render target, viewport and scissor for a pass that
// covers rtv.
func fullscreen(gl cmdlist.GraphicsList, rtv gxapi.RenderTargetView) {
	d := rtv.Tex.Desc()
	gl.SetRenderTargets([]gxapi.RenderTargetView{rtv}, nil)
	gl.SetViewports(gxapi.FullViewport(d.Width, d.Height))
	gl.SetScissorRects(gxapi.FullRect(d.Width, d.Height))
}

func linearClamp(register uint32) gxapi.StaticSamplerDesc {
	return gxapi.StaticSamplerDesc{
		Register:   register,
		MinFilter:  gputypes.FilterModeLinear,
		MagFilter:  gputypes.FilterModeLinear,
		MipFilter:  gputypes.FilterModeLinear,
		AddressU:   gputypes.AddressModeClampToEdge,
		AddressV:   gputypes.AddressModeClampToEdge,
		AddressW:   gputypes.AddressModeClampToEdge,
		Visibility: gputypes.ShaderStageFragment,
	}
}

func pointClamp(register uint32) gxapi.StaticSamplerDesc {
	s := linearClamp(register)
	s.MinFilter = gputypes.FilterModeNearest
	s.MagFilter = gputypes.FilterModeNearest
	s.MipFilter = gputypes.FilterModeNearest
	return s
}

func linearWrap(register uint32) gxapi.StaticSamplerDesc {
	s := linearClamp(register)
	s.AddressU = gputypes.AddressModeRepeat
	s.AddressV = gputypes.AddressModeRepeat
	s.AddressW = gputypes.AddressModeRepeat
	return s
}

// shaders compiles the vertex and fragment entry points of one module. On
// error no shader stays live.
func shaders(ctx *graph.SetupContext, label, source, fs string) (vs, ps gxapi.Shader, err error) {
	vs, err = ctx.CreateShader(gxapi.ShaderDesc{Label: label + " vs", Stage: gputypes.ShaderStageVertex,
		Source: source, EntryPoint: "vs_main"})
	if err != nil {
		return gxapi.Shader{}, gxapi.Shader{}, err
	}
	ps, err = ctx.CreateShader(gxapi.ShaderDesc{Label: label + " ps", Stage: gputypes.ShaderStageFragment,
		Source: source, EntryPoint: fs})
	if err != nil {
		ctx.Release(vs.Obj)
		return gxapi.Shader{}, gxapi.Shader{}, fmt.Errorf("%s: %w", fs, err)
	}
	return vs, ps, nil
}

// releaseShaders frees shader modules once the pipelines built from them
// exist.
func releaseShaders(ctx *graph.SetupContext, ss ...gxapi.Shader) {
	for _, s := range ss {
		if s.HasObject() {
			ctx.Release(s.Obj)
		}
	}
}

// releasePSOs frees compiled pipelines. Nil entries are skipped.
func releasePSOs(ctx *graph.SetupContext, psos ...*binder.PipelineState) {
	for _, p := range psos {
		if p.HasObject() {
			ctx.Release(p.Object())
		}
	}
}

// postPSO compiles a full-screen pass over fs writing one target of
// format. The shader modules are released whether or not the pipeline
// compiles.
func postPSO(ctx *graph.SetupContext, b *binder.Binder, label, source, fs string, format gputypes.TextureFormat) (*binder.PipelineState, error) {
	vs, ps, err := shaders(ctx, label, source, fs)
	if err != nil {
		return nil, err
	}
	defer releaseShaders(ctx, vs, ps)
	return ctx.CreatePSO(b, gxapi.GraphicsPipelineDesc{
		Label:         label,
		VS:            vs,
		PS:            ps,
		InputLayout:   quadLayout,
		Topology:      gputypes.PrimitiveTopologyTriangleList,
		Rasterizer:    gxapi.RasterizerState{FillMode: gxapi.FillSolid, CullMode: gputypes.CullModeNone},
		RenderTargets: []gputypes.TextureFormat{format},
	})
}

// appendMat4 appends the 16 elements of a row-major matrix in column-major
// order, the layout of a WGSL mat4x4.
func appendMat4(dst []float32, m [16]float32) []float32 {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			dst = append(dst, m[r*4+c])
		}
	}
	return dst
}
