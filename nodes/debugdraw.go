// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nodes

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/debugdraw"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
)

var debugUniforms = gxapi.BindParameter{Type: gxapi.BindConstant, Register: 0}

// debugConstants holds the view-projection matrix and the colour.
const debugConstants = 16 + 4

const debugStride = 3 * 4

func debugBinderDesc() gxapi.BinderDesc {
	return gxapi.BinderDesc{
		Parameters: []gxapi.BindParameterDesc{{
			Parameter:  debugUniforms,
			Constants:  debugConstants,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		}},
		StaticSamplers: []gxapi.StaticSamplerDesc{linearWrap(0)},
	}
}

// debugSlot mirrors one registry slot with the GPU buffers of its mesh.
type debugSlot struct {
	id       debugdraw.ObjectID
	version  uint64
	vb       gxapi.VertexBuffer
	ib       gxapi.IndexBuffer
	topology gputypes.PrimitiveTopology
	color    [4]float32
	live     bool
}

func (s *debugSlot) release(ctx *graph.SetupContext) {
	if s.vb.HasObject() {
		ctx.Release(s.vb.Res)
	}
	if s.ib.HasObject() {
		ctx.Release(s.ib.Res)
	}
	*s = debugSlot{}
}

type debugPipelines struct {
	lines, triangles *binder.PipelineState
}

// DebugDraw draws the objects of a debugdraw.Registry over its target.
// Objects whose lifetime ends are aged once per Execute.
type DebugDraw struct {
	name string
	reg  *debugdraw.Registry

	Target graph.InputPort[gxapi.Texture]
	Camera graph.InputPort[Camera]
	Output graph.OutputPort[gxapi.Texture]

	binder binder.Lazy[*binder.Binder]
	psos   binder.Lazy[debugPipelines]
	format gputypes.TextureFormat
	slots  []debugSlot

	// per frame
	rtv    gxapi.RenderTargetView
	camera Camera
	views  viewSet
}

// NewDebugDraw creates a debug draw node for reg.
func NewDebugDraw(name string, reg *debugdraw.Registry) *DebugDraw {
	return &DebugDraw{
		name:   name,
		reg:    reg,
		Target: graph.InputPort[gxapi.Texture]{Name: name + ".target"},
		Camera: graph.InputPort[Camera]{Name: name + ".camera"},
		Output: graph.OutputPort[gxapi.Texture]{Name: name + ".output"},
	}
}

func (n *DebugDraw) Name() string { return n.name }

func (n *DebugDraw) Initialize(ctx *graph.EngineContext) error {
	ctx.SetTaskSingle()
	return nil
}

func (n *DebugDraw) Reset() {
	n.rtv = gxapi.RenderTargetView{}
	n.Target.Clear()
	n.Camera.Clear()
	n.Output.Clear()
}

// Buffers returns the number of slots that currently hold GPU buffers.
func (n *DebugDraw) Buffers() int {
	c := 0
	for _, s := range n.slots {
		if s.vb.HasObject() {
			c++
		}
	}
	return c
}

// Setup releases the buffers of removed objects, forwards the target and
// skips the frame without a camera. Otherwise it uploads new or changed
// meshes.
func (n *DebugDraw) Setup(ctx *graph.SetupContext) error {
	n.views.release(ctx)
	n.releaseDead(ctx)
	tex, err := n.Target.Get()
	if err != nil {
		return err
	}
	n.Output.Set(tex)
	cam, ok := n.Camera.TryGet()
	if !ok {
		ctx.Logger().Debug("no camera, skipping")
		return graph.ErrSkip
	}
	n.camera = cam

	n.rtv, err = ctx.CreateRtv(tex, gxapi.ViewDesc{Label: "target", MipCount: 1, SliceCount: 1})
	if err != nil {
		return err
	}
	n.views.add(n.rtv.View)

	b, err := n.binder.Get(func() (*binder.Binder, error) { return ctx.CreateBinder(debugBinderDesc()) })
	if err != nil {
		return err
	}
	format := tex.Desc().Format
	if old, ok := n.psos.Value(); ok && n.format != format {
		releasePSOs(ctx, old.lines, old.triangles)
		n.psos.Invalidate()
	}
	if _, err := n.psos.Get(func() (debugPipelines, error) { return n.createPipelines(ctx, b, format) }); err != nil {
		return err
	}
	return n.syncSlots(ctx)
}

func (n *DebugDraw) createPipelines(ctx *graph.SetupContext, b *binder.Binder, format gputypes.TextureFormat) (debugPipelines, error) {
	vs, ps, err := shaders(ctx, "debugdraw", debugDrawWGSL, "fs_main")
	if err != nil {
		return debugPipelines{}, err
	}
	defer releaseShaders(ctx, vs, ps)
	desc := gxapi.GraphicsPipelineDesc{
		Label: "debug lines",
		VS:    vs,
		PS:    ps,
		InputLayout: []gxapi.InputElement{
			{Semantic: "POSITION", Format: gputypes.VertexFormatFloat32x3},
		},
		Topology:      gputypes.PrimitiveTopologyLineList,
		Rasterizer:    gxapi.RasterizerState{FillMode: gxapi.FillWireframe, CullMode: gputypes.CullModeNone},
		DepthStencil:  gxapi.DepthStencilState{DepthEnable: false, DepthWrite: false},
		RenderTargets: []gputypes.TextureFormat{format},
	}
	var p debugPipelines
	if p.lines, err = ctx.CreatePSO(b, desc); err != nil {
		return debugPipelines{}, err
	}
	desc.Label = "debug triangles"
	desc.Topology = gputypes.PrimitiveTopologyTriangleList
	if p.triangles, err = ctx.CreatePSO(b, desc); err != nil {
		releasePSOs(ctx, p.lines)
		return debugPipelines{}, err
	}
	n.format = format
	return p, nil
}

// releaseDead frees the buffers of slots whose object was removed or
// expired. It runs even when the node skips the frame.
func (n *DebugDraw) releaseDead(ctx *graph.SetupContext) {
	for i := range n.slots {
		s := &n.slots[i]
		if !s.live {
			continue
		}
		if obj, ok := n.reg.Lookup(i); !ok || obj.ID != s.id {
			s.release(ctx)
		}
	}
}

// syncSlots releases the buffers of replaced objects and uploads new or
// changed meshes.
func (n *DebugDraw) syncSlots(ctx *graph.SetupContext) error {
	count := n.reg.Len()
	for len(n.slots) < count {
		n.slots = append(n.slots, debugSlot{})
	}
	for i := 0; i < count; i++ {
		s := &n.slots[i]
		obj, ok := n.reg.Lookup(i)
		if !ok {
			if s.live {
				s.release(ctx)
			}
			continue
		}
		if s.live && s.id == obj.ID && s.version == obj.Version {
			continue
		}
		s.release(ctx)
		if err := n.upload(ctx, s, i, obj); err != nil {
			return err
		}
	}
	return nil
}

func (n *DebugDraw) upload(ctx *graph.SetupContext, s *debugSlot, index int, obj debugdraw.Object) error {
	*s = debugSlot{id: obj.ID, version: obj.Version, topology: obj.Mesh.Topology, color: obj.Color, live: true}
	if len(obj.Mesh.Vertices) == 0 || len(obj.Mesh.Indices) == 0 {
		return nil
	}
	vertices := make([]float32, 0, len(obj.Mesh.Vertices)*3)
	for _, v := range obj.Mesh.Vertices {
		vertices = append(vertices, v[0], v[1], v[2])
	}
	var err error
	s.vb, err = ctx.CreateVertexBuffer(fmt.Sprintf("object%d vertices", index), vertices, debugStride)
	if err != nil {
		return err
	}
	s.ib, err = ctx.CreateIndexBuffer32(fmt.Sprintf("object%d indices", index), obj.Mesh.Indices)
	if err != nil {
		ctx.Release(s.vb.Res)
		s.vb = gxapi.VertexBuffer{}
		return err
	}
	return nil
}

// Execute draws every live object and ages the registry.
func (n *DebugDraw) Execute(ctx *graph.RenderContext) error {
	gl := ctx.AsGraphics()
	b, _ := n.binder.Value()
	psos, _ := n.psos.Value()

	if err := gl.SetResourceState(n.rtv.Tex.Res, n.rtv.Subresources(), gxapi.StateRenderTarget); err != nil {
		return err
	}
	fullscreen(gl, n.rtv)
	gl.SetGraphicsBinder(b)

	uniforms := appendMat4(make([]float32, 0, debugConstants), n.camera.ViewProjection())
	drawn := 0
	for i := range n.slots {
		s := &n.slots[i]
		if !s.live || !s.vb.HasObject() || !s.ib.HasObject() {
			continue
		}
		pso := psos.lines
		if s.topology == gputypes.PrimitiveTopologyTriangleList {
			pso = psos.triangles
		}
		gl.SetPipelineState(pso)
		gl.SetPrimitiveTopology(pso.Topology())
		if err := gl.SetResourceState(s.vb.Res, gxapi.AllSubresources, gxapi.StateVertexAndConstantBuffer); err != nil {
			return err
		}
		if err := gl.SetResourceState(s.ib.Res, gxapi.AllSubresources, gxapi.StateIndexBuffer); err != nil {
			return err
		}
		gl.BindGraphicsFloats(debugUniforms, append(uniforms, s.color[:]...), 0)
		gl.SetVertexBuffers(0, s.vb)
		gl.SetIndexBuffer(s.ib)
		gl.DrawIndexed(s.ib.Count)
		drawn++
	}
	ctx.Logger().Debug("debug objects drawn", "count", drawn)

	n.reg.Update()
	return nil
}
