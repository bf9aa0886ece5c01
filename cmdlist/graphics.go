// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cmdlist

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/gxapi"
)

// ClearRenderTarget fills rtv with color. Without rects the whole view is
// cleared.
func (l *List) ClearRenderTarget(rtv gxapi.RenderTargetView, color gputypes.Color, rects ...gxapi.Rect) {
	const op = "ClearRenderTarget"
	l.checkDirect(op, 3)
	if !rtv.HasObject() {
		l.violate(op, gxapi.ErrNoObject)
	}
	l.record(&ClearRenderTargetCmd{RTV: rtv, Color: color, Rects: slices.Clone(rects)})
}

// ClearDepthStencil clears the aspects of dsv selected by flags.
func (l *List) ClearDepthStencil(dsv gxapi.DepthStencilView, depth float32, stencil uint8, flags gxapi.ClearFlags, rects ...gxapi.Rect) {
	const op = "ClearDepthStencil"
	l.checkDirect(op, 3)
	if !dsv.HasObject() {
		l.violate(op, gxapi.ErrNoObject)
	}
	if flags == 0 {
		return
	}
	l.record(&ClearDepthStencilCmd{DSV: dsv, Depth: depth, Stencil: stencil, Flags: flags, Rects: slices.Clone(rects)})
}

// DrawInstanced draws non-indexed instances with the bound pipeline.
func (l *List) DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32) {
	const op = "DrawInstanced"
	l.check(op, 3)
	l.ready(op, false)
	l.record(&DrawInstancedCmd{
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		StartVertex:   startVertex,
		StartInstance: startInstance,
	})
}

// DrawIndexedInstanced draws indexed instances with the bound pipeline.
func (l *List) DrawIndexedInstanced(indexCount, startIndex uint32, baseVertex int32, instanceCount, startInstance uint32) {
	const op = "DrawIndexedInstanced"
	l.check(op, 3)
	l.ready(op, false)
	l.record(&DrawIndexedInstancedCmd{
		IndexCount:    indexCount,
		StartIndex:    startIndex,
		BaseVertex:    baseVertex,
		InstanceCount: instanceCount,
		StartInstance: startInstance,
	})
}

// DrawIndexed draws one instance of indexCount indices from the start of
// the bound index buffer.
func (l *List) DrawIndexed(indexCount uint32) {
	l.DrawIndexedInstanced(indexCount, 0, 0, 1, 0)
}

// ExecuteBundle replays a closed bundle list.
func (l *List) ExecuteBundle(bundle *List) {
	const op = "ExecuteBundle"
	l.checkDirect(op, 3)
	switch {
	case bundle == nil:
		l.violate(op, gxapi.ErrNoObject)
	case bundle.typ != Bundle:
		l.violate(op, fmt.Errorf("%w: %s list executed as bundle", gxapi.ErrCapability, bundle.typ))
	case bundle.state != Closed:
		l.violate(op, gxapi.ErrNotClosed)
	}
	l.record(&ExecuteBundleCmd{Bundle: bundle})
}

// SetIndexBuffer binds the index buffer of subsequent indexed draws.
func (l *List) SetIndexBuffer(ib gxapi.IndexBuffer) {
	const op = "SetIndexBuffer"
	l.check(op, 3)
	if !ib.HasObject() {
		l.violate(op, gxapi.ErrNoObject)
	}
	l.record(&SetIndexBufferCmd{Buffer: ib})
}

// SetPrimitiveTopology records the topology. It must match the bound
// pipeline at replay.
func (l *List) SetPrimitiveTopology(t gputypes.PrimitiveTopology) {
	l.check("SetPrimitiveTopology", 3)
	l.record(&SetPrimitiveTopologyCmd{Topology: t})
}

// SetVertexBuffers binds vbs to consecutive slots from startSlot.
func (l *List) SetVertexBuffers(startSlot uint32, vbs ...gxapi.VertexBuffer) {
	const op = "SetVertexBuffers"
	l.check(op, 3)
	for _, vb := range vbs {
		if !vb.HasObject() {
			l.violate(op, gxapi.ErrNoObject)
		}
	}
	l.record(&SetVertexBuffersCmd{StartSlot: startSlot, Buffers: slices.Clone(vbs)})
}

// SetRenderTargets binds up to gxapi.MaxRenderTargets color targets and an
// optional depth target.
func (l *List) SetRenderTargets(rtvs []gxapi.RenderTargetView, dsv *gxapi.DepthStencilView) {
	const op = "SetRenderTargets"
	l.checkDirect(op, 3)
	if len(rtvs) > gxapi.MaxRenderTargets {
		l.violate(op, fmt.Errorf("%w: %d render targets", gxapi.ErrCapability, len(rtvs)))
	}
	for _, rtv := range rtvs {
		if !rtv.HasObject() {
			l.violate(op, gxapi.ErrNoObject)
		}
	}
	var ds *gxapi.DepthStencilView
	if dsv != nil {
		if !dsv.HasObject() {
			l.violate(op, gxapi.ErrNoObject)
		}
		d := *dsv
		ds = &d
	}
	l.record(&SetRenderTargetsCmd{RTVs: slices.Clone(rtvs), DSV: ds})
}

// SetBlendFactor sets the constant blend color.
func (l *List) SetBlendFactor(color gputypes.Color) {
	l.check("SetBlendFactor", 3)
	l.record(&SetBlendFactorCmd{Color: color})
}

// SetStencilRef sets the stencil reference value.
func (l *List) SetStencilRef(ref uint32) {
	l.check("SetStencilRef", 3)
	l.record(&SetStencilRefCmd{Ref: ref})
}

// SetScissorRects sets one scissor rectangle per viewport.
func (l *List) SetScissorRects(rects ...gxapi.Rect) {
	l.check("SetScissorRects", 3)
	l.record(&SetScissorRectsCmd{Rects: slices.Clone(rects)})
}

// SetViewports sets the viewports of subsequent draws.
func (l *List) SetViewports(viewports ...gxapi.Viewport) {
	l.check("SetViewports", 3)
	l.record(&SetViewportsCmd{Viewports: slices.Clone(viewports)})
}
