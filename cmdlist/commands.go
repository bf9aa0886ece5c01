// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cmdlist

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/gxapi"
)

// Command is one recorded operation. Backends replay a closed list by
// switching over the concrete command types below.
type Command interface {
	command()
}

type cmd struct{}

func (cmd) command() {}

// Copy commands.

type CopyBufferCmd struct {
	cmd
	Dst       gxapi.BufferObject
	DstOffset uint64
	Src       gxapi.BufferObject
	SrcOffset uint64
	Size      uint64
}

type CopyResourceCmd struct {
	cmd
	Dst, Src gxapi.Resource
}

// CopyTextureCmd copies a region between texture subresources or between a
// texture and a buffer footprint. SrcBox nil copies the whole source.
type CopyTextureCmd struct {
	cmd
	Dst       gxapi.TextureCopyLocation
	DstOrigin gxapi.Origin
	Src       gxapi.TextureCopyLocation
	SrcBox    *gxapi.Box
}

// BarrierCmd holds every barrier of one ResourceBarrier call.
type BarrierCmd struct {
	cmd
	Barriers []gxapi.Barrier
}

// Root signature and pipeline commands. Compute selects the compute
// binding table instead of the graphics one.

type SetBinderCmd struct {
	cmd
	Binder  *binder.Binder
	Compute bool
}

type SetPipelineCmd struct {
	cmd
	PSO *binder.PipelineState
}

type SetRootConstantsCmd struct {
	cmd
	Slot    int
	Offset  uint32
	Values  []uint32
	Compute bool
}

type SetRootConstantBufferCmd struct {
	cmd
	Slot    int
	Buffer  gxapi.BufferObject
	Offset  uint64
	Compute bool
}

type SetRootDescriptorTableCmd struct {
	cmd
	Slot    int
	Views   []gxapi.ShaderResourceView
	Compute bool
}

type SetRootShaderResourceCmd struct {
	cmd
	Slot    int
	Buffer  gxapi.BufferObject
	Offset  uint64
	Compute bool
}

// Work commands.

type DispatchCmd struct {
	cmd
	X, Y, Z uint32
}

type DrawInstancedCmd struct {
	cmd
	VertexCount   uint32
	InstanceCount uint32
	StartVertex   uint32
	StartInstance uint32
}

type DrawIndexedInstancedCmd struct {
	cmd
	IndexCount    uint32
	StartIndex    uint32
	BaseVertex    int32
	InstanceCount uint32
	StartInstance uint32
}

type ExecuteBundleCmd struct {
	cmd
	Bundle *List
}

// Output merger and rasterizer commands.

type ClearRenderTargetCmd struct {
	cmd
	RTV   gxapi.RenderTargetView
	Color gputypes.Color
	Rects []gxapi.Rect
}

type ClearDepthStencilCmd struct {
	cmd
	DSV     gxapi.DepthStencilView
	Depth   float32
	Stencil uint8
	Flags   gxapi.ClearFlags
	Rects   []gxapi.Rect
}

type SetIndexBufferCmd struct {
	cmd
	Buffer gxapi.IndexBuffer
}

type SetPrimitiveTopologyCmd struct {
	cmd
	Topology gputypes.PrimitiveTopology
}

type SetVertexBuffersCmd struct {
	cmd
	StartSlot uint32
	Buffers   []gxapi.VertexBuffer
}

// SetRenderTargetsCmd binds color targets and an optional depth target.
type SetRenderTargetsCmd struct {
	cmd
	RTVs []gxapi.RenderTargetView
	DSV  *gxapi.DepthStencilView
}

type SetBlendFactorCmd struct {
	cmd
	Color gputypes.Color
}

type SetStencilRefCmd struct {
	cmd
	Ref uint32
}

type SetScissorRectsCmd struct {
	cmd
	Rects []gxapi.Rect
}

type SetViewportsCmd struct {
	cmd
	Viewports []gxapi.Viewport
}
