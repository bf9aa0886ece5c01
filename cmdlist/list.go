// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cmdlist records GPU work into replayable command lists.
//
// The capability layering of the command queue types is expressed as
// interface composition: a GraphicsList is a ComputeList is a CopyList.
// A single concrete recorder, *List, implements all three and rejects
// operations its Type does not support.
//
// State machine:
//
//	Recording -> Close() -> Closed
//	Closed    -> Reset() -> Recording
//
// Contract violations (recording on a closed list, missing capability,
// mismatched binder and pipeline, draws without a pipeline) panic with a
// *gxapi.ContractError. Fallible operations return errors.
//
// A List is NOT safe for concurrent use.
package cmdlist

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/state"
)

// Type is the queue type a list is recorded for.
type Type uint8

const (
	Copy Type = iota
	Compute
	Graphics
	// Bundle lists hold reusable draw sequences executed from a graphics list.
	Bundle
)

func (t Type) String() string {
	switch t {
	case Copy:
		return "copy"
	case Compute:
		return "compute"
	case Graphics:
		return "graphics"
	case Bundle:
		return "bundle"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// level orders the capability tiers.
func (t Type) level() int {
	switch t {
	case Copy:
		return 1
	case Compute:
		return 2
	case Graphics, Bundle:
		return 3
	}
	return 0
}

// State is the recording state of a list.
type State uint8

const (
	Recording State = iota
	Closed
)

func (s State) String() string {
	if s == Closed {
		return "closed"
	}
	return "recording"
}

// CopyList records copies and barriers.
type CopyList interface {
	Type() Type
	State() State
	Close() error
	Reset(initial *binder.PipelineState) error
	ResetState()

	// Copies validate sizes and subresource indices when recorded.
	CopyBuffer(dst gxapi.BufferObject, dstOffset uint64, src gxapi.BufferObject, srcOffset, size uint64)
	CopyResource(dst, src gxapi.Resource)
	CopyTexture(dst gxapi.TextureObject, dstSub uint32, dstOrigin gxapi.Origin, src gxapi.TextureObject, srcSub uint32, srcBox *gxapi.Box)
	CopyTextureRegion(dst gxapi.TextureCopyLocation, dstOrigin gxapi.Origin, src gxapi.TextureCopyLocation, srcBox *gxapi.Box)

	// ResourceBarrier records explicit barriers. SetResourceState records
	// only the transitions the list's tracker derives for target.
	ResourceBarrier(barriers ...gxapi.Barrier)
	SetResourceState(res gxapi.Resource, rng gxapi.SubresourceRange, target gxapi.ResourceState) error
	UAVBarrier(res gxapi.Resource)
}

// ComputeList adds compute root bindings and dispatch.
type ComputeList interface {
	CopyList

	// Root bindings address binder slots. The Bind variants resolve a
	// bind parameter to its slot first.
	SetComputeBinder(b *binder.Binder)
	SetComputeRootConstant(slot int, value uint32, offset uint32)
	SetComputeRootConstants(slot int, values []uint32, offset uint32)
	SetComputeRootConstantBuffer(slot int, buf gxapi.BufferObject, offset uint64)
	SetComputeRootDescriptorTable(slot int, views ...gxapi.ShaderResourceView)
	SetComputeRootShaderResource(slot int, buf gxapi.BufferObject, offset uint64)
	BindComputeConstants(p gxapi.BindParameter, values []uint32, offset uint32)
	BindComputeTexture(p gxapi.BindParameter, views ...gxapi.ShaderResourceView)

	// SetPipelineState panics when pso was built for another binder layout
	// than the one bound.
	SetPipelineState(pso *binder.PipelineState)
	Dispatch(x, y, z uint32)
}

// GraphicsList adds clears, draws, fixed-function state and graphics root
// bindings.
type GraphicsList interface {
	ComputeList

	// Clears are direct-list only. Without rects the whole view is cleared.
	ClearRenderTarget(rtv gxapi.RenderTargetView, color gputypes.Color, rects ...gxapi.Rect)
	ClearDepthStencil(dsv gxapi.DepthStencilView, depth float32, stencil uint8, flags gxapi.ClearFlags, rects ...gxapi.Rect)

	// Draws panic unless a binder and a matching pipeline are bound.
	DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32)
	// DrawIndexed draws one instance of indexCount indices from index 0.
	DrawIndexed(indexCount uint32)
	DrawIndexedInstanced(indexCount, startIndex uint32, baseVertex int32, instanceCount, startInstance uint32)
	ExecuteBundle(bundle *List)

	// Input assembly and fixed-function state.
	SetIndexBuffer(ib gxapi.IndexBuffer)
	SetPrimitiveTopology(t gputypes.PrimitiveTopology)
	SetVertexBuffers(startSlot uint32, vbs ...gxapi.VertexBuffer)
	SetRenderTargets(rtvs []gxapi.RenderTargetView, dsv *gxapi.DepthStencilView)
	SetBlendFactor(color gputypes.Color)
	SetStencilRef(ref uint32)
	SetScissorRects(rects ...gxapi.Rect)
	SetViewports(viewports ...gxapi.Viewport)

	// Graphics root bindings mirror the compute ones.
	SetGraphicsBinder(b *binder.Binder)
	SetGraphicsRootConstant(slot int, value uint32, offset uint32)
	SetGraphicsRootConstants(slot int, values []uint32, offset uint32)
	SetGraphicsRootConstantBuffer(slot int, buf gxapi.BufferObject, offset uint64)
	SetGraphicsRootDescriptorTable(slot int, views ...gxapi.ShaderResourceView)
	SetGraphicsRootShaderResource(slot int, buf gxapi.BufferObject, offset uint64)
	BindGraphicsConstants(p gxapi.BindParameter, values []uint32, offset uint32)
	BindGraphicsFloats(p gxapi.BindParameter, values []float32, offset uint32)
	BindGraphicsTexture(p gxapi.BindParameter, views ...gxapi.ShaderResourceView)
}

var _ GraphicsList = (*List)(nil)

// binding is the root signature and pipeline bound for one pipeline kind.
type binding struct {
	binder *binder.Binder
	pso    *binder.PipelineState
}

// List is the concrete command recorder.
type List struct {
	typ      Type
	state    State
	name     string
	tracker  *state.Tracker
	commands []Command

	graphics binding
	compute  binding
}

// New creates a list of typ in the Recording state. A nil tracker is
// replaced by a fresh one without a base.
func New(typ Type, tracker *state.Tracker) *List {
	if tracker == nil {
		tracker = state.NewTracker()
	}
	return &List{typ: typ, tracker: tracker}
}

// Type returns the queue type of the list.
func (l *List) Type() Type { return l.typ }

// State returns the recording state.
func (l *List) State() State { return l.state }

// Name returns the debug label.
func (l *List) Name() string { return l.name }

// SetName sets the debug label.
func (l *List) SetName(name string) { l.name = name }

// Tracker returns the state tracker of the recording session.
func (l *List) Tracker() *state.Tracker { return l.tracker }

// Commands returns the recorded commands. The slice must not be modified.
func (l *List) Commands() []Command { return l.commands }

// Len returns the number of recorded commands.
func (l *List) Len() int { return len(l.commands) }

// Close ends recording.
func (l *List) Close() error {
	if l.state == Closed {
		return fmt.Errorf("cmdlist: close %q: %w", l.name, gxapi.ErrNotRecording)
	}
	l.state = Closed
	return nil
}

// Reset drops every command and tracked state and returns a closed list to
// Recording. A non-nil initial pipeline is bound as the first command.
func (l *List) Reset(initial *binder.PipelineState) error {
	if l.state != Closed {
		return fmt.Errorf("cmdlist: reset %q: %w", l.name, gxapi.ErrNotClosed)
	}
	clear(l.commands)
	l.commands = l.commands[:0]
	l.graphics = binding{}
	l.compute = binding{}
	l.tracker.Reset()
	l.state = Recording
	if initial != nil {
		l.SetPipelineState(initial)
	}
	return nil
}

// ResetState forgets the tracked resource states without touching the
// recorded commands.
func (l *List) ResetState() {
	l.tracker.Reset()
}

func (l *List) violate(op string, err error) {
	panic(&gxapi.ContractError{Op: op, Err: err})
}

// check panics unless the list is recording and its type reaches level.
func (l *List) check(op string, level int) {
	if l.state != Recording {
		l.violate(op, gxapi.ErrNotRecording)
	}
	if l.typ.level() < level {
		l.violate(op, fmt.Errorf("%w: %s list", gxapi.ErrCapability, l.typ))
	}
}

// checkDirect panics for operations bundles cannot record.
func (l *List) checkDirect(op string, level int) {
	l.check(op, level)
	if l.typ == Bundle {
		l.violate(op, fmt.Errorf("%w: bundle list", gxapi.ErrCapability))
	}
}

func (l *List) record(c Command) {
	l.commands = append(l.commands, c)
}

// CopyBuffer copies size bytes between buffers.
func (l *List) CopyBuffer(dst gxapi.BufferObject, dstOffset uint64, src gxapi.BufferObject, srcOffset, size uint64) {
	const op = "CopyBuffer"
	l.checkDirect(op, 1)
	if dst == nil || src == nil {
		l.violate(op, gxapi.ErrNoObject)
	}
	if dstOffset+size > dst.Size() || srcOffset+size > src.Size() {
		l.violate(op, fmt.Errorf("%w: copy of %d bytes", gxapi.ErrSubresourceRange, size))
	}
	l.record(&CopyBufferCmd{Dst: dst, DstOffset: dstOffset, Src: src, SrcOffset: srcOffset, Size: size})
}

// CopyResource copies every subresource of src into dst.
func (l *List) CopyResource(dst, src gxapi.Resource) {
	const op = "CopyResource"
	l.checkDirect(op, 1)
	if dst == nil || src == nil {
		l.violate(op, gxapi.ErrNoObject)
	}
	l.record(&CopyResourceCmd{Dst: dst, Src: src})
}

// CopyTexture copies a region between two texture subresources.
func (l *List) CopyTexture(dst gxapi.TextureObject, dstSub uint32, dstOrigin gxapi.Origin, src gxapi.TextureObject, srcSub uint32, srcBox *gxapi.Box) {
	l.CopyTextureRegion(
		gxapi.TextureCopyLocation{Texture: dst, Subresource: dstSub},
		dstOrigin,
		gxapi.TextureCopyLocation{Texture: src, Subresource: srcSub},
		srcBox,
	)
}

// CopyTextureRegion copies between copy locations. Either side may be a
// buffer footprint.
func (l *List) CopyTextureRegion(dst gxapi.TextureCopyLocation, dstOrigin gxapi.Origin, src gxapi.TextureCopyLocation, srcBox *gxapi.Box) {
	const op = "CopyTexture"
	l.checkDirect(op, 1)
	for _, loc := range []gxapi.TextureCopyLocation{dst, src} {
		switch {
		case loc.Texture == nil && loc.Buffer == nil:
			l.violate(op, gxapi.ErrNoObject)
		case loc.Texture != nil && loc.Subresource >= loc.Texture.SubresourceCount():
			l.violate(op, fmt.Errorf("%w: subresource %d", gxapi.ErrSubresourceRange, loc.Subresource))
		}
	}
	var box *gxapi.Box
	if srcBox != nil {
		b := *srcBox
		box = &b
	}
	l.record(&CopyTextureCmd{Dst: dst, DstOrigin: dstOrigin, Src: src, SrcBox: box})
}

// ResourceBarrier records the barriers as one batch. Calls without
// barriers record nothing.
//
// ResourceBarrier does not update the tracker; use SetResourceState for
// tracked transitions.
func (l *List) ResourceBarrier(barriers ...gxapi.Barrier) {
	l.checkDirect("ResourceBarrier", 1)
	if len(barriers) == 0 {
		return
	}
	l.record(&BarrierCmd{Barriers: slices.Clone(barriers)})
}

// SetResourceState transitions the range of res to target, recording only
// the barriers the tracker reports as needed.
func (l *List) SetResourceState(res gxapi.Resource, rng gxapi.SubresourceRange, target gxapi.ResourceState) error {
	l.checkDirect("SetResourceState", 1)
	if res == nil {
		return fmt.Errorf("cmdlist: set resource state: %w", gxapi.ErrNoObject)
	}
	barriers, err := l.tracker.RequireState(res, rng, target)
	if err != nil {
		return fmt.Errorf("cmdlist: set resource state of %q: %w", res.Name(), err)
	}
	l.ResourceBarrier(barriers...)
	return nil
}

// UAVBarrier orders two unordered access passes over res.
func (l *List) UAVBarrier(res gxapi.Resource) {
	l.ResourceBarrier(gxapi.UAV(res))
}
