// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/cmdlist"
	"github.com/gogpu/framegraph/gxapi"
)

// textureUsage maps a resource state to the texture usage a HAL barrier
// transitions between.
func textureUsage(s gxapi.ResourceState) gputypes.TextureUsage {
	var u gputypes.TextureUsage
	if s&(gxapi.StateRenderTarget|gxapi.StateDepthWrite|gxapi.StateDepthRead) != 0 {
		u |= gputypes.TextureUsageRenderAttachment
	}
	if s&gxapi.StateShaderResource != 0 {
		u |= gputypes.TextureUsageTextureBinding
	}
	if s&gxapi.StateUnorderedAccess != 0 {
		u |= gputypes.TextureUsageStorageBinding
	}
	if s&gxapi.StateCopyDest != 0 {
		u |= gputypes.TextureUsageCopyDst
	}
	if s&gxapi.StateCopySource != 0 {
		u |= gputypes.TextureUsageCopySrc
	}
	return u
}

// bufferUsage maps a resource state to buffer usage.
func bufferUsage(s gxapi.ResourceState) gputypes.BufferUsage {
	var u gputypes.BufferUsage
	if s&gxapi.StateVertexAndConstantBuffer != 0 {
		u |= gputypes.BufferUsageVertex | gputypes.BufferUsageUniform
	}
	if s&gxapi.StateIndexBuffer != 0 {
		u |= gputypes.BufferUsageIndex
	}
	if s&(gxapi.StateUnorderedAccess|gxapi.StateShaderResource) != 0 {
		u |= gputypes.BufferUsageStorage
	}
	if s&gxapi.StateCopyDest != 0 {
		u |= gputypes.BufferUsageCopyDst
	}
	if s&gxapi.StateCopySource != 0 {
		u |= gputypes.BufferUsageCopySrc
	}
	return u
}

// transients are per-submission objects destroyed once the GPU is done.
type transients struct {
	groups  []hal.BindGroup
	buffers []hal.Buffer
}

func (t *transients) destroy(dev hal.Device) {
	for _, g := range t.groups {
		dev.DestroyBindGroup(g)
	}
	for _, b := range t.buffers {
		dev.DestroyBuffer(b)
	}
	t.groups, t.buffers = nil, nil
}

type bufferBinding struct {
	buf    *buffer
	offset uint64
}

// table is the bound binder, pipeline and root arguments of one pipeline
// kind.
type table struct {
	binder    *binder.Binder
	pso       *binder.PipelineState
	constants map[int][]uint32
	views     map[int][]gxapi.ShaderResourceView
	buffers   map[int]bufferBinding
}

// setBinder binds b. A different binder drops the bound arguments.
func (t *table) setBinder(b *binder.Binder) {
	if t.binder == b && t.constants != nil {
		return
	}
	t.binder = b
	t.constants = make(map[int][]uint32)
	t.views = make(map[int][]gxapi.ShaderResourceView)
	t.buffers = make(map[int]bufferBinding)
}

// replayer translates recorded commands into HAL encoder calls. Render
// passes open lazily at the first draw after SetRenderTargets and close
// before any command that cannot run inside a pass.
type replayer struct {
	d   *Device
	enc hal.CommandEncoder
	log *slog.Logger
	res *transients

	pass hal.RenderPassEncoder

	graphics, compute table

	rtvs     []gxapi.RenderTargetView
	dsv      *gxapi.DepthStencilView
	vbs      map[uint32]gxapi.VertexBuffer
	ib       *gxapi.IndexBuffer
	viewport *gxapi.Viewport
	scissor  *gxapi.Rect
	blend    *gputypes.Color
	stencil  *uint32
}

func newReplayer(d *Device, enc hal.CommandEncoder) *replayer {
	return &replayer{d: d, enc: enc, log: d.log, res: &transients{}}
}

// list replays one closed command list. Bound state does not carry over
// between lists.
func (r *replayer) list(l *cmdlist.List) error {
	r.endPass()
	*r = replayer{d: r.d, enc: r.enc, log: r.log, res: r.res, vbs: make(map[uint32]gxapi.VertexBuffer)}
	r.graphics.setBinder(nil)
	r.compute.setBinder(nil)
	if err := r.commands(l.Commands()); err != nil {
		return fmt.Errorf("halgpu: list %q: %w", l.Name(), err)
	}
	r.endPass()
	return nil
}

func (r *replayer) endPass() {
	if r.pass != nil {
		r.pass.End()
		r.pass = nil
	}
}

func (r *replayer) commands(cmds []cmdlist.Command) error {
	for i, c := range cmds {
		if err := r.command(c); err != nil {
			return fmt.Errorf("command %d (%T): %w", i, c, err)
		}
	}
	return nil
}

func (r *replayer) command(c cmdlist.Command) error {
	switch c := c.(type) {
	case *cmdlist.BarrierCmd:
		r.endPass()
		return r.barriers(c.Barriers)
	case *cmdlist.CopyBufferCmd:
		r.endPass()
		src, dst, err := bufferPair(c.Src, c.Dst)
		if err != nil {
			return err
		}
		r.enc.CopyBufferToBuffer(src.raw, dst.raw, []hal.BufferCopy{{SrcOffset: c.SrcOffset, DstOffset: c.DstOffset, Size: c.Size}})
	case *cmdlist.CopyResourceCmd:
		r.endPass()
		return r.copyResource(c.Dst, c.Src)
	case *cmdlist.CopyTextureCmd:
		r.endPass()
		return r.copyTexture(c)

	case *cmdlist.SetBinderCmd:
		if c.Compute {
			r.compute.setBinder(c.Binder)
		} else {
			r.graphics.setBinder(c.Binder)
		}
	case *cmdlist.SetPipelineCmd:
		if c.PSO.IsCompute() {
			r.compute.setBinder(c.PSO.Binder())
			r.compute.pso = c.PSO
		} else {
			r.graphics.setBinder(c.PSO.Binder())
			r.graphics.pso = c.PSO
		}
	case *cmdlist.SetRootConstantsCmd:
		t := r.table(c.Compute)
		n := int(c.Offset) + len(c.Values)
		if t.binder != nil {
			n = max(n, int(t.binder.Parameter(c.Slot).Constants))
		}
		vals := t.constants[c.Slot]
		if len(vals) < n {
			vals = append(vals, make([]uint32, n-len(vals))...)
		}
		copy(vals[c.Offset:], c.Values)
		t.constants[c.Slot] = vals
	case *cmdlist.SetRootConstantBufferCmd:
		b, err := asBuffer(c.Buffer)
		if err != nil {
			return err
		}
		r.table(c.Compute).buffers[c.Slot] = bufferBinding{buf: b, offset: c.Offset}
	case *cmdlist.SetRootShaderResourceCmd:
		b, err := asBuffer(c.Buffer)
		if err != nil {
			return err
		}
		r.table(c.Compute).buffers[c.Slot] = bufferBinding{buf: b, offset: c.Offset}
	case *cmdlist.SetRootDescriptorTableCmd:
		r.table(c.Compute).views[c.Slot] = slices.Clone(c.Views)

	case *cmdlist.DispatchCmd:
		r.endPass()
		return r.dispatch(c)
	case *cmdlist.DrawInstancedCmd:
		return r.draw(func(p hal.RenderPassEncoder) {
			p.Draw(c.VertexCount, c.InstanceCount, c.StartVertex, c.StartInstance)
		})
	case *cmdlist.DrawIndexedInstancedCmd:
		if r.ib == nil {
			return fmt.Errorf("indexed draw without index buffer")
		}
		return r.draw(func(p hal.RenderPassEncoder) {
			p.DrawIndexed(c.IndexCount, c.InstanceCount, c.StartIndex, c.BaseVertex, c.StartInstance)
		})
	case *cmdlist.ExecuteBundleCmd:
		return r.commands(c.Bundle.Commands())

	case *cmdlist.ClearRenderTargetCmd:
		r.endPass()
		return r.clearColor(c)
	case *cmdlist.ClearDepthStencilCmd:
		r.endPass()
		return r.clearDepth(c)
	case *cmdlist.SetRenderTargetsCmd:
		r.endPass()
		r.rtvs = slices.Clone(c.RTVs)
		r.dsv = c.DSV
	case *cmdlist.SetIndexBufferCmd:
		ib := c.Buffer
		r.ib = &ib
	case *cmdlist.SetVertexBuffersCmd:
		for i, vb := range c.Buffers {
			r.vbs[c.StartSlot+uint32(i)] = vb
		}
	case *cmdlist.SetPrimitiveTopologyCmd:
		// Topology is part of the pipeline.
	case *cmdlist.SetBlendFactorCmd:
		col := c.Color
		r.blend = &col
	case *cmdlist.SetStencilRefCmd:
		ref := c.Ref
		r.stencil = &ref
	case *cmdlist.SetScissorRectsCmd:
		r.scissor = nil
		if len(c.Rects) > 0 {
			rect := c.Rects[0]
			r.scissor = &rect
		}
	case *cmdlist.SetViewportsCmd:
		r.viewport = nil
		if len(c.Viewports) > 0 {
			vp := c.Viewports[0]
			r.viewport = &vp
		}
	default:
		return fmt.Errorf("unsupported command %T", c)
	}
	return nil
}

func (r *replayer) table(compute bool) *table {
	if compute {
		return &r.compute
	}
	return &r.graphics
}

func asBuffer(obj gxapi.BufferObject) (*buffer, error) {
	b, ok := obj.(*buffer)
	if !ok || b == nil {
		return nil, fmt.Errorf("buffer %T was not created by this backend", obj)
	}
	return b, nil
}

func bufferPair(src, dst gxapi.BufferObject) (*buffer, *buffer, error) {
	s, err := asBuffer(src)
	if err != nil {
		return nil, nil, err
	}
	d, err := asBuffer(dst)
	if err != nil {
		return nil, nil, err
	}
	return s, d, nil
}

func asView(obj gxapi.ViewObject) (*view, error) {
	v, ok := obj.(*view)
	if !ok || v == nil {
		return nil, fmt.Errorf("view %T was not created by this backend", obj)
	}
	return v, nil
}

func (r *replayer) barriers(bs []gxapi.Barrier) error {
	var texs []hal.TextureBarrier
	var bufs []hal.BufferBarrier
	for _, b := range bs {
		if b.Type == gxapi.BarrierAliasing {
			// No placed resources, nothing shares memory.
			continue
		}
		before, after := b.StateBefore, b.StateAfter
		if b.Type == gxapi.BarrierUAV {
			before, after = gxapi.StateUnorderedAccess, gxapi.StateUnorderedAccess
		}
		switch res := b.Resource.(type) {
		case *texture:
			rng := hal.TextureRange{
				Aspect:          gputypes.TextureAspectAll,
				MipLevelCount:   res.desc.Mips(),
				ArrayLayerCount: res.desc.Slices(),
			}
			if b.Subresource != gxapi.AllSubresourceIndex {
				mip, slice := res.split(b.Subresource)
				rng.BaseMipLevel, rng.MipLevelCount = mip, 1
				rng.BaseArrayLayer, rng.ArrayLayerCount = slice, 1
			}
			texs = append(texs, hal.TextureBarrier{
				Texture: res.raw,
				Range:   rng,
				Usage:   hal.TextureUsageTransition{OldUsage: textureUsage(before), NewUsage: textureUsage(after)},
			})
		case *buffer:
			bufs = append(bufs, hal.BufferBarrier{
				Buffer: res.raw,
				Usage:  hal.BufferUsageTransition{OldUsage: bufferUsage(before), NewUsage: bufferUsage(after)},
			})
		default:
			return fmt.Errorf("barrier on %T not created by this backend", b.Resource)
		}
	}
	if len(texs) > 0 {
		r.enc.TransitionTextures(texs)
	}
	if len(bufs) > 0 {
		r.enc.TransitionBuffers(bufs)
	}
	return nil
}

func (r *replayer) copyResource(dst, src gxapi.Resource) error {
	switch s := src.(type) {
	case *buffer:
		d, ok := dst.(*buffer)
		if !ok {
			return fmt.Errorf("copy from buffer %q to %T", s.Name(), dst)
		}
		r.enc.CopyBufferToBuffer(s.raw, d.raw, []hal.BufferCopy{{Size: min(s.size, d.size)}})
	case *texture:
		d, ok := dst.(*texture)
		if !ok {
			return fmt.Errorf("copy from texture %q to %T", s.Name(), dst)
		}
		var regions []hal.TextureCopy
		for sub := range min(s.SubresourceCount(), d.SubresourceCount()) {
			mip, slice := s.split(sub)
			regions = append(regions, hal.TextureCopy{
				SrcBase: hal.ImageCopyTexture{Texture: s.raw, MipLevel: mip, Origin: hal.Origin3D{Z: slice}, Aspect: s.aspect()},
				DstBase: hal.ImageCopyTexture{Texture: d.raw, MipLevel: mip, Origin: hal.Origin3D{Z: slice}, Aspect: d.aspect()},
				Size:    s.mipExtent(mip),
			})
		}
		r.enc.CopyTextureToTexture(s.raw, d.raw, regions)
	default:
		return fmt.Errorf("copy from %T not created by this backend", src)
	}
	return nil
}

// copyLocation resolves the texture side of a region copy.
func copyLocation(loc gxapi.TextureCopyLocation, origin hal.Origin3D) (*texture, hal.ImageCopyTexture, error) {
	t, ok := loc.Texture.(*texture)
	if !ok || t == nil {
		return nil, hal.ImageCopyTexture{}, fmt.Errorf("texture %T was not created by this backend", loc.Texture)
	}
	mip, slice := t.split(loc.Subresource)
	origin.Z += slice
	return t, hal.ImageCopyTexture{Texture: t.raw, MipLevel: mip, Origin: origin, Aspect: t.aspect()}, nil
}

func footprintLayout(fp gxapi.Footprint) hal.ImageDataLayout {
	return hal.ImageDataLayout{Offset: fp.Offset, BytesPerRow: fp.RowPitch, RowsPerImage: fp.Height}
}

func (r *replayer) copyTexture(c *cmdlist.CopyTextureCmd) error {
	srcOrigin := hal.Origin3D{}
	var size *hal.Extent3D
	if b := c.SrcBox; b != nil {
		srcOrigin = hal.Origin3D{X: b.Left, Y: b.Top, Z: b.Front}
		size = &hal.Extent3D{Width: b.Right - b.Left, Height: b.Bottom - b.Top, DepthOrArrayLayers: max(b.Back-b.Front, 1)}
	}
	dstOrigin := hal.Origin3D{X: c.DstOrigin.X, Y: c.DstOrigin.Y, Z: c.DstOrigin.Z}

	switch {
	case c.Src.Texture != nil && c.Dst.Texture != nil:
		st, src, err := copyLocation(c.Src, srcOrigin)
		if err != nil {
			return err
		}
		dt, dst, err := copyLocation(c.Dst, dstOrigin)
		if err != nil {
			return err
		}
		if size == nil {
			e := st.mipExtent(src.MipLevel)
			size = &e
		}
		r.enc.CopyTextureToTexture(st.raw, dt.raw, []hal.TextureCopy{{SrcBase: src, DstBase: dst, Size: *size}})
	case c.Src.Texture != nil:
		st, src, err := copyLocation(c.Src, srcOrigin)
		if err != nil {
			return err
		}
		db, err := asBuffer(c.Dst.Buffer)
		if err != nil {
			return err
		}
		if size == nil {
			e := st.mipExtent(src.MipLevel)
			size = &e
		}
		r.enc.CopyTextureToBuffer(st.raw, db.raw, []hal.BufferTextureCopy{{
			BufferLayout: footprintLayout(c.Dst.Footprint),
			TextureBase:  src,
			Size:         *size,
		}})
	case c.Dst.Texture != nil:
		sb, err := asBuffer(c.Src.Buffer)
		if err != nil {
			return err
		}
		dt, dst, err := copyLocation(c.Dst, dstOrigin)
		if err != nil {
			return err
		}
		if size == nil {
			fp := c.Src.Footprint
			size = &hal.Extent3D{Width: fp.Width, Height: fp.Height, DepthOrArrayLayers: max(fp.Depth, 1)}
		}
		r.enc.CopyBufferToTexture(sb.raw, dt.raw, []hal.BufferTextureCopy{{
			BufferLayout: footprintLayout(c.Src.Footprint),
			TextureBase:  dst,
			Size:         *size,
		}})
	default:
		return fmt.Errorf("texture copy between two buffers")
	}
	return nil
}

func (r *replayer) clearColor(c *cmdlist.ClearRenderTargetCmd) error {
	if len(c.Rects) > 0 {
		r.log.Debug("clear rects ignored, clearing whole target", "rects", len(c.Rects))
	}
	v, err := asView(c.RTV.View)
	if err != nil {
		return err
	}
	p := r.enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "clear",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       v.raw,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: c.Color,
		}},
	})
	p.End()
	return nil
}

func (r *replayer) clearDepth(c *cmdlist.ClearDepthStencilCmd) error {
	v, err := asView(c.DSV.View)
	if err != nil {
		return err
	}
	att := &hal.RenderPassDepthStencilAttachment{
		View:              v.raw,
		DepthLoadOp:       gputypes.LoadOpLoad,
		DepthStoreOp:      gputypes.StoreOpStore,
		DepthClearValue:   c.Depth,
		StencilClearValue: uint32(c.Stencil),
	}
	if c.Flags&gxapi.ClearDepth != 0 {
		att.DepthLoadOp = gputypes.LoadOpClear
	}
	if v.tex.desc.Format.HasStencil() {
		att.StencilLoadOp, att.StencilStoreOp = gputypes.LoadOpLoad, gputypes.StoreOpStore
		if c.Flags&gxapi.ClearStencil != 0 {
			att.StencilLoadOp = gputypes.LoadOpClear
		}
	}
	p := r.enc.BeginRenderPass(&hal.RenderPassDescriptor{Label: "clear depth", DepthStencilAttachment: att})
	p.End()
	return nil
}

func (r *replayer) beginPass() error {
	if len(r.rtvs) == 0 && r.dsv == nil {
		return fmt.Errorf("draw without render targets")
	}
	desc := &hal.RenderPassDescriptor{Label: "draw"}
	for _, rtv := range r.rtvs {
		v, err := asView(rtv.View)
		if err != nil {
			return err
		}
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View: v.raw, LoadOp: gputypes.LoadOpLoad, StoreOp: gputypes.StoreOpStore,
		})
	}
	if r.dsv != nil {
		v, err := asView(r.dsv.View)
		if err != nil {
			return err
		}
		att := &hal.RenderPassDepthStencilAttachment{
			View: v.raw, DepthLoadOp: gputypes.LoadOpLoad, DepthStoreOp: gputypes.StoreOpStore,
		}
		if v.tex.desc.Format.HasStencil() {
			att.StencilLoadOp, att.StencilStoreOp = gputypes.LoadOpLoad, gputypes.StoreOpStore
		}
		desc.DepthStencilAttachment = att
	}
	r.pass = r.enc.BeginRenderPass(desc)
	return nil
}

// bindGroup builds the group 0 bind group from the bound root arguments.
// Constant parameters are uploaded into per-draw uniform buffers.
func (r *replayer) bindGroup(t *table, root *rootSignature) (hal.BindGroup, error) {
	var entries []gputypes.BindGroupEntry
	for i, pd := range root.desc.Parameters {
		binding := uint32(i)
		switch pd.Parameter.Type {
		case gxapi.BindConstant:
			size := constantSize(pd.Constants)
			data := make([]byte, size)
			for k, v := range t.constants[i] {
				if uint64(k*4) < size {
					binary.LittleEndian.PutUint32(data[k*4:], v)
				}
			}
			buf, err := r.d.raw.CreateBuffer(&hal.BufferDescriptor{
				Label: "root constants",
				Size:  size,
				Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
			})
			if err != nil {
				return nil, fmt.Errorf("constants %s: %w", pd.Parameter, err)
			}
			r.res.buffers = append(r.res.buffers, buf)
			if err := r.d.queue.WriteBuffer(buf, 0, data); err != nil {
				return nil, fmt.Errorf("constants %s: %w", pd.Parameter, err)
			}
			entries = append(entries, gputypes.BindGroupEntry{Binding: binding,
				Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: size}})
		case gxapi.BindConstantBuffer, gxapi.BindUnorderedAccess:
			bb, ok := t.buffers[i]
			if !ok {
				return nil, fmt.Errorf("parameter %s not bound", pd.Parameter)
			}
			entries = append(entries, gputypes.BindGroupEntry{Binding: binding,
				Resource: gputypes.BufferBinding{Buffer: bb.buf.raw.NativeHandle(), Offset: bb.offset}})
		case gxapi.BindTexture:
			views := t.views[i]
			if len(views) == 0 {
				return nil, fmt.Errorf("parameter %s not bound", pd.Parameter)
			}
			v, err := asView(views[0].View)
			if err != nil {
				return nil, err
			}
			entries = append(entries, gputypes.BindGroupEntry{Binding: binding,
				Resource: gputypes.TextureViewBinding{TextureView: v.raw.NativeHandle()}})
		case gxapi.BindSampler:
			entries = append(entries, gputypes.BindGroupEntry{Binding: binding,
				Resource: gputypes.SamplerBinding{Sampler: root.samplers[binding].NativeHandle()}})
		}
	}
	for j := range root.desc.StaticSamplers {
		binding := uint32(len(root.desc.Parameters) + j)
		entries = append(entries, gputypes.BindGroupEntry{Binding: binding,
			Resource: gputypes.SamplerBinding{Sampler: root.samplers[binding].NativeHandle()}})
	}
	g, err := r.d.raw.CreateBindGroup(&hal.BindGroupDescriptor{Label: "root arguments", Layout: root.bgl, Entries: entries})
	if err != nil {
		return nil, err
	}
	r.res.groups = append(r.res.groups, g)
	return g, nil
}

func boundPipeline(t *table) (*pipeline, error) {
	if t.pso == nil {
		return nil, gxapi.ErrNoPipeline
	}
	p, ok := t.pso.Object().(*pipeline)
	if !ok || p == nil {
		return nil, fmt.Errorf("pipeline %q was not created by this backend", t.pso.Label())
	}
	return p, nil
}

func (r *replayer) draw(issue func(hal.RenderPassEncoder)) error {
	p, err := boundPipeline(&r.graphics)
	if err != nil {
		return err
	}
	if p.render == nil {
		return fmt.Errorf("draw with compute pipeline %q", p.Name())
	}
	if r.pass == nil {
		if err := r.beginPass(); err != nil {
			return err
		}
	}
	group, err := r.bindGroup(&r.graphics, p.root)
	if err != nil {
		return err
	}
	r.pass.SetPipeline(p.render)
	r.pass.SetBindGroup(0, group, nil)
	for slot, vb := range r.vbs {
		b, err := asBuffer(vb.Res)
		if err != nil {
			return err
		}
		r.pass.SetVertexBuffer(slot, b.raw, 0)
	}
	if r.ib != nil {
		b, err := asBuffer(r.ib.Res)
		if err != nil {
			return err
		}
		r.pass.SetIndexBuffer(b.raw, r.ib.Format, 0)
	}
	if vp := r.viewport; vp != nil {
		r.pass.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, vp.MinDepth, vp.MaxDepth)
	}
	if sc := r.scissor; sc != nil && sc.Width() > 0 && sc.Height() > 0 {
		r.pass.SetScissorRect(uint32(max(sc.Left, 0)), uint32(max(sc.Top, 0)), uint32(sc.Width()), uint32(sc.Height()))
	}
	if r.blend != nil {
		r.pass.SetBlendConstant(r.blend)
	}
	if r.stencil != nil {
		r.pass.SetStencilReference(*r.stencil)
	}
	issue(r.pass)
	return nil
}

func (r *replayer) dispatch(c *cmdlist.DispatchCmd) error {
	p, err := boundPipeline(&r.compute)
	if err != nil {
		return err
	}
	if p.compute == nil {
		return fmt.Errorf("dispatch with graphics pipeline %q", p.Name())
	}
	group, err := r.bindGroup(&r.compute, p.root)
	if err != nil {
		return err
	}
	cp := r.enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "dispatch"})
	cp.SetPipeline(p.compute)
	cp.SetBindGroup(0, group, nil)
	cp.Dispatch(c.X, c.Y, c.Z)
	cp.End()
	return nil
}
