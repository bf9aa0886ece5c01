// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph/gxapi"
)

// copyAlignment is the WebGPU alignment of buffer sizes and copy offsets.
const copyAlignment = 4

// Device implements gxapi.Device on a wgpu HAL device. It is safe for
// concurrent use.
type Device struct {
	raw   hal.Device
	queue hal.Queue
	log   *slog.Logger

	nextID atomic.Uint64

	mu   sync.Mutex
	live map[gxapi.Named]struct{}

	// release destroys the device and instance when the Device owns them.
	release func()
	closed  bool
}

func newDevice(raw hal.Device, queue hal.Queue, log *slog.Logger, release func()) *Device {
	return &Device{raw: raw, queue: queue, log: log, live: make(map[gxapi.Named]struct{}), release: release}
}

// HalDevice returns the underlying HAL device.
func (d *Device) HalDevice() hal.Device { return d.raw }

// HalQueue returns the underlying HAL queue.
func (d *Device) HalQueue() hal.Queue { return d.queue }

// LiveObjects returns the number of created objects not yet released.
func (d *Device) LiveObjects() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

func (d *Device) track(obj gxapi.Named) {
	d.mu.Lock()
	d.live[obj] = struct{}{}
	d.mu.Unlock()
}

func (d *Device) id() gxapi.ResourceID { return gxapi.ResourceID(d.nextID.Add(1)) }

// CreateTexture2D implements gxapi.Device. Copy usages are always added
// so CopyResource and readbacks work on any texture. A texture without
// usages can be sampled and rendered to.
func (d *Device) CreateTexture2D(desc gxapi.TextureDesc) (gxapi.TextureObject, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("halgpu: texture %q has zero size", desc.Label)
	}
	usage := desc.Usage
	if usage == gputypes.TextureUsageNone {
		usage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment
	}
	raw, err := d.raw.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: desc.Slices(),
		},
		MipLevelCount: desc.Mips(),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         usage | gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create texture %q: %w", desc.Label, err)
	}
	t := &texture{named: named{name: desc.Label}, id: d.id(), desc: desc, raw: raw}
	d.track(t)
	return t, nil
}

// CreateBuffer implements gxapi.Device. The size is rounded up to the copy
// alignment and initial data is written through the queue.
func (d *Device) CreateBuffer(desc gxapi.BufferDesc) (gxapi.BufferObject, error) {
	size := desc.Size
	if size == 0 {
		size = uint64(len(desc.Data))
	}
	if size == 0 {
		return nil, fmt.Errorf("halgpu: buffer %q has zero size", desc.Label)
	}
	if uint64(len(desc.Data)) > size {
		return nil, fmt.Errorf("halgpu: buffer %q: %d bytes of data exceed size %d", desc.Label, len(desc.Data), size)
	}
	padded := (size + copyAlignment - 1) &^ (copyAlignment - 1)
	usage := desc.Usage | gputypes.BufferUsageCopyDst
	raw, err := d.raw.CreateBuffer(&hal.BufferDescriptor{Label: desc.Label, Size: padded, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create buffer %q: %w", desc.Label, err)
	}
	if len(desc.Data) > 0 {
		data := desc.Data
		if rem := len(data) % copyAlignment; rem != 0 {
			data = append(slices.Clone(data), make([]byte, copyAlignment-rem)...)
		}
		if err := d.queue.WriteBuffer(raw, 0, data); err != nil {
			d.raw.DestroyBuffer(raw)
			return nil, fmt.Errorf("halgpu: upload buffer %q: %w", desc.Label, err)
		}
	}
	b := &buffer{named: named{name: desc.Label}, id: d.id(), size: size, usage: usage, raw: raw}
	d.track(b)
	return b, nil
}

func (d *Device) asTexture(obj gxapi.TextureObject) (*texture, error) {
	if obj == nil {
		return nil, gxapi.ErrNoObject
	}
	t, ok := obj.(*texture)
	if !ok {
		return nil, fmt.Errorf("halgpu: texture %q was not created by this backend", obj.Name())
	}
	return t, nil
}

func (d *Device) createView(obj gxapi.TextureObject, desc gxapi.ViewDesc, kind viewKind) (gxapi.ViewObject, error) {
	t, err := d.asTexture(obj)
	if err != nil {
		return nil, fmt.Errorf("halgpu: create view %q: %w", desc.Label, err)
	}
	td := t.desc
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = td.Format
	}
	mips := desc.MipCount
	if mips == 0 {
		mips = td.Mips() - desc.FirstMip
		if kind != viewSRV {
			mips = 1
		}
	}
	layers := desc.SliceCount
	if layers == 0 {
		layers = td.Slices() - desc.FirstSlice
	}
	dim := gputypes.TextureViewDimension2D
	if layers > 1 || td.Slices() > 1 && kind == viewSRV {
		dim = gputypes.TextureViewDimension2DArray
	}
	aspect := gputypes.TextureAspectAll
	if kind == viewSRV {
		aspect = t.aspect()
	}
	raw, err := d.raw.CreateTextureView(t.raw, &hal.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          format,
		Dimension:       dim,
		Aspect:          aspect,
		BaseMipLevel:    desc.FirstMip,
		MipLevelCount:   mips,
		BaseArrayLayer:  desc.FirstSlice,
		ArrayLayerCount: layers,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create view %q of %q: %w", desc.Label, t.Name(), err)
	}
	v := &view{named: named{name: desc.Label}, kind: kind, tex: t, raw: raw}
	d.track(v)
	return v, nil
}

// CreateRenderTargetView implements gxapi.Device.
func (d *Device) CreateRenderTargetView(tex gxapi.TextureObject, desc gxapi.ViewDesc) (gxapi.ViewObject, error) {
	return d.createView(tex, desc, viewRTV)
}

// CreateShaderResourceView implements gxapi.Device.
func (d *Device) CreateShaderResourceView(tex gxapi.TextureObject, desc gxapi.ViewDesc) (gxapi.ViewObject, error) {
	return d.createView(tex, desc, viewSRV)
}

// CreateDepthStencilView implements gxapi.Device.
func (d *Device) CreateDepthStencilView(tex gxapi.TextureObject, desc gxapi.ViewDesc) (gxapi.ViewObject, error) {
	if tex != nil && !gxapi.IsDepthFormat(tex.Desc().Format) {
		return nil, &gxapi.UnsupportedFormatError{Where: "depth stencil view", Format: tex.Desc().Format,
			Reason: "not a depth format"}
	}
	return d.createView(tex, desc, viewDSV)
}

// Release implements gxapi.Releaser. Releasing an object twice, or one
// from another device, does nothing.
func (d *Device) Release(obj gxapi.Named) {
	d.mu.Lock()
	_, ok := d.live[obj]
	delete(d.live, obj)
	d.mu.Unlock()
	if !ok {
		return
	}
	d.destroy(obj)
}

func (d *Device) destroy(obj gxapi.Named) {
	switch o := obj.(type) {
	case *texture:
		d.raw.DestroyTexture(o.raw)
	case *buffer:
		d.raw.DestroyBuffer(o.raw)
	case *view:
		d.raw.DestroyTextureView(o.raw)
	case *shaderModule:
		d.raw.DestroyShaderModule(o.raw)
	case *rootSignature:
		for _, s := range o.samplers {
			d.raw.DestroySampler(s)
		}
		if o.layout != nil {
			d.raw.DestroyPipelineLayout(o.layout)
		}
		if o.bgl != nil {
			d.raw.DestroyBindGroupLayout(o.bgl)
		}
	case *pipeline:
		if o.render != nil {
			d.raw.DestroyRenderPipeline(o.render)
		}
		if o.compute != nil {
			d.raw.DestroyComputePipeline(o.compute)
		}
	}
}

// destroyOrder ranks objects so dependents go before what they reference.
func destroyOrder(obj gxapi.Named) int {
	switch obj.(type) {
	case *pipeline:
		return 0
	case *rootSignature, *shaderModule:
		return 1
	case *view:
		return 2
	}
	return 3
}

// Close waits for the device to go idle, destroys every live object and,
// when the device was opened by this package, the device itself.
func (d *Device) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	objs := make([]gxapi.Named, 0, len(d.live))
	for o := range d.live {
		objs = append(objs, o)
	}
	d.live = make(map[gxapi.Named]struct{})
	d.mu.Unlock()

	if err := d.raw.WaitIdle(); err != nil {
		d.log.Warn("wait idle before close", "err", err)
	}
	slices.SortStableFunc(objs, func(a, b gxapi.Named) int { return destroyOrder(a) - destroyOrder(b) })
	for _, o := range objs {
		d.destroy(o)
	}
	d.log.Debug("device closed", "objects", len(objs))
	if d.release != nil {
		d.release()
	}
}
