// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gxtest provides an in-memory gxapi.Device and graph queue for tests.
package gxtest

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogpu/framegraph/gxapi"
)

// Counts holds the number of objects created per kind.
type Counts struct {
	Textures       int
	Buffers        int
	RTVs           int
	SRVs           int
	DSVs           int
	Shaders        int
	RootSignatures int
	Pipelines      int
	Released       int
}

// Device is a fake gxapi.Device. Objects carry no GPU memory; buffers keep
// a copy of their initial data.
type Device struct {
	mu     sync.Mutex
	nextID atomic.Uint64
	counts Counts
	live   map[gxapi.Named]bool

	// FailRootSignature, FailPipeline and FailTexture make the next
	// matching creation fail with the given error.
	FailRootSignature error
	FailPipeline      error
	FailTexture       error

	// PipelinesBeforeFailure delays FailPipeline by that many successful
	// pipeline creations.
	PipelinesBeforeFailure int
}

// NewDevice returns an empty fake device.
func NewDevice() *Device {
	return &Device{live: make(map[gxapi.Named]bool)}
}

// Counts returns a snapshot of the creation counters.
func (d *Device) Counts() Counts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts
}

// Live reports whether obj was created by d and not released.
func (d *Device) Live(obj gxapi.Named) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[obj]
}

// LiveCount returns the number of live objects of kind: "texture",
// "buffer", "rtv", "srv", "dsv", "shader", "root", "graphics" or "compute".
func (d *Device) LiveCount(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for obj := range d.live {
		var k string
		switch o := obj.(type) {
		case *Texture:
			k = "texture"
		case *Buffer:
			k = "buffer"
		case *View:
			k = o.Kind
		case *Object:
			k = o.Kind
		}
		if k == kind {
			n++
		}
	}
	return n
}

func (d *Device) track(obj gxapi.Named, counter *int) {
	d.mu.Lock()
	*counter++
	d.live[obj] = true
	d.mu.Unlock()
}

func (d *Device) takeErr(p *error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := *p
	*p = nil
	return err
}

func (d *Device) pipelineErr() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailPipeline == nil {
		return nil
	}
	if d.PipelinesBeforeFailure > 0 {
		d.PipelinesBeforeFailure--
		return nil
	}
	err := d.FailPipeline
	d.FailPipeline = nil
	return err
}

func (d *Device) id() gxapi.ResourceID { return gxapi.ResourceID(d.nextID.Add(1)) }

// CreateTexture2D implements gxapi.Device.
func (d *Device) CreateTexture2D(desc gxapi.TextureDesc) (gxapi.TextureObject, error) {
	if err := d.takeErr(&d.FailTexture); err != nil {
		return nil, err
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("gxtest: texture %q has zero size", desc.Label)
	}
	t := &Texture{named: named{name: desc.Label}, id: d.id(), desc: desc}
	d.track(t, &d.counts.Textures)
	return t, nil
}

// CreateBuffer implements gxapi.Device.
func (d *Device) CreateBuffer(desc gxapi.BufferDesc) (gxapi.BufferObject, error) {
	size := desc.Size
	if size == 0 {
		size = uint64(len(desc.Data))
	}
	if size == 0 {
		return nil, fmt.Errorf("gxtest: buffer %q has zero size", desc.Label)
	}
	b := &Buffer{named: named{name: desc.Label}, id: d.id(), size: size, Data: append([]byte(nil), desc.Data...)}
	d.track(b, &d.counts.Buffers)
	return b, nil
}

func (d *Device) view(tex gxapi.TextureObject, desc gxapi.ViewDesc, kind string, counter *int) (gxapi.ViewObject, error) {
	if tex == nil {
		return nil, fmt.Errorf("gxtest: %s: %w", kind, gxapi.ErrNoObject)
	}
	v := &View{named: named{name: desc.Label}, tex: tex, Kind: kind}
	d.track(v, counter)
	return v, nil
}

// CreateRenderTargetView implements gxapi.Device.
func (d *Device) CreateRenderTargetView(tex gxapi.TextureObject, desc gxapi.ViewDesc) (gxapi.ViewObject, error) {
	return d.view(tex, desc, "rtv", &d.counts.RTVs)
}

// CreateShaderResourceView implements gxapi.Device.
func (d *Device) CreateShaderResourceView(tex gxapi.TextureObject, desc gxapi.ViewDesc) (gxapi.ViewObject, error) {
	return d.view(tex, desc, "srv", &d.counts.SRVs)
}

// CreateDepthStencilView implements gxapi.Device.
func (d *Device) CreateDepthStencilView(tex gxapi.TextureObject, desc gxapi.ViewDesc) (gxapi.ViewObject, error) {
	return d.view(tex, desc, "dsv", &d.counts.DSVs)
}

// CreateShader implements gxapi.Device. Sources that are empty or contain
// "#error" fail to compile.
func (d *Device) CreateShader(desc gxapi.ShaderDesc) (gxapi.ShaderObject, error) {
	if strings.TrimSpace(desc.Source) == "" || strings.Contains(desc.Source, "#error") {
		return nil, &gxapi.ShaderCompilationError{Label: desc.Label, Stage: desc.Stage,
			Err: fmt.Errorf("gxtest: invalid source")}
	}
	s := &Object{named: named{name: desc.Label}, Kind: "shader"}
	d.track(s, &d.counts.Shaders)
	return s, nil
}

// CreateRootSignature implements gxapi.Device.
func (d *Device) CreateRootSignature(desc gxapi.BinderDesc) (gxapi.RootSignatureObject, error) {
	if err := d.takeErr(&d.FailRootSignature); err != nil {
		return nil, err
	}
	r := &Object{Kind: "root"}
	d.track(r, &d.counts.RootSignatures)
	return r, nil
}

// CreateGraphicsPipeline implements gxapi.Device.
func (d *Device) CreateGraphicsPipeline(root gxapi.RootSignatureObject, desc gxapi.GraphicsPipelineDesc) (gxapi.PipelineObject, error) {
	if err := d.pipelineErr(); err != nil {
		return nil, err
	}
	p := &Object{named: named{name: desc.Label}, Kind: "graphics"}
	d.track(p, &d.counts.Pipelines)
	return p, nil
}

// CreateComputePipeline implements gxapi.Device.
func (d *Device) CreateComputePipeline(root gxapi.RootSignatureObject, desc gxapi.ComputePipelineDesc) (gxapi.PipelineObject, error) {
	if err := d.pipelineErr(); err != nil {
		return nil, err
	}
	p := &Object{named: named{name: desc.Label}, Kind: "compute"}
	d.track(p, &d.counts.Pipelines)
	return p, nil
}

// Release implements gxapi.Releaser.
func (d *Device) Release(obj gxapi.Named) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.live[obj] {
		delete(d.live, obj)
		d.counts.Released++
	}
}

type named struct {
	mu   sync.Mutex
	name string
}

func (n *named) Name() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.name
}

func (n *named) SetName(name string) {
	n.mu.Lock()
	n.name = name
	n.mu.Unlock()
}

// Texture is a fake texture.
type Texture struct {
	named
	id   gxapi.ResourceID
	desc gxapi.TextureDesc
}

func (t *Texture) ResourceID() gxapi.ResourceID { return t.id }
func (t *Texture) SubresourceCount() uint32     { return t.desc.Subresources() }
func (t *Texture) Desc() gxapi.TextureDesc      { return t.desc }

// Buffer is a fake buffer holding its initial data.
type Buffer struct {
	named
	id   gxapi.ResourceID
	size uint64
	Data []byte
}

func (b *Buffer) ResourceID() gxapi.ResourceID { return b.id }
func (b *Buffer) SubresourceCount() uint32     { return 1 }
func (b *Buffer) Size() uint64                 { return b.size }

// View is a fake texture view.
type View struct {
	named
	tex  gxapi.TextureObject
	Kind string
}

func (v *View) Texture() gxapi.TextureObject { return v.tex }

// Object is a fake shader, root signature or pipeline.
type Object struct {
	named
	Kind string
}

// NewTexture returns a standalone fake texture for tests that need a
// resource without a device.
func NewTexture(id gxapi.ResourceID, desc gxapi.TextureDesc) *Texture {
	return &Texture{named: named{name: desc.Label}, id: id, desc: desc}
}

// NewBuffer returns a standalone fake buffer.
func NewBuffer(id gxapi.ResourceID, size uint64) *Buffer {
	return &Buffer{id: id, size: size}
}
