// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph/gxapi"
)

// named holds the debug label. HAL objects take their label at creation,
// later renames only reach logs and barrier dumps.
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

type texture struct {
	named
	id   gxapi.ResourceID
	desc gxapi.TextureDesc
	raw  hal.Texture
}

func (t *texture) ResourceID() gxapi.ResourceID { return t.id }
func (t *texture) SubresourceCount() uint32     { return t.desc.Subresources() }
func (t *texture) Desc() gxapi.TextureDesc      { return t.desc }

// mipExtent returns the size of mip level mip.
func (t *texture) mipExtent(mip uint32) hal.Extent3D {
	return hal.Extent3D{
		Width:              max(t.desc.Width>>mip, 1),
		Height:             max(t.desc.Height>>mip, 1),
		DepthOrArrayLayers: 1,
	}
}

// split turns a flat subresource index into mip level and array slice.
func (t *texture) split(sub uint32) (mip, slice uint32) {
	mips := t.desc.Mips()
	return sub % mips, sub / mips
}

// aspect is the aspect copied and sampled: depth only for depth formats.
func (t *texture) aspect() gputypes.TextureAspect {
	if t.desc.Format.HasDepth() {
		return gputypes.TextureAspectDepthOnly
	}
	return gputypes.TextureAspectAll
}

type buffer struct {
	named
	id    gxapi.ResourceID
	size  uint64
	usage gputypes.BufferUsage
	raw   hal.Buffer
}

func (b *buffer) ResourceID() gxapi.ResourceID { return b.id }
func (b *buffer) SubresourceCount() uint32     { return 1 }
func (b *buffer) Size() uint64                 { return b.size }

type viewKind uint8

const (
	viewRTV viewKind = iota
	viewSRV
	viewDSV
)

type view struct {
	named
	kind viewKind
	tex  *texture
	raw  hal.TextureView
}

func (v *view) Texture() gxapi.TextureObject { return v.tex }

type shaderModule struct {
	named
	stage gputypes.ShaderStage
	entry string
	raw   hal.ShaderModule
}

// rootSignature is one bind group layout at group 0 plus the pipeline
// layout holding it. Parameter i is binding i; static samplers follow the
// parameters.
type rootSignature struct {
	named
	desc     gxapi.BinderDesc
	bgl      hal.BindGroupLayout
	layout   hal.PipelineLayout
	samplers map[uint32]hal.Sampler
}

// constantSize is the uniform buffer size of a constant parameter,
// rounded up to a multiple of 16 bytes.
func constantSize(values uint32) uint64 {
	return (uint64(values)*4 + 15) &^ 15
}

type pipeline struct {
	named
	root    *rootSignature
	render  hal.RenderPipeline
	compute hal.ComputePipeline
}
