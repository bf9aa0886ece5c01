// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/cmdlist"
	"github.com/gogpu/framegraph/gxapi"
)

// ErrTaskSingle is returned by Fork on nodes that did not declare
// TaskMultiple during Initialize.
var ErrTaskSingle = errors.New("graph: node records into a single list")

// DefaultTextureUsage is applied to textures created without a usage.
const DefaultTextureUsage = gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst

// SetupContext creates GPU objects for a node during Setup.
type SetupContext struct {
	g     *Graph
	node  string
	frame uint64
	log   *slog.Logger
}

// Frame returns the index of the frame being built, starting at 0.
func (c *SetupContext) Frame() uint64 { return c.frame }

// Logger returns the graph logger scoped to the node.
func (c *SetupContext) Logger() *slog.Logger { return c.log }

func (c *SetupContext) label(l string) string {
	if l == "" {
		return c.node
	}
	return c.node + "/" + l
}

// CreateTexture2D creates a durable texture.
func (c *SetupContext) CreateTexture2D(desc gxapi.TextureDesc) (gxapi.Texture, error) {
	desc.Label = c.label(desc.Label)
	if desc.Usage == 0 {
		desc.Usage = DefaultTextureUsage
	}
	obj, err := c.g.dev.CreateTexture2D(desc)
	if err != nil {
		return gxapi.Texture{}, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	c.log.Debug("texture created", "label", desc.Label, "width", desc.Width, "height", desc.Height)
	return gxapi.Texture{Res: obj}, nil
}

func (c *SetupContext) viewDesc(tex gxapi.Texture, desc gxapi.ViewDesc, kind string) (gxapi.ViewDesc, error) {
	if !tex.HasObject() {
		return desc, fmt.Errorf("create %s: %w", kind, gxapi.ErrNoObject)
	}
	if desc.Format == gputypes.TextureFormatUndefined {
		desc.Format = tex.Desc().Format
	}
	if desc.Label == "" {
		desc.Label = kind
	}
	desc.Label = c.label(desc.Label)
	return desc, nil
}

// CreateRtv creates a render target view of tex.
func (c *SetupContext) CreateRtv(tex gxapi.Texture, desc gxapi.ViewDesc) (gxapi.RenderTargetView, error) {
	desc, err := c.viewDesc(tex, desc, "rtv")
	if err != nil {
		return gxapi.RenderTargetView{}, err
	}
	if gxapi.IsDepthFormat(desc.Format) {
		return gxapi.RenderTargetView{}, &gxapi.UnsupportedFormatError{Where: desc.Label, Format: desc.Format,
			Reason: "render target view of a depth format"}
	}
	v, err := c.g.dev.CreateRenderTargetView(tex.Res, desc)
	if err != nil {
		return gxapi.RenderTargetView{}, fmt.Errorf("create rtv %q: %w", desc.Label, err)
	}
	return gxapi.RenderTargetView{View: v, Tex: tex, Desc: desc}, nil
}

// CreateSrv creates a shader resource view of tex.
func (c *SetupContext) CreateSrv(tex gxapi.Texture, desc gxapi.ViewDesc) (gxapi.ShaderResourceView, error) {
	desc, err := c.viewDesc(tex, desc, "srv")
	if err != nil {
		return gxapi.ShaderResourceView{}, err
	}
	v, err := c.g.dev.CreateShaderResourceView(tex.Res, desc)
	if err != nil {
		return gxapi.ShaderResourceView{}, fmt.Errorf("create srv %q: %w", desc.Label, err)
	}
	return gxapi.ShaderResourceView{View: v, Tex: tex, Desc: desc}, nil
}

// CreateDsv creates a depth stencil view of tex.
func (c *SetupContext) CreateDsv(tex gxapi.Texture, desc gxapi.ViewDesc) (gxapi.DepthStencilView, error) {
	desc, err := c.viewDesc(tex, desc, "dsv")
	if err != nil {
		return gxapi.DepthStencilView{}, err
	}
	if !gxapi.IsDepthFormat(desc.Format) {
		return gxapi.DepthStencilView{}, &gxapi.UnsupportedFormatError{Where: desc.Label, Format: desc.Format,
			Reason: "depth stencil view of a color format"}
	}
	v, err := c.g.dev.CreateDepthStencilView(tex.Res, desc)
	if err != nil {
		return gxapi.DepthStencilView{}, fmt.Errorf("create dsv %q: %w", desc.Label, err)
	}
	return gxapi.DepthStencilView{View: v, Tex: tex, Desc: desc}, nil
}

// CreateVertexBuffer uploads vertices, stride bytes per vertex.
func (c *SetupContext) CreateVertexBuffer(label string, vertices []float32, stride uint32) (gxapi.VertexBuffer, error) {
	if stride == 0 || stride%4 != 0 || len(vertices)*4%int(stride) != 0 {
		return gxapi.VertexBuffer{}, fmt.Errorf("create vertex buffer %q: stride %d does not divide %d floats", label, stride, len(vertices))
	}
	data := make([]byte, len(vertices)*4)
	for i, v := range vertices {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	buf, err := c.createBuffer(label, data, gputypes.BufferUsageVertex)
	if err != nil {
		return gxapi.VertexBuffer{}, err
	}
	return gxapi.VertexBuffer{Res: buf, Stride: stride, Count: uint32(len(data)) / stride}, nil
}

// CreateIndexBuffer16 uploads 16-bit indices.
func (c *SetupContext) CreateIndexBuffer16(label string, indices []uint16) (gxapi.IndexBuffer, error) {
	data := make([]byte, len(indices)*2)
	for i, v := range indices {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	buf, err := c.createBuffer(label, data, gputypes.BufferUsageIndex)
	if err != nil {
		return gxapi.IndexBuffer{}, err
	}
	return gxapi.IndexBuffer{Res: buf, Format: gputypes.IndexFormatUint16, Count: uint32(len(indices))}, nil
}

// CreateIndexBuffer32 uploads 32-bit indices.
func (c *SetupContext) CreateIndexBuffer32(label string, indices []uint32) (gxapi.IndexBuffer, error) {
	data := make([]byte, len(indices)*4)
	for i, v := range indices {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	buf, err := c.createBuffer(label, data, gputypes.BufferUsageIndex)
	if err != nil {
		return gxapi.IndexBuffer{}, err
	}
	return gxapi.IndexBuffer{Res: buf, Format: gputypes.IndexFormatUint32, Count: uint32(len(indices))}, nil
}

func (c *SetupContext) createBuffer(label string, data []byte, usage gputypes.BufferUsage) (gxapi.BufferObject, error) {
	label = c.label(label)
	if len(data) == 0 {
		return nil, fmt.Errorf("create buffer %q: no data", label)
	}
	// Buffer sizes stay 4-byte aligned for copy and write operations.
	size := (uint64(len(data)) + 3) &^ 3
	buf, err := c.g.dev.CreateBuffer(gxapi.BufferDesc{
		Label: label,
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
		Data:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", label, err)
	}
	c.log.Debug("buffer created", "label", label, "size", size)
	return buf, nil
}

// CreateShader compiles a shader for one stage.
func (c *SetupContext) CreateShader(desc gxapi.ShaderDesc) (gxapi.Shader, error) {
	desc.Label = c.label(desc.Label)
	obj, err := c.g.dev.CreateShader(desc)
	if err != nil {
		return gxapi.Shader{}, err
	}
	return gxapi.Shader{Obj: obj, Stage: desc.Stage, EntryPoint: desc.EntryPoint}, nil
}

// CreateBinder returns the binder for desc from the graph's binder cache.
func (c *SetupContext) CreateBinder(desc gxapi.BinderDesc) (*binder.Binder, error) {
	b, hit, err := c.g.binders.Binder(c.g.dev, desc)
	if err != nil {
		return nil, err
	}
	c.log.Debug("binder", "id", b.ID(), "cached", hit)
	return b, nil
}

// CreatePSO compiles a graphics pipeline against b.
func (c *SetupContext) CreatePSO(b *binder.Binder, desc gxapi.GraphicsPipelineDesc) (*binder.PipelineState, error) {
	desc.Label = c.label(desc.Label)
	return binder.NewPipelineState(c.g.dev, b, desc)
}

// CreateComputePSO compiles a compute pipeline against b.
func (c *SetupContext) CreateComputePSO(b *binder.Binder, desc gxapi.ComputePipelineDesc) (*binder.PipelineState, error) {
	desc.Label = c.label(desc.Label)
	return binder.NewComputePipelineState(c.g.dev, b, desc)
}

// Release frees obj if the device supports eager release. Resources are
// also dropped from the frame-global state registry.
func (c *SetupContext) Release(obj gxapi.Named) {
	if obj == nil {
		return
	}
	if res, ok := obj.(gxapi.Resource); ok {
		c.g.registry.Forget(res)
	}
	gxapi.Release(c.g.dev, obj)
}

// RenderContext gives a node its command lists during Execute.
type RenderContext struct {
	ns    *nodeState
	g     *Graph
	frame uint64
	log   *slog.Logger
}

// AsGraphics returns the node's list with graphics capability.
func (c *RenderContext) AsGraphics() cmdlist.GraphicsList { return c.ns.list }

// AsCompute returns the node's list with compute capability.
func (c *RenderContext) AsCompute() cmdlist.ComputeList { return c.ns.list }

// AsCopy returns the node's list with copy capability.
func (c *RenderContext) AsCopy() cmdlist.CopyList { return c.ns.list }

// Fork returns an additional graphics list, submitted after the node's
// primary list. Only TaskMultiple nodes can fork.
func (c *RenderContext) Fork() (cmdlist.GraphicsList, error) {
	if c.ns.mode != TaskMultiple {
		return nil, fmt.Errorf("%w: %q", ErrTaskSingle, c.ns.node.Name())
	}
	return c.ns.fork(c.g), nil
}

// Frame returns the index of the frame being recorded, starting at 0.
func (c *RenderContext) Frame() uint64 { return c.frame }

// Logger returns the graph logger scoped to the node.
func (c *RenderContext) Logger() *slog.Logger { return c.log }
