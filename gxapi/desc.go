// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gxapi

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// MaxRenderTargets is the number of simultaneously bound render targets.
const MaxRenderTargets = 8

// TextureDesc describes a 2D texture or texture array.
type TextureDesc struct {
	Label     string
	Width     uint32
	Height    uint32
	ArraySize uint32
	MipLevels uint32
	Format    gputypes.TextureFormat
	Usage     gputypes.TextureUsage
}

// Mips returns the mip level count, treating zero as one.
func (d TextureDesc) Mips() uint32 { return max(d.MipLevels, 1) }

// Slices returns the array size, treating zero as one.
func (d TextureDesc) Slices() uint32 { return max(d.ArraySize, 1) }

// Subresources returns the number of independently tracked subresources.
func (d TextureDesc) Subresources() uint32 { return d.Mips() * d.Slices() }

// SubresourceIndex returns the flat index of (mip, slice).
func (d TextureDesc) SubresourceIndex(mip, slice uint32) uint32 {
	return mip + slice*d.Mips()
}

// BufferDesc describes a buffer. Data, when set, is uploaded at creation.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
	Data  []byte
}

// ViewDesc selects the part of a texture a view covers.
// An undefined Format inherits the texture format.
type ViewDesc struct {
	Label      string
	Format     gputypes.TextureFormat
	FirstMip   uint32
	MipCount   uint32
	FirstSlice uint32
	SliceCount uint32
}

// ShaderDesc describes a WGSL shader module.
type ShaderDesc struct {
	Label      string
	Stage      gputypes.ShaderStage
	Source     string
	EntryPoint string
}

// Rect is an integer rectangle in pixels.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// Width returns the rectangle width.
func (r Rect) Width() int32 { return r.Right - r.Left }

// Height returns the rectangle height.
func (r Rect) Height() int32 { return r.Bottom - r.Top }

// Viewport maps normalized device coordinates to the render target.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// FullViewport returns a viewport covering a w x h target.
func FullViewport(w, h uint32) Viewport {
	return Viewport{Width: float32(w), Height: float32(h), MaxDepth: 1}
}

// FullRect returns a rectangle covering a w x h target.
func FullRect(w, h uint32) Rect {
	return Rect{Right: int32(w), Bottom: int32(h)}
}

// Origin is a texel position inside a subresource.
type Origin struct {
	X, Y, Z uint32
}

// Box is a source region for texture copies, half-open on every axis.
type Box struct {
	Left, Top, Front    uint32
	Right, Bottom, Back uint32
}

// Footprint describes a texture laid out in a buffer.
type Footprint struct {
	Offset   uint64
	Format   gputypes.TextureFormat
	Width    uint32
	Height   uint32
	Depth    uint32
	RowPitch uint32
}

// TextureCopyLocation addresses a texture subresource or a buffer footprint.
// Exactly one of Texture and Buffer is set.
type TextureCopyLocation struct {
	Texture     TextureObject
	Subresource uint32
	Buffer      BufferObject
	Footprint   Footprint
}

// ClearFlags selects the depth-stencil aspects a clear touches.
type ClearFlags uint8

const (
	ClearDepth ClearFlags = 1 << iota
	ClearStencil
)

// BindParameterType is the kind of a root parameter.
type BindParameterType uint8

const (
	BindConstant BindParameterType = iota
	BindConstantBuffer
	BindTexture
	BindSampler
	BindUnorderedAccess
)

func (t BindParameterType) String() string {
	switch t {
	case BindConstant:
		return "CONSTANT"
	case BindConstantBuffer:
		return "CBV"
	case BindTexture:
		return "TEXTURE"
	case BindSampler:
		return "SAMPLER"
	case BindUnorderedAccess:
		return "UNORDERED"
	}
	return fmt.Sprintf("BindParameterType(%d)", uint8(t))
}

// RegisterClass returns the register letter the type occupies.
// Constants and constant buffers share the b registers.
func (t BindParameterType) RegisterClass() byte {
	switch t {
	case BindConstant, BindConstantBuffer:
		return 'b'
	case BindTexture:
		return 't'
	case BindSampler:
		return 's'
	case BindUnorderedAccess:
		return 'u'
	}
	return '?'
}

// BindParameter names a shader register.
type BindParameter struct {
	Type     BindParameterType
	Register uint32
	Space    uint32
}

func (p BindParameter) String() string {
	return fmt.Sprintf("%s(%c%d, space%d)", p.Type, p.Type.RegisterClass(), p.Register, p.Space)
}

// Access hints how shaders access a parameter.
type Access uint8

const (
	AccessReadOnly Access = iota
	AccessReadWrite
)

// Frequency hints how often a parameter changes.
type Frequency uint8

const (
	FrequencyDynamic Frequency = iota
	FrequencyStatic
)

// BindParameterDesc describes one root parameter.
type BindParameterDesc struct {
	Parameter BindParameter
	// Constants is the number of 32-bit values of a BindConstant parameter.
	Constants  uint32
	Visibility gputypes.ShaderStage
	Access     Access
	Frequency  Frequency
}

// StaticSamplerDesc describes a sampler baked into the root signature.
type StaticSamplerDesc struct {
	Register      uint32
	Space         uint32
	MinFilter     gputypes.FilterMode
	MagFilter     gputypes.FilterMode
	MipFilter     gputypes.FilterMode
	AddressU      gputypes.AddressMode
	AddressV      gputypes.AddressMode
	AddressW      gputypes.AddressMode
	MaxAnisotropy uint16
	Visibility    gputypes.ShaderStage
}

// Parameter returns the sampler register as a bind parameter.
func (s StaticSamplerDesc) Parameter() BindParameter {
	return BindParameter{Type: BindSampler, Register: s.Register, Space: s.Space}
}

// BinderDesc is the content a Binder is created from.
type BinderDesc struct {
	Parameters     []BindParameterDesc
	StaticSamplers []StaticSamplerDesc
}

// FillMode is the rasterizer fill mode.
type FillMode uint8

const (
	FillSolid FillMode = iota
	FillWireframe
)

// InputElement describes one vertex attribute.
type InputElement struct {
	Semantic string
	Index    uint32
	Format   gputypes.VertexFormat
	Offset   uint32
	Slot     uint32
}

// RasterizerState is the fixed-function rasterizer configuration.
type RasterizerState struct {
	FillMode  FillMode
	CullMode  gputypes.CullMode
	DepthBias int32
}

// DepthStencilState is the fixed-function depth and stencil configuration.
type DepthStencilState struct {
	DepthEnable   bool
	DepthWrite    bool
	DepthFunc     gputypes.CompareFunction
	StencilEnable bool
}

// GraphicsPipelineDesc describes a graphics pipeline state object.
type GraphicsPipelineDesc struct {
	Label              string
	VS                 Shader
	PS                 Shader
	InputLayout        []InputElement
	Topology           gputypes.PrimitiveTopology
	Rasterizer         RasterizerState
	DepthStencil       DepthStencilState
	Blend              *gputypes.BlendState
	RenderTargets      []gputypes.TextureFormat
	DepthStencilFormat gputypes.TextureFormat
	SampleCount        uint32
}

// ComputePipelineDesc describes a compute pipeline state object.
type ComputePipelineDesc struct {
	Label string
	CS    Shader
}

// IsDepthFormat reports whether f carries a depth aspect.
func IsDepthFormat(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatDepth16Unorm,
		gputypes.TextureFormatDepth24Plus,
		gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32Float:
		return true
	}
	return false
}
