// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gxapi

import "github.com/gogpu/gputypes"

// Texture is a handle to a backend texture.
type Texture struct {
	Res TextureObject
}

// HasObject reports whether the handle refers to a backend texture.
func (t Texture) HasObject() bool { return t.Res != nil }

// SetName sets the debug label of the texture.
func (t Texture) SetName(name string) {
	if t.Res != nil {
		t.Res.SetName(name)
	}
}

// Desc returns the texture description, or the zero value for an empty handle.
func (t Texture) Desc() TextureDesc {
	if t.Res == nil {
		return TextureDesc{}
	}
	return t.Res.Desc()
}

// ID returns the resource ID, or zero for an empty handle.
func (t Texture) ID() ResourceID {
	if t.Res == nil {
		return 0
	}
	return t.Res.ResourceID()
}

// VertexBuffer is a buffer bound to the input assembler.
type VertexBuffer struct {
	Res    BufferObject
	Stride uint32
	// Count is the number of vertices.
	Count uint32
}

func (b VertexBuffer) HasObject() bool { return b.Res != nil }

func (b VertexBuffer) SetName(name string) {
	if b.Res != nil {
		b.Res.SetName(name)
	}
}

// IndexBuffer is a buffer of 16 or 32-bit indices.
type IndexBuffer struct {
	Res    BufferObject
	Format gputypes.IndexFormat
	Count  uint32
}

func (b IndexBuffer) HasObject() bool { return b.Res != nil }

func (b IndexBuffer) SetName(name string) {
	if b.Res != nil {
		b.Res.SetName(name)
	}
}

// RenderTargetView binds one mip of a texture as a color target.
type RenderTargetView struct {
	View ViewObject
	Tex  Texture
	Desc ViewDesc
}

func (v RenderTargetView) HasObject() bool { return v.View != nil }

func (v RenderTargetView) SetName(name string) {
	if v.View != nil {
		v.View.SetName(name)
	}
}

// Subresources returns the range of the texture the view covers.
func (v RenderTargetView) Subresources() SubresourceRange {
	return viewRange(v.Tex, v.Desc)
}

// ShaderResourceView binds a texture for sampling.
type ShaderResourceView struct {
	View ViewObject
	Tex  Texture
	Desc ViewDesc
}

func (v ShaderResourceView) HasObject() bool { return v.View != nil }

func (v ShaderResourceView) SetName(name string) {
	if v.View != nil {
		v.View.SetName(name)
	}
}

// Subresources returns the range of the texture the view covers.
func (v ShaderResourceView) Subresources() SubresourceRange {
	return viewRange(v.Tex, v.Desc)
}

// DepthStencilView binds a depth texture as the depth target.
type DepthStencilView struct {
	View ViewObject
	Tex  Texture
	Desc ViewDesc
}

func (v DepthStencilView) HasObject() bool { return v.View != nil }

func (v DepthStencilView) SetName(name string) {
	if v.View != nil {
		v.View.SetName(name)
	}
}

// Shader is a compiled shader for one stage.
type Shader struct {
	Obj        ShaderObject
	Stage      gputypes.ShaderStage
	EntryPoint string
}

func (s Shader) HasObject() bool { return s.Obj != nil }

func (s Shader) SetName(name string) {
	if s.Obj != nil {
		s.Obj.SetName(name)
	}
}

// viewRange returns the whole texture for views spanning every mip and slice
// of a single-mip texture, and the exact subresources otherwise.
func viewRange(tex Texture, d ViewDesc) SubresourceRange {
	td := tex.Desc()
	mips := d.MipCount
	if mips == 0 {
		mips = td.Mips() - d.FirstMip
	}
	slices := d.SliceCount
	if slices == 0 {
		slices = td.Slices() - d.FirstSlice
	}
	if d.FirstMip == 0 && d.FirstSlice == 0 && mips == td.Mips() && slices == td.Slices() {
		return AllSubresources
	}
	if slices == 1 || mips == td.Mips() {
		base := td.SubresourceIndex(d.FirstMip, d.FirstSlice)
		return SubresourceRange{Base: base, Count: mips + (slices-1)*td.Mips()}
	}
	// Non-contiguous mip subsets of several slices are tracked as the
	// whole span between the first and last subresource.
	first := td.SubresourceIndex(d.FirstMip, d.FirstSlice)
	last := td.SubresourceIndex(d.FirstMip+mips-1, d.FirstSlice+slices-1)
	return SubresourceRange{Base: first, Count: last - first + 1}
}
