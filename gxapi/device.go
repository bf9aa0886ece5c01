// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gxapi

// ResourceID identifies a resource for state tracking. Zero is invalid.
type ResourceID uint64

// Named is implemented by every backend object.
type Named interface {
	Name() string
	SetName(name string)
}

// Resource is GPU-owned memory whose usage state is tracked.
type Resource interface {
	Named
	ResourceID() ResourceID
	// SubresourceCount is mips*array slices for textures and 1 for buffers.
	SubresourceCount() uint32
}

// TextureObject is the backend side of a Texture handle.
type TextureObject interface {
	Resource
	Desc() TextureDesc
}

// BufferObject is the backend side of buffer handles.
type BufferObject interface {
	Resource
	Size() uint64
}

// ViewObject is a render target, shader resource or depth stencil view.
type ViewObject interface {
	Named
	Texture() TextureObject
}

// ShaderObject is a compiled shader module.
type ShaderObject interface {
	Named
}

// RootSignatureObject is the backend layout built from a BinderDesc.
type RootSignatureObject interface {
	Named
}

// PipelineObject is a compiled graphics or compute pipeline.
type PipelineObject interface {
	Named
}

// Device creates backend objects. It is the narrow interface through which
// the command list and render graph reach the GPU API.
//
// Implementations must be safe for concurrent use.
type Device interface {
	CreateTexture2D(desc TextureDesc) (TextureObject, error)
	CreateBuffer(desc BufferDesc) (BufferObject, error)
	CreateRenderTargetView(tex TextureObject, desc ViewDesc) (ViewObject, error)
	CreateShaderResourceView(tex TextureObject, desc ViewDesc) (ViewObject, error)
	CreateDepthStencilView(tex TextureObject, desc ViewDesc) (ViewObject, error)
	CreateShader(desc ShaderDesc) (ShaderObject, error)
	CreateRootSignature(desc BinderDesc) (RootSignatureObject, error)
	CreateGraphicsPipeline(root RootSignatureObject, desc GraphicsPipelineDesc) (PipelineObject, error)
	CreateComputePipeline(root RootSignatureObject, desc ComputePipelineDesc) (PipelineObject, error)
}

// Releaser is implemented by devices that free objects eagerly.
type Releaser interface {
	Release(obj Named)
}

// Release frees obj through dev when dev supports it. Nil objects are ignored.
func Release(dev Device, obj Named) {
	if obj == nil {
		return
	}
	if r, ok := dev.(Releaser); ok {
		r.Release(obj)
	}
}
