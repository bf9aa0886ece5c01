// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cmdlist

import (
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/gxapi"
)

func (l *List) bindingFor(compute bool) *binding {
	if compute {
		return &l.compute
	}
	return &l.graphics
}

func kindName(compute bool) string {
	if compute {
		return "compute"
	}
	return "graphics"
}

// setBinder binds b. A bound pipeline created against another binder is
// left in place and reported by the next draw or dispatch.
func (l *List) setBinder(op string, b *binder.Binder, compute bool) {
	if !b.HasObject() {
		l.violate(op, gxapi.ErrNoObject)
	}
	l.bindingFor(compute).binder = b
	l.record(&SetBinderCmd{Binder: b, Compute: compute})
}

// SetComputeBinder binds the compute root signature.
func (l *List) SetComputeBinder(b *binder.Binder) {
	l.check("SetComputeBinder", 2)
	l.setBinder("SetComputeBinder", b, true)
}

// SetGraphicsBinder binds the graphics root signature.
func (l *List) SetGraphicsBinder(b *binder.Binder) {
	l.check("SetGraphicsBinder", 3)
	l.setBinder("SetGraphicsBinder", b, false)
}

// SetPipelineState binds pso. When a binder is already bound for the
// pipeline's kind it must be the one pso was created against.
func (l *List) SetPipelineState(pso *binder.PipelineState) {
	const op = "SetPipelineState"
	l.check(op, 2)
	if !pso.HasObject() {
		l.violate(op, gxapi.ErrNoObject)
	}
	if !pso.IsCompute() && l.typ.level() < 3 {
		l.violate(op, fmt.Errorf("%w: graphics pipeline on %s list", gxapi.ErrCapability, l.typ))
	}
	bd := l.bindingFor(pso.IsCompute())
	if bd.binder != nil && bd.binder != pso.Binder() {
		l.violate(op, fmt.Errorf("%w: %s pipeline %q", gxapi.ErrRootSignatureMismatch, kindName(pso.IsCompute()), pso.Label()))
	}
	bd.pso = pso
	l.record(&SetPipelineCmd{PSO: pso})
}

// ready panics unless a matching binder and pipeline are bound.
func (l *List) ready(op string, compute bool) {
	bd := l.bindingFor(compute)
	if bd.binder == nil || bd.pso == nil {
		l.violate(op, fmt.Errorf("%w: %s", gxapi.ErrNoPipeline, kindName(compute)))
	}
	if bd.pso.Binder() != bd.binder {
		l.violate(op, fmt.Errorf("%w: %s pipeline %q", gxapi.ErrRootSignatureMismatch, kindName(compute), bd.pso.Label()))
	}
}

// slot returns the parameter description of slot in the bound binder and
// panics when it is missing or of another type.
func (l *List) slot(op string, compute bool, slot int, want ...gxapi.BindParameterType) gxapi.BindParameterDesc {
	b := l.bindingFor(compute).binder
	if b == nil {
		l.violate(op, fmt.Errorf("%w: no %s binder", gxapi.ErrNoPipeline, kindName(compute)))
	}
	if slot < 0 || slot >= b.NumParameters() {
		l.violate(op, fmt.Errorf("%w: slot %d of %d", gxapi.ErrUnknownParameter, slot, b.NumParameters()))
	}
	pd := b.Parameter(slot)
	if !slices.Contains(want, pd.Parameter.Type) {
		l.violate(op, fmt.Errorf("%w: slot %d holds %s", gxapi.ErrUnknownParameter, slot, pd.Parameter))
	}
	return pd
}

// resolve maps a bind parameter to its slot in the bound binder.
func (l *List) resolve(op string, compute bool, p gxapi.BindParameter) int {
	b := l.bindingFor(compute).binder
	if b == nil {
		l.violate(op, fmt.Errorf("%w: no %s binder", gxapi.ErrNoPipeline, kindName(compute)))
	}
	slot, ok := b.Slot(p)
	if !ok {
		l.violate(op, fmt.Errorf("%w: %s", gxapi.ErrUnknownParameter, p))
	}
	return slot
}

func (l *List) rootConstants(op string, compute bool, slot int, values []uint32, offset uint32) {
	pd := l.slot(op, compute, slot, gxapi.BindConstant)
	if uint64(offset)+uint64(len(values)) > uint64(pd.Constants) {
		l.violate(op, fmt.Errorf("%w: %d values at offset %d exceed %d constants of %s",
			gxapi.ErrUnknownParameter, len(values), offset, pd.Constants, pd.Parameter))
	}
	l.record(&SetRootConstantsCmd{Slot: slot, Offset: offset, Values: slices.Clone(values), Compute: compute})
}

func (l *List) rootConstantBuffer(op string, compute bool, slot int, buf gxapi.BufferObject, offset uint64) {
	l.slot(op, compute, slot, gxapi.BindConstantBuffer)
	if buf == nil {
		l.violate(op, gxapi.ErrNoObject)
	}
	l.record(&SetRootConstantBufferCmd{Slot: slot, Buffer: buf, Offset: offset, Compute: compute})
}

func (l *List) rootTable(op string, compute bool, slot int, views []gxapi.ShaderResourceView) {
	l.slot(op, compute, slot, gxapi.BindTexture, gxapi.BindUnorderedAccess)
	for _, v := range views {
		if !v.HasObject() {
			l.violate(op, gxapi.ErrNoObject)
		}
	}
	l.record(&SetRootDescriptorTableCmd{Slot: slot, Views: slices.Clone(views), Compute: compute})
}

func (l *List) rootShaderResource(op string, compute bool, slot int, buf gxapi.BufferObject, offset uint64) {
	l.slot(op, compute, slot, gxapi.BindTexture, gxapi.BindUnorderedAccess)
	if buf == nil {
		l.violate(op, gxapi.ErrNoObject)
	}
	l.record(&SetRootShaderResourceCmd{Slot: slot, Buffer: buf, Offset: offset, Compute: compute})
}

// SetComputeRootConstant writes one 32-bit constant at offset into the
// constant parameter at slot.
func (l *List) SetComputeRootConstant(slot int, value uint32, offset uint32) {
	l.check("SetComputeRootConstant", 2)
	l.rootConstants("SetComputeRootConstant", true, slot, []uint32{value}, offset)
}

// SetComputeRootConstants writes values at offset into the constant
// parameter at slot.
func (l *List) SetComputeRootConstants(slot int, values []uint32, offset uint32) {
	l.check("SetComputeRootConstants", 2)
	l.rootConstants("SetComputeRootConstants", true, slot, values, offset)
}

// SetComputeRootConstantBuffer binds buf at offset to the constant
// buffer parameter at slot.
func (l *List) SetComputeRootConstantBuffer(slot int, buf gxapi.BufferObject, offset uint64) {
	l.check("SetComputeRootConstantBuffer", 2)
	l.rootConstantBuffer("SetComputeRootConstantBuffer", true, slot, buf, offset)
}

// SetComputeRootDescriptorTable binds views to the table at slot.
func (l *List) SetComputeRootDescriptorTable(slot int, views ...gxapi.ShaderResourceView) {
	l.check("SetComputeRootDescriptorTable", 2)
	l.rootTable("SetComputeRootDescriptorTable", true, slot, views)
}

// SetComputeRootShaderResource binds buf to the texture or storage
// parameter at slot.
func (l *List) SetComputeRootShaderResource(slot int, buf gxapi.BufferObject, offset uint64) {
	l.check("SetComputeRootShaderResource", 2)
	l.rootShaderResource("SetComputeRootShaderResource", true, slot, buf, offset)
}

// BindComputeConstants sets constants by bind parameter instead of slot.
func (l *List) BindComputeConstants(p gxapi.BindParameter, values []uint32, offset uint32) {
	const op = "BindComputeConstants"
	l.check(op, 2)
	l.rootConstants(op, true, l.resolve(op, true, p), values, offset)
}

// BindComputeTexture sets a texture table by bind parameter.
func (l *List) BindComputeTexture(p gxapi.BindParameter, views ...gxapi.ShaderResourceView) {
	const op = "BindComputeTexture"
	l.check(op, 2)
	l.rootTable(op, true, l.resolve(op, true, p), views)
}

// SetGraphicsRootConstant is SetComputeRootConstant for the graphics
// binder.
func (l *List) SetGraphicsRootConstant(slot int, value uint32, offset uint32) {
	l.check("SetGraphicsRootConstant", 3)
	l.rootConstants("SetGraphicsRootConstant", false, slot, []uint32{value}, offset)
}

// SetGraphicsRootConstants writes values at offset into the constant
// parameter at slot.
func (l *List) SetGraphicsRootConstants(slot int, values []uint32, offset uint32) {
	l.check("SetGraphicsRootConstants", 3)
	l.rootConstants("SetGraphicsRootConstants", false, slot, values, offset)
}

// SetGraphicsRootConstantBuffer binds buf at offset to the constant
// buffer parameter at slot.
func (l *List) SetGraphicsRootConstantBuffer(slot int, buf gxapi.BufferObject, offset uint64) {
	l.check("SetGraphicsRootConstantBuffer", 3)
	l.rootConstantBuffer("SetGraphicsRootConstantBuffer", false, slot, buf, offset)
}

// SetGraphicsRootDescriptorTable binds views to the table at slot.
func (l *List) SetGraphicsRootDescriptorTable(slot int, views ...gxapi.ShaderResourceView) {
	l.check("SetGraphicsRootDescriptorTable", 3)
	l.rootTable("SetGraphicsRootDescriptorTable", false, slot, views)
}

// SetGraphicsRootShaderResource binds buf to the texture or storage
// parameter at slot.
func (l *List) SetGraphicsRootShaderResource(slot int, buf gxapi.BufferObject, offset uint64) {
	l.check("SetGraphicsRootShaderResource", 3)
	l.rootShaderResource("SetGraphicsRootShaderResource", false, slot, buf, offset)
}

// BindGraphicsConstants sets constants by bind parameter instead of slot.
func (l *List) BindGraphicsConstants(p gxapi.BindParameter, values []uint32, offset uint32) {
	const op = "BindGraphicsConstants"
	l.check(op, 3)
	l.rootConstants(op, false, l.resolve(op, false, p), values, offset)
}

// BindGraphicsFloats sets float constants, passed bit-exact as 32-bit words.
func (l *List) BindGraphicsFloats(p gxapi.BindParameter, values []float32, offset uint32) {
	words := make([]uint32, len(values))
	for i, v := range values {
		words[i] = math.Float32bits(v)
	}
	l.BindGraphicsConstants(p, words, offset)
}

// BindGraphicsTexture sets a texture table by bind parameter.
func (l *List) BindGraphicsTexture(p gxapi.BindParameter, views ...gxapi.ShaderResourceView) {
	const op = "BindGraphicsTexture"
	l.check(op, 3)
	l.rootTable(op, false, l.resolve(op, false, p), views)
}

// Dispatch runs the bound compute pipeline over an x*y*z grid.
func (l *List) Dispatch(x, y, z uint32) {
	const op = "Dispatch"
	l.check(op, 2)
	l.ready(op, true)
	l.record(&DispatchCmd{X: x, Y: y, Z: z})
}
