// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package binder builds the immutable objects a node binds before drawing:
// the Binder, mapping logical bind parameters to a backend root signature,
// and the PipelineState compiled against it.
package binder

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/gogpu/framegraph/gxapi"
)

var nextBinderID atomic.Uint64

// Binder maps bind parameters to root parameter slots. It is immutable
// after creation and may be shared read-only across frames and nodes.
type Binder struct {
	id    uint64
	desc  gxapi.BinderDesc
	slots map[gxapi.BindParameter]int
	root  gxapi.RootSignatureObject
}

type registerKey struct {
	class    byte
	register uint32
	space    uint32
}

// Validate checks a binder description without creating anything.
func Validate(desc gxapi.BinderDesc) error {
	seen := make(map[registerKey]gxapi.BindParameter, len(desc.Parameters)+len(desc.StaticSamplers))
	claim := func(p gxapi.BindParameter) error {
		k := registerKey{p.Type.RegisterClass(), p.Register, p.Space}
		if other, ok := seen[k]; ok {
			return &gxapi.UnsupportedLayoutError{Parameter: p, Other: &other}
		}
		seen[k] = p
		return nil
	}

	for _, pd := range desc.Parameters {
		p := pd.Parameter
		if p.Type.RegisterClass() == '?' {
			return &gxapi.UnsupportedLayoutError{Parameter: p, Reason: "unknown parameter type"}
		}
		if p.Type == gxapi.BindConstant && pd.Constants == 0 {
			return &gxapi.UnsupportedLayoutError{Parameter: p, Reason: "constant parameter declares no values"}
		}
		if err := claim(p); err != nil {
			return err
		}
	}
	for _, s := range desc.StaticSamplers {
		if err := claim(s.Parameter()); err != nil {
			return err
		}
	}
	return nil
}

// New validates desc and creates the backend root signature.
func New(dev gxapi.Device, desc gxapi.BinderDesc) (*Binder, error) {
	if err := Validate(desc); err != nil {
		return nil, err
	}
	root, err := dev.CreateRootSignature(desc)
	if err != nil {
		return nil, fmt.Errorf("binder: create root signature: %w", err)
	}
	b := &Binder{
		id: nextBinderID.Add(1),
		desc: gxapi.BinderDesc{
			Parameters:     slices.Clone(desc.Parameters),
			StaticSamplers: slices.Clone(desc.StaticSamplers),
		},
		slots: make(map[gxapi.BindParameter]int, len(desc.Parameters)),
		root:  root,
	}
	for i, pd := range desc.Parameters {
		b.slots[pd.Parameter] = i
	}
	return b, nil
}

// ID is unique per created binder.
func (b *Binder) ID() uint64 { return b.id }

// Slot returns the root parameter index of p.
func (b *Binder) Slot(p gxapi.BindParameter) (int, bool) {
	slot, ok := b.slots[p]
	return slot, ok
}

// Parameter returns the description of the parameter in slot.
func (b *Binder) Parameter(slot int) gxapi.BindParameterDesc { return b.desc.Parameters[slot] }

// NumParameters returns the number of root parameters.
func (b *Binder) NumParameters() int { return len(b.desc.Parameters) }

// StaticSamplers returns the baked sampler descriptions.
func (b *Binder) StaticSamplers() []gxapi.StaticSamplerDesc {
	return slices.Clone(b.desc.StaticSamplers)
}

// Desc returns a copy of the description the binder was created from.
func (b *Binder) Desc() gxapi.BinderDesc {
	return gxapi.BinderDesc{
		Parameters:     slices.Clone(b.desc.Parameters),
		StaticSamplers: slices.Clone(b.desc.StaticSamplers),
	}
}

// RootSignature returns the backend object.
func (b *Binder) RootSignature() gxapi.RootSignatureObject { return b.root }

// HasObject reports whether the binder has a backend root signature.
func (b *Binder) HasObject() bool { return b != nil && b.root != nil }

// SetName labels the backend root signature.
func (b *Binder) SetName(name string) {
	if b.HasObject() {
		b.root.SetName(name)
	}
}
