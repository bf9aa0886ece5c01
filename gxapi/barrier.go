// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gxapi

import "fmt"

// AllSubresourceIndex addresses every subresource of a resource in a barrier.
const AllSubresourceIndex = ^uint32(0)

// SubresourceRange is a contiguous run of subresource indices.
type SubresourceRange struct {
	Base  uint32
	Count uint32
}

// AllSubresources covers every subresource of a resource.
var AllSubresources = SubresourceRange{Base: 0, Count: ^uint32(0)}

// Subresource returns a range holding a single index.
func Subresource(index uint32) SubresourceRange {
	return SubresourceRange{Base: index, Count: 1}
}

// Resolve clamps the range against a resource holding total subresources
// and returns the half-open interval [lo, hi).
func (r SubresourceRange) Resolve(total uint32) (lo, hi uint32, err error) {
	if r.Count == AllSubresources.Count {
		if r.Base >= total {
			return 0, 0, fmt.Errorf("%w: base %d of %d", ErrSubresourceRange, r.Base, total)
		}
		return r.Base, total, nil
	}
	if r.Count == 0 || r.Base >= total || uint64(r.Base)+uint64(r.Count) > uint64(total) {
		return 0, 0, fmt.Errorf("%w: %s of %d", ErrSubresourceRange, r, total)
	}
	return r.Base, r.Base + r.Count, nil
}

func (r SubresourceRange) String() string {
	if r.Count == AllSubresources.Count {
		return fmt.Sprintf("[%d:]", r.Base)
	}
	return fmt.Sprintf("[%d:%d]", r.Base, r.Base+r.Count)
}

// BarrierType selects the barrier variant.
type BarrierType uint8

const (
	BarrierTransition BarrierType = iota
	BarrierAliasing
	BarrierUAV
)

func (t BarrierType) String() string {
	switch t {
	case BarrierTransition:
		return "transition"
	case BarrierAliasing:
		return "aliasing"
	case BarrierUAV:
		return "uav"
	}
	return fmt.Sprintf("BarrierType(%d)", uint8(t))
}

// Barrier declares a change in how a resource is used.
//
// For aliasing barriers Resource is the resource going out of use and
// AliasAfter the one coming into use.
type Barrier struct {
	Type        BarrierType
	Resource    Resource
	Subresource uint32
	StateBefore ResourceState
	StateAfter  ResourceState
	AliasAfter  Resource
}

// Transition builds a state transition barrier.
func Transition(res Resource, subresource uint32, before, after ResourceState) Barrier {
	return Barrier{
		Type:        BarrierTransition,
		Resource:    res,
		Subresource: subresource,
		StateBefore: before,
		StateAfter:  after,
	}
}

// UAV builds an unordered access barrier between two UAV accesses of res.
func UAV(res Resource) Barrier {
	return Barrier{Type: BarrierUAV, Resource: res, Subresource: AllSubresourceIndex}
}

// Aliasing builds a barrier between two resources sharing memory.
func Aliasing(before, after Resource) Barrier {
	return Barrier{Type: BarrierAliasing, Resource: before, AliasAfter: after, Subresource: AllSubresourceIndex}
}

func (b Barrier) String() string {
	name := "<nil>"
	if b.Resource != nil {
		name = b.Resource.Name()
	}
	switch b.Type {
	case BarrierTransition:
		sub := "all"
		if b.Subresource != AllSubresourceIndex {
			sub = fmt.Sprint(b.Subresource)
		}
		return fmt.Sprintf("transition %s[%s] %s -> %s", name, sub, b.StateBefore, b.StateAfter)
	case BarrierAliasing:
		after := "<nil>"
		if b.AliasAfter != nil {
			after = b.AliasAfter.Name()
		}
		return fmt.Sprintf("aliasing %s -> %s", name, after)
	default:
		return fmt.Sprintf("%s %s", b.Type, name)
	}
}
