// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gxapi

import (
	"fmt"
	"math/bits"
	"strings"
)

// ResourceState is the usage state of a resource or subresource.
//
// Read states may be combined with bitwise OR. Write states are exclusive:
// a valid state holds at most one write bit and no read bits alongside it.
type ResourceState uint32

// Resource states.
const (
	StateCommon                  ResourceState = 0
	StateVertexAndConstantBuffer ResourceState = 1 << 0
	StateIndexBuffer             ResourceState = 1 << 1
	StateRenderTarget            ResourceState = 1 << 2
	StateUnorderedAccess         ResourceState = 1 << 3
	StateDepthWrite              ResourceState = 1 << 4
	StateDepthRead               ResourceState = 1 << 5
	StateNonPixelShaderResource  ResourceState = 1 << 6
	StatePixelShaderResource     ResourceState = 1 << 7
	StateCopyDest                ResourceState = 1 << 10
	StateCopySource              ResourceState = 1 << 11

	// StateShaderResource is the union of both shader resource states.
	StateShaderResource = StateNonPixelShaderResource | StatePixelShaderResource

	// StateGenericRead is the union of every read state a buffer may hold.
	StateGenericRead = StateVertexAndConstantBuffer | StateIndexBuffer |
		StateNonPixelShaderResource | StatePixelShaderResource | StateCopySource
)

const (
	writeStates = StateRenderTarget | StateUnorderedAccess | StateDepthWrite | StateCopyDest
	readStates  = StateVertexAndConstantBuffer | StateIndexBuffer | StateDepthRead |
		StateNonPixelShaderResource | StatePixelShaderResource | StateCopySource
	knownStates = writeStates | readStates
)

var stateNames = []struct {
	s    ResourceState
	name string
}{
	{StateVertexAndConstantBuffer, "VERTEX_AND_CONSTANT_BUFFER"},
	{StateIndexBuffer, "INDEX_BUFFER"},
	{StateRenderTarget, "RENDER_TARGET"},
	{StateUnorderedAccess, "UNORDERED_ACCESS"},
	{StateDepthWrite, "DEPTH_WRITE"},
	{StateDepthRead, "DEPTH_READ"},
	{StateNonPixelShaderResource, "NON_PIXEL_SHADER_RESOURCE"},
	{StatePixelShaderResource, "PIXEL_SHADER_RESOURCE"},
	{StateCopyDest, "COPY_DEST"},
	{StateCopySource, "COPY_SOURCE"},
}

// IsWrite reports whether s holds a write state.
func (s ResourceState) IsWrite() bool { return s&writeStates != 0 }

// IsReadOnly reports whether s is a non-empty set of read states.
func (s ResourceState) IsReadOnly() bool { return s != 0 && s&^readStates == 0 }

// Has reports whether every bit of other is set in s.
func (s ResourceState) Has(other ResourceState) bool { return s&other == other }

// Validate checks the combination rules.
func (s ResourceState) Validate() error {
	if s&^knownStates != 0 {
		return fmt.Errorf("%w: unknown bits %#x", ErrInvalidState, uint32(s&^knownStates))
	}
	w := s & writeStates
	if w == 0 {
		return nil
	}
	if bits.OnesCount32(uint32(w)) > 1 {
		return fmt.Errorf("%w: %s combines write states", ErrInvalidState, s)
	}
	if s&readStates != 0 {
		return fmt.Errorf("%w: %s combines a write state with read states", ErrInvalidState, s)
	}
	return nil
}

func (s ResourceState) String() string {
	if s == StateCommon {
		return "COMMON"
	}
	var parts []string
	rest := s
	for _, n := range stateNames {
		if s&n.s != 0 {
			parts = append(parts, n.name)
			rest &^= n.s
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}
