// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gxapi

import (
	"errors"
	"testing"
)

func TestResourceStateValidate(t *testing.T) {
	tests := []struct {
		name  string
		state ResourceState
		ok    bool
	}{
		{"common", StateCommon, true},
		{"single read", StatePixelShaderResource, true},
		{"combined reads", StatePixelShaderResource | StateNonPixelShaderResource, true},
		{"generic read", StateGenericRead, true},
		{"single write", StateRenderTarget, true},
		{"two writes", StateRenderTarget | StateCopyDest, false},
		{"write and read", StateRenderTarget | StatePixelShaderResource, false},
		{"depth write and read", StateDepthWrite | StateDepthRead, false},
		{"unknown bits", ResourceState(1 << 20), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidState) {
				t.Fatalf("Validate() = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestResourceStateString(t *testing.T) {
	if got := StateCommon.String(); got != "COMMON" {
		t.Errorf("COMMON = %q", got)
	}
	got := (StateNonPixelShaderResource | StatePixelShaderResource).String()
	if got != "NON_PIXEL_SHADER_RESOURCE|PIXEL_SHADER_RESOURCE" {
		t.Errorf("combined = %q", got)
	}
}

func TestResourceStatePredicates(t *testing.T) {
	if !StateRenderTarget.IsWrite() {
		t.Error("RENDER_TARGET should be a write state")
	}
	if StateRenderTarget.IsReadOnly() {
		t.Error("RENDER_TARGET should not be read-only")
	}
	if !StateShaderResource.IsReadOnly() {
		t.Error("shader resource union should be read-only")
	}
	if StateCommon.IsReadOnly() {
		t.Error("COMMON should not count as read-only")
	}
	if !StateGenericRead.Has(StateIndexBuffer) {
		t.Error("GENERIC_READ should contain INDEX_BUFFER")
	}
}

func TestSubresourceRangeResolve(t *testing.T) {
	tests := []struct {
		name   string
		r      SubresourceRange
		total  uint32
		lo, hi uint32
		ok     bool
	}{
		{"all", AllSubresources, 6, 0, 6, true},
		{"single", Subresource(2), 6, 2, 3, true},
		{"tail", SubresourceRange{Base: 4, Count: 2}, 6, 4, 6, true},
		{"overflow", SubresourceRange{Base: 4, Count: 3}, 6, 0, 0, false},
		{"empty", SubresourceRange{Base: 0, Count: 0}, 6, 0, 0, false},
		{"base past end", Subresource(6), 6, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi, err := tt.r.Resolve(tt.total)
			if !tt.ok {
				if !errors.Is(err, ErrSubresourceRange) {
					t.Fatalf("Resolve() err = %v, want ErrSubresourceRange", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() err = %v", err)
			}
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("Resolve() = [%d,%d), want [%d,%d)", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	var err error = &InvalidStateRangeError{Resource: 1, Range: AllSubresources,
		States: []ResourceState{StateCommon, StateRenderTarget}}
	if !errors.Is(err, ErrInvalidStateRange) {
		t.Error("InvalidStateRangeError should match ErrInvalidStateRange")
	}

	p := BindParameter{Type: BindTexture, Register: 0}
	err = &UnsupportedLayoutError{Parameter: p, Other: &p}
	if !errors.Is(err, ErrUnsupportedLayout) {
		t.Error("UnsupportedLayoutError should match ErrUnsupportedLayout")
	}

	cause := errors.New("parse error")
	err = &ShaderCompilationError{Label: "vs", Err: cause}
	if !errors.Is(err, ErrShaderCompilation) || !errors.Is(err, cause) {
		t.Error("ShaderCompilationError should match both the sentinel and its cause")
	}

	err = &ContractError{Op: "Draw", Err: ErrNotRecording}
	if !errors.Is(err, ErrNotRecording) {
		t.Error("ContractError should unwrap to its cause")
	}
}

func TestBindParameterRegisterClass(t *testing.T) {
	if BindConstant.RegisterClass() != BindConstantBuffer.RegisterClass() {
		t.Error("constants and constant buffers should share the b registers")
	}
	if BindTexture.RegisterClass() == BindUnorderedAccess.RegisterClass() {
		t.Error("textures and UAVs use different register classes")
	}
}
