// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gxapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// Sentinel errors. Typed errors below match these through errors.Is.
var (
	// ErrInvalidStateRange is returned when a subresource range spans
	// heterogeneous states and the tracker runs in strict mode.
	ErrInvalidStateRange = errors.New("gxapi: subresource range spans heterogeneous states")

	// ErrUnsupportedLayout is returned when binder parameter slots collide
	// or a parameter cannot be expressed by the backend.
	ErrUnsupportedLayout = errors.New("gxapi: unsupported binder layout")

	// ErrShaderCompilation is returned when a shader fails to compile or does
	// not fit the pipeline stage it is bound to.
	ErrShaderCompilation = errors.New("gxapi: shader compilation failed")

	// ErrUnsupportedFormat is returned for invalid format combinations.
	ErrUnsupportedFormat = errors.New("gxapi: unsupported format")

	// ErrInvalidState is returned for resource states that break the
	// read/write combination rules.
	ErrInvalidState = errors.New("gxapi: invalid resource state")

	// ErrSubresourceRange is returned when a range exceeds the resource.
	ErrSubresourceRange = errors.New("gxapi: subresource range out of bounds")

	// ErrNoObject is returned when a handle without a backend object is used.
	ErrNoObject = errors.New("gxapi: handle has no backend object")

	// ErrNotRecording is raised by recording operations on a closed list.
	ErrNotRecording = errors.New("gxapi: command list not in recording state")

	// ErrNotClosed is returned by Reset on a list that is still recording.
	ErrNotClosed = errors.New("gxapi: command list not closed")

	// ErrRootSignatureMismatch is raised when a pipeline state is bound with
	// a binder other than the one it was created for.
	ErrRootSignatureMismatch = errors.New("gxapi: pipeline root signature does not match bound binder")

	// ErrNoPipeline is raised by draws and dispatches without a pipeline.
	ErrNoPipeline = errors.New("gxapi: no pipeline state or binder bound")

	// ErrCapability is raised when a list lacks the capability for an operation.
	ErrCapability = errors.New("gxapi: operation not supported by command list type")

	// ErrUnknownParameter is raised when binding a parameter the binder lacks.
	ErrUnknownParameter = errors.New("gxapi: bind parameter not in binder")
)

// InvalidStateRangeError reports the distinct states found in a range.
type InvalidStateRangeError struct {
	Resource ResourceID
	Range    SubresourceRange
	States   []ResourceState
}

func (e *InvalidStateRangeError) Error() string {
	names := make([]string, len(e.States))
	for i, s := range e.States {
		names[i] = s.String()
	}
	return fmt.Sprintf("gxapi: resource %d range %s spans states [%s]",
		e.Resource, e.Range, strings.Join(names, ", "))
}

func (e *InvalidStateRangeError) Unwrap() error { return ErrInvalidStateRange }

// UnsupportedLayoutError reports a binder layout the backend cannot build.
type UnsupportedLayoutError struct {
	Parameter BindParameter
	// Other is the parameter Parameter collides with, if any.
	Other  *BindParameter
	Reason string
}

func (e *UnsupportedLayoutError) Error() string {
	if e.Other != nil {
		return fmt.Sprintf("gxapi: bind parameter %s collides with %s", e.Parameter, *e.Other)
	}
	return fmt.Sprintf("gxapi: bind parameter %s: %s", e.Parameter, e.Reason)
}

func (e *UnsupportedLayoutError) Unwrap() error { return ErrUnsupportedLayout }

// ShaderCompilationError carries the failing shader and the backend cause.
type ShaderCompilationError struct {
	Label string
	Stage gputypes.ShaderStage
	Err   error
}

func (e *ShaderCompilationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gxapi: shader %q (stage %d) failed to compile", e.Label, e.Stage)
	}
	return fmt.Sprintf("gxapi: shader %q (stage %d): %v", e.Label, e.Stage, e.Err)
}

func (e *ShaderCompilationError) Is(target error) bool { return target == ErrShaderCompilation }

func (e *ShaderCompilationError) Unwrap() error { return e.Err }

// UnsupportedFormatError names the format and the place it was rejected.
type UnsupportedFormatError struct {
	// Where identifies the descriptor field, e.g. "render target 2".
	Where  string
	Format gputypes.TextureFormat
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("gxapi: %s: format %d: %s", e.Where, e.Format, e.Reason)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// ContractError is the panic value for command list contract violations.
type ContractError struct {
	Op  string
	Err error
}

func (e *ContractError) Error() string { return fmt.Sprintf("gxapi: %s: %v", e.Op, e.Err) }

func (e *ContractError) Unwrap() error { return e.Err }
