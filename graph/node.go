// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package graph sequences GPU work per frame through a graph of nodes.
//
// Every node follows the same lifecycle:
//
//	Initialize (once, at Compile) -> per frame: Reset -> Setup -> Execute
//
// Setup runs sequentially in dependency order. It creates per-frame views,
// lazily creates durable objects and publishes output ports. Execute
// records commands into the node's own command list. In parallel mode
// Execute calls run concurrently on a worker pool and the lists are
// reconciled against the frame-global resource states at submit.
//
// A failing node never aborts the frame: its error (or recovered contract
// panic) is reported in the FrameReport and its dependents are skipped.
package graph

import (
	"errors"
	"fmt"
	"log/slog"
)

// Node is one unit of per-frame GPU work.
type Node interface {
	Name() string
	// Initialize is called once when the graph is compiled. No GPU objects
	// can be created here.
	Initialize(ctx *EngineContext) error
	// Reset drops per-frame state such as views and cached inputs.
	Reset()
	Setup(ctx *SetupContext) error
	Execute(ctx *RenderContext) error
}

// ErrSkip may be returned from Setup or Execute when a node has nothing to
// do this frame. The node and its dependents are skipped without an error.
var ErrSkip = errors.New("graph: node skipped")

// TaskMode declares how many command lists a node records into.
type TaskMode uint8

const (
	// TaskSingle nodes record into one list.
	TaskSingle TaskMode = iota
	// TaskMultiple nodes may Fork additional lists.
	TaskMultiple
)

func (m TaskMode) String() string {
	if m == TaskMultiple {
		return "multiple"
	}
	return "single"
}

// EngineContext is passed to Initialize.
type EngineContext struct {
	mode   TaskMode
	logger *slog.Logger
}

// SetTaskSingle declares that the node records into a single list.
func (c *EngineContext) SetTaskSingle() { c.mode = TaskSingle }

// SetTaskMultiple declares that the node may fork extra lists.
func (c *EngineContext) SetTaskMultiple() { c.mode = TaskMultiple }

// Logger returns the graph logger.
func (c *EngineContext) Logger() *slog.Logger { return c.logger }

// Phase is the lifecycle step a node failed in.
type Phase string

const (
	PhaseInitialize Phase = "initialize"
	PhaseReset      Phase = "reset"
	PhaseSetup      Phase = "setup"
	PhaseExecute    Phase = "execute"
)

// NodeError is a failure isolated to one node.
type NodeError struct {
	Node  string
	Phase Phase
	Err   error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("graph: node %q %s: %v", e.Node, e.Phase, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// PanicError wraps a recovered panic that is not a contract violation.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }
