// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graph

import (
	"errors"

	"github.com/gogpu/framegraph/cmdlist"
)

// FrameReport summarizes one RunFrame call.
type FrameReport struct {
	// Frame is the index of the frame, starting at 0.
	Frame uint64
	// Executed lists the nodes whose commands were submitted, in
	// submission order.
	Executed []string
	// Skipped lists nodes that returned ErrSkip or depend on a node that
	// failed or was skipped.
	Skipped []string
	// Lists is the number of submitted command lists, prelude lists
	// included.
	Lists int
	// Barriers is the number of barriers in the submitted lists.
	Barriers int
	// Errors holds one entry per failed node.
	Errors []*NodeError

	lists []*cmdlist.List
}

func (r *FrameReport) add(l *cmdlist.List) {
	r.lists = append(r.lists, l)
	r.Lists++
	for _, c := range l.Commands() {
		if bc, ok := c.(*cmdlist.BarrierCmd); ok {
			r.Barriers += len(bc.Barriers)
		}
	}
}

// Err joins the node errors, or returns nil when every node succeeded.
func (r *FrameReport) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Failed reports whether the named node failed this frame.
func (r *FrameReport) Failed(node string) bool {
	for _, e := range r.Errors {
		if e.Node == node {
			return true
		}
	}
	return false
}
