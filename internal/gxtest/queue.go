// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gxtest

import (
	"context"
	"slices"
	"sync"

	"github.com/gogpu/framegraph/cmdlist"
	"github.com/gogpu/framegraph/gxapi"
)

// Submission is one Submit call. Commands holds a copy of each list's
// commands taken at submit time, since lists are reset and reused.
type Submission struct {
	Names    []string
	Commands [][]cmdlist.Command
}

// All returns the commands of every list in submission order.
func (s Submission) All() []cmdlist.Command {
	var out []cmdlist.Command
	for _, c := range s.Commands {
		out = append(out, c...)
	}
	return out
}

// Queue is a fake graph queue that records submissions.
type Queue struct {
	mu          sync.Mutex
	submissions []Submission

	// FailSubmit makes the next Submit fail with the given error.
	FailSubmit error
}

// NewQueue returns an empty fake queue.
func NewQueue() *Queue { return &Queue{} }

// Submit records the lists. Every list must be closed.
func (q *Queue) Submit(ctx context.Context, lists []*cmdlist.List) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.FailSubmit; err != nil {
		q.FailSubmit = nil
		return err
	}
	var s Submission
	for _, l := range lists {
		if l.State() != cmdlist.Closed {
			return gxapi.ErrNotClosed
		}
		s.Names = append(s.Names, l.Name())
		s.Commands = append(s.Commands, slices.Clone(l.Commands()))
	}
	q.submissions = append(q.submissions, s)
	return nil
}

// Submissions returns every recorded submission.
func (q *Queue) Submissions() []Submission {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.submissions)
}

// Last returns the most recent submission.
func (q *Queue) Last() (Submission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.submissions) == 0 {
		return Submission{}, false
	}
	return q.submissions[len(q.submissions)-1], true
}

// Barriers returns every barrier in cmds, flattened.
func Barriers(cmds []cmdlist.Command) []gxapi.Barrier {
	var out []gxapi.Barrier
	for _, c := range cmds {
		if bc, ok := c.(*cmdlist.BarrierCmd); ok {
			out = append(out, bc.Barriers...)
		}
	}
	return out
}

// Count returns how many commands in cmds have the concrete type T.
func Count[T cmdlist.Command](cmds []cmdlist.Command) int {
	n := 0
	for _, c := range cmds {
		if _, ok := c.(T); ok {
			n++
		}
	}
	return n
}
