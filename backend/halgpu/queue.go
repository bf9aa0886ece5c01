// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph/cmdlist"
	"github.com/gogpu/framegraph/gxapi"
)

// pollInterval is how often Submit checks for completion.
const pollInterval = 200 * time.Microsecond

// inflight is a submission whose command buffer and transients are kept
// alive until the queue reports it complete.
type inflight struct {
	index uint64
	enc   hal.CommandEncoder
	cmd   hal.CommandBuffer
	res   *transients
}

// Queue implements graph.Queue. Every Submit encodes all lists into one
// command buffer and waits for it to complete.
type Queue struct {
	d       *Device
	timeout time.Duration

	mu      sync.Mutex
	pending []inflight
}

// NewQueue returns a queue submitting to d. A zero timeout waits until
// the submit context is done.
func NewQueue(d *Device, timeout time.Duration) *Queue {
	return &Queue{d: d, timeout: timeout}
}

// Submit implements graph.Queue.
func (q *Queue) Submit(ctx context.Context, lists []*cmdlist.List) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, l := range lists {
		if l.State() != cmdlist.Closed {
			return fmt.Errorf("halgpu: submit %q: %w", l.Name(), gxapi.ErrNotClosed)
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.reap(q.d.queue.PollCompleted())
	if len(lists) == 0 {
		return nil
	}

	enc, err := q.d.raw.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame"})
	if err != nil {
		return fmt.Errorf("halgpu: create encoder: %w", err)
	}
	if err := enc.BeginEncoding("frame"); err != nil {
		enc.Destroy()
		return fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	r := newReplayer(q.d, enc)
	for _, l := range lists {
		if err := r.list(l); err != nil {
			r.endPass()
			enc.DiscardEncoding()
			enc.Destroy()
			r.res.destroy(q.d.raw)
			return err
		}
	}
	cmd, err := enc.EndEncoding()
	if err != nil {
		enc.Destroy()
		r.res.destroy(q.d.raw)
		return fmt.Errorf("halgpu: end encoding: %w", err)
	}
	index, err := q.d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		q.free(inflight{enc: enc, cmd: cmd, res: r.res})
		return fmt.Errorf("halgpu: submit: %w", err)
	}
	q.pending = append(q.pending, inflight{index: index, enc: enc, cmd: cmd, res: r.res})
	q.d.log.Debug("submitted", "index", index, "lists", len(lists), "bind groups", len(r.res.groups))
	return q.wait(ctx, index)
}

// wait polls until submission index completes, the timeout passes or ctx
// is done. Unfinished submissions are freed by a later Submit or Drain.
func (q *Queue) wait(ctx context.Context, index uint64) error {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		done := q.d.queue.PollCompleted()
		if done >= index {
			q.reap(done)
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("halgpu: submission %d: %w", index, hal.ErrTimeout)
			}
			return fmt.Errorf("halgpu: submission %d: %w", index, ctx.Err())
		case <-ticker.C:
		}
	}
}

// reap frees every pending submission up to index done.
func (q *Queue) reap(done uint64) {
	kept := q.pending[:0]
	for _, s := range q.pending {
		if s.index <= done {
			q.free(s)
			continue
		}
		kept = append(kept, s)
	}
	clear(q.pending[len(kept):])
	q.pending = kept
}

func (q *Queue) free(s inflight) {
	s.enc.ResetAll([]hal.CommandBuffer{s.cmd})
	s.enc.Destroy()
	s.res.destroy(q.d.raw)
}

// Pending returns the number of submissions not yet known complete.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain waits for the device to go idle and frees every pending submission.
func (q *Queue) Drain() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	err := q.d.raw.WaitIdle()
	for _, s := range q.pending {
		q.free(s)
	}
	q.pending = nil
	return err
}
