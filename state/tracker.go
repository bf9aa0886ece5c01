// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package state tracks resource usage states and derives the transition
// barriers a command list needs before each GPU access.
//
// A Tracker is scoped to one command list recording session. A Registry
// holds the frame-global state that closed lists are committed into.
package state

import (
	"slices"

	"github.com/gogpu/framegraph/gxapi"
)

// BaseFunc returns the state of every subresource of res at the start of a
// recording session.
type BaseFunc func(res gxapi.Resource) []gxapi.ResourceState

// Requirement is the first state a list needs from a resource whose state
// was unknown when the list was recorded.
type Requirement struct {
	Resource gxapi.Resource
	Lo, Hi   uint32
	State    gxapi.ResourceState
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithBase seeds unknown resources from base instead of recording pending
// requirements.
func WithBase(base BaseFunc) Option {
	return func(t *Tracker) { t.base = base }
}

// WithStrictRanges makes RequireState fail on ranges that span
// heterogeneous states.
func WithStrictRanges() Option {
	return func(t *Tracker) { t.strict = true }
}

type entry struct {
	res    gxapi.Resource
	states []gxapi.ResourceState
	// known marks subresources whose state is established in this session.
	known []bool
}

// Tracker maps (resource, subresource) to its tracked state.
//
// Tracker is NOT safe for concurrent use. Recording a command list is a
// sequential append log, and each list owns its tracker.
type Tracker struct {
	base    BaseFunc
	strict  bool
	entries map[gxapi.ResourceID]*entry
	order   []gxapi.ResourceID
	pending []Requirement
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{entries: make(map[gxapi.ResourceID]*entry)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Strict reports whether heterogeneous ranges are rejected.
func (t *Tracker) Strict() bool { return t.strict }

func (t *Tracker) lookup(res gxapi.Resource) *entry {
	id := res.ResourceID()
	if e, ok := t.entries[id]; ok {
		return e
	}
	n := res.SubresourceCount()
	e := &entry{res: res, states: make([]gxapi.ResourceState, n), known: make([]bool, n)}
	if t.base != nil {
		base := t.base(res)
		copy(e.states, base)
		for i := range e.known {
			e.known[i] = true
		}
	}
	t.entries[id] = e
	t.order = append(t.order, id)
	return e
}

// RequireState returns the barriers that bring the subresources in rng of
// res to target, and records target as their tracked state.
//
// Subresources already in target need no barrier. When the range is
// uniform and spans the whole resource a single all-subresource transition
// is returned; otherwise one transition per subresource that differs.
// Subresources whose state is unknown (no base) become pending
// requirements resolved at commit time.
func (t *Tracker) RequireState(res gxapi.Resource, rng gxapi.SubresourceRange, target gxapi.ResourceState) ([]gxapi.Barrier, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	lo, hi, err := rng.Resolve(res.SubresourceCount())
	if err != nil {
		return nil, err
	}
	e := t.lookup(res)

	distinct := make([]gxapi.ResourceState, 0, 2)
	unknown := false
	for i := lo; i < hi; i++ {
		if !e.known[i] {
			unknown = true
			continue
		}
		if !slices.Contains(distinct, e.states[i]) {
			distinct = append(distinct, e.states[i])
		}
	}
	if t.strict && len(distinct) > 1 {
		return nil, &gxapi.InvalidStateRangeError{
			Resource: res.ResourceID(),
			Range:    rng,
			States:   distinct,
		}
	}

	if unknown {
		t.addPending(e, lo, hi, target)
	}

	var barriers []gxapi.Barrier
	whole := lo == 0 && hi == uint32(len(e.states)) && !unknown
	if whole && len(distinct) == 1 {
		if distinct[0] != target {
			barriers = append(barriers, gxapi.Transition(res, gxapi.AllSubresourceIndex, distinct[0], target))
		}
	} else {
		for i := lo; i < hi; i++ {
			if e.known[i] && e.states[i] != target {
				barriers = append(barriers, gxapi.Transition(res, i, e.states[i], target))
			}
		}
	}

	for i := lo; i < hi; i++ {
		e.states[i] = target
		e.known[i] = true
	}
	return barriers, nil
}

// addPending records a requirement for the unknown runs inside [lo, hi).
func (t *Tracker) addPending(e *entry, lo, hi uint32, target gxapi.ResourceState) {
	start := -1
	for i := lo; i <= hi; i++ {
		if i < hi && !e.known[i] {
			if start < 0 {
				start = int(i)
			}
			continue
		}
		if start >= 0 {
			t.pending = append(t.pending, Requirement{Resource: e.res, Lo: uint32(start), Hi: i, State: target})
			start = -1
		}
	}
}

// State returns the tracked state of one subresource and whether it is known.
func (t *Tracker) State(res gxapi.Resource, subresource uint32) (gxapi.ResourceState, bool) {
	e, ok := t.entries[res.ResourceID()]
	if !ok || subresource >= uint32(len(e.states)) || !e.known[subresource] {
		return gxapi.StateCommon, false
	}
	return e.states[subresource], true
}

// Snapshot returns a copy of every known tracked state.
func (t *Tracker) Snapshot() map[gxapi.ResourceID][]gxapi.ResourceState {
	out := make(map[gxapi.ResourceID][]gxapi.ResourceState, len(t.entries))
	for id, e := range t.entries {
		out[id] = slices.Clone(e.states)
	}
	return out
}

// Pending returns the requirements recorded for resources with unknown state.
func (t *Tracker) Pending() []Requirement {
	return slices.Clone(t.pending)
}

// Reset forgets every tracked state and pending requirement.
func (t *Tracker) Reset() {
	clear(t.entries)
	t.order = t.order[:0]
	t.pending = t.pending[:0]
}

// each visits tracked resources in first-use order.
func (t *Tracker) each(fn func(e *entry)) {
	for _, id := range t.order {
		fn(t.entries[id])
	}
}
