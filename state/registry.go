// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"slices"
	"sync"

	"github.com/gogpu/framegraph/gxapi"
)

// Registry holds the state every resource is left in by the lists
// committed so far. Resources start in StateCommon.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	states map[gxapi.ResourceID][]gxapi.ResourceState
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[gxapi.ResourceID][]gxapi.ResourceState)}
}

// Lookup returns a copy of the committed states of res. It has the
// BaseFunc signature so a Tracker can be seeded from the registry.
func (r *Registry) Lookup(res gxapi.Resource) []gxapi.ResourceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.get(res))
}

func (r *Registry) get(res gxapi.Resource) []gxapi.ResourceState {
	s, ok := r.states[res.ResourceID()]
	if !ok || len(s) != int(res.SubresourceCount()) {
		s = make([]gxapi.ResourceState, res.SubresourceCount())
		r.states[res.ResourceID()] = s
	}
	return s
}

// Commit reconciles a tracker whose list has been closed. Pending
// requirements are compared with the committed states and the transitions
// they need are returned as prelude barriers, to be executed before the
// list. The tracker's final states then become the committed states.
func (r *Registry) Commit(t *Tracker) []gxapi.Barrier {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prelude []gxapi.Barrier
	for _, req := range t.pending {
		cur := r.get(req.Resource)
		whole := req.Lo == 0 && req.Hi == uint32(len(cur))
		uniform := true
		for i := req.Lo; i < req.Hi; i++ {
			if cur[i] != cur[req.Lo] {
				uniform = false
				break
			}
		}
		if whole && uniform {
			if cur[0] != req.State {
				prelude = append(prelude, gxapi.Transition(req.Resource, gxapi.AllSubresourceIndex, cur[0], req.State))
			}
		} else {
			for i := req.Lo; i < req.Hi; i++ {
				if cur[i] != req.State {
					prelude = append(prelude, gxapi.Transition(req.Resource, i, cur[i], req.State))
				}
			}
		}
		for i := req.Lo; i < req.Hi; i++ {
			cur[i] = req.State
		}
	}

	t.each(func(e *entry) {
		cur := r.get(e.res)
		for i, known := range e.known {
			if known {
				cur[i] = e.states[i]
			}
		}
	})
	return prelude
}

// Snapshot returns a copy of every committed state.
func (r *Registry) Snapshot() map[gxapi.ResourceID][]gxapi.ResourceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[gxapi.ResourceID][]gxapi.ResourceState, len(r.states))
	for id, s := range r.states {
		out[id] = slices.Clone(s)
	}
	return out
}

// Forget drops the committed state of res, e.g. after it was released.
func (r *Registry) Forget(res gxapi.Resource) {
	r.mu.Lock()
	delete(r.states, res.ResourceID())
	r.mu.Unlock()
}
