// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package debugdraw holds transient debug geometry drawn on top of a
// frame: lines, boxes and markers owned by game code and rendered by the
// DebugDraw node.
//
// A Registry is injected where it is needed rather than reached through a
// global. Objects live in index-stable slots so a renderer can keep
// per-slot GPU buffers and detect changes through ObjectID and Version.
package debugdraw

import (
	"sync"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// ObjectID identifies a debug object. IDs are never reused by a Registry.
type ObjectID uint64

// Mesh is debug geometry in world space.
type Mesh struct {
	Vertices []f32.Vec3
	Indices  []uint32
	// Topology is PrimitiveTopologyLineList or PrimitiveTopologyTriangleList.
	Topology gputypes.PrimitiveTopology
}

func (m Mesh) clone() Mesh {
	return Mesh{
		Vertices: append([]f32.Vec3(nil), m.Vertices...),
		Indices:  append([]uint32(nil), m.Indices...),
		Topology: m.Topology,
	}
}

// Object is a snapshot of one slot.
type Object struct {
	ID ObjectID
	// Version changes whenever the mesh or colour changes.
	Version uint64
	Mesh    Mesh
	Color   f32.Vec4
	// Lifetime is the number of remaining frames; 0 means persistent.
	Lifetime uint32
	Alive    bool
}

type slot struct {
	obj Object
}

// Registry stores debug objects in reusable slots.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	slots  []slot
	free   []int
	byID   map[ObjectID]int
	nextID ObjectID
	nextV  uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[ObjectID]int)}
}

func (r *Registry) version() uint64 {
	r.nextV++
	return r.nextV
}

// Add stores a copy of mesh and returns the new object's ID. A lifetime of
// 0 keeps the object until Remove.
func (r *Registry) Add(mesh Mesh, color f32.Vec4, lifetimeFrames uint32) ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	obj := Object{
		ID:       id,
		Version:  r.version(),
		Mesh:     mesh.clone(),
		Color:    color,
		Lifetime: lifetimeFrames,
		Alive:    true,
	}
	var idx int
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[idx] = slot{obj: obj}
	} else {
		idx = len(r.slots)
		r.slots = append(r.slots, slot{obj: obj})
	}
	r.byID[id] = idx
	return id
}

// kill marks slot idx dead and returns it to the free list. The caller
// holds the write lock.
func (r *Registry) kill(idx int) {
	s := &r.slots[idx]
	delete(r.byID, s.obj.ID)
	s.obj = Object{ID: s.obj.ID}
	r.free = append(r.free, idx)
}

// Remove kills the object. Removing an unknown or dead object is a no-op.
func (r *Registry) Remove(id ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.byID[id]; ok {
		r.kill(idx)
	}
}

// SetColor changes the colour of a live object.
func (r *Registry) SetColor(id ObjectID, color f32.Vec4) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[id]
	if !ok {
		return false
	}
	s := &r.slots[idx]
	s.obj.Color = color
	s.obj.Version = r.version()
	return true
}

// SetMesh replaces the mesh of a live object.
func (r *Registry) SetMesh(id ObjectID, mesh Mesh) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[id]
	if !ok {
		return false
	}
	s := &r.slots[idx]
	s.obj.Mesh = mesh.clone()
	s.obj.Version = r.version()
	return true
}

// Len returns the number of slots, dead ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// Lookup returns a snapshot of slot index. The boolean is false when index
// is out of range or the slot is dead.
func (r *Registry) Lookup(index int) (Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.slots) {
		return Object{}, false
	}
	obj := r.slots[index].obj
	return obj, obj.Alive
}

// Alive reports whether id refers to a live object.
func (r *Registry) Alive(id ObjectID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// Update ages every object with a lifetime by one frame and kills those
// that expire. It returns the number of objects killed.
func (r *Registry) Update() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	killed := 0
	for i := range r.slots {
		obj := &r.slots[i].obj
		if !obj.Alive || obj.Lifetime == 0 {
			continue
		}
		obj.Lifetime--
		if obj.Lifetime == 0 {
			r.kill(i)
			killed++
		}
	}
	return killed
}
