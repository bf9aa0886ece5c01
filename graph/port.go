// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graph

import (
	"errors"
	"fmt"
)

// ErrPortUnset is returned when reading an input nothing was published to.
var ErrPortUnset = errors.New("graph: input port not set")

// InputPort receives a value published by an upstream OutputPort.
// Name labels the port in errors.
type InputPort[T any] struct {
	Name  string
	value T
	set   bool
}

// Set stores v.
func (p *InputPort[T]) Set(v T) {
	p.value = v
	p.set = true
}

// Get returns the value or an error wrapping ErrPortUnset.
func (p *InputPort[T]) Get() (T, error) {
	if !p.set {
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrPortUnset, p.Name)
	}
	return p.value, nil
}

// TryGet returns the value and whether it is set.
func (p *InputPort[T]) TryGet() (T, bool) {
	return p.value, p.set
}

// Clear unsets the port.
func (p *InputPort[T]) Clear() {
	var zero T
	p.value = zero
	p.set = false
}

// IsSet reports whether a value was published this frame.
func (p *InputPort[T]) IsSet() bool { return p.set }

// OutputPort publishes a value to every linked input.
type OutputPort[T any] struct {
	Name  string
	value T
	set   bool
	links []*InputPort[T]
}

// Set stores v and publishes it to the linked inputs.
func (p *OutputPort[T]) Set(v T) {
	p.value = v
	p.set = true
	for _, in := range p.links {
		in.Set(v)
	}
}

// Get returns the last published value.
func (p *OutputPort[T]) Get() (T, bool) {
	return p.value, p.set
}

// Clear unsets the output. Linked inputs keep their value until they are
// cleared by their own node.
func (p *OutputPort[T]) Clear() {
	var zero T
	p.value = zero
	p.set = false
}

// Links returns the number of linked inputs.
func (p *OutputPort[T]) Links() int { return len(p.links) }

// Connect links out of from to in of to and orders from before to.
// Both nodes must have been added to g.
func Connect[T any](g *Graph, from Node, out *OutputPort[T], to Node, in *InputPort[T]) error {
	if err := g.addEdge(from, to); err != nil {
		return err
	}
	out.links = append(out.links, in)
	if v, ok := out.Get(); ok {
		in.Set(v)
	}
	return nil
}
