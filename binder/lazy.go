// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package binder

import "errors"

// ErrReentrant is returned when Lazy.Get is called from its own create function.
var ErrReentrant = errors.New("binder: lazy value requested while being created")

// LazyState is the creation state of a Lazy value.
type LazyState uint8

const (
	Uninitialized LazyState = iota
	Creating
	Ready
)

func (s LazyState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Creating:
		return "creating"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Lazy holds a durable object created on first use.
//
// State machine:
//
//	Uninitialized -> (Get)          -> Creating
//	Creating      -> (create ok)    -> Ready
//	Creating      -> (create fails) -> Uninitialized
//	Ready         -> (Invalidate)   -> Uninitialized
//
// Lazy is owned by a single node and is NOT safe for concurrent use.
type Lazy[T any] struct {
	state LazyState
	value T
}

// Get returns the value, calling create if it does not exist yet. A failed
// creation leaves the Lazy uninitialized so the next Get retries.
func (l *Lazy[T]) Get(create func() (T, error)) (T, error) {
	switch l.state {
	case Ready:
		return l.value, nil
	case Creating:
		var zero T
		return zero, ErrReentrant
	}
	l.state = Creating
	v, err := create()
	if err != nil {
		l.state = Uninitialized
		var zero T
		return zero, err
	}
	l.value = v
	l.state = Ready
	return v, nil
}

// Value returns the value and whether it is ready.
func (l *Lazy[T]) Value() (T, bool) {
	if l.state != Ready {
		var zero T
		return zero, false
	}
	return l.value, true
}

// Ready reports whether the value exists.
func (l *Lazy[T]) Ready() bool { return l.state == Ready }

// State returns the creation state.
func (l *Lazy[T]) State() LazyState { return l.state }

// Invalidate drops the value so the next Get recreates it.
func (l *Lazy[T]) Invalidate() {
	var zero T
	l.value = zero
	l.state = Uninitialized
}
