// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when no registered backend opens.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrUnknownBackend is returned when a name is not registered.
	ErrUnknownBackend = errors.New("backend: unknown backend")
)

// Backend is an opened GPU backend: the device objects are created on and
// the queue a graph submits its lists to.
type Backend interface {
	// Name returns the registered name, e.g. "hal" or "noop".
	Name() string

	Device() gxapi.Device

	Queue() graph.Queue

	// Close releases the device. The backend must not be used afterwards.
	Close()
}

// Options are passed to a backend factory.
type Options struct {
	// Logger receives backend lifecycle and replay messages.
	Logger *slog.Logger

	// SubmitTimeout bounds the wait for a submission to complete. Zero
	// waits until the submit context is done.
	SubmitTimeout time.Duration
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return framegraph.ComponentLogger("backend")
	}
	return o.Logger
}

// Factory opens a backend.
type Factory func(opts Options) (Backend, error)
