// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"log/slog"
	"sync/atomic"
)

var silent = slog.New(slog.DiscardHandler)

// defaultLogger is read by recording workers while the host may replace it.
var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(silent)
}

// SetLogger configures the default logger of framegraph and its
// sub-packages. By default nothing is logged. Pass nil to restore the silent
// default.
//
// Graphs and backends take the logger when they are created; use
// graph.WithLogger or backend.Options to give one of them its own logger.
//
// Log levels used by framegraph:
//   - [slog.LevelDebug]: object creation, barrier and list counts per frame
//   - [slog.LevelInfo]: lifecycle events (graph compiled, backend selected)
//   - [slog.LevelWarn]: isolated node failures, resource release errors
//
// Example:
//
//	framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	defaultLogger.Store(l)
}

// Logger returns the current default logger.
func Logger() *slog.Logger {
	return defaultLogger.Load()
}

// ComponentLogger returns the default logger with a component attribute.
// The result is bound to the logger current at the time of the call.
func ComponentLogger(component string) *slog.Logger {
	return Logger().With("component", component)
}
