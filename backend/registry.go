// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
)

type entry struct {
	name     string
	priority int
	factory  Factory
}

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]entry)
)

// Register registers a backend factory under name. Open without a name
// tries backends from the highest priority down. Registering an existing
// name replaces it.
//
// Backend packages call Register from init.
func Register(name string, priority int, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = entry{name: name, priority: priority, factory: factory}
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// sorted returns the entries by descending priority, then by name.
func sorted() []entry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]entry, 0, len(backends))
	for _, e := range backends {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b entry) int {
		if c := cmp.Compare(b.priority, a.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	return out
}

// Available returns the registered backend names in selection order.
func Available() []string {
	es := sorted()
	names := make([]string, len(es))
	for i, e := range es {
		names[i] = e.name
	}
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens the named backend. An empty name opens the first backend,
// by priority, whose factory succeeds.
func Open(name string, opts Options) (Backend, error) {
	log := opts.logger()
	if name != "" {
		registryMu.RLock()
		e, ok := backends[name]
		registryMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownBackend, name, Available())
		}
		b, err := e.factory(opts)
		if err != nil {
			return nil, fmt.Errorf("backend: open %q: %w", name, err)
		}
		log.Info("backend selected", "name", b.Name())
		return b, nil
	}

	var errs []error
	for _, e := range sorted() {
		b, err := e.factory(opts)
		if err != nil {
			log.Debug("backend unavailable", "name", e.name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
			continue
		}
		log.Info("backend selected", "name", b.Name())
		return b, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}
