// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package binder

import (
	"encoding/binary"

	"github.com/gogpu/framegraph/cache"
	"github.com/gogpu/framegraph/gxapi"
)

// Cache shares binders between nodes that declare the same layout. Entries
// are keyed by the canonical encoding of the description, so layouts whose
// hashes collide still get their own binder.
// It is safe for concurrent use.
type Cache struct {
	binders *cache.Sharded[string, *Binder]
}

// NewCache creates a binder cache holding up to capacity layouts per shard.
func NewCache(capacity int) *Cache {
	return newCache(capacity, cache.StringHasher)
}

func newCache(capacity int, hasher cache.Hasher[string]) *Cache {
	return &Cache{binders: cache.New[string, *Binder](capacity, hasher)}
}

// Binder returns the cached binder for desc, creating it on the first
// request. The boolean reports a cache hit.
func (c *Cache) Binder(dev gxapi.Device, desc gxapi.BinderDesc) (*Binder, bool, error) {
	if err := Validate(desc); err != nil {
		return nil, false, err
	}
	return c.binders.GetOrCreate(Key(desc), func() (*Binder, error) {
		return New(dev, desc)
	})
}

// Stats returns the cache counters.
func (c *Cache) Stats() cache.Stats { return c.binders.Stats() }

// Key returns the canonical encoding of desc. Two descriptions have the
// same key exactly when they describe the same layout; parameter order is
// significant because it fixes slot indices.
func Key(desc gxapi.BinderDesc) string {
	buf := make([]byte, 0, 8*(2+6*len(desc.Parameters)+6*len(desc.StaticSamplers)))
	put := func(v uint64) { buf = binary.LittleEndian.AppendUint64(buf, v) }
	put(uint64(len(desc.Parameters)))
	for _, p := range desc.Parameters {
		put(uint64(p.Parameter.Type))
		put(uint64(p.Parameter.Register))
		put(uint64(p.Parameter.Space))
		put(uint64(p.Constants))
		put(uint64(p.Visibility))
		put(uint64(p.Access)<<8 | uint64(p.Frequency))
	}
	put(uint64(len(desc.StaticSamplers)))
	for _, s := range desc.StaticSamplers {
		put(uint64(s.Register))
		put(uint64(s.Space))
		put(uint64(s.MinFilter)<<16 | uint64(s.MagFilter)<<8 | uint64(s.MipFilter))
		put(uint64(s.AddressU)<<16 | uint64(s.AddressV)<<8 | uint64(s.AddressW))
		put(uint64(s.MaxAnisotropy))
		put(uint64(s.Visibility))
	}
	return string(buf)
}

// Hash returns the FNV-1a hash of Key(desc).
func Hash(desc gxapi.BinderDesc) uint64 { return cache.StringHasher(Key(desc)) }
