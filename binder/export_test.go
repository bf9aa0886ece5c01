// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package binder

import "github.com/gogpu/framegraph/cache"

// NewCacheWithHasher creates a cache that selects shards with hasher.
func NewCacheWithHasher(capacity int, hasher cache.Hasher[string]) *Cache {
	return newCache(capacity, hasher)
}
