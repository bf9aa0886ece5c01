// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestGetOrCreate(t *testing.T) {
	c := New[string, int](10, StringHasher)
	calls := 0
	create := func() (int, error) {
		calls++
		return 100, nil
	}

	v, hit, err := c.GetOrCreate("key", create)
	if err != nil || hit || v != 100 {
		t.Fatalf("first GetOrCreate = (%d, %v, %v)", v, hit, err)
	}
	v, hit, err = c.GetOrCreate("key", create)
	if err != nil || !hit || v != 100 {
		t.Fatalf("second GetOrCreate = (%d, %v, %v)", v, hit, err)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.HitRate() != 0.5 {
		t.Errorf("stats = %+v", s)
	}
}

func TestGetOrCreateFailureStoresNothing(t *testing.T) {
	c := New[uint64, string](10, Uint64Hasher)
	boom := errors.New("boom")
	if _, _, err := c.GetOrCreate(1, func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Fatalf("failed creation stored an entry")
	}
	v, hit, err := c.GetOrCreate(1, func() (string, error) { return "ok", nil })
	if err != nil || hit || v != "ok" {
		t.Fatalf("retry = (%q, %v, %v)", v, hit, err)
	}
}

func TestEviction(t *testing.T) {
	// Identity hashing keeps every key a multiple of ShardCount in shard 0.
	c := New[uint64, int](2, Uint64Hasher)
	c.Set(0, 0)
	c.Set(ShardCount, 1)
	if _, ok := c.Get(0); !ok { // touch 0 so ShardCount is oldest
		t.Fatal("key 0 missing")
	}
	c.Set(2*ShardCount, 2)

	if _, ok := c.Get(ShardCount); ok {
		t.Error("least recently used key should have been evicted")
	}
	if _, ok := c.Get(0); !ok {
		t.Error("recently used key was evicted")
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("evictions = %d, want 1", c.Stats().Evictions)
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New[string, int](10, StringHasher)
	c.Set("a", 1)
	c.Set("b", 2)
	if !c.Delete("a") || c.Delete("a") {
		t.Error("Delete should report presence exactly once")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	c := New[string, int](64, StringHasher)
	var mu sync.Mutex
	created := map[string]int{}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 32; i++ {
				key := strconv.Itoa(i)
				_, _, _ = c.GetOrCreate(key, func() (int, error) {
					mu.Lock()
					created[key]++
					mu.Unlock()
					return i, nil
				})
			}
		}()
	}
	wg.Wait()

	for key, n := range created {
		if n != 1 {
			t.Errorf("key %s created %d times", key, n)
		}
	}
}
