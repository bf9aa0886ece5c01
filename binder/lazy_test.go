// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package binder

import (
	"errors"
	"testing"
)

func TestLazyCreatesOnce(t *testing.T) {
	var l Lazy[int]
	calls := 0
	create := func() (int, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 5; i++ {
		v, err := l.Get(create)
		if err != nil || v != 42 {
			t.Fatalf("Get = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	if l.State() != Ready {
		t.Errorf("state = %s", l.State())
	}
}

func TestLazyFailureIsAllOrNothing(t *testing.T) {
	var l Lazy[string]
	boom := errors.New("boom")
	if _, err := l.Get(func() (string, error) { return "partial", boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if l.Ready() {
		t.Fatal("failed creation left the value ready")
	}
	if v, ok := l.Value(); ok || v != "" {
		t.Fatalf("Value = %q, %v", v, ok)
	}
	v, err := l.Get(func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("retry = %q, %v", v, err)
	}
}

func TestLazyReentrant(t *testing.T) {
	var l Lazy[int]
	var inner error
	_, err := l.Get(func() (int, error) {
		_, inner = l.Get(func() (int, error) { return 1, nil })
		return 2, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(inner, ErrReentrant) {
		t.Errorf("inner err = %v, want ErrReentrant", inner)
	}
}

func TestLazyInvalidate(t *testing.T) {
	var l Lazy[int]
	calls := 0
	create := func() (int, error) { calls++; return calls, nil }
	_, _ = l.Get(create)
	l.Invalidate()
	if l.State() != Uninitialized {
		t.Fatalf("state after Invalidate = %s", l.State())
	}
	v, _ := l.Get(create)
	if v != 2 || calls != 2 {
		t.Errorf("recreated value = %d after %d calls", v, calls)
	}
}
