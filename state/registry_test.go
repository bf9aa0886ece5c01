// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state_test

import (
	"sync"
	"testing"

	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/state"
)

func TestRegistryCommitSequential(t *testing.T) {
	reg := state.NewRegistry()
	tex := newTexture(1, 1, 1)

	first := state.NewTracker(state.WithBase(reg.Lookup))
	b, err := first.RequireState(tex, gxapi.AllSubresources, gxapi.StateRenderTarget)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 1 || b[0].StateBefore != gxapi.StateCommon {
		t.Fatalf("first list barriers = %v", b)
	}
	if prelude := reg.Commit(first); len(prelude) != 0 {
		t.Fatalf("based tracker produced prelude %v", prelude)
	}

	second := state.NewTracker(state.WithBase(reg.Lookup))
	b, err = second.RequireState(tex, gxapi.AllSubresources, gxapi.StatePixelShaderResource)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 1 || b[0].StateBefore != gxapi.StateRenderTarget {
		t.Fatalf("second list should start from committed RENDER_TARGET, got %v", b)
	}
}

func TestRegistryCommitReconcilesPending(t *testing.T) {
	reg := state.NewRegistry()
	tex := newTexture(1, 1, 1)

	// Two lists recorded concurrently without a base.
	producer := state.NewTracker()
	consumer := state.NewTracker()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = producer.RequireState(tex, gxapi.AllSubresources, gxapi.StateRenderTarget)
	}()
	go func() {
		defer wg.Done()
		_, _ = consumer.RequireState(tex, gxapi.AllSubresources, gxapi.StatePixelShaderResource)
	}()
	wg.Wait()

	prelude := reg.Commit(producer)
	if len(prelude) != 1 || prelude[0].StateBefore != gxapi.StateCommon || prelude[0].StateAfter != gxapi.StateRenderTarget {
		t.Fatalf("producer prelude = %v", prelude)
	}
	prelude = reg.Commit(consumer)
	if len(prelude) != 1 || prelude[0].StateBefore != gxapi.StateRenderTarget {
		t.Fatalf("consumer prelude = %v", prelude)
	}

	snap := reg.Snapshot()
	if got := snap[tex.ResourceID()][0]; got != gxapi.StatePixelShaderResource {
		t.Errorf("committed state = %s", got)
	}
}

func TestRegistryCommitNoopWhenAlreadyInState(t *testing.T) {
	reg := state.NewRegistry()
	tex := newTexture(1, 1, 1)
	tr := state.NewTracker()
	if _, err := tr.RequireState(tex, gxapi.AllSubresources, gxapi.StateCommon); err != nil {
		t.Fatal(err)
	}
	if prelude := reg.Commit(tr); len(prelude) != 0 {
		t.Fatalf("prelude = %v, want none", prelude)
	}
}

func TestRegistryForget(t *testing.T) {
	reg := state.NewRegistry()
	tex := newTexture(1, 1, 1)
	tr := state.NewTracker(state.WithBase(reg.Lookup))
	if _, err := tr.RequireState(tex, gxapi.AllSubresources, gxapi.StateCopyDest); err != nil {
		t.Fatal(err)
	}
	reg.Commit(tr)
	reg.Forget(tex)
	if got := reg.Lookup(tex); got[0] != gxapi.StateCommon {
		t.Errorf("forgotten resource state = %s, want COMMON", got[0])
	}
}
