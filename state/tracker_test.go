// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state_test

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/internal/gxtest"
	"github.com/gogpu/framegraph/state"
)

func newTexture(id gxapi.ResourceID, mips, slices uint32) *gxtest.Texture {
	return gxtest.NewTexture(id, gxapi.TextureDesc{
		Label: "tex", Width: 64, Height: 64, MipLevels: mips, ArraySize: slices,
	})
}

func commonBase(res gxapi.Resource) []gxapi.ResourceState {
	return make([]gxapi.ResourceState, res.SubresourceCount())
}

func TestRequireStateTracksTarget(t *testing.T) {
	tex := newTexture(1, 1, 1)
	tr := state.NewTracker(state.WithBase(commonBase))

	sequence := []gxapi.ResourceState{
		gxapi.StateRenderTarget,
		gxapi.StateRenderTarget,
		gxapi.StatePixelShaderResource | gxapi.StateNonPixelShaderResource,
		gxapi.StateCopySource,
		gxapi.StateCopySource,
		gxapi.StateRenderTarget,
	}
	prev := gxapi.StateCommon
	for i, target := range sequence {
		barriers, err := tr.RequireState(tex, gxapi.AllSubresources, target)
		if err != nil {
			t.Fatalf("step %d: RequireState: %v", i, err)
		}
		if target == prev {
			if len(barriers) != 0 {
				t.Errorf("step %d: redundant request produced %d barriers", i, len(barriers))
			}
		} else {
			if len(barriers) != 1 {
				t.Fatalf("step %d: got %d barriers, want 1", i, len(barriers))
			}
			b := barriers[0]
			if b.StateBefore != prev || b.StateAfter != target || b.Subresource != gxapi.AllSubresourceIndex {
				t.Errorf("step %d: barrier = %s", i, b)
			}
		}
		got, ok := tr.State(tex, 0)
		if !ok || got != target {
			t.Errorf("step %d: tracked state = %s, want %s", i, got, target)
		}
		prev = target
	}
}

func TestRequireStateRejectsInvalidTarget(t *testing.T) {
	tex := newTexture(1, 1, 1)
	tr := state.NewTracker(state.WithBase(commonBase))
	_, err := tr.RequireState(tex, gxapi.AllSubresources, gxapi.StateRenderTarget|gxapi.StatePixelShaderResource)
	if !errors.Is(err, gxapi.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if _, known := tr.State(tex, 0); known {
		t.Error("failed request should not establish a state")
	}
}

func TestRequireStateSubresources(t *testing.T) {
	tex := newTexture(1, 3, 2) // 6 subresources
	tr := state.NewTracker(state.WithBase(commonBase))

	barriers, err := tr.RequireState(tex, gxapi.Subresource(1), gxapi.StateRenderTarget)
	if err != nil {
		t.Fatal(err)
	}
	if len(barriers) != 1 || barriers[0].Subresource != 1 {
		t.Fatalf("single subresource barriers = %v", barriers)
	}

	// The whole resource is now heterogeneous: one barrier per subresource
	// that differs from the target.
	barriers, err = tr.RequireState(tex, gxapi.AllSubresources, gxapi.StatePixelShaderResource)
	if err != nil {
		t.Fatal(err)
	}
	if len(barriers) != 6 {
		t.Fatalf("got %d barriers, want 6", len(barriers))
	}
	if barriers[1].StateBefore != gxapi.StateRenderTarget {
		t.Errorf("subresource 1 before = %s, want RENDER_TARGET", barriers[1].StateBefore)
	}

	// Uniform again, so a whole-resource request is a single barrier.
	barriers, err = tr.RequireState(tex, gxapi.AllSubresources, gxapi.StateCopySource)
	if err != nil {
		t.Fatal(err)
	}
	if len(barriers) != 1 || barriers[0].Subresource != gxapi.AllSubresourceIndex {
		t.Fatalf("uniform barriers = %v", barriers)
	}
}

func TestRequireStateStrictRanges(t *testing.T) {
	tex := newTexture(1, 2, 1)
	tr := state.NewTracker(state.WithBase(commonBase), state.WithStrictRanges())
	if _, err := tr.RequireState(tex, gxapi.Subresource(0), gxapi.StateRenderTarget); err != nil {
		t.Fatal(err)
	}

	_, err := tr.RequireState(tex, gxapi.AllSubresources, gxapi.StatePixelShaderResource)
	var rangeErr *gxapi.InvalidStateRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("err = %v, want InvalidStateRangeError", err)
	}
	if len(rangeErr.States) != 2 {
		t.Errorf("reported states = %v, want 2 distinct", rangeErr.States)
	}
	if got, _ := tr.State(tex, 0); got != gxapi.StateRenderTarget {
		t.Errorf("failed request changed tracking to %s", got)
	}
}

func TestRequireStateOutOfRange(t *testing.T) {
	buf := gxtest.NewBuffer(7, 256)
	tr := state.NewTracker()
	_, err := tr.RequireState(buf, gxapi.Subresource(1), gxapi.StateIndexBuffer)
	if !errors.Is(err, gxapi.ErrSubresourceRange) {
		t.Fatalf("err = %v, want ErrSubresourceRange", err)
	}
}

func TestPendingRequirementsWithoutBase(t *testing.T) {
	tex := newTexture(3, 1, 1)
	tr := state.NewTracker()

	barriers, err := tr.RequireState(tex, gxapi.AllSubresources, gxapi.StateRenderTarget)
	if err != nil {
		t.Fatal(err)
	}
	if len(barriers) != 0 {
		t.Fatalf("unknown resource produced %d inline barriers", len(barriers))
	}
	pending := tr.Pending()
	if len(pending) != 1 || pending[0].State != gxapi.StateRenderTarget {
		t.Fatalf("pending = %+v", pending)
	}

	// Once known, later requests are resolved inline.
	barriers, err = tr.RequireState(tex, gxapi.AllSubresources, gxapi.StatePixelShaderResource)
	if err != nil {
		t.Fatal(err)
	}
	if len(barriers) != 1 || barriers[0].StateBefore != gxapi.StateRenderTarget {
		t.Fatalf("barriers = %v", barriers)
	}
	if len(tr.Pending()) != 1 {
		t.Error("known resources must not add pending requirements")
	}
}

func TestTrackerSnapshotAndReset(t *testing.T) {
	tex := newTexture(1, 1, 1)
	tr := state.NewTracker(state.WithBase(commonBase))
	if _, err := tr.RequireState(tex, gxapi.AllSubresources, gxapi.StateCopyDest); err != nil {
		t.Fatal(err)
	}
	snap := tr.Snapshot()
	if got := snap[tex.ResourceID()]; len(got) != 1 || got[0] != gxapi.StateCopyDest {
		t.Fatalf("snapshot = %v", got)
	}
	snap[tex.ResourceID()][0] = gxapi.StateCommon
	if got, _ := tr.State(tex, 0); got != gxapi.StateCopyDest {
		t.Error("snapshot must be a copy")
	}

	tr.Reset()
	if _, known := tr.State(tex, 0); known {
		t.Error("Reset should forget tracked states")
	}
}
