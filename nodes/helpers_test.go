// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nodes_test

import (
	"context"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/cmdlist"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/internal/gxtest"
	"github.com/gogpu/framegraph/nodes"
)

type harness struct {
	t   *testing.T
	g   *graph.Graph
	dev *gxtest.Device
	q   *gxtest.Queue
}

func newHarness(t *testing.T, opts ...graph.Option) *harness {
	t.Helper()
	dev := gxtest.NewDevice()
	q := gxtest.NewQueue()
	g := graph.New(dev, q, opts...)
	t.Cleanup(g.Close)
	return &harness{t: t, g: g, dev: dev, q: q}
}

func (h *harness) add(ns ...graph.Node) {
	h.t.Helper()
	for _, n := range ns {
		if err := h.g.AddNode(n); err != nil {
			h.t.Fatal(err)
		}
	}
}

func connect[T any](h *harness, from graph.Node, out *graph.OutputPort[T], to graph.Node, in *graph.InputPort[T]) {
	h.t.Helper()
	if err := graph.Connect(h.g, from, out, to, in); err != nil {
		h.t.Fatal(err)
	}
}

// frame runs one frame and fails the test on any graph or node error.
func (h *harness) frame() *graph.FrameReport {
	h.t.Helper()
	r, err := h.g.RunFrame(context.Background())
	if err != nil {
		h.t.Fatalf("RunFrame: %v", err)
	}
	if err := r.Err(); err != nil {
		h.t.Fatalf("frame %d: %v", r.Frame, err)
	}
	return r
}

// list returns the commands the named list submitted in the last frame.
func (h *harness) list(name string) []cmdlist.Command {
	h.t.Helper()
	sub, ok := h.q.Last()
	if !ok {
		h.t.Fatal("nothing submitted")
	}
	for i, n := range sub.Names {
		if n == name {
			return sub.Commands[i]
		}
	}
	h.t.Fatalf("list %q not in %v", name, sub.Names)
	return nil
}

func of[T cmdlist.Command](cmds []cmdlist.Command) []T {
	var out []T
	for _, c := range cmds {
		if v, ok := c.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func rgba(w, h uint32) gxapi.TextureDesc {
	return gxapi.TextureDesc{Label: "color", Width: w, Height: h, Format: gputypes.TextureFormatRGBA8Unorm}
}

// holder publishes a texture it creates once and records nothing, so the
// texture stays in whatever state the previous frame left it.
type holder struct {
	desc   gxapi.TextureDesc
	tex    gxapi.Texture
	Output graph.OutputPort[gxapi.Texture]
}

func (n *holder) Name() string                         { return "holder" }
func (n *holder) Initialize(*graph.EngineContext) error { return nil }
func (n *holder) Reset()                               {}
func (n *holder) Execute(*graph.RenderContext) error    { return nil }

func (n *holder) Setup(ctx *graph.SetupContext) error {
	if !n.tex.HasObject() {
		tex, err := ctx.CreateTexture2D(n.desc)
		if err != nil {
			return err
		}
		n.tex = tex
	}
	n.Output.Set(n.tex)
	return nil
}

var _ graph.Node = (*nodes.TextureSource)(nil)
