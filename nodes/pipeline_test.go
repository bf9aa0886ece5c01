// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nodes_test

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/nodes"
)

func TestSourceBlurBlur(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []graph.Option
	}{
		{"sequential", nil},
		{"parallel", []graph.Option{graph.WithParallel(2)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.opts...)
			a := nodes.NewTextureSource("a", rgba(128, 128), gputypes.Color{G: 1, A: 1})
			b := nodes.NewBlur("b", nodes.Horizontal, 1)
			c := nodes.NewBlur("c", nodes.Vertical, 2)
			h.add(c, b, a)
			connect(h, a, &a.Output, b, &b.Input)
			connect(h, b, &b.Output, c, &c.Input)

			var outputs []gxapi.Texture
			for i := 0; i < 2; i++ {
				r := h.frame()
				if len(r.Executed) != 3 || r.Executed[0] != "a" || r.Executed[1] != "b" || r.Executed[2] != "c" {
					t.Fatalf("executed = %v", r.Executed)
				}
				out, ok := c.Output.Get()
				if !ok || !out.HasObject() {
					t.Fatalf("frame %d: no output", i)
				}
				if d := out.Desc(); d.Width != 128 || d.Height != 128 {
					t.Errorf("output is %dx%d", d.Width, d.Height)
				}
				if !h.dev.Live(out.Res) {
					t.Errorf("frame %d: output was released", i)
				}
				outputs = append(outputs, out)
			}
			if outputs[0].Res == outputs[1].Res {
				t.Error("ping-pong output did not alternate")
			}
		})
	}
}
