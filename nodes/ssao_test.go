// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nodes_test

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/cmdlist"
	"github.com/gogpu/framegraph/config"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/nodes"
)

func ssaoChain(h *harness, opts nodes.SSAOOptions, withCamera bool) *nodes.SSAO {
	depth := nodes.NewTextureSource("depth", gxapi.TextureDesc{Label: "depth", Width: 80, Height: 60,
		Format: gputypes.TextureFormatRGBA8Unorm}, gputypes.Color{R: 1, A: 1})
	ssao := nodes.NewSSAO("ssao", opts)
	h.add(depth, ssao)
	connect(h, depth, &depth.Output, ssao, &ssao.Depth)
	if withCamera {
		cam := nodes.NewCameraSource("camera", nodes.DefaultCamera(80.0/60.0))
		h.add(cam)
		connect(h, cam, &cam.Output, ssao, &ssao.Camera)
	}
	return ssao
}

func TestSSAOPasses(t *testing.T) {
	h := newHarness(t)
	ssaoChain(h, nodes.SSAOOptions{}, true)
	h.frame()

	cmds := h.list("ssao")
	if n := len(of[*cmdlist.DrawIndexedInstancedCmd](cmds)); n != 3 {
		t.Errorf("%d draws, want 3", n)
	}
	c := h.dev.Counts()
	// depth source + ssao, blur_h, blur_v0, blur_v1
	if c.Textures != 5 {
		t.Errorf("textures = %d, want 5", c.Textures)
	}
	if c.Pipelines != 3 || c.RootSignatures != 1 {
		t.Errorf("pipelines/binders = %d/%d, want 3/1", c.Pipelines, c.RootSignatures)
	}

	for _, rt := range of[*cmdlist.SetRenderTargetsCmd](cmds) {
		if f := rt.RTVs[0].Tex.Desc().Format; f != gputypes.TextureFormatRGBA8Unorm {
			t.Errorf("target format %v", f)
		}
	}

	h.frame()
	if c2 := h.dev.Counts(); c2.Textures != c.Textures || c2.Pipelines != c.Pipelines {
		t.Errorf("durable objects recreated: %+v then %+v", c, c2)
	}
}

func TestSSAOTemporalPingPong(t *testing.T) {
	h := newHarness(t)
	ssao := ssaoChain(h, nodes.SSAOOptions{}, true)

	frames := int(config.Default().SSAO.TemporalFrames)
	for n := 0; n < frames+2; n++ {
		if got := ssao.TemporalIndex(); got != uint32(n%frames) {
			t.Fatalf("frame %d: temporal index %d", n, got)
		}
		h.frame()
		vt := ssao.VerticalTargets()
		out, _ := ssao.Output.Get()
		if want := vt[n%2]; out.Res != want.Res {
			t.Errorf("frame %d: output is not blur_v%d", n, n%2)
		}

		cmds := h.list("ssao")
		rts := of[*cmdlist.SetRenderTargetsCmd](cmds)
		if len(rts) != 3 {
			t.Fatalf("frame %d: %d render target sets", n, len(rts))
		}
		if rts[2].RTVs[0].Tex.Res != out.Res {
			t.Errorf("frame %d: vertical pass does not write the output", n)
		}
		tables := of[*cmdlist.SetRootDescriptorTableCmd](cmds)
		last := tables[len(tables)-1]
		if want := vt[(n+1)%2]; last.Slot != 3 || last.Views[0].Tex.Res != want.Res {
			t.Errorf("frame %d: vertical pass does not read the previous output", n)
		}
	}
}

func TestSSAOUniforms(t *testing.T) {
	h := newHarness(t)
	ssaoChain(h, nodes.SSAOOptions{Radius: 0.75}, true)
	h.frame()
	h.frame()

	consts := of[*cmdlist.SetRootConstantsCmd](h.list("ssao"))
	if len(consts) != 3 {
		t.Fatalf("%d constant uploads, want 3", len(consts))
	}
	v := consts[0].Values
	if len(v) != 48 {
		t.Fatalf("%d constants, want 48", len(v))
	}
	f := func(i int) float32 { return math.Float32frombits(v[i]) }
	cam := nodes.DefaultCamera(80.0 / 60.0)
	if f(40) != cam.Near || f(41) != cam.Far {
		t.Errorf("near/far = %v/%v", f(40), f(41))
	}
	if f(42) != 0.75 {
		t.Errorf("radius = %v, want 0.75", f(42))
	}
	if f(44) != 1 {
		t.Errorf("temporal index = %v on the second frame, want 1", f(44))
	}
	if f(45) != 0.5 {
		t.Errorf("history weight = %v on the second frame, want 0.5", f(45))
	}
}

func TestSSAOFirstFrameIgnoresHistory(t *testing.T) {
	h := newHarness(t)
	ssaoChain(h, nodes.SSAOOptions{}, true)
	h.frame()

	consts := of[*cmdlist.SetRootConstantsCmd](h.list("ssao"))
	if len(consts) != 3 {
		t.Fatalf("%d constant uploads, want 3", len(consts))
	}
	if w := math.Float32frombits(consts[2].Values[45]); w != 0 {
		t.Errorf("history weight = %v on the first frame, want 0", w)
	}
}

func TestSSAOPartialPipelineFailure(t *testing.T) {
	h := newHarness(t)
	ssaoChain(h, nodes.SSAOOptions{}, true)
	h.dev.PipelinesBeforeFailure = 2
	h.dev.FailPipeline = errors.New("out of memory")

	r, err := h.g.RunFrame(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if !r.Failed("ssao") {
		t.Fatalf("err = %v, want an ssao failure", r.Err())
	}
	if n := h.dev.LiveCount("graphics"); n != 0 {
		t.Errorf("%d pipelines live after the third one failed", n)
	}
	if n := h.dev.LiveCount("shader"); n != 0 {
		t.Errorf("%d shaders live after the third pipeline failed", n)
	}

	h.frame()
	if n := h.dev.LiveCount("graphics"); n != 3 {
		t.Errorf("%d pipelines live after the retry, want 3", n)
	}
}

func TestSSAOSkipsWithoutCamera(t *testing.T) {
	h := newHarness(t)
	ssaoChain(h, nodes.SSAOOptions{}, false)
	r := h.frame()
	if len(r.Skipped) != 1 || r.Skipped[0] != "ssao" {
		t.Errorf("skipped = %v, want [ssao]", r.Skipped)
	}
	if h.dev.Counts().Pipelines != 0 {
		t.Error("pipelines created for a skipped node")
	}
}

func TestSSAORejectsOddTemporalFrames(t *testing.T) {
	h := newHarness(t)
	ssaoChain(h, nodes.SSAOOptions{TemporalFrames: 3}, true)
	r, err := h.g.RunFrame(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	var ne *graph.NodeError
	if !errors.As(r.Err(), &ne) || ne.Node != "ssao" || ne.Phase != graph.PhaseInitialize {
		t.Errorf("err = %v, want ssao initialize failure", r.Err())
	}
}

func TestSSAOOptionsFromConfig(t *testing.T) {
	c := config.Default().SSAO
	c.Radius = 2
	opts := nodes.SSAOOptionsFrom(c)
	if opts.Radius != 2 || opts.TemporalFrames != c.TemporalFrames || opts.ScaleFactor != c.ScaleFactor {
		t.Errorf("options = %+v", opts)
	}
}
