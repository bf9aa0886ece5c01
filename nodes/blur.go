// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nodes

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
)

// Direction is the axis a Blur samples along.
type Direction uint8

const (
	Horizontal Direction = iota
	Vertical
)

func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

func (d Direction) vector() (float32, float32) {
	if d == Vertical {
		return 0, 1
	}
	return 1, 0
}

// Blur bind parameters.
var (
	blurParams  = gxapi.BindParameter{Type: gxapi.BindConstant, Register: 0}
	blurSource  = gxapi.BindParameter{Type: gxapi.BindTexture, Register: 0}
	blurHistory = gxapi.BindParameter{Type: gxapi.BindTexture, Register: 1}
)

const blurConstants = 8

// historyWeight is the share of the previous frame in the blended passes.
const historyWeight = 0.5

func blurBinderDesc() gxapi.BinderDesc {
	return gxapi.BinderDesc{
		Parameters: []gxapi.BindParameterDesc{
			{Parameter: blurParams, Constants: blurConstants, Visibility: gputypes.ShaderStageFragment},
			{Parameter: blurSource, Visibility: gputypes.ShaderStageFragment},
			{Parameter: blurHistory, Visibility: gputypes.ShaderStageFragment},
		},
		StaticSamplers: []gxapi.StaticSamplerDesc{linearClamp(0)},
	}
}

// Blur is a separable gaussian blur. With k > 1 targets it ping-pongs: on
// frame n it writes target n mod k and blends in target (n-1) mod k, the
// one written on the previous frame.
type Blur struct {
	name string
	dir  Direction
	k    int

	Input  graph.InputPort[gxapi.Texture]
	Output graph.OutputPort[gxapi.Texture]

	binder binder.Lazy[*binder.Binder]
	pso    binder.Lazy[*binder.PipelineState]
	quad   binder.Lazy[quad]
	format gputypes.TextureFormat

	targets []target
	parity  int
	// history is set once the target read as the previous frame has been
	// written.
	history bool

	// per frame
	src   gxapi.ShaderResourceView
	views viewSet
}

// NewBlur creates a blur along dir with pingPong targets. Values below 1
// are treated as 1.
func NewBlur(name string, dir Direction, pingPong int) *Blur {
	return &Blur{
		name:   name,
		dir:    dir,
		k:      max(pingPong, 1),
		Input:  graph.InputPort[gxapi.Texture]{Name: name + ".input"},
		Output: graph.OutputPort[gxapi.Texture]{Name: name + ".output"},
	}
}

func (n *Blur) Name() string                         { return n.name }
func (n *Blur) Initialize(*graph.EngineContext) error { return nil }

// Parity returns the index of the target the next Execute writes.
func (n *Blur) Parity() int { return n.parity }

// Targets returns the ping-pong textures, in write order.
func (n *Blur) Targets() []gxapi.Texture {
	out := make([]gxapi.Texture, len(n.targets))
	for i, t := range n.targets {
		out[i] = t.tex
	}
	return out
}

func (n *Blur) Reset() {
	n.src = gxapi.ShaderResourceView{}
	n.Input.Clear()
	n.Output.Clear()
}

// Setup creates the binder, pipeline, quad and targets on first use and
// publishes the target the next Execute writes.
func (n *Blur) Setup(ctx *graph.SetupContext) error {
	n.views.release(ctx)
	in, err := n.Input.Get()
	if err != nil {
		return err
	}
	desc := in.Desc()

	b, err := n.binder.Get(func() (*binder.Binder, error) { return ctx.CreateBinder(blurBinderDesc()) })
	if err != nil {
		return err
	}
	if old, ok := n.pso.Value(); ok && n.format != desc.Format {
		releasePSOs(ctx, old)
		n.pso.Invalidate()
	}
	if _, err := n.pso.Get(func() (*binder.PipelineState, error) {
		pso, err := postPSO(ctx, b, "blur "+n.dir.String(), blurWGSL, "fs_main", desc.Format)
		if err == nil {
			n.format = desc.Format
		}
		return pso, err
	}); err != nil {
		return err
	}
	if _, err := n.quad.Get(func() (quad, error) { return newQuad(ctx) }); err != nil {
		return err
	}
	if err := n.ensureTargets(ctx, desc); err != nil {
		return err
	}

	n.src, err = ctx.CreateSrv(in, gxapi.ViewDesc{Label: "source"})
	if err != nil {
		return err
	}
	n.views.add(n.src.View)
	n.Output.Set(n.targets[n.parity].tex)
	return nil
}

// ensureTargets creates the k targets sized like the input, recreating them
// when the input size or format changes.
func (n *Blur) ensureTargets(ctx *graph.SetupContext, in gxapi.TextureDesc) error {
	if len(n.targets) == n.k && sameSize(n.targets, in.Width, in.Height) &&
		n.targets[0].tex.Desc().Format == in.Format {
		return nil
	}
	for _, t := range n.targets {
		t.release(ctx)
	}
	n.targets = n.targets[:0]
	n.parity = 0
	n.history = false
	for i := 0; i < n.k; i++ {
		t, err := newTarget(ctx, fmt.Sprintf("target%d", i), in.Width, in.Height, in.Format)
		if err != nil {
			return err
		}
		n.targets = append(n.targets, t)
	}
	return nil
}

// Execute blurs the input into the current target and advances the
// ping-pong parity.
func (n *Blur) Execute(ctx *graph.RenderContext) error {
	gl := ctx.AsGraphics()
	b, _ := n.binder.Value()
	pso, _ := n.pso.Value()
	q, _ := n.quad.Value()

	write := n.targets[n.parity]
	history := n.src
	weight := float32(0)
	if n.k > 1 {
		history = n.targets[(n.parity+n.k-1)%n.k].srv
		if n.history {
			weight = historyWeight
		}
		if err := gl.SetResourceState(history.Tex.Res, gxapi.AllSubresources, gxapi.StatePixelShaderResource); err != nil {
			return err
		}
	}
	if err := gl.SetResourceState(write.tex.Res, gxapi.AllSubresources, gxapi.StateRenderTarget); err != nil {
		return err
	}
	if err := gl.SetResourceState(n.src.Tex.Res, n.src.Subresources(), gxapi.StatePixelShaderResource); err != nil {
		return err
	}

	fullscreen(gl, write.rtv)
	gl.SetPipelineState(pso)
	gl.SetGraphicsBinder(b)
	gl.SetPrimitiveTopology(gputypes.PrimitiveTopologyTriangleList)

	w, h := write.size()
	dx, dy := n.dir.vector()
	gl.BindGraphicsFloats(blurParams, []float32{1 / float32(w), 1 / float32(h), dx, dy, weight, 0, 0, 0}, 0)
	gl.BindGraphicsTexture(blurSource, n.src)
	gl.BindGraphicsTexture(blurHistory, history)
	if err := q.draw(gl); err != nil {
		return err
	}

	n.parity = (n.parity + 1) % n.k
	n.history = true
	return nil
}
