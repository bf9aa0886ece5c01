// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nodes

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/cmdlist"
	"github.com/gogpu/framegraph/config"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
	"github.com/gogpu/framegraph/internal/xmath"
)

// SSAO bind parameters.
var (
	ssaoUniforms = gxapi.BindParameter{Type: gxapi.BindConstant, Register: 0}
	ssaoDepth    = gxapi.BindParameter{Type: gxapi.BindTexture, Register: 0}
	ssaoInput    = gxapi.BindParameter{Type: gxapi.BindTexture, Register: 1}
	ssaoTemporal = gxapi.BindParameter{Type: gxapi.BindTexture, Register: 2}
)

// ssaoConstants is the size of the uniform block in 32-bit values:
// invVP, oldVP, two far plane vectors, near, far, radius, scale, temporal
// index, history weight and padding.
const ssaoConstants = 16 + 16 + 4 + 4 + 4 + 4

const ssaoFormat = gputypes.TextureFormatRGBA8Unorm

func ssaoBinderDesc() gxapi.BinderDesc {
	all := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	return gxapi.BinderDesc{
		Parameters: []gxapi.BindParameterDesc{
			{Parameter: ssaoUniforms, Constants: ssaoConstants, Visibility: all},
			{Parameter: ssaoDepth, Visibility: gputypes.ShaderStageFragment},
			{Parameter: ssaoInput, Visibility: gputypes.ShaderStageFragment},
			{Parameter: ssaoTemporal, Visibility: gputypes.ShaderStageFragment},
		},
		StaticSamplers: []gxapi.StaticSamplerDesc{pointClamp(0), linearClamp(1)},
	}
}

// SSAOOptions tune the occlusion pass.
type SSAOOptions struct {
	// Radius is the world-space sampling radius.
	Radius float32
	// ScaleFactor multiplies the projected radius.
	ScaleFactor float32
	// TemporalFrames is the period of the temporal index. It must be even
	// so the ping-pong parity survives the wrap.
	TemporalFrames uint32
}

// SSAOOptionsFrom converts the [ssao] configuration section.
func SSAOOptionsFrom(c config.SSAO) SSAOOptions {
	return SSAOOptions{Radius: c.Radius, ScaleFactor: c.ScaleFactor, TemporalFrames: c.TemporalFrames}
}

var errTemporalFrames = errors.New("nodes: ssao temporal frames must be even and at least 2")

// SSAO computes screen space ambient occlusion from a depth texture in
// three passes: occlusion, horizontal bilateral blur, and a vertical blur
// that blends with the previous frame's result.
type SSAO struct {
	name string
	opts SSAOOptions

	Depth  graph.InputPort[gxapi.Texture]
	Camera graph.InputPort[Camera]
	Output graph.OutputPort[gxapi.Texture]

	binder  binder.Lazy[*binder.Binder]
	psos    binder.Lazy[ssaoPipelines]
	quad    binder.Lazy[quad]
	ssao    target
	blurH   target
	blurV   [2]target
	targets bool

	temporal uint32
	prevVP   f32.Mat4
	hasPrev  bool

	// history is set once the vertical target read as the previous frame
	// has been written.
	history bool

	// per frame
	depthSrv gxapi.ShaderResourceView
	camera   Camera
	views    viewSet
}

type ssaoPipelines struct {
	ssao, blurH, blurV *binder.PipelineState
}

// NewSSAO creates an SSAO node. Zero options take the configuration
// defaults.
func NewSSAO(name string, opts SSAOOptions) *SSAO {
	def := config.Default().SSAO
	if opts.Radius == 0 {
		opts.Radius = def.Radius
	}
	if opts.ScaleFactor == 0 {
		opts.ScaleFactor = def.ScaleFactor
	}
	if opts.TemporalFrames == 0 {
		opts.TemporalFrames = def.TemporalFrames
	}
	return &SSAO{
		name:   name,
		opts:   opts,
		Depth:  graph.InputPort[gxapi.Texture]{Name: name + ".depth"},
		Camera: graph.InputPort[Camera]{Name: name + ".camera"},
		Output: graph.OutputPort[gxapi.Texture]{Name: name + ".output"},
	}
}

func (n *SSAO) Name() string { return n.name }

func (n *SSAO) Initialize(*graph.EngineContext) error {
	if n.opts.TemporalFrames < 2 || n.opts.TemporalFrames%2 != 0 {
		return fmt.Errorf("%w: got %d", errTemporalFrames, n.opts.TemporalFrames)
	}
	return nil
}

// TemporalIndex returns the temporal index the next Execute uses.
func (n *SSAO) TemporalIndex() uint32 { return n.temporal }

// VerticalTargets returns the two ping-pong outputs.
func (n *SSAO) VerticalTargets() [2]gxapi.Texture {
	return [2]gxapi.Texture{n.blurV[0].tex, n.blurV[1].tex}
}

func (n *SSAO) Reset() {
	n.depthSrv = gxapi.ShaderResourceView{}
	n.Depth.Clear()
	n.Camera.Clear()
	n.Output.Clear()
}

// Setup skips the frame without a camera. Otherwise it creates the durable
// objects on first use, resizes the targets to the depth texture and
// publishes the vertical target of the current temporal index.
func (n *SSAO) Setup(ctx *graph.SetupContext) error {
	n.views.release(ctx)
	depth, err := n.Depth.Get()
	if err != nil {
		return err
	}
	cam, ok := n.Camera.TryGet()
	if !ok {
		ctx.Logger().Debug("no camera, skipping")
		return graph.ErrSkip
	}
	n.camera = cam

	b, err := n.binder.Get(func() (*binder.Binder, error) { return ctx.CreateBinder(ssaoBinderDesc()) })
	if err != nil {
		return err
	}
	if _, err := n.quad.Get(func() (quad, error) { return newQuad(ctx) }); err != nil {
		return err
	}
	d := depth.Desc()
	if err := n.ensureTargets(ctx, d.Width, d.Height); err != nil {
		return err
	}
	if _, err := n.psos.Get(func() (ssaoPipelines, error) { return n.createPipelines(ctx, b) }); err != nil {
		return err
	}

	n.depthSrv, err = ctx.CreateSrv(depth, gxapi.ViewDesc{Label: "depth", MipCount: 1})
	if err != nil {
		return err
	}
	n.views.add(n.depthSrv.View)
	n.Output.Set(n.blurV[n.temporal%2].tex)
	return nil
}

func (n *SSAO) ensureTargets(ctx *graph.SetupContext, w, h uint32) error {
	all := []target{n.ssao, n.blurH, n.blurV[0], n.blurV[1]}
	if n.targets && sameSize(all, w, h) {
		return nil
	}
	if n.targets {
		for _, t := range all {
			t.release(ctx)
		}
		n.targets = false
	}
	labels := []string{"ssao", "blur_h", "blur_v0", "blur_v1"}
	made := make([]target, 0, len(labels))
	for _, l := range labels {
		t, err := newTarget(ctx, l, w, h, ssaoFormat)
		if err != nil {
			for _, m := range made {
				m.release(ctx)
			}
			return err
		}
		made = append(made, t)
	}
	n.ssao, n.blurH, n.blurV[0], n.blurV[1] = made[0], made[1], made[2], made[3]
	n.targets = true
	n.history = false
	return nil
}

func (n *SSAO) createPipelines(ctx *graph.SetupContext, b *binder.Binder) (ssaoPipelines, error) {
	var p ssaoPipelines
	for _, pass := range []struct {
		fs  string
		dst **binder.PipelineState
	}{
		{"fs_ssao", &p.ssao},
		{"fs_blur_h", &p.blurH},
		{"fs_blur_v", &p.blurV},
	} {
		pso, err := postPSO(ctx, b, pass.fs, ssaoWGSL, pass.fs, ssaoFormat)
		if err != nil {
			releasePSOs(ctx, p.ssao, p.blurH, p.blurV)
			return ssaoPipelines{}, err
		}
		*pass.dst = pso
	}
	return p, nil
}

// uniforms packs the uniform block for the current frame.
func (n *SSAO) uniforms(height uint32) []float32 {
	proj := n.camera.Projection()
	vp := n.camera.ViewProjection()
	invVP, _ := xmath.Inverse(vp)
	old := vp
	if n.hasPrev {
		old = n.prevVP
	}
	lo, hi := n.camera.FarPlaneCorners()

	u := make([]float32, 0, ssaoConstants)
	u = appendMat4(u, invVP)
	u = appendMat4(u, old)
	u = append(u, lo[0], lo[1], lo[2], hi[0])
	u = append(u, hi[1], hi[2], 0, 0)
	scale := n.opts.ScaleFactor * 0.5 * float32(height) / (2 * proj[0])
	u = append(u, n.camera.Near, n.camera.Far, n.opts.Radius, scale)
	weight := float32(0)
	if n.history {
		weight = historyWeight
	}
	u = append(u, float32(n.temporal), weight, 0, 0)
	return u
}

func (n *SSAO) pass(gl cmdlist.GraphicsList, pso *binder.PipelineState, b *binder.Binder, dst target, uniforms []float32, inputs ...gxapi.ShaderResourceView) error {
	if err := gl.SetResourceState(dst.tex.Res, gxapi.AllSubresources, gxapi.StateRenderTarget); err != nil {
		return err
	}
	for _, in := range inputs {
		if err := gl.SetResourceState(in.Tex.Res, in.Subresources(), gxapi.StateShaderResource); err != nil {
			return err
		}
	}
	fullscreen(gl, dst.rtv)
	gl.SetPipelineState(pso)
	gl.SetGraphicsBinder(b)
	gl.SetPrimitiveTopology(gputypes.PrimitiveTopologyTriangleList)
	gl.BindGraphicsFloats(ssaoUniforms, uniforms, 0)
	return nil
}

// Execute records the occlusion, horizontal and vertical passes.
func (n *SSAO) Execute(ctx *graph.RenderContext) error {
	gl := ctx.AsGraphics()
	b, _ := n.binder.Value()
	psos, _ := n.psos.Value()
	q, _ := n.quad.Value()

	d := n.depthSrv.Tex.Desc()
	u := n.uniforms(d.Height)
	idx := n.temporal % 2
	write, history := n.blurV[idx], n.blurV[1-idx]

	// Occlusion.
	if err := n.pass(gl, psos.ssao, b, n.ssao, u, n.depthSrv); err != nil {
		return err
	}
	gl.BindGraphicsTexture(ssaoDepth, n.depthSrv)
	gl.BindGraphicsTexture(ssaoInput, n.depthSrv)
	gl.BindGraphicsTexture(ssaoTemporal, n.depthSrv)
	if err := q.draw(gl); err != nil {
		return err
	}

	// Horizontal bilateral blur.
	if err := n.pass(gl, psos.blurH, b, n.blurH, u, n.ssao.srv, n.depthSrv); err != nil {
		return err
	}
	gl.BindGraphicsTexture(ssaoDepth, n.depthSrv)
	gl.BindGraphicsTexture(ssaoInput, n.ssao.srv)
	gl.BindGraphicsTexture(ssaoTemporal, n.ssao.srv)
	if err := q.draw(gl); err != nil {
		return err
	}

	// Vertical blur blended with the previous frame.
	if err := n.pass(gl, psos.blurV, b, write, u, n.blurH.srv, history.srv, n.depthSrv); err != nil {
		return err
	}
	gl.BindGraphicsTexture(ssaoDepth, n.depthSrv)
	gl.BindGraphicsTexture(ssaoInput, n.blurH.srv)
	gl.BindGraphicsTexture(ssaoTemporal, history.srv)
	if err := q.draw(gl); err != nil {
		return err
	}

	n.prevVP = n.camera.ViewProjection()
	n.hasPrev = true
	n.history = true
	n.temporal = (n.temporal + 1) % n.opts.TemporalFrames
	return nil
}
