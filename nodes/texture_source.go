// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nodes

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/binder"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/gxapi"
)

// TextureSource owns a texture and clears it every frame.
type TextureSource struct {
	name  string
	desc  gxapi.TextureDesc
	Clear gputypes.Color

	Output graph.OutputPort[gxapi.Texture]

	tex   binder.Lazy[gxapi.Texture]
	rtv   gxapi.RenderTargetView
	views viewSet
}

// NewTextureSource creates a source for a texture described by desc.
func NewTextureSource(name string, desc gxapi.TextureDesc, clear gputypes.Color) *TextureSource {
	if desc.Label == "" {
		desc.Label = "texture"
	}
	return &TextureSource{
		name:   name,
		desc:   desc,
		Clear:  clear,
		Output: graph.OutputPort[gxapi.Texture]{Name: name + ".output"},
	}
}

func (n *TextureSource) Name() string                         { return n.name }
func (n *TextureSource) Initialize(*graph.EngineContext) error { return nil }

func (n *TextureSource) Reset() {
	n.rtv = gxapi.RenderTargetView{}
	n.Output.Clear()
}

// Setup creates the texture on first use and publishes it.
func (n *TextureSource) Setup(ctx *graph.SetupContext) error {
	n.views.release(ctx)
	tex, err := n.tex.Get(func() (gxapi.Texture, error) { return ctx.CreateTexture2D(n.desc) })
	if err != nil {
		return err
	}
	n.rtv, err = ctx.CreateRtv(tex, gxapi.ViewDesc{})
	if err != nil {
		return err
	}
	n.views.add(n.rtv.View)
	n.Output.Set(tex)
	return nil
}

// Execute clears the texture.
func (n *TextureSource) Execute(ctx *graph.RenderContext) error {
	gl := ctx.AsGraphics()
	tex, _ := n.tex.Value()
	if err := gl.SetResourceState(tex.Res, gxapi.AllSubresources, gxapi.StateRenderTarget); err != nil {
		return err
	}
	gl.ClearRenderTarget(n.rtv, n.Clear)
	return nil
}
