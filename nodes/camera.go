// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nodes

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/internal/xmath"
)

// Camera is a right-handed perspective camera. FovY is in radians.
type Camera struct {
	Position f32.Vec3
	Target   f32.Vec3
	Up       f32.Vec3
	FovY     float32
	Aspect   float32
	Near     float32
	Far      float32
}

// DefaultCamera looks at the origin from +z with a 60° field of view.
func DefaultCamera(aspect float32) Camera {
	return Camera{
		Position: f32.Vec3{0, 0, 5},
		Up:       f32.Vec3{0, 1, 0},
		FovY:     math32.Pi / 3,
		Aspect:   aspect,
		Near:     0.1,
		Far:      100,
	}
}

func (c Camera) View() f32.Mat4 { return xmath.LookAt(c.Position, c.Target, c.Up) }

func (c Camera) Projection() f32.Mat4 { return xmath.Perspective(c.FovY, c.Aspect, c.Near, c.Far) }

// ViewProjection returns Projection * View.
func (c Camera) ViewProjection() f32.Mat4 { return xmath.Mul(c.Projection(), c.View()) }

// FarPlaneCorners returns the view-space positions of the bottom-left and
// top-right corners of the far plane.
func (c Camera) FarPlaneCorners() (lo, hi f32.Vec3) {
	inv, ok := xmath.Inverse(c.Projection())
	if !ok {
		return lo, hi
	}
	unproject := func(x, y float32) f32.Vec3 {
		p := xmath.MulVec4(inv, f32.Vec4{x, y, 1, 1})
		return f32.Vec3{p[0] / p[3], p[1] / p[3], p[2] / p[3]}
	}
	return unproject(-1, -1), unproject(1, 1)
}

// CameraSource publishes a camera every frame. It records no commands.
type CameraSource struct {
	name   string
	Camera Camera
	Output graph.OutputPort[Camera]
}

// NewCameraSource creates a camera node publishing cam.
func NewCameraSource(name string, cam Camera) *CameraSource {
	return &CameraSource{name: name, Camera: cam, Output: graph.OutputPort[Camera]{Name: name + ".camera"}}
}

func (n *CameraSource) Name() string                         { return n.name }
func (n *CameraSource) Initialize(*graph.EngineContext) error { return nil }
func (n *CameraSource) Reset()                               { n.Output.Clear() }

func (n *CameraSource) Setup(*graph.SetupContext) error {
	n.Output.Set(n.Camera)
	return nil
}

func (n *CameraSource) Execute(*graph.RenderContext) error { return nil }
