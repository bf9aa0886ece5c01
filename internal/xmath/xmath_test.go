// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package xmath

import (
	"testing"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

const eps = 1e-4

func TestInverse(t *testing.T) {
	view := LookAt(f32.Vec3{3, 4, 5}, f32.Vec3{}, f32.Vec3{0, 1, 0})
	proj := Perspective(math32.Pi/3, 4.0/3.0, 0.1, 100)
	for name, m := range map[string]f32.Mat4{"view": view, "proj": proj, "vp": Mul(proj, view)} {
		inv, ok := Inverse(m)
		if !ok {
			t.Fatalf("%s: singular", name)
		}
		if got := Mul(m, inv); !ApproxEqual(got, Identity(), eps) {
			t.Errorf("%s * inverse = %v", name, got)
		}
	}
	if _, ok := Inverse(f32.Mat4{}); ok {
		t.Error("zero matrix inverted")
	}
}

func TestLookAtMapsEyeToOrigin(t *testing.T) {
	eye := f32.Vec3{1, 2, 3}
	v := LookAt(eye, f32.Vec3{1, 2, 0}, f32.Vec3{0, 1, 0})
	p := MulVec4(v, f32.Vec4{eye[0], eye[1], eye[2], 1})
	for i := 0; i < 3; i++ {
		if math32.Abs(p[i]) > eps {
			t.Fatalf("eye maps to %v", p)
		}
	}
	// The target lies on the negative z axis.
	q := MulVec4(v, f32.Vec4{1, 2, 0, 1})
	if math32.Abs(q[2]+3) > eps {
		t.Errorf("target maps to %v, want z=-3", q)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	near, far := float32(0.5), float32(50)
	p := Perspective(math32.Pi/2, 1, near, far)
	for _, tt := range []struct {
		z, depth float32
	}{{-near, 0}, {-far, 1}} {
		c := MulVec4(p, f32.Vec4{0, 0, tt.z, 1})
		if d := c[2] / c[3]; math32.Abs(d-tt.depth) > eps {
			t.Errorf("z=%v: depth %v, want %v", tt.z, d, tt.depth)
		}
	}
}

func TestTranspose(t *testing.T) {
	m := f32.Mat4{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	tr := Transpose(m)
	if tr[1] != 4 || tr[4] != 1 || tr[15] != 15 {
		t.Errorf("transpose = %v", tr)
	}
	if Transpose(tr) != m {
		t.Error("double transpose differs")
	}
}
