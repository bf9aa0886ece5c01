// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package debugdraw

import (
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// Line returns a single segment from a to b.
func Line(a, b f32.Vec3) Mesh {
	return Mesh{
		Vertices: []f32.Vec3{a, b},
		Indices:  []uint32{0, 1},
		Topology: gputypes.PrimitiveTopologyLineList,
	}
}

// boxEdges lists the 12 edges of a box over the corner order used by Box.
var boxEdges = []uint32{
	0, 1, 1, 3, 3, 2, 2, 0, // bottom
	4, 5, 5, 7, 7, 6, 6, 4, // top
	0, 4, 1, 5, 2, 6, 3, 7, // sides
}

// Box returns the wireframe of the axis-aligned box spanning min and max.
func Box(min, max f32.Vec3) Mesh {
	v := make([]f32.Vec3, 8)
	for i := range v {
		c := min
		if i&1 != 0 {
			c[0] = max[0]
		}
		if i&2 != 0 {
			c[2] = max[2]
		}
		if i&4 != 0 {
			c[1] = max[1]
		}
		v[i] = c
	}
	return Mesh{
		Vertices: v,
		Indices:  append([]uint32(nil), boxEdges...),
		Topology: gputypes.PrimitiveTopologyLineList,
	}
}

// Cross returns three axis-aligned segments of length 2*size through center.
func Cross(center f32.Vec3, size float32) Mesh {
	m := Mesh{Topology: gputypes.PrimitiveTopologyLineList}
	for axis := 0; axis < 3; axis++ {
		a, b := center, center
		a[axis] -= size
		b[axis] += size
		n := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, a, b)
		m.Indices = append(m.Indices, n, n+1)
	}
	return m
}

// Triangle returns a single filled triangle.
func Triangle(a, b, c f32.Vec3) Mesh {
	return Mesh{
		Vertices: []f32.Vec3{a, b, c},
		Indices:  []uint32{0, 1, 2},
		Topology: gputypes.PrimitiveTopologyTriangleList,
	}
}
