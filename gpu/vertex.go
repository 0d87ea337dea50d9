// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

// Vertex is the layout of every vertex the renderer submits.
//
// Position is in target pixels; Z is the depth value written and tested.
// U and V are normalized texture coordinates. Color is a straight-alpha
// tint. Custom is passed through to the shader untouched.
type Vertex struct {
	X, Y, Z float32
	U, V    float32
	Color   [4]float32
	Custom  [4]float32
}

// VertexStride is the byte size of one Vertex as laid out in GPU buffers.
const VertexStride = 13 * 4

// VerticesPerQuad and IndicesPerQuad describe the two-triangle quad layout.
const (
	VerticesPerQuad = 4
	IndicesPerQuad  = 6
)
