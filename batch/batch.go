// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"image"
	"image/color"

	"github.com/gogpu/isomap/gpu"
)

// Quad is one textured quad with explicit corners. Corner order is
// top-left, top-right, bottom-left, bottom-right.
type Quad struct {
	Pos    [4][2]float32
	UV     [4][2]float32
	Color  [4]float32
	Depth  DepthRect
	Custom [4]float32
}

// RectQuad builds an axis-aligned quad covering dst and sampling src of a
// texture of size texW by texH.
func RectQuad(dst, src image.Rectangle, texW, texH int, c color.NRGBA, depth DepthRect) Quad {
	x0, y0 := float32(dst.Min.X), float32(dst.Min.Y)
	x1, y1 := float32(dst.Max.X), float32(dst.Max.Y)
	tw, th := float32(texW), float32(texH)
	u0, v0 := float32(src.Min.X)/tw, float32(src.Min.Y)/th
	u1, v1 := float32(src.Max.X)/tw, float32(src.Max.Y)/th
	return Quad{
		Pos:   [4][2]float32{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}},
		UV:    [4][2]float32{{u0, v0}, {u1, v0}, {u0, v1}, {u1, v1}},
		Color: NormColor(c),
		Depth: depth,
	}
}

// NormColor converts c to normalized straight-alpha components.
func NormColor(c color.NRGBA) [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

// quadIndices is the two-triangle pattern for one quad.
var quadIndices = [gpu.IndicesPerQuad]uint16{0, 1, 2, 2, 1, 3}

// QuadBatch is a vertex and index array bound to one texture.
// Invariant: quadCount*VerticesPerQuad never exceeds the pool's ceiling.
type QuadBatch struct {
	texture   gpu.Texture
	vertices  []gpu.Vertex
	indices   []uint16
	quadCount int
}

// Texture returns the bound texture, nil for a recycled batch.
func (b *QuadBatch) Texture() gpu.Texture { return b.texture }

// QuadCount returns the number of quads accumulated.
func (b *QuadBatch) QuadCount() int { return b.quadCount }

// capacity returns how many quads fit without growing.
func (b *QuadBatch) capacity() int { return len(b.vertices) / gpu.VerticesPerQuad }

// reserve makes room for one more quad, doubling the arrays up to
// maxQuads. It reports false when the batch is already at the ceiling.
func (b *QuadBatch) reserve(initialQuads, maxQuads int) bool {
	if b.quadCount < b.capacity() {
		return true
	}
	if b.capacity() >= maxQuads {
		return false
	}
	n := b.capacity() * 2
	if n == 0 {
		n = initialQuads
	}
	n = min(max(n, 1), maxQuads)

	vertices := make([]gpu.Vertex, n*gpu.VerticesPerQuad)
	copy(vertices, b.vertices[:b.quadCount*gpu.VerticesPerQuad])
	b.vertices = vertices

	indices := make([]uint16, n*gpu.IndicesPerQuad)
	for q := 0; q < n; q++ {
		base := uint16(q * gpu.VerticesPerQuad) //nolint:gosec // bounded by the vertex ceiling
		for i, off := range quadIndices {
			indices[q*gpu.IndicesPerQuad+i] = base + off
		}
	}
	b.indices = indices
	return true
}

// add appends q. The caller has reserved room.
func (b *QuadBatch) add(q *Quad) {
	v := b.vertices[b.quadCount*gpu.VerticesPerQuad:]
	depths := [4]float32{q.Depth.TopLeft, q.Depth.TopRight, q.Depth.BottomLeft, q.Depth.BottomRight}
	for i := 0; i < gpu.VerticesPerQuad; i++ {
		v[i] = gpu.Vertex{
			X:      q.Pos[i][0],
			Y:      q.Pos[i][1],
			Z:      depths[i],
			U:      q.UV[i][0],
			V:      q.UV[i][1],
			Color:  q.Color,
			Custom: q.Custom,
		}
	}
	b.quadCount++
}

// reset clears the batch for reuse, keeping its arrays.
func (b *QuadBatch) reset() {
	b.texture = nil
	b.quadCount = 0
}
