// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"math"

	"github.com/gogpu/isomap/gpu"
)

// screenVertex is a vertex after projection into target pixel space.
type screenVertex struct {
	x, y, z float64
	u, v    float64
	c       [4]float64
}

// project applies the effect projection and the viewport transform. Depth
// bypasses the matrix, as in the sprite shader.
func (d *Device) project(v gpu.Vertex) screenVertex {
	m := &d.effect.Projection
	x, y := float64(v.X), float64(v.Y)
	cx := float64(m[0])*x + float64(m[4])*y + float64(m[12])
	cy := float64(m[1])*x + float64(m[5])*y + float64(m[13])
	cw := float64(m[3])*x + float64(m[7])*y + float64(m[15])
	if cw == 0 {
		cw = 1
	}
	w := float64(d.target.color.width)
	h := float64(d.target.color.height)
	return screenVertex{
		x: (cx/cw + 1) * 0.5 * w,
		y: (1 - cy/cw) * 0.5 * h,
		z: float64(v.Z),
		u: float64(v.U),
		v: float64(v.V),
		c: [4]float64{float64(v.Color[0]), float64(v.Color[1]), float64(v.Color[2]), float64(v.Color[3])},
	}
}

// edge is the signed area of (a, b, p) doubled.
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// topLeft reports whether the edge a->b owns pixel centers lying exactly on
// it, for triangles with positive area.
func topLeft(a, b screenVertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return (dy == 0 && dx > 0) || dy < 0
}

// rasterize fills one triangle, sampling at pixel centers.
func (d *Device) rasterize(sh *shader, a, b, c screenVertex) {
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if math.Abs(area) < 1e-12 {
		return
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}
	rt := d.target
	w, h := rt.color.width, rt.color.height

	minX := max(int(math.Floor(min(a.x, b.x, c.x))), 0)
	maxX := min(int(math.Ceil(max(a.x, b.x, c.x))), w)
	minY := max(int(math.Floor(min(a.y, b.y, c.y))), 0)
	maxY := min(int(math.Ceil(max(a.y, b.y, c.y))), h)
	if minX >= maxX || minY >= maxY {
		return
	}

	tlBC, tlCA, tlAB := topLeft(b, c), topLeft(c, a), topLeft(a, b)
	inv := 1 / area

	for py := minY; py < maxY; py++ {
		fy := float64(py) + 0.5
		for px := minX; px < maxX; px++ {
			fx := float64(px) + 0.5
			w0 := edge(b.x, b.y, c.x, c.y, fx, fy)
			w1 := edge(c.x, c.y, a.x, a.y, fx, fy)
			w2 := edge(a.x, a.y, b.x, b.y, fx, fy)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			if (w0 == 0 && !tlBC) || (w1 == 0 && !tlCA) || (w2 == 0 && !tlAB) {
				continue
			}
			l0, l1, l2 := w0*inv, w1*inv, w2*inv

			frag := fragment{
				z: l0*a.z + l1*b.z + l2*c.z,
				u: l0*a.u + l1*b.u + l2*c.u,
				v: l0*a.v + l1*b.v + l2*c.v,
			}
			for i := range frag.c {
				frag.c[i] = l0*a.c[i] + l1*b.c[i] + l2*c.c[i]
			}
			d.shade(sh, px, py, &frag)
		}
	}
}

// fragment holds interpolated attributes at one pixel center.
type fragment struct {
	z, u, v float64
	c       [4]float64
}

// shade runs the effect, the stencil and depth tests, and the blend for one
// fragment.
func (d *Device) shade(sh *shader, px, py int, f *fragment) {
	src, ok := sh.color(f)
	if !ok {
		return
	}
	rt := d.target
	idx := py*rt.color.width + px
	if rt.depth != nil && !d.testDepthStencil(rt, idx, f.z) {
		return
	}
	d.stats.Fragments++
	d.blend(rt.color.pix[idx*4:idx*4+4], src)
}

// testDepthStencil applies the stencil test, then the depth test, updating
// both planes. It reports whether the fragment survives.
func (d *Device) testDepthStencil(rt *Target, idx int, z float64) bool {
	ds := &d.state.DepthStencil
	face := ds.StencilFront
	readMask := uint8(ds.StencilReadMask)
	writeMask := uint8(ds.StencilWriteMask)
	ref := uint8(d.state.StencilReference)
	stored := rt.stencil[idx]

	if !compareStencil(face.Compare, ref&readMask, stored&readMask) {
		rt.stencil[idx] = stencilOp(face.FailOp, stored, ref, writeMask)
		return false
	}
	z32 := float32(math.Max(0, math.Min(1, z)))
	if !compareDepth(ds.DepthCompare, z32, rt.depth[idx]) {
		rt.stencil[idx] = stencilOp(face.DepthFailOp, stored, ref, writeMask)
		return false
	}
	rt.stencil[idx] = stencilOp(face.PassOp, stored, ref, writeMask)
	if ds.DepthWriteEnabled {
		rt.depth[idx] = z32
	}
	return true
}
