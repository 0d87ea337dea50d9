// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"image"

	"github.com/gogpu/isomap/gpu"
)

// Texture is a system-memory texture.
type Texture struct {
	dev    *Device
	label  string
	width  int
	height int
	format gpu.TextureFormat
	pix    []byte

	// destroyed is set once pix has been released.
	destroyed bool
}

func (t *Texture) Width() int                { return t.width }
func (t *Texture) Height() int               { return t.height }
func (t *Texture) Format() gpu.TextureFormat { return t.format }
func (t *Texture) Label() string             { return t.label }

// Bounds returns the texture rectangle anchored at the origin.
func (t *Texture) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.width, t.height)
}

// PixelAt returns the bytes of the pixel at (x, y). The slice aliases the
// texture and must not be modified.
func (t *Texture) PixelAt(x, y int) []byte {
	bpp := t.format.BytesPerPixel()
	off := (y*t.width + x) * bpp
	return t.pix[off : off+bpp]
}

// stride returns the row length in bytes.
func (t *Texture) stride() int {
	return t.width * t.format.BytesPerPixel()
}

// Target is a render target: an RGBA8 color texture plus optional depth
// and stencil planes.
type Target struct {
	label   string
	color   *Texture
	depth   []float32
	stencil []uint8
}

func (rt *Target) Width() int            { return rt.color.width }
func (rt *Target) Height() int           { return rt.color.height }
func (rt *Target) Color() gpu.Texture    { return rt.color }
func (rt *Target) HasDepthStencil() bool { return rt.depth != nil }
func (rt *Target) Label() string         { return rt.label }

// DepthAt returns the stored depth at (x, y), or 0 without a depth plane.
func (rt *Target) DepthAt(x, y int) float32 {
	if rt.depth == nil {
		return 0
	}
	return rt.depth[y*rt.color.width+x]
}

// StencilAt returns the stored stencil value at (x, y).
func (rt *Target) StencilAt(x, y int) uint8 {
	if rt.stencil == nil {
		return 0
	}
	return rt.stencil[y*rt.color.width+x]
}
