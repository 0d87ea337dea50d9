// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import (
	"image"
	"image/color"

	"github.com/gogpu/isomap/batch"
	"github.com/gogpu/isomap/gpu"
)

// Kind is the classification a recorder assigns an entry.
type Kind uint8

const (
	KindNormal Kind = iota
	KindShadow
	KindNonPaletted
	KindText
	KindLine
)

// GraphicsEntry is one sprite draw.
type GraphicsEntry struct {
	Texture gpu.Texture
	// Palette is nil for RGBA sprites.
	Palette    gpu.Texture
	UseRemap   bool
	RemapColor color.NRGBA

	Source image.Rectangle
	Dest   image.Rectangle
	Color  color.NRGBA
	Depth  batch.DepthRect

	// Shadow marks an Indexed8 shadow frame.
	Shadow bool
	Custom [4]float32
}

// Kind classifies e the way AddGraphicsEntry does.
func (e *GraphicsEntry) Kind() Kind {
	switch {
	case e.Shadow:
		return KindShadow
	case e.Palette == nil:
		return KindNonPaletted
	default:
		return KindNormal
	}
}

// PaletteKey groups paletted entries that share shader parameters.
type PaletteKey struct {
	Palette    gpu.Texture
	UseRemap   bool
	RemapColor color.NRGBA
}

// key returns the group key of e. Remap color only matters when remapping.
func (e *GraphicsEntry) key() PaletteKey {
	k := PaletteKey{Palette: e.Palette, UseRemap: e.UseRemap}
	if e.UseRemap {
		k.RemapColor = e.RemapColor
	}
	return k
}

// TextEntry draws a pre-rasterized Alpha8 label tinted by Color.
type TextEntry struct {
	Texture gpu.Texture
	Source  image.Rectangle
	Dest    image.Rectangle
	Color   color.NRGBA
	Depth   float32
}

// LineEntry draws a segment as a quad of the given thickness.
type LineEntry struct {
	From, To  [2]float32
	Thickness float32
	Color     color.NRGBA
	Depth     float32
}

// quad returns the segment as a rotated quad over a 1x1 texture.
func (l *LineEntry) quad() (batch.Quad, bool) {
	dx, dy := l.To[0]-l.From[0], l.To[1]-l.From[1]
	length := float32(hypot(dx, dy))
	if length == 0 {
		return batch.Quad{}, false
	}
	half := max(l.Thickness, 1) / 2
	nx, ny := -dy/length*half, dx/length*half
	uv := [2]float32{0.5, 0.5}
	return batch.Quad{
		Pos: [4][2]float32{
			{l.From[0] + nx, l.From[1] + ny},
			{l.To[0] + nx, l.To[1] + ny},
			{l.From[0] - nx, l.From[1] - ny},
			{l.To[0] - nx, l.To[1] - ny},
		},
		UV:    [4][2]float32{uv, uv, uv, uv},
		Color: batch.NormColor(l.Color),
		Depth: batch.FlatDepth(l.Depth),
	}, true
}
