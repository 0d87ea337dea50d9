// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"image"
	"image/color"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/record"
)

// CellRef addresses one map cell.
type CellRef struct {
	X, Y int
}

// Sprite is a region of an atlas page drawn relative to an anchor pixel.
type Sprite struct {
	Texture gpu.Texture
	// Palette is nil for RGBA8 sprites.
	Palette gpu.Texture
	Source  image.Rectangle
	// Offset is the top-left of the drawn image relative to the anchor.
	Offset image.Point
	Remap  bool
}

// Valid reports whether s has something to draw.
func (s Sprite) Valid() bool { return s.Texture != nil && !s.Source.Empty() }

// Dest returns the full-map rectangle s covers when anchored at anchor.
func (s Sprite) Dest(anchor image.Point) image.Rectangle {
	tl := anchor.Add(s.Offset)
	return image.Rectangle{Min: tl, Max: tl.Add(s.Source.Size())}
}

// Tile is the terrain image of one cell.
type Tile struct {
	Sprite Sprite
	// Anchor is the full-map pixel the sprite offset is relative to.
	Anchor image.Point
	Tint   color.NRGBA
}

// LightDecal is an additive light drawn into the light mask.
type LightDecal struct {
	Texture gpu.Texture
	Source  image.Rectangle
	Dest    image.Rectangle
	Color   color.NRGBA
}

// Label is a text tag drawn in the object pass.
type Label struct {
	Text   string
	Anchor image.Point
	Color  color.NRGBA
}

// World is the map model the compositor draws. Implementations are owned by
// the host and only read during Frame.
type World interface {
	// Size returns the map size in cells.
	Size() (cols, rows int)
	// PixelSize returns the full-map size in pixels.
	PixelSize() (w, h int)
	// VisibleCells yields the cells intersecting window, a full-map pixel
	// rectangle, back to front. Returning false stops the iteration.
	VisibleCells(window image.Rectangle, fn func(CellRef) bool)
	Tile(cell CellRef) (Tile, bool)
	ObjectsAt(cell CellRef, fn func(ObjectID))
	Arena() *Arena
	LightDecals() []LightDecal
}

// LabeledWorld is implemented by worlds that tag cells with text.
type LabeledWorld interface {
	World
	Labels(cell CellRef, fn func(Label))
}

// UILayer draws one overlay layer. view is the full-map pixel rectangle of
// the camera.
type UILayer interface {
	DrawUI(r *record.Recorder, view image.Rectangle) error
}

// UILayerFunc adapts a function to UILayer.
type UILayerFunc func(r *record.Recorder, view image.Rectangle) error

// DrawUI implements UILayer.
func (f UILayerFunc) DrawUI(r *record.Recorder, view image.Rectangle) error { return f(r, view) }

// DepthFunc maps a pixel row of a sprite whose ground point is at
// referenceY onto [0,1]. It is monotonic: positions further back yield
// smaller values.
type DepthFunc func(pixelY, referenceY float64, cell CellRef) float32

// LinearDepth returns a DepthFunc for a map mapHeight pixels tall. Pixels
// above the reference point share its depth, pixels below use their own row.
func LinearDepth(mapHeight int) DepthFunc {
	h := float64(max(mapHeight, 1))
	return func(pixelY, referenceY float64, _ CellRef) float32 {
		y := max(pixelY, referenceY)
		return float32(min(max(y/h, 0), 1))
	}
}
