// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/gpu/soft"
)

// gridWorld is a square-celled world for tests.
type gridWorld struct {
	cols, rows int
	cell       int
	tile       Sprite
	objects    map[CellRef][]ObjectID
	arena      *Arena
	lights     []LightDecal
	labels     map[CellRef]Label
	visits     map[CellRef]int
}

func newGridWorld(cols, rows, cell int, tile Sprite) *gridWorld {
	return &gridWorld{
		cols:    cols,
		rows:    rows,
		cell:    cell,
		tile:    tile,
		objects: make(map[CellRef][]ObjectID),
		arena:   NewArena(),
		visits:  make(map[CellRef]int),
	}
}

func (w *gridWorld) Size() (int, int)      { return w.cols, w.rows }
func (w *gridWorld) PixelSize() (int, int) { return w.cols * w.cell, w.rows * w.cell }
func (w *gridWorld) Arena() *Arena         { return w.arena }
func (w *gridWorld) LightDecals() []LightDecal {
	return w.lights
}

func (w *gridWorld) cellRect(c CellRef) image.Rectangle {
	return image.Rect(c.X*w.cell, c.Y*w.cell, (c.X+1)*w.cell, (c.Y+1)*w.cell)
}

func (w *gridWorld) VisibleCells(window image.Rectangle, fn func(CellRef) bool) {
	for y := 0; y < w.rows; y++ {
		for x := 0; x < w.cols; x++ {
			c := CellRef{x, y}
			if w.cellRect(c).Overlaps(window) && !fn(c) {
				return
			}
		}
	}
}

func (w *gridWorld) Tile(c CellRef) (Tile, bool) {
	w.visits[c]++
	if !w.tile.Valid() {
		return Tile{}, false
	}
	return Tile{Sprite: w.tile, Anchor: w.cellRect(c).Min}, true
}

func (w *gridWorld) ObjectsAt(c CellRef, fn func(ObjectID)) {
	for _, id := range w.objects[c] {
		fn(id)
	}
}

func (w *gridWorld) place(o Object) ObjectID {
	id := w.arena.Add(o)
	w.objects[o.Cell] = append(w.objects[o.Cell], id)
	return id
}

func (w *gridWorld) resetVisits() { clear(w.visits) }

// labeledWorld adds labels to a gridWorld.
type labeledWorld struct {
	*gridWorld
}

func (w labeledWorld) Labels(c CellRef, fn func(Label)) {
	if l, ok := w.labels[c]; ok {
		fn(l)
	}
}

var (
	grey  = color.NRGBA{128, 128, 128, 255}
	red   = color.NRGBA{255, 0, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
	white = color.NRGBA{255, 255, 255, 255}
)

// solidTexture creates a w by h texture filled with px.
func solidTexture(t *testing.T, d gpu.Device, label string, f gpu.TextureFormat, w, h int, px ...byte) gpu.Texture {
	t.Helper()
	tex, err := d.CreateTexture(gpu.TextureDescriptor{Label: label, Width: w, Height: h, Format: f})
	if err != nil {
		t.Fatalf("CreateTexture(%s): %v", label, err)
	}
	pix := make([]byte, 0, w*h*len(px))
	for range w * h {
		pix = append(pix, px...)
	}
	if err := d.UploadTexture(tex, image.Rect(0, 0, w, h), pix); err != nil {
		t.Fatalf("UploadTexture(%s): %v", label, err)
	}
	return tex
}

func rgba(t *testing.T, d gpu.Device, label string, w, h int, c color.NRGBA) Sprite {
	t.Helper()
	return Sprite{
		Texture: solidTexture(t, d, label, gpu.FormatRGBA8, w, h, c.R, c.G, c.B, c.A),
		Source:  image.Rect(0, 0, w, h),
	}
}

func newCompositor(t *testing.T, d *soft.Device, w World, viewW, viewH int, opts ...Option) *Compositor {
	t.Helper()
	c, err := New(d, w, viewW, viewH, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func fullMap(t *testing.T, c *Compositor) *image.NRGBA {
	t.Helper()
	img, err := c.FullMapImage()
	if err != nil {
		t.Fatalf("FullMapImage: %v", err)
	}
	return img
}
