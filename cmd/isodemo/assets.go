// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/isomap"
	"github.com/gogpu/isomap/atlas"
	"github.com/gogpu/isomap/compositor"
	"github.com/gogpu/isomap/gpu"
)

// Cell diamond size in pixels.
const (
	tileW = 32
	tileH = 16
)

// Palette indices used by the generated sprites.
const (
	idxShadow = 1
	idxGrass  = 2 // 2..5
	idxWater  = 6 // 6..8
	idxTrunk  = 9
	idxLeaf   = 10 // 10..12
	idxRoof   = 13
	idxWindow = 14
	idxTeam   = gpu.RemapFirst // 16..31
)

// demoPalette returns the palette shared by every generated sprite.
func demoPalette() *isomap.Palette {
	p := isomap.GrayPalette()
	p[idxShadow] = color.NRGBA{0, 0, 0, 255}
	for i, c := range []color.NRGBA{{58, 120, 44, 255}, {66, 132, 48, 255}, {74, 140, 54, 255}, {52, 108, 40, 255}} {
		p[idxGrass+i] = c
	}
	for i, c := range []color.NRGBA{{30, 70, 140, 255}, {40, 86, 160, 255}, {52, 100, 176, 255}} {
		p[idxWater+i] = c
	}
	p[idxTrunk] = color.NRGBA{96, 64, 32, 255}
	for i, c := range []color.NRGBA{{34, 96, 30, 255}, {44, 112, 38, 255}, {56, 128, 46, 255}} {
		p[idxLeaf+i] = c
	}
	p[idxRoof] = color.NRGBA{140, 60, 40, 255}
	p[idxWindow] = color.NRGBA{220, 220, 160, 255}
	// The team ramp is recolored by the remap color; only brightness
	// matters.
	for i := range gpu.RemapLast - gpu.RemapFirst + 1 {
		v := uint8(96 + i*10)
		p[idxTeam+i] = color.NRGBA{v, v, v, 255}
	}
	return p
}

// slot receives the atlas placement of one generated sprite.
type slot struct {
	name   string
	offset image.Point
	page   *atlas.Page
	rect   image.Rectangle
}

func (s *slot) AtlasPlaced(page *atlas.Page, rect image.Rectangle) { s.page, s.rect = page, rect }
func (s *slot) String() string                                     { return s.name }

// sprite returns the finalized sprite. It is invalid before Finalize.
func (s *slot) sprite(palette gpu.Texture, remap bool) compositor.Sprite {
	if s.page == nil {
		return compositor.Sprite{}
	}
	return compositor.Sprite{
		Texture: s.page.Texture,
		Palette: palette,
		Source:  s.rect,
		Offset:  s.offset,
		Remap:   remap,
	}
}

// assets holds every generated sprite slot.
type assets struct {
	grass, water                  slot
	tree, treeShadow              slot
	house, houseShadow, houseFlag slot
	unit, unitShadow              slot
}

func newAssets() *assets {
	return &assets{
		grass:       slot{name: "grass", offset: image.Pt(-tileW/2, 0)},
		water:       slot{name: "water", offset: image.Pt(-tileW/2, 0)},
		tree:        slot{name: "tree", offset: image.Pt(-8, -30)},
		treeShadow:  slot{name: "tree-shadow", offset: image.Pt(-6, -3)},
		house:       slot{name: "house", offset: image.Pt(-16, -34)},
		houseShadow: slot{name: "house-shadow", offset: image.Pt(-8, -6)},
		houseFlag:   slot{name: "house-flag", offset: image.Pt(4, -44)},
		unit:        slot{name: "unit", offset: image.Pt(-5, -9)},
		unitShadow:  slot{name: "unit-shadow", offset: image.Pt(-5, -2)},
	}
}

// loaders returns one loader per asset category. They run concurrently and
// each only touches its own slots.
func (a *assets) loaders() []atlas.Loader {
	return []atlas.Loader{
		{Name: "terrain", Load: func(ctx context.Context, b *atlas.Builder) error {
			return addAll(ctx, b, []entry{
				{&a.grass, diamond(idxGrass, 4)},
				{&a.water, diamond(idxWater, 3)},
			})
		}},
		{Name: "objects", Load: func(ctx context.Context, b *atlas.Builder) error {
			return addAll(ctx, b, []entry{
				{&a.tree, tree()},
				{&a.house, house()},
				{&a.houseFlag, flagImage()},
				{&a.unit, unit()},
			})
		}},
		{Name: "shadows", Load: func(ctx context.Context, b *atlas.Builder) error {
			return addAll(ctx, b, []entry{
				{&a.treeShadow, ellipse(12, 6)},
				{&a.houseShadow, ellipse(36, 12)},
				{&a.unitShadow, ellipse(10, 4)},
			})
		}},
	}
}

type entry struct {
	slot *slot
	img  *image.Paletted
}

func addAll(ctx context.Context, b *atlas.Builder, entries []entry) error {
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := e.img.Bounds()
		if _, err := b.Add(r.Dx(), r.Dy(), e.img.Pix, e.slot); err != nil {
			return err
		}
	}
	return nil
}

func newIndexed(w, h int) *image.Paletted {
	return image.NewPaletted(image.Rect(0, 0, w, h), nil)
}

// diamond draws a cell-sized rhombus using shades first..first+shades-1.
func diamond(first uint8, shades int) *image.Paletted {
	img := newIndexed(tileW, tileH)
	for y := range tileH {
		half := (y + 1) * tileW / tileH
		if y >= tileH/2 {
			half = (tileH - y) * tileW / tileH
		}
		for x := tileW/2 - half; x < tileW/2+half; x++ {
			img.SetColorIndex(x, y, first+uint8((x*7+y*13)%shades))
		}
	}
	return img
}

func tree() *image.Paletted {
	img := newIndexed(16, 30)
	for y := 20; y < 30; y++ {
		for x := 7; x < 9; x++ {
			img.SetColorIndex(x, y, idxTrunk)
		}
	}
	for y := range 22 {
		for x := range 16 {
			dx, dy := float64(x)-7.5, float64(y)-11
			if dx*dx/64+dy*dy/121 <= 1 {
				img.SetColorIndex(x, y, idxLeaf+uint8((x+y)%3))
			}
		}
	}
	return img
}

func house() *image.Paletted {
	img := newIndexed(32, 42)
	// Roof.
	for y := range 12 {
		for x := 16 - y - 4; x < 16+y+4; x++ {
			if x >= 0 && x < 32 {
				img.SetColorIndex(x, y, idxRoof)
			}
		}
	}
	// Walls shade along x through the team ramp.
	for y := 12; y < 42; y++ {
		for x := range 32 {
			img.SetColorIndex(x, y, idxTeam+uint8(x/2))
		}
	}
	for _, wx := range []int{6, 22} {
		for y := 20; y < 26; y++ {
			for x := wx; x < wx+4; x++ {
				img.SetColorIndex(x, y, idxWindow)
			}
		}
	}
	return img
}

func flagImage() *image.Paletted {
	img := newIndexed(8, 12)
	for y := range 12 {
		img.SetColorIndex(0, y, idxTrunk)
	}
	for y := range 5 {
		for x := 1; x < 8; x++ {
			img.SetColorIndex(x, y, idxTeam+15)
		}
	}
	return img
}

func unit() *image.Paletted {
	img := newIndexed(10, 10)
	for y := range 10 {
		for x := range 10 {
			dx, dy := float64(x)-4.5, float64(y)-4.5
			if math.Hypot(dx, dy) <= 4.8 {
				img.SetColorIndex(x, y, idxTeam+uint8(15-y))
			}
		}
	}
	return img
}

func ellipse(w, h int) *image.Paletted {
	img := newIndexed(w, h)
	rx, ry := float64(w)/2, float64(h)/2
	for y := range h {
		for x := range w {
			dx, dy := (float64(x)+0.5-rx)/rx, (float64(y)+0.5-ry)/ry
			if dx*dx+dy*dy <= 1 {
				img.SetColorIndex(x, y, idxShadow)
			}
		}
	}
	return img
}

// lightTexture creates a radial RGBA8 light for the light mask pass.
func lightTexture(dev gpu.Device, size int) (gpu.Texture, error) {
	tex, err := dev.CreateTexture(gpu.TextureDescriptor{Label: "light", Width: size, Height: size, Format: gpu.FormatRGBA8})
	if err != nil {
		return nil, err
	}
	pix := make([]byte, 0, size*size*4)
	r := float64(size) / 2
	for y := range size {
		for x := range size {
			d := math.Hypot(float64(x)+0.5-r, float64(y)+0.5-r) / r
			a := uint8(255 * max(0, 1-d))
			pix = append(pix, 255, 220, 160, a)
		}
	}
	if err := dev.UploadTexture(tex, image.Rect(0, 0, size, size), pix); err != nil {
		dev.DestroyTexture(tex)
		return nil, err
	}
	return tex, nil
}
