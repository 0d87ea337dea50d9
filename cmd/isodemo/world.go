// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/gogpu/isomap/compositor"
	"github.com/gogpu/isomap/gpu"
)

// headroom is the space above row 0 for sprites taller than a cell.
const headroom = 48

var teamColors = []color.NRGBA{
	{200, 40, 40, 255},
	{40, 90, 220, 255},
	{230, 190, 40, 255},
}

// isoWorld is a generated diamond-grid map.
type isoWorld struct {
	cols, rows int
	lake       []bool
	objects    map[compositor.CellRef][]compositor.ObjectID
	labels     map[compositor.CellRef]compositor.Label
	arena      *compositor.Arena
	lights     []compositor.LightDecal

	grass, water compositor.Sprite
}

var _ compositor.LabeledWorld = (*isoWorld)(nil)

// newWorld lays out terrain, trees, houses and units from seed.
func newWorld(cols, rows int, seed uint64, a *assets, palette gpu.Texture) *isoWorld {
	w := &isoWorld{
		cols:    cols,
		rows:    rows,
		lake:    make([]bool, cols*rows),
		objects: make(map[compositor.CellRef][]compositor.ObjectID),
		labels:  make(map[compositor.CellRef]compositor.Label),
		arena:   compositor.NewArena(),
		grass:   a.grass.sprite(palette, false),
		water:   a.water.sprite(palette, false),
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	// A lake in one quadrant.
	lx, ly, lr := cols/4, rows/4, max(min(cols, rows)/6, 1)
	for y := range rows {
		for x := range cols {
			dx, dy := x-lx, y-ly
			w.lake[y*cols+x] = dx*dx+dy*dy <= lr*lr
		}
	}

	tree := a.tree.sprite(palette, false)
	treeShadow := a.treeShadow.sprite(palette, false)
	house := a.house.sprite(palette, true)
	houseShadow := a.houseShadow.sprite(palette, false)
	flagSprite := a.houseFlag.sprite(palette, true)
	unit := a.unit.sprite(palette, true)
	unitShadow := a.unitShadow.sprite(palette, false)

	houses := 0
	for y := range rows {
		for x := range cols {
			cell := compositor.CellRef{X: x, Y: y}
			if w.isWater(cell) {
				continue
			}
			switch r := rng.IntN(100); {
			case r < 12:
				w.place(compositor.Object{
					Category: compositor.TerrainObject,
					Cell:     cell,
					Anchor:   w.center(cell),
					Sprite:   tree,
					Shadow:   treeShadow,
				})
			case r < 14:
				team := teamColors[houses%len(teamColors)]
				houses++
				id := w.placeHouse(cell, house, houseShadow, team)
				anim := w.arena.Add(compositor.Object{
					Category:   compositor.Animation,
					Cell:       cell,
					Anchor:     w.center(cell),
					Sprite:     flagSprite,
					RemapColor: team,
					SortKey:    1,
				})
				if err := w.arena.Attach(id, anim); err != nil {
					panic(err)
				}
				w.labels[cell] = compositor.Label{
					Text:   fmt.Sprintf("Base %d", houses),
					Anchor: w.center(cell).Add(image.Pt(-14, 10)),
					Color:  color.NRGBA{255, 255, 255, 255},
				}
				half := image.Pt(lightSize/2, lightSize/2)
				w.lights = append(w.lights, compositor.LightDecal{
					Source: image.Rect(0, 0, lightSize, lightSize),
					Dest:   image.Rectangle{Min: w.center(cell).Sub(half), Max: w.center(cell).Add(half)},
					Color:  color.NRGBA{255, 255, 255, 255},
				})
			case r < 18:
				w.place(compositor.Object{
					Category:   compositor.Unit,
					Cell:       cell,
					Anchor:     w.center(cell),
					Sprite:     unit,
					Shadow:     unitShadow,
					RemapColor: teamColors[rng.IntN(len(teamColors))],
				})
			}
		}
	}
	return w
}

const lightSize = 64

// setLight points every light decal at tex.
func (w *isoWorld) setLight(tex gpu.Texture) {
	for i := range w.lights {
		w.lights[i].Texture = tex
	}
}

func (w *isoWorld) place(o compositor.Object) compositor.ObjectID {
	id := w.arena.Add(o)
	w.objects[o.Cell] = append(w.objects[o.Cell], id)
	return id
}

func (w *isoWorld) placeHouse(cell compositor.CellRef, body, shadow compositor.Sprite, team color.NRGBA) compositor.ObjectID {
	top := w.anchor(cell)
	return w.place(compositor.Object{
		Category: compositor.Building,
		Cell:     cell,
		Anchor:   w.center(cell),
		Sprite:   body,
		Shadow:   shadow,
		Foundation: compositor.Foundation{
			Left:   top.Add(image.Pt(-tileW/2, tileH/2)),
			Bottom: top.Add(image.Pt(0, tileH)),
			Right:  top.Add(image.Pt(tileW/2, tileH/2)),
		},
		SplitBody:  true,
		RemapColor: team,
	})
}

func (w *isoWorld) isWater(c compositor.CellRef) bool { return w.lake[c.Y*w.cols+c.X] }

// anchor returns the top corner of a cell's diamond.
func (w *isoWorld) anchor(c compositor.CellRef) image.Point {
	return image.Pt((c.X-c.Y)*tileW/2+w.rows*tileW/2, (c.X+c.Y)*tileH/2+headroom)
}

// center returns the ground point in the middle of a cell.
func (w *isoWorld) center(c compositor.CellRef) image.Point {
	return w.anchor(c).Add(image.Pt(0, tileH/2))
}

// bounds returns the pixels a cell and anything standing on it can touch.
func (w *isoWorld) bounds(c compositor.CellRef) image.Rectangle {
	a := w.anchor(c)
	return image.Rect(a.X-tileW/2, a.Y-headroom, a.X+tileW/2, a.Y+tileH)
}

func (w *isoWorld) Size() (int, int) { return w.cols, w.rows }

func (w *isoWorld) PixelSize() (int, int) {
	return (w.cols + w.rows) * tileW / 2, (w.cols+w.rows)*tileH/2 + headroom
}

// VisibleCells walks diagonals back to front.
func (w *isoWorld) VisibleCells(window image.Rectangle, fn func(compositor.CellRef) bool) {
	for d := 0; d < w.cols+w.rows-1; d++ {
		for x := max(0, d-w.rows+1); x <= min(d, w.cols-1); x++ {
			c := compositor.CellRef{X: x, Y: d - x}
			if w.bounds(c).Overlaps(window) && !fn(c) {
				return
			}
		}
	}
}

func (w *isoWorld) Tile(c compositor.CellRef) (compositor.Tile, bool) {
	if c.X < 0 || c.Y < 0 || c.X >= w.cols || c.Y >= w.rows {
		return compositor.Tile{}, false
	}
	s := w.grass
	if w.isWater(c) {
		s = w.water
	}
	return compositor.Tile{Sprite: s, Anchor: w.anchor(c)}, true
}

func (w *isoWorld) ObjectsAt(c compositor.CellRef, fn func(compositor.ObjectID)) {
	for _, id := range w.objects[c] {
		fn(id)
	}
}

func (w *isoWorld) Arena() *compositor.Arena { return w.arena }

func (w *isoWorld) LightDecals() []compositor.LightDecal { return w.lights }

func (w *isoWorld) Labels(c compositor.CellRef, fn func(compositor.Label)) {
	if l, ok := w.labels[c]; ok {
		fn(l)
	}
}
