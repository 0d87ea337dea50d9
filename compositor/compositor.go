// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/isomap/batch"
	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/internal/logging"
	"github.com/gogpu/isomap/record"
	"github.com/gogpu/isomap/text"
)

var (
	opaqueWhite = color.NRGBA{255, 255, 255, 255}
	transparent = color.NRGBA{}
)

// passStates are the render states of each pass.
type passStates struct {
	terrain gpu.RenderState
	decal   gpu.RenderState
	object  gpu.RenderState
	shadow  gpu.RenderState
	text    gpu.RenderState
	ui      gpu.RenderState
}

func newPassStates() passStates {
	var s passStates

	s.terrain = gpu.StateAlpha()
	s.terrain.DepthStencil = gpu.DepthTest(true)

	s.decal = gpu.StateAlpha()
	s.decal.DepthStencil = gpu.DepthTest(false)

	s.object = gpu.StateAlpha()
	s.object.DepthStencil = gpu.WithStencil(gpu.DepthTest(true),
		gpu.StencilFace(gputypes.CompareFunctionAlways, gputypes.StencilOperationReplace))
	s.object.StencilReference = 1

	s.shadow = gpu.StateAlpha()
	s.shadow.DepthStencil = gpu.WithStencil(gpu.DepthTest(false),
		gpu.StencilFace(gputypes.CompareFunctionEqual, gputypes.StencilOperationIncrementClamp))
	s.shadow.StencilReference = 0

	s.text = gpu.StateAlpha()
	s.text.DepthStencil = gpu.DepthTest(false)

	s.ui = gpu.StateAlpha()
	return s
}

// Compositor renders a World. It is used from one goroutine.
type Compositor struct {
	dev   gpu.Device
	pool  *batch.Pool
	rec   *record.Recorder
	white gpu.Texture

	labels     *text.Rasterizer
	ownsLabels bool

	world      World
	depth      DepthFunc
	userDepth  bool
	cols, rows int
	mapW, mapH int

	renderers map[Category]ObjectRenderer
	states    passStates
	opts      options

	targets targetSet
	present gpu.RenderTarget
	viewW   int
	viewH   int
	camera  image.Point
	zoom    float64

	inv              Invalidation
	lastDrawn        []uint64
	fullMapConsumers int
	seen             map[ObjectID]struct{}

	staticUI    UILayer
	perFrameUI  UILayer
	staticDirty bool

	stats FrameStats
}

// New creates a compositor drawing world through dev into a presentation
// target of viewW by viewH pixels. Allocation failures are returned and
// leave nothing allocated.
func New(dev gpu.Device, world World, viewW, viewH int, opts ...Option) (*Compositor, error) {
	if world == nil {
		return nil, ErrNoWorld
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Compositor{
		dev:       dev,
		pool:      batch.NewPool(dev, o.poolOptions...),
		opts:      o,
		states:    newPassStates(),
		zoom:      1,
		seen:      make(map[ObjectID]struct{}),
		renderers: defaultRenderers(),
		depth:     o.depth,
		userDepth: o.depth != nil,
		labels:    o.labels,
	}
	for cat, r := range o.renderers {
		c.renderers[cat] = r
	}

	if err := c.init(world, viewW, viewH); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func defaultRenderers() map[Category]ObjectRenderer {
	m := make(map[Category]ObjectRenderer, numCategories)
	for cat := range numCategories {
		m[cat] = SpriteRenderer{}
	}
	m[Building] = BuildingRenderer{}
	return m
}

func (c *Compositor) init(world World, viewW, viewH int) error {
	white, err := c.dev.CreateTexture(gpu.TextureDescriptor{Label: "white", Width: 1, Height: 1, Format: gpu.FormatRGBA8})
	if err != nil {
		return fmt.Errorf("compositor: %w", err)
	}
	c.white = white
	if err := c.dev.UploadTexture(white, image.Rect(0, 0, 1, 1), []byte{255, 255, 255, 255}); err != nil {
		return fmt.Errorf("compositor: %w", err)
	}
	c.rec = record.New(white)

	if _, labeled := world.(LabeledWorld); labeled && c.labels == nil {
		r, err := text.New(c.dev)
		if err != nil {
			return fmt.Errorf("compositor: labels: %w", err)
		}
		c.labels = r
		c.ownsLabels = true
	}

	if err := c.SetViewSize(viewW, viewH); err != nil {
		return err
	}
	return c.SetWorld(world)
}

// SetWorld attaches world, resizing the full-map targets to it and
// invalidating everything.
func (c *Compositor) SetWorld(world World) error {
	if world == nil {
		return ErrNoWorld
	}
	c.world = world
	return c.Resize()
}

// Resize re-reads the world size and recreates the full-map targets. The
// old targets are destroyed before the new ones are created.
func (c *Compositor) Resize() error {
	c.cols, c.rows = c.world.Size()
	c.mapW, c.mapH = c.world.PixelSize()
	if c.mapW <= 0 || c.mapH <= 0 {
		return fmt.Errorf("compositor: world pixel size %dx%d", c.mapW, c.mapH)
	}
	if err := c.targets.ensure(c.dev, c.mapW, c.mapH); err != nil {
		return fmt.Errorf("compositor: %w", err)
	}
	if !c.userDepth {
		c.depth = LinearDepth(c.mapH)
	}
	c.lastDrawn = make([]uint64, max(c.cols*c.rows, 0))
	c.staticDirty = true
	c.InvalidateFullMap()
	logging.L().Info("compositor: targets sized", "width", c.mapW, "height", c.mapH,
		"cols", c.cols, "rows", c.rows)
	return nil
}

// SetViewSize recreates the presentation target. It does not invalidate.
func (c *Compositor) SetViewSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("compositor: view size %dx%d", w, h)
	}
	if c.present != nil && c.viewW == w && c.viewH == h {
		return nil
	}
	release(c.dev, &c.present)
	rt, err := c.dev.CreateRenderTarget(gpu.RenderTargetDescriptor{Label: "present", Width: w, Height: h})
	if err != nil {
		return fmt.Errorf("compositor: create present target: %w", err)
	}
	c.present = rt
	c.viewW, c.viewH = w, h
	return nil
}

// SetCamera moves the camera to pos, the full-map pixel at the top-left of
// the view, with the given zoom. Camera moves never invalidate.
func (c *Compositor) SetCamera(pos image.Point, zoom float64) {
	if zoom <= 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		zoom = 1
	}
	c.camera = pos
	c.zoom = zoom
}

// Pan moves the camera by (dx, dy) full-map pixels.
func (c *Compositor) Pan(dx, dy int) {
	c.camera = c.camera.Add(image.Pt(dx, dy))
}

// Camera returns the camera position and zoom.
func (c *Compositor) Camera() (image.Point, float64) { return c.camera, c.zoom }

// View returns the full-map pixel rectangle the camera shows, clipped to
// the map.
func (c *Compositor) View() image.Rectangle {
	w := int(math.Ceil(float64(c.viewW) / c.zoom))
	h := int(math.Ceil(float64(c.viewH) / c.zoom))
	r := image.Rectangle{Min: c.camera, Max: c.camera.Add(image.Pt(w, h))}
	return r.Intersect(image.Rect(0, 0, c.mapW, c.mapH))
}

// Invalidate schedules a redraw of the visible cells.
func (c *Compositor) Invalidate() {
	c.inv.ViewportDirty = true
}

// InvalidateFullMap schedules a redraw of every cell.
func (c *Compositor) InvalidateFullMap() {
	c.inv.ViewportDirty = true
	c.inv.FullMapDirty = true
}

// AddRefreshPoint invalidates the area around cell. It currently
// invalidates the whole viewport.
func (c *Compositor) AddRefreshPoint(cell CellRef, radius int) {
	logging.L().Debug("compositor: refresh point", "x", cell.X, "y", cell.Y, "radius", radius)
	c.Invalidate()
}

// InvalidateStaticUI schedules a redraw of the static UI layer.
func (c *Compositor) InvalidateStaticUI() { c.staticDirty = true }

// Invalidation returns the current invalidation state.
func (c *Compositor) Invalidation() Invalidation { return c.inv }

// SetStaticUI sets the layer drawn only after InvalidateStaticUI.
func (c *Compositor) SetStaticUI(l UILayer) {
	c.staticUI = l
	c.staticDirty = true
}

// SetPerFrameUI sets the layer redrawn on every frame.
func (c *Compositor) SetPerFrameUI(l UILayer) { c.perFrameUI = l }

// AttachFullMapConsumer makes every redraw cover the whole map until the
// matching DetachFullMapConsumer.
func (c *Compositor) AttachFullMapConsumer() { c.fullMapConsumers++ }

// DetachFullMapConsumer undoes AttachFullMapConsumer.
func (c *Compositor) DetachFullMapConsumer() {
	if c.fullMapConsumers > 0 {
		c.fullMapConsumers--
	}
}

// Stats returns the statistics of the last frame.
func (c *Compositor) Stats() FrameStats { return c.stats }

// FullMap returns the composite target covering the whole map.
func (c *Compositor) FullMap() gpu.RenderTarget { return c.targets.composite }

// FullMapImage renders every cell and reads the composite back.
func (c *Compositor) FullMapImage() (*image.NRGBA, error) {
	c.AttachFullMapConsumer()
	defer c.DetachFullMapConsumer()
	if _, err := c.Frame(); err != nil {
		return nil, err
	}
	img, err := c.dev.ReadPixels(c.targets.composite)
	if err != nil {
		return nil, fmt.Errorf("compositor: read full map: %w", err)
	}
	return img, nil
}

// rendererFor returns the renderer of category cat. It panics with
// ErrMissingRenderer when none is registered.
func (c *Compositor) rendererFor(cat Category) ObjectRenderer {
	var r ObjectRenderer
	switch cat {
	case Building, Unit, Infantry, Aircraft, TerrainObject, Animation, Overlay, Smudge:
		r = c.renderers[cat]
	}
	if r == nil {
		panic(fmt.Errorf("%w: %s", ErrMissingRenderer, cat))
	}
	return r
}

// Frame renders one frame and returns the presentation target. A failed
// frame is discarded; the next Frame redraws what it needs.
func (c *Compositor) Frame() (gpu.RenderTarget, error) {
	if c.world == nil {
		return nil, ErrNoWorld
	}
	start := c.pool.Stats().DrawCalls
	c.stats = FrameStats{}

	drew, err := c.updateWorld()
	if err != nil {
		c.Invalidate()
		return nil, err
	}
	if err := c.compose(); err != nil {
		return nil, err
	}
	if err := c.presentView(); err != nil {
		return nil, err
	}
	if err := c.dev.Flush(); err != nil {
		return nil, fmt.Errorf("compositor: flush: %w", err)
	}

	c.stats.Epoch = c.inv.Epoch
	c.stats.Cached = !drew
	c.stats.DrawCalls = c.pool.Stats().DrawCalls - start
	return c.present, nil
}

// window returns the full-map rectangle of cells to keep drawn.
func (c *Compositor) window(full bool) image.Rectangle {
	bounds := image.Rect(0, 0, c.mapW, c.mapH)
	if full {
		return bounds
	}
	pad := 0
	if c.cols > 0 && c.rows > 0 {
		pad = c.opts.paddingCells * max(c.mapW/c.cols, c.mapH/c.rows)
	}
	return c.View().Inset(-pad).Intersect(bounds)
}

func (c *Compositor) cellIndex(cell CellRef) (int, bool) {
	if cell.X < 0 || cell.Y < 0 || cell.X >= c.cols || cell.Y >= c.rows {
		return 0, false
	}
	return cell.Y*c.cols + cell.X, true
}

// updateWorld runs the terrain, decal, object and shadow passes as far as
// the invalidation state requires. It reports whether anything was drawn.
func (c *Compositor) updateWorld() (bool, error) {
	if c.inv.ViewportDirty {
		c.inv.Epoch++
		full := c.fullMapConsumers > 0 || c.inv.FullMapDirty
		var cells []CellRef
		c.world.VisibleCells(c.window(full), func(cell CellRef) bool {
			cells = append(cells, cell)
			return true
		})
		if err := c.dev.SetRenderTarget(c.targets.terrain); err != nil {
			return false, fmt.Errorf("compositor: %w", err)
		}
		if err := c.dev.Clear(transparent, gpu.ClearAll); err != nil {
			return false, fmt.Errorf("compositor: clear terrain: %w", err)
		}
		if err := c.drawCells(cells, c.tiles(cells)); err != nil {
			return false, err
		}
		c.inv.ViewportDirty = false
		if full {
			c.inv.FullMapDirty = false
		}
		logging.L().Debug("compositor: redraw", "epoch", c.inv.Epoch, "cells", len(cells), "full", full)
		return true, nil
	}

	var stale []CellRef
	c.world.VisibleCells(c.window(c.fullMapConsumers > 0), func(cell CellRef) bool {
		if i, ok := c.cellIndex(cell); ok && c.lastDrawn[i] != c.inv.Epoch {
			stale = append(stale, cell)
		}
		return true
	})
	if len(stale) == 0 {
		return false, nil
	}
	tiles := c.tiles(stale)
	if c.coversDrawnObjects(tiles) {
		// Terrain of the exposed cells would cut off objects and shadows
		// already drawn across the old window edge.
		logging.L().Debug("compositor: exposed cells overlap drawn objects", "cells", len(stale))
		c.Invalidate()
		return c.updateWorld()
	}
	if err := c.dev.SetRenderTarget(c.targets.terrain); err != nil {
		return false, fmt.Errorf("compositor: %w", err)
	}
	if err := c.drawCells(stale, tiles); err != nil {
		return false, err
	}
	logging.L().Debug("compositor: incremental redraw", "epoch", c.inv.Epoch, "cells", len(stale))
	return true, nil
}

func (c *Compositor) drawContext() *DrawContext {
	return &DrawContext{
		Recorder:    c.rec,
		Depth:       c.depth,
		Arena:       c.world.Arena(),
		Shadows:     c.opts.shadows,
		rendererFor: c.rendererFor,
	}
}

// tiles looks up the terrain tile of each cell. Cells without a tile get
// the zero Tile.
func (c *Compositor) tiles(cells []CellRef) []Tile {
	tiles := make([]Tile, len(cells))
	for i, cell := range cells {
		if t, ok := c.world.Tile(cell); ok {
			tiles[i] = t
		}
	}
	return tiles
}

// coversDrawnObjects reports whether any of tiles overlaps an object on a
// cell drawn in the current epoch.
func (c *Compositor) coversDrawnObjects(tiles []Tile) bool {
	arena := c.world.Arena()
	if arena == nil || c.cols <= 0 {
		return false
	}
	var rects []image.Rectangle
	var area image.Rectangle
	for _, t := range tiles {
		if !t.Sprite.Valid() {
			continue
		}
		r := t.Sprite.Dest(t.Anchor)
		rects = append(rects, r)
		area = area.Union(r)
	}
	if len(rects) == 0 {
		return false
	}

	hit := false
	for i, epoch := range c.lastDrawn {
		if epoch != c.inv.Epoch {
			continue
		}
		c.world.ObjectsAt(CellRef{X: i % c.cols, Y: i / c.cols}, func(id ObjectID) {
			if hit {
				return
			}
			o, ok := arena.Get(id)
			if !ok {
				return
			}
			b := c.objectBounds(arena, o)
			if !b.Overlaps(area) {
				return
			}
			for _, r := range rects {
				if b.Overlaps(r) {
					hit = true
					return
				}
			}
		})
		if hit {
			return true
		}
	}
	return false
}

// objectBounds returns the pixels o and its attached animations can cover,
// shadows included.
func (c *Compositor) objectBounds(arena *Arena, o *Object) image.Rectangle {
	b := c.rendererFor(o.Category).DrawParams(o).Dest
	add := func(o *Object) {
		for _, s := range []Sprite{o.Sprite, o.Shadow, o.Bib, o.Turret} {
			if s.Valid() {
				b = b.Union(s.Dest(o.Anchor))
			}
		}
	}
	add(o)
	for _, id := range o.Anims {
		if a, ok := arena.Get(id); ok {
			add(a)
		}
	}
	return b
}

// drawCells draws cells, whose tiles are given in the same order, into
// the bound terrain target.
func (c *Compositor) drawCells(cells []CellRef, tiles []Tile) error {
	ctx := c.drawContext()

	c.rec.Clear(false)
	for i, cell := range cells {
		tile := tiles[i]
		if !tile.Sprite.Valid() {
			continue
		}
		tint := tile.Tint
		if tint == (color.NRGBA{}) {
			tint = opaqueWhite
		}
		dest := tile.Sprite.Dest(tile.Anchor)
		top, bottom := float64(dest.Min.Y), float64(dest.Max.Y)
		depth := batch.VerticalDepth(c.depth(top, top, cell), c.depth(bottom, bottom, cell))
		if err := ctx.AddSprite(tile.Sprite, dest, depth, tint, transparent); err != nil {
			return fmt.Errorf("compositor: tile %v: %w", cell, err)
		}
	}
	if err := c.rec.Flush(c.pool, record.FlushStates{Sprites: c.states.terrain}); err != nil {
		return fmt.Errorf("compositor: terrain pass: %w", err)
	}

	decals, buildings, others := c.collect(ctx.Arena, cells)
	c.stats.CellsDrawn += len(cells)
	c.stats.ObjectsDrawn += len(decals) + len(buildings) + len(others)

	c.rec.Clear(false)
	for _, it := range decals {
		if err := it.r.Render(ctx, it.obj, it.params); err != nil {
			return fmt.Errorf("compositor: decal %d: %w", it.obj.ID, err)
		}
	}
	if err := c.rec.Flush(c.pool, record.FlushStates{
		Sprites: c.states.decal,
		Shadows: c.states.shadow,
	}); err != nil {
		return fmt.Errorf("compositor: decal pass: %w", err)
	}

	// Buildings go first. Their shadows stay recorded and are drawn with
	// the other objects' shadows once every body has written the stencil.
	states := record.FlushStates{
		Lines:       c.states.text,
		Sprites:     c.states.object,
		Shadows:     c.states.shadow,
		Text:        c.states.text,
		SkipShadows: true,
	}
	c.rec.Clear(false)
	if err := c.renderItems(ctx, buildings); err != nil {
		return err
	}
	if err := c.rec.Flush(c.pool, states); err != nil {
		return fmt.Errorf("compositor: building pass: %w", err)
	}

	c.rec.Clear(true)
	if err := c.renderItems(ctx, others); err != nil {
		return err
	}
	if err := c.recordLabels(cells); err != nil {
		return err
	}
	states.SkipShadows = !c.opts.shadows
	err := c.rec.Flush(c.pool, states)
	c.rec.Clear(false)
	if c.labels != nil {
		c.labels.Release()
	}
	if err != nil {
		return fmt.Errorf("compositor: object pass: %w", err)
	}

	for _, cell := range cells {
		if i, ok := c.cellIndex(cell); ok {
			c.lastDrawn[i] = c.inv.Epoch
		}
	}
	return nil
}

func (c *Compositor) renderItems(ctx *DrawContext, items []drawItem) error {
	for _, it := range items {
		if err := it.r.Render(ctx, it.obj, it.params); err != nil {
			return fmt.Errorf("compositor: object %d (%s): %w", it.obj.ID, it.obj.Category, err)
		}
	}
	return nil
}

// collect gathers and sorts the objects standing on cells into flat
// decals, buildings and everything else. Animations attached to a live
// building are drawn by the building.
func (c *Compositor) collect(arena *Arena, cells []CellRef) (decals, buildings, others []drawItem) {
	if arena == nil {
		return nil, nil, nil
	}
	clear(c.seen)
	for _, cell := range cells {
		c.world.ObjectsAt(cell, func(id ObjectID) {
			if _, dup := c.seen[id]; dup {
				return
			}
			c.seen[id] = struct{}{}
			o, ok := arena.Get(id)
			if !ok {
				return
			}
			if o.Owner != 0 {
				if _, live := arena.Get(o.Owner); live {
					return
				}
			}
			r := c.rendererFor(o.Category)
			it := drawItem{obj: o, r: r, params: r.DrawParams(o)}
			switch {
			case o.decal():
				decals = append(decals, it)
			case o.Category == Building:
				buildings = append(buildings, it)
			default:
				others = append(others, it)
			}
		})
	}
	sortItems(decals)
	sortItems(buildings)
	sortItems(others)
	return decals, buildings, others
}

// recordLabels adds the text tags of cells.
func (c *Compositor) recordLabels(cells []CellRef) error {
	lw, ok := c.world.(LabeledWorld)
	if !ok || c.labels == nil {
		return nil
	}
	var err error
	for _, cell := range cells {
		lw.Labels(cell, func(l Label) {
			if err != nil {
				return
			}
			var g *text.Label
			g, err = c.labels.Label(l.Text)
			if err != nil || g == nil {
				return
			}
			size := g.Bounds.Size()
			dest := image.Rectangle{Min: l.Anchor.Sub(size.Div(2))}
			dest.Max = dest.Min.Add(size)
			y := float64(dest.Max.Y)
			err = c.rec.AddTextEntry(record.TextEntry{
				Texture: g.Texture,
				Source:  g.Bounds,
				Dest:    dest,
				Color:   l.Color,
				Depth:   c.depth(y, y, cell),
			})
		})
		if err != nil {
			return fmt.Errorf("compositor: label: %w", err)
		}
	}
	return nil
}

// blit draws all of src over the bound target's rectangle dst.
func (c *Compositor) blit(state gpu.RenderState, effect gpu.Effect, src gpu.Texture, srcRect, dst image.Rectangle) error {
	c.pool.Begin(state, effect)
	c.pool.Draw(src, dst, srcRect, opaqueWhite, batch.FlatDepth(0))
	return c.pool.End()
}

// compose builds the composite target from terrain, lighting and UI.
func (c *Compositor) compose() error {
	full := image.Rect(0, 0, c.mapW, c.mapH)
	if err := c.dev.SetRenderTarget(c.targets.composite); err != nil {
		return fmt.Errorf("compositor: %w", err)
	}
	if err := c.blit(gpu.StateReplace(), gpu.Effect{Mode: gpu.EffectCopy}, c.targets.terrain.Color(), full, full); err != nil {
		return fmt.Errorf("compositor: terrain blit: %w", err)
	}
	if err := c.applyLighting(full); err != nil {
		return err
	}

	if c.staticUI != nil {
		if c.staticDirty {
			if err := c.drawUI(c.targets.staticUI, c.staticUI); err != nil {
				return fmt.Errorf("compositor: static ui: %w", err)
			}
			c.staticDirty = false
		}
		if err := c.overlay(c.targets.staticUI, full); err != nil {
			return err
		}
	}
	if c.perFrameUI != nil {
		if err := c.drawUI(c.targets.perFrameUI, c.perFrameUI); err != nil {
			return fmt.Errorf("compositor: per-frame ui: %w", err)
		}
		if err := c.overlay(c.targets.perFrameUI, full); err != nil {
			return err
		}
	}
	return nil
}

// applyLighting multiplies the composite by the light mask when lighting
// is enabled and the world has light decals.
func (c *Compositor) applyLighting(full image.Rectangle) error {
	decals := c.world.LightDecals()
	if !c.opts.alphaLighting || len(decals) == 0 {
		c.targets.releaseLighting(c.dev)
		return nil
	}
	c.stats.Lighting = true
	if err := c.targets.ensureLighting(c.dev); err != nil {
		return fmt.Errorf("compositor: %w", err)
	}

	if err := c.dev.SetRenderTarget(c.targets.alphaMask); err != nil {
		return fmt.Errorf("compositor: %w", err)
	}
	if err := c.dev.Clear(c.opts.ambient, gpu.ClearColor); err != nil {
		return fmt.Errorf("compositor: clear alpha mask: %w", err)
	}
	c.pool.Begin(gpu.StateAdditive(), gpu.Effect{Mode: gpu.EffectDirect})
	for _, d := range decals {
		if d.Texture == nil {
			continue
		}
		c.pool.Draw(d.Texture, d.Dest, d.Source, d.Color, batch.FlatDepth(0))
	}
	if err := c.pool.End(); err != nil {
		return fmt.Errorf("compositor: light decals: %w", err)
	}

	if err := c.dev.CopyTexture(c.targets.alphaMaskRead.Color(), image.Point{}, c.targets.composite.Color(), full); err != nil {
		return fmt.Errorf("compositor: snapshot composite: %w", err)
	}
	if err := c.dev.SetRenderTarget(c.targets.composite); err != nil {
		return fmt.Errorf("compositor: %w", err)
	}
	effect := gpu.Effect{Mode: gpu.EffectLightMask, Secondary: c.targets.alphaMask.Color()}
	if err := c.blit(gpu.StateReplace(), effect, c.targets.alphaMaskRead.Color(), full, full); err != nil {
		return fmt.Errorf("compositor: apply light mask: %w", err)
	}
	return nil
}

// drawUI redraws layer into rt, cleared to transparent.
func (c *Compositor) drawUI(rt gpu.RenderTarget, layer UILayer) error {
	if err := c.dev.SetRenderTarget(rt); err != nil {
		return err
	}
	if err := c.dev.Clear(transparent, gpu.ClearColor); err != nil {
		return err
	}
	c.rec.Clear(false)
	defer c.rec.Clear(false)
	if err := layer.DrawUI(c.rec, c.View()); err != nil {
		return err
	}
	s := c.states.ui
	return c.rec.Flush(c.pool, record.FlushStates{Lines: s, Sprites: s, Shadows: s, Text: s})
}

// overlay blends a premultiplied UI target over the composite.
func (c *Compositor) overlay(rt gpu.RenderTarget, full image.Rectangle) error {
	if err := c.dev.SetRenderTarget(c.targets.composite); err != nil {
		return fmt.Errorf("compositor: %w", err)
	}
	if err := c.blit(gpu.StatePremultiplied(), gpu.Effect{Mode: gpu.EffectCopy}, rt.Color(), full, full); err != nil {
		return fmt.Errorf("compositor: ui blit %s: %w", rt.Label(), err)
	}
	return nil
}

// presentView scales the camera region of the composite into the
// presentation target.
func (c *Compositor) presentView() error {
	if err := c.dev.SetRenderTarget(c.present); err != nil {
		return fmt.Errorf("compositor: %w", err)
	}
	if err := c.dev.Clear(color.NRGBA{A: 255}, gpu.ClearColor); err != nil {
		return fmt.Errorf("compositor: clear present: %w", err)
	}
	src := c.View()
	if src.Empty() {
		return nil
	}
	scale := func(p image.Point) image.Point {
		d := p.Sub(c.camera)
		return image.Pt(int(math.Round(float64(d.X)*c.zoom)), int(math.Round(float64(d.Y)*c.zoom)))
	}
	dst := image.Rectangle{Min: scale(src.Min), Max: scale(src.Max)}
	state := gpu.StateReplace()
	state.Filter = c.opts.filter
	if err := c.blit(state, gpu.Effect{Mode: gpu.EffectCopy}, c.targets.composite.Color(), src, dst); err != nil {
		return fmt.Errorf("compositor: present: %w", err)
	}
	return nil
}

// Close releases every target and texture the compositor created.
func (c *Compositor) Close() error {
	var errs []error
	c.targets.destroy(c.dev)
	release(c.dev, &c.present)
	if c.white != nil {
		c.dev.DestroyTexture(c.white)
		c.white = nil
	}
	if c.ownsLabels && c.labels != nil {
		if err := c.labels.Close(); err != nil {
			errs = append(errs, err)
		}
		c.labels = nil
	}
	return errors.Join(errs...)
}
