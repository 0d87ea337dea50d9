// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"errors"
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/gpu/soft"
	"github.com/gogpu/isomap/record"
	"github.com/gogpu/isomap/text"
)

// shadowScene is a 16x16 map with one red unit and two overlapping
// shadows.
func shadowScene(t *testing.T, d *soft.Device) *gridWorld {
	t.Helper()
	w := newGridWorld(2, 2, 8, rgba(t, d, "tile", 8, 8, grey))

	unit := rgba(t, d, "unit", 8, 8, red)
	unit.Offset = image.Pt(-4, -8)
	shadowTex := solidTexture(t, d, "shadow", gpu.FormatIndexed8, 12, 6, 1)
	shadow := Sprite{Texture: shadowTex, Source: image.Rect(0, 0, 12, 6), Offset: image.Pt(-6, -4)}

	// Sprite covers (4,4)-(12,12), shadow (2,8)-(14,14).
	w.place(Object{Category: Unit, Cell: CellRef{1, 1}, Anchor: image.Pt(8, 12), Sprite: unit, Shadow: shadow})
	// Shadow only, covering (0,8)-(12,14).
	w.place(Object{Category: TerrainObject, Cell: CellRef{0, 1}, Anchor: image.Pt(6, 12), Shadow: shadow})
	return w
}

func TestShadowExclusion(t *testing.T) {
	d := soft.New()
	w := shadowScene(t, d)
	c := newCompositor(t, d, w, 16, 16)
	img := fullMap(t, c)

	if got := img.NRGBAAt(1, 1); got != grey {
		t.Errorf("unshadowed terrain = %v, want %v", got, grey)
	}
	if got := img.NRGBAAt(8, 10); got != red {
		t.Errorf("object under shadow = %v, want %v (stencil must reject the shadow)", got, red)
	}

	single := img.NRGBAAt(13, 12)
	if single.R >= grey.R || single.R == 0 {
		t.Errorf("shadowed terrain = %v, want darker than %v", single, grey)
	}
	if got := img.NRGBAAt(3, 12); got != single {
		t.Errorf("overlapping shadows = %v, want %v (no double darkening)", got, single)
	}
	if got := img.NRGBAAt(1, 12); got != single {
		t.Errorf("second shadow = %v, want %v", got, single)
	}
}

func TestShadowsDisabled(t *testing.T) {
	d := soft.New()
	w := shadowScene(t, d)
	c := newCompositor(t, d, w, 16, 16, WithShadows(false))
	img := fullMap(t, c)
	if got := img.NRGBAAt(13, 12); got != grey {
		t.Errorf("terrain with shadows off = %v, want %v", got, grey)
	}
}

func TestInvalidationScoping(t *testing.T) {
	d := soft.New()
	w := newGridWorld(20, 20, 8, rgba(t, d, "tile", 8, 8, grey))
	c := newCompositor(t, d, w, 32, 32, WithPadding(1))

	frame := func() FrameStats {
		t.Helper()
		if _, err := c.Frame(); err != nil {
			t.Fatalf("Frame: %v", err)
		}
		return c.Stats()
	}

	if inv := c.Invalidation(); !inv.ViewportDirty || !inv.FullMapDirty {
		t.Fatalf("initial invalidation = %+v, want both dirty", inv)
	}
	if s := frame(); s.CellsDrawn != 400 || s.Epoch != 1 || s.Cached {
		t.Errorf("first frame = %+v, want 400 cells in epoch 1", s)
	}
	if inv := c.Invalidation(); inv.ViewportDirty || inv.FullMapDirty {
		t.Errorf("invalidation after frame = %+v, want clean", inv)
	}
	if s := frame(); !s.Cached || s.CellsDrawn != 0 {
		t.Errorf("clean frame = %+v, want cached", s)
	}

	c.Invalidate()
	if inv := c.Invalidation(); !inv.ViewportDirty || inv.FullMapDirty {
		t.Errorf("Invalidate() = %+v, want viewport only", inv)
	}
	w.resetVisits()
	if s := frame(); s.CellsDrawn != 25 || s.Epoch != 2 {
		t.Errorf("viewport frame = %+v, want 25 cells in epoch 2", s)
	}
	if got := len(w.visits); got != 25 {
		t.Errorf("tiles visited = %d, want 25", got)
	}

	// Panning never invalidates; newly exposed cells are drawn once.
	c.Pan(80, 80)
	if inv := c.Invalidation(); inv.ViewportDirty || inv.FullMapDirty {
		t.Errorf("Pan set %+v, want clean", inv)
	}
	w.resetVisits()
	if s := frame(); s.CellsDrawn != 36 || s.Epoch != 2 || s.Cached {
		t.Errorf("pan frame = %+v, want 36 stale cells in epoch 2", s)
	}
	for cell, n := range w.visits {
		if n != 1 {
			t.Errorf("cell %v drawn %d times, want 1", cell, n)
		}
	}
	if s := frame(); !s.Cached {
		t.Errorf("frame after pan redraw = %+v, want cached", s)
	}
	c.Pan(-80, -80)
	if s := frame(); !s.Cached {
		t.Errorf("pan back = %+v, want cached (cells current)", s)
	}

	c.AddRefreshPoint(CellRef{3, 3}, 2)
	if inv := c.Invalidation(); !inv.ViewportDirty {
		t.Errorf("AddRefreshPoint = %+v, want viewport dirty", inv)
	}
	c.InvalidateFullMap()
	if inv := c.Invalidation(); !inv.ViewportDirty || !inv.FullMapDirty {
		t.Errorf("InvalidateFullMap = %+v, want both dirty", inv)
	}
	if s := frame(); s.CellsDrawn != 400 {
		t.Errorf("full map frame drew %d cells, want 400", s.CellsDrawn)
	}
}

func TestFullMapConsumerDrawsEverything(t *testing.T) {
	d := soft.New()
	w := newGridWorld(20, 20, 8, rgba(t, d, "tile", 8, 8, grey))
	c := newCompositor(t, d, w, 32, 32, WithPadding(0))
	if _, err := c.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	c.Invalidate()
	if _, err := c.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	w.resetVisits()
	img := fullMap(t, c)
	if got := c.Stats().CellsDrawn; got != 400-16 {
		t.Errorf("FullMapImage drew %d stale cells, want %d", got, 400-16)
	}
	if got := img.NRGBAAt(150, 150); got != grey {
		t.Errorf("far corner = %v, want %v", got, grey)
	}
}

func TestMissingRendererPanics(t *testing.T) {
	d := soft.New()
	w := newGridWorld(1, 1, 8, Sprite{})
	w.place(Object{Category: Unit, Sprite: rgba(t, d, "unit", 2, 2, red)})
	c := newCompositor(t, d, w, 8, 8, WithRenderer(Unit, nil))

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrMissingRenderer) {
			t.Errorf("recover() = %v, want ErrMissingRenderer", r)
		}
	}()
	_, _ = c.Frame()
	t.Error("Frame did not panic")
}

func TestDeterministicObjectOrder(t *testing.T) {
	a := NewArena()
	add := func(cat Category, x, y int) ObjectID {
		return a.Add(Object{Category: cat, Anchor: image.Pt(x, y)})
	}
	ids := []ObjectID{
		add(Unit, 10, 20),
		add(Unit, 5, 20),
		add(Infantry, 5, 20),
		add(Building, 5, 20),
		add(Aircraft, 0, 30),
		add(Smudge, 50, 10),
		add(Unit, 5, 20),
	}
	items := func(order []ObjectID) []drawItem {
		out := make([]drawItem, 0, len(order))
		for _, id := range order {
			o, _ := a.Get(id)
			var r ObjectRenderer = SpriteRenderer{}
			if o.Category == Building {
				r = BuildingRenderer{}
			}
			out = append(out, drawItem{obj: o, r: r, params: r.DrawParams(o)})
		}
		return out
	}
	sorted := func(order []ObjectID) []ObjectID {
		it := items(order)
		sortItems(it)
		var got []ObjectID
		for _, i := range it {
			got = append(got, i.obj.ID)
		}
		return got
	}

	want := []ObjectID{ids[5], ids[3], ids[2], ids[1], ids[6], ids[0], ids[4]}
	perms := [][]ObjectID{
		ids,
		{ids[6], ids[5], ids[4], ids[3], ids[2], ids[1], ids[0]},
		{ids[2], ids[4], ids[6], ids[0], ids[1], ids[3], ids[5]},
	}
	for i, p := range perms {
		if got := sorted(p); !slices.Equal(got, want) {
			t.Errorf("permutation %d sorted to %v, want %v", i, got, want)
		}
	}
}

func TestAttachedAnimationsDrawnWithBuilding(t *testing.T) {
	d := soft.New()
	w := newGridWorld(2, 1, 8, Sprite{})
	body := rgba(t, d, "body", 4, 4, red)
	b := w.place(Object{Category: Building, Cell: CellRef{0, 0}, Anchor: image.Pt(4, 4), Sprite: body})
	anim := w.place(Object{Category: Animation, Cell: CellRef{1, 0}, Anchor: image.Pt(12, 4), Sprite: body})
	loose := w.place(Object{Category: Animation, Cell: CellRef{1, 0}, Anchor: image.Pt(12, 4), Sprite: body})
	if err := w.arena.Attach(b, anim); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	c := newCompositor(t, d, w, 16, 8)

	_, buildings, others := c.collect(w.arena, []CellRef{{0, 0}, {1, 0}})
	var got []ObjectID
	for _, it := range slices.Concat(buildings, others) {
		got = append(got, it.obj.ID)
	}
	if want := []ObjectID{b, loose}; !slices.Equal(got, want) {
		t.Errorf("collected %v, want %v (attached animation drawn by its building)", got, want)
	}

	w.arena.Remove(b)
	if _, ok := w.arena.Get(anim); ok {
		t.Error("attached animation survived its building")
	}
}

func TestLightingMask(t *testing.T) {
	d := soft.New()
	w := newGridWorld(2, 2, 8, rgba(t, d, "tile", 8, 8, grey))
	light := solidTexture(t, d, "light", gpu.FormatRGBA8, 4, 4, 255, 255, 255, 255)
	w.lights = []LightDecal{{Texture: light, Source: image.Rect(0, 0, 4, 4), Dest: image.Rect(0, 0, 8, 8), Color: white}}

	c := newCompositor(t, d, w, 16, 16,
		WithAlphaLighting(true), WithAmbient(color.NRGBA{64, 64, 64, 255}))
	baseTargets := d.LiveTargets()
	img := fullMap(t, c)

	if got := img.NRGBAAt(2, 2); got != grey {
		t.Errorf("lit pixel = %v, want %v", got, grey)
	}
	if got := img.NRGBAAt(12, 12); got.R >= 64 {
		t.Errorf("unlit pixel = %v, want darkened by ambient", got)
	}
	if !c.Stats().Lighting {
		t.Error("Stats().Lighting = false, want true")
	}
	if got := d.LiveTargets(); got != baseTargets+2 {
		t.Errorf("LiveTargets() = %d, want %d with light mask", got, baseTargets+2)
	}

	w.lights = nil
	if _, err := c.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if got := d.LiveTargets(); got != baseTargets {
		t.Errorf("LiveTargets() = %d, want %d after lights removed", got, baseTargets)
	}
}

func TestUILayers(t *testing.T) {
	d := soft.New()
	w := newGridWorld(2, 2, 8, rgba(t, d, "tile", 8, 8, grey))
	c := newCompositor(t, d, w, 16, 16)

	staticCalls, frameCalls := 0, 0
	c.SetStaticUI(UILayerFunc(func(r *record.Recorder, _ image.Rectangle) error {
		staticCalls++
		r.AddLineEntry(record.LineEntry{From: [2]float32{0, 1}, To: [2]float32{16, 1}, Thickness: 2, Color: red})
		return nil
	}))
	c.SetPerFrameUI(UILayerFunc(func(r *record.Recorder, _ image.Rectangle) error {
		frameCalls++
		r.AddLineEntry(record.LineEntry{From: [2]float32{0, 14}, To: [2]float32{16, 14}, Thickness: 2, Color: blue})
		return nil
	}))

	for range 3 {
		if _, err := c.Frame(); err != nil {
			t.Fatalf("Frame: %v", err)
		}
	}
	if staticCalls != 1 || frameCalls != 3 {
		t.Errorf("static drawn %d times, per-frame %d, want 1 and 3", staticCalls, frameCalls)
	}
	c.InvalidateStaticUI()
	img := fullMap(t, c)
	if staticCalls != 2 {
		t.Errorf("static drawn %d times after InvalidateStaticUI, want 2", staticCalls)
	}
	if got := img.NRGBAAt(5, 1); got != red {
		t.Errorf("static UI pixel = %v, want %v", got, red)
	}
	if got := img.NRGBAAt(5, 14); got != blue {
		t.Errorf("per-frame UI pixel = %v, want %v", got, blue)
	}
	if got := img.NRGBAAt(5, 8); got != grey {
		t.Errorf("world pixel = %v, want %v", got, grey)
	}
}

func TestPresentZoom(t *testing.T) {
	d := soft.New()
	w := newGridWorld(2, 2, 8, rgba(t, d, "tile", 8, 8, grey))
	unit := rgba(t, d, "unit", 8, 8, red)
	unit.Offset = image.Pt(-4, -8)
	w.place(Object{Category: Unit, Cell: CellRef{1, 1}, Anchor: image.Pt(12, 16), Sprite: unit})
	c := newCompositor(t, d, w, 16, 16)

	tests := []struct {
		name string
		pos  image.Point
		want color.NRGBA
	}{
		{"unit quadrant", image.Pt(8, 8), red},
		{"terrain quadrant", image.Pt(0, 0), grey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.SetCamera(tt.pos, 2)
			rt, err := c.Frame()
			if err != nil {
				t.Fatalf("Frame: %v", err)
			}
			img, err := d.ReadPixels(rt)
			if err != nil {
				t.Fatalf("ReadPixels: %v", err)
			}
			if img.Bounds() != image.Rect(0, 0, 16, 16) {
				t.Fatalf("present bounds = %v", img.Bounds())
			}
			for _, p := range []image.Point{{0, 0}, {8, 8}, {15, 15}} {
				if got := img.NRGBAAt(p.X, p.Y); got != tt.want {
					t.Errorf("present %v = %v, want %v", p, got, tt.want)
				}
			}
		})
	}
}

func TestLabels(t *testing.T) {
	d := soft.New()
	g := newGridWorld(4, 2, 16, rgba(t, d, "tile", 16, 16, grey))
	g.labels = map[CellRef]Label{{1, 0}: {Text: "W1", Anchor: image.Pt(24, 8), Color: white}}
	c := newCompositor(t, d, labeledWorld{g}, 64, 32)
	img := fullMap(t, c)

	lit := 0
	for y := 0; y < 16; y++ {
		for x := 16; x < 32; x++ {
			if img.NRGBAAt(x, y) != grey {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("label left no pixels")
	}
}

func TestResizeAndClose(t *testing.T) {
	d := soft.New()
	w := newGridWorld(2, 2, 8, rgba(t, d, "tile", 8, 8, grey))
	c, err := New(d, w, 16, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	targets := d.LiveTargets()

	w.cols, w.rows = 4, 4
	if err := c.Resize(); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if got := d.LiveTargets(); got != targets {
		t.Errorf("LiveTargets() after Resize = %d, want %d", got, targets)
	}
	if got := c.FullMap().Width(); got != 32 {
		t.Errorf("FullMap width = %d, want 32", got)
	}
	if !c.Invalidation().FullMapDirty {
		t.Error("Resize did not invalidate the full map")
	}

	textures := d.LiveTextures()
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := d.LiveTargets(); got != 0 {
		t.Errorf("LiveTargets() after Close = %d, want 0", got)
	}
	if got := d.LiveTextures(); got != textures-1 {
		t.Errorf("LiveTextures() after Close = %d, want %d (white texture released)", got, textures-1)
	}
}

func TestNewWithoutWorld(t *testing.T) {
	if _, err := New(soft.New(), nil, 8, 8); !errors.Is(err, ErrNoWorld) {
		t.Errorf("New(nil world) = %v, want ErrNoWorld", err)
	}
}

// shadowedUnitWorld is an 8x8 map of 8px cells with a unit on cell (3,3)
// whose shadow reaches into cell (4,3).
func shadowedUnitWorld(t *testing.T, d gpu.Device) *gridWorld {
	t.Helper()
	w := newGridWorld(8, 8, 8, rgba(t, d, "tile", 8, 8, grey))
	unit := rgba(t, d, "unit", 4, 4, red)
	unit.Offset = image.Pt(-2, -4)
	shadowTex := solidTexture(t, d, "shadow", gpu.FormatIndexed8, 12, 4, 1)
	shadow := Sprite{Texture: shadowTex, Source: image.Rect(0, 0, 12, 4), Offset: image.Pt(-2, -3)}
	// Sprite covers (26,26)-(30,30), shadow (26,27)-(38,31).
	w.place(Object{Category: Unit, Cell: CellRef{3, 3}, Anchor: image.Pt(28, 30), Sprite: unit, Shadow: shadow})
	return w
}

func TestPanRedrawMatchesFullRedraw(t *testing.T) {
	d := soft.New()
	c := newCompositor(t, d, shadowedUnitWorld(t, d), 32, 32, WithPadding(0))
	for _, step := range []func(){nil, c.Invalidate, func() { c.Pan(16, 0) }} {
		if step != nil {
			step()
		}
		if _, err := c.Frame(); err != nil {
			t.Fatalf("Frame: %v", err)
		}
	}
	got := fullMap(t, c)

	ref := newCompositor(t, d, shadowedUnitWorld(t, d), 32, 32, WithPadding(0))
	want := fullMap(t, ref)

	if p := got.NRGBAAt(36, 28); p == grey {
		t.Errorf("shadow across the old window edge = %v, want shadowed terrain", p)
	}
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g, w := got.NRGBAAt(x, y), want.NRGBAAt(x, y); g != w {
				t.Fatalf("pixel (%d,%d) after pan = %v, want %v as in a full redraw", x, y, g, w)
			}
		}
	}
}

func TestLabelsBeyondCacheSize(t *testing.T) {
	d := soft.New()
	labels, err := text.New(d, text.WithCacheSize(1))
	if err != nil {
		t.Fatalf("text.New: %v", err)
	}
	t.Cleanup(func() { _ = labels.Close() })

	g := newGridWorld(4, 2, 16, rgba(t, d, "tile", 16, 16, grey))
	g.labels = map[CellRef]Label{
		{0, 0}: {Text: "A1", Anchor: image.Pt(8, 8), Color: white},
		{2, 0}: {Text: "B2", Anchor: image.Pt(40, 8), Color: white},
	}
	c := newCompositor(t, d, labeledWorld{g}, 64, 32, WithLabels(labels))

	for range 2 {
		img := fullMap(t, c)
		for _, x0 := range []int{0, 32} {
			lit := 0
			for y := 0; y < 16; y++ {
				for x := x0; x < x0+16; x++ {
					if img.NRGBAAt(x, y) != grey {
						lit++
					}
				}
			}
			if lit == 0 {
				t.Errorf("label near x=%d left no pixels", x0)
			}
		}
		if got := labels.Retired(); got != 0 {
			t.Errorf("Retired() after frame = %d, want 0", got)
		}
		c.Invalidate()
	}
	if got := labels.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

// labelLog records the label of every texture drawn.
type labelLog struct {
	*soft.Device
	drawn []string
}

func (d *labelLog) DrawIndexed(tex gpu.Texture, vertices []gpu.Vertex, indices []uint16) error {
	d.drawn = append(d.drawn, tex.Label())
	return d.Device.DrawIndexed(tex, vertices, indices)
}

func TestBuildingsDrawnBeforeOtherObjects(t *testing.T) {
	d := &labelLog{Device: soft.New()}
	w := newGridWorld(2, 2, 8, rgba(t, d, "tile", 8, 8, grey))
	building := rgba(t, d, "building", 6, 6, blue)
	building.Offset = image.Pt(-3, -6)
	unit := rgba(t, d, "unit", 4, 4, red)
	unit.Offset = image.Pt(-2, -4)
	shadowTex := solidTexture(t, d, "shadow", gpu.FormatIndexed8, 6, 3, 1)
	shadow := Sprite{Texture: shadowTex, Source: image.Rect(0, 0, 6, 3), Offset: image.Pt(-3, -1)}

	// The unit sorts before the building but the building pass runs first.
	w.place(Object{Category: Building, Cell: CellRef{0, 1}, Anchor: image.Pt(4, 14), Sprite: building, Shadow: shadow})
	w.place(Object{Category: Unit, Cell: CellRef{1, 0}, Anchor: image.Pt(12, 6), Sprite: unit})

	c, err := New(d, w, 16, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	img := fullMap(t, c)

	b := slices.Index(d.drawn, "building")
	u := slices.Index(d.drawn, "unit")
	s := slices.Index(d.drawn, "shadow")
	if b < 0 || u < 0 || s < 0 {
		t.Fatalf("drawn = %v, want building, unit and shadow", d.drawn)
	}
	if b > u || u > s {
		t.Errorf("draw order = %v, want building, then unit, then shadows", d.drawn)
	}
	if got := img.NRGBAAt(2, 15); got.R >= grey.R {
		t.Errorf("building shadow = %v, want darker than %v", got, grey)
	}
	if got := img.NRGBAAt(4, 10); got != blue {
		t.Errorf("building body = %v, want %v", got, blue)
	}
}
