// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"image"
	"slices"
	"testing"

	"github.com/gogpu/isomap/batch"
	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/gpu/soft"
	"github.com/gogpu/isomap/record"
)

// drawLog records the texture of every draw call in order.
type drawLog struct {
	*soft.Device
	textures []string
}

func (d *drawLog) DrawIndexed(tex gpu.Texture, v []gpu.Vertex, idx []uint16) error {
	d.textures = append(d.textures, tex.Label())
	return d.Device.DrawIndexed(tex, v, idx)
}

type renderFixture struct {
	dev  *drawLog
	rt   *soft.Target
	pool *batch.Pool
	rec  *record.Recorder
}

func newRenderFixture(t *testing.T, w, h int) *renderFixture {
	t.Helper()
	d := &drawLog{Device: soft.New()}
	rt, err := d.CreateRenderTarget(gpu.RenderTargetDescriptor{Label: "rt", Width: w, Height: h, DepthStencil: true})
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	if err := d.SetRenderTarget(rt); err != nil {
		t.Fatalf("SetRenderTarget: %v", err)
	}
	return &renderFixture{dev: d, rt: rt.(*soft.Target), pool: batch.NewPool(d), rec: record.New(nil)}
}

func (f *renderFixture) context(a *Arena, depth DepthFunc) *DrawContext {
	return &DrawContext{
		Recorder:    f.rec,
		Depth:       depth,
		Arena:       a,
		Shadows:     true,
		rendererFor: func(Category) ObjectRenderer { return SpriteRenderer{} },
	}
}

func (f *renderFixture) flush(t *testing.T) {
	t.Helper()
	s := gpu.StateAlpha()
	s.DepthStencil = gpu.DepthTest(true)
	if err := f.rec.Flush(f.pool, record.FlushStates{Sprites: s, Shadows: s}); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestBuildingPartOrder(t *testing.T) {
	f := newRenderFixture(t, 32, 32)
	a := NewArena()
	part := func(label string) Sprite { return rgba(t, f.dev, label, 4, 4, red) }

	b := a.Add(Object{
		Category: Building,
		Anchor:   image.Pt(16, 16),
		Sprite:   part("body"),
		Bib:      part("bib"),
		Turret:   part("turret"),
	})
	for _, k := range []int{2, -1, -3} {
		id := a.Add(Object{Category: Animation, Anchor: image.Pt(16, 16), Sprite: part(animLabel(k)), SortKey: k})
		if err := a.Attach(b, id); err != nil {
			t.Fatalf("Attach: %v", err)
		}
	}

	o, _ := a.Get(b)
	r := BuildingRenderer{}
	if err := r.Render(f.context(a, LinearDepth(32)), o, r.DrawParams(o)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	f.flush(t)

	want := []string{"bib", "anim-3", "anim-1", "body", "anim2", "turret"}
	if !slices.Equal(f.dev.textures, want) {
		t.Errorf("draw order = %v, want %v", f.dev.textures, want)
	}
}

func animLabel(k int) string {
	switch k {
	case -3:
		return "anim-3"
	case -1:
		return "anim-1"
	default:
		return "anim2"
	}
}

func TestSplitBodyDepth(t *testing.T) {
	f := newRenderFixture(t, 20, 16)
	body := rgba(t, f.dev, "body", 20, 16, red)
	body.Offset = image.Pt(-10, -25)
	o := &Object{
		Category:   Building,
		Anchor:     image.Pt(10, 25),
		Sprite:     body,
		SplitBody:  true,
		Foundation: Foundation{Left: image.Pt(0, 20), Bottom: image.Pt(10, 25), Right: image.Pt(20, 20)},
	}

	r := BuildingRenderer{}
	p := r.DrawParams(o)
	if p.ReferenceY != 25 || p.SortX != 10 {
		t.Errorf("DrawParams = %+v, want reference 25 and sort x 10", p)
	}
	if err := r.Render(f.context(nil, LinearDepth(100)), o, p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	f.flush(t)

	if s := f.pool.Stats(); s.Quads != 2 || s.DrawCalls != 1 {
		t.Errorf("pool stats = %+v, want 2 quads in 1 draw", s)
	}
	img, _ := f.dev.ReadPixels(f.rt)
	for _, x := range []int{0, 9, 10, 19} {
		if got := img.NRGBAAt(x, 8); got != red {
			t.Errorf("pixel (%d,8) = %v, want %v", x, got, red)
		}
	}
	if l, m := f.rt.DepthAt(1, 8), f.rt.DepthAt(9, 8); l >= m {
		t.Errorf("left half depth %v at x=1, %v at x=9: want rising toward the bottom corner", l, m)
	}
	if rd, m := f.rt.DepthAt(18, 8), f.rt.DepthAt(11, 8); rd >= m {
		t.Errorf("right half depth %v at x=18, %v at x=11: want rising toward the bottom corner", rd, m)
	}
}

func TestSpriteRendererDepth(t *testing.T) {
	depth := LinearDepth(100)
	sprite := Sprite{Source: image.Rect(0, 0, 10, 20), Offset: image.Pt(-5, -20)}
	tests := []struct {
		name string
		obj  Object
		want batch.DepthRect
	}{
		{
			"standing",
			Object{Category: Unit, Anchor: image.Pt(50, 50), Sprite: sprite},
			batch.FlatDepth(0.5),
		},
		{
			"smudge lies on the ground",
			Object{Category: Smudge, Anchor: image.Pt(50, 50), Sprite: sprite},
			batch.VerticalDepth(depth(30, 30, CellRef{})+groundBias, depth(50, 50, CellRef{})+groundBias),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SpriteRenderer{}
			got := r.DepthFromPosition(depth, &tt.obj, r.DrawParams(&tt.obj))
			if got != tt.want {
				t.Errorf("DepthFromPosition = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLinearDepthMonotonic(t *testing.T) {
	f := LinearDepth(200)
	prev := float32(-1)
	for y := -10.0; y <= 210; y += 5 {
		d := f(y, y, CellRef{})
		if d < prev || d < 0 || d > 1 {
			t.Fatalf("depth(%v) = %v after %v: want monotonic in [0,1]", y, d, prev)
		}
		prev = d
	}
	if f(10, 150, CellRef{}) != f(150, 150, CellRef{}) {
		t.Error("pixels above the reference point must share its depth")
	}
}
