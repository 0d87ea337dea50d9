// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/isomap/batch"
	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/gpu/soft"
)

// spyDevice logs the effect mode and texture of every draw.
type spyDevice struct {
	*soft.Device
	effect gpu.Effect
	draws  []drawCall
}

type drawCall struct {
	mode  gpu.EffectMode
	tex   string
	remap color.NRGBA
}

func (d *spyDevice) SetEffect(e gpu.Effect) {
	d.effect = e
	d.Device.SetEffect(e)
}

func (d *spyDevice) DrawIndexed(tex gpu.Texture, v []gpu.Vertex, idx []uint16) error {
	d.draws = append(d.draws, drawCall{mode: d.effect.Mode, tex: tex.Label(), remap: d.effect.RemapColor})
	return d.Device.DrawIndexed(tex, v, idx)
}

type fixture struct {
	dev  *spyDevice
	pool *batch.Pool
	rt   gpu.RenderTarget
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := &spyDevice{Device: soft.New()}
	rt, err := d.CreateRenderTarget(gpu.RenderTargetDescriptor{Label: "rt", Width: 16, Height: 16, DepthStencil: true})
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	if err := d.SetRenderTarget(rt); err != nil {
		t.Fatalf("SetRenderTarget: %v", err)
	}
	return &fixture{dev: d, pool: batch.NewPool(d), rt: rt}
}

func (f *fixture) texture(t *testing.T, label string, format gpu.TextureFormat, w, h int) gpu.Texture {
	t.Helper()
	tex, err := f.dev.CreateTexture(gpu.TextureDescriptor{Label: label, Width: w, Height: h, Format: format})
	if err != nil {
		t.Fatalf("CreateTexture(%s): %v", label, err)
	}
	pix := make([]byte, w*h*format.BytesPerPixel())
	for i := range pix {
		pix[i] = 255
	}
	if err := f.dev.UploadTexture(tex, image.Rect(0, 0, w, h), pix); err != nil {
		t.Fatalf("UploadTexture(%s): %v", label, err)
	}
	return tex
}

func states() FlushStates {
	return FlushStates{
		Lines:   gpu.StateAlpha(),
		Sprites: gpu.StateAlpha(),
		Shadows: gpu.StateAlpha(),
		Text:    gpu.StateAlpha(),
	}
}

var (
	full = image.Rect(0, 0, 4, 4)
	tint = color.NRGBA{255, 255, 255, 255}
)

func TestAddGraphicsEntryNilTexture(t *testing.T) {
	r := New(nil)
	if err := r.AddGraphicsEntry(GraphicsEntry{}); !errors.Is(err, ErrNilTexture) {
		t.Errorf("AddGraphicsEntry(nil texture) = %v, want ErrNilTexture", err)
	}
	if err := r.AddTextEntry(TextEntry{}); !errors.Is(err, ErrNilTexture) {
		t.Errorf("AddTextEntry(nil texture) = %v, want ErrNilTexture", err)
	}
	if !r.Empty() {
		t.Errorf("Empty() = false after rejected entries")
	}
}

func TestClassification(t *testing.T) {
	f := newFixture(t)
	sprite := f.texture(t, "sprite", gpu.FormatIndexed8, 4, 4)
	rgba := f.texture(t, "rgba", gpu.FormatRGBA8, 4, 4)
	palA := f.texture(t, "palA", gpu.FormatRGBA8, 256, 1)
	palB := f.texture(t, "palB", gpu.FormatRGBA8, 256, 1)
	house := color.NRGBA{200, 0, 0, 255}

	r := New(nil)
	entries := []GraphicsEntry{
		{Texture: sprite, Palette: palA},
		{Texture: sprite, Palette: palA},
		{Texture: sprite, Palette: palB},
		{Texture: sprite, Palette: palA, UseRemap: true, RemapColor: house},
		{Texture: sprite, Palette: palA, UseRemap: true, RemapColor: house},
		{Texture: rgba},
		{Texture: sprite, Palette: palA, Shadow: true},
		{Texture: sprite, Shadow: true},
	}
	for i, e := range entries {
		if err := r.AddGraphicsEntry(e); err != nil {
			t.Fatalf("AddGraphicsEntry(%d): %v", i, err)
		}
	}
	got := r.Counts()
	want := Counts{Groups: 3, Paletted: 5, NonPaletted: 1, Shadows: 2}
	if got != want {
		t.Errorf("Counts() = %+v, want %+v", got, want)
	}
}

func TestRemapColorIgnoredWithoutRemap(t *testing.T) {
	f := newFixture(t)
	sprite := f.texture(t, "sprite", gpu.FormatIndexed8, 4, 4)
	pal := f.texture(t, "pal", gpu.FormatRGBA8, 256, 1)

	r := New(nil)
	_ = r.AddGraphicsEntry(GraphicsEntry{Texture: sprite, Palette: pal, RemapColor: color.NRGBA{1, 2, 3, 4}})
	_ = r.AddGraphicsEntry(GraphicsEntry{Texture: sprite, Palette: pal})
	if got := r.Counts().Groups; got != 1 {
		t.Errorf("Groups = %d, want 1", got)
	}
}

func TestFlushOrder(t *testing.T) {
	f := newFixture(t)
	white := f.texture(t, "white", gpu.FormatRGBA8, 1, 1)
	sprite := f.texture(t, "sprite", gpu.FormatIndexed8, 4, 4)
	shadow := f.texture(t, "shadow", gpu.FormatIndexed8, 4, 4)
	rgba := f.texture(t, "rgba", gpu.FormatRGBA8, 4, 4)
	label := f.texture(t, "label", gpu.FormatAlpha8, 4, 4)
	palA := f.texture(t, "palA", gpu.FormatRGBA8, 256, 1)
	palB := f.texture(t, "palB", gpu.FormatRGBA8, 256, 1)
	house := color.NRGBA{0, 0, 200, 255}

	r := New(white)
	src := image.Rect(0, 0, 4, 4)
	// Added in an order unrelated to the flush order.
	_ = r.AddTextEntry(TextEntry{Texture: label, Source: src, Dest: full, Color: tint})
	_ = r.AddGraphicsEntry(GraphicsEntry{Texture: shadow, Shadow: true, Source: src, Dest: full, Color: tint})
	_ = r.AddGraphicsEntry(GraphicsEntry{Texture: rgba, Source: src, Dest: full, Color: tint})
	_ = r.AddGraphicsEntry(GraphicsEntry{Texture: sprite, Palette: palB, Source: src, Dest: full, Color: tint})
	_ = r.AddGraphicsEntry(GraphicsEntry{Texture: sprite, Palette: palA, UseRemap: true, RemapColor: house, Source: src, Dest: full, Color: tint})
	r.AddLineEntry(LineEntry{From: [2]float32{0, 0}, To: [2]float32{8, 8}, Thickness: 2, Color: tint})

	if err := r.Flush(f.pool, states()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := []drawCall{
		{mode: gpu.EffectDirect, tex: "white"},
		{mode: gpu.EffectPaletted, tex: "sprite"},
		{mode: gpu.EffectRemap, tex: "sprite", remap: house},
		{mode: gpu.EffectDirect, tex: "rgba"},
		{mode: gpu.EffectShadow, tex: "shadow"},
		{mode: gpu.EffectCoverage, tex: "label"},
	}
	if len(f.dev.draws) != len(want) {
		t.Fatalf("draws = %+v, want %+v", f.dev.draws, want)
	}
	for i := range want {
		if f.dev.draws[i] != want[i] {
			t.Errorf("draw %d = %+v, want %+v", i, f.dev.draws[i], want[i])
		}
	}
}

func TestFlushSkipShadows(t *testing.T) {
	f := newFixture(t)
	shadow := f.texture(t, "shadow", gpu.FormatIndexed8, 4, 4)
	r := New(nil)
	_ = r.AddGraphicsEntry(GraphicsEntry{Texture: shadow, Shadow: true, Source: full, Dest: full, Color: tint})

	s := states()
	s.SkipShadows = true
	if err := r.Flush(f.pool, s); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(f.dev.draws) != 0 {
		t.Errorf("draws = %d, want 0 with SkipShadows", len(f.dev.draws))
	}
}

func TestClearPreserveShadows(t *testing.T) {
	f := newFixture(t)
	sprite := f.texture(t, "sprite", gpu.FormatIndexed8, 4, 4)
	pal := f.texture(t, "pal", gpu.FormatRGBA8, 256, 1)
	label := f.texture(t, "label", gpu.FormatAlpha8, 4, 4)

	fill := func(r *Recorder) {
		_ = r.AddGraphicsEntry(GraphicsEntry{Texture: sprite, Palette: pal})
		_ = r.AddGraphicsEntry(GraphicsEntry{Texture: sprite, Shadow: true})
		_ = r.AddTextEntry(TextEntry{Texture: label})
		r.AddLineEntry(LineEntry{To: [2]float32{1, 1}})
	}

	tests := []struct {
		name     string
		preserve bool
		want     Counts
	}{
		{"all", false, Counts{}},
		{"preserve", true, Counts{Shadows: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(nil)
			fill(r)
			r.Clear(tt.preserve)
			if got := r.Counts(); got != tt.want {
				t.Errorf("Counts() = %+v, want %+v", got, tt.want)
			}
			// Groups are reusable after a clear.
			fill(r)
			if got := r.Counts().Groups; got != 1 {
				t.Errorf("Groups after refill = %d, want 1", got)
			}
		})
	}
}

func TestLineQuad(t *testing.T) {
	l := LineEntry{From: [2]float32{0, 5}, To: [2]float32{10, 5}, Thickness: 2, Depth: 0.25}
	q, ok := l.quad()
	if !ok {
		t.Fatal("quad() ok = false")
	}
	want := [4][2]float32{{0, 6}, {10, 6}, {0, 4}, {10, 4}}
	if q.Pos != want {
		t.Errorf("Pos = %v, want %v", q.Pos, want)
	}
	if q.Depth != batch.FlatDepth(0.25) {
		t.Errorf("Depth = %+v, want flat 0.25", q.Depth)
	}
	if _, ok := (&LineEntry{From: [2]float32{3, 3}, To: [2]float32{3, 3}}).quad(); ok {
		t.Error("degenerate line produced a quad")
	}
}

func TestLineRasterized(t *testing.T) {
	f := newFixture(t)
	white := f.texture(t, "white", gpu.FormatRGBA8, 1, 1)
	r := New(white)
	red := color.NRGBA{255, 0, 0, 255}
	r.AddLineEntry(LineEntry{From: [2]float32{0, 8}, To: [2]float32{16, 8}, Thickness: 2, Color: red})
	if err := r.Flush(f.pool, states()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	img, err := f.dev.ReadPixels(f.rt)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if got := img.NRGBAAt(8, 7); got != red {
		t.Errorf("pixel on line = %v, want %v", got, red)
	}
	if got := img.NRGBAAt(8, 2); got.A != 0 {
		t.Errorf("pixel off line = %v, want transparent", got)
	}
}
