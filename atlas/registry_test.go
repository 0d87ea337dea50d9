// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/gpu/soft"
)

// sprite is a test owner remembering its source pixels.
type sprite struct {
	name   string
	w, h   int
	pix    []byte
	page   *Page
	rect   image.Rectangle
	called int
}

func (s *sprite) AtlasPlaced(page *Page, rect image.Rectangle) {
	s.page, s.rect = page, rect
	s.called++
}

func (s *sprite) String() string { return s.name }

func newSprite(name string, w, h int, seed byte) *sprite {
	return &sprite{name: name, w: w, h: h, pix: fill(w, h, seed)}
}

func TestFinalizeMergePixelFidelity(t *testing.T) {
	dev := soft.New()
	reg := NewRegistry(WithMaxPageSize(32))

	var sprites []*sprite
	for c := 0; c < 4; c++ {
		b := NewBuilder(fmt.Sprintf("cat%d", c), WithMaxPageSize(32))
		for i := 0; i < 3; i++ {
			s := newSprite(fmt.Sprintf("c%d-%d", c, i), 6+i, 4+c, byte(c*40+i*7))
			if _, err := b.Add(s.w, s.h, s.pix, s); err != nil {
				t.Fatalf("Add: %v", err)
			}
			sprites = append(sprites, s)
		}
		if err := reg.Register(b); err != nil {
			t.Fatal(err)
		}
	}

	pages, err := reg.Finalize(dev)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	// Used heights 4+5+6+7 = 22 fit within 32: one stacked page.
	if len(pages) != 1 || pages[0].Sources != 4 {
		t.Fatalf("pages = %d (sources %d), want 1 page from 4 workspaces", len(pages), pages[0].Sources)
	}

	for _, s := range sprites {
		if s.called != 1 {
			t.Fatalf("%s: owner called %d times, want 1", s.name, s.called)
		}
		if s.rect.Dx()*s.rect.Dy() != s.w*s.h {
			t.Errorf("%s: rect area = %d, want %d", s.name, s.rect.Dx()*s.rect.Dy(), s.w*s.h)
		}
		tex := s.page.Texture.(*soft.Texture)
		if !s.rect.In(tex.Bounds()) {
			t.Fatalf("%s: rect %v outside page %v", s.name, s.rect, tex.Bounds())
		}
		for y := 0; y < s.h; y++ {
			for x := 0; x < s.w; x++ {
				got := tex.PixelAt(s.rect.Min.X+x, s.rect.Min.Y+y)[0]
				if want := s.pix[y*s.w+x]; got != want {
					t.Fatalf("%s: pixel (%d,%d) = %d, want %d", s.name, x, y, got, want)
				}
			}
		}
	}
	if got := dev.LiveTextures(); got != 1 {
		t.Errorf("live textures = %d, want 1 (phase 1 textures released)", got)
	}
}

func TestFinalizeStacksUntilPageLimit(t *testing.T) {
	dev := soft.New()
	reg := NewRegistry(WithMaxPageSize(100))
	heights := []int{60, 30, 50, 100}
	for i, h := range heights {
		b := NewBuilder(fmt.Sprintf("b%d", i), WithMaxPageSize(100))
		if _, err := b.Add(10, h, make([]byte, 10*h), nil); err != nil {
			t.Fatal(err)
		}
		_ = reg.Register(b)
	}
	pages, err := reg.Finalize(dev)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	wantHeights := []int{90, 50, 100}
	if len(pages) != len(wantHeights) {
		t.Fatalf("pages = %d, want %d", len(pages), len(wantHeights))
	}
	for i, p := range pages {
		if p.Height() != wantHeights[i] {
			t.Errorf("page %d height = %d, want %d", i, p.Height(), wantHeights[i])
		}
		if p.Width() != 10 {
			t.Errorf("page %d width = %d, want exact used width 10", i, p.Width())
		}
	}
}

func TestFinalizeYOffsets(t *testing.T) {
	dev := soft.New()
	reg := NewRegistry(WithMaxPageSize(64))
	first := newSprite("first", 8, 10, 1)
	second := newSprite("second", 4, 6, 2)

	a := NewBuilder("a", WithMaxPageSize(64))
	_, _ = a.Add(first.w, first.h, first.pix, first)
	b := NewBuilder("b", WithMaxPageSize(64))
	_, _ = b.Add(second.w, second.h, second.pix, second)
	// Registration order must not matter.
	_ = reg.Register(b)
	_ = reg.Register(a)

	if _, err := reg.Finalize(dev); err != nil {
		t.Fatal(err)
	}
	if first.rect != image.Rect(0, 0, 8, 10) {
		t.Errorf("first rect = %v, want (0,0)-(8,10)", first.rect)
	}
	if second.rect != image.Rect(0, 10, 4, 16) {
		t.Errorf("second rect = %v, want (0,10)-(4,16)", second.rect)
	}
	if first.page != second.page {
		t.Error("sprites on different pages, want one stacked page")
	}
}

func TestBuilderRetiresFullWorkspace(t *testing.T) {
	b := NewBuilder("units", WithMaxPageSize(16))
	for i := 0; i < 5; i++ {
		if _, err := b.Add(16, 8, make([]byte, 128), nil); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(b.Workspaces()); got != 3 {
		t.Errorf("workspaces = %d, want 3", got)
	}
}

func TestBuilderOverflowReported(t *testing.T) {
	b := NewBuilder("huge", WithMaxPageSize(16))
	_, err := b.Add(17, 4, make([]byte, 68), &sprite{name: "tower"})
	var oe *OverflowError
	if !errors.As(err, &oe) {
		t.Fatalf("err = %v, want *OverflowError", err)
	}
	if oe.Owner != "tower" {
		t.Errorf("Owner = %q, want tower", oe.Owner)
	}
}

func TestRegistryFinalizeOnce(t *testing.T) {
	dev := soft.New()
	reg := NewRegistry()
	if _, err := reg.Finalize(dev); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Finalize(dev); !errors.Is(err, ErrFinalized) {
		t.Errorf("second Finalize err = %v, want ErrFinalized", err)
	}
	if err := reg.Register(NewBuilder("late")); !errors.Is(err, ErrFinalized) {
		t.Errorf("late Register err = %v, want ErrFinalized", err)
	}
}

func TestLoadRunsCategoriesConcurrently(t *testing.T) {
	dev := soft.New()
	reg := NewRegistry(WithMaxPageSize(256))

	var mu sync.Mutex
	var owners []*sprite
	var loaders []Loader
	for c := 0; c < 8; c++ {
		name := fmt.Sprintf("category%d", c)
		loaders = append(loaders, Loader{Name: name, Load: func(_ context.Context, b *Builder) error {
			for i := 0; i < 20; i++ {
				s := newSprite(fmt.Sprintf("%s/%d", name, i), 10, 10, byte(i))
				if _, err := b.Add(s.w, s.h, s.pix, s); err != nil {
					return err
				}
				mu.Lock()
				owners = append(owners, s)
				mu.Unlock()
			}
			return nil
		}})
	}
	if err := Load(context.Background(), reg, loaders...); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := reg.Finalize(dev); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	for _, s := range owners {
		if s.page == nil {
			t.Fatalf("%s not placed", s.name)
		}
	}
	if len(owners) != 160 {
		t.Errorf("owners = %d, want 160", len(owners))
	}
}

func TestLoadPropagatesFailure(t *testing.T) {
	reg := NewRegistry(WithMaxPageSize(16))
	boom := errors.New("boom")
	err := Load(context.Background(), reg,
		Loader{Name: "ok", Load: func(context.Context, *Builder) error { return nil }},
		Loader{Name: "bad", Load: func(context.Context, *Builder) error { return boom }},
	)
	if !errors.Is(err, boom) {
		t.Errorf("Load err = %v, want boom", err)
	}
}

func TestFinalizeRejectsPagesLargerThanDevice(t *testing.T) {
	dev := soft.New(soft.WithLimits(gpu.Limits{MaxTextureDimension: 8, MaxVertices: 64}))
	reg := NewRegistry(WithMaxPageSize(32))
	b := NewBuilder("big", WithMaxPageSize(32))
	_, _ = b.Add(20, 4, make([]byte, 80), nil)
	_ = reg.Register(b)
	if _, err := reg.Finalize(dev); !errors.Is(err, ErrAtlasOverflow) {
		t.Errorf("err = %v, want ErrAtlasOverflow", err)
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("live textures = %d after failure, want 0", dev.LiveTextures())
	}
}
