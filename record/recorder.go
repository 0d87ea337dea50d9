// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import (
	"fmt"

	"github.com/gogpu/isomap/batch"
	"github.com/gogpu/isomap/gpu"
)

// FlushStates are the render states Flush uses per bucket.
type FlushStates struct {
	Lines   gpu.RenderState
	Sprites gpu.RenderState
	Shadows gpu.RenderState
	Text    gpu.RenderState

	SkipShadows bool
}

// group is the ordered entry list of one PaletteKey.
type group struct {
	key     PaletteKey
	entries []GraphicsEntry
}

// Counts reports how many entries each bucket holds.
type Counts struct {
	Lines       int
	Groups      int
	Paletted    int
	NonPaletted int
	Shadows     int
	Text        int
}

// Recorder collects one frame's draw requests. It is not safe for
// concurrent use.
type Recorder struct {
	white gpu.Texture

	lines       []LineEntry
	groups      map[PaletteKey]*group
	order       []*group
	spare       []*group
	nonPaletted []GraphicsEntry
	shadows     []GraphicsEntry
	texts       []TextEntry
}

// New returns a recorder that draws lines with white, a 1x1 opaque RGBA8
// texture owned by the caller.
func New(white gpu.Texture) *Recorder {
	return &Recorder{white: white, groups: make(map[PaletteKey]*group)}
}

// AddGraphicsEntry classifies e into the shadow, non-paletted or paletted
// bucket.
func (r *Recorder) AddGraphicsEntry(e GraphicsEntry) error {
	if e.Texture == nil {
		return ErrNilTexture
	}
	switch e.Kind() {
	case KindShadow:
		r.shadows = append(r.shadows, e)
	case KindNonPaletted:
		r.nonPaletted = append(r.nonPaletted, e)
	default:
		k := e.key()
		g, ok := r.groups[k]
		if !ok {
			g = r.newGroup(k)
			r.groups[k] = g
			r.order = append(r.order, g)
		}
		g.entries = append(g.entries, e)
	}
	return nil
}

func (r *Recorder) newGroup(k PaletteKey) *group {
	if n := len(r.spare); n > 0 {
		g := r.spare[n-1]
		r.spare = r.spare[:n-1]
		g.key = k
		return g
	}
	return &group{key: k}
}

// AddTextEntry appends a label.
func (r *Recorder) AddTextEntry(e TextEntry) error {
	if e.Texture == nil {
		return ErrNilTexture
	}
	r.texts = append(r.texts, e)
	return nil
}

// AddLineEntry appends a line segment.
func (r *Recorder) AddLineEntry(e LineEntry) {
	r.lines = append(r.lines, e)
}

// Clear empties every bucket. Shadows survive when preserveShadows is set.
func (r *Recorder) Clear(preserveShadows bool) {
	r.lines = r.lines[:0]
	for _, g := range r.order {
		clear(g.entries)
		g.entries = g.entries[:0]
		delete(r.groups, g.key)
		g.key = PaletteKey{}
		r.spare = append(r.spare, g)
	}
	clear(r.order)
	r.order = r.order[:0]
	clear(r.nonPaletted)
	r.nonPaletted = r.nonPaletted[:0]
	clear(r.texts)
	r.texts = r.texts[:0]
	if !preserveShadows {
		clear(r.shadows)
		r.shadows = r.shadows[:0]
	}
}

// Counts returns the current bucket sizes.
func (r *Recorder) Counts() Counts {
	c := Counts{
		Lines:       len(r.lines),
		Groups:      len(r.order),
		NonPaletted: len(r.nonPaletted),
		Shadows:     len(r.shadows),
		Text:        len(r.texts),
	}
	for _, g := range r.order {
		c.Paletted += len(g.entries)
	}
	return c
}

// Empty reports whether nothing is recorded.
func (r *Recorder) Empty() bool { return r.Counts() == Counts{} }

// Flush draws everything recorded through pool into the bound target in
// the order lines, paletted groups, non-paletted sprites, shadows, text.
// Flush does not clear the recorder.
func (r *Recorder) Flush(pool *batch.Pool, s FlushStates) error {
	if len(r.lines) > 0 {
		if r.white == nil {
			return fmt.Errorf("record: lines: %w", ErrNilTexture)
		}
		pool.Begin(s.Lines, gpu.Effect{Mode: gpu.EffectDirect})
		for i := range r.lines {
			if q, ok := r.lines[i].quad(); ok {
				pool.DrawQuad(r.white, &q)
			}
		}
		if err := pool.End(); err != nil {
			return fmt.Errorf("record: lines: %w", err)
		}
	}

	for _, g := range r.order {
		effect := gpu.Effect{Mode: gpu.EffectPaletted, Palette: g.key.Palette}
		if g.key.UseRemap {
			effect.Mode = gpu.EffectRemap
			effect.RemapColor = g.key.RemapColor
		}
		if err := drawEntries(pool, s.Sprites, effect, g.entries); err != nil {
			return fmt.Errorf("record: paletted group: %w", err)
		}
	}

	if err := drawEntries(pool, s.Sprites, gpu.Effect{Mode: gpu.EffectDirect}, r.nonPaletted); err != nil {
		return fmt.Errorf("record: sprites: %w", err)
	}

	if !s.SkipShadows {
		if err := drawEntries(pool, s.Shadows, gpu.Effect{Mode: gpu.EffectShadow}, r.shadows); err != nil {
			return fmt.Errorf("record: shadows: %w", err)
		}
	}

	if len(r.texts) > 0 {
		pool.Begin(s.Text, gpu.Effect{Mode: gpu.EffectCoverage})
		for _, t := range r.texts {
			pool.Draw(t.Texture, t.Dest, t.Source, t.Color, batch.FlatDepth(t.Depth))
		}
		if err := pool.End(); err != nil {
			return fmt.Errorf("record: text: %w", err)
		}
	}
	return nil
}

func drawEntries(pool *batch.Pool, state gpu.RenderState, effect gpu.Effect, entries []GraphicsEntry) error {
	if len(entries) == 0 {
		return nil
	}
	pool.Begin(state, effect)
	for i := range entries {
		e := &entries[i]
		pool.DrawCustom(e.Texture, e.Dest, e.Source, e.Color, e.Depth, e.Custom)
	}
	return pool.End()
}
