// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/internal/logging"
)

// DefaultVertexCeiling is the largest vertex count addressable by 16-bit
// indices.
const DefaultVertexCeiling = 65536

// DefaultInitialQuads is the size a fresh batch starts at.
const DefaultInitialQuads = 64

// Stats counts pool activity since creation.
type Stats struct {
	DrawCalls        int
	Quads            int
	BatchesAllocated int
}

// Option configures a Pool.
type Option func(*poolOptions)

type poolOptions struct {
	ceiling      int
	initialQuads int
}

// WithVertexCeiling caps the vertices one draw may submit. The value is
// rounded down to a whole number of quads and clamped to the device limit.
func WithVertexCeiling(n int) Option {
	return func(o *poolOptions) { o.ceiling = n }
}

// WithInitialQuads sets the number of quads a new batch has room for.
func WithInitialQuads(n int) Option {
	return func(o *poolOptions) { o.initialQuads = n }
}

// Pool owns the queued and free batches. It is used from the render
// goroutine only.
type Pool struct {
	dev          gpu.Device
	maxQuads     int
	initialQuads int

	queued []*QuadBatch
	free   []*QuadBatch

	begun  bool
	state  gpu.RenderState
	effect gpu.Effect
	stats  Stats
}

// NewPool creates a pool drawing through dev.
func NewPool(dev gpu.Device, opts ...Option) *Pool {
	o := poolOptions{ceiling: DefaultVertexCeiling, initialQuads: DefaultInitialQuads}
	for _, opt := range opts {
		opt(&o)
	}
	if lim := dev.Limits().MaxVertices; lim > 0 && lim < o.ceiling {
		o.ceiling = lim
	}
	maxQuads := max(o.ceiling/gpu.VerticesPerQuad, 1)
	return &Pool{
		dev:          dev,
		maxQuads:     maxQuads,
		initialQuads: min(max(o.initialQuads, 1), maxQuads),
	}
}

// VertexCeiling returns the effective per-draw vertex limit.
func (p *Pool) VertexCeiling() int { return p.maxQuads * gpu.VerticesPerQuad }

// Stats returns accumulated counters.
func (p *Pool) Stats() Stats { return p.stats }

// Begun reports whether a Begin is pending its End.
func (p *Pool) Begun() bool { return p.begun }

// Begin opens a bracket. state and effect apply to every batch submitted
// by the matching End. Calling Begin twice panics with ErrBatchUsage.
func (p *Pool) Begin(state gpu.RenderState, effect gpu.Effect) {
	if p.begun {
		panic(fmt.Errorf("%w: Begin called twice", ErrBatchUsage))
	}
	p.begun = true
	p.state = state
	p.effect = effect
}

// Draw queues a quad covering dst that samples src of tex.
func (p *Pool) Draw(tex gpu.Texture, dst, src image.Rectangle, c color.NRGBA, depth DepthRect) {
	q := RectQuad(dst, src, tex.Width(), tex.Height(), c, depth)
	p.DrawQuad(tex, &q)
}

// DrawCustom is Draw with an opaque per-vertex vector for the shader.
func (p *Pool) DrawCustom(tex gpu.Texture, dst, src image.Rectangle, c color.NRGBA, depth DepthRect, custom [4]float32) {
	q := RectQuad(dst, src, tex.Width(), tex.Height(), c, depth)
	q.Custom = custom
	p.DrawQuad(tex, &q)
}

// DrawQuad queues an arbitrary quad.
func (p *Pool) DrawQuad(tex gpu.Texture, q *Quad) {
	if !p.begun {
		panic(fmt.Errorf("%w: Draw without Begin", ErrBatchUsage))
	}
	b := p.batchFor(tex)
	b.add(q)
}

// batchFor returns a queued batch for tex with room for one quad. The
// search walks back from the newest batch and stops at the first one bound
// to tex; if that one is at the ceiling a new batch is started.
func (p *Pool) batchFor(tex gpu.Texture) *QuadBatch {
	for i := len(p.queued) - 1; i >= 0; i-- {
		b := p.queued[i]
		if b.texture != tex {
			continue
		}
		if b.reserve(p.initialQuads, p.maxQuads) {
			return b
		}
		break
	}
	b := p.acquire()
	b.texture = tex
	b.reserve(p.initialQuads, p.maxQuads)
	p.queued = append(p.queued, b)
	return b
}

func (p *Pool) acquire() *QuadBatch {
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		if debugChecks && (b.texture != nil || b.quadCount != 0) {
			panic(fmt.Errorf("%w: texture=%v quads=%d", ErrStaleBatch, b.texture, b.quadCount))
		}
		return b
	}
	p.stats.BatchesAllocated++
	return &QuadBatch{}
}

// Queued returns the batches queued since Begin, in creation order. The
// slice is only valid until End.
func (p *Pool) Queued() []*QuadBatch { return p.queued }

// End submits every queued batch in creation order with one shared
// orthographic projection for the bound target, one draw per batch, then
// recycles the batches. On a draw error the remaining batches are
// recycled unsubmitted and the error is returned.
func (p *Pool) End() error {
	if !p.begun {
		panic(fmt.Errorf("%w: End without Begin", ErrBatchUsage))
	}
	p.begun = false
	defer p.recycle()

	if len(p.queued) == 0 {
		return nil
	}
	vp := p.dev.Viewport()
	effect := p.effect
	effect.Projection = Ortho(vp.Dx(), vp.Dy())
	p.dev.SetState(p.state)

	for i, b := range p.queued {
		p.dev.SetEffect(effect)
		n := b.quadCount
		err := p.dev.DrawIndexed(b.texture,
			b.vertices[:n*gpu.VerticesPerQuad],
			b.indices[:n*gpu.IndicesPerQuad])
		if err != nil {
			return fmt.Errorf("batch %d (%s): %w", i, b.texture.Label(), err)
		}
		p.stats.DrawCalls++
		p.stats.Quads += n
	}
	logging.L().Debug("batch: submitted", "batches", len(p.queued), "mode", p.effect.Mode)
	return nil
}

func (p *Pool) recycle() {
	for i, b := range p.queued {
		b.reset()
		p.free = append(p.free, b)
		p.queued[i] = nil
	}
	p.queued = p.queued[:0]
}
