// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"cmp"
	"image"
	"image/color"
	"slices"

	"github.com/gogpu/isomap/batch"
	"github.com/gogpu/isomap/record"
)

// groundBias lifts flat decals and shadows above the terrain they lie on
// so interpolation noise never fails the GreaterEqual test.
const groundBias = 1.0 / 65536

// shadowTint is the color shadows are recorded with. EffectShadow only
// uses its alpha.
var shadowTint = color.NRGBA{A: 128}

// DrawParams is the screen placement of one object.
type DrawParams struct {
	Dest image.Rectangle
	// ReferenceY is the ground row used for depth.
	ReferenceY float64
	// SortY and SortX order objects within the object pass.
	SortY, SortX float64
}

// ObjectRenderer is the per-category drawing capability.
type ObjectRenderer interface {
	DrawParams(o *Object) DrawParams
	DepthFromPosition(depth DepthFunc, o *Object, p DrawParams) batch.DepthRect
	ShadowDepth(depth DepthFunc, o *Object, p DrawParams) batch.DepthRect
	Render(ctx *DrawContext, o *Object, p DrawParams) error
}

// DrawContext is what renderers record into.
type DrawContext struct {
	Recorder *record.Recorder
	Depth    DepthFunc
	Arena    *Arena
	Shadows  bool

	rendererFor func(Category) ObjectRenderer
}

// RendererFor returns the renderer registered for c. It panics with
// ErrMissingRenderer when there is none.
func (ctx *DrawContext) RendererFor(c Category) ObjectRenderer {
	return ctx.rendererFor(c)
}

// AddSprite records s covering dest.
func (ctx *DrawContext) AddSprite(s Sprite, dest image.Rectangle, depth batch.DepthRect, tint, remap color.NRGBA) error {
	return ctx.Recorder.AddGraphicsEntry(record.GraphicsEntry{
		Texture:    s.Texture,
		Palette:    s.Palette,
		UseRemap:   s.Remap && s.Palette != nil,
		RemapColor: remap,
		Source:     s.Source,
		Dest:       dest,
		Color:      tint,
		Depth:      depth,
	})
}

// AddShadow records s as a shadow covering dest.
func (ctx *DrawContext) AddShadow(s Sprite, dest image.Rectangle, depth batch.DepthRect) error {
	return ctx.Recorder.AddGraphicsEntry(record.GraphicsEntry{
		Texture: s.Texture,
		Source:  s.Source,
		Dest:    dest,
		Color:   shadowTint,
		Depth:   depth,
		Shadow:  true,
	})
}

// standingDepth is the depth of a sprite standing on referenceY.
func standingDepth(depth DepthFunc, dest image.Rectangle, referenceY float64, cell CellRef) batch.DepthRect {
	return batch.VerticalDepth(
		depth(float64(dest.Min.Y), referenceY, cell),
		depth(float64(dest.Max.Y), referenceY, cell))
}

// groundDepth is the depth of a sprite lying flat on the ground.
func groundDepth(depth DepthFunc, dest image.Rectangle, cell CellRef) batch.DepthRect {
	top, bottom := float64(dest.Min.Y), float64(dest.Max.Y)
	return batch.VerticalDepth(
		min(depth(top, top, cell)+groundBias, 1),
		min(depth(bottom, bottom, cell)+groundBias, 1))
}

// SpriteRenderer draws any object described by a single sprite and an
// optional shadow.
type SpriteRenderer struct{}

// DrawParams implements ObjectRenderer.
func (SpriteRenderer) DrawParams(o *Object) DrawParams {
	return DrawParams{
		Dest:       o.Sprite.Dest(o.Anchor),
		ReferenceY: float64(o.Anchor.Y),
		SortY:      float64(o.Anchor.Y),
		SortX:      float64(o.Anchor.X),
	}
}

// DepthFromPosition implements ObjectRenderer.
func (SpriteRenderer) DepthFromPosition(depth DepthFunc, o *Object, p DrawParams) batch.DepthRect {
	if o.decal() {
		return groundDepth(depth, p.Dest, o.Cell)
	}
	return standingDepth(depth, p.Dest, p.ReferenceY, o.Cell)
}

// ShadowDepth implements ObjectRenderer.
func (SpriteRenderer) ShadowDepth(depth DepthFunc, o *Object, _ DrawParams) batch.DepthRect {
	return groundDepth(depth, o.Shadow.Dest(o.Anchor), o.Cell)
}

// Render implements ObjectRenderer.
func (r SpriteRenderer) Render(ctx *DrawContext, o *Object, p DrawParams) error {
	if ctx.Shadows && o.Shadow.Valid() {
		if err := ctx.AddShadow(o.Shadow, o.Shadow.Dest(o.Anchor), r.ShadowDepth(ctx.Depth, o, p)); err != nil {
			return err
		}
	}
	if !o.Sprite.Valid() {
		return nil
	}
	return ctx.AddSprite(o.Sprite, p.Dest, r.DepthFromPosition(ctx.Depth, o, p), o.tint(), o.RemapColor)
}

// BuildingRenderer draws a building with its bib, attached animations and
// turret. Depth and sort position come from the foundation.
type BuildingRenderer struct {
	SpriteRenderer
}

// DrawParams implements ObjectRenderer.
func (r BuildingRenderer) DrawParams(o *Object) DrawParams {
	p := r.SpriteRenderer.DrawParams(o)
	if f := o.Foundation; !f.IsZero() {
		p.ReferenceY = float64(f.Bottom.Y)
		p.SortY = p.ReferenceY
		p.SortX = float64(f.Left.X+f.Right.X) / 2
	}
	return p
}

// Render implements ObjectRenderer. Parts are recorded bib, animations with
// a negative sort key, body, remaining animations, turret.
func (r BuildingRenderer) Render(ctx *DrawContext, o *Object, p DrawParams) error {
	if ctx.Shadows && o.Shadow.Valid() {
		if err := ctx.AddShadow(o.Shadow, o.Shadow.Dest(o.Anchor), r.ShadowDepth(ctx.Depth, o, p)); err != nil {
			return err
		}
	}
	tint := o.tint()
	if o.Bib.Valid() {
		dest := o.Bib.Dest(o.Anchor)
		if err := ctx.AddSprite(o.Bib, dest, standingDepth(ctx.Depth, dest, p.ReferenceY, o.Cell), tint, o.RemapColor); err != nil {
			return err
		}
	}

	anims := attached(ctx.Arena, o)
	split, _ := slices.BinarySearchFunc(anims, 0, func(a *Object, k int) int { return cmp.Compare(a.SortKey, k) })
	for _, a := range anims[:split] {
		if err := renderAttached(ctx, a, p); err != nil {
			return err
		}
	}

	if o.Sprite.Valid() {
		if err := r.renderBody(ctx, o, p, tint); err != nil {
			return err
		}
	}

	for _, a := range anims[split:] {
		if err := renderAttached(ctx, a, p); err != nil {
			return err
		}
	}

	if o.Turret.Valid() {
		dest := o.Turret.Dest(o.Anchor)
		if err := ctx.AddSprite(o.Turret, dest, standingDepth(ctx.Depth, dest, p.ReferenceY, o.Cell), tint, o.RemapColor); err != nil {
			return err
		}
	}
	return nil
}

// renderBody records the body, split at the foundation's bottom corner
// when requested so each half gets the depth of its own front edge.
func (r BuildingRenderer) renderBody(ctx *DrawContext, o *Object, p DrawParams, tint color.NRGBA) error {
	f := o.Foundation
	splitX := f.Bottom.X
	if !o.SplitBody || f.IsZero() || splitX <= p.Dest.Min.X || splitX >= p.Dest.Max.X {
		return ctx.AddSprite(o.Sprite, p.Dest, r.DepthFromPosition(ctx.Depth, o, p), tint, o.RemapColor)
	}

	top, bottom := float64(p.Dest.Min.Y), float64(p.Dest.Max.Y)
	at := func(y float64, ref int) float32 { return ctx.Depth(y, float64(ref), o.Cell) }

	left := p.Dest
	left.Max.X = splitX
	leftDepth := batch.DepthRect{
		TopLeft:     at(top, f.Left.Y),
		TopRight:    at(top, f.Bottom.Y),
		BottomLeft:  at(bottom, f.Left.Y),
		BottomRight: at(bottom, f.Bottom.Y),
	}
	if err := ctx.AddSprite(subSprite(o.Sprite, p.Dest, left), left, leftDepth, tint, o.RemapColor); err != nil {
		return err
	}

	right := p.Dest
	right.Min.X = splitX
	rightDepth := batch.DepthRect{
		TopLeft:     at(top, f.Bottom.Y),
		TopRight:    at(top, f.Right.Y),
		BottomLeft:  at(bottom, f.Bottom.Y),
		BottomRight: at(bottom, f.Right.Y),
	}
	return ctx.AddSprite(subSprite(o.Sprite, p.Dest, right), right, rightDepth, tint, o.RemapColor)
}

// subSprite returns s restricted to the part drawn at part within dest.
func subSprite(s Sprite, dest, part image.Rectangle) Sprite {
	off := part.Min.Sub(dest.Min)
	s.Source = image.Rectangle{Min: s.Source.Min.Add(off), Max: s.Source.Min.Add(off).Add(part.Size())}
	return s
}

// attached returns the building's live animations ordered by sort key.
func attached(a *Arena, b *Object) []*Object {
	if a == nil || len(b.Anims) == 0 {
		return nil
	}
	anims := make([]*Object, 0, len(b.Anims))
	for _, id := range b.Anims {
		if o, ok := a.Get(id); ok {
			anims = append(anims, o)
		}
	}
	slices.SortStableFunc(anims, func(x, y *Object) int { return cmp.Compare(x.SortKey, y.SortKey) })
	return anims
}

// renderAttached draws an animation with its building's depth reference.
func renderAttached(ctx *DrawContext, anim *Object, building DrawParams) error {
	r := ctx.RendererFor(anim.Category)
	p := r.DrawParams(anim)
	p.ReferenceY = building.ReferenceY
	p.SortY, p.SortX = building.SortY, building.SortX
	return r.Render(ctx, anim, p)
}
