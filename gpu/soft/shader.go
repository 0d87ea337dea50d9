// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/isomap/gpu"
)

// shader is the per-draw resolved effect.
type shader struct {
	mode      gpu.EffectMode
	tex       *Texture
	palette   *Texture
	secondary *Texture
	remap     [3]float64
	linear    bool
}

func (d *Device) newShader(tex *Texture) (*shader, error) {
	e := &d.effect
	sh := &shader{
		mode:   e.Mode,
		tex:    tex,
		linear: d.state.Filter == gputypes.FilterModeLinear,
		remap: [3]float64{
			float64(e.RemapColor.R) / 255,
			float64(e.RemapColor.G) / 255,
			float64(e.RemapColor.B) / 255,
		},
	}
	if e.Palette != nil {
		p, err := d.own(e.Palette)
		if err != nil {
			return nil, fmt.Errorf("palette: %w", err)
		}
		sh.palette = p
	}
	if e.Mode == gpu.EffectLightMask {
		if e.Secondary == nil {
			return nil, fmt.Errorf("soft: light mask effect without a secondary texture")
		}
		s, err := d.own(e.Secondary)
		if err != nil {
			return nil, fmt.Errorf("secondary: %w", err)
		}
		sh.secondary = s
	}
	if e.Mode.Paletted() && tex.format != gpu.FormatIndexed8 {
		return nil, fmt.Errorf("soft: effect %d needs an indexed texture, got %s", e.Mode, tex.format)
	}
	return sh, nil
}

// color evaluates the effect for a fragment. It reports false when the
// fragment is discarded.
func (sh *shader) color(f *fragment) ([4]float64, bool) {
	tint := f.c
	switch sh.mode {
	case gpu.EffectPaletted, gpu.EffectRemap:
		idx := sh.index(f.u, f.v)
		if idx == 0 {
			return [4]float64{}, false
		}
		p := sh.paletteColor(idx)
		if sh.mode == gpu.EffectRemap && idx >= gpu.RemapFirst && idx <= gpu.RemapLast {
			lum := max(p[0], p[1], p[2])
			p[0], p[1], p[2] = sh.remap[0]*lum, sh.remap[1]*lum, sh.remap[2]*lum
		}
		return mul(p, tint), true

	case gpu.EffectShadow:
		if sh.index(f.u, f.v) == 0 {
			return [4]float64{}, false
		}
		return [4]float64{0, 0, 0, tint[3]}, true

	case gpu.EffectCoverage:
		cov := float64(sh.index(f.u, f.v)) / 255
		if cov == 0 {
			return [4]float64{}, false
		}
		return [4]float64{tint[0], tint[1], tint[2], tint[3] * cov}, true

	case gpu.EffectCopy:
		return sh.sample(sh.tex, f.u, f.v), true

	case gpu.EffectLightMask:
		c := sh.sample(sh.tex, f.u, f.v)
		m := sh.sample(sh.secondary, f.u, f.v)
		return [4]float64{c[0] * m[0], c[1] * m[1], c[2] * m[2], c[3]}, true

	default:
		c := sh.sample(sh.tex, f.u, f.v)
		if c[3] == 0 {
			return [4]float64{}, false
		}
		return mul(c, tint), true
	}
}

func mul(a, b [4]float64) [4]float64 {
	return [4]float64{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

// texel returns integer texel coordinates for normalized (u, v), clamped.
func texel(t *Texture, u, v float64) (int, int) {
	x := int(math.Floor(u * float64(t.width)))
	y := int(math.Floor(v * float64(t.height)))
	return min(max(x, 0), t.width-1), min(max(y, 0), t.height-1)
}

// index reads a single-byte texel with nearest filtering.
func (sh *shader) index(u, v float64) uint8 {
	x, y := texel(sh.tex, u, v)
	return sh.tex.pix[(y*sh.tex.width+x)*sh.tex.format.BytesPerPixel()]
}

func (sh *shader) paletteColor(idx uint8) [4]float64 {
	if sh.palette == nil || sh.palette.format != gpu.FormatRGBA8 || sh.palette.width < 256 {
		g := float64(idx) / 255
		return [4]float64{g, g, g, 1}
	}
	p := sh.palette.pix[int(idx)*4:]
	return [4]float64{float64(p[0]) / 255, float64(p[1]) / 255, float64(p[2]) / 255, float64(p[3]) / 255}
}

// sample reads t as RGBA, honoring the sampler filter. Single-byte formats
// read as opaque gray.
func (sh *shader) sample(t *Texture, u, v float64) [4]float64 {
	if !sh.linear {
		x, y := texel(t, u, v)
		return fetch(t, x, y)
	}
	fx := u*float64(t.width) - 0.5
	fy := v*float64(t.height) - 0.5
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	ax, ay := fx-float64(x0), fy-float64(y0)
	clampX := func(x int) int { return min(max(x, 0), t.width-1) }
	clampY := func(y int) int { return min(max(y, 0), t.height-1) }
	c00 := fetch(t, clampX(x0), clampY(y0))
	c10 := fetch(t, clampX(x0+1), clampY(y0))
	c01 := fetch(t, clampX(x0), clampY(y0+1))
	c11 := fetch(t, clampX(x0+1), clampY(y0+1))
	var out [4]float64
	for i := range out {
		top := c00[i]*(1-ax) + c10[i]*ax
		bottom := c01[i]*(1-ax) + c11[i]*ax
		out[i] = top*(1-ay) + bottom*ay
	}
	return out
}

func fetch(t *Texture, x, y int) [4]float64 {
	if t.format != gpu.FormatRGBA8 {
		g := float64(t.pix[y*t.width+x]) / 255
		return [4]float64{g, g, g, 1}
	}
	p := t.pix[(y*t.width+x)*4:]
	return [4]float64{float64(p[0]) / 255, float64(p[1]) / 255, float64(p[2]) / 255, float64(p[3]) / 255}
}
