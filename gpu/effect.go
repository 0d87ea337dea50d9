// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "image/color"

// EffectMode selects how the sprite shader turns a texel into a color.
type EffectMode uint32

const (
	// EffectDirect samples an RGBA8 texture and multiplies by the tint.
	// Fully transparent texels are discarded.
	EffectDirect EffectMode = iota

	// EffectPaletted looks an Indexed8 texel up in Palette. Index 0 is
	// discarded, so it writes neither depth nor stencil.
	EffectPaletted

	// EffectRemap is EffectPaletted with indices RemapFirst..RemapLast
	// recolored by RemapColor scaled by the palette entry's brightness.
	EffectRemap

	// EffectShadow draws every non-zero Indexed8 texel as black with the
	// tint's alpha.
	EffectShadow

	// EffectCoverage treats an Alpha8 texel as coverage of the tint.
	EffectCoverage

	// EffectCopy samples an RGBA8 texture unmodified, without discarding.
	EffectCopy

	// EffectLightMask multiplies the RGBA8 texel by the Secondary texel at
	// the same coordinates.
	EffectLightMask
)

// Remap index range used by EffectRemap.
const (
	RemapFirst = 16
	RemapLast  = 31
)

// Effect holds shader parameters. Projection is column-major and maps
// target pixels to clip space; the batch pool fills it.
type Effect struct {
	Mode       EffectMode
	Projection [16]float32
	Palette    Texture
	Secondary  Texture
	RemapColor color.NRGBA
}

// Paletted reports whether the mode reads Indexed8 texels.
func (m EffectMode) Paletted() bool {
	return m == EffectPaletted || m == EffectRemap || m == EffectShadow
}
