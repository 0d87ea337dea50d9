// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"math"

	"github.com/gogpu/gputypes"
)

// compareDepth evaluates fn(fragment, stored). Undefined means Always.
func compareDepth(fn gputypes.CompareFunction, frag, stored float32) bool {
	return compare(fn, float64(frag), float64(stored))
}

// compareStencil evaluates fn(reference, stored).
func compareStencil(fn gputypes.CompareFunction, ref, stored uint8) bool {
	return compare(fn, float64(ref), float64(stored))
}

func compare(fn gputypes.CompareFunction, a, b float64) bool {
	switch fn {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return a < b
	case gputypes.CompareFunctionEqual:
		return a == b
	case gputypes.CompareFunctionLessEqual:
		return a <= b
	case gputypes.CompareFunctionGreater:
		return a > b
	case gputypes.CompareFunctionNotEqual:
		return a != b
	case gputypes.CompareFunctionGreaterEqual:
		return a >= b
	default:
		return true
	}
}

// stencilOp computes the new stencil value, honoring the write mask.
func stencilOp(op gputypes.StencilOperation, stored, ref, writeMask uint8) uint8 {
	var v uint8
	switch op {
	case gputypes.StencilOperationZero:
		v = 0
	case gputypes.StencilOperationReplace:
		v = ref
	case gputypes.StencilOperationInvert:
		v = ^stored
	case gputypes.StencilOperationIncrementClamp:
		v = stored
		if v < math.MaxUint8 {
			v++
		}
	case gputypes.StencilOperationDecrementClamp:
		v = stored
		if v > 0 {
			v--
		}
	case gputypes.StencilOperationIncrementWrap:
		v = stored + 1
	case gputypes.StencilOperationDecrementWrap:
		v = stored - 1
	default:
		return stored
	}
	return (stored &^ writeMask) | (v & writeMask)
}

// blend combines src (straight RGBA in 0..1) with the destination pixel and
// stores the result.
func (d *Device) blend(dst []byte, src [4]float64) {
	mask := d.state.WriteMask
	if mask == gputypes.ColorWriteMaskNone {
		return
	}
	dc := [4]float64{
		float64(dst[0]) / 255,
		float64(dst[1]) / 255,
		float64(dst[2]) / 255,
		float64(dst[3]) / 255,
	}
	out := src
	if bs := d.state.Blend; bs != (gputypes.BlendState{}) {
		for i := 0; i < 3; i++ {
			out[i] = blendComponent(bs.Color, src[i], dc[i], src, dc)
		}
		out[3] = blendComponent(bs.Alpha, src[3], dc[3], src, dc)
	}
	channels := [4]gputypes.ColorWriteMask{
		gputypes.ColorWriteMaskRed,
		gputypes.ColorWriteMaskGreen,
		gputypes.ColorWriteMaskBlue,
		gputypes.ColorWriteMaskAlpha,
	}
	for i, ch := range channels {
		if mask&ch != 0 {
			dst[i] = to8(out[i])
		}
	}
}

func blendComponent(c gputypes.BlendComponent, s, dv float64, src, dst [4]float64) float64 {
	sf := factor(c.SrcFactor, src, dst, s, dv)
	df := factor(c.DstFactor, src, dst, s, dv)
	a, b := s*sf, dv*df
	switch c.Operation {
	case gputypes.BlendOperationSubtract:
		return a - b
	case gputypes.BlendOperationReverseSubtract:
		return b - a
	case gputypes.BlendOperationMin:
		return math.Min(s, dv)
	case gputypes.BlendOperationMax:
		return math.Max(s, dv)
	default:
		return a + b
	}
}

// factor resolves a blend factor for one channel. s and dv are the source
// and destination values of that channel.
func factor(f gputypes.BlendFactor, src, dst [4]float64, s, dv float64) float64 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorSrc:
		return s
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - s
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	case gputypes.BlendFactorDst:
		return dv
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dv
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst[3]
	case gputypes.BlendFactorSrcAlphaSaturated:
		return math.Min(src[3], 1-dst[3])
	default:
		return 1
	}
}

func to8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
